package koikoi

import "fmt"

// GameError 游戏错误类型
type GameError struct {
	Code    string                 // 错误代码
	Message string                 // 错误消息
	Cause   error                  // 原因错误
	Context map[string]interface{} // 错误上下文
}

func (e *GameError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *GameError) Unwrap() error {
	return e.Cause
}

// Is 按错误代码比较, 使 errors.Is 对派生错误(WithContext 副本)仍然成立
func (e *GameError) Is(target error) bool {
	t, ok := target.(*GameError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewGameError 创建游戏错误
func NewGameError(code, message string) *GameError {
	return &GameError{
		Code:    code,
		Message: message,
	}
}

// WithCause 添加原因错误 (返回副本, 预定义错误保持不变)
func (e *GameError) WithCause(cause error) *GameError {
	clone := *e
	clone.Cause = cause
	return &clone
}

// WithContext 添加上下文信息 (返回副本)
func (e *GameError) WithContext(key string, value interface{}) *GameError {
	clone := *e
	clone.Context = make(map[string]interface{}, len(e.Context)+1)
	for k, v := range e.Context {
		clone.Context[k] = v
	}
	clone.Context[key] = value
	return &clone
}

// 牌和牌堆相关错误
var (
	ErrInvalidCardCode    = NewGameError("INVALID_CARD_CODE", "无效的牌编码")
	ErrInvalidDeckSize    = NewGameError("INVALID_DECK_SIZE", "牌堆必须是48张")
	ErrInvalidDeck        = NewGameError("INVALID_DECK", "牌堆不合法")
	ErrInvalidPlayerCount = NewGameError("INVALID_PLAYER_COUNT", "玩家数量必须是2")
)

// 回合操作相关错误
var (
	ErrWrongPlayer         = NewGameError("WRONG_PLAYER", "不是该玩家的回合")
	ErrCardNotInHand       = NewGameError("CARD_NOT_IN_HAND", "手牌中没有指定的牌")
	ErrTargetNotOnField    = NewGameError("TARGET_NOT_ON_FIELD", "场上没有指定的目标牌")
	ErrTargetMonthMismatch = NewGameError("TARGET_MONTH_MISMATCH", "目标牌月份不匹配")
	ErrTargetRequired      = NewGameError("TARGET_REQUIRED", "场上有多张同月牌, 必须指定目标")
	ErrInvalidSelection    = NewGameError("INVALID_SELECTION", "选择与待处理的抽牌不匹配")
	ErrNoPendingSelection  = NewGameError("NO_PENDING_SELECTION", "没有待处理的选择")
	ErrDrawPileEmpty       = NewGameError("DRAW_PILE_EMPTY", "抽牌堆已空")
)

// 状态相关错误
var (
	ErrInvalidState           = NewGameError("INVALID_STATE", "当前流程状态不允许此操作")
	ErrInvalidStateTransition = NewGameError("INVALID_STATE_TRANSITION", "无效的状态转换")
	ErrRoundNotActive         = NewGameError("ROUND_NOT_ACTIVE", "当前没有进行中的回合")
	ErrGameFinished           = NewGameError("GAME_FINISHED", "游戏已结束")
)
