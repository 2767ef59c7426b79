package event

import (
	"hanakoi.game.logic/internal/game/koikoi"
)

// Type 事件类型
type Type string

const (
	TypeGameStarted                Type = "GAME_STARTED"
	TypeRoundDealt                 Type = "ROUND_DEALT"
	TypeTurnCompleted              Type = "TURN_COMPLETED"
	TypeSelectionRequired          Type = "SELECTION_REQUIRED"
	TypeTurnProgressAfterSelection Type = "TURN_PROGRESS_AFTER_SELECTION"
	TypeDecisionRequired           Type = "DECISION_REQUIRED"
	TypeDecisionMade               Type = "DECISION_MADE"
	TypeRoundEnded                 Type = "ROUND_ENDED"
	TypeGameFinished               Type = "GAME_FINISHED"
	TypeContinueRequired           Type = "CONTINUE_CONFIRMATION_REQUIRED"
	TypeTurnError                  Type = "TURN_ERROR"
	TypeGameError                  Type = "GAME_ERROR"
	TypeGameSnapshotRestore        Type = "GAME_SNAPSHOT_RESTORE"
)

// Event 对局事件
// 封闭的变体集合: 每种事件一个具体结构体, 消费方用类型开关做穷尽匹配
// (新增事件类型时 replay.go 的开关会在编译期暴露缺口)
type Event interface {
	EventType() Type
	Game() string
}

// Targeted 只发给单个玩家的事件 (校验错误只回给出错方, 快照只回给重连方)
type Targeted interface {
	TargetPlayerId() string
}

// MoveView 一次出牌操作的事件视图 (全部使用4位牌编码)
type MoveView struct {
	PlayedCard     string   `json:"played_card"`
	PlayedCaptures []string `json:"played_captures,omitempty"`
	DrawnCard      string   `json:"drawn_card,omitempty"`
	DrawnCaptures  []string `json:"drawn_captures,omitempty"`
}

// NewMoveView 从领域结果构建事件视图
func NewMoveView(m *koikoi.MoveResult) MoveView {
	view := MoveView{
		PlayedCard:     m.PlayedCard.Code(),
		PlayedCaptures: koikoi.Codes(m.PlayedCaptures),
		DrawnCaptures:  koikoi.Codes(m.DrawnCaptures),
	}
	if m.DrawnCard != nil {
		view.DrawnCard = m.DrawnCard.Code()
	}
	return view
}

// GameStarted 对局开始
type GameStarted struct {
	GameId      string          `json:"game_id"`
	Players     []koikoi.Player `json:"players"`
	TotalRounds int             `json:"total_rounds"`
}

func (e GameStarted) EventType() Type { return TypeGameStarted }
func (e GameStarted) Game() string    { return e.GameId }

// RoundDealt 回合发牌完成
// Hands 含双方手牌; 客户端通道按玩家裁剪后投递, 不泄露对手手牌
type RoundDealt struct {
	GameId         string              `json:"game_id"`
	RoundNumber    int                 `json:"round_number"`
	FirstPlayerId  string              `json:"first_player_id"`
	Field          []string            `json:"field"`
	Hands          map[string][]string `json:"hands"`
	DrawPileCount  int                 `json:"draw_pile_count"`
	TimeoutSeconds int                 `json:"timeout_seconds"`
}

func (e RoundDealt) EventType() Type { return TypeRoundDealt }
func (e RoundDealt) Game() string    { return e.GameId }

// TurnCompleted 一手结束, 轮到下一位玩家
type TurnCompleted struct {
	GameId         string           `json:"game_id"`
	PlayerId       string           `json:"player_id"`
	Move           MoveView         `json:"move"`
	NextPlayerId   string           `json:"next_player_id"`
	FlowState      koikoi.FlowState `json:"flow_state"`
	TimeoutSeconds int              `json:"timeout_seconds"`
	IsFinalMove    bool             `json:"is_final_move,omitempty"` // 本手打完全部手牌
	Auto           bool             `json:"auto,omitempty"`          // 系统代打 (超时/托管)
}

func (e TurnCompleted) EventType() Type { return TypeTurnCompleted }
func (e TurnCompleted) Game() string    { return e.GameId }

// SelectionRequired 抽牌双匹配, 需要选择捕获目标
type SelectionRequired struct {
	GameId         string   `json:"game_id"`
	PlayerId       string   `json:"player_id"`
	Move           MoveView `json:"move"`
	DrawnCard      string   `json:"drawn_card"`
	Options        []string `json:"options"`
	TimeoutSeconds int      `json:"timeout_seconds"`
}

func (e SelectionRequired) EventType() Type { return TypeSelectionRequired }
func (e SelectionRequired) Game() string    { return e.GameId }

// TurnProgressAfterSelection 选择结算后的回合推进
type TurnProgressAfterSelection struct {
	GameId         string           `json:"game_id"`
	PlayerId       string           `json:"player_id"`
	Captured       []string         `json:"captured"`
	NextPlayerId   string           `json:"next_player_id,omitempty"`
	FlowState      koikoi.FlowState `json:"flow_state"`
	TimeoutSeconds int              `json:"timeout_seconds"`
	IsFinalMove    bool             `json:"is_final_move,omitempty"`
}

func (e TurnProgressAfterSelection) EventType() Type { return TypeTurnProgressAfterSelection }
func (e TurnProgressAfterSelection) Game() string    { return e.GameId }

// DecisionRequired 新役成立, 等待こいこい决策
// 携带成立役快照, 断线重连后客户端据此恢复决策界面
type DecisionRequired struct {
	GameId         string        `json:"game_id"`
	PlayerId       string        `json:"player_id"`
	Move           MoveView      `json:"move"`
	NewYaku        []koikoi.Yaku `json:"new_yaku"`
	ActiveYaku     []koikoi.Yaku `json:"active_yaku"`
	BaseScore      int           `json:"base_score"`
	TimeoutSeconds int           `json:"timeout_seconds"`
}

func (e DecisionRequired) EventType() Type { return TypeDecisionRequired }
func (e DecisionRequired) Game() string    { return e.GameId }

// DecisionMade こいこい决策完成
type DecisionMade struct {
	GameId         string `json:"game_id"`
	PlayerId       string `json:"player_id"`
	Decision       string `json:"decision"` // KOI_KOI / END_ROUND
	TimesContinued int    `json:"times_continued,omitempty"`
	NextPlayerId   string `json:"next_player_id,omitempty"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty"`
	Auto           bool   `json:"auto,omitempty"`
}

func (e DecisionMade) EventType() Type { return TypeDecisionMade }
func (e DecisionMade) Game() string    { return e.GameId }

// RoundEnded 回合结束
type RoundEnded struct {
	GameId           string                    `json:"game_id"`
	Reason           koikoi.RoundEndReason     `json:"reason"`
	WinnerId         string                    `json:"winner_id,omitempty"`
	Yaku             []koikoi.Yaku             `json:"yaku,omitempty"`
	Score            *koikoi.FinalScore        `json:"score,omitempty"`
	Special          *koikoi.SpecialRuleResult `json:"special,omitempty"`
	CumulativeScores map[string]int            `json:"cumulative_scores"`
	RoundsPlayed     int                       `json:"rounds_played"`
}

func (e RoundEnded) EventType() Type { return TypeRoundEnded }
func (e RoundEnded) Game() string    { return e.GameId }

// GameFinished 对局结束
type GameFinished struct {
	GameId           string         `json:"game_id"`
	WinnerId         string         `json:"winner_id,omitempty"` // 平分为空
	CumulativeScores map[string]int `json:"cumulative_scores"`
	Reason           string         `json:"reason"` // COMPLETED / OPPONENT_LEFT / DISCONNECT_TIMEOUT / CONFIRM_TIMEOUT
}

func (e GameFinished) EventType() Type { return TypeGameFinished }
func (e GameFinished) Game() string    { return e.GameId }

// ContinueRequired 回合边界的继续确认 (闲置玩家必须在时限内显式选择继续或离开)
type ContinueRequired struct {
	GameId         string `json:"game_id"`
	PlayerId       string `json:"player_id"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

func (e ContinueRequired) EventType() Type        { return TypeContinueRequired }
func (e ContinueRequired) Game() string           { return e.GameId }
func (e ContinueRequired) TargetPlayerId() string { return e.PlayerId }

// TurnError 回合操作校验失败 (只回给出错方, 不改变对局状态)
type TurnError struct {
	GameId   string `json:"game_id"`
	PlayerId string `json:"player_id"`
	Code     string `json:"code"`
	Message  string `json:"message"`
}

func (e TurnError) EventType() Type        { return TypeTurnError }
func (e TurnError) Game() string           { return e.GameId }
func (e TurnError) TargetPlayerId() string { return e.PlayerId }

// GameError 对局级错误 (只回给出错方)
type GameError struct {
	GameId   string `json:"game_id"`
	PlayerId string `json:"player_id"`
	Code     string `json:"code"`
	Message  string `json:"message"`
}

func (e GameError) EventType() Type        { return TypeGameError }
func (e GameError) Game() string           { return e.GameId }
func (e GameError) TargetPlayerId() string { return e.PlayerId }

// GameSnapshotRestore 重连时的全量状态恢复 (只发给重连方)
type GameSnapshotRestore struct {
	GameId           string                   `json:"game_id"`
	PlayerId         string                   `json:"player_id"`
	Status           koikoi.GameStatus        `json:"status"`
	RoundsPlayed     int                      `json:"rounds_played"`
	TotalRounds      int                      `json:"total_rounds"`
	CumulativeScores map[string]int           `json:"cumulative_scores"`
	ActivePlayerId   string                   `json:"active_player_id,omitempty"`
	FlowState        koikoi.FlowState         `json:"flow_state,omitempty"`
	Field            []string                 `json:"field,omitempty"`
	DrawPileCount    int                      `json:"draw_pile_count"`
	Hand             []string                 `json:"hand,omitempty"`
	OpponentHandSize int                      `json:"opponent_hand_size"`
	Depositories     map[string][]string      `json:"depositories,omitempty"`
	Pending          *koikoi.PendingSelection `json:"pending,omitempty"`
	AwaitingDecision []koikoi.Yaku            `json:"awaiting_decision,omitempty"`
	TimeoutSeconds   int                      `json:"timeout_seconds,omitempty"`
}

func (e GameSnapshotRestore) EventType() Type        { return TypeGameSnapshotRestore }
func (e GameSnapshotRestore) Game() string           { return e.GameId }
func (e GameSnapshotRestore) TargetPlayerId() string { return e.PlayerId }
