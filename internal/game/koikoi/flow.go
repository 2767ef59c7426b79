package koikoi

// FlowState 回合内流程状态
type FlowState string

const (
	FlowAwaitingHandPlay  FlowState = "AWAITING_HAND_PLAY" // 等待出手牌 (初始状态)
	FlowAwaitingSelection FlowState = "AWAITING_SELECTION" // 抽牌双匹配, 等待选择目标
	FlowAwaitingDecision  FlowState = "AWAITING_DECISION"  // 役成立, 等待こいこい决策
)

// FlowAction 流程动作
type FlowAction string

const (
	ActionDoubleMatchOnDraw FlowAction = "DOUBLE_MATCH_ON_DRAW"
	ActionYakuFormed        FlowAction = "YAKU_FORMED"
	ActionTurnComplete      FlowAction = "TURN_COMPLETE"
	ActionDecideKoiKoi      FlowAction = "DECIDE_KOI_KOI"

	// ActionDecideEndRound 结束回合决策
	// 合法动作但不在转换表内: 回合结束销毁 Round 本身, 由调用方在状态机之外处理
	ActionDecideEndRound FlowAction = "DECIDE_END_ROUND"
)

// flowTable 状态转换表
// 全量列举: 未列出的 (state, action) 组合一律非法
var flowTable = map[FlowState]map[FlowAction]FlowState{
	FlowAwaitingHandPlay: {
		ActionDoubleMatchOnDraw: FlowAwaitingSelection,
		ActionYakuFormed:        FlowAwaitingDecision,
		ActionTurnComplete:      FlowAwaitingHandPlay,
	},
	FlowAwaitingSelection: {
		ActionYakuFormed:   FlowAwaitingDecision,
		ActionTurnComplete: FlowAwaitingHandPlay,
	},
	FlowAwaitingDecision: {
		ActionDecideKoiKoi: FlowAwaitingHandPlay,
	},
}

// TransitionResult 转换校验结果
type TransitionResult struct {
	Valid     bool
	NextState FlowState
	Reason    string
}

// ValidateTransition 校验状态转换, 合法时返回下一状态
func ValidateTransition(state FlowState, action FlowAction) TransitionResult {
	actions, ok := flowTable[state]
	if !ok {
		return TransitionResult{Reason: "unknown state: " + string(state)}
	}

	next, ok := actions[action]
	if !ok {
		return TransitionResult{Reason: "action " + string(action) + " not allowed in state " + string(state)}
	}

	return TransitionResult{Valid: true, NextState: next}
}
