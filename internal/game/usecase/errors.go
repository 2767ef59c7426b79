package usecase

import "hanakoi.game.logic/internal/game/koikoi"

// 用例层错误 (与领域层共用 GameError 类型, 统一映射为 TurnError/GameError 事件)
var (
	ErrGameNotFound      = koikoi.NewGameError("GAME_NOT_FOUND", "对局不存在")
	ErrGameAlreadyExists = koikoi.NewGameError("GAME_ALREADY_EXISTS", "对局已存在")
	ErrGameNotInProgress = koikoi.NewGameError("GAME_NOT_IN_PROGRESS", "对局不在进行中")
	ErrNotAPlayer        = koikoi.NewGameError("NOT_A_PLAYER", "玩家不属于该对局")
	ErrNoConfirmPending  = koikoi.NewGameError("NO_CONFIRM_PENDING", "当前不需要继续确认")
	ErrInvalidDecision   = koikoi.NewGameError("INVALID_DECISION", "无效的决策")
)
