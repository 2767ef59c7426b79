package handler

import (
	"context"
	"encoding/json"
	"log/slog"

	"hanakoi.game.logic/internal/connection"
	"hanakoi.game.logic/internal/game/koikoi"
	"hanakoi.game.logic/internal/game/usecase"
	"hanakoi.game.logic/internal/nats"
)

// 上行指令类型
const (
	CmdStartGame       = "START_GAME"
	CmdPlayHandCard    = "PLAY_HAND_CARD"
	CmdSelectTarget    = "SELECT_TARGET"
	CmdMakeDecision    = "MAKE_DECISION"
	CmdConfirmContinue = "CONFIRM_CONTINUE"
	CmdLeave           = "LEAVE"
	CmdPlayerOnline    = "PLAYER_ONLINE"
	CmdPlayerOffline   = "PLAYER_OFFLINE"
)

// 指令载荷 DTO
type (
	startGamePayload struct {
		GameId  string `json:"game_id"`
		Players []struct {
			Id   string `json:"id"`
			IsAI bool   `json:"is_ai"`
		} `json:"players"`
		Rules *struct {
			TotalRounds     *int  `json:"total_rounds"`
			TeshiEnabled    *bool `json:"teshi_enabled"`
			KuttsukiEnabled *bool `json:"kuttsuki_enabled"`
		} `json:"rules"`
	}

	playHandCardPayload struct {
		GameId       string `json:"game_id"`
		CardId       string `json:"card_id"`
		TargetCardId string `json:"target_card_id"`
	}

	selectTargetPayload struct {
		GameId       string `json:"game_id"`
		SourceCardId string `json:"source_card_id"`
		TargetCardId string `json:"target_card_id"`
	}

	makeDecisionPayload struct {
		GameId   string `json:"game_id"`
		Decision string `json:"decision"`
	}

	confirmContinuePayload struct {
		GameId   string `json:"game_id"`
		Decision string `json:"decision"`
	}

	leavePayload struct {
		GameId string `json:"game_id"`
	}
)

// GameHandler 对局指令处理器
// 职责只有解析和分发: 载荷解析失败只记日志 (指令来自内部 Access 节点,
// 格式错误属于部署问题而非用户输入), 业务校验全部在用例层
type GameHandler struct {
	service   *usecase.Service
	locations *connection.Store
	logger    *slog.Logger
}

// NewGameHandler 创建对局指令处理器
func NewGameHandler(service *usecase.Service, locations *connection.Store) *GameHandler {
	return &GameHandler{
		service:   service,
		locations: locations,
		logger:    slog.Default().With("component", "GameHandler"),
	}
}

// HandleCommand 实现 nats.CommandHandler
func (h *GameHandler) HandleCommand(ctx context.Context, cmd *nats.UpstreamCommand) {
	h.logger.Debug("Command received",
		"type", cmd.Type,
		"playerId", cmd.PlayerId,
		"accessNodeId", cmd.AccessNodeId)

	switch cmd.Type {
	case CmdStartGame:
		h.handleStartGame(ctx, cmd)
	case CmdPlayHandCard:
		h.handlePlayHandCard(ctx, cmd)
	case CmdSelectTarget:
		h.handleSelectTarget(ctx, cmd)
	case CmdMakeDecision:
		h.handleMakeDecision(ctx, cmd)
	case CmdConfirmContinue:
		h.handleConfirmContinue(ctx, cmd)
	case CmdLeave:
		h.handleLeave(ctx, cmd)
	case CmdPlayerOnline:
		h.handlePlayerOnline(ctx, cmd)
	case CmdPlayerOffline:
		h.handlePlayerOffline(ctx, cmd)
	default:
		h.logger.Warn("Unknown command type", "type", cmd.Type)
	}
}

func (h *GameHandler) handleStartGame(ctx context.Context, cmd *nats.UpstreamCommand) {
	var payload startGamePayload
	if !h.unmarshal(cmd, &payload) {
		return
	}

	players := make([]koikoi.Player, len(payload.Players))
	for i, p := range payload.Players {
		players[i] = koikoi.Player{Id: p.Id, IsAI: p.IsAI}
	}

	rules := koikoi.DefaultRuleset()
	if payload.Rules != nil {
		if payload.Rules.TotalRounds != nil {
			rules.TotalRounds = *payload.Rules.TotalRounds
		}
		if payload.Rules.TeshiEnabled != nil {
			rules.TeshiEnabled = *payload.Rules.TeshiEnabled
		}
		if payload.Rules.KuttsukiEnabled != nil {
			rules.KuttsukiEnabled = *payload.Rules.KuttsukiEnabled
		}
	}

	if _, err := h.service.StartGame(ctx, usecase.StartGameParams{
		GameId:  payload.GameId,
		Players: players,
		Rules:   &rules,
	}); err != nil {
		h.logger.Warn("Start game failed", "error", err)
	}
}

func (h *GameHandler) handlePlayHandCard(ctx context.Context, cmd *nats.UpstreamCommand) {
	var payload playHandCardPayload
	if !h.unmarshal(cmd, &payload) {
		return
	}

	// 校验失败已作为 TurnError 事件回给玩家, 这里不再处理
	_ = h.service.PlayHandCard(ctx, usecase.PlayHandCardParams{
		GameId:       payload.GameId,
		PlayerId:     cmd.PlayerId,
		CardId:       payload.CardId,
		TargetCardId: payload.TargetCardId,
	})
}

func (h *GameHandler) handleSelectTarget(ctx context.Context, cmd *nats.UpstreamCommand) {
	var payload selectTargetPayload
	if !h.unmarshal(cmd, &payload) {
		return
	}

	_ = h.service.SelectTarget(ctx, usecase.SelectTargetParams{
		GameId:       payload.GameId,
		PlayerId:     cmd.PlayerId,
		SourceCardId: payload.SourceCardId,
		TargetCardId: payload.TargetCardId,
	})
}

func (h *GameHandler) handleMakeDecision(ctx context.Context, cmd *nats.UpstreamCommand) {
	var payload makeDecisionPayload
	if !h.unmarshal(cmd, &payload) {
		return
	}

	_ = h.service.MakeDecision(ctx, usecase.MakeDecisionParams{
		GameId:   payload.GameId,
		PlayerId: cmd.PlayerId,
		Decision: payload.Decision,
	})
}

func (h *GameHandler) handleConfirmContinue(ctx context.Context, cmd *nats.UpstreamCommand) {
	var payload confirmContinuePayload
	if !h.unmarshal(cmd, &payload) {
		return
	}

	_ = h.service.ConfirmContinue(ctx, usecase.ConfirmContinueParams{
		GameId:   payload.GameId,
		PlayerId: cmd.PlayerId,
		Decision: payload.Decision,
	})
}

func (h *GameHandler) handleLeave(ctx context.Context, cmd *nats.UpstreamCommand) {
	var payload leavePayload
	if !h.unmarshal(cmd, &payload) {
		return
	}

	_ = h.service.Leave(ctx, usecase.LeaveParams{
		GameId:   payload.GameId,
		PlayerId: cmd.PlayerId,
	})
}

// handlePlayerOnline 玩家上线: 登记位置, 有在途对局则走重连恢复
func (h *GameHandler) handlePlayerOnline(ctx context.Context, cmd *nats.UpstreamCommand) {
	if err := h.locations.Register(ctx, cmd.PlayerId, cmd.AccessNodeId); err != nil {
		h.logger.Warn("Failed to register player location",
			"playerId", cmd.PlayerId, "error", err)
	}

	gameId, err := h.locations.GameOf(ctx, cmd.PlayerId)
	if err != nil {
		h.logger.Warn("Failed to look up in-flight game",
			"playerId", cmd.PlayerId, "error", err)
		return
	}
	if gameId == "" {
		return
	}

	if err := h.service.HandleReconnect(ctx, gameId, cmd.PlayerId); err != nil {
		h.logger.Warn("Reconnect handling failed",
			"gameId", gameId, "playerId", cmd.PlayerId, "error", err)
	}
}

// handlePlayerOffline 玩家下线: 注销位置, 有在途对局则启动断线计时
func (h *GameHandler) handlePlayerOffline(ctx context.Context, cmd *nats.UpstreamCommand) {
	if err := h.locations.Unregister(ctx, cmd.PlayerId, cmd.AccessNodeId); err != nil {
		h.logger.Warn("Failed to unregister player location",
			"playerId", cmd.PlayerId, "error", err)
	}

	gameId, err := h.locations.GameOf(ctx, cmd.PlayerId)
	if err != nil || gameId == "" {
		return
	}

	if err := h.service.HandleDisconnect(ctx, gameId, cmd.PlayerId); err != nil {
		h.logger.Warn("Disconnect handling failed",
			"gameId", gameId, "playerId", cmd.PlayerId, "error", err)
	}
}

// unmarshal 解析指令载荷
func (h *GameHandler) unmarshal(cmd *nats.UpstreamCommand, v any) bool {
	if err := json.Unmarshal(cmd.Payload, v); err != nil {
		h.logger.Warn("Failed to unmarshal command payload",
			"type", cmd.Type, "error", err)
		return false
	}
	return true
}
