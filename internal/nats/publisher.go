package nats

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/nats-io/nats.go"
	"hanakoi.game.logic/internal/connection"
	"hanakoi.game.logic/internal/event"
)

// DownstreamEvent 下行事件信封
type DownstreamEvent struct {
	Type     event.Type      `json:"type"`
	GameId   string          `json:"game_id"`
	PlayerId string          `json:"player_id"` // 接收方
	Payload  json.RawMessage `json:"payload"`
}

// ClientPusher 客户端推送通道
// 实现 event.Sink: 把对局事件按接收方路由到其所在的 Access 节点
// 定向事件只发给目标玩家; 发牌事件按玩家裁剪, 不泄露对手手牌
type ClientPusher struct {
	nc        *nats.Conn
	locations *connection.Store

	mu      sync.Mutex
	rosters map[string][]string // gameId -> 玩家ID列表

	logger *slog.Logger
}

// NewClientPusher 创建客户端推送通道
func NewClientPusher(nc *nats.Conn, locations *connection.Store) *ClientPusher {
	return &ClientPusher{
		nc:        nc,
		locations: locations,
		rosters:   make(map[string][]string),
		logger:    slog.Default().With("component", "ClientPusher"),
	}
}

// Name 实现 event.Sink
func (p *ClientPusher) Name() string {
	return "client-pusher"
}

// Handle 实现 event.Sink
func (p *ClientPusher) Handle(ctx context.Context, e event.Event) error {
	p.trackRoster(ctx, e)

	for _, playerId := range p.recipients(e) {
		payload, err := p.payloadFor(e, playerId)
		if err != nil {
			return err
		}
		p.push(ctx, e, playerId, payload)
	}

	return nil
}

// trackRoster 维护对局玩家名单 (路由下行事件用)
// 进程重启恢复的对局看不到开局事件, 发牌事件兜底重建名单
func (p *ClientPusher) trackRoster(ctx context.Context, e event.Event) {
	switch ev := e.(type) {
	case event.GameStarted:
		ids := make([]string, len(ev.Players))
		for i, player := range ev.Players {
			ids[i] = player.Id
		}

		p.mu.Lock()
		p.rosters[ev.GameId] = ids
		p.mu.Unlock()

		for _, id := range ids {
			if err := p.locations.BindGame(ctx, id, ev.GameId); err != nil {
				p.logger.Warn("Failed to bind game", "gameId", ev.GameId, "playerId", id, "error", err)
			}
		}

	case event.RoundDealt:
		ids := make([]string, 0, len(ev.Hands))
		for id := range ev.Hands {
			ids = append(ids, id)
		}

		p.mu.Lock()
		p.rosters[ev.GameId] = ids
		p.mu.Unlock()

	case event.GameFinished:
		p.mu.Lock()
		ids := p.rosters[ev.GameId]
		delete(p.rosters, ev.GameId)
		p.mu.Unlock()

		for _, id := range ids {
			if err := p.locations.UnbindGame(ctx, id); err != nil {
				p.logger.Warn("Failed to unbind game", "gameId", ev.GameId, "playerId", id, "error", err)
			}
		}
	}
}

// recipients 确定事件接收方
func (p *ClientPusher) recipients(e event.Event) []string {
	if targeted, ok := e.(event.Targeted); ok {
		return []string{targeted.TargetPlayerId()}
	}

	p.mu.Lock()
	ids := p.rosters[e.Game()]
	p.mu.Unlock()

	return ids
}

// payloadFor 构建接收方视角的事件载荷
func (p *ClientPusher) payloadFor(e event.Event, playerId string) (json.RawMessage, error) {
	if dealt, ok := e.(event.RoundDealt); ok {
		// 只保留接收方自己的手牌
		trimmed := dealt
		trimmed.Hands = map[string][]string{playerId: dealt.Hands[playerId]}
		return json.Marshal(trimmed)
	}

	return json.Marshal(e)
}

// push 推送到接收方所在的 Access 节点, 离线玩家跳过
func (p *ClientPusher) push(ctx context.Context, e event.Event, playerId string, payload json.RawMessage) {
	loc, err := p.locations.Locate(ctx, playerId)
	if err != nil {
		p.logger.Warn("Failed to locate player", "playerId", playerId, "error", err)
		return
	}
	if loc == nil {
		p.logger.Debug("Player offline, skipping push",
			"playerId", playerId, "eventType", e.EventType())
		return
	}

	envelope := DownstreamEvent{
		Type:     e.EventType(),
		GameId:   e.Game(),
		PlayerId: playerId,
		Payload:  payload,
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		p.logger.Error("Failed to marshal downstream event", "error", err)
		return
	}

	subject := BuildAccessDownstreamSubject(loc.AccessNodeId)
	if err := p.nc.Publish(subject, data); err != nil {
		p.logger.Error("Failed to publish to access",
			"accessNodeId", loc.AccessNodeId, "error", err)
		return
	}

	p.logger.Debug("Pushed event",
		"eventType", e.EventType(),
		"gameId", e.Game(),
		"playerId", playerId,
		"accessNodeId", loc.AccessNodeId)
}
