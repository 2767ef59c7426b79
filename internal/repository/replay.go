package repository

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"hanakoi.game.logic/internal/event"
	"hanakoi.game.logic/internal/snowflake"
)

// ReplayLog 回放日志通道
// 实现 event.Sink: 对局事件按发生顺序追加写入, 事后可重建完整牌局历史
// 写入失败只影响本通道, 对局推进不受影响
type ReplayLog struct {
	db     *pgxpool.Pool
	ids    *snowflake.Node
	logger *slog.Logger
}

// NewReplayLog 创建回放日志通道
func NewReplayLog(db *pgxpool.Pool, ids *snowflake.Node) *ReplayLog {
	return &ReplayLog{
		db:     db,
		ids:    ids,
		logger: slog.Default().With("component", "ReplayLog"),
	}
}

// Name 实现 event.Sink
func (l *ReplayLog) Name() string {
	return "replay-log"
}

// Handle 实现 event.Sink
func (l *ReplayLog) Handle(ctx context.Context, e event.Event) error {
	payload, err := event.ReplayPayload(e)
	if err != nil {
		return err
	}
	if payload == nil {
		return nil // 不构成牌局历史的事件
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO game_events (id, game_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err = l.db.Exec(ctx, query,
		l.ids.Next().Int64(),
		e.Game(),
		string(e.EventType()),
		data,
		time.Now(),
	)

	return err
}

// EventsOf 按发生顺序读取对局的全部回放事件
func (l *ReplayLog) EventsOf(ctx context.Context, gameId string) ([]ReplayEntry, error) {
	query := `
		SELECT id, event_type, payload, created_at
		FROM game_events
		WHERE game_id = $1
		ORDER BY id
	`

	rows, err := l.db.Query(ctx, query, gameId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []ReplayEntry
	for rows.Next() {
		var entry ReplayEntry
		if err := rows.Scan(&entry.Id, &entry.EventType, &entry.Payload, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entry.GameId = gameId
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// ReplayEntry 单条回放事件
type ReplayEntry struct {
	Id        int64           `json:"id"`
	GameId    string          `json:"gameId"`
	EventType string          `json:"eventType"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"createdAt"`
}
