package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"hanakoi.game.logic/internal/game/koikoi"
)

// GameRepository 对局快照仓库
// 持久层是滞后的尽力而为镜像: 活跃对局的权威状态在内存里,
// 这里只服务崩溃恢复和赛后查询
type GameRepository struct {
	db *pgxpool.Pool
}

// NewGameRepository 创建对局快照仓库
func NewGameRepository(db *pgxpool.Pool) *GameRepository {
	return &GameRepository{db: db}
}

// Save 保存对局快照 (upsert)
func (r *GameRepository) Save(ctx context.Context, g *koikoi.Game) error {
	snapshot, err := json.Marshal(g)
	if err != nil {
		return err
	}

	scores, err := json.Marshal(g.CumulativeScores)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO games (id, status, rounds_played, total_rounds, scores, snapshot, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			rounds_played = EXCLUDED.rounds_played,
			scores = EXCLUDED.scores,
			snapshot = EXCLUDED.snapshot,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.Exec(ctx, query,
		g.Id,
		string(g.Status),
		g.RoundsPlayed,
		g.TotalRounds,
		scores,
		snapshot,
		g.CreatedAt,
		time.Now(),
	)

	return err
}

// Load 按ID加载对局快照, 不存在时返回 (nil, nil)
func (r *GameRepository) Load(ctx context.Context, gameId string) (*koikoi.Game, error) {
	query := `SELECT snapshot FROM games WHERE id = $1`

	var snapshot []byte
	err := r.db.QueryRow(ctx, query, gameId).Scan(&snapshot)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var g koikoi.Game
	if err := json.Unmarshal(snapshot, &g); err != nil {
		return nil, err
	}

	return &g, nil
}
