package connection

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// PlayerLocationKeyPrefix 玩家位置 Redis Key 前缀
	PlayerLocationKeyPrefix = "hanakoi:player:location:"

	// PlayerGameKeyPrefix 玩家在途对局 Redis Key 前缀
	PlayerGameKeyPrefix = "hanakoi:player:game:"

	// LocationTTL 玩家位置 TTL
	LocationTTL = 24 * time.Hour
)

// Location 玩家接入位置
type Location struct {
	PlayerId     string    `json:"playerId"`
	AccessNodeId string    `json:"accessNodeId"`
	ConnectedAt  time.Time `json:"connectedAt"`
}

// Store 玩家在线状态存储
// 位置用于下行事件路由到正确的 Access 节点; 在途对局绑定用于重连时找回对局
type Store struct {
	client *redis.Client
	logger *slog.Logger
}

// NewStore 创建在线状态存储
func NewStore(client *redis.Client) *Store {
	return &Store{
		client: client,
		logger: slog.Default().With("component", "ConnectionStore"),
	}
}

// Register 登记玩家位置
func (s *Store) Register(ctx context.Context, playerId, accessNodeId string) error {
	loc := Location{
		PlayerId:     playerId,
		AccessNodeId: accessNodeId,
		ConnectedAt:  time.Now(),
	}

	data, err := json.Marshal(loc)
	if err != nil {
		return err
	}

	return s.client.Set(ctx, locationKey(playerId), data, LocationTTL).Err()
}

// Unregister 注销玩家位置
// 只在仍登记于同一 Access 节点时删除, 防止误删新连接的登记
func (s *Store) Unregister(ctx context.Context, playerId, accessNodeId string) error {
	loc, err := s.Locate(ctx, playerId)
	if err != nil {
		return err
	}
	if loc == nil || loc.AccessNodeId != accessNodeId {
		return nil
	}

	return s.client.Del(ctx, locationKey(playerId)).Err()
}

// Locate 查询玩家位置, 离线返回 (nil, nil)
func (s *Store) Locate(ctx context.Context, playerId string) (*Location, error) {
	data, err := s.client.Get(ctx, locationKey(playerId)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var loc Location
	if err := json.Unmarshal([]byte(data), &loc); err != nil {
		return nil, err
	}
	return &loc, nil
}

// Refresh 续期玩家位置 TTL
func (s *Store) Refresh(ctx context.Context, playerId string) error {
	return s.client.Expire(ctx, locationKey(playerId), LocationTTL).Err()
}

// BindGame 绑定玩家的在途对局
func (s *Store) BindGame(ctx context.Context, playerId, gameId string) error {
	return s.client.Set(ctx, gameKey(playerId), gameId, LocationTTL).Err()
}

// GameOf 查询玩家的在途对局, 没有返回空串
func (s *Store) GameOf(ctx context.Context, playerId string) (string, error) {
	gameId, err := s.client.Get(ctx, gameKey(playerId)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return gameId, nil
}

// UnbindGame 解除玩家的在途对局绑定
func (s *Store) UnbindGame(ctx context.Context, playerId string) error {
	return s.client.Del(ctx, gameKey(playerId)).Err()
}

func locationKey(playerId string) string {
	return PlayerLocationKeyPrefix + playerId
}

func gameKey(playerId string) string {
	return PlayerGameKeyPrefix + playerId
}
