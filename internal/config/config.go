package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	NATS     NATSConfig     `mapstructure:"nats"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Game     GameConfig     `mapstructure:"game"`
}

type AppConfig struct {
	Name     string `mapstructure:"name"`
	NodeID   int64  `mapstructure:"node_id"`
	LogLevel string `mapstructure:"log_level"`
}

type NATSConfig struct {
	URL            string        `mapstructure:"url"`
	MaxReconnects  int           `mapstructure:"max_reconnects"`
	ReconnectWait  time.Duration `mapstructure:"reconnect_wait"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Name            string        `mapstructure:"name"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// GameConfig 对局相关配置
type GameConfig struct {
	// 超时时长
	ActionSeconds      int           `mapstructure:"action_seconds"`      // 客户端可见的动作时限 (秒)
	ActionBuffer       time.Duration `mapstructure:"action_buffer"`       // 服务端附加缓冲
	DisconnectTimeout  time.Duration `mapstructure:"disconnect_timeout"`  // 断线判负
	IdleTimeout        time.Duration `mapstructure:"idle_timeout"`        // 闲置标记
	ConfirmTimeout     time.Duration `mapstructure:"confirm_timeout"`     // 回合间继续确认
	AcceleratedTimeout time.Duration `mapstructure:"accelerated_timeout"` // 托管加速

	// 调度与存储
	SchedulerTick    time.Duration `mapstructure:"scheduler_tick"`
	SchedulerSlots   int           `mapstructure:"scheduler_slots"`
	SchedulerWorkers int           `mapstructure:"scheduler_workers"`
	EvictTimeout     time.Duration `mapstructure:"evict_timeout"` // 不活跃对局淘汰
}

// Load 从指定路径加载配置
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
