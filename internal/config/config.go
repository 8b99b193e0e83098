package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Database   DatabaseConfig
	Redis      RedisConfig
	Cache      CacheConfig
	Log        LogConfig
	Simulation SimulationConfig
	Gate       GateConfig
	Engine     EngineConfig
	Terminal   TerminalConfig
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxConns        int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CacheConfig struct {
	// Enabled toggles the redis-backed fare quote cache.
	Enabled  bool
	QuoteTTL time.Duration
}

type LogConfig struct {
	Level string
}

type SimulationConfig struct {
	// TickInterval is the wall-clock duration of one simulation step.
	TickInterval time.Duration
	// Demo runs a scripted end-to-end journey on startup.
	Demo bool
}

type GateConfig struct {
	CooldownTicks       int
	PendingTimeoutTicks int
	CloseDelayTicks     int
	MaxTravelMinutes    int
}

type EngineConfig struct {
	// StrictFares makes a missing adjacent fare fail a cumulative
	// line query instead of contributing zero to the sum.
	StrictFares bool
}

type TerminalConfig struct {
	// DistanceFallback enables pricing from station positions when
	// no priced route exists between the endpoints.
	DistanceFallback bool
}

func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := &Config{
		Database: DatabaseConfig{
			Host:            viper.GetString("DB_HOST"),
			Port:            viper.GetInt("DB_PORT"),
			User:            viper.GetString("DB_USER"),
			Password:        viper.GetString("DB_PASSWORD"),
			DBName:          viper.GetString("DB_NAME"),
			SSLMode:         viper.GetString("DB_SSLMODE"),
			MaxConns:        viper.GetInt("DB_MAX_CONNS"),
			MaxIdleConns:    viper.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: time.Duration(viper.GetInt("DB_CONN_MAX_LIFETIME")) * time.Second,
			ConnMaxIdleTime: time.Duration(viper.GetInt("DB_CONN_MAX_IDLE_TIME")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetInt("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		Cache: CacheConfig{
			Enabled:  viper.GetBool("QUOTE_CACHE_ENABLED"),
			QuoteTTL: time.Duration(viper.GetInt("QUOTE_CACHE_TTL")) * time.Second,
		},
		Log: LogConfig{
			Level: viper.GetString("LOG_LEVEL"),
		},
		Simulation: SimulationConfig{
			TickInterval: time.Duration(viper.GetInt("SIM_TICK_INTERVAL_MS")) * time.Millisecond,
			Demo:         viper.GetBool("SIM_DEMO"),
		},
		Gate: GateConfig{
			CooldownTicks:       viper.GetInt("GATE_COOLDOWN_TICKS"),
			PendingTimeoutTicks: viper.GetInt("GATE_PENDING_TIMEOUT_TICKS"),
			CloseDelayTicks:     viper.GetInt("GATE_CLOSE_DELAY_TICKS"),
			MaxTravelMinutes:    viper.GetInt("GATE_MAX_TRAVEL_MINUTES"),
		},
		Engine: EngineConfig{
			StrictFares: viper.GetBool("ENGINE_STRICT_FARES"),
		},
		Terminal: TerminalConfig{
			DistanceFallback: viper.GetBool("TERMINAL_DISTANCE_FALLBACK"),
		},
	}

	// Set default values if not provided
	if cfg.Cache.QuoteTTL == 0 {
		cfg.Cache.QuoteTTL = 300 * time.Second
	}
	if cfg.Simulation.TickInterval == 0 {
		// 20 steps per second, the rate the gate tick constants assume
		cfg.Simulation.TickInterval = 50 * time.Millisecond
	}
	if cfg.Gate.CooldownTicks == 0 {
		cfg.Gate.CooldownTicks = 20
	}
	if cfg.Gate.PendingTimeoutTicks == 0 {
		cfg.Gate.PendingTimeoutTicks = 1200
	}
	if cfg.Gate.CloseDelayTicks == 0 {
		cfg.Gate.CloseDelayTicks = 2
	}
	if cfg.Gate.MaxTravelMinutes == 0 {
		cfg.Gate.MaxTravelMinutes = 1440
	}

	return cfg, nil
}

func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
		c.Database.SSLMode,
	)
}

func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}
