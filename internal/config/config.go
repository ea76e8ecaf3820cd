// Package config loads engine configuration from an optional YAML file,
// falling back to defaults when no file is present.
package config

import (
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config is the full startup configuration of the engine process.
type Config struct {
	// EventLog is the path of the append-only event log file.
	EventLog string `mapstructure:"event_log"`
	// LogLevel is the zap level for process logging.
	LogLevel string `mapstructure:"log_level"`

	// Symbols to pre-register at startup. Empty means lazy registration
	// on first message.
	Symbols []string `mapstructure:"symbols"`

	Workers        int `mapstructure:"workers"`
	ShardQueueSize int `mapstructure:"shard_queue_size"`
	EventQueueSize int `mapstructure:"event_queue_size"`
	BatchSize      int `mapstructure:"batch_size"`

	// DrainWait bounds how long the event log writer parks when its
	// queue is empty.
	DrainWait time.Duration `mapstructure:"drain_wait"`

	MetricsAddr string `mapstructure:"metrics_addr"`

	Kafka  KafkaConfig  `mapstructure:"kafka"`
	Pebble PebbleConfig `mapstructure:"pebble"`
}

// KafkaConfig configures the optional feed consumer and market-data
// publisher. Both are disabled when Brokers is empty.
type KafkaConfig struct {
	Brokers     []string `mapstructure:"brokers"`
	OrdersTopic string   `mapstructure:"orders_topic"`
	TradesTopic string   `mapstructure:"trades_topic"`
	GroupID     string   `mapstructure:"group_id"`
}

// PebbleConfig switches the event log to the binary pebble-backed store
// instead of the text file.
type PebbleConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Dir     string `mapstructure:"dir"`
}

// Load reads path (YAML) over the defaults. A missing file is not an
// error; a malformed one is.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	v.SetDefault("event_log", "./events.log")
	v.SetDefault("log_level", "info")
	v.SetDefault("workers", 4)
	v.SetDefault("shard_queue_size", 1<<14)
	v.SetDefault("event_queue_size", 1<<16)
	v.SetDefault("batch_size", 128)
	v.SetDefault("drain_wait", 20*time.Millisecond)
	v.SetDefault("metrics_addr", "")
	v.SetDefault("kafka.orders_topic", "orders")
	v.SetDefault("kafka.trades_topic", "trades")
	v.SetDefault("kafka.group_id", "exchange-engine")
	v.SetDefault("pebble.enabled", false)
	v.SetDefault("pebble.dir", "./events.db")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, err
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
