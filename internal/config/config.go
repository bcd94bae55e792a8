package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultDevAccountKey is the pre-funded account of a local Nitro dev node.
const DefaultDevAccountKey = "0xb6b15c8cb491557369f3c7d2c287b053eb229daa9c22138887752191c9520659"

type Config struct {
	Node     NodeConfig     `mapstructure:"node"`
	Explorer ExplorerConfig `mapstructure:"explorer"`
	Follow   FollowConfig   `mapstructure:"follow"`
	API      APIConfig      `mapstructure:"api"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Log      LogConfig      `mapstructure:"log"`
}

type NodeConfig struct {
	RPCURL         string        `mapstructure:"rpc_url"`
	WebsocketURL   string        `mapstructure:"ws_url"`
	ChainID        int64         `mapstructure:"chain_id"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	PollInterval   time.Duration `mapstructure:"poll_interval"`
}

type ExplorerConfig struct {
	PageSize      int    `mapstructure:"page_size"`
	DevAccountKey string `mapstructure:"dev_account_key"`
}

type FollowConfig struct {
	StartBlock    uint64 `mapstructure:"start_block"`
	MaxBlockRange uint64 `mapstructure:"max_block_range"`
}

type APIConfig struct {
	Address     string `mapstructure:"address"`
	MaxPageSize int    `mapstructure:"max_page_size"`
}

type KafkaConfig struct {
	Enabled      bool     `mapstructure:"enabled"`
	Brokers      []string `mapstructure:"brokers"`
	Topic        string   `mapstructure:"topic"`
	BatchSize    int      `mapstructure:"batch_size"`
	BatchTimeout int      `mapstructure:"batch_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("node.rpc_url", "http://localhost:8547")
	v.SetDefault("node.ws_url", "")
	v.SetDefault("node.chain_id", 412346)
	v.SetDefault("node.request_timeout", 10*time.Second)
	v.SetDefault("node.poll_interval", time.Second)

	v.SetDefault("explorer.page_size", 20)
	v.SetDefault("explorer.dev_account_key", DefaultDevAccountKey)

	v.SetDefault("follow.start_block", 0)
	v.SetDefault("follow.max_block_range", 20)

	v.SetDefault("api.address", ":8080")
	v.SetDefault("api.max_page_size", 100)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "nitro-blocks")
	v.SetDefault("kafka.batch_size", 100)
	v.SetDefault("kafka.batch_timeout", 10)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// LoadConfig reads configuration from path, which is either a config file
// or a directory searched for config.yaml. A missing file in a searched
// directory is not an error; every key has a default.
// Environment variables prefixed with EXPLORER_ override file values,
// e.g. EXPLORER_NODE_RPC_URL.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	explicit := isConfigFile(path)
	if explicit {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(path)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("EXPLORER")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	err := v.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	err = v.Unmarshal(&config)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// isConfigFile reports whether path names a config file rather than a
// directory to search. A missing path counts as a file when it has an
// extension, so a mistyped --config fails loudly.
func isConfigFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return filepath.Ext(path) != ""
	}
	return !info.IsDir()
}

// Validate checks the values the explorer cannot run without.
func (c *Config) Validate() error {
	if c.Node.RPCURL == "" {
		return fmt.Errorf("node.rpc_url is required")
	}
	if c.Node.RequestTimeout <= 0 {
		return fmt.Errorf("node.request_timeout must be > 0")
	}
	if c.Node.PollInterval <= 0 {
		return fmt.Errorf("node.poll_interval must be > 0")
	}
	if c.Explorer.PageSize <= 0 {
		return fmt.Errorf("explorer.page_size must be > 0")
	}
	if c.API.MaxPageSize <= 0 {
		return fmt.Errorf("api.max_page_size must be > 0")
	}
	if c.Follow.MaxBlockRange == 0 {
		return fmt.Errorf("follow.max_block_range must be > 0")
	}
	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka.brokers is required when kafka is enabled")
		}
		if c.Kafka.Topic == "" {
			return fmt.Errorf("kafka.topic is required when kafka is enabled")
		}
	}
	return nil
}
