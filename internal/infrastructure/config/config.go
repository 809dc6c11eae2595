package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"

	sharedConfig "threadmind/internal/shared/config"
)

type Config struct {
	Server     sharedConfig.ServerConfig     `mapstructure:"server"`
	Database   sharedConfig.DatabaseConfig   `mapstructure:"database"`
	Logger     sharedConfig.LoggerConfig     `mapstructure:"logger"`
	Redis      sharedConfig.RedisConfig      `mapstructure:"redis"`
	AICloud    sharedConfig.AICloudConfig    `mapstructure:"aicloud"`
	Indexing   sharedConfig.IndexingConfig   `mapstructure:"indexing"`
	Automation sharedConfig.AutomationConfig `mapstructure:"automation"`
	SMTP       sharedConfig.SMTPConfig       `mapstructure:"smtp"`
	Auth       sharedConfig.AuthConfig       `mapstructure:"auth"`
}

var (
	appConfig   *Config
	appConfigMu sync.RWMutex
)

// Load loads configuration from file and environment variables
func Load(env string) (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../configs")
	viper.AddConfigPath("../../configs")

	viper.SetEnvPrefix("THREADMIND")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if env != "" && env != "default" {
		viper.Set("server.mode", env)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	appConfigMu.Lock()
	appConfig = &config
	appConfigMu.Unlock()

	return &config, nil
}

// Get returns the loaded configuration
func Get() *Config {
	appConfigMu.RLock()
	defer appConfigMu.RUnlock()
	return appConfig
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "release")

	viper.SetDefault("database.driver", "sqlite")
	viper.SetDefault("database.database", "threadmind.db")
	viper.SetDefault("database.max_idle_conns", 10)
	viper.SetDefault("database.max_open_conns", 100)
	viper.SetDefault("database.conn_max_lifetime", 3600)

	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "console")
	viper.SetDefault("logger.output_path", "stdout")

	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("aicloud.base_url", "https://api.threadmind.cloud/v1")
	viper.SetDefault("aicloud.timeout_seconds", 30)

	viper.SetDefault("indexing.chunk_size", 512)
	viper.SetDefault("indexing.overlap_percent", 20)
	viper.SetDefault("indexing.batch_size", 25)
	viper.SetDefault("indexing.index_images", false)
	viper.SetDefault("indexing.auto_index", false)

	viper.SetDefault("automation.credit_cache_ttl_seconds", 300)
	viper.SetDefault("automation.max_generation_retries", 3)
	viper.SetDefault("automation.timezone", "UTC")

	viper.SetDefault("auth.jwt.access_exp_minutes", 60)
}
