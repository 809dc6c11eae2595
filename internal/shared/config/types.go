package config

import (
	"fmt"
	"time"
)

type ServerConfig struct {
	Host           string   `mapstructure:"host"`
	Port           int      `mapstructure:"port"`
	Mode           string   `mapstructure:"mode"`
	BaseURL        string   `mapstructure:"base_url"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

func (s *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

func (d *DatabaseConfig) GetDSN() string {
	if d.Driver == "sqlite" {
		return d.Database
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		d.Username, d.Password, d.Host, d.Port, d.Database)
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// AICloudConfig configures the client for the remote AI service.
// TimeoutSeconds applies per request; the core never retries on its own.
type AICloudConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	// EncryptionKey protects the stored tenant API key at rest.
	// Hex-encoded, must decode to exactly 32 bytes.
	EncryptionKey string `mapstructure:"encryption_key"`
}

func (a *AICloudConfig) Timeout() time.Duration {
	if a.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// IndexingConfig holds operator-tunable indexing knobs. It is read at the
// start of each operation and passed down explicitly, never read ambiently.
type IndexingConfig struct {
	ChunkSize      int  `mapstructure:"chunk_size"`
	OverlapPercent int  `mapstructure:"overlap_percent"`
	BatchSize      int  `mapstructure:"batch_size"`
	IndexImages    bool `mapstructure:"index_images"`
	AutoIndex      bool `mapstructure:"auto_index"`
}

type AutomationConfig struct {
	// CreditCacheTTLSeconds bounds how stale the cached credit balance may be
	// when gating a task run. Zero forces a live fetch before every run.
	CreditCacheTTLSeconds int    `mapstructure:"credit_cache_ttl_seconds"`
	MaxGenerationRetries  int    `mapstructure:"max_generation_retries"`
	SeedFile              string `mapstructure:"seed_file"`
	Timezone              string `mapstructure:"timezone"`
}

func (a *AutomationConfig) CreditCacheTTL() time.Duration {
	return time.Duration(a.CreditCacheTTLSeconds) * time.Second
}

type SMTPConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	FromAddress string `mapstructure:"from_address"`
	FromName    string `mapstructure:"from_name"`
	OperatorTo  string `mapstructure:"operator_to"`
}

type JWTConfig struct {
	Secret           string `mapstructure:"secret"`
	AccessExpMinutes int    `mapstructure:"access_exp_minutes"`
}

type AuthConfig struct {
	JWT JWTConfig `mapstructure:"jwt"`
	// AdminAPIKey is exchanged for a short-lived JWT at the token endpoint.
	AdminAPIKey string `mapstructure:"admin_api_key"`
}
