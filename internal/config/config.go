package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/newthinker/signalhub/internal/core"
	"github.com/spf13/viper"
)

// Backend provider names
const (
	BackendAuto     = "auto"
	BackendNone     = "none"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
	Backend BackendConfig `mapstructure:"backend"`
	Mock    MockConfig    `mapstructure:"mock"`
	Admin   AdminConfig   `mapstructure:"admin"`
	LLM     LLMConfig     `mapstructure:"llm"`
	Archive ArchiveConfig `mapstructure:"archive"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

type ServerConfig struct {
	Host      string        `mapstructure:"host"`
	Port      int           `mapstructure:"port"`
	APIKey    string        `mapstructure:"api_key"` // guards admin routes
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// BackendConfig selects the hosted data backend.
type BackendConfig struct {
	Provider string         `mapstructure:"provider"` // auto, none, postgres, sqlite
	Postgres PostgresConfig `mapstructure:"postgres"`
	SQLite   SQLiteConfig   `mapstructure:"sqlite"`
}

type PostgresConfig struct {
	DSN      string `mapstructure:"dsn"`
	MaxConns int32  `mapstructure:"max_conns"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// MockConfig holds the simulated latency of the in-memory fallback.
type MockConfig struct {
	Delay         time.Duration `mapstructure:"delay"`
	BacktestDelay time.Duration `mapstructure:"backtest_delay"`
}

// AdminConfig holds admin panel behaviour.
type AdminConfig struct {
	// DeleteIdentity also removes the login identity when an admin deletes a user.
	DeleteIdentity bool `mapstructure:"delete_identity"`
}

type LLMConfig struct {
	Provider  string        `mapstructure:"provider"`
	RateLimit float64       `mapstructure:"rate_limit"` // requests per second, 0 disables
	Timeout   time.Duration `mapstructure:"timeout"`
	Gemini    GeminiConfig  `mapstructure:"gemini"`
	Claude    ClaudeConfig  `mapstructure:"claude"`
	OpenAI    OpenAIConfig  `mapstructure:"openai"`
	Ollama    OllamaConfig  `mapstructure:"ollama"`
}

type GeminiConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type ClaudeConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type OpenAIConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type OllamaConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Model    string `mapstructure:"model"`
}

// ArchiveConfig holds where analysed charts are kept.
type ArchiveConfig struct {
	Type string   `mapstructure:"type"` // "", "localfs" or "s3"
	Path string   `mapstructure:"path"` // For localfs
	S3   S3Config `mapstructure:"s3"`   // For S3
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// envAliases maps config keys to the conventional variable names that also set them.
var envAliases = map[string][]string{
	"backend.provider":      {"BACKEND_PROVIDER"},
	"backend.postgres.dsn":  {"BACKEND_POSTGRES_DSN", "DATABASE_URL"},
	"backend.sqlite.path":   {"BACKEND_SQLITE_PATH", "SQLITE_PATH"},
	"server.jwt_secret":     {"SERVER_JWT_SECRET", "JWT_SECRET"},
	"server.api_key":        {"SERVER_API_KEY", "ADMIN_API_KEY"},
	"llm.gemini.api_key":    {"LLM_GEMINI_API_KEY", "GEMINI_API_KEY", "API_KEY"},
	"llm.openai.api_key":    {"LLM_OPENAI_API_KEY", "OPENAI_API_KEY"},
	"llm.claude.api_key":    {"LLM_CLAUDE_API_KEY", "ANTHROPIC_API_KEY"},
	"archive.s3.access_key": {"ARCHIVE_S3_ACCESS_KEY", "AWS_ACCESS_KEY_ID"},
	"archive.s3.secret_key": {"ARCHIVE_S3_SECRET_KEY", "AWS_SECRET_ACCESS_KEY"},
}

// Load reads configuration from the optional file at path, then applies
// environment overrides on top of Defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Defaults())

	// Support environment variable overrides
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for key, envs := range envAliases {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("binding env for %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers every key so AutomaticEnv can reach it during Unmarshal.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.api_key", d.Server.APIKey)
	v.SetDefault("server.jwt_secret", d.Server.JWTSecret)
	v.SetDefault("server.token_ttl", d.Server.TokenTTL)
	v.SetDefault("log.level", d.Log.Level)

	v.SetDefault("backend.provider", d.Backend.Provider)
	v.SetDefault("backend.postgres.dsn", d.Backend.Postgres.DSN)
	v.SetDefault("backend.postgres.max_conns", d.Backend.Postgres.MaxConns)
	v.SetDefault("backend.sqlite.path", d.Backend.SQLite.Path)

	v.SetDefault("mock.delay", d.Mock.Delay)
	v.SetDefault("mock.backtest_delay", d.Mock.BacktestDelay)
	v.SetDefault("admin.delete_identity", d.Admin.DeleteIdentity)

	v.SetDefault("llm.provider", d.LLM.Provider)
	v.SetDefault("llm.rate_limit", d.LLM.RateLimit)
	v.SetDefault("llm.timeout", d.LLM.Timeout)
	v.SetDefault("llm.gemini.api_key", d.LLM.Gemini.APIKey)
	v.SetDefault("llm.gemini.model", d.LLM.Gemini.Model)
	v.SetDefault("llm.claude.api_key", d.LLM.Claude.APIKey)
	v.SetDefault("llm.claude.model", d.LLM.Claude.Model)
	v.SetDefault("llm.openai.api_key", d.LLM.OpenAI.APIKey)
	v.SetDefault("llm.openai.model", d.LLM.OpenAI.Model)
	v.SetDefault("llm.ollama.endpoint", d.LLM.Ollama.Endpoint)
	v.SetDefault("llm.ollama.model", d.LLM.Ollama.Model)

	v.SetDefault("archive.type", d.Archive.Type)
	v.SetDefault("archive.path", d.Archive.Path)
	v.SetDefault("archive.s3.bucket", d.Archive.S3.Bucket)
	v.SetDefault("archive.s3.endpoint", d.Archive.S3.Endpoint)
	v.SetDefault("archive.s3.region", d.Archive.S3.Region)
	v.SetDefault("archive.s3.access_key", d.Archive.S3.AccessKey)
	v.SetDefault("archive.s3.secret_key", d.Archive.S3.SecretKey)
	v.SetDefault("archive.s3.prefix", d.Archive.S3.Prefix)

	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.path", d.Metrics.Path)
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:     "0.0.0.0",
			Port:     8080,
			TokenTTL: 24 * time.Hour,
		},
		Log: LogConfig{
			Level: "info",
		},
		Backend: BackendConfig{
			Provider: BackendAuto,
			Postgres: PostgresConfig{
				MaxConns: 10,
			},
		},
		Mock: MockConfig{
			Delay:         800 * time.Millisecond,
			BacktestDelay: 2 * time.Second,
		},
		LLM: LLMConfig{
			Provider:  "gemini",
			RateLimit: 1,
			Timeout:   2 * time.Minute,
			Gemini: GeminiConfig{
				Model: "gemini-2.5-flash",
			},
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Validate checks the configuration for errors. Missing LLM credentials are
// not an error here: chart analysis reports them when it is invoked.
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Server.TokenTTL < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("token_ttl cannot be negative, got %s", c.Server.TokenTTL))
	}

	switch c.Backend.Provider {
	case "", BackendAuto, BackendNone:
	case BackendPostgres:
		if c.Backend.Postgres.DSN == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("postgres dsn required when provider is postgres"))
		}
	case BackendSQLite:
		if c.Backend.SQLite.Path == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("sqlite path required when provider is sqlite"))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown backend provider: %s", c.Backend.Provider))
	}

	if c.Mock.Delay < 0 || c.Mock.BacktestDelay < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("mock delays cannot be negative"))
	}

	switch c.LLM.Provider {
	case "", "gemini", "claude", "openai", "ollama":
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown llm provider: %s", c.LLM.Provider))
	}
	if c.LLM.RateLimit < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("llm rate_limit cannot be negative, got %f", c.LLM.RateLimit))
	}

	switch c.Archive.Type {
	case "":
	case "localfs":
		if c.Archive.Path == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("archive path required for localfs"))
		}
	case "s3":
		if c.Archive.S3.Bucket == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("archive s3 bucket required for s3"))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown archive type: %s", c.Archive.Type))
	}

	return nil
}

// ResolveBackend returns the concrete backend provider after auto-detection:
// postgres when a DSN is present, sqlite when a path is present, none otherwise.
func (b BackendConfig) ResolveBackend() string {
	switch b.Provider {
	case BackendPostgres, BackendSQLite, BackendNone:
		return b.Provider
	}
	if b.Postgres.DSN != "" {
		return BackendPostgres
	}
	if b.SQLite.Path != "" {
		return BackendSQLite
	}
	return BackendNone
}
