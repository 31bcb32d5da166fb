package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/yungbote/coursify-backend/internal/data/db"
	"github.com/yungbote/coursify-backend/internal/platform/envutil"
	"github.com/yungbote/coursify-backend/internal/platform/llm"
	"github.com/yungbote/coursify-backend/internal/platform/replicate"
	"github.com/yungbote/coursify-backend/internal/realtime/bus"
	"github.com/yungbote/coursify-backend/internal/services"
)

const configPathEnv = "COURSIFY_CONFIG"

type Config struct {
	LogMode  string       `yaml:"log_mode"`
	Server   ServerConfig `yaml:"server"`
	Database db.Config    `yaml:"database"`
	Auth     AuthConfig   `yaml:"auth"`
	LLM      llm.Config   `yaml:"llm"`
	Video    VideoConfig  `yaml:"video"`
	Redis    RedisConfig  `yaml:"redis"`
}

type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	ServiceName    string   `yaml:"service_name"`
	Environment    string   `yaml:"environment"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type AuthConfig struct {
	JWTSecretKey   string        `yaml:"jwt_secret_key"`
	AccessTokenTTL time.Duration `yaml:"access_token_ttl"`
}

type VideoConfig struct {
	Models    []string         `yaml:"models"`
	Replicate replicate.Config `yaml:"replicate"`
}

type RedisConfig struct {
	Addr    string `yaml:"addr"`
	Channel string `yaml:"channel"`
}

func defaultConfig() Config {
	return Config{
		LogMode: "development",
		Server: ServerConfig{
			Addr:        ":8080",
			ServiceName: "coursify",
			Environment: "development",
		},
		Database: db.Config{Driver: db.DriverPostgres},
		Auth:     AuthConfig{AccessTokenTTL: time.Hour},
		LLM: llm.Config{
			Providers: llm.DefaultProviders(),
			OpenAI:    llm.OpenAIConfig{Model: "gpt-4-turbo-preview"},
		},
		Video: VideoConfig{
			Models:    append([]string(nil), services.DefaultVideoModels...),
			Replicate: replicate.Config{Timeout: 300 * time.Second, PollInterval: 2 * time.Second},
		},
		Redis: RedisConfig{Channel: bus.DefaultChannel},
	}
}

// LoadConfig layers defaults, the YAML file named by path (or COURSIFY_CONFIG)
// and the environment, later layers winning. A .env file is read first and
// never overrides variables that are already set.
func LoadConfig(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := defaultConfig()
	if strings.TrimSpace(path) == "" {
		path = os.Getenv(configPathEnv)
	}
	if strings.TrimSpace(path) != "" {
		if err := loadYAML(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func loadYAML(path string, cfg *Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.LogMode = envutil.String("LOG_MODE", cfg.LogMode)

	cfg.Server.Addr = envutil.String("HTTP_ADDR", cfg.Server.Addr)
	cfg.Server.ServiceName = envutil.String("OTEL_SERVICE_NAME", cfg.Server.ServiceName)
	cfg.Server.Environment = envutil.String("APP_ENV", cfg.Server.Environment)
	cfg.Server.AllowedOrigins = envutil.List("CORS_ALLOWED_ORIGINS", cfg.Server.AllowedOrigins)

	d := &cfg.Database
	d.Driver = envutil.String("DB_DRIVER", d.Driver)
	d.DSN = envutil.String("DATABASE_URL", d.DSN)
	d.Host = envutil.String("POSTGRES_HOST", d.Host)
	d.Port = envutil.String("POSTGRES_PORT", d.Port)
	d.User = envutil.String("POSTGRES_USER", d.User)
	d.Password = envutil.String("POSTGRES_PASSWORD", d.Password)
	d.Name = envutil.String("POSTGRES_NAME", d.Name)
	d.SQLitePath = envutil.String("SQLITE_PATH", d.SQLitePath)
	d.SlowQueryMS = envutil.Int("DB_SLOW_QUERY_MS", d.SlowQueryMS)

	cfg.Auth.JWTSecretKey = envutil.String("JWT_SECRET_KEY", cfg.Auth.JWTSecretKey)
	cfg.Auth.AccessTokenTTL = envutil.Seconds("ACCESS_TOKEN_TTL", cfg.Auth.AccessTokenTTL)

	l := &cfg.LLM
	l.Providers = envutil.List("LLM_PROVIDERS", l.Providers)
	l.OpenAI.APIKey = envutil.String("OPENAI_API_KEY", l.OpenAI.APIKey)
	l.OpenAI.BaseURL = envutil.String("OPENAI_BASE_URL", l.OpenAI.BaseURL)
	l.OpenAI.Model = envutil.String("OPENAI_MODEL", l.OpenAI.Model)
	l.Anthropic.APIKey = envutil.String("ANTHROPIC_API_KEY", l.Anthropic.APIKey)
	l.Anthropic.Model = envutil.String("ANTHROPIC_MODEL", l.Anthropic.Model)
	l.Gemini.APIKey = envutil.String("GEMINI_API_KEY", l.Gemini.APIKey)
	l.Gemini.Model = envutil.String("GEMINI_MODEL", l.Gemini.Model)

	v := &cfg.Video
	v.Models = envutil.List("VIDEO_MODELS", v.Models)
	v.Replicate.APIToken = envutil.String("REPLICATE_API_TOKEN", v.Replicate.APIToken)
	v.Replicate.BaseURL = envutil.String("REPLICATE_BASE_URL", v.Replicate.BaseURL)
	v.Replicate.Timeout = envutil.Seconds("VIDEO_TIMEOUT_SECONDS", v.Replicate.Timeout)

	cfg.Redis.Addr = envutil.String("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Channel = envutil.String("REDIS_CHANNEL", cfg.Redis.Channel)
}
