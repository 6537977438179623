package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Env            string `json:"env" env:"APP_ENV" env-default:"development"`
	HttpPort       int    `json:"http_port" env:"PORT" env-default:"3000"`
	DbConnString   string `json:"db_conn_string" env:"DATABASE_URL"`
	DbMaxOpenConns int    `json:"db_max_open_conns" env:"DB_MAX_OPEN_CONNS" env-default:"10"`
	RedisAddr      string `json:"redis_addr" env:"REDIS_ADDR"`
	RedisPassword  string `json:"redis_password" env:"REDIS_PASSWORD"`
	RedisDB        int    `json:"redis_db" env:"REDIS_DB" env-default:"0"`
	SkipValidation bool   `json:"skip_env_validation" env:"SKIP_ENV_VALIDATION" env-default:"false"`

	OpenAI struct {
		ApiKey       string  `json:"api_key" env:"OPENAI_API_KEY" validate:"required"`
		ApiURL       string  `json:"api_url" env:"OPENAI_API_URL" env-default:"https://api.openai.com/v1/chat/completions" validate:"url"`
		Model        string  `json:"model" env:"OPENAI_MODEL" env-default:"gpt-4o"`
		TimeoutMs    int     `json:"timeout_ms" env:"OPENAI_TIMEOUT_MS" env-default:"60000" validate:"gt=0"`
		MaxTokens    int     `json:"max_tokens" env:"OPENAI_MAX_TOKENS" env-default:"500" validate:"gt=0"`
		Temperature  float32 `json:"temperature" env:"OPENAI_TEMPERATURE" env-default:"0.7" validate:"gte=0,lte=2"`
		SystemPrompt string  `json:"system_prompt" env:"OPENAI_SYSTEM_PROMPT"`
	} `json:"openai"`

	ZApi struct {
		BaseUrl     string `json:"base_url" env:"ZAPI_BASE_URL" env-default:"https://api.z-api.io" validate:"url"`
		InstanceID  string `json:"instance_id" env:"ZAPI_INSTANCE_ID" validate:"required"`
		Token       string `json:"token" env:"ZAPI_TOKEN" validate:"required"`
		ClientToken string `json:"client_token" env:"ZAPI_CLIENT_TOKEN"`
		TimeoutMs   int    `json:"timeout_ms" env:"ZAPI_TIMEOUT_MS" env-default:"60000" validate:"gt=0"`
		MaxRetry    int    `json:"max_retry" env:"ZAPI_MAX_RETRY" env-default:"3" validate:"gte=0"`
	} `json:"zapi"`

	Webhook struct {
		AcceptedTypes []string `json:"accepted_types" env:"WEBHOOK_ACCEPTED_TYPES" env-separator:"," env-default:"text,message,chat"`
		FallbackReply string   `json:"fallback_reply" env:"WEBHOOK_FALLBACK_REPLY"`
		PersistTurns  bool     `json:"persist_turns" env:"WEBHOOK_PERSIST_TURNS" env-default:"true"`
	} `json:"webhook"`

	Cors struct {
		AllowedOrigins   []string `json:"allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-separator:","`
		AllowCredentials bool     `json:"allow_credentials" env:"CORS_ALLOW_CREDENTIALS" env-default:"false"`
		AllowedHeaders   []string `json:"allowed_headers" env:"CORS_ALLOWED_HEADERS" env-separator:"," env-default:"Content-Type,Authorization"`
		AllowedMethods   []string `json:"allowed_methods" env:"CORS_ALLOWED_METHODS" env-separator:"," env-default:"GET,POST,PUT,PATCH,DELETE,OPTIONS"`
	} `json:"cors"`
}

// LoadDotEnv loads variables from a .env file into the environment. The path
// defaults to .env and can be overridden with ENV_PATH. A missing file is not
// an error.
func LoadDotEnv() error {
	path := os.Getenv("ENV_PATH")
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ReadConfig reads the configuration file when it exists, then applies
// environment overrides. Without a file the environment alone is used.
func ReadConfig(configFile string) (*Config, error) {
	cfg := new(Config)

	var err error
	if _, statErr := os.Stat(configFile); statErr == nil {
		err = cleanenv.ReadConfig(configFile, cfg)
	} else {
		err = cleanenv.ReadEnv(cfg)
	}
	if err != nil {
		desc, _ := cleanenv.GetDescription(cfg, nil)
		return nil, fmt.Errorf("%w; %s", err, desc)
	}

	if cfg.SkipValidation {
		return cfg, nil
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c *Config) OpenAITimeout() time.Duration {
	return time.Duration(c.OpenAI.TimeoutMs) * time.Millisecond
}

func (c *Config) ZApiTimeout() time.Duration {
	return time.Duration(c.ZApi.TimeoutMs) * time.Millisecond
}
