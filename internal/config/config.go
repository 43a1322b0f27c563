package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"

	AuthExternal  = "external"
	AuthDev       = "dev"
	AuthAnonymous = "anonymous"
)

type Config struct {
	AppPort      int    `mapstructure:"APP_PORT"`
	DatabasePath string `mapstructure:"DATABASE_PATH"`
	LogLevel     string `mapstructure:"LOG_LEVEL"`

	LLMProvider   string        `mapstructure:"LLM_PROVIDER"`
	LLMTimeout    time.Duration `mapstructure:"LLM_TIMEOUT"`
	OpenAIAPIKey  string        `mapstructure:"OPENAI_API_KEY"`
	OpenAIBaseURL string        `mapstructure:"OPENAI_BASE_URL"`
	OpenAIModel   string        `mapstructure:"OPENAI_MODEL"`
	OllamaURL     string        `mapstructure:"OLLAMA_URL"`
	OllamaModel   string        `mapstructure:"OLLAMA_MODEL"`

	AuthMode          string `mapstructure:"AUTH_MODE"`
	AuthUserInfoURL   string `mapstructure:"AUTH_USERINFO_URL"`
	AuthSessionCookie string `mapstructure:"AUTH_SESSION_COOKIE"`
	DevUserID         string `mapstructure:"DEV_USER_ID"`

	MaxUploadBytes   int64  `mapstructure:"MAX_UPLOAD_BYTES"`
	MaxDocumentChars int    `mapstructure:"MAX_DOCUMENT_CHARS"`
	UploadDir        string `mapstructure:"UPLOAD_DIR"`
}

func LoadConfig() (*Config, error) {
	viper.SetDefault("APP_PORT", 8000)
	viper.SetDefault("DATABASE_PATH", "/data/socratic.db")
	viper.SetDefault("LOG_LEVEL", "INFO")

	viper.SetDefault("LLM_PROVIDER", ProviderOpenAI)
	viper.SetDefault("LLM_TIMEOUT", 60*time.Second)
	viper.SetDefault("OPENAI_API_KEY", "")
	viper.SetDefault("OPENAI_BASE_URL", "")
	viper.SetDefault("OPENAI_MODEL", "gpt-4o-mini")
	viper.SetDefault("OLLAMA_URL", "http://ollama:11434")
	viper.SetDefault("OLLAMA_MODEL", "llama3.2")

	viper.SetDefault("AUTH_MODE", AuthDev)
	viper.SetDefault("AUTH_USERINFO_URL", "")
	viper.SetDefault("AUTH_SESSION_COOKIE", "connect.sid")
	viper.SetDefault("DEV_USER_ID", "dev-user")

	viper.SetDefault("MAX_UPLOAD_BYTES", 5*1024*1024)
	viper.SetDefault("MAX_DOCUMENT_CHARS", 5000)
	viper.SetDefault("UPLOAD_DIR", "")

	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./backend")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks combinations that cannot work at runtime.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LLMProvider) {
	case ProviderOpenAI:
		if c.OpenAIModel == "" {
			return fmt.Errorf("OPENAI_MODEL must be set when LLM_PROVIDER=%s", ProviderOpenAI)
		}
	case ProviderOllama:
		if c.OllamaURL == "" || c.OllamaModel == "" {
			return fmt.Errorf("OLLAMA_URL and OLLAMA_MODEL must be set when LLM_PROVIDER=%s", ProviderOllama)
		}
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider)
	}

	switch strings.ToLower(c.AuthMode) {
	case AuthExternal:
		if c.AuthUserInfoURL == "" {
			return fmt.Errorf("AUTH_USERINFO_URL must be set when AUTH_MODE=%s", AuthExternal)
		}
	case AuthDev:
		if c.DevUserID == "" {
			return fmt.Errorf("DEV_USER_ID must be set when AUTH_MODE=%s", AuthDev)
		}
	case AuthAnonymous:
	default:
		return fmt.Errorf("unknown AUTH_MODE %q", c.AuthMode)
	}

	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	if c.MaxDocumentChars <= 0 {
		return fmt.Errorf("MAX_DOCUMENT_CHARS must be positive")
	}
	return nil
}
