package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
	"github.com/go-playground/validator/v10"
)

// ErrInvalid wraps every configuration parsing or validation failure.
var ErrInvalid = errors.New("invalid configuration")

var validate = validator.New()

// Config 聚合服务端与客户端的配置项。
type Config struct {
	Server ServerConfig
	Data   DataConfig
	AI     AIConfig
	Client ClientConfig
	Log    LogConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	addr, err := listenAddr(cfg.Server.Port)
	if err != nil {
		return nil, err
	}
	cfg.Server.Addr = addr

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if cfg.Client.Timeout < 0 {
		return nil, fmt.Errorf("%w: CHAT_TIMEOUT must not be negative", ErrInvalid)
	}

	return &cfg, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Port string `env:"PORT" envDefault:"8080"`

	// Addr is derived from Port.
	Addr string
}

// listenAddr 解析服务器监听地址。
func listenAddr(port string) (string, error) {
	port = strings.TrimSpace(port)
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return port, nil
	}

	if strings.Contains(port, " ") {
		return "", fmt.Errorf("%w: PORT value %q", ErrInvalid, port)
	}

	return ":" + port, nil
}

// DataConfig points at the portfolio CSV exports.
type DataConfig struct {
	HoldingsFile string `env:"HOLDINGS_FILE" envDefault:"holdings.csv" validate:"required"`
	TradesFile   string `env:"TRADES_FILE" envDefault:"trades.csv" validate:"required"`
}

// AIConfig 描述大模型与检索相关配置。
type AIConfig struct {
	APIKey      string  `env:"ARK_API_KEY"`
	AccessKey   string  `env:"ARK_ACCESS_KEY"`
	SecretKey   string  `env:"ARK_SECRET_KEY"`
	Model       string  `env:"ARK_MODEL"`
	BaseURL     string  `env:"ARK_BASE_URL" envDefault:"https://ark.cn-beijing.volces.com/api/v3" validate:"omitempty,url"`
	Region      string  `env:"ARK_REGION" envDefault:"cn-beijing"`
	Temperature float64 `env:"ARK_TEMPERATURE" envDefault:"0" validate:"min=0,max=2"`
	MaxTokens   int     `env:"ARK_MAX_TOKENS" validate:"min=0"`
	TopK        int     `env:"RAG_TOP_K" envDefault:"5" validate:"min=1,max=50"`
}

// Enabled 表示是否提供了必需的密钥。
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel 使用配置创建一个模型实例。
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("ark credentials or model missing: set ARK_MODEL plus ARK_API_KEY or an AK/SK pair")
	}

	temperature := float32(c.Temperature)

	var maxTokens *int
	if c.MaxTokens > 0 {
		val := c.MaxTokens
		maxTokens = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   maxTokens,
		Temperature: &temperature,
	}

	return ark.NewChatModel(ctx, cfg)
}

// ClientConfig configures the chat front ends.
type ClientConfig struct {
	BackendURL string        `env:"CHAT_BACKEND_URL" envDefault:"http://localhost:8080" validate:"required,url"`
	RenderMode string        `env:"CHAT_RENDER_MODE" envDefault:"escape" validate:"oneof=escape legacy sanitize"`
	Timeout    time.Duration `env:"CHAT_TIMEOUT" envDefault:"0s"`
}

// LogConfig selects the zerolog level.
type LogConfig struct {
	Level string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=trace debug info warn error disabled"`
}
