package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	defaultLLMEndpoint   = "https://api.openai.com/v1/chat/completions"
	defaultMailchimpTag  = "podcast-question-generator"
	defaultSheetsIssuer  = "podcast-question-gateway"
	defaultUpstreamLimit = 30 * time.Second
)

// Config holds runtime configuration shared across the application.
// Credentials are read once here and injected; handlers never touch the environment.
type Config struct {
	Addr            string
	MetricsAddr     string
	AllowedOrigins  []string
	UpstreamTimeout time.Duration
	Logger          *zap.Logger

	LLMEndpoint string
	LLMAPIKey   string

	SheetsWebhookURL string
	SheetsSecret     []byte
	SheetsIssuer     string

	MailchimpAPIKey  string
	MailchimpListID  string
	MailchimpTags    []string
	MailchimpBaseURL string
}

// SheetsEnabled reports whether the spreadsheet webhook is configured.
func (c Config) SheetsEnabled() bool {
	return c.SheetsWebhookURL != ""
}

// MailchimpEnabled reports whether both Mailchimp credentials are present.
func (c Config) MailchimpEnabled() bool {
	return c.MailchimpAPIKey != "" && c.MailchimpListID != ""
}

// Load reads environment variables and returns a fully populated Config.
func Load() (Config, error) {
	timeout := defaultUpstreamLimit
	if raw := strings.TrimSpace(os.Getenv("UPSTREAM_TIMEOUT")); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return Config{}, fmt.Errorf("UPSTREAM_TIMEOUT: %w", err)
		}
		timeout = parsed
	}

	logger, err := newLogger(os.Getenv("LOG_LEVEL"))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Addr:             envOrDefault("HTTP_ADDR", ":8080"),
		MetricsAddr:      strings.TrimSpace(os.Getenv("METRICS_ADDR")),
		AllowedOrigins:   parseList("API_ALLOWED_ORIGINS", []string{"*"}),
		UpstreamTimeout:  timeout,
		Logger:           logger,
		LLMEndpoint:      envOrDefault("OPENAI_API_URL", defaultLLMEndpoint),
		LLMAPIKey:        strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		SheetsWebhookURL: strings.TrimSpace(os.Getenv("GOOGLE_APPS_SCRIPT_WEBHOOK_URL")),
		SheetsIssuer:     envOrDefault("GOOGLE_APPS_SCRIPT_ISSUER", defaultSheetsIssuer),
		MailchimpAPIKey:  strings.TrimSpace(os.Getenv("MAILCHIMP_API_KEY")),
		MailchimpListID:  strings.TrimSpace(os.Getenv("MAILCHIMP_LIST_ID")),
		MailchimpTags:    parseList("MAILCHIMP_TAGS", []string{defaultMailchimpTag}),
		MailchimpBaseURL: strings.TrimSpace(os.Getenv("MAILCHIMP_BASE_URL")),
	}
	if secret := strings.TrimSpace(os.Getenv("GOOGLE_APPS_SCRIPT_SECRET")); secret != "" {
		cfg.SheetsSecret = []byte(secret)
	}

	logger.Info("loaded config",
		zap.String("addr", cfg.Addr),
		zap.String("llmEndpoint", cfg.LLMEndpoint),
		zap.Bool("llmKey", cfg.LLMAPIKey != ""),
		zap.Bool("sheets", cfg.SheetsEnabled()),
		zap.Bool("sheetsSigned", len(cfg.SheetsSecret) > 0),
		zap.Bool("mailchimp", cfg.MailchimpEnabled()),
		zap.Strings("mailchimpTags", cfg.MailchimpTags),
	)

	return cfg, nil
}

func newLogger(level string) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if level = strings.TrimSpace(level); level != "" {
		parsed, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("LOG_LEVEL: %w", err)
		}
		zcfg.Level = zap.NewAtomicLevelAt(parsed)
	}
	logger, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger.Named("podcast-gateway"), nil
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func parseList(key string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			values = append(values, part)
		}
	}

	if len(values) == 0 {
		return fallback
	}
	return values
}
