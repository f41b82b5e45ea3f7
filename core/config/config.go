package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// TelegramConfig holds Telegram bot related settings.
type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"BOT_TOKEN"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

// WebhookConfig specifies webhook settings.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
}

// BackendConfig points the bot at the marketplace backend API.
type BackendConfig struct {
	BaseURL            string `yaml:"base_url" envconfig:"BACKEND_API_URL"`
	CallTimeoutSeconds int    `yaml:"call_timeout_seconds" envconfig:"BACKEND_CALL_TIMEOUT_SECONDS"`
	// WebAppURL is the marketplace web app opened from the main menu.
	WebAppURL string `yaml:"webapp_url" envconfig:"WEBAPP_URL"`
	// ServiceKey authenticates service-level calls (notification feed).
	ServiceKey string `yaml:"service_key" envconfig:"BACKEND_SERVICE_KEY"`
}

// AMQPConfig enables the optional push intake for notifications.
type AMQPConfig struct {
	Enabled    bool   `yaml:"enabled" envconfig:"AMQP_ENABLED"`
	URL        string `yaml:"url" envconfig:"AMQP_URL"`
	Exchange   string `yaml:"exchange" envconfig:"AMQP_EXCHANGE"`
	Queue      string `yaml:"queue" envconfig:"AMQP_QUEUE"`
	BindingKey string `yaml:"binding_key" envconfig:"AMQP_BINDING_KEY"`
	Prefetch   int    `yaml:"prefetch" envconfig:"AMQP_PREFETCH"`
}

// NotificationsConfig tunes the delivery poller.
type NotificationsConfig struct {
	Enabled         bool       `yaml:"enabled" envconfig:"NOTIFICATIONS_ENABLED"`
	IntervalSeconds int        `yaml:"interval_seconds" envconfig:"NOTIFICATIONS_INTERVAL_SECONDS"`
	PageSize        int        `yaml:"page_size" envconfig:"NOTIFICATIONS_PAGE_SIZE"`
	WindowHours     int        `yaml:"window_hours" envconfig:"NOTIFICATIONS_WINDOW_HOURS"`
	OrderLinkBase   string     `yaml:"order_link_base" envconfig:"NOTIFICATIONS_ORDER_LINK_BASE"`
	ProfileLink     string     `yaml:"profile_link" envconfig:"NOTIFICATIONS_PROFILE_LINK"`
	AMQP            AMQPConfig `yaml:"amqp"`
}

// AssistantConfig controls the optional direct-OpenAI fallback for the assistant.
type AssistantConfig struct {
	OpenAIKey   string `yaml:"openai_key" envconfig:"OPENAI_API_KEY"`
	OpenAIModel string `yaml:"openai_model" envconfig:"OPENAI_MODEL"`
}

// OpsConfig configures the operational HTTP server. Empty listen disables it.
type OpsConfig struct {
	Listen string `yaml:"listen" envconfig:"OPS_LISTEN"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Format      string `yaml:"format"`
	KeysOrder   string `yaml:"keys_order"`
	DebugSample string `yaml:"debug_sample"`
	Stacks      string `yaml:"stacks"`
	Dir         string `yaml:"dir"`
	BotFile     string `yaml:"bot_file"`
	ErrorsFile  string `yaml:"errors_file"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile"`
}

const (
	// RunModeWebhook selects webhook mode for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for Telegram updates.
	RunModeLongpoll = "longpoll"
)

const (
	// UpdateCallback identifies callback updates for rate limit exclusions.
	UpdateCallback = "callback"
	// UpdateMessage identifies message updates for rate limit exclusions.
	UpdateMessage = "message"
	// UpdateInlineQuery identifies inline query updates for rate limit exclusions.
	UpdateInlineQuery = "inline_query"
)

// RateLimitConfig holds settings for rate limiting.
// ExcludeUpdates accepts update types to bypass limiting:
// - "callback": Telegram callback button presses
// - "message": standard text messages
// - "inline_query": inline query updates
type RateLimitConfig struct {
	IntervalMS     int      `yaml:"interval_ms" envconfig:"RATE_LIMIT_INTERVAL_MS"`
	ExcludeUpdates []string `yaml:"exclude_updates" envconfig:"RATE_LIMIT_EXCLUDE_UPDATES"`
}

// DatabaseConfig holds the optional local database used by the delivery ledger.
// An empty host means no database: the ledger falls back to memory.
type DatabaseConfig struct {
	Host           string `yaml:"host" envconfig:"DB_HOST"`
	Port           string `yaml:"port" envconfig:"DB_PORT"`
	User           string `yaml:"user" envconfig:"DB_USER"`
	Password       string `yaml:"password" envconfig:"DB_PASSWORD"`
	Name           string `yaml:"name" envconfig:"DB_NAME"`
	SSLMode        string `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	MaxConnections int    `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS"`
}

// Config aggregates the whole bot configuration.
type Config struct {
	Telegram      TelegramConfig      `yaml:"telegram"`
	Webhook       WebhookConfig       `yaml:"webhook"`
	Backend       BackendConfig       `yaml:"backend"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Assistant     AssistantConfig     `yaml:"assistant"`
	Ops           OpsConfig           `yaml:"ops"`
	Database      DatabaseConfig      `yaml:"database"`
	Logging       LoggingConfig       `yaml:"logging"`
	RateLimit     RateLimitConfig     `yaml:"rate_limit"`
}

// Load reads configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize performs basic validation of required configuration fields and adjusts defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	if cfg.Telegram.Token == "" {
		return fmt.Errorf("telegram token is required")
	}
	if strings.TrimSpace(cfg.Backend.BaseURL) == "" {
		return fmt.Errorf("backend.base_url is required")
	}
	cfg.Backend.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.Backend.BaseURL), "/")
	cfg.Backend.WebAppURL = strings.TrimRight(strings.TrimSpace(cfg.Backend.WebAppURL), "/")
	if cfg.Backend.CallTimeoutSeconds <= 0 {
		cfg.Backend.CallTimeoutSeconds = 10
	}

	rm := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	if rm == "" {
		rm = RunModeLongpoll
	}
	if rm == "polling" { // accept alias
		rm = RunModeLongpoll
	}
	switch rm {
	case RunModeWebhook:
		if strings.TrimSpace(cfg.Webhook.URL) == "" {
			return fmt.Errorf("webhook.url is required when telegram.run_mode is 'webhook'")
		}
		if strings.TrimSpace(cfg.Webhook.Listen) == "" {
			return fmt.Errorf("webhook.listen is required when telegram.run_mode is 'webhook'")
		}
		if cfg.Webhook.Port <= 0 {
			return fmt.Errorf("webhook.port must be > 0 when telegram.run_mode is 'webhook'")
		}
	case RunModeLongpoll:
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			return fmt.Errorf("telegram.longpoll_timeout_seconds must be >= 0")
		}
	default:
		return fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", cfg.Telegram.RunMode)
	}
	cfg.Telegram.RunMode = rm

	if cfg.Notifications.IntervalSeconds <= 0 {
		cfg.Notifications.IntervalSeconds = 5
	}
	if cfg.Notifications.PageSize <= 0 {
		cfg.Notifications.PageSize = 50
	}
	if cfg.Notifications.WindowHours <= 0 {
		cfg.Notifications.WindowHours = 24
	}
	if cfg.Notifications.AMQP.Enabled {
		if strings.TrimSpace(cfg.Notifications.AMQP.URL) == "" {
			return fmt.Errorf("notifications.amqp.url is required when amqp intake is enabled")
		}
		if strings.TrimSpace(cfg.Notifications.AMQP.Queue) == "" {
			return fmt.Errorf("notifications.amqp.queue is required when amqp intake is enabled")
		}
		if cfg.Notifications.AMQP.Prefetch <= 0 {
			cfg.Notifications.AMQP.Prefetch = 1
		}
	}

	allowed := map[string]struct{}{
		UpdateCallback:    {},
		UpdateMessage:     {},
		UpdateInlineQuery: {},
	}
	for i, v := range cfg.RateLimit.ExcludeUpdates {
		key := strings.ToLower(strings.TrimSpace(v))
		if key == "" {
			continue
		}
		if _, ok := allowed[key]; !ok {
			return fmt.Errorf("invalid rate_limit.exclude_updates value %q; allowed: callback, message, inline_query", v)
		}
		cfg.RateLimit.ExcludeUpdates[i] = key
	}
	return nil
}

// DatabaseConfigured reports whether a local ledger database was provided.
func (c *Config) DatabaseConfigured() bool {
	return c != nil && strings.TrimSpace(c.Database.Host) != ""
}
