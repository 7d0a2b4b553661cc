package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
	Matcher   MatcherConfig   `yaml:"matcher"`
	Providers ProvidersConfig `yaml:"providers"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Redis     RedisConfig     `yaml:"redis"`
	Telegram  TelegramConfig  `yaml:"telegram"`
}

type ServerConfig struct {
	Addr              string        `yaml:"addr"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`     // debug, info, warn, error
	FilePath string `yaml:"file_path"` // optional JSON log file
}

type MatcherConfig struct {
	Preset string `yaml:"preset"` // strict, default, relaxed
}

type ProvidersConfig struct {
	Timeout        time.Duration   `yaml:"timeout"`          // default per-call timeout
	RequestsPerSec float64         `yaml:"requests_per_sec"` // outbound rate cap per provider
	SearchCacheTTL time.Duration   `yaml:"search_cache_ttl"`
	SportyBet      SportyBetConfig `yaml:"sportybet"`
	OneXBet        OneXBetConfig   `yaml:"onexbet"`
	Bet9ja         Bet9jaConfig    `yaml:"bet9ja"`
}

type SportyBetConfig struct {
	BaseURL string        `yaml:"base_url"`
	Region  string        `yaml:"region"` // ng, gh, ke, ug, tz
	Timeout time.Duration `yaml:"timeout"`
}

type OneXBetConfig struct {
	BaseURL   string        `yaml:"base_url"`
	MirrorURL string        `yaml:"mirror_url"` // optional: resolve current domain from a mirror link
	Partner   int           `yaml:"partner"`
	Timeout   time.Duration `yaml:"timeout"`
}

type Bet9jaConfig struct {
	CouponBaseURL string        `yaml:"coupon_base_url"`
	APIBaseURL    string        `yaml:"api_base_url"`
	CacheVersion  string        `yaml:"cache_version"`
	Timeout       time.Duration `yaml:"timeout"`
}

type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	ChatID   int64  `yaml:"chat_id"`
}

func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Allow ${VAR} references so DSNs and tokens stay out of the file.
	data = []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.applyDefaults()
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadHeaderTimeout <= 0 {
		c.Server.ReadHeaderTimeout = 5 * time.Second
	}
	if c.Providers.Timeout <= 0 {
		c.Providers.Timeout = 10 * time.Second
	}
	if c.Providers.RequestsPerSec <= 0 {
		c.Providers.RequestsPerSec = 4
	}
	if c.Providers.SearchCacheTTL <= 0 {
		c.Providers.SearchCacheTTL = 2 * time.Minute
	}
}

// ProviderTimeout returns the per-provider override or the shared default.
func (c *Config) ProviderTimeout(override time.Duration) time.Duration {
	if override > 0 {
		return override
	}
	return c.Providers.Timeout
}
