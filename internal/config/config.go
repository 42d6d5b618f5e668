package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Source kinds accepted by source.kind.
const (
	SourceFinnhub     = "finnhub"
	SourceEDGAR       = "edgar"
	SourceOpenInsider = "openinsider"
	SourceFMP         = "fmp"
	SourceFixture     = "fixture"
)

type Config struct {
	Source          SourceConfig          `mapstructure:"source"`
	Finnhub         FinnhubConfig         `mapstructure:"finnhub"`
	EDGAR           EDGARConfig           `mapstructure:"edgar"`
	OpenInsider     OpenInsiderConfig     `mapstructure:"openinsider"`
	FMP             FMPConfig             `mapstructure:"fmp"`
	Fixture         FixtureConfig         `mapstructure:"fixture"`
	Watchlist       WatchlistConfig       `mapstructure:"watchlist"`
	Recommendations RecommendationsConfig `mapstructure:"recommendations"`
	HTTP            HTTPConfig            `mapstructure:"http"`
	Output          OutputConfig          `mapstructure:"output"`
	Log             LogConfig             `mapstructure:"log"`
	Telemetry       TelemetryConfig       `mapstructure:"telemetry"`
	Telegram        TelegramConfig        `mapstructure:"telegram"`
	API             APIConfig             `mapstructure:"api"`
}

type SourceConfig struct {
	Kind string `mapstructure:"kind"`
}

type FinnhubConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Delay   time.Duration `mapstructure:"delay"`
}

type EDGARConfig struct {
	UserAgent string            `mapstructure:"user_agent"`
	Delay     time.Duration     `mapstructure:"delay"`
	CachePath string            `mapstructure:"cache_path"`
	CacheTTL  time.Duration     `mapstructure:"cache_ttl"`
	Enrich    bool              `mapstructure:"enrich"`
	CIKs      map[string]string `mapstructure:"ciks"`
}

type OpenInsiderConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Delay   time.Duration `mapstructure:"delay"`
}

type FMPConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

type FixtureConfig struct {
	Seed uint64 `mapstructure:"seed"`
}

type WatchlistConfig struct {
	Symbols        []string `mapstructure:"symbols"`
	LookbackMonths int      `mapstructure:"lookback_months"`
	Concurrency    int      `mapstructure:"concurrency"`
}

type RecommendationsConfig struct {
	LatestLimit int    `mapstructure:"latest_limit"`
	TopN        int    `mapstructure:"top_n"`
	Universe    string `mapstructure:"universe"` // all | sp500
}

type HTTPConfig struct {
	Timeout    time.Duration `mapstructure:"timeout"`
	RetryAfter time.Duration `mapstructure:"retry_after"`
}

type OutputConfig struct {
	DataDir string `mapstructure:"data_dir"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type TelemetryConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Pretty  bool `mapstructure:"pretty"`
}

type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   int64  `mapstructure:"chat_id"`
}

type APIConfig struct {
	Port            string        `mapstructure:"port"`
	AdminKey        string        `mapstructure:"admin_key"`
	MaxAge          time.Duration `mapstructure:"max_age"`
	RefreshDebounce time.Duration `mapstructure:"refresh_debounce"`
}

// Load reads .env, then an optional YAML file, then INSIDER_* environment
// overrides. An empty path searches ./config.yaml and ./configs/config.yaml;
// a missing file is only an error when path is given explicitly.
func Load(path string) (*Config, error) {
	_ = godotenv.Load(".env")

	v := viper.New()
	setDefaults(v)
	bindEnv(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("source.kind", SourceFinnhub)

	v.SetDefault("finnhub.api_key", "demo")
	v.SetDefault("finnhub.base_url", "https://finnhub.io/api/v1")
	v.SetDefault("finnhub.delay", "1100ms")

	v.SetDefault("edgar.user_agent", "InsiderMonitor admin@example.com")
	v.SetDefault("edgar.delay", "150ms")
	v.SetDefault("edgar.cache_path", "data/cik.db")
	v.SetDefault("edgar.cache_ttl", "168h")
	v.SetDefault("edgar.enrich", true)
	v.SetDefault("edgar.ciks", map[string]string{})

	v.SetDefault("openinsider.base_url", "http://openinsider.com")
	v.SetDefault("openinsider.delay", "1s")

	v.SetDefault("fmp.api_key", "")
	v.SetDefault("fmp.base_url", "https://financialmodelingprep.com/stable")

	v.SetDefault("fixture.seed", 42)

	v.SetDefault("watchlist.symbols", []string{"TSLA", "PLTR", "RGTI", "IONQ", "MSTR", "LLY"})
	v.SetDefault("watchlist.lookback_months", 3)
	v.SetDefault("watchlist.concurrency", 1)

	v.SetDefault("recommendations.latest_limit", 100)
	v.SetDefault("recommendations.top_n", 10)
	v.SetDefault("recommendations.universe", "all")

	v.SetDefault("http.timeout", "30s")
	v.SetDefault("http.retry_after", "5s")

	v.SetDefault("output.data_dir", "data")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.pretty", true)

	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.chat_id", 0)

	v.SetDefault("api.port", "8000")
	v.SetDefault("api.admin_key", "")
	v.SetDefault("api.max_age", "24h")
	v.SetDefault("api.refresh_debounce", "5m")
}

// bindEnv wires INSIDER_* overrides plus the conventional unprefixed names.
func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix("INSIDER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("finnhub.api_key", "INSIDER_FINNHUB_API_KEY", "FINNHUB_API_KEY")
	_ = v.BindEnv("fmp.api_key", "INSIDER_FMP_API_KEY", "FMP_API_KEY")
	_ = v.BindEnv("telegram.bot_token", "INSIDER_TELEGRAM_BOT_TOKEN", "TELEGRAM_BOT_TOKEN")
	_ = v.BindEnv("telegram.chat_id", "INSIDER_TELEGRAM_CHAT_ID", "TELEGRAM_CHAT_ID")
	_ = v.BindEnv("api.admin_key", "INSIDER_API_ADMIN_KEY", "ADMIN_API_KEY")
	_ = v.BindEnv("api.port", "INSIDER_API_PORT", "PORT")
	_ = v.BindEnv("output.data_dir", "INSIDER_OUTPUT_DATA_DIR", "INSIDER_DATA_DIR")
}

func (c *Config) normalize() {
	c.Source.Kind = strings.ToLower(strings.TrimSpace(c.Source.Kind))
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
	c.Recommendations.Universe = strings.ToLower(strings.TrimSpace(c.Recommendations.Universe))
	syms := make([]string, 0, len(c.Watchlist.Symbols))
	for _, s := range c.Watchlist.Symbols {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			syms = append(syms, s)
		}
	}
	c.Watchlist.Symbols = syms
}

// Validate checks that all configuration values are usable.
func (c *Config) Validate() error {
	switch c.Source.Kind {
	case SourceFinnhub, SourceEDGAR, SourceOpenInsider, SourceFMP, SourceFixture:
	default:
		return fmt.Errorf("source.kind must be one of: finnhub, edgar, openinsider, fmp, fixture")
	}
	if c.Source.Kind == SourceFMP && c.FMP.APIKey == "" {
		return fmt.Errorf("fmp.api_key is required when source.kind is fmp")
	}
	if c.Source.Kind == SourceEDGAR && strings.TrimSpace(c.EDGAR.UserAgent) == "" {
		return fmt.Errorf("edgar.user_agent is required by SEC fair-access policy")
	}
	if c.Watchlist.LookbackMonths < 1 {
		return fmt.Errorf("watchlist.lookback_months must be at least 1")
	}
	if c.Watchlist.Concurrency < 1 {
		return fmt.Errorf("watchlist.concurrency must be at least 1")
	}
	if c.Recommendations.LatestLimit < 1 {
		return fmt.Errorf("recommendations.latest_limit must be at least 1")
	}
	if c.Recommendations.TopN < 1 || c.Recommendations.TopN > 10 {
		return fmt.Errorf("recommendations.top_n must be between 1 and 10")
	}
	if c.Recommendations.Universe != "all" && c.Recommendations.Universe != "sp500" {
		return fmt.Errorf("recommendations.universe must be one of: all, sp500")
	}
	if c.HTTP.Timeout <= 0 {
		return fmt.Errorf("http.timeout must be positive")
	}
	if c.HTTP.RetryAfter < 0 {
		return fmt.Errorf("http.retry_after must not be negative")
	}
	if c.Output.DataDir == "" {
		return fmt.Errorf("output.data_dir is required")
	}
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == 0 {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Log.Level] {
		return fmt.Errorf("log.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Log.Format] {
		return fmt.Errorf("log.format must be one of: json, text")
	}
	return nil
}

// Since returns the start of the watchlist lookback window relative to now.
func (c *Config) Since(now time.Time) time.Time {
	return now.AddDate(0, -c.Watchlist.LookbackMonths, 0)
}

// UsingDemoKey reports whether Finnhub runs on the public demo token.
func (c *Config) UsingDemoKey() bool {
	return c.Source.Kind == SourceFinnhub && (c.Finnhub.APIKey == "" || c.Finnhub.APIKey == "demo")
}

// DataPath joins name onto the output directory.
func (c *Config) DataPath(name string) string {
	return filepath.Join(c.Output.DataDir, name)
}
