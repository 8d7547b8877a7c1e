package config

import (
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/geo-dashboard/internal/model"
	"github.com/sells-group/geo-dashboard/internal/paginate"
)

// DefaultAPIURL is the record endpoint used when none is configured.
const DefaultAPIURL = "https://6986b1548bacd1d773eb8675.mockapi.io/api/geo-data/get-all"

// Config holds the full application configuration.
type Config struct {
	API       APIConfig       `yaml:"api" mapstructure:"api"`
	Dashboard DashboardConfig `yaml:"dashboard" mapstructure:"dashboard"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Tiles     TilesConfig     `yaml:"tiles" mapstructure:"tiles"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// APIConfig configures the remote record endpoint.
type APIConfig struct {
	URL         string  `yaml:"url" mapstructure:"url"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int     `yaml:"max_retries" mapstructure:"max_retries"`
	UserAgent   string  `yaml:"user_agent" mapstructure:"user_agent"`
	RateLimit   float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// Timeout returns the request timeout as a duration.
func (c APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// DashboardConfig sets the initial view state.
type DashboardConfig struct {
	PageSize  int    `yaml:"page_size" mapstructure:"page_size"`
	PageSizes []int  `yaml:"page_sizes" mapstructure:"page_sizes"`
	Layout    string `yaml:"layout" mapstructure:"layout"`
	TileStyle string `yaml:"tile_style" mapstructure:"tile_style"`
	// Timezone renders table timestamps. IANA name, e.g. "America/Chicago".
	Timezone string `yaml:"timezone" mapstructure:"timezone"`
}

// Location resolves Timezone, falling back to UTC when it is empty.
func (c DashboardConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, eris.Wrapf(err, "config: load timezone %q", c.Timezone)
	}
	return loc, nil
}

// ServerConfig configures the HTTP dashboard.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// TilesConfig configures the basemap tile proxy cache.
type TilesConfig struct {
	CacheEntries int     `yaml:"cache_entries" mapstructure:"cache_entries"`
	CacheTTLMins int     `yaml:"cache_ttl_mins" mapstructure:"cache_ttl_mins"`
	RateLimit    float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// CacheTTL returns the tile cache TTL as a duration.
func (c TilesConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLMins) * time.Minute
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment. The dashboard
// section is validated here since every command builds a dashboard.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("GEODASH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("api.url", DefaultAPIURL)
	v.SetDefault("api.timeout_secs", 30)
	v.SetDefault("api.max_retries", 1)
	v.SetDefault("api.user_agent", "geo-dashboard/1.0")
	v.SetDefault("api.rate_limit", 5)
	v.SetDefault("dashboard.page_size", 50)
	v.SetDefault("dashboard.page_sizes", paginate.DefaultPageSizes)
	v.SetDefault("dashboard.layout", string(model.LayoutSplit))
	v.SetDefault("dashboard.tile_style", string(model.TileStreet))
	v.SetDefault("dashboard.timezone", "UTC")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("tiles.cache_entries", 2048)
	v.SetDefault("tiles.cache_ttl_mins", 60)
	v.SetDefault("tiles.rate_limit", 10)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	if errs := cfg.dashboardErrors(); len(errs) > 0 {
		return nil, eris.Errorf("config: invalid dashboard settings: %s", strings.Join(errs, "; "))
	}

	return &cfg, nil
}

// Validate checks the settings a command needs. Mode is one of "serve",
// "fetch" or "export".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be between 1 and 65535")
		}
		if c.Tiles.CacheEntries < 0 {
			errs = append(errs, "tiles.cache_entries must be >= 0")
		}
		if c.Tiles.CacheTTLMins < 0 {
			errs = append(errs, "tiles.cache_ttl_mins must be >= 0")
		}
		if c.Tiles.RateLimit < 0 {
			errs = append(errs, "tiles.rate_limit must be >= 0")
		}
	case "fetch", "export":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	errs = append(errs, c.apiErrors()...)
	errs = append(errs, c.dashboardErrors()...)

	if len(errs) > 0 {
		return eris.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) apiErrors() []string {
	var errs []string
	if c.API.URL == "" {
		errs = append(errs, "api.url is required")
	} else if u, err := url.Parse(c.API.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, "api.url must be an http(s) URL")
	}
	if c.API.TimeoutSecs <= 0 {
		errs = append(errs, "api.timeout_secs must be > 0")
	}
	if c.API.MaxRetries < 1 {
		errs = append(errs, "api.max_retries must be >= 1")
	}
	if c.API.RateLimit < 0 {
		errs = append(errs, "api.rate_limit must be >= 0")
	}
	return errs
}

func (c *Config) dashboardErrors() []string {
	var errs []string
	d := c.Dashboard

	if len(d.PageSizes) == 0 {
		errs = append(errs, "dashboard.page_sizes must not be empty")
	}
	for _, s := range d.PageSizes {
		if s <= 0 {
			errs = append(errs, "dashboard.page_sizes must be positive")
			break
		}
	}
	if len(d.PageSizes) > 0 && !slices.Contains(d.PageSizes, d.PageSize) {
		errs = append(errs, "dashboard.page_size must be one of dashboard.page_sizes")
	}
	if _, err := model.ParseLayoutMode(d.Layout); err != nil {
		errs = append(errs, "dashboard.layout must be split, table or map")
	}
	if _, err := model.ParseTileStyle(d.TileStyle); err != nil {
		errs = append(errs, "dashboard.tile_style must be street, satellite, terrain or dark")
	}
	if _, err := d.Location(); err != nil {
		errs = append(errs, "dashboard.timezone is not a known IANA zone")
	}
	return errs
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
