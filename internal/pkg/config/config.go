package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Log          LogConfig          `mapstructure:"log"`
	OpenCellID   OpenCellIDConfig   `mapstructure:"opencellid"`
	GPS          GPSConfig          `mapstructure:"gps"`
	Viewport     ViewportConfig     `mapstructure:"viewport"`
	Connectivity ConnectivityConfig `mapstructure:"connectivity"`
	Cell         CellConfig         `mapstructure:"cell"`
	Database     DatabaseConfig     `mapstructure:"database"`
	NATS         NATSConfig         `mapstructure:"nats"`
	Valkey       ValkeyConfig       `mapstructure:"valkey"`
	Cache        CacheConfig        `mapstructure:"cache"`
	Telemetry    TelemetryConfig    `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// OpenCellIDConfig configures the remote cell service.
type OpenCellIDConfig struct {
	BaseURL          string `mapstructure:"base_url"`
	APIKey           string `mapstructure:"api_key"`
	TestMode         bool   `mapstructure:"test_mode"`
	ConnectTimeoutMS int    `mapstructure:"connect_timeout_ms"`
	ReadTimeoutMS    int    `mapstructure:"read_timeout_ms"`
	MaxConcurrent    int    `mapstructure:"max_concurrent"`
}

func (o OpenCellIDConfig) ConnectTimeout() time.Duration {
	return time.Duration(o.ConnectTimeoutMS) * time.Millisecond
}

func (o OpenCellIDConfig) ReadTimeout() time.Duration {
	return time.Duration(o.ReadTimeoutMS) * time.Millisecond
}

type GPSConfig struct {
	MaxFixAgeMS int `mapstructure:"max_fix_age_ms"`
	TimeoutMS   int `mapstructure:"timeout_ms"`
}

func (g GPSConfig) MaxFixAge() time.Duration { return time.Duration(g.MaxFixAgeMS) * time.Millisecond }
func (g GPSConfig) Timeout() time.Duration   { return time.Duration(g.TimeoutMS) * time.Millisecond }

type ViewportConfig struct {
	Limit int `mapstructure:"limit"`
}

// ConnectivityConfig selects the reachability probe. An empty ProbeAddr
// reports the host as always connected.
type ConnectivityConfig struct {
	ProbeAddr      string `mapstructure:"probe_addr"`
	ProbeTimeoutMS int    `mapstructure:"probe_timeout_ms"`
}

func (c ConnectivityConfig) ProbeTimeout() time.Duration {
	return time.Duration(c.ProbeTimeoutMS) * time.Millisecond
}

// CellConfig describes the serving cell of the host modem.
type CellConfig struct {
	NetworkOperator string `mapstructure:"network_operator"`
	NetworkType     string `mapstructure:"network_type"`
	LAC             int    `mapstructure:"lac"`
	CellID          int    `mapstructure:"cell_id"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	Enabled  bool   `mapstructure:"enabled"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	URL        string `mapstructure:"url"`
	FixSubject string `mapstructure:"fix_subject"`
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
}

type CacheConfig struct {
	AreaTTLSeconds int `mapstructure:"area_ttl_seconds"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

// flagKeys maps command-line flags to configuration keys.
var flagKeys = map[string]string{
	"port":        "server.port",
	"log-level":   "log.level",
	"log-format":  "log.format",
	"api-key":     "opencellid.api_key",
	"base-url":    "opencellid.base_url",
	"test-mode":   "opencellid.test_mode",
	"nats-url":    "nats.url",
	"valkey-addr": "valkey.addr",
}

// RegisterFlags declares the flags understood by Load on fs.
func RegisterFlags(fs *flag.FlagSet) {
	fs.Int("port", 8080, "HTTP listen port")
	fs.String("log-level", "info", "log level: debug, info, warn, error")
	fs.String("log-format", "json", "log format: json or text")
	fs.String("api-key", "", "OpenCellID API key")
	fs.String("base-url", "http://www.opencellid.org/", "OpenCellID base URL")
	fs.Bool("test-mode", false, "submit measurements with test MCC/MNC")
	fs.String("nats-url", "nats://localhost:4222", "NATS server URL")
	fs.String("valkey-addr", "localhost:6379", "Valkey address")
}

// Load reads configuration from defaults, an optional config file, a .env
// file, environment variables and fs, in increasing precedence. fs may be
// nil.
func Load(service string, fs *flag.FlagSet) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using process environment")
	}

	v := viper.New()
	setDefaults(v, service)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig()

	// Environment variables: CELLDROID_OPENCELLID_API_KEY → opencellid.api_key
	v.SetEnvPrefix("CELLDROID")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil && f.Changed {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, service string) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("opencellid.base_url", "http://www.opencellid.org/")
	v.SetDefault("opencellid.api_key", "")
	v.SetDefault("opencellid.test_mode", false)
	v.SetDefault("opencellid.connect_timeout_ms", 10000)
	v.SetDefault("opencellid.read_timeout_ms", 10000)
	v.SetDefault("opencellid.max_concurrent", 4)
	v.SetDefault("gps.max_fix_age_ms", 120000)
	v.SetDefault("gps.timeout_ms", 45000)
	v.SetDefault("viewport.limit", 50)
	v.SetDefault("connectivity.probe_addr", "")
	v.SetDefault("connectivity.probe_timeout_ms", 2000)
	v.SetDefault("cell.network_operator", "")
	v.SetDefault("cell.network_type", "gsm")
	v.SetDefault("cell.lac", -1)
	v.SetDefault("cell.cell_id", -1)
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "celldroid")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "celldroid")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.fix_subject", "celldroid.fix")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("cache.area_ttl_seconds", 300)
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", false)
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.OpenCellID.BaseURL == "" {
		errs = append(errs, "opencellid.base_url is required")
	}
	if c.OpenCellID.ConnectTimeoutMS <= 0 {
		errs = append(errs, "opencellid.connect_timeout_ms must be positive")
	}
	if c.OpenCellID.ReadTimeoutMS <= 0 {
		errs = append(errs, "opencellid.read_timeout_ms must be positive")
	}
	if c.OpenCellID.MaxConcurrent <= 0 {
		errs = append(errs, "opencellid.max_concurrent must be positive")
	}
	if c.GPS.MaxFixAgeMS <= 0 {
		errs = append(errs, "gps.max_fix_age_ms must be positive")
	}
	if c.GPS.TimeoutMS <= 0 {
		errs = append(errs, "gps.timeout_ms must be positive")
	}
	if c.Viewport.Limit <= 0 || c.Viewport.Limit > 200 {
		errs = append(errs, fmt.Sprintf("viewport.limit must be 1-200, got %d", c.Viewport.Limit))
	}
	if c.Database.Enabled {
		if c.Database.Host == "" {
			errs = append(errs, "database.host is required")
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
		}
		if c.Database.DBName == "" {
			errs = append(errs, "database.dbname is required")
		}
	}
	if c.NATS.URL != "" && c.NATS.FixSubject == "" {
		errs = append(errs, "nats.fix_subject is required when nats.url is set")
	}
	if c.Cache.AreaTTLSeconds < 0 {
		errs = append(errs, "cache.area_ttl_seconds must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
