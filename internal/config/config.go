// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. EQUIPMENT_SERVER_PORT.
const EnvPrefix = "EQUIPMENT"

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Security  SecurityConfig  `mapstructure:"security"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Device    DeviceConfig    `mapstructure:"device"`
	Relay     RelayConfig     `mapstructure:"relay"`
	Discovery DiscoveryConfig `mapstructure:"discovery"`
	History   HistoryConfig   `mapstructure:"history"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	App       AppConfig       `mapstructure:"app"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	TLS          TLSConfig     `mapstructure:"tls"`
}

// TLSConfig represents TLS configuration
type TLSConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	CertFile string `mapstructure:"cert_file"`
	KeyFile  string `mapstructure:"key_file"`
}

// DatabaseConfig represents database configuration. History falls back to
// memory when Enabled is false.
type DatabaseConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	User         string        `mapstructure:"user"`
	Password     string        `mapstructure:"password"`
	DBName       string        `mapstructure:"dbname"`
	SSLMode      string        `mapstructure:"sslmode"`
	MaxOpenConns int           `mapstructure:"max_open_conns"`
	MaxIdleConns int           `mapstructure:"max_idle_conns"`
	MaxLifetime  time.Duration `mapstructure:"max_lifetime"`
	AutoMigrate  bool          `mapstructure:"auto_migrate"`
}

// SecurityConfig represents security configuration
type SecurityConfig struct {
	AllowedOrigins    []string `mapstructure:"allowed_origins"`
	RateLimitEnabled  bool     `mapstructure:"rate_limit_enabled"`
	RateLimitRequests int      `mapstructure:"rate_limit_requests"`
	// RateLimitWindow is the period in which RateLimitRequests are allowed.
	RateLimitWindow time.Duration `mapstructure:"rate_limit_window"`
	RateLimitBurst  int           `mapstructure:"rate_limit_burst"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// DeviceConfig represents device-specific configuration
type DeviceConfig struct {
	// OperationTimeout bounds one execute call.
	OperationTimeout time.Duration  `mapstructure:"operation_timeout"`
	Settling         SettlingConfig `mapstructure:"settling"`
	Atol             AtolConfig     `mapstructure:"atol"`
}

// AtolConfig selects the native SDK binding. "none" fails every open;
// "emulator" is an in-memory register for demos and integration tests.
type AtolConfig struct {
	Provider string `mapstructure:"provider"`
}

// SettlingConfig is the raw printer write pacing.
type SettlingConfig struct {
	PerText      time.Duration `mapstructure:"per_text"`
	CharsPerStep int           `mapstructure:"chars_per_step"`
	Cut          time.Duration `mapstructure:"cut"`
}

// RelayConfig configures both sides of the print server protocol.
type RelayConfig struct {
	// Version is reported by /version.
	Version         string        `mapstructure:"version"`
	DialTimeout     time.Duration `mapstructure:"dial_timeout"`
	ResponseTimeout time.Duration `mapstructure:"response_timeout"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

// DiscoveryConfig represents device discovery configuration
type DiscoveryConfig struct {
	USBEnabled    bool          `mapstructure:"usb_enabled"`
	SerialEnabled bool          `mapstructure:"serial_enabled"`
	TCPEnabled    bool          `mapstructure:"tcp_enabled"`
	ScanTimeout   time.Duration `mapstructure:"scan_timeout"`
	SerialPorts   []string      `mapstructure:"serial_ports"`
	BaudRate      int           `mapstructure:"baud_rate"`
	NetworkRanges []string      `mapstructure:"network_ranges"`
	ConnTimeout   time.Duration `mapstructure:"conn_timeout"`
	MaxConcurrent int           `mapstructure:"max_concurrent"`
}

// HistoryConfig bounds the execution history.
type HistoryConfig struct {
	Retention      time.Duration `mapstructure:"retention"`
	MemoryCapacity int           `mapstructure:"memory_capacity"`
}

// MetricsConfig represents the prometheus endpoint
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// AppConfig represents application metadata
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
}

// Load reads config.yaml from the working directory or ./config, then
// applies .env and EQUIPMENT_* overrides. A missing file is not an error.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit config file path.
func LoadFile(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/equipment")
	}

	// Environment variable support
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8090")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.tls.enabled", false)

	// Database defaults
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "equipment")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.max_lifetime", "5m")
	v.SetDefault("database.auto_migrate", true)

	// Security defaults
	v.SetDefault("security.allowed_origins", []string{"*"})
	v.SetDefault("security.rate_limit_enabled", true)
	v.SetDefault("security.rate_limit_requests", 600)
	v.SetDefault("security.rate_limit_window", "1m")
	v.SetDefault("security.rate_limit_burst", 50)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.max_size", 100)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age", 28)
	v.SetDefault("logging.compress", true)

	// Device defaults
	v.SetDefault("device.operation_timeout", "120s")
	v.SetDefault("device.settling.per_text", "20ms")
	v.SetDefault("device.settling.chars_per_step", 12)
	v.SetDefault("device.settling.cut", "200ms")
	v.SetDefault("device.atol.provider", "none")

	// Relay defaults
	v.SetDefault("relay.version", "1.0.0")
	v.SetDefault("relay.dial_timeout", "5s")
	v.SetDefault("relay.response_timeout", "30s")
	v.SetDefault("relay.timeout", "60s")

	// Discovery defaults
	v.SetDefault("discovery.usb_enabled", true)
	v.SetDefault("discovery.serial_enabled", true)
	v.SetDefault("discovery.tcp_enabled", false)
	v.SetDefault("discovery.scan_timeout", "30s")
	v.SetDefault("discovery.baud_rate", 115200)
	v.SetDefault("discovery.network_ranges", []string{})
	v.SetDefault("discovery.conn_timeout", "500ms")
	v.SetDefault("discovery.max_concurrent", 64)

	// History defaults
	v.SetDefault("history.retention", "720h")
	v.SetDefault("history.memory_capacity", 10000)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	// App defaults
	v.SetDefault("app.name", "equipment")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.debug", false)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}
	if config.Database.Enabled && config.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if config.Server.TLS.Enabled && (config.Server.TLS.CertFile == "" || config.Server.TLS.KeyFile == "") {
		return fmt.Errorf("server.tls.cert_file and server.tls.key_file are required")
	}
	if config.Security.RateLimitEnabled && (config.Security.RateLimitRequests <= 0 || config.Security.RateLimitWindow <= 0) {
		return fmt.Errorf("security.rate_limit_requests and security.rate_limit_window must be positive")
	}

	validProviders := []string{"none", "emulator"}
	if !slices.Contains(validProviders, config.Device.Atol.Provider) {
		return fmt.Errorf("device.atol.provider must be one of: %v", validProviders)
	}

	validEnvs := []string{"development", "staging", "production", "test"}
	if !slices.Contains(validEnvs, config.App.Environment) {
		return fmt.Errorf("app.environment must be one of: %v", validEnvs)
	}

	validLevels := []string{"debug", "info", "warn", "error", "fatal"}
	if !slices.Contains(validLevels, config.Logging.Level) {
		return fmt.Errorf("logging.level must be one of: %v", validLevels)
	}

	return nil
}

// GetServerAddr returns the server address
func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

// IsProduction checks if the environment is production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDevelopment checks if the environment is development
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsDebugEnabled checks if debug mode is enabled
func (c *Config) IsDebugEnabled() bool {
	return c.App.Debug || c.IsDevelopment()
}
