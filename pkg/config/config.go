package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage drivers
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Server ServerConfig `mapstructure:"server"`

	// Storage configuration
	Storage StorageConfig `mapstructure:"storage"`

	// Authentication configuration
	Auth AuthConfig `mapstructure:"auth"`

	// Report rendering configuration
	Report ReportConfig `mapstructure:"report"`

	// Logging configuration
	LogLevel string `mapstructure:"log_level"`

	// Monitoring configuration
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Host         string   `mapstructure:"host"`
	Port         int      `mapstructure:"port"`
	ReadTimeout  int      `mapstructure:"read_timeout"`
	WriteTimeout int      `mapstructure:"write_timeout"`
	IdleTimeout  int      `mapstructure:"idle_timeout"`
	CORSOrigins  []string `mapstructure:"cors_origins"`
}

// StorageConfig selects and configures the slot store
type StorageConfig struct {
	Driver string `mapstructure:"driver"`
	// Path is the database file for the sqlite3 driver
	Path            string `mapstructure:"path"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"ssl_mode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

// AuthConfig holds token configuration
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	TokenTTL  int    `mapstructure:"token_ttl"`
	Issuer    string `mapstructure:"issuer"`
	// MaxLoginAttempts per username within LoginWindow seconds; 0 disables
	MaxLoginAttempts int `mapstructure:"max_login_attempts"`
	LoginWindow      int `mapstructure:"login_window"`
}

// ReportConfig holds settings for the printable payroll
type ReportConfig struct {
	ClinicName string `mapstructure:"clinic_name"`
	// PDFFontPath points at a TTF font with CJK glyphs. Without it the PDF
	// uses a core font and non Latin-1 names are transliterated.
	PDFFontPath string `mapstructure:"pdf_font_path"`
}

// MonitoringConfig holds monitoring configuration
type MonitoringConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	MetricsPath    string  `mapstructure:"metrics_path"`
	HealthPath     string  `mapstructure:"health_path"`
	ServiceName    string  `mapstructure:"service_name"`
	JaegerEndpoint string  `mapstructure:"jaeger_endpoint"`
	SamplingRate   float64 `mapstructure:"sampling_rate"`
}

// Load loads configuration from a .env file, environment variables and config files
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom loads configuration like Load but reads the given config file
// instead of searching the default locations when path is not empty
func LoadFrom(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/jiale")
	}

	setDefaults(v)

	v.SetEnvPrefix("JIALE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	overrideWithEnv(&config)

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30)
	v.SetDefault("server.write_timeout", 30)
	v.SetDefault("server.idle_timeout", 120)
	v.SetDefault("server.cors_origins", []string{"*"})

	// Storage defaults
	v.SetDefault("storage.driver", DriverSQLite)
	v.SetDefault("storage.path", "jiale.db")
	v.SetDefault("storage.host", "localhost")
	v.SetDefault("storage.port", 5432)
	v.SetDefault("storage.name", "jiale")
	v.SetDefault("storage.user", "jiale")
	v.SetDefault("storage.ssl_mode", "disable")
	v.SetDefault("storage.max_open_conns", 10)
	v.SetDefault("storage.max_idle_conns", 2)
	v.SetDefault("storage.conn_max_lifetime", 300)

	// Auth defaults
	v.SetDefault("auth.token_ttl", 43200) // 12 hours, one clinic shift
	v.SetDefault("auth.issuer", "jiale-clinic")
	v.SetDefault("auth.max_login_attempts", 5)
	v.SetDefault("auth.login_window", 300)

	// Report defaults
	v.SetDefault("report.clinic_name", "Jiale Clinic")

	// Monitoring defaults
	v.SetDefault("monitoring.enabled", true)
	v.SetDefault("monitoring.metrics_path", "/metrics")
	v.SetDefault("monitoring.health_path", "/health")
	v.SetDefault("monitoring.service_name", "scheduling-service")
	v.SetDefault("monitoring.sampling_rate", 1.0)

	// Logging defaults
	v.SetDefault("log_level", "info")
}

// overrideWithEnv overrides configuration with conventional unprefixed variables
func overrideWithEnv(config *Config) {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if jwtSecret := os.Getenv("JWT_SECRET"); jwtSecret != "" {
		config.Auth.JWTSecret = jwtSecret
	}

	if dbPassword := os.Getenv("DB_PASSWORD"); dbPassword != "" {
		config.Storage.Password = dbPassword
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		config.LogLevel = logLevel
	}
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required")
	}

	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	switch config.Storage.Driver {
	case DriverMemory:
	case DriverSQLite:
		if config.Storage.Path == "" {
			return fmt.Errorf("storage path is required for the %s driver", DriverSQLite)
		}
	case DriverPostgres:
		if config.Storage.Password == "" {
			return fmt.Errorf("database password is required for the %s driver", DriverPostgres)
		}
	default:
		return fmt.Errorf("unknown storage driver: %q", config.Storage.Driver)
	}

	if config.Auth.TokenTTL <= 0 {
		return fmt.Errorf("invalid token ttl: %d", config.Auth.TokenTTL)
	}

	if config.Auth.MaxLoginAttempts > 0 && config.Auth.LoginWindow <= 0 {
		return fmt.Errorf("invalid login window: %d", config.Auth.LoginWindow)
	}

	return nil
}
