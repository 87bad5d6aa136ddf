package configs

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store driver names accepted by DB_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// DatabaseConfig holds the Postgres connection settings.
type DatabaseConfig struct {
	Driver       string
	Host         string
	Port         string
	User         string
	Password     string
	Name         string
	SSLMode      string
	TimeZone     string
	MaxOpenConns int
	MaxIdleConns int
	AutoMigrate  bool
}

// DSN builds the pgx connection string used by gorm's postgres driver.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode, c.TimeZone)
}

// RedisConfig is optional; an empty Addr keeps sessions in process memory.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// AppConfig holds every runtime setting of the portal.
type AppConfig struct {
	Env      string
	Host     string
	Port     string
	LogLevel string

	Database DatabaseConfig
	Redis    RedisConfig

	SessionExpiration time.Duration
	CookieSecure      bool
	CSRFEnabled       bool

	ViewsDir     string
	StaticDir    string
	UploadDir    string
	MaxImageSize int64

	MeetingBaseURL             string
	MeetingRequireKnownPatient bool

	AdminEmail    string
	AdminPassword string
}

// IsDev reports whether the portal runs in development mode.
func (c *AppConfig) IsDev() bool {
	return c.Env == "development"
}

// Addr returns the listen address for fiber.
func (c *AppConfig) Addr() string {
	return c.Host + ":" + c.Port
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_HOST", "")
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("DB_DRIVER", DriverPostgres)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_NAME", "svetaine")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_TIMEZONE", "Europe/Vilnius")
	v.SetDefault("DB_MAX_OPEN_CONNS", 20)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_AUTO_MIGRATE", false)

	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("SESSION_EXPIRATION", "24h")
	v.SetDefault("COOKIE_SECURE", false)
	v.SetDefault("CSRF_ENABLED", true)

	v.SetDefault("VIEWS_DIR", "./views")
	v.SetDefault("STATIC_DIR", "./static")
	v.SetDefault("UPLOAD_DIR", "./static/user_images")
	v.SetDefault("MAX_IMAGE_SIZE", 5*1024*1024)

	v.SetDefault("MEETING_BASE_URL", "https://meet.ktuligonine.lt/")
	v.SetDefault("MEETING_REQUIRE_KNOWN_PATIENT", false)

	v.SetDefault("ADMIN_EMAIL", "")
	v.SetDefault("ADMIN_PASSWORD", "")
}

// Load reads .env (if present) and the process environment into an AppConfig.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read .env: %w", err)
	}
	return loadFrom(viper.New())
}

func loadFrom(v *viper.Viper) (*AppConfig, error) {
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &AppConfig{
		Env:      strings.ToLower(v.GetString("APP_ENV")),
		Host:     v.GetString("APP_HOST"),
		Port:     v.GetString("APP_PORT"),
		LogLevel: strings.ToLower(v.GetString("LOG_LEVEL")),
		Database: DatabaseConfig{
			Driver:       strings.ToLower(v.GetString("DB_DRIVER")),
			Host:         v.GetString("DB_HOST"),
			Port:         v.GetString("DB_PORT"),
			User:         v.GetString("DB_USER"),
			Password:     v.GetString("DB_PASSWORD"),
			Name:         v.GetString("DB_NAME"),
			SSLMode:      v.GetString("DB_SSLMODE"),
			TimeZone:     v.GetString("DB_TIMEZONE"),
			MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
			AutoMigrate:  v.GetBool("DB_AUTO_MIGRATE"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		SessionExpiration:          v.GetDuration("SESSION_EXPIRATION"),
		CookieSecure:               v.GetBool("COOKIE_SECURE"),
		CSRFEnabled:                v.GetBool("CSRF_ENABLED"),
		ViewsDir:                   v.GetString("VIEWS_DIR"),
		StaticDir:                  v.GetString("STATIC_DIR"),
		UploadDir:                  v.GetString("UPLOAD_DIR"),
		MaxImageSize:               v.GetInt64("MAX_IMAGE_SIZE"),
		MeetingBaseURL:             v.GetString("MEETING_BASE_URL"),
		MeetingRequireKnownPatient: v.GetBool("MEETING_REQUIRE_KNOWN_PATIENT"),
		AdminEmail:                 v.GetString("ADMIN_EMAIL"),
		AdminPassword:              v.GetString("ADMIN_PASSWORD"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *AppConfig) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.Host == "" || c.Database.Name == "" {
			return errors.New("DB_HOST and DB_NAME are required for the postgres driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("DB_DRIVER must be %q or %q, got %q", DriverPostgres, DriverMemory, c.Database.Driver)
	}
	if c.Port == "" {
		return errors.New("APP_PORT is required")
	}
	if c.SessionExpiration <= 0 {
		return fmt.Errorf("SESSION_EXPIRATION must be positive, got %s", c.SessionExpiration)
	}
	if c.MaxImageSize <= 0 {
		return fmt.Errorf("MAX_IMAGE_SIZE must be positive, got %d", c.MaxImageSize)
	}
	if strings.TrimSpace(c.MeetingBaseURL) == "" {
		return errors.New("MEETING_BASE_URL is required")
	}
	if (c.AdminEmail == "") != (c.AdminPassword == "") {
		return errors.New("ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}
	if c.Env == "production" && !c.CookieSecure {
		return errors.New("COOKIE_SECURE must be true in production")
	}
	return nil
}
