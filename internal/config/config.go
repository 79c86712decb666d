package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App    AppConfig    `yaml:"app"`
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
	DB     DBConfig     `yaml:"db"`
	Redis  RedisConfig  `yaml:"redis"`
	JWT    JWTConfig    `yaml:"jwt"`
	Alerts AlertsConfig `yaml:"alerts"`
	Client ClientConfig `yaml:"client"`
}

type AppConfig struct {
	Name     string `yaml:"name"`
	Timezone string `yaml:"timezone"` // zona para "hoy" cuando el request no manda tz
}

type ServerConfig struct {
	Port         string        `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DBConfig: si DSN viene vacío se usan repos in-memory.
type DBConfig struct {
	DSN          string `yaml:"dsn"`
	EnsureSchema bool   `yaml:"ensure_schema"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

// RedisConfig: si Addr viene vacío no hay cache de dosis.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// JWTConfig: si Secret viene vacío el server arranca en modo dev (X-Debug-User-ID).
type JWTConfig struct {
	Secret string `yaml:"secret"`
}

type AlertsConfig struct {
	RefreshEvery   time.Duration `yaml:"refresh_every"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	SessionIdle    time.Duration `yaml:"session_idle"`
}

// ClientConfig lo usa cmd/remind.
type ClientConfig struct {
	BaseURL string        `yaml:"base_url"`
	Token   string        `yaml:"token"`
	UserID  string        `yaml:"user_id"`
	Timeout time.Duration `yaml:"timeout"`
}

func Default() Config {
	return Config{
		App: AppConfig{
			Name:     "med-reminder",
			Timezone: "UTC",
		},
		Server: ServerConfig{
			Port:         "8080",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		DB: DBConfig{
			MaxOpenConns: 10,
			MaxIdleConns: 5,
		},
		Redis: RedisConfig{
			TTL: 2 * time.Minute,
		},
		Alerts: AlertsConfig{
			RefreshEvery:   time.Minute,
			RequestTimeout: 10 * time.Second,
			SessionIdle:    30 * time.Minute,
		},
		Client: ClientConfig{
			BaseURL: "http://localhost:8080",
			Timeout: 10 * time.Second,
		},
	}
}

// Load lee el YAML (si path existe) encima de Default() y después aplica env.
// Un path vacío o inexistente no es error: se usan defaults + env.
func Load(path string) (Config, error) {
	cfg := Default()

	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
			// defaults
		default:
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	overrideFromEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Server.Port) == "" {
		return errors.New("config: server.port required")
	}
	if _, err := time.LoadLocation(c.App.Timezone); err != nil {
		return fmt.Errorf("config: app.timezone: %w", err)
	}
	if c.Alerts.RefreshEvery <= 0 {
		return errors.New("config: alerts.refresh_every must be > 0")
	}
	return nil
}

// LoadDotEnv carga variables desde archivos .env (por defecto ./.env) sin pisar las ya definidas.
// Archivos inexistentes se ignoran.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("config: load %s: %w", p, err)
		}
	}
	return nil
}

// Location devuelve la zona configurada (UTC si no se puede cargar).
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func overrideFromEnv(cfg *Config) {
	setString(&cfg.App.Name, "APP_NAME")
	setString(&cfg.App.Timezone, "APP_TIMEZONE")
	setString(&cfg.Server.Port, "PORT")
	setString(&cfg.Log.Level, "LOG_LEVEL")
	setString(&cfg.Log.Format, "LOG_FORMAT")
	setString(&cfg.DB.DSN, "DB_DSN")
	setBool(&cfg.DB.EnsureSchema, "DB_ENSURE_SCHEMA")
	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "REDIS_DB")
	setString(&cfg.JWT.Secret, "JWT_SECRET")
	setDuration(&cfg.Alerts.RefreshEvery, "ALERTS_REFRESH_EVERY")
	setDuration(&cfg.Alerts.RequestTimeout, "ALERTS_REQUEST_TIMEOUT")
	setString(&cfg.Client.BaseURL, "REMIND_API_URL")
	setString(&cfg.Client.Token, "REMIND_TOKEN")
	setString(&cfg.Client.UserID, "REMIND_USER_ID")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		*dst = strings.TrimSpace(v)
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
