// config - загрузка конфигурации клиента fitshare.
//
// Источники (по убыванию приоритета):
//  1. явный путь --config;
//  2. FITSHARE_CONFIG;
//  3. ./fitshare.yaml;
//  4. только ENV (cleanenv).
//
// Переменные окружения всегда перекрывают значения из файла.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Типы хранилища токенов
const (
	StoreBolt   = "bolt"
	StoreCookie = "cookie"
)

// LocalFile - файл конфигурации в текущем каталоге
const LocalFile = "fitshare.yaml"

// PathEnv - переменная окружения с путем к файлу конфигурации
const PathEnv = "FITSHARE_CONFIG"

// ErrInvalidConfig - конфигурация загружена, но содержит недопустимые значения
var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	BaseURL         string        `yaml:"base_url"          env:"FITSHARE_BASE_URL"          env-default:"http://localhost:5000"`
	UploadFolderURL string        `yaml:"upload_folder_url" env:"FITSHARE_UPLOAD_FOLDER_URL"`
	DefaultPageSize int           `yaml:"default_page_size" env:"FITSHARE_DEFAULT_PAGE_SIZE" env-default:"10"`
	Timeout         time.Duration `yaml:"timeout"           env:"FITSHARE_TIMEOUT"           env-default:"30s"`

	// Store - bolt (файл DBPath, токены зашифрованы) или cookie (только в памяти процесса)
	Store           string `yaml:"store"            env:"FITSHARE_STORE"            env-default:"bolt"`
	DBPath          string `yaml:"db_path"          env:"FITSHARE_DB_PATH"          env-default:"fitshare.db"`
	StorePassphrase string `yaml:"store_passphrase" env:"FITSHARE_STORE_PASSPHRASE"`

	LogLevel       string `yaml:"log_level"        env:"FITSHARE_LOG_LEVEL"        env-default:"warn"`
	GoogleClientID string `yaml:"google_client_id" env:"FITSHARE_GOOGLE_CLIENT_ID"`

	// CitiesAPIURL - полный адрес справочника населенных пунктов; пустой отключает проверку городов
	CitiesAPIURL string `yaml:"cities_api_url" env:"FITSHARE_CITIES_API_URL"`
}

// Validate проверяет значения после загрузки
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: base_url %q must be an absolute URL", ErrInvalidConfig, c.BaseURL)
	}
	if c.DefaultPageSize < 1 {
		return fmt.Errorf("%w: default_page_size must be positive, got %d", ErrInvalidConfig, c.DefaultPageSize)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive", ErrInvalidConfig)
	}
	switch c.Store {
	case StoreBolt:
		if c.DBPath == "" {
			return fmt.Errorf("%w: db_path is required for bolt store", ErrInvalidConfig)
		}
	case StoreCookie:
	default:
		return fmt.Errorf("%w: unknown store %q (want %s or %s)", ErrInvalidConfig, c.Store, StoreBolt, StoreCookie)
	}
	if c.CitiesAPIURL != "" {
		u, err := url.Parse(c.CitiesAPIURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%w: cities_api_url %q must be an absolute URL", ErrInvalidConfig, c.CitiesAPIURL)
		}
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel разбирает log_level (debug, info, warn, error)
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("%w: log_level: %w", ErrInvalidConfig, err)
	}
	return level, nil
}

// MustLoad - паника при ошибке загрузки.
func MustLoad(path string) *Config {
	cfg, err := Load(path)

	if err != nil {
		panic(err)
	}

	return cfg
}

// Load читает конфигурацию и проверяет ее
func Load(path string) (*Config, error) {
	cfg, err := read(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func read(path string) (*Config, error) {
	var cfg Config

	fromFile := func(p string) (*Config, error) {
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("config file %q stat failed: %w", p, err)
		}

		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}

		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to overlay env: %w", err)
		}

		return &cfg, nil
	}

	// 1) --config
	if path != "" {
		return fromFile(path)
	}

	// 2) FITSHARE_CONFIG
	if envPath := os.Getenv(PathEnv); envPath != "" {
		return fromFile(envPath)
	}

	// 3) ./fitshare.yaml
	if _, err := os.Stat(LocalFile); err == nil {
		return fromFile(LocalFile)
	}

	// 4) только ENV
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read env: %w", err)
	}
	return &cfg, nil
}

// Usage возвращает описание переменных окружения для справки CLI
func Usage() string {
	var cfg Config
	text, err := cleanenv.GetDescription(&cfg, nil)
	if err != nil {
		return ""
	}
	return text
}
