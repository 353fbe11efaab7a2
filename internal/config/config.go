// config - источник загрузки конфигурации шлюза маркетплейса.
//
// Источники (по убыванию приоритета):
//  1. явный путь --config;
//  2. CONFIG_PATH;
//  3. ./local.yaml;
//  4. только ENV (cleanenv).
//
// После чтения файла поверх накладываются ENV-переменные.
package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Драйверы хранилища корзины.
const (
	DriverSQLite   = "sqlite"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

type Config struct {
	Env      string         `yaml:"env" env:"ENV" env-default:"local"`
	HTTP     HTTPConfig     `yaml:"http"`
	Backend  BackendConfig  `yaml:"backend"`
	Storage  StorageConfig  `yaml:"storage"`
	Cart     CartConfig     `yaml:"cart"`
	Comments CommentsConfig `yaml:"comments"`
	Auth     AuthConfig     `yaml:"auth"`
	Timeouts TimeoutConfig  `yaml:"timeouts"`
}

// HTTPConfig — публичный REST-сервер шлюза.
type HTTPConfig struct {
	Host string `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"HTTP_PORT" env-default:"50090"`
}

func (h HTTPConfig) Addr() string { return net.JoinHostPort(h.Host, h.Port) }

// BackendConfig — внешний REST-бэкенд объявлений (/api/publicaciones/...).
type BackendConfig struct {
	BaseURL   string `yaml:"base_url"   env:"BACKEND_BASE_URL"   env-default:"http://localhost:8080"`
	UserAgent string `yaml:"user_agent" env:"BACKEND_USER_AGENT" env-default:"car-marketplace-gateway"`
}

// StorageConfig — персистентное key-value хранилище корзин.
type StorageConfig struct {
	Driver      string        `yaml:"driver"       env:"STORAGE_DRIVER" env-default:"sqlite"`
	SQLitePath  string        `yaml:"sqlite_path"  env:"SQLITE_PATH"    env-default:"data/cart.db"`
	RedisURL    string        `yaml:"redis_url"    env:"REDIS_URL"`
	PostgresURL string        `yaml:"postgres_url" env:"DATABASE_URL"`
	MongoURL    string        `yaml:"mongo_url"    env:"MONGO_URL"`
	// TTL корзины для драйверов, которые его поддерживают (redis). 0 — бессрочно.
	TTL time.Duration `yaml:"ttl" env:"STORAGE_TTL" env-default:"0s"`
}

// CartConfig — ключи корзины в хранилище.
type CartConfig struct {
	KeyPrefix string `yaml:"key_prefix" env:"CART_KEY_PREFIX" env-default:"cart"`
}

// CommentsConfig — лимиты комментариев и отображения дерева.
type CommentsConfig struct {
	// Глубина, начиная с которой кнопка «ответить» скрывается. Корень = 0.
	MaxDepth int `yaml:"max_depth" env:"COMMENTS_MAX_DEPTH" env-default:"3"`
	// Локальный лимит длины текста (символы), сервер остаётся источником истины.
	MaxTextLen int `yaml:"max_text_len" env:"COMMENTS_MAX_TEXT_LEN" env-default:"2000"`
	// Дедлайн общей (singleflight) загрузки комментариев, не зависящий от вызывающего.
	FetchTimeout time.Duration `yaml:"fetch_timeout" env:"COMMENTS_FETCH_TIMEOUT" env-default:"10s"`
}

// AuthConfig — разбор bearer-токенов бэкенда.
type AuthConfig struct {
	// Если пусто — подпись не проверяется (источник истины — бэкенд).
	JWTSecret   string `yaml:"jwt_secret"    env:"JWT_SECRET"`
	UserIDClaim string `yaml:"user_id_claim" env:"JWT_USER_ID_CLAIM" env-default:"id"`
	NameClaim   string `yaml:"name_claim"    env:"JWT_NAME_CLAIM"    env-default:"nombre"`
	RoleClaim   string `yaml:"role_claim"    env:"JWT_ROLE_CLAIM"    env-default:"rol"`
}

// TimeoutConfig — общий дедлайн входящего запроса и таймаут вызова бэкенда.
type TimeoutConfig struct {
	Service time.Duration `yaml:"service" env:"SERVICE" env-default:"15s"`
	Backend time.Duration `yaml:"backend" env:"BACKEND_TIMEOUT" env-default:"10s"`
}

// MustLoad — паника при ошибке загрузки.
func MustLoad(path string) *Config {
	cfg, err := Load(path)

	if err != nil {
		panic(err)
	}

	return cfg
}

func Load(path string) (*Config, error) {
	var cfg Config

	tryRead := func(p string) (*Config, error) {
		if p == "" {
			return nil, fmt.Errorf("empty config path")
		}

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

	var (
		c   *Config
		err error
	)

	switch envPath := os.Getenv("CONFIG_PATH"); {
	// 1) --config
	case path != "":
		c, err = tryRead(path)
	// 2) CONFIG_PATH
	case envPath != "":
		c, err = tryRead(envPath)
	default:
		// 3) ./local.yaml
		if _, statErr := os.Stat("local.yaml"); statErr == nil {
			c, err = tryRead("local.yaml")
			break
		}

		// 4) только ENV
		if err = cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config not found: provide --config, CONFIG_PATH, local.yaml or env vars: %w", err)
		}
		c = &cfg
	}

	if err != nil {
		return nil, err
	}

	if err := c.validate(); err != nil {
		return nil, err
	}

	return c, nil
}

// validate — базовая валидация значений.
func (c *Config) validate() error {
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("backend.base_url must be an absolute URL")
	}

	switch c.Storage.Driver {
	case DriverSQLite:
		if c.Storage.SQLitePath == "" {
			return fmt.Errorf("storage.sqlite_path is required for sqlite driver")
		}
	case DriverRedis:
		if c.Storage.RedisURL == "" {
			return fmt.Errorf("storage.redis_url is required for redis driver")
		}
	case DriverPostgres:
		if c.Storage.PostgresURL == "" {
			return fmt.Errorf("storage.postgres_url is required for postgres driver")
		}
	case DriverMongo:
		if c.Storage.MongoURL == "" {
			return fmt.Errorf("storage.mongo_url is required for mongo driver")
		}
	default:
		return fmt.Errorf("storage.driver %q is not supported", c.Storage.Driver)
	}

	if c.Storage.TTL < 0 {
		return fmt.Errorf("storage.ttl must be >= 0")
	}

	if c.Comments.MaxDepth <= 0 {
		return fmt.Errorf("comments.max_depth must be > 0")
	}

	if c.Comments.MaxDepth > 32 {
		return fmt.Errorf("comments.max_depth is too large (<= 32)")
	}

	if c.Comments.MaxTextLen <= 0 || c.Comments.MaxTextLen > 2000 {
		return fmt.Errorf("comments.max_text_len must be in 1..2000")
	}

	if c.Comments.FetchTimeout <= 0 {
		return fmt.Errorf("comments.fetch_timeout must be > 0")
	}

	return nil
}
