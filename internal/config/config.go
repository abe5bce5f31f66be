package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Host          string   `yaml:"host"`
		Port          int      `yaml:"port"`
		Env           string   `yaml:"env"`
		PublicSiteURL string   `yaml:"public_site_url"`
		CORSOrigins   []string `yaml:"cors_origins"`
	} `yaml:"server"`

	Database struct {
		DSN         string `yaml:"url"`
		AutoMigrate bool   `yaml:"auto_migrate"`
	} `yaml:"database"`

	JWT struct {
		Secret     string `yaml:"secret"`      // сессии клиентов и админов
		TTL        int    `yaml:"ttl"`         // минуты
		PrivateKey string `yaml:"private_key"` // JWT_PRIVATE_KEY, токены параметров комнат
	} `yaml:"jwt"`

	Flat struct {
		BaseURL         string `yaml:"base_url"`
		TimeoutSeconds  int    `yaml:"timeout_seconds"`
		ServiceEmail    string `yaml:"service_email"`
		ServicePassword string `yaml:"service_password"`
		ClientKeySalt   string `yaml:"client_key_salt"`
		Region          string `yaml:"region"`
	} `yaml:"flat"`

	Storage struct {
		Type            string `yaml:"type"` // local, s3
		BasePath        string `yaml:"base_path"`
		Bucket          string `yaml:"bucket"`
		Region          string `yaml:"region"`
		Folder          string `yaml:"folder"`
		AccessKey       string `yaml:"access_key"`
		SecretKey       string `yaml:"secret_key"`
		Endpoint        string `yaml:"endpoint"`
		PublicURLPrefix string `yaml:"public_url_prefix"`
	} `yaml:"storage"`

	Upload struct {
		MaxAvatarSize int64    `yaml:"max_avatar_size"`
		AllowedTypes  []string `yaml:"allowed_types"`
		AvatarMaxSide int      `yaml:"avatar_max_side"` // px
	} `yaml:"upload"`

	Redis struct {
		URL string `yaml:"url"` // пусто -> in-memory кэш
	} `yaml:"redis"`

	Email struct {
		SMTPHost     string `yaml:"smtp_host"`
		SMTPPort     int    `yaml:"smtp_port"`
		SMTPUsername string `yaml:"smtp_user"`
		SMTPPassword string `yaml:"smtp_password"`
		FromEmail    string `yaml:"from_email"`
		FromName     string `yaml:"from_name"`
		Enabled      bool   `yaml:"enabled"`
	} `yaml:"email"`

	RateLimit struct {
		AuthRPS   float64 `yaml:"auth_rps"`
		AuthBurst int     `yaml:"auth_burst"`
	} `yaml:"rate_limit"`

	Workers struct {
		SubscriptionIntervalMinutes int `yaml:"subscription_interval_minutes"`
	} `yaml:"workers"`

	FirstAdminEmail    string `yaml:"first_admin_email"`
	FirstAdminPassword string `yaml:"first_admin_password"`
}

var AppConfig *Config

// LoadConfig загружает конфигурацию в глобальный AppConfig.
func LoadConfig() {
	// .env не обязателен: в Docker переменные приходят из окружения
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config from %s: %v", configPath, err)
	}
	AppConfig = cfg
}

// Load читает yaml (если файл есть), применяет значения по умолчанию
// и переопределения из переменных окружения.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	f, err := os.Open(path)
	switch {
	case err == nil:
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
		log.Printf("Config file %s not found, using defaults and environment", path)
	default:
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}

	applyDefaults(cfg)
	applyEnv(cfg)

	if cfg.Database.DSN == "" {
		return nil, errors.New("database url is required (database.url or DATABASE_URL)")
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 4000
	}
	if cfg.Server.Env == "" {
		cfg.Server.Env = "production"
	}
	if cfg.JWT.TTL == 0 {
		cfg.JWT.TTL = 60 * 24
	}
	if cfg.Flat.TimeoutSeconds == 0 {
		cfg.Flat.TimeoutSeconds = 30
	}
	if cfg.Flat.Region == "" {
		cfg.Flat.Region = "cn-hz"
	}
	if cfg.Storage.Type == "" {
		cfg.Storage.Type = "local"
	}
	if cfg.Storage.BasePath == "" {
		cfg.Storage.BasePath = "./uploads"
	}
	if cfg.Upload.MaxAvatarSize == 0 {
		cfg.Upload.MaxAvatarSize = 5 * 1024 * 1024
	}
	if len(cfg.Upload.AllowedTypes) == 0 {
		cfg.Upload.AllowedTypes = []string{"image/jpeg", "image/png", "image/webp", "image/gif"}
	}
	if cfg.Upload.AvatarMaxSide == 0 {
		cfg.Upload.AvatarMaxSide = 512
	}
	if cfg.RateLimit.AuthRPS == 0 {
		cfg.RateLimit.AuthRPS = 1
	}
	if cfg.RateLimit.AuthBurst == 0 {
		cfg.RateLimit.AuthBurst = 5
	}
	if cfg.Workers.SubscriptionIntervalMinutes == 0 {
		cfg.Workers.SubscriptionIntervalMinutes = 60
	}
	if cfg.Email.SMTPPort == 0 {
		cfg.Email.SMTPPort = 587
	}
}

func applyEnv(cfg *Config) {
	setString(&cfg.Database.DSN, "DATABASE_URL")
	setString(&cfg.Server.Env, "SERVER_ENV")
	setString(&cfg.Server.PublicSiteURL, "NEXT_PUBLIC_SITE_URL")
	setString(&cfg.Server.PublicSiteURL, "PUBLIC_SITE_URL")
	if port, err := strconv.Atoi(os.Getenv("SERVER_PORT")); err == nil && port > 0 {
		cfg.Server.Port = port
	}

	setString(&cfg.JWT.Secret, "JWT_SECRET")
	setString(&cfg.JWT.PrivateKey, "JWT_PRIVATE_KEY")

	setString(&cfg.Flat.BaseURL, "FLAT_API_BASE_URL")
	setString(&cfg.Flat.ServiceEmail, "FLAT_SERVICE_EMAIL")
	setString(&cfg.Flat.ServicePassword, "FLAT_SERVICE_PASSWORD")
	setString(&cfg.Flat.ClientKeySalt, "CLIENT_KEY_SALT")

	setString(&cfg.Storage.AccessKey, "AWS_ACCESS_KEY_ID")
	setString(&cfg.Storage.SecretKey, "AWS_SECRET_ACCESS_KEY")
	setString(&cfg.Storage.Region, "AWS_REGION")
	setString(&cfg.Storage.Bucket, "AWS_S3_BUCKET")
	setString(&cfg.Storage.Folder, "AWS_S3_FOLDER")
	setString(&cfg.Storage.Endpoint, "AWS_S3_ENDPOINT")
	setString(&cfg.Storage.PublicURLPrefix, "S3_PUBLIC_URL_PREFIX")
	if cfg.Storage.Bucket != "" && os.Getenv("AWS_S3_BUCKET") != "" {
		cfg.Storage.Type = "s3"
	}

	setString(&cfg.Redis.URL, "REDIS_URL")

	setString(&cfg.Email.SMTPHost, "SMTP_HOST")
	setString(&cfg.Email.SMTPUsername, "SMTP_USER")
	setString(&cfg.Email.SMTPPassword, "SMTP_PASSWORD")
	setString(&cfg.Email.FromEmail, "SMTP_FROM")

	setString(&cfg.FirstAdminEmail, "FIRST_ADMIN_EMAIL")
	setString(&cfg.FirstAdminPassword, "FIRST_ADMIN_PASSWORD")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// IsDevelopment сообщает, запущено ли приложение в режиме разработки
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// SessionTTL возвращает время жизни сессионного JWT
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.JWT.TTL) * time.Minute
}

// FlatTimeout возвращает таймаут HTTP-клиента Flat
func (c *Config) FlatTimeout() time.Duration {
	return time.Duration(c.Flat.TimeoutSeconds) * time.Second
}

func GetConfig() *Config {
	if AppConfig == nil {
		LoadConfig()
	}
	return AppConfig
}
