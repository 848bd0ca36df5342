package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"admin_console/internal/logger"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
		Env  string `yaml:"env"`
	} `yaml:"server"`

	Database struct {
		Driver string `yaml:"driver"` // postgres, sqlite
		DSN    string `yaml:"url"`
	} `yaml:"database"`

	JWT struct {
		Secret string `yaml:"secret"`
		TTL    int    `yaml:"ttl"` // минуты
	} `yaml:"jwt"`

	Storage struct {
		Type      string `yaml:"type"`       // local, s3, cloudflare_r2
		BasePath  string `yaml:"base_path"`  // For local storage
		Bucket    string `yaml:"bucket"`     // For S3/R2
		Region    string `yaml:"region"`     // For S3
		AccessKey string `yaml:"access_key"` // For S3/R2
		SecretKey string `yaml:"secret_key"` // For S3/R2
		Endpoint  string `yaml:"endpoint"`   // For R2 or custom S3
		AccountID string `yaml:"account_id"` // For R2
	} `yaml:"storage"`

	Upload UploadPolicy `yaml:"upload"`

	Realtime struct {
		LongPollTimeout time.Duration `yaml:"long_poll_timeout"`
		SendBuffer      int           `yaml:"send_buffer"`
		WriteWait       time.Duration `yaml:"write_wait"`
		PongWait        time.Duration `yaml:"pong_wait"`
		AllowedOrigins  []string      `yaml:"allowed_origins"`
	} `yaml:"realtime"`

	FirstAdmin struct {
		Email      string `yaml:"email"`
		Password   string `yaml:"password"`
		Name       string `yaml:"name"`
		Department string `yaml:"department"`
	} `yaml:"first_admin"`
}

// LoadConfig читает config.yaml (путь из CONFIG_PATH) либо, если задан DATABASE_URL,
// собирает конфиг только из переменных окружения.
func LoadConfig() (*Config, error) {
	var cfg Config

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		configPath := os.Getenv("CONFIG_PATH")
		if configPath == "" {
			configPath = "config/config.yaml"
		}
		logger.Info("Загрузка конфигурации из файла", "path", configPath)

		f, err := os.Open(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file at %s: %w", configPath, err)
		}
		defer f.Close()

		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file at %s: %w", configPath, err)
		}
	} else {
		logger.Info("Загрузка конфигурации из переменных окружения")
		fromEnv(&cfg, dbURL)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func fromEnv(cfg *Config, dbURL string) {
	cfg.Database.DSN = dbURL
	cfg.Database.Driver = os.Getenv("DATABASE_DRIVER")
	cfg.Server.Env = os.Getenv("SERVER_ENV")
	cfg.Server.Port, _ = strconv.Atoi(os.Getenv("SERVER_PORT"))
	cfg.JWT.Secret = os.Getenv("JWT_SECRET")

	cfg.Storage.Type = "local"
	cfg.Storage.BasePath = "./uploads"

	if v := os.Getenv("LONG_POLL_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Realtime.LongPollTimeout = d
		}
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		cfg.Realtime.AllowedOrigins = strings.Split(v, ",")
	}

	cfg.FirstAdmin.Email = os.Getenv("FIRST_ADMIN_EMAIL")
	cfg.FirstAdmin.Password = os.Getenv("FIRST_ADMIN_PASSWORD")
	cfg.FirstAdmin.Name = os.Getenv("FIRST_ADMIN_NAME")
	cfg.FirstAdmin.Department = os.Getenv("FIRST_ADMIN_DEPARTMENT")
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Env == "" {
		c.Server.Env = "development"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "postgres"
	}
	if c.JWT.TTL == 0 {
		c.JWT.TTL = 60
	}
	if c.Storage.Type == "" {
		c.Storage.Type = "local"
	}
	if c.Storage.Type == "local" && c.Storage.BasePath == "" {
		c.Storage.BasePath = "./uploads"
	}
	c.Upload.applyDefaults()

	if c.Realtime.LongPollTimeout <= 0 {
		c.Realtime.LongPollTimeout = 30 * time.Second
	}
	if c.Realtime.SendBuffer <= 0 {
		c.Realtime.SendBuffer = 64
	}
	if c.Realtime.WriteWait <= 0 {
		c.Realtime.WriteWait = 10 * time.Second
	}
	if c.Realtime.PongWait <= 0 {
		c.Realtime.PongWait = 60 * time.Second
	}
	if c.FirstAdmin.Department == "" {
		c.FirstAdmin.Department = "All"
	}
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database url is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt secret is required")
	}
	return nil
}

// IsDevelopment - режим разработки
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// Addr - адрес, который слушает HTTP-сервер
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
