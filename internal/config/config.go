package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port         int           `yaml:"port"`
		ReadTimeout  time.Duration `yaml:"readTimeout"`
		WriteTimeout time.Duration `yaml:"writeTimeout"`
		IdleTimeout  time.Duration `yaml:"idleTimeout"`
	} `yaml:"server"`

	Inference struct {
		BaseURL   string        `yaml:"baseURL"`
		APIKey    string        `yaml:"apiKey"`
		Model     string        `yaml:"model"`
		MaxTokens int           `yaml:"maxTokens"`
		Timeout   time.Duration `yaml:"timeout"`
	} `yaml:"inference"`

	Upload struct {
		Dir      string `yaml:"dir"`
		MaxBytes int64  `yaml:"maxBytes"`
	} `yaml:"upload"`

	// History is optional; an empty driver disables it.
	History struct {
		Driver   string `yaml:"driver"` // mysql | postgres
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslMode"`
	} `yaml:"history"`

	Archive struct {
		Enabled    bool   `yaml:"enabled"`
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"archive"`

	Auth struct {
		// client name -> api key; empty map disables auth
		APIKeys map[string]string `yaml:"apiKeys"`
	} `yaml:"auth"`

	CORS struct {
		AllowedOrigins []string `yaml:"allowedOrigins"`
	} `yaml:"cors"`

	Log struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"log"`
}

// Load reads path (a missing file is fine), then applies env overrides and defaults.
func Load(path string) (*Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, err
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("INFERENCE_API_KEY"); v != "" {
		c.Inference.APIKey = v
	}
	if v := os.Getenv("INFERENCE_BASE_URL"); v != "" {
		c.Inference.BaseURL = v
	}
	if v := os.Getenv("INFERENCE_MODEL"); v != "" {
		c.Inference.Model = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Server.Port = p
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 5000
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Inference.Timeout == 0 {
		c.Inference.Timeout = 60 * time.Second
	}
	// the write deadline has to outlive the inference call
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = c.Inference.Timeout + 15*time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60 * time.Second
	}
	if c.Inference.BaseURL == "" {
		c.Inference.BaseURL = "https://api.a4f.co/v1"
	}
	if c.Inference.Model == "" {
		c.Inference.Model = "provider-3/gemini-2.5-flash-image-preview"
	}
	if c.Inference.MaxTokens == 0 {
		c.Inference.MaxTokens = 1000
	}
	if c.Upload.Dir == "" {
		c.Upload.Dir = "uploads"
	}
	if c.Upload.MaxBytes == 0 {
		c.Upload.MaxBytes = 10 << 20
	}
	if len(c.CORS.AllowedOrigins) == 0 {
		c.CORS.AllowedOrigins = []string{"*"}
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.History.SSLMode == "" {
		c.History.SSLMode = "disable"
	}
	if c.History.Port == 0 {
		switch c.History.Driver {
		case "mysql":
			c.History.Port = 3306
		case "postgres":
			c.History.Port = 5432
		}
	}
}

// Validate rejects combinations the service cannot start with.
func (c *Config) Validate() error {
	switch c.History.Driver {
	case "", "mysql", "postgres":
	default:
		return fmt.Errorf("history.driver must be mysql or postgres, got %q", c.History.Driver)
	}
	if c.Archive.Enabled && (c.Archive.Endpoint == "" || c.Archive.BucketName == "") {
		return fmt.Errorf("archive enabled but endpoint or bucketName missing")
	}
	if c.Upload.MaxBytes < 0 {
		return fmt.Errorf("upload.maxBytes must be positive")
	}
	return nil
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	h := c.History
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		h.User,
		h.Password,
		h.Host,
		h.Port,
		h.Name,
	)
}

// PostgresDSN builds a lib/pq connection string.
func (c *Config) PostgresDSN() string {
	h := c.History
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		h.Host, h.Port, h.User, h.Password, h.Name, h.SSLMode)
}
