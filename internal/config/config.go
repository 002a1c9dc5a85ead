package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/bryanwahyu/auditor-console/internal/markup"
)

const (
	DefaultAPIURL      = "http://localhost:8000"
	DefaultPort        = 8080
	DefaultMaxUploadMB = 10
	DefaultDriver      = "memory"
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "text"
)

type Config struct {
	Analysis struct {
		APIURL  string        `yaml:"apiURL"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"analysis"`

	Server struct {
		Port        int `yaml:"port"`
		MaxUploadMB int `yaml:"maxUploadMB"`
	} `yaml:"server"`

	Report struct {
		Trust string `yaml:"trust"`
	} `yaml:"report"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`

	Storage struct {
		Driver string `yaml:"driver"`
	} `yaml:"storage"`

	Database struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslMode"`
	} `yaml:"database"`

	Minio struct {
		Enabled    bool   `yaml:"enabled"`
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	CORS struct {
		AllowedOrigins []string `yaml:"allowedOrigins"`
	} `yaml:"cors"`

	RateLimit struct {
		Capacity        int `yaml:"capacity"`
		RefillPerSecond int `yaml:"refillPerSecond"`
	} `yaml:"rateLimit"`
}

// Load reads .env (if any), the YAML file at path (if any), then applies
// environment overrides and defaults. The result is validated.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, err
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.Analysis.APIURL, "API_URL")
	setDuration(&c.Analysis.Timeout, "ANALYSIS_TIMEOUT")
	setInt(&c.Server.Port, "PORT")
	setInt(&c.Server.MaxUploadMB, "MAX_UPLOAD_MB")
	setString(&c.Report.Trust, "REPORT_TRUST")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.Format, "LOG_FORMAT")
	setString(&c.Storage.Driver, "STORAGE_DRIVER")
	setString(&c.Database.Host, "DB_HOST")
	setInt(&c.Database.Port, "DB_PORT")
	setString(&c.Database.User, "DB_USER")
	setString(&c.Database.Password, "DB_PASSWORD")
	setString(&c.Database.Name, "DB_NAME")
	setString(&c.Minio.Endpoint, "MINIO_ENDPOINT")
	setString(&c.Minio.AccessKey, "MINIO_ACCESS_KEY")
	setString(&c.Minio.SecretKey, "MINIO_SECRET_KEY")
	setString(&c.Minio.BucketName, "MINIO_BUCKET")
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		c.CORS.AllowedOrigins = splitList(v)
	}
}

func (c *Config) applyDefaults() {
	if c.Analysis.APIURL == "" {
		c.Analysis.APIURL = DefaultAPIURL
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.MaxUploadMB <= 0 {
		c.Server.MaxUploadMB = DefaultMaxUploadMB
	}
	if c.Report.Trust == "" {
		c.Report.Trust = string(markup.DefaultPolicy)
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = DefaultDriver
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.RateLimit.Capacity <= 0 {
		c.RateLimit.Capacity = 10
	}
	if c.RateLimit.RefillPerSecond <= 0 {
		c.RateLimit.RefillPerSecond = 1
	}
	if len(c.CORS.AllowedOrigins) == 0 {
		c.CORS.AllowedOrigins = []string{"*"}
	}
}

// Validate checks the values the console cannot start without.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Analysis.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("analysis.apiURL must be an absolute http(s) URL, got %q", c.Analysis.APIURL)
	}
	if _, err := markup.ParsePolicy(c.Report.Trust); err != nil {
		return err
	}
	switch c.Storage.Driver {
	case "memory", "mysql", "postgres":
	default:
		return fmt.Errorf("unknown storage.driver %q (allowed: memory, mysql, postgres)", c.Storage.Driver)
	}
	if c.Analysis.Timeout < 0 {
		return fmt.Errorf("analysis.timeout cannot be negative")
	}
	if c.Minio.Enabled && (c.Minio.Endpoint == "" || c.Minio.BucketName == "") {
		return fmt.Errorf("minio.endpoint and minio.bucketName are required when minio is enabled")
	}
	return nil
}

// Addr is the listen address for the web console.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

// MaxUploadBytes is the multipart body limit.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Server.MaxUploadMB) << 20
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
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

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
