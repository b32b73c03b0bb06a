package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type Config struct {
	Environment string         `json:"environment"`
	Server      ServerConfig   `json:"server"`
	Database    DatabaseConfig `json:"database"`
	Redis       RedisConfig    `json:"redis"`
	AWS         AWSConfig      `json:"aws"`
	PayPal      PayPalConfig   `json:"paypal"`
	Email       EmailConfig    `json:"email"`
	Delivery    DeliveryConfig `json:"delivery"`
	Security    SecurityConfig `json:"security"`
}

type ServerConfig struct {
	Port         string        `json:"port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout"`
}

type DatabaseConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	User         string        `json:"user"`
	Password     string        `json:"password"`
	DBName       string        `json:"dbname"`
	SSLMode      string        `json:"sslmode"`
	MaxOpenConns int           `json:"max_open_conns"`
	MaxIdleConns int           `json:"max_idle_conns"`
	MaxLifetime  time.Duration `json:"max_lifetime"`
}

type RedisConfig struct {
	Host     string        `json:"host"`
	Port     int           `json:"port"`
	Password string        `json:"password"`
	DB       int           `json:"db"`
	TTL      time.Duration `json:"ttl"`
}

type AWSConfig struct {
	Region    string `json:"region"`
	Bucket    string `json:"bucket"`
	SSMPrefix string `json:"ssm_prefix"`
}

type PayPalConfig struct {
	APIBase string `json:"api_base"`
}

type EmailConfig struct {
	Sender string `json:"sender"`
}

type DeliveryConfig struct {
	LinkTTL        time.Duration `json:"link_ttl"`
	EventRetention time.Duration `json:"event_retention"`
	SweepInterval  time.Duration `json:"sweep_interval"`
}

type SecurityConfig struct {
	RateLimitEnabled bool    `json:"rate_limit_enabled"`
	RateLimitRPS     float64 `json:"rate_limit_rps"`
	RateLimitBurst   int     `json:"rate_limit_burst"`
}

func LoadConfig() (*Config, error) {
	config := &Config{}

	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "development"
	}
	config.Environment = env

	configDir, err := filepath.Abs("config")
	if err != nil {
		return nil, err
	}

	configPath := filepath.Join(configDir, "config.json")

	if _, err := os.Stat(configPath); err == nil {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %v", err)
		}

		if err := json.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %v", err)
		}
	}

	config.loadFromEnv()
	config.setEnvironmentDefaults()

	return config, nil
}

func (c *Config) loadFromEnv() {
	if host := os.Getenv("DB_HOST"); host != "" {
		c.Database.Host = host
	}
	if port := os.Getenv("DB_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Database.Port = p
		}
	}
	if user := os.Getenv("DB_USER"); user != "" {
		c.Database.User = user
	}
	if password := os.Getenv("DB_PASSWORD"); password != "" {
		c.Database.Password = password
	}
	if dbname := os.Getenv("DB_NAME"); dbname != "" {
		c.Database.DBName = dbname
	}
	if sslmode := os.Getenv("DB_SSLMODE"); sslmode != "" {
		c.Database.SSLMode = sslmode
	}

	if host := os.Getenv("REDIS_HOST"); host != "" {
		c.Redis.Host = host
	}
	if port := os.Getenv("REDIS_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Redis.Port = p
		}
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		c.Redis.Password = password
	}

	if region := os.Getenv("AWS_REGION"); region != "" {
		c.AWS.Region = region
	}
	if bucket := os.Getenv("ALBUM_BUCKET"); bucket != "" {
		c.AWS.Bucket = bucket
	}
	if prefix := os.Getenv("SSM_PREFIX"); prefix != "" {
		c.AWS.SSMPrefix = prefix
	}

	if apiBase := os.Getenv("PAYPAL_API_BASE"); apiBase != "" {
		c.PayPal.APIBase = apiBase
	}

	if sender := os.Getenv("EMAIL_SENDER"); sender != "" {
		c.Email.Sender = sender
	}

	if serverPort := os.Getenv("SERVER_PORT"); serverPort != "" {
		c.Server.Port = serverPort
	}

	if ttl := os.Getenv("LINK_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil {
			c.Delivery.LinkTTL = d
		}
	}
	if retention := os.Getenv("EVENT_RETENTION"); retention != "" {
		if d, err := time.ParseDuration(retention); err == nil {
			c.Delivery.EventRetention = d
		}
	}
}

func (c *Config) setEnvironmentDefaults() {
	switch c.Environment {
	case "production":
		c.setProductionDefaults()
	default: // development
		c.setDevelopmentDefaults()
	}
	c.setCommonDefaults()
}

func (c *Config) setCommonDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		// Packaging a large album happens inside the request, so the write
		// window has to cover the whole upload.
		c.Server.WriteTimeout = 5 * time.Minute
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60 * time.Second
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.AWS.Region == "" {
		c.AWS.Region = "us-east-1"
	}
	if c.AWS.SSMPrefix == "" {
		c.AWS.SSMPrefix = "/album-relay"
	}
	if c.PayPal.APIBase == "" {
		c.PayPal.APIBase = "https://api-m.paypal.com"
	}
	if c.Delivery.LinkTTL == 0 {
		c.Delivery.LinkTTL = time.Hour
	}
	if c.Delivery.SweepInterval == 0 {
		c.Delivery.SweepInterval = time.Hour
	}
}

func (c *Config) setDevelopmentDefaults() {
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 20
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Redis.TTL == 0 {
		c.Redis.TTL = time.Hour
	}
	if c.Security.RateLimitRPS == 0 {
		c.Security.RateLimitRPS = 100.0
	}
	if c.Security.RateLimitBurst == 0 {
		c.Security.RateLimitBurst = 200
	}
	if c.PayPal.APIBase == "" {
		c.PayPal.APIBase = "https://api-m.sandbox.paypal.com"
	}
}

func (c *Config) setProductionDefaults() {
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 100
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 10
	}
	if c.Database.MaxLifetime == 0 {
		c.Database.MaxLifetime = time.Hour
	}
	if c.Redis.TTL == 0 {
		c.Redis.TTL = 24 * time.Hour
	}
	if c.Security.RateLimitRPS == 0 {
		c.Security.RateLimitRPS = 50.0
	}
	if c.Security.RateLimitBurst == 0 {
		c.Security.RateLimitBurst = 100
	}
}

func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.Port == 0 {
		return fmt.Errorf("database port is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	if c.Database.DBName == "" {
		return fmt.Errorf("database name is required")
	}
	if c.AWS.Bucket == "" {
		return fmt.Errorf("album bucket is required")
	}
	if c.Email.Sender == "" {
		return fmt.Errorf("email sender address is required")
	}
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	return nil
}

func (c *Config) GetDatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
		c.Database.SSLMode,
	)
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
