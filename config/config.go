package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	LiveKit  LiveKitConfig  `yaml:"livekit"`
	Auth     AuthConfig     `yaml:"auth"`
	Logger   LoggerConfig   `yaml:"logger"`
	Meetings MeetingsConfig `yaml:"meetings"`
	Events   EventsConfig   `yaml:"events"`
}

type ServerConfig struct {
	Port           string   `yaml:"port"`
	Host           string   `yaml:"host"`
	ReadTimeout    int      `yaml:"readTimeout"`
	WriteTimeout   int      `yaml:"writeTimeout"`
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

type DatabaseConfig struct {
	Host         string `yaml:"host"`
	Port         string `yaml:"port"`
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
	DBName       string `yaml:"dbname"`
	SSLMode      string `yaml:"sslmode"`
	MaxIdleConns int    `yaml:"maxIdleConns"`
	MaxOpenConns int    `yaml:"maxOpenConns"`
	MaxLifetime  int    `yaml:"maxLifetime"` // in minutes
	LogQueries   bool   `yaml:"logQueries"`
}

type LiveKitConfig struct {
	URL       string `yaml:"url"`
	APIKey    string `yaml:"apiKey"`
	APISecret string `yaml:"apiSecret"`
	TokenTTL  int    `yaml:"tokenTTL"` // in minutes
}

// Configured reports whether every value needed to mint tokens is present.
func (c LiveKitConfig) Configured() bool {
	return c.URL != "" && c.APIKey != "" && c.APISecret != ""
}

// TokenValidity returns the lifetime of issued media tokens.
func (c LiveKitConfig) TokenValidity() time.Duration {
	return time.Duration(c.TokenTTL) * time.Minute
}

type AuthConfig struct {
	JWTSecret     string       `yaml:"jwtSecret"`
	TokenDuration int          `yaml:"tokenDuration"` // in hours
	Google        OAuth2Config `yaml:"google"`
	Github        OAuth2Config `yaml:"github"`
	Twitter       OAuth2Config `yaml:"twitter"`
	FrontendURL   string       `yaml:"frontendUrl"`
	SessionSecret string       `yaml:"sessionSecret"`
}

type OAuth2Config struct {
	ClientID     string `yaml:"clientId"`
	ClientSecret string `yaml:"clientSecret"`
	RedirectURL  string `yaml:"redirectUrl"`
}

// Enabled reports whether the provider has credentials
func (c OAuth2Config) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

type LoggerConfig struct {
	Level      string `yaml:"level"`
	OutputPath string `yaml:"outputPath"`
}

type MeetingsConfig struct {
	RoomCodeAttempts int `yaml:"roomCodeAttempts"`
}

// EventsConfig controls lifecycle event publishing. An empty NatsURL disables it.
type EventsConfig struct {
	NatsURL       string `yaml:"natsUrl"`
	SubjectPrefix string `yaml:"subjectPrefix"`
}

var (
	config  *Config
	loadErr error
	once    sync.Once
)

// Load reads the configuration file once and returns the parsed Config
func Load(configPath string) (*Config, error) {
	once.Do(func() {
		data, err := os.ReadFile(configPath)
		if err != nil {
			loadErr = fmt.Errorf("read config %s: %w", configPath, err)
			return
		}

		config, loadErr = Parse(data)
	})

	return config, loadErr
}

// Parse builds a Config from YAML, then applies environment overrides and defaults.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	return cfg, nil
}

// Get returns the loaded configuration
func Get() *Config {
	if config == nil {
		panic("Config not loaded")
	}
	return config
}

func (c *Config) applyEnv() {
	overrides := []struct {
		env string
		dst *string
	}{
		{"SERVER_PORT", &c.Server.Port},
		{"DB_HOST", &c.Database.Host},
		{"DB_PORT", &c.Database.Port},
		{"DB_USER", &c.Database.User},
		{"DB_PASSWORD", &c.Database.Password},
		{"DB_NAME", &c.Database.DBName},
		{"LIVEKIT_URL", &c.LiveKit.URL},
		{"LIVEKIT_API_KEY", &c.LiveKit.APIKey},
		{"LIVEKIT_API_SECRET", &c.LiveKit.APISecret},
		{"JWT_SECRET", &c.Auth.JWTSecret},
		{"SESSION_SECRET", &c.Auth.SessionSecret},
		{"AUTH_FRONTEND_URL", &c.Auth.FrontendURL},
		{"NATS_URL", &c.Events.NatsURL},
		{"GOOGLE_CLIENT_ID", &c.Auth.Google.ClientID},
		{"GOOGLE_CLIENT_SECRET", &c.Auth.Google.ClientSecret},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.env); v != "" {
			*o.dst = v
		}
	}

	if v := os.Getenv("ROOM_CODE_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Meetings.RoomCodeAttempts = n
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8090"
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.LiveKit.TokenTTL <= 0 {
		c.LiveKit.TokenTTL = 120
	}
	if c.Auth.TokenDuration <= 0 {
		c.Auth.TokenDuration = 24
	}
	if c.Logger.Level == "" {
		c.Logger.Level = "info"
	}
	if c.Meetings.RoomCodeAttempts <= 0 {
		c.Meetings.RoomCodeAttempts = 10
	}
	if c.Events.SubjectPrefix == "" {
		c.Events.SubjectPrefix = "huddle.meetings"
	}
}

// GetDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.Host,
		c.User,
		c.Password,
		c.DBName,
		c.Port,
		c.SSLMode,
	)
}
