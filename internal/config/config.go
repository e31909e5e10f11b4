package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	MongoDB  MongoDBConfig  `yaml:"mongodb"`
	Gemini   GeminiConfig   `yaml:"gemini"`
	AWS      AWSConfig      `yaml:"aws"`
	Auth     AuthConfig     `yaml:"auth"`
	Pair     PairConfig     `yaml:"pair"`
	Presence PresenceConfig `yaml:"presence"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// MQTTConfig holds MQTT broker configuration
type MQTTConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	Username       string `yaml:"username"`
	Password       string `yaml:"password"`
	ClientIDPrefix string `yaml:"client_id_prefix"`
}

// MongoDBConfig holds document store configuration
type MongoDBConfig struct {
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

// GeminiConfig holds the mood classifier configuration
type GeminiConfig struct {
	APIKey         string `yaml:"api_key"`
	Model          string `yaml:"model"`
	BaseURL        string `yaml:"base_url"` // overridable for tests
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// AWSConfig holds S3 audio archive configuration; archiving is
// disabled when s3_bucket is empty
type AWSConfig struct {
	Region    string `yaml:"region"`
	S3Bucket  string `yaml:"s3_bucket"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Endpoint  string `yaml:"endpoint"`
}

// AuthConfig holds device token configuration; auth is disabled
// when secret is empty
type AuthConfig struct {
	Secret string `yaml:"secret"`
}

// PairConfig holds the pair bootstrapped at startup
type PairConfig struct {
	ID string `yaml:"id"`
}

// PresenceConfig holds staleness sweep configuration
type PresenceConfig struct {
	OfflineAfterSeconds  int `yaml:"offline_after_seconds"`
	SweepIntervalSeconds int `yaml:"sweep_interval_seconds"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 3000
	}
	if c.MQTT.Port == 0 {
		c.MQTT.Port = 1883
	}
	if c.MQTT.ClientIDPrefix == "" {
		c.MQTT.ClientIDPrefix = "bondbot-backend"
	}
	if c.MongoDB.Database == "" {
		c.MongoDB.Database = "couple_companion"
	}
	if c.MongoDB.Collection == "" {
		c.MongoDB.Collection = "pair_state"
	}
	if c.Gemini.Model == "" {
		c.Gemini.Model = "gemini-2.0-flash"
	}
	if c.Gemini.BaseURL == "" {
		c.Gemini.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if c.Gemini.TimeoutSeconds == 0 {
		c.Gemini.TimeoutSeconds = 30
	}
	if c.Pair.ID == "" {
		c.Pair.ID = "pair01"
	}
	if c.Presence.OfflineAfterSeconds == 0 {
		c.Presence.OfflineAfterSeconds = 300
	}
	if c.Presence.SweepIntervalSeconds == 0 {
		c.Presence.SweepIntervalSeconds = 60
	}
}

// BrokerURL returns the MQTT broker connection string
func (c *MQTTConfig) BrokerURL() string {
	return fmt.Sprintf("tcp://%s:%d", c.Host, c.Port)
}
