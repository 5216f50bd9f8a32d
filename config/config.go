package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type ServerConfig struct {
	Address string `mapstructure:"address"`
	Mode    string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	File string `mapstructure:"file"`
}

type RedisConfig struct {
	Addr string `mapstructure:"addr"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

type AttachmentConfig struct {
	Dir           string `mapstructure:"dir"`
	BaseURL       string `mapstructure:"base_url"`
	SigningSecret string `mapstructure:"signing_secret"`
	URLTTLHours   int    `mapstructure:"url_ttl_hours"`
}

type Config struct {
	Server      ServerConfig     `mapstructure:"server"`
	Database    DatabaseConfig   `mapstructure:"database"`
	Redis       RedisConfig      `mapstructure:"redis"`
	JWT         JWTConfig        `mapstructure:"jwt"`
	Attachments AttachmentConfig `mapstructure:"attachments"`
}

// SignedURLTTL returns the lifetime of minted attachment URLs.
func (c Config) SignedURLTTL() time.Duration {
	return time.Duration(c.Attachments.URLTTLHours) * time.Hour
}

// Load reads configuration from the given file (defaults to config.yaml in the
// working directory) with SCHOOL_* environment overrides.
func Load(path string) (Config, error) {
	v := viper.New()

	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.file", "school.db")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("jwt.expire_hours", 24)
	v.SetDefault("attachments.dir", "uploads")
	v.SetDefault("attachments.base_url", "http://localhost:8080")
	v.SetDefault("attachments.url_ttl_hours", 4)

	if path == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("SCHOOL")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// a missing file is fine, defaults + env cover it
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}
