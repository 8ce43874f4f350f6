// Package config loads the settings of the passage service from a
// passage.yaml file and PASSAGE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/go-passage/passage"
)

// EnvPrefix prefixes every environment variable, e.g. PASSAGE_APP_ID.
const EnvPrefix = "PASSAGE"

// FileName is the base name of the config file searched for by Load.
const FileName = "passage"

const redacted = "***REDACTED***"

// Config holds the service configuration.
type Config struct {
	AppID        string `mapstructure:"app_id" yaml:"app_id" validate:"required"`
	APIKey       string `mapstructure:"api_key" yaml:"api_key" secret:"true"`
	AuthStrategy string `mapstructure:"auth_strategy" yaml:"auth_strategy" default:"COOKIE" validate:"oneof=HEADER COOKIE"`

	AuthURL string `mapstructure:"auth_url" yaml:"auth_url" default:"https://auth.passage.id/v1/apps/" validate:"required,url"`
	APIURL  string `mapstructure:"api_url" yaml:"api_url" default:"https://api.passage.id/v1/apps/" validate:"required,url"`

	// JWKS cache
	JWKSExpiry    time.Duration `mapstructure:"jwks_expiry" yaml:"jwks_expiry" validate:"min=0"`
	FetchTimeout  time.Duration `mapstructure:"fetch_timeout" yaml:"fetch_timeout" default:"10s" validate:"gt=0"`
	MissRateLimit float64       `mapstructure:"miss_rate_limit" yaml:"miss_rate_limit" default:"10" validate:"gt=0"`
	MissRateBurst int           `mapstructure:"miss_rate_burst" yaml:"miss_rate_burst" default:"10" validate:"min=1"`
	RedisURL      string        `mapstructure:"redis_url" yaml:"redis_url" secret:"true" validate:"omitempty,url"`
	// DiscoveryURL, when set, is an OpenID issuer whose discovery document
	// names the JWKS URL instead of AuthURL.
	DiscoveryURL string `mapstructure:"discovery_url" yaml:"discovery_url" validate:"omitempty,url"`

	ListenAddr string `mapstructure:"listen_addr" yaml:"listen_addr" default:":8080" validate:"required"`
	LogLevel   string `mapstructure:"log_level" yaml:"log_level" default:"info" validate:"oneof=debug info warn error"`
}

// Default returns a Config with every default applied and nothing loaded.
func Default() (*Config, error) {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("failed to set config defaults: %w", err)
	}
	return cfg, nil
}

// Load reads the configuration. Each path is either a .yaml/.yml file, which
// must exist, or a directory searched for passage.yaml. Without paths the
// working directory and ./config are searched. A missing passage.yaml is not
// an error; environment variables override file values.
func Load(paths ...string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	v.SetConfigType("yaml")

	explicit := false
	if len(paths) == 0 {
		paths = []string{".", "./config"}
	}
	for _, path := range paths {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			v.SetConfigFile(path)
			explicit = true
		default:
			v.AddConfigPath(path)
		}
	}
	if !explicit {
		v.SetConfigName(FileName)
	}

	for _, key := range keys() {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.AuthStrategy = strings.ToUpper(strings.TrimSpace(cfg.AuthStrategy))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// Strategy returns the parsed auth strategy.
func (c *Config) Strategy() (passage.AuthStrategy, error) {
	return passage.ParseAuthStrategy(c.AuthStrategy)
}

// String returns the config with secret fields redacted.
func (c *Config) String() string {
	v := reflect.ValueOf(*c)
	t := v.Type()

	var sb strings.Builder
	sb.WriteString("Config{")
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		value := fmt.Sprintf("%v", v.Field(i).Interface())
		if field.Tag.Get("secret") == "true" && value != "" {
			value = redacted
		}
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(field.Name + ": " + value)
	}
	sb.WriteString("}")
	return sb.String()
}

// keys returns the mapstructure key of every field.
func keys() []string {
	t := reflect.TypeOf(Config{})
	out := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		if key := t.Field(i).Tag.Get("mapstructure"); key != "" {
			out = append(out, key)
		}
	}
	return out
}
