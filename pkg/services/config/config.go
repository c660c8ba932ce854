package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/de-tools/alm-console/pkg/models/domain"
	"github.com/spf13/viper"
)

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, s.Port)
}

type BackendConfig struct {
	URL   string `mapstructure:"url"`
	Token string `mapstructure:"token"`
}

type AcquisitionConfig struct {
	Mode           domain.AcquisitionMode `mapstructure:"mode"`
	AnalyzeTimeout time.Duration          `mapstructure:"analyze_timeout"`
	UploadTimeout  time.Duration          `mapstructure:"upload_timeout"`
}

type DelaysConfig struct {
	Context   time.Duration `mapstructure:"context"`
	Fallback  time.Duration `mapstructure:"fallback"`
	NoContext time.Duration `mapstructure:"no_context"`
}

type StoreConfig struct {
	Bucket  string `mapstructure:"bucket"`
	Prefix  string `mapstructure:"prefix"`
	Region  string `mapstructure:"region"`
	Profile string `mapstructure:"profile"`
}

type SessionConfig struct {
	TTL           time.Duration `mapstructure:"ttl"`
	EvictInterval time.Duration `mapstructure:"evict_interval"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Backend     BackendConfig     `mapstructure:"backend"`
	Acquisition AcquisitionConfig `mapstructure:"acquisition"`
	Delays      DelaysConfig      `mapstructure:"delays"`
	Store       StoreConfig       `mapstructure:"store"`
	Session     SessionConfig     `mapstructure:"session"`
	Log         LogConfig         `mapstructure:"log"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("backend.url", "http://127.0.0.1:8000")
	v.SetDefault("backend.token", "")

	v.SetDefault("acquisition.mode", string(domain.ModeUpload))
	v.SetDefault("acquisition.analyze_timeout", 600*time.Second)
	v.SetDefault("acquisition.upload_timeout", 30*time.Minute)

	v.SetDefault("delays.context", time.Second)
	v.SetDefault("delays.fallback", time.Second)
	v.SetDefault("delays.no_context", 3*time.Second)

	v.SetDefault("store.bucket", "")
	v.SetDefault("store.prefix", "")
	v.SetDefault("store.region", "")
	v.SetDefault("store.profile", "")

	v.SetDefault("session.ttl", 8*time.Hour)
	v.SetDefault("session.evict_interval", 10*time.Minute)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
}

// Load reads defaults, then the optional file at path, then ALM_* environment
// variables. SERVER_HOST and SERVER_PORT are honoured as well.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("ALM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("server.host", "ALM_SERVER_HOST", "SERVER_HOST")
	_ = v.BindEnv("server.port", "ALM_SERVER_PORT", "SERVER_PORT")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if !c.Acquisition.Mode.Valid() {
		errs = append(errs, fmt.Errorf("acquisition.mode must be %q or %q, got %q",
			domain.ModeUpload, domain.ModeDate, c.Acquisition.Mode))
	}
	if c.Backend.URL == "" {
		errs = append(errs, errors.New("backend.url is required"))
	}
	if _, err := strconv.Atoi(c.Server.Port); err != nil {
		errs = append(errs, fmt.Errorf("server.port must be numeric, got %q", c.Server.Port))
	}
	return errors.Join(errs...)
}
