package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const EnvPrefix = "MEX_APP"

type Config struct {
	Server    ServerConfig
	CORS      CORSConfig
	Log       LogConfig
	Mastering MasteringConfig
	Batch     BatchConfig
}

type ServerConfig struct {
	Port string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

type MasteringConfig struct {
	BaseURL       string
	Timeout       time.Duration
	ShuffleSecret string
	DumpRequests  bool
}

type BatchConfig struct {
	MaxConcurrency int
}

// Load reads an optional .env file, then config.yaml from ./config or the
// working directory, then MEX_APP_* environment variables. A missing config
// file is not an error. The returned bool reports whether a file was found.
func Load(paths ...string) (*Config, bool, error) {
	// .env is optional.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{"./config", "."}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	found := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, false, fmt.Errorf("read config file: %w", err)
		}
		found = false
	}

	cfg := &Config{
		Server: ServerConfig{Port: v.GetString("server.port")},
		CORS:   CORSConfig{AllowedOrigins: v.GetStringSlice("cors.allowed_origins")},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		Mastering: MasteringConfig{
			BaseURL:       strings.TrimRight(v.GetString("mastering.base_url"), "/"),
			Timeout:       time.Duration(v.GetInt("mastering.timeout_seconds")) * time.Second,
			ShuffleSecret: v.GetString("mastering.shuffle_secret"),
			DumpRequests:  v.GetBool("mastering.dump_requests"),
		},
		Batch: BatchConfig{MaxConcurrency: v.GetInt("batch.max_concurrency")},
	}
	if cfg.Batch.MaxConcurrency < 1 {
		cfg.Batch.MaxConcurrency = 1
	}
	return cfg, found, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", ":8080")
	v.SetDefault("cors.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("mastering.base_url", "http://localhost:8090")
	v.SetDefault("mastering.timeout_seconds", 60)
	v.SetDefault("mastering.shuffle_secret", "")
	v.SetDefault("mastering.dump_requests", false)
	v.SetDefault("batch.max_concurrency", 4)
}
