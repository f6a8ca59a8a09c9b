// Package config holds the environment driven defaults of fixturekit.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"go.llib.dev/frameless/pkg/env"
	"go.llib.dev/frameless/pkg/errorkit"
	"go.llib.dev/frameless/pkg/logging"
)

const ErrInvalidConfig errorkit.Error = "invalid fixturekit configuration"

// EnvFileKey names an optional .env file which is loaded before the configuration is read.
// Values already present in the process environment are not overridden.
const EnvFileKey = "FIXTUREKIT_ENV_FILE"

type Config struct {
	LogLevel string `env:"FIXTUREKIT_LOG_LEVEL" default:"info"`

	HTTPMock HTTPMock
}

type HTTPMock struct {
	// DefaultBody is the response body when a canned response is configured without one.
	DefaultBody string `env:"FIXTUREKIT_HTTPMOCK_BODY" default:""`
	// DefaultContentType goes together with DefaultBody.
	DefaultContentType string `env:"FIXTUREKIT_HTTPMOCK_CONTENT_TYPE" default:"text/plain"`
}

func Default() Config {
	return Config{
		LogLevel: logging.LevelInfo.String(),
		HTTPMock: HTTPMock{
			DefaultBody:        "",
			DefaultContentType: "text/plain",
		},
	}
}

// Load reads the configuration from the environment.
// The given .env files are loaded first, without overriding the existing environment.
func Load(envFiles ...string) (Config, error) {
	if 0 < len(envFiles) {
		if err := godotenv.Load(envFiles...); err != nil {
			return Config{}, ErrInvalidConfig.Wrap(err)
		}
	}
	cfg := Default()
	if err := env.Load(&cfg); err != nil {
		return Config{}, ErrInvalidConfig.Wrap(err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (cfg Config) Validate() error {
	switch logging.Level(cfg.LogLevel) {
	case logging.LevelDebug, logging.LevelInfo, logging.LevelWarn, logging.LevelError, logging.LevelFatal:
		return nil
	default:
		return ErrInvalidConfig.F("unknown log level: %q", cfg.LogLevel)
	}
}

func (cfg Config) Level() logging.Level { return logging.Level(cfg.LogLevel) }

// Current reads the configuration of the process,
// including the .env file named by FIXTUREKIT_ENV_FILE.
// On a load error the defaults are returned alongside the error.
func Current() (Config, error) {
	var files []string
	if path, ok := os.LookupEnv(EnvFileKey); ok && path != "" {
		files = append(files, path)
	}
	cfg, err := Load(files...)
	if err != nil {
		return Default(), fmt.Errorf("falling back to defaults: %w", err)
	}
	return cfg, nil
}
