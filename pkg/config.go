package pkg

import (
	"fmt"
	"time"

	env "github.com/Netflix/go-env"
	log "github.com/sirupsen/logrus"
)

type DuplicatePolicy string

const (
	// DuplicateReplace displaces the live session holding the username.
	DuplicateReplace DuplicatePolicy = "replace"
	// DuplicateRefuse turns away the newcomer.
	DuplicateRefuse DuplicatePolicy = "refuse"
)

type Config struct {
	ListenAddr      string        `env:"LISTEN_ADDR,default=127.0.0.1:8080"`
	HTTPAddr        string        `env:"HTTP_ADDR,default=127.0.0.1:8081"`
	CredentialsPath string        `env:"CREDENTIALS_PATH,default=credentials.json"`
	LogLevel        string        `env:"LOG_LEVEL,default=info"`
	DuplicateLogin  string        `env:"DUPLICATE_LOGIN,default=replace"`
	AuthAttempts    int           `env:"AUTH_ATTEMPTS,default=1"`
	ReadBufferSize  int           `env:"READ_BUFFER_SIZE,default=512"`
	MaxLineLength   int           `env:"MAX_LINE_LENGTH,default=1024"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT,default=10s"`
}

// DefaultConfig mirrors the env defaults for callers that skip the
// environment, such as tests.
func DefaultConfig() Config {
	return Config{
		ListenAddr:      "127.0.0.1:8080",
		HTTPAddr:        "127.0.0.1:8081",
		CredentialsPath: "credentials.json",
		LogLevel:        "info",
		DuplicateLogin:  string(DuplicateReplace),
		AuthAttempts:    1,
		ReadBufferSize:  512,
		MaxLineLength:   1024,
		WriteTimeout:    10 * time.Second,
	}
}

// LoadConfig reads the configuration from the process environment.
func LoadConfig() (Config, error) {
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}

	if err := config.Validate(); err != nil {
		return Config{}, err
	}

	return config, nil
}

func (c Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("LISTEN_ADDR must not be empty")
	}

	switch DuplicatePolicy(c.DuplicateLogin) {
	case DuplicateReplace, DuplicateRefuse:
	default:
		return fmt.Errorf(
			"DUPLICATE_LOGIN must be %q or %q, got %q",
			DuplicateReplace, DuplicateRefuse, c.DuplicateLogin)
	}

	if c.AuthAttempts < 1 {
		return fmt.Errorf("AUTH_ATTEMPTS must be at least 1, got %d", c.AuthAttempts)
	}

	if c.ReadBufferSize < 1 {
		return fmt.Errorf("READ_BUFFER_SIZE must be positive, got %d", c.ReadBufferSize)
	}

	if c.MaxLineLength < 16 {
		return fmt.Errorf("MAX_LINE_LENGTH must be at least 16, got %d", c.MaxLineLength)
	}

	if c.WriteTimeout < 0 {
		return fmt.Errorf("WRITE_TIMEOUT must not be negative, got %s", c.WriteTimeout)
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}

	return nil
}
