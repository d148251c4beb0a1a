package subscribe

import (
	"os"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-subscribe/notifier"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileConfig is the YAML backed Config implementation. TTLs use
// time.ParseDuration patterns ("24h", "15m"); empty values fall back to the
// package defaults.
type FileConfig struct {
	BaseURL         string              `yaml:"base_url"`
	ConfirmationTTL string              `yaml:"confirmation_ttl"`
	MagicLinkTTL    string              `yaml:"magic_link_ttl"`
	SES             notifier.SESOptions `yaml:"ses"`
}

var _ Config = (*FileConfig)(nil)

// LoadConfig reads a YAML config file. A .env file, when present, is loaded
// first so secret overrides can come from the environment.
func LoadConfig(path string) (*FileConfig, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "failed to read config file")
	}

	cfg := &FileConfig{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "failed to parse config file")
	}

	if key := os.Getenv("SES_ACCESS_KEY"); key != "" {
		cfg.SES.AccessKey = key
	}
	if secret := os.Getenv("SES_SECRET_KEY"); secret != "" {
		cfg.SES.SecretKey = secret
	}

	if err := cfg.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid configuration")
	}

	return cfg, nil
}

// Validate will run validation rules
func (c *FileConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.BaseURL, validation.Required, is.URL),
	)
}

func (c *FileConfig) GetBaseURL() string {
	return c.BaseURL
}

func (c *FileConfig) GetConfirmationTTL() time.Duration {
	return parseTTL(c.ConfirmationTTL, ConfirmationTokenTTL)
}

func (c *FileConfig) GetMagicLinkTTL() time.Duration {
	return parseTTL(c.MagicLinkTTL, MagicLinkTokenTTL)
}

// GetSES returns the delivery options for notifier.NewSESDelivery
func (c *FileConfig) GetSES() notifier.SESOptions {
	return c.SES
}

func parseTTL(pattern string, def time.Duration) time.Duration {
	if pattern == "" {
		return def
	}

	ttl, err := time.ParseDuration(pattern)
	if err != nil || ttl <= 0 {
		return def
	}
	return ttl
}
