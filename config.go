package identity

import (
	"time"

	"github.com/caarlos0/env/v11"
	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"golang.org/x/crypto/bcrypt"
)

// Config holds the limits and windows every component is built with.
// Pass the same value to each constructor; nothing reads it from globals.
type Config struct {
	NameMaxLength     int `env:"IDENTITY_NAME_MAX_LENGTH" envDefault:"50"`
	EmailMaxLength    int `env:"IDENTITY_EMAIL_MAX_LENGTH" envDefault:"255"`
	PasswordMinLength int `env:"IDENTITY_PASSWORD_MIN_LENGTH" envDefault:"6"`
	// bcrypt ignores input past 72 bytes
	PasswordMaxLength int `env:"IDENTITY_PASSWORD_MAX_LENGTH" envDefault:"72"`

	// RememberMeValue is the form value that means "remember me".
	RememberMeValue        string   `env:"IDENTITY_REMEMBER_ME_VALUE" envDefault:"1"`
	RememberMeLegacyValues []string `env:"IDENTITY_REMEMBER_ME_LEGACY_VALUES" envDefault:"true,on,yes" envSeparator:","`

	ResetWindow time.Duration `env:"IDENTITY_RESET_WINDOW" envDefault:"2h"`
	// ActivationWindow of zero means activation links never expire.
	ActivationWindow time.Duration `env:"IDENTITY_ACTIVATION_WINDOW" envDefault:"0s"`

	HashCost  int  `env:"IDENTITY_HASH_COST" envDefault:"10"`
	UseHashid bool `env:"IDENTITY_USE_HASHID" envDefault:"false"`
}

// DefaultConfig returns the stock limits.
func DefaultConfig() Config {
	return Config{
		NameMaxLength:          50,
		EmailMaxLength:         255,
		PasswordMinLength:      6,
		PasswordMaxLength:      72,
		RememberMeValue:        "1",
		RememberMeLegacyValues: []string{"true", "on", "yes"},
		ResetWindow:            2 * time.Hour,
		ActivationWindow:       0,
		HashCost:               bcrypt.DefaultCost,
	}
}

// LoadConfigFromEnv overlays IDENTITY_* environment variables on the
// defaults and validates the result.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()
	if err := env.Parse(&cfg); err != nil {
		return cfg, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse identity configuration").
			WithTextCode(TextCodeInvalidConfiguration)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Validate checks that the limits are usable.
func (c Config) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.NameMaxLength, validation.Required, validation.Min(1)),
		validation.Field(&c.EmailMaxLength, validation.Required, validation.Min(6)),
		validation.Field(&c.PasswordMinLength, validation.Required, validation.Min(1)),
		validation.Field(&c.PasswordMaxLength, validation.Required, validation.Min(c.PasswordMinLength), validation.Max(72)),
		validation.Field(&c.RememberMeValue, validation.Required),
		validation.Field(&c.ResetWindow, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.ActivationWindow, validation.Min(time.Duration(0))),
		validation.Field(&c.HashCost, validation.Required, validation.Min(bcrypt.MinCost), validation.Max(bcrypt.MaxCost)),
	)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid identity configuration").
			WithTextCode(TextCodeInvalidConfiguration)
	}
	return nil
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.NameMaxLength <= 0 {
		c.NameMaxLength = def.NameMaxLength
	}
	if c.EmailMaxLength <= 0 {
		c.EmailMaxLength = def.EmailMaxLength
	}
	if c.PasswordMinLength <= 0 {
		c.PasswordMinLength = def.PasswordMinLength
	}
	if c.PasswordMaxLength <= 0 {
		c.PasswordMaxLength = def.PasswordMaxLength
	}
	if c.RememberMeValue == "" {
		c.RememberMeValue = def.RememberMeValue
	}
	if c.ResetWindow <= 0 {
		c.ResetWindow = def.ResetWindow
	}
	if c.HashCost == 0 {
		c.HashCost = def.HashCost
	}
	return c
}
