package billing

import (
	"errors"
	"strings"
	"time"
)

// Config holds billing settings. TrialDays is the trial length given to new
// customers; zero disables trials.
type Config struct {
	StripeSecretKey string        `env:"STRIPE_SECRET_KEY"`
	TrialDays       int           `env:"BILLING_TRIAL_DAYS" envDefault:"1"`
	DefaultCurrency string        `env:"BILLING_DEFAULT_CURRENCY" envDefault:"usd"`
	FrontendURL     string        `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`
	LockTimeout     time.Duration `env:"BILLING_LOCK_TIMEOUT" envDefault:"15s"`
}

func (c *Config) Validate() error {
	if c.TrialDays < 0 {
		return errors.New("BILLING_TRIAL_DAYS must not be negative")
	}
	if len(c.DefaultCurrency) != 3 {
		return errors.New("BILLING_DEFAULT_CURRENCY must be an ISO 4217 code")
	}
	c.DefaultCurrency = strings.ToLower(c.DefaultCurrency)
	c.FrontendURL = strings.TrimRight(c.FrontendURL, "/")
	return nil
}

func (c Config) checkoutSuccessURL() string { return c.FrontendURL + "/billing?success=true" }
func (c Config) checkoutCancelURL() string  { return c.FrontendURL + "/billing?canceled=true" }
func (c Config) portalReturnURL() string    { return c.FrontendURL + "/admin" }
