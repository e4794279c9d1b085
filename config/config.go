package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Prefix for every environment variable, e.g. AUTHPAGE_SIGNING_KEY
const Prefix = "AUTHPAGE"

type Config struct {
	Host            string        `envconfig:"HOST"             default:":8080"`
	DSN             string        `envconfig:"DSN"              default:"file:authpage.db?cache=shared"`
	SigningKey      string        `envconfig:"SIGNING_KEY"      required:"true"`
	TokenExpiration int           `envconfig:"TOKEN_EXPIRATION" default:"24"`
	Issuer          string        `envconfig:"ISSUER"           default:"go-authpage"`
	Audience        []string      `envconfig:"AUDIENCE"         default:"notes"`
	ContextKey      string        `envconfig:"CONTEXT_KEY"      default:"auth_token"`
	SubmitDelay     time.Duration `envconfig:"SUBMIT_DELAY"     default:"1s"`
	Debug           bool          `envconfig:"DEBUG"            default:"false"`
	LogLevel        string        `envconfig:"LOG_LEVEL"        default:"info"`
	BcryptCost      int           `envconfig:"BCRYPT_COST"      default:"14"`
	SecureCookie    bool          `envconfig:"SECURE_COOKIE"    default:"true"`
}

// NewConfig loads the configuration from the environment
func NewConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) GetSigningKey() string {
	return c.SigningKey
}

func (c *Config) GetContextKey() string {
	return c.ContextKey
}

// GetTokenExpiration is the session lifetime in hours
func (c *Config) GetTokenExpiration() int {
	return c.TokenExpiration
}

func (c *Config) GetIssuer() string {
	return c.Issuer
}

func (c *Config) GetAudience() []string {
	return c.Audience
}

func (c *Config) GetSubmitDelay() time.Duration {
	return c.SubmitDelay
}
