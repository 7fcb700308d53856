// Package bidconfig loads the server configuration from defaults, an optional
// YAML file and PROXYBID_* environment variables, in increasing priority.
package bidconfig

import (
	"strings"
	"time"

	"github.com/evidenceledger/proxybid/internal/errl"
	"github.com/spf13/viper"
)

const EnvPrefix = "PROXYBID"

// Config is the full server configuration
type Config struct {
	Development   bool
	Port          string
	AdminPassword string

	DatabaseDriver string
	DatabaseDSN    string

	// RedisURL selects the Redis wizard store; empty keeps wizards in memory
	RedisURL  string
	WizardTTL time.Duration

	CourtBaseURL      string
	CourtCaseTimeout  time.Duration
	CourtImageTimeout time.Duration
	LookupCacheTTL    time.Duration

	AuthIssuer     string
	AuthAudience   string
	AuthHMACSecret string
	AuthJWKSURL    string

	SealSecret string

	PaymentServiceFee int64
	PaymentBank       string
	PaymentAccount    string
	PaymentHolder     string
	PaymentURL        string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("development", false)
	v.SetDefault("port", "8080")
	v.SetDefault("database_driver", "sqlite3")
	v.SetDefault("database_dsn", "./proxybid.db")
	v.SetDefault("wizard_ttl", "2h")
	v.SetDefault("court_base_url", "https://www.courtauction.go.kr")
	v.SetDefault("court_case_timeout", "8s")
	v.SetDefault("court_image_timeout", "5s")
	v.SetDefault("lookup_cache_ttl", "10m")
	v.SetDefault("payment_service_fee", 100000)
	v.SetDefault("payment_bank", "신한은행")
	v.SetDefault("payment_holder", "(주)프록시비드")
}

// Load reads the configuration. configFile may be empty.
func Load(configFile string, development bool) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errl.Errorf("reading config file %s: %w", configFile, err)
		}
	}

	cfg := &Config{
		Development:       development || v.GetBool("development"),
		Port:              v.GetString("port"),
		AdminPassword:     v.GetString("admin_password"),
		DatabaseDriver:    v.GetString("database_driver"),
		DatabaseDSN:       v.GetString("database_dsn"),
		RedisURL:          v.GetString("redis_url"),
		WizardTTL:         v.GetDuration("wizard_ttl"),
		CourtBaseURL:      v.GetString("court_base_url"),
		CourtCaseTimeout:  v.GetDuration("court_case_timeout"),
		CourtImageTimeout: v.GetDuration("court_image_timeout"),
		LookupCacheTTL:    v.GetDuration("lookup_cache_ttl"),
		AuthIssuer:        v.GetString("auth_issuer"),
		AuthAudience:      v.GetString("auth_audience"),
		AuthHMACSecret:    v.GetString("auth_hmac_secret"),
		AuthJWKSURL:       v.GetString("auth_jwks_url"),
		SealSecret:        v.GetString("seal_secret"),
		PaymentServiceFee: v.GetInt64("payment_service_fee"),
		PaymentBank:       v.GetString("payment_bank"),
		PaymentAccount:    v.GetString("payment_account"),
		PaymentHolder:     v.GetString("payment_holder"),
		PaymentURL:        v.GetString("payment_url"),
	}

	if cfg.Development {
		cfg.applyDevelopmentDefaults()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDevelopmentDefaults fills the secrets that production must set explicitly
func (c *Config) applyDevelopmentDefaults() {
	if c.AdminPassword == "" {
		c.AdminPassword = "pepe"
	}
	if c.AuthHMACSecret == "" && c.AuthJWKSURL == "" {
		c.AuthHMACSecret = "development-secret"
	}
	if c.SealSecret == "" {
		c.SealSecret = "development-seal-secret"
	}
	if c.PaymentAccount == "" {
		c.PaymentAccount = "100-000-000000"
	}
}

// Validate checks that the required settings are present
func (c *Config) Validate() error {
	if c.Port == "" {
		return errl.Errorf("port is required")
	}
	switch c.DatabaseDriver {
	case "sqlite3", "postgres":
	default:
		return errl.Errorf("unsupported database driver %q", c.DatabaseDriver)
	}
	if c.AdminPassword == "" {
		return errl.Errorf("admin password required. Set %s_ADMIN_PASSWORD", EnvPrefix)
	}
	if c.AuthHMACSecret == "" && c.AuthJWKSURL == "" {
		return errl.Errorf("token verification requires %s_AUTH_HMAC_SECRET or %s_AUTH_JWKS_URL", EnvPrefix, EnvPrefix)
	}
	if c.SealSecret == "" {
		return errl.Errorf("field encryption requires %s_SEAL_SECRET", EnvPrefix)
	}
	if c.CourtCaseTimeout <= 0 || c.CourtImageTimeout <= 0 {
		return errl.Errorf("court lookup timeouts must be positive")
	}
	return nil
}
