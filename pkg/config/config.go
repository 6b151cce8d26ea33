package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is empty; every field carries its full variable name.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App      AppConfig
	Checkout CheckoutConfig
	Stripe   StripeConfig
	Shopify  ShopifyConfig
	Redis    RedisConfig
	Webhook  WebhookConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Checkout.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"BRIDGE_APP_ENV" required:"true"`
	Port         string `envconfig:"BRIDGE_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"BRIDGE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BRIDGE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// CheckoutConfig is the storefront policy applied to every hosted session.
type CheckoutConfig struct {
	Currency              string   `envconfig:"BRIDGE_CURRENCY" default:"usd"`
	SuccessURL            string   `envconfig:"BRIDGE_SUCCESS_URL" required:"true"`
	CancelURL             string   `envconfig:"BRIDGE_CANCEL_URL" required:"true"`
	AllowedOrigins        []string `envconfig:"BRIDGE_ALLOWED_ORIGINS" default:"https://evermois.com,https://www.evermois.com"`
	ShippingCountries     []string `envconfig:"BRIDGE_SHIPPING_COUNTRIES" default:"US,CA,GB,AU,DE"`
	DefaultShippingRateID string   `envconfig:"BRIDGE_DEFAULT_SHIPPING_RATE_ID"`
	Locale                string   `envconfig:"BRIDGE_CHECKOUT_LOCALE" default:"en"`
	BillingCollection     string   `envconfig:"BRIDGE_BILLING_COLLECTION" default:"auto"`
	PaymentMethodTypes    []string `envconfig:"BRIDGE_PAYMENT_METHOD_TYPES" default:"card,afterpay_clearpay,link"`
	AutomaticTax          bool     `envconfig:"BRIDGE_AUTOMATIC_TAX" default:"true"`
}

// NormalizedCurrency returns the lowercase ISO currency code Stripe expects.
func (c CheckoutConfig) NormalizedCurrency() string {
	return strings.ToLower(strings.TrimSpace(c.Currency))
}

func (c CheckoutConfig) validate() error {
	if c.NormalizedCurrency() == "" {
		return fmt.Errorf("currency is required")
	}
	if len(c.ShippingCountries) == 0 {
		return fmt.Errorf("at least one shipping country is required")
	}
	return nil
}

type StripeConfig struct {
	APIKey        string `envconfig:"BRIDGE_STRIPE_API_KEY" required:"true"`
	WebhookSecret string `envconfig:"BRIDGE_STRIPE_WEBHOOK_SECRET" required:"true"`
	Env           string `envconfig:"BRIDGE_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type ShopifyConfig struct {
	StoreDomain string `envconfig:"BRIDGE_SHOPIFY_STORE_DOMAIN" required:"true"`
	AdminToken  string `envconfig:"BRIDGE_SHOPIFY_ADMIN_TOKEN" required:"true"`
	APIVersion  string `envconfig:"BRIDGE_SHOPIFY_API_VERSION" default:"2024-10"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BRIDGE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"BRIDGE_REDIS_ADDR"`
	Password     string        `envconfig:"BRIDGE_REDIS_PASSWORD"`
	DB           int           `envconfig:"BRIDGE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BRIDGE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BRIDGE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BRIDGE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BRIDGE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BRIDGE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// WebhookConfig tunes the delivery deduplication guard.
type WebhookConfig struct {
	EventGuardTTL time.Duration `envconfig:"BRIDGE_WEBHOOK_EVENT_GUARD_TTL" default:"72h"`
}
