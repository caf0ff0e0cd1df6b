package config

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port               string `envconfig:"PORT" default:"8080"`
	Environment        string `envconfig:"ENV" default:"development"`
	DBConnectionString string `envconfig:"DB_CONNECTION_STRING" required:"true"`
	JWTSecret          string `envconfig:"JWT_SECRET" required:"true"`

	S3URL       string `envconfig:"S3_URL" required:"true"`
	S3Bucket    string `envconfig:"S3_BUCKET" required:"true"`
	S3Region    string `envconfig:"S3_REGION" required:"true"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY" required:"true"`
	S3SecretKey string `envconfig:"S3_SECRET_KEY" required:"true"`

	// Stripe settings. The *_SECRET_NAME variants point at Secret Manager
	// entries and take precedence over the inline values when set.
	StripeSecretKey         string `envconfig:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret     string `envconfig:"STRIPE_WEBHOOK_SECRET"`
	StripeSecretKeyName     string `envconfig:"STRIPE_SECRET_KEY_SECRET_NAME"`
	StripeWebhookSecretName string `envconfig:"STRIPE_WEBHOOK_SECRET_SECRET_NAME"`
	StripePriceMonthly      string `envconfig:"STRIPE_PRICE_MONTHLY"`
	StripePriceAnnual       string `envconfig:"STRIPE_PRICE_ANNUAL"`
	StripeCheckoutReturnURL string `envconfig:"STRIPE_CHECKOUT_RETURN_URL" default:"https://app.dreamtales.example/billing"`

	// Credit packages purchasable through Checkout: package id -> credits
	// granted, and package id -> Stripe price id.
	CreditPackages      map[string]int    `envconfig:"CREDIT_PACKAGES" default:"starter:10,family:25"`
	CreditPackagePrices map[string]string `envconfig:"CREDIT_PACKAGE_PRICES"`

	// Hero creation gating.
	HeroCreditCost       int `envconfig:"HERO_CREDIT_COST" default:"2"`
	CreationWindowDays   int `envconfig:"CREATION_WINDOW_DAYS" default:"7"`
	CreationMaxPerWindow int `envconfig:"CREATION_MAX_PER_WINDOW" default:"7"`

	// Signed URL lifetime for private images.
	SignedURLTTLMinutes int `envconfig:"SIGNED_URL_TTL_MINUTES" default:"360"`

	// Reminder opt-out tokens.
	ReminderTokenTTLHours int `envconfig:"REMINDER_TOKEN_TTL_HOURS" default:"720"`

	// Page generation job queue. When GCP_PROJECT_ID is empty the story
	// service falls back to in-process generation.
	GCPProjectID                  string `envconfig:"GCP_PROJECT_ID"`
	PageJobsTopic                 string `envconfig:"PAGE_JOBS_TOPIC" default:"page_generation_jobs"`
	PubSubEmulatorHost            string `envconfig:"PUBSUB_EMULATOR_HOST"`
	PubSubPushAudience            string `envconfig:"PUBSUB_PUSH_AUDIENCE"`
	PubSubPushServiceAccountEmail string `envconfig:"PUBSUB_PUSH_SERVICE_ACCOUNT_EMAIL"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
