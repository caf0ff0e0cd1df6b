package service

import (
	"context"
	"fmt"

	"app/internal/config"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/rs/zerolog"
)

// ResolveStripeSecrets loads the Stripe API key and webhook secret from
// Secret Manager when secret names are configured, overwriting the inline
// config values. Inline values remain the local development path.
func ResolveStripeSecrets(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	if cfg.StripeSecretKeyName == "" && cfg.StripeWebhookSecretName == "" {
		return nil
	}
	if cfg.GCPProjectID == "" {
		return fmt.Errorf("stripe secret names configured but GCP project id is not set")
	}

	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("failed to create Secret Manager client: %w", err)
	}
	defer client.Close()

	access := func(name string) (string, error) {
		resource := fmt.Sprintf("projects/%s/secrets/%s/versions/latest", cfg.GCPProjectID, name)
		result, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: resource})
		if err != nil {
			return "", fmt.Errorf("failed to access secret %s: %w", name, err)
		}
		return string(result.Payload.Data), nil
	}

	if cfg.StripeSecretKeyName != "" {
		if cfg.StripeSecretKey, err = access(cfg.StripeSecretKeyName); err != nil {
			return err
		}
		logger.Info().Str("secret", cfg.StripeSecretKeyName).Msg("Loaded Stripe secret key from Secret Manager")
	}
	if cfg.StripeWebhookSecretName != "" {
		if cfg.StripeWebhookSecret, err = access(cfg.StripeWebhookSecretName); err != nil {
			return err
		}
		logger.Info().Str("secret", cfg.StripeWebhookSecretName).Msg("Loaded Stripe webhook secret from Secret Manager")
	}
	return nil
}
