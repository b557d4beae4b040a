package config

import (
	"fmt"
	"os"
	"strings"
)

// Require reports every listed key that is unset in c, in one error.
func (c Config) Require(keys ...string) error {
	var missing []string
	for _, k := range keys {
		if !c.has(k) {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required env %s", strings.Join(missing, ", "))
	}
	return nil
}

func (c Config) has(key string) bool {
	switch key {
	case "DATABASE_URL":
		return c.DatabaseURL != ""
	case "JWT_SECRET":
		return len(c.JWTAccessSecret) > 0
	case "KAFKA_BROKERS":
		return len(c.KafkaBrokers) > 0
	case "ES_URL":
		return c.ESURL != ""
	case "STRIPE_SECRET_KEY":
		return c.StripeSecretKey != ""
	case "STRIPE_WEBHOOK_SECRET":
		return c.StripeWebhookSecret != ""
	}
	return os.Getenv(key) != ""
}
