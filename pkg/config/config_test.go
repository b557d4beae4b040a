package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCSV(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{name: "empty", in: "", want: nil},
		{name: "single", in: "kafka:9092", want: []string{"kafka:9092"}},
		{name: "trims and skips blanks", in: " a:1 , ,b:2,", want: []string{"a:1", "b:2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CSV(tt.in))
		})
	}
}

func TestEnvDefaults(t *testing.T) {
	t.Setenv("CFG_TEST_STR", "value")
	t.Setenv("CFG_TEST_INT", "42")
	t.Setenv("CFG_TEST_BAD_INT", "x")
	t.Setenv("CFG_TEST_BOOL", "false")
	t.Setenv("CFG_TEST_DUR", "3s")

	assert.Equal(t, "value", EnvDefault("CFG_TEST_STR", "def"))
	assert.Equal(t, "def", EnvDefault("CFG_TEST_MISSING", "def"))
	assert.Equal(t, 42, EnvIntDefault("CFG_TEST_INT", 1))
	assert.Equal(t, 1, EnvIntDefault("CFG_TEST_BAD_INT", 1))
	assert.False(t, EnvBoolDefault("CFG_TEST_BOOL", true))
	assert.True(t, EnvBoolDefault("CFG_TEST_MISSING", true))
	assert.Equal(t, 3*time.Second, EnvDurationDefault("CFG_TEST_DUR", time.Second))
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "")
	t.Setenv("SESSION_COOKIE", "")
	t.Setenv("PAYMENT_CURRENCY", "")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg := Load()
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, "sessionid", cfg.SessionCookie)
	assert.Equal(t, "usd", cfg.PaymentCurrency)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
}

func TestRequire(t *testing.T) {
	t.Setenv("CFG_TEST_PRESENT", "yes")

	cfg := Config{DatabaseURL: "sqlite:shop.db"}
	assert.NoError(t, cfg.Require("DATABASE_URL", "CFG_TEST_PRESENT"))
	assert.NoError(t, cfg.Require())

	err := cfg.Require("DATABASE_URL", "JWT_SECRET", "KAFKA_BROKERS")
	assert.EqualError(t, err, "missing required env JWT_SECRET, KAFKA_BROKERS")

	cfg.JWTAccessSecret = []byte("s")
	assert.NoError(t, cfg.Require("JWT_SECRET"))
}
