package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keys = []string{
	"SERVICE_NAME", "HTTP_ADDR", "SHUTDOWN_TIMEOUT", "STORE", "POSTGRES_DSN", "POSTGRES_MAX_CONNS",
	"LOCKER", "REDIS_ADDR", "LOCK_TTL", "PAYMENT_GATEWAY", "RAZORPAY_BASE_URL", "RAZORPAY_KEY_ID",
	"RAZORPAY_KEY_SECRET", "PAYMENT_CURRENCY", "GATEWAY_TIMEOUT", "NOTIFIER", "NOTIFIER_URL",
	"KAFKA_BROKERS", "KAFKA_NOTIFICATION_TOPIC", "NOTIFY_TIMEOUT", "OUTBOX_QUEUE_SIZE",
	"OUTBOX_WORKERS", "LOG_LEVEL", "LOG_FILE", "METRICS_NAMESPACE",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("RAZORPAY_KEY_SECRET", "dev")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, StoreMemory, cfg.Store)
	assert.Equal(t, LockerMemory, cfg.Locker)
	assert.Equal(t, GatewaySandbox, cfg.Gateway)
	assert.Equal(t, NotifierLog, cfg.Notifier)
	assert.Equal(t, "INR", cfg.Currency)
	assert.Equal(t, 5*time.Second, cfg.GatewayTimeout)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, int32(10), cfg.PostgresMax)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE", "Postgres")
	t.Setenv("POSTGRES_DSN", "postgres://localhost/orders")
	t.Setenv("LOCKER", "redis")
	t.Setenv("PAYMENT_GATEWAY", "razorpay")
	t.Setenv("RAZORPAY_KEY_ID", "key")
	t.Setenv("RAZORPAY_KEY_SECRET", "secret")
	t.Setenv("PAYMENT_CURRENCY", "usd")
	t.Setenv("NOTIFIER", "kafka")
	t.Setenv("KAFKA_BROKERS", " a:9092, ,b:9092 ")
	t.Setenv("NOTIFY_TIMEOUT", "750ms")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StorePostgres, cfg.Store)
	assert.Equal(t, LockerRedis, cfg.Locker)
	assert.Equal(t, "USD", cfg.Currency)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 750*time.Millisecond, cfg.NotifyTimeout)
}

func TestLoadRejects(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		want string
	}{
		{name: "missing secret", env: map[string]string{}, want: "RAZORPAY_KEY_SECRET"},
		{name: "postgres without dsn", env: map[string]string{"STORE": "postgres"}, want: "POSTGRES_DSN"},
		{name: "unknown store", env: map[string]string{"STORE": "mongo"}, want: "STORE"},
		{name: "razorpay without key id", env: map[string]string{"PAYMENT_GATEWAY": "razorpay"}, want: "RAZORPAY_KEY_ID"},
		{name: "http notifier without url", env: map[string]string{"NOTIFIER": "http"}, want: "NOTIFIER_URL"},
		{name: "bad duration", env: map[string]string{"LOCK_TTL": "soon"}, want: "LOCK_TTL"},
		{name: "negative timeout", env: map[string]string{"GATEWAY_TIMEOUT": "-1s"}, want: "GATEWAY_TIMEOUT"},
		{name: "bad int", env: map[string]string{"OUTBOX_WORKERS": "many"}, want: "OUTBOX_WORKERS"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			if tc.name != "missing secret" {
				t.Setenv("RAZORPAY_KEY_SECRET", "dev")
			}
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.ErrorIs(t, err, ErrInvalid)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	require.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")))

	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("HTTP_ADDR=:9999\nRAZORPAY_KEY_SECRET=from-file\n"), 0o600))
	t.Setenv("RAZORPAY_KEY_SECRET", "from-env")
	// godotenv skips keys present in the environment, even empty ones.
	require.NoError(t, os.Unsetenv("HTTP_ADDR"))

	require.NoError(t, LoadDotEnv(path))
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.HTTPAddr)
	assert.Equal(t, "from-env", cfg.GatewaySecret)
}
