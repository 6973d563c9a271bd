// Package config reads process settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"

	LockerMemory = "memory"
	LockerRedis  = "redis"

	GatewaySandbox  = "sandbox"
	GatewayRazorpay = "razorpay"

	NotifierLog   = "log"
	NotifierHTTP  = "http"
	NotifierKafka = "kafka"
)

var ErrInvalid = errors.New("config: invalid")

type Config struct {
	ServiceName     string
	HTTPAddr        string
	ShutdownTimeout time.Duration

	Store       string
	PostgresDSN string
	PostgresMax int32

	Locker    string
	RedisAddr string
	LockTTL   time.Duration

	Gateway        string
	GatewayBaseURL string
	GatewayKeyID   string
	GatewaySecret  string
	Currency       string
	GatewayTimeout time.Duration

	Notifier        string
	NotifierURL     string
	KafkaBrokers    []string
	KafkaTopic      string
	NotifyTimeout   time.Duration
	OutboxQueueSize int
	OutboxWorkers   int

	LogLevel         string
	LogFile          string
	MetricsNamespace string
}

// LoadDotEnv reads path (".env" when empty) into the environment without
// overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return godotenv.Load(path)
}

func Load() (Config, error) {
	var errs []error
	dur := func(key string, def time.Duration) time.Duration {
		d, err := parseDuration(key, getenv(key, def.String()))
		if err != nil {
			errs = append(errs, err)
		}
		return d
	}
	num := func(key string, def int) int {
		n, err := parseInt(key, getenv(key, strconv.Itoa(def)))
		if err != nil {
			errs = append(errs, err)
		}
		return n
	}

	cfg := Config{
		ServiceName:     getenv("SERVICE_NAME", "marketplace-orders"),
		HTTPAddr:        getenv("HTTP_ADDR", ":8080"),
		ShutdownTimeout: dur("SHUTDOWN_TIMEOUT", 10*time.Second),

		Store:       strings.ToLower(getenv("STORE", StoreMemory)),
		PostgresDSN: getenv("POSTGRES_DSN", ""),
		PostgresMax: int32(num("POSTGRES_MAX_CONNS", 10)),

		Locker:    strings.ToLower(getenv("LOCKER", LockerMemory)),
		RedisAddr: getenv("REDIS_ADDR", "localhost:6379"),
		LockTTL:   dur("LOCK_TTL", 10*time.Second),

		Gateway:        strings.ToLower(getenv("PAYMENT_GATEWAY", GatewaySandbox)),
		GatewayBaseURL: getenv("RAZORPAY_BASE_URL", "https://api.razorpay.com"),
		GatewayKeyID:   getenv("RAZORPAY_KEY_ID", ""),
		GatewaySecret:  getenv("RAZORPAY_KEY_SECRET", ""),
		Currency:       strings.ToUpper(getenv("PAYMENT_CURRENCY", "INR")),
		GatewayTimeout: dur("GATEWAY_TIMEOUT", 5*time.Second),

		Notifier:        strings.ToLower(getenv("NOTIFIER", NotifierLog)),
		NotifierURL:     getenv("NOTIFIER_URL", ""),
		KafkaBrokers:    splitCSV(getenv("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:      getenv("KAFKA_NOTIFICATION_TOPIC", "user-notifications"),
		NotifyTimeout:   dur("NOTIFY_TIMEOUT", 3*time.Second),
		OutboxQueueSize: num("OUTBOX_QUEUE_SIZE", 1024),
		OutboxWorkers:   num("OUTBOX_WORKERS", 4),

		LogLevel:         strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogFile:          getenv("LOG_FILE", ""),
		MetricsNamespace: getenv("METRICS_NAMESPACE", ""),
	}
	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that every selected backend has what it needs.
func (c Config) Validate() error {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	switch c.Store {
	case StoreMemory:
	case StorePostgres:
		if c.PostgresDSN == "" {
			invalid("POSTGRES_DSN is required when STORE=postgres")
		}
	default:
		invalid("STORE %q must be %s or %s", c.Store, StoreMemory, StorePostgres)
	}

	switch c.Locker {
	case LockerMemory:
	case LockerRedis:
		if c.RedisAddr == "" {
			invalid("REDIS_ADDR is required when LOCKER=redis")
		}
	default:
		invalid("LOCKER %q must be %s or %s", c.Locker, LockerMemory, LockerRedis)
	}

	switch c.Gateway {
	case GatewaySandbox, GatewayRazorpay:
		if c.GatewaySecret == "" {
			invalid("RAZORPAY_KEY_SECRET is required to verify signatures")
		}
		if c.Gateway == GatewayRazorpay && c.GatewayKeyID == "" {
			invalid("RAZORPAY_KEY_ID is required when PAYMENT_GATEWAY=razorpay")
		}
	default:
		invalid("PAYMENT_GATEWAY %q must be %s or %s", c.Gateway, GatewaySandbox, GatewayRazorpay)
	}
	if c.Currency == "" {
		invalid("PAYMENT_CURRENCY must not be empty")
	}

	switch c.Notifier {
	case NotifierLog:
	case NotifierHTTP:
		if c.NotifierURL == "" {
			invalid("NOTIFIER_URL is required when NOTIFIER=http")
		}
	case NotifierKafka:
		if len(c.KafkaBrokers) == 0 || c.KafkaTopic == "" {
			invalid("KAFKA_BROKERS and KAFKA_NOTIFICATION_TOPIC are required when NOTIFIER=kafka")
		}
	default:
		invalid("NOTIFIER %q must be %s, %s or %s", c.Notifier, NotifierLog, NotifierHTTP, NotifierKafka)
	}

	for name, d := range map[string]time.Duration{
		"SHUTDOWN_TIMEOUT": c.ShutdownTimeout,
		"LOCK_TTL":         c.LockTTL,
		"GATEWAY_TIMEOUT":  c.GatewayTimeout,
		"NOTIFY_TIMEOUT":   c.NotifyTimeout,
	} {
		if d <= 0 {
			invalid("%s must be positive", name)
		}
	}
	if c.PostgresMax <= 0 {
		invalid("POSTGRES_MAX_CONNS must be positive")
	}
	if c.OutboxQueueSize <= 0 || c.OutboxWorkers <= 0 {
		invalid("OUTBOX_QUEUE_SIZE and OUTBOX_WORKERS must be positive")
	}
	return errors.Join(errs...)
}

func getenv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func parseDuration(key, v string) (time.Duration, error) {
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrInvalid, key, err)
	}
	return d, nil
}

func parseInt(key, v string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrInvalid, key, err)
	}
	return n, nil
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
