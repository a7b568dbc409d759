package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/bibbank/finance-service/pkg/money"
)

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
}

// DSN returns the postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s", d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

type KafkaConfig struct {
	Brokers       []string
	ConsumerGroup string
	EventsTopic   string
	PostingsTopic string
	LedgerTopic   string
}

// AuthConfig selects how bearer tokens are validated. PublicKeyPEM wins
// over Secret.
type AuthConfig struct {
	PublicKeyPEM string
	Secret       string
	Issuer       string
}

// GRPCConfig holds the optional transport settings of the gRPC server.
type GRPCConfig struct {
	TLSCertFile string
	TLSKeyFile  string
	Reflection  bool
}

type DepreciationConfig struct {
	Cron    string
	Workers int
}

// OutboxConfig paces the relay that drains the event outbox to Kafka.
type OutboxConfig struct {
	Interval  time.Duration
	BatchSize int
}

// TracingConfig selects how spans reach the OTLP collector.
type TracingConfig struct {
	Endpoint string
	Insecure bool
	CAFile   string
}

type Config struct {
	GRPCPort           int
	HTTPPort           int
	DB                 DatabaseConfig
	Kafka              KafkaConfig
	Depreciation       DepreciationConfig
	Outbox             OutboxConfig
	Tracing            TracingConfig
	Auth               AuthConfig
	GRPC               GRPCConfig
	FunctionalCurrency string
	LogLevel           string
	LogFormat          string
	ServiceName        string
}

// Validate reports every missing or malformed setting at once.
func (c Config) Validate() error {
	var errs []error
	if c.DB.Password == "" {
		errs = append(errs, errors.New("DB_PASSWORD environment variable is required"))
	}
	if len(c.Kafka.Brokers) == 0 {
		errs = append(errs, errors.New("KAFKA_BROKERS must name at least one broker"))
	}
	if _, err := money.NewCurrency(c.FunctionalCurrency); err != nil {
		errs = append(errs, fmt.Errorf("FUNCTIONAL_CURRENCY: %w", err))
	}
	if c.Auth.PublicKeyPEM == "" && c.Auth.Secret == "" {
		errs = append(errs, errors.New("one of JWT_PUBLIC_KEY, JWT_PUBLIC_KEY_FILE or JWT_SECRET is required"))
	}
	if (c.GRPC.TLSCertFile == "") != (c.GRPC.TLSKeyFile == "") {
		errs = append(errs, errors.New("GRPC_TLS_CERT_FILE and GRPC_TLS_KEY_FILE must be set together"))
	}
	if _, err := cron.ParseStandard(c.Depreciation.Cron); err != nil {
		errs = append(errs, fmt.Errorf("DEPRECIATION_CRON %q: %w", c.Depreciation.Cron, err))
	}
	if c.Depreciation.Workers < 1 {
		errs = append(errs, fmt.Errorf("DEPRECIATION_WORKERS must be positive, got %d", c.Depreciation.Workers))
	}
	if c.Outbox.Interval <= 0 {
		errs = append(errs, fmt.Errorf("OUTBOX_RELAY_INTERVAL must be positive, got %s", c.Outbox.Interval))
	}
	if c.Outbox.BatchSize < 1 {
		errs = append(errs, fmt.Errorf("OUTBOX_BATCH_SIZE must be positive, got %d", c.Outbox.BatchSize))
	}
	if c.DB.MaxConns < 1 {
		errs = append(errs, fmt.Errorf("DB_MAX_CONNS must be positive, got %d", c.DB.MaxConns))
	}
	for name, port := range map[string]int{"GRPC_PORT": c.GRPCPort, "HTTP_PORT": c.HTTPPort, "DB_PORT": c.DB.Port} {
		if port <= 0 || port > 65535 {
			errs = append(errs, fmt.Errorf("%s out of range: %d", name, port))
		}
	}
	return errors.Join(errs...)
}

// Load reads the environment. A JWT_PUBLIC_KEY_FILE that cannot be read
// leaves the key empty, which Validate reports.
func Load() Config {
	return Config{
		GRPCPort: getEnvInt("GRPC_PORT", 9091),
		HTTPPort: getEnvInt("HTTP_PORT", 8091),
		DB: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "bib"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "bib_finance"),
			SSLMode:  getEnv("DB_SSLMODE", "require"),
			MaxConns: int32(getEnvInt("DB_MAX_CONNS", 10)),
		},
		Kafka: KafkaConfig{
			Brokers:       getEnvList("KAFKA_BROKERS", "localhost:9092"),
			ConsumerGroup: getEnv("KAFKA_CONSUMER_GROUP", "finance-service"),
			EventsTopic:   getEnv("FINANCE_EVENTS_TOPIC", "finance.events"),
			PostingsTopic: getEnv("LEDGER_POSTINGS_TOPIC", "ledger.postings.requested"),
			LedgerTopic:   getEnv("LEDGER_EVENTS_TOPIC", "ledger.events"),
		},
		Depreciation: DepreciationConfig{
			Cron:    getEnv("DEPRECIATION_CRON", "0 2 1 * *"),
			Workers: getEnvInt("DEPRECIATION_WORKERS", 4),
		},
		Outbox: OutboxConfig{
			Interval:  getEnvDuration("OUTBOX_RELAY_INTERVAL", 5*time.Second),
			BatchSize: getEnvInt("OUTBOX_BATCH_SIZE", 100),
		},
		Tracing: TracingConfig{
			Endpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Insecure: getEnv("OTEL_EXPORTER_OTLP_INSECURE", "true") == "true",
			CAFile:   getEnv("OTEL_EXPORTER_OTLP_CERTIFICATE", ""),
		},
		Auth: AuthConfig{
			PublicKeyPEM: publicKeyPEM(),
			Secret:       getEnv("JWT_SECRET", ""),
			Issuer:       getEnv("JWT_ISSUER", "bib-gateway"),
		},
		GRPC: GRPCConfig{
			TLSCertFile: getEnv("GRPC_TLS_CERT_FILE", ""),
			TLSKeyFile:  getEnv("GRPC_TLS_KEY_FILE", ""),
			Reflection:  getEnv("GRPC_REFLECTION", "") == "true",
		},
		FunctionalCurrency: getEnv("FUNCTIONAL_CURRENCY", "TRY"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "json"),
		ServiceName:        "finance-service",
	}
}

func (c Config) GRPCAddr() string {
	return fmt.Sprintf(":%d", c.GRPCPort)
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func publicKeyPEM() string {
	if v := os.Getenv("JWT_PUBLIC_KEY"); v != "" {
		return v
	}
	if path := os.Getenv("JWT_PUBLIC_KEY_FILE"); path != "" {
		if data, err := os.ReadFile(path); err == nil {
			return string(data)
		}
	}
	return ""
}

func getEnvList(key, fallback string) []string {
	var out []string
	for _, s := range strings.Split(getEnv(key, fallback), ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
