package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/reai-pipeline/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	DataDir     string
	OutputDir   string
	WeightsFile string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// SQLite result store; empty path disables it.
	SQLitePath string

	// Kafka result publishing (feature-flagged: enabled when brokers are set).
	KafkaBrokers      []string
	KafkaResultsTopic string
	KafkaEnabled      bool

	MissingPolicy domain.MissingPolicySet
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	policy, err := parseMissingPolicy()
	if err != nil {
		return nil, err
	}

	brokers := parseBrokers(os.Getenv("KAFKA_BROKERS"))
	kafkaEnabled := len(brokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		DataDir:     envOrDefault("DATA_DIR", "data/sources"),
		OutputDir:   envOrDefault("OUTPUT_DIR", "data/output"),
		WeightsFile: os.Getenv("WEIGHTS_FILE"),

		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		SQLitePath: os.Getenv("SQLITE_PATH"),

		KafkaBrokers:      brokers,
		KafkaResultsTopic: envOrDefault("KAFKA_RESULTS_TOPIC", "reai-results"),
		KafkaEnabled:      kafkaEnabled,

		MissingPolicy: policy,
	}

	if cfg.DataDir == "" {
		return nil, errors.New("DATA_DIR is required")
	}
	if cfg.OutputDir == "" {
		return nil, errors.New("OUTPUT_DIR is required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.KafkaEnabled && cfg.KafkaResultsTopic == "" {
		return nil, errors.New("KAFKA_RESULTS_TOPIC is required")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseBrokers(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}

func parseShutdownTimeout() (time.Duration, error) {
	s := envOrDefault("SHUTDOWN_TIMEOUT", "10s")
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, errors.New("invalid SHUTDOWN_TIMEOUT")
	}
	return d, nil
}

// parseMissingPolicy reads MISSING_POLICY (exclude | impute_mean |
// impute_value) and, for impute_value, MISSING_IMPUTE_VALUE. The policy is
// deliberately explicit configuration, never a hardcoded default buried in
// the builder, and is recorded in every build report.
func parseMissingPolicy() (domain.MissingPolicySet, error) {
	kind := envOrDefault("MISSING_POLICY", string(domain.MissingExclude))
	switch domain.MissingPolicyKind(kind) {
	case domain.MissingExclude:
		return domain.ExcludeMissing(), nil
	case domain.MissingImputeMean:
		return domain.MissingPolicySet{Default: domain.MissingPolicy{Kind: domain.MissingImputeMean}}, nil
	case domain.MissingImputeValue:
		s := os.Getenv("MISSING_IMPUTE_VALUE")
		if s == "" {
			return domain.MissingPolicySet{}, errors.New("MISSING_POLICY is impute_value but MISSING_IMPUTE_VALUE is not set")
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return domain.MissingPolicySet{}, fmt.Errorf("invalid MISSING_IMPUTE_VALUE: %w", err)
		}
		return domain.MissingPolicySet{Default: domain.MissingPolicy{Kind: domain.MissingImputeValue, Value: v}}, nil
	default:
		return domain.MissingPolicySet{}, fmt.Errorf("invalid MISSING_POLICY %q", kind)
	}
}
