package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ServiceID string

	HTTPPort int

	RedisURL         string
	CartTTL          time.Duration
	PostgresURL      string
	PostgresMaxConns int32

	CampaignsPath string

	KafkaBrokers           []string
	KafkaConsumerGroup     string
	TopicCartUpdated       string
	TopicCartCouponApplied string
	ConsumerPollInterval   time.Duration

	EnableEventConsumption bool
}

type configFile struct {
	Service struct {
		ID       string `yaml:"id"`
		HTTPPort int    `yaml:"http_port"`
	} `yaml:"service"`
	Campaigns struct {
		Path string `yaml:"path"`
	} `yaml:"campaigns"`
	Dependencies struct {
		RedisURL               string   `yaml:"redis_url"`
		CartTTLHours           int      `yaml:"cart_ttl_hours"`
		PostgresURL            string   `yaml:"postgres_url"`
		PostgresMaxConns       int32    `yaml:"postgres_max_conns"`
		KafkaBrokers           []string `yaml:"kafka_brokers"`
		KafkaConsumerGroup     string   `yaml:"kafka_consumer_group"`
		TopicCartUpdated       string   `yaml:"topic_cart_updated"`
		TopicCartCouponApplied string   `yaml:"topic_cart_coupon_applied"`
	} `yaml:"dependencies"`
	FeatureFlags struct {
		EnableEventConsumption *bool `yaml:"enable_event_consumption"`
	} `yaml:"feature_flags"`
}

func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ServiceID:              "bogof-engine",
		HTTPPort:               8080,
		CartTTL:                48 * time.Hour,
		PostgresMaxConns:       10,
		CampaignsPath:          "configs/campaigns.yaml",
		KafkaConsumerGroup:     "bogof-engine",
		TopicCartUpdated:       "cart.updated",
		TopicCartCouponApplied: "cart.coupon_applied",
		ConsumerPollInterval:   2 * time.Second,
		EnableEventConsumption: true,
	}

	raw, err := os.ReadFile(path)
	if err == nil {
		var f configFile
		if unmarshalErr := yaml.Unmarshal(raw, &f); unmarshalErr != nil {
			return Config{}, fmt.Errorf("parse config file: %w", unmarshalErr)
		}
		if f.Service.ID != "" {
			cfg.ServiceID = f.Service.ID
		}
		if f.Service.HTTPPort > 0 {
			cfg.HTTPPort = f.Service.HTTPPort
		}
		if f.Campaigns.Path != "" {
			cfg.CampaignsPath = f.Campaigns.Path
		}
		cfg.RedisURL = f.Dependencies.RedisURL
		if f.Dependencies.CartTTLHours > 0 {
			cfg.CartTTL = time.Duration(f.Dependencies.CartTTLHours) * time.Hour
		}
		cfg.PostgresURL = f.Dependencies.PostgresURL
		if f.Dependencies.PostgresMaxConns > 0 {
			cfg.PostgresMaxConns = f.Dependencies.PostgresMaxConns
		}
		if len(f.Dependencies.KafkaBrokers) > 0 {
			cfg.KafkaBrokers = trimNonEmpty(f.Dependencies.KafkaBrokers)
		}
		if f.Dependencies.KafkaConsumerGroup != "" {
			cfg.KafkaConsumerGroup = f.Dependencies.KafkaConsumerGroup
		}
		if f.Dependencies.TopicCartUpdated != "" {
			cfg.TopicCartUpdated = f.Dependencies.TopicCartUpdated
		}
		if f.Dependencies.TopicCartCouponApplied != "" {
			cfg.TopicCartCouponApplied = f.Dependencies.TopicCartCouponApplied
		}
		if f.FeatureFlags.EnableEventConsumption != nil {
			cfg.EnableEventConsumption = *f.FeatureFlags.EnableEventConsumption
		}
	}

	cfg.ServiceID = envOrDefault("SERVICE_ID", cfg.ServiceID)
	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.CartTTL = time.Duration(envInt("CART_TTL_HOURS", int(cfg.CartTTL.Hours()))) * time.Hour
	cfg.PostgresURL = envOrDefault("POSTGRES_URL", cfg.PostgresURL)
	cfg.PostgresMaxConns = int32(envInt("POSTGRES_MAX_CONNS", int(cfg.PostgresMaxConns)))
	cfg.CampaignsPath = envOrDefault("CAMPAIGNS_PATH", cfg.CampaignsPath)
	cfg.KafkaBrokers = envCSV("KAFKA_BROKERS", cfg.KafkaBrokers)
	cfg.KafkaConsumerGroup = envOrDefault("KAFKA_CONSUMER_GROUP", cfg.KafkaConsumerGroup)
	cfg.TopicCartUpdated = envOrDefault("KAFKA_TOPIC_CART_UPDATED", cfg.TopicCartUpdated)
	cfg.TopicCartCouponApplied = envOrDefault("KAFKA_TOPIC_CART_COUPON_APPLIED", cfg.TopicCartCouponApplied)
	cfg.ConsumerPollInterval = time.Duration(envInt("CONSUMER_POLL_SECONDS", int(cfg.ConsumerPollInterval.Seconds()))) * time.Second
	cfg.EnableEventConsumption = envBool("ENABLE_EVENT_CONSUMPTION", cfg.EnableEventConsumption)

	return cfg, nil
}

func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func envCSV(name string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	items := strings.Split(raw, ",")
	return trimNonEmpty(items)
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}

func trimNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
