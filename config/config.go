package config

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v4"
)

type Config struct {
	Backend    BackendConfig    `yaml:"backend"`
	Database   DatabaseConfig   `yaml:"database"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	Redis      RedisConfig      `yaml:"redis"`
	PickupDesk PickupDeskConfig `yaml:"pickupdesk"`
}

type BackendConfig struct {
	BaseURL string `yaml:"base_url"`
	Token   string `yaml:"token"`
	Mode    string `yaml:"mode"` // "http" | "fake"
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DBName   string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

type KafkaConfig struct {
	Host                   string `yaml:"host"`
	Port                   int    `yaml:"port"`
	PickupChangedTopicName string `yaml:"pickup_changed_topic_name"`
}

type RedisConfig struct {
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`
	Prefix string `yaml:"prefix"`
}

type PickupDeskConfig struct {
	HTTPAddr           string `yaml:"http_addr"`
	JournalHTTPAddr    string `yaml:"journal_http_addr"`
	KafkaConsumerGroup string `yaml:"kafka_consumer_group"`
	SwaggerFile        string `yaml:"swagger_file"`

	ExecutorMode      string `yaml:"executor_mode"` // "simulated" | "kafka"
	CommitDelayMillis int    `yaml:"commit_delay_millis"`

	// Empty redis host disables both.
	CourierCacheTTLSeconds     int `yaml:"courier_cache_ttl_seconds"`
	MutationRateLimitPerMinute int `yaml:"mutation_rate_limit_per_minute"`
}

func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	return &config, nil
}
