package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "cfg.yaml")
	require.NoError(t, os.WriteFile(p, []byte(`
backend:
  base_url: "http://backend:8000"
  token: "secret"
  mode: "http"
database:
  host: "localhost"
  port: 5432
  username: "u"
  password: "p"
  name: "db"
kafka:
  host: "localhost"
  port: 9092
  pickup_changed_topic_name: "pickup.changed"
redis:
  host: "localhost"
  port: 6379
  prefix: "pickupdesk:"
pickupdesk:
  http_addr: ":8080"
  journal_http_addr: ":8090"
  kafka_consumer_group: "pickup-journal"
  executor_mode: "kafka"
  commit_delay_millis: 700
  courier_cache_ttl_seconds: 600
  mutation_rate_limit_per_minute: 30
`), 0o600))

	cfg, err := LoadConfig(p)
	require.NoError(t, err)
	require.Equal(t, "secret", cfg.Backend.Token)
	require.Equal(t, "u", cfg.Database.Username)
	require.Equal(t, "pickup.changed", cfg.Kafka.PickupChangedTopicName)
	require.Equal(t, 6379, cfg.Redis.Port)
	require.Equal(t, "pickupdesk:", cfg.Redis.Prefix)
	require.Equal(t, ":8080", cfg.PickupDesk.HTTPAddr)
	require.Equal(t, "kafka", cfg.PickupDesk.ExecutorMode)
	require.Equal(t, 700, cfg.PickupDesk.CommitDelayMillis)
	require.Equal(t, 30, cfg.PickupDesk.MutationRateLimitPerMinute)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorContains(t, err, "failed to read config file")

	p := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(p, []byte("pickupdesk: [\n"), 0o600))
	_, err = LoadConfig(p)
	require.ErrorContains(t, err, "failed to unmarshal YAML")
}
