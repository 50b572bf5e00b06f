package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "http://localhost:9200", cfg.ElasticsearchURL)
	assert.Equal(t, "catalog_products", cfg.ElasticsearchIndex)
	assert.Equal(t, 5*time.Second, cfg.ElasticsearchTimeout)
	assert.Equal(t, "elasticsearch", cfg.SearchEngine)
	assert.Equal(t, 500, cfg.ReconcileBatchSize)
	assert.True(t, cfg.ReconcileOnStart)
	assert.False(t, cfg.KafkaEnabled)
	assert.False(t, cfg.CacheEnabled)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("CATALOG_HTTP_PORT", "9090")
	t.Setenv("SEARCH_ENGINE", "memory")
	t.Setenv("RECONCILE_BATCH_SIZE", "50")
	t.Setenv("SEARCH_CACHE_ENABLED", "true")
	t.Setenv("SEARCH_CACHE_TTL", "2m")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.Equal(t, "memory", cfg.SearchEngine)
	assert.Equal(t, 50, cfg.ReconcileBatchSize)
	assert.True(t, cfg.CacheEnabled)
	assert.Equal(t, 2*time.Minute, cfg.CacheTTL)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
}

func TestLoad_InvalidHTTPPort(t *testing.T) {
	t.Setenv("CATALOG_HTTP_PORT", "0")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid HTTP port")
}

func TestLoad_InvalidSearchEngine(t *testing.T) {
	t.Setenv("SEARCH_ENGINE", "grep")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid search engine")
}

func TestLoad_InvalidBatchSize(t *testing.T) {
	t.Setenv("RECONCILE_BATCH_SIZE", "0")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid reconcile batch size")
}

func TestPostgresConfig_KeepsPoolDefaults(t *testing.T) {
	t.Setenv("POSTGRES_HOST", "db.internal")
	t.Setenv("POSTGRES_PORT", "5433")

	cfg, err := Load()
	require.NoError(t, err)

	pg := cfg.PostgresConfig()
	assert.Equal(t, "db.internal", pg.Host)
	assert.Equal(t, 5433, pg.Port)
	assert.Positive(t, pg.MaxConns)
	assert.Contains(t, pg.DSN(), "db.internal:5433")
}
