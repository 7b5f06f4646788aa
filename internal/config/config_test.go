package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("ACCESS_TOKEN_TTL", "")
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("STORE_DRIVER", "")

	cfg := FromEnv()
	assert.Equal(t, "mongo", cfg.StoreDriver)
	assert.Equal(t, 24*time.Hour, cfg.AccessTokenTTL)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Nil(t, cfg.KafkaBrokers)
}

func TestGetDurationEnvRejectsGarbage(t *testing.T) {
	t.Setenv("CACHE_TTL", "soon")
	assert.Equal(t, 300*time.Second, getDurationEnv("CACHE_TTL", 300, time.Second))

	t.Setenv("CACHE_TTL", "-5")
	assert.Equal(t, 300*time.Second, getDurationEnv("CACHE_TTL", 300, time.Second))

	t.Setenv("CACHE_TTL", "60")
	assert.Equal(t, time.Minute, getDurationEnv("CACHE_TTL", 300, time.Second))
}

func TestGetListEnv(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", " kafka-1:9092, ,kafka-2:9092 ")
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, getListEnv("KAFKA_BROKERS"))
}
