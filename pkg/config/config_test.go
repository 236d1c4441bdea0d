package config

import (
	"os"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, 100, cfg.Planner.Generations)
	assert.Equal(t, 60, cfg.Planner.PopulationSize)
	assert.InDelta(t, 0.1, cfg.Planner.MutationRate, 1e-9)
	assert.InDelta(t, 0.4, cfg.Planner.FitnessWeights.Energy, 1e-9)
	assert.Equal(t, 30*time.Minute, cfg.Planner.ProposalTTL)
	assert.InDelta(t, 0.25, cfg.Planner.WrongAnswerPenalty, 1e-9)
	assert.False(t, cfg.Kafka.Enabled)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 5, cfg.Database.ConnectAttempts)
	assert.Equal(t, time.Hour, cfg.Database.ConnMaxLifetime)
	assert.Equal(t, 2, cfg.Jobs.Workers)
}

func TestFromViperOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("PLANNER_GENERATIONS", 250)
	v.Set("PLANNER_UTILIZATION", "0.65")
	v.Set("PLANNER_TIME_BUDGET", "2s")
	v.Set("PLANNER_CACHE_TTL", "not-a-duration")
	v.Set("ENABLE_KAFKA", true)
	v.Set("KAFKA_BROKERS", " kafka-1:9092, ,kafka-2:9092 ")
	v.Set("ALLOWED_ORIGINS", "http://localhost:3000")
	v.Set("EXAM_WRONG_ANSWER_PENALTY", "0")

	cfg := fromViper(v)

	assert.Equal(t, 250, cfg.Planner.Generations)
	assert.InDelta(t, 0.65, cfg.Planner.Utilization, 1e-9)
	assert.Equal(t, 2*time.Second, cfg.Planner.TimeBudget)
	assert.Equal(t, 15*time.Minute, cfg.Planner.CacheTTL)
	assert.True(t, cfg.Kafka.Enabled)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORS.AllowedOrigins)
	assert.Zero(t, cfg.Planner.WrongAnswerPenalty)
}

func TestKafkaNeedsBrokers(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("ENABLE_KAFKA", true)

	assert.False(t, fromViper(v).Kafka.Enabled)
}
