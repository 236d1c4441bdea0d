package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	Planner  PlannerConfig
	Kafka    KafkaConfig
	Jobs     JobsConfig
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnectAttempts int
}

// RedisConfig configures the optimization result cache. Enabled false runs
// the service without caching.
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	PoolSize int
}

// JWTConfig holds the shared secret used to validate learner tokens issued
// by the identity service.
type JWTConfig struct {
	Secret string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// FitnessWeights mirrors the optimizer's weighting of its fitness terms.
type FitnessWeights struct {
	Energy     float64
	Allocation float64
	Constraint float64
}

// PlannerConfig tunes the schedule optimizer and the surrounding service.
type PlannerConfig struct {
	Generations        int
	PopulationSize     int
	MutationRate       float64
	TournamentSize     int
	EliteCount         int
	StallGenerations   int
	Workers            int
	Utilization        float64
	MinSlotLength      time.Duration
	MinFocusLength     time.Duration
	FitnessWeights     FitnessWeights
	TimeBudget         time.Duration
	ProposalTTL        time.Duration
	CacheTTL           time.Duration
	WrongAnswerPenalty float64
}

// KafkaConfig configures domain event publishing. An empty broker list
// disables publishing.
type KafkaConfig struct {
	Enabled      bool
	Brokers      []string
	Topic        string
	WriteTimeout time.Duration
}

// JobsConfig sizes the background feedback worker pool.
type JobsConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:            v.GetString("DB_HOST"),
		Port:            v.GetInt("DB_PORT"),
		User:            v.GetString("DB_USER"),
		Password:        v.GetString("DB_PASSWORD"),
		Name:            v.GetString("DB_NAME"),
		SSLMode:         v.GetString("DB_SSL_MODE"),
		MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
		ConnMaxLifetime: parseDuration(v.GetString("DB_CONN_MAX_LIFETIME"), time.Hour),
		ConnectAttempts: v.GetInt("DB_CONNECT_ATTEMPTS"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("ENABLE_CACHE"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
		PoolSize: v.GetInt("REDIS_POOL_SIZE"),
	}

	cfg.JWT = JWTConfig{Secret: v.GetString("JWT_SECRET")}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Planner = PlannerConfig{
		Generations:      v.GetInt("PLANNER_GENERATIONS"),
		PopulationSize:   v.GetInt("PLANNER_POPULATION_SIZE"),
		MutationRate:     parseFloat(v.GetString("PLANNER_MUTATION_RATE"), 0.1),
		TournamentSize:   v.GetInt("PLANNER_TOURNAMENT_SIZE"),
		EliteCount:       v.GetInt("PLANNER_ELITE_COUNT"),
		StallGenerations: v.GetInt("PLANNER_STALL_GENERATIONS"),
		Workers:          v.GetInt("PLANNER_WORKERS"),
		Utilization:      parseFloat(v.GetString("PLANNER_UTILIZATION"), 0.8),
		MinSlotLength:    parseDuration(v.GetString("PLANNER_MIN_SLOT_LENGTH"), 15*time.Minute),
		MinFocusLength:   parseDuration(v.GetString("PLANNER_MIN_FOCUS_LENGTH"), 25*time.Minute),
		FitnessWeights: FitnessWeights{
			Energy:     parseFloat(v.GetString("PLANNER_WEIGHT_ENERGY"), 0.4),
			Allocation: parseFloat(v.GetString("PLANNER_WEIGHT_ALLOCATION"), 0.4),
			Constraint: parseFloat(v.GetString("PLANNER_WEIGHT_CONSTRAINT"), 0.2),
		},
		TimeBudget:         parseDuration(v.GetString("PLANNER_TIME_BUDGET"), 10*time.Second),
		ProposalTTL:        parseDuration(v.GetString("PLANNER_PROPOSAL_TTL"), 30*time.Minute),
		CacheTTL:           parseDuration(v.GetString("PLANNER_CACHE_TTL"), 15*time.Minute),
		WrongAnswerPenalty: parseFloat(v.GetString("EXAM_WRONG_ANSWER_PENALTY"), 0.25),
	}

	brokers := splitAndTrim(v.GetString("KAFKA_BROKERS"))
	cfg.Kafka = KafkaConfig{
		Enabled:      v.GetBool("ENABLE_KAFKA") && len(brokers) > 0,
		Brokers:      brokers,
		Topic:        v.GetString("KAFKA_TOPIC"),
		WriteTimeout: parseDuration(v.GetString("KAFKA_WRITE_TIMEOUT"), 5*time.Second),
	}

	cfg.Jobs = JobsConfig{
		Workers:    v.GetInt("JOBS_WORKERS"),
		BufferSize: v.GetInt("JOBS_BUFFER_SIZE"),
		MaxRetries: v.GetInt("JOBS_MAX_RETRIES"),
		RetryDelay: parseDuration(v.GetString("JOBS_RETRY_DELAY"), time.Second),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "study_planner")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "1h")
	v.SetDefault("DB_CONNECT_ATTEMPTS", 5)

	v.SetDefault("ENABLE_CACHE", true)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_POOL_SIZE", 10)

	v.SetDefault("JWT_SECRET", "dev_secret")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("PLANNER_GENERATIONS", 100)
	v.SetDefault("PLANNER_POPULATION_SIZE", 60)
	v.SetDefault("PLANNER_MUTATION_RATE", "0.1")
	v.SetDefault("PLANNER_TOURNAMENT_SIZE", 3)
	v.SetDefault("PLANNER_ELITE_COUNT", 2)
	v.SetDefault("PLANNER_STALL_GENERATIONS", 20)
	v.SetDefault("PLANNER_WORKERS", 4)
	v.SetDefault("PLANNER_UTILIZATION", "0.8")
	v.SetDefault("PLANNER_MIN_SLOT_LENGTH", "15m")
	v.SetDefault("PLANNER_MIN_FOCUS_LENGTH", "25m")
	v.SetDefault("PLANNER_WEIGHT_ENERGY", "0.4")
	v.SetDefault("PLANNER_WEIGHT_ALLOCATION", "0.4")
	v.SetDefault("PLANNER_WEIGHT_CONSTRAINT", "0.2")
	v.SetDefault("PLANNER_TIME_BUDGET", "10s")
	v.SetDefault("PLANNER_PROPOSAL_TTL", "30m")
	v.SetDefault("PLANNER_CACHE_TTL", "15m")
	v.SetDefault("EXAM_WRONG_ANSWER_PENALTY", "0.25")

	v.SetDefault("ENABLE_KAFKA", false)
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_TOPIC", "study-planner.events")
	v.SetDefault("KAFKA_WRITE_TIMEOUT", "5s")

	v.SetDefault("JOBS_WORKERS", 2)
	v.SetDefault("JOBS_BUFFER_SIZE", 64)
	v.SetDefault("JOBS_MAX_RETRIES", 3)
	v.SetDefault("JOBS_RETRY_DELAY", "1s")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func parseFloat(raw string, fallback float64) float64 {
	if raw == "" {
		return fallback
	}

	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return fallback
	}

	return f
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
