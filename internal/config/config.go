package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Vote lock modes. "none" keeps the unserialized read-then-write vote path.
const (
	VoteLockNone   = "none"
	VoteLockMemory = "memory"
	VoteLockRedis  = "redis"
)

// Config holds application configuration
type Config struct {
	Server     ServerConfig
	MongoDB    MongoDBConfig
	Redis      RedisConfig
	RateLimit  RateLimitConfig
	Votes      VotesConfig
	Reputation ReputationConfig
	Tasks      TasksConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type RateLimitConfig struct {
	Enabled       bool
	UseRedis      bool
	RPS           float64
	Burst         int
	WindowSeconds int
}

// VotesConfig controls per-(user, question) serialization of vote transitions.
type VotesConfig struct {
	LockMode string
	LockTTL  time.Duration
	LockWait time.Duration
}

// ReputationConfig holds the point values awarded for engagement events.
type ReputationConfig struct {
	UpvoteQuestion int
}

// TasksConfig bounds fire-and-forget side effects.
type TasksConfig struct {
	Timeout time.Duration
}

// LoadConfig loads configuration from environment variables and .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env")

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "5001")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_ENVIRONMENT", "development")
	viper.SetDefault("MONGODB_DATABASE", "askly")
	viper.SetDefault("MONGODB_TIMEOUT", 10)
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("RATE_LIMIT_ENABLED", false)
	viper.SetDefault("RATE_LIMIT_USE_REDIS", false)
	viper.SetDefault("RATE_LIMIT_RPS", 10.0)
	viper.SetDefault("RATE_LIMIT_BURST", 20)
	viper.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 1)
	viper.SetDefault("VOTE_LOCK", VoteLockNone)
	viper.SetDefault("VOTE_LOCK_TTL_MS", 5000)
	viper.SetDefault("VOTE_LOCK_WAIT_MS", 2000)
	viper.SetDefault("REPUTATION_UPVOTE_QUESTION", 10)
	viper.SetDefault("TASK_TIMEOUT_SECONDS", 10)

	cfg := &Config{
		Server: ServerConfig{
			Port:         viper.GetString("SERVER_PORT"),
			Host:         viper.GetString("SERVER_HOST"),
			Environment:  viper.GetString("SERVER_ENVIRONMENT"),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		MongoDB: MongoDBConfig{
			URI:      viper.GetString("MONGODB_URI"),
			Database: viper.GetString("MONGODB_DATABASE"),
			Timeout:  time.Duration(viper.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		RateLimit: RateLimitConfig{
			Enabled:       viper.GetBool("RATE_LIMIT_ENABLED"),
			UseRedis:      viper.GetBool("RATE_LIMIT_USE_REDIS"),
			RPS:           viper.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         viper.GetInt("RATE_LIMIT_BURST"),
			WindowSeconds: viper.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
		Votes: VotesConfig{
			LockMode: strings.ToLower(strings.TrimSpace(viper.GetString("VOTE_LOCK"))),
			LockTTL:  time.Duration(viper.GetInt("VOTE_LOCK_TTL_MS")) * time.Millisecond,
			LockWait: time.Duration(viper.GetInt("VOTE_LOCK_WAIT_MS")) * time.Millisecond,
		},
		Reputation: ReputationConfig{
			UpvoteQuestion: viper.GetInt("REPUTATION_UPVOTE_QUESTION"),
		},
		Tasks: TasksConfig{
			Timeout: time.Duration(viper.GetInt("TASK_TIMEOUT_SECONDS")) * time.Second,
		},
	}

	switch cfg.Votes.LockMode {
	case VoteLockNone, VoteLockMemory, VoteLockRedis:
	case "":
		cfg.Votes.LockMode = VoteLockNone
	default:
		return nil, fmt.Errorf("invalid VOTE_LOCK %q (want none|memory|redis)", cfg.Votes.LockMode)
	}

	if cfg.MongoDB.URI == "" {
		log.Println("WARNING: MONGODB_URI is not set; falling back to in-memory repositories")
	}

	return cfg, nil
}
