package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

// app config: scorer provider selection plus the retry policy. The retry
// count, backoff and scorer timeout are deliberate, documented choices rather
// than framework defaults, so exhausted retries fail a stage deterministically.
type Config struct {
	ResumeScorerProvider string
	VideoScorerProvider  string

	// Per-stage retry policy for transient scorer failures.
	ScoreMaxAttempts int           // total attempts per stage, including the first
	ScoreRetryDelay  time.Duration // base backoff, doubled after each failed attempt
	ScorerTimeout    time.Duration // bound on one external scorer call

	RedisAddr string
	JWTSecret string

	// Sweeper policy. AnswerDeadline zero disables deadline expiry.
	SweepSchedule  string
	SweepStaleFor  time.Duration
	AnswerDeadline time.Duration
}

// loads configuration from environment variables
func LoadConfig() (*Config, error) {
	config := &Config{
		ResumeScorerProvider: getEnvOrDefault("RESUME_SCORER_PROVIDER", "resumeapi"),
		VideoScorerProvider:  getEnvOrDefault("VIDEO_SCORER_PROVIDER", "videoapi"),
		ScoreMaxAttempts:     getEnvInt("SCORE_MAX_ATTEMPTS", 4),
		ScoreRetryDelay:      getEnvDuration("SCORE_RETRY_DELAY", 5*time.Second),
		ScorerTimeout:        getEnvDuration("SCORER_TIMEOUT", 60*time.Second),
		RedisAddr:            getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		JWTSecret:            getEnvOrDefault("JWT_SECRET", "dev-secret-change-me"),
		SweepSchedule:        getEnvOrDefault("SWEEP_SCHEDULE", "@every 1m"),
		SweepStaleFor:        getEnvDuration("SWEEP_STALE_FOR", 2*time.Minute),
		AnswerDeadline:       getEnvDuration("ANSWER_DEADLINE", 0),
	}
	if err := validateConfig(config); err != nil {
		return nil, err
	}
	return config, nil
}

func validateConfig(config *Config) error {
	if config.ResumeScorerProvider != "resumeapi" && config.ResumeScorerProvider != "gemini" {
		return errors.New("unsupported resume scorer provider: " + config.ResumeScorerProvider + ". Currently supported: resumeapi, gemini")
	}
	if config.VideoScorerProvider != "videoapi" {
		return errors.New("unsupported video scorer provider: " + config.VideoScorerProvider + ". Currently supported: videoapi")
	}
	if config.ScoreMaxAttempts < 1 {
		return errors.New("SCORE_MAX_ATTEMPTS must be at least 1")
	}
	if config.ScorerTimeout <= 0 {
		return errors.New("SCORER_TIMEOUT must be positive")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
