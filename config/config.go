package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	RedisPrefix     string
	PendingQueue    string
	ProcessingQueue string
	FailedQueue     string
	WorkerCount     int

	YtdlpPath   string
	FFmpegPath  string
	WhisperPath string
	ModelDir    string

	DefaultModelSize string
	MaxFileSize      string
	TempDir          string
	ResultTTL        time.Duration

	DownloadTimeout time.Duration
	FFmpegTimeout   time.Duration
	JobSoftLimit    time.Duration
	JobHardLimit    time.Duration

	// Exposed for parity with deployment manifests; the pipeline never
	// retries a failed job and the worker does not rate limit.
	MaxRetries         int
	RateLimitPerMinute int

	DatabaseURL string

	S3Bucket       string
	S3Region       string
	S3AccessKey    string
	S3SecretKey    string
	S3Endpoint     string
	S3UsePathStyle bool
}

func Load() *Config {
	redisPrefix := getEnv("REDIS_PREFIX", "")

	dbHost := getEnv("DB_HOST", "")
	dbPort := getEnv("DB_PORT", "5432")
	dbName := getEnv("DB_DATABASE", "transcriber")
	dbUser := getEnv("DB_USERNAME", "transcriber")
	dbPassword := getEnv("DB_PASSWORD", "")
	dbSSLMode := getEnv("DB_SSLMODE", "disable")

	// lib/pq supports "key=value" connection strings and this avoids
	// URI escaping issues for special characters in passwords. Leaving
	// DB_HOST unset disables the archive entirely.
	var dbURL string
	if dbHost != "" {
		if dbPassword != "" {
			dbURL = fmt.Sprintf(
				"host=%s port=%s dbname=%s user=%s password=%s sslmode=%s",
				dbHost, dbPort, dbName, dbUser, dbPassword, dbSSLMode,
			)
		} else {
			dbURL = fmt.Sprintf(
				"host=%s port=%s dbname=%s user=%s sslmode=%s",
				dbHost, dbPort, dbName, dbUser, dbSSLMode,
			)
		}
	}

	return &Config{
		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		RedisPrefix:   redisPrefix,
		PendingQueue:  applyPrefix(getEnv("TRANSCRIBE_PENDING_QUEUE", "transcribe:pending"), redisPrefix),
		ProcessingQueue: applyPrefix(
			getEnv("TRANSCRIBE_PROCESSING_QUEUE", "transcribe:processing"),
			redisPrefix,
		),
		FailedQueue: applyPrefix(
			getEnv("TRANSCRIBE_FAILED_QUEUE", "transcribe:failed"),
			redisPrefix,
		),
		WorkerCount: getEnvInt("TRANSCRIBE_WORKER_COUNT", 2),

		YtdlpPath:   getEnv("YTDLP_PATH", "yt-dlp"),
		FFmpegPath:  getEnv("FFMPEG_PATH", "ffmpeg"),
		WhisperPath: getEnv("WHISPER_PATH", "whisper.cpp"),
		ModelDir:    getEnv("WHISPER_MODEL_DIR", "/var/lib/transcriber/models"),

		DefaultModelSize: getEnv("DEFAULT_MODEL_SIZE", "small"),
		MaxFileSize:      getEnv("MAX_FILE_SIZE", "500M"),
		TempDir:          getEnv("TEMP_DIR", os.TempDir()),
		ResultTTL:        getEnvDuration("RESULT_TTL", 24*time.Hour),

		DownloadTimeout: getEnvDuration("DOWNLOAD_TIMEOUT", 10*time.Minute),
		FFmpegTimeout:   getEnvDuration("FFMPEG_TIMEOUT", 5*time.Minute),
		JobSoftLimit:    getEnvDuration("JOB_SOFT_TIME_LIMIT", 55*time.Minute),
		JobHardLimit:    getEnvDuration("JOB_TIME_LIMIT", 60*time.Minute),

		MaxRetries:         getEnvInt("MAX_RETRIES", 3),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 10),

		DatabaseURL: dbURL,

		S3Bucket: getEnv("AWS_BUCKET", ""),
		// Prefer unified S3_* vars, fall back to legacy AWS_* vars
		S3Region:       getEnvWithFallback("S3_REGION", "AWS_DEFAULT_REGION", "us-east-1"),
		S3AccessKey:    getEnvWithFallback("S3_KEY", "AWS_ACCESS_KEY_ID", ""),
		S3SecretKey:    getEnvWithFallback("S3_SECRET", "AWS_SECRET_ACCESS_KEY", ""),
		S3Endpoint:     getEnv("S3_ENDPOINT", ""),
		S3UsePathStyle: getEnvBool("S3_USE_PATH_STYLE_ENDPOINT", false),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvWithFallback(primaryKey, secondaryKey, fallback string) string {
	if value := os.Getenv(primaryKey); value != "" {
		return value
	}
	if value := os.Getenv(secondaryKey); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvDuration reads a duration expressed in whole seconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return fallback
}

func applyPrefix(key string, prefix string) string {
	if prefix == "" {
		return key
	}
	return prefix + key
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		switch strings.ToLower(value) {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
	}
	return fallback
}
