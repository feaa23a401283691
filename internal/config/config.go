// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	// this will automatically load your .env file:
	_ "github.com/joho/godotenv/autoload"
)

type Config struct {
	Server     ServerConfig
	Processing ProcessingConfig
	Store      StoreConfig
	Dify       DifyConfig
}

type ServerConfig struct {
	Port           string
	UploadDir      string
	MaxContentSize int64
}

type ProcessingConfig struct {
	MaxParagraphs        int
	MaxWordsPerParagraph int
	Timeout              time.Duration
	Retention            time.Duration
	Workers              int
	QueueSize            int
}

type StoreConfig struct {
	// Path to a SQLite database file. Empty selects the in-memory store.
	DBPath string
}

type DifyConfig struct {
	APIKey string
	APIURL string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:           getenv("PORT", "8080"),
			UploadDir:      getenv("UPLOAD_DIR", "uploads"),
			MaxContentSize: 16 * 1024 * 1024,
		},
		Processing: ProcessingConfig{
			MaxParagraphs:        1000,
			MaxWordsPerParagraph: 1000,
			Timeout:              300 * time.Second,
			Retention:            24 * time.Hour,
			Workers:              4,
			QueueSize:            64,
		},
		Store: StoreConfig{
			DBPath: os.Getenv("JOB_DB"),
		},
		Dify: DifyConfig{
			APIKey: os.Getenv("DIFY_API_KEY"),
			APIURL: getenv("DIFY_API_URL", "https://api.dify.ai/v1"),
		},
	}

	var err error
	if cfg.Server.MaxContentSize, err = envInt64("MAX_CONTENT_LENGTH", cfg.Server.MaxContentSize); err != nil {
		return nil, err
	}
	if cfg.Processing.MaxParagraphs, err = envInt("MAX_PARAGRAPHS", cfg.Processing.MaxParagraphs); err != nil {
		return nil, err
	}
	if cfg.Processing.MaxWordsPerParagraph, err = envInt("MAX_WORDS_PER_PARAGRAPH", cfg.Processing.MaxWordsPerParagraph); err != nil {
		return nil, err
	}
	if cfg.Processing.Workers, err = envInt("WORKER_COUNT", cfg.Processing.Workers); err != nil {
		return nil, err
	}
	if cfg.Processing.QueueSize, err = envInt("QUEUE_SIZE", cfg.Processing.QueueSize); err != nil {
		return nil, err
	}
	if cfg.Processing.Timeout, err = envSeconds("PROCESSING_TIMEOUT", cfg.Processing.Timeout); err != nil {
		return nil, err
	}
	if cfg.Processing.Retention, err = envSeconds("RETENTION_WINDOW", cfg.Processing.Retention); err != nil {
		return nil, err
	}

	if cfg.Processing.Workers < 1 {
		cfg.Processing.Workers = 1
	}
	if cfg.Processing.QueueSize < 1 {
		cfg.Processing.QueueSize = 1
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}

func envInt64(key string, fallback int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}

func envSeconds(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return time.Duration(n) * time.Second, nil
}
