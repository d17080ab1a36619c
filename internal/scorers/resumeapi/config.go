package resumeapi

import (
	"errors"
	"os"
)

// holds resume scoring service configuration
type Config struct {
	BaseURL string
	Path    string
}

func NewConfig() (*Config, error) {
	baseURL := os.Getenv("RESUME_SCORER_URL")
	if baseURL == "" {
		return nil, errors.New("RESUME_SCORER_URL environment variable is required")
	}

	path := os.Getenv("RESUME_SCORER_PATH")
	if path == "" {
		path = "/analyze_cv" // default endpoint
	}

	return &Config{
		BaseURL: baseURL,
		Path:    path,
	}, nil
}
