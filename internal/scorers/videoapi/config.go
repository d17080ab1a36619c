package videoapi

import (
	"errors"
	"os"
)

// holds video analysis service configuration
type Config struct {
	BaseURL string
	Path    string
}

func NewConfig() (*Config, error) {
	baseURL := os.Getenv("VIDEO_SCORER_URL")
	if baseURL == "" {
		return nil, errors.New("VIDEO_SCORER_URL environment variable is required")
	}

	path := os.Getenv("VIDEO_SCORER_PATH")
	if path == "" {
		path = "/analyze" // default endpoint
	}

	return &Config{
		BaseURL: baseURL,
		Path:    path,
	}, nil
}
