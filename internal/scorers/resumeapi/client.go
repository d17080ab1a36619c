package resumeapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"neurohire/pipeline/internal/scorers"
)

// Client calls the external resume scoring service over HTTP. The service
// returns a match score plus rationale for one resume against one job; model
// inference stays on the other side of the wire.
type Client struct {
	httpClient *http.Client
	config     *Config
}

func NewClient(config *Config) (*Client, error) {
	return &Client{
		// Deadlines come from the caller's context so the orchestrator's
		// configured timeout is the single bound on the call.
		httpClient: &http.Client{},
		config:     config,
	}, nil
}

type scoreRequest struct {
	ResumeURL       string `json:"resume_url,omitempty"`
	ResumeText      string `json:"resume_text,omitempty"`
	JobTitle        string `json:"job_title"`
	JobRequirements string `json:"job_requirements"`
}

func (c *Client) Score(ctx context.Context, input scorers.ResumeInput) (*scorers.ResumeResult, error) {
	payload, err := json.Marshal(scoreRequest{
		ResumeURL:       input.ResumeURL,
		ResumeText:      input.ResumeText,
		JobTitle:        input.JobTitle,
		JobRequirements: input.JobRequirements,
	})
	if err != nil {
		return nil, &scorers.ScorerError{
			Scorer:  "resumeapi",
			Code:    scorers.ErrCodeInvalidInput,
			Message: "Failed to encode scoring request",
			Err:     err,
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+c.config.Path, bytes.NewReader(payload))
	if err != nil {
		return nil, &scorers.ScorerError{
			Scorer:  "resumeapi",
			Code:    scorers.ErrCodeInvalidInput,
			Message: "Failed to build scoring request",
			Err:     err,
		}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		code := scorers.ErrCodeServiceDown
		if errors.Is(err, context.DeadlineExceeded) {
			code = scorers.ErrCodeTimeout
		}
		return nil, &scorers.ScorerError{
			Scorer:  "resumeapi",
			Code:    code,
			Message: "Resume scoring request failed",
			Err:     err,
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &scorers.ScorerError{
			Scorer:  "resumeapi",
			Code:    scorers.ErrCodeServiceDown,
			Message: "Failed to read scoring response",
			Err:     err,
		}
	}

	if resp.StatusCode >= 500 {
		return nil, &scorers.ScorerError{
			Scorer:  "resumeapi",
			Code:    scorers.ErrCodeServiceDown,
			Message: "Resume scoring service returned " + resp.Status,
		}
	}
	if resp.StatusCode >= 400 {
		return nil, &scorers.ScorerError{
			Scorer:  "resumeapi",
			Code:    scorers.ErrCodeInvalidInput,
			Message: "Resume scoring service rejected the request: " + resp.Status,
		}
	}

	result, err := parseResponse(body)
	if err != nil {
		return nil, &scorers.ScorerError{
			Scorer:  "resumeapi",
			Code:    scorers.ErrCodeInvalidInput,
			Message: "Resume scoring output could not be parsed",
			Err:     err,
		}
	}
	return result, nil
}

func (c *Client) Name() string {
	return "resumeapi"
}

// parseResponse normalizes the service payload. The upstream model is an LLM
// behind an API and its key casing drifts (score vs Total_score), so the
// parser accepts the known variants before giving up.
func parseResponse(body []byte) (*scorers.ResumeResult, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}

	score, ok := pickScore(raw, "score", "total_score", "Total_score", "cv_score")
	if !ok {
		return nil, errors.New("response contains no score field")
	}

	return &scorers.ResumeResult{
		Score:            clamp(score),
		MatchingAnalysis: pickString(raw, "matching_analysis", "cv_matching_analysis", "analysis"),
		Summary:          pickString(raw, "summary", "reason_summary", "cv_reason_summary"),
		RawOutput:        string(body),
	}, nil
}

func pickScore(raw map[string]interface{}, keys ...string) (int, bool) {
	for _, key := range keys {
		v, ok := raw[key]
		if !ok {
			continue
		}
		switch n := v.(type) {
		case float64:
			return int(n + 0.5), true
		case string:
			if i, err := strconv.Atoi(n); err == nil {
				return i, true
			}
		}
	}
	return 0, false
}

func pickString(raw map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if s, ok := raw[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
