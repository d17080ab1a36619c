package videoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"neurohire/pipeline/internal/scorers"
)

// Client calls the external video analysis pipeline. The pipeline downloads
// the recording itself; this side only ever ships the artifact URL plus the
// question being answered.
type Client struct {
	httpClient *http.Client
	config     *Config
}

func NewClient(config *Config) (*Client, error) {
	return &Client{
		httpClient: &http.Client{},
		config:     config,
	}, nil
}

type analyzeRequest struct {
	VideoURL string `json:"video_url"`
	Role     string `json:"role"`
	Question string `json:"question"`
}

// analyzeResponse mirrors the analysis pipeline's shape: a transcript, visual
// engagement metrics as 0-1 ratios, and an LLM grading block.
type analyzeResponse struct {
	Transcript     string `json:"transcript"`
	VisualAnalysis struct {
		FacePresenceRatio     *float64 `json:"face_presence_ratio"`
		CameraEngagementRatio *float64 `json:"camera_engagement_ratio"`
		YawVariance           *float64 `json:"yaw_variance"`
		VisualConfidenceScore *float64 `json:"visual_confidence_score"`
		NeedsReview           bool     `json:"needs_review"`
	} `json:"visual_analysis"`
	Grading struct {
		Scores struct {
			Relevance *float64 `json:"relevance"`
			Clarity   *float64 `json:"clarity"`
		} `json:"scores"`
		Summary string `json:"summary"`
	} `json:"grading"`
}

func (c *Client) Score(ctx context.Context, input scorers.VideoInput) (*scorers.VideoResult, error) {
	payload, err := json.Marshal(analyzeRequest{
		VideoURL: input.VideoURL,
		Role:     input.Role,
		Question: input.QuestionText,
	})
	if err != nil {
		return nil, &scorers.ScorerError{
			Scorer:  "videoapi",
			Code:    scorers.ErrCodeInvalidInput,
			Message: "Failed to encode analysis request",
			Err:     err,
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+c.config.Path, bytes.NewReader(payload))
	if err != nil {
		return nil, &scorers.ScorerError{
			Scorer:  "videoapi",
			Code:    scorers.ErrCodeInvalidInput,
			Message: "Failed to build analysis request",
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
			Scorer:  "videoapi",
			Code:    code,
			Message: "Video analysis request failed",
			Err:     err,
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &scorers.ScorerError{
			Scorer:  "videoapi",
			Code:    scorers.ErrCodeServiceDown,
			Message: "Failed to read analysis response",
			Err:     err,
		}
	}

	if resp.StatusCode >= 500 {
		return nil, &scorers.ScorerError{
			Scorer:  "videoapi",
			Code:    scorers.ErrCodeServiceDown,
			Message: "Video analysis service returned " + resp.Status,
		}
	}
	if resp.StatusCode >= 400 {
		return nil, &scorers.ScorerError{
			Scorer:  "videoapi",
			Code:    scorers.ErrCodeInvalidInput,
			Message: "Video analysis service rejected the request: " + resp.Status,
		}
	}

	var parsed analyzeResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &scorers.ScorerError{
			Scorer:  "videoapi",
			Code:    scorers.ErrCodeInvalidInput,
			Message: "Video analysis output could not be parsed",
			Err:     err,
		}
	}
	if parsed.Grading.Scores.Relevance == nil && parsed.Grading.Scores.Clarity == nil &&
		parsed.VisualAnalysis.VisualConfidenceScore == nil {
		return nil, &scorers.ScorerError{
			Scorer:  "videoapi",
			Code:    scorers.ErrCodeInvalidInput,
			Message: "Video analysis response contains no scores",
		}
	}

	confidence := toPercent(parsed.VisualAnalysis.VisualConfidenceScore)
	clarity := toPercent(parsed.Grading.Scores.Clarity)
	relevance := toPercent(parsed.Grading.Scores.Relevance)

	return &scorers.VideoResult{
		// The per-question score is the mean of the three sub-metrics.
		Score:           (confidence + clarity + relevance + 1) / 3,
		Confidence:      confidence,
		Clarity:         clarity,
		AnswerRelevance: relevance,
		SpeechAnalysis:  parsed.Grading.Summary,
		Transcript:      parsed.Transcript,
		NeedsReview:     parsed.VisualAnalysis.NeedsReview,
		RawOutput:       string(body),
	}, nil
}

func (c *Client) Name() string {
	return "videoapi"
}

// toPercent scales a 0-1 ratio to the 0-100 integer scale. Values already
// above 1 are assumed to be percentages and only clamped.
func toPercent(v *float64) int {
	if v == nil {
		return 0
	}
	f := *v
	if f <= 1.0 {
		f *= 100
	}
	n := int(f + 0.5)
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}
