package gemini

import (
	"context"
	"encoding/json"
	"strings"

	"google.golang.org/genai"

	"neurohire/pipeline/internal/prompts"
	"neurohire/pipeline/internal/scorers"
)

// Client scores resumes by prompting Gemini directly instead of going through
// the dedicated resume scoring service. Inference still happens on Google's
// side; this is just an alternative transport selected by configuration.
type Client struct {
	client  *genai.Client
	config  *Config
	prompts prompts.PromptProvider
}

func NewClient(config *Config) (*Client, error) {
	ctx := context.Background()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, &scorers.ScorerError{
			Scorer:  "gemini",
			Code:    scorers.ErrCodeAPIKey,
			Message: "Failed to create Gemini client",
			Err:     err,
		}
	}

	promptManager, err := prompts.NewPromptManager()
	if err != nil {
		return nil, &scorers.ScorerError{
			Scorer:  "gemini",
			Code:    scorers.ErrCodeInvalidInput,
			Message: "Failed to load prompt templates",
			Err:     err,
		}
	}

	return &Client{
		client:  client,
		config:  config,
		prompts: promptManager,
	}, nil
}

func (c *Client) Score(ctx context.Context, input scorers.ResumeInput) (*scorers.ResumeResult, error) {
	resume := input.ResumeText
	if resume == "" {
		resume = input.ResumeURL
	}

	prompt, err := c.prompts.BuildPrompt("resume_score", map[string]string{
		"JobTitle":        input.JobTitle,
		"JobRequirements": input.JobRequirements,
		"Resume":          resume,
	})
	if err != nil {
		return nil, &scorers.ScorerError{
			Scorer:  "gemini",
			Code:    scorers.ErrCodeInvalidInput,
			Message: "Failed to build scoring prompt",
			Err:     err,
		}
	}

	result, err := c.client.Models.GenerateContent(
		ctx,
		c.config.Model,
		genai.Text(prompt),
		nil,
	)
	if err != nil {
		return nil, &scorers.ScorerError{
			Scorer:  "gemini",
			Code:    scorers.ErrCodeServiceDown,
			Message: "Failed to generate resume score",
			Err:     err,
		}
	}
	if result == nil {
		return nil, &scorers.ScorerError{
			Scorer:  "gemini",
			Code:    scorers.ErrCodeInvalidInput,
			Message: "No response generated",
		}
	}

	text, err := result.Text()
	if err != nil {
		return nil, &scorers.ScorerError{
			Scorer:  "gemini",
			Code:    scorers.ErrCodeInvalidInput,
			Message: "Failed to extract response text",
			Err:     err,
		}
	}

	parsed, err := parseScoringOutput(text)
	if err != nil {
		return nil, &scorers.ScorerError{
			Scorer:  "gemini",
			Code:    scorers.ErrCodeInvalidInput,
			Message: "Resume scoring output could not be parsed",
			Err:     err,
		}
	}
	return parsed, nil
}

func (c *Client) Name() string {
	return "gemini"
}

type scoringOutput struct {
	Score            float64 `json:"score"`
	MatchingAnalysis string  `json:"matching_analysis"`
	Summary          string  `json:"summary"`
}

// parseScoringOutput strips markdown fences the model sometimes wraps its
// JSON in before decoding.
func parseScoringOutput(text string) (*scorers.ResumeResult, error) {
	cleaned := strings.TrimSpace(text)
	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
		cleaned = strings.TrimSpace(cleaned)
	}

	var out scoringOutput
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return nil, err
	}

	score := int(out.Score + 0.5)
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return &scorers.ResumeResult{
		Score:            score,
		MatchingAnalysis: out.MatchingAnalysis,
		Summary:          out.Summary,
		RawOutput:        text,
	}, nil
}
