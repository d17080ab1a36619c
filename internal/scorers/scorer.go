package scorers

import (
	"context"
	"errors"
)

// ResumeInput carries everything the resume scoring service needs: the
// artifact reference (or extracted text, when the upload path supplied it)
// and the job side of the match.
type ResumeInput struct {
	ResumeURL       string
	ResumeText      string
	JobTitle        string
	JobRequirements string
}

// ResumeResult is the normalized output of a resume scorer. RawOutput keeps
// the provider's payload verbatim for audit.
type ResumeResult struct {
	Score            int
	MatchingAnalysis string
	Summary          string
	RawOutput        string
}

type VideoInput struct {
	VideoURL     string
	Role         string
	QuestionText string
}

// VideoResult is the normalized output of a video scorer. All scores are on
// the 0-100 scale; providers reporting 0-1 ratios scale up before returning.
type VideoResult struct {
	Score           int
	Confidence      int
	Clarity         int
	AnswerRelevance int
	SpeechAnalysis  string
	Transcript      string
	NeedsReview     bool
	RawOutput       string
}

// ResumeScorer scores one resume against one job.
type ResumeScorer interface {
	Score(ctx context.Context, input ResumeInput) (*ResumeResult, error)
	Name() string
}

// VideoScorer scores one recorded answer against its question.
type VideoScorer interface {
	Score(ctx context.Context, input VideoInput) (*VideoResult, error)
	Name() string
}

// Error codes. ServiceDown and Timeout are transient (eligible for retry);
// InvalidInput is permanent and marks the stage failed.
const (
	ErrCodeServiceDown  = "service_unavailable"
	ErrCodeTimeout      = "timeout"
	ErrCodeInvalidInput = "invalid_input"
	ErrCodeAPIKey       = "invalid_api_key"
)

// ScorerError is the typed failure every scorer returns.
type ScorerError struct {
	Scorer  string
	Code    string
	Message string
	Err     error
}

func (e *ScorerError) Error() string {
	if e.Err != nil {
		return e.Scorer + " error: " + e.Message + " (" + e.Err.Error() + ")"
	}
	return e.Scorer + " error: " + e.Message
}

func (e *ScorerError) Unwrap() error {
	return e.Err
}

// Transient reports whether the error is worth retrying.
func Transient(err error) bool {
	var serr *ScorerError
	if errors.As(err, &serr) {
		return serr.Code == ErrCodeServiceDown || serr.Code == ErrCodeTimeout
	}
	// Unclassified errors are treated as transient so a provider bug cannot
	// permanently fail a stage on the first attempt.
	return true
}
