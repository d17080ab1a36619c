package scorers

import "fmt"

type ResumeScorerFactory func() (ResumeScorer, error)
type VideoScorerFactory func() (VideoScorer, error)

// global registries of available scorer providers
var (
	resumeScorers = make(map[string]ResumeScorerFactory)
	videoScorers  = make(map[string]VideoScorerFactory)
)

// RegisterResumeScorer registers a resume scorer factory with the given name.
func RegisterResumeScorer(name string, factory ResumeScorerFactory) {
	resumeScorers[name] = factory
}

func RegisterVideoScorer(name string, factory VideoScorerFactory) {
	videoScorers[name] = factory
}

// NewResumeScorer creates a scorer instance for the configured provider name.
func NewResumeScorer(name string) (ResumeScorer, error) {
	factory, exists := resumeScorers[name]
	if !exists {
		return nil, fmt.Errorf("unsupported resume scorer provider: %s", name)
	}
	return factory()
}

func NewVideoScorer(name string) (VideoScorer, error) {
	factory, exists := videoScorers[name]
	if !exists {
		return nil, fmt.Errorf("unsupported video scorer provider: %s", name)
	}
	return factory()
}
