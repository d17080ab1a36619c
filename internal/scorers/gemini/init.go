package gemini

import "neurohire/pipeline/internal/scorers"

// Register Gemini resume scorer on package import
func init() {
	scorers.RegisterResumeScorer("gemini", func() (scorers.ResumeScorer, error) {
		config, err := NewConfig()
		if err != nil {
			return nil, err
		}
		return NewClient(config)
	})
}
