package resumeapi

import "neurohire/pipeline/internal/scorers"

// Register HTTP resume scorer on package import
func init() {
	scorers.RegisterResumeScorer("resumeapi", func() (scorers.ResumeScorer, error) {
		config, err := NewConfig()
		if err != nil {
			return nil, err
		}
		return NewClient(config)
	})
}
