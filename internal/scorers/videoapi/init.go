package videoapi

import "neurohire/pipeline/internal/scorers"

// Register HTTP video scorer on package import
func init() {
	scorers.RegisterVideoScorer("videoapi", func() (scorers.VideoScorer, error) {
		config, err := NewConfig()
		if err != nil {
			return nil, err
		}
		return NewClient(config)
	})
}
