package repositories

import "errors"

var (
	ErrJobNotFound         = errors.New("job not found")
	ErrApplicationNotFound = errors.New("application not found")
	ErrInvalidReference    = errors.New("artifact reference is missing or empty")
	ErrQuestionIndexRange  = errors.New("question_index is outside the application's question range")
	ErrAlreadyDecided      = errors.New("application already has a recorded decision")
	ErrWeightInvariant     = errors.New("resume_weight and video_weight must sum to 100")
)
