package models

// uniform error responses
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *ErrorResponse) Error() string {
	return e.Message
}

// Progress is the completion signal the UI polls until Complete is true.
type Progress struct {
	ApplicationID uint `json:"applicationId"`
	Percent       int  `json:"percent"`
	Complete      bool `json:"complete"`
}

// AssessmentView is the recruiter-facing read model: the aggregate plus the
// per-question breakdown.
type AssessmentView struct {
	ApplicationID  uint              `json:"applicationId"`
	ResumeScore    *int              `json:"resumeScore"`
	VideoScore     *int              `json:"videoScore"`
	TotalScore     *int              `json:"totalScore"`
	Recommendation string            `json:"recommendation,omitempty"`
	Partial        bool              `json:"partial"`
	Complete       bool              `json:"complete"`
	Resume         *ResumeAnalysis   `json:"resume,omitempty"`
	Videos         []VideoSubmission `json:"videos"`
	Decision       *Decision         `json:"decision,omitempty"`
}
