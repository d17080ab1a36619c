package models

import (
	"strings"
)

type CreateApplicationRequest struct {
	CandidateID uint `json:"candidate_id"`
	JobID       uint `json:"job_id"`
}

// implements the Validator interface
func (r *CreateApplicationRequest) Validate() error {
	if r.CandidateID == 0 {
		return &ErrorResponse{
			Code:    "missing_candidate_id",
			Message: "candidate_id field is required",
		}
	}
	if r.JobID == 0 {
		return &ErrorResponse{
			Code:    "missing_job_id",
			Message: "job_id field is required",
		}
	}
	return nil
}

type RegisterResumeRequest struct {
	ArtifactURL string `json:"artifact_url"`
	ResumeText  string `json:"resume_text,omitempty"`
}

func (r *RegisterResumeRequest) Validate() error {
	if strings.TrimSpace(r.ArtifactURL) == "" {
		return &ErrorResponse{
			Code:    "invalid_reference",
			Message: "artifact_url must not be empty",
		}
	}
	return nil
}

type RegisterVideoRequest struct {
	QuestionIndex *int   `json:"question_index"`
	QuestionText  string `json:"question_text"`
	ArtifactURL   string `json:"artifact_url"`
}

func (r *RegisterVideoRequest) Validate() error {
	if strings.TrimSpace(r.ArtifactURL) == "" {
		return &ErrorResponse{
			Code:    "invalid_reference",
			Message: "artifact_url must not be empty",
		}
	}
	if r.QuestionIndex == nil || *r.QuestionIndex < 0 {
		return &ErrorResponse{
			Code:    "invalid_question_index",
			Message: "question_index must be a non-negative integer",
		}
	}
	if strings.TrimSpace(r.QuestionText) == "" {
		return &ErrorResponse{
			Code:    "missing_question_text",
			Message: "question_text field is required",
		}
	}
	return nil
}

type RecordDecisionRequest struct {
	Outcome string `json:"outcome"`
	Comment string `json:"comment,omitempty"`
}

func (r *RecordDecisionRequest) Validate() error {
	r.Outcome = strings.ToLower(strings.TrimSpace(r.Outcome))
	if r.Outcome == "" {
		return &ErrorResponse{
			Code:    "missing_outcome",
			Message: "outcome field is required",
		}
	}
	if !ValidOutcomes[r.Outcome] {
		return &ErrorResponse{
			Code:    "invalid_outcome",
			Message: "outcome must be one of: accept, interview, reject",
		}
	}
	return nil
}

type UpdateWeightsRequest struct {
	ResumeWeight *int `json:"resume_weight"`
	VideoWeight  *int `json:"video_weight"`
}

func (r *UpdateWeightsRequest) Validate() error {
	if r.ResumeWeight == nil || r.VideoWeight == nil {
		return &ErrorResponse{
			Code:    "missing_weights",
			Message: "resume_weight and video_weight fields are required",
		}
	}
	return nil
}

// Weights returns the requested pair as a value. The sum-100 invariant is
// checked by the repository, not here, so a violation maps to the
// weight-specific error code rather than a generic validation failure.
func (r *UpdateWeightsRequest) Weights() ScoringWeights {
	return ScoringWeights{Resume: *r.ResumeWeight, Video: *r.VideoWeight}
}
