package models

// Stage states. A row starts as pending when the artifact is registered,
// moves to dispatched when a scorer call is in flight, and ends succeeded or
// failed. Both terminal states count toward progress.
const (
	StagePending    = "pending"
	StageDispatched = "dispatched"
	StageSucceeded  = "succeeded"
	StageFailed     = "failed"
)

// Application statuses.
const (
	ApplicationPending   = "pending"
	ApplicationAccepted  = "accepted"
	ApplicationInterview = "interview"
	ApplicationRejected  = "rejected"
)

// Recommendation tiers and decision outcomes share the same vocabulary.
const (
	TierAccept    = "accept"
	TierInterview = "interview"
	TierReject    = "reject"
)

// Tier boundaries are closed and inclusive: 33/34 and 66/67 are the edges.
const (
	TierAcceptMin    = 67
	TierInterviewMin = 34
)

// RecommendationTier buckets a total score into the three-way recommendation.
func RecommendationTier(total int) string {
	switch {
	case total >= TierAcceptMin:
		return TierAccept
	case total >= TierInterviewMin:
		return TierInterview
	default:
		return TierReject
	}
}

// ValidOutcomes contains all decision outcomes a recruiter may record.
var ValidOutcomes = map[string]bool{
	TierAccept:    true,
	TierInterview: true,
	TierReject:    true,
}

// StatusForOutcome maps a decision outcome onto the application status that
// mirrors it.
func StatusForOutcome(outcome string) string {
	switch outcome {
	case TierAccept:
		return ApplicationAccepted
	case TierInterview:
		return ApplicationInterview
	default:
		return ApplicationRejected
	}
}

// TerminalStage reports whether a stage status counts as completed.
func TerminalStage(status string) bool {
	return status == StageSucceeded || status == StageFailed
}
