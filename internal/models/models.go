package models

import (
	"time"

	"gorm.io/gorm"
)

// Job is the posting an application targets. The weight pair controls how the
// resume and video components combine into a total score; the CHECK constraint
// keeps the sum-100 invariant standing in the database, independent of the
// write-time validation in the repository.
type Job struct {
	gorm.Model
	Title        string `gorm:"not null" json:"title"`
	Description  string `gorm:"type:text" json:"description"`
	Requirements string `gorm:"type:text" json:"requirements"`
	Status       string `gorm:"not null;default:'open'" json:"status"` // "open" or "closed"
	ResumeWeight int    `gorm:"not null;default:50;check:weights_sum_100,resume_weight + video_weight = 100" json:"resumeWeight"`
	VideoWeight  int    `gorm:"not null;default:50" json:"videoWeight"`

	Questions []JobQuestion `gorm:"constraint:OnDelete:CASCADE" json:"questions,omitempty"`
}

// JobQuestion is one interview question attached to a job.
type JobQuestion struct {
	gorm.Model
	JobID         uint   `gorm:"not null;index" json:"jobId"`
	QuestionIndex int    `gorm:"not null" json:"questionIndex"`
	Text          string `gorm:"type:text;not null" json:"text"`
}

// Application pairs one candidate with one job.
//
// ExpectedStages is fixed when the application is created (1 resume stage plus
// the job's question count at that moment). Editing the job's question list
// later never re-scores an in-flight application.
type Application struct {
	gorm.Model
	CandidateID    uint   `gorm:"not null;index" json:"candidateId"`
	JobID          uint   `gorm:"not null;index" json:"jobId"`
	Status         string `gorm:"not null;default:'pending'" json:"status"`
	ExpectedStages int    `gorm:"not null" json:"expectedStages"`
	NeedsReview    bool   `gorm:"not null;default:false" json:"needsReview"`
}

// ResumeAnalysis tracks the resume stage for an application. There is one
// active row per application; a re-upload replaces the row wholesale rather
// than mutating scores in place.
type ResumeAnalysis struct {
	gorm.Model
	ApplicationID    uint   `gorm:"not null;index" json:"applicationId"`
	ArtifactURL      string `gorm:"not null" json:"artifactUrl"`
	ResumeText       string `gorm:"type:text" json:"-"`
	Status           string `gorm:"not null;default:'pending';index" json:"status"`
	Score            *int   `json:"score"`
	MatchingAnalysis string `gorm:"type:text" json:"matchingAnalysis"`
	Summary          string `gorm:"type:text" json:"summary"`
	RawOutput        string `gorm:"type:text" json:"-"` // opaque model payload, kept for audit
	Attempts         int    `gorm:"not null;default:0" json:"attempts"`
	LastError        string `json:"lastError,omitempty"`
}

// VideoSubmission is one recorded answer for one question index. The composite
// unique index makes re-submission for the same question a replace, enforced
// by the datastore rather than application-level locking.
type VideoSubmission struct {
	gorm.Model
	ApplicationID   uint   `gorm:"not null;uniqueIndex:idx_application_question" json:"applicationId"`
	QuestionIndex   int    `gorm:"not null;uniqueIndex:idx_application_question" json:"questionIndex"`
	QuestionText    string `gorm:"type:text" json:"questionText"`
	ArtifactURL     string `gorm:"not null" json:"artifactUrl"`
	Status          string `gorm:"not null;default:'pending';index" json:"status"`
	Score           *int   `json:"score"`
	Confidence      *int   `json:"confidence"`
	Clarity         *int   `json:"clarity"`
	AnswerRelevance *int   `json:"answerRelevance"`
	SpeechAnalysis  string `gorm:"type:text" json:"speechAnalysis"`
	Transcript      string `gorm:"type:text" json:"transcript"`
	NeedsReview     bool   `gorm:"not null;default:false" json:"needsReview"`
	RawOutput       string `gorm:"type:text" json:"-"`
	Attempts        int    `gorm:"not null;default:0" json:"attempts"`
	LastError       string `json:"lastError,omitempty"`
}

// AggregateAssessment is the materialized output of the score aggregator, one
// row per application, overwritten on every recompute. It is never a source
// of truth: the aggregator derives it from the stage rows each time.
type AggregateAssessment struct {
	gorm.Model
	ApplicationID  uint    `gorm:"not null;uniqueIndex" json:"applicationId"`
	ResumeScore    *int    `json:"resumeScore"`
	VideoScore     *int    `json:"videoScore"`
	TotalScore     *int    `json:"totalScore"`
	Recommendation string  `json:"recommendation,omitempty"`
	Partial        bool    `gorm:"not null;default:false" json:"partial"`
	Complete       bool    `gorm:"not null;default:false" json:"complete"`
}

// Decision is the recruiter's terminal call on an application. Write-once:
// the unique index on application id plus the repository check make a second
// decision an error, not an update.
type Decision struct {
	gorm.Model
	Reference     string    `gorm:"not null;uniqueIndex" json:"reference"` // opaque id for audit exports
	ApplicationID uint      `gorm:"not null;uniqueIndex" json:"applicationId"`
	Outcome       string    `gorm:"not null" json:"outcome"`
	Override      bool      `gorm:"not null" json:"override"`
	Comment       string    `gorm:"type:text" json:"comment"`
	RecruiterID   string    `gorm:"not null" json:"recruiterId"`
	DecidedAt     time.Time `gorm:"not null" json:"decidedAt"`
}

// ScoringWeights is the immutable per-job weight pair, fetched once per
// aggregation call and passed by value into the pure computation.
type ScoringWeights struct {
	Resume int
	Video  int
}

// Valid reports whether the pair satisfies the sum-100 invariant.
func (w ScoringWeights) Valid() bool {
	return w.Resume >= 0 && w.Video >= 0 && w.Resume+w.Video == 100
}
