package registry

import (
	"neurohire/pipeline/internal/models"
	"neurohire/pipeline/internal/repositories"
)

// Dispatcher is the orchestrator surface the registry needs: fire-and-forget
// stage dispatch.
type Dispatcher interface {
	DispatchResume(applicationID uint)
	DispatchVideo(applicationID uint, questionIndex int)
}

// ArtifactRegistry records that an external artifact is uploaded and ready
// for analysis, then hands the stage to the orchestrator. Registration never
// waits for scoring.
type ArtifactRegistry struct {
	apps       *repositories.ApplicationRepository
	analyses   *repositories.AnalysisRepository
	decisions  *repositories.DecisionRepository
	dispatcher Dispatcher
}

func New(
	apps *repositories.ApplicationRepository,
	analyses *repositories.AnalysisRepository,
	decisions *repositories.DecisionRepository,
	dispatcher Dispatcher,
) *ArtifactRegistry {
	return &ArtifactRegistry{
		apps:       apps,
		analyses:   analyses,
		decisions:  decisions,
		dispatcher: dispatcher,
	}
}

// RegisterResume records a resume artifact and dispatches the resume stage.
// A re-upload replaces the analysis with a fresh pending row; once a decision
// exists the application is closed and re-uploads are rejected.
func (r *ArtifactRegistry) RegisterResume(applicationID uint, artifactURL, resumeText string) (*models.ResumeAnalysis, error) {
	if _, err := r.apps.GetByID(applicationID); err != nil {
		return nil, err
	}

	decision, err := r.decisions.GetByApplication(applicationID)
	if err != nil {
		return nil, err
	}
	if decision != nil {
		return nil, repositories.ErrAlreadyDecided
	}

	analysis, err := r.analyses.ReplaceResume(applicationID, artifactURL, resumeText)
	if err != nil {
		return nil, err
	}

	r.dispatcher.DispatchResume(applicationID)
	return analysis, nil
}

// RegisterVideo records one recorded answer. Re-submission for the same
// question index replaces the row (datastore-enforced), never appends. The
// index must fall inside the question range frozen at application creation;
// a row outside it would never count toward the expected stage total.
func (r *ArtifactRegistry) RegisterVideo(applicationID uint, questionIndex int, questionText, artifactURL string) (*models.VideoSubmission, error) {
	app, err := r.apps.GetByID(applicationID)
	if err != nil {
		return nil, err
	}
	if questionIndex < 0 || questionIndex >= app.ExpectedStages-1 {
		return nil, repositories.ErrQuestionIndexRange
	}

	submission, err := r.analyses.UpsertVideo(applicationID, questionIndex, questionText, artifactURL)
	if err != nil {
		return nil, err
	}

	r.dispatcher.DispatchVideo(applicationID, questionIndex)
	return submission, nil
}
