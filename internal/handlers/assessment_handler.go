package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"neurohire/pipeline/internal/models"
	"neurohire/pipeline/internal/repositories"
	"neurohire/pipeline/internal/scoring"
	"neurohire/pipeline/internal/utils"
)

type AssessmentHandler struct {
	progress   *scoring.ProgressEstimator
	aggregator *scoring.Aggregator
	analyses   *repositories.AnalysisRepository
	decisions  *repositories.DecisionRepository
	logger     *zap.Logger
}

func NewAssessmentHandler(
	progress *scoring.ProgressEstimator,
	aggregator *scoring.Aggregator,
	analyses *repositories.AnalysisRepository,
	decisions *repositories.DecisionRepository,
	logger *zap.Logger,
) *AssessmentHandler {
	return &AssessmentHandler{
		progress:   progress,
		aggregator: aggregator,
		analyses:   analyses,
		decisions:  decisions,
		logger:     logger,
	}
}

// ProgressHandler is the poll target. "Still processing" is never an error:
// the client sees complete=false until every stage is terminal.
func (h *AssessmentHandler) ProgressHandler(w http.ResponseWriter, r *http.Request) {
	applicationID, ok := parseID(r)
	if !ok {
		writeInvalidID(w)
		return
	}

	progress, err := h.progress.ComputeProgress(applicationID)
	if err != nil {
		h.writeReadError(w, applicationID, err)
		return
	}
	utils.JSON(w, http.StatusOK, progress)
}

// GetHandler returns the recruiter view. The aggregate is recomputed from
// the stage rows on every read; the materialized row is never trusted stale.
func (h *AssessmentHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	applicationID, ok := parseID(r)
	if !ok {
		writeInvalidID(w)
		return
	}

	assessment, err := h.aggregator.Recompute(applicationID)
	if err != nil {
		h.writeReadError(w, applicationID, err)
		return
	}

	resume, err := h.analyses.GetResume(applicationID)
	if err != nil {
		h.writeReadError(w, applicationID, err)
		return
	}
	videos, err := h.analyses.ListVideos(applicationID)
	if err != nil {
		h.writeReadError(w, applicationID, err)
		return
	}
	decision, err := h.decisions.GetByApplication(applicationID)
	if err != nil {
		h.writeReadError(w, applicationID, err)
		return
	}

	utils.JSON(w, http.StatusOK, models.AssessmentView{
		ApplicationID:  applicationID,
		ResumeScore:    assessment.ResumeScore,
		VideoScore:     assessment.VideoScore,
		TotalScore:     assessment.TotalScore,
		Recommendation: assessment.Recommendation,
		Partial:        assessment.Partial,
		Complete:       assessment.Complete,
		Resume:         resume,
		Videos:         videos,
		Decision:       decision,
	})
}

func (h *AssessmentHandler) writeReadError(w http.ResponseWriter, applicationID uint, err error) {
	if errors.Is(err, repositories.ErrApplicationNotFound) {
		utils.JSON(w, http.StatusNotFound, models.ErrorResponse{
			Code:    "unknown_application",
			Message: "Application does not exist",
		})
		return
	}
	h.logger.Error("Assessment read failed", zap.Uint("application_id", applicationID), zap.Error(err))
	utils.JSON(w, http.StatusInternalServerError, models.ErrorResponse{
		Code:    "storage_error",
		Message: "Failed to read assessment",
	})
}
