package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"neurohire/pipeline/internal/middleware"
	"neurohire/pipeline/internal/models"
	"neurohire/pipeline/internal/registry"
	"neurohire/pipeline/internal/repositories"
	"neurohire/pipeline/internal/utils"
)

type ApplicationHandler struct {
	apps     *repositories.ApplicationRepository
	registry *registry.ArtifactRegistry
	logger   *zap.Logger
}

func NewApplicationHandler(apps *repositories.ApplicationRepository, artifactRegistry *registry.ArtifactRegistry, logger *zap.Logger) *ApplicationHandler {
	return &ApplicationHandler{
		apps:     apps,
		registry: artifactRegistry,
		logger:   logger,
	}
}

// parseID reads the {id} route param as an application/job identifier.
func parseID(r *http.Request) (uint, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func writeInvalidID(w http.ResponseWriter) {
	utils.JSON(w, http.StatusBadRequest, models.ErrorResponse{
		Code:    "invalid_id",
		Message: "Route id must be a positive integer",
	})
}

func (h *ApplicationHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	req := middleware.GetValidatedRequest[*models.CreateApplicationRequest](r)

	app, err := h.apps.Create(req.CandidateID, req.JobID)
	if err != nil {
		if errors.Is(err, repositories.ErrJobNotFound) {
			utils.JSON(w, http.StatusNotFound, models.ErrorResponse{
				Code:    "unknown_job",
				Message: "Job does not exist",
			})
			return
		}
		h.logger.Error("Failed to create application", zap.Error(err))
		utils.JSON(w, http.StatusInternalServerError, models.ErrorResponse{
			Code:    "storage_error",
			Message: "Failed to create application",
		})
		return
	}

	h.logger.Info("Application created",
		zap.Uint("application_id", app.ID),
		zap.Uint("job_id", app.JobID),
		zap.Int("expected_stages", app.ExpectedStages))

	utils.JSON(w, http.StatusCreated, app)
}

func (h *ApplicationHandler) RegisterResumeHandler(w http.ResponseWriter, r *http.Request) {
	applicationID, ok := parseID(r)
	if !ok {
		writeInvalidID(w)
		return
	}
	req := middleware.GetValidatedRequest[*models.RegisterResumeRequest](r)

	analysis, err := h.registry.RegisterResume(applicationID, req.ArtifactURL, req.ResumeText)
	if err != nil {
		h.writeRegistryError(w, applicationID, err)
		return
	}

	h.logger.Info("Resume artifact registered", zap.Uint("application_id", applicationID))
	utils.JSON(w, http.StatusAccepted, analysis)
}

func (h *ApplicationHandler) RegisterVideoHandler(w http.ResponseWriter, r *http.Request) {
	applicationID, ok := parseID(r)
	if !ok {
		writeInvalidID(w)
		return
	}
	req := middleware.GetValidatedRequest[*models.RegisterVideoRequest](r)

	submission, err := h.registry.RegisterVideo(applicationID, *req.QuestionIndex, req.QuestionText, req.ArtifactURL)
	if err != nil {
		h.writeRegistryError(w, applicationID, err)
		return
	}

	h.logger.Info("Video artifact registered",
		zap.Uint("application_id", applicationID),
		zap.Int("question_index", *req.QuestionIndex))
	utils.JSON(w, http.StatusAccepted, submission)
}

// WithdrawHandler removes an application. In-flight scorer calls are allowed
// to finish; the orchestrator discards their results once the row is gone.
func (h *ApplicationHandler) WithdrawHandler(w http.ResponseWriter, r *http.Request) {
	applicationID, ok := parseID(r)
	if !ok {
		writeInvalidID(w)
		return
	}

	if err := h.apps.Delete(applicationID); err != nil {
		if errors.Is(err, repositories.ErrApplicationNotFound) {
			utils.JSON(w, http.StatusNotFound, models.ErrorResponse{
				Code:    "unknown_application",
				Message: "Application does not exist",
			})
			return
		}
		h.logger.Error("Failed to withdraw application", zap.Uint("application_id", applicationID), zap.Error(err))
		utils.JSON(w, http.StatusInternalServerError, models.ErrorResponse{
			Code:    "storage_error",
			Message: "Failed to withdraw application",
		})
		return
	}

	h.logger.Info("Application withdrawn", zap.Uint("application_id", applicationID))
	w.WriteHeader(http.StatusNoContent)
}

func (h *ApplicationHandler) writeRegistryError(w http.ResponseWriter, applicationID uint, err error) {
	switch {
	case errors.Is(err, repositories.ErrApplicationNotFound):
		utils.JSON(w, http.StatusNotFound, models.ErrorResponse{
			Code:    "unknown_application",
			Message: "Application does not exist",
		})
	case errors.Is(err, repositories.ErrInvalidReference):
		utils.JSON(w, http.StatusBadRequest, models.ErrorResponse{
			Code:    "invalid_reference",
			Message: "Artifact reference is missing or empty",
		})
	case errors.Is(err, repositories.ErrQuestionIndexRange):
		utils.JSON(w, http.StatusBadRequest, models.ErrorResponse{
			Code:    "invalid_question_index",
			Message: "question_index is outside the application's question range",
		})
	case errors.Is(err, repositories.ErrAlreadyDecided):
		utils.JSON(w, http.StatusConflict, models.ErrorResponse{
			Code:    "already_decided",
			Message: "Application already has a recorded decision",
		})
	default:
		h.logger.Error("Artifact registration failed", zap.Uint("application_id", applicationID), zap.Error(err))
		utils.JSON(w, http.StatusInternalServerError, models.ErrorResponse{
			Code:    "storage_error",
			Message: "Failed to register artifact",
		})
	}
}
