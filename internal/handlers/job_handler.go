package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"neurohire/pipeline/internal/middleware"
	"neurohire/pipeline/internal/models"
	"neurohire/pipeline/internal/repositories"
	"neurohire/pipeline/internal/utils"
)

type JobHandler struct {
	jobs   *repositories.JobRepository
	logger *zap.Logger
}

func NewJobHandler(jobs *repositories.JobRepository, logger *zap.Logger) *JobHandler {
	return &JobHandler{jobs: jobs, logger: logger}
}

// UpdateWeightsHandler replaces a job's weight pair. A pair not summing to
// 100 is rejected outright and the stored weights stay as they were.
func (h *JobHandler) UpdateWeightsHandler(w http.ResponseWriter, r *http.Request) {
	jobID, ok := parseID(r)
	if !ok {
		writeInvalidID(w)
		return
	}
	req := middleware.GetValidatedRequest[*models.UpdateWeightsRequest](r)

	job, err := h.jobs.UpdateWeights(jobID, req.Weights())
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrWeightInvariant):
			utils.JSON(w, http.StatusBadRequest, models.ErrorResponse{
				Code:    "weight_invariant_violation",
				Message: "resume_weight and video_weight must sum to 100",
			})
		case errors.Is(err, repositories.ErrJobNotFound):
			utils.JSON(w, http.StatusNotFound, models.ErrorResponse{
				Code:    "unknown_job",
				Message: "Job does not exist",
			})
		default:
			h.logger.Error("Failed to update weights", zap.Uint("job_id", jobID), zap.Error(err))
			utils.JSON(w, http.StatusInternalServerError, models.ErrorResponse{
				Code:    "storage_error",
				Message: "Failed to update weights",
			})
		}
		return
	}

	h.logger.Info("Job weights updated",
		zap.Uint("job_id", jobID),
		zap.Int("resume_weight", job.ResumeWeight),
		zap.Int("video_weight", job.VideoWeight))

	utils.JSON(w, http.StatusOK, job)
}
