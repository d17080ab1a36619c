package handlers

import (
	"net/http"

	"gorm.io/gorm"

	"neurohire/pipeline/internal/config"
	"neurohire/pipeline/internal/scorers"
	"neurohire/pipeline/internal/utils"
)

type ReadinessCheck struct {
	Status  string `json:"status"` // "ok" | "failed"
	Message string `json:"message,omitempty"`
}

type ReadinessResponse struct {
	Status  string                    `json:"status"`  // "ready" | "not_ready"
	Service string                    `json:"service"` // Service name
	Checks  map[string]ReadinessCheck `json:"checks"`  // Individual check results
}

type HealthHandler struct {
	db           *gorm.DB
	resumeScorer scorers.ResumeScorer
	videoScorer  scorers.VideoScorer
	config       *config.Config
}

func NewHealthHandler(db *gorm.DB, resumeScorer scorers.ResumeScorer, videoScorer scorers.VideoScorer, cfg *config.Config) *HealthHandler {
	return &HealthHandler{
		db:           db,
		resumeScorer: resumeScorer,
		videoScorer:  videoScorer,
		config:       cfg,
	}
}

func (handler *HealthHandler) HealthzHandler(writer http.ResponseWriter, request *http.Request) {
	utils.JSON(writer, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "pipeline",
		"version": "1.0.0",
	})
}

func (handler *HealthHandler) ReadyzHandler(writer http.ResponseWriter, request *http.Request) {
	checks := make(map[string]ReadinessCheck)
	allChecksPass := true

	// verify scorer clients are initialized
	if handler.resumeScorer == nil {
		checks["resume_scorer"] = ReadinessCheck{
			Status:  "failed",
			Message: "Resume scorer not initialized",
		}
		allChecksPass = false
	} else {
		checks["resume_scorer"] = ReadinessCheck{Status: "ok"}
	}

	if handler.videoScorer == nil {
		checks["video_scorer"] = ReadinessCheck{
			Status:  "failed",
			Message: "Video scorer not initialized",
		}
		allChecksPass = false
	} else {
		checks["video_scorer"] = ReadinessCheck{Status: "ok"}
	}

	// verify the database answers
	if handler.db == nil {
		checks["database"] = ReadinessCheck{
			Status:  "failed",
			Message: "Database not initialized",
		}
		allChecksPass = false
	} else {
		sqlDB, err := handler.db.DB()
		if err == nil {
			err = sqlDB.Ping()
		}
		if err != nil {
			checks["database"] = ReadinessCheck{
				Status:  "failed",
				Message: err.Error(),
			}
			allChecksPass = false
		} else {
			checks["database"] = ReadinessCheck{Status: "ok"}
		}
	}

	if handler.config == nil {
		checks["configuration"] = ReadinessCheck{
			Status:  "failed",
			Message: "Configuration not loaded",
		}
		allChecksPass = false
	} else {
		checks["configuration"] = ReadinessCheck{Status: "ok"}
	}

	response := ReadinessResponse{
		Service: "pipeline",
		Checks:  checks,
	}

	if allChecksPass {
		response.Status = "ready"
		utils.JSON(writer, http.StatusOK, response)
	} else {
		response.Status = "not_ready"
		utils.JSON(writer, http.StatusServiceUnavailable, response)
	}
}
