package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"neurohire/pipeline/internal/decisions"
	"neurohire/pipeline/internal/middleware"
	"neurohire/pipeline/internal/models"
	"neurohire/pipeline/internal/repositories"
	"neurohire/pipeline/internal/utils"
)

type DecisionHandler struct {
	recorder  *decisions.Recorder
	jwtSecret string
	logger    *zap.Logger
}

func NewDecisionHandler(recorder *decisions.Recorder, jwtSecret string, logger *zap.Logger) *DecisionHandler {
	return &DecisionHandler{
		recorder:  recorder,
		jwtSecret: jwtSecret,
		logger:    logger,
	}
}

// RecordHandler writes the recruiter's terminal decision. The recruiter
// identity comes from the bearer token the web layer forwards; ownership
// checks happen upstream.
func (h *DecisionHandler) RecordHandler(w http.ResponseWriter, r *http.Request) {
	applicationID, ok := parseID(r)
	if !ok {
		writeInvalidID(w)
		return
	}

	claims, err := utils.VerifyToken(r, h.jwtSecret)
	if err != nil {
		utils.JSON(w, http.StatusUnauthorized, models.ErrorResponse{
			Code:    "unauthorized",
			Message: err.Error(),
		})
		return
	}
	recruiterID, err := utils.GetRecruiterIDFromClaims(claims)
	if err != nil {
		utils.JSON(w, http.StatusUnauthorized, models.ErrorResponse{
			Code:    "unauthorized",
			Message: err.Error(),
		})
		return
	}

	req := middleware.GetValidatedRequest[*models.RecordDecisionRequest](r)

	decision, err := h.recorder.Record(applicationID, recruiterID, req.Outcome, req.Comment)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrApplicationNotFound):
			utils.JSON(w, http.StatusNotFound, models.ErrorResponse{
				Code:    "unknown_application",
				Message: "Application does not exist",
			})
		case errors.Is(err, repositories.ErrAlreadyDecided):
			utils.JSON(w, http.StatusConflict, models.ErrorResponse{
				Code:    "already_decided",
				Message: "Application already has a recorded decision",
			})
		default:
			h.logger.Error("Failed to record decision", zap.Uint("application_id", applicationID), zap.Error(err))
			utils.JSON(w, http.StatusInternalServerError, models.ErrorResponse{
				Code:    "storage_error",
				Message: "Failed to record decision",
			})
		}
		return
	}

	h.logger.Info("Decision recorded",
		zap.Uint("application_id", applicationID),
		zap.String("outcome", decision.Outcome),
		zap.Bool("override", decision.Override),
		zap.String("recruiter_id", decision.RecruiterID))

	utils.JSON(w, http.StatusCreated, decision)
}
