package routers

import (
	"neurohire/pipeline/internal/handlers"
	"neurohire/pipeline/internal/middleware"
	"neurohire/pipeline/internal/models"

	"github.com/go-chi/chi/v5"
)

func PipelineRoutes(
	router *chi.Mux,
	applicationHandler *handlers.ApplicationHandler,
	assessmentHandler *handlers.AssessmentHandler,
	decisionHandler *handlers.DecisionHandler,
	jobHandler *handlers.JobHandler,
) {
	router.Route("/api/v1/applications", func(r chi.Router) {
		r.With(middleware.ValidateRequest[*models.CreateApplicationRequest]()).Post("/", applicationHandler.CreateHandler)
		r.With(middleware.ValidateRequest[*models.RegisterResumeRequest]()).Post("/{id}/resume", applicationHandler.RegisterResumeHandler)
		r.With(middleware.ValidateRequest[*models.RegisterVideoRequest]()).Post("/{id}/videos", applicationHandler.RegisterVideoHandler)
		r.Get("/{id}/progress", assessmentHandler.ProgressHandler)
		r.Get("/{id}/assessment", assessmentHandler.GetHandler)
		r.With(middleware.ValidateRequest[*models.RecordDecisionRequest]()).Post("/{id}/decision", decisionHandler.RecordHandler)
		r.Delete("/{id}", applicationHandler.WithdrawHandler)
	})

	router.Route("/api/v1/jobs", func(r chi.Router) {
		r.With(middleware.ValidateRequest[*models.UpdateWeightsRequest]()).Put("/{id}/weights", jobHandler.UpdateWeightsHandler)
	})
}
