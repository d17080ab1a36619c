package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"neurohire/pipeline/internal/models"
	"neurohire/pipeline/internal/repositories"
	"neurohire/pipeline/internal/scoring"
	"neurohire/pipeline/internal/testhelpers"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newAssessmentHandlerWithDB(t *testing.T) (*AssessmentHandler, *gorm.DB) {
	t.Helper()
	db := testhelpers.SetupTestDB(t)
	return NewAssessmentHandler(
		scoring.NewProgressEstimator(db),
		scoring.NewAggregator(db),
		&repositories.AnalysisRepository{DB: db},
		&repositories.DecisionRepository{DB: db},
		zap.NewNop(),
	), db
}

func scorePtr(v int) *int { return &v }

func TestProgressPollNeverErrorsWhileIncomplete(t *testing.T) {
	handler, db := newAssessmentHandlerWithDB(t)
	job := testhelpers.SeedJob(t, db, 50, 50, 1)
	testhelpers.SeedApplication(t, db, job, 1)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/applications/1/progress", nil)
	req = addURLParam(req, "id", "1")
	rec := httptest.NewRecorder()
	handler.ProgressHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for in-flight application, got %d", rec.Code)
	}

	var progress models.Progress
	if err := json.Unmarshal(rec.Body.Bytes(), &progress); err != nil {
		t.Fatalf("failed to decode progress: %v", err)
	}
	if progress.Percent != 0 || progress.Complete {
		t.Fatalf("expected 0%% incomplete, got %+v", progress)
	}
}

func TestProgressUnknownApplication(t *testing.T) {
	handler, _ := newAssessmentHandlerWithDB(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/applications/77/progress", nil)
	req = addURLParam(req, "id", "77")
	rec := httptest.NewRecorder()
	handler.ProgressHandler(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestGetAssessmentRecomputesOnRead(t *testing.T) {
	handler, db := newAssessmentHandlerWithDB(t)
	job := testhelpers.SeedJob(t, db, 50, 50, 1)
	app := testhelpers.SeedApplication(t, db, job, 1)

	rows := []interface{}{
		&models.ResumeAnalysis{ApplicationID: app.ID, ArtifactURL: "s3://resumes/1.pdf", Status: models.StageSucceeded, Score: scorePtr(80)},
		&models.VideoSubmission{ApplicationID: app.ID, QuestionIndex: 0, ArtifactURL: "s3://videos/1.webm", Status: models.StageSucceeded, Score: scorePtr(60)},
	}
	for _, row := range rows {
		if err := db.Create(row).Error; err != nil {
			t.Fatalf("failed to seed stage row: %v", err)
		}
	}

	// A stale materialized row must not be trusted on read.
	stale := &models.AggregateAssessment{ApplicationID: app.ID, TotalScore: scorePtr(1), Recommendation: models.TierReject}
	if err := db.Create(stale).Error; err != nil {
		t.Fatalf("failed to seed stale assessment: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/applications/1/assessment", nil)
	req = addURLParam(req, "id", "1")
	rec := httptest.NewRecorder()
	handler.GetHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var view models.AssessmentView
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("failed to decode assessment: %v", err)
	}
	if view.TotalScore == nil || *view.TotalScore != 70 {
		t.Fatalf("expected recomputed total 70, got %v", view.TotalScore)
	}
	if view.Recommendation != models.TierAccept {
		t.Fatalf("expected accept, got %s", view.Recommendation)
	}
	if len(view.Videos) != 1 {
		t.Fatalf("expected per-question breakdown, got %d rows", len(view.Videos))
	}
	if view.Resume == nil {
		t.Fatal("expected resume detail in the view")
	}
}

func TestGetAssessmentIncompleteApplication(t *testing.T) {
	handler, db := newAssessmentHandlerWithDB(t)
	job := testhelpers.SeedJob(t, db, 50, 50, 1)
	testhelpers.SeedApplication(t, db, job, 1)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/applications/1/assessment", nil)
	req = addURLParam(req, "id", "1")
	rec := httptest.NewRecorder()
	handler.GetHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var view models.AssessmentView
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("failed to decode assessment: %v", err)
	}
	if view.TotalScore != nil || view.Recommendation != "" || view.Complete {
		t.Fatalf("expected empty assessment for fresh application, got %+v", view)
	}
}
