package jobs

import (
	"sync"
	"testing"
	"time"

	"neurohire/pipeline/internal/models"
	"neurohire/pipeline/internal/repositories"
	"neurohire/pipeline/internal/testhelpers"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type recordingFinalizer struct {
	mu        sync.Mutex
	resumes   []uint
	videos    [][2]int
	finalized []uint
}

func (f *recordingFinalizer) DispatchResume(applicationID uint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resumes = append(f.resumes, applicationID)
}

func (f *recordingFinalizer) DispatchVideo(applicationID uint, questionIndex int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.videos = append(f.videos, [2]int{int(applicationID), questionIndex})
}

func (f *recordingFinalizer) Finalize(applicationID uint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finalized = append(f.finalized, applicationID)
}

func newSweeper(t *testing.T, cfg *SweeperConfig) (*StageSweeper, *recordingFinalizer, *gorm.DB) {
	t.Helper()
	db := testhelpers.SetupTestDB(t)
	finalizer := &recordingFinalizer{}
	sweeper := NewStageSweeper(
		&repositories.ApplicationRepository{DB: db},
		&repositories.AnalysisRepository{DB: db},
		finalizer,
		cfg,
		zap.NewNop(),
	)
	return sweeper, finalizer, db
}

func backdate(t *testing.T, db *gorm.DB, model interface{}, column string, id uint, to time.Time) {
	t.Helper()
	if err := db.Model(model).Where("id = ?", id).UpdateColumn(column, to).Error; err != nil {
		t.Fatalf("failed to backdate row: %v", err)
	}
}

func TestSweepRedispatchesStaleStages(t *testing.T) {
	sweeper, finalizer, db := newSweeper(t, &SweeperConfig{Schedule: "@every 1m", StaleFor: 5 * time.Minute})
	job := testhelpers.SeedJob(t, db, 50, 50, 1)
	app := testhelpers.SeedApplication(t, db, job, 1)
	analyses := &repositories.AnalysisRepository{DB: db}

	resume, err := analyses.ReplaceResume(app.ID, "s3://resumes/1.pdf", "")
	if err != nil {
		t.Fatalf("ReplaceResume returned error: %v", err)
	}
	video, err := analyses.UpsertVideo(app.ID, 0, "Why this role?", "s3://videos/q0.webm")
	if err != nil {
		t.Fatalf("UpsertVideo returned error: %v", err)
	}

	past := time.Now().Add(-10 * time.Minute)
	backdate(t, db, &models.ResumeAnalysis{}, "updated_at", resume.ID, past)
	backdate(t, db, &models.VideoSubmission{}, "updated_at", video.ID, past)

	if err := sweeper.RunSweep(); err != nil {
		t.Fatalf("RunSweep returned error: %v", err)
	}

	if len(finalizer.resumes) != 1 || finalizer.resumes[0] != app.ID {
		t.Fatalf("expected stale resume re-dispatched, got %v", finalizer.resumes)
	}
	if len(finalizer.videos) != 1 || finalizer.videos[0] != [2]int{int(app.ID), 0} {
		t.Fatalf("expected stale video re-dispatched, got %v", finalizer.videos)
	}
}

func TestSweepLeavesFreshStagesAlone(t *testing.T) {
	sweeper, finalizer, db := newSweeper(t, &SweeperConfig{Schedule: "@every 1m", StaleFor: 5 * time.Minute})
	job := testhelpers.SeedJob(t, db, 50, 50, 0)
	app := testhelpers.SeedApplication(t, db, job, 0)
	analyses := &repositories.AnalysisRepository{DB: db}

	if _, err := analyses.ReplaceResume(app.ID, "s3://resumes/1.pdf", ""); err != nil {
		t.Fatalf("ReplaceResume returned error: %v", err)
	}

	if err := sweeper.RunSweep(); err != nil {
		t.Fatalf("RunSweep returned error: %v", err)
	}
	if len(finalizer.resumes) != 0 {
		t.Fatalf("expected no re-dispatch for fresh rows, got %v", finalizer.resumes)
	}
}

func TestSweepExpiresUnansweredQuestions(t *testing.T) {
	sweeper, finalizer, db := newSweeper(t, &SweeperConfig{
		Schedule:       "@every 1m",
		StaleFor:       5 * time.Minute,
		AnswerDeadline: time.Hour,
	})
	job := testhelpers.SeedJob(t, db, 50, 50, 2)
	app := testhelpers.SeedApplication(t, db, job, 2)
	analyses := &repositories.AnalysisRepository{DB: db}

	// Question 0 answered and scored; question 1 never answered.
	answered, err := analyses.UpsertVideo(app.ID, 0, "Interview question 1", "s3://videos/q0.webm")
	if err != nil {
		t.Fatalf("UpsertVideo returned error: %v", err)
	}
	answered.Status = models.StageSucceeded
	if err := analyses.UpdateVideo(answered); err != nil {
		t.Fatalf("UpdateVideo returned error: %v", err)
	}

	backdate(t, db, &models.Application{}, "created_at", app.ID, time.Now().Add(-2*time.Hour))

	if err := sweeper.RunSweep(); err != nil {
		t.Fatalf("RunSweep returned error: %v", err)
	}

	missing, err := analyses.GetVideo(app.ID, 1)
	if err != nil {
		t.Fatalf("GetVideo returned error: %v", err)
	}
	if missing == nil || missing.Status != models.StageFailed {
		t.Fatalf("expected failed row for question 1, got %+v", missing)
	}

	// The answered question keeps its result.
	kept, err := analyses.GetVideo(app.ID, 0)
	if err != nil {
		t.Fatalf("GetVideo returned error: %v", err)
	}
	if kept.Status != models.StageSucceeded {
		t.Fatalf("expected answered question untouched, got %s", kept.Status)
	}

	if len(finalizer.finalized) != 1 || finalizer.finalized[0] != app.ID {
		t.Fatalf("expected one finalize call, got %v", finalizer.finalized)
	}
}

func TestSweepDeadlineDisabledByDefault(t *testing.T) {
	sweeper, finalizer, db := newSweeper(t, &SweeperConfig{Schedule: "@every 1m", StaleFor: 5 * time.Minute})
	job := testhelpers.SeedJob(t, db, 50, 50, 1)
	app := testhelpers.SeedApplication(t, db, job, 1)

	backdate(t, db, &models.Application{}, "created_at", app.ID, time.Now().Add(-24*time.Hour))

	if err := sweeper.RunSweep(); err != nil {
		t.Fatalf("RunSweep returned error: %v", err)
	}
	if len(finalizer.finalized) != 0 {
		t.Fatalf("expected no expiry with deadline disabled, got %v", finalizer.finalized)
	}
}
