package repositories

import (
	"errors"
	"testing"
	"time"

	"neurohire/pipeline/internal/models"
	"neurohire/pipeline/internal/testhelpers"
)

func intPtr(v int) *int { return &v }

func TestReplaceResumeCreatesFreshRow(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	job := testhelpers.SeedJob(t, db, 50, 50, 0)
	app := testhelpers.SeedApplication(t, db, job, 0)
	repo := &AnalysisRepository{DB: db}

	first, err := repo.ReplaceResume(app.ID, "s3://resumes/v1.pdf", "")
	if err != nil {
		t.Fatalf("ReplaceResume returned error: %v", err)
	}
	first.Status = models.StageSucceeded
	first.Score = intPtr(88)
	first.Attempts = 2
	if err := repo.UpdateResume(first); err != nil {
		t.Fatalf("UpdateResume returned error: %v", err)
	}

	second, err := repo.ReplaceResume(app.ID, "s3://resumes/v2.pdf", "")
	if err != nil {
		t.Fatalf("ReplaceResume returned error: %v", err)
	}
	if second.ID == first.ID {
		t.Fatal("expected a fresh row on re-upload")
	}
	if second.Status != models.StagePending || second.Score != nil || second.Attempts != 0 {
		t.Fatalf("expected clean pending row, got %+v", second)
	}

	current, err := repo.GetResume(app.ID)
	if err != nil {
		t.Fatalf("GetResume returned error: %v", err)
	}
	if current == nil || current.ArtifactURL != "s3://resumes/v2.pdf" {
		t.Fatalf("expected the replacement row, got %+v", current)
	}
}

func TestReplaceResumeEmptyReference(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	repo := &AnalysisRepository{DB: db}

	if _, err := repo.ReplaceResume(1, "   ", ""); !errors.Is(err, ErrInvalidReference) {
		t.Fatalf("expected ErrInvalidReference, got %v", err)
	}
}

func TestGetResumeAbsent(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	repo := &AnalysisRepository{DB: db}

	analysis, err := repo.GetResume(123)
	if err != nil {
		t.Fatalf("GetResume returned error: %v", err)
	}
	if analysis != nil {
		t.Fatalf("expected nil for absent resume, got %+v", analysis)
	}
}

func TestUpsertVideoReplacesOnConflict(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	job := testhelpers.SeedJob(t, db, 50, 50, 1)
	app := testhelpers.SeedApplication(t, db, job, 1)
	repo := &AnalysisRepository{DB: db}

	first, err := repo.UpsertVideo(app.ID, 0, "Why this role?", "s3://videos/take1.webm")
	if err != nil {
		t.Fatalf("UpsertVideo returned error: %v", err)
	}
	first.Status = models.StageSucceeded
	first.Score = intPtr(74)
	first.Transcript = "first take"
	first.Attempts = 1
	if err := repo.UpdateVideo(first); err != nil {
		t.Fatalf("UpdateVideo returned error: %v", err)
	}

	second, err := repo.UpsertVideo(app.ID, 0, "Why this role?", "s3://videos/take2.webm")
	if err != nil {
		t.Fatalf("UpsertVideo returned error: %v", err)
	}
	if second.ID != first.ID {
		t.Fatal("expected the existing row to be replaced, not a new one appended")
	}
	if second.Status != models.StagePending || second.Score != nil || second.Attempts != 0 || second.Transcript != "" {
		t.Fatalf("expected prior results cleared, got %+v", second)
	}
	if second.ArtifactURL != "s3://videos/take2.webm" {
		t.Fatalf("expected replacement artifact, got %s", second.ArtifactURL)
	}

	videos, err := repo.ListVideos(app.ID)
	if err != nil {
		t.Fatalf("ListVideos returned error: %v", err)
	}
	if len(videos) != 1 {
		t.Fatalf("expected a single row per question index, got %d", len(videos))
	}
}

func TestCreateFailedVideoIgnoresConflict(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	job := testhelpers.SeedJob(t, db, 50, 50, 1)
	app := testhelpers.SeedApplication(t, db, job, 1)
	repo := &AnalysisRepository{DB: db}

	if _, err := repo.UpsertVideo(app.ID, 0, "Why this role?", "s3://videos/take1.webm"); err != nil {
		t.Fatalf("UpsertVideo returned error: %v", err)
	}

	// An answer raced the sweeper in; the failed marker is dropped.
	err := repo.CreateFailedVideo(&models.VideoSubmission{
		ApplicationID: app.ID,
		QuestionIndex: 0,
		Status:        models.StageFailed,
	})
	if err != nil {
		t.Fatalf("CreateFailedVideo returned error: %v", err)
	}

	video, err := repo.GetVideo(app.ID, 0)
	if err != nil {
		t.Fatalf("GetVideo returned error: %v", err)
	}
	if video.Status != models.StagePending {
		t.Fatalf("expected the answered row to survive, got status %s", video.Status)
	}
}

func TestListStaleStages(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	job := testhelpers.SeedJob(t, db, 50, 50, 1)
	app := testhelpers.SeedApplication(t, db, job, 1)
	repo := &AnalysisRepository{DB: db}

	stale, err := repo.ReplaceResume(app.ID, "s3://resumes/1.pdf", "")
	if err != nil {
		t.Fatalf("ReplaceResume returned error: %v", err)
	}
	video, err := repo.UpsertVideo(app.ID, 0, "Why this role?", "s3://videos/1.webm")
	if err != nil {
		t.Fatalf("UpsertVideo returned error: %v", err)
	}

	past := time.Now().Add(-10 * time.Minute)
	if err := db.Model(&models.ResumeAnalysis{}).Where("id = ?", stale.ID).
		UpdateColumn("updated_at", past).Error; err != nil {
		t.Fatalf("failed to backdate resume: %v", err)
	}

	cutoff := time.Now().Add(-5 * time.Minute)

	resumes, err := repo.ListStaleResumes(cutoff)
	if err != nil {
		t.Fatalf("ListStaleResumes returned error: %v", err)
	}
	if len(resumes) != 1 || resumes[0].ID != stale.ID {
		t.Fatalf("expected the backdated resume, got %+v", resumes)
	}

	// The video was touched just now and is not stale yet.
	videos, err := repo.ListStaleVideos(cutoff)
	if err != nil {
		t.Fatalf("ListStaleVideos returned error: %v", err)
	}
	if len(videos) != 0 {
		t.Fatalf("expected no stale videos, got %+v", videos)
	}

	// Dispatched rows are in flight, not stale.
	video.Status = models.StageDispatched
	if err := repo.UpdateVideo(video); err != nil {
		t.Fatalf("UpdateVideo returned error: %v", err)
	}
	if err := db.Model(&models.VideoSubmission{}).Where("id = ?", video.ID).
		UpdateColumn("updated_at", past).Error; err != nil {
		t.Fatalf("failed to backdate video: %v", err)
	}
	videos, err = repo.ListStaleVideos(cutoff)
	if err != nil {
		t.Fatalf("ListStaleVideos returned error: %v", err)
	}
	if len(videos) != 0 {
		t.Fatalf("expected dispatched rows excluded, got %+v", videos)
	}
}
