package scoring

import (
	"errors"
	"reflect"
	"testing"

	"neurohire/pipeline/internal/models"
	"neurohire/pipeline/internal/repositories"
	"neurohire/pipeline/internal/testhelpers"
)

func intPtr(v int) *int { return &v }

func resumeOnlySnapshot(score int) Snapshot {
	return Snapshot{
		ApplicationID:  1,
		ExpectedStages: 1,
		Weights:        models.ScoringWeights{Resume: 50, Video: 50},
		Resume: &models.ResumeAnalysis{
			ApplicationID: 1,
			Status:        models.StageSucceeded,
			Score:         intPtr(score),
		},
	}
}

func TestComputeTierEdges(t *testing.T) {
	cases := []struct {
		total int
		tier  string
	}{
		{33, models.TierReject},
		{34, models.TierInterview},
		{66, models.TierInterview},
		{67, models.TierAccept},
	}

	for _, tc := range cases {
		assessment := Compute(resumeOnlySnapshot(tc.total))
		if assessment.TotalScore == nil || *assessment.TotalScore != tc.total {
			t.Fatalf("total %d: expected total score %d, got %v", tc.total, tc.total, assessment.TotalScore)
		}
		if assessment.Recommendation != tc.tier {
			t.Fatalf("total %d: expected tier %s, got %s", tc.total, tc.tier, assessment.Recommendation)
		}
	}
}

func TestComputeWeightedTotal(t *testing.T) {
	snap := Snapshot{
		ApplicationID:  1,
		ExpectedStages: 3,
		Weights:        models.ScoringWeights{Resume: 50, Video: 50},
		Resume:         &models.ResumeAnalysis{Status: models.StageSucceeded, Score: intPtr(80)},
		Videos: []models.VideoSubmission{
			{QuestionIndex: 0, Status: models.StageSucceeded, Score: intPtr(70)},
			{QuestionIndex: 1, Status: models.StageSucceeded, Score: intPtr(90)},
		},
	}

	assessment := Compute(snap)
	if !assessment.Complete {
		t.Fatal("expected complete assessment")
	}
	if assessment.Partial {
		t.Fatal("expected no partial flag")
	}
	if assessment.VideoScore == nil || *assessment.VideoScore != 80 {
		t.Fatalf("expected video score 80, got %v", assessment.VideoScore)
	}
	if assessment.TotalScore == nil || *assessment.TotalScore != 80 {
		t.Fatalf("expected total score 80, got %v", assessment.TotalScore)
	}
	if assessment.Recommendation != models.TierAccept {
		t.Fatalf("expected accept, got %s", assessment.Recommendation)
	}
}

func TestComputeFailedVideoCountsZeroOnceComplete(t *testing.T) {
	snap := Snapshot{
		ApplicationID:  1,
		ExpectedStages: 3,
		Weights:        models.ScoringWeights{Resume: 50, Video: 50},
		Resume:         &models.ResumeAnalysis{Status: models.StageSucceeded, Score: intPtr(80)},
		Videos: []models.VideoSubmission{
			{QuestionIndex: 0, Status: models.StageSucceeded, Score: intPtr(70)},
			{QuestionIndex: 1, Status: models.StageFailed},
		},
	}

	assessment := Compute(snap)
	if !assessment.Complete {
		t.Fatal("expected complete assessment")
	}
	if !assessment.Partial {
		t.Fatal("expected partial flag for failed stage")
	}
	if assessment.VideoScore == nil || *assessment.VideoScore != 35 {
		t.Fatalf("expected video score 35, got %v", assessment.VideoScore)
	}
	if assessment.TotalScore == nil || *assessment.TotalScore != 58 {
		t.Fatalf("expected total score 58, got %v", assessment.TotalScore)
	}
	if assessment.Recommendation != models.TierInterview {
		t.Fatalf("expected interview, got %s", assessment.Recommendation)
	}
}

func TestComputeExcludesUnresolvedVideosFromMean(t *testing.T) {
	snap := Snapshot{
		ApplicationID:  1,
		ExpectedStages: 3,
		Weights:        models.ScoringWeights{Resume: 50, Video: 50},
		Resume:         &models.ResumeAnalysis{Status: models.StageSucceeded, Score: intPtr(80)},
		Videos: []models.VideoSubmission{
			{QuestionIndex: 0, Status: models.StageSucceeded, Score: intPtr(70)},
			{QuestionIndex: 1, Status: models.StagePending},
		},
	}

	assessment := Compute(snap)
	if assessment.Complete {
		t.Fatal("expected incomplete assessment")
	}
	// The pending row is excluded, not averaged in as zero.
	if assessment.VideoScore == nil || *assessment.VideoScore != 70 {
		t.Fatalf("expected video score 70, got %v", assessment.VideoScore)
	}
}

func TestComputeNoTotalWhileResumeUnresolved(t *testing.T) {
	snap := Snapshot{
		ApplicationID:  1,
		ExpectedStages: 2,
		Weights:        models.ScoringWeights{Resume: 50, Video: 50},
		Resume:         &models.ResumeAnalysis{Status: models.StageDispatched},
		Videos: []models.VideoSubmission{
			{QuestionIndex: 0, Status: models.StageSucceeded, Score: intPtr(90)},
		},
	}

	assessment := Compute(snap)
	if assessment.ResumeScore != nil {
		t.Fatalf("expected nil resume score, got %v", assessment.ResumeScore)
	}
	if assessment.TotalScore != nil {
		t.Fatalf("expected nil total score, got %v", assessment.TotalScore)
	}
	if assessment.Recommendation != "" {
		t.Fatalf("expected no recommendation, got %s", assessment.Recommendation)
	}
}

func TestComputeFailedResumeScoresZero(t *testing.T) {
	snap := Snapshot{
		ApplicationID:  1,
		ExpectedStages: 2,
		Weights:        models.ScoringWeights{Resume: 50, Video: 50},
		Resume:         &models.ResumeAnalysis{Status: models.StageFailed},
		Videos: []models.VideoSubmission{
			{QuestionIndex: 0, Status: models.StageSucceeded, Score: intPtr(60)},
		},
	}

	assessment := Compute(snap)
	if assessment.ResumeScore == nil || *assessment.ResumeScore != 0 {
		t.Fatalf("expected resume score 0, got %v", assessment.ResumeScore)
	}
	if !assessment.Partial {
		t.Fatal("expected partial flag for failed resume")
	}
	if assessment.TotalScore == nil || *assessment.TotalScore != 30 {
		t.Fatalf("expected total score 30, got %v", assessment.TotalScore)
	}
	if assessment.Recommendation != models.TierReject {
		t.Fatalf("expected reject, got %s", assessment.Recommendation)
	}
}

func TestComputeNoQuestionsResumeCarriesTotal(t *testing.T) {
	assessment := Compute(resumeOnlySnapshot(72))
	if !assessment.Complete {
		t.Fatal("expected complete assessment")
	}
	if assessment.VideoScore != nil {
		t.Fatalf("expected nil video score, got %v", assessment.VideoScore)
	}
	if assessment.TotalScore == nil || *assessment.TotalScore != 72 {
		t.Fatalf("expected total 72, got %v", assessment.TotalScore)
	}
	if assessment.Recommendation != models.TierAccept {
		t.Fatalf("expected accept, got %s", assessment.Recommendation)
	}
}

func TestComputeIsDeterministic(t *testing.T) {
	snap := Snapshot{
		ApplicationID:  7,
		ExpectedStages: 3,
		Weights:        models.ScoringWeights{Resume: 60, Video: 40},
		Resume:         &models.ResumeAnalysis{Status: models.StageSucceeded, Score: intPtr(55)},
		Videos: []models.VideoSubmission{
			{QuestionIndex: 0, Status: models.StageSucceeded, Score: intPtr(40)},
			{QuestionIndex: 1, Status: models.StageFailed},
		},
	}

	first := Compute(snap)
	second := Compute(snap)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical assessments, got %+v and %+v", first, second)
	}
}

func TestRecomputeMaterializesSingleRow(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	job := testhelpers.SeedJob(t, db, 50, 50, 1)
	app := testhelpers.SeedApplication(t, db, job, 1)

	resume := &models.ResumeAnalysis{
		ApplicationID: app.ID,
		ArtifactURL:   "s3://resumes/1.pdf",
		Status:        models.StageSucceeded,
		Score:         intPtr(80),
	}
	if err := db.Create(resume).Error; err != nil {
		t.Fatalf("failed to seed resume: %v", err)
	}
	video := &models.VideoSubmission{
		ApplicationID: app.ID,
		QuestionIndex: 0,
		ArtifactURL:   "s3://videos/1.webm",
		Status:        models.StageSucceeded,
		Score:         intPtr(60),
	}
	if err := db.Create(video).Error; err != nil {
		t.Fatalf("failed to seed video: %v", err)
	}

	aggregator := NewAggregator(db)
	assessment, err := aggregator.Recompute(app.ID)
	if err != nil {
		t.Fatalf("Recompute returned error: %v", err)
	}
	if assessment.TotalScore == nil || *assessment.TotalScore != 70 {
		t.Fatalf("expected total 70, got %v", assessment.TotalScore)
	}

	// A second recompute overwrites the same row instead of appending.
	if _, err := aggregator.Recompute(app.ID); err != nil {
		t.Fatalf("second Recompute returned error: %v", err)
	}
	var count int64
	if err := db.Model(&models.AggregateAssessment{}).Where("application_id = ?", app.ID).Count(&count).Error; err != nil {
		t.Fatalf("failed to count assessments: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one assessment row, got %d", count)
	}
}

func TestRecomputeUnknownApplication(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	aggregator := NewAggregator(db)

	if _, err := aggregator.Recompute(999); !errors.Is(err, repositories.ErrApplicationNotFound) {
		t.Fatalf("expected ErrApplicationNotFound, got %v", err)
	}
}
