package repositories

import (
	"errors"
	"strings"
	"time"

	"neurohire/pipeline/internal/models"

	"gorm.io/gorm"
)

// AnalysisRepository owns the per-stage rows: one ResumeAnalysis and N
// VideoSubmissions per application.
type AnalysisRepository struct {
	DB *gorm.DB
}

// ReplaceResume registers a resume artifact. An application is a single
// CV-to-job decision point, so a re-upload creates a fresh pending row and
// drops the old one instead of mutating scores in place.
func (r *AnalysisRepository) ReplaceResume(applicationID uint, artifactURL, resumeText string) (*models.ResumeAnalysis, error) {
	if strings.TrimSpace(artifactURL) == "" {
		return nil, ErrInvalidReference
	}

	analysis := &models.ResumeAnalysis{
		ApplicationID: applicationID,
		ArtifactURL:   artifactURL,
		ResumeText:    resumeText,
		Status:        models.StagePending,
	}

	err := r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("application_id = ?", applicationID).
			Delete(&models.ResumeAnalysis{}).Error; err != nil {
			return err
		}
		return tx.Create(analysis).Error
	})
	if err != nil {
		return nil, err
	}
	return analysis, nil
}

func (r *AnalysisRepository) GetResume(applicationID uint) (*models.ResumeAnalysis, error) {
	var analysis models.ResumeAnalysis
	err := r.DB.Where("application_id = ?", applicationID).
		Order("id DESC").
		First(&analysis).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &analysis, nil
}

func (r *AnalysisRepository) UpdateResume(analysis *models.ResumeAnalysis) error {
	return r.DB.Save(analysis).Error
}

// ClaimResumeDispatch moves one pending row to dispatched. Returns false when
// the row is no longer the pending one that was loaded (a re-upload replaced
// it, or another dispatch claimed it first).
func (r *AnalysisRepository) ClaimResumeDispatch(analysis *models.ResumeAnalysis) (bool, error) {
	res := r.DB.Model(&models.ResumeAnalysis{}).
		Where("id = ? AND status = ?", analysis.ID, models.StagePending).
		Update("status", models.StageDispatched)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	analysis.Status = models.StageDispatched
	return true, nil
}

// FinishResume persists a terminal result only onto the row that was scored:
// the update is conditioned on the row still being dispatched with the same
// artifact. A miss means a re-upload replaced the row while the scorer ran;
// the stale result must not land on the fresh artifact.
func (r *AnalysisRepository) FinishResume(analysis *models.ResumeAnalysis) (bool, error) {
	res := r.DB.Model(&models.ResumeAnalysis{}).
		Where("id = ? AND status = ? AND artifact_url = ?",
			analysis.ID, models.StageDispatched, analysis.ArtifactURL).
		Updates(map[string]interface{}{
			"status":            analysis.Status,
			"score":             analysis.Score,
			"matching_analysis": analysis.MatchingAnalysis,
			"summary":           analysis.Summary,
			"raw_output":        analysis.RawOutput,
			"attempts":          analysis.Attempts,
			"last_error":        analysis.LastError,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// UpsertVideo registers a recorded answer for one question index. The
// composite unique key makes the datastore reject a duplicate; on conflict
// the existing row is reset to pending with the new artifact, never appended.
func (r *AnalysisRepository) UpsertVideo(applicationID uint, questionIndex int, questionText, artifactURL string) (*models.VideoSubmission, error) {
	if strings.TrimSpace(artifactURL) == "" {
		return nil, ErrInvalidReference
	}

	submission := &models.VideoSubmission{
		ApplicationID: applicationID,
		QuestionIndex: questionIndex,
		QuestionText:  questionText,
		ArtifactURL:   artifactURL,
		Status:        models.StagePending,
	}

	err := r.DB.Create(submission).Error
	if err == nil {
		return submission, nil
	}
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, err
	}

	// Conflict: replace the existing row's artifact and clear prior results.
	var existing models.VideoSubmission
	if err := r.DB.Where("application_id = ? AND question_index = ?", applicationID, questionIndex).
		First(&existing).Error; err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"question_text":    questionText,
		"artifact_url":     artifactURL,
		"status":           models.StagePending,
		"score":            nil,
		"confidence":       nil,
		"clarity":          nil,
		"answer_relevance": nil,
		"speech_analysis":  "",
		"transcript":       "",
		"needs_review":     false,
		"raw_output":       "",
		"attempts":         0,
		"last_error":       "",
	}
	if err := r.DB.Model(&existing).Updates(updates).Error; err != nil {
		return nil, err
	}
	return r.GetVideo(applicationID, questionIndex)
}

func (r *AnalysisRepository) GetVideo(applicationID uint, questionIndex int) (*models.VideoSubmission, error) {
	var submission models.VideoSubmission
	err := r.DB.Where("application_id = ? AND question_index = ?", applicationID, questionIndex).
		First(&submission).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &submission, nil
}

func (r *AnalysisRepository) ListVideos(applicationID uint) ([]models.VideoSubmission, error) {
	submissions := []models.VideoSubmission{}
	err := r.DB.Where("application_id = ?", applicationID).
		Order("question_index ASC").
		Find(&submissions).Error
	return submissions, err
}

func (r *AnalysisRepository) UpdateVideo(submission *models.VideoSubmission) error {
	return r.DB.Save(submission).Error
}

// ClaimVideoDispatch moves one pending submission to dispatched. The video row
// keeps its id across a re-submission, so the claim also pins the artifact.
func (r *AnalysisRepository) ClaimVideoDispatch(submission *models.VideoSubmission) (bool, error) {
	res := r.DB.Model(&models.VideoSubmission{}).
		Where("id = ? AND status = ? AND artifact_url = ?",
			submission.ID, models.StagePending, submission.ArtifactURL).
		Update("status", models.StageDispatched)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	submission.Status = models.StageDispatched
	return true, nil
}

// FinishVideo persists a terminal result only if the dispatched row still
// carries the artifact that was scored. A re-submission resets the row to
// pending, so a stale in-flight result misses the claim and is dropped.
func (r *AnalysisRepository) FinishVideo(submission *models.VideoSubmission) (bool, error) {
	res := r.DB.Model(&models.VideoSubmission{}).
		Where("id = ? AND status = ? AND artifact_url = ?",
			submission.ID, models.StageDispatched, submission.ArtifactURL).
		Updates(map[string]interface{}{
			"status":           submission.Status,
			"score":            submission.Score,
			"confidence":       submission.Confidence,
			"clarity":          submission.Clarity,
			"answer_relevance": submission.AnswerRelevance,
			"speech_analysis":  submission.SpeechAnalysis,
			"transcript":       submission.Transcript,
			"needs_review":     submission.NeedsReview,
			"raw_output":       submission.RawOutput,
			"attempts":         submission.Attempts,
			"last_error":       submission.LastError,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// CreateFailedVideo inserts a terminal failed row for a question that was
// never answered (deadline expiry). Ignores the conflict if an answer raced
// the sweeper in.
func (r *AnalysisRepository) CreateFailedVideo(submission *models.VideoSubmission) error {
	err := r.DB.Create(submission).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil
	}
	return err
}

// ListStaleResumes returns resume rows still pending at the cutoff, for the
// sweeper to re-dispatch (a process restart loses in-memory dispatches).
func (r *AnalysisRepository) ListStaleResumes(cutoff time.Time) ([]models.ResumeAnalysis, error) {
	analyses := []models.ResumeAnalysis{}
	err := r.DB.Where("status = ? AND updated_at < ?", models.StagePending, cutoff).
		Find(&analyses).Error
	return analyses, err
}

func (r *AnalysisRepository) ListStaleVideos(cutoff time.Time) ([]models.VideoSubmission, error) {
	submissions := []models.VideoSubmission{}
	err := r.DB.Where("status = ? AND updated_at < ?", models.StagePending, cutoff).
		Find(&submissions).Error
	return submissions, err
}
