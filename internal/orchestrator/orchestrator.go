package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"neurohire/pipeline/internal/events"
	"neurohire/pipeline/internal/metrics"
	"neurohire/pipeline/internal/models"
	"neurohire/pipeline/internal/repositories"
	"neurohire/pipeline/internal/scorers"
	"neurohire/pipeline/internal/scoring"
)

// Config is the retry policy for external scorer calls. Transient failures
// retry with doubling backoff until MaxAttempts is exhausted, at which point
// the stage deterministically lands in failed.
type Config struct {
	MaxAttempts int
	RetryDelay  time.Duration
	Timeout     time.Duration
}

// Orchestrator drives the per-stage state machine
// pending -> dispatched -> succeeded | failed. Stage completions for
// different keys run concurrently; within one (application, stage) key a
// keyed mutex keeps a single writer.
type Orchestrator struct {
	logger       *zap.Logger
	apps         *repositories.ApplicationRepository
	jobs         *repositories.JobRepository
	analyses     *repositories.AnalysisRepository
	resumeScorer scorers.ResumeScorer
	videoScorer  scorers.VideoScorer
	aggregator   *scoring.Aggregator
	progress     *scoring.ProgressEstimator
	publisher    *events.ProgressPublisher
	config       Config

	locks *keyLocks
	wg    sync.WaitGroup
}

func New(
	logger *zap.Logger,
	apps *repositories.ApplicationRepository,
	jobs *repositories.JobRepository,
	analyses *repositories.AnalysisRepository,
	resumeScorer scorers.ResumeScorer,
	videoScorer scorers.VideoScorer,
	aggregator *scoring.Aggregator,
	progress *scoring.ProgressEstimator,
	publisher *events.ProgressPublisher,
	config Config,
) *Orchestrator {
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}
	return &Orchestrator{
		logger:       logger,
		apps:         apps,
		jobs:         jobs,
		analyses:     analyses,
		resumeScorer: resumeScorer,
		videoScorer:  videoScorer,
		aggregator:   aggregator,
		progress:     progress,
		publisher:    publisher,
		config:       config,
		locks:        newKeyLocks(),
	}
}

// DispatchResume fires the resume stage asynchronously. Registration never
// blocks on scoring.
func (o *Orchestrator) DispatchResume(applicationID uint) {
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.runResume(applicationID)
	}()
}

func (o *Orchestrator) DispatchVideo(applicationID uint, questionIndex int) {
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.runVideo(applicationID, questionIndex)
	}()
}

// Wait blocks until all in-flight stage work finishes. Used for graceful
// shutdown and by tests.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

func (o *Orchestrator) runResume(applicationID uint) {
	release := o.locks.acquire(fmt.Sprintf("resume:%d", applicationID))
	defer release()

	analysis, err := o.analyses.GetResume(applicationID)
	if err != nil {
		o.logger.Error("Failed to load resume analysis", zap.Uint("application_id", applicationID), zap.Error(err))
		return
	}
	if analysis == nil || models.TerminalStage(analysis.Status) {
		return
	}

	app, err := o.apps.GetByID(applicationID)
	if err != nil {
		// Application withdrawn between registration and dispatch.
		return
	}
	job, err := o.jobs.GetJobByID(app.JobID)
	if err != nil {
		o.logger.Error("Failed to load job for resume scoring", zap.Uint("job_id", app.JobID), zap.Error(err))
		return
	}

	claimed, err := o.analyses.ClaimResumeDispatch(analysis)
	if err != nil {
		o.logger.Error("Failed to mark resume dispatched", zap.Uint("application_id", applicationID), zap.Error(err))
		return
	}
	if !claimed {
		// Replaced between load and claim; the re-upload queued its own dispatch.
		return
	}

	input := scorers.ResumeInput{
		ResumeURL:       analysis.ArtifactURL,
		ResumeText:      analysis.ResumeText,
		JobTitle:        job.Title,
		JobRequirements: job.Requirements,
	}

	result, scoreErr := o.score(analysis, func(ctx context.Context) (int, error) {
		res, err := o.resumeScorer.Score(ctx, input)
		if err != nil {
			return 0, err
		}
		analysis.MatchingAnalysis = res.MatchingAnalysis
		analysis.Summary = res.Summary
		analysis.RawOutput = res.RawOutput
		return res.Score, nil
	})

	// Results for withdrawn applications are discarded, not resurrected:
	// existence is re-checked after the scorer returns, before any write.
	if exists, err := o.apps.Exists(applicationID); err != nil || !exists {
		return
	}

	if scoreErr != nil {
		analysis.Status = models.StageFailed
		analysis.LastError = scoreErr.Error()
		o.logger.Warn("Resume stage failed",
			zap.Uint("application_id", applicationID),
			zap.Int("attempts", analysis.Attempts),
			zap.Error(scoreErr))
	} else {
		analysis.Status = models.StageSucceeded
		analysis.Score = &result
		analysis.LastError = ""
	}

	claimed, err = o.analyses.FinishResume(analysis)
	if err != nil {
		o.logger.Error("Failed to persist resume result", zap.Uint("application_id", applicationID), zap.Error(err))
		return
	}
	if !claimed {
		// A re-upload replaced the row while the scorer ran. The stale result
		// is dropped; the re-upload's own dispatch, queued behind this lock,
		// scores the fresh row.
		o.logger.Info("Discarded stale resume result", zap.Uint("application_id", applicationID))
		return
	}

	metrics.ObserveStageCompletion("resume", analysis.Status)
	o.Finalize(applicationID)
}

func (o *Orchestrator) runVideo(applicationID uint, questionIndex int) {
	release := o.locks.acquire(fmt.Sprintf("video:%d:%d", applicationID, questionIndex))
	defer release()

	submission, err := o.analyses.GetVideo(applicationID, questionIndex)
	if err != nil {
		o.logger.Error("Failed to load video submission",
			zap.Uint("application_id", applicationID),
			zap.Int("question_index", questionIndex),
			zap.Error(err))
		return
	}
	if submission == nil || models.TerminalStage(submission.Status) {
		return
	}

	app, err := o.apps.GetByID(applicationID)
	if err != nil {
		return
	}
	job, err := o.jobs.GetJobByID(app.JobID)
	if err != nil {
		o.logger.Error("Failed to load job for video scoring", zap.Uint("job_id", app.JobID), zap.Error(err))
		return
	}

	claimed, err := o.analyses.ClaimVideoDispatch(submission)
	if err != nil {
		o.logger.Error("Failed to mark video dispatched", zap.Uint("application_id", applicationID), zap.Error(err))
		return
	}
	if !claimed {
		// Re-submitted between load and claim; that registration queued its
		// own dispatch.
		return
	}

	input := scorers.VideoInput{
		VideoURL:     submission.ArtifactURL,
		Role:         job.Title,
		QuestionText: submission.QuestionText,
	}

	var res *scorers.VideoResult
	score, scoreErr := o.scoreVideo(submission, input, &res)

	if exists, err := o.apps.Exists(applicationID); err != nil || !exists {
		return
	}

	if scoreErr != nil {
		submission.Status = models.StageFailed
		submission.LastError = scoreErr.Error()
		o.logger.Warn("Video stage failed",
			zap.Uint("application_id", applicationID),
			zap.Int("question_index", questionIndex),
			zap.Int("attempts", submission.Attempts),
			zap.Error(scoreErr))
	} else {
		submission.Status = models.StageSucceeded
		submission.Score = &score
		submission.Confidence = &res.Confidence
		submission.Clarity = &res.Clarity
		submission.AnswerRelevance = &res.AnswerRelevance
		submission.SpeechAnalysis = res.SpeechAnalysis
		submission.Transcript = res.Transcript
		submission.NeedsReview = res.NeedsReview
		submission.RawOutput = res.RawOutput
		submission.LastError = ""
	}

	claimed, err = o.analyses.FinishVideo(submission)
	if err != nil {
		o.logger.Error("Failed to persist video result", zap.Uint("application_id", applicationID), zap.Error(err))
		return
	}
	if !claimed {
		// A re-submission reset the row while the scorer ran; drop the stale
		// result and let the queued dispatch score the new artifact.
		o.logger.Info("Discarded stale video result",
			zap.Uint("application_id", applicationID),
			zap.Int("question_index", questionIndex))
		return
	}

	metrics.ObserveStageCompletion("video", submission.Status)

	if scoreErr == nil && res.NeedsReview {
		if err := o.apps.SetNeedsReview(applicationID); err != nil {
			o.logger.Error("Failed to flag application for review", zap.Uint("application_id", applicationID), zap.Error(err))
		}
	}

	o.Finalize(applicationID)
}

// score runs the bounded-attempt loop for the resume stage. Transient errors
// back off and retry within the dispatched state; a permanent error or an
// running out of attempts returns the final error.
func (o *Orchestrator) score(analysis *models.ResumeAnalysis, call func(context.Context) (int, error)) (int, error) {
	var lastErr error
	for attempt := 1; attempt <= o.config.MaxAttempts; attempt++ {
		analysis.Attempts = attempt

		ctx, cancel := context.WithTimeout(context.Background(), o.config.Timeout)
		score, err := call(ctx)
		cancel()

		if err == nil {
			metrics.ObserveScorerAttempt(o.resumeScorer.Name(), "ok")
			return score, nil
		}
		metrics.ObserveScorerAttempt(o.resumeScorer.Name(), "error")
		lastErr = err
		if !scorers.Transient(err) {
			return 0, err
		}
		if attempt < o.config.MaxAttempts {
			time.Sleep(o.backoff(attempt))
		}
	}
	return 0, lastErr
}

func (o *Orchestrator) scoreVideo(submission *models.VideoSubmission, input scorers.VideoInput, out **scorers.VideoResult) (int, error) {
	var lastErr error
	for attempt := 1; attempt <= o.config.MaxAttempts; attempt++ {
		submission.Attempts = attempt

		ctx, cancel := context.WithTimeout(context.Background(), o.config.Timeout)
		res, err := o.videoScorer.Score(ctx, input)
		cancel()

		if err == nil {
			metrics.ObserveScorerAttempt(o.videoScorer.Name(), "ok")
			*out = res
			return res.Score, nil
		}
		metrics.ObserveScorerAttempt(o.videoScorer.Name(), "error")
		lastErr = err
		if !scorers.Transient(err) {
			return 0, err
		}
		if attempt < o.config.MaxAttempts {
			time.Sleep(o.backoff(attempt))
		}
	}
	return 0, lastErr
}

// backoff doubles the base delay per completed attempt.
func (o *Orchestrator) backoff(attempt int) time.Duration {
	return o.config.RetryDelay << (attempt - 1)
}

// Finalize recomputes the aggregate and pushes a progress event. Idempotent
// and side-effect-free to re-run; every terminal stage transition ends here.
func (o *Orchestrator) Finalize(applicationID uint) {
	if _, err := o.aggregator.Recompute(applicationID); err != nil {
		o.logger.Error("Failed to recompute assessment", zap.Uint("application_id", applicationID), zap.Error(err))
		return
	}

	progress, err := o.progress.ComputeProgress(applicationID)
	if err != nil {
		o.logger.Error("Failed to compute progress", zap.Uint("application_id", applicationID), zap.Error(err))
		return
	}

	if o.publisher != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		o.publisher.PublishProgress(ctx, *progress)
		cancel()
	}
}
