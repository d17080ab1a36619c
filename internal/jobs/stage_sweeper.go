package jobs

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"neurohire/pipeline/internal/models"
	"neurohire/pipeline/internal/repositories"
)

// Finalizer is the orchestrator surface the sweeper needs.
type Finalizer interface {
	DispatchResume(applicationID uint)
	DispatchVideo(applicationID uint, questionIndex int)
	Finalize(applicationID uint)
}

// SweeperConfig contains configuration for the stage sweeper job.
type SweeperConfig struct {
	Schedule       string        // cron schedule, e.g. "@every 1m"
	StaleFor       time.Duration // how long a row may sit pending before re-dispatch
	AnswerDeadline time.Duration // 0 disables deadline expiry
}

// StageSweeper is the safety net behind in-memory dispatch. It re-dispatches
// rows stuck in pending (a restart loses goroutines, not rows) and, when an
// answer deadline is configured, fails the never-answered questions of
// expired applications so their progress can still reach completion.
type StageSweeper struct {
	apps      *repositories.ApplicationRepository
	analyses  *repositories.AnalysisRepository
	finalizer Finalizer
	config    *SweeperConfig
	logger    *zap.Logger
	cron      *cron.Cron
}

func NewStageSweeper(
	apps *repositories.ApplicationRepository,
	analyses *repositories.AnalysisRepository,
	finalizer Finalizer,
	config *SweeperConfig,
	logger *zap.Logger,
) *StageSweeper {
	return &StageSweeper{
		apps:      apps,
		analyses:  analyses,
		finalizer: finalizer,
		config:    config,
		logger:    logger,
		cron:      cron.New(),
	}
}

// Start begins the scheduled sweep.
func (s *StageSweeper) Start() error {
	_, err := s.cron.AddFunc(s.config.Schedule, func() {
		if err := s.RunSweep(); err != nil {
			s.logger.Error("Stage sweep failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule stage sweep: %w", err)
	}

	s.cron.Start()
	s.logger.Info("Stage sweeper started", zap.String("schedule", s.config.Schedule))
	return nil
}

func (s *StageSweeper) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

// RunSweep executes one pass. Exported so tests and an admin trigger can run
// it without the scheduler.
func (s *StageSweeper) RunSweep() error {
	if err := s.redispatchStale(); err != nil {
		return err
	}
	if s.config.AnswerDeadline > 0 {
		return s.expireUnanswered()
	}
	return nil
}

func (s *StageSweeper) redispatchStale() error {
	cutoff := time.Now().Add(-s.config.StaleFor)

	resumes, err := s.analyses.ListStaleResumes(cutoff)
	if err != nil {
		return err
	}
	for _, analysis := range resumes {
		s.logger.Info("Re-dispatching stale resume stage", zap.Uint("application_id", analysis.ApplicationID))
		s.finalizer.DispatchResume(analysis.ApplicationID)
	}

	videos, err := s.analyses.ListStaleVideos(cutoff)
	if err != nil {
		return err
	}
	for _, submission := range videos {
		s.logger.Info("Re-dispatching stale video stage",
			zap.Uint("application_id", submission.ApplicationID),
			zap.Int("question_index", submission.QuestionIndex))
		s.finalizer.DispatchVideo(submission.ApplicationID, submission.QuestionIndex)
	}
	return nil
}

// expireUnanswered creates failed rows for question indexes an expired
// application never answered, so skipping a question counts as 0 once the
// deadline passes instead of stalling progress below 100 forever.
func (s *StageSweeper) expireUnanswered() error {
	cutoff := time.Now().Add(-s.config.AnswerDeadline)

	apps, err := s.apps.ListExpiredPending(cutoff)
	if err != nil {
		return err
	}

	for _, app := range apps {
		expectedVideos := app.ExpectedStages - 1
		if expectedVideos <= 0 {
			continue
		}

		submissions, err := s.analyses.ListVideos(app.ID)
		if err != nil {
			return err
		}
		answered := make(map[int]bool, len(submissions))
		for _, sub := range submissions {
			answered[sub.QuestionIndex] = true
		}

		expired := 0
		for idx := 0; idx < expectedVideos; idx++ {
			if answered[idx] {
				continue
			}
			failed := &models.VideoSubmission{
				ApplicationID: app.ID,
				QuestionIndex: idx,
				Status:        models.StageFailed,
				LastError:     "answer deadline passed with no submission",
			}
			if err := s.analyses.CreateFailedVideo(failed); err != nil {
				return err
			}
			expired++
		}

		if expired > 0 {
			s.logger.Info("Expired unanswered questions",
				zap.Uint("application_id", app.ID),
				zap.Int("count", expired))
			s.finalizer.Finalize(app.ID)
		}
	}
	return nil
}
