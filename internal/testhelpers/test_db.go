package testhelpers

import (
	"fmt"
	"testing"

	"neurohire/pipeline/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var (
	openSQLite = func(dsn string) (*gorm.DB, error) {
		return gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	}
	migrateSchema = func(db *gorm.DB) error {
		return db.AutoMigrate(
			&models.Job{},
			&models.JobQuestion{},
			&models.Application{},
			&models.ResumeAnalysis{},
			&models.VideoSubmission{},
			&models.AggregateAssessment{},
			&models.Decision{},
		)
	}
)

// SetupTestDB creates an isolated in-memory SQLite database for tests.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := openSQLite(dsn)
	if err != nil {
		panic(fmt.Sprintf("failed to open test database: %v", err))
	}
	if err := migrateSchema(db); err != nil {
		panic(fmt.Sprintf("failed to migrate test database: %v", err))
	}
	return db
}

// SeedJob inserts a job with the given weights and question count and returns it.
func SeedJob(t *testing.T, db *gorm.DB, resumeWeight, videoWeight, questions int) *models.Job {
	t.Helper()

	job := &models.Job{
		Title:        "Store Worker",
		Description:  "Retail store operations and customer service.",
		Requirements: "Customer handling, inventory, stock management.",
		Status:       "open",
		ResumeWeight: resumeWeight,
		VideoWeight:  videoWeight,
	}
	if err := db.Create(job).Error; err != nil {
		panic(fmt.Sprintf("failed to seed job: %v", err))
	}
	for i := 0; i < questions; i++ {
		q := &models.JobQuestion{
			JobID:         job.ID,
			QuestionIndex: i,
			Text:          fmt.Sprintf("Interview question %d", i+1),
		}
		if err := db.Create(q).Error; err != nil {
			panic(fmt.Sprintf("failed to seed question: %v", err))
		}
	}
	return job
}

// SeedApplication inserts an application for the job, freezing the expected
// stage count the same way the repository does.
func SeedApplication(t *testing.T, db *gorm.DB, job *models.Job, questions int) *models.Application {
	t.Helper()

	app := &models.Application{
		CandidateID:    1,
		JobID:          job.ID,
		Status:         models.ApplicationPending,
		ExpectedStages: 1 + questions,
	}
	if err := db.Create(app).Error; err != nil {
		panic(fmt.Sprintf("failed to seed application: %v", err))
	}
	return app
}
