package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/SAP-F-2025/exam-reader-service/internal/models"
	"gorm.io/gorm"
)

// ErrRunNotFound is returned when no exam run matches the requested id
var ErrRunNotFound = errors.New("exam run not found")

// ===== SHARED FILTER STRUCTS =====

type ExamRunFilters struct {
	ExamID   string     `json:"exam_id"`
	DateFrom *time.Time `json:"date_from"`
	DateTo   *time.Time `json:"date_to"`
	Limit    int        `json:"limit"`
	Offset   int        `json:"offset"`
}

// ===== REPOSITORIES =====

// ExamRunRepository persists batch grading runs and their per-student results.
// A nil tx runs the call on the repository's own connection.
type ExamRunRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, tx *gorm.DB, run *models.ExamRun) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.ExamRun, error)
	Delete(ctx context.Context, tx *gorm.DB, id string) error

	// Query operations
	ListByExam(ctx context.Context, tx *gorm.DB, examID string, limit int) ([]*models.ExamRun, error)
	List(ctx context.Context, tx *gorm.DB, filters ExamRunFilters) ([]*models.ExamRun, int64, error)

	// Results
	SaveResults(ctx context.Context, tx *gorm.DB, runID string, results []models.StoredResult) error
	GetResults(ctx context.Context, tx *gorm.DB, runID string) ([]models.StoredResult, error)

	// Analytics snapshot
	UpdateAnalytics(ctx context.Context, tx *gorm.DB, runID string, analytics []byte) error

	// Transactions
	WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}
