package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/SAP-F-2025/exam-reader-service/internal/models"
	"github.com/SAP-F-2025/exam-reader-service/internal/repositories"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
	resultBatchSize  = 100
)

// ErrRunNotFound aliases the repository sentinel
var ErrRunNotFound = repositories.ErrRunNotFound

type ExamRunPostgreSQL struct {
	db *gorm.DB
}

func NewExamRunPostgreSQL(db *gorm.DB) repositories.ExamRunRepository {
	return &ExamRunPostgreSQL{db: db}
}

func (r *ExamRunPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

// Create inserts the run row together with any preloaded results
func (r *ExamRunPostgreSQL) Create(ctx context.Context, tx *gorm.DB, run *models.ExamRun) error {
	if err := r.getDB(tx).WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("failed to create exam run: %w", err)
	}
	return nil
}

func (r *ExamRunPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.ExamRun, error) {
	var run models.ExamRun
	err := r.getDB(tx).WithContext(ctx).First(&run, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRunNotFound
		}
		return nil, fmt.Errorf("failed to get exam run: %w", err)
	}
	return &run, nil
}

// Delete removes the run and its results
func (r *ExamRunPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id string) error {
	return r.getDB(tx).WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("run_id = ?", id).Delete(&models.StoredResult{}).Error; err != nil {
			return fmt.Errorf("failed to delete exam run results: %w", err)
		}
		result := tx.Delete(&models.ExamRun{}, "id = ?", id)
		if result.Error != nil {
			return fmt.Errorf("failed to delete exam run: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrRunNotFound
		}
		return nil
	})
}

func (r *ExamRunPostgreSQL) ListByExam(ctx context.Context, tx *gorm.DB, examID string, limit int) ([]*models.ExamRun, error) {
	runs, _, err := r.List(ctx, tx, repositories.ExamRunFilters{ExamID: examID, Limit: limit})
	return runs, err
}

func (r *ExamRunPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.ExamRunFilters) ([]*models.ExamRun, int64, error) {
	query := r.getDB(tx).WithContext(ctx).Model(&models.ExamRun{})

	if filters.ExamID != "" {
		query = query.Where("exam_id = ?", filters.ExamID)
	}
	if filters.DateFrom != nil {
		query = query.Where("started_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("started_at <= ?", *filters.DateTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count exam runs: %w", err)
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	limit = min(limit, maxListLimit)

	var runs []*models.ExamRun
	err := query.
		Order("started_at DESC").
		Limit(limit).
		Offset(filters.Offset).
		Find(&runs).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list exam runs: %w", err)
	}

	return runs, total, nil
}

// SaveResults replaces any stored results of the run
func (r *ExamRunPostgreSQL) SaveResults(ctx context.Context, tx *gorm.DB, runID string, results []models.StoredResult) error {
	return r.getDB(tx).WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("run_id = ?", runID).Delete(&models.StoredResult{}).Error; err != nil {
			return fmt.Errorf("failed to clear exam run results: %w", err)
		}
		if len(results) == 0 {
			return nil
		}

		for i := range results {
			results[i].RunID = runID
			results[i].ID = 0
		}
		if err := tx.Omit(clause.Associations).CreateInBatches(results, resultBatchSize).Error; err != nil {
			return fmt.Errorf("failed to save exam run results: %w", err)
		}
		return nil
	})
}

func (r *ExamRunPostgreSQL) GetResults(ctx context.Context, tx *gorm.DB, runID string) ([]models.StoredResult, error) {
	var results []models.StoredResult
	err := r.getDB(tx).WithContext(ctx).
		Where("run_id = ?", runID).
		Order("percentage DESC, student_name ASC").
		Find(&results).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get exam run results: %w", err)
	}
	return results, nil
}

func (r *ExamRunPostgreSQL) UpdateAnalytics(ctx context.Context, tx *gorm.DB, runID string, analytics []byte) error {
	result := r.getDB(tx).WithContext(ctx).
		Model(&models.ExamRun{}).
		Where("id = ?", runID).
		Update("analytics", datatypes.JSON(analytics))
	if result.Error != nil {
		return fmt.Errorf("failed to update exam run analytics: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRunNotFound
	}
	return nil
}

func (r *ExamRunPostgreSQL) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}
