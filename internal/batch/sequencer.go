// Package batch grades a list of answer sheets one at a time, isolating
// per-sheet faults and reporting progress after every sheet.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/SAP-F-2025/exam-reader-service/internal/grading"
	"github.com/SAP-F-2025/exam-reader-service/internal/models"
)

// ProgressObserver receives a snapshot after each sheet. It is called synchronously on the sequencer goroutine.
type ProgressObserver interface {
	OnProgress(ctx context.Context, progress models.BatchProgress)
}

// ProgressFunc adapts a plain function to ProgressObserver
type ProgressFunc func(ctx context.Context, progress models.BatchProgress)

func (f ProgressFunc) OnProgress(ctx context.Context, progress models.BatchProgress) {
	f(ctx, progress)
}

// Outcome is the per-sheet result: exactly one of Result or Err is meaningful
type Outcome struct {
	Sheet  models.AnswerSheet
	Result models.GradingResult
	Err    error
}

func (o Outcome) Succeeded() bool {
	return o.Err == nil
}

type Sequencer struct {
	grader grading.Grader
	logger *slog.Logger
	now    func() time.Time
}

func NewSequencer(grader grading.Grader, logger *slog.Logger) *Sequencer {
	return &Sequencer{
		grader: grader,
		logger: logger.With("component", "batch_sequencer"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Process grades sheets in input order. A failing sheet becomes a BatchError and the run continues.
// Cancellation stops the loop at the next sheet boundary; the partial result is returned with ctx.Err().
func (s *Sequencer) Process(ctx context.Context, sheets []models.AnswerSheet, key models.AnswerKey, options models.GradingOptions, observer ProgressObserver) (*models.BatchResult, error) {
	result := &models.BatchResult{
		BatchID:   uuid.NewString(),
		StartedAt: s.now(),
		Results:   make([]models.GradingResult, 0, len(sheets)),
		Errors:    []models.BatchError{},
	}
	progress := models.BatchProgress{TotalStudents: len(sheets)}

	s.logger.Info("Starting batch", "batch_id", result.BatchID, "sheets", len(sheets))

	for _, sheet := range sheets {
		if err := ctx.Err(); err != nil {
			return s.abort(result, sheet, err)
		}

		outcome := s.gradeSheet(ctx, sheet, key, options)
		if outcome.Err != nil && isCancellation(outcome.Err) {
			return s.abort(result, sheet, outcome.Err)
		}

		progress.CurrentStudentName = sheet.StudentName
		if outcome.Succeeded() {
			result.Results = append(result.Results, outcome.Result)
			result.SuccessCount++
			progress.SuccessCount++
			progress.StatusMessage = fmt.Sprintf("Graded %s", sheet.StudentName)
		} else {
			s.logger.Error("Failed to grade sheet",
				"batch_id", result.BatchID,
				"student_id", sheet.StudentID,
				"student_name", sheet.StudentName,
				"error", outcome.Err)
			result.Errors = append(result.Errors, models.BatchError{
				StudentID:    sheet.StudentID,
				StudentName:  sheet.StudentName,
				ErrorMessage: outcome.Err.Error(),
			})
			result.ErrorCount++
			progress.ErrorCount++
			progress.StatusMessage = fmt.Sprintf("Failed to grade %s", sheet.StudentName)
		}

		result.TotalProcessed++
		progress.ProcessedStudents++
		if progress.IsComplete() {
			progress.StatusMessage = completionMessage(progress)
		}
		notify(ctx, observer, progress)
	}

	if len(sheets) == 0 {
		progress.StatusMessage = completionMessage(progress)
		notify(ctx, observer, progress)
	}

	s.finish(result)
	s.logger.Info("Batch complete",
		"batch_id", result.BatchID,
		"success", result.SuccessCount,
		"errors", result.ErrorCount,
		"duration_ms", result.Duration.Milliseconds())

	return result, nil
}

// gradeSheet converts both returned errors and panics into an Outcome
func (s *Sequencer) gradeSheet(ctx context.Context, sheet models.AnswerSheet, key models.AnswerKey, options models.GradingOptions) (outcome Outcome) {
	outcome.Sheet = sheet
	defer func() {
		if r := recover(); r != nil {
			outcome.Err = fmt.Errorf("grading panicked: %v", r)
		}
	}()

	graded, err := s.grader.GradeContext(ctx, sheet.ExtractedAnswers, key, options)
	if err != nil {
		outcome.Err = err
		return outcome
	}
	outcome.Result = graded.WithStudent(sheet.StudentID, sheet.StudentName)
	return outcome
}

func (s *Sequencer) abort(result *models.BatchResult, sheet models.AnswerSheet, err error) (*models.BatchResult, error) {
	s.finish(result)
	s.logger.Warn("Batch cancelled",
		"batch_id", result.BatchID,
		"at_student", sheet.StudentName,
		"processed", result.TotalProcessed)
	return result, err
}

func (s *Sequencer) finish(result *models.BatchResult) {
	result.CompletedAt = s.now()
	result.Duration = result.CompletedAt.Sub(result.StartedAt)
}

func notify(ctx context.Context, observer ProgressObserver, progress models.BatchProgress) {
	if observer != nil {
		observer.OnProgress(ctx, progress)
	}
}

func completionMessage(progress models.BatchProgress) string {
	if progress.ErrorCount > 0 {
		return "Batch processing finished with errors."
	}
	return "Batch processing complete."
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
