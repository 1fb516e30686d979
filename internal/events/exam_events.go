package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/SAP-F-2025/exam-reader-service/internal/models"
)

// EventType represents the kinds of exam pipeline events
type EventType string

const (
	// Grading events
	EventSheetGraded EventType = "sheet.graded"

	// Batch events
	EventBatchProgress  EventType = "batch.progress"
	EventBatchCompleted EventType = "batch.completed"

	// Analytics events
	EventAnalyticsComputed EventType = "analytics.computed"
)

const (
	eventSource  = "exam-reader-service"
	eventVersion = "1.0"
)

// ExamEvent is the envelope for every published event
type ExamEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Source    string         `json:"source"`
	Version   string         `json:"version"`
	Data      any            `json:"data"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Event payloads

type SheetGradedEvent struct {
	RunID       string  `json:"run_id,omitempty"`
	ExamID      string  `json:"exam_id"`
	StudentID   string  `json:"student_id"`
	StudentName string  `json:"student_name"`
	Percentage  float64 `json:"percentage"`
	LetterGrade string  `json:"letter_grade"`
	Passed      bool    `json:"passed"`
}

type BatchProgressEvent struct {
	RunID              string  `json:"run_id"`
	TotalStudents      int     `json:"total_students"`
	ProcessedStudents  int     `json:"processed_students"`
	SuccessCount       int     `json:"success_count"`
	ErrorCount         int     `json:"error_count"`
	CurrentStudentName string  `json:"current_student_name"`
	PercentComplete    float64 `json:"percent_complete"`
	StatusMessage      string  `json:"status_message"`
}

type BatchCompletedEvent struct {
	RunID          string        `json:"run_id"`
	ExamID         string        `json:"exam_id"`
	TotalProcessed int           `json:"total_processed"`
	SuccessCount   int           `json:"success_count"`
	ErrorCount     int           `json:"error_count"`
	Duration       time.Duration `json:"duration"`
}

type AnalyticsComputedEvent struct {
	RunID         string  `json:"run_id"`
	ExamID        string  `json:"exam_id"`
	TotalStudents int     `json:"total_students"`
	ClassAverage  float64 `json:"class_average"`
	PassRate      float64 `json:"pass_rate"`
	FlaggedCount  int     `json:"flagged_count"`
}

// Event factory functions

func newExamEvent(eventType EventType, data any) *ExamEvent {
	return &ExamEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Source:    eventSource,
		Version:   eventVersion,
		Data:      data,
	}
}

func NewSheetGradedEvent(runID, examID string, result models.GradingResult) *ExamEvent {
	return newExamEvent(EventSheetGraded, SheetGradedEvent{
		RunID:       runID,
		ExamID:      examID,
		StudentID:   result.StudentID,
		StudentName: result.StudentName,
		Percentage:  result.Percentage,
		LetterGrade: result.LetterGrade,
		Passed:      result.Passed,
	})
}

func NewBatchProgressEvent(runID string, progress models.BatchProgress) *ExamEvent {
	return newExamEvent(EventBatchProgress, BatchProgressEvent{
		RunID:              runID,
		TotalStudents:      progress.TotalStudents,
		ProcessedStudents:  progress.ProcessedStudents,
		SuccessCount:       progress.SuccessCount,
		ErrorCount:         progress.ErrorCount,
		CurrentStudentName: progress.CurrentStudentName,
		PercentComplete:    progress.PercentComplete(),
		StatusMessage:      progress.StatusMessage,
	})
}

func NewBatchCompletedEvent(runID, examID string, result *models.BatchResult) *ExamEvent {
	return newExamEvent(EventBatchCompleted, BatchCompletedEvent{
		RunID:          runID,
		ExamID:         examID,
		TotalProcessed: result.TotalProcessed,
		SuccessCount:   result.SuccessCount,
		ErrorCount:     result.ErrorCount,
		Duration:       result.Duration,
	})
}

func NewAnalyticsComputedEvent(runID string, analytics models.ExamAnalytics) *ExamEvent {
	flagged := 0
	for _, q := range analytics.QuestionStats {
		if q.FlaggedForReview {
			flagged++
		}
	}
	return newExamEvent(EventAnalyticsComputed, AnalyticsComputedEvent{
		RunID:         runID,
		ExamID:        analytics.ExamID,
		TotalStudents: analytics.TotalStudents,
		ClassAverage:  analytics.ClassAverage,
		PassRate:      analytics.PassRate,
		FlaggedCount:  flagged,
	})
}
