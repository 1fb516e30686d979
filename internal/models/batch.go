package models

import (
	"fmt"
	"math"
	"time"
)

type BatchResult struct {
	BatchID        string          `json:"batch_id"`
	StartedAt      time.Time       `json:"started_at"`
	CompletedAt    time.Time       `json:"completed_at"`
	Duration       time.Duration   `json:"duration"`
	TotalProcessed int             `json:"total_processed"`
	SuccessCount   int             `json:"success_count"`
	ErrorCount     int             `json:"error_count"`
	Results        []GradingResult `json:"results"`
	Errors         []BatchError    `json:"errors"`
}

func (b *BatchResult) HasErrors() bool {
	return len(b.Errors) > 0
}

type BatchError struct {
	StudentID    string `json:"student_id"`
	StudentName  string `json:"student_name"`
	ErrorMessage string `json:"error_message"`
}

func (e BatchError) Error() string {
	return fmt.Sprintf("sheet %s (%s): %s", e.StudentID, e.StudentName, e.ErrorMessage)
}

type BatchProgress struct {
	TotalStudents      int    `json:"total_students"`
	ProcessedStudents  int    `json:"processed_students"`
	SuccessCount       int    `json:"success_count"`
	ErrorCount         int    `json:"error_count"`
	CurrentStudentName string `json:"current_student_name"`
	StatusMessage      string `json:"status_message"`
}

// PercentComplete is rounded to one decimal
func (p BatchProgress) PercentComplete() float64 {
	if p.TotalStudents <= 0 {
		return 0
	}
	return math.Round(float64(p.ProcessedStudents)/float64(p.TotalStudents)*1000) / 10
}

func (p BatchProgress) IsComplete() bool {
	return p.ProcessedStudents >= p.TotalStudents
}
