package models

import (
	"time"
)

type AnswerStatus string

const (
	StatusAnswered      AnswerStatus = "answered"
	StatusUnanswered    AnswerStatus = "unanswered"
	StatusMultipleMarks AnswerStatus = "multiple_marks"
	StatusUnclear       AnswerStatus = "unclear"
)

// StudentAnswer is one extracted response. Text only carries scoring meaning when Status is answered.
type StudentAnswer struct {
	QuestionNumber int          `json:"question_number" validate:"required,min=1"`
	SelectedAnswer string       `json:"selected_answer"`
	Confidence     float64      `json:"confidence" validate:"min=0,max=1"`
	Status         AnswerStatus `json:"status" validate:"required,answer_status"`
}

type AnswerSheet struct {
	ID               string              `json:"id"`
	StudentID        string              `json:"student_id"`
	StudentName      string              `json:"student_name"`
	Template         AnswerSheetTemplate `json:"template"`
	ExtractedAnswers []StudentAnswer     `json:"extracted_answers" validate:"dive"`
	ProcessedAt      time.Time           `json:"processed_at"`
}

// StudentInfo holds the identity fields read from a sheet header
type StudentInfo struct {
	StudentID   string `json:"student_id"`
	StudentName string `json:"student_name"`
}
