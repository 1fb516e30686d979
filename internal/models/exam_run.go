package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// ExamRun is one persisted batch grading run
type ExamRun struct {
	ID           string    `json:"id" gorm:"primaryKey;size:36"`
	ExamID       string    `json:"exam_id" gorm:"not null;size:100;index"`
	ExamTitle    string    `json:"exam_title" gorm:"size:200"`
	StartedAt    time.Time `json:"started_at" gorm:"not null"`
	CompletedAt  time.Time `json:"completed_at"`
	Processed    int       `json:"processed"`
	SuccessCount int       `json:"success_count"`
	ErrorCount   int       `json:"error_count"`

	AnswerKey datatypes.JSON `json:"answer_key" gorm:"type:jsonb"` // AnswerKey
	Options   datatypes.JSON `json:"options" gorm:"type:jsonb"`    // GradingOptions
	Errors    datatypes.JSON `json:"errors" gorm:"type:jsonb"`     // []BatchError
	Analytics datatypes.JSON `json:"analytics" gorm:"type:jsonb"`  // ExamAnalytics

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Results []StoredResult `json:"results,omitempty" gorm:"foreignKey:RunID"`
}

// StoredResult is one student's persisted grade within a run
type StoredResult struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	RunID       string  `json:"run_id" gorm:"not null;size:36;index"`
	StudentID   string  `json:"student_id" gorm:"size:100;index"`
	StudentName string  `json:"student_name" gorm:"size:200"`
	Correct     int     `json:"correct"`
	Incorrect   int     `json:"incorrect"`
	Unanswered  int     `json:"unanswered"`
	RawScore    float64 `json:"raw_score"`
	MaxScore    float64 `json:"max_score"`
	Percentage  float64 `json:"percentage" gorm:"index"`
	LetterGrade string  `json:"letter_grade" gorm:"size:4"`
	Passed      bool    `json:"passed"`

	QuestionResults datatypes.JSON `json:"question_results" gorm:"type:jsonb"` // []QuestionResult

	CreatedAt time.Time `json:"created_at"`
}

func (ExamRun) TableName() string {
	return "exam_runs"
}

func (StoredResult) TableName() string {
	return "exam_run_results"
}

// NewExamRun snapshots a finished batch into a persistable row
func NewExamRun(id string, key AnswerKey, options GradingOptions, batch *BatchResult) (*ExamRun, error) {
	keyJSON, err := json.Marshal(key)
	if err != nil {
		return nil, fmt.Errorf("failed to encode answer key: %w", err)
	}
	optionsJSON, err := json.Marshal(options)
	if err != nil {
		return nil, fmt.Errorf("failed to encode grading options: %w", err)
	}
	errorsJSON, err := json.Marshal(batch.Errors)
	if err != nil {
		return nil, fmt.Errorf("failed to encode batch errors: %w", err)
	}

	return &ExamRun{
		ID:           id,
		ExamID:       key.ExamID,
		ExamTitle:    key.ExamTitle,
		StartedAt:    batch.StartedAt,
		CompletedAt:  batch.CompletedAt,
		Processed:    batch.TotalProcessed,
		SuccessCount: batch.SuccessCount,
		ErrorCount:   batch.ErrorCount,
		AnswerKey:    keyJSON,
		Options:      optionsJSON,
		Errors:       errorsJSON,
	}, nil
}

// DecodeAnswerKey returns the answer key the run was graded against
func (r *ExamRun) DecodeAnswerKey() (AnswerKey, error) {
	var key AnswerKey
	if len(r.AnswerKey) == 0 {
		return key, nil
	}
	if err := json.Unmarshal(r.AnswerKey, &key); err != nil {
		return key, fmt.Errorf("failed to decode answer key: %w", err)
	}
	return key, nil
}

// DecodeAnalytics returns nil when no analytics snapshot has been stored yet
func (r *ExamRun) DecodeAnalytics() (*ExamAnalytics, error) {
	if len(r.Analytics) == 0 || string(r.Analytics) == "null" {
		return nil, nil
	}
	var analytics ExamAnalytics
	if err := json.Unmarshal(r.Analytics, &analytics); err != nil {
		return nil, fmt.Errorf("failed to decode analytics: %w", err)
	}
	return &analytics, nil
}

func NewStoredResult(runID string, result GradingResult) (StoredResult, error) {
	questions, err := json.Marshal(result.QuestionResults)
	if err != nil {
		return StoredResult{}, fmt.Errorf("failed to encode question results: %w", err)
	}
	return StoredResult{
		RunID:           runID,
		StudentID:       result.StudentID,
		StudentName:     result.StudentName,
		Correct:         result.Correct,
		Incorrect:       result.Incorrect,
		Unanswered:      result.Unanswered,
		RawScore:        result.RawScore,
		MaxScore:        result.MaxScore,
		Percentage:      result.Percentage,
		LetterGrade:     result.LetterGrade,
		Passed:          result.Passed,
		QuestionResults: questions,
	}, nil
}

func (s StoredResult) ToGradingResult() (GradingResult, error) {
	result := GradingResult{
		StudentID:   s.StudentID,
		StudentName: s.StudentName,
		Correct:     s.Correct,
		Incorrect:   s.Incorrect,
		Unanswered:  s.Unanswered,
		RawScore:    s.RawScore,
		MaxScore:    s.MaxScore,
		Percentage:  s.Percentage,
		LetterGrade: s.LetterGrade,
		Passed:      s.Passed,
	}
	if len(s.QuestionResults) > 0 {
		if err := json.Unmarshal(s.QuestionResults, &result.QuestionResults); err != nil {
			return result, fmt.Errorf("failed to decode question results: %w", err)
		}
	}
	return result, nil
}
