package services

import (
	"context"
	"time"

	"github.com/SAP-F-2025/exam-reader-service/internal/batch"
	"github.com/SAP-F-2025/exam-reader-service/internal/models"
)

// ExamService runs the answer sheet pipeline: read, grade, analyze, persist, export
type ExamService interface {
	ParseSheet(ctx context.Context, req *ParseSheetRequest) (*SheetResponse, error)
	ScanSheet(ctx context.Context, req *ScanSheetRequest) (*SheetResponse, error)
	GradeSheet(ctx context.Context, req *GradeSheetRequest) (*models.GradingResult, error)
	RunBatch(ctx context.Context, req *BatchRequest, observer batch.ProgressObserver) (*BatchResponse, error)
	Analyze(ctx context.Context, req *AnalyzeRequest) (*models.ExamAnalytics, error)
	GetRunAnalytics(ctx context.Context, runID string) (*models.ExamAnalytics, error)
	ExportRun(ctx context.Context, runID, format string) (*ExportFile, error)

	// Run management
	ListRuns(ctx context.Context, req *ListRunsRequest) (*RunListResponse, error)
	ListExamRuns(ctx context.Context, examID string, limit int) ([]RunSummary, error)
	DeleteRun(ctx context.Context, runID string) error
	PurgeAnalyticsCache(ctx context.Context) error
}

// ===== REQUESTS =====

type ParseSheetRequest struct {
	OcrResult models.OcrResult           `json:"ocr_result"`
	Template  models.AnswerSheetTemplate `json:"template"`
}

// ScanSheetRequest carries the raw image; JSON clients send it base64 encoded
type ScanSheetRequest struct {
	Image    []byte                     `json:"image"`
	Provider string                     `json:"provider,omitempty"`
	Template models.AnswerSheetTemplate `json:"template"`
}

type GradeSheetRequest struct {
	StudentID   string                 `json:"student_id"`
	StudentName string                 `json:"student_name"`
	Answers     []models.StudentAnswer `json:"answers" validate:"dive"`
	AnswerKey   models.AnswerKey       `json:"answer_key"`
	Options     *models.GradingOptions `json:"options,omitempty"`
}

type BatchRequest struct {
	AnswerKey models.AnswerKey       `json:"answer_key"`
	Options   *models.GradingOptions `json:"options,omitempty"`
	Sheets    []models.AnswerSheet   `json:"sheets"`
}

type AnalyzeRequest struct {
	Results   []models.GradingResult `json:"results"`
	AnswerKey models.AnswerKey       `json:"answer_key"`
}

type ListRunsRequest struct {
	ExamID   string     `json:"exam_id"`
	DateFrom *time.Time `json:"date_from"`
	DateTo   *time.Time `json:"date_to"`
	Limit    int        `json:"limit" validate:"min=0,max=100"`
	Offset   int        `json:"offset" validate:"min=0"`
}

// ===== RESPONSES =====

type SheetResponse struct {
	Sheet         models.AnswerSheet `json:"sheet"`
	Parser        string             `json:"parser"`
	AnsweredCount int                `json:"answered_count"`
	Provider      string             `json:"provider,omitempty"`
	OcrConfidence float64            `json:"ocr_confidence,omitempty"`
}

type BatchResponse struct {
	RunID     string               `json:"run_id"`
	Batch     *models.BatchResult  `json:"batch"`
	Analytics models.ExamAnalytics `json:"analytics"`
	Persisted bool                 `json:"persisted"`
}

type ExportFile struct {
	FileName    string
	ContentType string
	Content     []byte
}

// RunSummary is a stored run without its answer key, results or analytics blobs
type RunSummary struct {
	ID           string    `json:"id"`
	ExamID       string    `json:"exam_id"`
	ExamTitle    string    `json:"exam_title"`
	StartedAt    time.Time `json:"started_at"`
	CompletedAt  time.Time `json:"completed_at"`
	Processed    int       `json:"processed"`
	SuccessCount int       `json:"success_count"`
	ErrorCount   int       `json:"error_count"`
}

type RunListResponse struct {
	Runs   []RunSummary `json:"runs"`
	Total  int64        `json:"total"`
	Limit  int          `json:"limit"`
	Offset int          `json:"offset"`
}

func newRunSummaries(runs []*models.ExamRun) []RunSummary {
	summaries := make([]RunSummary, 0, len(runs))
	for _, run := range runs {
		summaries = append(summaries, RunSummary{
			ID:           run.ID,
			ExamID:       run.ExamID,
			ExamTitle:    run.ExamTitle,
			StartedAt:    run.StartedAt,
			CompletedAt:  run.CompletedAt,
			Processed:    run.Processed,
			SuccessCount: run.SuccessCount,
			ErrorCount:   run.ErrorCount,
		})
	}
	return summaries
}
