package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/exam-reader-service/internal/batch"
	"github.com/SAP-F-2025/exam-reader-service/internal/models"
	"github.com/SAP-F-2025/exam-reader-service/internal/ocr"
	"github.com/SAP-F-2025/exam-reader-service/internal/services"
)

// MockExamService is a mock implementation of ExamService
type MockExamService struct {
	mock.Mock
}

func (m *MockExamService) ParseSheet(ctx context.Context, req *services.ParseSheetRequest) (*services.SheetResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*services.SheetResponse)
	return resp, args.Error(1)
}

func (m *MockExamService) ScanSheet(ctx context.Context, req *services.ScanSheetRequest) (*services.SheetResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*services.SheetResponse)
	return resp, args.Error(1)
}

func (m *MockExamService) GradeSheet(ctx context.Context, req *services.GradeSheetRequest) (*models.GradingResult, error) {
	args := m.Called(ctx, req)
	result, _ := args.Get(0).(*models.GradingResult)
	return result, args.Error(1)
}

func (m *MockExamService) RunBatch(ctx context.Context, req *services.BatchRequest, observer batch.ProgressObserver) (*services.BatchResponse, error) {
	args := m.Called(ctx, req, observer)
	resp, _ := args.Get(0).(*services.BatchResponse)
	return resp, args.Error(1)
}

func (m *MockExamService) Analyze(ctx context.Context, req *services.AnalyzeRequest) (*models.ExamAnalytics, error) {
	args := m.Called(ctx, req)
	result, _ := args.Get(0).(*models.ExamAnalytics)
	return result, args.Error(1)
}

func (m *MockExamService) GetRunAnalytics(ctx context.Context, runID string) (*models.ExamAnalytics, error) {
	args := m.Called(ctx, runID)
	result, _ := args.Get(0).(*models.ExamAnalytics)
	return result, args.Error(1)
}

func (m *MockExamService) ExportRun(ctx context.Context, runID, format string) (*services.ExportFile, error) {
	args := m.Called(ctx, runID, format)
	file, _ := args.Get(0).(*services.ExportFile)
	return file, args.Error(1)
}

func (m *MockExamService) ListRuns(ctx context.Context, req *services.ListRunsRequest) (*services.RunListResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*services.RunListResponse)
	return resp, args.Error(1)
}

func (m *MockExamService) ListExamRuns(ctx context.Context, examID string, limit int) ([]services.RunSummary, error) {
	args := m.Called(ctx, examID, limit)
	runs, _ := args.Get(0).([]services.RunSummary)
	return runs, args.Error(1)
}

func (m *MockExamService) DeleteRun(ctx context.Context, runID string) error {
	args := m.Called(ctx, runID)
	return args.Error(0)
}

func (m *MockExamService) PurgeAnalyticsCache(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRouter(svc services.ExamService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewHandlerManager(svc, testLogger()).NewRouter()
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func answerKey() models.AnswerKey {
	return models.AnswerKey{
		ExamID: "exam-1",
		Questions: []models.Question{
			{Number: 1, CorrectAnswer: "A"},
			{Number: 2, CorrectAnswer: "B"},
		},
	}
}

func TestHealthCheck(t *testing.T) {
	router := newTestRouter(new(MockExamService))

	w := doJSON(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRouter_CORS(t *testing.T) {
	router := newTestRouter(new(MockExamService))

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/grading/grade", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestExamHandler_ParseSheet(t *testing.T) {
	router := newTestRouter(services.NewExamService(services.ExamServiceDeps{Logger: testLogger()}))

	student := ocr.DemoStudent{ID: "2024007", Name: "Deniz Arslan", Answers: "ABCDABCDABCDABCDABCDABCDABCDAB"}
	w := doJSON(t, router, http.MethodPost, "/api/v1/sheets/parse", services.ParseSheetRequest{
		OcrResult: *ocr.RenderDemoSheet(student),
		Template:  models.DefaultTemplate(),
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp services.SheetResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Deniz Arslan", resp.Sheet.StudentName)
	assert.Len(t, resp.Sheet.ExtractedAnswers, 30)
}

func TestExamHandler_ScanSheet(t *testing.T) {
	router := newTestRouter(services.NewExamService(services.ExamServiceDeps{Logger: testLogger()}))

	w := doJSON(t, router, http.MethodPost, "/api/v1/sheets/scan", services.ScanSheetRequest{
		Image:    []byte{0x89, 0x50, 0x4e, 0x47},
		Template: models.DefaultTemplate(),
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"provider":"demo"`)
}

func TestExamHandler_GradeSheet(t *testing.T) {
	router := newTestRouter(services.NewExamService(services.ExamServiceDeps{Logger: testLogger()}))

	w := doJSON(t, router, http.MethodPost, "/api/v1/grading/grade", services.GradeSheetRequest{
		StudentID: "2024001",
		Answers: []models.StudentAnswer{
			{QuestionNumber: 1, SelectedAnswer: "A", Confidence: 0.95, Status: models.StatusAnswered},
			{QuestionNumber: 2, SelectedAnswer: "B", Confidence: 0.95, Status: models.StatusAnswered},
		},
		AnswerKey: answerKey(),
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result models.GradingResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, 100.0, result.Percentage)
	assert.Equal(t, "A", result.LetterGrade)
}

func TestExamHandler_GradeSheet_Errors(t *testing.T) {
	router := newTestRouter(services.NewExamService(services.ExamServiceDeps{Logger: testLogger()}))

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/grading/grade", bytes.NewBufferString("{"))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("validation", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/v1/grading/grade", services.GradeSheetRequest{})
		require.Equal(t, http.StatusBadRequest, w.Code)

		var resp struct {
			Message string                     `json:"message"`
			Details []services.ValidationError `json:"details"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "Validation failed", resp.Message)
		require.Len(t, resp.Details, 1)
		assert.Equal(t, "answer_key.questions", resp.Details[0].Field)
	})
}

func TestExamHandler_RunBatch(t *testing.T) {
	router := newTestRouter(services.NewExamService(services.ExamServiceDeps{Logger: testLogger()}))

	w := doJSON(t, router, http.MethodPost, "/api/v1/grading/batch", services.BatchRequest{
		AnswerKey: answerKey(),
		Sheets: []models.AnswerSheet{
			{StudentID: "1", StudentName: "Ada", ExtractedAnswers: []models.StudentAnswer{
				{QuestionNumber: 1, SelectedAnswer: "A", Status: models.StatusAnswered},
			}},
			{StudentID: "2", StudentName: "Baris"},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp services.BatchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.RunID)
	assert.False(t, resp.Persisted)
	assert.Equal(t, 2, resp.Batch.TotalProcessed)
	assert.Equal(t, 2, resp.Analytics.TotalStudents)
}

func TestExamHandler_Analyze(t *testing.T) {
	svc := new(MockExamService)
	svc.On("Analyze", mock.Anything, mock.AnythingOfType("*services.AnalyzeRequest")).
		Return(&models.ExamAnalytics{TotalStudents: 2, ClassAverage: 75}, nil)

	w := doJSON(t, newTestRouter(svc), http.MethodPost, "/api/v1/analytics", services.AnalyzeRequest{AnswerKey: answerKey()})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"class_average":75`)
	svc.AssertExpectations(t)
}

func TestExamHandler_GetRunAnalytics(t *testing.T) {
	svc := new(MockExamService)
	svc.On("GetRunAnalytics", mock.Anything, "run-1").Return(&models.ExamAnalytics{TotalStudents: 5}, nil)
	svc.On("GetRunAnalytics", mock.Anything, "missing").Return(nil, services.ErrExamRunNotFound)
	svc.On("GetRunAnalytics", mock.Anything, "offline").Return(nil, services.ErrPersistenceDisabled)
	svc.On("GetRunAnalytics", mock.Anything, "broken").Return(nil, errors.New("disk on fire"))
	router := newTestRouter(svc)

	tests := []struct {
		runID string
		code  int
	}{
		{"run-1", http.StatusOK},
		{"missing", http.StatusNotFound},
		{"offline", http.StatusServiceUnavailable},
		{"broken", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.runID, func(t *testing.T) {
			w := doJSON(t, router, http.MethodGet, "/api/v1/runs/"+tt.runID+"/analytics", nil)
			assert.Equal(t, tt.code, w.Code)
		})
	}
}

func TestExamHandler_ExportRun(t *testing.T) {
	svc := new(MockExamService)
	svc.On("ExportRun", mock.Anything, "run-1", "csv").Return(&services.ExportFile{
		FileName:    "exam-run-run-1.csv",
		ContentType: "text/csv; charset=utf-8",
		Content:     []byte("Rank,StudentId\n"),
	}, nil)
	svc.On("ExportRun", mock.Anything, "run-1", "pdf").Return(nil, services.ErrUnsupportedFormat)
	router := newTestRouter(svc)

	w := doJSON(t, router, http.MethodGet, "/api/v1/runs/run-1/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="exam-run-run-1.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "Rank,StudentId\n", w.Body.String())

	w = doJSON(t, router, http.MethodGet, "/api/v1/runs/run-1/export?format=pdf", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExamHandler_ListRuns(t *testing.T) {
	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	svc := new(MockExamService)
	svc.On("ListRuns", mock.Anything, &services.ListRunsRequest{ExamID: "exam-1", DateFrom: &from, Limit: 5, Offset: 10}).
		Return(&services.RunListResponse{
			Runs:  []services.RunSummary{{ID: "run-1", ExamID: "exam-1"}},
			Total: 11,
			Limit: 5, Offset: 10,
		}, nil)
	router := newTestRouter(svc)

	w := doJSON(t, router, http.MethodGet, "/api/v1/runs?exam_id=exam-1&from=2025-03-01T00:00:00Z&limit=5&offset=10", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp services.RunListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(11), resp.Total)
	require.Len(t, resp.Runs, 1)
	assert.Equal(t, "run-1", resp.Runs[0].ID)
	svc.AssertExpectations(t)

	for _, query := range []string{"limit=ten", "offset=x", "from=yesterday", "to=2025-13-01"} {
		t.Run(query, func(t *testing.T) {
			w := doJSON(t, router, http.MethodGet, "/api/v1/runs?"+query, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestExamHandler_ListExamRuns(t *testing.T) {
	svc := new(MockExamService)
	svc.On("ListExamRuns", mock.Anything, "exam-1", 20).
		Return([]services.RunSummary{{ID: "run-1"}, {ID: "run-2"}}, nil)
	svc.On("ListExamRuns", mock.Anything, "exam-2", 3).Return(nil, services.ErrPersistenceDisabled)
	router := newTestRouter(svc)

	w := doJSON(t, router, http.MethodGet, "/api/v1/exams/exam-1/runs", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		ExamID string                `json:"exam_id"`
		Runs   []services.RunSummary `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "exam-1", resp.ExamID)
	assert.Len(t, resp.Runs, 2)

	w = doJSON(t, router, http.MethodGet, "/api/v1/exams/exam-2/runs?limit=3", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestExamHandler_DeleteRun(t *testing.T) {
	svc := new(MockExamService)
	svc.On("DeleteRun", mock.Anything, "run-1").Return(nil)
	svc.On("DeleteRun", mock.Anything, "missing").Return(services.ErrExamRunNotFound)
	router := newTestRouter(svc)

	w := doJSON(t, router, http.MethodDelete, "/api/v1/runs/run-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Run deleted")

	w = doJSON(t, router, http.MethodDelete, "/api/v1/runs/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	svc.AssertExpectations(t)
}

func TestExamHandler_PurgeAnalyticsCache(t *testing.T) {
	svc := new(MockExamService)
	svc.On("PurgeAnalyticsCache", mock.Anything).Return(nil).Once()
	svc.On("PurgeAnalyticsCache", mock.Anything).Return(services.ErrCacheDisabled).Once()
	router := newTestRouter(svc)

	w := doJSON(t, router, http.MethodDelete, "/api/v1/cache/analytics", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodDelete, "/api/v1/cache/analytics", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	svc.AssertExpectations(t)
}
