package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/exam-reader-service/internal/services"
)

const (
	defaultExportFormat = "csv"
	defaultRunsLimit    = 20
)

type ExamHandler struct {
	BaseHandler
	examService services.ExamService
}

func NewExamHandler(examService services.ExamService, logger *slog.Logger) *ExamHandler {
	return &ExamHandler{
		BaseHandler: NewBaseHandler(logger),
		examService: examService,
	}
}

// ParseSheet extracts answers from an OCR result
// @Router /sheets/parse [post]
func (h *ExamHandler) ParseSheet(c *gin.Context) {
	var req services.ParseSheetRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Parsing answer sheet", "format", req.Template.Format, "regions", len(req.OcrResult.Regions))

	resp, err := h.examService.ParseSheet(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ScanSheet runs OCR on a base64 image and extracts answers
// @Router /sheets/scan [post]
func (h *ExamHandler) ScanSheet(c *gin.Context) {
	var req services.ScanSheetRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Scanning answer sheet", "provider", req.Provider, "image_bytes", len(req.Image))

	resp, err := h.examService.ScanSheet(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GradeSheet grades one student's answers against a key
// @Router /grading/grade [post]
func (h *ExamHandler) GradeSheet(c *gin.Context) {
	var req services.GradeSheetRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Grading sheet", "exam_id", req.AnswerKey.ExamID, "student_id", req.StudentID)

	result, err := h.examService.GradeSheet(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// RunBatch grades a set of sheets and returns the run with its analytics
// @Router /grading/batch [post]
func (h *ExamHandler) RunBatch(c *gin.Context) {
	var req services.BatchRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Running batch", "exam_id", req.AnswerKey.ExamID, "sheets", len(req.Sheets))

	resp, err := h.examService.RunBatch(c.Request.Context(), &req, nil)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// Analyze computes class analytics for already graded results
// @Router /analytics [post]
func (h *ExamHandler) Analyze(c *gin.Context) {
	var req services.AnalyzeRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.examService.Analyze(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetRunAnalytics returns the analytics of a stored run
// @Router /runs/{id}/analytics [get]
func (h *ExamHandler) GetRunAnalytics(c *gin.Context) {
	runID := ParseStringIDParam(c, "id")
	if runID == "" {
		return
	}

	result, err := h.examService.GetRunAnalytics(c.Request.Context(), runID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ExportRun downloads a stored run as csv, xlsx, json or html
// @Router /runs/{id}/export [get]
func (h *ExamHandler) ExportRun(c *gin.Context) {
	runID := ParseStringIDParam(c, "id")
	if runID == "" {
		return
	}
	format := c.DefaultQuery("format", defaultExportFormat)

	h.LogRequest(c, "Exporting run", "run_id", runID, "format", format)

	file, err := h.examService.ExportRun(c.Request.Context(), runID, format)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.FileName))
	c.Data(http.StatusOK, file.ContentType, file.Content)
}

// ListRuns pages through stored runs, optionally filtered by exam and start time
// @Router /runs [get]
func (h *ExamHandler) ListRuns(c *gin.Context) {
	limit, ok := ParseIntQuery(c, "limit", defaultRunsLimit)
	if !ok {
		return
	}
	offset, ok := ParseIntQuery(c, "offset", 0)
	if !ok {
		return
	}
	from, ok := ParseTimeQuery(c, "from")
	if !ok {
		return
	}
	to, ok := ParseTimeQuery(c, "to")
	if !ok {
		return
	}

	resp, err := h.examService.ListRuns(c.Request.Context(), &services.ListRunsRequest{
		ExamID:   c.Query("exam_id"),
		DateFrom: from,
		DateTo:   to,
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListExamRuns returns the latest runs of one exam
// @Router /exams/{id}/runs [get]
func (h *ExamHandler) ListExamRuns(c *gin.Context) {
	examID := ParseStringIDParam(c, "id")
	if examID == "" {
		return
	}
	limit, ok := ParseIntQuery(c, "limit", defaultRunsLimit)
	if !ok {
		return
	}

	runs, err := h.examService.ListExamRuns(c.Request.Context(), examID, limit)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"exam_id": examID, "runs": runs})
}

// DeleteRun removes a stored run and its cached analytics
// @Router /runs/{id} [delete]
func (h *ExamHandler) DeleteRun(c *gin.Context) {
	runID := ParseStringIDParam(c, "id")
	if runID == "" {
		return
	}

	h.LogRequest(c, "Deleting run", "run_id", runID)

	if err := h.examService.DeleteRun(c.Request.Context(), runID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.RespondWithSuccess(c, http.StatusOK, "Run deleted", gin.H{"run_id": runID})
}

// PurgeAnalyticsCache drops every cached analytics snapshot
// @Router /cache/analytics [delete]
func (h *ExamHandler) PurgeAnalyticsCache(c *gin.Context) {
	h.LogRequest(c, "Purging analytics cache")

	if err := h.examService.PurgeAnalyticsCache(c.Request.Context()); err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.RespondWithSuccess(c, http.StatusOK, "Analytics cache purged", nil)
}
