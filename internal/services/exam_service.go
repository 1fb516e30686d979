package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/exam-reader-service/internal/analytics"
	"github.com/SAP-F-2025/exam-reader-service/internal/batch"
	"github.com/SAP-F-2025/exam-reader-service/internal/cache"
	"github.com/SAP-F-2025/exam-reader-service/internal/events"
	"github.com/SAP-F-2025/exam-reader-service/internal/grading"
	"github.com/SAP-F-2025/exam-reader-service/internal/models"
	"github.com/SAP-F-2025/exam-reader-service/internal/ocr"
	"github.com/SAP-F-2025/exam-reader-service/internal/parsing"
	"github.com/SAP-F-2025/exam-reader-service/internal/reports"
	"github.com/SAP-F-2025/exam-reader-service/internal/repositories"
	"github.com/SAP-F-2025/exam-reader-service/internal/validator"
)

// ExamServiceDeps wires the pipeline. Repo, Cache and Publisher are optional and skipped when nil.
type ExamServiceDeps struct {
	Parsers        *parsing.Factory
	OCR            *ocr.Factory
	Grader         grading.Grader
	Analyzer       *analytics.Analyzer
	Validator      *validator.Validator
	Repo           repositories.ExamRunRepository
	Cache          cache.CacheService
	Publisher      events.EventPublisher
	DefaultOptions models.GradingOptions
	CacheTTL       time.Duration
	Logger         *slog.Logger
}

type examService struct {
	parsers        *parsing.Factory
	ocr            *ocr.Factory
	grader         grading.Grader
	sequencer      *batch.Sequencer
	analyzer       *analytics.Analyzer
	validator      *validator.Validator
	repo           repositories.ExamRunRepository
	cache          cache.CacheService
	publisher      events.EventPublisher
	defaultOptions models.GradingOptions
	cacheTTL       time.Duration
	logger         *slog.Logger
	log            *ServiceLogger
	now            func() time.Time
}

// NewExamService fills any missing core collaborator with its default implementation
func NewExamService(deps ExamServiceDeps) ExamService {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Parsers == nil {
		deps.Parsers = parsing.NewFactory(logger)
	}
	if deps.OCR == nil {
		deps.OCR = ocr.NewFactory(ocr.DemoProviderName, logger)
	}
	if deps.Grader == nil {
		deps.Grader = grading.NewEngine(logger)
	}
	if deps.Analyzer == nil {
		deps.Analyzer = analytics.NewAnalyzer(logger)
	}
	if deps.Validator == nil {
		deps.Validator = validator.New()
	}
	if deps.DefaultOptions == (models.GradingOptions{}) {
		deps.DefaultOptions = models.DefaultGradingOptions()
	}

	return &examService{
		parsers:        deps.Parsers,
		ocr:            deps.OCR,
		grader:         deps.Grader,
		sequencer:      batch.NewSequencer(deps.Grader, logger),
		analyzer:       deps.Analyzer,
		validator:      deps.Validator,
		repo:           deps.Repo,
		cache:          deps.Cache,
		publisher:      deps.Publisher,
		defaultOptions: deps.DefaultOptions,
		cacheTTL:       deps.CacheTTL,
		logger:         logger,
		log: NewServiceLogger(logger, LogConfig{
			Service:       "exam-reader-service",
			Component:     "exam_service",
			EnableMetrics: true,
		}),
		now: func() time.Time { return time.Now().UTC() },
	}
}

// ===== SHEET READING =====

func (s *examService) ParseSheet(ctx context.Context, req *ParseSheetRequest) (resp *SheetResponse, err error) {
	op := s.log.WithOperation(ctx, "parse_sheet", "")
	defer func() { op.LogResult("answer_sheet", err) }()

	if err = s.validateTemplate(req, req.Template); err != nil {
		return nil, err
	}
	return s.readSheet(ctx, &req.OcrResult, req.Template)
}

// ScanSheet runs OCR on the image, then parses the recognized text
func (s *examService) ScanSheet(ctx context.Context, req *ScanSheetRequest) (resp *SheetResponse, err error) {
	op := s.log.WithOperation(ctx, "scan_sheet", "")
	defer func() { op.LogResult("answer_sheet", err) }()

	if err = s.validateTemplate(req, req.Template); err != nil {
		return nil, err
	}

	provider := s.ocr.Provider()
	if req.Provider != "" {
		provider = s.ocr.ProviderByName(req.Provider)
		if provider == nil {
			return nil, NewValidationErrorList("provider", fmt.Sprintf("unknown ocr provider %q", req.Provider), req.Provider)
		}
		if !provider.IsAvailable() {
			return nil, fmt.Errorf("%w: %w: %s", ErrOCRFailed, ocr.ErrProviderUnavailable, provider.Name())
		}
	}

	result, err := provider.Process(ctx, req.Image)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrOCRFailed, provider.Name(), err)
	}
	if !result.Success {
		return nil, fmt.Errorf("%w: %s", ErrSheetUnreadable, result.ErrorMessage)
	}
	if result.ProviderUsed == "" {
		result.ProviderUsed = provider.Name()
	}

	resp, err = s.readSheet(ctx, result, req.Template)
	if err != nil {
		return nil, err
	}
	resp.Provider = result.ProviderUsed
	resp.OcrConfidence = result.OverallConfidence
	return resp, nil
}

func (s *examService) readSheet(ctx context.Context, result *models.OcrResult, template models.AnswerSheetTemplate) (*SheetResponse, error) {
	parser := s.parsers.ParserFor(template)
	answers, err := parser.Parse(ctx, result, template)
	if err != nil {
		return nil, err
	}

	info := parsing.ExtractStudentInfo(result)
	sheet := models.AnswerSheet{
		ID:               uuid.NewString(),
		StudentID:        info.StudentID,
		StudentName:      info.StudentName,
		Template:         template,
		ExtractedAnswers: answers,
		ProcessedAt:      s.now(),
	}

	answered := 0
	for _, a := range answers {
		if a.Status == models.StatusAnswered {
			answered++
		}
	}

	s.logger.DebugContext(ctx, "Sheet parsed",
		"parser", parser.Name(),
		"student_id", sheet.StudentID,
		"answered", answered,
		"total", len(answers))

	return &SheetResponse{
		Sheet:         sheet,
		Parser:        parser.Name(),
		AnsweredCount: answered,
	}, nil
}

// ===== GRADING =====

func (s *examService) GradeSheet(ctx context.Context, req *GradeSheetRequest) (result *models.GradingResult, err error) {
	op := s.log.WithOperation(ctx, "grade_sheet", req.AnswerKey.ExamID)
	defer func() { op.LogResult("grading_result", err) }()

	if err = s.validateKey(req, req.AnswerKey); err != nil {
		return nil, err
	}

	graded, err := s.grader.GradeContext(ctx, req.Answers, req.AnswerKey, s.options(req.Options))
	if err != nil {
		return nil, err
	}
	graded = graded.WithStudent(req.StudentID, req.StudentName)
	return &graded, nil
}

// RunBatch grades every sheet, computes class analytics, then persists, caches and announces the run.
// observer may be nil.
func (s *examService) RunBatch(ctx context.Context, req *BatchRequest, observer batch.ProgressObserver) (resp *BatchResponse, err error) {
	op := s.log.WithOperation(ctx, "run_batch", req.AnswerKey.ExamID)
	defer func() { op.LogResult("exam_run", err) }()

	if err = s.validateKey(req, req.AnswerKey); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	options := s.options(req.Options)
	if s.publisher != nil {
		observer = events.NewProgressPublisher(s.publisher, runID, s.logger, observer)
	}

	result, err := s.sequencer.Process(ctx, req.Sheets, req.AnswerKey, options, observer)
	if err != nil {
		return nil, err
	}
	result.BatchID = runID

	computed, err := s.analyzer.AnalyzeContext(ctx, result.Results, req.AnswerKey)
	if err != nil {
		return nil, err
	}

	resp = &BatchResponse{
		RunID:     runID,
		Batch:     result,
		Analytics: computed,
	}

	if s.repo != nil {
		if err = s.persistRun(ctx, runID, req.AnswerKey, options, result, computed); err != nil {
			return nil, err
		}
		resp.Persisted = true
	}

	s.cacheAnalytics(ctx, runID, computed)
	s.announceRun(ctx, runID, req.AnswerKey.ExamID, result, computed)

	s.logger.InfoContext(ctx, "Batch run completed",
		"run_id", runID,
		"exam_id", req.AnswerKey.ExamID,
		"processed", result.TotalProcessed,
		"errors", result.ErrorCount,
		"class_average", computed.ClassAverage)

	return resp, nil
}

func (s *examService) persistRun(ctx context.Context, runID string, key models.AnswerKey, options models.GradingOptions, result *models.BatchResult, computed models.ExamAnalytics) error {
	run, err := models.NewExamRun(runID, key, options, result)
	if err != nil {
		return err
	}
	if run.Analytics, err = json.Marshal(computed); err != nil {
		return fmt.Errorf("failed to encode analytics: %w", err)
	}

	stored := make([]models.StoredResult, 0, len(result.Results))
	for _, r := range result.Results {
		row, err := models.NewStoredResult(runID, r)
		if err != nil {
			return err
		}
		stored = append(stored, row)
	}

	err = s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.repo.Create(ctx, tx, run); err != nil {
			return err
		}
		return s.repo.SaveResults(ctx, tx, runID, stored)
	})
	if err != nil {
		return fmt.Errorf("failed to persist exam run: %w", err)
	}
	return nil
}

func (s *examService) cacheAnalytics(ctx context.Context, runID string, computed models.ExamAnalytics) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, cache.AnalyticsKey(runID), computed, s.cacheTTL); err != nil {
		s.logger.WarnContext(ctx, "Failed to cache run analytics", "run_id", runID, "error", err)
	}
}

func (s *examService) announceRun(ctx context.Context, runID, examID string, result *models.BatchResult, computed models.ExamAnalytics) {
	if s.publisher == nil {
		return
	}

	pending := make([]*events.ExamEvent, 0, len(result.Results)+2)
	for _, r := range result.Results {
		pending = append(pending, events.NewSheetGradedEvent(runID, examID, r))
	}
	pending = append(pending,
		events.NewBatchCompletedEvent(runID, examID, result),
		events.NewAnalyticsComputedEvent(runID, computed))

	for _, event := range pending {
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.WarnContext(ctx, "Failed to publish exam event",
				"run_id", runID,
				"event_type", event.Type,
				"error", err)
		}
	}
}

// ===== ANALYTICS =====

func (s *examService) Analyze(ctx context.Context, req *AnalyzeRequest) (result *models.ExamAnalytics, err error) {
	op := s.log.WithOperation(ctx, "analyze", req.AnswerKey.ExamID)
	defer func() { op.LogResult("exam_analytics", err) }()

	if err = s.validateKey(req, req.AnswerKey); err != nil {
		return nil, err
	}

	computed, err := s.analyzer.AnalyzeContext(ctx, req.Results, req.AnswerKey)
	if err != nil {
		return nil, err
	}
	return &computed, nil
}

// GetRunAnalytics serves the cached snapshot, then the stored one, rebuilding it from stored results when absent
func (s *examService) GetRunAnalytics(ctx context.Context, runID string) (result *models.ExamAnalytics, err error) {
	op := s.log.WithOperation(ctx, "get_run_analytics", runID)
	defer func() { op.LogResult("exam_analytics", err) }()

	if s.cache != nil {
		var cached models.ExamAnalytics
		switch err := s.cache.Get(ctx, cache.AnalyticsKey(runID), &cached); {
		case err == nil:
			return &cached, nil
		case !errors.Is(err, cache.ErrCacheMiss):
			s.logger.WarnContext(ctx, "Analytics cache read failed", "run_id", runID, "error", err)
		}
	}

	if s.repo == nil {
		if s.cache != nil {
			return nil, fmt.Errorf("%w: %s", ErrExamRunNotFound, runID)
		}
		return nil, ErrPersistenceDisabled
	}

	run, err := s.getRun(ctx, runID)
	if err != nil {
		return nil, err
	}

	stored, err := run.DecodeAnalytics()
	if err != nil {
		return nil, err
	}
	if stored == nil {
		if stored, err = s.rebuildAnalytics(ctx, run); err != nil {
			return nil, err
		}
	}

	s.cacheAnalytics(ctx, runID, *stored)
	return stored, nil
}

func (s *examService) rebuildAnalytics(ctx context.Context, run *models.ExamRun) (*models.ExamAnalytics, error) {
	key, err := run.DecodeAnswerKey()
	if err != nil {
		return nil, err
	}
	results, err := s.loadResults(ctx, run.ID)
	if err != nil {
		return nil, err
	}

	computed, err := s.analyzer.AnalyzeContext(ctx, results, key)
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(computed)
	if err != nil {
		return nil, fmt.Errorf("failed to encode analytics: %w", err)
	}
	if err := s.repo.UpdateAnalytics(ctx, nil, run.ID, encoded); err != nil {
		s.logger.WarnContext(ctx, "Failed to store rebuilt analytics", "run_id", run.ID, "error", err)
	}
	return &computed, nil
}

// ===== EXPORT =====

func (s *examService) ExportRun(ctx context.Context, runID, format string) (file *ExportFile, err error) {
	op := s.log.WithOperation(ctx, "export_run", runID)
	defer func() { op.LogResult("report", err) }()

	generator, err := reports.ForFormat(format)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if s.repo == nil {
		return nil, ErrPersistenceDisabled
	}

	run, err := s.getRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	key, err := run.DecodeAnswerKey()
	if err != nil {
		return nil, err
	}
	results, err := s.loadResults(ctx, runID)
	if err != nil {
		return nil, err
	}
	computed, err := s.GetRunAnalytics(ctx, runID)
	if err != nil {
		return nil, err
	}

	title := run.ExamTitle
	if title == "" {
		title = run.ExamID
	}

	content, err := generator.Generate(ctx, reports.ReportData{
		Title:       title,
		GeneratedAt: s.now(),
		AnswerKey:   key,
		Results:     results,
		Analytics:   *computed,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate %s report: %w", generator.Format(), err)
	}

	return &ExportFile{
		FileName:    "exam-run-" + runID + generator.Extension(),
		ContentType: generator.ContentType(),
		Content:     content,
	}, nil
}

// ===== RUN MANAGEMENT =====

// ListRuns pages through stored runs, newest first
func (s *examService) ListRuns(ctx context.Context, req *ListRunsRequest) (result *RunListResponse, err error) {
	op := s.log.WithOperation(ctx, "list_runs", req.ExamID)
	defer func() { op.LogResult("exam_run", err) }()

	if err := s.validateStruct(req); err != nil {
		return nil, err
	}
	if req.DateFrom != nil && req.DateTo != nil && req.DateTo.Before(*req.DateFrom) {
		return nil, NewValidationErrorList("date_to", "must not be before date_from", req.DateTo)
	}
	if s.repo == nil {
		return nil, ErrPersistenceDisabled
	}

	runs, total, err := s.repo.List(ctx, nil, repositories.ExamRunFilters{
		ExamID:   req.ExamID,
		DateFrom: req.DateFrom,
		DateTo:   req.DateTo,
		Limit:    req.Limit,
		Offset:   req.Offset,
	})
	if err != nil {
		return nil, err
	}

	return &RunListResponse{
		Runs:   newRunSummaries(runs),
		Total:  total,
		Limit:  req.Limit,
		Offset: req.Offset,
	}, nil
}

// ListExamRuns returns the latest runs of one exam
func (s *examService) ListExamRuns(ctx context.Context, examID string, limit int) (result []RunSummary, err error) {
	op := s.log.WithOperation(ctx, "list_exam_runs", examID)
	defer func() { op.LogResult("exam_run", err) }()

	if limit < 0 {
		return nil, NewValidationErrorList("limit", "must be 0 or greater", limit)
	}
	if s.repo == nil {
		return nil, ErrPersistenceDisabled
	}

	runs, err := s.repo.ListByExam(ctx, nil, examID, limit)
	if err != nil {
		return nil, err
	}
	return newRunSummaries(runs), nil
}

// DeleteRun removes a stored run with its results and drops its cached analytics.
// With only the cache configured, just the cached snapshot is dropped.
func (s *examService) DeleteRun(ctx context.Context, runID string) (err error) {
	op := s.log.WithOperation(ctx, "delete_run", runID)
	defer func() { op.LogResult("exam_run", err) }()

	if s.repo == nil && s.cache == nil {
		return ErrPersistenceDisabled
	}

	if s.repo != nil {
		if err := s.repo.Delete(ctx, nil, runID); err != nil {
			if errors.Is(err, repositories.ErrRunNotFound) {
				return fmt.Errorf("%w: %s", ErrExamRunNotFound, runID)
			}
			return fmt.Errorf("failed to delete exam run: %w", err)
		}
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, cache.AnalyticsKey(runID)); err != nil {
			s.logger.WarnContext(ctx, "Failed to evict run analytics", "run_id", runID, "error", err)
		}
	}
	return nil
}

// PurgeAnalyticsCache drops every cached analytics snapshot
func (s *examService) PurgeAnalyticsCache(ctx context.Context) (err error) {
	op := s.log.WithOperation(ctx, "purge_analytics_cache", "")
	defer func() { op.LogResult("exam_analytics", err) }()

	if s.cache == nil {
		return ErrCacheDisabled
	}
	return s.cache.DeletePattern(ctx, cache.AnalyticsKey("*"))
}

// ===== HELPERS =====

func (s *examService) getRun(ctx context.Context, runID string) (*models.ExamRun, error) {
	run, err := s.repo.GetByID(ctx, nil, runID)
	if err != nil {
		if errors.Is(err, repositories.ErrRunNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrExamRunNotFound, runID)
		}
		return nil, err
	}
	return run, nil
}

func (s *examService) loadResults(ctx context.Context, runID string) ([]models.GradingResult, error) {
	stored, err := s.repo.GetResults(ctx, nil, runID)
	if err != nil {
		return nil, err
	}
	results := make([]models.GradingResult, 0, len(stored))
	for _, row := range stored {
		r, err := row.ToGradingResult()
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, nil
}

func (s *examService) options(requested *models.GradingOptions) models.GradingOptions {
	if requested == nil {
		return s.defaultOptions
	}
	return *requested
}

// validateKey checks the request's tags, then the answer key's business rules
func (s *examService) validateKey(req any, key models.AnswerKey) error {
	if err := s.validateStruct(req); err != nil {
		return err
	}
	if errs := s.validator.Business().ValidateAnswerKey(key); len(errs) > 0 {
		return errs
	}
	return nil
}

func (s *examService) validateTemplate(req any, template models.AnswerSheetTemplate) error {
	if err := s.validateStruct(req); err != nil {
		return err
	}
	if errs := s.validator.Business().ValidateTemplate(template); len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidTemplate, errs)
	}
	return nil
}

func (s *examService) validateStruct(req any) error {
	if err := s.validator.ValidateStruct(req); err != nil {
		if errs := validator.ToValidationErrors(err); len(errs) > 0 {
			return errs
		}
		return fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}
	return nil
}

// NewValidationErrorList wraps a single field error as ValidationErrors
func NewValidationErrorList(field, message string, value any) ValidationErrors {
	return ValidationErrors{*NewValidationError(field, message, value)}
}
