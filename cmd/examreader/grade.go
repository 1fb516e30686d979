package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/SAP-F-2025/exam-reader-service/internal/config"
	"github.com/SAP-F-2025/exam-reader-service/internal/models"
	"github.com/SAP-F-2025/exam-reader-service/internal/reports"
	"github.com/SAP-F-2025/exam-reader-service/internal/services"
)

func gradeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grade",
		Short: "Grade a batch of parsed answer sheets from a JSON job file",
		Long: `Grade reads a JSON document holding an answer key and parsed sheets
({"answer_key": ..., "options": ..., "sheets": [...]}), grades every sheet,
computes class analytics and writes a report.`,
		RunE: runGrade,
	}
	f := cmd.Flags()
	f.StringP("input", "i", "-", "Batch job JSON file (- for stdin)")
	f.StringP("format", "f", "csv", "Report format (csv, xlsx, json, html)")
	f.StringP("output", "o", "-", "Output file (- for stdout)")
	addLogFlags(cmd)
	return cmd
}

func runGrade(cmd *cobra.Command, _ []string) error {
	v := viperForCmd(cmd)
	logger := setupLogging(v)

	generator, err := reports.ForFormat(v.GetString("format"))
	if err != nil {
		return err
	}

	req, err := readBatchRequest(v.GetString("input"))
	if err != nil {
		return err
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	svc := services.NewExamService(services.ExamServiceDeps{
		DefaultOptions: cfg.Grading,
		Logger:         logger,
	})

	resp, err := svc.RunBatch(cmd.Context(), req, nil)
	if err != nil {
		return fmt.Errorf("grade batch: %w", err)
	}
	for _, batchErr := range resp.Batch.Errors {
		slog.Warn("Sheet failed to grade", "student_id", batchErr.StudentID, "error", batchErr.ErrorMessage)
	}

	return writeReport(cmd.Context(), generator, v.GetString("output"), req.AnswerKey, resp)
}

func readBatchRequest(path string) (*services.BatchRequest, error) {
	var r io.Reader = os.Stdin
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		r = f
	}

	var req services.BatchRequest
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("input is empty")
		}
		return nil, fmt.Errorf("decode batch job: %w", err)
	}
	return &req, nil
}

func writeReport(ctx context.Context, generator reports.Generator, output string, key models.AnswerKey, resp *services.BatchResponse) error {
	title := key.ExamTitle
	if title == "" {
		title = key.ExamID
	}

	content, err := generator.Generate(ctx, reports.ReportData{
		Title:       title,
		GeneratedAt: time.Now(),
		AnswerKey:   key,
		Results:     resp.Batch.Results,
		Analytics:   resp.Analytics,
	})
	if err != nil {
		return fmt.Errorf("generate %s report: %w", generator.Format(), err)
	}
	return writeOutput(output, content)
}
