package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/SAP-F-2025/exam-reader-service/internal/batch"
	"github.com/SAP-F-2025/exam-reader-service/internal/models"
	"github.com/SAP-F-2025/exam-reader-service/internal/ocr"
	"github.com/SAP-F-2025/exam-reader-service/internal/reports"
	"github.com/SAP-F-2025/exam-reader-service/internal/services"
)

func demoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Read, grade and analyze the built-in demo roster",
		RunE:  runDemo,
	}
	f := cmd.Flags()
	f.IntP("students", "n", 0, "Number of roster students to process (0 for all)")
	f.StringP("format", "f", "", "Report format (csv, xlsx, json, html); empty prints a summary")
	f.StringP("output", "o", "-", "Output file (- for stdout)")
	f.Bool("quiet", false, "Suppress progress output")
	addLogFlags(cmd)
	return cmd
}

func runDemo(cmd *cobra.Command, _ []string) error {
	v := viperForCmd(cmd)
	logger := setupLogging(v)
	ctx := cmd.Context()

	var generator reports.Generator
	if format := v.GetString("format"); format != "" {
		g, err := reports.ForFormat(format)
		if err != nil {
			return err
		}
		generator = g
	}

	ocrFactory := ocr.NewFactory(ocr.DemoProviderName, logger)
	svc := services.NewExamService(services.ExamServiceDeps{OCR: ocrFactory, Logger: logger})

	roster := ocrFactory.Demo().Students()
	if n := v.GetInt("students"); n > 0 && n < len(roster) {
		roster = roster[:n]
	}

	template := models.DefaultTemplate()
	sheets := make([]models.AnswerSheet, 0, len(roster))
	for _, student := range roster {
		parsed, err := svc.ParseSheet(ctx, &services.ParseSheetRequest{
			OcrResult: *ocr.RenderDemoSheet(student),
			Template:  template,
		})
		if err != nil {
			return fmt.Errorf("parse sheet for %s: %w", student.ID, err)
		}
		sheets = append(sheets, parsed.Sheet)
	}

	var observer batch.ProgressObserver
	if !v.GetBool("quiet") {
		observer = progressPrinter(os.Stderr)
	}

	key := ocr.DemoAnswerKey()
	resp, err := svc.RunBatch(ctx, &services.BatchRequest{AnswerKey: key, Sheets: sheets}, observer)
	if err != nil {
		return fmt.Errorf("grade demo batch: %w", err)
	}

	if generator != nil {
		return writeReport(ctx, generator, v.GetString("output"), key, resp)
	}

	if out := v.GetString("output"); out != "" && out != "-" {
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		return printSummary(f, resp)
	}
	return printSummary(os.Stdout, resp)
}

func progressPrinter(w io.Writer) batch.ProgressFunc {
	return func(_ context.Context, p models.BatchProgress) {
		fmt.Fprintf(w, "[%3.0f%%] %d/%d %s\n", p.PercentComplete(), p.ProcessedStudents, p.TotalStudents, p.StatusMessage)
	}
}

func printSummary(w io.Writer, resp *services.BatchResponse) error {
	a := resp.Analytics
	fmt.Fprintf(w, "Run %s: %d students, average %.2f, median %.2f, std dev %.2f, pass rate %.1f%%\n\n",
		resp.RunID, a.TotalStudents, a.ClassAverage, a.Median, a.StandardDeviation, a.PassRate)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tSTUDENT\tNAME\tSCORE\tGRADE\tPASSED")
	for _, s := range a.StudentStats {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.2f\t%s\t%t\n", s.Rank, s.StudentID, s.StudentName, s.Percentage, s.LetterGrade, s.Passed)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	flagged := 0
	for _, q := range a.QuestionStats {
		if !q.FlaggedForReview {
			continue
		}
		if flagged == 0 {
			fmt.Fprintln(w, "\nQuestions flagged for review:")
		}
		flagged++
		fmt.Fprintf(w, "  Q%d (difficulty %.2f, discrimination %.2f): %s\n", q.QuestionNumber, q.DifficultyIndex, q.DiscriminationIndex, q.FlagReason)
	}
	return nil
}
