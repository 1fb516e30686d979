package reports

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	resultsSheet   = "Results"
	questionsSheet = "Questions"
	summarySheet   = "Summary"
)

type ExcelGenerator struct{}

func NewExcelGenerator() *ExcelGenerator {
	return &ExcelGenerator{}
}

func (g *ExcelGenerator) Format() string { return "xlsx" }
func (g *ExcelGenerator) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}
func (g *ExcelGenerator) Extension() string { return ".xlsx" }

func (g *ExcelGenerator) Generate(ctx context.Context, data ReportData) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", resultsSheet); err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}

	headers := resultHeaders(data.AnswerKey.TotalQuestions())
	if err := writeTable(f, resultsSheet, headers, stringRows(resultRows(data))); err != nil {
		return nil, err
	}

	if _, err := f.NewSheet(questionsSheet); err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	if err := writeTable(f, questionsSheet, questionHeaders, questionRows(data)); err != nil {
		return nil, err
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	if err := writeTable(f, summarySheet, []string{"Metric", "Value"}, summaryRows(data)); err != nil {
		return nil, err
	}

	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}
	return buf.Bytes(), nil
}

var questionHeaders = []string{
	"Question", "CorrectAnswer", "Attempts", "Correct", "Incorrect", "Unanswered",
	"Difficulty", "Discrimination", "MostCommonWrong", "Distribution", "Flagged", "FlagReason",
}

func questionRows(data ReportData) [][]any {
	rows := make([][]any, 0, len(data.Analytics.QuestionStats))
	for _, q := range data.Analytics.QuestionStats {
		rows = append(rows, []any{
			q.QuestionNumber, q.CorrectAnswer, q.TotalAttempts, q.CorrectCount, q.IncorrectCount, q.UnansweredCount,
			q.DifficultyIndex, q.DiscriminationIndex, q.MostCommonWrongAnswer, formatDistribution(q.AnswerDistribution),
			q.FlaggedForReview, q.FlagReason,
		})
	}
	return rows
}

func summaryRows(data ReportData) [][]any {
	a := data.Analytics
	rows := [][]any{
		{"Title", data.Title},
		{"Generated At", data.GeneratedAt.Format("2006-01-02 15:04:05")},
		{"Total Students", a.TotalStudents},
		{"Class Average", a.ClassAverage},
		{"Median", a.Median},
		{"Standard Deviation", a.StandardDeviation},
		{"Highest Score", a.HighestScore},
		{"Lowest Score", a.LowestScore},
		{"Pass Count", a.PassCount},
		{"Fail Count", a.FailCount},
		{"Pass Rate", a.PassRate},
	}
	grades := make([]string, 0, len(a.GradeDistribution))
	for grade := range a.GradeDistribution {
		grades = append(grades, grade)
	}
	sort.Strings(grades)
	for _, grade := range grades {
		rows = append(rows, []any{"Grade " + grade, a.GradeDistribution[grade]})
	}
	return rows
}

func writeTable(f *excelize.File, sheet string, headers []string, rows [][]any) error {
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return fmt.Errorf("failed to write Excel header: %w", err)
		}
	}

	for rowIndex, row := range rows {
		for colIndex, value := range row {
			cell, err := excelize.CoordinatesToCellName(colIndex+1, rowIndex+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return fmt.Errorf("failed to write Excel cell %s: %w", cell, err)
			}
		}
	}
	return nil
}

func stringRows(rows [][]string) [][]any {
	out := make([][]any, len(rows))
	for i, row := range rows {
		out[i] = make([]any, len(row))
		for j, v := range row {
			out[i][j] = v
		}
	}
	return out
}

func formatDistribution(dist map[string]int) string {
	keys := make([]string, 0, len(dist))
	for k := range dist {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s:%d", k, dist[k]))
	}
	return strings.Join(parts, " ")
}
