// Package reports renders graded exam runs as downloadable CSV, Excel, JSON and HTML documents.
package reports

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/SAP-F-2025/exam-reader-service/internal/models"
)

type ReportData struct {
	Title       string
	GeneratedAt time.Time
	AnswerKey   models.AnswerKey
	Results     []models.GradingResult
	Analytics   models.ExamAnalytics
}

type Generator interface {
	Format() string
	ContentType() string
	Extension() string
	Generate(ctx context.Context, data ReportData) ([]byte, error)
}

// ForFormat returns the generator registered for name (csv, xlsx, json or html)
func ForFormat(name string) (Generator, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "csv":
		return NewCSVGenerator(), nil
	case "xlsx", "excel":
		return NewExcelGenerator(), nil
	case "json":
		return NewJSONGenerator(), nil
	case "html":
		return NewHTMLGenerator(), nil
	default:
		return nil, fmt.Errorf("unsupported report format %q", name)
	}
}

// resultHeaders is shared by the CSV file and the Excel Results sheet
func resultHeaders(questionCount int) []string {
	headers := []string{"Rank", "StudentId", "StudentName", "Score", "Percentage", "Grade", "Status"}
	for q := 1; q <= questionCount; q++ {
		headers = append(headers, "Q"+strconv.Itoa(q))
	}
	return headers
}

// rankResults orders a copy of results by percentage descending, then name
func rankResults(results []models.GradingResult) []models.GradingResult {
	ranked := make([]models.GradingResult, len(results))
	copy(ranked, results)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Percentage != ranked[j].Percentage {
			return ranked[i].Percentage > ranked[j].Percentage
		}
		return ranked[i].StudentName < ranked[j].StudentName
	})
	return ranked
}

// resultRows renders one row per student in rank order
func resultRows(data ReportData) [][]string {
	ranked := rankResults(data.Results)

	questionCount := data.AnswerKey.TotalQuestions()
	rows := make([][]string, 0, len(ranked))
	for i, r := range ranked {
		status := "Fail"
		if r.Passed {
			status = "Pass"
		}
		row := []string{
			strconv.Itoa(i + 1),
			r.StudentID,
			r.StudentName,
			strconv.FormatFloat(r.RawScore, 'f', 2, 64),
			strconv.FormatFloat(r.Percentage, 'f', 2, 64),
			r.LetterGrade,
			status,
		}

		byNumber := make(map[int]models.QuestionResult, len(r.QuestionResults))
		for _, qr := range r.QuestionResults {
			byNumber[qr.QuestionNumber] = qr
		}
		for q := 1; q <= questionCount; q++ {
			row = append(row, answerCell(byNumber[q]))
		}
		rows = append(rows, row)
	}
	return rows
}

// answerCell prints "-" for no answer and suffixes wrong answers with "*"
func answerCell(qr models.QuestionResult) string {
	switch {
	case qr.StudentAnswer == "":
		return "-"
	case qr.IsCorrect:
		return qr.StudentAnswer
	default:
		return qr.StudentAnswer + "*"
	}
}
