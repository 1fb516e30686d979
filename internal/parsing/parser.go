// Package parsing turns OCR output for a single answer sheet into one
// StudentAnswer per question. Each sheet layout is handled by a Parser that
// runs an ordered chain of extraction passes and keeps the first that yields
// answers; whatever the chain misses is filled in as unanswered.
package parsing

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/SAP-F-2025/exam-reader-service/internal/models"
)

// Parser maps one OCR result onto the questions of a template.
// Parse always returns exactly template.TotalQuestions answers, sorted by question number.
type Parser interface {
	Name() string
	CanParse(template models.AnswerSheetTemplate) bool
	Parse(ctx context.Context, ocr *models.OcrResult, template models.AnswerSheetTemplate) ([]models.StudentAnswer, error)
}

// extractor is one pass of a fallback chain; it returns nil when nothing matched
type extractor func(ocr *models.OcrResult, template models.AnswerSheetTemplate) []models.StudentAnswer

// firstNonEmpty runs the chain in order and keeps the first pass that found anything
func firstNonEmpty(ocr *models.OcrResult, template models.AnswerSheetTemplate, chain ...extractor) []models.StudentAnswer {
	for _, extract := range chain {
		if answers := extract(ocr, template); len(answers) > 0 {
			return answers
		}
	}
	return nil
}

// collector gathers answers for one pass. Numbers outside 1..total and repeats are dropped.
type collector struct {
	total   int
	seen    map[int]bool
	answers []models.StudentAnswer
}

func newCollector(total int) *collector {
	return &collector{
		total: total,
		seen:  make(map[int]bool),
	}
}

func (c *collector) add(number int, text string, confidence float64, status models.AnswerStatus) {
	if number < 1 || number > c.total || c.seen[number] {
		return
	}
	c.seen[number] = true
	c.answers = append(c.answers, models.StudentAnswer{
		QuestionNumber: number,
		SelectedAnswer: text,
		Confidence:     confidence,
		Status:         status,
	})
}

func (c *collector) result() []models.StudentAnswer {
	return c.answers
}

// complete fills every missing question as unanswered with zero confidence and sorts ascending
func complete(answers []models.StudentAnswer, total int) []models.StudentAnswer {
	total = max(total, 0)
	result := make([]models.StudentAnswer, 0, total)
	present := make(map[int]bool, len(answers))

	for _, a := range answers {
		if a.QuestionNumber < 1 || a.QuestionNumber > total || present[a.QuestionNumber] {
			continue
		}
		present[a.QuestionNumber] = true
		result = append(result, a)
	}

	for i := 1; i <= total; i++ {
		if !present[i] {
			result = append(result, models.StudentAnswer{
				QuestionNumber: i,
				Status:         models.StatusUnanswered,
			})
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].QuestionNumber < result[j].QuestionNumber
	})
	return result
}

// questionNumber parses a captured digit group; overflow is treated as no match
func questionNumber(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return n, true
}

func orEmpty(ocr *models.OcrResult) *models.OcrResult {
	if ocr == nil {
		return &models.OcrResult{}
	}
	return ocr
}

func containsOption(options []string, token string) bool {
	for _, opt := range options {
		if strings.EqualFold(strings.TrimSpace(opt), token) {
			return true
		}
	}
	return false
}

func countAnswered(answers []models.StudentAnswer) int {
	n := 0
	for _, a := range answers {
		if a.Status == models.StatusAnswered {
			n++
		}
	}
	return n
}
