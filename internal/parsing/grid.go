package parsing

import (
	"context"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/SAP-F-2025/exam-reader-service/internal/models"
)

var (
	// 1: A B [C] D
	gridLabeledRowPattern = regexp.MustCompile(`(?m)^(\d+)[ \t]*:[ \t]*(.+)$`)
	gridBracketPattern    = regexp.MustCompile(`\[([A-Da-d])\]`)
	// 1  _ X _ _
	gridMarkRowPattern = regexp.MustCompile(`(?m)^(\d+)[ \t]+([ \t\rXxOo_.\-|]+)$`)
)

const (
	gridBracketConfidence     = 0.90
	gridUnbracketedConfidence = 0.70
	gridMarkConfidence        = 0.85
	gridNoMarkConfidence      = 0.60
)

const (
	noMark        = -1
	multipleMarks = -2
)

// GridParser reads tabular sheets where each row is one question
type GridParser struct {
	logger *slog.Logger
}

func NewGridParser(logger *slog.Logger) *GridParser {
	return &GridParser{
		logger: logger.With("parser", "grid_based"),
	}
}

func (p *GridParser) Name() string {
	return "grid_based"
}

func (p *GridParser) CanParse(template models.AnswerSheetTemplate) bool {
	return template.Format == models.FormatGridBased
}

func (p *GridParser) Parse(ctx context.Context, ocr *models.OcrResult, template models.AnswerSheetTemplate) ([]models.StudentAnswer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ocr = orEmpty(ocr)

	p.logger.DebugContext(ctx, "Parsing grid answer sheet", "text_length", len(ocr.RawText))

	answers := firstNonEmpty(ocr, template, p.fromLabeledRows, p.fromMarkRows, p.fromRegions)

	result := complete(answers, template.TotalQuestions)
	p.logger.DebugContext(ctx, "Parsed grid sheet",
		"answers", len(result),
		"answered", countAnswered(result))
	return result, nil
}

func (p *GridParser) fromLabeledRows(ocr *models.OcrResult, template models.AnswerSheetTemplate) []models.StudentAnswer {
	c := newCollector(template.TotalQuestions)
	for _, m := range gridLabeledRowPattern.FindAllStringSubmatch(ocr.RawText, -1) {
		number, ok := questionNumber(m[1])
		if !ok {
			continue
		}
		if selected, found := bracketedSelection(m[2]); found {
			c.add(number, selected, gridBracketConfidence, models.StatusAnswered)
		} else {
			c.add(number, "", gridUnbracketedConfidence, models.StatusUnanswered)
		}
	}
	return c.result()
}

func (p *GridParser) fromMarkRows(ocr *models.OcrResult, template models.AnswerSheetTemplate) []models.StudentAnswer {
	options := template.Options()
	c := newCollector(template.TotalQuestions)
	for _, m := range gridMarkRowPattern.FindAllStringSubmatch(ocr.RawText, -1) {
		number, ok := questionNumber(m[1])
		if !ok {
			continue
		}
		switch idx := markedCell(m[2]); {
		case idx >= 0 && idx < len(options):
			c.add(number, options[idx], gridMarkConfidence, models.StatusAnswered)
		case idx == multipleMarks:
			c.add(number, "", gridNoMarkConfidence, models.StatusMultipleMarks)
		default:
			c.add(number, "", gridNoMarkConfidence, models.StatusUnanswered)
		}
	}
	return c.result()
}

// fromRegions reads labeled rows region by region in reading order, using each region's own confidence
func (p *GridParser) fromRegions(ocr *models.OcrResult, template models.AnswerSheetTemplate) []models.StudentAnswer {
	regions := make([]models.OcrRegion, 0, len(ocr.Regions))
	for _, r := range ocr.Regions {
		if strings.TrimSpace(r.Text) != "" {
			regions = append(regions, r)
		}
	}
	sort.SliceStable(regions, func(i, j int) bool {
		if regions[i].BoundingBox.Y != regions[j].BoundingBox.Y {
			return regions[i].BoundingBox.Y < regions[j].BoundingBox.Y
		}
		return regions[i].BoundingBox.X < regions[j].BoundingBox.X
	})

	c := newCollector(template.TotalQuestions)
	for _, region := range regions {
		m := gridLabeledRowPattern.FindStringSubmatch(region.Text)
		if m == nil {
			continue
		}
		number, ok := questionNumber(m[1])
		if !ok {
			continue
		}
		if selected, found := bracketedSelection(m[2]); found {
			c.add(number, selected, region.Confidence, models.StatusAnswered)
		} else {
			c.add(number, "", region.Confidence, models.StatusUnanswered)
		}
	}
	return c.result()
}

func bracketedSelection(row string) (string, bool) {
	m := gridBracketPattern.FindStringSubmatch(row)
	if m == nil {
		return "", false
	}
	return strings.ToUpper(m[1]), true
}

// markedCell returns the index of the single X/O cell, noMark or multipleMarks
func markedCell(cells string) int {
	parts := strings.FieldsFunc(cells, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '|' || r == '\r'
	})

	marked := noMark
	count := 0
	for i, part := range parts {
		switch strings.ToUpper(strings.TrimSpace(part)) {
		case "X", "O":
			marked = i
			count++
		}
	}

	switch count {
	case 0:
		return noMark
	case 1:
		return marked
	default:
		return multipleMarks
	}
}
