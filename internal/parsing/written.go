package parsing

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/SAP-F-2025/exam-reader-service/internal/models"
)

var (
	// Q1: ... / Question 2) ... ; the block runs to the next marker
	writtenMarkerPattern   = regexp.MustCompile(`(?i)(?:Q|Question)\s*(\d+)\s*[:.)]`)
	writtenAnswerPattern   = regexp.MustCompile(`(?im)^Answer[ \t]*(\d+)[ \t]*:[ \t]*(.*?)$`)
	writtenNumberedPattern = regexp.MustCompile(`(?m)^(\d+)[ \t]*[:.)][ \t]*(.+)$`)
)

const (
	writtenBlankConfidence    = 0.5
	writtenAnswerConfidence   = 0.80
	writtenNumberedConfidence = 0.75
	writtenShortConfidence    = 0.60
	writtenLongConfidence     = 0.70
	writtenDefaultConfidence  = 0.80

	writtenLongAnswerLength = 200
)

// WrittenAnswerParser reads free-text answers. It also serves mixed-format sheets.
type WrittenAnswerParser struct {
	logger *slog.Logger
}

func NewWrittenAnswerParser(logger *slog.Logger) *WrittenAnswerParser {
	return &WrittenAnswerParser{
		logger: logger.With("parser", "written_answer"),
	}
}

func (p *WrittenAnswerParser) Name() string {
	return "written_answer"
}

func (p *WrittenAnswerParser) CanParse(template models.AnswerSheetTemplate) bool {
	return template.Format == models.FormatWrittenAnswer || template.Format == models.FormatMixed
}

func (p *WrittenAnswerParser) Parse(ctx context.Context, ocr *models.OcrResult, template models.AnswerSheetTemplate) ([]models.StudentAnswer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ocr = orEmpty(ocr)

	p.logger.DebugContext(ctx, "Parsing written answer sheet", "text_length", len(ocr.RawText))

	answers := firstNonEmpty(ocr, template, p.fromQuestionBlocks, p.fromAnswerLines, p.fromNumberedLines)

	result := complete(answers, template.TotalQuestions)
	p.logger.DebugContext(ctx, "Parsed written sheet",
		"answers", len(result),
		"answered", countAnswered(result))
	return result, nil
}

func (p *WrittenAnswerParser) fromQuestionBlocks(ocr *models.OcrResult, template models.AnswerSheetTemplate) []models.StudentAnswer {
	text := ocr.RawText
	markers := writtenMarkerPattern.FindAllStringSubmatchIndex(text, -1)

	c := newCollector(template.TotalQuestions)
	for i, m := range markers {
		number, ok := questionNumber(text[m[2]:m[3]])
		if !ok {
			continue
		}
		end := len(text)
		if i+1 < len(markers) {
			end = markers[i+1][0]
		}
		answer := strings.TrimSpace(text[m[1]:end])
		c.add(number, answer, writtenConfidence(answer, ocr.Regions), writtenStatus(answer))
	}
	return c.result()
}

func (p *WrittenAnswerParser) fromAnswerLines(ocr *models.OcrResult, template models.AnswerSheetTemplate) []models.StudentAnswer {
	c := newCollector(template.TotalQuestions)
	for _, m := range writtenAnswerPattern.FindAllStringSubmatch(ocr.RawText, -1) {
		number, ok := questionNumber(m[1])
		if !ok {
			continue
		}
		answer := strings.TrimSpace(m[2])
		confidence := writtenAnswerConfidence
		if answer == "" {
			confidence = writtenBlankConfidence
		}
		c.add(number, answer, confidence, writtenStatus(answer))
	}
	return c.result()
}

func (p *WrittenAnswerParser) fromNumberedLines(ocr *models.OcrResult, template models.AnswerSheetTemplate) []models.StudentAnswer {
	c := newCollector(template.TotalQuestions)
	for _, m := range writtenNumberedPattern.FindAllStringSubmatch(ocr.RawText, -1) {
		number, ok := questionNumber(m[1])
		if !ok {
			continue
		}
		answer := strings.TrimSpace(m[2])
		c.add(number, answer, writtenNumberedConfidence, writtenStatus(answer))
	}
	return c.result()
}

func writtenStatus(answer string) models.AnswerStatus {
	if strings.TrimSpace(answer) == "" {
		return models.StatusUnanswered
	}
	return models.StatusAnswered
}

// writtenConfidence averages the confidence of regions holding the answer text (either
// containing it or contained by it) and falls back to length heuristics
func writtenConfidence(answer string, regions []models.OcrRegion) float64 {
	if strings.TrimSpace(answer) == "" {
		return writtenBlankConfidence
	}

	needle := strings.ToLower(answer)
	var sum float64
	var matched int
	for _, r := range regions {
		hay := strings.ToLower(strings.TrimSpace(r.Text))
		if hay == "" {
			continue
		}
		if strings.Contains(hay, needle) || strings.Contains(needle, hay) {
			sum += r.Confidence
			matched++
		}
	}
	if matched > 0 {
		return sum / float64(matched)
	}

	switch n := len([]rune(answer)); {
	case n < 2:
		return writtenShortConfidence
	case n > writtenLongAnswerLength:
		return writtenLongConfidence
	default:
		return writtenDefaultConfidence
	}
}
