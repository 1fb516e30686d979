package parsing

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/SAP-F-2025/exam-reader-service/internal/models"
)

var (
	// Q1: [A], q12:[ ], Q3: [?]
	bubbleLinePattern = regexp.MustCompile(`(?i)Q(\d+)\s*:\s*\[([A-Za-z?]|\s*)\]`)
	// 1. A
	bubbleNumberedPattern = regexp.MustCompile(`(?m)^(\d+)\.[ \t]*([A-Da-d])[ \t\r]*$`)
)

const (
	bubbleMarkedConfidence   = 0.95
	bubbleBlankConfidence    = 0.80
	bubbleUnknownConfidence  = 0.50
	bubbleUnclearConfidence  = 0.40
	bubbleNumberedConfidence = 0.90
)

// BubbleSheetParser reads single-choice sheets printed as "Q<n>: [<option>]" lines
type BubbleSheetParser struct {
	logger *slog.Logger
}

func NewBubbleSheetParser(logger *slog.Logger) *BubbleSheetParser {
	return &BubbleSheetParser{
		logger: logger.With("parser", "bubble_sheet"),
	}
}

func (p *BubbleSheetParser) Name() string {
	return "bubble_sheet"
}

func (p *BubbleSheetParser) CanParse(template models.AnswerSheetTemplate) bool {
	return template.Format == models.FormatBubbleSheet
}

func (p *BubbleSheetParser) Parse(ctx context.Context, ocr *models.OcrResult, template models.AnswerSheetTemplate) ([]models.StudentAnswer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ocr = orEmpty(ocr)

	p.logger.DebugContext(ctx, "Parsing bubble sheet OCR result",
		"text_length", len(ocr.RawText),
		"region_count", len(ocr.Regions))

	answers := firstNonEmpty(ocr, template, p.fromLines, p.fromNumberedLines)

	// Regions are scanned one by one and win only when they recover more questions
	if len(answers) < template.TotalQuestions && len(ocr.Regions) > 0 {
		if regionAnswers := p.fromRegions(ocr, template); len(regionAnswers) > len(answers) {
			p.logger.DebugContext(ctx, "Region pass recovered more answers",
				"text_answers", len(answers),
				"region_answers", len(regionAnswers))
			answers = regionAnswers
		}
	}

	result := complete(answers, template.TotalQuestions)
	p.logger.DebugContext(ctx, "Parsed bubble sheet",
		"answers", len(result),
		"answered", countAnswered(result))
	return result, nil
}

func (p *BubbleSheetParser) fromLines(ocr *models.OcrResult, template models.AnswerSheetTemplate) []models.StudentAnswer {
	c := newCollector(template.TotalQuestions)
	for _, m := range bubbleLinePattern.FindAllStringSubmatch(ocr.RawText, -1) {
		number, ok := questionNumber(m[1])
		if !ok {
			continue
		}
		text, status, confidence := classifyBubbleMark(m[2], template.Options())
		c.add(number, text, confidence, status)
	}
	return c.result()
}

func (p *BubbleSheetParser) fromNumberedLines(ocr *models.OcrResult, template models.AnswerSheetTemplate) []models.StudentAnswer {
	c := newCollector(template.TotalQuestions)
	for _, m := range bubbleNumberedPattern.FindAllStringSubmatch(ocr.RawText, -1) {
		number, ok := questionNumber(m[1])
		if !ok {
			continue
		}
		c.add(number, strings.ToUpper(strings.TrimSpace(m[2])), bubbleNumberedConfidence, models.StatusAnswered)
	}
	return c.result()
}

func (p *BubbleSheetParser) fromRegions(ocr *models.OcrResult, template models.AnswerSheetTemplate) []models.StudentAnswer {
	c := newCollector(template.TotalQuestions)
	for _, region := range ocr.Regions {
		m := bubbleLinePattern.FindStringSubmatch(region.Text)
		if m == nil {
			continue
		}
		number, ok := questionNumber(m[1])
		if !ok {
			continue
		}
		text, status, _ := classifyBubbleMark(m[2], template.Options())
		c.add(number, text, region.Confidence, status)
	}
	return c.result()
}

// classifyBubbleMark maps the bracket contents to answer text, status and the text-pass confidence
func classifyBubbleMark(raw string, options []string) (string, models.AnswerStatus, float64) {
	token := strings.ToUpper(strings.TrimSpace(raw))
	switch {
	case token == "":
		return "", models.StatusUnanswered, bubbleBlankConfidence
	case token == "?":
		return "", models.StatusUnclear, bubbleUnclearConfidence
	case !containsOption(options, token):
		return token, models.StatusUnclear, bubbleUnknownConfidence
	default:
		return token, models.StatusAnswered, bubbleMarkedConfidence
	}
}
