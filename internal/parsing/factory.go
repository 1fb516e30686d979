package parsing

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/SAP-F-2025/exam-reader-service/internal/models"
)

// Factory picks the parser for a template's declared format
type Factory struct {
	parsers  []Parser
	fallback Parser
	logger   *slog.Logger
}

func NewFactory(logger *slog.Logger) *Factory {
	bubble := NewBubbleSheetParser(logger)
	return &Factory{
		parsers: []Parser{
			bubble,
			NewGridParser(logger),
			NewWrittenAnswerParser(logger),
		},
		fallback: bubble,
		logger:   logger,
	}
}

// ParserFor returns the first parser accepting the template, or the bubble parser when none does
func (f *Factory) ParserFor(template models.AnswerSheetTemplate) Parser {
	for _, p := range f.parsers {
		if p.CanParse(template) {
			f.logger.Debug("Selected parser", "parser", p.Name(), "format", template.Format)
			return p
		}
	}

	f.logger.Warn("No parser declared support for format, falling back to bubble sheet parser",
		"format", template.Format)
	return f.fallback
}

// Parsers lists every registered parser
func (f *Factory) Parsers() []Parser {
	return append([]Parser(nil), f.parsers...)
}

var (
	studentNamePattern = regexp.MustCompile(`(?i)Student\s*Name\s*:\s*(.+)`)
	studentIDPattern   = regexp.MustCompile(`(?i)Student\s*ID\s*:\s*(\S+)`)
)

// ExtractStudentInfo reads the "Student Name:" and "Student ID:" header lines when present
func ExtractStudentInfo(ocr *models.OcrResult) models.StudentInfo {
	var info models.StudentInfo
	if ocr == nil {
		return info
	}
	if m := studentNamePattern.FindStringSubmatch(ocr.RawText); m != nil {
		info.StudentName = strings.TrimSpace(m[1])
	}
	if m := studentIDPattern.FindStringSubmatch(ocr.RawText); m != nil {
		info.StudentID = strings.TrimSpace(m[1])
	}
	return info
}
