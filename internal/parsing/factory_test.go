package parsing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/SAP-F-2025/exam-reader-service/internal/models"
)

func TestFactory_ParserFor(t *testing.T) {
	factory := NewFactory(testLogger())

	tests := []struct {
		format models.ExamFormat
		want   string
	}{
		{models.FormatBubbleSheet, "bubble_sheet"},
		{models.FormatGridBased, "grid_based"},
		{models.FormatWrittenAnswer, "written_answer"},
		{models.FormatMixed, "written_answer"},
		{models.ExamFormat("punch_card"), "bubble_sheet"},
		{"", "bubble_sheet"},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			parser := factory.ParserFor(models.AnswerSheetTemplate{Format: tt.format, TotalQuestions: 1})
			assert.Equal(t, tt.want, parser.Name())
		})
	}
}

func TestFactory_Parsers(t *testing.T) {
	factory := NewFactory(testLogger())
	assert.Len(t, factory.Parsers(), 3)
}

func TestParsers_NegativeQuestionCount(t *testing.T) {
	ocr := &models.OcrResult{Success: true, RawText: "Q1: [A]\n1 X O _ _\nQuestion 1: photosynthesis\n"}
	template := models.DefaultTemplate()
	template.TotalQuestions = -3

	for _, parser := range NewFactory(testLogger()).Parsers() {
		t.Run(parser.Name(), func(t *testing.T) {
			var answers []models.StudentAnswer
			var err error
			assert.NotPanics(t, func() {
				answers, err = parser.Parse(context.Background(), ocr, template)
			})
			assert.NoError(t, err)
			assert.Empty(t, answers)
		})
	}
}

func TestExtractStudentInfo(t *testing.T) {
	ocr := &models.OcrResult{
		RawText: "Student Name: Ayse Demir \r\nStudent ID: 2024002\n---\nQ1: [A]\n",
	}

	info := ExtractStudentInfo(ocr)
	assert.Equal(t, "Ayse Demir", info.StudentName)
	assert.Equal(t, "2024002", info.StudentID)

	assert.Equal(t, models.StudentInfo{}, ExtractStudentInfo(&models.OcrResult{RawText: "Q1: [A]"}))
	assert.Equal(t, models.StudentInfo{}, ExtractStudentInfo(nil))
}
