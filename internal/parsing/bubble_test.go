package parsing

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/exam-reader-service/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func bubbleTemplate(total int) models.AnswerSheetTemplate {
	tpl := models.DefaultTemplate()
	tpl.TotalQuestions = total
	tpl.QuestionsPerColumn = total
	return tpl
}

func TestBubbleSheetParser_RoundTrip(t *testing.T) {
	parser := NewBubbleSheetParser(testLogger())
	options := []string{"A", "B", "C", "D"}

	var sb strings.Builder
	for i := 1; i <= 30; i++ {
		fmt.Fprintf(&sb, "Q%d: [%s]\n", i, options[(i-1)%4])
	}

	answers, err := parser.Parse(context.Background(), &models.OcrResult{Success: true, RawText: sb.String()}, bubbleTemplate(30))
	require.NoError(t, err)
	require.Len(t, answers, 30)

	for i, a := range answers {
		assert.Equal(t, i+1, a.QuestionNumber)
		assert.Equal(t, options[i%4], a.SelectedAnswer)
		assert.Equal(t, models.StatusAnswered, a.Status)
		assert.Equal(t, bubbleMarkedConfidence, a.Confidence)
	}
}

func TestBubbleSheetParser_MarkClassification(t *testing.T) {
	parser := NewBubbleSheetParser(testLogger())
	text := "Q1: [ ]\nQ2: [?]\nQ3: [E]\nq4:[b]\n"

	answers, err := parser.Parse(context.Background(), &models.OcrResult{RawText: text}, bubbleTemplate(4))
	require.NoError(t, err)
	require.Len(t, answers, 4)

	tests := []struct {
		text       string
		status     models.AnswerStatus
		confidence float64
	}{
		{"", models.StatusUnanswered, 0.80},
		{"", models.StatusUnclear, 0.40},
		{"E", models.StatusUnclear, 0.50},
		{"B", models.StatusAnswered, 0.95},
	}
	for i, tt := range tests {
		t.Run(fmt.Sprintf("Q%d", i+1), func(t *testing.T) {
			assert.Equal(t, tt.text, answers[i].SelectedAnswer)
			assert.Equal(t, tt.status, answers[i].Status)
			assert.Equal(t, tt.confidence, answers[i].Confidence)
		})
	}
}

func TestBubbleSheetParser_NumberedFallback(t *testing.T) {
	parser := NewBubbleSheetParser(testLogger())
	text := "1. A\n2. c\r\n3.D\n"

	answers, err := parser.Parse(context.Background(), &models.OcrResult{RawText: text}, bubbleTemplate(3))
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "C", "D"}, []string{answers[0].SelectedAnswer, answers[1].SelectedAnswer, answers[2].SelectedAnswer})
	for _, a := range answers {
		assert.Equal(t, models.StatusAnswered, a.Status)
		assert.Equal(t, bubbleNumberedConfidence, a.Confidence)
	}
}

func TestBubbleSheetParser_GapFillAndRange(t *testing.T) {
	parser := NewBubbleSheetParser(testLogger())
	text := "Q1: [A]\nQ7: [B]\nQ0: [C]\nQ1: [D]\n"

	answers, err := parser.Parse(context.Background(), &models.OcrResult{RawText: text}, bubbleTemplate(3))
	require.NoError(t, err)
	require.Len(t, answers, 3)

	assert.Equal(t, "A", answers[0].SelectedAnswer, "first occurrence of a question wins")
	for _, a := range answers[1:] {
		assert.Equal(t, models.StatusUnanswered, a.Status)
		assert.Equal(t, "", a.SelectedAnswer)
		assert.Zero(t, a.Confidence)
	}
}

func TestBubbleSheetParser_RegionPass(t *testing.T) {
	parser := NewBubbleSheetParser(testLogger())

	t.Run("regions win with more matches", func(t *testing.T) {
		ocr := &models.OcrResult{
			RawText: "Q1 :: smudged",
			Regions: []models.OcrRegion{
				{Text: "Q1: [A]", Confidence: 0.77, LineNumber: 1},
				{Text: "Q2: [?]", Confidence: 0.66, LineNumber: 2},
				{Text: "noise", Confidence: 0.10, LineNumber: 3},
			},
		}

		answers, err := parser.Parse(context.Background(), ocr, bubbleTemplate(3))
		require.NoError(t, err)

		assert.Equal(t, "A", answers[0].SelectedAnswer)
		assert.Equal(t, 0.77, answers[0].Confidence)
		assert.Equal(t, models.StatusUnclear, answers[1].Status)
		assert.Equal(t, 0.66, answers[1].Confidence)
		assert.Equal(t, models.StatusUnanswered, answers[2].Status)
	})

	t.Run("text result kept when regions yield no more", func(t *testing.T) {
		ocr := &models.OcrResult{
			RawText: "Q1: [A]\nQ2: [B]\n",
			Regions: []models.OcrRegion{
				{Text: "Q1: [C]", Confidence: 0.5},
			},
		}

		answers, err := parser.Parse(context.Background(), ocr, bubbleTemplate(3))
		require.NoError(t, err)

		assert.Equal(t, "A", answers[0].SelectedAnswer)
		assert.Equal(t, bubbleMarkedConfidence, answers[0].Confidence)
		assert.Equal(t, "B", answers[1].SelectedAnswer)
	})
}

func TestBubbleSheetParser_Cancelled(t *testing.T) {
	parser := NewBubbleSheetParser(testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	answers, err := parser.Parse(ctx, &models.OcrResult{RawText: "Q1: [A]"}, bubbleTemplate(1))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, answers)
}

func TestBubbleSheetParser_NilResult(t *testing.T) {
	parser := NewBubbleSheetParser(testLogger())

	answers, err := parser.Parse(context.Background(), nil, bubbleTemplate(5))
	require.NoError(t, err)
	assert.Len(t, answers, 5)
	assert.Zero(t, countAnswered(answers))
}
