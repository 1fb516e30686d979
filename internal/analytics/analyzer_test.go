package analytics

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/exam-reader-service/internal/models"
)

func newTestAnalyzer() *Analyzer {
	return NewAnalyzer(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func scored(name string, percentage float64, passed bool, questions ...models.QuestionResult) models.GradingResult {
	return models.GradingResult{
		StudentID:       "id-" + name,
		StudentName:     name,
		Percentage:      percentage,
		Passed:          passed,
		LetterGrade:     letterFor(percentage),
		QuestionResults: questions,
	}
}

func letterFor(p float64) string {
	switch {
	case p >= 90:
		return "A"
	case p >= 60:
		return "D"
	default:
		return "F"
	}
}

func correctAnswer(n int, answer string) models.QuestionResult {
	return models.QuestionResult{QuestionNumber: n, CorrectAnswer: answer, StudentAnswer: answer, IsCorrect: true, Status: models.StatusAnswered}
}

func wrongAnswer(n int, correct, answer string) models.QuestionResult {
	return models.QuestionResult{QuestionNumber: n, CorrectAnswer: correct, StudentAnswer: answer, Status: models.StatusAnswered}
}

func blankAnswer(n int, correct string) models.QuestionResult {
	return models.QuestionResult{QuestionNumber: n, CorrectAnswer: correct, Status: models.StatusUnanswered}
}

func TestAnalyzer_Median(t *testing.T) {
	analyzer := newTestAnalyzer()

	odd := analyzer.Analyze([]models.GradingResult{scored("a", 100, true), scored("b", 50, false), scored("c", 70, true)}, models.AnswerKey{})
	assert.Equal(t, 70.0, odd.Median)

	even := analyzer.Analyze([]models.GradingResult{scored("a", 40, false), scored("b", 100, true), scored("c", 60, true), scored("d", 80, true)}, models.AnswerKey{})
	assert.Equal(t, 70.0, even.Median)
}

func TestAnalyzer_StandardDeviation(t *testing.T) {
	analyzer := newTestAnalyzer()

	same := analyzer.Analyze([]models.GradingResult{
		scored("a", 70, true), scored("b", 70, true), scored("c", 70, true), scored("d", 70, true),
	}, models.AnswerKey{})
	assert.Zero(t, same.StandardDeviation)
	for _, s := range same.StudentStats {
		assert.Zero(t, s.ZScore)
	}

	single := analyzer.Analyze([]models.GradingResult{scored("a", 55, false)}, models.AnswerKey{})
	assert.Zero(t, single.StandardDeviation)
	require.Len(t, single.StudentStats, 1)
	assert.Equal(t, 100.0, single.StudentStats[0].Percentile)

	spread := analyzer.Analyze([]models.GradingResult{scored("a", 60, true), scored("b", 80, true), scored("c", 100, true)}, models.AnswerKey{})
	assert.Equal(t, 20.0, spread.StandardDeviation)
	assert.Equal(t, 80.0, spread.ClassAverage)
}

func TestAnalyzer_PassRate(t *testing.T) {
	analytics := newTestAnalyzer().Analyze([]models.GradingResult{
		scored("a", 100, true), scored("b", 80, true), scored("c", 50, false), scored("d", 30, false),
	}, models.AnswerKey{ExamID: "exam-1"})

	assert.Equal(t, 4, analytics.TotalStudents)
	assert.Equal(t, 2, analytics.PassCount)
	assert.Equal(t, 2, analytics.FailCount)
	assert.Equal(t, 50.0, analytics.PassRate)
	assert.Equal(t, 100.0, analytics.HighestScore)
	assert.Equal(t, 30.0, analytics.LowestScore)
	assert.Equal(t, map[string]int{"A": 1, "D": 1, "F": 2}, analytics.GradeDistribution)
}

func TestAnalyzer_Empty(t *testing.T) {
	analytics := newTestAnalyzer().Analyze(nil, models.AnswerKey{ExamID: "exam-1", ExamTitle: "Chemistry"})

	assert.Equal(t, "exam-1", analytics.ExamID)
	assert.Equal(t, "Chemistry", analytics.ExamTitle)
	assert.Zero(t, analytics.TotalStudents)
	assert.Zero(t, analytics.ClassAverage)
	assert.Zero(t, analytics.PassRate)
	assert.Empty(t, analytics.GradeDistribution)
	assert.Empty(t, analytics.ScoreDistribution)
	assert.Empty(t, analytics.QuestionStats)
	assert.Empty(t, analytics.StudentStats)
}

func TestAnalyzer_ScoreDistribution(t *testing.T) {
	analytics := newTestAnalyzer().Analyze([]models.GradingResult{
		scored("a", 0, false), scored("b", 9.99, false), scored("c", 10, false), scored("d", 95, true), scored("e", 100, true),
	}, models.AnswerKey{})

	require.Len(t, analytics.ScoreDistribution, 10)
	assert.Equal(t, 2, analytics.ScoreDistribution[0].Count)
	assert.Equal(t, 1, analytics.ScoreDistribution[1].Count)
	assert.Equal(t, 2, analytics.ScoreDistribution[9].Count)
	assert.Equal(t, "90-100", analytics.ScoreDistribution[9].Label)
	assert.Equal(t, 90.0, analytics.ScoreDistribution[9].RangeStart)
}

func TestAnalyzer_QuestionStats(t *testing.T) {
	key := models.AnswerKey{Questions: []models.Question{
		{Number: 1, CorrectAnswer: "A"},
		{Number: 2, CorrectAnswer: "B"},
	}}
	results := []models.GradingResult{
		scored("Ana", 100, true, correctAnswer(1, "A"), correctAnswer(2, "B")),
		scored("Ben", 50, false, correctAnswer(1, "A"), wrongAnswer(2, "B", "c")),
		scored("Cem", 50, false, wrongAnswer(1, "A", "D"), correctAnswer(2, "B")),
		scored("Dia", 0, false, blankAnswer(1, "A"), wrongAnswer(2, "B", "D")),
	}

	analytics := newTestAnalyzer().Analyze(results, key)
	require.Len(t, analytics.QuestionStats, 2)

	q1 := analytics.QuestionStats[0]
	assert.Equal(t, 4, q1.TotalAttempts)
	assert.Equal(t, 2, q1.CorrectCount)
	assert.Equal(t, 1, q1.IncorrectCount)
	assert.Equal(t, 1, q1.UnansweredCount)
	assert.Equal(t, 0.5, q1.DifficultyIndex)
	assert.Equal(t, 1.0, q1.DiscriminationIndex)
	assert.Equal(t, "D", q1.MostCommonWrongAnswer)
	assert.Equal(t, map[string]int{"A": 2, "D": 1}, q1.AnswerDistribution)
	assert.False(t, q1.FlaggedForReview)

	q2 := analytics.QuestionStats[1]
	assert.Equal(t, "C", q2.MostCommonWrongAnswer)
	assert.Equal(t, map[string]int{"B": 2, "C": 1, "D": 1}, q2.AnswerDistribution)
	assert.True(t, q2.FlaggedForReview)
}

func TestReviewFlag(t *testing.T) {
	tests := []struct {
		name           string
		discrimination float64
		difficulty     float64
		flagged        bool
		reason         string
	}{
		{"low discrimination wins", 0.1, 0.1, true, "Low discrimination index (0.10)"},
		{"too difficult", 0.5, 0.15, true, "Too difficult (only 15% correct)"},
		{"too easy", 0.5, 0.96, true, "Too easy (96% correct)"},
		{"healthy", 0.4, 0.6, false, ""},
		{"negative discrimination", -0.5, 0.5, true, "Low discrimination index (-0.50)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flagged, reason := reviewFlag(tt.discrimination, tt.difficulty)
			assert.Equal(t, tt.flagged, flagged)
			assert.Equal(t, tt.reason, reason)
		})
	}
}

func TestMostFrequent_TieBreak(t *testing.T) {
	assert.Equal(t, "B", mostFrequent(map[string]int{"D": 2, "B": 2, "C": 1}))
	assert.Equal(t, "", mostFrequent(map[string]int{}))
}

func TestAnalyzer_DiscriminationBounds(t *testing.T) {
	key := models.AnswerKey{Questions: []models.Question{{Number: 1, CorrectAnswer: "A"}, {Number: 2, CorrectAnswer: "B"}}}
	analyzer := newTestAnalyzer()

	for size := 1; size <= 12; size++ {
		var results []models.GradingResult
		for i := 0; i < size; i++ {
			pct := float64((i * 37) % 101)
			q1 := wrongAnswer(1, "A", "C")
			if i%2 == 0 {
				q1 = correctAnswer(1, "A")
			}
			q2 := correctAnswer(2, "B")
			if i%3 == 0 {
				q2 = blankAnswer(2, "B")
			}
			results = append(results, scored(string(rune('a'+i)), pct, pct >= 60, q1, q2))
		}

		analytics := analyzer.Analyze(results, key)
		for _, qa := range analytics.QuestionStats {
			assert.GreaterOrEqual(t, qa.DiscriminationIndex, -1.0)
			assert.LessOrEqual(t, qa.DiscriminationIndex, 1.0)
			assert.GreaterOrEqual(t, qa.DifficultyIndex, 0.0)
			assert.LessOrEqual(t, qa.DifficultyIndex, 1.0)
		}
	}
}

func TestAnalyzer_StudentRanking(t *testing.T) {
	analytics := newTestAnalyzer().Analyze([]models.GradingResult{
		scored("Zeynep", 80, true),
		scored("Ali", 80, true),
		scored("Mehmet", 40, false),
		scored("Elif", 100, true),
	}, models.AnswerKey{})

	require.Len(t, analytics.StudentStats, 4)
	names := make([]string, 0, 4)
	for _, s := range analytics.StudentStats {
		names = append(names, s.StudentName)
	}
	assert.Equal(t, []string{"Elif", "Ali", "Zeynep", "Mehmet"}, names)

	assert.Equal(t, 1, analytics.StudentStats[0].Rank)
	assert.Equal(t, 100.0, analytics.StudentStats[0].Percentile)
	assert.Equal(t, 33.3, analytics.StudentStats[1].Percentile)
	assert.Equal(t, 0.0, analytics.StudentStats[3].Percentile)
	assert.Greater(t, analytics.StudentStats[0].ZScore, 0.0)
	assert.Less(t, analytics.StudentStats[3].ZScore, 0.0)
}

func TestAnalyzer_AnalyzeContext(t *testing.T) {
	analyzer := newTestAnalyzer()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := analyzer.AnalyzeContext(ctx, []models.GradingResult{scored("a", 50, false)}, models.AnswerKey{})
	assert.ErrorIs(t, err, context.Canceled)

	analytics, err := analyzer.AnalyzeContext(context.Background(), []models.GradingResult{scored("a", 50, false)}, models.AnswerKey{})
	require.NoError(t, err)
	assert.Equal(t, 1, analytics.TotalStudents)
}
