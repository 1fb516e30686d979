// Package analytics computes class level psychometrics from graded results.
package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/SAP-F-2025/exam-reader-service/internal/models"
)

const (
	discriminationGroupShare = 0.27
	lowDiscriminationLimit   = 0.2
	tooDifficultLimit        = 0.2
	tooEasyLimit             = 0.95
)

type Analyzer struct {
	logger *slog.Logger
	now    func() time.Time
}

func NewAnalyzer(logger *slog.Logger) *Analyzer {
	return &Analyzer{
		logger: logger.With("component", "exam_analyzer"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// AnalyzeContext checks for cancellation once before computing
func (a *Analyzer) AnalyzeContext(ctx context.Context, results []models.GradingResult, key models.AnswerKey) (models.ExamAnalytics, error) {
	if err := ctx.Err(); err != nil {
		return models.ExamAnalytics{}, err
	}
	return a.Analyze(results, key), nil
}

// Analyze never fails; an empty result list yields zeroed statistics
func (a *Analyzer) Analyze(results []models.GradingResult, key models.AnswerKey) models.ExamAnalytics {
	analytics := models.ExamAnalytics{
		ExamID:            key.ExamID,
		ExamTitle:         key.ExamTitle,
		GradeDistribution: map[string]int{},
		ScoreDistribution: []models.ScoreBucket{},
		QuestionStats:     []models.QuestionAnalytics{},
		StudentStats:      []models.StudentAnalytics{},
		ComputedAt:        a.now(),
	}
	if len(results) == 0 {
		return analytics
	}

	percentages := make([]float64, len(results))
	for i, r := range results {
		percentages[i] = r.Percentage
	}
	sort.Float64s(percentages)

	analytics.TotalStudents = len(results)
	analytics.ClassAverage = round(mean(percentages), 2)
	analytics.Median = round(median(percentages), 2)
	analytics.StandardDeviation = round(sampleStdDev(percentages), 2)
	analytics.LowestScore = percentages[0]
	analytics.HighestScore = percentages[len(percentages)-1]
	analytics.ScoreDistribution = scoreBuckets(percentages)

	for _, r := range results {
		if r.Passed {
			analytics.PassCount++
		} else {
			analytics.FailCount++
		}
		analytics.GradeDistribution[r.LetterGrade]++
	}
	analytics.PassRate = round(float64(analytics.PassCount)/float64(analytics.TotalStudents)*100, 2)

	analytics.QuestionStats = analyzeQuestions(results, key)
	analytics.StudentStats = analyzeStudents(results, analytics.ClassAverage, analytics.StandardDeviation)

	a.logger.Info("Exam analysis complete",
		"exam_id", key.ExamID,
		"students", analytics.TotalStudents,
		"class_average", analytics.ClassAverage,
		"pass_rate", analytics.PassRate)

	return analytics
}

// ===== QUESTION ANALYSIS =====

func analyzeQuestions(results []models.GradingResult, key models.AnswerKey) []models.QuestionAnalytics {
	ranked := make([]models.GradingResult, len(results))
	copy(ranked, results)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Percentage > ranked[j].Percentage
	})

	groupSize := max(1, int(math.Ceil(float64(len(ranked))*discriminationGroupShare)))
	groupSize = min(groupSize, len(ranked))
	top := ranked[:groupSize]
	bottom := ranked[len(ranked)-groupSize:]

	stats := make([]models.QuestionAnalytics, 0, len(key.Questions))
	for _, q := range key.Questions {
		qa := models.QuestionAnalytics{
			QuestionNumber:     q.Number,
			CorrectAnswer:      q.CorrectAnswer,
			AnswerDistribution: map[string]int{},
		}

		wrong := map[string]int{}
		for _, r := range results {
			for _, qr := range r.QuestionResults {
				if qr.QuestionNumber != q.Number {
					continue
				}
				qa.TotalAttempts++

				switch {
				case qr.IsCorrect:
					qa.CorrectCount++
				case qr.Status == models.StatusAnswered:
					qa.IncorrectCount++
				}
				if qr.Status == models.StatusUnanswered {
					qa.UnansweredCount++
				}

				if qr.StudentAnswer == "" {
					continue
				}
				normalized := strings.ToUpper(qr.StudentAnswer)
				qa.AnswerDistribution[normalized]++
				if !qr.IsCorrect && qr.Status == models.StatusAnswered {
					wrong[normalized]++
				}
			}
		}

		if qa.TotalAttempts > 0 {
			qa.DifficultyIndex = round(float64(qa.CorrectCount)/float64(qa.TotalAttempts), 3)
		}
		qa.MostCommonWrongAnswer = mostFrequent(wrong)
		qa.DiscriminationIndex = round(correctRate(top, q.Number)-correctRate(bottom, q.Number), 3)
		qa.FlaggedForReview, qa.FlagReason = reviewFlag(qa.DiscriminationIndex, qa.DifficultyIndex)

		stats = append(stats, qa)
	}
	return stats
}

func correctRate(group []models.GradingResult, questionNumber int) float64 {
	if len(group) == 0 {
		return 0
	}
	var correct int
	for _, r := range group {
		for _, qr := range r.QuestionResults {
			if qr.QuestionNumber == questionNumber && qr.IsCorrect {
				correct++
			}
		}
	}
	return float64(correct) / float64(len(group))
}

// mostFrequent breaks ties by lexical order
func mostFrequent(counts map[string]int) string {
	var best string
	bestCount := 0
	for answer, count := range counts {
		if count > bestCount || (count == bestCount && answer < best) {
			best, bestCount = answer, count
		}
	}
	return best
}

// reviewFlag applies the checks in priority order; the first match wins
func reviewFlag(discrimination, difficulty float64) (bool, string) {
	switch {
	case discrimination < lowDiscriminationLimit:
		return true, fmt.Sprintf("Low discrimination index (%.2f)", discrimination)
	case difficulty < tooDifficultLimit:
		return true, fmt.Sprintf("Too difficult (only %.0f%% correct)", difficulty*100)
	case difficulty > tooEasyLimit:
		return true, fmt.Sprintf("Too easy (%.0f%% correct)", difficulty*100)
	default:
		return false, ""
	}
}

// ===== STUDENT ANALYSIS =====

func analyzeStudents(results []models.GradingResult, classAverage, stdDev float64) []models.StudentAnalytics {
	ranked := make([]models.GradingResult, len(results))
	copy(ranked, results)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Percentage != ranked[j].Percentage {
			return ranked[i].Percentage > ranked[j].Percentage
		}
		return ranked[i].StudentName < ranked[j].StudentName
	})

	n := len(results)
	stats := make([]models.StudentAnalytics, 0, n)
	for i, r := range ranked {
		percentile := 100.0
		if n > 1 {
			below := 0
			for _, other := range results {
				if other.Percentage < r.Percentage {
					below++
				}
			}
			percentile = round(float64(below)/float64(n-1)*100, 1)
		}

		var zScore float64
		if stdDev > 0 {
			zScore = round((r.Percentage-classAverage)/stdDev, 2)
		}

		stats = append(stats, models.StudentAnalytics{
			StudentID:   r.StudentID,
			StudentName: r.StudentName,
			Rank:        i + 1,
			Percentile:  percentile,
			ZScore:      zScore,
			Percentage:  r.Percentage,
			LetterGrade: r.LetterGrade,
			Passed:      r.Passed,
			Correct:     r.Correct,
			Incorrect:   r.Incorrect,
			Unanswered:  r.Unanswered,
			RawScore:    r.RawScore,
			MaxScore:    r.MaxScore,
		})
	}
	return stats
}
