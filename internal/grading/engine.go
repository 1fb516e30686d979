// Package grading scores one student's extracted answers against an answer key.
// Grading is a pure function of (answers, key, options): it performs no I/O and
// returns no domain errors.
package grading

import (
	"context"
	"log/slog"
	"math"
	"strings"

	"github.com/SAP-F-2025/exam-reader-service/internal/models"
)

// Grader is the contract the batch sequencer and services depend on
type Grader interface {
	GradeContext(ctx context.Context, answers []models.StudentAnswer, key models.AnswerKey, options models.GradingOptions) (models.GradingResult, error)
}

type Engine struct {
	logger *slog.Logger
}

func NewEngine(logger *slog.Logger) *Engine {
	return &Engine{
		logger: logger.With("component", "grading_engine"),
	}
}

// GradeContext checks for cancellation once, then grades synchronously
func (e *Engine) GradeContext(ctx context.Context, answers []models.StudentAnswer, key models.AnswerKey, options models.GradingOptions) (models.GradingResult, error) {
	if err := ctx.Err(); err != nil {
		return models.GradingResult{}, err
	}
	return e.Grade(answers, key, options), nil
}

// Grade produces one QuestionResult per key question plus the aggregate score
func (e *Engine) Grade(answers []models.StudentAnswer, key models.AnswerKey, options models.GradingOptions) models.GradingResult {
	lookup := make(map[int]models.StudentAnswer, len(answers))
	for _, a := range answers {
		if _, dup := lookup[a.QuestionNumber]; !dup {
			lookup[a.QuestionNumber] = a
		}
	}

	result := models.GradingResult{
		QuestionResults: make([]models.QuestionResult, 0, len(key.Questions)),
	}

	var rawScore, maxScore float64
	for _, q := range key.Questions {
		answer, found := lookup[q.Number]
		qr := gradeQuestion(q, answer, found, options)

		switch {
		case qr.Status == models.StatusAnswered && qr.IsCorrect:
			result.Correct++
		case qr.Status == models.StatusAnswered:
			result.Incorrect++
		default:
			result.Unanswered++
		}

		rawScore += qr.PointsEarned
		maxScore += qr.PointsPossible
		result.QuestionResults = append(result.QuestionResults, qr)
	}

	// Penalties may push the sum below zero; only the total is clamped
	result.RawScore = round(math.Max(0, rawScore), 2)
	result.MaxScore = round(maxScore, 2)
	if maxScore > 0 {
		result.Percentage = round(math.Max(0, rawScore)/maxScore*100, 2)
	}
	result.LetterGrade = LetterGrade(result.Percentage, options.GradeScale)
	result.Passed = IsPassing(result.Percentage, options.PassingScore)

	e.logger.Debug("Graded answer sheet",
		"questions", len(key.Questions),
		"correct", result.Correct,
		"incorrect", result.Incorrect,
		"unanswered", result.Unanswered,
		"percentage", result.Percentage)

	return result
}

func gradeQuestion(q models.Question, answer models.StudentAnswer, found bool, options models.GradingOptions) models.QuestionResult {
	pointsPossible := 1.0
	if options.WeightedQuestions {
		pointsPossible = q.EffectiveWeight()
	}

	qr := models.QuestionResult{
		QuestionNumber: q.Number,
		CorrectAnswer:  q.CorrectAnswer,
		PointsPossible: pointsPossible,
	}

	if !found || answer.Status == models.StatusUnanswered || answer.Status == "" {
		qr.Status = models.StatusUnanswered
		return qr
	}

	qr.StudentAnswer = strings.TrimSpace(answer.SelectedAnswer)
	qr.Status = answer.Status

	if answer.Status == models.StatusMultipleMarks || answer.Status == models.StatusUnclear {
		qr.PointsEarned = penalty(pointsPossible, options)
		return qr
	}

	if q.EffectiveType() == models.MultiSelect && options.PartialCredit {
		if earned, correct, ok := partialCredit(q.CorrectAnswer, answer.SelectedAnswer, pointsPossible); ok {
			qr.PointsEarned = earned
			qr.IsCorrect = correct
			return qr
		}
	}

	if strings.EqualFold(strings.TrimSpace(answer.SelectedAnswer), strings.TrimSpace(q.CorrectAnswer)) {
		qr.IsCorrect = true
		qr.PointsEarned = pointsPossible
		return qr
	}

	qr.PointsEarned = penalty(pointsPossible, options)
	return qr
}

// partialCredit awards (hits - wrong picks) / |correct| of the points, never below zero.
// ok is false when the key lists no correct tokens.
func partialCredit(correctAnswer, selected string, pointsPossible float64) (earned float64, correct bool, ok bool) {
	correctSet := tokenSet(correctAnswer)
	if len(correctSet) == 0 {
		return 0, false, false
	}
	selectedSet := tokenSet(selected)

	var hits, extras int
	for token := range selectedSet {
		if correctSet[token] {
			hits++
		} else {
			extras++
		}
	}

	earned = float64(max(0, hits-extras)) / float64(len(correctSet)) * pointsPossible
	correct = hits == len(correctSet) && extras == 0
	return earned, correct, true
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, part := range strings.Split(s, ",") {
		token := strings.ToUpper(strings.TrimSpace(part))
		if token != "" {
			set[token] = true
		}
	}
	return set
}

func penalty(pointsPossible float64, options models.GradingOptions) float64 {
	if !options.NegativeMarking || options.NegativePenalty == 0 {
		return 0
	}
	return -options.NegativePenalty * pointsPossible
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
