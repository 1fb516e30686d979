package batch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/exam-reader-service/internal/grading"
	"github.com/SAP-F-2025/exam-reader-service/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// faultyGrader delegates to the real engine but fails on selected calls
type faultyGrader struct {
	engine  *grading.Engine
	calls   int
	failOn  map[int]error
	panicOn map[int]string
}

func (g *faultyGrader) GradeContext(ctx context.Context, answers []models.StudentAnswer, key models.AnswerKey, options models.GradingOptions) (models.GradingResult, error) {
	g.calls++
	if msg, ok := g.panicOn[g.calls]; ok {
		panic(msg)
	}
	if err, ok := g.failOn[g.calls]; ok {
		return models.GradingResult{}, err
	}
	return g.engine.GradeContext(ctx, answers, key, options)
}

func testKey() models.AnswerKey {
	return models.AnswerKey{
		ExamID: "exam-1",
		Questions: []models.Question{
			{Number: 1, CorrectAnswer: "A"},
			{Number: 2, CorrectAnswer: "B"},
		},
	}
}

func testSheets(names ...string) []models.AnswerSheet {
	sheets := make([]models.AnswerSheet, 0, len(names))
	for i, name := range names {
		sheets = append(sheets, models.AnswerSheet{
			StudentID:   string(rune('1' + i)),
			StudentName: name,
			ExtractedAnswers: []models.StudentAnswer{
				{QuestionNumber: 1, SelectedAnswer: "A", Status: models.StatusAnswered},
				{QuestionNumber: 2, SelectedAnswer: "C", Status: models.StatusAnswered},
			},
		})
	}
	return sheets
}

func TestSequencer_Process(t *testing.T) {
	seq := NewSequencer(grading.NewEngine(testLogger()), testLogger())

	var snapshots []models.BatchProgress
	observer := ProgressFunc(func(_ context.Context, p models.BatchProgress) {
		snapshots = append(snapshots, p)
	})

	result, err := seq.Process(context.Background(), testSheets("Ali", "Ayse"), testKey(), models.DefaultGradingOptions(), observer)
	require.NoError(t, err)

	assert.NotEmpty(t, result.BatchID)
	assert.Equal(t, 2, result.TotalProcessed)
	assert.Equal(t, 2, result.SuccessCount)
	assert.False(t, result.HasErrors())
	require.Len(t, result.Results, 2)
	assert.Equal(t, "Ali", result.Results[0].StudentName)
	assert.Equal(t, "1", result.Results[0].StudentID)
	assert.Equal(t, 50.0, result.Results[1].Percentage)
	assert.False(t, result.CompletedAt.Before(result.StartedAt))

	require.Len(t, snapshots, 2)
	assert.Equal(t, 1, snapshots[0].ProcessedStudents)
	assert.Equal(t, "Ali", snapshots[0].CurrentStudentName)
	assert.False(t, snapshots[0].IsComplete())
	assert.Equal(t, 50.0, snapshots[0].PercentComplete())
	assert.True(t, snapshots[1].IsComplete())
	assert.Equal(t, "Batch processing complete.", snapshots[1].StatusMessage)
}

func TestSequencer_Process_IsolatesFaults(t *testing.T) {
	tests := []struct {
		name    string
		grader  *faultyGrader
		message string
	}{
		{
			name:    "returned error",
			grader:  &faultyGrader{failOn: map[int]error{2: errors.New("corrupt answer list")}},
			message: "corrupt answer list",
		},
		{
			name:    "panic",
			grader:  &faultyGrader{panicOn: map[int]string{2: "index out of range"}},
			message: "grading panicked: index out of range",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.grader.engine = grading.NewEngine(testLogger())
			seq := NewSequencer(tt.grader, testLogger())

			var last models.BatchProgress
			observer := ProgressFunc(func(_ context.Context, p models.BatchProgress) { last = p })

			result, err := seq.Process(context.Background(), testSheets("Ali", "Ayse", "Can"), testKey(), models.DefaultGradingOptions(), observer)
			require.NoError(t, err)

			assert.Equal(t, 3, result.TotalProcessed)
			assert.Equal(t, 2, result.SuccessCount)
			assert.Equal(t, 1, result.ErrorCount)
			require.Len(t, result.Results, 2)
			assert.Equal(t, "Ali", result.Results[0].StudentName)
			assert.Equal(t, "Can", result.Results[1].StudentName)
			require.Len(t, result.Errors, 1)
			assert.Equal(t, "Ayse", result.Errors[0].StudentName)
			assert.Equal(t, tt.message, result.Errors[0].ErrorMessage)

			assert.Equal(t, 3, last.ProcessedStudents)
			assert.Equal(t, 1, last.ErrorCount)
			assert.Equal(t, "Batch processing finished with errors.", last.StatusMessage)
		})
	}
}

func TestSequencer_Process_Cancellation(t *testing.T) {
	seq := NewSequencer(grading.NewEngine(testLogger()), testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := 0
	observer := ProgressFunc(func(_ context.Context, _ models.BatchProgress) {
		calls++
		cancel()
	})

	result, err := seq.Process(ctx, testSheets("Ali", "Ayse", "Can"), testKey(), models.DefaultGradingOptions(), observer)

	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, result)
	assert.Equal(t, 1, result.TotalProcessed)
	assert.Len(t, result.Results, 1)
	assert.Empty(t, result.Errors)
	assert.Equal(t, 1, calls)
}

func TestSequencer_Process_CancellationFromGrader(t *testing.T) {
	grader := &faultyGrader{engine: grading.NewEngine(testLogger()), failOn: map[int]error{1: context.DeadlineExceeded}}
	seq := NewSequencer(grader, testLogger())

	result, err := seq.Process(context.Background(), testSheets("Ali", "Ayse"), testKey(), models.DefaultGradingOptions(), nil)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, result.TotalProcessed)
	assert.Empty(t, result.Errors)
}

func TestSequencer_Process_Empty(t *testing.T) {
	seq := NewSequencer(grading.NewEngine(testLogger()), testLogger())

	var snapshots []models.BatchProgress
	observer := ProgressFunc(func(_ context.Context, p models.BatchProgress) {
		snapshots = append(snapshots, p)
	})

	result, err := seq.Process(context.Background(), nil, testKey(), models.DefaultGradingOptions(), observer)
	require.NoError(t, err)

	assert.Zero(t, result.TotalProcessed)
	assert.Empty(t, result.Results)
	require.Len(t, snapshots, 1)
	assert.True(t, snapshots[0].IsComplete())
	assert.Zero(t, snapshots[0].PercentComplete())
}
