package reports

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/SAP-F-2025/exam-reader-service/internal/models"
)

type JSONGenerator struct{}

func NewJSONGenerator() *JSONGenerator {
	return &JSONGenerator{}
}

func (g *JSONGenerator) Format() string      { return "json" }
func (g *JSONGenerator) ContentType() string { return "application/json" }
func (g *JSONGenerator) Extension() string   { return ".json" }

type jsonReport struct {
	Title       string                     `json:"title"`
	GeneratedAt time.Time                  `json:"generated_at"`
	Summary     jsonSummary                `json:"summary"`
	Students    []models.GradingResult     `json:"students"`
	Questions   []models.QuestionAnalytics `json:"questions"`
}

type jsonSummary struct {
	TotalStudents     int            `json:"total_students"`
	ClassAverage      float64        `json:"class_average"`
	Median            float64        `json:"median"`
	StandardDeviation float64        `json:"standard_deviation"`
	HighestScore      float64        `json:"highest_score"`
	LowestScore       float64        `json:"lowest_score"`
	PassCount         int            `json:"pass_count"`
	FailCount         int            `json:"fail_count"`
	PassRate          float64        `json:"pass_rate"`
	GradeDistribution map[string]int `json:"grade_distribution"`
}

func (g *JSONGenerator) Generate(ctx context.Context, data ReportData) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a := data.Analytics
	report := jsonReport{
		Title:       data.Title,
		GeneratedAt: data.GeneratedAt,
		Summary: jsonSummary{
			TotalStudents:     a.TotalStudents,
			ClassAverage:      a.ClassAverage,
			Median:            a.Median,
			StandardDeviation: a.StandardDeviation,
			HighestScore:      a.HighestScore,
			LowestScore:       a.LowestScore,
			PassCount:         a.PassCount,
			FailCount:         a.FailCount,
			PassRate:          a.PassRate,
			GradeDistribution: a.GradeDistribution,
		},
		Students:  data.Results,
		Questions: a.QuestionStats,
	}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON report: %w", err)
	}
	return out, nil
}
