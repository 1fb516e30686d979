package grading

import "github.com/SAP-F-2025/exam-reader-service/internal/models"

type gradeBand struct {
	min    float64
	letter string
}

var (
	standardBands = []gradeBand{
		{90, "A"}, {80, "B"}, {70, "C"}, {60, "D"},
	}
	plusMinusBands = []gradeBand{
		{90, "A"}, {85, "A-"}, {80, "B+"}, {75, "B"}, {70, "B-"}, {65, "C+"}, {60, "C"}, {50, "D"},
	}
	passFailBands = []gradeBand{
		{60, "P"},
	}
)

// LetterGrade maps a percentage onto the scale's fixed bands. Unknown scales use the standard table.
// The pass/fail label uses its own 60% line regardless of the passing score.
func LetterGrade(percentage float64, scale models.LetterGradeScale) string {
	bands := standardBands
	switch scale {
	case models.ScalePlusMinus:
		bands = plusMinusBands
	case models.ScalePassFail:
		bands = passFailBands
	}

	for _, b := range bands {
		if percentage >= b.min {
			return b.letter
		}
	}
	return "F"
}

func IsPassing(percentage, passingScore float64) bool {
	return percentage >= passingScore
}
