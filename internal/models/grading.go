package models

import "encoding/json"

type LetterGradeScale string

const (
	ScaleStandard  LetterGradeScale = "standard"
	ScalePlusMinus LetterGradeScale = "plus_minus"
	ScalePassFail  LetterGradeScale = "pass_fail"
)

type GradingOptions struct {
	NegativeMarking   bool             `json:"negative_marking"`
	NegativePenalty   float64          `json:"negative_penalty" validate:"min=0"`
	PartialCredit     bool             `json:"partial_credit"`
	WeightedQuestions bool             `json:"weighted_questions"`
	PassingScore      float64          `json:"passing_score" validate:"min=0,max=100"`
	GradeScale        LetterGradeScale `json:"grade_scale" validate:"omitempty,grade_scale"`
}

// DefaultGradingOptions returns the stock policy: no negative marking, 60% to pass, standard letters
func DefaultGradingOptions() GradingOptions {
	return GradingOptions{
		NegativePenalty: 0.25,
		PassingScore:    60.0,
		GradeScale:      ScaleStandard,
	}
}

// UnmarshalJSON fills fields absent from the document with DefaultGradingOptions
func (o *GradingOptions) UnmarshalJSON(data []byte) error {
	type plain GradingOptions
	decoded := plain(DefaultGradingOptions())
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*o = GradingOptions(decoded)
	return nil
}

type QuestionResult struct {
	QuestionNumber int          `json:"question_number"`
	CorrectAnswer  string       `json:"correct_answer"`
	StudentAnswer  string       `json:"student_answer"`
	IsCorrect      bool         `json:"is_correct"`
	PointsEarned   float64      `json:"points_earned"`
	PointsPossible float64      `json:"points_possible"`
	Status         AnswerStatus `json:"status"`
}

type GradingResult struct {
	StudentID       string           `json:"student_id"`
	StudentName     string           `json:"student_name"`
	Correct         int              `json:"correct"`
	Incorrect       int              `json:"incorrect"`
	Unanswered      int              `json:"unanswered"`
	RawScore        float64          `json:"raw_score"`
	MaxScore        float64          `json:"max_score"`
	Percentage      float64          `json:"percentage"`
	LetterGrade     string           `json:"letter_grade"`
	Passed          bool             `json:"passed"`
	QuestionResults []QuestionResult `json:"question_results"`
}

// TotalQuestions is the number of graded questions
func (r GradingResult) TotalQuestions() int {
	return len(r.QuestionResults)
}

// WithStudent returns a copy carrying the caller supplied identity
func (r GradingResult) WithStudent(studentID, studentName string) GradingResult {
	r.StudentID = studentID
	r.StudentName = studentName
	return r
}
