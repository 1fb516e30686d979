package models

import (
	"time"
)

// ===== ENUMS =====

type ExamFormat string

const (
	FormatBubbleSheet   ExamFormat = "bubble_sheet"
	FormatGridBased     ExamFormat = "grid_based"
	FormatWrittenAnswer ExamFormat = "written_answer"
	FormatMixed         ExamFormat = "mixed"
)

type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	MultiSelect    QuestionType = "multi_select"
	WrittenAnswer  QuestionType = "written"
	TrueFalse      QuestionType = "true_false"
)

// DefaultAnswerOptions are the option labels used when a question or template does not declare any
var DefaultAnswerOptions = []string{"A", "B", "C", "D"}

// ===== EXAM DEFINITION =====

type Question struct {
	Number        int          `json:"number" validate:"required,min=1"`
	CorrectAnswer string       `json:"correct_answer" validate:"required"`
	Weight        float64      `json:"weight" validate:"omitempty,gt=0"`
	Options       []string     `json:"options,omitempty"`
	Type          QuestionType `json:"type" validate:"omitempty,question_type"`
}

// EffectiveWeight returns the weight, falling back to 1 when unset
func (q Question) EffectiveWeight() float64 {
	if q.Weight <= 0 {
		return 1.0
	}
	return q.Weight
}

// EffectiveType returns the question type, falling back to multiple choice when unset
func (q Question) EffectiveType() QuestionType {
	if q.Type == "" {
		return MultipleChoice
	}
	return q.Type
}

// AllowedOptions returns the declared option labels or the default A-D set
func (q Question) AllowedOptions() []string {
	if len(q.Options) == 0 {
		return DefaultAnswerOptions
	}
	return q.Options
}

type AnswerKey struct {
	ExamID    string     `json:"exam_id"`
	ExamTitle string     `json:"exam_title"`
	Questions []Question `json:"questions" validate:"required,min=1,dive"`
}

// TotalQuestions is derived from the question list
func (k AnswerKey) TotalQuestions() int {
	return len(k.Questions)
}

// Question looks up a question by its number
func (k AnswerKey) Question(number int) (Question, bool) {
	for _, q := range k.Questions {
		if q.Number == number {
			return q, true
		}
	}
	return Question{}, false
}

type AnswerSheetTemplate struct {
	TotalQuestions      int        `json:"total_questions" validate:"required,min=1,max=500"`
	Columns             int        `json:"columns" validate:"omitempty,min=1"`
	QuestionsPerColumn  int        `json:"questions_per_column" validate:"omitempty,min=1"`
	AnswerOptions       []string   `json:"answer_options"`
	Format              ExamFormat `json:"format" validate:"omitempty,exam_format"`
	HasStudentIDField   bool       `json:"has_student_id_field"`
	HasStudentNameField bool       `json:"has_student_name_field"`
}

// DefaultTemplate mirrors a standard 30 question, single column bubble sheet
func DefaultTemplate() AnswerSheetTemplate {
	return AnswerSheetTemplate{
		TotalQuestions:      30,
		Columns:             1,
		QuestionsPerColumn:  30,
		AnswerOptions:       append([]string(nil), DefaultAnswerOptions...),
		Format:              FormatBubbleSheet,
		HasStudentIDField:   true,
		HasStudentNameField: true,
	}
}

// Options returns the declared answer options or the default A-D set
func (t AnswerSheetTemplate) Options() []string {
	if len(t.AnswerOptions) == 0 {
		return DefaultAnswerOptions
	}
	return t.AnswerOptions
}

type ExamDefinition struct {
	ID        string              `json:"id"`
	Title     string              `json:"title" validate:"required,max=200"`
	ExamDate  time.Time           `json:"exam_date"`
	Format    ExamFormat          `json:"format" validate:"omitempty,exam_format"`
	AnswerKey AnswerKey           `json:"answer_key"`
	Template  AnswerSheetTemplate `json:"template"`
}
