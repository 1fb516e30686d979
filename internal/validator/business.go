package validator

import (
	"fmt"
	"strings"

	"github.com/SAP-F-2025/exam-reader-service/internal/models"
)

// BusinessValidator checks cross-field rules that struct tags cannot express
type BusinessValidator struct{}

func NewBusinessValidator() *BusinessValidator {
	return &BusinessValidator{}
}

// Validate dispatches on the exam types it knows; anything else passes
func (b *BusinessValidator) Validate(s any) ValidationErrors {
	switch v := s.(type) {
	case models.AnswerKey:
		return b.ValidateAnswerKey(v)
	case *models.AnswerKey:
		return b.ValidateAnswerKey(*v)
	case models.AnswerSheetTemplate:
		return b.ValidateTemplate(v)
	case *models.AnswerSheetTemplate:
		return b.ValidateTemplate(*v)
	case models.ExamDefinition:
		return b.ValidateExam(v)
	case *models.ExamDefinition:
		return b.ValidateExam(*v)
	}
	return nil
}

// ValidateAnswerKey requires unique question numbers and keyed answers drawn from each question's options
func (b *BusinessValidator) ValidateAnswerKey(key models.AnswerKey) ValidationErrors {
	var errs ValidationErrors
	seen := make(map[int]bool, len(key.Questions))

	for i, q := range key.Questions {
		field := fmt.Sprintf("questions[%d]", i)
		if seen[q.Number] {
			errs = append(errs, *NewValidationErrorWithRule(field+".number",
				fmt.Sprintf("question %d appears more than once", q.Number), "unique_question_number", q.Number))
		}
		seen[q.Number] = true

		switch q.EffectiveType() {
		case models.MultipleChoice, models.MultiSelect:
			allowed := make(map[string]bool, len(q.AllowedOptions()))
			for _, opt := range q.AllowedOptions() {
				allowed[strings.ToUpper(opt)] = true
			}
			for _, token := range strings.Split(q.CorrectAnswer, ",") {
				token = strings.ToUpper(strings.TrimSpace(token))
				if token != "" && !allowed[token] {
					errs = append(errs, *NewValidationErrorWithRule(field+".correct_answer",
						fmt.Sprintf("answer %q is not one of %s", token, strings.Join(q.AllowedOptions(), ",")),
						"answer_option", q.CorrectAnswer))
				}
			}
		}
	}
	return errs
}

// ValidateTemplate requires distinct answer options and a layout that fits the question count
func (b *BusinessValidator) ValidateTemplate(t models.AnswerSheetTemplate) ValidationErrors {
	var errs ValidationErrors

	seen := make(map[string]bool, len(t.AnswerOptions))
	for i, opt := range t.AnswerOptions {
		label := strings.ToUpper(strings.TrimSpace(opt))
		if label == "" {
			errs = append(errs, *NewValidationErrorWithRule(fmt.Sprintf("answer_options[%d]", i), "is required", "required", opt))
			continue
		}
		if seen[label] {
			errs = append(errs, *NewValidationErrorWithRule(fmt.Sprintf("answer_options[%d]", i),
				fmt.Sprintf("option %q is repeated", label), "unique_option", opt))
		}
		seen[label] = true
	}

	if t.Columns > 0 && t.QuestionsPerColumn > 0 && t.Columns*t.QuestionsPerColumn < t.TotalQuestions {
		errs = append(errs, *NewValidationErrorWithRule("questions_per_column",
			fmt.Sprintf("%d columns of %d cannot hold %d questions", t.Columns, t.QuestionsPerColumn, t.TotalQuestions),
			"layout", t.QuestionsPerColumn))
	}
	return errs
}

// ValidateExam runs the key and template checks and requires every keyed question to exist on the sheet
func (b *BusinessValidator) ValidateExam(exam models.ExamDefinition) ValidationErrors {
	errs := b.ValidateAnswerKey(exam.AnswerKey)
	errs = append(errs, b.ValidateTemplate(exam.Template)...)

	if exam.Template.TotalQuestions > 0 {
		for i, q := range exam.AnswerKey.Questions {
			if q.Number > exam.Template.TotalQuestions {
				errs = append(errs, *NewValidationErrorWithRule(fmt.Sprintf("answer_key.questions[%d].number", i),
					fmt.Sprintf("question %d is beyond the template's %d questions", q.Number, exam.Template.TotalQuestions),
					"max", q.Number))
			}
		}
	}
	return errs
}
