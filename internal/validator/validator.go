package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/SAP-F-2025/exam-reader-service/internal/models"
)

// Validator combines struct tag validation with exam business rules
type Validator struct {
	structValidator   *validator.Validate
	businessValidator *BusinessValidator
}

// New creates a new centralized validator instance
func New() *Validator {
	structValidator := validator.New()

	// Register all custom validators once
	registerCustomValidators(structValidator)

	return &Validator{
		structValidator:   structValidator,
		businessValidator: NewBusinessValidator(),
	}
}

// ValidateStruct validates struct tags only
func (v *Validator) ValidateStruct(s any) error {
	return v.structValidator.Struct(s)
}

// ValidateBusiness validates business rules only
func (v *Validator) ValidateBusiness(s any) ValidationErrors {
	return v.businessValidator.Validate(s)
}

// Validate performs complete validation (struct + business rules)
func (v *Validator) Validate(s any) error {
	if err := v.ValidateStruct(s); err != nil {
		return err
	}

	if errs := v.ValidateBusiness(s); len(errs) > 0 {
		return errs
	}

	return nil
}

// Business returns the business validator
func (v *Validator) Business() *BusinessValidator {
	return v.businessValidator
}

// registerCustomValidators registers all custom validation functions
func registerCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("exam_format", validateExamFormat)
	validate.RegisterValidation("question_type", validateQuestionType)
	validate.RegisterValidation("answer_status", validateAnswerStatus)
	validate.RegisterValidation("grade_scale", validateGradeScale)

	// Report json names in error fields
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

func validateExamFormat(fl validator.FieldLevel) bool {
	validFormats := []models.ExamFormat{
		models.FormatBubbleSheet,
		models.FormatGridBased,
		models.FormatWrittenAnswer,
		models.FormatMixed,
	}

	value := fl.Field().String()
	for _, validFormat := range validFormats {
		if string(validFormat) == value {
			return true
		}
	}
	return false
}

func validateQuestionType(fl validator.FieldLevel) bool {
	validTypes := []models.QuestionType{
		models.MultipleChoice,
		models.MultiSelect,
		models.WrittenAnswer,
		models.TrueFalse,
	}

	value := fl.Field().String()
	for _, validType := range validTypes {
		if string(validType) == value {
			return true
		}
	}
	return false
}

func validateAnswerStatus(fl validator.FieldLevel) bool {
	validStatuses := []models.AnswerStatus{
		models.StatusAnswered,
		models.StatusUnanswered,
		models.StatusMultipleMarks,
		models.StatusUnclear,
	}

	value := fl.Field().String()
	for _, validStatus := range validStatuses {
		if string(validStatus) == value {
			return true
		}
	}
	return false
}

func validateGradeScale(fl validator.FieldLevel) bool {
	validScales := []models.LetterGradeScale{
		models.ScaleStandard,
		models.ScalePlusMinus,
		models.ScalePassFail,
	}

	value := fl.Field().String()
	for _, validScale := range validScales {
		if string(validScale) == value {
			return true
		}
	}
	return false
}
