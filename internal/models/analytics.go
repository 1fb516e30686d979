package models

import "time"

type ExamAnalytics struct {
	ExamID            string              `json:"exam_id"`
	ExamTitle         string              `json:"exam_title"`
	TotalStudents     int                 `json:"total_students"`
	ClassAverage      float64             `json:"class_average"`
	Median            float64             `json:"median"`
	StandardDeviation float64             `json:"standard_deviation"`
	HighestScore      float64             `json:"highest_score"`
	LowestScore       float64             `json:"lowest_score"`
	PassCount         int                 `json:"pass_count"`
	FailCount         int                 `json:"fail_count"`
	PassRate          float64             `json:"pass_rate"`
	GradeDistribution map[string]int      `json:"grade_distribution"`
	ScoreDistribution []ScoreBucket       `json:"score_distribution"`
	QuestionStats     []QuestionAnalytics `json:"question_stats"`
	StudentStats      []StudentAnalytics  `json:"student_stats"`
	ComputedAt        time.Time           `json:"computed_at"`
}

type ScoreBucket struct {
	RangeStart float64 `json:"range_start"`
	RangeEnd   float64 `json:"range_end"`
	Label      string  `json:"label"`
	Count      int     `json:"count"`
}

type QuestionAnalytics struct {
	QuestionNumber        int            `json:"question_number"`
	CorrectAnswer         string         `json:"correct_answer"`
	TotalAttempts         int            `json:"total_attempts"`
	CorrectCount          int            `json:"correct_count"`
	IncorrectCount        int            `json:"incorrect_count"`
	UnansweredCount       int            `json:"unanswered_count"`
	DifficultyIndex       float64        `json:"difficulty_index"`
	DiscriminationIndex   float64        `json:"discrimination_index"`
	AnswerDistribution    map[string]int `json:"answer_distribution"`
	MostCommonWrongAnswer string         `json:"most_common_wrong_answer,omitempty"`
	FlaggedForReview      bool           `json:"flagged_for_review"`
	FlagReason            string         `json:"flag_reason,omitempty"`
}

type StudentAnalytics struct {
	StudentID   string  `json:"student_id"`
	StudentName string  `json:"student_name"`
	Rank        int     `json:"rank"`
	Percentile  float64 `json:"percentile"`
	ZScore      float64 `json:"z_score"`
	Percentage  float64 `json:"percentage"`
	LetterGrade string  `json:"letter_grade"`
	Passed      bool    `json:"passed"`
	Correct     int     `json:"correct"`
	Incorrect   int     `json:"incorrect"`
	Unanswered  int     `json:"unanswered"`
	RawScore    float64 `json:"raw_score"`
	MaxScore    float64 `json:"max_score"`
}
