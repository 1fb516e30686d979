package reports

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"sort"
	"time"

	"github.com/SAP-F-2025/exam-reader-service/internal/models"
)

type HTMLGenerator struct {
	tmpl *template.Template
}

func NewHTMLGenerator() *HTMLGenerator {
	return &HTMLGenerator{tmpl: htmlReportTemplate}
}

func (g *HTMLGenerator) Format() string      { return "html" }
func (g *HTMLGenerator) ContentType() string { return "text/html; charset=utf-8" }
func (g *HTMLGenerator) Extension() string   { return ".html" }

type htmlView struct {
	Title       string
	GeneratedAt time.Time
	Analytics   models.ExamAnalytics
	Buckets     []htmlBucket
	Grades      []htmlGrade
	Students    []models.GradingResult
}

type htmlBucket struct {
	Label string
	Count int
	Width int
}

type htmlGrade struct {
	Grade string
	Count int
}

func (g *HTMLGenerator) Generate(ctx context.Context, data ReportData) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a := data.Analytics
	view := htmlView{
		Title:       data.Title,
		GeneratedAt: data.GeneratedAt.UTC(),
		Analytics:   a,
		Students:    rankResults(data.Results),
	}

	maxCount := 0
	for _, b := range a.ScoreDistribution {
		maxCount = max(maxCount, b.Count)
	}
	for _, b := range a.ScoreDistribution {
		width := 0
		if maxCount > 0 {
			width = b.Count * 100 / maxCount
		}
		view.Buckets = append(view.Buckets, htmlBucket{Label: b.Label, Count: b.Count, Width: width})
	}

	for grade, count := range a.GradeDistribution {
		view.Grades = append(view.Grades, htmlGrade{Grade: grade, Count: count})
	}
	sort.Slice(view.Grades, func(i, j int) bool { return view.Grades[i].Grade < view.Grades[j].Grade })

	var buf bytes.Buffer
	if err := g.tmpl.Execute(&buf, view); err != nil {
		return nil, fmt.Errorf("failed to render html report: %w", err)
	}
	return buf.Bytes(), nil
}

var htmlReportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"inc":   func(i int) int { return i + 1 },
	"fixed": func(places int, v float64) string { return fmt.Sprintf("%.*f", places, v) },
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; margin: 2rem; color: #222; }
table { border-collapse: collapse; margin-bottom: 1.5rem; }
th, td { border: 1px solid #ccc; padding: 0.3rem 0.6rem; text-align: left; }
.stats-grid { display: flex; flex-wrap: wrap; gap: 1rem; }
.stat { border: 1px solid #ddd; padding: 0.6rem 1rem; }
.stat-value { display: block; font-size: 1.4rem; font-weight: bold; }
.bar-row { display: flex; align-items: center; gap: 0.5rem; }
.bar-label { width: 5rem; }
.bar { background: #4a7bd0; height: 1rem; }
tr.fail td.status-fail { color: #b00020; }
tr.pass td.status-pass { color: #1b7f3b; }
tr.flagged { background: #fff4d6; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<p class="meta">Generated: {{.GeneratedAt.Format "2006-01-02 15:04:05"}} UTC</p>

<section class="summary">
<h2>Class Summary</h2>
<div class="stats-grid">
{{with .Analytics}}<div class="stat"><span class="stat-value">{{.TotalStudents}}</span><span class="stat-label">Students</span></div>
<div class="stat"><span class="stat-value">{{fixed 1 .ClassAverage}}%</span><span class="stat-label">Class Average</span></div>
<div class="stat"><span class="stat-value">{{fixed 1 .Median}}%</span><span class="stat-label">Median</span></div>
<div class="stat"><span class="stat-value">{{fixed 1 .StandardDeviation}}</span><span class="stat-label">Std Deviation</span></div>
<div class="stat"><span class="stat-value">{{fixed 1 .HighestScore}}%</span><span class="stat-label">Highest Score</span></div>
<div class="stat"><span class="stat-value">{{fixed 1 .LowestScore}}%</span><span class="stat-label">Lowest Score</span></div>
<div class="stat"><span class="stat-value">{{fixed 1 .PassRate}}%</span><span class="stat-label">Pass Rate</span></div>
<div class="stat"><span class="stat-value">{{.PassCount}} / {{.FailCount}}</span><span class="stat-label">Pass / Fail</span></div>{{end}}
</div>
</section>

<section class="distribution">
<h2>Score Distribution</h2>
<div class="chart">
{{range .Buckets}}<div class="bar-row">
  <span class="bar-label">{{.Label}}</span>
  <div class="bar" style="width: {{.Width}}%"></div>
  <span class="bar-value">{{.Count}}</span>
</div>
{{end}}</div>
</section>

<section class="grades">
<h2>Grade Distribution</h2>
<table>
<tr><th>Grade</th><th>Count</th></tr>
{{range .Grades}}<tr><td>{{.Grade}}</td><td>{{.Count}}</td></tr>
{{end}}</table>
</section>

<section class="students">
<h2>Student Results</h2>
<table class="results-table">
<tr><th>Rank</th><th>Student ID</th><th>Name</th><th>Correct</th><th>Wrong</th><th>Blank</th><th>Score</th><th>%</th><th>Grade</th><th>Status</th></tr>
{{range $i, $r := .Students}}<tr class="{{if $r.Passed}}pass{{else}}fail{{end}}">
  <td>{{inc $i}}</td>
  <td>{{$r.StudentID}}</td>
  <td>{{$r.StudentName}}</td>
  <td>{{$r.Correct}}</td>
  <td>{{$r.Incorrect}}</td>
  <td>{{$r.Unanswered}}</td>
  <td>{{fixed 1 $r.RawScore}}</td>
  <td>{{fixed 1 $r.Percentage}}</td>
  <td><strong>{{$r.LetterGrade}}</strong></td>
  {{if $r.Passed}}<td class="status-pass">Pass</td>{{else}}<td class="status-fail">Fail</td>{{end}}
</tr>
{{end}}</table>
</section>

<section class="questions">
<h2>Question Analysis</h2>
<table class="question-table">
<tr><th>Q#</th><th>Answer</th><th>Correct</th><th>Difficulty</th><th>Discrimination</th><th>Common Wrong</th><th>Flag</th></tr>
{{range .Analytics.QuestionStats}}<tr{{if .FlaggedForReview}} class="flagged"{{end}}>
  <td>{{.QuestionNumber}}</td>
  <td>{{.CorrectAnswer}}</td>
  <td>{{.CorrectCount}}/{{.TotalAttempts}}</td>
  <td>{{fixed 2 .DifficultyIndex}}</td>
  <td>{{fixed 2 .DiscriminationIndex}}</td>
  <td>{{.MostCommonWrongAnswer}}</td>
  <td>{{if .FlaggedForReview}}{{.FlagReason}}{{else}}-{{end}}</td>
</tr>
{{end}}</table>
</section>
</body>
</html>
`))
