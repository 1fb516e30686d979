package reports

import (
	"context"
	"encoding/csv"
	"fmt"
	"strings"
)

// utf8BOM prefixes every CSV report
const utf8BOM = "\ufeff"

type CSVGenerator struct{}

func NewCSVGenerator() *CSVGenerator {
	return &CSVGenerator{}
}

func (g *CSVGenerator) Format() string      { return "csv" }
func (g *CSVGenerator) ContentType() string { return "text/csv; charset=utf-8" }
func (g *CSVGenerator) Extension() string   { return ".csv" }

func (g *CSVGenerator) Generate(ctx context.Context, data ReportData) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf strings.Builder
	buf.WriteString(utf8BOM)
	writer := csv.NewWriter(&buf)

	if err := writer.Write(resultHeaders(data.AnswerKey.TotalQuestions())); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, row := range resultRows(data) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return []byte(buf.String()), nil
}
