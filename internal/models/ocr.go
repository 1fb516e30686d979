package models

import "time"

type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type OcrRegion struct {
	Text        string      `json:"text"`
	Confidence  float64     `json:"confidence" validate:"min=0,max=1"`
	LineNumber  int         `json:"line_number"`
	BoundingBox BoundingBox `json:"bounding_box"`
}

type OcrResult struct {
	Success           bool          `json:"success"`
	RawText           string        `json:"raw_text"`
	Regions           []OcrRegion   `json:"regions" validate:"dive"`
	OverallConfidence float64       `json:"overall_confidence"`
	ProviderUsed      string        `json:"provider_used,omitempty"`
	ProcessingTime    time.Duration `json:"processing_time,omitempty"`
	ErrorMessage      string        `json:"error_message,omitempty"`
}
