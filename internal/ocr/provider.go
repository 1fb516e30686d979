// Package ocr turns scanned answer sheet images into OcrResult values.
package ocr

import (
	"context"
	"errors"

	"github.com/SAP-F-2025/exam-reader-service/internal/models"
)

var ErrProviderUnavailable = errors.New("ocr provider unavailable")

type Provider interface {
	Name() string
	IsAvailable() bool
	Process(ctx context.Context, image []byte) (*models.OcrResult, error)
}
