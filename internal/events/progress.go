package events

import (
	"context"
	"log/slog"

	"github.com/SAP-F-2025/exam-reader-service/internal/batch"
	"github.com/SAP-F-2025/exam-reader-service/internal/models"
)

var _ batch.ProgressObserver = (*ProgressPublisher)(nil)

// ProgressPublisher forwards batch progress snapshots as batch.progress events.
// Publish failures are logged and swallowed so they never affect the batch.
type ProgressPublisher struct {
	publisher EventPublisher
	runID     string
	logger    *slog.Logger
	next      batch.ProgressObserver
}

// NewProgressPublisher wraps next, which may be nil, and notifies it after publishing
func NewProgressPublisher(publisher EventPublisher, runID string, logger *slog.Logger, next batch.ProgressObserver) *ProgressPublisher {
	return &ProgressPublisher{
		publisher: publisher,
		runID:     runID,
		logger:    logger,
		next:      next,
	}
}

func (p *ProgressPublisher) OnProgress(ctx context.Context, progress models.BatchProgress) {
	if err := p.publisher.Publish(ctx, NewBatchProgressEvent(p.runID, progress)); err != nil {
		p.logger.Warn("Failed to publish batch progress",
			"run_id", p.runID,
			"processed", progress.ProcessedStudents,
			"error", err)
	}
	if p.next != nil {
		p.next.OnProgress(ctx, progress)
	}
}
