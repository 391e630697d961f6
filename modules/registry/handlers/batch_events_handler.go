package handlers

import (
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/mishloach/modules/registry/domain/entities/ingestion"
	"github.com/iota-uz/mishloach/pkg/application"
)

// BatchEventsHandler writes one summary line per finished upload.
type BatchEventsHandler struct {
	logger logrus.FieldLogger
}

func NewBatchEventsHandler(logger logrus.FieldLogger) *BatchEventsHandler {
	return &BatchEventsHandler{logger: logger}
}

func RegisterBatchEventHandlers(app application.Application) {
	handler := NewBatchEventsHandler(app.Logger().WithField("component", "ingestion"))
	app.EventPublisher().Subscribe(handler.OnBatchCompleted)
}

func (h *BatchEventsHandler) OnBatchCompleted(event *ingestion.BatchCompletedEvent) {
	fields := logrus.Fields{
		"batch_id":    event.BatchID,
		"kind":        event.Kind,
		"file":        event.FileName,
		"duration_ms": event.Duration.Milliseconds(),
	}
	switch event.Kind {
	case ingestion.KindOrders:
		fields["appended"] = event.Appended
	default:
		fields["inserted"] = event.Inserted
		fields["updated"] = event.Updated
		fields["failed"] = event.Failed
	}
	entry := h.logger.WithFields(fields)
	if event.Failed > 0 {
		entry.Warn("batch completed with failed rows")
		return
	}
	entry.Info("batch completed")
}
