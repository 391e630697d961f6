package services

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/iota-uz/mishloach/modules/registry/domain/entities/ingestion"
	"github.com/iota-uz/mishloach/modules/registry/domain/entities/outerorder"
	"github.com/iota-uz/mishloach/pkg/composables"
	"github.com/iota-uz/mishloach/pkg/configuration"
	"github.com/iota-uz/mishloach/pkg/eventbus"
	"github.com/iota-uz/mishloach/pkg/sheet"
)

const tracerName = "github.com/iota-uz/mishloach/modules/registry/services"

// ResidentBatchReport is returned to the uploader of a resident sheet.
type ResidentBatchReport struct {
	ReconcileReport
	FileName    string `json:"file_name"`
	HeaderRow   int    `json:"header_row"`
	HeaderFound bool   `json:"header_found"`
}

// OrderBatchReport is returned to the uploader of an order sheet.
type OrderBatchReport struct {
	OrderReport
	BatchID  uuid.UUID `json:"batch_id"`
	FileName string    `json:"file_name"`
}

// IngestionService is the pipeline boundary: it turns an uploaded file into a batch
// report. Pipeline errors come back as errors; row errors live in the report.
type IngestionService struct {
	reconciler *Reconciler
	orders     *OrderIngestor
	opts       configuration.IngestionOptions
	publisher  eventbus.EventBus
	tracer     trace.Tracer
}

func NewIngestionService(
	reconciler *Reconciler,
	orders *OrderIngestor,
	opts configuration.IngestionOptions,
	publisher eventbus.EventBus,
) *IngestionService {
	return &IngestionService{
		reconciler: reconciler,
		orders:     orders,
		opts:       opts,
		publisher:  publisher,
		tracer:     otel.Tracer(tracerName),
	}
}

func (s *IngestionService) readGrid(ctx context.Context, name string, data []byte, encodings []string) (sheet.Grid, error) {
	_, span := s.tracer.Start(ctx, "ingestion.read")
	defer span.End()

	if len(data) == 0 {
		return nil, ErrEmptyUpload
	}
	grid, err := sheet.Read(name, data, encodings)
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrapf(err, "read %s", name)
	}
	span.SetAttributes(attribute.Int("ingestion.grid_rows", len(grid)))
	return grid, nil
}

// IngestResidents reconciles a resident sheet against the person registry.
func (s *IngestionService) IngestResidents(ctx context.Context, name string, data []byte) (*ResidentBatchReport, error) {
	started := time.Now()
	batchID := uuid.New()
	ctx, span := s.tracer.Start(ctx, "ingestion.residents", trace.WithAttributes(
		attribute.String("ingestion.batch_id", batchID.String()),
		attribute.String("ingestion.file", name),
	))
	defer span.End()
	logger := composables.UseLogger(ctx).WithFields(logrus.Fields{"batch_id": batchID, "file": name})
	ctx = composables.WithLogger(ctx, logger)

	report, err := s.ingestResidents(ctx, batchID, name, data)
	recordBatch(ingestion.KindResidents, err, time.Since(started).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.WithError(err).Error("resident upload failed")
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("ingestion.inserted", report.Inserted),
		attribute.Int("ingestion.updated", report.Updated),
		attribute.Int("ingestion.failed", report.Failed),
	)
	logger.WithFields(logrus.Fields{
		"inserted": report.Inserted,
		"updated":  report.Updated,
		"failed":   report.Failed,
	}).Info("resident upload processed")
	s.publish(&ingestion.BatchCompletedEvent{
		BatchID:  batchID,
		Kind:     ingestion.KindResidents,
		FileName: name,
		Inserted: report.Inserted,
		Updated:  report.Updated,
		Failed:   report.Failed,
		Duration: time.Since(started),
	})
	return report, nil
}

func (s *IngestionService) ingestResidents(ctx context.Context, batchID uuid.UUID, name string, data []byte) (*ResidentBatchReport, error) {
	grid, err := s.readGrid(ctx, name, data, s.opts.ResidentEncodings)
	if err != nil {
		return nil, err
	}

	headerIdx, found := sheet.LocateHeader(grid, ResidentHeaderTokens, s.opts.HeaderScanRows)
	if !found {
		composables.UseLogger(ctx).WithError(ErrHeaderNotFound).Warn("treating the first row as header")
	}
	table := sheet.NewTable(grid, headerIdx)

	rctx, span := s.tracer.Start(ctx, "ingestion.reconcile")
	reconciled, err := s.reconciler.Reconcile(rctx, batchID, ExtractRecords(table))
	span.End()
	if err != nil {
		return nil, err
	}
	return &ResidentBatchReport{
		ReconcileReport: *reconciled,
		FileName:        name,
		HeaderRow:       headerIdx,
		HeaderFound:     found,
	}, nil
}

// IngestOrders appends the outer orders of an order sheet. The first row is the header.
func (s *IngestionService) IngestOrders(ctx context.Context, name string, data []byte) (*OrderBatchReport, error) {
	started := time.Now()
	batchID := uuid.New()
	ctx, span := s.tracer.Start(ctx, "ingestion.orders", trace.WithAttributes(
		attribute.String("ingestion.batch_id", batchID.String()),
		attribute.String("ingestion.file", name),
	))
	defer span.End()
	logger := composables.UseLogger(ctx).WithFields(logrus.Fields{"batch_id": batchID, "file": name})
	ctx = composables.WithLogger(ctx, logger)

	report, err := s.ingestOrders(ctx, name, data)
	recordBatch(ingestion.KindOrders, err, time.Since(started).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.WithError(err).Error("order upload failed")
		return nil, err
	}

	logger.WithFields(logrus.Fields{"appended": report.Appended, "skipped": report.Skipped}).Info("order upload processed")
	s.publish(&ingestion.BatchCompletedEvent{
		BatchID:  batchID,
		Kind:     ingestion.KindOrders,
		FileName: name,
		Appended: report.Appended,
		Duration: time.Since(started),
	})
	return &OrderBatchReport{OrderReport: *report, BatchID: batchID, FileName: name}, nil
}

func (s *IngestionService) ingestOrders(ctx context.Context, name string, data []byte) (*OrderReport, error) {
	grid, err := s.readGrid(ctx, name, data, s.opts.OrderEncodings)
	if err != nil {
		return nil, err
	}
	return s.orders.Ingest(ctx, sheet.NewTable(grid, 0), outerorder.OriginUpload)
}

func (s *IngestionService) publish(event *ingestion.BatchCompletedEvent) {
	if s.publisher != nil {
		s.publisher.Publish(event)
	}
}
