package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"mediaapi/internal/logger"
	"mediaapi/internal/metrics"
	"mediaapi/internal/model"
	"mediaapi/internal/repository"
	"mediaapi/internal/storage"
)

var (
	// ErrRecordingNotFound means no catalog row exists for the id.
	ErrRecordingNotFound = errors.New("recording not found")
	// ErrBlobNotFound means the row exists but its blob is missing or unreadable.
	ErrBlobNotFound = errors.New("recording blob not found")
	// ErrStorageWriteFailed wraps any blob store failure during ingest.
	ErrStorageWriteFailed = errors.New("storage write failed")
	ErrReaderNil          = errors.New("reader is nil")
)

var tracer = otel.Tracer("mediaapi/service")

// RecordingService defines the use cases for media recordings.
type RecordingService interface {
	// Ingest stores the content as a new blob and then catalogs it with the number of bytes
	// actually written. No row is created when the blob write fails.
	Ingest(ctx context.Context, r io.Reader, originalName, contentType string) (*model.Recording, error)

	// List returns every recording, newest first. An empty catalog yields an empty slice.
	List(ctx context.Context) ([]model.Recording, error)

	// Deliver resolves id and decides how to answer rangeHeader against the live blob size.
	Deliver(ctx context.Context, id int64, rangeHeader string) (*Delivery, error)

	// Delete removes the catalog row, then the blob.
	Delete(ctx context.Context, id int64) error

	// Reconcile compares the catalog with the blob store.
	Reconcile(ctx context.Context, opts ReconcileOptions) (*ReconcileReport, error)
}

type recordingService struct {
	store        storage.Storage
	repo         repository.RecordingRepository
	logger       *zap.Logger
	metrics      *metrics.Metrics
	strictRanges bool
	now          func() time.Time
}

// Option configures a RecordingService.
type Option func(*recordingService)

func WithLogger(l *zap.Logger) Option {
	return func(s *recordingService) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *recordingService) { s.metrics = m }
}

// WithStrictRanges answers malformed Range headers with 416 instead of the full content.
func WithStrictRanges(strict bool) Option {
	return func(s *recordingService) { s.strictRanges = strict }
}

// WithClock overrides time.Now for key generation and orphan ageing.
func WithClock(now func() time.Time) Option {
	return func(s *recordingService) {
		if now != nil {
			s.now = now
		}
	}
}

func (s *recordingService) log(ctx context.Context) *zap.Logger {
	return logger.For(ctx, s.logger)
}

// NewRecordingService constructs a new RecordingService.
func NewRecordingService(store storage.Storage, repo repository.RecordingRepository, opts ...Option) RecordingService {
	s := &recordingService{
		store:  store,
		repo:   repo,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *recordingService) Ingest(ctx context.Context, r io.Reader, originalName, contentType string) (*model.Recording, error) {
	if r == nil {
		return nil, ErrReaderNil
	}
	ctx, span := tracer.Start(ctx, "RecordingService.Ingest")
	defer span.End()

	key := storage.NewKey(originalName, s.now())
	span.SetAttributes(attribute.String("recording.key", key))

	info, err := s.store.Put(ctx, key, r, storage.PutObjectOptions{
		ContentType: contentType,
		Metadata: map[string]string{
			"original-filename": originalName,
		},
	})
	if err != nil {
		s.metrics.Ingest("storage_error")
		failSpan(span, err)
		s.log(ctx).Error("ingest_storage_failed", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrStorageWriteFailed, err)
	}

	rec := &model.Recording{
		Filename: storage.Filename(key),
		Filepath: key,
		Filesize: info.Size,
	}
	if contentType != "" {
		ct := contentType
		rec.Mimetype = &ct
	}

	stored, err := s.repo.Create(ctx, rec)
	if err != nil {
		s.metrics.Ingest("catalog_error")
		failSpan(span, err)
		// The blob is already durable. Remove it on a context that outlives a cancelled request;
		// if that fails too the orphan is left for reconcile.
		if delErr := s.store.Delete(context.WithoutCancel(ctx), key); delErr != nil {
			s.log(ctx).Warn("ingest_orphan_blob",
				zap.String("key", key),
				zap.Int64("size", info.Size),
				zap.NamedError("catalog_error", err),
				zap.NamedError("delete_error", delErr),
			)
		}
		return nil, fmt.Errorf("catalog create: %w", err)
	}

	s.metrics.Ingest("ok")
	span.SetAttributes(attribute.Int64("recording.id", stored.ID), attribute.Int64("recording.size", stored.Filesize))
	s.log(ctx).Info("recording_ingested",
		zap.Int64("id", stored.ID),
		zap.String("key", key),
		zap.Int64("size", stored.Filesize),
	)
	return stored, nil
}

func (s *recordingService) List(ctx context.Context) ([]model.Recording, error) {
	recs, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if recs == nil {
		recs = []model.Recording{}
	}
	return recs, nil
}

func (s *recordingService) Delete(ctx context.Context, id int64) error {
	rec, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrRecordingNotFound
		}
		return err
	}
	if err := s.store.Delete(ctx, rec.Filepath); err != nil {
		s.log(ctx).Warn("delete_orphan_blob", zap.Int64("id", id), zap.String("key", rec.Filepath), zap.Error(err))
		return fmt.Errorf("delete blob: %w", err)
	}
	s.log(ctx).Info("recording_deleted", zap.Int64("id", id), zap.String("key", rec.Filepath))
	return nil
}

func (s *recordingService) find(ctx context.Context, id int64) (*model.Recording, error) {
	rec, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordingNotFound
		}
		return nil, err
	}
	return rec, nil
}

func failSpan(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
