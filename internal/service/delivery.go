package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"mediaapi/internal/byterange"
	"mediaapi/internal/metrics"
	"mediaapi/internal/model"
	"mediaapi/internal/storage"
)

// Kind is the shape of a delivery response.
type Kind int

const (
	// KindFull sends the whole blob with 200.
	KindFull Kind = iota
	// KindPartial sends [Start, End] with 206.
	KindPartial
	// KindUnsatisfiable sends no body with 416.
	KindUnsatisfiable
)

func (k Kind) String() string {
	switch k {
	case KindPartial:
		return metrics.KindPartial
	case KindUnsatisfiable:
		return metrics.KindUnsatisfiable
	default:
		return metrics.KindFull
	}
}

// Delivery is the decision for one read request. Size is the live blob size at decision
// time, which wins over the cataloged filesize.
type Delivery struct {
	Recording   *model.Recording
	Kind        Kind
	Start       int64
	End         int64
	Size        int64
	ContentType string

	open func(ctx context.Context) (io.ReadCloser, error)
}

// Length is the number of body bytes the response promises.
func (d *Delivery) Length() int64 {
	if d.Kind == KindUnsatisfiable {
		return 0
	}
	return d.End - d.Start + 1
}

// ContentRange is the Content-Range header value, empty for full deliveries.
func (d *Delivery) ContentRange() string {
	switch d.Kind {
	case KindPartial:
		return byterange.Range{Start: d.Start, End: d.End}.ContentRange(d.Size)
	case KindUnsatisfiable:
		return byterange.Unsatisfied(d.Size)
	default:
		return ""
	}
}

// Open streams exactly Length bytes. The caller must Close the reader; a reader closed
// before all bytes were read is reported as an aborted transfer.
func (d *Delivery) Open(ctx context.Context) (io.ReadCloser, error) {
	if d.Kind == KindUnsatisfiable {
		return nil, fmt.Errorf("open unsatisfiable delivery")
	}
	return d.open(ctx)
}

func (s *recordingService) Deliver(ctx context.Context, id int64, rangeHeader string) (*Delivery, error) {
	ctx, span := tracer.Start(ctx, "RecordingService.Deliver")
	defer span.End()
	span.SetAttributes(attribute.Int64("recording.id", id))

	rec, err := s.find(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrRecordingNotFound) {
			failSpan(span, err)
		}
		return nil, err
	}

	info, err := s.store.Stat(ctx, rec.Filepath)
	if err != nil {
		failSpan(span, err)
		if isMissingBlob(err) {
			s.log(ctx).Error("recording_blob_missing",
				zap.Int64("id", rec.ID),
				zap.String("key", rec.Filepath),
				zap.Error(err),
			)
			return nil, fmt.Errorf("%w: %v", ErrBlobNotFound, err)
		}
		return nil, fmt.Errorf("stat blob: %w", err)
	}
	if info.Size != rec.Filesize {
		s.log(ctx).Info("recording_size_drift",
			zap.Int64("id", rec.ID),
			zap.Int64("filesize", rec.Filesize),
			zap.Int64("live_size", info.Size),
		)
	}

	d := &Delivery{
		Recording:   rec,
		Size:        info.Size,
		ContentType: rec.ContentType(),
	}

	r, err := byterange.Parse(rangeHeader, info.Size)
	switch {
	case err == nil:
		d.Kind, d.Start, d.End = KindPartial, r.Start, r.End
	case errors.Is(err, byterange.ErrUnsatisfiable):
		d.Kind = KindUnsatisfiable
	case errors.Is(err, byterange.ErrMalformed) && s.strictRanges:
		d.Kind = KindUnsatisfiable
	default:
		if errors.Is(err, byterange.ErrMalformed) {
			s.log(ctx).Debug("range_ignored", zap.Int64("id", rec.ID), zap.String("range", rangeHeader))
		}
		d.Kind, d.Start, d.End = KindFull, 0, info.Size-1
	}

	d.open = func(ctx context.Context) (io.ReadCloser, error) {
		return s.openBody(ctx, d)
	}

	s.metrics.Delivery(d.Kind.String())
	span.SetAttributes(
		attribute.String("delivery.kind", d.Kind.String()),
		attribute.Int64("delivery.length", d.Length()),
	)
	return d, nil
}

func (s *recordingService) openBody(ctx context.Context, d *Delivery) (io.ReadCloser, error) {
	want := d.Length()
	if want == 0 {
		return &trackedReader{ReadCloser: io.NopCloser(strings.NewReader("")), svc: s, d: d, log: s.log(ctx)}, nil
	}
	rc, err := s.store.OpenRange(ctx, d.Recording.Filepath, d.Start, d.End)
	if err != nil {
		if isMissingBlob(err) {
			s.log(ctx).Error("recording_blob_missing",
				zap.Int64("id", d.Recording.ID),
				zap.String("key", d.Recording.Filepath),
				zap.Error(err),
			)
			return nil, fmt.Errorf("%w: %v", ErrBlobNotFound, err)
		}
		return nil, fmt.Errorf("open blob range: %w", err)
	}
	return &trackedReader{
		ReadCloser: struct {
			io.Reader
			io.Closer
		}{io.LimitReader(rc, want), rc},
		svc: s,
		d:   d,
		log: s.log(ctx),
	}, nil
}

func isMissingBlob(err error) bool {
	return errors.Is(err, storage.ErrObjectNotFound) || errors.Is(err, fs.ErrPermission)
}

// trackedReader counts delivered bytes and reports short transfers on Close.
type trackedReader struct {
	io.ReadCloser
	svc *recordingService
	d   *Delivery
	log *zap.Logger

	n       int64
	readErr error
	once    sync.Once
}

func (t *trackedReader) Read(p []byte) (int, error) {
	n, err := t.ReadCloser.Read(p)
	t.n += int64(n)
	if err != nil && err != io.EOF && t.readErr == nil {
		t.readErr = err
	}
	return n, err
}

func (t *trackedReader) Close() error {
	var err error
	t.once.Do(func() {
		err = t.ReadCloser.Close()
		want := t.d.Length()
		if t.n < want || t.readErr != nil {
			t.svc.metrics.TransferAborted()
			t.svc.metrics.BytesServed(t.n)
			fields := []zap.Field{
				zap.Int64("id", t.d.Recording.ID),
				zap.String("kind", t.d.Kind.String()),
				zap.Int64("expected", want),
				zap.Int64("sent", t.n),
			}
			if t.readErr != nil {
				fields = append(fields, zap.Error(t.readErr))
			}
			t.log.Warn("recording_transfer_aborted", fields...)
			return
		}
		t.svc.metrics.BytesServed(t.n)
	})
	return err
}
