package service

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"mediaapi/internal/model"
	"mediaapi/internal/storage"
)

// ReconcileOptions controls a catalog/blob store comparison.
type ReconcileOptions struct {
	// Prune deletes orphan blobs. Rows are never modified.
	Prune bool
	// OrphanGrace skips objects younger than this, which may belong to an ingest still in flight.
	OrphanGrace time.Duration
}

// SizeDrift is a row whose blob no longer matches its cataloged size.
type SizeDrift struct {
	Recording model.Recording `json:"recording"`
	LiveSize  int64           `json:"liveSize"`
}

// ReconcileReport lists every inconsistency found.
type ReconcileReport struct {
	MissingBlobs []model.Recording    `json:"missingBlobs"`
	SizeDrift    []SizeDrift          `json:"sizeDrift"`
	OrphanBlobs  []storage.ObjectInfo `json:"orphanBlobs"`
	Pruned       []string             `json:"pruned"`
}

// Clean reports whether catalog and store agree.
func (r *ReconcileReport) Clean() bool {
	return len(r.MissingBlobs) == 0 && len(r.SizeDrift) == 0 && len(r.OrphanBlobs) == 0
}

func (s *recordingService) Reconcile(ctx context.Context, opts ReconcileOptions) (*ReconcileReport, error) {
	ctx, span := tracer.Start(ctx, "RecordingService.Reconcile")
	defer span.End()

	report := &ReconcileReport{
		MissingBlobs: []model.Recording{},
		SizeDrift:    []SizeDrift{},
		OrphanBlobs:  []storage.ObjectInfo{},
		Pruned:       []string{},
	}

	recs, err := s.repo.List(ctx)
	if err != nil {
		failSpan(span, err)
		return nil, fmt.Errorf("list recordings: %w", err)
	}

	known := make(map[string]struct{}, len(recs))
	for _, rec := range recs {
		known[rec.Filepath] = struct{}{}

		info, err := s.store.Stat(ctx, rec.Filepath)
		if err != nil {
			if isMissingBlob(err) {
				s.log(ctx).Error("recording_blob_missing", zap.Int64("id", rec.ID), zap.String("key", rec.Filepath))
				report.MissingBlobs = append(report.MissingBlobs, rec)
				continue
			}
			failSpan(span, err)
			return nil, fmt.Errorf("stat %s: %w", rec.Filepath, err)
		}
		if info.Size != rec.Filesize {
			report.SizeDrift = append(report.SizeDrift, SizeDrift{Recording: rec, LiveSize: info.Size})
		}
	}

	objects, err := s.store.List(ctx)
	if err != nil {
		failSpan(span, err)
		return nil, fmt.Errorf("list blobs: %w", err)
	}

	cutoff := s.now().Add(-opts.OrphanGrace)
	for _, obj := range objects {
		if _, ok := known[obj.Key]; ok {
			continue
		}
		if obj.LastModified.After(cutoff) {
			continue
		}
		report.OrphanBlobs = append(report.OrphanBlobs, obj)
		if !opts.Prune {
			continue
		}
		if err := s.store.Delete(ctx, obj.Key); err != nil {
			s.log(ctx).Warn("orphan_prune_failed", zap.String("key", obj.Key), zap.Error(err))
			continue
		}
		report.Pruned = append(report.Pruned, obj.Key)
	}

	span.SetAttributes(
		attribute.Int("reconcile.missing", len(report.MissingBlobs)),
		attribute.Int("reconcile.drift", len(report.SizeDrift)),
		attribute.Int("reconcile.orphans", len(report.OrphanBlobs)),
		attribute.Int("reconcile.pruned", len(report.Pruned)),
	)
	s.log(ctx).Info("reconcile_finished",
		zap.Int("rows", len(recs)),
		zap.Int("objects", len(objects)),
		zap.Int("missing", len(report.MissingBlobs)),
		zap.Int("drift", len(report.SizeDrift)),
		zap.Int("orphans", len(report.OrphanBlobs)),
		zap.Int("pruned", len(report.Pruned)),
	)
	return report, nil
}
