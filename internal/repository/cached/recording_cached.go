package cached

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"go.uber.org/zap"

	"mediaapi/internal/cache"
	"mediaapi/internal/model"
	"mediaapi/internal/repository"
)

// recordingCached puts a read-through cache in front of FindByID.
// Rows are immutable once created, so only Delete has to invalidate.
// Cache failures are logged and fall back to the wrapped repository.
type recordingCached struct {
	next   repository.RecordingRepository
	cache  cache.Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewRecordingCached wraps next with c.
func NewRecordingCached(next repository.RecordingRepository, c cache.Cache, ttl time.Duration, logger *zap.Logger) repository.RecordingRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &recordingCached{next: next, cache: c, ttl: ttl, logger: logger}
}

func cacheKey(id int64) string {
	return "recording:" + strconv.FormatInt(id, 10)
}

func (r *recordingCached) Create(ctx context.Context, rec *model.Recording) (*model.Recording, error) {
	return r.next.Create(ctx, rec)
}

func (r *recordingCached) FindByID(ctx context.Context, id int64) (*model.Recording, error) {
	key := cacheKey(id)
	if b, err := r.cache.Get(ctx, key); err == nil {
		var rec model.Recording
		if err := json.Unmarshal(b, &rec); err == nil {
			return &rec, nil
		}
		r.logger.Warn("cache_decode_failed", zap.String("key", key))
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		r.logger.Warn("cache_get_failed", zap.String("key", key), zap.Error(err))
	}

	rec, err := r.next.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(rec); err == nil {
		if err := r.cache.Set(ctx, key, b, r.ttl); err != nil {
			r.logger.Warn("cache_set_failed", zap.String("key", key), zap.Error(err))
		}
	}
	return rec, nil
}

func (r *recordingCached) List(ctx context.Context) ([]model.Recording, error) {
	return r.next.List(ctx)
}

func (r *recordingCached) Delete(ctx context.Context, id int64) error {
	err := r.next.Delete(ctx, id)
	if cerr := r.cache.Del(ctx, cacheKey(id)); cerr != nil {
		r.logger.Warn("cache_del_failed", zap.Int64("id", id), zap.Error(cerr))
	}
	return err
}
