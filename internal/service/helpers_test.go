package service

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"mediaapi/internal/metrics"
	"mediaapi/internal/model"
)

// memRepo is an in-memory catalog with a sequence-like id counter.
type memRepo struct {
	mu   sync.Mutex
	seq  int64
	rows map[int64]model.Recording
}

func newMemRepo() *memRepo {
	return &memRepo{rows: make(map[int64]model.Recording)}
}

func (r *memRepo) Create(_ context.Context, rec *model.Recording) (*model.Recording, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.Filepath == rec.Filepath {
			return nil, sql.ErrTxDone
		}
	}
	r.seq++
	out := *rec
	out.ID = r.seq
	out.CreatedAt = time.Now()
	r.rows[out.ID] = out
	return &out, nil
}

func (r *memRepo) FindByID(_ context.Context, id int64) (*model.Recording, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &row, nil
}

func (r *memRepo) List(_ context.Context) ([]model.Recording, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Recording, 0, len(r.rows))
	for _, row := range r.rows {
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *memRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return sql.ErrNoRows
	}
	delete(r.rows, id)
	return nil
}

func newTestMetrics(t *testing.T) (*metrics.Metrics, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	require.NoError(t, err)
	return m, reg
}

// metricValue returns the counter value of name whose labels include all of want.
func metricValue(t *testing.T, reg *prometheus.Registry, name string, want map[string]string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
	nextMetric:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if v, ok := want[lp.GetName()]; ok && v != lp.GetValue() {
					continue nextMetric
				}
			}
			return m.GetCounter().GetValue()
		}
	}
	return 0
}
