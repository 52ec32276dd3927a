package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocal(t *testing.T) (*localStorage, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := NewLocal(dir)
	require.NoError(t, err)
	return s.(*localStorage), dir
}

func TestLocalStorage_PutAndStat(t *testing.T) {
	s, dir := newTestLocal(t)
	ctx := context.Background()

	info, err := s.Put(ctx, "recordings/a.webm", strings.NewReader("abcdefghij"), PutObjectOptions{ContentType: "video/webm"})
	require.NoError(t, err)
	assert.Equal(t, "recordings/a.webm", info.Key)
	assert.Equal(t, int64(10), info.Size)
	assert.Equal(t, "video/webm", info.ContentType)

	b, err := os.ReadFile(filepath.Join(dir, "recordings", "a.webm"))
	require.NoError(t, err)
	assert.Equal(t, "abcdefghij", string(b))

	st, err := s.Stat(ctx, "recordings/a.webm")
	require.NoError(t, err)
	assert.Equal(t, int64(10), st.Size)

	tmpEntries, err := os.ReadDir(filepath.Join(dir, tmpDirName))
	require.NoError(t, err)
	assert.Empty(t, tmpEntries, "temp upload file should be cleaned up")
}

func TestLocalStorage_PutRefusesOverwrite(t *testing.T) {
	s, _ := newTestLocal(t)
	ctx := context.Background()

	_, err := s.Put(ctx, "recordings/same.webm", strings.NewReader("first"), PutObjectOptions{})
	require.NoError(t, err)

	_, err = s.Put(ctx, "recordings/same.webm", strings.NewReader("second"), PutObjectOptions{})
	assert.ErrorIs(t, err, ErrObjectExists)

	rc, err := s.OpenRange(ctx, "recordings/same.webm", 0, 100)
	require.NoError(t, err)
	defer rc.Close()
	b, _ := io.ReadAll(rc)
	assert.Equal(t, "first", string(b))
}

func TestLocalStorage_PutCancelled(t *testing.T) {
	s, dir := newTestLocal(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Put(ctx, "recordings/c.webm", strings.NewReader("data"), PutObjectOptions{})
	assert.ErrorIs(t, err, context.Canceled)

	_, err = os.Stat(filepath.Join(dir, "recordings", "c.webm"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLocalStorage_InvalidKey(t *testing.T) {
	s, _ := newTestLocal(t)
	ctx := context.Background()

	for _, key := range []string{"", "../escape", "/abs/path", ".tmp/upload-1"} {
		_, err := s.Put(ctx, key, strings.NewReader("x"), PutObjectOptions{})
		assert.ErrorIs(t, err, ErrInvalidKey, key)
	}
}

func TestLocalStorage_StatMissing(t *testing.T) {
	s, _ := newTestLocal(t)

	_, err := s.Stat(context.Background(), "recordings/missing.webm")
	assert.ErrorIs(t, err, ErrObjectNotFound)

	_, err = s.OpenRange(context.Background(), "recordings/missing.webm", 0, 1)
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestLocalStorage_OpenRange(t *testing.T) {
	s, _ := newTestLocal(t)
	ctx := context.Background()
	_, err := s.Put(ctx, "recordings/r.webm", strings.NewReader("abcdefghij"), PutObjectOptions{})
	require.NoError(t, err)

	tests := []struct {
		name       string
		start, end int64
		want       string
		wantErr    error
	}{
		{name: "middle", start: 2, end: 5, want: "cdef"},
		{name: "whole", start: 0, end: 9, want: "abcdefghij"},
		{name: "end clamped", start: 7, end: 1000, want: "hij"},
		{name: "single byte", start: 9, end: 9, want: "j"},
		{name: "start at size", start: 10, end: 12, wantErr: ErrOutOfRange},
		{name: "start after end", start: 5, end: 4, wantErr: ErrOutOfRange},
		{name: "negative start", start: -1, end: 4, wantErr: ErrOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc, err := s.OpenRange(ctx, "recordings/r.webm", tt.start, tt.end)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, rc)
				return
			}
			require.NoError(t, err)
			defer rc.Close()
			b, err := io.ReadAll(rc)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(b))
		})
	}
}

func TestLocalStorage_DeleteAndList(t *testing.T) {
	s, _ := newTestLocal(t)
	ctx := context.Background()

	objs, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, objs)

	_, err = s.Put(ctx, "recordings/one.webm", strings.NewReader("1"), PutObjectOptions{})
	require.NoError(t, err)
	_, err = s.Put(ctx, "recordings/two.webm", strings.NewReader("22"), PutObjectOptions{})
	require.NoError(t, err)

	objs, err = s.List(ctx)
	require.NoError(t, err)
	keys := map[string]int64{}
	for _, o := range objs {
		keys[o.Key] = o.Size
	}
	assert.Equal(t, map[string]int64{"recordings/one.webm": 1, "recordings/two.webm": 2}, keys)

	require.NoError(t, s.Delete(ctx, "recordings/one.webm"))
	require.NoError(t, s.Delete(ctx, "recordings/one.webm"), "deleting twice is not an error")

	_, err = s.Stat(ctx, "recordings/one.webm")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestLocalStorage_ConcurrentPutsSameName(t *testing.T) {
	s, _ := newTestLocal(t)
	ctx := context.Background()
	now := time.Now()

	const n = 32
	keys := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := NewKey("clip.webm", now)
			body := strings.Repeat("x", i+1)
			info, err := s.Put(ctx, key, strings.NewReader(body), PutObjectOptions{})
			assert.NoError(t, err)
			assert.Equal(t, int64(i+1), info.Size)
			keys[i] = key
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	for i, k := range keys {
		assert.False(t, seen[k], "duplicate key %s", k)
		seen[k] = true
		st, err := s.Stat(ctx, k)
		require.NoError(t, err)
		assert.Equal(t, int64(i+1), st.Size)
	}
}
