package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"mediaapi/internal/config"
)

// Package storage holds the blob store: recording bytes under generated, collision-free keys.
// Blobs are immutable once written; readers always see either the whole blob or nothing.

// KeyPrefix groups every recording object under one directory/prefix.
const KeyPrefix = "recordings/"

var (
	// ErrObjectNotFound is returned when a key has no stored object.
	ErrObjectNotFound = errors.New("object not found")
	// ErrObjectExists is returned by Put instead of overwriting another object.
	ErrObjectExists = errors.New("object already exists")
	// ErrOutOfRange is returned by OpenRange for a range outside the live object.
	ErrOutOfRange = errors.New("range out of bounds")
	// ErrInvalidKey rejects keys that would escape the store root.
	ErrInvalidKey = errors.New("invalid storage key")
)

// PutObjectOptions define optional parameters for uploading objects.
// ContentType and Metadata are optional.
type PutObjectOptions struct {
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo contains basic information about an object in storage.
// Size is always measured by the store, never taken from the caller.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
}

// Storage is the blob store used by the recording service.
// Implementations must be safe for concurrent use.
type Storage interface {
	// Put streams r into a new object under key and reports the number of bytes stored.
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// Stat returns the live size of the object, or ErrObjectNotFound.
	Stat(ctx context.Context, key string) (ObjectInfo, error)
	// OpenRange streams the inclusive byte range [start, end]; end is clamped to the last byte.
	OpenRange(ctx context.Context, key string, start, end int64) (io.ReadCloser, error)
	// Delete removes an object by key. Deleting a missing object is not an error.
	Delete(ctx context.Context, key string) error
	// List returns every recording object currently stored.
	List(ctx context.Context) ([]ObjectInfo, error)
}

// New builds the backend selected by cfg.Driver.
func New(cfg config.StorageConfig, minioCfg config.MinIOConfig) (Storage, error) {
	switch cfg.Driver {
	case "", "local":
		return NewLocal(cfg.Dir)
	case "minio":
		return NewMinIO(minioCfg)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// NewKey generates a unique object key for an upload named originalName.
// The millisecond timestamp keeps keys roughly time ordered; the random UUID
// makes concurrent uploads of the same name within one millisecond distinct.
func NewKey(originalName string, now time.Time) string {
	return KeyPrefix + strconv.FormatInt(now.UnixMilli(), 10) + "-" + uuid.NewString() + safeExt(originalName)
}

// Filename is the base name of key, used as the catalog filename.
func Filename(key string) string {
	return path.Base(key)
}

func safeExt(name string) string {
	ext := strings.ToLower(filepath.Ext(path.Base(filepath.ToSlash(name))))
	if len(ext) < 2 || len(ext) > 10 {
		return ""
	}
	for _, c := range ext[1:] {
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') {
			return ""
		}
	}
	return ext
}

// checkRange validates [start, end] against size and returns the clamped end.
func checkRange(start, end, size int64) (int64, error) {
	if start < 0 || start > end || start >= size {
		return 0, ErrOutOfRange
	}
	if end > size-1 {
		end = size - 1
	}
	return end, nil
}

type sectionReadCloser struct {
	io.Reader
	io.Closer
}
