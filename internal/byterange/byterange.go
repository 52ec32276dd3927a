// Package byterange parses single-range HTTP Range headers against a resource size.
package byterange

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const unitPrefix = "bytes="

var (
	// ErrNoRange means the request carried no Range header.
	ErrNoRange = errors.New("no range requested")
	// ErrMalformed covers headers that are not a single "bytes=start-[end]" range.
	ErrMalformed = errors.New("malformed range")
	// ErrUnsatisfiable means the range does not overlap the resource.
	ErrUnsatisfiable = errors.New("range not satisfiable")
)

// Range is an inclusive [Start, End] byte interval.
type Range struct {
	Start int64
	End   int64
}

// Length is the number of bytes covered by r.
func (r Range) Length() int64 {
	return r.End - r.Start + 1
}

// ContentRange formats the Content-Range value for a 206 response.
func (r Range) ContentRange(size int64) string {
	return fmt.Sprintf("bytes %d-%d/%d", r.Start, r.End, size)
}

// Unsatisfied formats the Content-Range value for a 416 response.
func Unsatisfied(size int64) string {
	return fmt.Sprintf("bytes */%d", size)
}

// Parse resolves header against a resource of size bytes.
//
// Only "bytes=start-end" and "bytes=start-" are accepted. A missing end and an
// end past the last byte both resolve to size-1. Suffix ranges ("bytes=-N"),
// multiple ranges and other units are reported as ErrMalformed so callers can
// choose their own fallback.
func Parse(header string, size int64) (Range, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return Range{}, ErrNoRange
	}
	if len(header) < len(unitPrefix) || !strings.EqualFold(header[:len(unitPrefix)], unitPrefix) {
		return Range{}, ErrMalformed
	}
	set := strings.TrimSpace(header[len(unitPrefix):])
	if strings.Contains(set, ",") {
		return Range{}, ErrMalformed
	}
	startStr, endStr, ok := strings.Cut(set, "-")
	if !ok {
		return Range{}, ErrMalformed
	}

	start, ok := parseOffset(strings.TrimSpace(startStr))
	if !ok {
		return Range{}, ErrMalformed
	}
	end := size - 1
	if endStr = strings.TrimSpace(endStr); endStr != "" {
		if end, ok = parseOffset(endStr); !ok {
			return Range{}, ErrMalformed
		}
	}

	if end > size-1 {
		end = size - 1
	}
	if start >= size || start > end {
		return Range{}, ErrUnsatisfiable
	}
	return Range{Start: start, End: end}, nil
}

// parseOffset accepts only plain decimal digits; signs and spaces are rejected.
func parseOffset(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
