package byterange

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		size    int64
		want    Range
		wantErr error
	}{
		{name: "empty header", header: "", size: 10, wantErr: ErrNoRange},
		{name: "whitespace header", header: "   ", size: 10, wantErr: ErrNoRange},
		{name: "closed range", header: "bytes=2-5", size: 10, want: Range{Start: 2, End: 5}},
		{name: "single byte", header: "bytes=0-0", size: 10, want: Range{Start: 0, End: 0}},
		{name: "last byte", header: "bytes=9-9", size: 10, want: Range{Start: 9, End: 9}},
		{name: "open ended", header: "bytes=4-", size: 10, want: Range{Start: 4, End: 9}},
		{name: "end clamped", header: "bytes=0-999999", size: 100, want: Range{Start: 0, End: 99}},
		{name: "case insensitive unit", header: "Bytes=1-2", size: 10, want: Range{Start: 1, End: 2}},
		{name: "inner whitespace", header: "bytes= 1 - 3 ", size: 10, want: Range{Start: 1, End: 3}},
		{name: "start at size", header: "bytes=10-", size: 10, wantErr: ErrUnsatisfiable},
		{name: "start past size", header: "bytes=50-60", size: 10, wantErr: ErrUnsatisfiable},
		{name: "start after end", header: "bytes=5-2", size: 10, wantErr: ErrUnsatisfiable},
		{name: "empty resource", header: "bytes=0-", size: 0, wantErr: ErrUnsatisfiable},
		{name: "suffix range", header: "bytes=-5", size: 10, wantErr: ErrMalformed},
		{name: "missing dash", header: "bytes=5", size: 10, wantErr: ErrMalformed},
		{name: "non numeric start", header: "bytes=a-5", size: 10, wantErr: ErrMalformed},
		{name: "non numeric end", header: "bytes=1-b", size: 10, wantErr: ErrMalformed},
		{name: "signed start", header: "bytes=+1-5", size: 10, wantErr: ErrMalformed},
		{name: "multiple ranges", header: "bytes=0-1,4-5", size: 10, wantErr: ErrMalformed},
		{name: "other unit", header: "items=0-5", size: 10, wantErr: ErrMalformed},
		{name: "unit only", header: "bytes", size: 10, wantErr: ErrMalformed},
		{name: "overflow", header: "bytes=99999999999999999999-", size: 10, wantErr: ErrMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.header, tt.size)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRange_Headers(t *testing.T) {
	r := Range{Start: 2, End: 5}
	assert.Equal(t, int64(4), r.Length())
	assert.Equal(t, "bytes 2-5/10", r.ContentRange(10))
	assert.Equal(t, "bytes */100", Unsatisfied(100))
}

func TestParse_SatisfiableRangesStayInBounds(t *testing.T) {
	const size = 37
	for start := int64(0); start < size; start++ {
		for end := start; end < size+5; end++ {
			r, err := Parse("bytes="+strconv.FormatInt(start, 10)+"-"+strconv.FormatInt(end, 10), size)
			if !assert.NoError(t, err) {
				return
			}
			assert.Equal(t, start, r.Start)
			assert.LessOrEqual(t, r.End, int64(size-1))
			assert.Equal(t, min(end, size-1)-start+1, r.Length())
		}
	}
}
