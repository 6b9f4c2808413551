package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
)

// CountingWriter passes writes to W and counts the bytes written.
type CountingWriter struct {
	W     io.Writer
	Count int64
}

func (cw *CountingWriter) Write(p []byte) (int, error) {
	n, err := cw.W.Write(p)
	cw.Count += int64(n)
	return n, err
}

// LimitedBuffer is an in-memory buffer that rejects writes past its limit
// with a KindValidation error. Zero or negative limits are unbounded.
type LimitedBuffer struct {
	buf   bytes.Buffer
	limit int64
}

func NewLimitedBuffer(limit int64) *LimitedBuffer {
	return &LimitedBuffer{limit: limit}
}

func (b *LimitedBuffer) Write(p []byte) (int, error) {
	if b.limit > 0 && int64(b.buf.Len()+len(p)) > b.limit {
		return 0, NewError(KindValidation, fmt.Sprintf("max bytes (%d) exceeded", b.limit), nil)
	}
	return b.buf.Write(p)
}

func (b *LimitedBuffer) Bytes() []byte {
	return b.buf.Bytes()
}

func (b *LimitedBuffer) Len() int {
	return b.buf.Len()
}

// eachEntry drains entries, calling fn for each one. Iterator errors are
// returned unchanged.
func eachEntry(ctx context.Context, entries EntryIterator, fn func(Entry) error) (int64, error) {
	var count int64
	for {
		if err := ctx.Err(); err != nil {
			return count, err
		}
		entry, err := entries.Next(ctx)
		if err != nil {
			if err == io.EOF {
				return count, nil
			}
			return count, err
		}
		if err := fn(entry); err != nil {
			return count, err
		}
		count++
	}
}
