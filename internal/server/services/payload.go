package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"

	"github.com/violetear/api/internal/common"
)

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

// ReadPayload buffers r completely but never holds more than limit+1 bytes.
// A body over limit yields common.ErrorPayloadTooLarge; a cancelled ctx
// (client gone, upload timeout) yields the context error.
func ReadPayload(ctx context.Context, r io.Reader, limit int64) ([]byte, error) {
	var buf bytes.Buffer
	capped := limit
	if capped < math.MaxInt64 {
		capped++
	}
	n, err := buf.ReadFrom(io.LimitReader(ctxReader{ctx: ctx, r: r}, capped))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("read payload: %w", err)
	}
	if n > limit {
		return nil, common.ErrorPayloadTooLarge
	}
	if n == 0 {
		return []byte{}, nil
	}
	return buf.Bytes(), nil
}
