package qrcode

import (
	"context"
	"fmt"

	qr "github.com/skip2/go-qrcode"
)

// LocalRenderer encodes payloads in-process. It has no external
// dependencies and normally sits first in the chain.
type LocalRenderer struct {
	level qr.RecoveryLevel
}

func NewLocalRenderer() *LocalRenderer {
	return &LocalRenderer{level: qr.Medium}
}

func (r *LocalRenderer) Name() string {
	return "local"
}

func (r *LocalRenderer) Render(_ context.Context, payload string, size int) ([]byte, error) {
	png, err := qr.Encode(payload, r.level, size)
	if err != nil {
		return nil, fmt.Errorf("encode qr image: %w", err)
	}
	return png, nil
}
