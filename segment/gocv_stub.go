//go:build !gocv
// +build !gocv

// path: segment/gocv_stub.go
package segment

import (
	"context"
	"errors"
)

// NetSegmenter placeholder for builds without the gocv tag.
type NetSegmenter struct{}

// NewNetSegmenter fails unless the binary was built with -tags gocv.
func NewNetSegmenter(modelPath string) (*NetSegmenter, error) {
	_ = modelPath
	return nil, errors.New("gocv build tag is not enabled")
}

// Loaded always reports false without OpenCV.
func (s *NetSegmenter) Loaded() bool { return false }

// Close is a no-op without OpenCV.
func (s *NetSegmenter) Close() error { return nil }

// Predict returns an error, matching the gocv-tagged signature.
func (s *NetSegmenter) Predict(ctx context.Context, imageData []byte) (*Mask, error) {
	_ = ctx
	_ = imageData
	return nil, errors.New("gocv build tag is not enabled")
}
