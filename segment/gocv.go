//go:build gocv
// +build gocv

// path: segment/gocv.go
package segment

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"
)

const netInputSide = 256

// NetSegmenter runs the frozen camouflage segmentation network via OpenCV DNN.
// Model load happens once in New; a missing model file is fatal to the caller.
type NetSegmenter struct {
	mu        sync.Mutex
	net       gocv.Net
	loaded    bool
	threshold float32
}

// NewNetSegmenter loads the network from modelPath (ONNX or frozen TF graph).
func NewNetSegmenter(modelPath string) (*NetSegmenter, error) {
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("model file not found: %s", modelPath)
	}

	net := gocv.ReadNet(modelPath, "")
	if net.Empty() {
		return nil, fmt.Errorf("failed to load model from %s", modelPath)
	}

	return &NetSegmenter{net: net, loaded: true, threshold: 0.5}, nil
}

// Loaded reports whether the network is ready for inference.
func (s *NetSegmenter) Loaded() bool { return s.loaded }

// Close releases the network.
func (s *NetSegmenter) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = false
	return s.net.Close()
}

// Predict decodes the image, runs the network at 256x256, thresholds the
// probability map and scales the mask back to the original resolution.
func (s *NetSegmenter) Predict(ctx context.Context, imageData []byte) (*Mask, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !s.loaded {
		return nil, errors.New("model is not loaded")
	}

	img, err := gocv.IMDecode(imageData, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	defer img.Close()
	if img.Empty() {
		return nil, errors.New("empty image")
	}

	origW, origH := img.Cols(), img.Rows()

	blob := gocv.BlobFromImage(img, 1.0/255.0, image.Pt(netInputSide, netInputSide),
		gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	// OpenCV DNN forward passes are not concurrency-safe on one Net.
	s.mu.Lock()
	s.net.SetInput(blob, "")
	prob := s.net.Forward("")
	s.mu.Unlock()
	defer prob.Close()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Single-channel probability map; threshold then resize nearest to the
	// original size so region areas are measured in source pixels.
	flat := prob.Reshape(1, netInputSide)
	defer flat.Close()

	small := gocv.NewMatWithSize(netInputSide, netInputSide, gocv.MatTypeCV8U)
	defer small.Close()
	for y := 0; y < netInputSide; y++ {
		for x := 0; x < netInputSide; x++ {
			if flat.GetFloatAt(y, x) > s.threshold {
				small.SetUCharAt(y, x, 1)
			}
		}
	}

	full := gocv.NewMat()
	defer full.Close()
	gocv.Resize(small, &full, image.Pt(origW, origH), 0, 0, gocv.InterpolationNearestNeighbor)

	mask := NewMask(origW, origH)
	for y := 0; y < origH; y++ {
		for x := 0; x < origW; x++ {
			if full.GetUCharAt(y, x) != 0 {
				mask.Pix[y*origW+x] = 1
			}
		}
	}

	return mask, nil
}
