// path: segment/segment.go
package segment

import "context"

// Mask is a row-major binary segmentation mask at original image resolution.
// Pix[y*W+x] is 1 where the model marked a camouflaged soldier pixel.
type Mask struct {
	W   int
	H   int
	Pix []uint8
}

// NewMask returns an all-zero mask of the given size.
func NewMask(w, h int) *Mask {
	return &Mask{W: w, H: h, Pix: make([]uint8, w*h)}
}

// At returns the mask value at (x, y); out-of-range is 0.
func (m *Mask) At(x, y int) uint8 {
	if x < 0 || y < 0 || x >= m.W || y >= m.H {
		return 0
	}
	return m.Pix[y*m.W+x]
}

// Set marks (x, y) with v; out-of-range is ignored.
func (m *Mask) Set(x, y int, v uint8) {
	if x < 0 || y < 0 || x >= m.W || y >= m.H {
		return
	}
	m.Pix[y*m.W+x] = v
}

// Any reports whether the mask has at least one set pixel.
func (m *Mask) Any() bool {
	for _, p := range m.Pix {
		if p != 0 {
			return true
		}
	}
	return false
}

// Region is one connected soldier-shaped blob extracted from a mask.
type Region struct {
	X         int     `json:"x"`
	Y         int     `json:"y"`
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	Area      int     `json:"area"`
	CentroidX float64 `json:"centroid_x"`
	CentroidY float64 `json:"centroid_y"`
}

// Confidence approximates detection confidence from blob area, matching the
// capture devices' heuristic: 0.7 base, +area/10000, capped at 0.95.
func (r Region) Confidence() float64 {
	c := 0.7 + float64(r.Area)/10000
	if c > 0.95 {
		c = 0.95
	}
	return c
}

// Segmenter produces a binary soldier mask for an encoded image.
type Segmenter interface {
	// Predict runs inference on JPEG/PNG bytes and returns the mask at the
	// image's original resolution.
	Predict(ctx context.Context, imageData []byte) (*Mask, error)

	// Loaded reports whether the model file was loaded successfully.
	Loaded() bool
}
