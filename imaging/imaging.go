// path: imaging/imaging.go
package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"strings"

	"mirqab/segment"
)

const (
	MinSide = 100
	MaxSide = 4096

	jpegQuality = 85
)

var ErrBadImage = errors.New("image is not decodable")

// Decode parses JPEG/PNG/GIF bytes and enforces the size constraints.
func Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, ErrBadImage
	}
	b := img.Bounds()
	if b.Dx() < MinSide || b.Dy() < MinSide {
		return nil, fmt.Errorf("image too small: %dx%d (min side %d)", b.Dx(), b.Dy(), MinSide)
	}
	if b.Dx() > MaxSide || b.Dy() > MaxSide {
		return nil, fmt.Errorf("image too large: %dx%d (max side %d)", b.Dx(), b.Dy(), MaxSide)
	}
	return img, nil
}

// EncodeJPEG renders img as JPEG bytes.
func EncodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ToDataURI wraps raw image bytes in a data: URI.
func ToDataURI(data []byte, contentType string) string {
	if contentType == "" {
		contentType = "image/jpeg"
	}
	return fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(data))
}

// FromDataURI strips an optional data: prefix and decodes the base64 payload.
func FromDataURI(s string) ([]byte, error) {
	if idx := strings.Index(s, ","); idx >= 0 && strings.HasPrefix(s, "data:") {
		s = s[idx+1:]
	}
	return base64.StdEncoding.DecodeString(strings.TrimSpace(s))
}

// Overlay blends red (alpha 0.5) over the pixels the mask marks as soldier.
// A nil or mismatched mask returns the original image untouched.
func Overlay(img image.Image, mask *segment.Mask, alpha float64) image.Image {
	b := img.Bounds()
	if mask == nil || mask.W != b.Dx() || mask.H != b.Dy() {
		return img
	}
	if alpha <= 0 || alpha > 1 {
		alpha = 0.5
	}

	out := image.NewRGBA(b)
	draw.Draw(out, b, img, b.Min, draw.Src)

	for y := 0; y < mask.H; y++ {
		for x := 0; x < mask.W; x++ {
			if mask.Pix[y*mask.W+x] == 0 {
				continue
			}
			i := out.PixOffset(b.Min.X+x, b.Min.Y+y)
			// blend toward pure red
			out.Pix[i] = blend(out.Pix[i], 255, alpha)
			out.Pix[i+1] = blend(out.Pix[i+1], 0, alpha)
			out.Pix[i+2] = blend(out.Pix[i+2], 0, alpha)
		}
	}
	return out
}

func blend(orig, target uint8, alpha float64) uint8 {
	return uint8(float64(orig)*(1-alpha) + float64(target)*alpha)
}
