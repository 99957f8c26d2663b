// path: controllers/images.go
package controllers

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"mirqab/imaging"
)

var imageFetchClient = &http.Client{Timeout: 10 * time.Second}

// HandleFetchImageBase64 resolves a stored image URL to an inline data
// URI so the dashboard can render snapshots without a second origin.
// Served images are cached; the same few recent reports get re-rendered
// constantly.
// GET /api/fetch-image-base64?url=...
func (h *Handlers) HandleFetchImageBase64(c *fiber.Ctx) error {
	rawURL := strings.TrimSpace(c.Query("url"))
	if rawURL == "" {
		return badReq(c, "missing url")
	}

	if !parseBool(c.Query("refresh")) {
		if cached, ok := h.imgCache.Get(rawURL); ok {
			return c.JSON(fiber.Map{"success": true, "image": cached})
		}
	}

	data, err := h.loadImage(rawURL)
	if err != nil {
		h.log.WithError(err).WithField("url", rawURL).Warn("image fetch failed")
		return notFound(c, "image not available")
	}

	dataURI := imaging.ToDataURI(data, "image/jpeg")
	h.imgCache.Add(rawURL, dataURI)
	return c.JSON(fiber.Map{"success": true, "image": dataURI})
}

func (h *Handlers) loadImage(rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("bad url: %w", err)
	}

	if path, ok := h.images.LocalPath(u.Path); ok {
		return os.ReadFile(path)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	resp, err := imageFetchClient.Get(rawURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("remote returned %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxUploadBytes))
}
