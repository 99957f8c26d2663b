// path: llm/client.go
package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"mirqab/models"
)

const defaultEndpoint = "https://generativelanguage.googleapis.com/v1beta/models"

// ErrNotConfigured is returned when no API key is present; callers degrade
// instead of failing the whole submission.
var ErrNotConfigured = errors.New("gemini api key is not configured")

// Client talks to the Gemini generateContent REST API.
type Client struct {
	apiKey   string
	model    string
	endpoint string
	http     *http.Client
	log      *logrus.Entry
}

// NewClient builds a Gemini client. The timeout bounds each request; one
// retry with a short backoff covers transient transport failures.
func NewClient(apiKey, model string, timeout time.Duration, log *logrus.Entry) *Client {
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &Client{
		apiKey:   apiKey,
		model:    model,
		endpoint: defaultEndpoint,
		http:     &http.Client{Timeout: timeout},
		log:      log,
	}
}

// SetEndpoint overrides the API base URL (tests point it at a local server).
func (c *Client) SetEndpoint(url string) { c.endpoint = url }

// Available reports whether an API key is configured.
func (c *Client) Available() bool { return c.apiKey != "" }

// CheckConnection probes the model metadata endpoint for the health check.
func (c *Client) CheckConnection(ctx context.Context) bool {
	if !c.Available() {
		return false
	}
	url := fmt.Sprintf("%s/%s?key=%s", c.endpoint, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// AnalyzeImage sends JPEG bytes with the analyst prompt and parses the
// structured analysis out of the reply.
func (c *Client) AnalyzeImage(ctx context.Context, jpegData []byte) (*models.Analysis, error) {
	if !c.Available() {
		return nil, ErrNotConfigured
	}

	req := genRequest{
		Contents: []genContent{{
			Parts: []genPart{
				{Text: analysisPrompt},
				{InlineData: &inlineData{
					MimeType: "image/jpeg",
					Data:     base64.StdEncoding.EncodeToString(jpegData),
				}},
			},
		}},
		GenerationConfig: genConfig{Temperature: 0.3, MaxOutputTokens: 2048},
	}

	text, err := c.generate(ctx, req)
	if err != nil {
		return nil, err
	}
	return ParseAnalysis(text)
}

// Generate runs a plain text prompt (the Moraqib assistant path).
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if !c.Available() {
		return "", ErrNotConfigured
	}

	req := genRequest{
		Contents: []genContent{{Parts: []genPart{{Text: prompt}}}},
		GenerationConfig: genConfig{
			Temperature:     0.2,
			MaxOutputTokens: 1024,
			TopP:            0.95,
			TopK:            40,
		},
	}
	return c.generate(ctx, req)
}

func (c *Client) generate(ctx context.Context, payload genRequest) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/%s:generateContent?key=%s", c.endpoint, c.model, c.apiKey)

	text, err := c.post(ctx, url, body)
	if err == nil {
		return text, nil
	}
	if ctx.Err() != nil {
		return "", err
	}

	// one retry for transient failures
	c.log.WithError(err).Warn("gemini request failed, retrying once")
	select {
	case <-time.After(500 * time.Millisecond):
	case <-ctx.Done():
		return "", ctx.Err()
	}
	return c.post(ctx, url, body)
}

func (c *Client) post(ctx context.Context, url string, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini api status %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}

	var out genResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode gemini response: %w", err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("gemini response has no candidates")
	}
	return out.Candidates[0].Content.Parts[0].Text, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// --- wire types ---

type genRequest struct {
	Contents         []genContent `json:"contents"`
	GenerationConfig genConfig    `json:"generationConfig"`
}

type genContent struct {
	Parts []genPart `json:"parts"`
}

type genPart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type genConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
	TopP            float64 `json:"topP,omitempty"`
	TopK            int     `json:"topK,omitempty"`
}

type genResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}
