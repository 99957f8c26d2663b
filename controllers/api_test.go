// path: controllers/api_test.go
package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"mirqab/config"
	"mirqab/controllers"
	"mirqab/imaging"
	"mirqab/llm"
	"mirqab/logging"
	"mirqab/models"
	"mirqab/pipeline"
	"mirqab/rag"
	"mirqab/routes"
	"mirqab/segment"
	"mirqab/storage"
	"mirqab/store"
)

type stubSegmenter struct{ mask *segment.Mask }

func (s *stubSegmenter) Predict(_ context.Context, _ []byte) (*segment.Mask, error) {
	return s.mask, nil
}
func (s *stubSegmenter) Loaded() bool { return true }

type testEnv struct {
	app     *fiber.App
	reports *store.MemoryStore
	cfg     *config.Config
	seg     *stubSegmenter
}

func newTestEnv(t *testing.T, llmClient *llm.Client) *testEnv {
	t.Helper()

	cfg := &config.Config{
		Port:          "8000",
		DeviceID:      "SERVER",
		InferTimeout:  2 * time.Second,
		MinRegionPx:   100,
		IngestAPIKey:  "secret-key",
		RAGMaxReports: 100,
	}

	log := logging.New("test")
	reports := store.NewMemoryStore()
	images, err := storage.NewLocalStore(t.TempDir(), "http://localhost:8000")
	require.NoError(t, err)

	mask := segment.NewMask(200, 150)
	for y := 20; y < 50; y++ {
		for x := 20; x < 50; x++ {
			mask.Set(x, y, 1)
		}
	}
	seg := &stubSegmenter{mask: mask}

	if llmClient == nil {
		llmClient = llm.NewClient("", "", time.Second, log)
	}

	pipe := pipeline.New(seg, llmClient, reports, images, nil, nil, log, cfg.InferTimeout, cfg.MinRegionPx)
	assist := rag.New(reports, llmClient, cfg.RAGMaxReports, nil, log)

	app := fiber.New()
	h := controllers.New(cfg, pipe, reports, images, assist, llmClient, seg, nil, log)
	routes.Register(app, h, nil)

	return &testEnv{app: app, reports: reports, cfg: cfg, seg: seg}
}

func testJPEG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 200, 150))
	for y := 0; y < 150; y++ {
		for x := 0; x < 200; x++ {
			img.Set(x, y, color.RGBA{R: 80, G: 120, B: 80, A: 255})
		}
	}
	data, err := imaging.EncodeJPEG(img)
	require.NoError(t, err)
	return data
}

func multipartImage(t *testing.T, fields map[string]string, imageData []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if imageData != nil {
		fw, err := w.CreateFormFile("file", "frame.jpg")
		require.NoError(t, err)
		_, err = fw.Write(imageData)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, out), string(raw))
}

func TestAnalyzeMediaEndToEnd(t *testing.T) {
	env := newTestEnv(t, nil)

	body, ct := multipartImage(t,
		map[string]string{"location": `{"latitude": 8.48, "longitude": -13.23}`, "device_id": "Pi-001"},
		testJPEG(t))
	req := httptest.NewRequest(http.MethodPost, "/api/analyze_media", body)
	req.Header.Set("Content-Type", ct)

	resp, err := env.app.Test(req, 10000)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out models.AnalyzeResponse
	decodeBody(t, resp, &out)
	require.True(t, out.OK)
	require.True(t, out.Detection)
	require.Equal(t, 1, out.SoldierCount)
	require.NotNil(t, out.Report)
	// no LLM key in tests, so the analysis is marked degraded
	require.True(t, out.Report.AnalysisDegraded)
	require.Contains(t, out.OverlayImage, "data:image/jpeg;base64,")

	// report shows up in the filtered listing
	req = httptest.NewRequest(http.MethodGet, "/api/detection-reports?time_range=24h&device_id=Pi-001", nil)
	resp, err = env.app.Test(req, 5000)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list models.ReportListResponse
	decodeBody(t, resp, &list)
	require.True(t, list.OK)
	require.Equal(t, 1, list.Total)
	require.Equal(t, out.Report.ReportID, list.Detections[0].ReportID)
	require.Equal(t, "24h", list.TimeRange)
}

func TestAnalyzeMediaNoDetection(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seg.mask = segment.NewMask(200, 150) // nothing marked

	body, ct := multipartImage(t, nil, testJPEG(t))
	req := httptest.NewRequest(http.MethodPost, "/api/analyze_media", body)
	req.Header.Set("Content-Type", ct)

	resp, err := env.app.Test(req, 10000)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out models.AnalyzeResponse
	decodeBody(t, resp, &out)
	require.False(t, out.OK)
	require.False(t, out.Detection)
	require.Nil(t, out.Report)

	// nothing persisted for a clean frame
	list, err := env.reports.List(context.Background(), store.Filter{})
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestAnalyzeMediaMissingFile(t *testing.T) {
	env := newTestEnv(t, nil)

	body, ct := multipartImage(t, map[string]string{"note": "no file"}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/analyze_media", body)
	req.Header.Set("Content-Type", ct)

	resp, err := env.app.Test(req, 5000)
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAnalyzeMediaBadLocation(t *testing.T) {
	env := newTestEnv(t, nil)

	body, ct := multipartImage(t, map[string]string{"location": `{"latitude": 999}`}, testJPEG(t))
	req := httptest.NewRequest(http.MethodPost, "/api/analyze_media", body)
	req.Header.Set("Content-Type", ct)

	resp, err := env.app.Test(req, 5000)
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTestSegmentationEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)

	body, ct := multipartImage(t, nil, testJPEG(t))
	req := httptest.NewRequest(http.MethodPost, "/api/test_segmentation", body)
	req.Header.Set("Content-Type", ct)

	resp, err := env.app.Test(req, 10000)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		OK           bool             `json:"success"`
		SoldierCount int              `json:"soldier_count"`
		Regions      []segment.Region `json:"regions"`
		OverlayImage string           `json:"overlay_image"`
	}
	decodeBody(t, resp, &out)
	require.True(t, out.OK)
	require.Equal(t, 1, out.SoldierCount)
	require.Len(t, out.Regions, 1)
	require.Contains(t, out.OverlayImage, "data:image/jpeg;base64,")

	// the debug endpoint must not create reports
	list, err := env.reports.List(context.Background(), store.Filter{})
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestStatusUpdateFlow(t *testing.T) {
	env := newTestEnv(t, nil)

	r := &models.Report{
		ReportID:     "MIR-20260829-AAAAAA",
		Timestamp:    time.Now().UTC(),
		SoldierCount: 2,
		Status:       models.StatusNew,
		Assignee:     models.DefaultAssignee,
	}
	require.NoError(t, env.reports.Save(context.Background(), r))

	// fetch by id
	req := httptest.NewRequest(http.MethodGet, "/api/detection-reports/MIR-20260829-AAAAAA", nil)
	resp, err := env.app.Test(req, 5000)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// move to In Progress with an assignee
	payload := `{"status": "In Progress", "assignee": "analyst-3"}`
	req = httptest.NewRequest(http.MethodPatch, "/api/detection-reports/MIR-20260829-AAAAAA/status", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err = env.app.Test(req, 5000)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		OK     bool          `json:"success"`
		Report models.Report `json:"report"`
	}
	decodeBody(t, resp, &out)
	require.True(t, out.OK)
	require.Equal(t, models.StatusInProgress, out.Report.Status)
	require.Equal(t, "analyst-3", out.Report.Assignee)

	// invalid status label rejected
	req = httptest.NewRequest(http.MethodPatch, "/api/detection-reports/MIR-20260829-AAAAAA/status", strings.NewReader(`{"status": "Done"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err = env.app.Test(req, 5000)
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// unknown report 404
	req = httptest.NewRequest(http.MethodPatch, "/api/detection-reports/MIR-00000000-000000/status", strings.NewReader(`{"status": "New"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err = env.app.Test(req, 5000)
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestIngestEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)

	body := `{"api_key": "secret-key", "device_id": "Pi-003", "object_count": 3, "summary": "Three figures on the ridge"}`
	req := httptest.NewRequest(http.MethodPost, "/api/report_detection", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := env.app.Test(req, 5000)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out models.IngestResponse
	decodeBody(t, resp, &out)
	require.True(t, out.OK)
	require.NotEmpty(t, out.ReportID)

	got, err := env.reports.Get(context.Background(), out.ReportID)
	require.NoError(t, err)
	require.Equal(t, "Pi-003", got.SourceDeviceID)
	require.Equal(t, models.SeverityHigh, got.Severity)
}

func TestIngestRejectsBadKey(t *testing.T) {
	env := newTestEnv(t, nil)

	body := `{"api_key": "wrong", "device_id": "Pi-003", "object_count": 1}`
	req := httptest.NewRequest(http.MethodPost, "/api/report_detection", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := env.app.Test(req, 5000)
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestIngestValidation(t *testing.T) {
	env := newTestEnv(t, nil)

	// missing device_id
	body := `{"api_key": "secret-key", "object_count": 1}`
	req := httptest.NewRequest(http.MethodPost, "/api/report_detection", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := env.app.Test(req, 5000)
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDetectionStats(t *testing.T) {
	env := newTestEnv(t, nil)
	now := time.Now().UTC()

	for i, soldiers := range []int{1, 2, 4} {
		require.NoError(t, env.reports.Save(context.Background(), &models.Report{
			ReportID:     models.NewReportID(now),
			Timestamp:    now.Add(-time.Duration(i) * time.Hour),
			SoldierCount: soldiers,
			Status:       models.StatusNew,
		}))
	}

	req := httptest.NewRequest(http.MethodGet, "/api/detection-stats", nil)
	resp, err := env.app.Test(req, 5000)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out models.StatsResponse
	decodeBody(t, resp, &out)
	require.True(t, out.OK)
	require.Equal(t, 3, out.Stats.TotalDetections)
	require.Equal(t, 7, out.Stats.TotalSoldiers)
	require.Equal(t, 1, out.Stats.CriticalAlerts)
	require.Equal(t, 3, out.Stats.AlertsByStatus.New)
}

func TestMoraqibUnavailableWithoutKey(t *testing.T) {
	env := newTestEnv(t, nil)

	form := "query=how+many+detections+today"
	req := httptest.NewRequest(http.MethodPost, "/api/moraqib_query", strings.NewReader(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := env.app.Test(req, 5000)
	require.NoError(t, err)
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestMoraqibAnswersWithConfiguredLLM(t *testing.T) {
	gemini := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates": [{"content": {"parts": [{"text": "One detection: MIR-20260829-AAAAAA."}]}}]}`))
	}))
	defer gemini.Close()

	client := llm.NewClient("test-key", "gemini-2.5-flash", 5*time.Second, logging.New("test"))
	client.SetEndpoint(gemini.URL)
	env := newTestEnv(t, client)

	require.NoError(t, env.reports.Save(context.Background(), &models.Report{
		ReportID:     "MIR-20260829-AAAAAA",
		Timestamp:    time.Now().UTC().Add(-time.Hour),
		SoldierCount: 1,
		Environment:  "woodland",
		Status:       models.StatusNew,
	}))

	form := "query=show+me+all+reports"
	req := httptest.NewRequest(http.MethodPost, "/api/moraqib_query", strings.NewReader(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := env.app.Test(req, 10000)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out models.QueryResponse
	decodeBody(t, resp, &out)
	require.True(t, out.OK)
	require.Equal(t, 1, out.ReportsCount)
	require.Equal(t, []string{"MIR-20260829-AAAAAA"}, out.ReportsUsed)
	require.Contains(t, out.Answer, "MIR-20260829-AAAAAA")
}

func TestMoraqibNoDataSerializesEmptyCitations(t *testing.T) {
	gemini := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("empty candidate set must not reach the model")
	}))
	defer gemini.Close()

	client := llm.NewClient("test-key", "gemini-2.5-flash", 5*time.Second, logging.New("test"))
	client.SetEndpoint(gemini.URL)
	env := newTestEnv(t, client)

	form := "query=detections+in+the+last+hour"
	req := httptest.NewRequest(http.MethodPost, "/api/moraqib_query", strings.NewReader(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := env.app.Test(req, 5000)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(raw), `"reports_used":[]`)

	var out models.QueryResponse
	require.NoError(t, json.Unmarshal(raw, &out))
	require.True(t, out.OK)
	require.Zero(t, out.ReportsCount)
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp, err := env.app.Test(req, 5000)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out models.HealthResponse
	decodeBody(t, resp, &out)
	require.Equal(t, "ok", out.Status)
	require.True(t, out.ModelLoaded)
	require.False(t, out.LLMAvailable)
	require.Equal(t, "memory", out.Database)
	require.Equal(t, "local", out.Storage)
}

func TestListReportsUnknownTimeRangeMeansAll(t *testing.T) {
	env := newTestEnv(t, nil)
	now := time.Now().UTC()

	require.NoError(t, env.reports.Save(context.Background(), &models.Report{
		ReportID: "MIR-RECENT", Timestamp: now.Add(-time.Hour), Status: models.StatusNew,
	}))
	require.NoError(t, env.reports.Save(context.Background(), &models.Report{
		ReportID: "MIR-ANCIENT", Timestamp: now.AddDate(0, -6, 0), Status: models.StatusNew,
	}))

	for _, tr := range []string{"all", "2w", ""} {
		req := httptest.NewRequest(http.MethodGet, "/api/detection-reports?time_range="+tr, nil)
		resp, err := env.app.Test(req, 5000)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var list models.ReportListResponse
		decodeBody(t, resp, &list)
		require.Equal(t, 2, list.Total, "time_range=%q must not filter", tr)
	}

	// stats follows the same convention
	req := httptest.NewRequest(http.MethodGet, "/api/detection-stats?time_range=all", nil)
	resp, err := env.app.Test(req, 5000)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stats models.StatsResponse
	decodeBody(t, resp, &stats)
	require.Equal(t, 2, stats.Stats.TotalDetections)
}
