// path: controllers/helpers.go
package controllers

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"

	"mirqab/config"
	"mirqab/llm"
	"mirqab/metrics"
	"mirqab/pipeline"
	"mirqab/rag"
	"mirqab/segment"
	"mirqab/storage"
	"mirqab/store"
)

// Handlers carries the service dependencies so each endpoint stays a
// plain method instead of reaching for globals.
type Handlers struct {
	cfg      *config.Config
	pipe     *pipeline.Pipeline
	reports  store.ReportStore
	images   storage.ImageStore
	assist   *rag.Moraqib
	llm      *llm.Client
	seg      segment.Segmenter
	validate *validator.Validate
	imgCache *lru.Cache[string, string]
	met      *metrics.Metrics
	log      *logrus.Entry
}

func New(cfg *config.Config, pipe *pipeline.Pipeline, reports store.ReportStore,
	images storage.ImageStore, assist *rag.Moraqib, llmClient *llm.Client,
	seg segment.Segmenter, met *metrics.Metrics, log *logrus.Entry) *Handlers {

	// 256 data-URI entries is a few hundred MB worst case; plenty for
	// a dashboard that re-renders the same recent snapshots.
	cache, _ := lru.New[string, string](256)

	return &Handlers{
		cfg:      cfg,
		pipe:     pipe,
		reports:  reports,
		images:   images,
		assist:   assist,
		llm:      llmClient,
		seg:      seg,
		validate: validator.New(),
		imgCache: cache,
		met:      met,
		log:      log,
	}
}

type ErrorResp struct {
	OK    bool   `json:"success"`
	Error string `json:"error"`
}

func badReq(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResp{OK: false, Error: msg})
}

func notFound(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusNotFound).JSON(ErrorResp{OK: false, Error: msg})
}

func serverErr(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResp{OK: false, Error: err.Error()})
}

// parseBool understands common truthy strings.
func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}
