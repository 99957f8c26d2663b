// path: main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"mirqab/config"
	"mirqab/controllers"
	"mirqab/database"
	"mirqab/events"
	"mirqab/llm"
	"mirqab/logging"
	"mirqab/metrics"
	"mirqab/pipeline"
	"mirqab/rag"
	"mirqab/routes"
	"mirqab/segment"
	"mirqab/storage"
	"mirqab/store"
)

func main() {
	log := logging.New("mirqab")

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("config load failed")
	}

	met := metrics.New("api")

	// Segmentation model. A load failure is fatal: the service must not
	// take traffic it cannot analyze. ALLOW_MISSING_MODEL=true overrides
	// for dev boxes and non-gocv builds, serving the read side only.
	var seg segment.Segmenter
	if s, err := segment.NewNetSegmenter(cfg.ModelPath); err != nil {
		if !cfg.AllowMissingModel {
			log.WithError(err).Fatal("segmentation model load failed")
		}
		log.WithError(err).Warn("segmentation model unavailable; uploads will be rejected")
	} else {
		seg = s
	}

	// Report store: MongoDB, with an in-memory fallback so a dev box
	// without Mongo still comes up.
	var reports store.ReportStore
	if err := database.Connect(context.Background()); err != nil {
		log.WithError(err).Warn("mongo unavailable; using in-memory report store")
		reports = store.NewMemoryStore()
	} else {
		reports = store.NewMongoStore(database.DB())
		defer database.Disconnect(context.Background())
	}

	// Image storage backend.
	var images storage.ImageStore
	var localDir string
	switch cfg.StorageBackend {
	case "ftp":
		f := storage.NewFTPStore(cfg.FTPHost, cfg.FTPPort, cfg.FTPUser, cfg.FTPPassword, cfg.FTPBaseURL)
		defer f.Close()
		images = f
	default:
		l, err := storage.NewLocalStore(cfg.StorageDir, cfg.PublicBaseURL)
		if err != nil {
			log.WithError(err).Fatal("local image storage init failed")
		}
		localDir = l.Dir()
		images = l
	}

	pub, err := events.Connect(cfg.NATSURL, log)
	if err != nil {
		log.WithError(err).Warn("nats unavailable; report events disabled")
	} else if pub != nil {
		defer pub.Close()
	}

	var llmClient *llm.Client
	if cfg.LLMConfigured() {
		llmClient = llm.NewClient(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.LLMTimeout, log)
	} else {
		log.Warn("GEMINI_API_KEY not set; captions degrade and moraqib is disabled")
		llmClient = llm.NewClient("", cfg.GeminiModel, cfg.LLMTimeout, log)
	}

	pipe := pipeline.New(seg, llmClient, reports, images, pub, met, log,
		cfg.InferTimeout, cfg.MinRegionPx)
	assist := rag.New(reports, llmClient, cfg.RAGMaxReports, met, log)

	app := fiber.New(fiber.Config{
		BodyLimit:    25 << 20,
		ErrorHandler: apiErrorHandler,
	})
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{TimeFormat: "15:04:05"}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:3001, http://localhost:5173",
		AllowMethods:     "GET,POST,PATCH,OPTIONS",
		AllowHeaders:     "*",
		AllowCredentials: false,
		MaxAge:           int((12 * time.Hour).Seconds()),
	}))

	if localDir != "" {
		app.Static("/storage", localDir)
	}

	h := controllers.New(cfg, pipe, reports, images, assist, llmClient, seg, met, log)
	routes.Register(app, h, met)

	go func() {
		log.WithField("port", cfg.Port).Info("api listening")
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.WithError(err).Fatal("server stopped")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.WithError(err).Warn("shutdown did not finish cleanly")
	}
}

func apiErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if fe, ok := err.(*fiber.Error); ok {
		code = fe.Code
	}
	return c.Status(code).JSON(fiber.Map{"success": false, "error": err.Error()})
}
