// path: config/config.go
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is built once in main and handed to every adapter constructor.
// Nothing outside this package reads the environment.
type Config struct {
	Port     string
	DeviceID string

	// Segmentation
	ModelPath    string
	InferTimeout time.Duration
	MinRegionPx  int

	// AllowMissingModel lets a dev box (or a binary built without the gocv
	// tag) boot with the read-only API; production keeps the default and a
	// model load failure kills the process.
	AllowMissingModel bool

	// Gemini
	GeminiAPIKey string
	GeminiModel  string
	LLMTimeout   time.Duration

	// Ingest
	IngestAPIKey string

	// Mongo (resolved in database package; kept here for health reporting)
	MongoURI string
	MongoDB  string

	// Image storage
	StorageBackend string // local | ftp
	StorageDir     string
	PublicBaseURL  string
	FTPHost        string
	FTPPort        string
	FTPUser        string
	FTPPassword    string
	FTPBaseURL     string

	// RAG
	RAGMaxReports int

	// Events
	NATSURL string
}

// Load reads .env (if present) and the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:     getenv("PORT", "8000"),
		DeviceID: getenv("DEVICE_ID", "Web-Upload"),

		ModelPath:    getenv("MODEL_PATH", "models/camouflage_segnet.onnx"),
		InferTimeout: getdur("INFER_TIMEOUT", 45*time.Second),
		MinRegionPx:  getint("MIN_REGION_PX", 100),

		AllowMissingModel: getbool("ALLOW_MISSING_MODEL", false),

		GeminiAPIKey: strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiModel:  getenv("GEMINI_MODEL", "gemini-2.5-flash"),
		LLMTimeout:   getdur("LLM_TIMEOUT", 30*time.Second),

		IngestAPIKey: getenv("MIRQAB_API_KEY", "development-key-change-in-production"),

		MongoURI: strings.TrimSpace(os.Getenv("MONGO_URI")),
		MongoDB:  getenv("MONGO_DB", "mirqab"),

		StorageBackend: strings.ToLower(getenv("STORAGE_BACKEND", "local")),
		StorageDir:     getenv("STORAGE_DIR", "storage"),
		PublicBaseURL:  getenv("PUBLIC_BASE_URL", "http://localhost:8000"),
		FTPHost:        os.Getenv("FTP_HOST"),
		FTPPort:        getenv("FTP_PORT", "21"),
		FTPUser:        os.Getenv("FTP_USER"),
		FTPPassword:    os.Getenv("FTP_PASSWORD"),
		FTPBaseURL:     os.Getenv("FTP_BASE_URL"),

		RAGMaxReports: getint("RAG_MAX_REPORTS", 100),

		NATSURL: strings.TrimSpace(os.Getenv("NATS_URL")),
	}

	return cfg, nil
}

// LLMConfigured reports whether captioning and the assistant can run at all.
func (c *Config) LLMConfigured() bool { return c.GeminiAPIKey != "" }

func getenv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(k))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}

func getdur(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
