// path: storage/local.go
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LocalStore writes images under <dir>/reports/<report_id>/ and serves them
// at <baseURL>/storage/....
type LocalStore struct {
	dir     string
	baseURL string
}

// NewLocalStore creates the storage directories up front.
func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	for _, sub := range []string{"reports", "uploads"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	return &LocalStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *LocalStore) Kind() string { return "local" }

// Dir returns the root storage directory, for mounting as a static route.
func (s *LocalStore) Dir() string { return s.dir }

func (s *LocalStore) Put(reportID, kind string, data []byte) (string, error) {
	reportDir := filepath.Join(s.dir, "reports", sanitize(reportID))
	if err := os.MkdirAll(reportDir, 0o755); err != nil {
		return "", err
	}

	name := fmt.Sprintf("%s_%s.jpg", sanitize(kind), time.Now().Format("20060102_150405"))
	if err := os.WriteFile(filepath.Join(reportDir, name), data, 0o644); err != nil {
		return "", err
	}

	return fmt.Sprintf("%s/storage/reports/%s/%s", s.baseURL, sanitize(reportID), name), nil
}

func (s *LocalStore) Delete(url string) error {
	path, ok := s.LocalPath(urlPath(url))
	if !ok {
		return nil
	}
	return os.Remove(path)
}

func (s *LocalStore) LocalPath(p string) (string, bool) {
	p = strings.TrimPrefix(p, "/storage/")
	clean := filepath.Clean(p)
	if strings.HasPrefix(clean, "..") {
		return "", false
	}
	abs := filepath.Join(s.dir, clean)
	if _, err := os.Stat(abs); err != nil {
		return "", false
	}
	return abs, true
}

func urlPath(u string) string {
	if idx := strings.Index(u, "/storage/"); idx >= 0 {
		return u[idx:]
	}
	return u
}

// sanitize keeps ids and kinds path-safe.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}
