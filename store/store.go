// path: store/store.go
package store

import (
	"context"
	"errors"
	"time"

	"mirqab/models"
)

// ErrNotFound is returned for unknown report IDs.
var ErrNotFound = errors.New("report not found")

// Filter bounds a listing query. Zero times leave that side open.
type Filter struct {
	From     time.Time
	To       time.Time
	DeviceID string
	FreeText string // substring match over environment/attire/equipment
	Limit    int
}

// ReportStore persists detection reports. List always returns newest first by
// timestamp regardless of the backend's native ordering.
type ReportStore interface {
	Save(ctx context.Context, r *models.Report) error
	Get(ctx context.Context, reportID string) (*models.Report, error)
	List(ctx context.Context, f Filter) ([]models.Report, error)

	// UpdateStatus mutates only the triage fields. An empty assignee leaves
	// the current assignee untouched.
	UpdateStatus(ctx context.Context, reportID, status, assignee string) (*models.Report, error)

	// Stats aggregates report counts for the stats endpoint.
	Stats(ctx context.Context, from, to time.Time) (*models.DetectionStats, error)

	// Kind names the backend for health reporting.
	Kind() string
}

// ParseTimeRange turns the dashboard's time_range values (24h, 7d, 30d, all)
// into a start time. Unknown values behave like "all".
func ParseTimeRange(timeRange string, now time.Time) time.Time {
	switch timeRange {
	case "1h":
		return now.Add(-time.Hour)
	case "24h":
		return now.Add(-24 * time.Hour)
	case "7d":
		return now.AddDate(0, 0, -7)
	case "30d":
		return now.AddDate(0, 0, -30)
	default:
		return time.Time{}
	}
}
