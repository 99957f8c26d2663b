// path: store/memory.go
package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"mirqab/models"
)

// MemoryStore is the fallback backend used when Mongo is not reachable, and
// the store the tests run against.
type MemoryStore struct {
	mu      sync.RWMutex
	reports map[string]models.Report
}

// NewMemoryStore returns an empty in-memory report store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{reports: make(map[string]models.Report)}
}

func (s *MemoryStore) Kind() string { return "memory" }

func (s *MemoryStore) Save(ctx context.Context, r *models.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[r.ReportID] = *r
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, reportID string) (*models.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reports[reportID]
	if !ok {
		return nil, ErrNotFound
	}
	out := r
	return &out, nil
}

func (s *MemoryStore) List(ctx context.Context, f Filter) ([]models.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]models.Report, 0, len(s.reports))
	for _, r := range s.reports {
		if matches(r, f) {
			out = append(out, r)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })

	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *MemoryStore) UpdateStatus(ctx context.Context, reportID, status, assignee string) (*models.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reports[reportID]
	if !ok {
		return nil, ErrNotFound
	}
	r.Status = status
	if assignee != "" {
		r.Assignee = assignee
	}
	r.UpdatedAt = time.Now().UTC()
	s.reports[reportID] = r
	out := r
	return &out, nil
}

func (s *MemoryStore) Stats(ctx context.Context, from, to time.Time) (*models.DetectionStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &models.DetectionStats{}
	for _, r := range s.reports {
		if !from.IsZero() && r.Timestamp.Before(from) {
			continue
		}
		if !to.IsZero() && r.Timestamp.After(to) {
			continue
		}
		stats.TotalDetections++
		stats.TotalSoldiers += r.SoldierCount
		if r.SoldierCount >= 3 {
			stats.CriticalAlerts++
		}
		switch {
		case r.Status == models.StatusInProgress:
			stats.AlertsByStatus.InProgress++
		case models.ClosedStatus(r.Status):
			stats.AlertsByStatus.Closed++
		default:
			stats.AlertsByStatus.New++
		}
	}
	return stats, nil
}

func matches(r models.Report, f Filter) bool {
	if !f.From.IsZero() && r.Timestamp.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && r.Timestamp.After(f.To) {
		return false
	}
	if f.DeviceID != "" && r.SourceDeviceID != f.DeviceID {
		return false
	}
	if f.FreeText != "" {
		needle := strings.ToLower(f.FreeText)
		hay := strings.ToLower(r.Environment + " " + r.AttireAndCamouflage + " " + r.Equipment)
		hit := false
		for _, word := range strings.Fields(needle) {
			if strings.Contains(hay, word) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	return true
}
