// path: store/memory_test.go
package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"mirqab/models"
)

func seedReport(id, device, env string, soldiers int, ts time.Time) *models.Report {
	return &models.Report{
		ReportID:            id,
		Timestamp:           ts,
		SoldierCount:        soldiers,
		Environment:         env,
		AttireAndCamouflage: "plain green fatigues",
		Equipment:           "rifle, backpack",
		Summary:             "test detection",
		Severity:            models.DeriveSeverity(soldiers),
		Status:              models.StatusNew,
		Assignee:            models.DefaultAssignee,
		SourceDeviceID:      device,
		CreatedAt:           ts,
		UpdatedAt:           ts,
	}
}

func TestMemoryStoreSaveGet(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()

	r := seedReport("MIR-20260829-AAAAAA", "Pi-001", "woodland", 2, now)
	require.NoError(t, s.Save(ctx, r))

	got, err := s.Get(ctx, r.ReportID)
	require.NoError(t, err)
	require.Equal(t, r.ReportID, got.ReportID)
	require.Equal(t, 2, got.SoldierCount)
	require.Equal(t, models.StatusNew, got.Status)

	_, err = s.Get(ctx, "MIR-00000000-000000")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreListNewestFirst(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.Save(ctx, seedReport("MIR-1", "Pi-001", "desert", 1, base.Add(-2*time.Hour))))
	require.NoError(t, s.Save(ctx, seedReport("MIR-2", "Pi-002", "urban", 2, base)))
	require.NoError(t, s.Save(ctx, seedReport("MIR-3", "Pi-001", "woodland", 3, base.Add(-time.Hour))))

	out, err := s.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, out, 3)
	require.Equal(t, "MIR-2", out[0].ReportID)
	require.Equal(t, "MIR-3", out[1].ReportID)
	require.Equal(t, "MIR-1", out[2].ReportID)

	out, err = s.List(ctx, Filter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Equal(t, "MIR-2", out[0].ReportID)
}

func TestMemoryStoreListFilters(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.Save(ctx, seedReport("MIR-1", "Pi-001", "desert terrain", 1, base.Add(-48*time.Hour))))
	require.NoError(t, s.Save(ctx, seedReport("MIR-2", "Pi-002", "dense woodland", 2, base.Add(-time.Hour))))

	out, err := s.List(ctx, Filter{From: base.Add(-24 * time.Hour)})
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, "MIR-2", out[0].ReportID)

	out, err = s.List(ctx, Filter{DeviceID: "Pi-001"})
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, "MIR-1", out[0].ReportID)

	out, err = s.List(ctx, Filter{FreeText: "woodland"})
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, "MIR-2", out[0].ReportID)

	// a query with no matching word finds nothing
	out, err = s.List(ctx, Filter{FreeText: "submarine"})
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestMemoryStoreUpdateStatus(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC().Add(-time.Hour)

	r := seedReport("MIR-1", "Pi-001", "woodland", 3, now)
	require.NoError(t, s.Save(ctx, r))

	got, err := s.UpdateStatus(ctx, "MIR-1", models.StatusInProgress, "analyst-7")
	require.NoError(t, err)
	require.Equal(t, models.StatusInProgress, got.Status)
	require.Equal(t, "analyst-7", got.Assignee)
	require.True(t, got.UpdatedAt.After(now))

	// empty assignee leaves the current one in place
	got, err = s.UpdateStatus(ctx, "MIR-1", models.StatusClosedRemediate, "")
	require.NoError(t, err)
	require.Equal(t, models.StatusClosedRemediate, got.Status)
	require.Equal(t, "analyst-7", got.Assignee)

	// untouched fields survive the update
	require.Equal(t, 3, got.SoldierCount)
	require.Equal(t, "woodland", got.Environment)
	require.Equal(t, now, got.Timestamp)

	_, err = s.UpdateStatus(ctx, "MIR-missing", models.StatusNew, "")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreStats(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.Save(ctx, seedReport("MIR-1", "Pi-001", "desert", 1, base)))
	require.NoError(t, s.Save(ctx, seedReport("MIR-2", "Pi-001", "urban", 4, base)))
	r3 := seedReport("MIR-3", "Pi-002", "woodland", 2, base)
	r3.Status = models.StatusInProgress
	require.NoError(t, s.Save(ctx, r3))
	r4 := seedReport("MIR-4", "Pi-002", "woodland", 3, base.Add(-72*time.Hour))
	r4.Status = models.StatusClosedFalsePos
	require.NoError(t, s.Save(ctx, r4))

	stats, err := s.Stats(ctx, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Equal(t, 4, stats.TotalDetections)
	require.Equal(t, 10, stats.TotalSoldiers)
	require.Equal(t, 2, stats.CriticalAlerts)
	require.Equal(t, 2, stats.AlertsByStatus.New)
	require.Equal(t, 1, stats.AlertsByStatus.InProgress)
	require.Equal(t, 1, stats.AlertsByStatus.Closed)

	stats, err = s.Stats(ctx, base.Add(-24*time.Hour), time.Time{})
	require.NoError(t, err)
	require.Equal(t, 3, stats.TotalDetections)
}

func TestParseTimeRange(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	require.Equal(t, now.Add(-time.Hour), ParseTimeRange("1h", now))
	require.Equal(t, now.Add(-24*time.Hour), ParseTimeRange("24h", now))
	require.Equal(t, now.AddDate(0, 0, -7), ParseTimeRange("7d", now))
	require.Equal(t, now.AddDate(0, 0, -30), ParseTimeRange("30d", now))
	require.True(t, ParseTimeRange("", now).IsZero())
	require.True(t, ParseTimeRange("2w", now).IsZero())
}
