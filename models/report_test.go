// path: models/report_test.go
package models

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewReportID(t *testing.T) {
	now := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)

	id := NewReportID(now)
	require.Regexp(t, regexp.MustCompile(`^MIR-20260829-[0-9A-F]{6}$`), id)

	// ids must not collide for reports created in the same instant
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		id := NewReportID(now)
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestDeriveSeverity(t *testing.T) {
	require.Equal(t, SeverityLow, DeriveSeverity(0))
	require.Equal(t, SeverityLow, DeriveSeverity(1))
	require.Equal(t, SeverityMedium, DeriveSeverity(2))
	require.Equal(t, SeverityHigh, DeriveSeverity(3))
	require.Equal(t, SeverityHigh, DeriveSeverity(10))
}

func TestValidStatus(t *testing.T) {
	for _, s := range []string{StatusNew, StatusInProgress, StatusClosedFalsePos, StatusClosedRemediate} {
		require.True(t, ValidStatus(s), s)
	}
	require.False(t, ValidStatus("new"))
	require.False(t, ValidStatus("Closed"))
	require.False(t, ValidStatus(""))
}

func TestClosedStatus(t *testing.T) {
	require.True(t, ClosedStatus(StatusClosedFalsePos))
	require.True(t, ClosedStatus(StatusClosedRemediate))
	require.False(t, ClosedStatus(StatusNew))
	require.False(t, ClosedStatus(StatusInProgress))
}
