// path: rag/filters_test.go
package rag

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 8, 29, 14, 30, 0, 0, time.UTC)

func TestExtractTimeWindow(t *testing.T) {
	cases := []struct {
		question string
		start    time.Time
		end      time.Time
	}{
		{"how many detections in the last hour?", testNow.Add(-time.Hour), testNow},
		{"show detections from the past 24 hours", testNow.Add(-24 * time.Hour), testNow},
		{"what happened today?", testNow.Add(-24 * time.Hour), testNow},
		{"how many soldiers were detected yesterday?",
			time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)},
		{"summarize last week", testNow.AddDate(0, 0, -7), testNow},
		{"anything last night?",
			time.Date(2026, 8, 28, 18, 0, 0, 0, time.UTC),
			time.Date(2026, 8, 29, 6, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		w := extractTimeWindow(tc.question, testNow)
		require.NotNil(t, w, tc.question)
		require.Equal(t, tc.start, w.Start, tc.question)
		require.Equal(t, tc.end, w.End, tc.question)
	}
}

func TestExtractTimeWindowNoHint(t *testing.T) {
	require.Nil(t, extractTimeWindow("what equipment was seen in the woodland?", testNow))
	require.Nil(t, extractTimeWindow("tell me about Pi-002", testNow))
}

func TestExtractDevice(t *testing.T) {
	require.Equal(t, "Pi-001", extractDevice("what did Pi-001 see?"))
	require.Equal(t, "Pi-042", extractDevice("any activity on pi-042 today"))
	require.Equal(t, "Pi-007", extractDevice("detections from device 007"))
	require.Empty(t, extractDevice("how many soldiers total?"))
}

func TestExtractKeywordsDomainTerms(t *testing.T) {
	kw := extractKeywords("any soldiers in the forest with weapons?")
	require.Contains(t, kw, "woodland")
	require.Contains(t, kw, "rifle")

	kw = extractKeywords("show camo uniforms in urban areas")
	require.Contains(t, kw, "camouflage")
	require.Contains(t, kw, "urban")
}

func TestExtractKeywordsStopwordFallback(t *testing.T) {
	kw := extractKeywords("what about the northern watchtower sector?")
	require.Contains(t, kw, "northern")
	require.Contains(t, kw, "watchtower")
	require.NotContains(t, strings.Fields(kw), "what")
	require.NotContains(t, strings.Fields(kw), "the")
}

func TestGeneralQuery(t *testing.T) {
	require.True(t, generalQuery("how many detections total?"))
	require.True(t, generalQuery("show me the latest reports"))
	require.True(t, generalQuery("status?"))
	require.False(t, generalQuery("which ghillie suits appeared near the eastern treeline perimeter?"))
}
