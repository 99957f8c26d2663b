// path: llm/parse_test.go
package llm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseAnalysisFencedJSON(t *testing.T) {
	reply := "```json\n" + `{
		"summary": "Two soldiers prone near the treeline.",
		"environment": "Dense woodland, overcast",
		"camouflaged_soldier_count": 2,
		"has_camouflage": true,
		"attire_and_camouflage": "Woodland MARPAT",
		"equipment": "Rifles, one radio pack"
	}` + "\n```"

	a, err := ParseAnalysis(reply)
	require.NoError(t, err)
	require.Equal(t, 2, a.SoldierCount)
	require.True(t, a.HasCamouflage)
	require.Equal(t, "Dense woodland, overcast", a.Environment)
	require.Equal(t, "Woodland MARPAT", a.AttireAndCamouflage)
}

func TestParseAnalysisLegacyFieldNames(t *testing.T) {
	reply := `{"summary": "s", "environment": "desert", "soldier_count": 3, "attire": "desert DPM", "equipment": "rifles"}`

	a, err := ParseAnalysis(reply)
	require.NoError(t, err)
	require.Equal(t, 3, a.SoldierCount)
	require.Equal(t, "desert DPM", a.AttireAndCamouflage)
	// has_camouflage derived from the count when absent
	require.True(t, a.HasCamouflage)
}

func TestParseAnalysisFillsDefaults(t *testing.T) {
	a, err := ParseAnalysis(`{"camouflaged_soldier_count": 1}`)
	require.NoError(t, err)
	require.Equal(t, 1, a.SoldierCount)
	require.True(t, a.HasCamouflage)
	require.NotEmpty(t, a.Summary)
	require.NotEmpty(t, a.Environment)
	require.NotEmpty(t, a.Equipment)
}

func TestParseAnalysisRejectsBadReplies(t *testing.T) {
	_, err := ParseAnalysis("I could not analyze this image.")
	require.Error(t, err)

	_, err = ParseAnalysis(`{"camouflaged_soldier_count": "three"}`)
	require.Error(t, err)

	_, err = ParseAnalysis(`{"camouflaged_soldier_count": -2}`)
	require.Error(t, err)

	_, err = ParseAnalysis(`{broken`)
	require.Error(t, err)
}

func TestFallbackAnalysis(t *testing.T) {
	a := FallbackAnalysis(2)
	require.Equal(t, 2, a.SoldierCount)
	require.True(t, a.HasCamouflage)
	require.Contains(t, a.Summary, "2")

	a = FallbackAnalysis(0)
	require.Equal(t, 0, a.SoldierCount)
	require.False(t, a.HasCamouflage)
}
