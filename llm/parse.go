// path: llm/parse.go
package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"mirqab/models"
)

// analysisSchema pins the shape the model must produce. Anything that fails
// here degrades the analysis instead of leaking free-form data downstream.
const analysisSchema = `{
  "type": "object",
  "required": ["summary", "environment", "camouflaged_soldier_count", "has_camouflage", "attire_and_camouflage", "equipment"],
  "properties": {
    "summary": {"type": "string"},
    "environment": {"type": "string"},
    "camouflaged_soldier_count": {"type": "integer", "minimum": 0},
    "has_camouflage": {"type": "boolean"},
    "attire_and_camouflage": {"type": "string"},
    "equipment": {"type": "string"}
  }
}`

var schema = gojsonschema.NewStringLoader(analysisSchema)

// ParseAnalysis extracts the JSON object from the model's reply, maps legacy
// field names, validates against the schema and returns the fixed shape.
func ParseAnalysis(text string) (*models.Analysis, error) {
	obj := extractJSON(text)
	if obj == "" {
		return nil, errors.New("no JSON object in model reply")
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(obj), &raw); err != nil {
		return nil, fmt.Errorf("analysis is not valid JSON: %w", err)
	}

	normalize(raw)

	doc, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	result, err := gojsonschema.Validate(schema, gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("schema validation: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("analysis failed schema: %s", strings.Join(msgs, "; "))
	}

	var a struct {
		Summary             string `json:"summary"`
		Environment         string `json:"environment"`
		SoldierCount        int    `json:"camouflaged_soldier_count"`
		HasCamouflage       bool   `json:"has_camouflage"`
		AttireAndCamouflage string `json:"attire_and_camouflage"`
		Equipment           string `json:"equipment"`
	}
	if err := json.Unmarshal(doc, &a); err != nil {
		return nil, err
	}

	return &models.Analysis{
		Summary:             a.Summary,
		Environment:         a.Environment,
		SoldierCount:        a.SoldierCount,
		HasCamouflage:       a.HasCamouflage,
		AttireAndCamouflage: a.AttireAndCamouflage,
		Equipment:           a.Equipment,
	}, nil
}

// FallbackAnalysis is used when captioning degraded but detection succeeded.
func FallbackAnalysis(soldierCount int) *models.Analysis {
	if soldierCount <= 0 {
		return &models.Analysis{
			Summary:             "No camouflaged soldiers detected in the analyzed area.",
			Environment:         "Clear area",
			SoldierCount:        0,
			HasCamouflage:       false,
			AttireAndCamouflage: "N/A",
			Equipment:           "N/A",
		}
	}
	return &models.Analysis{
		Summary: fmt.Sprintf("Detected %d camouflaged soldier(s) in the analyzed area. "+
			"Pattern recognition identified military camouflage.", soldierCount),
		Environment:         "Environment analysis unavailable",
		SoldierCount:        soldierCount,
		HasCamouflage:       true,
		AttireAndCamouflage: "Military camouflage pattern detected",
		Equipment:           "Unable to determine specific equipment",
	}
}

// extractJSON pulls the outermost {...} span out of a possibly fenced reply.
func extractJSON(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return ""
	}
	return text[start : end+1]
}

// normalize maps the provider's older field names onto the current schema
// and derives has_camouflage when absent.
func normalize(raw map[string]any) {
	if _, ok := raw["camouflaged_soldier_count"]; !ok {
		if v, ok := raw["soldier_count"]; ok {
			raw["camouflaged_soldier_count"] = v
		}
	}
	if _, ok := raw["attire_and_camouflage"]; !ok {
		if v, ok := raw["attire"]; ok {
			raw["attire_and_camouflage"] = v
		}
	}

	// JSON numbers decode as float64; coerce whole values to integers so the
	// schema's integer type holds.
	if f, ok := raw["camouflaged_soldier_count"].(float64); ok && f == float64(int(f)) {
		raw["camouflaged_soldier_count"] = int(f)
	}

	if _, ok := raw["has_camouflage"]; !ok {
		count := 0
		if n, ok := raw["camouflaged_soldier_count"].(int); ok {
			count = n
		}
		raw["has_camouflage"] = count > 0
	}

	defaults := map[string]any{
		"summary":                   "Image analyzed for camouflaged soldiers.",
		"environment":               "Unknown environment",
		"camouflaged_soldier_count": 0,
		"attire_and_camouflage":     "No camouflage detected",
		"equipment":                 "N/A",
	}
	for k, def := range defaults {
		if v, ok := raw[k]; !ok || v == nil || v == "" {
			raw[k] = def
		}
	}

	// drop legacy keys so the schema sees one canonical shape
	delete(raw, "soldier_count")
	delete(raw, "attire")
}
