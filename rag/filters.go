// path: rag/filters.go
package rag

import (
	"regexp"
	"strings"
	"time"
)

// timeWindow is a closed interval parsed from temporal hints in a question.
type timeWindow struct {
	Start time.Time
	End   time.Time
}

// extractTimeWindow recognizes the temporal phrasings operators actually use.
// It is deliberately strict: a weak match pulls in the wrong reports, which
// is worse than no filter at all.
func extractTimeWindow(question string, now time.Time) *timeWindow {
	q := strings.ToLower(question)

	switch {
	case containsAny(q, "last hour", "past hour", "within the hour"):
		return &timeWindow{Start: now.Add(-time.Hour), End: now}

	case containsAny(q, "last 24 hours", "past 24 hours", "last day") ||
		(strings.Contains(q, "today") && !strings.Contains(q, "yesterday")):
		return &timeWindow{Start: now.Add(-24 * time.Hour), End: now}

	case strings.Contains(q, "yesterday") &&
		containsAny(q, "how many", "what", "show", "were"):
		start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, -1)
		return &timeWindow{Start: start, End: start.AddDate(0, 0, 1)}

	case containsAny(q, "last week", "past week", "this week"):
		return &timeWindow{Start: now.AddDate(0, 0, -7), End: now}

	case containsAny(q, "last night", "tonight"):
		// 6 PM yesterday to 6 AM today
		start := time.Date(now.Year(), now.Month(), now.Day(), 18, 0, 0, 0, now.Location()).AddDate(0, 0, -1)
		end := time.Date(now.Year(), now.Month(), now.Day(), 6, 0, 0, 0, now.Location())
		return &timeWindow{Start: start, End: end}
	}

	return nil
}

var deviceRe = regexp.MustCompile(`(?i)(Pi-\d{3}[\w-]*|device\s+\d{3})`)

// extractDevice pulls a capture-device hint like "Pi-001" out of a question.
func extractDevice(question string) string {
	m := strings.ToLower(deviceRe.FindString(question))
	if m == "" {
		return ""
	}
	if rest, ok := strings.CutPrefix(m, "device "); ok {
		return "Pi-" + rest
	}
	return "Pi-" + strings.TrimPrefix(m, "pi-")
}

// keywordMap folds common phrasings onto the vocabulary stored reports use.
var keywordMap = map[string]string{
	"woodland": "woodland",
	"forest":   "woodland",
	"desert":   "desert",
	"urban":    "urban",
	"mountain": "mountain",
	"jungle":   "jungle",
	"field":    "field",
	"terrain":  "terrain",

	"camouflage": "camouflage",
	"camo":       "camouflage",
	"uniform":    "camouflage",
	"pattern":    "pattern",
	"digital":    "digital",
	"multicam":   "multicam",
	"ghillie":    "ghillie",

	"equipment": "equipment",
	"weapon":    "rifle",
	"rifle":     "rifle",
	"gear":      "gear",
	"backpack":  "backpack",
	"tactical":  "tactical",
	"helmet":    "helmet",
	"vest":      "vest",
}

var stopwords = map[string]bool{
	"what": true, "when": true, "where": true, "who": true, "how": true,
	"many": true, "is": true, "are": true, "was": true, "were": true,
	"the": true, "a": true, "an": true, "in": true, "on": true, "at": true,
	"to": true, "for": true, "of": true, "with": true, "by": true,
	"tell": true, "me": true, "about": true, "show": true, "give": true,
	"find": true, "get": true, "any": true, "all": true,
	"detected": true, "detection": true, "report": true, "reports": true,
}

// extractKeywords maps the question onto searchable report vocabulary,
// falling back to stopword removal when no domain term matches.
func extractKeywords(question string) string {
	q := strings.ToLower(question)

	var mapped []string
	seen := map[string]bool{}
	for term, value := range keywordMap {
		if strings.Contains(q, term) && !seen[value] {
			mapped = append(mapped, value)
			seen[value] = true
		}
	}
	if len(mapped) > 0 {
		return strings.Join(mapped, " ")
	}

	var rest []string
	for _, w := range strings.Fields(q) {
		w = strings.Trim(w, "?.,!\"'")
		if len(w) > 2 && !stopwords[w] {
			rest = append(rest, w)
		}
	}
	return strings.Join(rest, " ")
}

// generalQuery detects broad questions that should see recent reports
// rather than a keyword-filtered subset.
func generalQuery(question string) bool {
	q := strings.ToLower(question)
	general := []string{
		"all", "total", "count", "how many", "last report", "latest",
		"recent", "show me", "list", "summary", "overview", "any detections",
		"what detections", "show all", "give me all",
	}
	for _, g := range general {
		if strings.Contains(q, g) {
			return true
		}
	}
	return len(strings.Fields(question)) <= 3
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
