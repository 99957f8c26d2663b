// path: models/report.go
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Triage status taxonomy. The dashboard variants used to disagree on the
// closed labels; these long forms are the canonical set.
const (
	StatusNew             = "New"
	StatusInProgress      = "In Progress"
	StatusClosedFalsePos  = "Closed - False Positive"
	StatusClosedRemediate = "Closed - Remediated"
)

// Severity buckets derived from soldier count.
const (
	SeverityLow    = "Low"
	SeverityMedium = "Medium"
	SeverityHigh   = "High"
)

const DefaultAssignee = "Unassigned"

// Location is an optional geographic coordinate pair, immutable once set.
type Location struct {
	Latitude  float64 `bson:"latitude" json:"latitude"`
	Longitude float64 `bson:"longitude" json:"longitude"`
}

// Analysis holds the structured caption fields from the vision-language API.
type Analysis struct {
	Summary             string `bson:"summary" json:"summary"`
	Environment         string `bson:"environment" json:"environment"`
	SoldierCount        int    `bson:"soldier_count" json:"soldier_count"`
	HasCamouflage       bool   `bson:"has_camouflage" json:"has_camouflage"`
	AttireAndCamouflage string `bson:"attire_and_camouflage" json:"attire_and_camouflage"`
	Equipment           string `bson:"equipment" json:"equipment"`
}

// Report is one detection event.
type Report struct {
	ReportID            string    `bson:"report_id" json:"report_id"`
	Timestamp           time.Time `bson:"timestamp" json:"timestamp"`
	Location            *Location `bson:"location,omitempty" json:"location,omitempty"`
	SoldierCount        int       `bson:"soldier_count" json:"soldier_count"`
	Environment         string    `bson:"environment" json:"environment"`
	AttireAndCamouflage string    `bson:"attire_and_camouflage" json:"attire_and_camouflage"`
	Equipment           string    `bson:"equipment" json:"equipment"`
	Summary             string    `bson:"ai_summary" json:"ai_summary"`
	AnalysisDegraded    bool      `bson:"analysis_degraded" json:"analysis_degraded"`
	ImageSnapshotURL    string    `bson:"image_snapshot_url" json:"image_snapshot_url"`
	SegmentedImageURL   string    `bson:"segmented_image_url" json:"segmented_image_url"`
	Severity            string    `bson:"severity" json:"severity"`
	Status              string    `bson:"status" json:"status"`
	Assignee            string    `bson:"assignee" json:"assignee"`
	SourceDeviceID      string    `bson:"source_device_id" json:"source_device_id"`
	CreatedAt           time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt           time.Time `bson:"updated_at" json:"updated_at"`
}

// NewReportID returns an opaque id like MIR-20260829-A1B2C3.
func NewReportID(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))[:6]
	return fmt.Sprintf("MIR-%s-%s", now.Format("20060102"), suffix)
}

// ValidStatus reports whether s is one of the canonical triage statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusNew, StatusInProgress, StatusClosedFalsePos, StatusClosedRemediate:
		return true
	}
	return false
}

// ClosedStatus reports whether s is one of the closed states.
func ClosedStatus(s string) bool {
	return s == StatusClosedFalsePos || s == StatusClosedRemediate
}

// DeriveSeverity buckets a soldier count: 3+ High, 2 Medium, else Low.
func DeriveSeverity(soldierCount int) string {
	switch {
	case soldierCount >= 3:
		return SeverityHigh
	case soldierCount >= 2:
		return SeverityMedium
	default:
		return SeverityLow
	}
}
