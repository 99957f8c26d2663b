// path: models/responses.go
package models

// AnalyzeResponse is the body for POST /api/analyze_media.
type AnalyzeResponse struct {
	OK            bool    `json:"success"`
	Detection     bool    `json:"detection"`
	HasCamouflage bool    `json:"has_camouflage"`
	SoldierCount  int     `json:"soldier_count"`
	Message       string  `json:"message,omitempty"`
	OverlayImage  string  `json:"overlay_image,omitempty"`
	OriginalImage string  `json:"original_image,omitempty"`
	Report        *Report `json:"report,omitempty"`
}

// ReportListResponse is the body for GET /api/detection-reports.
type ReportListResponse struct {
	OK         bool     `json:"success"`
	Detections []Report `json:"detections"`
	Total      int      `json:"total"`
	TimeRange  string   `json:"time_range,omitempty"`
}

// StatusBreakdown groups report counts by triage state.
type StatusBreakdown struct {
	New        int `json:"new"`
	InProgress int `json:"inProgress"`
	Closed     int `json:"closed"`
}

// DetectionStats is the aggregate computed for GET /api/detection-stats.
type DetectionStats struct {
	TotalDetections int             `json:"totalDetections"`
	TotalSoldiers   int             `json:"totalSoldiers"`
	CriticalAlerts  int             `json:"criticalAlerts"`
	AlertsByStatus  StatusBreakdown `json:"alertsByStatus"`
}

// StatsResponse is the body for GET /api/detection-stats.
type StatsResponse struct {
	OK    bool           `json:"success"`
	Stats DetectionStats `json:"stats"`
}

// QueryResponse is the body for POST /api/moraqib_query.
type QueryResponse struct {
	OK           bool     `json:"success"`
	Question     string   `json:"question"`
	Answer       string   `json:"answer"`
	ReportsCount int      `json:"reports_count"`
	ReportsUsed  []string `json:"reports_used"`
	Error        string   `json:"error,omitempty"`
}

// IngestResponse is the body for POST /api/report_detection.
type IngestResponse struct {
	OK       bool   `json:"success"`
	ReportID string `json:"report_id,omitempty"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
}

// HealthResponse is the body for GET /health.
type HealthResponse struct {
	Status       string `json:"status"`
	ModelLoaded  bool   `json:"model_loaded"`
	LLMAvailable bool   `json:"llm_api_available"`
	Database     string `json:"database"`
	Storage      string `json:"storage"`
}
