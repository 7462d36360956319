package model

type APIError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

type ErrorResponse struct {
	Error     APIError `json:"error"`
	RequestID string   `json:"request_id,omitempty"`
}

type HealthResponse struct {
	Status string `json:"status"`
	Model  string `json:"model"`
}

type RootResponse struct {
	Message string `json:"message"`
	Version string `json:"version"`
}

// Segment is one time-bounded span of transcribed speech. Minutes and
// Seconds are derived from the start offset so clients can render
// mm:ss markers without repeating the division.
type Segment struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Text    string  `json:"text"`
	Minutes int     `json:"minutes"`
	Seconds int     `json:"seconds"`
}

type TranscriptionResponse struct {
	Text     string    `json:"text"`
	Segments []Segment `json:"segments"`
	Duration float64   `json:"duration"`
	Language string    `json:"language"`
}

type CacheStatsResponse struct {
	Entries   int     `json:"entries"`
	SizeBytes int64   `json:"size_bytes"`
	SizeMB    float64 `json:"size_mb"`
	Directory string  `json:"directory"`
}

type CacheClearResponse struct {
	Status         string `json:"status"`
	EntriesRemoved int    `json:"entries_removed"`
}
