package model

// Session is an anonymous chat session. SourceCount tracks successfully
// ingested sources against the configured per-session cap.
type Session struct {
	ID          string `json:"id"`
	SourceCount int    `json:"source_count"`
	Ctime       int64  `json:"ctime"`
	ExpiresAt   int64  `json:"expires_at"`
}
