package model

// ChunkMetadata is the provenance carried by every stored chunk.
type ChunkMetadata struct {
	Source       string     `json:"source"`
	Type         SourceType `json:"type"`
	Timestamp    int64      `json:"timestamp"`
	CollectionID string     `json:"collection_id"`
	// Optional fields for video sources.
	Title    string `json:"title,omitempty"`
	Author   string `json:"author,omitempty"`
	Duration int    `json:"duration,omitempty"`
	// Page number for paginated sources, 1-based.
	Page int `json:"page,omitempty"`
}

// Chunk is a bounded slice of normalized source text, the unit of
// embedding and retrieval. Immutable once indexed.
type Chunk struct {
	Content  string        `json:"content"`
	Metadata ChunkMetadata `json:"metadata"`
}

// RetrievedChunk pairs a stored chunk with its similarity score for one
// query. Higher score means more similar under cosine distance.
type RetrievedChunk struct {
	Content  string        `json:"content"`
	Metadata ChunkMetadata `json:"metadata"`
	Score    float32       `json:"score"`
}
