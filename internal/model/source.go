package model

// SourceType is the closed set of ingestable source formats.
type SourceType string

const (
	SourceTypePDF     SourceType = "pdf"
	SourceTypeDOCX    SourceType = "docx"
	SourceTypeText    SourceType = "text"
	SourceTypeCSV     SourceType = "csv"
	SourceTypeJSON    SourceType = "json"
	SourceTypeURL     SourceType = "url"
	SourceTypeYouTube SourceType = "youtube"
)

func (t SourceType) Valid() bool {
	switch t {
	case SourceTypePDF, SourceTypeDOCX, SourceTypeText, SourceTypeCSV,
		SourceTypeJSON, SourceTypeURL, SourceTypeYouTube:
		return true
	}
	return false
}

// Source is one ingested input, owning exactly one vector collection.
type Source struct {
	ID           string     `json:"id"`
	SessionID    string     `json:"session_id"`
	CollectionID string     `json:"collection_id"`
	Name         string     `json:"name"`
	Type         SourceType `json:"type"`
	ChunkCount   int        `json:"chunk_count"`
	FileKey      string     `json:"file_key,omitempty"`
	Ctime        int64      `json:"ctime"`
}
