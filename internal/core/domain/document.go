package domain

import "time"

type SessionStatus string

const (
	SessionActive  SessionStatus = "active"
	SessionExpired SessionStatus = "expired"
)

type Document struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	MimeType    string    `json:"mime_type"`
	StoragePath string    `json:"storage_path"`
	SizeBytes   int64     `json:"size_bytes"`
	CreatedAt   time.Time `json:"created_at"`
}

// Session is the isolation boundary for one uploaded document.
type Session struct {
	ID         string        `json:"session_id"`
	DocumentID string        `json:"document_id"`
	CreatedAt  time.Time     `json:"created_at"`
	LastAccess time.Time     `json:"last_access"`
	Status     SessionStatus `json:"status"`
}

type SessionStats struct {
	SessionID  string        `json:"session_id"`
	DocumentID string        `json:"document_id"`
	ChunkCount int           `json:"chunk_count"`
	CreatedAt  time.Time     `json:"created_at"`
	LastAccess time.Time     `json:"last_access"`
	Status     SessionStatus `json:"status"`
}

type UploadResult struct {
	SessionID     string `json:"session_id"`
	DocumentID    string `json:"document_id"`
	Filename      string `json:"filename"`
	ChunksCreated int    `json:"chunks_created"`
}
