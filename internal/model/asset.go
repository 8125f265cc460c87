package model

import (
	"time"

	"github.com/google/uuid"
)

// Asset statuses.
const (
	StatusPending   = "pending"
	StatusProcessed = "processed"
	StatusFailed    = "failed"
)

// Asset is an uploaded image and its transcoded rendition for one profile.
// It is also the payload of the transcode job sent to the queue.
type Asset struct {
	ID         uuid.UUID `json:"id"`
	Profile    string    `json:"profile"`     // news, exhibitions, catalogs
	Filename   string    `json:"filename"`    // original file name
	SourcePath string    `json:"source_path"` // object key of the original
	SourceType string    `json:"source_type"` // declared media type of the original
	Path       string    `json:"file_path"`   // object key of the transcoded rendition
	MimeType   string    `json:"mime_type"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	Quality    float64   `json:"quality"`
	SizeBytes  int64     `json:"size_bytes"` // transported size
	Status     string    `json:"status"`     // pending / processed / failed
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
