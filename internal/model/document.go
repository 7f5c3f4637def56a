package model

import "time"

// Document represents one stored file owned by a user.
// This is a pure domain model with no database-specific dependencies or tags.
// Documents are created once and never updated.
type Document struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	OriginalName string    `json:"originalName"`
	MimeType     string    `json:"mimeType"`
	Size         int64     `json:"size"`
	Bucket       string    `json:"bucket"`
	StorageKey   string    `json:"storageKey"`
	URL          string    `json:"url"`
	CreatedAt    time.Time `json:"createdAt"`
}

// SignedURL is a time-limited download link for a single document.
// ExpiresIn is expressed in seconds from issuance.
type SignedURL struct {
	URL       string `json:"url"`
	ExpiresIn int    `json:"expiresIn"`
}
