package model

import "time"

// Status is the moderation state of a material. Every status is reachable
// from every other status in a single transition; there is no terminal state.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Valid reports whether s is one of the three persisted statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Kind classifies a material. It says nothing about how the content is
// referenced: a Video may carry an uploaded file and a PDF may carry only an
// external URL.
type Kind string

const (
	KindPDF   Kind = "PDF"
	KindVideo Kind = "Video"
	KindNotes Kind = "Notes"
)

// Valid reports whether k is a known material kind.
func (k Kind) Valid() bool {
	switch k {
	case KindPDF, KindVideo, KindNotes:
		return true
	}
	return false
}

// Material represents a single study resource: metadata, an optional
// uploaded attachment and/or external link, and its moderation status.
// This is a pure domain model with no database-specific dependencies or tags.
type Material struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Subject        string    `json:"subject"`
	Kind           Kind      `json:"kind"`
	ExternalURL    string    `json:"external_url,omitempty"`
	AttachmentPath string    `json:"attachment_path,omitempty"`
	Status         Status    `json:"status"`
	Author         string    `json:"author"`
	CreatedAt      time.Time `json:"created_at"`
}
