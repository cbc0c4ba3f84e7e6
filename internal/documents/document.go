// Package documents implements the document domain: controlled documents,
// their version history, and the read-side queries over both.
package documents

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a document.
type Status string

const (
	StatusActive         Status = "ACTIVE"
	StatusPendingReplace Status = "PENDING_REPLACE"
	StatusPendingDelete  Status = "PENDING_DELETE"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusPendingReplace, StatusPendingDelete:
		return true
	}
	return false
}

// File describes a stored file: its storage reference and the metadata
// captured when it was uploaded.
type File struct {
	Ref         string `json:"ref"`
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
	PageCount   *int   `json:"page_count"`
}

// Document is a controlled document and its current file.
type Document struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	Description  *string   `json:"description"`
	DocumentType *string   `json:"document_type"`
	File         File      `json:"file"`
	Version      int       `json:"version"`
	Status       Status    `json:"status"`
	CreatedBy    uuid.UUID `json:"created_by"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Version is an immutable snapshot of a file that a document previously pointed to.
type Version struct {
	ID         uuid.UUID `json:"id"`
	DocumentID uuid.UUID `json:"document_id"`
	Version    int       `json:"version"`
	File       File      `json:"file"`
	CreatedBy  uuid.UUID `json:"created_by"`
	CreatedAt  time.Time `json:"created_at"`
}

// Detail is a document together with its version history, newest first.
type Detail struct {
	Document
	Versions []Version `json:"versions"`
}

// NewDocument carries the fields of a document to insert.
// Inserted documents always start at version 1 with status ACTIVE.
type NewDocument struct {
	Title        string
	Description  *string
	DocumentType *string
	File         File
	CreatedBy    uuid.UUID
}

// NewVersion carries the fields of a version snapshot to insert.
type NewVersion struct {
	DocumentID uuid.UUID
	Version    int
	File       File
	CreatedBy  uuid.UUID
}
