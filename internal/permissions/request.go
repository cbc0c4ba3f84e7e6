// Package permissions implements the permission request domain: requests
// by non-privileged users to replace or delete a document, and their
// resolution by an administrator.
package permissions

import (
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/custodian/internal/documents"
)

// Action is the change a request asks for.
type Action string

const (
	ActionReplace Action = "REPLACE"
	ActionDelete  Action = "DELETE"
)

// Valid reports whether a is a known action.
func (a Action) Valid() bool {
	switch a {
	case ActionReplace, ActionDelete:
		return true
	}
	return false
}

// Status is the resolution state of a request.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Request is a pending or resolved permission request. NewFile is present
// exactly when Action is REPLACE.
type Request struct {
	ID          uuid.UUID       `json:"id"`
	DocumentID  uuid.UUID       `json:"document_id"`
	RequestedBy uuid.UUID       `json:"requested_by"`
	Action      Action          `json:"action"`
	NewFile     *documents.File `json:"new_file,omitempty"`
	Status      Status          `json:"status"`
	ResolvedBy  *uuid.UUID      `json:"resolved_by,omitempty"`
	ResolvedAt  *time.Time      `json:"resolved_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Pending is a pending request joined with the title of its document.
type Pending struct {
	Request
	DocumentTitle string `json:"document_title"`
}

// NewRequest carries the fields of a request to insert.
type NewRequest struct {
	DocumentID  uuid.UUID
	RequestedBy uuid.UUID
	Action      Action
	NewFile     *documents.File
}
