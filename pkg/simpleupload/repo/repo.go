// Package repo keeps an audit log of issued and rejected presigns.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tendant/simple-upload/pkg/simpleupload"
)

// ErrRecordNotFound is returned when no presign record has the requested id
var ErrRecordNotFound = errors.New("repo: presign record not found")

// Status of a presign record
type Status string

const (
	StatusIssued   Status = "issued"
	StatusRejected Status = "rejected"
)

// PresignRecord is one row of the audit log
type PresignRecord struct {
	ID        uuid.UUID           `json:"id"`
	Endpoint  string              `json:"endpoint"`
	Caller    string              `json:"caller,omitempty"`
	Status    Status              `json:"status"`
	Rule      string              `json:"rule,omitempty"`
	Disk      string              `json:"disk,omitempty"`
	Bucket    string              `json:"bucket,omitempty"`
	Key       string              `json:"key,omitempty"`
	Name      string              `json:"name,omitempty"`
	Extension string              `json:"extension,omitempty"`
	MimeType  string              `json:"type,omitempty"`
	Size      int64               `json:"size"`
	Errors    map[string][]string `json:"errors,omitempty"`
	ExpiresAt *time.Time          `json:"expires_at,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
}

// ListFilter narrows ListPresigns. Zero fields match everything.
type ListFilter struct {
	Endpoint string
	Caller   string
	Status   Status
	Since    time.Time
	Limit    int
	Offset   int
}

// Match reports whether r passes every non-zero filter field
func (f ListFilter) Match(r *PresignRecord) bool {
	if f.Endpoint != "" && r.Endpoint != f.Endpoint {
		return false
	}
	if f.Caller != "" && r.Caller != f.Caller {
		return false
	}
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	if !f.Since.IsZero() && r.CreatedAt.Before(f.Since) {
		return false
	}
	return true
}

// Repository stores presign records
type Repository interface {
	RecordPresign(ctx context.Context, record *PresignRecord) error
	GetPresign(ctx context.Context, id uuid.UUID) (*PresignRecord, error)
	// ListPresigns returns matching records, newest first
	ListPresigns(ctx context.Context, filter ListFilter) ([]*PresignRecord, error)
}

// FromCreated converts an issued presign event into a record
func FromCreated(event *simpleupload.PresignCreatedEvent) *PresignRecord {
	expires := event.ExpiresAt
	return &PresignRecord{
		ID:        event.ID,
		Endpoint:  event.Endpoint,
		Caller:    event.Caller,
		Status:    StatusIssued,
		Rule:      event.Rule,
		Disk:      event.Disk,
		Bucket:    event.Bucket,
		Key:       event.Key,
		Name:      event.Attributes.Name,
		Extension: event.Attributes.Extension,
		MimeType:  event.Attributes.MimeType,
		Size:      event.Attributes.Size,
		ExpiresAt: &expires,
		CreatedAt: event.CreatedAt,
	}
}

// FromFailed converts a rejected presign event into a record. Declared
// attributes are kept when they are usable strings or numbers.
func FromFailed(event *simpleupload.PresignFailedEvent) *PresignRecord {
	record := &PresignRecord{
		ID:        event.ID,
		Endpoint:  event.Endpoint,
		Caller:    event.Caller,
		Status:    StatusRejected,
		Errors:    make(map[string][]string),
		CreatedAt: event.FailedAt,
	}
	if name, ext, ok := simpleupload.DestructureFilename(event.Request.Name); ok {
		record.Name, record.Extension = name, ext
	}
	if mime, ok := event.Request.Type.(string); ok {
		record.MimeType = strings.ToLower(strings.TrimSpace(mime))
	}
	if size, ok := simpleupload.DeclaredSize(event.Request.Size); ok {
		record.Size = size
	}
	for _, fe := range event.Errors {
		record.Errors[fe.Field] = append(record.Errors[fe.Field], fe.Message)
	}
	return record
}

// Sink records every presign event in a repository
type Sink struct {
	repo Repository
}

// NewSink adapts a repository to simpleupload.EventSink
func NewSink(repository Repository) simpleupload.EventSink {
	return &Sink{repo: repository}
}

// PresignCreated stores an issued record
func (s *Sink) PresignCreated(ctx context.Context, event *simpleupload.PresignCreatedEvent) error {
	return s.repo.RecordPresign(ctx, FromCreated(event))
}

// PresignFailed stores a rejected record
func (s *Sink) PresignFailed(ctx context.Context, event *simpleupload.PresignFailedEvent) error {
	return s.repo.RecordPresign(ctx, FromFailed(event))
}
