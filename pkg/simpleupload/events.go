package simpleupload

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// PresignCreatedEvent is emitted after a policy has been signed
type PresignCreatedEvent struct {
	ID         uuid.UUID         `json:"id"`
	Endpoint   string            `json:"endpoint"`
	Caller     string            `json:"caller,omitempty"`
	Rule       string            `json:"rule,omitempty"`
	Disk       string            `json:"disk"`
	Bucket     string            `json:"bucket"`
	Key        string            `json:"key"`
	Attributes Attributes        `json:"attributes"`
	Form       map[string]string `json:"form"`
	ExpiresAt  time.Time         `json:"expires_at"`
	CreatedAt  time.Time         `json:"created_at"`
}

// PresignFailedEvent is emitted when a request fails validation
type PresignFailedEvent struct {
	ID       uuid.UUID    `json:"id"`
	Endpoint string       `json:"endpoint"`
	Caller   string       `json:"caller,omitempty"`
	Request  Request      `json:"request"`
	Errors   []FieldError `json:"errors"`
	FailedAt time.Time    `json:"failed_at"`
}

// EventSink receives upload notifications. Errors are logged and otherwise
// ignored.
type EventSink interface {
	// PresignCreated is fired when a policy has been issued
	PresignCreated(ctx context.Context, event *PresignCreatedEvent) error

	// PresignFailed is fired when a request is rejected by validation
	PresignFailed(ctx context.Context, event *PresignFailedEvent) error
}

// NoopEventSink discards all events
type NoopEventSink struct{}

// NewNoopEventSink creates a new no-operation event sink
func NewNoopEventSink() EventSink {
	return &NoopEventSink{}
}

// PresignCreated does nothing and returns nil
func (n *NoopEventSink) PresignCreated(ctx context.Context, event *PresignCreatedEvent) error {
	return nil
}

// PresignFailed does nothing and returns nil
func (n *NoopEventSink) PresignFailed(ctx context.Context, event *PresignFailedEvent) error {
	return nil
}

// LoggingEventSink writes one structured log line per event.
// Useful for development and debugging.
type LoggingEventSink struct {
	logger *slog.Logger
}

// NewLoggingEventSink creates a new logging event sink; nil uses slog.Default()
func NewLoggingEventSink(logger *slog.Logger) EventSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingEventSink{logger: logger}
}

// PresignCreated logs the issued key
func (l *LoggingEventSink) PresignCreated(ctx context.Context, event *PresignCreatedEvent) error {
	l.logger.InfoContext(ctx, "presign created",
		"id", event.ID,
		"endpoint", event.Endpoint,
		"caller", event.Caller,
		"disk", event.Disk,
		"bucket", event.Bucket,
		"key", event.Key,
		"size", event.Attributes.Size,
		"type", event.Attributes.MimeType,
		"expires_at", event.ExpiresAt)
	return nil
}

// PresignFailed logs the rejected fields
func (l *LoggingEventSink) PresignFailed(ctx context.Context, event *PresignFailedEvent) error {
	fields := make([]string, 0, len(event.Errors))
	for _, fe := range event.Errors {
		fields = append(fields, fe.Field)
	}
	l.logger.WarnContext(ctx, "presign failed",
		"id", event.ID,
		"endpoint", event.Endpoint,
		"caller", event.Caller,
		"fields", fields)
	return nil
}

// MultiEventSink fans events out to several sinks
type MultiEventSink []EventSink

// NewMultiEventSink combines sinks, skipping nil ones
func NewMultiEventSink(sinks ...EventSink) EventSink {
	var m MultiEventSink
	for _, s := range sinks {
		if s != nil {
			m = append(m, s)
		}
	}
	return m
}

// PresignCreated delivers to every sink and joins their errors
func (m MultiEventSink) PresignCreated(ctx context.Context, event *PresignCreatedEvent) error {
	var errs []error
	for _, s := range m {
		if err := s.PresignCreated(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// PresignFailed delivers to every sink and joins their errors
func (m MultiEventSink) PresignFailed(ctx context.Context, event *PresignFailedEvent) error {
	var errs []error
	for _, s := range m {
		if err := s.PresignFailed(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// dispatch runs fn on its own goroutine, detached from the request's
// cancellation. Panics and errors are logged.
func (u *Uploader) dispatch(ctx context.Context, event string, fn func(context.Context) error) {
	if u.events == nil {
		return
	}

	ctx = context.WithoutCancel(ctx)
	u.inflight.Add(1)
	go func() {
		defer u.inflight.Done()
		defer func() {
			if r := recover(); r != nil {
				u.logger.ErrorContext(ctx, "event sink panicked", "event", event, "endpoint", u.name, "panic", r)
			}
		}()

		if err := fn(ctx); err != nil {
			u.logger.WarnContext(ctx, "event sink failed", "event", event, "endpoint", u.name, "error", err)
		}
	}()
}
