// Package cloudevents publishes presign events as CloudEvents.
package cloudevents

import (
	"context"
	"fmt"

	cloudevents "github.com/cloudevents/sdk-go/v2"

	"github.com/tendant/simple-upload/pkg/simpleupload"
)

// Event types
const (
	TypePresignCreated = "io.simpleupload.presign.created"
	TypePresignFailed  = "io.simpleupload.presign.failed"
)

// DefaultSource is used when no source is configured
const DefaultSource = "simple-upload"

// Sender is the part of a CloudEvents client the sink needs
type Sender interface {
	Send(ctx context.Context, event cloudevents.Event) cloudevents.Result
}

// Sink sends each presign event through a CloudEvents client
type Sink struct {
	sender Sender
	source string
}

// Option configures a Sink
type Option func(*Sink)

// WithSource sets the event source attribute
func WithSource(source string) Option {
	return func(s *Sink) {
		if source != "" {
			s.source = source
		}
	}
}

// New creates a sink around an existing sender
func New(sender Sender, opts ...Option) *Sink {
	s := &Sink{sender: sender, source: DefaultSource}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewHTTP creates a sink that posts events to target over HTTP
func NewHTTP(target string, opts ...Option) (*Sink, error) {
	client, err := cloudevents.NewClientHTTP(cloudevents.WithTarget(target))
	if err != nil {
		return nil, fmt.Errorf("failed to create cloudevents client: %w", err)
	}
	return New(client, opts...), nil
}

// PresignCreated publishes an io.simpleupload.presign.created event
func (s *Sink) PresignCreated(ctx context.Context, event *simpleupload.PresignCreatedEvent) error {
	ce, err := s.event(event.ID.String(), TypePresignCreated, event.Endpoint, event)
	if err != nil {
		return err
	}
	ce.SetTime(event.CreatedAt)
	ce.SetExtension("key", event.Key)
	return s.send(ctx, ce)
}

// PresignFailed publishes an io.simpleupload.presign.failed event
func (s *Sink) PresignFailed(ctx context.Context, event *simpleupload.PresignFailedEvent) error {
	ce, err := s.event(event.ID.String(), TypePresignFailed, event.Endpoint, event)
	if err != nil {
		return err
	}
	ce.SetTime(event.FailedAt)
	return s.send(ctx, ce)
}

func (s *Sink) event(id, typ, subject string, data any) (cloudevents.Event, error) {
	ce := cloudevents.NewEvent()
	ce.SetID(id)
	ce.SetType(typ)
	ce.SetSource(s.source)
	if subject != "" {
		ce.SetSubject(subject)
	}
	if err := ce.SetData(cloudevents.ApplicationJSON, data); err != nil {
		return ce, fmt.Errorf("encode %s event: %w", typ, err)
	}
	return ce, nil
}

func (s *Sink) send(ctx context.Context, ce cloudevents.Event) error {
	if result := s.sender.Send(ctx, ce); cloudevents.IsUndelivered(result) || cloudevents.IsNACK(result) {
		return fmt.Errorf("failed to send %s event: %w", ce.Type(), result)
	}
	return nil
}

var _ simpleupload.EventSink = (*Sink)(nil)
