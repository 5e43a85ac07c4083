package sinks

import (
	"context"
	"errors"
	"fmt"

	"github.com/JakeFAU/docs-translator/internal/progress"
	"github.com/JakeFAU/docs-translator/internal/publisher"
)

// PublishSink forwards events to a message topic. By default only run-level
// events are published; PageEvents adds per-page events.
type PublishSink struct {
	pub        publisher.Publisher
	topic      string
	pageEvents bool
}

// PublishOption customises a PublishSink.
type PublishOption func(*PublishSink)

// PageEvents publishes page events as well as run events.
func PageEvents() PublishOption {
	return func(s *PublishSink) { s.pageEvents = true }
}

// NewPublishSink creates a sink publishing to topic.
func NewPublishSink(pub publisher.Publisher, topic string, opts ...PublishOption) (*PublishSink, error) {
	if pub == nil {
		return nil, errors.New("publisher is required")
	}
	if topic == "" {
		return nil, errors.New("topic is required")
	}
	s := &PublishSink{pub: pub, topic: topic}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Consume publishes each selected event, returning the joined errors.
func (s *PublishSink) Consume(ctx context.Context, batch []progress.Event) error {
	var errs []error
	for _, evt := range batch {
		if !s.pageEvents && evt.Kind != progress.KindRunStart && evt.Kind != progress.KindRunDone {
			continue
		}
		if _, err := s.pub.Publish(ctx, s.topic, evt); err != nil {
			errs = append(errs, fmt.Errorf("publish %s: %w", evt.Kind, err))
		}
	}
	return errors.Join(errs...)
}

// Close implements progress.Sink.
func (s *PublishSink) Close(context.Context) error {
	return nil
}
