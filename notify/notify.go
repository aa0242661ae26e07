// Package notify publishes domain events to NATS JetStream as JSON.
// A nil *Publisher accepts and drops every event.
package notify

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/pjy612/ManifestAutoUpdate-bak/errors"
)

// DefaultStream is the stream created for the event subjects.
const DefaultStream = "MANIFESTSYNC"

// Subjects is the subject filter of DefaultStream.
const Subjects = "manifestsync.>"

type jetStream interface {
	Publish(subj string, data []byte, opts ...nats.PubOpt) (*nats.PubAck, error)
}

// Publisher publishes events.
type Publisher struct {
	conn   *nats.Conn
	js     jetStream
	logger *slog.Logger
}

// Options configures Connect.
type Options struct {
	// URL of the NATS server.
	URL string
	// Stream is created when missing; empty means DefaultStream.
	Stream string
	Logger *slog.Logger
	// NATS are extra connection options.
	NATS []nats.Option
}

// Connect dials NATS, obtains a JetStream context and makes sure the event
// stream exists.
func Connect(opts Options) (*Publisher, error) {
	if opts.URL == "" {
		return nil, errors.New(errors.CodeInvalidConfig, "notify: URL is required")
	}
	if opts.Stream == "" {
		opts.Stream = DefaultStream
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	nc, err := nats.Connect(opts.URL, append([]nats.Option{nats.Name("manifestsync")}, opts.NATS...)...)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeNetwork, "connecting to nats")
	}
	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, errors.Wrap(err, errors.CodeUnavailable, "opening jetstream")
	}

	if _, err := js.StreamInfo(opts.Stream); err != nil {
		if !stderrors.Is(err, nats.ErrStreamNotFound) {
			nc.Close()
			return nil, errors.Wrap(err, errors.CodeUnavailable, "reading event stream")
		}
		if _, err := js.AddStream(&nats.StreamConfig{Name: opts.Stream, Subjects: []string{Subjects}}); err != nil {
			nc.Close()
			return nil, errors.Wrap(err, errors.CodeUnavailable, "creating event stream")
		}
		logger.Info("event stream created", "stream", opts.Stream)
	}

	return &Publisher{conn: nc, js: js, logger: logger}, nil
}

// Publish encodes event as JSON and publishes it on subject.
func (p *Publisher) Publish(ctx context.Context, subject string, event any) error {
	if p == nil {
		return nil
	}
	data, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, errors.CodeInvalidInput, "encoding event")
	}
	if _, err := p.js.Publish(subject, data, nats.Context(ctx)); err != nil {
		return errors.WrapWithContext(err, errors.CodeNetwork, "publishing event",
			map[string]interface{}{"subject": subject})
	}
	p.logger.DebugContext(ctx, "event published", "subject", subject)
	return nil
}

// Close drains the connection.
func (p *Publisher) Close() {
	if p == nil || p.conn == nil {
		return
	}
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
	}
}
