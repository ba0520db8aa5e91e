// Package events publishes per-unit compile outcomes to NATS for CI fleet
// dashboards. Publishing is best effort; a failed publish never fails a
// build.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/presencelabs/presencec/internal/logfields"
)

// DefaultSubject is used when no subject is configured.
const DefaultSubject = "presencec.builds"

// UnitResult describes the outcome of one unit's compilation.
type UnitResult struct {
	InvocationID string `json:"invocation_id"`
	Presence     string `json:"presence"`
	Success      bool   `json:"success"`
	Diagnostics  int    `json:"diagnostics"`
	DurationMS   int64  `json:"duration_ms"`
	Revision     string `json:"revision,omitempty"`
}

// Publisher emits unit results. Implementations must be safe to call from
// the orchestrator's single thread of control.
type Publisher interface {
	PublishUnitResult(ctx context.Context, r UnitResult) error
	Close()
}

// NopPublisher discards all events (default when events are not configured).
type NopPublisher struct{}

func (NopPublisher) PublishUnitResult(context.Context, UnitResult) error { return nil }
func (NopPublisher) Close()                                              {}

// NATSPublisher publishes JSON unit results on a fixed subject.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
}

// NewNATSPublisher connects to the NATS server at url.
func NewNATSPublisher(url, subject string) (*NATSPublisher, error) {
	if subject == "" {
		subject = DefaultSubject
	}
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	slog.Info("Connected build event publisher", logfields.Subject(subject))
	return &NATSPublisher{conn: conn, subject: subject}, nil
}

// PublishUnitResult publishes one result. The context is honored only for
// payload preparation; NATS publishes are fire-and-forget.
func (p *NATSPublisher) PublishUnitResult(ctx context.Context, r UnitResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode unit result: %w", err)
	}
	if err := p.conn.Publish(p.subject, payload); err != nil {
		return fmt.Errorf("publish unit result: %w", err)
	}
	return nil
}

// Close flushes and closes the connection.
func (p *NATSPublisher) Close() {
	_ = p.conn.Flush()
	p.conn.Close()
}
