// Package feed publishes validated pairing documents to NATS for downstream
// consumers (the map layer and filtering UI subscribe per carrier).
package feed

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/DaveBC/pairings/internal/pairing"
)

// SubjectPrefix is the root of the published subject hierarchy. Documents
// go to "<prefix>.validated.<carrier>".
const SubjectPrefix = "pairings"

// conn is the slice of *nats.Conn the publisher uses.
type conn interface {
	Publish(subject string, data []byte) error
	Flush() error
	Close()
}

// Publisher publishes validated documents to a NATS server.
type Publisher struct {
	nc  conn
	log zerolog.Logger
}

// Connect opens a NATS connection for publishing.
func Connect(url string, log zerolog.Logger) (*Publisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("pairings-feed"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Publisher{nc: nc, log: log}, nil
}

// Close flushes and closes the NATS connection.
func (p *Publisher) Close() {
	if p.nc != nil {
		_ = p.nc.Flush()
		p.nc.Close()
	}
}

// PublishDocument sends one validated document as JSON to the carrier's
// subject.
func (p *Publisher) PublishDocument(doc *pairing.Document) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	subject := Subject(doc.Codeshare)
	if err := p.nc.Publish(subject, payload); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}

	p.log.Info().
		Str("subject", subject).
		Str("month", doc.MonthCode).
		Str("year", doc.Year).
		Int("pairings", len(doc.Pairings)).
		Msg("published document")
	return nil
}

// Subject returns the publish subject for a carrier code.
func Subject(codeshare string) string {
	return fmt.Sprintf("%s.validated.%s", SubjectPrefix, strings.ToLower(codeshare))
}
