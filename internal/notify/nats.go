package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Mohsinsiddi/txdash/internal/poller"
	"github.com/Mohsinsiddi/txdash/internal/query"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// DefaultSubject is the subject prefix events are published under.
const DefaultSubject = "txdash.new"

// publisher is the subset of *nats.Conn used here.
type publisher interface {
	Publish(subject string, data []byte) error
}

// Message is the JSON payload published for each event.
type Message struct {
	Address      string           `json:"address"`
	NewHashes    []string         `json:"new_hashes"`
	Total        int              `json:"total"`
	DetectedAt   time.Time        `json:"detected_at"`
	Transactions []map[string]any `json:"transactions"`
}

// NATS publishes each event as JSON on "<prefix>.<lowercase address>".
type NATS struct {
	pub    publisher
	conn   *nats.Conn
	prefix string
	log    zerolog.Logger
}

// ConnectNATS dials url and returns a publisher. An empty prefix uses
// DefaultSubject.
func ConnectNATS(url, prefix string, log zerolog.Logger) (*NATS, error) {
	nc, err := nats.Connect(url,
		nats.Name("txdash"),
		nats.Timeout(10*time.Second),
		nats.ReconnectWait(time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}
	n := newNATS(nc, prefix, log)
	n.conn = nc
	n.log.Info().Str("url", url).Str("subject", n.prefix).Msg("NATS publisher ready")
	return n, nil
}

func newNATS(pub publisher, prefix string, log zerolog.Logger) *NATS {
	if prefix == "" {
		prefix = DefaultSubject
	}
	return &NATS{
		pub:    pub,
		prefix: strings.TrimSuffix(prefix, "."),
		log:    log.With().Str("component", "notify.nats").Logger(),
	}
}

// Subject returns the subject events for address are published on.
func (n *NATS) Subject(address string) string {
	return n.prefix + "." + strings.ToLower(address)
}

// Notify publishes ev.
func (n *NATS) Notify(ctx context.Context, ev poller.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := Message{
		Address:      ev.Address,
		NewHashes:    ev.NewHashes,
		Total:        ev.Total,
		DetectedAt:   ev.DetectedAt,
		Transactions: make([]map[string]any, len(ev.New)),
	}
	for i, tx := range ev.New {
		msg.Transactions[i] = query.Document(tx)
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshalling event: %w", err)
	}
	subject := n.Subject(ev.Address)
	if err := n.pub.Publish(subject, data); err != nil {
		return fmt.Errorf("publishing to %s: %w", subject, err)
	}
	n.log.Debug().Str("subject", subject).Int("new", len(ev.NewHashes)).Msg("published event")
	return nil
}

// Close drains and closes the connection if ConnectNATS opened it.
func (n *NATS) Close() error {
	if n.conn == nil {
		return nil
	}
	err := n.conn.Drain()
	n.log.Info().Msg("NATS publisher closed")
	return err
}
