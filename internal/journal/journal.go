// Package journal keeps a local, append-only log of what the user did:
// attempts submitted, tests created, edited and deleted. Events live in a
// JetStream stream on an embedded NATS server so they survive restarts.
package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/psyhelp/testdesk/internal/errors"
	"github.com/psyhelp/testdesk/internal/logger"
)

// Kind names an event type. It is the last subject token.
type Kind string

const (
	KindAttempt Kind = "attempt"
	KindCreate  Kind = "create"
	KindUpdate  Kind = "update"
	KindDelete  Kind = "delete"
)

// Event is one journal entry.
type Event struct {
	ID      string    `json:"id"`
	Kind    Kind      `json:"kind"`
	TestID  int       `json:"test_id,omitempty"`
	UserID  string    `json:"user_id,omitempty"`
	Summary string    `json:"summary"`
	At      time.Time `json:"at"`
}

// Subject returns the subject an event of kind k is published on.
func Subject(k Kind) string {
	return SubjectPrefix + "." + string(k)
}

// Journal publishes and replays events.
type Journal struct {
	js     jetstream.JetStream
	stream jetstream.Stream
	retry  errors.RetryConfig

	// owned resources, set by Open
	nc *nats.Conn
	ns *server.Server
}

// New wraps an existing JetStream context and stream.
func New(js jetstream.JetStream, stream jetstream.Stream) *Journal {
	return &Journal{js: js, stream: stream, retry: errors.DefaultRetryConfig()}
}

// Open starts an embedded server under dataDir/nats and returns a journal
// that owns it. Close releases everything.
func Open(ctx context.Context, dataDir string) (*Journal, error) {
	ns, err := StartEmbeddedNATS(filepath.Join(dataDir, "nats"))
	if err != nil {
		return nil, fmt.Errorf("failed to start NATS: %w", err)
	}

	nc, err := ConnectInProcess(ns)
	if err != nil {
		ns.Shutdown()
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := CreateJetStream(nc)
	if err != nil {
		nc.Close()
		ns.Shutdown()
		return nil, fmt.Errorf("failed to create JetStream: %w", err)
	}

	stream, err := SetupStream(ctx, js)
	if err != nil {
		nc.Close()
		ns.Shutdown()
		return nil, err
	}

	j := New(js, stream)
	j.nc = nc
	j.ns = ns
	return j, nil
}

// Close shuts down resources created by Open. It is a no-op for journals
// built with New.
func (j *Journal) Close() error {
	if j == nil || (j.nc == nil && j.ns == nil) {
		return nil
	}
	err := Shutdown(j.nc, j.ns)
	j.nc, j.ns = nil, nil
	return err
}

// Record publishes e, filling in ID and At when empty. A publish that finds
// no stream listening is retried.
func (j *Journal) Record(ctx context.Context, e Event) error {
	if e.Kind == "" {
		return fmt.Errorf("journal: event kind is required")
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("journal: marshal event: %w", err)
	}

	// Retried publishes are deduplicated by the message ID.
	err = errors.Retry(ctx, j.retry, func() error {
		_, err := j.js.Publish(ctx, Subject(e.Kind), data, jetstream.WithMsgID(e.ID))
		if errors.Is(err, jetstream.ErrNoStreamResponse) || errors.Is(err, nats.ErrNoResponders) {
			return errors.NewTransientError("journal publish", err)
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("journal: publish %s: %w", e.Kind, err)
	}
	logger.Debug("Journal recorded %s event %s", e.Kind, e.ID)
	return nil
}

// ListOptions narrows List.
type ListOptions struct {
	Kind  Kind // empty means every kind
	Limit int  // most recent N, zero means all
}

// List returns events oldest first.
func (j *Journal) List(ctx context.Context, opts ListOptions) ([]Event, error) {
	info, err := j.stream.Info(ctx)
	if err != nil {
		return nil, fmt.Errorf("journal: stream info: %w", err)
	}
	if info.State.Msgs == 0 {
		return []Event{}, nil
	}

	filter := SubjectPrefix + ".>"
	if opts.Kind != "" {
		filter = Subject(opts.Kind)
	}

	cons, err := j.stream.OrderedConsumer(ctx, jetstream.OrderedConsumerConfig{
		FilterSubjects: []string{filter},
		DeliverPolicy:  jetstream.DeliverAllPolicy,
	})
	if err != nil {
		return nil, fmt.Errorf("journal: create consumer: %w", err)
	}

	batch, err := cons.Fetch(int(info.State.Msgs), jetstream.FetchMaxWait(time.Second))
	if err != nil {
		return nil, fmt.Errorf("journal: fetch: %w", err)
	}

	events := make([]Event, 0, info.State.Msgs)
	for msg := range batch.Messages() {
		var e Event
		if err := json.Unmarshal(msg.Data(), &e); err != nil {
			logger.Warn("Journal skipped malformed event on %s: %v", msg.Subject(), err)
			continue
		}
		if e.Kind == "" {
			e.Kind = Kind(strings.TrimPrefix(msg.Subject(), SubjectPrefix+"."))
		}
		events = append(events, e)
	}
	if err := batch.Error(); err != nil {
		// a short batch ends with a timeout once the filter runs dry
		logger.Debug("Journal fetch ended: %v", err)
	}

	if opts.Limit > 0 && len(events) > opts.Limit {
		events = events[len(events)-opts.Limit:]
	}
	return events, nil
}
