package journal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const (
	// StreamName is the JetStream stream holding activity events.
	StreamName = "testdesk_events"
	// SubjectPrefix prefixes every event subject; the kind follows.
	SubjectPrefix = "testdesk.events"
)

// StartEmbeddedNATS starts an in-process NATS server with JetStream
// file storage under dataDir.
func StartEmbeddedNATS(dataDir string) (*server.Server, error) {
	opts := &server.Options{
		JetStream:  true,
		StoreDir:   dataDir,
		DontListen: true, // in-process only
		NoSigs:     true,
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		return nil, err
	}

	go ns.Start()

	if !ns.ReadyForConnections(4 * time.Second) {
		ns.Shutdown()
		return nil, errors.New("nats server failed to start within timeout")
	}

	return ns, nil
}

// ConnectInProcess creates an in-process connection to the embedded server.
func ConnectInProcess(ns *server.Server) (*nats.Conn, error) {
	return nats.Connect("", nats.InProcessServer(ns))
}

// CreateJetStream creates a JetStream context from a NATS connection.
func CreateJetStream(nc *nats.Conn) (jetstream.JetStream, error) {
	return jetstream.New(nc)
}

// SetupStream creates the event stream or updates it in place.
func SetupStream(ctx context.Context, js jetstream.JetStream) (jetstream.Stream, error) {
	stream, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      StreamName,
		Subjects:  []string{SubjectPrefix + ".>"},
		Storage:   jetstream.FileStorage,
		Retention: jetstream.LimitsPolicy,
		MaxMsgs:   10000,
		Discard:   jetstream.DiscardOld,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to setup stream %s: %w", StreamName, err)
	}
	return stream, nil
}

// Shutdown drains the connection and stops the server, each bounded by a
// timeout so a wedged server cannot hang the process.
func Shutdown(nc *nats.Conn, ns *server.Server) error {
	if nc != nil {
		drainDone := make(chan error, 1)
		go func() {
			drainDone <- nc.Drain()
		}()

		select {
		case err := <-drainDone:
			if err != nil {
				nc.Close()
			}
		case <-time.After(2 * time.Second):
			nc.Close()
		}
	}

	if ns != nil {
		ns.Shutdown()

		shutdownDone := make(chan struct{})
		go func() {
			ns.WaitForShutdown()
			close(shutdownDone)
		}()

		select {
		case <-shutdownDone:
		case <-time.After(5 * time.Second):
			return errors.New("NATS server shutdown timed out")
		}
	}

	return nil
}
