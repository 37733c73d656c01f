// Package workflow drives the test catalog page: the shared test list,
// the attempt modal, the add and edit modals and deletion. Each modal is
// an explicit state machine that exposes commands and a read-only
// snapshot. Commands never panic past this package; failures come back as
// errors and the user-facing text goes to the page Notifier.
package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/psyhelp/testdesk/internal/api"
	"github.com/psyhelp/testdesk/internal/errors"
	"github.com/psyhelp/testdesk/internal/journal"
	"github.com/psyhelp/testdesk/internal/logger"
	"github.com/psyhelp/testdesk/internal/pending"
)

// Notifier receives user-facing alerts.
type Notifier interface {
	Notify(message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(message string)

// Notify implements Notifier.
func (f NotifierFunc) Notify(message string) { f(message) }

// Recorder stores completed mutations, usually in the journal.
type Recorder interface {
	Record(ctx context.Context, e journal.Event) error
}

// OpKind groups pending operations.
type OpKind string

const (
	OpFetch  OpKind = "fetch"
	OpSubmit OpKind = "submit"
	OpLoad   OpKind = "load"
	OpSave   OpKind = "save"
	OpDelete OpKind = "delete"
)

var opKinds = []OpKind{OpFetch, OpSubmit, OpLoad, OpSave, OpDelete}

// PageOption configures a Page.
type PageOption func(*Page)

// WithNotifier sets where alerts go. The default only logs them.
func WithNotifier(n Notifier) PageOption {
	return func(p *Page) { p.notifier = n }
}

// WithRecorder records successful mutations.
func WithRecorder(r Recorder) PageOption {
	return func(p *Page) { p.recorder = r }
}

// WithPendingObserver is called with the in-flight count of a kind every
// time it changes.
func WithPendingObserver(fn func(kind string, inflight int)) PageOption {
	return func(p *Page) { p.pendingObserver = fn }
}

// Page owns the test list and the modals that act on it.
type Page struct {
	client api.Service
	userID string
	list   *TestList

	notifier        Notifier
	recorder        Recorder
	pendingObserver func(kind string, inflight int)
	pending         map[OpKind]*pending.Tracker[int]

	Attempt *AttemptModal
	Add     *AuthoringModal
	Edit    *AuthoringModal
}

// NewPage creates a page for userID. An empty userID means the user is not
// signed in.
func NewPage(client api.Service, userID string, opts ...PageOption) *Page {
	p := &Page{
		client:  client,
		userID:  strings.TrimSpace(userID),
		list:    NewTestList(),
		pending: make(map[OpKind]*pending.Tracker[int], len(opKinds)),
	}
	for _, opt := range opts {
		opt(p)
	}

	for _, kind := range opKinds {
		tracker := pending.New[int]()
		if p.pendingObserver != nil {
			observe, name := p.pendingObserver, string(kind)
			tracker.OnChange(func(n int) { observe(name, n) })
		}
		p.pending[kind] = tracker
	}

	p.Attempt = newAttemptModal(p)
	p.Add = newAuthoringModal(p, ModeAdd)
	p.Edit = newAuthoringModal(p, ModeEdit)
	return p
}

// UserID returns the current user id.
func (p *Page) UserID() string {
	return p.userID
}

// List returns the shared test list.
func (p *Page) List() *TestList {
	return p.list
}

// Client returns the service the page talks to.
func (p *Page) Client() api.Service {
	return p.client
}

// IsPending reports whether an operation of kind is in flight for id.
func (p *Page) IsPending(kind OpKind, id int) bool {
	t, ok := p.pending[kind]
	return ok && t.IsPending(id)
}

// Refresh replaces the list with the server's catalog.
func (p *Page) Refresh(ctx context.Context) error {
	logger.Debug("Refreshing test list for user %q", p.userID)

	tests, err := errors.RecoverWithResult(func() ([]api.TestSummary, error) {
		return p.client.ListTests(ctx, p.userID)
	})
	if err != nil {
		p.alert(errors.UserMessage(err, MsgListFailed))
		return err
	}

	entries := make([]TestEntry, 0, len(tests))
	for _, t := range tests {
		entries = append(entries, entryFromSummary(t))
	}
	p.list.Replace(entries)
	logger.Debug("Test list refreshed: %d tests", len(entries))
	return nil
}

// DeleteTest deletes a test and drops it from the list. A delete already in
// flight for the same id is rejected with ErrBusy; other ids proceed.
func (p *Page) DeleteTest(ctx context.Context, testID int) error {
	release, ok := p.pending[OpDelete].Track(testID)
	if !ok {
		return fmt.Errorf("delete test %d: %w", testID, errors.ErrBusy)
	}
	defer release()

	logger.Debug("Deleting test %d", testID)
	resp, err := errors.RecoverWithResult(func() (api.DeleteTestResponse, error) {
		return p.client.DeleteTest(ctx, testID)
	})
	if err != nil {
		p.alert(errors.UserMessage(err, MsgDeleteFailed))
		return err
	}

	if !resp.Succeeded() {
		msg := strings.TrimSpace(string(resp.Message))
		if msg == "" {
			msg = MsgDeleteFailed
		}
		p.alert(msg)
		return &errors.ServerError{Op: api.OpDeleteTest, StatusCode: 200, Message: msg}
	}

	name := ""
	if e, ok := p.list.Get(testID); ok {
		name = e.TestName
	}
	p.list.Remove(testID)
	p.record(ctx, journal.Event{
		Kind:    journal.KindDelete,
		TestID:  testID,
		UserID:  p.userID,
		Summary: strings.TrimSpace("deleted " + name),
	})
	return nil
}

func (p *Page) alert(msg string) {
	if msg == "" {
		return
	}
	logger.Warn("%s", msg)
	if p.notifier != nil {
		p.notifier.Notify(msg)
	}
}

func (p *Page) record(ctx context.Context, e journal.Event) {
	if p.recorder == nil {
		return
	}
	if err := p.recorder.Record(context.WithoutCancel(ctx), e); err != nil {
		logger.Warn("Failed to record %s event: %v", e.Kind, err)
	}
}
