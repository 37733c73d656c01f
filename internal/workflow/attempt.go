package workflow

import (
	"context"
	"fmt"
	"sync"

	"github.com/psyhelp/testdesk/internal/api"
	"github.com/psyhelp/testdesk/internal/assessment"
	"github.com/psyhelp/testdesk/internal/errors"
	"github.com/psyhelp/testdesk/internal/journal"
	"github.com/psyhelp/testdesk/internal/logger"
)

// AttemptState is the attempt modal state.
type AttemptState int

const (
	AttemptClosed AttemptState = iota
	AttemptOpening
	AttemptReady
	AttemptSubmitting
	AttemptError
)

func (s AttemptState) String() string {
	switch s {
	case AttemptClosed:
		return "closed"
	case AttemptOpening:
		return "opening"
	case AttemptReady:
		return "ready"
	case AttemptSubmitting:
		return "submitting"
	case AttemptError:
		return "error"
	default:
		return fmt.Sprintf("AttemptState(%d)", int(s))
	}
}

// AttemptSnapshot is a read-only view of the attempt modal.
type AttemptSnapshot struct {
	State       AttemptState
	TestID      int
	TestName    string
	Questions   []assessment.AttemptQuestion
	Selected    map[string][]int
	AllAnswered bool
	Error       string
}

// AttemptModal runs one test attempt at a time:
// closed -> opening -> ready -> submitting -> closed, with error reachable
// from opening. Every open and close bumps a generation so responses that
// arrive for an earlier opening are discarded.
type AttemptModal struct {
	page *Page

	mu        sync.Mutex
	state     AttemptState
	gen       uint64
	testID    int
	testName  string
	questions []assessment.AttemptQuestion
	selection *assessment.Selection
	errMsg    string
}

func newAttemptModal(p *Page) *AttemptModal {
	return &AttemptModal{page: p, selection: assessment.NewSelection()}
}

// Open starts an attempt at testID and loads its questions. On failure the
// modal stays open in the error state until Close.
func (m *AttemptModal) Open(ctx context.Context, testID int) error {
	m.mu.Lock()
	m.gen++
	gen := m.gen
	m.state = AttemptOpening
	m.testID = testID
	m.testName = ""
	if e, ok := m.page.list.Get(testID); ok {
		m.testName = e.TestName
	}
	m.questions = nil
	m.selection = assessment.NewSelection()
	m.errMsg = ""
	m.mu.Unlock()

	release, _ := m.page.pending[OpFetch].Track(testID)
	logger.Debug("Fetching questions for test %d", testID)
	raw, err := errors.RecoverWithResult(func() (assessment.RawQuestions, error) {
		return m.page.client.FetchQuestions(ctx, testID)
	})
	release()

	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		logger.Debug("Discarding questions for test %d: attempt modal changed", testID)
		return errors.ErrStale
	}
	if err != nil {
		msg := errors.UserMessage(err, MsgLoadQuestionsFailed)
		m.state = AttemptError
		m.errMsg = msg
		m.mu.Unlock()
		m.page.alert(msg)
		return err
	}
	m.questions = assessment.AttemptQuestionsFromRaw(raw)
	m.state = AttemptReady
	m.mu.Unlock()
	return nil
}

// Toggle selects or deselects option (1-based) on the question with key.
func (m *AttemptModal) Toggle(key string, option int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != AttemptReady {
		return fmt.Errorf("toggle in state %s: %w", m.state, errors.ErrNotReady)
	}
	for _, q := range m.questions {
		if q.Key() == key {
			m.selection.Toggle(key, option, q.SelectType.IsSingle())
			return nil
		}
	}
	return fmt.Errorf("question %s: %w", key, errors.ErrNotFound)
}

// Submit sends the answers. It is rejected without a state change when a
// question is unanswered or no user is signed in, and dropped with ErrBusy
// while a submission is in flight. On failure the modal returns to ready
// with answers kept; on success the test is marked completed and the
// modal closes.
func (m *AttemptModal) Submit(ctx context.Context) error {
	m.mu.Lock()
	switch m.state {
	case AttemptSubmitting:
		m.mu.Unlock()
		return errors.ErrBusy
	case AttemptReady:
	default:
		state := m.state
		m.mu.Unlock()
		return fmt.Errorf("submit in state %s: %w", state, errors.ErrNotReady)
	}

	if !m.selection.AllAnswered(m.questions) {
		m.mu.Unlock()
		m.page.alert(MsgAnswerAll)
		return errors.NewValidationError("answers", MsgAnswerAll)
	}
	if m.page.userID == "" {
		m.mu.Unlock()
		m.page.alert(MsgSignInRequired)
		return errors.NewValidationError("userId", MsgSignInRequired)
	}

	testID := m.testID
	release, ok := m.page.pending[OpSubmit].Track(testID)
	if !ok {
		m.mu.Unlock()
		return errors.ErrBusy
	}
	defer release()

	gen := m.gen
	req := api.SubmitAttemptRequest{
		TestID:  testID,
		UserID:  api.UserID(m.page.userID),
		Answers: m.selection.Answers(m.questions),
	}
	m.state = AttemptSubmitting
	m.mu.Unlock()

	logger.Debug("Submitting %d answers for test %d", len(req.Answers), testID)
	_, err := errors.RecoverWithResult(func() (api.MessageResponse, error) {
		return m.page.client.SubmitAttempt(ctx, req)
	})

	if err != nil {
		m.mu.Lock()
		stale := m.gen != gen
		if !stale {
			m.state = AttemptReady
		}
		m.mu.Unlock()
		if stale {
			return errors.ErrStale
		}
		m.page.alert(errors.UserMessage(err, MsgSubmitFailed))
		return err
	}

	// the server accepted the attempt, so the list reflects it even if
	// the modal moved on
	m.page.list.MarkCompleted(testID)
	m.page.record(ctx, journal.Event{
		Kind:    journal.KindAttempt,
		TestID:  testID,
		UserID:  m.page.userID,
		Summary: fmt.Sprintf("submitted %d answers", len(req.Answers)),
	})

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gen != gen {
		return errors.ErrStale
	}
	m.reset()
	return nil
}

// Close discards the attempt. A request still in flight completes but its
// result no longer touches the modal.
func (m *AttemptModal) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reset()
}

// Snapshot returns the current modal state.
func (m *AttemptModal) Snapshot() AttemptSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return AttemptSnapshot{
		State:       m.state,
		TestID:      m.testID,
		TestName:    m.testName,
		Questions:   append([]assessment.AttemptQuestion(nil), m.questions...),
		Selected:    m.selection.Snapshot(),
		AllAnswered: m.selection.AllAnswered(m.questions),
		Error:       m.errMsg,
	}
}

func (m *AttemptModal) reset() {
	m.gen++
	m.state = AttemptClosed
	m.testID = 0
	m.testName = ""
	m.questions = nil
	m.selection = assessment.NewSelection()
	m.errMsg = ""
}
