package workflow

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/psyhelp/testdesk/internal/api"
	"github.com/psyhelp/testdesk/internal/assessment"
	"github.com/psyhelp/testdesk/internal/errors"
	"github.com/psyhelp/testdesk/internal/journal"
	"github.com/psyhelp/testdesk/internal/logger"
)

// Mode selects between creating and editing a test.
type Mode int

const (
	ModeAdd Mode = iota
	ModeEdit
)

func (m Mode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "add"
}

// AuthoringState is the add/edit modal state.
type AuthoringState int

const (
	AuthoringClosed AuthoringState = iota
	AuthoringLoading
	AuthoringEditing
	AuthoringSaving
	AuthoringError
)

func (s AuthoringState) String() string {
	switch s {
	case AuthoringClosed:
		return "closed"
	case AuthoringLoading:
		return "loading"
	case AuthoringEditing:
		return "editing"
	case AuthoringSaving:
		return "saving"
	case AuthoringError:
		return "error"
	default:
		return fmt.Sprintf("AuthoringState(%d)", int(s))
	}
}

// Draft is the editable content of a test.
type Draft struct {
	TestName    string
	Description string
	Authors     string // comma separated, as typed
	Questions   []assessment.DraftQuestion
}

func (d Draft) clone() Draft {
	qs := make([]assessment.DraftQuestion, len(d.Questions))
	for i, q := range d.Questions {
		qs[i] = q.Clone()
	}
	d.Questions = qs
	return d
}

// QuestionPatch merges the non-nil fields into a question.
type QuestionPatch struct {
	Body       *string
	SelectType *assessment.SelectType
	Options    []assessment.DraftOption
}

// AuthoringSnapshot is a read-only view of an authoring modal.
type AuthoringSnapshot struct {
	Mode   Mode
	State  AuthoringState
	TestID int
	Draft  Draft
	Error  string
}

// AuthoringModal edits a draft and saves it. The add and edit instances
// differ only in how the draft starts: one blank question, or the test as
// loaded from the server.
type AuthoringModal struct {
	page *Page
	mode Mode

	mu             sync.Mutex
	state          AuthoringState
	gen            uint64
	testID         int
	draft          Draft
	lastQuestionID int
	errMsg         string
}

func newAuthoringModal(p *Page, mode Mode) *AuthoringModal {
	return &AuthoringModal{page: p, mode: mode}
}

// Mode reports which instance this is.
func (m *AuthoringModal) Mode() Mode {
	return m.mode
}

// OpenAdd starts a new draft with one blank question.
func (m *AuthoringModal) OpenAdd() error {
	if m.mode != ModeAdd {
		return fmt.Errorf("open add on %s modal: %w", m.mode, errors.ErrNotReady)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reset()
	m.state = AuthoringEditing
	m.draft.Questions = []assessment.DraftQuestion{assessment.BlankQuestion(1)}
	m.lastQuestionID = 1
	return nil
}

// OpenEdit loads testID into the draft. On failure the modal stays in the
// error state until Close.
func (m *AuthoringModal) OpenEdit(ctx context.Context, testID int) error {
	if m.mode != ModeEdit {
		return fmt.Errorf("open edit on %s modal: %w", m.mode, errors.ErrNotReady)
	}

	m.mu.Lock()
	m.reset()
	m.state = AuthoringLoading
	m.testID = testID
	gen := m.gen
	m.mu.Unlock()

	release, _ := m.page.pending[OpLoad].Track(testID)
	logger.Debug("Loading test %d for editing", testID)
	resp, err := errors.RecoverWithResult(func() (api.LoadTestResponse, error) {
		return m.page.client.LoadTest(ctx, testID)
	})
	release()

	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		logger.Debug("Discarding loaded test %d: edit modal changed", testID)
		return errors.ErrStale
	}
	if err != nil {
		msg := errors.UserMessage(err, MsgLoadTestFailed)
		m.state = AuthoringError
		m.errMsg = msg
		m.mu.Unlock()
		m.page.alert(msg)
		return err
	}

	m.draft = Draft{
		TestName:    resp.Test.TestName,
		Description: resp.Test.Description,
		Authors:     assessment.FormatAuthors(resp.Test.AuthorsName),
		Questions:   assessment.DraftsFromRaw(resp.Questions),
	}
	m.ensureQuestion()
	m.state = AuthoringEditing
	m.mu.Unlock()
	return nil
}

// SetTestName sets the test name as typed.
func (m *AuthoringModal) SetTestName(name string) error {
	return m.edit(func() error {
		m.draft.TestName = name
		return nil
	})
}

// SetDescription sets the description as typed.
func (m *AuthoringModal) SetDescription(desc string) error {
	return m.edit(func() error {
		m.draft.Description = desc
		return nil
	})
}

// SetAuthors sets the comma-separated author list as typed.
func (m *AuthoringModal) SetAuthors(authors string) error {
	return m.edit(func() error {
		m.draft.Authors = authors
		return nil
	})
}

// AddQuestion appends a blank question and returns its id. Ids grow from
// the largest id handed out so far and are never reused.
func (m *AuthoringModal) AddQuestion() (int, error) {
	var id int
	err := m.edit(func() error {
		m.lastQuestionID++
		id = m.lastQuestionID
		m.draft.Questions = append(m.draft.Questions, assessment.BlankQuestion(id))
		return nil
	})
	return id, err
}

// AddOption appends an empty option to the question at index.
func (m *AuthoringModal) AddOption(index int) error {
	return m.UpdateQuestion(index, func(q assessment.DraftQuestion) assessment.DraftQuestion {
		q.Options = append(q.Options, assessment.DraftOption{})
		return q
	})
}

// SetOption sets the text of one option.
func (m *AuthoringModal) SetOption(index, option int, body string) error {
	return m.edit(func() error {
		if err := m.checkIndex(index); err != nil {
			return err
		}
		q := m.draft.Questions[index].Clone()
		if option < 0 || option >= len(q.Options) {
			return fmt.Errorf("option %d of question %d: %w", option, index, errors.ErrNotFound)
		}
		q.Options[option].Body = body
		m.draft.Questions[index] = q
		return nil
	})
}

// UpdateQuestion replaces the question at index with fn's result, leaving
// the others untouched.
func (m *AuthoringModal) UpdateQuestion(index int, fn func(assessment.DraftQuestion) assessment.DraftQuestion) error {
	return m.edit(func() error {
		if err := m.checkIndex(index); err != nil {
			return err
		}
		m.draft.Questions[index] = fn(m.draft.Questions[index].Clone())
		m.noteQuestionID(m.draft.Questions[index].ID)
		return nil
	})
}

// PatchQuestion merges patch into the question at index.
func (m *AuthoringModal) PatchQuestion(index int, patch QuestionPatch) error {
	return m.UpdateQuestion(index, func(q assessment.DraftQuestion) assessment.DraftQuestion {
		if patch.Body != nil {
			q.Body = *patch.Body
		}
		if patch.SelectType != nil {
			q.SelectType = *patch.SelectType
		}
		if patch.Options != nil {
			q.Options = append([]assessment.DraftOption(nil), patch.Options...)
		}
		return q
	})
}

// LoadDraft replaces the whole draft, for example from a file.
func (m *AuthoringModal) LoadDraft(d Draft) error {
	return m.edit(func() error {
		m.draft = d.clone()
		for _, q := range m.draft.Questions {
			m.noteQuestionID(q.ID)
		}
		m.ensureQuestion()
		return nil
	})
}

// Save validates the draft and creates or updates the test. Validation
// failures never reach the server. A save already in flight makes later
// calls fail with ErrBusy.
func (m *AuthoringModal) Save(ctx context.Context) error {
	m.mu.Lock()
	switch m.state {
	case AuthoringSaving:
		m.mu.Unlock()
		return errors.ErrBusy
	case AuthoringEditing:
	default:
		state := m.state
		m.mu.Unlock()
		return fmt.Errorf("save in state %s: %w", state, errors.ErrNotReady)
	}

	name := strings.TrimSpace(m.draft.TestName)
	desc := strings.TrimSpace(m.draft.Description)
	authors := assessment.ParseAuthors(m.draft.Authors)
	if name == "" || desc == "" || len(authors) == 0 {
		m.mu.Unlock()
		m.page.alert(MsgFillTestFields)
		return errors.NewValidationError("test", MsgFillTestFields)
	}

	questions, err := assessment.NormalizeQuestionsForSave(m.draft.clone().Questions)
	if err != nil {
		m.mu.Unlock()
		m.page.alert(errors.UserMessage(err, ""))
		return err
	}

	testID := m.testID
	release, ok := m.page.pending[OpSave].Track(testID)
	if !ok {
		m.mu.Unlock()
		return errors.ErrBusy
	}
	defer release()

	gen := m.gen
	m.state = AuthoringSaving
	m.mu.Unlock()

	var saveErr error
	if m.mode == ModeEdit {
		saveErr = m.saveEdit(ctx, testID, name, desc, authors, questions)
	} else {
		saveErr = m.saveAdd(ctx, name, desc, authors, questions)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gen != gen {
		return errors.ErrStale
	}
	if saveErr != nil {
		m.state = AuthoringEditing
		return saveErr
	}
	m.reset()
	return nil
}

func (m *AuthoringModal) saveEdit(ctx context.Context, testID int, name, desc string, authors []string, questions []assessment.Question) error {
	logger.Debug("Updating test %d with %d questions", testID, len(questions))
	resp, err := errors.RecoverWithResult(func() (api.UpdateTestResponse, error) {
		return m.page.client.UpdateTest(ctx, api.UpdateTestRequest{
			TestID:      testID,
			TestName:    name,
			Description: desc,
			AuthorsName: authors,
			Questions:   questions,
		})
	})
	if err != nil {
		m.page.alert(errors.UserMessage(err, MsgUpdateFailed))
		return err
	}

	patch := EntryPatch{TestName: name, Description: desc, QuestionCount: len(questions)}
	if t := resp.Test; t.Present {
		if t.TestName != "" {
			patch.TestName = t.TestName
		}
		if t.Description != "" {
			patch.Description = t.Description
		}
		if t.HasCount {
			patch.QuestionCount = t.QuestionCount
		}
	}
	m.page.list.Reconcile(testID, patch)
	m.page.record(ctx, journal.Event{
		Kind:    journal.KindUpdate,
		TestID:  testID,
		UserID:  m.page.userID,
		Summary: "updated " + patch.TestName,
	})
	return nil
}

func (m *AuthoringModal) saveAdd(ctx context.Context, name, desc string, authors []string, questions []assessment.Question) error {
	logger.Debug("Creating test %q with %d questions", name, len(questions))
	_, err := errors.RecoverWithResult(func() (api.MessageResponse, error) {
		return m.page.client.AddTest(ctx, api.AddTestRequest{
			UserID:      api.UserID(m.page.userID),
			TestName:    name,
			Description: desc,
			AuthorsName: authors,
			Questions:   questions,
		})
	})
	if err != nil {
		m.page.alert(errors.UserMessage(err, MsgCreateFailed))
		return err
	}

	m.page.record(ctx, journal.Event{
		Kind:    journal.KindCreate,
		UserID:  m.page.userID,
		Summary: "created " + name,
	})
	// server-assigned ids and ordering win, so refetch instead of splicing
	if err := m.page.Refresh(ctx); err != nil {
		logger.Warn("Test created but list refresh failed: %v", err)
	}
	return nil
}

// Close discards the draft.
func (m *AuthoringModal) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reset()
}

// Snapshot returns the current modal state.
func (m *AuthoringModal) Snapshot() AuthoringSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return AuthoringSnapshot{
		Mode:   m.mode,
		State:  m.state,
		TestID: m.testID,
		Draft:  m.draft.clone(),
		Error:  m.errMsg,
	}
}

func (m *AuthoringModal) edit(fn func() error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != AuthoringEditing {
		return fmt.Errorf("edit in state %s: %w", m.state, errors.ErrNotReady)
	}
	return fn()
}

func (m *AuthoringModal) checkIndex(index int) error {
	if index < 0 || index >= len(m.draft.Questions) {
		return fmt.Errorf("question %d: %w", index, errors.ErrNotFound)
	}
	return nil
}

func (m *AuthoringModal) noteQuestionID(id int) {
	m.lastQuestionID = max(m.lastQuestionID, id)
}

// ensureQuestion keeps at least one question in the draft and syncs the
// id counter with the loaded questions.
func (m *AuthoringModal) ensureQuestion() {
	for _, q := range m.draft.Questions {
		m.noteQuestionID(q.ID)
	}
	if len(m.draft.Questions) == 0 {
		m.lastQuestionID++
		m.draft.Questions = []assessment.DraftQuestion{assessment.BlankQuestion(m.lastQuestionID)}
	}
}

func (m *AuthoringModal) reset() {
	m.gen++
	m.state = AuthoringClosed
	m.testID = 0
	m.draft = Draft{}
	m.lastQuestionID = 0
	m.errMsg = ""
}
