// Package tui is the terminal front end for taking a test. The model is a
// thin view over workflow.AttemptModal: it forwards key presses as
// commands and renders the modal snapshot.
package tui

import (
	"context"
	"fmt"
	"strings"

	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	uv "github.com/charmbracelet/ultraviolet"

	"github.com/psyhelp/testdesk/internal/errors"
	"github.com/psyhelp/testdesk/internal/workflow"
)

type questionsLoadedMsg struct{ err error }

type submittedMsg struct{ err error }

// AttemptResult is what the runner reports after the program exits.
type AttemptResult struct {
	Submitted bool
	Cancelled bool
}

// AttemptModel renders one attempt.
type AttemptModel struct {
	ctx    context.Context
	modal  *workflow.AttemptModal
	testID int

	keys    keyMap
	spinner spinner.Model

	question int // index of the question on screen
	cursor   int // option index within that question
	flash    string
	result   AttemptResult

	width  int
	height int
}

// NewAttemptModel creates a model that attempts testID on page.
func NewAttemptModel(ctx context.Context, page *workflow.Page, testID int) *AttemptModel {
	return &AttemptModel{
		ctx:    ctx,
		modal:  page.Attempt,
		testID: testID,
		keys:   defaultKeyMap(),
		spinner: spinner.New(
			spinner.WithSpinner(spinner.MiniDot),
			spinner.WithStyle(lipgloss.NewStyle().Foreground(colorPrimary)),
		),
		width:  80,
		height: 24,
	}
}

// RunAttempt runs the attempt in a standalone program and reports how it
// ended.
func RunAttempt(ctx context.Context, page *workflow.Page, testID int) (AttemptResult, error) {
	m := NewAttemptModel(ctx, page, testID)
	p := tea.NewProgram(m, tea.WithContext(ctx))

	finalModel, err := p.Run()
	if err != nil {
		return AttemptResult{}, fmt.Errorf("attempt failed: %w", err)
	}
	final, ok := finalModel.(*AttemptModel)
	if !ok {
		return AttemptResult{}, fmt.Errorf("unexpected model type")
	}
	return final.result, nil
}

// Result reports how the attempt ended.
func (m *AttemptModel) Result() AttemptResult {
	return m.result
}

// Init starts loading questions.
func (m *AttemptModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.load())
}

func (m *AttemptModel) load() tea.Cmd {
	return func() tea.Msg {
		return questionsLoadedMsg{err: m.modal.Open(m.ctx, m.testID)}
	}
}

func (m *AttemptModel) submit() tea.Cmd {
	return func() tea.Msg {
		return submittedMsg{err: m.modal.Submit(m.ctx)}
	}
}

// Update handles messages.
func (m *AttemptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case questionsLoadedMsg:
		m.question, m.cursor = 0, 0
		return m, nil

	case submittedMsg:
		switch {
		case msg.err == nil:
			m.result.Submitted = true
			return m, tea.Quit
		case errors.Is(msg.err, errors.ErrBusy):
			return m, nil
		default:
			m.flash = errors.UserMessage(msg.err, workflow.MsgSubmitFailed)
			return m, nil
		}

	case tea.KeyPressMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *AttemptModel) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Close) {
		m.modal.Close()
		m.result.Cancelled = true
		return m, tea.Quit
	}

	snap := m.modal.Snapshot()
	if snap.State != workflow.AttemptReady || len(snap.Questions) == 0 {
		if snap.State == workflow.AttemptReady && key.Matches(msg, m.keys.Submit) {
			return m, m.submit()
		}
		return m, nil
	}
	if m.question >= len(snap.Questions) {
		m.question, m.cursor = 0, 0
	}
	q := snap.Questions[m.question]

	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(q.Options)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Prev):
		if m.question > 0 {
			m.question--
			m.cursor = 0
		}
	case key.Matches(msg, m.keys.Next):
		if m.question < len(snap.Questions)-1 {
			m.question++
			m.cursor = 0
		}
	case key.Matches(msg, m.keys.Toggle):
		m.flash = ""
		if err := m.modal.Toggle(q.Key(), m.cursor+1); err != nil {
			m.flash = err.Error()
		}
	case key.Matches(msg, m.keys.Submit):
		m.flash = ""
		return m, m.submit()
	}
	return m, nil
}

// View renders the modal.
func (m *AttemptModel) View() tea.View {
	var view tea.View
	view.AltScreen = true

	content := styleModal.Width(min(m.width-4, 100)).Render(m.renderBody())

	canvas := uv.NewScreenBuffer(m.width, m.height)
	uv.NewStyledString(content).Draw(canvas, uv.Rectangle{
		Min: uv.Position{X: 0, Y: 0},
		Max: uv.Position{X: m.width, Y: m.height},
	})
	view.Content = lipgloss.NewLayer(canvas.Render())
	return view
}

func (m *AttemptModel) renderBody() string {
	snap := m.modal.Snapshot()
	var b strings.Builder

	title := snap.TestName
	if title == "" {
		title = fmt.Sprintf("Тест #%d", m.testID)
	}
	b.WriteString(styleTitle.Render(title))
	b.WriteString("\n\n")

	switch snap.State {
	case workflow.AttemptOpening:
		b.WriteString(m.spinner.View() + " Загрузка вопросов...")
	case workflow.AttemptSubmitting:
		b.WriteString(m.spinner.View() + " Отправка ответов...")
	case workflow.AttemptError:
		b.WriteString(styleError.Render(snap.Error))
		b.WriteString("\n\n")
		b.WriteString(styleHelp.Render("esc: close"))
	case workflow.AttemptReady:
		m.renderQuestion(&b, snap)
	default:
		b.WriteString(styleHelp.Render("Attempt closed"))
	}
	return b.String()
}

func (m *AttemptModel) renderQuestion(b *strings.Builder, snap workflow.AttemptSnapshot) {
	if len(snap.Questions) == 0 {
		b.WriteString(styleOption.Render("В тесте нет вопросов."))
		b.WriteString("\n\n")
		m.renderFooter(b)
		return
	}

	idx := min(m.question, len(snap.Questions)-1)
	q := snap.Questions[idx]
	answered := 0
	for _, sq := range snap.Questions {
		if len(snap.Selected[sq.Key()]) > 0 {
			answered++
		}
	}

	b.WriteString(styleProgress.Render(fmt.Sprintf("Вопрос %d из %d · отвечено %d", idx+1, len(snap.Questions), answered)))
	b.WriteString("\n")
	b.WriteString(styleQuestion.Render(q.Body))
	b.WriteString("\n\n")

	chosen := make(map[int]bool, len(snap.Selected[q.Key()]))
	for _, n := range snap.Selected[q.Key()] {
		chosen[n] = true
	}
	for i, opt := range q.Options {
		b.WriteString(m.renderOption(i, opt, chosen[i+1], q.SelectType.IsSingle()))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	m.renderFooter(b)
}

func (m *AttemptModel) renderOption(i int, text string, checked, single bool) string {
	var mark string
	switch {
	case single && checked:
		mark = "(•)"
	case single:
		mark = "( )"
	case checked:
		mark = "[x]"
	default:
		mark = "[ ]"
	}
	if checked {
		mark = styleChecked.Render(mark)
	}

	pointer := "  "
	label := styleOption.Render(text)
	if i == m.cursor {
		pointer = styleCursor.Render("> ")
		label = styleCursor.Render(text)
	}
	return pointer + mark + " " + label
}

func (m *AttemptModel) renderFooter(b *strings.Builder) {
	if m.flash != "" {
		b.WriteString(styleError.Render(m.flash))
		b.WriteString("\n")
	}
	parts := make([]string, 0, len(m.keys.bindings()))
	for _, kb := range m.keys.bindings() {
		h := kb.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	b.WriteString(styleHelp.Render(strings.Join(parts, " · ")))
}
