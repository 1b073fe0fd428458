// Package ask provides the question and answer view for the TUI.
package ask

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/components/sources"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

const noDocumentsText = "No relevant documents found. Upload some documents first."

// View represents the ask view with input, answer panel, sources and status bar.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.QuestionInput
	answer    viewport.Model
	sources   *sources.List
	statusbar *status.Bar

	qaService driving.QAService
	ctx       context.Context
	topK      int

	width      int
	height     int
	ready      bool
	err        error
	last       *domain.Answer
	answered   bool
	focusInput bool // true = typing a question, false = reading the answer
}

// NewView creates a new ask view. topK <= 0 uses the default.
func NewView(s *styles.Styles, km *keymap.KeyMap, qaService driving.QAService, topK int) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	if topK <= 0 {
		topK = domain.DefaultTopK
	}

	return &View{
		styles:     s,
		keymap:     km,
		input:      input.NewQuestionInput(s),
		answer:     viewport.New(80, 8),
		sources:    sources.NewList(s),
		statusbar:  status.NewBar(s, km),
		qaService:  qaService,
		ctx:        context.Background(),
		topK:       topK,
		width:      80,
		height:     24,
		focusInput: true,
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// SetTopK sets how many chunks each question retrieves. k <= 0 is ignored.
func (v *View) SetTopK(k int) {
	if k > 0 {
		v.topK = k
	}
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the ask view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.AnswerReceived:
		v.handleAnswer(msg)
		return v, nil

	case messages.ErrorOccurred:
		v.setError(msg.Err)
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// handleKeyMsg processes keyboard input.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if msg.Type == tea.KeyEsc {
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}

	if v.focusInput {
		if msg.Type == tea.KeyEnter {
			question := strings.TrimSpace(v.input.Value())
			if question == "" {
				return v, nil
			}
			v.err = nil
			v.statusbar.SetState(status.StateThinking)
			v.focusInput = false
			v.input.Blur()
			return v, v.ask(question)
		}
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}

	switch {
	case keymap.Matches(msg.String(), v.keymap.Up):
		v.sources.MoveUp()
		return v, nil
	case keymap.Matches(msg.String(), v.keymap.Down):
		v.sources.MoveDown()
		return v, nil
	case keymap.Matches(msg.String(), v.keymap.NewQuestion):
		v.focusInput = true
		v.input.SetValue("")
		return v, v.input.Focus()
	}

	// pgup/pgdown and friends scroll the answer.
	var cmd tea.Cmd
	v.answer, cmd = v.answer.Update(msg)
	return v, cmd
}

// ask returns a command that answers the question.
func (v *View) ask(question string) tea.Cmd {
	return func() tea.Msg {
		if v.qaService == nil {
			return messages.ErrorOccurred{Err: ErrNoQAService}
		}
		answer, err := v.qaService.Ask(v.ctx, question, v.topK)
		return messages.AnswerReceived{Answer: answer, Err: err}
	}
}

// handleAnswer displays an answer or the reason there is none.
func (v *View) handleAnswer(msg messages.AnswerReceived) {
	if msg.Err != nil {
		if errors.Is(msg.Err, domain.ErrNotFound) {
			v.err = nil
			v.last = nil
			v.sources.SetResults(nil)
			v.answered = true
			v.setAnswerText(noDocumentsText)
			v.statusbar.Clear()
			return
		}
		v.setError(msg.Err)
		return
	}

	v.err = nil
	v.last = msg.Answer
	v.answered = true
	v.setAnswerText(msg.Answer.Answer)
	v.sources.SetResults(msg.Answer.Sources)
	v.statusbar.SetMessage("")
	v.statusbar.SetAnswered(len(msg.Answer.Sources), msg.Answer.ResponseTime)
}

func (v *View) setError(err error) {
	v.err = err
	v.statusbar.SetState(status.StateError)
	v.statusbar.SetMessage(err.Error())
	v.focusInput = true
	v.input.Focus()
}

func (v *View) setAnswerText(text string) {
	wrapped := lipgloss.NewStyle().Width(max(v.answer.Width, 20)).Render(text)
	v.answer.SetContent(wrapped)
	v.answer.GotoTop()
}

// View renders the ask view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 10)
	sections = append(sections, v.styles.Title.Render("docqa"), "", v.input.View(), "")

	if v.err != nil {
		sections = append(sections, v.styles.Error.Render("Error: "+v.err.Error()), "")
	}

	if v.answered {
		sections = append(sections, v.styles.Answer.Render(v.answer.View()), "", v.sources.View())
	}

	sections = append(sections, "", v.statusbar.View())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	// Header, input, status bar and borders take about ten lines.
	body := max(height-10, 4)
	v.input.SetWidth(width)
	v.answer.Width = max(width-4, 20)
	v.answer.Height = max(body/2, 2)
	v.sources.SetDimensions(width, body-v.answer.Height)
	v.statusbar.SetWidth(width)
	if v.last != nil {
		v.setAnswerText(v.last.Answer)
	}
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}

// Question returns the current question text.
func (v *View) Question() string {
	return v.input.Value()
}

// Answer returns the last answer, or nil.
func (v *View) Answer() *domain.Answer {
	return v.last
}

// Sources returns the sources of the last answer.
func (v *View) Sources() []domain.QueryResult {
	return v.sources.Results()
}

// SelectedSource returns the index of the highlighted source.
func (v *View) SelectedSource() int {
	return v.sources.Selected()
}

// Err returns the current error, if any.
func (v *View) Err() error {
	return v.err
}

// InputFocused returns whether the input has focus.
func (v *View) InputFocused() bool {
	return v.focusInput
}

// Reset returns the view to an empty question.
func (v *View) Reset() {
	v.focusInput = true
	v.input.Focus()
	v.input.SetValue("")
	v.sources.SetResults(nil)
	v.answer.SetContent("")
	v.last = nil
	v.answered = false
	v.err = nil
	v.statusbar.Clear()
}
