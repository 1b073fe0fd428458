// Package menu provides the start screen of the TUI.
package menu

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/styles"
)

// Item is one menu entry. A zero View with Quit set exits the app.
type Item struct {
	Label string
	Hint  string
	View  messages.ViewType
	Quit  bool
}

// View is the start screen: a short list of destinations.
type View struct {
	styles   *styles.Styles
	items    []Item
	selected int
	width    int
	height   int
	ready    bool
	status   string
}

// NewView creates the menu.
func NewView(s *styles.Styles) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &View{
		styles: s,
		items: []Item{
			{Label: "Ask a question", Hint: "answer from the indexed documents", View: messages.ViewAsk},
			{Label: "Documents", Hint: "browse and delete indexed files", View: messages.ViewDocuments},
			{Label: "Help", Hint: "key bindings", View: messages.ViewHelp},
			{Label: "Quit", Quit: true},
		},
		width:  80,
		height: 24,
	}
}

// Init implements the view lifecycle.
func (v *View) Init() tea.Cmd {
	return nil
}

// Update moves the cursor and emits ViewChanged on selection.
// Digits 1-9 jump straight to the matching entry.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		key := msg.String()
		switch key {
		case "up", "k":
			v.selected = max(v.selected-1, 0)
		case "down", "j":
			v.selected = min(v.selected+1, len(v.items)-1)
		case "enter":
			return v, v.choose(v.selected)
		case "q":
			return v, tea.Quit
		default:
			if len(key) == 1 && key[0] >= '1' && int(key[0]-'0') <= len(v.items) {
				v.selected = int(key[0]-'1')
				return v, v.choose(v.selected)
			}
		}
	}
	return v, nil
}

func (v *View) choose(i int) tea.Cmd {
	item := v.items[i]
	if item.Quit {
		return tea.Quit
	}
	return func() tea.Msg {
		return messages.ViewChanged{View: item.View}
	}
}

// View renders the menu.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	var b strings.Builder
	b.WriteString(v.styles.Title.Render("docqa"))
	b.WriteString("\n")
	b.WriteString(v.styles.Subtitle.Render("Question answering over your documents"))
	b.WriteString("\n\n")

	for i, item := range v.items {
		label := fmt.Sprintf("%d. %s", i+1, item.Label)
		if i == v.selected {
			b.WriteString(v.styles.Selected.Render("> " + label))
		} else {
			b.WriteString(v.styles.Normal.Render("  " + label))
		}
		if item.Hint != "" {
			b.WriteString("  ")
			b.WriteString(v.styles.Muted.Render(item.Hint))
		}
		b.WriteString("\n")
	}

	if v.status != "" {
		b.WriteString("\n")
		b.WriteString(v.styles.Muted.Render(v.status))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render("[j/k] Navigate  [1-4/Enter] Select  [q] Quit"))
	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Selected returns the cursor index.
func (v *View) Selected() int {
	return v.selected
}

// SetStatus sets a line shown under the menu, e.g. the active models.
func (v *View) SetStatus(status string) {
	v.status = status
}
