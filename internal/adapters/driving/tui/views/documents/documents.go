// Package documents provides the documents list view component for the TUI.
package documents

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

var errNoRetrievalService = errors.New("retrieval service not available")

// View is the documents list view.
type View struct {
	styles    *styles.Styles
	retrieval driving.RetrievalService
	ctx       context.Context

	documents     []domain.Document
	stats         *domain.IndexStats
	selected      int
	width         int
	height        int
	ready         bool
	err           error
	loading       bool
	confirmDelete bool
	scrollOffset  int
}

// NewView creates a new documents view.
func NewView(s *styles.Styles, retrieval driving.RetrievalService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:    s,
		retrieval: retrieval,
		ctx:       context.Background(),
		documents: []domain.Document{},
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init loads the document list.
func (v *View) Init() tea.Cmd {
	v.loading = true
	v.confirmDelete = false
	return v.loadDocuments()
}

// loadDocuments returns a command that loads documents and index stats.
func (v *View) loadDocuments() tea.Cmd {
	return func() tea.Msg {
		if v.retrieval == nil {
			return messages.DocumentsLoaded{Err: errNoRetrievalService}
		}

		docs, err := v.retrieval.List(v.ctx)
		if err != nil {
			return messages.DocumentsLoaded{Err: err}
		}
		stats, err := v.retrieval.Stats(v.ctx)
		return messages.DocumentsLoaded{Documents: docs, Stats: stats, Err: err}
	}
}

// deleteDocument returns a command that deletes the document.
func (v *View) deleteDocument(docID string) tea.Cmd {
	return func() tea.Msg {
		if v.retrieval == nil {
			return messages.DocumentDeleted{DocumentID: docID, Err: errNoRetrievalService}
		}
		return messages.DocumentDeleted{DocumentID: docID, Err: v.retrieval.Delete(v.ctx, docID)}
	}
}

// Update handles messages for the documents view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		if v.confirmDelete {
			return v.handleConfirmKeyMsg(msg)
		}
		return v.handleKeyMsg(msg)

	case messages.DocumentsLoaded:
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.documents = msg.Documents
		v.stats = msg.Stats
		v.err = nil
		if v.selected >= len(v.documents) {
			v.selected = max(len(v.documents)-1, 0)
		}
		v.adjustScroll()
		return v, nil

	case messages.DocumentDeleted:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.loading = true
		return v, v.loadDocuments()

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil
	}

	return v, nil
}

// handleKeyMsg handles key presses in list mode.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.selected > 0 {
			v.selected--
			v.adjustScroll()
		}
	case "down", "j":
		if v.selected < len(v.documents)-1 {
			v.selected++
			v.adjustScroll()
		}
	case "d":
		if len(v.documents) > 0 {
			v.confirmDelete = true
		}
	case "r":
		v.loading = true
		return v, v.loadDocuments()
	case "esc":
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}

	return v, nil
}

// handleConfirmKeyMsg handles the delete confirmation prompt.
func (v *View) handleConfirmKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	v.confirmDelete = false
	switch msg.String() {
	case "y", "Y":
		doc := v.SelectedDocument()
		if doc == nil {
			return v, nil
		}
		return v, v.deleteDocument(doc.ID)
	default:
		return v, nil
	}
}

// adjustScroll keeps the selected item visible.
func (v *View) adjustScroll() {
	visibleItems := v.visibleItemCount()
	if v.selected < v.scrollOffset {
		v.scrollOffset = v.selected
	} else if v.selected >= v.scrollOffset+visibleItems {
		v.scrollOffset = v.selected - visibleItems + 1
	}
}

// visibleItemCount returns the number of items that can be displayed.
func (v *View) visibleItemCount() int {
	// Title, stats, separator, help and padding.
	const reserved = 9
	return max(v.height-reserved, 1)
}

// View renders the documents view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render(fmt.Sprintf("Documents (%d)", len(v.documents))))
	b.WriteString("\n")
	if v.stats != nil {
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("%d chunks in %s index",
			v.stats.TotalChunks, v.stats.Backend)))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading documents..."))
		b.WriteString("\n\n")
		b.WriteString(v.renderHelp())
		return b.String()
	case v.err != nil:
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
		b.WriteString("\n\n")
		b.WriteString(v.renderHelp())
		return b.String()
	case len(v.documents) == 0:
		b.WriteString(v.styles.Muted.Render("No documents indexed. Use `docqa ingest <file>` to add some."))
		b.WriteString("\n\n")
		b.WriteString(v.renderHelp())
		return b.String()
	}

	visibleItems := v.visibleItemCount()
	for i := v.scrollOffset; i < len(v.documents) && i < v.scrollOffset+visibleItems; i++ {
		b.WriteString(v.renderDocument(i, &v.documents[i]))
		b.WriteString("\n")
	}

	if len(v.documents) > visibleItems {
		b.WriteString("\n")
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [%d-%d of %d]",
			v.scrollOffset+1,
			min(v.scrollOffset+visibleItems, len(v.documents)),
			len(v.documents))))
	}

	b.WriteString("\n\n")
	if v.confirmDelete {
		if doc := v.SelectedDocument(); doc != nil {
			b.WriteString(v.styles.Warning.Render(fmt.Sprintf("Delete %s? [y/N]", doc.Filename)))
			return b.String()
		}
	}
	b.WriteString(v.renderHelp())

	return b.String()
}

// renderDocument renders a single document line.
func (v *View) renderDocument(index int, doc *domain.Document) string {
	indicator := "  "
	if index == v.selected {
		indicator = "> "
	}

	name := doc.Filename
	if name == "" {
		name = doc.ID
	}
	maxNameLen := max(v.width/2-4, 10)
	if len(name) > maxNameLen {
		name = name[:maxNameLen-3] + "..."
	}

	detail := fmt.Sprintf("%3d chunks  %s", doc.ChunkCount, doc.UploadedAt.Local().Format(time.DateTime))

	if index == v.selected {
		return v.styles.Selected.Render(fmt.Sprintf("%s%-*s  %s", indicator, maxNameLen, name, detail))
	}

	return v.styles.Normal.Render(fmt.Sprintf("%s%-*s  ", indicator, maxNameLen, name)) +
		v.styles.Muted.Render(detail)
}

// renderHelp renders the help footer.
func (v *View) renderHelp() string {
	return v.styles.Help.Render("[↑/↓] navigate  [d] delete  [r] reload  [esc] back")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Documents returns the current list of documents.
func (v *View) Documents() []domain.Document {
	return v.documents
}

// Stats returns the last loaded index stats.
func (v *View) Stats() *domain.IndexStats {
	return v.stats
}

// SelectedIndex returns the currently selected document index.
func (v *View) SelectedIndex() int {
	return v.selected
}

// SelectedDocument returns the currently selected document.
func (v *View) SelectedDocument() *domain.Document {
	if v.selected < len(v.documents) {
		return &v.documents[v.selected]
	}
	return nil
}

// IsConfirmingDelete returns true while the delete prompt is shown.
func (v *View) IsConfirmingDelete() bool {
	return v.confirmDelete
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
