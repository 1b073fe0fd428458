// Package sources renders the chunks an answer was grounded on.
package sources

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docqa/internal/core/domain"
)

// List displays retrieved chunks in a navigable list, nearest first.
type List struct {
	results  []domain.QueryResult
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewList creates a new source list component.
func NewList(s *styles.Styles) *List {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &List{
		styles: s,
		width:  80,
		height: 10,
	}
}

// View renders the list.
func (l *List) View() string {
	if len(l.results) == 0 {
		return l.styles.Muted.Render("No sources")
	}

	lines := make([]string, 0, len(l.results)+2)
	lines = append(lines, l.styles.Subtitle.Render(fmt.Sprintf("Sources (%d)", len(l.results))), "")

	// Each source takes two lines.
	visibleCount := max((l.height-2)/2, 1)

	start := 0
	if l.selected >= visibleCount {
		start = l.selected - visibleCount + 1
	}
	end := min(start+visibleCount, len(l.results))

	for i := start; i < end; i++ {
		lines = append(lines, l.renderSource(i, &l.results[i]))
	}

	return strings.Join(lines, "\n")
}

// renderSource formats one source with a one-line preview.
func (l *List) renderSource(index int, r *domain.QueryResult) string {
	indicator := "  "
	if index == l.selected {
		indicator = "> "
	}

	name := r.Metadata.Source
	if name == "" {
		name = "Unknown"
	}
	label := fmt.Sprintf("%s[Source %d: %s] chunk %d/%d",
		indicator, index+1, name, r.Metadata.Position+1, r.Metadata.TotalChunks)
	distance := fmt.Sprintf("%.3f", r.Distance)

	var labelLine string
	if index == l.selected {
		labelLine = l.styles.Selected.Render(label+"  "+distance)
	} else {
		labelLine = l.styles.SourceLabel.Render(label) + "  " + l.styles.Muted.Render(distance)
	}

	preview := strings.Join(strings.Fields(r.Text), " ")
	maxPreviewLen := max(l.width-6, 20)
	if len(preview) > maxPreviewLen {
		preview = preview[:maxPreviewLen-3] + "..."
	}

	return labelLine + "\n" + l.styles.Muted.Render("    "+preview)
}

// SetResults replaces the listed sources.
func (l *List) SetResults(results []domain.QueryResult) {
	l.results = results
	l.selected = 0
}

// Results returns the listed sources.
func (l *List) Results() []domain.QueryResult {
	return l.results
}

// Selected returns the index of the selected source.
func (l *List) Selected() int {
	return l.selected
}

// SelectedResult returns the selected source, or nil if none.
func (l *List) SelectedResult() *domain.QueryResult {
	if l.selected < 0 || l.selected >= len(l.results) {
		return nil
	}
	return &l.results[l.selected]
}

// MoveUp moves selection up.
func (l *List) MoveUp() {
	if l.selected > 0 {
		l.selected--
	}
}

// MoveDown moves selection down.
func (l *List) MoveDown() {
	if l.selected < len(l.results)-1 {
		l.selected++
	}
}

// SetDimensions sets the component dimensions.
func (l *List) SetDimensions(width, height int) {
	l.width = width
	l.height = height
}

// Count returns the number of sources.
func (l *List) Count() int {
	return len(l.results)
}
