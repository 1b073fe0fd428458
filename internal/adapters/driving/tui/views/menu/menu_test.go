package menu

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/messages"
)

func TestNewView(t *testing.T) {
	v := NewView(nil)

	assert.Equal(t, 0, v.Selected())
	assert.Equal(t, "Initialising...", v.View())
}

func TestView_Render(t *testing.T) {
	v := NewView(nil)
	v.SetDimensions(80, 24)

	out := v.View()
	assert.Contains(t, out, "docqa")
	assert.Contains(t, out, "Ask a question")
	assert.Contains(t, out, "Documents")
	assert.Contains(t, out, "Quit")
}

func TestView_Status(t *testing.T) {
	v := NewView(nil)
	v.SetDimensions(80, 24)
	v.SetStatus("embeddings: fallback:sha256-384")

	assert.Contains(t, v.View(), "embeddings: fallback:sha256-384")
}

func TestView_Navigate(t *testing.T) {
	v := NewView(nil)

	v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}})
	assert.Equal(t, 0, v.Selected())

	v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	assert.Equal(t, 1, v.Selected())

	for range 10 {
		v.Update(tea.KeyMsg{Type: tea.KeyDown})
	}
	assert.Equal(t, 3, v.Selected())
}

func TestView_SelectDocuments(t *testing.T) {
	v := NewView(nil)
	v.Update(tea.KeyMsg{Type: tea.KeyDown})

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	assert.Equal(t, messages.ViewChanged{View: messages.ViewDocuments}, cmd())
}

func TestView_SelectQuit(t *testing.T) {
	v := NewView(nil)
	for range 3 {
		v.Update(tea.KeyMsg{Type: tea.KeyDown})
	}

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	assert.Equal(t, tea.Quit(), cmd())
}

func TestView_DigitShortcut(t *testing.T) {
	v := NewView(nil)

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'2'}})
	require.NotNil(t, cmd)

	assert.Equal(t, 1, v.Selected())
	assert.Equal(t, messages.ViewChanged{View: messages.ViewDocuments}, cmd())
}

func TestView_DigitOutOfRange(t *testing.T) {
	v := NewView(nil)

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'9'}})

	assert.Nil(t, cmd)
	assert.Equal(t, 0, v.Selected())
}
