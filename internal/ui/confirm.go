package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	overlay "github.com/rmhubbert/bubbletea-overlay"
)

// ConfirmResult reports the user's answer to a pending confirmation.
type ConfirmResult struct {
	ID       string
	Accepted bool
	Reply    chan<- bool // non-nil when an external caller is blocked on the answer
}

// ConfirmModel is a modal yes/no dialog rendered over the current view.
// Destructive operations (delete chat, clear all, quota pruning) never run
// without passing through it.
type ConfirmModel struct {
	visible bool
	id      string
	prompt  string
	reply   chan<- bool
	width   int
	height  int
}

func NewConfirmModel(width, height int) ConfirmModel {
	return ConfirmModel{width: width, height: height}
}

// Show arms the dialog. id travels back in the ConfirmResult so the caller
// can tell which operation was confirmed.
func (m *ConfirmModel) Show(id, prompt string) {
	m.visible = true
	m.id = id
	m.prompt = prompt
	m.reply = nil
}

// ShowWithReply arms the dialog for a caller blocked on a channel, such as
// the quota guard waiting on another goroutine.
func (m *ConfirmModel) ShowWithReply(id, prompt string, reply chan<- bool) {
	m.Show(id, prompt)
	m.reply = reply
}

func (m *ConfirmModel) Hide() {
	m.visible = false
	m.reply = nil
}

func (m *ConfirmModel) IsVisible() bool {
	return m.visible
}

func (m *ConfirmModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m ConfirmModel) Init() tea.Cmd {
	return nil
}

func (m ConfirmModel) Update(msg tea.Msg) (ConfirmModel, tea.Cmd) {
	if !m.visible {
		return m, nil
	}

	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "y", "Y", "enter":
			return m.answer(true)
		case "n", "N", "esc":
			return m.answer(false)
		}
	}
	return m, nil
}

func (m ConfirmModel) answer(accepted bool) (ConfirmModel, tea.Cmd) {
	id, reply := m.id, m.reply
	m.Hide()
	return m, func() tea.Msg {
		return ConfirmResult{ID: id, Accepted: accepted, Reply: reply}
	}
}

func (m ConfirmModel) View() string {
	var b strings.Builder
	b.WriteString(ConfirmTitleStyle.Render("Confirm") + "\n\n")
	b.WriteString(ConfirmTextStyle.Render(m.prompt) + "\n\n")
	b.WriteString(ConfirmKeysStyle.Render("y: Yes • n: No"))
	return ConfirmBorderStyle.Render(b.String())
}

// RenderOverlay draws the dialog centered over the background view.
func (m ConfirmModel) RenderOverlay(backgroundView string) string {
	if !m.visible {
		return backgroundView
	}

	overlayModel := overlay.New(
		&staticViewModel{content: m.View()},
		&staticViewModel{content: backgroundView},
		overlay.Center, // horizontal position
		overlay.Center, // vertical position
		0,              // x offset
		0,              // y offset
	)

	return overlayModel.View()
}

// staticViewModel wraps a rendered string as a tea.Model for the overlay
// library.
type staticViewModel struct {
	content string
}

func (s *staticViewModel) Init() tea.Cmd                           { return nil }
func (s *staticViewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) { return s, nil }
func (s *staticViewModel) View() string                            { return s.content }

var _ tea.Model = (*staticViewModel)(nil)
