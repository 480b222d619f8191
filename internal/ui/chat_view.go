package ui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"companion-terminal/internal/engine"
	"companion-terminal/internal/gemini"
	"companion-terminal/internal/logging"
	"companion-terminal/internal/models"
)

const (
	titleHeight    = 4
	textareaHeight = 3
	helpHeight     = 2
	chromePadding  = 4
)

// CompletionResult carries the Completion Service's answer (or its
// human-readable failure text) back onto the update loop.
type CompletionResult struct {
	ChatID    string
	PendingID string
	Text      string
}

// RevealTickMsg drives one tick of the simulated typing reveal.
type RevealTickMsg struct {
	PendingID string
}

// BackToChatList asks the router to show the chat history.
type BackToChatList struct{}

type ChatViewModel struct {
	engine      *engine.Engine
	client      *gemini.Client
	revealEvery time.Duration

	viewport   viewport.Model
	textarea   textarea.Model
	spinner    spinner.Model
	confirm    ConfirmModel
	mdRenderer *glamour.TermRenderer

	selectedID string // message carrying the action affordances
	editingID  string // user message currently being edited in the textarea
	status     string

	width  int
	height int
	ctx    context.Context
}

func NewChatViewModel(eng *engine.Engine, client *gemini.Client, revealEvery time.Duration, width, height int) ChatViewModel {
	ta := textarea.New()
	ta.Placeholder = "Type your message..."
	ta.SetHeight(textareaHeight)
	ta.SetWidth(width - chromePadding)
	ta.ShowLineNumbers = false
	ta.Focus()

	vp := viewport.New(width-chromePadding, height-titleHeight-textareaHeight-helpHeight-chromePadding)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = SpinnerStyle

	m := ChatViewModel{
		engine:      eng,
		client:      client,
		revealEvery: revealEvery,
		viewport:    vp,
		textarea:    ta,
		spinner:     sp,
		confirm:     NewConfirmModel(width, height),
		mdRenderer:  createMarkdownRenderer(width),
		width:       width,
		height:      height,
		ctx:         context.Background(),
	}
	m.renderMessages()
	return m
}

// createMarkdownRenderer creates a markdown renderer with fallback handling
func createMarkdownRenderer(width int) *glamour.TermRenderer {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width-10),
	)
	if err == nil {
		return renderer
	}

	renderer, err = glamour.NewTermRenderer(
		glamour.WithWordWrap(width - 10),
	)
	if err == nil {
		return renderer
	}

	renderer, _ = glamour.NewTermRenderer()
	return renderer
}

func (m ChatViewModel) Init() tea.Cmd {
	return textarea.Blink
}

func (m ChatViewModel) Update(msg tea.Msg) (ChatViewModel, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width - chromePadding
		m.viewport.Height = msg.Height - titleHeight - textareaHeight - helpHeight - chromePadding
		m.textarea.SetWidth(msg.Width - chromePadding)
		m.confirm.SetSize(msg.Width, msg.Height)
		m.mdRenderer = createMarkdownRenderer(msg.Width)
		m.renderMessages()
		return m, nil

	case tea.KeyMsg:
		if m.confirm.IsVisible() {
			var cmd tea.Cmd
			m.confirm, cmd = m.confirm.Update(msg)
			return m, cmd
		}
		return m.handleKey(msg)

	case ConfirmResult:
		return m.handleConfirm(msg)

	case CompletionResult:
		if m.engine.StartReveal(msg.ChatID, msg.PendingID, msg.Text) {
			cmds = append(cmds, m.revealTick(msg.PendingID))
		}
		m.renderMessages()
		m.viewport.GotoBottom()
		return m, tea.Batch(cmds...)

	case RevealTickMsg:
		done := m.engine.AdvanceReveal(msg.PendingID)
		m.renderMessages()
		m.viewport.GotoBottom()
		if !done {
			return m, m.revealTick(msg.PendingID)
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if active := m.engine.ActiveChat(); active == nil || !m.engine.InFlight(active.ID) {
		var cmd tea.Cmd
		m.textarea, cmd = m.textarea.Update(msg)
		cmds = append(cmds, cmd)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m ChatViewModel) handleKey(msg tea.KeyMsg) (ChatViewModel, tea.Cmd) {
	switch msg.String() {
	case "ctrl+x":
		return m, tea.Quit

	case "esc":
		if m.editingID != "" {
			m.editingID = ""
			m.textarea.Reset()
			m.status = ""
			return m, nil
		}
		return m, func() tea.Msg {
			return BackToChatList{}
		}

	case "enter":
		return m.submit()

	case "tab":
		m.moveSelection(1)
		m.renderMessages()
		return m, nil

	case "shift+tab":
		m.moveSelection(-1)
		m.renderMessages()
		return m, nil

	case "ctrl+e":
		return m.beginEdit()

	case "ctrl+k":
		return m.requestDeleteMessage()

	case "ctrl+l":
		m.confirm.Show("clear-chat", "Clear this chat's messages? This cannot be undone.")
		return m, nil
	}

	var cmds []tea.Cmd
	if active := m.engine.ActiveChat(); active == nil || !m.engine.InFlight(active.ID) {
		var cmd tea.Cmd
		m.textarea, cmd = m.textarea.Update(msg)
		cmds = append(cmds, cmd)
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// submit sends the textarea content: a fresh user message, or the new text
// for the message being edited.
func (m ChatViewModel) submit() (ChatViewModel, tea.Cmd) {
	active := m.engine.ActiveChat()
	if active != nil && m.engine.InFlight(active.ID) {
		// submissions are disabled for this chat while a completion runs
		return m, nil
	}

	text := m.textarea.Value()

	if m.editingID != "" {
		return m.submitEdit(text)
	}

	chat, userMsg, err := m.engine.SendMessage(text)
	if err != nil {
		// empty input is rejected locally, nothing to do
		return m, nil
	}
	m.textarea.Reset()
	m.status = ""
	m.selectedID = ""
	return m.beginResponse(chat.ID, userMsg.ID, userMsg.Text)
}

func (m ChatViewModel) submitEdit(text string) (ChatViewModel, tea.Cmd) {
	active := m.engine.ActiveChat()
	if active == nil {
		m.editingID = ""
		return m, nil
	}

	trimmed, err := m.engine.EditMessage(active.ID, m.editingID, text)
	switch {
	case errors.Is(err, engine.ErrEmptyInput):
		m.status = "Prompt cannot be empty."
		return m, nil
	case err != nil:
		m.status = "Only user messages can be edited."
		m.editingID = ""
		m.textarea.Reset()
		m.renderMessages()
		return m, nil
	}

	editedID := m.editingID
	m.editingID = ""
	m.textarea.Reset()
	m.status = ""

	// an edited prompt re-triggers the response protocol with the new text
	return m.beginResponse(active.ID, editedID, trimmed)
}

// beginResponse appends the pending placeholder and launches the completion
// call. The user's message is already committed and scheduled for
// persistence by this point.
func (m ChatViewModel) beginResponse(chatID, userMsgID, prompt string) (ChatViewModel, tea.Cmd) {
	pendingID, ok := m.engine.BeginResponse(chatID, userMsgID)
	if !ok {
		m.renderMessages()
		return m, nil
	}
	m.renderMessages()
	m.viewport.GotoBottom()
	return m, tea.Batch(m.completeCmd(chatID, pendingID, prompt), m.spinner.Tick)
}

func (m ChatViewModel) completeCmd(chatID, pendingID, prompt string) tea.Cmd {
	client := m.client
	ctx := m.ctx
	return func() tea.Msg {
		text, err := client.Complete(ctx, prompt)
		if err != nil {
			logging.Error("completion failed for chat %s: %v", chatID, err)
			text = gemini.ErrorText(err)
		}
		return CompletionResult{ChatID: chatID, PendingID: pendingID, Text: text}
	}
}

func (m ChatViewModel) revealTick(pendingID string) tea.Cmd {
	return tea.Tick(m.revealEvery, func(time.Time) tea.Msg {
		return RevealTickMsg{PendingID: pendingID}
	})
}

// moveSelection cycles the action affordances through the active chat's
// messages; wrapping past either end clears the selection.
func (m *ChatViewModel) moveSelection(delta int) {
	active := m.engine.ActiveChat()
	if active == nil || len(active.Messages) == 0 {
		return
	}

	idx := -1
	if m.selectedID != "" {
		idx = active.MessageIndex(m.selectedID)
	}
	idx += delta

	if idx < -1 || idx >= len(active.Messages) {
		m.clearSelection()
		return
	}
	if idx == -1 {
		m.clearSelection()
		return
	}

	next := active.Messages[idx].ID
	if m.engine.VisibleActionID() != next {
		m.engine.ToggleActions(next)
	}
	m.selectedID = next
}

func (m *ChatViewModel) clearSelection() {
	if m.selectedID != "" && m.engine.VisibleActionID() == m.selectedID {
		m.engine.ToggleActions(m.selectedID)
	}
	m.selectedID = ""
}

func (m ChatViewModel) beginEdit() (ChatViewModel, tea.Cmd) {
	active := m.engine.ActiveChat()
	if active == nil || m.selectedID == "" {
		return m, nil
	}
	msg := active.Message(m.selectedID)
	if msg == nil {
		return m, nil
	}
	if msg.Role != models.RoleUser {
		m.status = "Only user messages can be edited."
		return m, nil
	}

	m.editingID = msg.ID
	m.textarea.SetValue(msg.Text)
	m.textarea.Focus()
	m.status = ""
	return m, nil
}

func (m ChatViewModel) requestDeleteMessage() (ChatViewModel, tea.Cmd) {
	active := m.engine.ActiveChat()
	if active == nil || m.selectedID == "" {
		return m, nil
	}
	m.confirm.Show("delete-message:"+m.selectedID, "Delete this message?")
	return m, nil
}

func (m ChatViewModel) handleConfirm(msg ConfirmResult) (ChatViewModel, tea.Cmd) {
	switch {
	case msg.ID == "clear-chat":
		if msg.Accepted {
			m.editingID = ""
			m.textarea.Reset()
			m.clearSelection()
			m.engine.ClearActiveChat()
		}

	case strings.HasPrefix(msg.ID, "delete-message:"):
		if msg.Accepted {
			messageID := strings.TrimPrefix(msg.ID, "delete-message:")
			if active := m.engine.ActiveChat(); active != nil {
				m.engine.DeleteMessage(active.ID, messageID)
			}
			if m.selectedID == messageID {
				m.selectedID = ""
			}
			if m.editingID == messageID {
				m.editingID = ""
				m.textarea.Reset()
			}
		}
	}

	m.renderMessages()
	return m, nil
}

func (m *ChatViewModel) renderMessages() {
	active := m.engine.ActiveChat()
	if active == nil {
		m.viewport.SetContent(TypingIndicatorStyle.Render("No active chat. Start a new one."))
		return
	}

	var b strings.Builder
	for i := range active.Messages {
		b.WriteString(m.renderMessage(&active.Messages[i]))
		b.WriteString("\n")
	}
	m.viewport.SetContent(b.String())
}

func (m *ChatViewModel) renderMessage(msg *models.Message) string {
	var b strings.Builder

	label := AssistantMessageLabelStyle.Render("Shree")
	if msg.Role == models.RoleUser {
		label = UserMessageLabelStyle.Render("You")
	}

	header := label + " " + TimestampStyle.Render(msg.CreatedAt.Format("15:04"))
	if !msg.EditedAt.IsZero() {
		header += " " + EditedMarkerStyle.Render("(edited)")
	}
	if m.selectedID == msg.ID {
		header = SelectedMarkerStyle.Render("▸ ") + header
	}
	b.WriteString(header + "\n")

	switch {
	case msg.Role == models.RolePending && msg.Text == "":
		b.WriteString(TypingIndicatorStyle.Render("Shree is typing…") + "\n")
	case msg.Role == models.RolePending:
		// partial text mid-reveal renders raw; glamour waits for settle
		b.WriteString(AssistantMessageContentStyle.Render(msg.Text) + "\n")
	case msg.Role == models.RoleAssistant:
		b.WriteString(m.renderMarkdown(msg.Text))
	default:
		b.WriteString(UserMessageContentStyle.Render(msg.Text) + "\n")
	}

	if m.engine.VisibleActionID() == msg.ID {
		actions := "Ctrl+K: Delete"
		if msg.Role == models.RoleUser {
			actions = "Ctrl+E: Edit • Ctrl+K: Delete"
		}
		b.WriteString(ActionBarStyle.Render(actions) + "\n")
	}

	return b.String()
}

func (m *ChatViewModel) renderMarkdown(text string) string {
	if m.mdRenderer == nil {
		return AssistantMessageContentStyle.Render(text) + "\n"
	}
	rendered, err := m.mdRenderer.Render(text)
	if err != nil {
		return AssistantMessageContentStyle.Render(text) + "\n"
	}
	return rendered
}

func (m ChatViewModel) View() string {
	var b strings.Builder

	b.WriteString(TitleWithPaddingStyle.Render("Shree") + "\n")
	b.WriteString(SubtitleStyle.Render("[ Your AI Companion ]") + "\n")

	statusLine := ""
	if active := m.engine.ActiveChat(); active != nil {
		statusLine = active.Title
		if m.engine.InFlight(active.ID) {
			statusLine += " | " + m.spinner.View() + " Shree is typing…"
		}
	}
	if m.editingID != "" {
		statusLine += " | " + EditedMarkerStyle.Render("Editing message (Enter: save, Esc: cancel)")
	}
	if m.status != "" {
		statusLine += " | " + errorStyle.UnsetPadding().Render(m.status)
	}
	b.WriteString(statusBarStyle.Render(statusLine) + "\n")

	b.WriteString(ViewportBorderStyle.Render(m.viewport.View()))
	b.WriteString("\n")

	b.WriteString(m.textarea.View() + "\n")

	helpText := "Enter: Send • Tab: Select Message • Ctrl+E: Edit • Ctrl+K: Delete • Ctrl+L: Clear Chat • Esc: Back • Ctrl+X: Exit"
	b.WriteString(helpStyle.Render(helpText))

	baseView := b.String()

	return m.confirm.RenderOverlay(baseView)
}

// Refresh re-renders after the router mutated engine state from outside the
// view (chat switch, new chat, quota pruning).
func (m *ChatViewModel) Refresh() {
	m.selectedID = ""
	m.editingID = ""
	m.textarea.Reset()
	m.renderMessages()
	m.viewport.GotoBottom()
}
