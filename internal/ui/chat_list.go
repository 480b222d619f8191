package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"companion-terminal/internal/models"
)

const previewLength = 80

type ChatListModel struct {
	list   list.Model
	chats  []models.Chat
	status string
	width  int
	height int
}

type chatItem struct {
	chat models.Chat
}

func (i chatItem) Title() string {
	if i.chat.Title != "" {
		return i.chat.Title
	}
	return i.chat.CreatedAt.Format("2006-01-02 15:04")
}

func (i chatItem) Description() string {
	preview := ""
	if n := len(i.chat.Messages); n > 0 {
		preview = i.chat.Messages[n-1].Text
		if r := []rune(preview); len(r) > previewLength {
			preview = string(r[:previewLength])
		}
	}
	return fmt.Sprintf("%s | %d messages | %s",
		i.chat.CreatedAt.Format("2006-01-02 15:04"), len(i.chat.Messages), preview)
}

func (i chatItem) FilterValue() string { return i.Title() }

// ChatSelected asks the router to open a chat.
type ChatSelected struct {
	ChatID string
}

// CreateNewChat asks the router for a fresh chat.
type CreateNewChat struct{}

// DeleteChatRequest asks for a chat's deletion; the router confirms first.
type DeleteChatRequest struct {
	ChatID string
	Title  string
}

// ClearAllRequest asks for the whole collection to be replaced; confirmed
// by the router.
type ClearAllRequest struct{}

// StorageReportRequest asks the router to surface storage usage.
type StorageReportRequest struct{}

func NewChatListModel(chats []models.Chat, width, height int) ChatListModel {
	items := chatItems(chats)

	l := list.New(items, list.NewDefaultDelegate(), width, height-4)
	l.Title = "Chat History"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)

	// Disable all built-in key bindings except arrows and filter
	l.KeyMap.CursorUp = key.NewBinding(key.WithKeys("up"))
	l.KeyMap.CursorDown = key.NewBinding(key.WithKeys("down"))
	l.KeyMap.NextPage = key.NewBinding()
	l.KeyMap.PrevPage = key.NewBinding()
	l.KeyMap.GoToStart = key.NewBinding()
	l.KeyMap.GoToEnd = key.NewBinding()
	l.KeyMap.Filter = key.NewBinding(key.WithKeys("/"))
	l.KeyMap.ClearFilter = key.NewBinding(key.WithKeys("esc"))
	l.KeyMap.CancelWhileFiltering = key.NewBinding(key.WithKeys("esc"))
	l.KeyMap.AcceptWhileFiltering = key.NewBinding(key.WithKeys("enter"))
	l.KeyMap.ShowFullHelp = key.NewBinding()
	l.KeyMap.CloseFullHelp = key.NewBinding()
	l.KeyMap.Quit = key.NewBinding()
	l.KeyMap.ForceQuit = key.NewBinding()

	return ChatListModel{
		list:   l,
		chats:  chats,
		width:  width,
		height: height,
	}
}

func chatItems(chats []models.Chat) []list.Item {
	items := make([]list.Item, len(chats))
	for i, c := range chats {
		items[i] = chatItem{chat: c}
	}
	return items
}

func (m ChatListModel) Init() tea.Cmd {
	return nil
}

func (m ChatListModel) Update(msg tea.Msg) (ChatListModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width, msg.Height-4)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+x":
			return m, tea.Quit

		case "enter":
			selectedItem := m.list.SelectedItem()
			if selectedItem == nil {
				return m, nil
			}
			chat := selectedItem.(chatItem).chat
			return m, func() tea.Msg {
				return ChatSelected{ChatID: chat.ID}
			}

		case "ctrl+n":
			return m, func() tea.Msg {
				return CreateNewChat{}
			}

		case "ctrl+d":
			selectedItem := m.list.SelectedItem()
			if selectedItem == nil {
				return m, nil
			}
			chat := selectedItem.(chatItem).chat
			return m, func() tea.Msg {
				return DeleteChatRequest{ChatID: chat.ID, Title: chatItem{chat: chat}.Title()}
			}

		case "ctrl+a":
			return m, func() tea.Msg {
				return ClearAllRequest{}
			}

		case "ctrl+s":
			return m, func() tea.Msg {
				return StorageReportRequest{}
			}
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m ChatListModel) View() string {
	helpText := "↑/↓: Navigate • Enter: Open • /: Filter • Ctrl+N: New Chat • Ctrl+D: Delete • Ctrl+A: Clear All • Ctrl+S: Storage • Ctrl+X: Exit"

	sections := []string{m.list.View()}
	if m.status != "" {
		sections = append(sections, statusBarStyle.Render(m.status))
	}
	sections = append(sections, helpStyle.Render(helpText))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// RefreshChats replaces the listed collection.
func (m *ChatListModel) RefreshChats(chats []models.Chat) {
	m.chats = chats
	m.list.SetItems(chatItems(chats))
}

// SetStatus shows a transient status line, e.g. the storage usage report.
func (m *ChatListModel) SetStatus(status string) {
	m.status = status
}
