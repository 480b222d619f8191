package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"companion-terminal/internal/config"
	"companion-terminal/internal/engine"
	"companion-terminal/internal/gemini"
	"companion-terminal/internal/identity"
	"companion-terminal/internal/logging"
	"companion-terminal/internal/store"
	"companion-terminal/internal/ui"
)

type appState int

const (
	stateChatView appState = iota
	stateChatList
)

// quotaPromptMsg surfaces the quota guard's confirmation request from the
// saver goroutine onto the update loop.
type quotaPromptMsg struct {
	Prompt string
	Reply  chan bool
}

// prunedMsg reports chats the quota guard removed from the persisted
// snapshot, so the live collection drops them too.
type prunedMsg struct {
	Removed []string
}

type model struct {
	state appState

	eng   *engine.Engine
	st    store.Store
	saver *store.Saver

	chatList ui.ChatListModel
	chatView ui.ChatViewModel
	confirm  ui.ConfirmModel

	width  int
	height int
}

func main() {
	if err := logging.InitLogger(); err != nil {
		// logging is best-effort; the app runs without it
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
	defer logging.Close()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	dataDir, err := config.GetDataDir()
	if err != nil {
		log.Fatalf("Failed to resolve data directory: %v", err)
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	st, err := store.NewBadgerStore(dataDir, cfg.QuotaBytes())
	if err != nil {
		log.Fatalf("Failed to open chat store: %v", err)
	}
	defer st.Close()

	// A failed read is treated as absence; in-memory state is authoritative.
	saved, err := st.Load(context.Background())
	if err != nil {
		logging.Error("failed to load persisted chats: %v", err)
		saved = nil
	}

	id := identity.FromEnv()
	eng := engine.New(identity.NewGreetings(id))

	guard := &store.QuotaGuard{
		Ceiling: cfg.CeilingBytes(),
		Safety:  cfg.Storage.SafetyFraction,
		Quota:   cfg.QuotaBytes(),
	}
	saver := store.NewSaver(st, guard, cfg.DebounceWindow())
	defer saver.Close()
	eng.SetOnChange(func() {
		saver.Schedule(eng.Snapshot())
	})

	client := gemini.NewClient(cfg.Gemini.APIKey, cfg.Gemini.BaseURL, cfg.Gemini.Model)

	initialModel := model{
		state:    stateChatView,
		eng:      eng,
		st:       st,
		saver:    saver,
		chatView: ui.NewChatViewModel(eng, client, cfg.RevealInterval(), 80, 24),
		chatList: ui.NewChatListModel(nil, 80, 24),
		confirm:  ui.NewConfirmModel(80, 24),
		width:    80,
		height:   24,
	}

	p := tea.NewProgram(initialModel, tea.WithAltScreen())

	// The quota guard asks for consent through the UI and blocks its own
	// goroutine on the answer; an unanswered prompt declines.
	guard.Confirm = func(prompt string) bool {
		reply := make(chan bool, 1)
		p.Send(quotaPromptMsg{Prompt: prompt, Reply: reply})
		select {
		case ok := <-reply:
			return ok
		case <-time.After(time.Minute):
			return false
		}
	}
	saver.OnPruned = func(removed []string) {
		p.Send(prunedMsg{Removed: removed})
	}

	eng.Bootstrap(saved)

	if _, err := p.Run(); err != nil {
		log.Fatalf("Error running program: %v", err)
	}
}

func (m model) Init() tea.Cmd {
	return m.chatView.Init()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.confirm.SetSize(msg.Width, msg.Height)
		var listCmd, viewCmd tea.Cmd
		m.chatList, listCmd = m.chatList.Update(msg)
		m.chatView, viewCmd = m.chatView.Update(msg)
		return m, tea.Batch(listCmd, viewCmd)

	case quotaPromptMsg:
		m.confirm.ShowWithReply("quota-prune", msg.Prompt, msg.Reply)
		return m, nil

	case prunedMsg:
		for _, id := range msg.Removed {
			m.eng.DeleteChat(id)
		}
		m.chatList.RefreshChats(m.eng.Snapshot())
		m.chatView.Refresh()
		return m, nil

	case ui.ConfirmResult:
		return m.handleConfirm(msg)

	case ui.ChatSelected:
		m.eng.SetActive(msg.ChatID)
		m.chatView.Refresh()
		m.state = stateChatView
		return m, nil

	case ui.CreateNewChat:
		m.eng.NewChat()
		m.chatView.Refresh()
		m.state = stateChatView
		return m, nil

	case ui.DeleteChatRequest:
		m.confirm.Show("delete-chat:"+msg.ChatID, fmt.Sprintf("Delete chat %q permanently?", msg.Title))
		return m, nil

	case ui.ClearAllRequest:
		m.confirm.Show("clear-all", "Clear all chats? This will remove every saved chat.")
		return m, nil

	case ui.StorageReportRequest:
		m.chatList.SetStatus(m.storageReport())
		return m, nil

	case ui.BackToChatList:
		m.chatList.RefreshChats(m.eng.Snapshot())
		m.chatList.SetStatus("")
		m.state = stateChatList
		return m, nil

	// reveal and completion traffic reaches the chat view even while the
	// history list is on screen
	case ui.CompletionResult, ui.RevealTickMsg:
		var cmd tea.Cmd
		m.chatView, cmd = m.chatView.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.confirm.IsVisible() {
			var cmd tea.Cmd
			m.confirm, cmd = m.confirm.Update(msg)
			return m, cmd
		}
	}

	switch m.state {
	case stateChatList:
		var cmd tea.Cmd
		m.chatList, cmd = m.chatList.Update(msg)
		return m, cmd
	default:
		var cmd tea.Cmd
		m.chatView, cmd = m.chatView.Update(msg)
		return m, cmd
	}
}

func (m model) handleConfirm(msg ui.ConfirmResult) (tea.Model, tea.Cmd) {
	switch {
	case msg.ID == "quota-prune":
		if msg.Reply != nil {
			msg.Reply <- msg.Accepted
		}
		return m, nil

	case msg.ID == "clear-all":
		if msg.Accepted {
			m.eng.ClearAllChats()
			m.chatList.RefreshChats(m.eng.Snapshot())
			m.chatView.Refresh()
		}
		return m, nil

	case len(msg.ID) > len("delete-chat:") && msg.ID[:len("delete-chat:")] == "delete-chat:":
		if msg.Accepted {
			m.eng.DeleteChat(msg.ID[len("delete-chat:"):])
			m.chatList.RefreshChats(m.eng.Snapshot())
			m.chatView.Refresh()
		}
		return m, nil
	}

	// message-level confirmations belong to the chat view
	var cmd tea.Cmd
	m.chatView, cmd = m.chatView.Update(msg)
	return m, cmd
}

func (m model) storageReport() string {
	used, quota := m.st.EstimateUsage()
	size := store.MeasureJSON(m.eng.Snapshot())

	quotaText := "unknown"
	if quota > 0 {
		quotaText = fmt.Sprintf("%.2f MB", float64(quota)/(1024*1024))
	}
	return fmt.Sprintf("Serialized: %.2f MB | On disk: %.2f MB | Quota: %s",
		float64(size)/(1024*1024), float64(used)/(1024*1024), quotaText)
}

func (m model) View() string {
	var base string
	switch m.state {
	case stateChatList:
		base = m.chatList.View()
	default:
		base = m.chatView.View()
	}
	return m.confirm.RenderOverlay(base)
}
