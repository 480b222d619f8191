// Package engine owns the in-memory chat collection and drives the
// assistant-response protocol. All mutation goes through Engine methods; the
// caller's event loop supplies completion results and reveal ticks, so the
// engine itself never spawns goroutines or timers.
package engine

import (
	"strings"
	"time"

	"companion-terminal/internal/models"
)

// Greeter composes the assistant greeting texts seeded into new or cleared
// chats. The identity package provides the production implementation.
type Greeter interface {
	// Welcome greets on first load, when no persisted collection exists.
	Welcome() string
	// NewChat greets an explicitly requested chat.
	NewChat() string
	// Cleared greets after the active chat's messages are wiped.
	Cleared() string
	// Replacement greets the chat synthesized when the collection empties.
	Replacement() string
}

const greetingTitle = "Welcome"

// interruptedReply settles a persisted placeholder that captured no revealed
// text, so a restart never shows a blank assistant message.
const interruptedReply = "I'm sorry, I couldn't understand that."

// Engine is constructed once per session. It is not safe for concurrent use;
// it expects the single-event-loop discipline of a bubbletea program, where
// every mutation happens on the update goroutine.
type Engine struct {
	chats    []*models.Chat
	activeID string
	inFlight map[string]bool    // chat id -> completion in flight
	reveals  map[string]*reveal // pending message id -> scheduled reveal
	actionID string             // message whose action affordances are visible
	greet    Greeter
	onChange func() // persistence hook, fired after every committed mutation
}

func New(greet Greeter) *Engine {
	return &Engine{
		inFlight: make(map[string]bool),
		reveals:  make(map[string]*reveal),
		greet:    greet,
	}
}

// SetOnChange registers the hook invoked after each state change, used to
// schedule debounced persistence.
func (e *Engine) SetOnChange(fn func()) {
	e.onChange = fn
}

func (e *Engine) changed() {
	if e.onChange != nil {
		e.onChange()
	}
}

// Bootstrap installs a persisted collection, or seeds a fresh greeting chat
// when nothing was persisted. A pending placeholder that survived in storage
// (page closed mid-reveal) is settled in place so no chat loads stuck typing.
func (e *Engine) Bootstrap(saved []models.Chat) {
	if len(saved) == 0 {
		initial := e.CreateChat(e.greet.Welcome())
		e.chats = []*models.Chat{initial}
		e.activeID = initial.ID
		e.changed()
		return
	}

	settled := false
	e.chats = make([]*models.Chat, len(saved))
	for i := range saved {
		c := saved[i].Clone()
		for j := range c.Messages {
			if c.Messages[j].Role == models.RolePending {
				c.Messages[j].Role = models.RoleAssistant
				c.Messages[j].ID = models.GenerateID()
				if c.Messages[j].Text == "" {
					c.Messages[j].Text = interruptedReply
				}
				settled = true
			}
		}
		e.chats[i] = &c
	}
	e.activeID = e.chats[0].ID
	if settled {
		e.changed()
	}
}

// CreateChat builds a chat seeded with greetingText. It has no side effects;
// callers insert the result into the collection and persist.
func (e *Engine) CreateChat(greetingText string) *models.Chat {
	return models.NewChat(greetingTitle, greetingText)
}

// Chats returns the collection, newest-created first.
func (e *Engine) Chats() []*models.Chat {
	return e.chats
}

func (e *Engine) chat(chatID string) *models.Chat {
	for _, c := range e.chats {
		if c.ID == chatID {
			return c
		}
	}
	return nil
}

// ActiveChat returns the active chat, repairing a dangling active id (the id
// may reference a deleted chat only transiently).
func (e *Engine) ActiveChat() *models.Chat {
	if c := e.chat(e.activeID); c != nil {
		return c
	}
	if len(e.chats) > 0 {
		e.activeID = e.chats[0].ID
		return e.chats[0]
	}
	return nil
}

// SetActive switches the active chat. Unknown ids are ignored.
func (e *Engine) SetActive(chatID string) {
	if e.chat(chatID) != nil {
		e.activeID = chatID
	}
}

// InFlight reports whether a completion is running for the chat, which
// disables that chat's input surface.
func (e *Engine) InFlight(chatID string) bool {
	return e.inFlight[chatID]
}

// SendMessage appends a user message to the active chat, synthesizing a chat
// first if none is active. It returns immediately; the caller starts the
// assistant-response protocol with BeginResponse once the message is
// committed, so a failed or slow completion never loses the user's input.
func (e *Engine) SendMessage(text string) (*models.Chat, models.Message, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, models.Message{}, ErrEmptyInput
	}

	chat := e.ActiveChat()
	if chat == nil {
		chat = e.CreateChat(e.greet.NewChat())
		e.chats = append([]*models.Chat{chat}, e.chats...)
		e.activeID = chat.ID
	}

	msg := models.NewMessage(models.RoleUser, trimmed)
	chat.Messages = append(chat.Messages, msg)
	chat.Touch()
	e.changed()
	return chat, msg, nil
}

// EditMessage replaces a user message's text and stamps EditedAt. The reply
// that depended on the old text is removed (causal invalidation): the message
// whose ReplyTo references the edited one, or the immediately following
// assistant message for data predating the ReplyTo field. The trimmed text is
// returned so the caller can re-trigger the response protocol.
func (e *Engine) EditMessage(chatID, messageID, newText string) (string, error) {
	chat := e.chat(chatID)
	if chat == nil {
		return "", ErrNotFound
	}
	idx := chat.MessageIndex(messageID)
	if idx < 0 {
		return "", ErrNotFound
	}
	if chat.Messages[idx].Role != models.RoleUser {
		return "", ErrInvalidOperation
	}
	trimmed := strings.TrimSpace(newText)
	if trimmed == "" {
		return "", ErrEmptyInput
	}

	chat.Messages[idx].Text = trimmed
	chat.Messages[idx].EditedAt = time.Now()

	if dep := e.dependentReplyIndex(chat, messageID, idx); dep >= 0 {
		e.removeMessageAt(chat, dep)
	}

	chat.Touch()
	e.changed()
	return trimmed, nil
}

// dependentReplyIndex locates the assistant reply produced by the given user
// message: an explicit ReplyTo match, else an adjacent assistant follower.
func (e *Engine) dependentReplyIndex(chat *models.Chat, messageID string, idx int) int {
	for i := range chat.Messages {
		if chat.Messages[i].ReplyTo == messageID && chat.Messages[i].Role.IsAssistant() {
			return i
		}
	}
	if idx+1 < len(chat.Messages) && chat.Messages[idx+1].Role.IsAssistant() {
		return idx + 1
	}
	return -1
}

// DeleteMessage removes exactly one message by id. Unlike EditMessage it does
// not cascade to a dependent assistant reply; the asymmetry matches observed
// behavior and is kept deliberately.
func (e *Engine) DeleteMessage(chatID, messageID string) bool {
	chat := e.chat(chatID)
	if chat == nil {
		return false
	}
	idx := chat.MessageIndex(messageID)
	if idx < 0 {
		return false
	}
	e.removeMessageAt(chat, idx)
	chat.Touch()
	e.changed()
	return true
}

// removeMessageAt deletes the message and cancels any reveal targeting it.
func (e *Engine) removeMessageAt(chat *models.Chat, idx int) {
	msg := chat.Messages[idx]
	if msg.Role == models.RolePending {
		delete(e.reveals, msg.ID)
		delete(e.inFlight, chat.ID)
	}
	if e.actionID == msg.ID {
		e.actionID = ""
	}
	chat.Messages = append(chat.Messages[:idx], chat.Messages[idx+1:]...)
}

// NewChat creates a fresh greeting chat, inserts it first and activates it.
func (e *Engine) NewChat() *models.Chat {
	chat := e.CreateChat(e.greet.NewChat())
	e.chats = append([]*models.Chat{chat}, e.chats...)
	e.activeID = chat.ID
	e.changed()
	return chat
}

// ClearActiveChat replaces the active chat's messages with a single fresh
// greeting, preserving the chat's id and creation time.
func (e *Engine) ClearActiveChat() {
	chat := e.ActiveChat()
	if chat == nil {
		return
	}
	e.cancelChat(chat)
	chat.Messages = []models.Message{models.NewMessage(models.RoleAssistant, e.greet.Cleared())}
	chat.Touch()
	e.changed()
}

// DeleteChat removes a chat. Deleting the active chat re-assigns active to
// the next remaining chat, or synthesizes a fresh greeting chat so the
// collection is never empty.
func (e *Engine) DeleteChat(chatID string) {
	idx := -1
	for i, c := range e.chats {
		if c.ID == chatID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	e.cancelChat(e.chats[idx])
	e.chats = append(e.chats[:idx], e.chats[idx+1:]...)

	if e.activeID == chatID {
		if len(e.chats) > 0 {
			e.activeID = e.chats[0].ID
		} else {
			fresh := e.CreateChat(e.greet.Replacement())
			e.chats = []*models.Chat{fresh}
			e.activeID = fresh.ID
		}
	}
	e.changed()
}

// ClearAllChats destroys the whole collection and replaces it with one newly
// created chat.
func (e *Engine) ClearAllChats() {
	for _, c := range e.chats {
		e.cancelChat(c)
	}
	fresh := e.CreateChat(e.greet.Replacement())
	e.chats = []*models.Chat{fresh}
	e.activeID = fresh.ID
	e.changed()
}

// cancelChat drops in-flight and reveal state tied to a chat, so scheduled
// ticks for it become no-ops.
func (e *Engine) cancelChat(chat *models.Chat) {
	delete(e.inFlight, chat.ID)
	for id, rv := range e.reveals {
		if rv.chatID == chat.ID {
			delete(e.reveals, id)
		}
	}
}

// ToggleActions flips which message's action affordances are visible.
// Toggling the already-visible message hides them.
func (e *Engine) ToggleActions(messageID string) {
	if e.actionID == messageID {
		e.actionID = ""
		return
	}
	e.actionID = messageID
}

// VisibleActionID returns the message id whose actions are shown, or "".
func (e *Engine) VisibleActionID() string {
	return e.actionID
}

// Snapshot deep-copies the collection for persistence. Consumers never see
// in-place aliasing of live engine state.
func (e *Engine) Snapshot() []models.Chat {
	out := make([]models.Chat, len(e.chats))
	for i, c := range e.chats {
		out[i] = c.Clone()
	}
	return out
}
