package engine

import (
	"time"

	"companion-terminal/internal/models"
)

// The assistant-response protocol runs per request:
//
//	idle -> pending -> revealing -> settled
//
// BeginResponse appends the pending placeholder, StartReveal registers the
// completion text once the service answers (or its error text, which settles
// through the same path), and AdvanceReveal is driven by the caller's timer
// until it reports done. Every tick re-locates the target by id, so deleting
// the chat or message while a reveal is scheduled makes later ticks no-ops.

type reveal struct {
	chatID string
	runes  []rune
	pos    int
}

// BeginResponse appends an empty assistant-pending placeholder replying to
// the given user message and marks the chat in flight. It refuses when the
// chat is gone or already holds a pending message, keeping at most one
// placeholder per chat.
func (e *Engine) BeginResponse(chatID, userMessageID string) (string, bool) {
	chat := e.chat(chatID)
	if chat == nil || chat.HasPending() {
		return "", false
	}

	msg := models.NewMessage(models.RolePending, "")
	msg.ReplyTo = userMessageID
	chat.Messages = append(chat.Messages, msg)
	chat.Touch()
	e.inFlight[chatID] = true
	e.changed()
	return msg.ID, true
}

// StartReveal registers the full completion text against the pending
// placeholder. If the target vanished while the request was in flight the
// result is discarded; deleted state is never resurrected.
func (e *Engine) StartReveal(chatID, pendingID, fullText string) bool {
	chat := e.chat(chatID)
	if chat == nil {
		return false
	}
	msg := chat.Message(pendingID)
	if msg == nil || msg.Role != models.RolePending {
		// a stale result for a removed placeholder must not touch the
		// flag while a newer request holds its own pending message
		if !chat.HasPending() {
			delete(e.inFlight, chatID)
		}
		return false
	}
	e.reveals[pendingID] = &reveal{chatID: chatID, runes: []rune(fullText)}
	return true
}

// AdvanceReveal performs one reveal tick: it exposes one more rune of the
// completion, or settles the placeholder once the text is fully revealed.
// Settling reassigns a fresh identity, flips the role to assistant and stamps
// the completion time. done reports that no further ticks are needed.
func (e *Engine) AdvanceReveal(pendingID string) (done bool) {
	rv, ok := e.reveals[pendingID]
	if !ok {
		return true
	}

	chat := e.chat(rv.chatID)
	if chat == nil {
		delete(e.reveals, pendingID)
		return true
	}
	idx := chat.MessageIndex(pendingID)
	if idx < 0 || chat.Messages[idx].Role != models.RolePending {
		delete(e.reveals, pendingID)
		if !chat.HasPending() {
			delete(e.inFlight, chat.ID)
		}
		return true
	}

	if rv.pos < len(rv.runes) {
		rv.pos++
		chat.Messages[idx].Text = string(rv.runes[:rv.pos])
		chat.Touch()
		e.changed()
		return false
	}

	chat.Messages[idx].ID = models.GenerateID()
	chat.Messages[idx].Role = models.RoleAssistant
	chat.Messages[idx].Text = string(rv.runes)
	chat.Messages[idx].CreatedAt = time.Now()
	delete(e.reveals, pendingID)
	delete(e.inFlight, chat.ID)
	chat.Touch()
	e.changed()
	return true
}

// Revealing reports whether a reveal is still scheduled for the message.
func (e *Engine) Revealing(pendingID string) bool {
	_, ok := e.reveals[pendingID]
	return ok
}
