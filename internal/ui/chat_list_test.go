package ui

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"companion-terminal/internal/models"
)

func TestChatItemDescriptionTruncatesOnRuneBoundary(t *testing.T) {
	long := strings.Repeat("日", previewLength+10)
	chat := models.Chat{
		ID:        "c1",
		Title:     "Welcome",
		CreatedAt: time.Now(),
		Messages:  []models.Message{models.NewMessage(models.RoleUser, long)},
	}

	desc := chatItem{chat: chat}.Description()
	if !utf8.ValidString(desc) {
		t.Error("description contains a split rune")
	}
	if !strings.Contains(desc, strings.Repeat("日", previewLength)) {
		t.Errorf("preview truncated short: %q", desc)
	}
	if strings.Contains(desc, strings.Repeat("日", previewLength+1)) {
		t.Errorf("preview not truncated: %q", desc)
	}
}

func TestChatItemTitleFallsBackToDate(t *testing.T) {
	created := time.Date(2026, 8, 28, 15, 4, 0, 0, time.UTC)
	item := chatItem{chat: models.Chat{CreatedAt: created}}

	if got := item.Title(); got != "2026-08-28 15:04" {
		t.Errorf("Title() = %q", got)
	}
}
