package store

import (
	"encoding/json"
	"fmt"

	"companion-terminal/internal/models"
)

const (
	// DefaultCeilingBytes is the absolute size ceiling for the serialized
	// collection.
	DefaultCeilingBytes = 200 << 20 // 200 MiB

	// DefaultSafetyFraction caps usage at this share of the reported quota.
	DefaultSafetyFraction = 0.9
)

// ConfirmFunc asks the user to approve destructive pruning. Pruning never
// happens without consent.
type ConfirmFunc func(prompt string) bool

// MeasureFunc reports the serialized byte size of a collection.
type MeasureFunc func(chats []models.Chat) int

// MeasureJSON is the production measure: the JSON encoding length.
func MeasureJSON(chats []models.Chat) int {
	data, err := json.Marshal(chats)
	if err != nil {
		return 0
	}
	return len(data)
}

// QuotaGuard applies the capacity policy before a write: when the serialized
// collection exceeds the ceiling or the safety fraction of the reported
// quota, it asks for confirmation and prunes oldest chats first until both
// thresholds pass or one chat remains.
type QuotaGuard struct {
	Ceiling int     // absolute byte ceiling; 0 means DefaultCeilingBytes
	Safety  float64 // fraction of quota; 0 means DefaultSafetyFraction
	Quota   uint64  // reported quota in bytes; 0 means unreported
	Confirm ConfirmFunc
	Measure MeasureFunc // nil means MeasureJSON
}

func (g *QuotaGuard) ceiling() int {
	if g.Ceiling > 0 {
		return g.Ceiling
	}
	return DefaultCeilingBytes
}

func (g *QuotaGuard) safety() float64 {
	if g.Safety > 0 {
		return g.Safety
	}
	return DefaultSafetyFraction
}

func (g *QuotaGuard) measure(chats []models.Chat) int {
	if g.Measure != nil {
		return g.Measure(chats)
	}
	return MeasureJSON(chats)
}

func (g *QuotaGuard) exceeds(size int) bool {
	if size > g.ceiling() {
		return true
	}
	if g.Quota > 0 && float64(size) > float64(g.Quota)*g.safety() {
		return true
	}
	return false
}

// Apply returns the collection to write. Declining the prompt returns the
// input unchanged; the oversized write is still attempted best-effort, and
// the underlying store may reject it as an ordinary save failure.
func (g *QuotaGuard) Apply(chats []models.Chat) []models.Chat {
	if !g.exceeds(g.measure(chats)) {
		return chats
	}

	prompt := fmt.Sprintf("Storage may exceed %d MB. Delete oldest chats?", g.ceiling()>>20)
	if g.Confirm == nil || !g.Confirm(prompt) {
		return chats
	}
	return g.prune(chats)
}

// prune removes the single oldest chat by CreatedAt at a time, re-measuring
// after each removal, until under both thresholds or only one chat remains.
func (g *QuotaGuard) prune(chats []models.Chat) []models.Chat {
	trimmed := make([]models.Chat, len(chats))
	copy(trimmed, chats)

	for len(trimmed) > 1 && g.exceeds(g.measure(trimmed)) {
		oldest := 0
		for i := 1; i < len(trimmed); i++ {
			if trimmed[i].CreatedAt.Before(trimmed[oldest].CreatedAt) {
				oldest = i
			}
		}
		trimmed = append(trimmed[:oldest], trimmed[oldest+1:]...)
	}
	return trimmed
}
