package store

import (
	"testing"
	"time"

	"companion-terminal/internal/models"
)

func chatCreatedAt(id string, created time.Time) models.Chat {
	return models.Chat{ID: id, Title: "Welcome", CreatedAt: created}
}

// perChatMeasure sizes a collection as a fixed byte count per chat, keeping
// the thresholds exact without building multi-megabyte fixtures.
func perChatMeasure(bytesPerChat int) MeasureFunc {
	return func(chats []models.Chat) int {
		return bytesPerChat * len(chats)
	}
}

func TestQuotaGuardUnderThresholdSkipsPrompt(t *testing.T) {
	prompted := false
	g := &QuotaGuard{
		Confirm: func(string) bool { prompted = true; return true },
		Measure: perChatMeasure(1),
	}
	chats := []models.Chat{chatCreatedAt("a", time.Now())}

	out := g.Apply(chats)

	if prompted {
		t.Error("confirmation requested while under both thresholds")
	}
	if len(out) != 1 {
		t.Errorf("collection changed: %d chats", len(out))
	}
}

func TestQuotaGuardCeilingScenario(t *testing.T) {
	// serialized size 210 MiB against a 200 MiB ceiling: confirmation is
	// requested, then the oldest chat is removed and size re-measured
	// before any further pruning or write.
	base := time.Now()
	chats := []models.Chat{
		chatCreatedAt("newest", base.Add(2*time.Hour)),
		chatCreatedAt("middle", base.Add(time.Hour)),
		chatCreatedAt("oldest", base),
	}

	prompts := 0
	measured := 0
	g := &QuotaGuard{
		Confirm: func(prompt string) bool { prompts++; return true },
		Measure: func(cs []models.Chat) int {
			measured++
			return 70 << 20 * len(cs) // 3 chats = 210 MiB, 2 chats = 140 MiB
		},
	}

	out := g.Apply(chats)

	if prompts != 1 {
		t.Errorf("prompts = %d, want 1", prompts)
	}
	if len(out) != 2 {
		t.Fatalf("chats after prune = %d, want 2", len(out))
	}
	for _, c := range out {
		if c.ID == "oldest" {
			t.Error("oldest chat survived the prune")
		}
	}
	if measured < 3 {
		t.Errorf("size not re-measured after removal: %d measurements", measured)
	}
	// remaining order untouched
	if out[0].ID != "newest" || out[1].ID != "middle" {
		t.Errorf("collection order disturbed: %s, %s", out[0].ID, out[1].ID)
	}
}

func TestQuotaGuardDecliningKeepsCollection(t *testing.T) {
	chats := []models.Chat{
		chatCreatedAt("a", time.Now()),
		chatCreatedAt("b", time.Now().Add(time.Hour)),
	}
	g := &QuotaGuard{
		Confirm: func(string) bool { return false },
		Measure: perChatMeasure(150 << 20),
	}

	out := g.Apply(chats)

	if len(out) != 2 {
		t.Errorf("declined prune still removed chats: %d left", len(out))
	}
}

func TestQuotaGuardNeverPrunesBelowOneChat(t *testing.T) {
	base := time.Now()
	chats := []models.Chat{
		chatCreatedAt("c", base.Add(2*time.Second)),
		chatCreatedAt("b", base.Add(time.Second)),
		chatCreatedAt("a", base),
	}
	// every possible size is over the ceiling
	g := &QuotaGuard{
		Confirm: func(string) bool { return true },
		Measure: perChatMeasure(DefaultCeilingBytes + 1),
	}

	out := g.Apply(chats)

	if len(out) != 1 {
		t.Fatalf("chats = %d, want floor of 1", len(out))
	}
	if out[0].ID != "c" {
		t.Errorf("survivor = %s, want the newest chat", out[0].ID)
	}
}

func TestQuotaGuardSafetyFractionOfQuota(t *testing.T) {
	base := time.Now()
	chats := []models.Chat{
		chatCreatedAt("new", base.Add(time.Hour)),
		chatCreatedAt("old", base),
	}
	// 10 MiB per chat, quota 21 MiB: 20 MiB > 0.9*21 MiB trips the
	// fraction check well under the absolute ceiling.
	g := &QuotaGuard{
		Quota:   21 << 20,
		Confirm: func(string) bool { return true },
		Measure: perChatMeasure(10 << 20),
	}

	out := g.Apply(chats)

	if len(out) != 1 || out[0].ID != "new" {
		t.Errorf("quota-fraction prune wrong: %+v", out)
	}
}

func TestQuotaGuardUnreportedQuotaUsesCeilingOnly(t *testing.T) {
	g := &QuotaGuard{
		Confirm: func(string) bool { t.Error("prompted"); return false },
		Measure: perChatMeasure(100 << 20), // huge, but under the ceiling
	}
	chats := []models.Chat{chatCreatedAt("a", time.Now())}

	if out := g.Apply(chats); len(out) != 1 {
		t.Errorf("chats = %d, want 1", len(out))
	}
}

func TestMeasureJSONGrowsWithContent(t *testing.T) {
	small := []models.Chat{*models.NewChat("Welcome", "hi")}
	large := []models.Chat{*models.NewChat("Welcome", "hi")}
	large[0].Messages = append(large[0].Messages, models.NewMessage(models.RoleUser, "a much longer message body"))

	if MeasureJSON(large) <= MeasureJSON(small) {
		t.Error("measure did not grow with added content")
	}
}
