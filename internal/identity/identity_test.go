package identity

import "testing"

func TestName(t *testing.T) {
	tests := []struct {
		name string
		id   Identity
		want string
	}{
		{"signed in with name", Identity{IsLoaded: true, IsSignedIn: true, DisplayName: "Priya"}, "Priya"},
		{"signed in without name", Identity{IsLoaded: true, IsSignedIn: true}, "Guest"},
		{"signed out", Identity{IsLoaded: true, IsSignedIn: false, DisplayName: "Priya"}, "Guest"},
		{"not loaded", Identity{IsSignedIn: true, DisplayName: "Priya"}, "Guest"},
		{"zero value", Identity{}, "Guest"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.id.Name(); got != tt.want {
				t.Errorf("Name() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGreetings(t *testing.T) {
	g := NewGreetings(Identity{IsLoaded: true, IsSignedIn: true, DisplayName: "Priya"})

	if got := g.Welcome(); got != "Hello Priya, I'm Shree. How are you feeling today?" {
		t.Errorf("Welcome() = %q", got)
	}
	if got := g.NewChat(); got != "Hello Priya! I'm Shree." {
		t.Errorf("NewChat() = %q", got)
	}

	guest := NewGreetings(Identity{})
	if got := guest.Welcome(); got != "Hello Guest, I'm Shree. How are you feeling today?" {
		t.Errorf("guest Welcome() = %q", got)
	}
	if g.Cleared() == "" || g.Replacement() == "" {
		t.Error("structural greetings must not be empty")
	}
}
