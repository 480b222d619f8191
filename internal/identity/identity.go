// Package identity is the Identity Provider boundary. Identity is supplied
// externally and consumed only to compose greeting text; nothing here
// authenticates anyone.
package identity

import (
	"fmt"
	"os"
)

// Identity mirrors what the external provider reports.
type Identity struct {
	IsLoaded    bool
	IsSignedIn  bool
	DisplayName string
}

// Name returns the display name, defaulting to "Guest" when the provider
// has not loaded, the user is signed out, or no name was supplied.
func (id Identity) Name() string {
	if id.IsLoaded && id.IsSignedIn && id.DisplayName != "" {
		return id.DisplayName
	}
	return "Guest"
}

// FromEnv builds an Identity from the COMPANION_USER environment variable.
func FromEnv() Identity {
	name := os.Getenv("COMPANION_USER")
	return Identity{
		IsLoaded:    true,
		IsSignedIn:  name != "",
		DisplayName: name,
	}
}

// Greetings composes the assistant greeting texts for an identity. It
// satisfies the engine's Greeter interface.
type Greetings struct {
	id Identity
}

func NewGreetings(id Identity) Greetings {
	return Greetings{id: id}
}

// Welcome greets on first load.
func (g Greetings) Welcome() string {
	return fmt.Sprintf("Hello %s, I'm Shree. How are you feeling today?", g.id.Name())
}

// NewChat greets an explicitly created chat.
func (g Greetings) NewChat() string {
	return fmt.Sprintf("Hello %s! I'm Shree.", g.id.Name())
}

// Cleared greets after the active chat's messages are wiped.
func (g Greetings) Cleared() string {
	return "Chat cleared! How are you feeling right now?"
}

// Replacement greets the chat synthesized when the collection empties.
func (g Greetings) Replacement() string {
	return "Hello! Start a new conversation when you're ready."
}
