package core

import (
	"github.com/book-expert/events"
	"github.com/mrijcreo/scripttts/internal/pptx"
)

// SlideScript is the narration requested for one slide. AudioKey optionally
// names pre-recorded audio in the audio bucket.
type SlideScript struct {
	SlideNumber int    `json:"slideNumber"`
	Script      string `json:"script"`
	AudioKey    string `json:"audioKey,omitempty"`
}

// DeckNarrationRequestedEvent asks for scripts, and optionally audio, to be
// written into a deck stored under DeckKey. Without scripts, and with Generate
// set, the scripts are written from the deck's own text first.
type DeckNarrationRequestedEvent struct {
	Header     events.EventHeader `json:"header"`
	DeckKey    string             `json:"deckKey"`
	Scripts    []SlideScript      `json:"scripts,omitempty"`
	Synthesize bool               `json:"synthesize"`
	Generate   bool               `json:"generate"`
	Style      string             `json:"style,omitempty"`
	Length     string             `json:"length,omitempty"`
	Informal   bool               `json:"informal"`
}

// DeckNarratedEvent is the reply to a DeckNarrationRequestedEvent. Error is set
// when no deck was produced.
type DeckNarratedEvent struct {
	Header  events.EventHeader     `json:"header"`
	DeckKey string                 `json:"deckKey,omitempty"`
	States  map[int]pptx.LinkState `json:"states,omitempty"`
	Skipped []int                  `json:"skipped,omitempty"`
	Scripts []string               `json:"scripts,omitempty"`
	Error   string                 `json:"error,omitempty"`
}
