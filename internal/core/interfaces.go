// Package core defines the collaborators and events shared by the narration service.
package core

import (
	"context"

	"github.com/mrijcreo/scripttts/internal/pptx"
)

// ObjectStore defines the interface for interacting with a key-value blob store.
type ObjectStore interface {
	Download(ctx context.Context, key string) ([]byte, error)
	Upload(ctx context.Context, key string, data []byte) error
}

// SpeechSynthesizer turns one script into encoded audio.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// HealthChecker is implemented by synthesizers backed by a remote service.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// ScriptRequest describes the scripts to write for a deck.
type ScriptRequest struct {
	Slides []pptx.SlideContent
	// Style is professional, casual or educational.
	Style string
	// Length is beknopt, normaal or uitgebreid.
	Length string
	// Informal addresses the audience with the informal pronoun.
	Informal bool
}

// ScriptSet is a generated script per slide plus the whole talk as one text.
type ScriptSet struct {
	Scripts    []string `json:"scripts"`
	FullScript string   `json:"fullScript"`
}

// ScriptGenerator writes and rewrites presentation scripts.
type ScriptGenerator interface {
	GenerateScripts(ctx context.Context, req ScriptRequest) (*ScriptSet, error)
	ConvertInformal(ctx context.Context, scripts []pptx.ScriptEntry) (*ScriptSet, error)
}
