// Package app builds the narration collaborators from the loaded configuration.
package app

import (
	"fmt"
	"time"

	"github.com/book-expert/logger"

	"github.com/mrijcreo/scripttts/internal/config"
	"github.com/mrijcreo/scripttts/internal/core"
	"github.com/mrijcreo/scripttts/internal/pptx"
	"github.com/mrijcreo/scripttts/internal/script"
	"github.com/mrijcreo/scripttts/internal/tts"
	"github.com/mrijcreo/scripttts/internal/tts/audio"
)

// Voice returns the synthesis parameters of cfg.
func Voice(cfg *config.Config) tts.Voice {
	return tts.Voice{
		Language:       cfg.TTS.Language,
		SpeakerRefPath: cfg.TTS.SpeakerRefPath,
		Temperature:    cfg.TTS.Temperature,
	}
}

// HTTPClient returns a client for the configured speech service.
func HTTPClient(cfg *config.Config) *tts.HTTPClient {
	timeout := time.Duration(cfg.TTS.TimeoutSeconds) * time.Second

	return tts.NewHTTPClient(cfg.TTS.GetServiceURL(), timeout, Voice(cfg))
}

// Synthesizer returns the configured speech backend.
func Synthesizer(cfg *config.Config, log *logger.Logger) (core.SpeechSynthesizer, error) {
	switch cfg.TTS.Backend {
	case config.BackendHTTP:
		return HTTPClient(cfg), nil
	case config.BackendCommand:
		synth, err := tts.NewCommandSynthesizer(cfg.TTS.BinaryPath, cfg.TTS.ModelPath, Voice(cfg), log)
		if err != nil {
			return nil, fmt.Errorf("failed to create command synthesizer: %w", err)
		}

		return synth, nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownBackend, cfg.TTS.Backend)
	}
}

// Narrator returns a Narrator on top of the configured speech backend.
func Narrator(cfg *config.Config, log *logger.Logger) (*tts.Narrator, error) {
	synth, err := Synthesizer(cfg, log)
	if err != nil {
		return nil, err
	}

	timeout := time.Duration(cfg.TTS.TimeoutSeconds) * time.Second

	return tts.NewNarrator(synth, cfg.TTS.Language, cfg.TTS.Workers, timeout, log)
}

// ScriptClient returns a model client, failing when the API key is not set.
func ScriptClient(cfg *config.Config) (*script.Client, error) {
	apiKey, err := cfg.LLM.APIKey()
	if err != nil {
		return nil, err
	}

	client, err := script.NewClient(script.ClientConfig{
		APIKey:  apiKey,
		Model:   cfg.LLM.Model,
		BaseURL: cfg.LLM.BaseURL,
		Timeout: time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create model client: %w", err)
	}

	return client, nil
}

// Pipeline returns the deck pipeline. analyzer may be nil.
func Pipeline(cfg *config.Config, log *logger.Logger, analyzer pptx.SlideAnalyzer) *pptx.Pipeline {
	return pptx.NewPipeline(log, audio.Detector{}, analyzer, pptx.Options{
		Notes: pptx.NotesOptions{
			Language:    cfg.Deck.NotesLanguage,
			AudioBanner: cfg.Deck.AudioBanner,
		},
		AutoplayDelayMs: cfg.Deck.AutoplayDelayMs,
	})
}

// Writers bundles the model-backed collaborators. Both are nil when no API key is configured.
type Writers struct {
	Generator *script.Generator
	Analyzer  *script.Analyzer
}

// ScriptWriters returns the generator and analyzer, or an empty Writers and the
// reason when the model cannot be reached.
func ScriptWriters(cfg *config.Config, log *logger.Logger) (Writers, error) {
	client, err := ScriptClient(cfg)
	if err != nil {
		return Writers{}, err
	}

	return Writers{
		Generator: script.NewGenerator(client, log),
		Analyzer:  script.NewAnalyzer(client, log),
	}, nil
}

// SlideAnalyzer returns the analyzer as an interface, nil when absent.
func (w Writers) SlideAnalyzer() pptx.SlideAnalyzer {
	if w.Analyzer == nil {
		return nil
	}

	return w.Analyzer
}

// ScriptGenerator returns the generator as an interface, nil when absent.
func (w Writers) ScriptGenerator() core.ScriptGenerator {
	if w.Generator == nil {
		return nil
	}

	return w.Generator
}
