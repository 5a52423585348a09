// Package worker provides a NATS worker that narrates decks on request.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/book-expert/logger"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/mrijcreo/scripttts/internal/core"
	"github.com/mrijcreo/scripttts/internal/pptx"
	"github.com/mrijcreo/scripttts/internal/tts/audio"
)

const (
	defaultHandleTimeout = 10 * time.Minute
	deckExtension        = ".pptx"
	audioKeyFmt          = "%s/slide_%d.%s"
)

const (
	logFmtReceived        = "Narration requested for deck '%s' (workflow %s)"
	logFmtGenerated       = "Generated %d scripts for workflow %s"
	logFmtAudioMissing    = "Audio '%s' for slide %d unavailable, narrating without it: %v"
	logFmtAudioNotStored  = "Could not store synthesized audio for slide %d: %v"
	logFmtNarrated        = "Narrated deck '%s' stored as '%s' (%d slides, %d skipped)"
	logFmtJobFailed       = "Failed to narrate deck for workflow %s: %v"
	logFmtReplyFailed     = "Failed to publish reply event for workflow %s: %v"
	logFmtParseFailed     = "Failed to parse and validate event: %v"
	logFmtInformalSkipped = "Informal rewrite failed for workflow %s, keeping scripts as given: %v"
)

var (
	// ErrNilConnection indicates that no NATS connection was supplied.
	ErrNilConnection = errors.New("nats connection cannot be nil")
	// ErrSubjectEmpty indicates that no subject was configured.
	ErrSubjectEmpty = errors.New("subject cannot be empty")
	// ErrNilPipeline indicates that no pipeline was supplied.
	ErrNilPipeline = errors.New("pipeline cannot be nil")
	// ErrDeckKeyEmpty indicates a request without a deck.
	ErrDeckKeyEmpty = errors.New("deck key cannot be empty")
	// ErrNoScripts indicates a request with neither scripts nor the generate flag.
	ErrNoScripts = errors.New("request carries no scripts and does not ask for generation")
	// ErrGenerationUnavailable indicates that generation was requested but no generator is configured.
	ErrGenerationUnavailable = errors.New("script generation is not configured")
	// ErrSynthesisUnavailable indicates that synthesis was requested but no narrator is configured.
	ErrSynthesisUnavailable = errors.New("speech synthesis is not configured")
)

// Narrator attaches synthesized audio to script entries.
type Narrator interface {
	SynthesizeScripts(ctx context.Context, entries []pptx.ScriptEntry) ([]pptx.ScriptEntry, error)
}

// Option configures a NatsWorker.
type Option func(*NatsWorker)

// WithGenerator enables script generation and informal rewrites.
func WithGenerator(generator core.ScriptGenerator) Option {
	return func(w *NatsWorker) {
		w.generator = generator
	}
}

// WithNarrator enables speech synthesis.
func WithNarrator(narrator Narrator) Option {
	return func(w *NatsWorker) {
		w.narrator = narrator
	}
}

// WithScriptDefaults sets the style and length used when a request names none.
func WithScriptDefaults(style, length string) Option {
	return func(w *NatsWorker) {
		w.style = style
		w.length = length
	}
}

// WithTimeout bounds the handling of a single request.
func WithTimeout(timeout time.Duration) Option {
	return func(w *NatsWorker) {
		if timeout > 0 {
			w.timeout = timeout
		}
	}
}

// NatsWorker listens for narration requests on a NATS subject and replies
// with the key of the narrated deck.
type NatsWorker struct {
	natsConnection *nats.Conn
	subject        string
	decks          core.ObjectStore
	audio          core.ObjectStore
	pipeline       *pptx.Pipeline
	generator      core.ScriptGenerator
	narrator       Narrator
	style          string
	length         string
	timeout        time.Duration
	log            *logger.Logger
}

// NewNatsWorker creates a worker. decks holds input and output decks, audio
// holds pre-recorded and synthesized narration.
func NewNatsWorker(
	natsConnection *nats.Conn,
	subject string,
	decks core.ObjectStore,
	audioStore core.ObjectStore,
	pipeline *pptx.Pipeline,
	log *logger.Logger,
	opts ...Option,
) (*NatsWorker, error) {
	if natsConnection == nil {
		return nil, ErrNilConnection
	}

	if subject == "" {
		return nil, ErrSubjectEmpty
	}

	if pipeline == nil {
		return nil, ErrNilPipeline
	}

	w := &NatsWorker{
		natsConnection: natsConnection,
		subject:        subject,
		decks:          decks,
		audio:          audioStore,
		pipeline:       pipeline,
		timeout:        defaultHandleTimeout,
		log:            log,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w, nil
}

// Run starts the worker and blocks until ctx is cancelled.
func (w *NatsWorker) Run(ctx context.Context) error {
	sub, err := w.natsConnection.Subscribe(w.subject, w.handleMessage)
	if err != nil {
		return fmt.Errorf("failed to subscribe to subject %s: %w", w.subject, err)
	}

	<-ctx.Done()

	drainErr := sub.Drain()
	if drainErr != nil {
		return fmt.Errorf("failed to drain subscription: %w", drainErr)
	}

	return nil
}

func (w *NatsWorker) handleMessage(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	event, err := parseAndValidateEvent(msg)
	if err != nil {
		w.log.Error(logFmtParseFailed, err)

		var header core.DeckNarrationRequestedEvent

		_ = json.Unmarshal(msg.Data, &header)
		w.reply(msg, &core.DeckNarratedEvent{Header: header.Header, Error: err.Error()})

		return
	}

	w.log.Info(logFmtReceived, event.DeckKey, event.Header.WorkflowID)

	replyEvent, err := w.processNarrationJob(ctx, event)
	if err != nil {
		w.log.Error(logFmtJobFailed, event.Header.WorkflowID, err)

		replyEvent = &core.DeckNarratedEvent{Header: event.Header, Error: err.Error()}
	}

	w.reply(msg, replyEvent)
}

// processNarrationJob downloads the deck, settles the scripts and audio,
// runs the pipeline and uploads the result.
func (w *NatsWorker) processNarrationJob(
	ctx context.Context,
	event *core.DeckNarrationRequestedEvent,
) (*core.DeckNarratedEvent, error) {
	deck, err := w.decks.Download(ctx, event.DeckKey)
	if err != nil {
		return nil, fmt.Errorf("failed to download deck '%s': %w", event.DeckKey, err)
	}

	entries, err := w.scriptEntries(ctx, deck, event)
	if err != nil {
		return nil, err
	}

	if event.Synthesize {
		entries, err = w.synthesize(ctx, event, entries)
		if err != nil {
			return nil, err
		}
	}

	result, err := w.pipeline.AddScriptsAndAudio(deck, entries)
	if err != nil {
		return nil, fmt.Errorf("failed to narrate deck '%s': %w", event.DeckKey, err)
	}

	outputKey := uuid.NewString() + deckExtension

	err = w.decks.Upload(ctx, outputKey, result.Deck)
	if err != nil {
		return nil, fmt.Errorf("failed to upload narrated deck '%s': %w", outputKey, err)
	}

	w.log.Info(logFmtNarrated, event.DeckKey, outputKey, len(result.States), len(result.Skipped))

	scripts := make([]string, len(entries))
	for i, entry := range entries {
		scripts[i] = entry.Script
	}

	return &core.DeckNarratedEvent{
		Header:  event.Header,
		DeckKey: outputKey,
		States:  result.States,
		Skipped: result.Skipped,
		Scripts: scripts,
	}, nil
}

// scriptEntries turns the request into pipeline entries, generating scripts
// from the deck's text when asked and attaching pre-recorded audio.
func (w *NatsWorker) scriptEntries(
	ctx context.Context,
	deck []byte,
	event *core.DeckNarrationRequestedEvent,
) ([]pptx.ScriptEntry, error) {
	if len(event.Scripts) == 0 {
		return w.generate(ctx, deck, event)
	}

	entries := make([]pptx.ScriptEntry, len(event.Scripts))

	for i, slide := range event.Scripts {
		entries[i] = pptx.ScriptEntry{SlideNumber: slide.SlideNumber, Script: slide.Script}

		if slide.AudioKey == "" || w.audio == nil {
			continue
		}

		data, err := w.audio.Download(ctx, slide.AudioKey)
		if err != nil {
			w.log.Warn(logFmtAudioMissing, slide.AudioKey, slide.SlideNumber, err)

			continue
		}

		entries[i].Audio = data
	}

	if event.Informal && w.generator != nil {
		w.makeInformal(ctx, event, entries)
	}

	return entries, nil
}

func (w *NatsWorker) generate(
	ctx context.Context,
	deck []byte,
	event *core.DeckNarrationRequestedEvent,
) ([]pptx.ScriptEntry, error) {
	if !event.Generate {
		return nil, ErrNoScripts
	}

	if w.generator == nil {
		return nil, ErrGenerationUnavailable
	}

	extraction, err := w.pipeline.ExtractSlides(ctx, deck)
	if err != nil {
		return nil, fmt.Errorf("failed to extract slides: %w", err)
	}

	style, length := event.Style, event.Length
	if style == "" {
		style = w.style
	}

	if length == "" {
		length = w.length
	}

	set, err := w.generator.GenerateScripts(ctx, core.ScriptRequest{
		Slides:   extraction.Slides,
		Style:    style,
		Length:   length,
		Informal: event.Informal,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate scripts: %w", err)
	}

	entries := make([]pptx.ScriptEntry, 0, len(extraction.Slides))
	for i, slide := range extraction.Slides {
		if i >= len(set.Scripts) {
			break
		}

		entries = append(entries, pptx.ScriptEntry{SlideNumber: slide.SlideNumber, Script: set.Scripts[i]})
	}

	w.log.Info(logFmtGenerated, len(entries), event.Header.WorkflowID)

	return entries, nil
}

// makeInformal rewrites the scripts in place. A failed rewrite keeps the originals.
func (w *NatsWorker) makeInformal(ctx context.Context, event *core.DeckNarrationRequestedEvent, entries []pptx.ScriptEntry) {
	set, err := w.generator.ConvertInformal(ctx, entries)
	if err != nil {
		w.log.Warn(logFmtInformalSkipped, event.Header.WorkflowID, err)

		return
	}

	for i := range entries {
		if i < len(set.Scripts) {
			entries[i].Script = set.Scripts[i]
		}
	}
}

// synthesize attaches audio to entries that have none and keeps a copy of
// every new recording in the audio bucket.
func (w *NatsWorker) synthesize(
	ctx context.Context,
	event *core.DeckNarrationRequestedEvent,
	entries []pptx.ScriptEntry,
) ([]pptx.ScriptEntry, error) {
	if w.narrator == nil {
		return nil, ErrSynthesisUnavailable
	}

	voiced, err := w.narrator.SynthesizeScripts(ctx, entries)
	if err != nil {
		return nil, fmt.Errorf("failed to synthesize audio: %w", err)
	}

	if w.audio == nil {
		return voiced, nil
	}

	for i, entry := range voiced {
		if !entry.HasAudio() || entries[i].HasAudio() {
			continue
		}

		format, detectErr := audio.Detect(entry.Audio)
		if detectErr != nil {
			continue
		}

		number := entry.SlideNumber
		if number <= 0 {
			number = i + 1
		}

		key := fmt.Sprintf(audioKeyFmt, event.Header.WorkflowID, number, format.Extension)

		uploadErr := w.audio.Upload(ctx, key, entry.Audio)
		if uploadErr != nil {
			w.log.Warn(logFmtAudioNotStored, number, uploadErr)
		}
	}

	return voiced, nil
}

func (w *NatsWorker) reply(msg *nats.Msg, replyEvent *core.DeckNarratedEvent) {
	err := publishReplyEvent(msg, replyEvent)
	if err != nil {
		w.log.Error(logFmtReplyFailed, replyEvent.Header.WorkflowID, err)
	}
}

// publishReplyEvent marshals and responds with the DeckNarratedEvent.
func publishReplyEvent(msg *nats.Msg, replyEvent *core.DeckNarratedEvent) error {
	if msg.Reply == "" {
		return nil
	}

	replyData, err := json.Marshal(replyEvent)
	if err != nil {
		return fmt.Errorf("failed to marshal reply event: %w", err)
	}

	err = msg.Respond(replyData)
	if err != nil {
		return fmt.Errorf("failed to publish reply event: %w", err)
	}

	return nil
}

func parseAndValidateEvent(msg *nats.Msg) (*core.DeckNarrationRequestedEvent, error) {
	var event core.DeckNarrationRequestedEvent

	err := json.Unmarshal(msg.Data, &event)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}

	if event.DeckKey == "" {
		return nil, ErrDeckKeyEmpty
	}

	if len(event.Scripts) == 0 && !event.Generate {
		return nil, ErrNoScripts
	}

	return &event, nil
}
