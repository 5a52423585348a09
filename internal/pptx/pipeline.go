package pptx

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/book-expert/logger"
)

// LinkState records how far a slide got through the mutation pipeline.
type LinkState int

const (
	// NoNotes means nothing was written for the slide.
	NoNotes LinkState = iota
	// NotesAdded means the notes part is present.
	NotesAdded
	// NotesAndMediaAdded means the notes part and the audio part are present.
	NotesAndMediaAdded
	// FullyLinked means every part written for the slide is declared and reachable.
	FullyLinked
)

func (s LinkState) String() string {
	switch s {
	case NoNotes:
		return "no-notes"
	case NotesAdded:
		return "notes-added"
	case NotesAndMediaAdded:
		return "notes+media-added"
	case FullyLinked:
		return "fully-linked"
	default:
		return fmt.Sprintf("LinkState(%d)", int(s))
	}
}

// MarshalText renders the state by name.
func (s LinkState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a state name written by MarshalText.
func (s *LinkState) UnmarshalText(text []byte) error {
	for candidate := NoNotes; candidate <= FullyLinked; candidate++ {
		if candidate.String() == string(text) {
			*s = candidate

			return nil
		}
	}

	return fmt.Errorf("unknown link state %q", text)
}

// Extraction methods reported by ExtractSlides. Standard means every slide
// kept its own markup text; hybrid means the analyzer replaced at least one
// slide or a slide was left out for lack of text.
const (
	MethodStandard   = "STANDARD_EXTRACTION"
	MethodHybrid     = "HYBRID_EXTRACTION"
	MethodAIAnalysis = "AI_FULL_ANALYSIS"
)

// aiFallbackLength is the content length below which a slide is handed to the analyzer.
const aiFallbackLength = 20

const mediaNameFmt = "%sslide_%d_audio.%s"

// Audio the detector cannot place is stored as WAV.
const (
	fallbackAudioExtension   = "wav"
	fallbackAudioContentType = "audio/wav"
)

const (
	logSlideSkipped      = "Skipping slide %d: %v"
	logScriptCount       = "Received %d scripts for a deck with %d slides"
	logRegistrationGap   = "Slide %d is only partially linked: %v"
	logMediaUnrecognized = "Slide %d audio format not recognized, storing it as wav: %v"
	logMarkerSkipped     = "Slide %d marker not inserted: %v"
	logSlidePatched      = "Slide %d narrated: %s"
	logAnalyzerFailed    = "Analyzer failed for slide %d: %v"
	logDeckAnalysis      = "No slide text found, analyzing the deck as a whole"
	logDeckAnalyzeFailed = "Deck analysis failed: %v"
)

// ScriptEntry is the narration for one slide. Audio is optional.
type ScriptEntry struct {
	SlideNumber int    `json:"slideNumber"`
	Script      string `json:"script"`
	Audio       []byte `json:"-"`
}

// HasAudio reports whether audio bytes were supplied.
func (e ScriptEntry) HasAudio() bool {
	return len(e.Audio) > 0
}

// Result is the outcome of AddScriptsAndAudio.
type Result struct {
	Deck    []byte            `json:"-"`
	States  map[int]LinkState `json:"states"`
	Skipped []int             `json:"skipped,omitempty"`
}

// Extraction is the outcome of ExtractSlides.
type Extraction struct {
	Slides []SlideContent `json:"slides"`
	Method string         `json:"extractionMethod"`
}

// MediaDetector identifies the container format of audio bytes. When it
// fails the bytes are still embedded, as WAV.
type MediaDetector interface {
	Detect(data []byte) (extension, contentType string, err error)
}

// DeckOutline is what a whole-deck analysis gets to see.
type DeckOutline struct {
	Presentation  []byte
	Relationships []byte
	SlideCount    int
}

// SlideAnalyzer recovers slide text when markup extraction comes up short.
type SlideAnalyzer interface {
	AnalyzeSlide(ctx context.Context, slideNumber int, markup []byte) (SlideContent, error)
	AnalyzeDeck(ctx context.Context, outline DeckOutline) ([]SlideContent, error)
}

// Options tune what the pipeline writes into a deck.
type Options struct {
	Notes           NotesOptions
	AutoplayDelayMs int
	Volume          int
}

// Pipeline commits narration into decks. It holds no per-deck state and is
// safe for concurrent use.
type Pipeline struct {
	log      *logger.Logger
	detector MediaDetector
	analyzer SlideAnalyzer
	opts     Options
	icon     func() ([]byte, error)
}

// NewPipeline returns a pipeline. analyzer may be nil, in which case
// extraction relies on the markup alone.
func NewPipeline(log *logger.Logger, detector MediaDetector, analyzer SlideAnalyzer, opts Options) *Pipeline {
	return &Pipeline{
		log:      log,
		detector: detector,
		analyzer: analyzer,
		opts:     opts,
		icon:     sync.OnceValues(RenderIcon),
	}
}

// AddScriptsAndAudio writes each entry's script into the notes of its slide
// and, when audio is present, embeds the audio with an autoplaying marker.
// Entries without a slide number are matched by position. The input is never
// modified; output is produced only when every fatal step succeeded.
func (p *Pipeline) AddScriptsAndAudio(deck []byte, entries []ScriptEntry) (*Result, error) {
	if len(deck) == 0 {
		return nil, fmt.Errorf("%w: deck", ErrMissingRequiredInput)
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: scripts", ErrMissingRequiredInput)
	}

	archive, err := Load(deck)
	if err != nil {
		return nil, err
	}

	slides := ListSlides(archive)
	if len(entries) != len(slides) {
		p.log.Warn(logScriptCount, len(entries), len(slides))
	}

	byNumber := make(map[int]SlideRef, len(slides))
	for _, slide := range slides {
		byNumber[slide.Number] = slide
	}

	width, height := SlideSize(archive)
	patchOpts := PatchOptions{
		SlideWidth:      width,
		SlideHeight:     height,
		AutoplayDelayMs: p.opts.AutoplayDelayMs,
		Volume:          p.opts.Volume,
	}

	result := &Result{Deck: nil, States: make(map[int]LinkState, len(entries)), Skipped: nil}

	for i, entry := range entries {
		number := entry.SlideNumber
		if number == 0 {
			number = i + 1
		}

		slide, ok := byNumber[number]
		if !ok {
			p.log.Warn(logSlideSkipped, number, ErrSlidePartAbsent)
			result.Skipped = append(result.Skipped, number)

			continue
		}

		_, err = ReservedID(MarkerShape, number)
		if err != nil {
			p.log.Warn(logSlideSkipped, number, err)
			result.Skipped = append(result.Skipped, number)

			continue
		}

		state, err := p.narrateSlide(archive, slide, entry, patchOpts)
		if err != nil {
			return nil, err
		}

		result.States[number] = state
		p.log.Info(logSlidePatched, number, state)
	}

	result.Deck, err = archive.Serialize()
	if err != nil {
		return nil, err
	}

	return result, nil
}

// narrateSlide runs the notes and media steps for one slide. Only fatal
// errors are returned; everything else is logged and reflected in the state.
func (p *Pipeline) narrateSlide(archive *Archive, slide SlideRef, entry ScriptEntry, patchOpts PatchOptions) (LinkState, error) {
	notesPath := NotesPathFor(archive, slide)
	archive.Put(notesPath, BuildNotesPart(entry.Script, entry.HasAudio(), p.opts.Notes))

	state := NotesAdded
	linked := true

	err := RegisterNotesPart(archive, slide, notesPath)
	if err != nil {
		if isFatal(err) {
			return state, err
		}

		p.log.Warn(logRegistrationGap, slide.Number, err)

		linked = false
	}

	if !entry.HasAudio() {
		return finalState(state, linked), nil
	}

	ext, contentType, err := p.detector.Detect(entry.Audio)
	if err != nil {
		p.log.Warn(logMediaUnrecognized, slide.Number, err)

		ext, contentType = fallbackAudioExtension, fallbackAudioContentType
	}

	mediaPath := fmt.Sprintf(mediaNameFmt, mediaDir, slide.Number, ext)
	archive.Put(mediaPath, entry.Audio)

	state = NotesAndMediaAdded

	refs, err := RegisterMediaPart(archive, slide, mediaPath, ext, contentType)
	if err != nil {
		if isFatal(err) {
			return state, err
		}

		p.log.Warn(logRegistrationGap, slide.Number, err)

		linked = false

		if refs.AudioRelID == "" {
			return state, nil
		}
	}

	refs.IconRelID, err = p.attachIcon(archive, slide)
	if err != nil {
		if isFatal(err) {
			return state, err
		}

		p.log.Warn(logRegistrationGap, slide.Number, err)

		linked = false
	}

	markup, _ := archive.Get(slide.Path)

	patched, err := PatchSlide(markup, slide.Number, refs, patchOpts)
	if err != nil {
		p.log.Warn(logMarkerSkipped, slide.Number, err)

		return state, nil
	}

	archive.Put(slide.Path, patched)

	return finalState(state, linked), nil
}

// attachIcon stores the shared marker image once and links it from slide.
func (p *Pipeline) attachIcon(archive *Archive, slide SlideRef) (string, error) {
	if !archive.Exists(iconPath) {
		icon, err := p.icon()
		if err != nil {
			return "", err
		}

		archive.Put(iconPath, icon)
	}

	return RegisterImagePart(archive, slide, iconPath)
}

func finalState(state LinkState, linked bool) LinkState {
	if linked {
		return FullyLinked
	}

	return state
}

func isFatal(err error) bool {
	return errors.Is(err, ErrSerialization)
}

// ExtractSlides returns the text of every slide in deck order. When an
// analyzer is configured it fills in slides whose markup yields too little
// text, and the whole deck when no slide yields any.
func (p *Pipeline) ExtractSlides(ctx context.Context, deck []byte) (*Extraction, error) {
	if len(deck) == 0 {
		return nil, fmt.Errorf("%w: deck", ErrMissingRequiredInput)
	}

	archive, err := Load(deck)
	if err != nil {
		return nil, err
	}

	slides := ListSlides(archive)
	if len(slides) == 0 {
		return nil, ErrNoSlides
	}

	extracted := make([]SlideContent, 0, len(slides))
	analyzed := false

	for _, slide := range slides {
		markup, _ := archive.Get(slide.Path)
		content := ExtractSlide(markup, slide.Number)

		if p.analyzer != nil && utf8.RuneCountInString(content.Content) < aiFallbackLength {
			recovered, err := p.analyzer.AnalyzeSlide(ctx, slide.Number, markup)
			if err != nil {
				p.log.Warn(logAnalyzerFailed, slide.Number, err)
			} else {
				content = recovered
				analyzed = true
			}
		}

		if strings.TrimSpace(content.Content) != "" {
			extracted = append(extracted, content)
		}
	}

	if len(extracted) > 0 {
		method := MethodStandard
		if analyzed || len(extracted) != len(slides) {
			method = MethodHybrid
		}

		return &Extraction{Slides: extracted, Method: method}, nil
	}

	if p.analyzer == nil {
		return nil, ErrNoSlideContent
	}

	p.log.Info(logDeckAnalysis)

	presentation, _ := archive.Get(presentationPath)
	relationships, _ := archive.Get(presentationRelsPath)

	whole, err := p.analyzer.AnalyzeDeck(ctx, DeckOutline{
		Presentation:  presentation,
		Relationships: relationships,
		SlideCount:    len(slides),
	})
	if err != nil {
		p.log.Warn(logDeckAnalyzeFailed, err)

		return nil, fmt.Errorf("%w: %w", ErrNoSlideContent, err)
	}

	if len(whole) == 0 {
		return nil, ErrNoSlideContent
	}

	return &Extraction{Slides: whole, Method: MethodAIAnalysis}, nil
}
