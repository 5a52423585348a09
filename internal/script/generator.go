package script

import (
	"context"
	"errors"
	"fmt"

	"github.com/book-expert/logger"

	"github.com/mrijcreo/scripttts/internal/core"
	"github.com/mrijcreo/scripttts/internal/pptx"
)

const (
	generatedPlaceholderFmt = "Script voor slide %d wordt gegenereerd..."
	convertedPlaceholderFmt = "Geconverteerd script voor slide %d..."
)

const (
	logFmtGenerating   = "Generating %s/%s scripts for %d slides (informal: %t)"
	logFmtGenerated    = "Model returned %d slide scripts for %d slides"
	logFmtConverting   = "Converting %d scripts to the informal form"
	logFmtMissingSlots = "Model answer covered %d of %d slides, padding the rest"
)

var (
	// ErrNoSlides is returned when there is nothing to write a script for.
	ErrNoSlides = errors.New("no slides received")
	// ErrUnknownStyle is returned for a style outside professional, casual and educational.
	ErrUnknownStyle = errors.New("unknown script style")
	// ErrUnknownLength is returned for a length outside beknopt, normaal and uitgebreid.
	ErrUnknownLength = errors.New("unknown script length")
)

// Completer answers a single prompt.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// Generator implements core.ScriptGenerator on top of a Completer.
type Generator struct {
	completer Completer
	log       *logger.Logger
}

// NewGenerator creates a Generator.
func NewGenerator(completer Completer, log *logger.Logger) *Generator {
	return &Generator{completer: completer, log: log}
}

// GenerateScripts writes one script per slide plus the whole talk.
// Empty Style and Length select professional and normaal.
func (g *Generator) GenerateScripts(ctx context.Context, req core.ScriptRequest) (*core.ScriptSet, error) {
	if len(req.Slides) == 0 {
		return nil, ErrNoSlides
	}

	style := req.Style
	if style == "" {
		style = StyleProfessional
	}

	length := req.Length
	if length == "" {
		length = LengthNormal
	}

	_, ok := stylePrompts[style]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStyle, style)
	}

	_, ok = lengthSettings[length]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLength, length)
	}

	g.log.Info(logFmtGenerating, style, length, len(req.Slides), req.Informal)

	answer, err := g.completer.Complete(ctx, systemPrompt, generationPrompt(req.Slides, style, length, req.Informal))
	if err != nil {
		return nil, fmt.Errorf("generate scripts: %w", err)
	}

	return g.parse(answer, len(req.Slides), generatedPlaceholderFmt), nil
}

// ConvertInformal rewrites existing scripts to address the audience informally.
func (g *Generator) ConvertInformal(ctx context.Context, scripts []pptx.ScriptEntry) (*core.ScriptSet, error) {
	if len(scripts) == 0 {
		return nil, ErrNoSlides
	}

	g.log.Info(logFmtConverting, len(scripts))

	answer, err := g.completer.Complete(ctx, "", informalPrompt(scripts))
	if err != nil {
		return nil, fmt.Errorf("convert scripts: %w", err)
	}

	return g.parse(answer, len(scripts), convertedPlaceholderFmt), nil
}

func (g *Generator) parse(answer string, expected int, placeholderFmt string) *core.ScriptSet {
	set := ParseScripts(answer, 0, placeholderFmt)
	found := len(set.Scripts)

	if found < expected {
		g.log.Warn(logFmtMissingSlots, found, expected)

		set = ParseScripts(answer, expected, placeholderFmt)
	}

	g.log.Info(logFmtGenerated, found, expected)

	return set
}
