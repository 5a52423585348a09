package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/book-expert/logger"

	"github.com/mrijcreo/scripttts/internal/app"
	"github.com/mrijcreo/scripttts/internal/config"
	"github.com/mrijcreo/scripttts/internal/core"
	"github.com/mrijcreo/scripttts/internal/fileutil"
	"github.com/mrijcreo/scripttts/internal/pptx"
)

// Flag descriptions.
const (
	flagDeckDesc       = "Presentation to read (.pptx)"
	flagScriptsDesc    = "JSON file with the scripts per slide"
	flagAudioDirDesc   = "Directory with slide_N audio files to embed"
	flagOutputDesc     = "Output file path (.pptx)"
	flagExtractDesc    = "Print the slide text as JSON and exit"
	flagGenerateDesc   = "Write the scripts from the slide text with the language model"
	flagSynthesizeDesc = "Synthesize audio for slides without a recording"
	flagInformalDesc   = "Address the audience informally"
	flagStyleDesc      = "Script style: professional, casual or educational"
	flagLengthDesc     = "Script length: beknopt, normaal or uitgebreid"
	flagConfigDesc     = "Path to project.toml (defaults to the configurator search)"
	flagVerboseDesc    = "Enable verbose logging"
	flagHealthDesc     = "Check speech service health and exit"
)

// Flag names.
const (
	flagDeck       = "deck"
	flagScripts    = "scripts"
	flagAudioDir   = "audio-dir"
	flagOutput     = "output"
	flagExtract    = "extract"
	flagGenerate   = "generate"
	flagSynthesize = "synthesize"
	flagInformal   = "informal"
	flagStyle      = "style"
	flagLength     = "length"
	flagConfig     = "config"
	flagVerbose    = "verbose"
	flagHealth     = "health"
)

// Error and log messages.
const (
	errFailedToLoadConfig = "failed to load configuration: %w"
	errFailedToInitLogger = "failed to initialize logger: %w"
	errHealthCheckFailed  = "Health check failed: %v"
	msgServiceNotHealthy  = "Speech service is not healthy: %v\n"
	msgServiceHealthy     = "Speech service is healthy"
	logClientInitialized  = "Deck client initialized"
	logNarrating          = "Narrating %s (%d scripts, %d with audio)"
	logWrote              = "Wrote %s (%s)"
	msgWrote              = "Wrote %s (%s)\n"
	msgSlideState         = "  slide %d: %s\n"
	msgSlideSkipped       = "  slide %d: skipped, the deck has no such slide\n"
	logWritersUnavailable = "Language model unavailable: %v"
)

var (
	errDeckRequired        = errors.New("--deck must be provided")
	errDeckNotPresentation = errors.New("--deck must be a .pptx file")
	errScriptsOrGenerate   = errors.New("either --scripts or --generate must be provided")
	errCannotSpecifyBoth   = errors.New("cannot specify both --scripts and --generate")
	errNoGenerator         = errors.New("the language model is not configured")
)

// File names and paths.
const (
	logFileNameDefault = "deck-client.log"
	logFileNameVerbose = "deck-client-verbose.log"
	filePermissions    = 0o600
	deckExtension      = "pptx"
	healthTimeout      = 10 * time.Second
)

// appFlags holds the parsed command-line flag values.
type appFlags struct {
	deck       string
	scripts    string
	audioDir   string
	output     string
	style      string
	length     string
	config     string
	extract    bool
	generate   bool
	synthesize bool
	informal   bool
	verbose    bool
	health     bool
}

func main() {
	err := run(os.Args[1:], os.Stdout)
	if err != nil {
		// A logger might not be initialized yet, so use the standard log package.
		log.Fatalf("Error: %v", err)
	}
}

// run is the application entry point, returning an error on failure.
func run(args []string, out io.Writer) error {
	flags, err := parseFlags(args)
	if err != nil {
		return err
	}

	cfg, clientLog, err := setup(flags.config, flags.verbose)
	if err != nil {
		return err
	}
	defer clientLog.Close()

	clientLog.Info(logClientInitialized)

	ctx := context.Background()

	if flags.health {
		return handleHealthCheck(ctx, cfg, clientLog, out)
	}

	err = validateFlags(flags)
	if err != nil {
		return err
	}

	writers, writersErr := app.ScriptWriters(cfg, clientLog)
	if writersErr != nil {
		clientLog.Warn(logWritersUnavailable, writersErr)
	}

	pipeline := app.Pipeline(cfg, clientLog, writers.SlideAnalyzer())

	if flags.extract {
		return handleExtract(ctx, pipeline, flags.deck, out)
	}

	job := narration{
		cfg:       cfg,
		log:       clientLog,
		pipeline:  pipeline,
		generator: writers.ScriptGenerator(),
	}

	return job.run(ctx, flags, out)
}

// parseFlags defines and parses command-line flags, returning them in a struct.
func parseFlags(args []string) (appFlags, error) {
	var flags appFlags

	flagSet := flag.NewFlagSet("deck-client", flag.ContinueOnError)
	flagSet.StringVar(&flags.deck, flagDeck, "", flagDeckDesc)
	flagSet.StringVar(&flags.scripts, flagScripts, "", flagScriptsDesc)
	flagSet.StringVar(&flags.audioDir, flagAudioDir, "", flagAudioDirDesc)
	flagSet.StringVar(&flags.output, flagOutput, "", flagOutputDesc)
	flagSet.StringVar(&flags.style, flagStyle, "", flagStyleDesc)
	flagSet.StringVar(&flags.length, flagLength, "", flagLengthDesc)
	flagSet.StringVar(&flags.config, flagConfig, "", flagConfigDesc)
	flagSet.BoolVar(&flags.extract, flagExtract, false, flagExtractDesc)
	flagSet.BoolVar(&flags.generate, flagGenerate, false, flagGenerateDesc)
	flagSet.BoolVar(&flags.synthesize, flagSynthesize, false, flagSynthesizeDesc)
	flagSet.BoolVar(&flags.informal, flagInformal, false, flagInformalDesc)
	flagSet.BoolVar(&flags.verbose, flagVerbose, false, flagVerboseDesc)
	flagSet.BoolVar(&flags.health, flagHealth, false, flagHealthDesc)

	err := flagSet.Parse(args)
	if err != nil {
		return appFlags{}, fmt.Errorf("failed to parse flags: %w", err)
	}

	return flags, nil
}

// validateFlags checks for required and conflicting arguments.
func validateFlags(flags appFlags) error {
	if flags.deck == "" {
		return errDeckRequired
	}

	if !strings.EqualFold(fileutil.FileExtension(flags.deck), deckExtension) {
		return fmt.Errorf("%w: %s", errDeckNotPresentation, flags.deck)
	}

	if flags.extract {
		return nil
	}

	if flags.scripts == "" && !flags.generate {
		return errScriptsOrGenerate
	}

	if flags.scripts != "" && flags.generate {
		return errCannotSpecifyBoth
	}

	return nil
}

// setup loads config and initializes the logger.
func setup(configPath string, verbose bool) (*config.Config, *logger.Logger, error) {
	bootstrapLog, err := logger.New(os.TempDir(), logFileNameDefault)
	if err != nil {
		return nil, nil, fmt.Errorf(errFailedToInitLogger, err)
	}

	var cfg *config.Config

	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load(bootstrapLog)
	}

	if err != nil {
		_ = bootstrapLog.Close()

		return nil, nil, fmt.Errorf(errFailedToLoadConfig, err)
	}

	if !verbose && cfg.Paths.BaseLogsDir == os.TempDir() {
		return cfg, bootstrapLog, nil
	}

	_ = bootstrapLog.Close()

	logFileName := logFileNameDefault
	if verbose {
		logFileName = logFileNameVerbose
	}

	clientLog, err := logger.New(cfg.Paths.BaseLogsDir, logFileName)
	if err != nil {
		return nil, nil, fmt.Errorf(errFailedToInitLogger, err)
	}

	return cfg, clientLog, nil
}

// handleHealthCheck performs a service health check and prints the result.
func handleHealthCheck(ctx context.Context, cfg *config.Config, clientLog *logger.Logger, out io.Writer) error {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	err := app.HTTPClient(cfg).HealthCheck(ctx)
	if err != nil {
		clientLog.Error(errHealthCheckFailed, err)
		fmt.Fprintf(out, msgServiceNotHealthy, err)

		return err
	}

	fmt.Fprintln(out, msgServiceHealthy)

	return nil
}

// handleExtract prints the slide text of the deck as JSON.
func handleExtract(ctx context.Context, pipeline *pptx.Pipeline, deckPath string, out io.Writer) error {
	deck, err := os.ReadFile(deckPath)
	if err != nil {
		return fmt.Errorf("failed to read deck: %w", err)
	}

	extraction, err := pipeline.ExtractSlides(ctx, deck)
	if err != nil {
		return fmt.Errorf("failed to extract slides: %w", err)
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")

	err = encoder.Encode(extraction)
	if err != nil {
		return fmt.Errorf("failed to encode slides: %w", err)
	}

	return nil
}

// narration writes scripts and audio into one deck.
type narration struct {
	cfg       *config.Config
	log       *logger.Logger
	pipeline  *pptx.Pipeline
	generator core.ScriptGenerator
	narrator  synthesizer
}

// synthesizer is the part of tts.Narrator the client needs.
type synthesizer interface {
	SynthesizeScripts(ctx context.Context, entries []pptx.ScriptEntry) ([]pptx.ScriptEntry, error)
}

func (n *narration) run(ctx context.Context, flags appFlags, out io.Writer) error {
	deck, err := os.ReadFile(flags.deck)
	if err != nil {
		return fmt.Errorf("failed to read deck: %w", err)
	}

	entries, err := n.entries(ctx, deck, flags)
	if err != nil {
		return err
	}

	if flags.audioDir != "" {
		err = attachAudio(entries, flags.audioDir)
		if err != nil {
			return err
		}
	}

	if flags.synthesize {
		entries, err = n.synthesize(ctx, entries)
		if err != nil {
			return err
		}
	}

	n.log.Info(logNarrating, flags.deck, len(entries), countAudio(entries))

	result, err := n.pipeline.AddScriptsAndAudio(deck, entries)
	if err != nil {
		return fmt.Errorf("failed to narrate deck: %w", err)
	}

	outputPath, err := n.outputPath(flags)
	if err != nil {
		return err
	}

	err = os.WriteFile(outputPath, result.Deck, filePermissions)
	if err != nil {
		return fmt.Errorf("failed to write narrated deck: %w", err)
	}

	size := fileutil.FormatFileSize(int64(len(result.Deck)))
	n.log.Info(logWrote, outputPath, size)
	fmt.Fprintf(out, msgWrote, outputPath, size)

	for _, number := range slices.Sorted(maps.Keys(result.States)) {
		fmt.Fprintf(out, msgSlideState, number, result.States[number])
	}

	for _, number := range result.Skipped {
		fmt.Fprintf(out, msgSlideSkipped, number)
	}

	return nil
}

// entries reads the scripts file or writes the scripts from the deck's text.
func (n *narration) entries(ctx context.Context, deck []byte, flags appFlags) ([]pptx.ScriptEntry, error) {
	if !flags.generate {
		entries, err := loadScripts(flags.scripts)
		if err != nil {
			return nil, err
		}

		if flags.informal {
			return n.makeInformal(ctx, entries)
		}

		return entries, nil
	}

	if n.generator == nil {
		return nil, errNoGenerator
	}

	extraction, err := n.pipeline.ExtractSlides(ctx, deck)
	if err != nil {
		return nil, fmt.Errorf("failed to extract slides: %w", err)
	}

	style, length := flags.style, flags.length
	if style == "" {
		style = n.cfg.LLM.Style
	}

	if length == "" {
		length = n.cfg.LLM.Length
	}

	set, err := n.generator.GenerateScripts(ctx, core.ScriptRequest{
		Slides:   extraction.Slides,
		Style:    style,
		Length:   length,
		Informal: flags.informal || n.cfg.LLM.Informal,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate scripts: %w", err)
	}

	return pairScripts(extraction.Slides, set.Scripts), nil
}

func (n *narration) makeInformal(ctx context.Context, entries []pptx.ScriptEntry) ([]pptx.ScriptEntry, error) {
	if n.generator == nil {
		return nil, errNoGenerator
	}

	set, err := n.generator.ConvertInformal(ctx, entries)
	if err != nil {
		return nil, fmt.Errorf("failed to convert scripts: %w", err)
	}

	for i := range entries {
		if i < len(set.Scripts) {
			entries[i].Script = set.Scripts[i]
		}
	}

	return entries, nil
}

func (n *narration) synthesize(ctx context.Context, entries []pptx.ScriptEntry) ([]pptx.ScriptEntry, error) {
	if n.narrator == nil {
		narrator, err := app.Narrator(n.cfg, n.log)
		if err != nil {
			return nil, fmt.Errorf("failed to create narrator: %w", err)
		}

		n.narrator = narrator
	}

	voiced, err := n.narrator.SynthesizeScripts(ctx, entries)
	if err != nil {
		return nil, fmt.Errorf("failed to synthesize audio: %w", err)
	}

	return voiced, nil
}

// outputPath resolves --output, falling back to the configured output
// directory or the deck's own directory.
func (n *narration) outputPath(flags appFlags) (string, error) {
	if flags.output != "" {
		err := fileutil.EnsureDir(filepath.Dir(flags.output))
		if err != nil {
			return "", err
		}

		return flags.output, nil
	}

	dir := n.cfg.Paths.OutputDir
	if dir == "" {
		dir = filepath.Dir(flags.deck)
	}

	err := fileutil.EnsureDir(dir)
	if err != nil {
		return "", err
	}

	return filepath.Join(dir, fileutil.NarratedName(flags.deck)), nil
}
