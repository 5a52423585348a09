package tts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/book-expert/logger"
	"golang.org/x/sync/errgroup"

	"github.com/mrijcreo/scripttts/internal/core"
	"github.com/mrijcreo/scripttts/internal/pptx"
	"github.com/mrijcreo/scripttts/internal/tts/audio"
	"github.com/mrijcreo/scripttts/internal/tts/text"
)

// HealthCheckTimeout bounds the pre-flight check of a remote synthesizer.
const HealthCheckTimeout = 10 * time.Second

const defaultWorkers = 1

const (
	errFmtHealthCheckFailed = "speech service health check failed: %w"
	logFmtServiceHealthy    = "Speech service is healthy, synthesizing %d scripts"
	logFmtSynthesized       = "Synthesized slide %d (%d bytes, %s)"
	logFmtSynthesisFailed   = "Failed to synthesize slide %d: %v"
	logFmtRejectedAudio     = "Discarding audio for slide %d: %v"
	logFmtSkippedEmpty      = "Slide %d has no speakable text, skipping synthesis"
	logFmtSynthesisSummary  = "Synthesized %d of %d scripts"
)

// ErrNoSynthesizer is returned when a Narrator is built without a backend.
var ErrNoSynthesizer = errors.New("no speech synthesizer configured")

// Narrator synthesizes audio for every script of a deck in parallel.
type Narrator struct {
	synth      core.SpeechSynthesizer
	normalizer *text.Normalizer
	log        *logger.Logger
	workers    int
	timeout    time.Duration
}

// NewNarrator creates a Narrator. workers bounds concurrent requests and
// timeout bounds each one; zero disables the per-request deadline.
func NewNarrator(
	synth core.SpeechSynthesizer,
	language string,
	workers int,
	timeout time.Duration,
	log *logger.Logger,
) (*Narrator, error) {
	if synth == nil {
		return nil, ErrNoSynthesizer
	}

	if workers < 1 {
		workers = defaultWorkers
	}

	return &Narrator{
		synth:      synth,
		normalizer: text.NewNormalizer(language),
		log:        log,
		workers:    workers,
		timeout:    timeout,
	}, nil
}

// SynthesizeScripts returns a copy of entries where every script that could
// be spoken carries audio. Entries that already have audio are kept as they
// are. A failed slide is logged and left without audio; only a failed health
// check or a cancelled context aborts the batch.
func (n *Narrator) SynthesizeScripts(ctx context.Context, entries []pptx.ScriptEntry) ([]pptx.ScriptEntry, error) {
	err := n.checkHealth(ctx)
	if err != nil {
		return nil, err
	}

	n.log.Info(logFmtServiceHealthy, len(entries))

	result := make([]pptx.ScriptEntry, len(entries))
	copy(result, entries)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(n.workers)

	for index := range result {
		if result[index].HasAudio() {
			continue
		}

		group.Go(func() error {
			result[index].Audio = n.synthesizeOne(groupCtx, index, result[index])

			return nil
		})
	}

	_ = group.Wait()

	ctxErr := ctx.Err()
	if ctxErr != nil {
		return nil, fmt.Errorf("synthesis interrupted: %w", ctxErr)
	}

	voiced := 0

	for _, entry := range result {
		if entry.HasAudio() {
			voiced++
		}
	}

	n.log.Info(logFmtSynthesisSummary, voiced, len(result))

	return result, nil
}

func (n *Narrator) checkHealth(ctx context.Context) error {
	checker, ok := n.synth.(core.HealthChecker)
	if !ok {
		return nil
	}

	healthCtx, cancel := context.WithTimeout(ctx, HealthCheckTimeout)
	defer cancel()

	err := checker.HealthCheck(healthCtx)
	if err != nil {
		return fmt.Errorf(errFmtHealthCheckFailed, err)
	}

	return nil
}

func (n *Narrator) synthesizeOne(ctx context.Context, index int, entry pptx.ScriptEntry) []byte {
	slideNumber := entry.SlideNumber
	if slideNumber <= 0 {
		slideNumber = index + 1
	}

	spoken := n.normalizer.Normalize(entry.Script)
	if spoken == "" {
		n.log.Info(logFmtSkippedEmpty, slideNumber)

		return nil
	}

	if n.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}

	data, err := n.synth.Synthesize(ctx, spoken)
	if err != nil {
		n.log.Error(logFmtSynthesisFailed, slideNumber, err)

		return nil
	}

	format, err := audio.Detect(data)
	if err != nil {
		n.log.Warn(logFmtRejectedAudio, slideNumber, err)

		return nil
	}

	n.log.Info(logFmtSynthesized, slideNumber, len(data), format.Extension)

	return data
}
