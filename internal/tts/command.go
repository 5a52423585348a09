package tts

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/book-expert/logger"
)

const tempAudioPattern = "narration-*.wav"

// ErrBinaryPathEmpty is returned when no synthesis binary is configured.
var ErrBinaryPathEmpty = errors.New("synthesis binary path cannot be empty")

// CommandSynthesizer runs a local model binary that writes a WAV file.
type CommandSynthesizer struct {
	binaryPath string
	modelPath  string
	voice      Voice
	log        *logger.Logger
}

// NewCommandSynthesizer creates a synthesizer invoking binaryPath with modelPath.
func NewCommandSynthesizer(binaryPath, modelPath string, voice Voice, log *logger.Logger) (*CommandSynthesizer, error) {
	if binaryPath == "" {
		return nil, ErrBinaryPathEmpty
	}

	return &CommandSynthesizer{
		binaryPath: binaryPath,
		modelPath:  modelPath,
		voice:      voice,
		log:        log,
	}, nil
}

// Synthesize runs the binary once for text and returns the exported audio.
func (c *CommandSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	tempFile, err := os.CreateTemp("", tempAudioPattern)
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file for audio output: %w", err)
	}

	closeErr := tempFile.Close()
	if closeErr != nil {
		c.log.Warn("Failed to close temp file '%s': %v", tempFile.Name(), closeErr)
	}

	defer func() {
		removeErr := os.Remove(tempFile.Name())
		if removeErr != nil {
			c.log.Warn("Failed to remove temp file '%s': %v", tempFile.Name(), removeErr)
		}
	}()

	// #nosec G204 -- binary and model come from the service configuration
	cmd := exec.CommandContext(ctx, c.binaryPath, c.args(text, tempFile.Name())...)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("synthesis binary execution failed: %w - output: %s", err, string(output))
	}

	audioData, err := os.ReadFile(tempFile.Name())
	if err != nil {
		return nil, fmt.Errorf("failed to read audio data from temp file: %w", err)
	}

	if len(audioData) == 0 {
		return nil, ErrEmptyAudio
	}

	return audioData, nil
}

func (c *CommandSynthesizer) args(text, exportPath string) []string {
	temperature := c.voice.Temperature
	if temperature == 0 {
		temperature = defaultTemperature
	}

	args := []string{
		"-p", text,
		"--tts_export", exportPath,
		"--temp", strconv.FormatFloat(temperature, 'f', 2, 64),
	}

	if c.modelPath != "" {
		args = append([]string{"-m", c.modelPath}, args...)
	}

	if c.voice.SpeakerRefPath != "" {
		args = append(args, "--speaker", c.voice.SpeakerRefPath)
	}

	return args
}
