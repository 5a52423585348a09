// Package config provides the configuration structure for the narration service.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/book-expert/configurator"
	"github.com/book-expert/logger"
	"github.com/pelletier/go-toml/v2"
)

// Defaults for values the project file may leave out.
const (
	defaultTTSURL          = "http://localhost:8000"
	defaultTimeoutSeconds  = 120
	defaultWorkers         = 2
	defaultTemperature     = 0.75
	defaultLanguage        = "nl"
	defaultBackend         = BackendHTTP
	defaultLLMModel        = "gpt-4o-mini"
	defaultAPIKeyEnv       = "OPENAI_API_KEY"
	defaultLLMTimeout      = 60
	defaultStyle           = "professional"
	defaultLength          = "normaal"
	defaultNotesLanguage   = "nl-NL"
	defaultAudioBanner     = "[Audio beschikbaar]"
	defaultAutoplayDelayMs = 1000
	defaultDeckBucket      = "DECKS"
	defaultAudioBucket     = "NARRATION_AUDIO"
	defaultSubject         = "deck.narration.requested"
)

// Speech backends.
const (
	BackendHTTP    = "http"
	BackendCommand = "command"
)

var (
	// ErrUnknownBackend indicates tts_service.backend names no known backend.
	ErrUnknownBackend = errors.New("unknown tts backend")
	// ErrBinaryPathEmpty indicates the command backend has no binary configured.
	ErrBinaryPathEmpty = errors.New("binary_path is required for the command backend")
	// ErrAPIKeyMissing indicates the environment variable holding the LLM key is unset.
	ErrAPIKeyMissing = errors.New("llm api key not set")
)

// NATSConfig holds the configuration for NATS.
type NATSConfig struct {
	URL              string `toml:"url"`
	NarrationSubject string `toml:"narration_subject"`
	DeckBucket       string `toml:"deck_bucket"`
	AudioBucket      string `toml:"audio_bucket"`
}

// TTSServiceConfig holds the configuration of the speech backend.
type TTSServiceConfig struct {
	URL            string  `toml:"url"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
	Workers        int     `toml:"workers"`
	Temperature    float64 `toml:"temperature"`
	Language       string  `toml:"language"`
	SpeakerRefPath string  `toml:"speaker_ref_path"`
	Backend        string  `toml:"backend"`
	BinaryPath     string  `toml:"binary_path"`
	ModelPath      string  `toml:"model_path"`
}

// GetServiceURL returns the base URL of the TTS service without a trailing slash.
func (c TTSServiceConfig) GetServiceURL() string {
	return strings.TrimRight(c.URL, "/")
}

// LLMConfig holds the configuration of the script writing model.
type LLMConfig struct {
	Model          string `toml:"model"`
	APIKeyEnv      string `toml:"api_key_env"`
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	Style          string `toml:"style"`
	Length         string `toml:"length"`
	Informal       bool   `toml:"informal"`
}

// APIKey reads the key from the configured environment variable.
func (c LLMConfig) APIKey() (string, error) {
	key := os.Getenv(c.APIKeyEnv)
	if key == "" {
		return "", fmt.Errorf("%w: $%s is empty", ErrAPIKeyMissing, c.APIKeyEnv)
	}

	return key, nil
}

// DeckConfig tunes what is written into decks.
type DeckConfig struct {
	NotesLanguage   string `toml:"notes_language"`
	AudioBanner     string `toml:"audio_banner"`
	AutoplayDelayMs int    `toml:"autoplay_delay_ms"`
}

// PathsConfig holds the configuration for file paths.
type PathsConfig struct {
	BaseLogsDir string `toml:"base_logs_dir"`
	OutputDir   string `toml:"output_dir"`
}

// Config is the root configuration structure.
type Config struct {
	NATS  NATSConfig       `toml:"nats"`
	TTS   TTSServiceConfig `toml:"tts_service"`
	LLM   LLMConfig        `toml:"llm"`
	Deck  DeckConfig       `toml:"deck"`
	Paths PathsConfig      `toml:"paths"`
}

// Load loads the project configuration, fills in defaults and validates it.
func Load(log *logger.Logger) (*Config, error) {
	var cfg Config

	err := configurator.Load(&cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration from configurator: %w", err)
	}

	cfg.ApplyDefaults()

	err = cfg.Validate()
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadFile reads the project configuration from an explicit TOML file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %s: %w", path, err)
	}

	var cfg Config

	err = toml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %s: %w", path, err)
	}

	cfg.ApplyDefaults()

	err = cfg.Validate()
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ApplyDefaults fills every unset value with its default.
func (c *Config) ApplyDefaults() {
	setDefault(&c.NATS.NarrationSubject, defaultSubject)
	setDefault(&c.NATS.DeckBucket, defaultDeckBucket)
	setDefault(&c.NATS.AudioBucket, defaultAudioBucket)

	setDefault(&c.TTS.URL, defaultTTSURL)
	setDefault(&c.TTS.Language, defaultLanguage)
	setDefault(&c.TTS.Backend, defaultBackend)
	setDefault(&c.TTS.TimeoutSeconds, defaultTimeoutSeconds)
	setDefault(&c.TTS.Workers, defaultWorkers)
	setDefault(&c.TTS.Temperature, defaultTemperature)

	setDefault(&c.LLM.Model, defaultLLMModel)
	setDefault(&c.LLM.APIKeyEnv, defaultAPIKeyEnv)
	setDefault(&c.LLM.TimeoutSeconds, defaultLLMTimeout)
	setDefault(&c.LLM.Style, defaultStyle)
	setDefault(&c.LLM.Length, defaultLength)

	setDefault(&c.Deck.NotesLanguage, defaultNotesLanguage)
	setDefault(&c.Deck.AudioBanner, defaultAudioBanner)
	setDefault(&c.Deck.AutoplayDelayMs, defaultAutoplayDelayMs)

	setDefault(&c.Paths.BaseLogsDir, os.TempDir())
}

// Validate reports settings that cannot work together.
func (c *Config) Validate() error {
	switch c.TTS.Backend {
	case BackendHTTP:
		return nil
	case BackendCommand:
		if c.TTS.BinaryPath == "" {
			return ErrBinaryPathEmpty
		}

		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.TTS.Backend)
	}
}

func setDefault[T comparable](field *T, value T) {
	var zero T

	if *field == zero {
		*field = value
	}
}
