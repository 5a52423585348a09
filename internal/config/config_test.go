// Package config_test tests the configuration loading for the narration service.
package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mrijcreo/scripttts/internal/config"
	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	tomlData := `
[nats]
url = "nats://127.0.0.1:4222"
narration_subject = "deck.narration"
deck_bucket = "DECKS"
audio_bucket = "AUDIO"

[tts_service]
url = "http://tts:8000/"
timeout_seconds = 300
workers = 4
temperature = 0.7
language = "nl"
backend = "http"

[llm]
model = "gpt-4o"
api_key_env = "SCRIPT_LLM_KEY"
style = "educational"
length = "beknopt"
informal = true

[deck]
notes_language = "nl-BE"
audio_banner = "[Audio]"
autoplay_delay_ms = 500

[paths]
base_logs_dir = "/var/log/scripttts"
output_dir = "/srv/decks"
`

	var cfg config.Config

	err := toml.Unmarshal([]byte(tomlData), &cfg)
	require.NoError(t, err)

	cfg.ApplyDefaults()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "nats://127.0.0.1:4222", cfg.NATS.URL)
	assert.Equal(t, "deck.narration", cfg.NATS.NarrationSubject)
	assert.Equal(t, "AUDIO", cfg.NATS.AudioBucket)
	assert.Equal(t, "http://tts:8000", cfg.TTS.GetServiceURL())
	assert.Equal(t, 300, cfg.TTS.TimeoutSeconds)
	assert.Equal(t, 4, cfg.TTS.Workers)
	assert.InEpsilon(t, 0.7, cfg.TTS.Temperature, 0.001)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
	assert.Equal(t, "educational", cfg.LLM.Style)
	assert.True(t, cfg.LLM.Informal)
	assert.Equal(t, 60, cfg.LLM.TimeoutSeconds)
	assert.Equal(t, "nl-BE", cfg.Deck.NotesLanguage)
	assert.Equal(t, 500, cfg.Deck.AutoplayDelayMs)
	assert.Equal(t, "/srv/decks", cfg.Paths.OutputDir)
}

func TestConfig_ApplyDefaults(t *testing.T) {
	t.Parallel()

	var cfg config.Config

	cfg.ApplyDefaults()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, config.BackendHTTP, cfg.TTS.Backend)
	assert.Equal(t, "http://localhost:8000", cfg.TTS.GetServiceURL())
	assert.Equal(t, 2, cfg.TTS.Workers)
	assert.Equal(t, "OPENAI_API_KEY", cfg.LLM.APIKeyEnv)
	assert.Equal(t, "normaal", cfg.LLM.Length)
	assert.Equal(t, "nl-NL", cfg.Deck.NotesLanguage)
	assert.Equal(t, 1000, cfg.Deck.AutoplayDelayMs)
	assert.NotEmpty(t, cfg.Paths.BaseLogsDir)
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	cfg := config.Config{}
	cfg.TTS.Backend = "carrier-pigeon"
	require.ErrorIs(t, cfg.Validate(), config.ErrUnknownBackend)

	cfg.TTS.Backend = config.BackendCommand
	require.ErrorIs(t, cfg.Validate(), config.ErrBinaryPathEmpty)

	cfg.TTS.BinaryPath = "/usr/local/bin/chatllm"
	require.NoError(t, cfg.Validate())
}

func TestLLMConfig_APIKey(t *testing.T) {
	t.Setenv("SCRIPTTTS_TEST_KEY", "sk-test")

	key, err := config.LLMConfig{APIKeyEnv: "SCRIPTTTS_TEST_KEY"}.APIKey()
	require.NoError(t, err)
	assert.Equal(t, "sk-test", key)

	_, err = config.LLMConfig{APIKeyEnv: "SCRIPTTTS_UNSET_KEY"}.APIKey()
	require.ErrorIs(t, err, config.ErrAPIKeyMissing)
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "project.toml")
	require.NoError(t, os.WriteFile(path, []byte("[tts_service]\nworkers = 3\n"), 0o600))

	cfg, err := config.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.TTS.Workers)
	assert.Equal(t, config.BackendHTTP, cfg.TTS.Backend)
	assert.Equal(t, "deck.narration.requested", cfg.NATS.NarrationSubject)
}

func TestLoadFile_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	_, err := config.LoadFile(filepath.Join(dir, "absent.toml"))
	require.Error(t, err)

	broken := filepath.Join(dir, "broken.toml")
	require.NoError(t, os.WriteFile(broken, []byte("[tts_service\n"), 0o600))

	_, err = config.LoadFile(broken)
	require.Error(t, err)

	command := filepath.Join(dir, "command.toml")
	require.NoError(t, os.WriteFile(command, []byte("[tts_service]\nbackend = \"command\"\n"), 0o600))

	_, err = config.LoadFile(command)
	require.ErrorIs(t, err, config.ErrBinaryPathEmpty)
}
