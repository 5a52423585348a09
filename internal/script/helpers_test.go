package script_test

import (
	"context"
	"sync"
	"testing"

	"github.com/book-expert/logger"
	"github.com/stretchr/testify/require"
)

// fakeCompleter returns a canned answer and records the prompts it saw.
type fakeCompleter struct {
	mu      sync.Mutex
	answer  string
	err     error
	systems []string
	prompts []string
}

func (f *fakeCompleter) Complete(_ context.Context, system, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.systems = append(f.systems, system)
	f.prompts = append(f.prompts, prompt)

	return f.answer, f.err
}

func (f *fakeCompleter) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.prompts) == 0 {
		return ""
	}

	return f.prompts[len(f.prompts)-1]
}

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()

	log, err := logger.New(t.TempDir(), "test-log.log")
	require.NoError(t, err)
	t.Cleanup(func() { _ = log.Close() })

	return log
}
