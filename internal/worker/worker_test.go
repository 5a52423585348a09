package worker_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/book-expert/events"
	"github.com/book-expert/logger"
	"github.com/google/uuid"
	"github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrijcreo/scripttts/internal/core"
	"github.com/mrijcreo/scripttts/internal/pptx"
	"github.com/mrijcreo/scripttts/internal/tts/audio"
	"github.com/mrijcreo/scripttts/internal/worker"
)

const (
	testSubject  = "deck.narration.requested"
	inputDeckKey = "input.pptx"
)

var errMockGenerate = errors.New("mock generate error")

// wavBytes is a minimal 16-bit mono PCM file.
var wavBytes = []byte("RIFF\x24\x08\x00\x00WAVEfmt \x10\x00\x00\x00\x01\x00\x01\x00\x44\xac\x00\x00\x88\x58\x01\x00\x02\x00\x10\x00data\x00\x08\x00\x00")

const (
	contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/><Default Extension="xml" ContentType="application/xml"/></Types>`

	presentationXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:presentation xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"><p:sldSz cx="9144000" cy="6858000"/></p:presentation>`

	presentationRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"/>`

	slideFmt = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"><p:cSld><p:spTree><p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/><p:sp><p:nvSpPr><p:cNvPr id="2" name="Title"/><p:cNvSpPr/><p:nvPr><p:ph type="title"/></p:nvPr></p:nvSpPr><p:spPr/><p:txBody><a:bodyPr/><a:p><a:r><a:t>%s</a:t></a:r></a:p></p:txBody></p:sp><p:sp><p:nvSpPr><p:cNvPr id="3" name="Body"/><p:cNvSpPr/><p:nvPr><p:ph type="body"/></p:nvPr></p:nvSpPr><p:spPr/><p:txBody><a:bodyPr/><a:p><a:r><a:t>%s</a:t></a:r></a:p></p:txBody></p:sp></p:spTree></p:cSld></p:sld>`
)

// mockObjectStore is an in-memory core.ObjectStore.
type mockObjectStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMockObjectStore() *mockObjectStore {
	return &mockObjectStore{objects: make(map[string][]byte)}
}

func (m *mockObjectStore) Download(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("object %s not found", key)
	}

	return data, nil
}

func (m *mockObjectStore) Upload(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.objects[key] = data

	return nil
}

func (m *mockObjectStore) get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.objects[key]

	return data, ok
}

// mockGenerator returns fixed scripts and records the last request.
type mockGenerator struct {
	mu        sync.Mutex
	fail      bool
	request   core.ScriptRequest
	converted []pptx.ScriptEntry
}

func (m *mockGenerator) GenerateScripts(_ context.Context, req core.ScriptRequest) (*core.ScriptSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.fail {
		return nil, errMockGenerate
	}

	m.request = req

	scripts := make([]string, len(req.Slides))
	for i, slide := range req.Slides {
		scripts[i] = "Gegenereerd voor " + slide.Title
	}

	return &core.ScriptSet{Scripts: scripts, FullScript: strings.Join(scripts, " ")}, nil
}

func (m *mockGenerator) ConvertInformal(_ context.Context, entries []pptx.ScriptEntry) (*core.ScriptSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.converted = entries

	scripts := make([]string, len(entries))
	for i, entry := range entries {
		scripts[i] = strings.ReplaceAll(entry.Script, "u ", "jij ")
	}

	return &core.ScriptSet{Scripts: scripts}, nil
}

// mockNarrator gives every entry without audio the same recording.
type mockNarrator struct{}

func (mockNarrator) SynthesizeScripts(_ context.Context, entries []pptx.ScriptEntry) ([]pptx.ScriptEntry, error) {
	voiced := make([]pptx.ScriptEntry, len(entries))
	copy(voiced, entries)

	for i := range voiced {
		if !voiced[i].HasAudio() {
			voiced[i].Audio = wavBytes
		}
	}

	return voiced, nil
}

type testEnv struct {
	conn   *nats.Conn
	decks  *mockObjectStore
	audio  *mockObjectStore
	cancel context.CancelFunc
	done   chan error
}

func buildDeck(t *testing.T, titles ...string) []byte {
	t.Helper()

	archive := pptx.NewArchive()
	archive.Put("[Content_Types].xml", []byte(contentTypesXML))
	archive.Put("ppt/presentation.xml", []byte(presentationXML))
	archive.Put("ppt/_rels/presentation.xml.rels", []byte(presentationRelsXML))

	for i, title := range titles {
		archive.Put(fmt.Sprintf("ppt/slides/slide%d.xml", i+1),
			fmt.Appendf(nil, slideFmt, title, "De inhoud van deze slide is lang genoeg"))
	}

	data, err := archive.Serialize()
	require.NoError(t, err)

	return data
}

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()

	log, err := logger.New(t.TempDir(), "test-log.log")
	require.NoError(t, err)
	t.Cleanup(func() { _ = log.Close() })

	return log
}

func createTestNatsClient(t *testing.T) *nats.Conn {
	t.Helper()

	opts := test.DefaultTestOptions
	opts.Port = -1
	opts.JetStream = true
	opts.StoreDir = t.TempDir()
	server := test.RunServer(&opts)
	t.Cleanup(server.Shutdown)

	natsConnection, err := nats.Connect(server.ClientURL())
	require.NoError(t, err)
	t.Cleanup(natsConnection.Close)

	return natsConnection
}

func setupTest(t *testing.T, opts ...worker.Option) *testEnv {
	t.Helper()

	log := newTestLogger(t)
	env := &testEnv{
		conn:  createTestNatsClient(t),
		decks: newMockObjectStore(),
		audio: newMockObjectStore(),
		done:  make(chan error, 1),
	}

	pipeline := pptx.NewPipeline(log, audio.Detector{}, nil, pptx.Options{})

	workerInstance, err := worker.NewNatsWorker(env.conn, testSubject, env.decks, env.audio, pipeline, log, opts...)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	env.cancel = cancel

	go func() {
		env.done <- workerInstance.Run(ctx)
	}()

	t.Cleanup(func() {
		cancel()
		<-env.done
	})

	return env
}

func newHeader() events.EventHeader {
	return events.EventHeader{
		Timestamp:  time.Now(),
		WorkflowID: uuid.NewString(),
		EventID:    uuid.NewString(),
	}
}

// request sends the event, retrying until the worker's subscription is live.
func (env *testEnv) request(t *testing.T, event any) *core.DeckNarratedEvent {
	t.Helper()

	data, err := json.Marshal(event)
	require.NoError(t, err)

	var reply *nats.Msg

	require.Eventually(t, func() bool {
		reply, err = env.conn.Request(testSubject, data, 5*time.Second)

		return !errors.Is(err, nats.ErrNoResponders)
	}, 5*time.Second, 20*time.Millisecond)
	require.NoError(t, err)

	var replyEvent core.DeckNarratedEvent

	require.NoError(t, json.Unmarshal(reply.Data, &replyEvent))

	return &replyEvent
}

func (env *testEnv) narratedDeck(t *testing.T, key string) *pptx.Archive {
	t.Helper()

	data, ok := env.decks.get(key)
	require.True(t, ok, "narrated deck %s was not uploaded", key)

	archive, err := pptx.Load(data)
	require.NoError(t, err)

	return archive
}

func TestNewNatsWorker_Validation(t *testing.T) {
	t.Parallel()

	log := newTestLogger(t)
	pipeline := pptx.NewPipeline(log, audio.Detector{}, nil, pptx.Options{})
	conn := createTestNatsClient(t)
	store := newMockObjectStore()

	_, err := worker.NewNatsWorker(nil, testSubject, store, store, pipeline, log)
	require.ErrorIs(t, err, worker.ErrNilConnection)

	_, err = worker.NewNatsWorker(conn, "", store, store, pipeline, log)
	require.ErrorIs(t, err, worker.ErrSubjectEmpty)

	_, err = worker.NewNatsWorker(conn, testSubject, store, store, nil, log)
	require.ErrorIs(t, err, worker.ErrNilPipeline)
}

func TestMessageHandler_Success(t *testing.T) {
	t.Parallel()

	env := setupTest(t)
	require.NoError(t, env.decks.Upload(context.Background(), inputDeckKey, buildDeck(t, "Welkom", "Cijfers")))

	event := &core.DeckNarrationRequestedEvent{
		Header:  newHeader(),
		DeckKey: inputDeckKey,
		Scripts: []core.SlideScript{
			{SlideNumber: 1, Script: "Goedemorgen & welkom"},
			{SlideNumber: 2, Script: "De cijfers"},
		},
	}

	reply := env.request(t, event)

	require.Empty(t, reply.Error)
	assert.Equal(t, event.Header.WorkflowID, reply.Header.WorkflowID)
	assert.True(t, strings.HasSuffix(reply.DeckKey, ".pptx"))
	assert.NotEqual(t, inputDeckKey, reply.DeckKey)
	assert.Equal(t, map[int]pptx.LinkState{1: pptx.FullyLinked, 2: pptx.FullyLinked}, reply.States)
	assert.Equal(t, []string{"Goedemorgen & welkom", "De cijfers"}, reply.Scripts)

	output := env.narratedDeck(t, reply.DeckKey)
	notes, ok := output.Get("ppt/notesSlides/notesSlide1.xml")
	require.True(t, ok)
	assert.Contains(t, string(notes), "Goedemorgen &amp; welkom")
}

func TestMessageHandler_PrerecordedAudio(t *testing.T) {
	t.Parallel()

	env := setupTest(t)
	ctx := context.Background()
	require.NoError(t, env.decks.Upload(ctx, inputDeckKey, buildDeck(t, "Welkom", "Cijfers")))
	require.NoError(t, env.audio.Upload(ctx, "recordings/slide1.wav", wavBytes))

	reply := env.request(t, &core.DeckNarrationRequestedEvent{
		Header:  newHeader(),
		DeckKey: inputDeckKey,
		Scripts: []core.SlideScript{
			{SlideNumber: 1, Script: "Met audio", AudioKey: "recordings/slide1.wav"},
			{SlideNumber: 2, Script: "Audio ontbreekt", AudioKey: "recordings/missing.wav"},
		},
	})

	require.Empty(t, reply.Error)

	output := env.narratedDeck(t, reply.DeckKey)
	assert.True(t, output.Exists("ppt/media/slide_1_audio.wav"))
	assert.False(t, output.Exists("ppt/media/slide_2_audio.wav"))

	slide, ok := output.Get("ppt/slides/slide1.xml")
	require.True(t, ok)
	assert.Contains(t, string(slide), "p:timing")
}

func TestMessageHandler_GenerateScripts(t *testing.T) {
	t.Parallel()

	generator := &mockGenerator{}
	env := setupTest(t, worker.WithGenerator(generator), worker.WithScriptDefaults("casual", "beknopt"))
	require.NoError(t, env.decks.Upload(context.Background(), inputDeckKey, buildDeck(t, "Welkom", "Cijfers")))

	reply := env.request(t, &core.DeckNarrationRequestedEvent{
		Header:   newHeader(),
		DeckKey:  inputDeckKey,
		Generate: true,
		Length:   "uitgebreid",
	})

	require.Empty(t, reply.Error)
	assert.Equal(t, []string{"Gegenereerd voor Welkom", "Gegenereerd voor Cijfers"}, reply.Scripts)

	generator.mu.Lock()
	assert.Equal(t, "casual", generator.request.Style)
	assert.Equal(t, "uitgebreid", generator.request.Length)
	require.Len(t, generator.request.Slides, 2)
	generator.mu.Unlock()

	notes, ok := env.narratedDeck(t, reply.DeckKey).Get("ppt/notesSlides/notesSlide2.xml")
	require.True(t, ok)
	assert.Contains(t, string(notes), "Gegenereerd voor Cijfers")
}

func TestMessageHandler_InformalRewrite(t *testing.T) {
	t.Parallel()

	generator := &mockGenerator{}
	env := setupTest(t, worker.WithGenerator(generator))
	require.NoError(t, env.decks.Upload(context.Background(), inputDeckKey, buildDeck(t, "Welkom")))

	reply := env.request(t, &core.DeckNarrationRequestedEvent{
		Header:   newHeader(),
		DeckKey:  inputDeckKey,
		Scripts:  []core.SlideScript{{SlideNumber: 1, Script: "Heeft u vragen?"}},
		Informal: true,
	})

	require.Empty(t, reply.Error)
	assert.Equal(t, []string{"Heeft jij vragen?"}, reply.Scripts)
}

func TestMessageHandler_Synthesize(t *testing.T) {
	t.Parallel()

	env := setupTest(t, worker.WithNarrator(mockNarrator{}))
	require.NoError(t, env.decks.Upload(context.Background(), inputDeckKey, buildDeck(t, "Welkom")))

	event := &core.DeckNarrationRequestedEvent{
		Header:     newHeader(),
		DeckKey:    inputDeckKey,
		Scripts:    []core.SlideScript{{SlideNumber: 1, Script: "Welkom"}},
		Synthesize: true,
	}

	reply := env.request(t, event)

	require.Empty(t, reply.Error)
	assert.Equal(t, pptx.FullyLinked, reply.States[1])

	stored, ok := env.audio.get(event.Header.WorkflowID + "/slide_1.wav")
	require.True(t, ok, "synthesized audio should be kept in the audio bucket")
	assert.Equal(t, wavBytes, stored)
}

func TestMessageHandler_Errors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		opts     []worker.Option
		event    *core.DeckNarrationRequestedEvent
		contains string
	}{
		{
			name:     "missing deck key",
			event:    &core.DeckNarrationRequestedEvent{Scripts: []core.SlideScript{{Script: "x"}}},
			contains: worker.ErrDeckKeyEmpty.Error(),
		},
		{
			name:     "no scripts",
			event:    &core.DeckNarrationRequestedEvent{DeckKey: inputDeckKey},
			contains: worker.ErrNoScripts.Error(),
		},
		{
			name:     "deck not stored",
			event:    &core.DeckNarrationRequestedEvent{DeckKey: "absent.pptx", Scripts: []core.SlideScript{{Script: "x"}}},
			contains: "failed to download deck",
		},
		{
			name:     "synthesis not configured",
			event:    &core.DeckNarrationRequestedEvent{DeckKey: inputDeckKey, Scripts: []core.SlideScript{{Script: "x"}}, Synthesize: true},
			contains: worker.ErrSynthesisUnavailable.Error(),
		},
		{
			name:     "generation not configured",
			event:    &core.DeckNarrationRequestedEvent{DeckKey: inputDeckKey, Generate: true},
			contains: worker.ErrGenerationUnavailable.Error(),
		},
		{
			name:     "generation fails",
			opts:     []worker.Option{worker.WithGenerator(&mockGenerator{fail: true})},
			event:    &core.DeckNarrationRequestedEvent{DeckKey: inputDeckKey, Generate: true},
			contains: errMockGenerate.Error(),
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			env := setupTest(t, testCase.opts...)
			require.NoError(t, env.decks.Upload(context.Background(), inputDeckKey, buildDeck(t, "Welkom")))

			testCase.event.Header = newHeader()

			reply := env.request(t, testCase.event)

			assert.Contains(t, reply.Error, testCase.contains)
			assert.Empty(t, reply.DeckKey)
			assert.Equal(t, testCase.event.Header.WorkflowID, reply.Header.WorkflowID)
		})
	}
}

func TestMessageHandler_MalformedEvent(t *testing.T) {
	t.Parallel()

	env := setupTest(t)

	var reply *nats.Msg

	require.Eventually(t, func() bool {
		var err error

		reply, err = env.conn.Request(testSubject, []byte("{not json"), 5*time.Second)

		return err == nil
	}, 5*time.Second, 20*time.Millisecond)

	var replyEvent core.DeckNarratedEvent

	require.NoError(t, json.Unmarshal(reply.Data, &replyEvent))
	assert.Contains(t, replyEvent.Error, "failed to unmarshal event")
}

func TestNatsWorker_Run_GracefulShutdown(t *testing.T) {
	t.Parallel()

	log := newTestLogger(t)
	pipeline := pptx.NewPipeline(log, audio.Detector{}, nil, pptx.Options{})
	store := newMockObjectStore()

	workerInstance, err := worker.NewNatsWorker(createTestNatsClient(t), testSubject, store, store, pipeline, log)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- workerInstance.Run(ctx)
	}()

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err, "worker.Run should not error on graceful shutdown")
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop")
	}
}
