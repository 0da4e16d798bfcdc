package runner

import (
	"Butler/internal/ai"
	"Butler/internal/service/clipboard"
	"Butler/internal/service/hotkey"
	"Butler/internal/settings"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type improverFunc func(ctx context.Context, cfg ai.BackendConfig, text string) (string, error)

func (f improverFunc) Improve(ctx context.Context, cfg ai.BackendConfig, text string) (string, error) {
	return f(ctx, cfg, text)
}

type fakeSwapper struct {
	mu         sync.Mutex
	selection  string
	captureErr error
	replaceErr error
	replaced   []string
	restored   int
}

func (s *fakeSwapper) Capture(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.captureErr != nil {
		return "", s.captureErr
	}
	return s.selection, nil
}

func (s *fakeSwapper) Replace(_ context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replaced = append(s.replaced, text)
	return s.replaceErr
}

func (s *fakeSwapper) Restore(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.restored++
	return nil
}

func (s *fakeSwapper) replacements() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.replaced...)
}

type fakeNotifier struct {
	done, failed atomic.Int32
}

func (n *fakeNotifier) PlayDone(context.Context) error {
	n.done.Add(1)
	return nil
}

func (n *fakeNotifier) PlayFailed(context.Context) error {
	n.failed.Add(1)
	return nil
}

type fakeSettings struct {
	mu      sync.Mutex
	current settings.Settings
	ch      chan settings.Settings
}

func newFakeSettings(s settings.Settings) *fakeSettings {
	return &fakeSettings{current: s, ch: make(chan settings.Settings, 1)}
}

func (f *fakeSettings) Snapshot() settings.Settings {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

func (f *fakeSettings) Subscribe() <-chan settings.Settings { return f.ch }

func (f *fakeSettings) publish(s settings.Settings) {
	f.mu.Lock()
	f.current = s
	f.mu.Unlock()
	f.ch <- s
}

func hostedSettings() settings.Settings {
	s := settings.Defaults()
	s.APIKey = "sk-test"
	s.TranslateFrom = ""
	return s
}

func TestTriggerReplacesSelection(t *testing.T) {
	sw := &fakeSwapper{selection: "helo wrld"}
	n := &fakeNotifier{}
	var got ai.BackendConfig
	r := New(zap.NewNop().Sugar(), Options{
		Improver: improverFunc(func(_ context.Context, cfg ai.BackendConfig, text string) (string, error) {
			got = cfg
			assert.Equal(t, "helo wrld", text)
			return "Hello, world.", nil
		}),
		Swapper:  sw,
		Notifier: n,
		Settings: newFakeSettings(hostedSettings()),
	})

	require.NoError(t, r.Trigger(context.Background()))
	assert.Equal(t, []string{"Hello, world."}, sw.replacements())
	assert.Equal(t, ai.Hosted, got.Kind)
	assert.Equal(t, "sk-test", got.APIKey)
	assert.Equal(t, int32(1), n.done.Load())
	assert.Zero(t, n.failed.Load())
	assert.NoError(t, r.LastError())
	assert.False(t, r.Processing())
}

func TestTriggerNoSelection(t *testing.T) {
	sw := &fakeSwapper{captureErr: clipboard.ErrNoTextSelected}
	n := &fakeNotifier{}
	called := false
	r := New(zap.NewNop().Sugar(), Options{
		Improver: improverFunc(func(context.Context, ai.BackendConfig, string) (string, error) {
			called = true
			return "", nil
		}),
		Swapper:  sw,
		Notifier: n,
		Settings: newFakeSettings(hostedSettings()),
	})

	err := r.Trigger(context.Background())
	assert.ErrorIs(t, err, clipboard.ErrNoTextSelected)
	assert.False(t, called)
	assert.Equal(t, int32(1), n.failed.Load())
	assert.ErrorIs(t, r.LastError(), clipboard.ErrNoTextSelected)
}

func TestTriggerPipelineFailureRestoresClipboard(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	sw := &fakeSwapper{selection: "text"}
	r := New(zap.New(core).Sugar(), Options{
		Improver: improverFunc(func(context.Context, ai.BackendConfig, string) (string, error) {
			return "", &ai.Error{Kind: ai.ServiceError, Message: "Incorrect API key provided", StatusCode: 401}
		}),
		Swapper:  sw,
		Notifier: &fakeNotifier{},
		Settings: newFakeSettings(hostedSettings()),
	})

	err := r.Trigger(context.Background())
	assert.ErrorIs(t, err, ai.ErrService)
	assert.EqualError(t, err, "Incorrect API key provided")
	assert.Empty(t, sw.replacements())
	assert.Equal(t, 1, sw.restored)
	assert.Equal(t, 1, logs.FilterMessage("Improvement failed").Len())
}

func TestTriggerRefusesEmptyResult(t *testing.T) {
	sw := &fakeSwapper{selection: "text"}
	r := New(zap.NewNop().Sugar(), Options{
		Improver: improverFunc(func(context.Context, ai.BackendConfig, string) (string, error) {
			return "   ", nil
		}),
		Swapper:  sw,
		Settings: newFakeSettings(hostedSettings()),
	})

	assert.ErrorIs(t, r.Trigger(context.Background()), ai.ErrNoContent)
	assert.Empty(t, sw.replacements())
}

func TestTriggerRestoreFailureStillSucceeds(t *testing.T) {
	sw := &fakeSwapper{selection: "text", replaceErr: clipboard.ErrRestoreFailed}
	n := &fakeNotifier{}
	r := New(zap.NewNop().Sugar(), Options{
		Improver: improverFunc(func(context.Context, ai.BackendConfig, string) (string, error) { return "Text.", nil }),
		Swapper:  sw,
		Notifier: n,
		Settings: newFakeSettings(hostedSettings()),
	})

	require.NoError(t, r.Trigger(context.Background()))
	assert.Equal(t, int32(1), n.done.Load())
}

func TestTriggerPasteFailure(t *testing.T) {
	sw := &fakeSwapper{selection: "text", replaceErr: clipboard.ErrReplaceFailed}
	r := New(zap.NewNop().Sugar(), Options{
		Improver: improverFunc(func(context.Context, ai.BackendConfig, string) (string, error) { return "Text.", nil }),
		Swapper:  sw,
		Settings: newFakeSettings(hostedSettings()),
	})

	assert.ErrorIs(t, r.Trigger(context.Background()), clipboard.ErrReplaceFailed)
}

func TestSecondRequestIsRejectedWhileBusy(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	r := New(zap.NewNop().Sugar(), Options{
		Improver: improverFunc(func(context.Context, ai.BackendConfig, string) (string, error) {
			close(started)
			<-release
			return "Done.", nil
		}),
		Settings: newFakeSettings(hostedSettings()),
	})

	done := make(chan error, 1)
	go func() {
		_, err := r.ImproveText(context.Background(), "first")
		done <- err
	}()
	<-started
	assert.True(t, r.Processing())

	_, err := r.ImproveText(context.Background(), "second")
	assert.ErrorIs(t, err, ErrBusy)

	close(release)
	require.NoError(t, <-done)
	assert.False(t, r.Processing())
}

func TestImproveTextEmpty(t *testing.T) {
	r := New(zap.NewNop().Sugar(), Options{Settings: newFakeSettings(hostedSettings())})
	_, err := r.ImproveText(context.Background(), " \n ")
	assert.ErrorIs(t, err, ErrEmptyText)
}

type countingTransport struct{ calls atomic.Int32 }

func (c *countingTransport) Do(context.Context, ai.Request) (int, []byte, error) {
	c.calls.Add(1)
	return 200, []byte(`{"choices":[{"message":{"content":"x"}}]}`), nil
}

func TestMissingCredentialFailsWithoutNetwork(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	tr := &countingTransport{}
	s := hostedSettings()
	s.APIKey = ""
	r := New(zap.NewNop().Sugar(), Options{
		Improver: ai.NewPipeline(tr, nil),
		Settings: newFakeSettings(s),
	})

	_, err := r.ImproveText(context.Background(), "hello")
	assert.ErrorIs(t, err, ai.ErrMissingCredential)
	assert.Zero(t, tr.calls.Load())
	assert.ErrorIs(t, r.LastError(), ai.ErrMissingCredential)
}

func TestLocalWithoutModelIsNotStarted(t *testing.T) {
	s := hostedSettings()
	s.Backend = "local"
	s.Model = ""
	r := New(zap.NewNop().Sugar(), Options{
		Improver: ai.NewStubImprover(),
		Settings: newFakeSettings(s),
	})
	_, err := r.ImproveText(context.Background(), "hello")
	assert.ErrorContains(t, err, "no model selected")
}

func TestModelsUsesCatalogConfig(t *testing.T) {
	s := hostedSettings()
	s.Backend = "local"
	s.Model = ""
	var got ai.BackendConfig
	r := New(zap.NewNop().Sugar(), Options{
		Settings: newFakeSettings(s),
		ListModels: func(_ context.Context, cfg ai.BackendConfig) ([]string, error) {
			got = cfg
			return []string{"llama3", "mistral"}, nil
		},
	})

	models, err := r.Models(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"llama3", "mistral"}, models)
	assert.Equal(t, ai.Local, got.Kind)
	assert.Equal(t, ai.DefaultLocalBaseURL, got.BaseURL)
}

func TestModelsError(t *testing.T) {
	r := New(zap.NewNop().Sugar(), Options{
		Settings: newFakeSettings(hostedSettings()),
		ListModels: func(context.Context, ai.BackendConfig) ([]string, error) {
			return nil, errors.New("offline")
		},
	})
	_, err := r.Models(context.Background())
	assert.EqualError(t, err, "offline")
}

func TestRunAppliesSettingsAndHotkeys(t *testing.T) {
	src := newFakeSettings(hostedSettings())
	keys := make(chan hotkey.Event, 1)
	sw := &fakeSwapper{selection: "ciao"}
	var kinds sync.Map
	r := New(zap.NewNop().Sugar(), Options{
		Improver: improverFunc(func(_ context.Context, cfg ai.BackendConfig, text string) (string, error) {
			kinds.Store(cfg.Kind, cfg.Model)
			return "Hello.", nil
		}),
		Swapper:  sw,
		Settings: src,
		Hotkeys:  keys,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	local := hostedSettings()
	local.Backend = "local"
	local.Model = "llama3"
	src.publish(local)
	require.Eventually(t, func() bool {
		cfg, err := r.Backend()
		return err == nil && cfg.Kind == ai.Local
	}, 2*time.Second, 10*time.Millisecond)

	keys <- hotkey.Event{At: time.Now()}
	require.Eventually(t, func() bool { return len(sw.replacements()) == 1 }, 2*time.Second, 10*time.Millisecond)
	model, ok := kinds.Load(ai.Local)
	require.True(t, ok)
	assert.Equal(t, "llama3", model)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}
}
