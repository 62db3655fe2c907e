package app

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"voiceptt/audio"
	"voiceptt/history"
	"voiceptt/hotkey"
	"voiceptt/settings"
	"voiceptt/transcriber"
)

type statusFunc func(string)

func (f statusFunc) Set(s string) { f(s) }

type historyFunc func([]history.Entry)

func (f historyFunc) Set(e []history.Entry) { f(e) }

type fakePresenter struct {
	mu       sync.Mutex
	glyphs   []Glyph
	statuses []string
	history  []history.Entry
	settings settings.Settings
	devices  []audio.DeviceInfo
}

func (p *fakePresenter) SetGlyph(g Glyph) {
	p.mu.Lock()
	p.glyphs = append(p.glyphs, g)
	p.mu.Unlock()
}

func (p *fakePresenter) Status() StatusHandle {
	return statusFunc(func(s string) {
		p.mu.Lock()
		p.statuses = append(p.statuses, s)
		p.mu.Unlock()
	})
}

func (p *fakePresenter) History() HistoryHandle {
	return historyFunc(func(e []history.Entry) {
		p.mu.Lock()
		p.history = e
		p.mu.Unlock()
	})
}

func (p *fakePresenter) SetSettings(s settings.Settings) {
	p.mu.Lock()
	p.settings = s
	p.mu.Unlock()
}

func (p *fakePresenter) SetDevices(d []audio.DeviceInfo) {
	p.mu.Lock()
	p.devices = d
	p.mu.Unlock()
}

func (p *fakePresenter) status() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.statuses) == 0 {
		return ""
	}
	return p.statuses[len(p.statuses)-1]
}

func (p *fakePresenter) glyph() Glyph {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.glyphs) == 0 {
		return ""
	}
	return p.glyphs[len(p.glyphs)-1]
}

func (p *fakePresenter) allStatuses() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.statuses...)
}

func (p *fakePresenter) shownHistory() []history.Entry {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.history
}

// effects records side effects in the order they happen.
type effects struct {
	mu      sync.Mutex
	events  []string
	copied  []string
	notes   []string
	sleeps  []time.Duration
	copyErr error
}

func (e *effects) add(ev string) {
	e.mu.Lock()
	e.events = append(e.events, ev)
	e.mu.Unlock()
}

func (e *effects) Copy(text string) error {
	e.mu.Lock()
	e.copied = append(e.copied, text)
	err := e.copyErr
	e.mu.Unlock()
	e.add("copy")
	return err
}

func (e *effects) Paste() error { e.add("paste"); return nil }
func (e *effects) Start()       { e.add("cue:start") }
func (e *effects) Success()     { e.add("cue:success") }
func (e *effects) Failure()     { e.add("cue:failure") }

func (e *effects) Notify(title, subtitle, body string) {
	e.mu.Lock()
	e.notes = append(e.notes, title+"|"+subtitle+"|"+body)
	e.mu.Unlock()
	e.add("notify")
}

func (e *effects) Alert(title, body string) {
	e.mu.Lock()
	e.notes = append(e.notes, title+"|alert|"+body)
	e.mu.Unlock()
}

func (e *effects) sleep(d time.Duration) {
	e.mu.Lock()
	e.sleeps = append(e.sleeps, d)
	e.mu.Unlock()
	e.add("sleep")
}

func (e *effects) snapshot() (events, copied, notes []string, sleeps []time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.events...),
		append([]string(nil), e.copied...),
		append([]string(nil), e.notes...),
		append([]time.Duration(nil), e.sleeps...)
}

func (e *effects) lastNote() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.notes) == 0 {
		return ""
	}
	return e.notes[len(e.notes)-1]
}

type fakeHotkeys struct {
	mu      sync.Mutex
	keys    []hotkey.Key
	stopped bool
}

func (h *fakeHotkeys) Reconfigure(k hotkey.Key) error {
	h.mu.Lock()
	h.keys = append(h.keys, k)
	h.mu.Unlock()
	return nil
}

func (h *fakeHotkeys) Stop() {
	h.mu.Lock()
	h.stopped = true
	h.mu.Unlock()
}

type panicTranscriber struct{}

func (panicTranscriber) Name() string               { return "panic" }
func (panicTranscriber) Load(context.Context) error { return nil }
func (panicTranscriber) Transcribe(context.Context, string, string) (string, error) {
	panic("decoder exploded")
}

type harness struct {
	app       *App
	pres      *fakePresenter
	fx        *effects
	tr        *transcriber.Fake
	ctx       *audio.FakeContext
	hist      *history.Log
	hk        *fakeHotkeys
	settings  string
	loads     []string
	loadsMu   sync.Mutex
	tempDir   string
	factoryFn func(size string) (transcriber.Transcriber, error)
}

func testDevices() []audio.DeviceInfo {
	return []audio.DeviceInfo{
		{Index: 0, ID: "out", Name: "Speakers", InputChannels: 0},
		{Index: 1, ID: "mic", Name: "Built-in Microphone", InputChannels: 1},
	}
}

// speech is a quarter second of non-zero samples.
func speech() []byte {
	pcm := make([]byte, 8000)
	for i := range pcm {
		pcm[i] = byte(i % 7)
	}
	return pcm
}

func newHarness(t *testing.T, pcm []byte, text string) *harness {
	t.Helper()
	dir := t.TempDir()

	hist, err := history.Open(filepath.Join(dir, history.FileName))
	require.NoError(t, err)

	h := &harness{
		pres:     &fakePresenter{},
		fx:       &effects{},
		tr:       transcriber.NewFake(text, nil),
		ctx:      audio.NewFakeContextPCM(pcm, testDevices()...),
		hist:     hist,
		hk:       &fakeHotkeys{},
		settings: filepath.Join(dir, settings.FileName),
		tempDir:  filepath.Join(dir, "tmp"),
	}
	require.NoError(t, os.MkdirAll(h.tempDir, 0755))

	session := audio.NewSession(h.ctx, audio.CaptureConfig{})
	session.SetWarmup(0)

	h.app = New(Deps{
		SettingsPath: h.settings,
		Settings:     settings.Defaults(),
		History:      hist,
		Session:      session,
		Devices:      h.ctx,
		Transcribers: func(size string) (transcriber.Transcriber, error) {
			h.loadsMu.Lock()
			h.loads = append(h.loads, size)
			fn := h.factoryFn
			h.loadsMu.Unlock()
			if fn != nil {
				return fn(size)
			}
			return h.tr, nil
		},
		Clipboard: h.fx,
		Paster:    h.fx,
		Cues:      h.fx,
		Notifier:  h.fx,
		Presenter: h.pres,
		Backend:   "fake",
		TempDir:   h.tempDir,
		Sleep:     h.fx.sleep,
		Cooldown:  time.Hour,
	})
	h.app.SetHotkeys(h.hk)
	t.Cleanup(h.app.Close)
	return h
}

func (h *harness) start(t *testing.T) {
	t.Helper()
	h.app.Start()
	h.app.Wait()
	require.True(t, h.app.Ready())
}

var t0 = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

// dictate runs one press and release and waits for the worker.
func (h *harness) dictate(hold time.Duration) {
	h.app.Pressed(t0)
	h.app.Released(hotkey.Release{Committed: hold >= hotkey.MinHold, Elapsed: hold})
	h.app.Wait()
}

type blockingTranscriber struct {
	release chan struct{}
}

func (b *blockingTranscriber) Name() string               { return "blocking" }
func (b *blockingTranscriber) Load(context.Context) error { return nil }
func (b *blockingTranscriber) Transcribe(context.Context, string, string) (string, error) {
	<-b.release
	return "done", nil
}
