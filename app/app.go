// Package app is the push-to-talk orchestrator. It owns the recording state
// machine and fans a finished transcript out to the clipboard, the history
// journal and the presentation layer.
package app

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"voiceptt/audio"
	"voiceptt/history"
	"voiceptt/hotkey"
	"voiceptt/log"
	"voiceptt/settings"
	"voiceptt/transcriber"
)

const (
	AppTitle = "VoicePTT"

	DefaultPasteDelay = 200 * time.Millisecond
	DefaultCooldown   = 3 * time.Second

	// HistoryShown is how many entries the menus list and index into.
	HistoryShown = 5
)

var (
	ErrEmptyCapture = errors.New("no audio captured")
	ErrNoSpeech     = errors.New("no speech detected")
)

type State int

const (
	Idle State = iota
	Recording
	Processing
)

func (s State) String() string {
	switch s {
	case Recording:
		return "recording"
	case Processing:
		return "processing"
	}
	return "idle"
}

type Glyph string

const (
	GlyphIdle       Glyph = "🎙️"
	GlyphRecording  Glyph = "🔴"
	GlyphProcessing Glyph = "⏳"
	GlyphSuccess    Glyph = "✅"
)

type StatusHandle interface {
	Set(text string)
}

type HistoryHandle interface {
	Set(entries []history.Entry)
}

// Presenter renders the orchestrator's state. Calls arrive from several
// goroutines, never concurrently.
type Presenter interface {
	SetGlyph(g Glyph)
	Status() StatusHandle
	History() HistoryHandle
	SetSettings(s settings.Settings)
	SetDevices(devices []audio.DeviceInfo)
}

type Clipboard interface {
	Copy(text string) error
}

type Paster interface {
	Paste() error
}

type Cues interface {
	Start()
	Success()
	Failure()
}

type Notifier interface {
	Notify(title, subtitle, body string)
	Alert(title, body string)
}

// Capture is one recording at a time; *audio.Session implements it.
type Capture interface {
	Open(device int) error
	Close() [][]byte
	Active() bool
}

type DeviceLister interface {
	Devices() ([]audio.DeviceInfo, error)
}

// Hotkeys is the running key monitor; *hotkey.Monitor implements it.
type Hotkeys interface {
	Reconfigure(key hotkey.Key) error
	Stop()
}

// Deps carries every collaborator the orchestrator talks to.
type Deps struct {
	SettingsPath string
	Settings     settings.Settings

	History      *history.Log
	Session      Capture
	Devices      DeviceLister
	Transcribers transcriber.Factory

	Clipboard Clipboard
	Paster    Paster
	Cues      Cues
	Notifier  Notifier
	Presenter Presenter

	Backend string
	Lang    string
	Format  string
	TempDir string

	Now        func() time.Time
	Sleep      func(time.Duration)
	PasteDelay time.Duration
	Cooldown   time.Duration
}

type App struct {
	d Deps

	ctx  context.Context
	stop context.CancelFunc
	wg   sync.WaitGroup

	mu         sync.Mutex
	settings   settings.Settings
	state      State
	cooldown   bool
	generation uint64
	pressAt    time.Time
	ready      bool
	tr         transcriber.Transcriber
	loadGen    uint64
	hotkeys    Hotkeys
	timer      *time.Timer
	count      int
	quit       chan struct{}
	quitOnce   sync.Once
}

func New(d Deps) *App {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Sleep == nil {
		d.Sleep = time.Sleep
	}
	if d.PasteDelay == 0 {
		d.PasteDelay = DefaultPasteDelay
	}
	if d.Cooldown == 0 {
		d.Cooldown = DefaultCooldown
	}
	if d.TempDir == "" {
		d.TempDir = os.TempDir()
	}
	if d.Lang == "" {
		d.Lang = "en"
	}
	ctx, stop := context.WithCancel(context.Background())
	return &App{
		d:        d,
		ctx:      ctx,
		stop:     stop,
		settings: d.Settings,
		quit:     make(chan struct{}),
	}
}

// SetHotkeys attaches the key monitor once it has been built around the app.
func (a *App) SetHotkeys(h Hotkeys) {
	a.mu.Lock()
	a.hotkeys = h
	a.mu.Unlock()
}

// Start paints the initial display and loads the model in the background.
func (a *App) Start() {
	a.mu.Lock()
	s := a.settings
	a.d.Presenter.SetSettings(s)
	a.d.Presenter.SetGlyph(GlyphIdle)
	a.d.Presenter.History().Set(a.d.History.Recent(HistoryShown))
	a.mu.Unlock()

	a.RefreshDevices()
	log.SessionStart(a.d.Backend, s.ModelSize, string(s.Mode), s.Hotkey)
	a.loadModel(s.ModelSize, "Loading AI model...")
}

func (a *App) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Cooldown reports the short success display that follows a transcription.
func (a *App) Cooldown() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cooldown
}

func (a *App) Ready() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ready
}

func (a *App) Settings() settings.Settings {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.settings
}

// Done is closed by Quit.
func (a *App) Done() <-chan struct{} { return a.quit }

// Wait blocks until background work (model loads and workers) finishes.
func (a *App) Wait() { a.wg.Wait() }

func (a *App) readyStatusLocked() string {
	return "Ready • Hold " + hotkey.Key(a.settings.Hotkey).Label() + " to speak"
}

// loadModel swaps the transcriber. A slower, older load never overwrites a
// newer one.
func (a *App) loadModel(size, status string) {
	a.mu.Lock()
	a.ready = false
	a.loadGen++
	gen := a.loadGen
	if a.state == Idle {
		a.cooldown = false
		a.generation++
		a.d.Presenter.SetGlyph(GlyphIdle)
	}
	a.d.Presenter.Status().Set(status)
	a.mu.Unlock()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		start := a.d.Now()
		tr, err := a.d.Transcribers(size)
		if err == nil {
			err = tr.Load(a.ctx)
		}

		a.mu.Lock()
		defer a.mu.Unlock()
		if gen != a.loadGen {
			return
		}
		if err != nil {
			log.Errorf("error loading model: %v", err)
			a.d.Presenter.Status().Set("Error loading model: " + err.Error())
			return
		}
		a.tr = tr
		a.ready = true
		log.ModelLoaded(a.d.Backend, size, a.d.Now().Sub(start))
		if a.state == Idle {
			a.cooldown = false
			a.generation++
			a.d.Presenter.SetGlyph(GlyphIdle)
			a.d.Presenter.Status().Set(a.readyStatusLocked())
		}
	}()
}

// RefreshDevices republishes the input device list, e.g. after a hotplug.
func (a *App) RefreshDevices() {
	if a.d.Devices == nil {
		return
	}
	devices, err := a.d.Devices.Devices()
	if err != nil {
		log.Warnf("listing audio devices: %v", err)
		return
	}
	a.d.Presenter.SetDevices(audio.InputDevices(devices))
}

func (a *App) saveSettingsLocked(field, value string) {
	log.SettingChanged(field, value)
	if err := settings.Save(a.d.SettingsPath, a.settings); err != nil {
		log.Errorf("%v", err)
	}
}

// Close stops background work. It does not wait for a running
// transcription, which has no timeout.
func (a *App) Close() {
	a.mu.Lock()
	if a.timer != nil {
		a.timer.Stop()
	}
	count := a.count
	a.mu.Unlock()
	a.stop()
	log.SessionEnd(count)
}
