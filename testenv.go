package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"voiceptt/app"
	"voiceptt/audio"
	"voiceptt/beep"
	"voiceptt/encoder"
	"voiceptt/history"
	"voiceptt/hotkey"
	"voiceptt/notify"
	"voiceptt/settings"
	"voiceptt/transcriber"
)

// linePresenter prints every display update as one line, so a driving
// process can follow the state machine on stdout.
type linePresenter struct {
	mu     sync.Mutex
	out    io.Writer
	status string
}

type lineStatus struct{ p *linePresenter }
type lineHistory struct{ p *linePresenter }

func (p *linePresenter) printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, format+"\n", args...)
}

func (s lineStatus) Set(text string) {
	s.p.mu.Lock()
	s.p.status = text
	s.p.mu.Unlock()
	s.p.printf("STATUS %s", text)
}

func (h lineHistory) Set(entries []history.Entry) { h.p.printf("HISTORY %d", len(entries)) }

func (p *linePresenter) SetGlyph(g app.Glyph) { p.printf("GLYPH %s", g) }
func (p *linePresenter) Status() app.StatusHandle { return lineStatus{p} }
func (p *linePresenter) History() app.HistoryHandle { return lineHistory{p} }
func (p *linePresenter) SetSettings(s settings.Settings) {
	p.printf("SETTINGS mode=%s model=%s hotkey=%s device=%d", s.Mode, s.ModelSize, s.Hotkey, s.AudioDevice)
}
func (p *linePresenter) SetDevices(devices []audio.DeviceInfo) { p.printf("DEVICES %d", len(devices)) }

func (p *linePresenter) lastStatus() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// lineOutput stands in for the clipboard and the paste keystroke.
type lineOutput struct{ p *linePresenter }

func (o lineOutput) Copy(text string) error { o.p.printf("COPIED %s", text); return nil }
func (o lineOutput) Paste() error { o.p.printf("PASTED"); return nil }

// runTestMode replays wavPath as the microphone and reads commands from
// stdin: p presses the hotkey, r releases it, w waits until the app is idle,
// "s <ms>" sleeps and q quits.
func runTestMode(o options, settingsPath string, s settings.Settings, hist *history.Log, factory transcriber.Factory) {
	fakeCtx, err := audio.NewFakeContext(o.test, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading WAV: %v\n", err)
		os.Exit(1)
	}
	s.AudioDevice = fakeCtx.Devs[0].Index

	session := audio.NewSession(fakeCtx, audio.CaptureConfig{
		SampleRate: encoder.SampleRate,
		Channels:   encoder.Channels,
	})
	session.SetWarmup(0)

	cues := beep.New()
	cues.Disable()
	notifier := notify.New()
	notifier.Disable()

	presenter := &linePresenter{out: os.Stdout}
	out := lineOutput{presenter}
	a := app.New(app.Deps{
		SettingsPath: settingsPath,
		Settings:     s,
		History:      hist,
		Session:      session,
		Devices:      fakeCtx,
		Transcribers: factory,
		Clipboard:    out,
		Paster:       out,
		Cues:         cues,
		Notifier:     notifier,
		Presenter:    presenter,
		Backend:      o.backend,
		Lang:         o.lang,
		Format:       o.format,
	})

	hk := hotkey.NewFake()
	monitor := hotkey.NewMonitor(hotkey.Key(s.Hotkey), hk.Factory, a, a)
	a.SetHotkeys(monitor)
	if err := monitor.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Error starting hotkey: %v\n", err)
		os.Exit(1)
	}

	a.Start()
	for !a.Ready() {
		if strings.HasPrefix(presenter.lastStatus(), "Error loading model") {
			os.Exit(1)
		}
		time.Sleep(50 * time.Millisecond)
	}
	presenter.printf("READY")

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		cmd := strings.TrimSpace(scanner.Text())
		switch {
		case cmd == "p":
			hk.Down(time.Now())
		case cmd == "r":
			hk.Up(time.Now())
		case cmd == "w":
			waitIdle(a)
		case strings.HasPrefix(cmd, "s "):
			if ms, err := strconv.Atoi(strings.TrimSpace(cmd[2:])); err == nil {
				time.Sleep(time.Duration(ms) * time.Millisecond)
			}
		case cmd == "q":
			quitTestMode(a)
			return
		}
	}
	quitTestMode(a)
}

// waitIdle blocks until no recording or transcription is in flight.
func waitIdle(a *app.App) {
	time.Sleep(20 * time.Millisecond)
	for a.State() != app.Idle {
		time.Sleep(20 * time.Millisecond)
	}
}

func quitTestMode(a *app.App) {
	waitIdle(a)
	a.Quit()
	a.Wait()
	a.Close()
}
