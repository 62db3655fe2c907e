package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"slices"
	"time"

	"voiceptt/app"
	"voiceptt/audio"
	"voiceptt/beep"
	"voiceptt/clipboard"
	"voiceptt/encoder"
	"voiceptt/history"
	"voiceptt/hotkey"
	"voiceptt/log"
	"voiceptt/notify"
	"voiceptt/settings"
	"voiceptt/shutdown"
	"voiceptt/transcriber"
	"voiceptt/tray"
)

var version = "dev"

type options struct {
	dataDir string
	backend string
	lang    string
	format  string
	binPath string
	models  string
	tui     bool
	setup   bool
	test    string
}

func parseFlags() options {
	var o options
	flag.StringVar(&o.dataDir, "datadir", "", "data directory for settings, history and logs (default: OS-specific location)")
	flag.StringVar(&o.backend, "backend", transcriber.BackendLocal, "transcription backend: local, groq or openai")
	flag.StringVar(&o.lang, "lang", "en", "language code for transcription (e.g., en, es, fr)")
	flag.StringVar(&o.format, "format", encoder.Formats[0], "audio container sent to the transcriber: wav or flac")
	flag.StringVar(&o.binPath, "whisper-bin", "", "path to the whisper.cpp CLI (default: search PATH)")
	flag.StringVar(&o.models, "models", "", "directory holding whisper.cpp models (default: user cache dir)")
	flag.BoolVar(&o.tui, "tui", false, "run with a terminal dashboard instead of the tray")
	flag.BoolVar(&o.setup, "setup", false, "pick the microphone and check hotkey and paste access")
	flag.StringVar(&o.test, "test", "", "headless mode replaying `wav`, driven by p/r/q on stdin")
	versionFlag := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("voiceptt %s\n", version)
		os.Exit(0)
	}
	if !slices.Contains(encoder.Formats, o.format) {
		fmt.Fprintf(os.Stderr, "Error: unknown format %q (want one of %v)\n", o.format, encoder.Formats)
		os.Exit(1)
	}
	return o
}

func run() {
	o := parseFlags()

	dataDir, err := log.ResolveDir(o.dataDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve data directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(dataDir)
	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create data directory: %v\n", err)
	}
	initCrashLog()

	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}
	defer log.Close()

	settingsPath := filepath.Join(dataDir, settings.FileName)
	s, problems := settings.Load(settingsPath)
	for _, p := range problems {
		log.Warnf("%v", p)
	}

	hist, err := history.Open(filepath.Join(dataDir, history.FileName))
	if err != nil {
		log.Errorf("%v", err)
	}

	factory, err := transcriber.NewFactory(transcriber.Config{
		Backend:  o.backend,
		ModelDir: o.models,
		BinPath:  o.binPath,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if o.test != "" {
		runTestMode(o, settingsPath, s, hist, factory)
		return
	}

	audioCtx, err := audio.NewContext()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing audio: %v\n", err)
		os.Exit(1)
	}

	keyboard := clipboard.NewKeyboard()
	if o.setup {
		runSetup(audioCtx, keyboard, settingsPath, &s)
	}

	stack := &shutdown.Stack{}
	stack.Push("audio context", func() error { audioCtx.Close(); return nil })

	cues := beep.New()
	stack.Push("beep", func() error { cues.Close(); return nil })

	if s.Mode == settings.ModePaste {
		if err := keyboard.Init(); err != nil {
			log.Warnf("paste init failed: %v", err)
		}
	}

	session := audio.NewSession(audioCtx, audio.CaptureConfig{
		SampleRate: encoder.SampleRate,
		Channels:   encoder.Channels,
	})
	stack.Push("capture session", func() error { session.Close(); return nil })

	deps := app.Deps{
		SettingsPath: settingsPath,
		Settings:     s,
		History:      hist,
		Session:      session,
		Devices:      audioCtx,
		Transcribers: factory,
		Clipboard:    clipboard.System{},
		Paster:       keyboard,
		Cues:         cues,
		Notifier:     notify.New(),
		Backend:      o.backend,
		Lang:         o.lang,
		Format:       o.format,
	}

	var frontDone <-chan struct{}
	var a *app.App
	if o.tui {
		presenter := &tuiPresenter{}
		deps.Presenter = presenter
		a = app.New(deps)
		frontDone = startTUI(a, presenter)
		stack.Push("tui", func() error { presenter.close(); return nil })
	} else {
		t := tray.New()
		deps.Presenter = t
		a = app.New(deps)
		t.Bind(a)
		t.Run()
		stack.Push("tray", func() error { t.Close(); return nil })
		frontDone = t.Done()
	}
	stack.Push("app", func() error { a.Close(); return nil })

	monitor := hotkey.NewMonitor(hotkey.Key(s.Hotkey), hotkey.NewSource, a, a)
	a.SetHotkeys(monitor)
	if err := monitor.Start(); err != nil {
		log.Errorf("hotkey monitor: %v", err)
		fmt.Fprintf(os.Stderr, "Warning: hotkey unavailable: %v (run with -setup to diagnose)\n", err)
	}
	stack.Push("hotkey monitor", func() error { monitor.Stop(); return nil })

	a.Start()

	ctx, stop := shutdown.Context(context.Background())
	defer stop()
	go watchDevices(ctx, audioCtx, a)

	select {
	case <-a.Done():
	case <-frontDone:
		a.Quit()
	case <-ctx.Done():
		log.Info("signal received, shutting down")
		a.Quit()
	}

	if err := stack.Close(); err != nil {
		log.Errorf("shutdown: %v", err)
	}
}

func initCrashLog() {
	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
	debug.SetCrashOutput(crashFile, debug.CrashOptions{})
}

// watchDevices polls for hotplugged microphones and republishes the list
// when it changes.
func watchDevices(ctx context.Context, lister app.DeviceLister, a *app.App) {
	ticker := time.NewTicker(3 * time.Second)
	defer ticker.Stop()

	var last []string
	for {
		select {
		case <-ctx.Done():
			return
		case <-a.Done():
			return
		case <-ticker.C:
		}
		devices, err := lister.Devices()
		if err != nil {
			continue
		}
		names := make([]string, 0, len(devices))
		for _, d := range audio.InputDevices(devices) {
			names = append(names, fmt.Sprintf("%d:%s", d.Index, d.Name))
		}
		if last != nil && !slices.Equal(names, last) {
			log.Infof("audio devices changed: %v", names)
			a.RefreshDevices()
		}
		last = names
	}
}
