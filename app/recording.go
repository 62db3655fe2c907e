package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"voiceptt/audio"
	"voiceptt/encoder"
	"voiceptt/history"
	"voiceptt/hotkey"
	"voiceptt/log"
	"voiceptt/settings"
	"voiceptt/transcriber"
)

const previewLen = 50

// AcceptPress lets a press through when the model is loaded and nothing is
// being recorded or transcribed. The success display counts as idle.
func (a *App) AcceptPress() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ready && a.state == Idle
}

func (a *App) Recording() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state == Recording
}

// Pressed opens the capture session.
func (a *App) Pressed(at time.Time) {
	a.mu.Lock()
	if !a.ready || a.state != Idle {
		a.mu.Unlock()
		return
	}
	a.state = Recording
	a.cooldown = false
	a.generation++
	a.pressAt = at
	device := a.settings.AudioDevice
	a.mu.Unlock()

	if err := a.d.Session.Open(device); err != nil {
		detail := err.Error()
		var devErr *audio.DeviceError
		if errors.As(err, &devErr) {
			detail = devErr.Err.Error()
		}
		log.Errorf("audio: %v", err)
		a.cancel("Audio error: " + detail)
		return
	}

	a.mu.Lock()
	if a.state == Recording {
		a.d.Presenter.SetGlyph(GlyphRecording)
		a.d.Presenter.Status().Set("Recording... (hold key)")
	}
	a.mu.Unlock()
	a.d.Cues.Start()
}

// Released ends the recording. A committed release hands the frames to a
// worker; a short one discards them.
func (a *App) Released(r hotkey.Release) {
	a.mu.Lock()
	if a.state != Recording {
		a.mu.Unlock()
		return
	}
	if !r.Committed {
		a.mu.Unlock()
		a.cancel("Key press too short")
		return
	}

	frames := a.d.Session.Close()
	a.state = Processing
	a.d.Presenter.SetGlyph(GlyphProcessing)
	a.d.Presenter.Status().Set("Processing audio...")
	j := job{
		frames: frames,
		tr:     a.tr,
		mode:   a.settings.Mode,
		held:   r.Elapsed,
	}
	a.wg.Add(1)
	a.mu.Unlock()

	go a.work(j)
}

// cancel closes any open session and returns to Idle with the reason shown.
func (a *App) cancel(reason string) {
	a.d.Session.Close()

	a.mu.Lock()
	a.state = Idle
	a.cooldown = false
	a.generation++
	a.d.Presenter.SetGlyph(GlyphIdle)
	a.d.Presenter.Status().Set("Cancelled: " + reason)
	a.mu.Unlock()

	log.Cancelled(reason)
	a.d.Cues.Failure()
}

type job struct {
	frames [][]byte
	tr     transcriber.Transcriber
	mode   settings.Mode
	held   time.Duration
}

func (a *App) work(j job) {
	defer a.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("worker panic: %v\n%s", r, debug.Stack())
			a.cancel(fmt.Sprintf("Transcription error: %v", r))
		}
	}()

	start := a.d.Now()
	text, err := a.transcribe(a.ctx, j)
	switch {
	case errors.Is(err, ErrEmptyCapture):
		a.cancel("No audio captured")
		return
	case errors.Is(err, ErrNoSpeech):
		a.cancel("No speech detected")
		return
	case err != nil:
		var svcErr *transcriber.ServiceError
		if errors.As(err, &svcErr) {
			log.Errorf("transcription service %s failed: %v", svcErr.Service, svcErr.Err)
		}
		a.cancel("Transcription error: " + err.Error())
		return
	}

	a.deliver(text, j.mode)
	log.Transcription(utf8.RuneCountInString(text), string(j.mode), j.held, a.d.Now().Sub(start))
}

func (a *App) transcribe(ctx context.Context, j job) (string, error) {
	pcm := audio.Join(j.frames)
	if len(pcm) == 0 {
		return "", ErrEmptyCapture
	}

	format := a.d.Format
	if format == "" {
		format = "wav"
	}
	path := filepath.Join(a.d.TempDir, "voiceptt-"+uuid.NewString()+"."+format)
	defer os.Remove(path)

	if _, err := encoder.WriteFile(path, format, pcm); err != nil {
		return "", fmt.Errorf("encode %s: %w", format, err)
	}

	a.mu.Lock()
	if a.state == Processing {
		a.d.Presenter.Status().Set("Transcribing with AI...")
	}
	a.mu.Unlock()

	text, err := j.tr.Transcribe(ctx, path, a.d.Lang)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrNoSpeech
	}
	return text, nil
}

// deliver runs the success side effects in order. Each failure is logged
// and does not stop the rest.
func (a *App) deliver(text string, mode settings.Mode) {
	if _, _, err := a.d.History.Append(text); err != nil {
		log.Errorf("%v", err)
	}
	if err := a.d.Clipboard.Copy(text); err != nil {
		log.Errorf("clipboard copy: %v", err)
	}
	subtitle := "Copied to clipboard"
	if mode == settings.ModePaste {
		a.d.Sleep(a.d.PasteDelay)
		if err := a.d.Paster.Paste(); err != nil {
			log.Errorf("paste: %v", err)
		}
		subtitle = "Pasted to clipboard"
	}
	a.d.Cues.Success()
	a.d.Notifier.Notify(AppTitle, subtitle, Preview(text))

	a.mu.Lock()
	defer a.mu.Unlock()
	a.state = Idle
	a.cooldown = true
	a.generation++
	a.count++
	gen := a.generation
	a.d.Presenter.SetGlyph(GlyphSuccess)
	a.d.Presenter.Status().Set(fmt.Sprintf("✅ Transcribed • %d chars • %s", utf8.RuneCountInString(text), mode))
	a.d.Presenter.History().Set(a.d.History.Recent(HistoryShown))
	a.timer = time.AfterFunc(a.d.Cooldown, func() { a.endCooldown(gen) })
}

// endCooldown reverts the success display unless something newer happened.
func (a *App) endCooldown(gen uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if gen != a.generation || a.state != Idle || !a.cooldown || !a.ready {
		return
	}
	a.cooldown = false
	a.d.Presenter.SetGlyph(GlyphIdle)
	a.d.Presenter.Status().Set(a.readyStatusLocked())
}

// Preview shortens text for notifications and menu items.
func Preview(text string) string {
	r := []rune(text)
	if len(r) <= previewLen {
		return text
	}
	return string(r[:previewLen]) + "..."
}

// HistoryLabel renders one history menu line.
func HistoryLabel(e history.Entry) string {
	return e.TimestampLocal + ": " + Preview(e.Text)
}
