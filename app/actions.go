package app

import (
	"fmt"
	"strings"

	"voiceptt/audio"
	"voiceptt/hotkey"
	"voiceptt/log"
	"voiceptt/settings"
)

// ChangeModel persists the new size and reloads the transcriber in the
// background. Presses are rejected until the load finishes.
func (a *App) ChangeModel(size string) {
	a.mu.Lock()
	if size == a.settings.ModelSize {
		a.mu.Unlock()
		return
	}
	a.settings.ModelSize = size
	a.saveSettingsLocked("model_size", size)
	a.d.Presenter.SetSettings(a.settings)
	a.mu.Unlock()

	a.loadModel(size, fmt.Sprintf("Loading %s model...", size))
}

// ChangeAudioDevice takes effect on the next recording.
func (a *App) ChangeAudioDevice(index int) {
	a.mu.Lock()
	a.settings.AudioDevice = index
	a.saveSettingsLocked("audio_device", fmt.Sprint(index))
	a.d.Presenter.SetSettings(a.settings)
	a.mu.Unlock()

	a.RefreshDevices()
	a.d.Notifier.Notify(AppTitle, "", "Audio device: "+a.deviceName(index))
}

func (a *App) deviceName(index int) string {
	if a.d.Devices != nil {
		if devices, err := a.d.Devices.Devices(); err == nil {
			if d, ok := audio.FindDevice(devices, index); ok {
				return d.Name
			}
		}
	}
	return fmt.Sprintf("#%d", index)
}

func (a *App) ChangeHotkey(key hotkey.Key) {
	a.mu.Lock()
	a.settings.Hotkey = string(key)
	a.saveSettingsLocked("hotkey", string(key))
	a.d.Presenter.SetSettings(a.settings)
	hk := a.hotkeys
	a.mu.Unlock()

	if hk != nil {
		if err := hk.Reconfigure(key); err != nil {
			log.Errorf("hotkey %s: %v", key, err)
		}
	}

	a.mu.Lock()
	if a.state == Idle {
		a.cooldown = false
		a.generation++
		a.d.Presenter.Status().Set(a.readyStatusLocked())
	}
	a.mu.Unlock()
	a.d.Notifier.Notify(AppTitle, "", "Hotkey: "+key.Label())
}

// ToggleOutputMode flips copy/paste. A transcription already in flight
// keeps the mode it started with.
func (a *App) ToggleOutputMode() settings.Mode {
	a.mu.Lock()
	a.settings.Mode = a.settings.Mode.Toggled()
	mode := a.settings.Mode
	a.saveSettingsLocked("mode", string(mode))
	a.d.Presenter.SetSettings(a.settings)
	a.mu.Unlock()

	a.d.Notifier.Notify(AppTitle, "", "Output mode: "+mode.Upper())
	return mode
}

// CopyFromHistory copies entry index of the displayed history list.
func (a *App) CopyFromHistory(index int) {
	recent := a.d.History.Recent(HistoryShown)
	if index < 0 || index >= len(recent) {
		a.d.Notifier.Notify(AppTitle, "", "Error copying from history")
		return
	}
	if err := a.d.Clipboard.Copy(recent[index].Text); err != nil {
		log.Errorf("clipboard copy: %v", err)
		a.d.Notifier.Notify(AppTitle, "", "Error copying from history")
		return
	}
	a.d.Notifier.Notify(AppTitle, "", "Copied from history!")
}

// ClearHistory empties the journal. Callers must have asked the user.
func (a *App) ClearHistory() {
	if err := a.d.History.Clear(); err != nil {
		log.Errorf("%v", err)
		a.d.Notifier.Notify(AppTitle, "", "Error clearing history!")
		return
	}
	log.Info("transcription history cleared")

	a.mu.Lock()
	a.d.Presenter.History().Set(nil)
	a.mu.Unlock()
	a.d.Notifier.Notify(AppTitle, "", "Transcription history cleared!")
}

const ClearConfirmText = "Are you sure you want to clear all transcription history?\n\n" +
	"This will:\n• Remove all items from the menu\n• Clear the transcription file\n\n" +
	"This action cannot be undone."

func (a *App) HelpText() string {
	s := a.Settings()
	key := hotkey.Key(s.Hotkey).Label()
	device := []rune(a.deviceName(s.AudioDevice))
	if len(device) > 30 {
		device = device[:30]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🎙️ %s - Voice to Text\n\n", AppTitle)
	b.WriteString("🔥 QUICK START:\n")
	fmt.Fprintf(&b, "• Hold %s key to record\n", key)
	b.WriteString("• Release to transcribe\n")
	b.WriteString("• Text goes to clipboard (or auto-pastes)\n\n")
	b.WriteString("⚙️ FEATURES:\n")
	b.WriteString("• Push-to-talk recording\n")
	b.WriteString("• AI transcription (Whisper)\n")
	b.WriteString("• Copy or auto-paste modes\n")
	b.WriteString("• Transcription history\n")
	b.WriteString("• Customizable hotkeys\n")
	b.WriteString("• Multiple audio devices\n")
	b.WriteString("• Various AI model sizes\n\n")
	b.WriteString("🎯 CURRENT SETTINGS:\n")
	fmt.Fprintf(&b, "• Hotkey: %s\n", key)
	fmt.Fprintf(&b, "• Output: %s\n", s.Mode.Upper())
	fmt.Fprintf(&b, "• Model: %s\n", TitleCase(s.ModelSize))
	fmt.Fprintf(&b, "• Device: %s\n\n", string(device))
	b.WriteString("💡 TIP: Use Settings menu to customize everything!")
	return b.String()
}

func (a *App) ShowHelp() {
	a.d.Notifier.Alert("Voice PTT Help", a.HelpText())
}

// Quit stops the key monitor and any open recording, then signals Done.
func (a *App) Quit() {
	a.mu.Lock()
	hk := a.hotkeys
	a.mu.Unlock()
	if hk != nil {
		hk.Stop()
	}
	a.d.Session.Close()
	a.quitOnce.Do(func() { close(a.quit) })
}

// TitleCase upper-cases the first letter, e.g. for model sizes.
func TitleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
