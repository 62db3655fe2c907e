package main

import (
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"voiceptt/app"
	"voiceptt/audio"
	"voiceptt/history"
	"voiceptt/hotkey"
	"voiceptt/settings"
)

type fakeActions struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeActions) record(s string) {
	f.mu.Lock()
	f.calls = append(f.calls, s)
	f.mu.Unlock()
}

func (f *fakeActions) ToggleOutputMode() settings.Mode {
	f.record("toggle")
	return settings.ModePaste
}
func (f *fakeActions) CopyFromHistory(i int) { f.record("copy:" + string(rune('0'+i))) }
func (f *fakeActions) ClearHistory() { f.record("clear") }
func (f *fakeActions) ChangeModel(size string) { f.record("model:" + size) }
func (f *fakeActions) ChangeAudioDevice(index int) { f.record("device:" + string(rune('0'+index))) }
func (f *fakeActions) ChangeHotkey(key hotkey.Key) { f.record("hotkey:" + string(key)) }
func (f *fakeActions) ShowHelp() { f.record("help") }
func (f *fakeActions) Quit() { f.record("quit") }
func (f *fakeActions) HelpText() string { return "HELP TEXT" }

func (f *fakeActions) got() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return strings.Join(f.calls, ",")
}

func press(t *testing.T, m tuiModel, key string) (tuiModel, tea.Cmd) {
	t.Helper()
	var msg tea.KeyMsg
	if key == "esc" {
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	} else {
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	next, cmd := m.Update(msg)
	return next.(tuiModel), cmd
}

func runCmd(cmd tea.Cmd) tea.Msg {
	if cmd == nil {
		return nil
	}
	return cmd()
}

func newTestModel(actions *fakeActions) tuiModel {
	m := newTUIModel(actions)
	next, _ := m.Update(settingsMsg(settings.Defaults()))
	return next.(tuiModel)
}

func TestTUIKeysDispatchActions(t *testing.T) {
	actions := &fakeActions{}
	m := newTestModel(actions)

	for _, key := range []string{"m", "3", "w", "k"} {
		var cmd tea.Cmd
		m, cmd = press(t, m, key)
		runCmd(cmd)
	}
	if got, want := actions.got(), "toggle,copy:2,model:medium,hotkey:cmd_l"; got != want {
		t.Errorf("calls = %q, want %q", got, want)
	}
}

func TestTUIClearNeedsConfirmation(t *testing.T) {
	actions := &fakeActions{}
	m := newTestModel(actions)

	m, _ = press(t, m, "c")
	if m.confirming {
		t.Fatal("confirmation shown with empty history")
	}

	next, _ := m.Update(historyMsg{{Text: "hello", TimestampLocal: "10:00:00"}})
	m = next.(tuiModel)

	m, _ = press(t, m, "c")
	if !m.confirming {
		t.Fatal("expected confirmation prompt")
	}
	m, cmd := press(t, m, "n")
	runCmd(cmd)
	if m.confirming || actions.got() != "" {
		t.Fatalf("declined clear still acted: %q", actions.got())
	}

	m, _ = press(t, m, "c")
	_, cmd = press(t, m, "y")
	runCmd(cmd)
	if actions.got() != "clear" {
		t.Errorf("calls = %q, want clear", actions.got())
	}
}

func TestTUIQuit(t *testing.T) {
	m := newTestModel(&fakeActions{})
	_, cmd := press(t, m, "q")
	if _, ok := runCmd(cmd).(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}

func TestTUIView(t *testing.T) {
	actions := &fakeActions{}
	m := newTestModel(actions)
	for _, msg := range []tea.Msg{
		tea.WindowSizeMsg{Width: 120, Height: 30},
		glyphMsg(app.GlyphRecording),
		statusMsg("Recording... (hold key)"),
		historyMsg{{Text: "first note", TimestampLocal: "09:15:00"}},
		devicesMsg{{Index: 1, Name: "Built-in Microphone", InputChannels: 1}},
	} {
		next, _ := m.Update(msg)
		m = next.(tuiModel)
	}

	view := m.View()
	for _, want := range []string{"Recording... (hold key)", "1. 09:15:00: first note", "Built-in Microphone", "CMD+R", "COPY"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}

	m, _ = press(t, m, "h")
	if !strings.Contains(m.View(), "HELP TEXT") {
		t.Error("help not shown")
	}
	m, _ = press(t, m, "esc")
	if m.showHelp {
		t.Error("esc did not close help")
	}
}

func TestCycleHelpers(t *testing.T) {
	if got := nextKey(hotkey.CtrlL); got != hotkey.CmdR {
		t.Errorf("nextKey wrap = %s", got)
	}
	if got := nextModel("large"); got != "tiny" {
		t.Errorf("nextModel wrap = %s", got)
	}
	devices := []audio.DeviceInfo{{Index: 1}, {Index: 4}}
	if got, _ := nextDevice(devices, 1); got != 4 {
		t.Errorf("nextDevice = %d, want 4", got)
	}
	if got, _ := nextDevice(devices, 4); got != 1 {
		t.Errorf("nextDevice wrap = %d, want 1", got)
	}
	if _, ok := nextDevice(nil, 1); ok {
		t.Error("nextDevice with no devices")
	}
}

func TestLinePresenter(t *testing.T) {
	var b strings.Builder
	p := &linePresenter{out: &b}
	p.SetGlyph(app.GlyphIdle)
	p.Status().Set("Ready • Hold CMD+R to speak")
	p.History().Set([]history.Entry{{Text: "a"}, {Text: "b"}})
	lineOutput{p}.Copy("hello")

	want := "GLYPH 🎙️\nSTATUS Ready • Hold CMD+R to speak\nHISTORY 2\nCOPIED hello\n"
	if b.String() != want {
		t.Errorf("got %q, want %q", b.String(), want)
	}
	if p.lastStatus() != "Ready • Hold CMD+R to speak" {
		t.Errorf("lastStatus = %q", p.lastStatus())
	}
}
