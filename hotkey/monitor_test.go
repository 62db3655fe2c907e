package hotkey

import (
	"errors"
	"sync"
	"testing"
	"time"
)

type testGate struct {
	mu        sync.Mutex
	accept    bool
	recording bool
}

func (g *testGate) AcceptPress() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.accept
}

func (g *testGate) Recording() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.recording
}

func (g *testGate) set(accept, recording bool) {
	g.mu.Lock()
	g.accept, g.recording = accept, recording
	g.mu.Unlock()
}

// recordingHandler flips the gate the way the orchestrator does.
type recordingHandler struct {
	gate     *testGate
	pressed  chan time.Time
	released chan Release
}

func newRecordingHandler(g *testGate) *recordingHandler {
	return &recordingHandler{
		gate:     g,
		pressed:  make(chan time.Time, 8),
		released: make(chan Release, 8),
	}
}

func (h *recordingHandler) Pressed(at time.Time) {
	h.gate.set(false, true)
	h.pressed <- at
}

func (h *recordingHandler) Released(r Release) {
	h.gate.set(true, false)
	h.released <- r
}

func startMonitor(t *testing.T) (*Fake, *testGate, *recordingHandler, *Monitor) {
	t.Helper()
	fk := NewFake()
	gate := &testGate{accept: true}
	h := newRecordingHandler(gate)
	m := NewMonitor(CmdR, fk.Factory, gate, h)
	if err := m.Start(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(m.Stop)
	return fk, gate, h, m
}

func waitPressed(t *testing.T, h *recordingHandler) time.Time {
	t.Helper()
	select {
	case at := <-h.pressed:
		return at
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for press")
	}
	return time.Time{}
}

func waitReleased(t *testing.T, h *recordingHandler) Release {
	t.Helper()
	select {
	case r := <-h.released:
		return r
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for release")
	}
	return Release{}
}

func expectNothing(t *testing.T, h *recordingHandler) {
	t.Helper()
	select {
	case <-h.pressed:
		t.Fatal("unexpected press")
	case r := <-h.released:
		t.Fatalf("unexpected release %+v", r)
	case <-time.After(50 * time.Millisecond):
	}
}

var t0 = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func TestMonitorCommittedRelease(t *testing.T) {
	fk, _, h, _ := startMonitor(t)

	fk.Down(t0)
	if at := waitPressed(t, h); !at.Equal(t0) {
		t.Errorf("pressed at %v, want %v", at, t0)
	}
	fk.Up(t0.Add(150 * time.Millisecond))
	r := waitReleased(t, h)
	if !r.Committed {
		t.Error("150ms hold should commit")
	}
	if r.Elapsed != 150*time.Millisecond {
		t.Errorf("elapsed %v", r.Elapsed)
	}
}

func TestMonitorTooShort(t *testing.T) {
	fk, _, h, _ := startMonitor(t)

	fk.Down(t0)
	waitPressed(t, h)
	fk.Up(t0.Add(50 * time.Millisecond))
	if r := waitReleased(t, h); r.Committed {
		t.Error("50ms hold should be too short")
	}
}

func TestMonitorThresholdInclusive(t *testing.T) {
	fk, _, h, _ := startMonitor(t)

	fk.Down(t0)
	waitPressed(t, h)
	fk.Up(t0.Add(MinHold))
	if r := waitReleased(t, h); !r.Committed {
		t.Error("a hold of exactly MinHold should commit")
	}
}

func TestMonitorFiltersRepeat(t *testing.T) {
	fk, _, h, _ := startMonitor(t)

	fk.Down(t0)
	waitPressed(t, h)
	fk.Down(t0.Add(30 * time.Millisecond))
	fk.Down(t0.Add(60 * time.Millisecond))
	expectNothing(t, h)

	fk.Up(t0.Add(200 * time.Millisecond))
	waitReleased(t, h)
}

func TestMonitorGateRejectsPress(t *testing.T) {
	fk, gate, h, _ := startMonitor(t)
	gate.set(false, false)

	fk.Down(t0)
	fk.Up(t0.Add(time.Second))
	expectNothing(t, h)

	gate.set(true, false)
	fk.Down(t0.Add(2 * time.Second))
	waitPressed(t, h)
}

func TestMonitorReleaseIgnoredWhenNotRecording(t *testing.T) {
	fk, gate, h, _ := startMonitor(t)

	fk.Down(t0)
	waitPressed(t, h)
	// the recording was cancelled elsewhere
	gate.set(true, false)
	fk.Up(t0.Add(time.Second))
	expectNothing(t, h)
}

func TestMonitorReconfigure(t *testing.T) {
	fk, _, h, m := startMonitor(t)

	if err := m.Reconfigure(AltL); err != nil {
		t.Fatal(err)
	}
	if m.Key() != AltL {
		t.Errorf("key = %s", m.Key())
	}
	keys := fk.Keys()
	if len(keys) != 2 || keys[0] != CmdR || keys[1] != AltL {
		t.Errorf("factory keys = %v", keys)
	}
	if !fk.Running() {
		t.Error("new source should be running")
	}

	fk.Down(t0)
	waitPressed(t, h)
}

func TestMonitorNoCallsAfterStop(t *testing.T) {
	fk, _, h, m := startMonitor(t)
	m.Stop()
	if fk.Running() {
		t.Error("source still running after Stop")
	}

	fk.Down(t0)
	expectNothing(t, h)
	m.Stop()
}

func TestMonitorStartError(t *testing.T) {
	fk := NewFake()
	fk.StartErr = errors.New("no permission")
	m := NewMonitor(CmdR, fk.Factory, &testGate{}, newRecordingHandler(&testGate{}))
	if err := m.Start(); !errors.Is(err, fk.StartErr) {
		t.Fatalf("got %v", err)
	}
	m.Stop()
}

func TestKeyFormatting(t *testing.T) {
	tests := []struct {
		key   Key
		label string
		menu  string
	}{
		{CmdR, "CMD+R", "⌘ R"},
		{AltL, "ALT+L", "⌥ L"},
		{CtrlR, "CTRL+R", "⌃ R"},
	}
	for _, tt := range tests {
		if got := tt.key.Label(); got != tt.label {
			t.Errorf("%s.Label() = %q, want %q", tt.key, got, tt.label)
		}
		if got := tt.key.MenuTitle(); got != tt.menu {
			t.Errorf("%s.MenuTitle() = %q, want %q", tt.key, got, tt.menu)
		}
	}
}

func TestParseKey(t *testing.T) {
	if k, err := ParseKey("ctrl_l"); err != nil || k != CtrlL {
		t.Errorf("ParseKey(ctrl_l) = %q, %v", k, err)
	}
	if _, err := ParseKey("f13"); err == nil {
		t.Error("expected error for f13")
	}
}
