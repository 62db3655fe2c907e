package tray

import (
	"fmt"
	"strings"
	"testing"

	"voiceptt/app"
	"voiceptt/audio"
	"voiceptt/history"
	"voiceptt/hotkey"
	"voiceptt/settings"
)

func TestTitles(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{statusTitle("Processing audio..."), "📊 Status: Processing audio..."},
		{outputTitle(settings.ModePaste), "📋 Output: PASTE"},
		{outputTitle(settings.ModeCopy), "📋 Output: COPY"},
		{modelTitle("medium"), "Medium"},
		{hotkeyTitle(hotkey.CmdR), hotkey.CmdR.MenuTitle()},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}

func TestDeviceTitle(t *testing.T) {
	long := audio.DeviceInfo{Name: "Externes USB Mikrofon mit sehr langem Namen"}
	if got := deviceTitle(long); got != audio.DisplayName(long.Name) {
		t.Errorf("got %q", got)
	}
	bt := audio.DeviceInfo{Name: "AirPods Pro"}
	if got := deviceTitle(bt); !strings.HasSuffix(got, "[⚠ Lower audio quality]") {
		t.Errorf("bluetooth device not flagged: %q", got)
	}
}

func TestHistoryTitles(t *testing.T) {
	if got := historyTitles(nil); len(got) != 0 {
		t.Fatalf("expected no titles, got %v", got)
	}

	var entries []history.Entry
	for i := 1; i <= 7; i++ {
		entries = append(entries, history.Entry{
			Text:           fmt.Sprintf("entry %d", i),
			TimestampLocal: fmt.Sprintf("10:00:%02d", i),
		})
	}
	got := historyTitles(entries)
	if len(got) != app.HistoryShown {
		t.Fatalf("got %d titles, want %d", len(got), app.HistoryShown)
	}
	if got[0] != "10:00:03: entry 3" || got[4] != "10:00:07: entry 7" {
		t.Errorf("unexpected titles %v", got)
	}
}

func TestTooltip(t *testing.T) {
	if got := tooltip(app.GlyphRecording); !strings.Contains(got, "recording") {
		t.Errorf("got %q", got)
	}
	if got := tooltip(app.GlyphSuccess); !strings.Contains(got, "push to talk") {
		t.Errorf("got %q", got)
	}
}

func TestIconsRendered(t *testing.T) {
	for _, g := range []app.Glyph{app.GlyphIdle, app.GlyphRecording, app.GlyphProcessing, app.GlyphSuccess} {
		if len(icons[g]) == 0 {
			t.Errorf("no icon for %s", g)
		}
	}
}
