package tray

import (
	"voiceptt/app"
	"voiceptt/audio"
	"voiceptt/history"
	"voiceptt/hotkey"
	"voiceptt/settings"
)

const (
	emptyHistoryTitle = "(No transcriptions yet)"
	clearTitle        = "🗑️ Clear History"
	confirmTitle      = "⚠️ Click again to clear all history"
)

func statusTitle(text string) string { return "📊 Status: " + text }

func outputTitle(m settings.Mode) string { return "📋 Output: " + m.Upper() }

func modelTitle(size string) string { return app.TitleCase(size) }

func hotkeyTitle(k hotkey.Key) string { return k.MenuTitle() }

func deviceTitle(d audio.DeviceInfo) string {
	name := audio.DisplayName(d.Name)
	if audio.IsBluetooth(d.Name) {
		name += " [⚠ Lower audio quality]"
	}
	return name
}

// historyTitles maps entries onto the fixed slot pool. Slot i always copies
// entry i of the displayed list.
func historyTitles(entries []history.Entry) []string {
	if len(entries) > app.HistoryShown {
		entries = entries[len(entries)-app.HistoryShown:]
	}
	titles := make([]string, 0, len(entries))
	for _, e := range entries {
		titles = append(titles, app.HistoryLabel(e))
	}
	return titles
}

func tooltip(g app.Glyph) string {
	switch g {
	case app.GlyphRecording:
		return app.AppTitle + " – recording"
	case app.GlyphProcessing:
		return app.AppTitle + " – transcribing"
	}
	return app.AppTitle + " – push to talk"
}
