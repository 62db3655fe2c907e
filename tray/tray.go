// Package tray renders the orchestrator in the system menu bar.
package tray

import (
	"sync"

	"github.com/energye/systray"

	"voiceptt/app"
	"voiceptt/audio"
	"voiceptt/history"
	"voiceptt/hotkey"
	"voiceptt/settings"
)

// Actions are the menu commands; *app.App implements them.
type Actions interface {
	ToggleOutputMode() settings.Mode
	CopyFromHistory(index int)
	ClearHistory()
	ChangeModel(size string)
	ChangeAudioDevice(index int)
	ChangeHotkey(key hotkey.Key)
	ShowHelp()
	Quit()
}

// Tray implements app.Presenter. Updates made before the menu exists are
// kept and applied once it is built.
type Tray struct {
	actions Actions
	status  *StatusItem
	history *HistoryMenu

	mu       sync.Mutex
	built    bool
	glyph    app.Glyph
	settings settings.Settings
	devices  []audio.DeviceInfo

	mOutput     *systray.MenuItem
	mDevices    *systray.MenuItem
	modelItems  []*systray.MenuItem
	hotkeyItems []*systray.MenuItem
	deviceItems []*systray.MenuItem

	quit     chan struct{}
	quitOnce sync.Once
}

func New() *Tray {
	return &Tray{
		status:  &StatusItem{text: "Ready"},
		history: &HistoryMenu{},
		glyph:   app.GlyphIdle,
		quit:    make(chan struct{}),
	}
}

// Bind attaches the menu commands. It must be called before Run.
func (t *Tray) Bind(actions Actions) {
	t.actions = actions
	t.history.actions = actions
}

func (t *Tray) Status() app.StatusHandle   { return t.status }
func (t *Tray) History() app.HistoryHandle { return t.history }

// Done is closed when the tray exits.
func (t *Tray) Done() <-chan struct{} { return t.quit }

func (t *Tray) SetGlyph(g app.Glyph) {
	t.mu.Lock()
	t.glyph = g
	built := t.built
	t.mu.Unlock()
	if built {
		applyGlyph(g)
	}
}

func applyGlyph(g app.Glyph) {
	systray.SetTitle(string(g))
	systray.SetTooltip(tooltip(g))
	if icon, ok := icons[g]; ok {
		systray.SetIcon(icon)
	}
}

func (t *Tray) SetSettings(s settings.Settings) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.settings = s
	if t.built {
		t.renderSettingsLocked()
	}
}

func (t *Tray) SetDevices(devices []audio.DeviceInfo) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.devices = append([]audio.DeviceInfo(nil), devices...)
	if t.built {
		t.renderDevicesLocked()
	}
}

func (t *Tray) onReady() {
	systray.SetTooltip(tooltip(app.GlyphIdle))

	t.status.bind(systray.AddMenuItem("", "Status"))
	systray.AddSeparator()

	t.mu.Lock()
	defer t.mu.Unlock()

	t.mOutput = systray.AddMenuItem(outputTitle(t.settings.Mode), "Toggle copy or paste")
	t.mOutput.Click(func() { t.actions.ToggleOutputMode() })
	systray.AddSeparator()

	mRecent := systray.AddMenuItem("📝 Recent Transcriptions", "")
	mRecent.Disable()
	t.history.bind(systray.AddMenuItem("📄 View History", "Copy a recent transcription"))
	systray.AddSeparator()

	mSettings := systray.AddMenuItem("⚙️ Settings", "Settings")
	mPrefs := mSettings.AddSubMenuItem("🔧 Preferences", "Preferences")

	mModel := mPrefs.AddSubMenuItem("🤖 Whisper Model", "Select model size")
	for _, size := range settings.ModelSizes {
		item := mModel.AddSubMenuItemCheckbox(modelTitle(size), size, size == t.settings.ModelSize)
		item.Click(func() { t.actions.ChangeModel(size) })
		t.modelItems = append(t.modelItems, item)
	}

	t.mDevices = mPrefs.AddSubMenuItem("🎤 Audio Device", "Select input device")
	t.renderDevicesLocked()

	mHotkey := mPrefs.AddSubMenuItem("⌨️ Hotkey", "Select push-to-talk key")
	for _, k := range hotkey.Keys {
		item := mHotkey.AddSubMenuItemCheckbox(hotkeyTitle(k), k.Label(), string(k) == t.settings.Hotkey)
		item.Click(func() { t.actions.ChangeHotkey(k) })
		t.hotkeyItems = append(t.hotkeyItems, item)
	}

	systray.AddSeparator()
	mHelp := systray.AddMenuItem("ℹ️ Help & Info", "Show help")
	mHelp.Click(func() { t.actions.ShowHelp() })
	mQuit := systray.AddMenuItem("❌ Quit", "Quit "+app.AppTitle)
	mQuit.Click(func() { t.actions.Quit() })
	systray.CreateMenu()

	t.built = true
	applyGlyph(t.glyph)
}

func (t *Tray) onExit() {
	t.quitOnce.Do(func() { close(t.quit) })
}

func (t *Tray) renderSettingsLocked() {
	t.mOutput.SetTitle(outputTitle(t.settings.Mode))
	for i, size := range settings.ModelSizes {
		setChecked(t.modelItems[i], size == t.settings.ModelSize)
	}
	for i, k := range hotkey.Keys {
		setChecked(t.hotkeyItems[i], string(k) == t.settings.Hotkey)
	}
	for i, item := range t.deviceItems {
		setChecked(item, i < len(t.devices) && t.devices[i].Index == t.settings.AudioDevice)
	}
}

// renderDevicesLocked reuses the item pool and grows it when more devices
// appear. Slot i selects whatever device currently sits at position i.
func (t *Tray) renderDevicesLocked() {
	for i, item := range t.deviceItems {
		if i >= len(t.devices) {
			item.Hide()
			item.Uncheck()
			continue
		}
		d := t.devices[i]
		item.SetTitle(deviceTitle(d))
		item.SetTooltip(d.Name)
		item.Show()
		setChecked(item, d.Index == t.settings.AudioDevice)
	}
	for i := len(t.deviceItems); i < len(t.devices); i++ {
		d := t.devices[i]
		item := t.mDevices.AddSubMenuItemCheckbox(deviceTitle(d), d.Name, d.Index == t.settings.AudioDevice)
		item.Click(func() { t.selectDevice(i) })
		t.deviceItems = append(t.deviceItems, item)
	}
}

func (t *Tray) selectDevice(slot int) {
	t.mu.Lock()
	if slot >= len(t.devices) {
		t.mu.Unlock()
		return
	}
	index := t.devices[slot].Index
	t.mu.Unlock()
	t.actions.ChangeAudioDevice(index)
}

func setChecked(item *systray.MenuItem, on bool) {
	if on {
		item.Check()
	} else {
		item.Uncheck()
	}
}

// StatusItem is the status line at the top of the menu.
type StatusItem struct {
	mu   sync.Mutex
	text string
	item *systray.MenuItem
}

func (s *StatusItem) Set(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.text = text
	if s.item != nil {
		s.item.SetTitle(statusTitle(text))
	}
}

func (s *StatusItem) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text
}

func (s *StatusItem) bind(item *systray.MenuItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.item = item
	item.Disable()
	item.SetTitle(statusTitle(s.text))
}

// HistoryMenu is the recent transcriptions submenu: a fixed pool of slots
// followed by a two-step clear action.
type HistoryMenu struct {
	actions Actions

	mu         sync.Mutex
	titles     []string
	confirming bool
	empty      *systray.MenuItem
	slots      [app.HistoryShown]*systray.MenuItem
	clear      *systray.MenuItem
	confirm    *systray.MenuItem
}

func (h *HistoryMenu) Set(entries []history.Entry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.titles = historyTitles(entries)
	h.confirming = false
	if h.clear != nil {
		h.renderLocked()
	}
}

func (h *HistoryMenu) bind(parent *systray.MenuItem) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.empty = parent.AddSubMenuItem(emptyHistoryTitle, "")
	h.empty.Disable()
	for i := range h.slots {
		item := parent.AddSubMenuItem("", "Copy to clipboard")
		item.Click(func() { h.actions.CopyFromHistory(i) })
		h.slots[i] = item
	}
	h.clear = parent.AddSubMenuItem(clearTitle, "Clear transcription history")
	h.clear.Click(h.onClear)
	h.confirm = parent.AddSubMenuItem(confirmTitle, "This action cannot be undone")
	h.confirm.Click(h.onConfirm)
	h.renderLocked()
}

func (h *HistoryMenu) renderLocked() {
	if len(h.titles) == 0 {
		h.empty.Show()
		h.clear.Hide()
	} else {
		h.empty.Hide()
		h.clear.Show()
	}
	for i, item := range h.slots {
		if i < len(h.titles) {
			item.SetTitle(h.titles[i])
			item.Show()
		} else {
			item.Hide()
		}
	}
	if h.confirming {
		h.confirm.Show()
	} else {
		h.confirm.Hide()
	}
}

func (h *HistoryMenu) onClear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.confirming = !h.confirming
	h.renderLocked()
}

func (h *HistoryMenu) onConfirm() {
	h.mu.Lock()
	if !h.confirming {
		h.mu.Unlock()
		return
	}
	h.confirming = false
	h.renderLocked()
	h.mu.Unlock()
	h.actions.ClearHistory()
}

// Close removes the tray icon; Done fires once the loop has exited.
func (t *Tray) Close() {
	t.mu.Lock()
	built := t.built
	t.mu.Unlock()
	if built {
		systray.Quit()
		return
	}
	t.onExit()
}
