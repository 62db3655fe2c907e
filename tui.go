package main

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"voiceptt/app"
	"voiceptt/audio"
	"voiceptt/history"
	"voiceptt/hotkey"
	"voiceptt/log"
	"voiceptt/settings"
	"voiceptt/tray"
)

// TUI message types
type glyphMsg app.Glyph
type statusMsg string
type historyMsg []history.Entry
type settingsMsg settings.Settings
type devicesMsg []audio.DeviceInfo
type tickMsg time.Time

type tuiActions interface {
	tray.Actions
	HelpText() string
}

type tuiModel struct {
	actions tuiActions

	frame         int
	width, height int
	glyph         app.Glyph
	status        string
	entries       []history.Entry
	settings      settings.Settings
	devices       []audio.DeviceInfo
	confirming    bool
	showHelp      bool
}

// tuiPresenter forwards presenter calls into the bubbletea event loop.
type tuiPresenter struct {
	prog *tea.Program
	done chan struct{}
}

type tuiStatus struct{ p *tuiPresenter }
type tuiHistory struct{ p *tuiPresenter }

func (s tuiStatus) Set(text string) { s.p.send(statusMsg(text)) }
func (h tuiHistory) Set(entries []history.Entry) {
	h.p.send(historyMsg(append([]history.Entry(nil), entries...)))
}

func (p *tuiPresenter) send(msg tea.Msg) {
	if p.prog != nil {
		p.prog.Send(msg)
	}
}

func (p *tuiPresenter) SetGlyph(g app.Glyph) { p.send(glyphMsg(g)) }
func (p *tuiPresenter) Status() app.StatusHandle { return tuiStatus{p} }
func (p *tuiPresenter) History() app.HistoryHandle { return tuiHistory{p} }
func (p *tuiPresenter) SetSettings(s settings.Settings) { p.send(settingsMsg(s)) }
func (p *tuiPresenter) SetDevices(d []audio.DeviceInfo) {
	p.send(devicesMsg(append([]audio.DeviceInfo(nil), d...)))
}

func (p *tuiPresenter) close() {
	if p.prog == nil {
		return
	}
	p.prog.Quit()
	<-p.done
}

// startTUI runs the dashboard and returns a channel closed when it exits.
func startTUI(actions tuiActions, p *tuiPresenter) <-chan struct{} {
	p.prog = tea.NewProgram(newTUIModel(actions), tea.WithAltScreen())
	p.done = make(chan struct{})
	go func() {
		defer close(p.done)
		if _, err := p.prog.Run(); err != nil {
			log.Errorf("tui: %v", err)
		}
	}()
	return p.done
}

func newTUIModel(actions tuiActions) tuiModel {
	return tuiModel{actions: actions, glyph: app.GlyphIdle}
}

func tuiTick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m tuiModel) Init() tea.Cmd {
	return tuiTick()
}

// do runs an action off the event loop. Actions call back into the
// presenter, which sends into this loop.
func (m tuiModel) do(fn func()) tea.Cmd {
	return func() tea.Msg {
		fn()
		return nil
	}
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		return m.handleKey(msg.String())

	case tickMsg:
		m.frame++
		return m, tuiTick()

	case glyphMsg:
		m.glyph = app.Glyph(msg)
	case statusMsg:
		m.status = string(msg)
	case historyMsg:
		m.entries = msg
	case settingsMsg:
		m.settings = settings.Settings(msg)
	case devicesMsg:
		m.devices = msg
	}
	return m, nil
}

func (m tuiModel) handleKey(key string) (tea.Model, tea.Cmd) {
	if m.confirming {
		m.confirming = false
		if key == "y" || key == "Y" {
			return m, m.do(m.actions.ClearHistory)
		}
		return m, nil
	}

	switch key {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "m":
		return m, m.do(func() { m.actions.ToggleOutputMode() })
	case "1", "2", "3", "4", "5":
		index := int(key[0] - '1')
		return m, m.do(func() { m.actions.CopyFromHistory(index) })
	case "c":
		if len(m.entries) > 0 {
			m.confirming = true
		}
	case "h":
		m.showHelp = !m.showHelp
	case "d":
		if next, ok := nextDevice(m.devices, m.settings.AudioDevice); ok {
			return m, m.do(func() { m.actions.ChangeAudioDevice(next) })
		}
	case "k":
		next := nextKey(hotkey.Key(m.settings.Hotkey))
		return m, m.do(func() { m.actions.ChangeHotkey(next) })
	case "w":
		next := nextModel(m.settings.ModelSize)
		return m, m.do(func() { m.actions.ChangeModel(next) })
	case "esc":
		m.showHelp = false
	}
	return m, nil
}

func nextDevice(devices []audio.DeviceInfo, current int) (int, bool) {
	if len(devices) == 0 {
		return 0, false
	}
	for i, d := range devices {
		if d.Index == current {
			return devices[(i+1)%len(devices)].Index, true
		}
	}
	return devices[0].Index, true
}

func nextKey(current hotkey.Key) hotkey.Key {
	for i, k := range hotkey.Keys {
		if k == current {
			return hotkey.Keys[(i+1)%len(hotkey.Keys)]
		}
	}
	return hotkey.Keys[0]
}

func nextModel(current string) string {
	for i, s := range settings.ModelSizes {
		if s == current {
			return settings.ModelSizes[(i+1)%len(settings.ModelSizes)]
		}
	}
	return settings.ModelSizes[0]
}

var (
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	textStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Bold(true)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Bold(true)
)

func glyphColor(g app.Glyph) lipgloss.Color {
	switch g {
	case app.GlyphRecording:
		return lipgloss.Color("196")
	case app.GlyphProcessing:
		return lipgloss.Color("214")
	case app.GlyphSuccess:
		return lipgloss.Color("42")
	}
	return lipgloss.Color("250")
}

func (m tuiModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	const orbWidth = 24
	left := renderOrb(m.frame, m.glyph) + "\n" +
		lipgloss.NewStyle().Foreground(glyphColor(m.glyph)).Bold(true).Render(string(m.glyph)+" "+app.AppTitle) + "\n" +
		dimStyle.Render(version)

	rightWidth := m.width - orbWidth - 2
	if rightWidth < 20 {
		rightWidth = 20
	}

	var b strings.Builder
	if m.showHelp {
		b.WriteString(m.actions.HelpText())
		b.WriteString("\n\n" + dimStyle.Render("h/esc close"))
	} else {
		m.renderDashboard(&b, rightWidth)
	}

	leftPanel := lipgloss.NewStyle().Width(orbWidth).Height(m.height).Render(left)
	rightPanel := lipgloss.NewStyle().Width(rightWidth).Height(m.height).PaddingLeft(2).Render(b.String())
	return lipgloss.JoinHorizontal(lipgloss.Top, leftPanel, rightPanel)
}

func (m tuiModel) renderDashboard(b *strings.Builder, width int) {
	b.WriteString(headerStyle.Render("Status: "+m.status) + "\n\n")

	key := hotkey.Key(m.settings.Hotkey)
	fmt.Fprintf(b, "%s %s\n", labelStyle.Render("Output:"), m.settings.Mode.Upper())
	fmt.Fprintf(b, "%s %s\n", labelStyle.Render("Model: "), app.TitleCase(m.settings.ModelSize))
	fmt.Fprintf(b, "%s %s\n", labelStyle.Render("Hotkey:"), key.Label())
	fmt.Fprintf(b, "%s %s\n\n", labelStyle.Render("Device:"), m.deviceName())

	b.WriteString(headerStyle.Render("Recent Transcriptions") + "\n")
	if len(m.entries) == 0 {
		b.WriteString(dimStyle.Render("(No transcriptions yet)") + "\n")
	}
	for i, e := range m.entries {
		line := fmt.Sprintf("%d. %s", i+1, app.HistoryLabel(e))
		if r := []rune(line); len(r) > width-2 && width > 5 {
			line = string(r[:width-5]) + "..."
		}
		b.WriteString(textStyle.Render(line) + "\n")
	}
	b.WriteString("\n")

	if m.confirming {
		b.WriteString(warnStyle.Render("Clear all transcription history? (y/n)") + "\n")
		return
	}
	b.WriteString(dimStyle.Render(fmt.Sprintf("hold %s to speak • m mode • 1-5 copy • c clear", key.Label())) + "\n")
	b.WriteString(dimStyle.Render("d device • k hotkey • w model • h help • q quit") + "\n")
}

func (m tuiModel) deviceName() string {
	if d, ok := audio.FindDevice(m.devices, m.settings.AudioDevice); ok {
		return audio.DisplayName(d.Name)
	}
	return fmt.Sprintf("#%d", m.settings.AudioDevice)
}

// renderOrb draws a pulsing disc with half-block characters. It breathes
// faster while recording.
func renderOrb(frame int, g app.Glyph) string {
	const charsW = 22
	const charsH = 10
	const pixH = charsH * 2

	speed := 0.08
	if g == app.GlyphRecording {
		speed = 0.25
	}
	radius := 7.0 + math.Sin(float64(frame)*speed)*1.2
	if g == app.GlyphProcessing {
		radius = 6.0 + float64(frame%8)*0.3
	}

	lit := func(x, y int) bool {
		dx := float64(x) + 0.5 - charsW/2.0
		dy := float64(y) + 0.5 - pixH/2.0
		return math.Hypot(dx, dy) <= radius
	}

	style := lipgloss.NewStyle().Foreground(glyphColor(g))
	var out strings.Builder
	for cy := 0; cy < charsH; cy++ {
		for cx := 0; cx < charsW; cx++ {
			top, bot := lit(cx, cy*2), lit(cx, cy*2+1)
			switch {
			case top && bot:
				out.WriteString(style.Render("█"))
			case top:
				out.WriteString(style.Render("▀"))
			case bot:
				out.WriteString(style.Render("▄"))
			default:
				out.WriteString(" ")
			}
		}
		out.WriteString("\n")
	}
	return out.String()
}
