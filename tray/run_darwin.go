//go:build darwin

package tray

import (
	"github.com/energye/systray"
	"golang.design/x/hotkey/mainthread"
)

// Run starts the menu bar loop. Cocoa requires it on the main thread, which
// mainthread.Init hands over in main.
func (t *Tray) Run() {
	start, _ := systray.RunWithExternalLoop(t.onReady, t.onExit)
	mainthread.Call(start)
}
