//go:build !darwin

package tray

import (
	"runtime"

	"github.com/energye/systray"
)

// Run starts the tray loop on its own locked thread and returns.
func (t *Tray) Run() {
	go func() {
		runtime.LockOSThread()
		systray.Run(t.onReady, t.onExit)
	}()
}
