//go:build !linux

package main

import (
	"runtime"

	"golang.design/x/hotkey/mainthread"
)

func init() {
	runtime.LockOSThread()
}

// The tray and the key hook need the main thread on macOS and Windows, so
// run is started on another goroutine and the main thread serves
// mainthread.Call.
func main() {
	mainthread.Init(run)
}
