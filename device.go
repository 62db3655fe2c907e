package main

import (
	"fmt"
	"os"

	"voiceptt/audio"
	"voiceptt/clipboard"
	"voiceptt/hotkey"
	"voiceptt/log"
	"voiceptt/settings"

	"golang.org/x/term"
)

// runSetup lets the user pick the microphone, persists the choice and
// reports whether the hotkey and paste paths are usable.
func runSetup(ctx audio.Context, keyboard *clipboard.Keyboard, settingsPath string, s *settings.Settings) {
	device, err := selectDevice(ctx, s.AudioDevice)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if device.Index != s.AudioDevice {
		s.AudioDevice = device.Index
		log.SettingChanged("audio_device", fmt.Sprint(device.Index))
		if err := settings.Save(settingsPath, *s); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}
	fmt.Printf("Microphone: %s\n", device.Name)

	if msg, err := hotkey.Diagnose(); err != nil {
		fmt.Printf("Hotkey:     ✗ %v\n", err)
	} else {
		fmt.Printf("Hotkey:     ✓ %s\n", msg)
	}
	if msg, err := keyboard.Verify(); err != nil {
		fmt.Printf("Paste:      ✗ %v\n", err)
	} else {
		fmt.Printf("Paste:      ✓ %s\n", msg)
	}
}

func selectDevice(ctx audio.Context, current int) (*audio.DeviceInfo, error) {
	all, err := ctx.Devices()
	if err != nil {
		return nil, fmt.Errorf("enumerating devices: %w", err)
	}
	devices := audio.InputDevices(all)
	if len(devices) == 0 {
		return nil, fmt.Errorf("no capture devices found")
	}
	if len(devices) == 1 {
		return &devices[0], nil
	}

	// Raw mode for arrow key input
	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("setting raw mode: %w", err)
	}
	defer term.Restore(fd, oldState)

	cursor := 0
	for i, d := range devices {
		if d.Index == current {
			cursor = i
		}
	}

	renderList := func() {
		fmt.Print("\r\x1b[J")
		fmt.Print("Select input device (↑/↓, Enter to confirm):\r\n\r\n")
		for i, d := range devices {
			label := audio.DisplayName(d.Name)
			if audio.IsBluetooth(d.Name) {
				label += " [⚠ Lower audio quality]"
			}
			if i == cursor {
				fmt.Printf("  \x1b[1;36m▶ %s\x1b[0m\r\n", label)
			} else {
				fmt.Printf("    %s\r\n", label)
			}
		}
	}
	renderList()

	buf := make([]byte, 3)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil {
			return nil, fmt.Errorf("reading input: %w", err)
		}

		switch {
		case n == 1 && buf[0] == 13: // Enter
			fmt.Print("\r\n")
			return &devices[cursor], nil
		case n == 1 && buf[0] == 3: // Ctrl+C
			fmt.Print("\r\n")
			term.Restore(fd, oldState)
			os.Exit(0)
		case n == 1 && buf[0] == 'j', n == 3 && buf[0] == 0x1b && buf[2] == 'B':
			if cursor < len(devices)-1 {
				cursor++
			}
		case n == 1 && buf[0] == 'k', n == 3 && buf[0] == 0x1b && buf[2] == 'A':
			if cursor > 0 {
				cursor--
			}
		}

		// Redraw: move up to overwrite
		fmt.Printf("\x1b[%dA", len(devices)+2)
		renderList()
	}
}
