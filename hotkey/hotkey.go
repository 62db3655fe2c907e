package hotkey

import (
	"fmt"
	"strings"
	"time"
)

// Key names one of the modifier keys that can drive push-to-talk.
type Key string

const (
	CmdR  Key = "cmd_r"
	CmdL  Key = "cmd_l"
	AltR  Key = "alt_r"
	AltL  Key = "alt_l"
	CtrlR Key = "ctrl_r"
	CtrlL Key = "ctrl_l"
)

var Keys = []Key{CmdR, CmdL, AltR, AltL, CtrlR, CtrlL}

func ParseKey(s string) (Key, error) {
	for _, k := range Keys {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown hotkey %q", s)
}

// Label renders the key for status text, e.g. CMD+R.
func (k Key) Label() string {
	return strings.ToUpper(strings.ReplaceAll(string(k), "_", "+"))
}

var modifierSymbols = map[string]string{
	"cmd":  "⌘",
	"alt":  "⌥",
	"ctrl": "⌃",
}

// MenuTitle renders the key for menus, e.g. ⌘ R.
func (k Key) MenuTitle() string {
	mod, side, ok := strings.Cut(string(k), "_")
	if !ok {
		return string(k)
	}
	return modifierSymbols[mod] + " " + strings.ToUpper(side)
}

// Edge is one transition of the watched key.
type Edge struct {
	Down bool
	At   time.Time
}

// Source is an OS subscription to a single key. Events keeps delivering
// until Stop.
type Source interface {
	Start() error
	Stop()
	Events() <-chan Edge
}

type Factory func(Key) (Source, error)
