package clipboard

import (
	"runtime"
	"sync"
	"time"

	"github.com/micmonay/keybd_event"
)

// Keyboard sends the paste chord to the focused window.
type Keyboard struct {
	once sync.Once
	kb   keybd_event.KeyBonding
	err  error
}

func NewKeyboard() *Keyboard {
	return &Keyboard{}
}

// Init creates the virtual keyboard. On linux the new uinput device needs a
// moment before the desktop accepts events from it.
func (k *Keyboard) Init() error {
	k.once.Do(func() {
		k.kb, k.err = keybd_event.NewKeyBonding()
		if k.err == nil && runtime.GOOS == "linux" {
			time.Sleep(2 * time.Second)
		}
	})
	return k.err
}

func (k *Keyboard) Paste() error {
	if err := k.Init(); err != nil {
		return err
	}
	k.kb.Clear()
	k.kb.SetKeys(keybd_event.VK_V)
	setPasteModifier(&k.kb)
	return k.kb.Launching()
}

// Verify checks that the keyboard event binding is initialized.
func (k *Keyboard) Verify() (string, error) {
	if err := k.Init(); err != nil {
		return "", err
	}
	return "keyboard event binding OK (" + pasteChord + ")", nil
}
