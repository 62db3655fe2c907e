// Package clipboard writes transcripts to the system clipboard and sends the
// platform paste keystroke.
package clipboard

import cb "github.com/atotto/clipboard"

// System is the OS clipboard.
type System struct{}

func (System) Copy(text string) error {
	return cb.WriteAll(text)
}

func (System) Read() (string, error) {
	return cb.ReadAll()
}
