// Package notify shows desktop notifications and modal alerts.
package notify

import (
	"github.com/gen2brain/beeep"

	"voiceptt/log"
)

// Desktop posts through the OS notification service. Failures are logged
// and otherwise ignored.
type Desktop struct {
	disabled bool
}

func New() *Desktop {
	return &Desktop{}
}

// Disable turns every call into a log line; used by headless runs.
func (d *Desktop) Disable() { d.disabled = true }

func (d *Desktop) Notify(title, subtitle, body string) {
	msg := Message(subtitle, body)
	if d.disabled {
		log.Infof("notify: %s: %s", title, msg)
		return
	}
	if err := beeep.Notify(title, msg, ""); err != nil {
		log.Warnf("notification failed: %v", err)
	}
}

func (d *Desktop) Alert(title, body string) {
	if d.disabled {
		log.Infof("alert: %s", title)
		return
	}
	if err := beeep.Alert(title, body, ""); err != nil {
		log.Warnf("alert failed: %v", err)
	}
}

// Message joins the subtitle line and the body; beeep has no subtitle field.
func Message(subtitle, body string) string {
	switch {
	case subtitle == "":
		return body
	case body == "":
		return subtitle
	}
	return subtitle + "\n" + body
}
