// Package toast shows short-lived notices in the page's toast container.
package toast

import (
	"time"

	"github.com/itchan-dev/discussion/frontend/internal/dom"
)

type Level string

const (
	Success Level = "success"
	Warning Level = "warning"
	Error   Level = "error"
)

type Toast struct {
	Message   string
	Level     Level
	ExpiresAt time.Time

	el *dom.Element
}

type Notifier struct {
	container *dom.Element
	ttl       time.Duration
	now       func() time.Time
	toasts    []*Toast
}

func New(container *dom.Element, ttl time.Duration, now func() time.Time) *Notifier {
	if now == nil {
		now = time.Now
	}
	return &Notifier{container: container, ttl: ttl, now: now}
}

// Show appends a notice; expired notices are dropped first.
func (n *Notifier) Show(message string, level Level) {
	n.Prune()
	el := dom.New("div", "toast-msg", "toast-"+string(level)).WithText(message)
	n.container.Append(el)
	n.toasts = append(n.toasts, &Toast{Message: message, Level: level, ExpiresAt: n.now().Add(n.ttl), el: el})
}

func (n *Notifier) Success(message string) { n.Show(message, Success) }
func (n *Notifier) Warn(message string)    { n.Show(message, Warning) }
func (n *Notifier) Error(message string)   { n.Show(message, Error) }

// Prune removes expired notices from the container.
func (n *Notifier) Prune() {
	now := n.now()
	kept := n.toasts[:0]
	for _, t := range n.toasts {
		if now.Before(t.ExpiresAt) {
			kept = append(kept, t)
			continue
		}
		t.el.Remove()
	}
	n.toasts = kept
}

// Active returns the notices still on screen, oldest first.
func (n *Notifier) Active() []Toast {
	n.Prune()
	out := make([]Toast, len(n.toasts))
	for i, t := range n.toasts {
		out[i] = *t
	}
	return out
}

// Last returns the most recent notice still on screen.
func (n *Notifier) Last() (Toast, bool) {
	active := n.Active()
	if len(active) == 0 {
		return Toast{}, false
	}
	return active[len(active)-1], true
}
