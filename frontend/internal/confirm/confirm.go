// Package confirm asks for confirmation inline before something is deleted.
package confirm

import (
	"context"

	"github.com/itchan-dev/discussion/frontend/internal/dom"
	"github.com/itchan-dev/discussion/frontend/internal/eventloop"
)

const (
	BarClass = "confirm-delete-bar"

	labelDelete   = "Delete"
	labelDeleting = "Deleting…"
)

// ConfirmFunc performs the deletion off the loop. commit runs on the loop
// after success and removes whatever showed the item.
type ConfirmFunc func(ctx context.Context) (commit func(), err error)

type Bar struct {
	loop *eventloop.Loop
	// OnFailure is told about a failed deletion; the bar stays for a retry.
	OnFailure func(error)
}

func New(loop *eventloop.Loop, onFailure func(error)) *Bar {
	return &Bar{loop: loop, OnFailure: onFailure}
}

// Show puts a confirmation bar at the end of container, replacing one already
// there, and returns it.
func (b *Bar) Show(container *dom.Element, onConfirm ConfirmFunc) *dom.Element {
	for _, existing := range container.Children() {
		if existing.HasClass(BarClass) {
			existing.Remove()
		}
	}

	yes := dom.New("button", "confirm-yes").WithText(labelDelete)
	no := dom.New("button", "confirm-no").WithText("Cancel")
	bar := dom.New("div", BarClass).Append(
		dom.New("span", "confirm-question").WithText("Delete this permanently?"),
		yes, no,
	)
	// Clicks inside the bar must not reach the card around it.
	bar.On(dom.Click, func(ev *dom.Event) { ev.StopPropagation() })

	no.On(dom.Click, func(*dom.Event) { bar.Remove() })
	yes.On(dom.Click, func(*dom.Event) {
		yes.Disabled = true
		yes.Text = labelDeleting
		b.loop.Go(func() func() {
			commit, err := onConfirm(context.Background())
			return func() {
				if err != nil {
					yes.Disabled = false
					yes.Text = labelDelete
					if b.OnFailure != nil {
						b.OnFailure(err)
					}
					return
				}
				bar.Remove()
				if commit != nil {
					commit()
				}
			}
		})
	})

	container.Append(bar)
	return bar
}
