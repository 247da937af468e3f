// Package modal is the shared edit dialog for threads and replies.
package modal

import (
	"context"
	"strings"

	"github.com/itchan-dev/discussion/frontend/internal/dom"
	"github.com/itchan-dev/discussion/frontend/internal/eventloop"
	"github.com/itchan-dev/discussion/shared/domain"
	internal_errors "github.com/itchan-dev/discussion/shared/errors"
	"github.com/itchan-dev/discussion/shared/logger"
)

const (
	IDTitle    = "edit-title"
	IDCategory = "edit-category"
	IDBody     = "edit-body"

	msgTitleRequired = "Title is required."
	msgBodyRequired  = "Body is required."
	msgSaveFailed    = "Could not save changes."

	labelSave   = "Save"
	labelSaving = "Saving…"
)

type Values struct {
	Title    string
	Category domain.Category
	Body     string
}

// SaveFunc persists values. It runs off the loop; the returned commit runs on
// the loop after a successful save and patches whatever shows the item.
type SaveFunc func(ctx context.Context, v Values) (commit func(), err error)

type Options struct {
	Kind    domain.Kind
	Initial Values
	OnSave  SaveFunc
}

type Modal struct {
	loop *eventloop.Loop

	root     *dom.Element
	heading  *dom.Element
	errorBox *dom.Element
	title    *dom.Element
	category *dom.Element
	body     *dom.Element
	saveBtn  *dom.Element

	opts    *Options
	busy    bool
	session uint64
}

// New builds the dialog inside root, the backdrop element.
func New(root *dom.Element, loop *eventloop.Loop) *Modal {
	m := &Modal{loop: loop, root: root}

	m.heading = dom.New("h3", "modal-heading")
	m.errorBox = dom.New("div", "modal-error")
	m.title = dom.New("input", "modal-field").WithID(IDTitle)
	m.category = dom.New("select", "modal-field").WithID(IDCategory)
	for _, c := range domain.Categories {
		m.category.Append(dom.New("option").SetAttr("value", c).WithText(c))
	}
	m.body = dom.New("textarea", "modal-field").WithID(IDBody)
	m.saveBtn = dom.New("button", "modal-save").WithText(labelSave)
	cancel := dom.New("button", "modal-cancel").WithText("Cancel")

	root.SetContent(dom.New("div", "modal-dialog").Append(
		m.heading, m.errorBox, m.title, m.category, m.body,
		dom.New("div", "modal-actions").Append(cancel, m.saveBtn),
	))
	root.AddClass("modal-backdrop")

	m.saveBtn.On(dom.Click, func(*dom.Event) { m.Save(context.Background()) })
	cancel.On(dom.Click, func(*dom.Event) { m.Close() })
	root.On(dom.Click, func(ev *dom.Event) {
		if ev.Target == root {
			m.BackdropClick()
		}
	})
	root.On(dom.KeyDown, func(ev *dom.Event) { m.KeyDown(ev.Key) })

	m.reset()
	return m
}

func (m *Modal) Element() *dom.Element { return m.root }
func (m *Modal) IsOpen() bool          { return m.opts != nil }
func (m *Modal) Busy() bool            { return m.busy }
func (m *Modal) Kind() domain.Kind {
	if m.opts == nil {
		return ""
	}
	return m.opts.Kind
}

// Error returns the message shown inline, if any.
func (m *Modal) Error() string {
	if m.errorBox.Hidden {
		return ""
	}
	return m.errorBox.Text
}

// Open fills the fields for the given kind and shows the dialog. An open
// dialog is replaced.
func (m *Modal) Open(opts Options) {
	m.reset()
	m.opts = &opts
	isThread := opts.Kind == domain.KindThread

	if isThread {
		m.heading.Text = "Edit thread"
	} else {
		m.heading.Text = "Edit reply"
	}
	m.title.Hidden = !isThread
	m.category.Hidden = !isThread
	m.title.Value = opts.Initial.Title
	m.category.Value = opts.Initial.Category
	if m.category.Value == "" {
		m.category.Value = domain.DefaultCategory
	}
	m.body.Value = opts.Initial.Body
	m.root.Hidden = false
}

// Values returns the trimmed field contents.
func (m *Modal) Values() Values {
	return Values{
		Title:    strings.TrimSpace(m.title.Value),
		Category: m.category.Value,
		Body:     strings.TrimSpace(m.body.Value),
	}
}

// Save validates and hands the values to the save callback. The dialog
// closes only once the callback has succeeded.
func (m *Modal) Save(ctx context.Context) {
	if m.opts == nil || m.busy {
		return
	}
	v := m.Values()
	if m.opts.Kind == domain.KindThread && v.Title == "" {
		m.showError(msgTitleRequired)
		return
	}
	if v.Body == "" {
		m.showError(msgBodyRequired)
		return
	}
	if m.opts.OnSave == nil {
		m.Close()
		return
	}

	m.setBusy(true)
	m.errorBox.Hidden = true
	session := m.session
	save := m.opts.OnSave
	m.loop.Go(func() func() {
		commit, err := save(ctx, v)
		return func() {
			if err == nil && commit != nil {
				commit()
			}
			if session != m.session {
				return
			}
			m.setBusy(false)
			if err != nil {
				logger.Log.Warn("edit not saved", "kind", m.opts.Kind, "error", err)
				m.showError(internal_errors.DetailOr(err, msgSaveFailed))
				return
			}
			m.Close()
		}
	})
}

// Close hides the dialog and forgets the callback.
func (m *Modal) Close() {
	m.reset()
}

// KeyDown closes on Escape.
func (m *Modal) KeyDown(key string) bool {
	if key == "Escape" && m.IsOpen() {
		m.Close()
		return true
	}
	return false
}

func (m *Modal) BackdropClick() {
	if m.IsOpen() {
		m.Close()
	}
}

func (m *Modal) reset() {
	m.session++
	m.opts = nil
	m.setBusy(false)
	m.root.Hidden = true
	m.errorBox.Hidden = true
	m.errorBox.Text = ""
	m.title.Hidden = false
	m.category.Hidden = false
	m.title.Value = ""
	m.category.Value = ""
	m.body.Value = ""
}

func (m *Modal) showError(msg string) {
	m.errorBox.Text = msg
	m.errorBox.Hidden = false
}

func (m *Modal) setBusy(busy bool) {
	m.busy = busy
	m.saveBtn.Disabled = busy
	if busy {
		m.saveBtn.Text = labelSaving
	} else {
		m.saveBtn.Text = labelSave
	}
}
