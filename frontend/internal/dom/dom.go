// Package dom is a small retained element tree standing in for the browser DOM.
// Elements carry their event bindings; events bubble to ancestors until stopped.
package dom

import (
	"slices"
	"strings"
)

type EventType string

const (
	Click   EventType = "click"
	KeyDown EventType = "keydown"
	Change  EventType = "change"
	Drop    EventType = "drop"
)

type Event struct {
	Type    EventType
	Target  *Element
	Current *Element
	Key     string // KeyDown only
	Payload any    // Drop and Change carry whatever the host attached

	stopped bool
}

func (e *Event) StopPropagation() { e.stopped = true }

type Handler func(*Event)

type Element struct {
	ID       string
	Tag      string
	Classes  []string
	Attrs    map[string]string
	Text     string
	HTML     string // sanitized markup rendered after Text
	Value    string // form controls
	Hidden   bool
	Disabled bool

	parent   *Element
	children []*Element
	handlers map[EventType][]Handler
}

func New(tag string, classes ...string) *Element {
	return &Element{Tag: tag, Classes: classes}
}

func (e *Element) WithID(id string) *Element {
	e.ID = id
	return e
}

func (e *Element) WithText(text string) *Element {
	e.Text = text
	return e
}

func (e *Element) SetAttr(name, value string) *Element {
	if e.Attrs == nil {
		e.Attrs = make(map[string]string)
	}
	e.Attrs[name] = value
	return e
}

func (e *Element) Attr(name string) string {
	return e.Attrs[name]
}

func (e *Element) HasClass(class string) bool {
	return slices.Contains(e.Classes, class)
}

func (e *Element) AddClass(class string) {
	if !e.HasClass(class) {
		e.Classes = append(e.Classes, class)
	}
}

func (e *Element) RemoveClass(class string) {
	e.Classes = slices.DeleteFunc(e.Classes, func(c string) bool { return c == class })
}

func (e *Element) Parent() *Element { return e.parent }

func (e *Element) Children() []*Element {
	return slices.Clone(e.children)
}

// Append adds children, detaching them from any previous parent.
func (e *Element) Append(children ...*Element) *Element {
	for _, c := range children {
		if c == nil {
			continue
		}
		c.Remove()
		c.parent = e
		e.children = append(e.children, c)
	}
	return e
}

// Prepend inserts child as the first child.
func (e *Element) Prepend(child *Element) {
	child.Remove()
	child.parent = e
	e.children = append([]*Element{child}, e.children...)
}

// Remove detaches e from its parent. Safe on detached elements.
func (e *Element) Remove() {
	if e.parent == nil {
		return
	}
	p := e.parent
	p.children = slices.DeleteFunc(p.children, func(c *Element) bool { return c == e })
	e.parent = nil
}

// Clear drops all children and content.
func (e *Element) Clear() {
	for _, c := range e.children {
		c.parent = nil
	}
	e.children = nil
	e.Text = ""
	e.HTML = ""
}

// SetContent replaces everything inside e with the given children.
func (e *Element) SetContent(children ...*Element) {
	e.Clear()
	e.Append(children...)
}

func (e *Element) On(t EventType, h Handler) *Element {
	if e.handlers == nil {
		e.handlers = make(map[EventType][]Handler)
	}
	e.handlers[t] = append(e.handlers[t], h)
	return e
}

// Dispatch delivers ev to e and then to its ancestors until a handler stops it.
// A click on a disabled element, or anywhere inside one, is dropped.
func (e *Element) Dispatch(ev *Event) {
	if ev.Target == nil {
		ev.Target = e
	}
	if ev.Type == Click && e.insideDisabled() {
		return
	}
	for cur := e; cur != nil; cur = cur.parent {
		ev.Current = cur
		for _, h := range cur.handlers[ev.Type] {
			h(ev)
		}
		if ev.stopped {
			return
		}
	}
}

func (e *Element) insideDisabled() bool {
	for cur := e; cur != nil; cur = cur.parent {
		if cur.Disabled {
			return true
		}
	}
	return false
}

func (e *Element) Click() {
	e.Dispatch(&Event{Type: Click})
}

func (e *Element) Press(key string) {
	e.Dispatch(&Event{Type: KeyDown, Key: key})
}

// Contains reports whether other is e or one of its descendants.
func (e *Element) Contains(other *Element) bool {
	for cur := other; cur != nil; cur = cur.parent {
		if cur == e {
			return true
		}
	}
	return false
}

// Walk visits e and its descendants depth-first until fn returns false.
func (e *Element) Walk(fn func(*Element) bool) bool {
	if !fn(e) {
		return false
	}
	for _, c := range e.children {
		if !c.Walk(fn) {
			return false
		}
	}
	return true
}

func (e *Element) ByID(id string) *Element {
	var found *Element
	e.Walk(func(el *Element) bool {
		if el.ID == id {
			found = el
			return false
		}
		return true
	})
	return found
}

// Query returns the first descendant (or e itself) carrying class.
func (e *Element) Query(class string) *Element {
	var found *Element
	e.Walk(func(el *Element) bool {
		if el.HasClass(class) {
			found = el
			return false
		}
		return true
	})
	return found
}

func (e *Element) QueryAll(class string) []*Element {
	var found []*Element
	e.Walk(func(el *Element) bool {
		if el.HasClass(class) {
			found = append(found, el)
		}
		return true
	})
	return found
}

// ChildByAttr returns the first direct child whose attribute name equals value.
func (e *Element) ChildByAttr(name, value string) *Element {
	for _, c := range e.children {
		if c.Attr(name) == value {
			return c
		}
	}
	return nil
}

// Visible reports whether e and all its ancestors are shown.
func (e *Element) Visible() bool {
	for cur := e; cur != nil; cur = cur.parent {
		if cur.Hidden {
			return false
		}
	}
	return true
}

// TextContent concatenates visible text in document order, one element per line.
func (e *Element) TextContent() string {
	var lines []string
	e.collectText(&lines)
	return strings.Join(lines, "\n")
}

func (e *Element) collectText(lines *[]string) {
	if e.Hidden {
		return
	}
	if t := strings.TrimSpace(e.Text); t != "" {
		*lines = append(*lines, t)
	}
	if e.HTML != "" {
		if t := strings.TrimSpace(stripTags(e.HTML)); t != "" {
			*lines = append(*lines, t)
		}
	}
	for _, c := range e.children {
		c.collectText(lines)
	}
}
