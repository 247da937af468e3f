// Package render turns threads and replies into card fragments. Renderers do
// not act on events themselves: each fragment lists the actions its controls
// trigger and the caller decides what to do with them.
package render

import (
	"math"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/itchan-dev/discussion/frontend/internal/dom"
	"github.com/itchan-dev/discussion/frontend/internal/markdown"
	"github.com/itchan-dev/discussion/shared/domain"
)

const snippetLength = 180

type ActionType string

const (
	Open     ActionType = "open"
	Like     ActionType = "like"
	Edit     ActionType = "edit"
	Delete   ActionType = "delete"
	Lightbox ActionType = "lightbox"
)

type Action struct {
	Type ActionType
	Kind domain.Kind
	ID   int64
	URL  string // Lightbox only
}

// Binding attaches an action to an element's event. Stop keeps the event from
// reaching the enclosing card.
type Binding struct {
	Element *dom.Element
	Event   dom.EventType
	Action  Action
	Stop    bool
}

type Fragment struct {
	Root     *dom.Element
	Bindings []Binding
}

// Wire installs handlers that pass each binding's action to handle.
func (f Fragment) Wire(handle func(Action, *dom.Event)) Fragment {
	for _, b := range f.Bindings {
		b.Element.On(b.Event, func(ev *dom.Event) {
			if b.Stop {
				ev.StopPropagation()
			}
			handle(b.Action, ev)
		})
	}
	return f
}

// Binding returns the first binding for the given action type.
func (f Fragment) Binding(t ActionType) (Binding, bool) {
	for _, b := range f.Bindings {
		if b.Action.Type == t {
			return b, true
		}
	}
	return Binding{}, false
}

// Capabilities are what the current viewer may do with one item.
type Capabilities struct {
	CanLike   bool
	CanEdit   bool
	CanDelete bool
	Liked     bool
}

// CapabilitiesFor grants edit and delete to the author and to privileged
// viewers. The like control is always present: an anonymous click is answered
// with a login prompt, and a repeated one with a notice.
func CapabilitiesFor(viewer domain.Viewer, author domain.Username, liked bool) Capabilities {
	owner := viewer.CanModify(author)
	return Capabilities{
		CanLike:   true,
		CanEdit:   owner,
		CanDelete: owner,
		Liked:     liked,
	}
}

type Renderer struct {
	text *markdown.TextProcessor
	now  func() time.Time
}

func New(text *markdown.TextProcessor, now func() time.Time) *Renderer {
	if now == nil {
		now = time.Now
	}
	return &Renderer{text: text, now: now}
}

var relMagnitudes = []humanize.RelTimeMagnitude{
	{D: time.Minute, Format: "just now", DivBy: time.Second},
	{D: time.Hour, Format: "%dm %s", DivBy: time.Minute},
	{D: 24 * time.Hour, Format: "%dh %s", DivBy: time.Hour},
	{D: math.MaxInt64, Format: "%dd %s", DivBy: 24 * time.Hour},
}

// TimeAgo renders t relative to the renderer's clock. Future times count as now.
func (r *Renderer) TimeAgo(t time.Time) string {
	now := r.now()
	if t.After(now) {
		t = now
	}
	return humanize.CustomRelTime(t, now, "ago", "from now", relMagnitudes)
}

func (r *Renderer) ThreadCard(t domain.Thread, caps Capabilities) Fragment {
	f := Fragment{}
	card := dom.New("div", "thread-card").SetAttr("data-id", id(t.Id))
	f.Root = card
	f.bind(card, Action{Type: Open, Kind: domain.KindThread, ID: t.Id}, false)

	card.Append(
		dom.New("div", "thread-cat").WithText(t.Category),
		dom.New("div", "thread-title").WithText(t.Title),
	)
	if t.HasImage() {
		card.Append(f.thumbnail("thread-thumb", domain.KindThread, t.Id, *t.ImageURL))
	}
	card.Append(dom.New("div", "thread-snippet").WithText(r.text.Snippet(t.Body, snippetLength)))

	meta := dom.New("div", "thread-meta").Append(
		dom.New("span", "thread-author").WithText("by "+t.Author),
		dom.New("span", "thread-time").WithText(r.TimeAgo(t.CreatedAt)),
		dom.New("span", "thread-replies").WithText("💬 "+strconv.Itoa(t.ReplyCount)),
	)
	f.controls(meta, domain.KindThread, t.Id, t.Likes, caps)
	card.Append(meta)
	return f
}

// ThreadDetail is the full thread shown above its replies.
func (r *Renderer) ThreadDetail(t domain.Thread, caps Capabilities) Fragment {
	f := Fragment{}
	detail := dom.New("div", "thread-detail").SetAttr("data-id", id(t.Id))
	f.Root = detail

	meta := dom.New("div", "thread-meta").Append(
		dom.New("span", "thread-author").WithText("by "+t.Author),
		dom.New("span", "thread-time").WithText(r.TimeAgo(t.CreatedAt)),
	)
	f.controls(meta, domain.KindThread, t.Id, t.Likes, caps)
	if like := meta.Query("like-btn"); like != nil {
		like.WithID("detail-like-btn")
	}

	detail.Append(
		dom.New("div", "thread-cat").WithText(t.Category),
		dom.New("div", "thread-title").WithText(t.Title),
		meta,
	)
	if t.HasImage() {
		detail.Append(f.thumbnail("thread-image", domain.KindThread, t.Id, *t.ImageURL))
	}
	body := dom.New("div", "thread-body")
	body.HTML = r.text.Render(t.Body)
	detail.Append(body)
	return f
}

func (r *Renderer) ReplyCard(reply domain.Reply, caps Capabilities) Fragment {
	f := Fragment{}
	card := dom.New("div", "reply-card").SetAttr("data-id", id(reply.Id))
	f.Root = card

	body := dom.New("div", "reply-body")
	body.HTML = r.text.Render(reply.Body)
	card.Append(dom.New("div", "reply-author").WithText(reply.Author), body)
	if reply.HasImage() {
		card.Append(f.thumbnail("reply-thumb", domain.KindReply, reply.Id, *reply.ImageURL))
	}

	meta := dom.New("div", "reply-meta").Append(
		dom.New("span", "reply-time").WithText(r.TimeAgo(reply.CreatedAt)),
	)
	f.controls(meta, domain.KindReply, reply.Id, reply.Likes, caps)
	card.Append(meta)
	return f
}

func (f *Fragment) bind(el *dom.Element, a Action, stop bool) {
	f.Bindings = append(f.Bindings, Binding{Element: el, Event: dom.Click, Action: a, Stop: stop})
}

func (f *Fragment) thumbnail(class string, kind domain.Kind, itemID int64, url string) *dom.Element {
	img := dom.New("img", class).SetAttr("src", url).SetAttr("alt", "attachment")
	f.bind(img, Action{Type: Lightbox, Kind: kind, ID: itemID, URL: url}, true)
	return img
}

func (f *Fragment) controls(meta *dom.Element, kind domain.Kind, itemID int64, likes int, caps Capabilities) {
	if caps.CanLike {
		like := dom.New("button", "like-btn").WithText("♥").
			SetAttr("data-"+string(kind)+"-id", id(itemID)).
			Append(dom.New("span", "like-count").WithText(strconv.Itoa(likes)))
		if caps.Liked {
			like.AddClass("liked")
		}
		meta.Append(like)
		f.bind(like, Action{Type: Like, Kind: kind, ID: itemID}, true)
	}
	if caps.CanEdit {
		edit := dom.New("button", "edit-btn").WithText("Edit")
		meta.Append(edit)
		f.bind(edit, Action{Type: Edit, Kind: kind, ID: itemID}, true)
	}
	if caps.CanDelete {
		del := dom.New("button", "delete-btn").WithText("Delete")
		meta.Append(del)
		f.bind(del, Action{Type: Delete, Kind: kind, ID: itemID}, true)
	}
}

func id(v int64) string { return strconv.FormatInt(v, 10) }
