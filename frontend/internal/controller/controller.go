// Package controller drives the forum page: it owns the view state, issues
// API calls and keeps the element tree a projection of what the server
// confirmed.
package controller

import (
	"context"
	"strconv"

	"github.com/itchan-dev/discussion/frontend/internal/confirm"
	"github.com/itchan-dev/discussion/frontend/internal/dom"
	"github.com/itchan-dev/discussion/frontend/internal/eventloop"
	"github.com/itchan-dev/discussion/frontend/internal/modal"
	"github.com/itchan-dev/discussion/frontend/internal/page"
	"github.com/itchan-dev/discussion/frontend/internal/render"
	"github.com/itchan-dev/discussion/frontend/internal/toast"
	"github.com/itchan-dev/discussion/frontend/internal/upload"
	"github.com/itchan-dev/discussion/shared/api"
	"github.com/itchan-dev/discussion/shared/domain"
	internal_errors "github.com/itchan-dev/discussion/shared/errors"
	"github.com/itchan-dev/discussion/shared/validation"
)

// API is the subset of the forum client the controller needs.
type API interface {
	ListThreads(ctx context.Context, category domain.Category, sort domain.Sort) ([]domain.Thread, error)
	GetThread(ctx context.Context, id domain.ThreadId) (domain.Thread, error)
	GetReplies(ctx context.Context, threadID domain.ThreadId) ([]domain.Reply, error)
	CreateThread(ctx context.Context, data api.CreateThreadRequest, image *domain.PendingFile) (domain.Thread, error)
	CreateReply(ctx context.Context, threadID domain.ThreadId, data api.CreateReplyRequest, image *domain.PendingFile) (domain.Reply, error)
	UpdateThread(ctx context.Context, id domain.ThreadId, data api.UpdateThreadRequest) (domain.Thread, error)
	UpdateReply(ctx context.Context, id domain.ReplyId, data api.UpdateReplyRequest) (domain.Reply, error)
	DeleteThread(ctx context.Context, id domain.ThreadId) error
	DeleteReply(ctx context.Context, id domain.ReplyId) error
	LikeThread(ctx context.Context, id domain.ThreadId) (int, error)
	LikeReply(ctx context.Context, id domain.ReplyId) (int, error)
}

// Likes is the local record of what this client already liked.
type Likes interface {
	HasLiked(kind domain.Kind, id int64) bool
	MarkLiked(kind domain.Kind, id int64)
}

type State struct {
	View          domain.View
	Threads       []domain.Thread
	ActiveThread  *domain.Thread
	ActiveReplies []domain.Reply
	Category      domain.Category
	Sort          domain.Sort
}

type Deps struct {
	API      API
	Likes    Likes
	Loop     *eventloop.Loop
	Layout   *page.Layout
	Renderer *render.Renderer
	Toasts   *toast.Notifier
	Viewer   domain.Viewer
	Upload   validation.ImageRules
	// Browse opens a file picker for zone; optional.
	Browse func(zone *upload.Zone)
	// ScrollIntoView brings el on screen; optional.
	ScrollIntoView func(el *dom.Element)
}

type Controller struct {
	api      API
	likes    Likes
	loop     *eventloop.Loop
	layout   *page.Layout
	renderer *render.Renderer
	toasts   *toast.Notifier
	viewer   domain.Viewer
	scroll   func(*dom.Element)

	modal        *modal.Modal
	confirm      *confirm.Bar
	threadUpload *upload.Zone
	replyUpload  *upload.Zone

	ctx   context.Context
	state State
	// nav is bumped by every view transition; continuations started under an
	// older value no longer own the tree.
	nav      uint64
	activeID domain.ThreadId
	detail   *dom.Element

	publishing bool
	posting    map[domain.ThreadId]bool
	liking     map[likeKey]bool
}

type likeKey struct {
	kind domain.Kind
	id   int64
}

func New(d Deps) *Controller {
	c := &Controller{
		api:      d.API,
		likes:    d.Likes,
		loop:     d.Loop,
		layout:   d.Layout,
		renderer: d.Renderer,
		toasts:   d.Toasts,
		viewer:   d.Viewer,
		scroll:   d.ScrollIntoView,
		ctx:      context.Background(),
		state:    State{View: domain.ViewList, Category: domain.CategoryAll, Sort: domain.SortRecent},
		posting:  make(map[domain.ThreadId]bool),
		liking:   make(map[likeKey]bool),
	}
	c.modal = modal.New(d.Layout.EditModal, d.Loop)
	c.confirm = confirm.New(d.Loop, func(err error) {
		c.toasts.Error(internal_errors.DetailOr(err, msgDeleteFailed))
	})
	c.threadUpload = c.newZone(page.IDThreadUpload, d)
	c.replyUpload = c.newZone(page.IDReplyUpload, d)
	d.Layout.ThreadUploadSlot.SetContent(c.threadUpload.Element())
	d.Layout.ReplyUploadSlot.SetContent(c.replyUpload.Element())

	c.wire()
	return c
}

func (c *Controller) newZone(id string, d Deps) *upload.Zone {
	var zone *upload.Zone
	zone = upload.New(id, d.Loop, upload.Options{
		Rules: d.Upload,
		Browse: func() {
			if d.Browse != nil {
				d.Browse(zone)
			}
		},
		Notify: d.Toasts.Error,
	})
	return zone
}

func (c *Controller) wire() {
	l := c.layout
	l.OpenNew.On(dom.Click, func(*dom.Event) { c.ShowNew() })
	l.Back.On(dom.Click, func(*dom.Event) { c.ShowList() })
	l.BackNew.On(dom.Click, func(*dom.Event) { c.ShowList() })
	l.Publish.On(dom.Click, func(*dom.Event) { c.SubmitThread() })
	l.PostReply.On(dom.Click, func(*dom.Event) { c.SubmitReply() })
	l.Lightbox.On(dom.Click, func(*dom.Event) { c.CloseLightbox() })
	l.Root.On(dom.KeyDown, func(ev *dom.Event) {
		if c.KeyDown(ev.Key) {
			ev.StopPropagation()
		}
	})
	l.Categories.On(dom.Click, func(ev *dom.Event) {
		if ev.Target.HasClass("cat-btn") {
			c.SetCategory(ev.Target.Attr("data-category"))
		}
	})
	l.Sorts.On(dom.Click, func(ev *dom.Event) {
		if ev.Target.HasClass("sort-opt") {
			c.SetSort(domain.Sort(ev.Target.Attr("data-sort")))
		}
	})
}

// Start shows the thread list. API calls use ctx from now on.
func (c *Controller) Start(ctx context.Context) {
	c.Bind(ctx)
	c.ShowList()
}

// Bind sets the context for later API calls without loading anything.
func (c *Controller) Bind(ctx context.Context) {
	c.ctx = ctx
}

// State returns the current view state. Slices are shared with the controller.
func (c *Controller) State() State               { return c.state }
func (c *Controller) Layout() *page.Layout       { return c.layout }
func (c *Controller) Modal() *modal.Modal        { return c.modal }
func (c *Controller) ThreadUpload() *upload.Zone { return c.threadUpload }
func (c *Controller) ReplyUpload() *upload.Zone  { return c.replyUpload }

func (c *Controller) capabilities(kind domain.Kind, id int64, author domain.Username) render.Capabilities {
	return render.CapabilitiesFor(c.viewer, author, c.likes.HasLiked(kind, id))
}

func (c *Controller) handle(a render.Action, _ *dom.Event) {
	switch a.Type {
	case render.Open:
		c.OpenThread(a.ID)
	case render.Lightbox:
		c.OpenLightbox(a.URL)
	case render.Like:
		if a.Kind == domain.KindReply {
			c.LikeReply(a.ID)
		} else {
			c.LikeThread(a.ID)
		}
	case render.Edit:
		if a.Kind == domain.KindReply {
			c.EditReply(a.ID)
		} else {
			c.EditThread(a.ID)
		}
	case render.Delete:
		if a.Kind == domain.KindReply {
			c.DeleteReply(a.ID)
		} else {
			c.DeleteThread(a.ID)
		}
	}
}

// card finds the direct child of container rendered for id.
func card(container *dom.Element, class string, id int64) *dom.Element {
	want := strconv.FormatInt(id, 10)
	for _, child := range container.Children() {
		if child.HasClass(class) && child.Attr("data-id") == want {
			return child
		}
	}
	return nil
}

func placeholder(text string) *dom.Element {
	return dom.New("div", "empty-state").WithText(text)
}

// failure marks a load error apart from an empty result.
func failure(text string) *dom.Element {
	return dom.New("div", "error-state").WithText(text)
}

func loading(text string) *dom.Element {
	return dom.New("div", "loading").WithText(text)
}
