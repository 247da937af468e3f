package controller

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/itchan-dev/discussion/frontend/internal/apiclient"
	"github.com/itchan-dev/discussion/frontend/internal/apitest"
	"github.com/itchan-dev/discussion/frontend/internal/confirm"
	"github.com/itchan-dev/discussion/frontend/internal/dom"
	"github.com/itchan-dev/discussion/frontend/internal/eventloop"
	"github.com/itchan-dev/discussion/frontend/internal/markdown"
	"github.com/itchan-dev/discussion/frontend/internal/modal"
	"github.com/itchan-dev/discussion/frontend/internal/page"
	"github.com/itchan-dev/discussion/frontend/internal/prefs"
	"github.com/itchan-dev/discussion/frontend/internal/render"
	"github.com/itchan-dev/discussion/frontend/internal/toast"
	"github.com/itchan-dev/discussion/shared/api"
	"github.com/itchan-dev/discussion/shared/config"
	"github.com/itchan-dev/discussion/shared/domain"
	"github.com/itchan-dev/discussion/shared/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice     = domain.Viewer{Authenticated: true, Username: "alice"}
	anonymous = domain.Viewer{}
	fixedNow  = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
)

// pngBytes is a 1x1 transparent PNG.
var pngBytes = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0d, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

type harness struct {
	ts     *apitest.TestServer
	loop   *eventloop.Loop
	likes  *prefs.Store
	toasts *toast.Notifier
	c      *Controller
}

func newController(client API, likes Likes, viewer domain.Viewer) (*Controller, *eventloop.Loop, *toast.Notifier) {
	loop := eventloop.New()
	layout := page.New()
	now := func() time.Time { return fixedNow }
	toasts := toast.New(layout.Toasts, config.DefaultToastTTL, now)
	c := New(Deps{
		API:      client,
		Likes:    likes,
		Loop:     loop,
		Layout:   layout,
		Renderer: render.New(markdown.New(), now),
		Toasts:   toasts,
		Viewer:   viewer,
		Upload: validation.ImageRules{
			AllowedMimeTypes: config.DefaultAllowedImageMimeTypes,
			MaxBytes:         config.DefaultMaxUploadBytes,
		},
	})
	return c, loop, toasts
}

// newHarness wires a controller to a fake forum server over real HTTP.
func newHarness(t *testing.T, viewer domain.Viewer) *harness {
	t.Helper()
	ts := apitest.Start(t, apitest.Options{Now: func() time.Time { return fixedNow }})
	client := apiclient.New(ts.ThreadsURL, ts.RepliesURL, ts.CSRFToken(), 5*time.Second)
	if viewer.Authenticated {
		client.SessionToken = ts.SessionFor(viewer)
	}
	likes := prefs.Load(prefs.NewMemoryBackend())
	c, loop, toasts := newController(client, likes, viewer)
	return &harness{ts: ts, loop: loop, likes: likes, toasts: toasts, c: c}
}

func (h *harness) start() {
	h.c.Start(context.Background())
	h.loop.Settle()
}

func (h *harness) lastToast(t *testing.T) toast.Toast {
	t.Helper()
	last, ok := h.toasts.Last()
	require.True(t, ok, "expected a notification")
	return last
}

func cardTitles(list *dom.Element) []string {
	var titles []string
	for _, card := range list.QueryAll("thread-card") {
		titles = append(titles, card.Query("thread-title").Text)
	}
	return titles
}

func TestStartShowsList(t *testing.T) {
	h := newHarness(t, anonymous)
	store := h.ts.Store()
	store.AddThread("bob", "First", "one", "Science", nil)
	store.AddThread("carol", "Second", "two", "Maths", nil)

	h.start()

	l := h.c.Layout()
	assert.Equal(t, domain.ViewList, h.c.State().View)
	assert.True(t, l.ViewList.Visible())
	assert.False(t, l.ViewThread.Visible())
	assert.False(t, l.ViewNew.Visible())
	assert.ElementsMatch(t, []string{"First", "Second"}, cardTitles(l.ThreadList))
	assert.Len(t, h.c.State().Threads, 2)
	assert.Nil(t, l.ThreadList.Query("loading"))
}

func TestListPlaceholders(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		h := newHarness(t, anonymous)
		h.start()
		assert.Equal(t, msgNoThreads, h.c.Layout().ThreadList.Query("empty-state").Text)
	})
	t.Run("failure", func(t *testing.T) {
		fake := newFakeAPI()
		fake.listThreads = func(context.Context) ([]domain.Thread, error) { return nil, errors.New("connection refused") }
		c, loop, _ := newController(fake, prefs.Load(prefs.NewMemoryBackend()), anonymous)
		c.Start(context.Background())
		loop.Settle()
		assert.Equal(t, msgThreadsFailed, c.Layout().ThreadList.Query("error-state").Text)
		assert.Nil(t, c.Layout().ThreadList.Query("empty-state"))
		assert.Empty(t, c.State().Threads)
	})
}

func TestCategoryAndSortControls(t *testing.T) {
	h := newHarness(t, anonymous)
	store := h.ts.Store()
	store.AddThread("bob", "Physics", "b", "Science", nil)
	store.AddThread("bob", "Algebra", "b", "Maths", nil)
	h.start()
	l := h.c.Layout()

	l.Categories.ChildByAttr("data-category", "Science").Click()
	h.loop.Settle()
	assert.Equal(t, "Science", h.c.State().Category)
	assert.Equal(t, []string{"Physics"}, cardTitles(l.ThreadList))
	assert.True(t, l.Categories.ChildByAttr("data-category", "Science").HasClass("active"))
	assert.False(t, l.Categories.ChildByAttr("data-category", domain.CategoryAll).HasClass("active"))

	h.ts.ResetCalls()
	h.c.SetCategory("Astrology")
	h.loop.Settle()
	assert.Equal(t, "Science", h.c.State().Category, "unknown category is ignored")
	assert.Zero(t, h.ts.CallCount("GET", apitest.APIPrefix+"/threads/"))

	l.Sorts.ChildByAttr("data-sort", string(domain.SortPopular)).Click()
	h.loop.Settle()
	assert.Equal(t, domain.SortPopular, h.c.State().Sort)
	assert.True(t, l.Sorts.ChildByAttr("data-sort", string(domain.SortPopular)).HasClass("active"))
	assert.Equal(t, 1, h.ts.CallCount("GET", apitest.APIPrefix+"/threads/"))
}

func TestOpenThreadShowsDetailAndReplies(t *testing.T) {
	h := newHarness(t, anonymous)
	store := h.ts.Store()
	thread := store.AddThread("bob", "Hello", "**bold** body", "General", nil)
	_, err := store.AddReply(thread.Id, "carol", "first", nil)
	require.NoError(t, err)
	_, err = store.AddReply(thread.Id, "dave", "second", nil)
	require.NoError(t, err)
	h.start()

	l := h.c.Layout()
	l.ThreadList.Query("thread-card").Click()
	h.loop.Settle()

	st := h.c.State()
	assert.Equal(t, domain.ViewThread, st.View)
	require.NotNil(t, st.ActiveThread)
	assert.Equal(t, thread.Id, st.ActiveThread.Id)
	assert.True(t, l.ViewThread.Visible())
	assert.False(t, l.ViewList.Visible())
	assert.Equal(t, "Hello", l.DetailBox.Query("thread-title").Text)
	assert.Contains(t, l.DetailBox.Query("thread-body").HTML, "<strong>bold</strong>")
	assert.NotNil(t, l.DetailBox.ByID("detail-like-btn"))

	cards := l.ReplyList.QueryAll("reply-card")
	require.Len(t, cards, 2)
	assert.Equal(t, "carol", cards[0].Query("reply-author").Text)
	assert.Equal(t, "2 replies", l.ReplyDivider.Text)
	assert.Nil(t, l.ReplyList.Query("empty-state"))
}

func TestOpenThreadIsAllOrNothing(t *testing.T) {
	fake := newFakeAPI(domain.Thread{Id: 1, Title: "T", Body: "B", Category: "General", Author: "bob"})
	fake.getReplies = func(context.Context, domain.ThreadId) ([]domain.Reply, error) {
		return nil, errors.New("replies unavailable")
	}
	c, loop, _ := newController(fake, prefs.Load(prefs.NewMemoryBackend()), alice)
	c.Start(context.Background())
	loop.Settle()

	c.OpenThread(1)
	loop.Settle()

	l := c.Layout()
	assert.Nil(t, c.State().ActiveThread)
	assert.Empty(t, c.State().ActiveReplies)
	assert.Nil(t, l.DetailBox.Query("thread-detail"), "the thread must not render without its replies")
	assert.Equal(t, msgThreadFailed, l.DetailBox.Query("error-state").Text)
	assert.Nil(t, l.DetailBox.Query("empty-state"))
	assert.Empty(t, l.ReplyList.QueryAll("reply-card"))
}

func TestStaleResponsesAreDiscarded(t *testing.T) {
	t.Run("list after opening a thread", func(t *testing.T) {
		fake := newFakeAPI(domain.Thread{Id: 1, Title: "Open me", Body: "B", Category: "General"})
		release := make(chan struct{})
		fake.listThreads = func(context.Context) ([]domain.Thread, error) {
			<-release
			return []domain.Thread{{Id: 9, Title: "Stale"}}, nil
		}
		c, loop, _ := newController(fake, prefs.Load(prefs.NewMemoryBackend()), anonymous)
		c.Start(context.Background())
		c.OpenThread(1)
		close(release)
		loop.Settle()

		assert.Equal(t, domain.ViewThread, c.State().View)
		assert.Empty(t, c.State().Threads)
		assert.Empty(t, cardTitles(c.Layout().ThreadList))
		assert.Equal(t, "Open me", c.Layout().DetailBox.Query("thread-title").Text)
	})

	t.Run("thread after opening another", func(t *testing.T) {
		fake := newFakeAPI(
			domain.Thread{Id: 1, Title: "Slow", Body: "B", Category: "General"},
			domain.Thread{Id: 2, Title: "Fast", Body: "B", Category: "General"},
		)
		release := make(chan struct{})
		fake.getThread = func(_ context.Context, id domain.ThreadId) (domain.Thread, error) {
			if id == 1 {
				<-release
			}
			return fake.thread(id)
		}
		c, loop, _ := newController(fake, prefs.Load(prefs.NewMemoryBackend()), anonymous)
		c.OpenThread(1)
		c.OpenThread(2)
		close(release)
		loop.Settle()

		require.NotNil(t, c.State().ActiveThread)
		assert.Equal(t, domain.ThreadId(2), c.State().ActiveThread.Id)
		assert.Equal(t, "Fast", c.Layout().DetailBox.Query("thread-title").Text)
	})

	t.Run("replies after going back", func(t *testing.T) {
		fake := newFakeAPI(domain.Thread{Id: 1, Title: "Slow", Body: "B", Category: "General"})
		fake.replies[1] = []domain.Reply{{Id: 5, ThreadId: 1, Body: "late"}}
		release := make(chan struct{})
		fake.getReplies = func(_ context.Context, id domain.ThreadId) ([]domain.Reply, error) {
			<-release
			return fake.replies[id], nil
		}
		c, loop, _ := newController(fake, prefs.Load(prefs.NewMemoryBackend()), anonymous)
		c.OpenThread(1)
		c.Layout().Back.Click()
		// only the list load may finish before the replies
		for c.Layout().ThreadList.Query("thread-card") == nil {
			loop.RunPending()
		}
		list := c.Layout().ThreadList.String()
		close(release)
		loop.Settle()

		assert.Equal(t, domain.ViewList, c.State().View)
		assert.Equal(t, list, c.Layout().ThreadList.String(), "the list must not change")
		assert.Nil(t, c.State().ActiveThread)
		assert.Empty(t, c.State().ActiveReplies)
		assert.Nil(t, c.Layout().DetailBox.Query("thread-detail"))
		assert.Empty(t, c.Layout().ReplyList.QueryAll("reply-card"))
	})
}

func TestLikeRequiresLogin(t *testing.T) {
	h := newHarness(t, anonymous)
	thread := h.ts.Store().AddThread("bob", "T", "B", "General", nil)
	h.start()
	h.ts.ResetCalls()

	btn := h.c.Layout().ThreadList.Query("like-btn")
	require.NotNil(t, btn, "anonymous viewers still see the like button")
	btn.Click()
	h.loop.Settle()

	assert.Equal(t, msgLoginThreads, h.lastToast(t).Message)
	assert.Equal(t, toast.Warning, h.lastToast(t).Level)
	assert.Zero(t, h.ts.CallCount("POST", apitest.APIPrefix))
	assert.False(t, h.likes.HasLiked(domain.KindThread, thread.Id))
	assert.Equal(t, domain.ViewList, h.c.State().View, "the click must not open the thread")
}

func TestLikeThreadShowsServerCount(t *testing.T) {
	h := newHarness(t, alice)
	store := h.ts.Store()
	thread := store.AddThread("bob", "T", "B", "General", nil)
	for i := 0; i < 4; i++ {
		_, err := store.LikeThread(thread.Id)
		require.NoError(t, err)
	}
	h.start()
	l := h.c.Layout()

	l.ThreadList.Query("like-btn").Click()
	h.loop.Settle()

	btn := l.ThreadList.Query("like-btn")
	assert.Equal(t, 5, render.LikeCount(btn))
	assert.True(t, btn.HasClass("liked"))
	assert.True(t, btn.Disabled)
	assert.True(t, h.likes.HasLiked(domain.KindThread, thread.Id))
	assert.Equal(t, 5, h.c.State().Threads[0].Likes)
	assert.Equal(t, domain.ViewList, h.c.State().View)

	shown := len(h.toasts.Active())
	btn.Query("like-count").Click()
	h.loop.Settle()
	assert.Len(t, h.toasts.Active(), shown, "clicks inside a liked button are dropped")
	assert.Equal(t, domain.ViewList, h.c.State().View)

	h.c.LikeThread(thread.Id)
	h.loop.Settle()
	assert.Equal(t, msgLikedThread, h.lastToast(t).Message)
	assert.Equal(t, 1, h.ts.CallCount("POST", apitest.APIPrefix+"/threads/"))
}

func TestLikeUpdatesEveryButtonForTheItem(t *testing.T) {
	fake := newFakeAPI(domain.Thread{Id: 1, Title: "T", Body: "B", Category: "General", Likes: 2})
	c, loop, _ := newController(fake, prefs.Load(prefs.NewMemoryBackend()), alice)
	c.OpenThread(1)
	loop.Settle()

	// a stale list card for the same thread stays in the tree while the detail shows
	c.Layout().ThreadList.Append(
		c.renderer.ThreadCard(fake.threads[0], render.Capabilities{CanLike: true}).Root,
	)
	c.Layout().DetailBox.ByID("detail-like-btn").Click()
	loop.Settle()

	buttons := c.Layout().Root.QueryAll("like-btn")
	require.Len(t, buttons, 2)
	for _, btn := range buttons {
		assert.Equal(t, 3, render.LikeCount(btn))
		assert.True(t, btn.Disabled)
	}
	assert.Equal(t, 3, c.State().ActiveThread.Likes)
}

func TestLikeFailureKeepsItemUnliked(t *testing.T) {
	fake := newFakeAPI(domain.Thread{Id: 1, Title: "T", Body: "B", Category: "General", Likes: 2})
	fake.likeThread = func(context.Context, domain.ThreadId) (int, error) { return 0, errors.New("boom") }
	likes := prefs.Load(prefs.NewMemoryBackend())
	c, loop, toasts := newController(fake, likes, alice)
	c.Start(context.Background())
	loop.Settle()

	c.LikeThread(1)
	loop.Settle()

	last, ok := toasts.Last()
	require.True(t, ok)
	assert.Equal(t, msgLikeFailed, last.Message)
	assert.False(t, likes.HasLiked(domain.KindThread, 1))
	btn := c.Layout().ThreadList.Query("like-btn")
	assert.Equal(t, 2, render.LikeCount(btn))
	assert.False(t, btn.Disabled)
}

func TestLikeInFlightIgnoresRepeats(t *testing.T) {
	fake := newFakeAPI(domain.Thread{Id: 1, Title: "T", Body: "B", Category: "General"})
	release := make(chan struct{})
	fake.likeThread = func(context.Context, domain.ThreadId) (int, error) {
		<-release
		return 1, nil
	}
	c, loop, _ := newController(fake, prefs.Load(prefs.NewMemoryBackend()), alice)
	c.LikeThread(1)
	c.LikeThread(1)
	close(release)
	loop.Settle()

	assert.Equal(t, 1, fake.Calls("like-thread"))
}

func TestPreviouslyLikedButtonsRenderLiked(t *testing.T) {
	fake := newFakeAPI(domain.Thread{Id: 1, Title: "T", Body: "B", Category: "General", Likes: 7})
	likes := prefs.Load(prefs.NewMemoryBackend())
	likes.MarkLiked(domain.KindThread, 1)
	c, loop, _ := newController(fake, likes, alice)
	c.Start(context.Background())
	loop.Settle()

	btn := c.Layout().ThreadList.Query("like-btn")
	assert.True(t, btn.HasClass("liked"))
	assert.False(t, btn.Disabled)
	assert.Equal(t, 7, render.LikeCount(btn))
}

func TestSubmitThread(t *testing.T) {
	h := newHarness(t, alice)
	h.start()
	l := h.c.Layout()

	l.OpenNew.Click()
	assert.Equal(t, domain.ViewNew, h.c.State().View)
	assert.True(t, l.ViewNew.Visible())

	l.NewTitle.Value = "  Fresh  "
	l.NewBody.Value = "Body text"
	l.NewCategory.Value = "Maths"
	require.True(t, h.c.ThreadUpload().Select(domain.NewPendingFile("pic.png", "image/png", pngBytes)))
	h.loop.Settle()

	l.Publish.Click()
	assert.True(t, l.Publish.Disabled)
	assert.Equal(t, labelPublishing, l.Publish.Text)
	h.loop.Settle()

	assert.Equal(t, msgPublished, h.lastToast(t).Message)
	assert.Equal(t, domain.ViewList, h.c.State().View)
	assert.Equal(t, page.LabelPublish, l.Publish.Text)
	assert.False(t, l.Publish.Disabled)
	assert.Empty(t, l.NewTitle.Value)
	assert.Empty(t, l.NewBody.Value)
	assert.Equal(t, domain.DefaultCategory, l.NewCategory.Value)
	assert.Nil(t, h.c.ThreadUpload().Held())

	assert.Equal(t, []string{"Fresh"}, cardTitles(l.ThreadList))
	require.Len(t, h.c.State().Threads, 1)
	created := h.c.State().Threads[0]
	assert.Equal(t, "Maths", created.Category)
	assert.Equal(t, "alice", created.Author)
	assert.True(t, created.HasImage())
	assert.NotNil(t, l.ThreadList.Query("thread-thumb"))
}

func TestSubmitThreadRejections(t *testing.T) {
	tests := []struct {
		name   string
		viewer domain.Viewer
		title  string
		body   string
		want   string
		posted int
	}{
		{name: "blank title", viewer: alice, title: "   ", body: "B", want: msgFillThread},
		{name: "blank body", viewer: alice, title: "T", body: "\n\t", want: msgFillThread},
		{name: "server refuses", viewer: anonymous, title: "T", body: "B", want: "Authentication required.", posted: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, tt.viewer)
			h.c.ShowNew()
			l := h.c.Layout()
			l.NewTitle.Value = tt.title
			l.NewBody.Value = tt.body

			l.Publish.Click()
			h.loop.Settle()

			assert.Equal(t, tt.want, h.lastToast(t).Message)
			assert.Equal(t, tt.posted, h.ts.CallCount("POST", apitest.APIPrefix+"/threads/"))
			assert.Equal(t, domain.ViewNew, h.c.State().View)
			assert.Equal(t, tt.title, l.NewTitle.Value, "input is kept for another try")
			assert.False(t, l.Publish.Disabled)
		})
	}
}

func TestSubmitThreadStaysPutAfterLeaving(t *testing.T) {
	fake := newFakeAPI(domain.Thread{Id: 1, Title: "Other", Body: "B", Category: "General"})
	c, loop, _ := newController(fake, prefs.Load(prefs.NewMemoryBackend()), alice)
	c.ShowNew()
	c.Layout().NewTitle.Value = "T"
	c.Layout().NewBody.Value = "B"
	c.SubmitThread()
	c.OpenThread(1)
	loop.Settle()

	assert.Equal(t, domain.ViewThread, c.State().View)
}

func TestSubmitReplyAppendsWithoutReload(t *testing.T) {
	h := newHarness(t, alice)
	thread := h.ts.Store().AddThread("bob", "T", "B", "General", nil)
	h.start()
	h.c.OpenThread(thread.Id)
	h.loop.Settle()

	l := h.c.Layout()
	assert.Equal(t, msgFirstReply, l.ReplyList.Query("empty-state").Text)
	assert.Equal(t, "0 replies", l.ReplyDivider.Text)

	h.ts.ResetCalls()
	l.ReplyBody.Value = "my answer"
	l.PostReply.Click()
	assert.Equal(t, labelPosting, l.PostReply.Text)
	h.loop.Settle()

	assert.Equal(t, msgReplied, h.lastToast(t).Message)
	assert.Empty(t, l.ReplyBody.Value)
	assert.Equal(t, page.LabelPostReply, l.PostReply.Text)
	cards := l.ReplyList.QueryAll("reply-card")
	require.Len(t, cards, 1)
	assert.Contains(t, cards[0].Query("reply-body").HTML, "my answer")
	assert.Nil(t, l.ReplyList.Query("empty-state"))
	assert.Equal(t, "1 reply", l.ReplyDivider.Text)
	assert.Equal(t, 1, h.c.State().ActiveThread.ReplyCount)
	assert.Zero(t, h.ts.CallCount("GET", apitest.APIPrefix), "replies are not reloaded")
}

func TestSubmitReplyRequiresBody(t *testing.T) {
	h := newHarness(t, alice)
	thread := h.ts.Store().AddThread("bob", "T", "B", "General", nil)
	h.c.OpenThread(thread.Id)
	h.loop.Settle()

	h.c.Layout().ReplyBody.Value = "   "
	h.c.SubmitReply()
	h.loop.Settle()

	assert.Equal(t, msgFillReply, h.lastToast(t).Message)
	assert.Zero(t, h.ts.CallCount("POST", apitest.APIPrefix))
}

func TestReplyForAnotherThreadIsNotAppended(t *testing.T) {
	fake := newFakeAPI(
		domain.Thread{Id: 1, Title: "One", Body: "B", Category: "General"},
		domain.Thread{Id: 2, Title: "Two", Body: "B", Category: "General"},
	)
	release := make(chan struct{})
	fake.createReply = func(_ context.Context, threadID domain.ThreadId, data api.CreateReplyRequest) (domain.Reply, error) {
		<-release
		return domain.Reply{Id: 50, ThreadId: threadID, Body: data.Body}, nil
	}
	c, loop, toasts := newController(fake, prefs.Load(prefs.NewMemoryBackend()), alice)
	c.OpenThread(1)
	loop.Settle()

	c.Layout().ReplyBody.Value = "late"
	c.SubmitReply()
	c.OpenThread(2)
	close(release)
	loop.Settle()

	last, ok := toasts.Last()
	require.True(t, ok)
	assert.Equal(t, msgReplied, last.Message)
	assert.Empty(t, c.State().ActiveReplies)
	assert.Empty(t, c.Layout().ReplyList.QueryAll("reply-card"))
	assert.Equal(t, "0 replies", c.Layout().ReplyDivider.Text)
}

func TestLateReplyKeepsOtherThreadDraft(t *testing.T) {
	fake := newFakeAPI(
		domain.Thread{Id: 1, Title: "One", Body: "B", Category: "General"},
		domain.Thread{Id: 2, Title: "Two", Body: "B", Category: "General"},
	)
	release := make(chan struct{})
	fake.createReply = func(_ context.Context, threadID domain.ThreadId, data api.CreateReplyRequest) (domain.Reply, error) {
		if threadID == 1 {
			<-release
		}
		return domain.Reply{Id: 60 + threadID, ThreadId: threadID, Body: data.Body}, nil
	}
	c, loop, toasts := newController(fake, prefs.Load(prefs.NewMemoryBackend()), alice)
	l := c.Layout()
	c.OpenThread(1)
	loop.Settle()

	l.ReplyBody.Value = "for thread one"
	c.SubmitReply()
	assert.True(t, l.PostReply.Disabled)

	c.OpenThread(2)
	loop.RunPending()
	for c.State().ActiveThread == nil {
		loop.RunPending()
	}
	assert.False(t, l.PostReply.Disabled, "busy state belongs to thread one")
	l.ReplyBody.Value = "draft for thread two"
	require.True(t, c.ReplyUpload().Select(domain.NewPendingFile("pic.png", "image/png", pngBytes)))

	close(release)
	loop.Settle()

	last, ok := toasts.Last()
	require.True(t, ok)
	assert.Equal(t, msgReplied, last.Message)
	assert.Equal(t, "draft for thread two", l.ReplyBody.Value)
	assert.NotNil(t, c.ReplyUpload().Held())
	assert.Empty(t, c.State().ActiveReplies)

	c.SubmitReply()
	loop.Settle()
	require.Len(t, c.State().ActiveReplies, 1)
	assert.Equal(t, "draft for thread two", c.State().ActiveReplies[0].Body)
	assert.Empty(t, l.ReplyBody.Value)
	assert.Nil(t, c.ReplyUpload().Held())
}

func TestReopenedThreadShowsPostingUntilReplySettles(t *testing.T) {
	fake := newFakeAPI(
		domain.Thread{Id: 1, Title: "One", Body: "B", Category: "General"},
		domain.Thread{Id: 2, Title: "Two", Body: "B", Category: "General"},
	)
	release := make(chan struct{})
	fake.createReply = func(_ context.Context, threadID domain.ThreadId, data api.CreateReplyRequest) (domain.Reply, error) {
		<-release
		return domain.Reply{Id: 70, ThreadId: threadID, Body: data.Body}, nil
	}
	c, loop, _ := newController(fake, prefs.Load(prefs.NewMemoryBackend()), alice)
	l := c.Layout()
	c.OpenThread(1)
	loop.Settle()
	l.ReplyBody.Value = "first"
	c.SubmitReply()

	c.OpenThread(2)
	c.OpenThread(1)
	assert.True(t, l.PostReply.Disabled)
	l.ReplyBody.Value = "second draft"
	c.SubmitReply()

	close(release)
	loop.Settle()

	assert.False(t, l.PostReply.Disabled)
	assert.Equal(t, "second draft", l.ReplyBody.Value)
	assert.Equal(t, 1, fake.Calls("create-reply"))
}

func TestEditThreadPatchesInPlace(t *testing.T) {
	h := newHarness(t, alice)
	thread := h.ts.Store().AddThread("alice", "Old title", "old body", "General", nil)
	h.start()
	h.c.OpenThread(thread.Id)
	h.loop.Settle()
	l := h.c.Layout()

	l.DetailBox.Query("edit-btn").Click()
	m := h.c.Modal()
	require.True(t, m.IsOpen())
	root := m.Element()
	assert.Equal(t, "Old title", root.ByID(modal.IDTitle).Value)

	root.ByID(modal.IDTitle).Value = "New title"
	root.ByID(modal.IDCategory).Value = "Science"
	root.ByID(modal.IDBody).Value = "new body"
	h.ts.ResetCalls()
	m.Save(context.Background())
	h.loop.Settle()

	assert.False(t, m.IsOpen())
	assert.Equal(t, msgThreadSaved, h.lastToast(t).Message)
	assert.Equal(t, "New title", l.DetailBox.Query("thread-title").Text)
	assert.Equal(t, "Science", l.DetailBox.Query("thread-cat").Text)
	assert.Contains(t, l.DetailBox.Query("thread-body").HTML, "new body")
	assert.Equal(t, "New title", h.c.State().ActiveThread.Title)
	assert.Equal(t, 1, h.ts.CallCount("PATCH", apitest.APIPrefix+"/threads/"))
	assert.Zero(t, h.ts.CallCount("GET", apitest.APIPrefix))

	stored, err := h.ts.Store().Thread(thread.Id)
	require.NoError(t, err)
	assert.Equal(t, "New title", stored.Title)
}

func TestEditReplyChangesOnlyTheBody(t *testing.T) {
	h := newHarness(t, alice)
	store := h.ts.Store()
	thread := store.AddThread("bob", "T", "B", "General", nil)
	reply, err := store.AddReply(thread.Id, "alice", "before", nil)
	require.NoError(t, err)
	h.c.OpenThread(thread.Id)
	h.loop.Settle()
	l := h.c.Layout()

	card := l.ReplyList.Query("reply-card")
	author := card.Query("reply-author").Text
	when := card.Query("reply-time").Text
	card.Query("edit-btn").Click()
	require.Equal(t, domain.KindReply, h.c.Modal().Kind())

	h.c.Modal().Element().ByID(modal.IDBody).Value = "after"
	h.ts.ResetCalls()
	h.c.Modal().Save(context.Background())
	h.loop.Settle()

	assert.Same(t, card, l.ReplyList.Query("reply-card"), "the card is patched, not rebuilt")
	assert.Contains(t, card.Query("reply-body").HTML, "after")
	assert.Equal(t, author, card.Query("reply-author").Text)
	assert.Equal(t, when, card.Query("reply-time").Text)
	assert.Equal(t, "after", h.c.State().ActiveReplies[0].Body)
	assert.Equal(t, reply.Id, h.c.State().ActiveReplies[0].Id)
	assert.Equal(t, 1, h.ts.CallCount("PATCH", apitest.APIPrefix+"/replies/"))
	assert.Zero(t, h.ts.CallCount("GET", apitest.APIPrefix), "replies are not reloaded")
}

func TestEditAndDeleteNeedPermission(t *testing.T) {
	h := newHarness(t, alice)
	thread := h.ts.Store().AddThread("bob", "T", "B", "General", nil)
	h.c.OpenThread(thread.Id)
	h.loop.Settle()

	assert.Nil(t, h.c.Layout().DetailBox.Query("edit-btn"))
	assert.Nil(t, h.c.Layout().DetailBox.Query("delete-btn"))
	h.c.EditThread(thread.Id)
	h.c.DeleteThread(thread.Id)
	assert.False(t, h.c.Modal().IsOpen())
	assert.Nil(t, h.c.Layout().DetailBox.Query(confirm.BarClass))
}

func TestDeleteLastReplyShowsPlaceholder(t *testing.T) {
	h := newHarness(t, alice)
	store := h.ts.Store()
	thread := store.AddThread("bob", "T", "B", "General", nil)
	_, err := store.AddReply(thread.Id, "alice", "only one", nil)
	require.NoError(t, err)
	h.c.OpenThread(thread.Id)
	h.loop.Settle()
	l := h.c.Layout()

	card := l.ReplyList.Query("reply-card")
	card.Query("delete-btn").Click()
	bar := card.Query(confirm.BarClass)
	require.NotNil(t, bar)
	bar.Query("confirm-yes").Click()
	h.loop.Settle()

	assert.Empty(t, l.ReplyList.QueryAll("reply-card"))
	assert.Equal(t, msgFirstReply, l.ReplyList.Query("empty-state").Text)
	assert.Equal(t, "0 replies", l.ReplyDivider.Text)
	assert.Empty(t, h.c.State().ActiveReplies)
	assert.Equal(t, msgReplyDeleted, h.lastToast(t).Message)
}

func TestDeleteThreadReturnsToList(t *testing.T) {
	h := newHarness(t, alice)
	store := h.ts.Store()
	doomed := store.AddThread("alice", "Doomed", "B", "General", nil)
	store.AddThread("bob", "Survivor", "B", "General", nil)
	h.start()
	h.c.OpenThread(doomed.Id)
	h.loop.Settle()
	l := h.c.Layout()

	l.DetailBox.Query("delete-btn").Click()
	l.DetailBox.Query("confirm-yes").Click()
	h.loop.Settle()

	assert.Equal(t, domain.ViewList, h.c.State().View)
	assert.Equal(t, []string{"Survivor"}, cardTitles(l.ThreadList))
	assert.Equal(t, msgThreadDeleted, h.lastToast(t).Message)
}

func TestDeleteFailureKeepsItem(t *testing.T) {
	fake := newFakeAPI(domain.Thread{Id: 1, Title: "T", Body: "B", Category: "General", Author: "alice"})
	fake.deleteThread = func(context.Context, domain.ThreadId) error { return errors.New("boom") }
	c, loop, toasts := newController(fake, prefs.Load(prefs.NewMemoryBackend()), alice)
	c.Start(context.Background())
	loop.Settle()

	card := c.Layout().ThreadList.Query("thread-card")
	c.DeleteThread(1)
	card.Query("confirm-yes").Click()
	loop.Settle()

	last, ok := toasts.Last()
	require.True(t, ok)
	assert.Equal(t, msgDeleteFailed, last.Message)
	assert.Same(t, card, c.Layout().ThreadList.Query("thread-card"))
	yes := card.Query("confirm-yes")
	require.NotNil(t, yes, "the bar stays for a retry")
	assert.False(t, yes.Disabled)
	assert.Len(t, c.State().Threads, 1)
}

func TestUploadZonesRejectLargeFiles(t *testing.T) {
	c, loop, toasts := newController(newFakeAPI(), prefs.Load(prefs.NewMemoryBackend()), alice)
	for _, zone := range []string{"thread", "reply"} {
		t.Run(zone, func(t *testing.T) {
			z := c.ThreadUpload()
			if zone == "reply" {
				z = c.ReplyUpload()
			}
			kept := domain.NewPendingFile("small.png", "image/png", pngBytes)
			require.True(t, z.Select(kept))
			loop.Settle()

			big := domain.NewPendingFile("big.png", "image/png", make([]byte, 6<<20))
			assert.False(t, z.Select(big))
			loop.Settle()

			assert.Same(t, kept, z.Held())
			last, ok := toasts.Last()
			require.True(t, ok)
			assert.Equal(t, toast.Error, last.Level)
		})
	}
}

func TestLightboxAndEscape(t *testing.T) {
	image := "/media/pic.png"
	fake := newFakeAPI(domain.Thread{Id: 1, Title: "T", Body: "B", Category: "General", Author: "alice", ImageURL: &image})
	c, loop, _ := newController(fake, prefs.Load(prefs.NewMemoryBackend()), alice)
	c.OpenThread(1)
	loop.Settle()
	l := c.Layout()

	l.DetailBox.Query("thread-image").Click()
	assert.False(t, l.Lightbox.Hidden)
	assert.Equal(t, image, l.LightboxImage.Attr("src"))
	assert.True(t, strings.HasPrefix(l.DetailBox.Query("thread-image").Attr("src"), "/media/"))

	c.EditThread(1)
	require.True(t, c.Modal().IsOpen())
	l.Root.Press("Escape")
	assert.False(t, c.Modal().IsOpen(), "escape closes the dialog first")
	assert.False(t, l.Lightbox.Hidden)

	l.Root.Press("Escape")
	assert.True(t, l.Lightbox.Hidden)
	assert.Empty(t, l.LightboxImage.Attr("src"))

	assert.False(t, c.KeyDown("Escape"))
	assert.False(t, c.KeyDown("Enter"))
}

func TestNavigationButtons(t *testing.T) {
	h := newHarness(t, alice)
	h.start()
	l := h.c.Layout()

	l.OpenNew.Click()
	assert.Equal(t, domain.ViewNew, h.c.State().View)
	l.BackNew.Click()
	h.loop.Settle()
	assert.Equal(t, domain.ViewList, h.c.State().View)
	assert.Equal(t, 2, h.ts.CallCount("GET", apitest.APIPrefix+"/threads/"))
}
