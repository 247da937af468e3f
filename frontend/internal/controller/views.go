package controller

import (
	"github.com/itchan-dev/discussion/frontend/internal/page"
	"github.com/itchan-dev/discussion/shared/domain"
	"github.com/itchan-dev/discussion/shared/logger"
	"golang.org/x/sync/errgroup"
)

// transition makes v the visible view and returns the new navigation sequence.
func (c *Controller) transition(v domain.View) uint64 {
	c.nav++
	c.state.View = v
	c.layout.Show(v)
	c.CloseLightbox()
	return c.nav
}

func (c *Controller) ShowList() {
	seq := c.transition(domain.ViewList)
	c.activeID = 0
	c.detail = nil
	c.state.ActiveThread = nil
	c.state.ActiveReplies = nil
	c.layout.ThreadList.SetContent(loading(msgLoadingThreads))

	ctx, category, sort := c.ctx, c.state.Category, c.state.Sort
	c.loop.Go(func() func() {
		threads, err := c.api.ListThreads(ctx, category, sort)
		return func() {
			if seq != c.nav {
				return
			}
			if err != nil {
				logger.Log.Error("could not load threads", "category", category, "sort", sort, "error", err)
				c.state.Threads = nil
				c.layout.ThreadList.SetContent(failure(msgThreadsFailed))
				return
			}
			c.state.Threads = threads
			c.renderList()
		}
	})
}

func (c *Controller) renderList() {
	list := c.layout.ThreadList
	list.Clear()
	if len(c.state.Threads) == 0 {
		list.Append(placeholder(msgNoThreads))
		return
	}
	for _, t := range c.state.Threads {
		f := c.renderer.ThreadCard(t, c.capabilities(domain.KindThread, t.Id, t.Author))
		list.Append(f.Wire(c.handle).Root)
	}
}

// OpenThread loads a thread and its replies together. Either both render or
// the view shows a single error.
func (c *Controller) OpenThread(id domain.ThreadId) {
	seq := c.transition(domain.ViewThread)
	c.activeID = id
	c.detail = nil
	c.state.ActiveThread = nil
	c.state.ActiveReplies = nil
	c.replyUpload.Clear()
	setBusy(c.layout.PostReply, c.posting[id], labelPosting, page.LabelPostReply)
	c.layout.DetailBox.SetContent(loading(msgLoadingThread))
	c.layout.ReplyList.Clear()
	c.layout.ReplyDivider.Text = ""

	ctx := c.ctx
	c.loop.Go(func() func() {
		var (
			thread  domain.Thread
			replies []domain.Reply
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			thread, err = c.api.GetThread(gctx, id)
			return err
		})
		g.Go(func() error {
			var err error
			replies, err = c.api.GetReplies(gctx, id)
			return err
		})
		err := g.Wait()

		return func() {
			if !c.viewing(seq, id) {
				return
			}
			if err != nil {
				logger.Log.Error("could not load thread", "thread_id", id, "error", err)
				c.layout.DetailBox.SetContent(failure(msgThreadFailed))
				return
			}
			c.state.ActiveThread = &thread
			c.state.ActiveReplies = replies
			c.renderDetail()
			c.renderReplies()
			if c.scroll != nil {
				c.scroll(c.layout.ViewThread)
			}
		}
	})
}

// viewing reports whether the continuation started at seq for thread id still
// owns the thread view.
func (c *Controller) viewing(seq uint64, id domain.ThreadId) bool {
	return seq == c.nav && c.state.View == domain.ViewThread && c.activeID == id
}

func (c *Controller) renderDetail() {
	t := c.state.ActiveThread
	f := c.renderer.ThreadDetail(*t, c.capabilities(domain.KindThread, t.Id, t.Author))
	c.detail = f.Wire(c.handle).Root
	c.layout.DetailBox.SetContent(c.detail)
}

func (c *Controller) renderReplies() {
	c.layout.ReplyList.Clear()
	for _, r := range c.state.ActiveReplies {
		c.appendReply(r)
	}
	c.syncReplyCount()
}

func (c *Controller) appendReply(r domain.Reply) {
	f := c.renderer.ReplyCard(r, c.capabilities(domain.KindReply, r.Id, r.Author))
	c.layout.ReplyList.Append(f.Wire(c.handle).Root)
}

// syncReplyCount recomputes the divider and the placeholder from ActiveReplies.
func (c *Controller) syncReplyCount() {
	n := len(c.state.ActiveReplies)
	c.layout.ReplyDivider.Text = domain.ReplyCountLabel(n)
	if c.state.ActiveThread != nil {
		c.state.ActiveThread.ReplyCount = n
	}

	existing := c.layout.ReplyList.Query("empty-state")
	switch {
	case n == 0 && existing == nil:
		c.layout.ReplyList.Append(placeholder(msgFirstReply))
	case n > 0 && existing != nil:
		existing.Remove()
	}
}

func (c *Controller) ShowNew() {
	c.transition(domain.ViewNew)
	c.activeID = 0
	c.detail = nil
}

// SetCategory filters the list; unknown categories are ignored.
func (c *Controller) SetCategory(category domain.Category) {
	if category != domain.CategoryAll && !domain.IsCategory(category) {
		return
	}
	c.state.Category = category
	page.MarkActive(c.layout.Categories, "data-category", category)
	c.ShowList()
}

func (c *Controller) SetSort(sort domain.Sort) {
	if _, ok := domain.ParseSort(string(sort)); !ok {
		return
	}
	c.state.Sort = sort
	page.MarkActive(c.layout.Sorts, "data-sort", string(sort))
	c.ShowList()
}
