package controller

import (
	"context"
	"strconv"
	"strings"

	"github.com/itchan-dev/discussion/frontend/internal/dom"
	"github.com/itchan-dev/discussion/frontend/internal/modal"
	"github.com/itchan-dev/discussion/frontend/internal/page"
	"github.com/itchan-dev/discussion/frontend/internal/render"
	"github.com/itchan-dev/discussion/shared/api"
	"github.com/itchan-dev/discussion/shared/domain"
	internal_errors "github.com/itchan-dev/discussion/shared/errors"
	"github.com/itchan-dev/discussion/shared/logger"
)

func (c *Controller) LikeThread(id domain.ThreadId) {
	c.like(domain.KindThread, id, msgLoginThreads, msgLikedThread, c.api.LikeThread)
}

func (c *Controller) LikeReply(id domain.ReplyId) {
	c.like(domain.KindReply, id, msgLoginReplies, msgLikedReply, c.api.LikeReply)
}

// like asks the server to count a like unless the viewer is anonymous or this
// client already liked the item. The shown count is always the server's.
func (c *Controller) like(kind domain.Kind, id int64, loginMsg, likedMsg string, send func(context.Context, int64) (int, error)) {
	if !c.viewer.Authenticated {
		c.toasts.Warn(loginMsg)
		return
	}
	if c.likes.HasLiked(kind, id) {
		c.toasts.Warn(likedMsg)
		return
	}
	key := likeKey{kind, id}
	if c.liking[key] {
		return
	}
	c.liking[key] = true

	ctx := c.ctx
	c.loop.Go(func() func() {
		likes, err := send(ctx, id)
		return func() {
			delete(c.liking, key)
			if err != nil {
				logger.Log.Warn("like not recorded", "kind", kind, "id", id, "error", err)
				c.toasts.Error(msgLikeFailed)
				return
			}
			c.likes.MarkLiked(kind, id)
			c.setLikes(kind, id, likes)
		}
	})
}

// setLikes stores the confirmed count and updates every button showing the item.
func (c *Controller) setLikes(kind domain.Kind, id int64, likes int) {
	if kind == domain.KindThread {
		for i := range c.state.Threads {
			if c.state.Threads[i].Id == id {
				c.state.Threads[i].Likes = likes
			}
		}
		if t := c.state.ActiveThread; t != nil && t.Id == id {
			t.Likes = likes
		}
	} else {
		for i := range c.state.ActiveReplies {
			if c.state.ActiveReplies[i].Id == id {
				c.state.ActiveReplies[i].Likes = likes
			}
		}
	}
	for _, btn := range likeButtons(c.layout.Root, kind, id) {
		render.SetLikes(btn, likes)
	}
}

func likeButtons(root *dom.Element, kind domain.Kind, id int64) []*dom.Element {
	attr, want := "data-"+string(kind)+"-id", strconv.FormatInt(id, 10)
	var found []*dom.Element
	for _, btn := range root.QueryAll("like-btn") {
		if btn.Attr(attr) == want {
			found = append(found, btn)
		}
	}
	return found
}

// SubmitThread publishes the composer's thread and returns to the list.
func (c *Controller) SubmitThread() {
	if c.publishing {
		return
	}
	l := c.layout
	title := strings.TrimSpace(l.NewTitle.Value)
	body := strings.TrimSpace(l.NewBody.Value)
	category := l.NewCategory.Value
	if category == "" {
		category = domain.DefaultCategory
	}
	if title == "" || body == "" {
		c.toasts.Warn(msgFillThread)
		return
	}

	c.publishing = true
	setBusy(l.Publish, true, labelPublishing, page.LabelPublish)
	ctx, image := c.ctx, c.threadUpload.Held()
	req := api.CreateThreadRequest{Title: title, Body: body, Category: category}
	c.loop.Go(func() func() {
		_, err := c.api.CreateThread(ctx, req, image)
		return func() {
			c.publishing = false
			setBusy(l.Publish, false, labelPublishing, page.LabelPublish)
			if err != nil {
				logger.Log.Warn("thread not published", "error", err)
				c.toasts.Error(internal_errors.DetailOr(err, msgPublishFailed))
				return
			}
			c.toasts.Success(msgPublished)
			l.NewTitle.Value = ""
			l.NewBody.Value = ""
			l.NewCategory.Value = domain.DefaultCategory
			c.threadUpload.Clear()
			if c.state.View == domain.ViewNew {
				c.ShowList()
			}
		}
	})
}

// SubmitReply posts a reply to the open thread and appends it without
// reloading the replies.
func (c *Controller) SubmitReply() {
	if c.state.ActiveThread == nil || c.posting[c.state.ActiveThread.Id] {
		return
	}
	l := c.layout
	body := strings.TrimSpace(l.ReplyBody.Value)
	if body == "" {
		c.toasts.Warn(msgFillReply)
		return
	}

	threadID := c.state.ActiveThread.Id
	c.posting[threadID] = true
	setBusy(l.PostReply, true, labelPosting, page.LabelPostReply)
	ctx, image, seq := c.ctx, c.replyUpload.Held(), c.nav
	c.loop.Go(func() func() {
		reply, err := c.api.CreateReply(ctx, threadID, api.CreateReplyRequest{Body: body}, image)
		return func() {
			delete(c.posting, threadID)
			onThread := c.state.View == domain.ViewThread && c.activeID == threadID
			if onThread {
				setBusy(l.PostReply, false, labelPosting, page.LabelPostReply)
			}
			if err != nil {
				logger.Log.Warn("reply not posted", "thread_id", threadID, "error", err)
				c.toasts.Error(internal_errors.DetailOr(err, msgReplyFailed))
				return
			}
			c.toasts.Success(msgReplied)
			if !onThread {
				return
			}
			// A draft typed after leaving and reopening the thread is not ours.
			if seq == c.nav {
				l.ReplyBody.Value = ""
				c.replyUpload.Clear()
			}
			if c.state.ActiveThread == nil {
				return
			}
			if _, dup := c.findReply(reply.Id); dup {
				return
			}
			c.state.ActiveReplies = append(c.state.ActiveReplies, reply)
			c.appendReply(reply)
			c.syncReplyCount()
		}
	})
}

func setBusy(btn *dom.Element, busy bool, busyLabel, idleLabel string) {
	btn.Disabled = busy
	if busy {
		btn.Text = busyLabel
	} else {
		btn.Text = idleLabel
	}
}

func (c *Controller) findThread(id domain.ThreadId) (domain.Thread, bool) {
	if t := c.state.ActiveThread; t != nil && t.Id == id {
		return *t, true
	}
	for _, t := range c.state.Threads {
		if t.Id == id {
			return t, true
		}
	}
	return domain.Thread{}, false
}

func (c *Controller) findReply(id domain.ReplyId) (int, bool) {
	for i, r := range c.state.ActiveReplies {
		if r.Id == id {
			return i, true
		}
	}
	return -1, false
}

// EditThread opens the edit dialog for a thread the viewer may modify.
func (c *Controller) EditThread(id domain.ThreadId) {
	t, ok := c.findThread(id)
	if !ok || !c.viewer.CanModify(t.Author) {
		return
	}
	c.modal.Open(modal.Options{
		Kind:    domain.KindThread,
		Initial: modal.Values{Title: t.Title, Category: t.Category, Body: t.Body},
		OnSave: func(ctx context.Context, v modal.Values) (func(), error) {
			updated, err := c.api.UpdateThread(ctx, id, api.UpdateThreadRequest{
				Title: &v.Title, Body: &v.Body, Category: &v.Category,
			})
			if err != nil {
				return nil, err
			}
			return func() { c.applyThread(updated) }, nil
		},
	})
}

func (c *Controller) applyThread(updated domain.Thread) {
	patch := func(t *domain.Thread) {
		t.Title, t.Body, t.Category = updated.Title, updated.Body, updated.Category
	}
	for i := range c.state.Threads {
		if c.state.Threads[i].Id == updated.Id {
			patch(&c.state.Threads[i])
		}
	}
	if t := c.state.ActiveThread; t != nil && t.Id == updated.Id {
		patch(t)
	}
	if el := card(c.layout.ThreadList, "thread-card", updated.Id); el != nil {
		c.renderer.PatchThread(el, updated)
	}
	if c.detail != nil && c.activeID == updated.Id {
		c.renderer.PatchThread(c.detail, updated)
	}
	c.toasts.Success(msgThreadSaved)
}

// EditReply opens the edit dialog for a reply of the open thread.
func (c *Controller) EditReply(id domain.ReplyId) {
	i, ok := c.findReply(id)
	if !ok || !c.viewer.CanModify(c.state.ActiveReplies[i].Author) {
		return
	}
	c.modal.Open(modal.Options{
		Kind:    domain.KindReply,
		Initial: modal.Values{Body: c.state.ActiveReplies[i].Body},
		OnSave: func(ctx context.Context, v modal.Values) (func(), error) {
			updated, err := c.api.UpdateReply(ctx, id, api.UpdateReplyRequest{Body: v.Body})
			if err != nil {
				return nil, err
			}
			return func() { c.applyReply(id, updated.Body) }, nil
		},
	})
}

// applyReply changes only the body; identity, author and timestamp stay.
func (c *Controller) applyReply(id domain.ReplyId, body string) {
	if i, ok := c.findReply(id); ok {
		c.state.ActiveReplies[i].Body = body
		if el := card(c.layout.ReplyList, "reply-card", id); el != nil {
			c.renderer.PatchReply(el, c.state.ActiveReplies[i])
		}
	}
	c.toasts.Success(msgReplySaved)
}

// DeleteThread asks for confirmation next to the thread, then deletes it and
// shows a freshly loaded list.
func (c *Controller) DeleteThread(id domain.ThreadId) {
	t, ok := c.findThread(id)
	if !ok || !c.viewer.CanModify(t.Author) {
		return
	}
	var owner *dom.Element
	if c.state.View == domain.ViewThread && c.activeID == id {
		owner = c.detail
	} else {
		owner = card(c.layout.ThreadList, "thread-card", id)
	}
	if owner == nil {
		return
	}
	c.confirm.Show(owner, func(ctx context.Context) (func(), error) {
		if err := c.api.DeleteThread(ctx, id); err != nil {
			return nil, err
		}
		return func() {
			owner.Remove()
			for i, t := range c.state.Threads {
				if t.Id == id {
					c.state.Threads = append(c.state.Threads[:i], c.state.Threads[i+1:]...)
					break
				}
			}
			c.toasts.Success(msgThreadDeleted)
			if c.state.View == domain.ViewNew {
				return
			}
			if c.state.View == domain.ViewThread && c.activeID != id {
				return
			}
			c.ShowList()
		}, nil
	})
}

// DeleteReply asks for confirmation inside the reply card, then removes it
// and recounts the remaining replies.
func (c *Controller) DeleteReply(id domain.ReplyId) {
	i, ok := c.findReply(id)
	if !ok || !c.viewer.CanModify(c.state.ActiveReplies[i].Author) {
		return
	}
	owner := card(c.layout.ReplyList, "reply-card", id)
	if owner == nil {
		return
	}
	threadID := c.activeID
	c.confirm.Show(owner, func(ctx context.Context) (func(), error) {
		if err := c.api.DeleteReply(ctx, id); err != nil {
			return nil, err
		}
		return func() {
			owner.Remove()
			c.toasts.Success(msgReplyDeleted)
			if c.state.View != domain.ViewThread || c.activeID != threadID {
				return
			}
			if i, ok := c.findReply(id); ok {
				c.state.ActiveReplies = append(c.state.ActiveReplies[:i], c.state.ActiveReplies[i+1:]...)
			}
			c.syncReplyCount()
		}, nil
	})
}

func (c *Controller) OpenLightbox(url string) {
	if url == "" {
		return
	}
	c.layout.LightboxImage.SetAttr("src", url)
	c.layout.Lightbox.Hidden = false
}

func (c *Controller) CloseLightbox() {
	c.layout.Lightbox.Hidden = true
	c.layout.LightboxImage.SetAttr("src", "")
}

// KeyDown handles page-wide keys. Escape closes the edit dialog first, then
// the lightbox.
func (c *Controller) KeyDown(key string) bool {
	if key != "Escape" {
		return false
	}
	if c.modal.KeyDown(key) {
		return true
	}
	if !c.layout.Lightbox.Hidden {
		c.CloseLightbox()
		return true
	}
	return false
}
