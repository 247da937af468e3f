package render

import (
	"strconv"

	"github.com/itchan-dev/discussion/frontend/internal/dom"
	"github.com/itchan-dev/discussion/shared/domain"
)

// SetLikes shows the server's count on a like button and marks it liked.
// Once liked through this client the button stays disabled.
func SetLikes(button *dom.Element, likes int) {
	if count := button.Query("like-count"); count != nil {
		count.Text = strconv.Itoa(likes)
	}
	button.AddClass("liked")
	button.Disabled = true
}

// LikeCount reads the count a like button currently shows.
func LikeCount(button *dom.Element) int {
	count := button.Query("like-count")
	if count == nil {
		return 0
	}
	n, _ := strconv.Atoi(count.Text)
	return n
}

// PatchThread updates the text of a rendered thread card or detail in place.
func (r *Renderer) PatchThread(root *dom.Element, t domain.Thread) {
	if el := root.Query("thread-title"); el != nil {
		el.Text = t.Title
	}
	if el := root.Query("thread-cat"); el != nil {
		el.Text = t.Category
	}
	if el := root.Query("thread-snippet"); el != nil {
		el.Text = r.text.Snippet(t.Body, snippetLength)
	}
	if el := root.Query("thread-body"); el != nil {
		el.HTML = r.text.Render(t.Body)
	}
}

// PatchReply updates a rendered reply body in place.
func (r *Renderer) PatchReply(root *dom.Element, reply domain.Reply) {
	if el := root.Query("reply-body"); el != nil {
		el.HTML = r.text.Render(reply.Body)
	}
}
