// Package page builds the fixed skeleton of the forum page: the three view
// containers, the composer forms and the shared overlays.
package page

import (
	"github.com/itchan-dev/discussion/frontend/internal/dom"
	"github.com/itchan-dev/discussion/shared/domain"
)

const (
	IDViewList      = "view-list"
	IDViewThread    = "view-thread"
	IDViewNew       = "view-new"
	IDThreadList    = "thread-list"
	IDDetailBox     = "thread-detail-box"
	IDReplyList     = "reply-list"
	IDReplyDivider  = "reply-count-divider"
	IDToasts        = "toast-container"
	IDNewTitle      = "new-title"
	IDNewBody       = "new-body"
	IDNewCategory   = "new-category"
	IDReplyBody     = "reply-body"
	IDPublish       = "btn-publish"
	IDPostReply     = "btn-post-reply"
	IDOpenNew       = "btn-open-new"
	IDBack          = "btn-back"
	IDBackNew       = "btn-back-new"
	IDCategories    = "category-controls"
	IDSorts         = "sort-controls"
	IDLightbox      = "lightbox"
	IDLightboxImage = "lightbox-img"
	IDEditModal     = "edit-modal"
	IDThreadUpload  = "thread-upload"
	IDReplyUpload   = "reply-upload"

	LabelPublish   = "Publish Thread"
	LabelPostReply = "Post Reply"
)

// Layout holds direct references to every element the controller touches.
type Layout struct {
	Root *dom.Element

	ViewList   *dom.Element
	ViewThread *dom.Element
	ViewNew    *dom.Element

	ThreadList   *dom.Element
	DetailBox    *dom.Element
	ReplyList    *dom.Element
	ReplyDivider *dom.Element
	Toasts       *dom.Element

	NewTitle    *dom.Element
	NewBody     *dom.Element
	NewCategory *dom.Element
	ReplyBody   *dom.Element
	Publish     *dom.Element
	PostReply   *dom.Element
	OpenNew     *dom.Element
	Back        *dom.Element
	BackNew     *dom.Element

	Categories *dom.Element
	Sorts      *dom.Element

	Lightbox      *dom.Element
	LightboxImage *dom.Element
	EditModal     *dom.Element

	// Upload zones are mounted here by the controller.
	ThreadUploadSlot *dom.Element
	ReplyUploadSlot  *dom.Element
}

func New() *Layout {
	l := &Layout{}

	l.OpenNew = dom.New("button", "btn-primary").WithID(IDOpenNew).WithText("New Thread")
	l.Categories = dom.New("div", "category-controls").WithID(IDCategories)
	for _, c := range append([]domain.Category{domain.CategoryAll}, domain.Categories...) {
		btn := dom.New("button", "cat-btn").WithText(c).SetAttr("data-category", c)
		if c == domain.CategoryAll {
			btn.AddClass("active")
		}
		l.Categories.Append(btn)
	}
	l.Sorts = dom.New("div", "sort-controls").WithID(IDSorts)
	for _, s := range domain.Sorts {
		btn := dom.New("button", "sort-opt").WithText(sortLabel(s)).SetAttr("data-sort", string(s))
		if s == domain.SortRecent {
			btn.AddClass("active")
		}
		l.Sorts.Append(btn)
	}
	l.ThreadList = dom.New("div", "thread-list").WithID(IDThreadList)
	l.ViewList = dom.New("section", "view").WithID(IDViewList).Append(
		dom.New("div", "list-toolbar").Append(l.Categories, l.Sorts, l.OpenNew),
		l.ThreadList,
	)

	l.Back = dom.New("button", "btn-back").WithID(IDBack).WithText("← Back")
	l.DetailBox = dom.New("div", "thread-detail-box").WithID(IDDetailBox)
	l.ReplyDivider = dom.New("div", "reply-count-divider").WithID(IDReplyDivider)
	l.ReplyList = dom.New("div", "reply-list").WithID(IDReplyList)
	l.ReplyBody = dom.New("textarea", "reply-input").WithID(IDReplyBody).SetAttr("placeholder", "Write a reply…")
	l.ReplyUploadSlot = dom.New("div", "upload-slot")
	l.PostReply = dom.New("button", "btn-primary").WithID(IDPostReply).WithText(LabelPostReply)
	l.ViewThread = dom.New("section", "view").WithID(IDViewThread).Append(
		l.Back, l.DetailBox, l.ReplyDivider, l.ReplyList,
		dom.New("div", "reply-form").Append(l.ReplyBody, l.ReplyUploadSlot, l.PostReply),
	)
	l.ViewThread.Hidden = true

	l.BackNew = dom.New("button", "btn-back").WithID(IDBackNew).WithText("← Back")
	l.NewTitle = dom.New("input", "new-input").WithID(IDNewTitle).SetAttr("placeholder", "Title")
	l.NewCategory = dom.New("select", "new-input").WithID(IDNewCategory)
	for _, c := range domain.Categories {
		l.NewCategory.Append(dom.New("option").SetAttr("value", c).WithText(c))
	}
	l.NewCategory.Value = domain.DefaultCategory
	l.NewBody = dom.New("textarea", "new-input").WithID(IDNewBody).SetAttr("placeholder", "What's on your mind?")
	l.ThreadUploadSlot = dom.New("div", "upload-slot")
	l.Publish = dom.New("button", "btn-primary").WithID(IDPublish).WithText(LabelPublish)
	l.ViewNew = dom.New("section", "view").WithID(IDViewNew).Append(
		l.BackNew, l.NewTitle, l.NewCategory, l.NewBody, l.ThreadUploadSlot, l.Publish,
	)
	l.ViewNew.Hidden = true

	l.LightboxImage = dom.New("img").WithID(IDLightboxImage)
	l.Lightbox = dom.New("div", "lightbox").WithID(IDLightbox).Append(l.LightboxImage)
	l.Lightbox.Hidden = true
	l.EditModal = dom.New("div").WithID(IDEditModal)
	l.Toasts = dom.New("div", "toast-container").WithID(IDToasts)

	l.Root = dom.New("main", "forum").Append(
		l.ViewList, l.ViewThread, l.ViewNew, l.Lightbox, l.EditModal, l.Toasts,
	)
	return l
}

func sortLabel(s domain.Sort) string {
	if s == domain.SortPopular {
		return "Popular"
	}
	return "Recent"
}

// View returns the container for v.
func (l *Layout) View(v domain.View) *dom.Element {
	switch v {
	case domain.ViewThread:
		return l.ViewThread
	case domain.ViewNew:
		return l.ViewNew
	default:
		return l.ViewList
	}
}

// Show makes v the only visible view.
func (l *Layout) Show(v domain.View) {
	l.ViewList.Hidden = v != domain.ViewList
	l.ViewThread.Hidden = v != domain.ViewThread
	l.ViewNew.Hidden = v != domain.ViewNew
}

// MarkActive moves the active class to the button in group whose attr equals value.
func MarkActive(group *dom.Element, attr, value string) {
	for _, btn := range group.Children() {
		if btn.Attr(attr) == value {
			btn.AddClass("active")
		} else {
			btn.RemoveClass("active")
		}
	}
}
