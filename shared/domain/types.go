package domain

type (
	ThreadId = int64
	ReplyId  = int64

	ThreadTitle = string
	Username    = string
)

// Kind distinguishes the two likeable and editable resources.
type Kind string

const (
	KindThread Kind = "thread"
	KindReply  Kind = "reply"
)

// View is the tag of the single visible page section.
type View string

const (
	ViewList   View = "list"
	ViewThread View = "thread"
	ViewNew    View = "new"
)

type Category = string

// CategoryAll disables the category filter when listing threads.
const CategoryAll Category = "All"

// Categories is the fixed category set accepted by the server, in display order.
var Categories = []Category{"Science", "Maths", "English", "GK & IQ", "General"}

const DefaultCategory Category = "General"

func IsCategory(c string) bool {
	for _, known := range Categories {
		if known == c {
			return true
		}
	}
	return false
}

type Sort string

const (
	SortRecent  Sort = "recent"
	SortPopular Sort = "popular"
)

var Sorts = []Sort{SortRecent, SortPopular}

func ParseSort(s string) (Sort, bool) {
	for _, known := range Sorts {
		if string(known) == s {
			return known, true
		}
	}
	return SortRecent, false
}
