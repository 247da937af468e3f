package domain

import (
	"fmt"
	"time"
)

// for debug
func (t *Thread) String() string {
	return fmt.Sprintf("[id:%d, title:%s, category:%s, author:%s, likes:%d, replies:%d, created:%s]",
		t.Id, t.Title, t.Category, t.Author, t.Likes, t.ReplyCount, t.CreatedAt.Format(time.StampMilli))
}

func (r *Reply) String() string {
	return fmt.Sprintf("[id:%d, thread:%d, author:%s, likes:%d, created:%s]",
		r.Id, r.ThreadId, r.Author, r.Likes, r.CreatedAt.Format(time.StampMilli))
}

// ReplyCountLabel formats the divider text shown above the reply list.
func ReplyCountLabel(n int) string {
	if n == 1 {
		return "1 reply"
	}
	return fmt.Sprintf("%d replies", n)
}
