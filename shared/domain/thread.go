package domain

import (
	"time"
)

type Thread struct {
	Id         ThreadId    `json:"id"`
	Title      ThreadTitle `json:"title"`
	Body       string      `json:"body"`
	Category   Category    `json:"category"`
	Author     Username    `json:"author_username"`
	Likes      int         `json:"likes"`
	ReplyCount int         `json:"reply_count"`
	ImageURL   *string     `json:"image_url"`
	CreatedAt  time.Time   `json:"created_at"`
}

type Reply struct {
	Id        ReplyId   `json:"id"`
	ThreadId  ThreadId  `json:"thread_id,omitempty"`
	Body      string    `json:"body"`
	Author    Username  `json:"author_username"`
	Likes     int       `json:"likes"`
	ImageURL  *string   `json:"image_url"`
	CreatedAt time.Time `json:"created_at"`
}

func (t *Thread) HasImage() bool {
	return t.ImageURL != nil && *t.ImageURL != ""
}

func (r *Reply) HasImage() bool {
	return r.ImageURL != nil && *r.ImageURL != ""
}
