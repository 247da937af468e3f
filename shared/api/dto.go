package api

import (
	"github.com/itchan-dev/discussion/shared/domain"
)

// Request DTOs shared by the client and the fake server

type CreateThreadRequest struct {
	Title    string `json:"title" validate:"required"`
	Body     string `json:"body" validate:"required"`
	Category string `json:"category" validate:"required,category"`
}

type CreateReplyRequest struct {
	Body string `json:"body" validate:"required"`
}

// UpdateThreadRequest is a partial update; nil fields are left untouched.
type UpdateThreadRequest struct {
	Title    *string `json:"title,omitempty" validate:"omitnil,min=1"`
	Body     *string `json:"body,omitempty" validate:"omitnil,min=1"`
	Category *string `json:"category,omitempty" validate:"omitnil,category"`
}

type UpdateReplyRequest struct {
	Body string `json:"body" validate:"required"`
}

// Response DTOs

// ThreadListResponse is the paginated envelope some deployments wrap the list in.
type ThreadListResponse struct {
	Results []domain.Thread `json:"results"`
}

type LikeResponse struct {
	Likes int `json:"likes"`
}

// ErrorResponse is the body the server sends with non-success statuses.
type ErrorResponse struct {
	Detail string `json:"detail"`
}
