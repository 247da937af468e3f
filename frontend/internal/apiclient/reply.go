package apiclient

import (
	"context"
	"net/http"
	"strconv"

	"github.com/itchan-dev/discussion/shared/api"
	"github.com/itchan-dev/discussion/shared/domain"
)

func (c *APIClient) replyURL(id domain.ReplyId, suffix string) string {
	return c.RepliesURL + strconv.FormatInt(id, 10) + "/" + suffix
}

// GetReplies returns the thread's replies in ascending creation order.
func (c *APIClient) GetReplies(ctx context.Context, threadID domain.ThreadId) ([]domain.Reply, error) {
	var replies []domain.Reply
	r := request{op: "list_replies", method: http.MethodGet, url: c.threadURL(threadID, "replies/")}
	if err := c.call(ctx, r, &replies); err != nil {
		return nil, err
	}
	if replies == nil {
		replies = []domain.Reply{}
	}
	return replies, nil
}

func (c *APIClient) CreateReply(ctx context.Context, threadID domain.ThreadId, data api.CreateReplyRequest, image *domain.PendingFile) (domain.Reply, error) {
	var reply domain.Reply
	if err := validatePayload(&data); err != nil {
		return reply, err
	}

	r, err := c.createRequest("create_reply", c.threadURL(threadID, "replies/"), data, map[string]string{
		"body": data.Body,
	}, image)
	if err != nil {
		return reply, err
	}
	if err := c.call(ctx, r, &reply); err != nil {
		return reply, err
	}
	if reply.ThreadId == 0 {
		reply.ThreadId = threadID
	}
	return reply, nil
}

func (c *APIClient) UpdateReply(ctx context.Context, id domain.ReplyId, data api.UpdateReplyRequest) (domain.Reply, error) {
	var reply domain.Reply
	if err := validatePayload(&data); err != nil {
		return reply, err
	}
	r, err := jsonRequest("update_reply", http.MethodPatch, c.replyURL(id, ""), data)
	if err != nil {
		return reply, err
	}
	if err := c.call(ctx, r, &reply); err != nil {
		return reply, err
	}
	return reply, nil
}

func (c *APIClient) DeleteReply(ctx context.Context, id domain.ReplyId) error {
	return c.call(ctx, request{op: "delete_reply", method: http.MethodDelete, url: c.replyURL(id, "")}, nil)
}

func (c *APIClient) LikeReply(ctx context.Context, id domain.ReplyId) (int, error) {
	var resp api.LikeResponse
	r := request{op: "like_reply", method: http.MethodPost, url: c.replyURL(id, "like/")}
	if err := c.call(ctx, r, &resp); err != nil {
		return 0, err
	}
	return resp.Likes, nil
}
