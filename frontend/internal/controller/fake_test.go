package controller

import (
	"context"
	"sync"

	"github.com/itchan-dev/discussion/shared/api"
	"github.com/itchan-dev/discussion/shared/domain"
	internal_errors "github.com/itchan-dev/discussion/shared/errors"
)

var errNotFound = &internal_errors.RequestError{Method: "GET", StatusCode: 404, Detail: "Not found."}

// fakeAPI answers from canned data; a nil hook falls back to the data.
// Hooks run off the loop and may block to hold a response back.
type fakeAPI struct {
	mu      sync.Mutex
	threads []domain.Thread
	replies map[domain.ThreadId][]domain.Reply
	calls   map[string]int

	listThreads  func(ctx context.Context) ([]domain.Thread, error)
	getThread    func(ctx context.Context, id domain.ThreadId) (domain.Thread, error)
	getReplies   func(ctx context.Context, id domain.ThreadId) ([]domain.Reply, error)
	createReply  func(ctx context.Context, threadID domain.ThreadId, data api.CreateReplyRequest) (domain.Reply, error)
	deleteThread func(ctx context.Context, id domain.ThreadId) error
	deleteReply  func(ctx context.Context, id domain.ReplyId) error
	likeThread   func(ctx context.Context, id domain.ThreadId) (int, error)
}

func newFakeAPI(threads ...domain.Thread) *fakeAPI {
	return &fakeAPI{threads: threads, replies: map[domain.ThreadId][]domain.Reply{}, calls: map[string]int{}}
}

func (f *fakeAPI) count(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
}

func (f *fakeAPI) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeAPI) thread(id domain.ThreadId) (domain.Thread, error) {
	for _, t := range f.threads {
		if t.Id == id {
			return t, nil
		}
	}
	return domain.Thread{}, errNotFound
}

func (f *fakeAPI) ListThreads(ctx context.Context, _ domain.Category, _ domain.Sort) ([]domain.Thread, error) {
	f.count("list")
	if f.listThreads != nil {
		return f.listThreads(ctx)
	}
	return append([]domain.Thread(nil), f.threads...), nil
}

func (f *fakeAPI) GetThread(ctx context.Context, id domain.ThreadId) (domain.Thread, error) {
	f.count("thread")
	if f.getThread != nil {
		return f.getThread(ctx, id)
	}
	return f.thread(id)
}

func (f *fakeAPI) GetReplies(ctx context.Context, id domain.ThreadId) ([]domain.Reply, error) {
	f.count("replies")
	if f.getReplies != nil {
		return f.getReplies(ctx, id)
	}
	return append([]domain.Reply(nil), f.replies[id]...), nil
}

func (f *fakeAPI) CreateThread(_ context.Context, data api.CreateThreadRequest, _ *domain.PendingFile) (domain.Thread, error) {
	f.count("create-thread")
	return domain.Thread{Id: 1000, Title: data.Title, Body: data.Body, Category: data.Category}, nil
}

func (f *fakeAPI) CreateReply(ctx context.Context, threadID domain.ThreadId, data api.CreateReplyRequest, _ *domain.PendingFile) (domain.Reply, error) {
	f.count("create-reply")
	if f.createReply != nil {
		return f.createReply(ctx, threadID, data)
	}
	return domain.Reply{Id: 2000, ThreadId: threadID, Body: data.Body, Author: "alice"}, nil
}

func (f *fakeAPI) UpdateThread(_ context.Context, id domain.ThreadId, data api.UpdateThreadRequest) (domain.Thread, error) {
	f.count("update-thread")
	t, err := f.thread(id)
	if err != nil {
		return t, err
	}
	if data.Title != nil {
		t.Title = *data.Title
	}
	if data.Body != nil {
		t.Body = *data.Body
	}
	if data.Category != nil {
		t.Category = *data.Category
	}
	return t, nil
}

func (f *fakeAPI) UpdateReply(_ context.Context, id domain.ReplyId, data api.UpdateReplyRequest) (domain.Reply, error) {
	f.count("update-reply")
	return domain.Reply{Id: id, Body: data.Body}, nil
}

func (f *fakeAPI) DeleteThread(ctx context.Context, id domain.ThreadId) error {
	f.count("delete-thread")
	if f.deleteThread != nil {
		return f.deleteThread(ctx, id)
	}
	return nil
}

func (f *fakeAPI) DeleteReply(ctx context.Context, id domain.ReplyId) error {
	f.count("delete-reply")
	if f.deleteReply != nil {
		return f.deleteReply(ctx, id)
	}
	return nil
}

func (f *fakeAPI) LikeThread(ctx context.Context, id domain.ThreadId) (int, error) {
	f.count("like-thread")
	if f.likeThread != nil {
		return f.likeThread(ctx, id)
	}
	t, err := f.thread(id)
	return t.Likes + 1, err
}

func (f *fakeAPI) LikeReply(_ context.Context, _ domain.ReplyId) (int, error) {
	f.count("like-reply")
	return 1, nil
}
