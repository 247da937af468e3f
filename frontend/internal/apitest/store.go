package apitest

import (
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/itchan-dev/discussion/shared/domain"
	internal_errors "github.com/itchan-dev/discussion/shared/errors"
)

var (
	errNotFound  = &internal_errors.ErrorWithStatusCode{Message: "Not found.", StatusCode: http.StatusNotFound}
	errForbidden = &internal_errors.ErrorWithStatusCode{Message: "You do not have permission to perform this action.", StatusCode: http.StatusForbidden}
)

// Media is an uploaded image kept in memory.
type Media struct {
	MimeType string
	Data     []byte
}

// Store is the in-memory forum state behind the fake server.
type Store struct {
	mu      sync.Mutex
	now     func() time.Time
	nextID  int64
	threads map[domain.ThreadId]*domain.Thread
	replies map[domain.ReplyId]*domain.Reply
	media   map[string]Media
}

func NewStore(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		now:     now,
		threads: make(map[domain.ThreadId]*domain.Thread),
		replies: make(map[domain.ReplyId]*domain.Reply),
		media:   make(map[string]Media),
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// AddThread stores a thread authored by author and returns a copy of it.
func (s *Store) AddThread(author domain.Username, title, body string, category domain.Category, imageURL *string) domain.Thread {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &domain.Thread{
		Id:        s.id(),
		Title:     title,
		Body:      body,
		Category:  category,
		Author:    author,
		ImageURL:  imageURL,
		CreatedAt: s.now().UTC(),
	}
	s.threads[t.Id] = t
	return *t
}

func (s *Store) AddReply(threadID domain.ThreadId, author domain.Username, body string, imageURL *string) (domain.Reply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	thread, ok := s.threads[threadID]
	if !ok {
		return domain.Reply{}, &internal_errors.ErrorWithStatusCode{Message: "Thread not found.", StatusCode: http.StatusNotFound}
	}
	r := &domain.Reply{
		Id:        s.id(),
		ThreadId:  threadID,
		Body:      body,
		Author:    author,
		ImageURL:  imageURL,
		CreatedAt: s.now().UTC(),
	}
	s.replies[r.Id] = r
	thread.ReplyCount++
	return *r, nil
}

func (s *Store) Thread(id domain.ThreadId) (domain.Thread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.threads[id]
	if !ok {
		return domain.Thread{}, errNotFound
	}
	return *t, nil
}

func (s *Store) Reply(id domain.ReplyId) (domain.Reply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.replies[id]
	if !ok {
		return domain.Reply{}, errNotFound
	}
	return *r, nil
}

// Threads lists threads newest first, or by likes for SortPopular.
// CategoryAll and the empty category match everything.
func (s *Store) Threads(category domain.Category, order domain.Sort) []domain.Thread {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]domain.Thread, 0, len(s.threads))
	for _, t := range s.threads {
		if category != "" && category != domain.CategoryAll && t.Category != category {
			continue
		}
		result = append(result, *t)
	}
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if order == domain.SortPopular && a.Likes != b.Likes {
			return a.Likes > b.Likes
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.Id > b.Id
	})
	return result
}

// Replies returns the thread's replies in ascending creation order.
func (s *Store) Replies(threadID domain.ThreadId) ([]domain.Reply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.threads[threadID]; !ok {
		return nil, errNotFound
	}
	result := make([]domain.Reply, 0)
	for _, r := range s.replies {
		if r.ThreadId == threadID {
			result = append(result, *r)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].Id < result[j].Id
	})
	return result, nil
}

// ThreadPatch carries the optional fields of a thread update.
type ThreadPatch struct {
	Title    *string
	Body     *string
	Category *string
}

func (s *Store) UpdateThread(viewer domain.Viewer, id domain.ThreadId, patch ThreadPatch) (domain.Thread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.threads[id]
	if !ok {
		return domain.Thread{}, errNotFound
	}
	if !viewer.CanModify(t.Author) {
		return domain.Thread{}, errForbidden
	}
	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.Body != nil {
		t.Body = *patch.Body
	}
	if patch.Category != nil {
		t.Category = *patch.Category
	}
	return *t, nil
}

func (s *Store) UpdateReply(viewer domain.Viewer, id domain.ReplyId, body string) (domain.Reply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.replies[id]
	if !ok {
		return domain.Reply{}, errNotFound
	}
	if !viewer.CanModify(r.Author) {
		return domain.Reply{}, errForbidden
	}
	r.Body = body
	return *r, nil
}

// DeleteThread removes the thread together with its replies.
func (s *Store) DeleteThread(viewer domain.Viewer, id domain.ThreadId) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.threads[id]
	if !ok {
		return errNotFound
	}
	if !viewer.CanModify(t.Author) {
		return errForbidden
	}
	for replyID, r := range s.replies {
		if r.ThreadId == id {
			delete(s.replies, replyID)
		}
	}
	delete(s.threads, id)
	return nil
}

func (s *Store) DeleteReply(viewer domain.Viewer, id domain.ReplyId) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.replies[id]
	if !ok {
		return errNotFound
	}
	if !viewer.CanModify(r.Author) {
		return errForbidden
	}
	delete(s.replies, id)
	if t, ok := s.threads[r.ThreadId]; ok && t.ReplyCount > 0 {
		t.ReplyCount--
	}
	return nil
}

// LikeThread increments the counter. Every call counts: the server does not
// remember who liked what.
func (s *Store) LikeThread(id domain.ThreadId) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.threads[id]
	if !ok {
		return 0, errNotFound
	}
	t.Likes++
	return t.Likes, nil
}

func (s *Store) LikeReply(id domain.ReplyId) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.replies[id]
	if !ok {
		return 0, errNotFound
	}
	r.Likes++
	return r.Likes, nil
}

func (s *Store) PutMedia(name string, m Media) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.media[name] = m
}

func (s *Store) Media(name string) (Media, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.media[name]
	return m, ok
}
