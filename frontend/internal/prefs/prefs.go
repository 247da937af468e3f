// Package prefs remembers which threads and replies this client has liked.
package prefs

import (
	"encoding/json"
	"sort"

	"github.com/itchan-dev/discussion/shared/domain"
	internal_errors "github.com/itchan-dev/discussion/shared/errors"
	"github.com/itchan-dev/discussion/shared/logger"
)

const (
	KeyLikedThreads = "likedThreads"
	KeyLikedReplies = "likedReplies"
)

// Backend is a string key/value store that outlives the process.
type Backend interface {
	// Get reports ok=false for a key that was never written.
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
}

// Store holds the liked sets. Membership only ever grows.
type Store struct {
	backend Backend
	sets    map[domain.Kind]map[int64]struct{}
}

// Load reads both sets from backend. It never fails: a missing, unreadable
// or malformed value starts out empty.
func Load(backend Backend) *Store {
	s := &Store{
		backend: backend,
		sets: map[domain.Kind]map[int64]struct{}{
			domain.KindThread: {},
			domain.KindReply:  {},
		},
	}
	for kind, set := range s.sets {
		for _, id := range s.read(keyFor(kind)) {
			set[id] = struct{}{}
		}
	}
	return s
}

func keyFor(kind domain.Kind) string {
	if kind == domain.KindReply {
		return KeyLikedReplies
	}
	return KeyLikedThreads
}

func (s *Store) read(key string) []int64 {
	raw, ok, err := s.backend.Get(key)
	if err != nil {
		logger.Log.Warn("cannot read liked set, starting empty", "key", key, "error", err)
		return nil
	}
	if !ok || raw == "" {
		return nil
	}
	var ids []int64
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		logger.Log.Warn("malformed liked set, starting empty", "key", key, "error", err)
		return nil
	}
	return ids
}

func (s *Store) HasLiked(kind domain.Kind, id int64) bool {
	_, ok := s.sets[kind][id]
	return ok
}

// MarkLiked adds id to the set and persists the whole set. A persistence
// failure is logged and otherwise ignored; the like is then forgotten on reload.
func (s *Store) MarkLiked(kind domain.Kind, id int64) {
	set, ok := s.sets[kind]
	if !ok {
		return
	}
	set[id] = struct{}{}
	if err := s.persist(kind); err != nil {
		logger.Log.Warn("liked set not persisted", "error", err)
	}
}

// Liked returns the set's members in ascending order.
func (s *Store) Liked(kind domain.Kind) []int64 {
	ids := make([]int64, 0, len(s.sets[kind]))
	for id := range s.sets[kind] {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (s *Store) persist(kind domain.Kind) error {
	key := keyFor(kind)
	data, err := json.Marshal(s.Liked(kind))
	if err != nil {
		return &internal_errors.StorageError{Key: key, Err: err}
	}
	if err := s.backend.Set(key, string(data)); err != nil {
		return &internal_errors.StorageError{Key: key, Err: err}
	}
	return nil
}
