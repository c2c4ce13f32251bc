package feed

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"
)

// Viewer identifies the signed-in user on whose behalf the store operates.
// Name and Avatar are the denormalized snapshot stamped on provisional
// posts until the server-confirmed entry replaces them.
type Viewer struct {
	ID     string
	Name   string
	Avatar string
}

type opKind string

const opReact opKind = "react"

type pendingKey struct {
	postID int64
	kind   opKind
}

// Store owns the authoritative client-side post collection and orchestrates
// optimistic mutations against the gateway: apply locally, await the remote
// call, then reconcile with the response or roll back on failure.
//
// The collection is mutated only in the discrete steps before and after the
// awaited call; operations on different posts may be in flight at the same
// time, while a duplicate reaction on one post is suppressed via a pending
// marker rather than queued.
type Store struct {
	gateway Gateway
	viewer  Viewer

	mu            sync.Mutex
	posts         *Collection[int64, Post]
	pending       map[pendingKey]struct{}
	provisionalID int64
}

func NewStore(gateway Gateway, viewer Viewer) *Store {
	return &Store{
		gateway: gateway,
		viewer:  viewer,
		posts:   NewCollection[int64, Post](newestFirst),
		pending: make(map[pendingKey]struct{}),
	}
}

func newestFirst(a, b Post) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

// All returns a snapshot of every known post, newest first.
func (s *Store) All() []Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.posts.Values()
}

// Mine returns the snapshot of All filtered down to the viewer's own posts.
func (s *Store) Mine() []Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	viewerID := s.viewer.ID
	return s.posts.Filter(func(p Post) bool { return p.AuthorID == viewerID })
}

// LoadAll replaces the whole collection with the gateway's current feed.
// On failure the prior collection is retained unchanged.
func (s *Store) LoadAll(ctx context.Context) error {
	fetched, err := s.gateway.FetchAll(ctx)
	if err != nil {
		return fmt.Errorf("fetch posts: %w: %w", ErrFetch, err)
	}

	replaced := NewCollection[int64, Post](newestFirst)
	for _, p := range fetched {
		if err := replaced.Add(p.ID, p); err != nil {
			return fmt.Errorf("post id %d appears twice in fetched feed: %w", p.ID, ErrFetch)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts = replaced
	s.checkInvariants()
	return nil
}

// Create validates the draft, inserts a provisional entry so the UI shows
// the post immediately, and swaps it for the server-confirmed post once the
// gateway answers. On failure the provisional entry is removed again.
func (s *Store) Create(ctx context.Context, draft Draft) (Post, error) {
	if err := draft.Validate(); err != nil {
		return Post{}, err
	}

	s.mu.Lock()
	s.provisionalID--
	provisional := Post{
		ID:           s.provisionalID,
		AuthorID:     s.viewer.ID,
		AuthorName:   s.viewer.Name,
		AuthorAvatar: s.viewer.Avatar,
		Description:  strings.TrimSpace(draft.Description),
		CreatedAt:    time.Now().UTC(),
	}
	if draft.Image != nil {
		provisional.ImageRef = draft.Image.PreviewDataURL()
	}
	if err := s.posts.Add(provisional.ID, provisional); err != nil {
		s.mu.Unlock()
		return Post{}, fmt.Errorf("provisional id collision: %w", err)
	}
	s.checkInvariants()
	s.mu.Unlock()

	confirmed, err := s.gateway.Create(ctx, draft)

	s.mu.Lock()
	if err != nil {
		s.posts.Del(provisional.ID)
		s.checkInvariants()
		s.mu.Unlock()
		return Post{}, fmt.Errorf("create post: %w: %w", ErrCreate, err)
	}
	_, stillProvisional := s.posts.Del(provisional.ID)
	if stillProvisional {
		s.posts.Put(confirmed.ID, confirmed)
	}
	s.checkInvariants()
	s.mu.Unlock()

	if !stillProvisional {
		// The user deleted the provisional entry while the create was in
		// flight. The collection stays as they left it; converge the server
		// with a best-effort remote delete.
		_ = s.gateway.Delete(ctx, confirmed.ID)
	}
	return confirmed, nil
}

// Delete removes the post immediately and reinserts it, fields intact, if
// the remote delete fails. Unknown ids are a no-op success, as is a remote
// not-found answer. Provisional entries are removed purely locally since
// the server never learned about them.
func (s *Store) Delete(ctx context.Context, postID int64) error {
	s.mu.Lock()
	removed, ok := s.posts.Del(postID)
	s.checkInvariants()
	s.mu.Unlock()
	if !ok || removed.Provisional() {
		return nil
	}

	err := s.gateway.Delete(ctx, postID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		s.mu.Lock()
		s.posts.Put(postID, removed)
		s.checkInvariants()
		s.mu.Unlock()
		return fmt.Errorf("delete post %d: %w: %w", postID, ErrDelete, err)
	}
	return nil
}

// React applies the toggle optimistically and confirms it with the gateway.
// The local viewer state stays authoritative on success, but the server's
// aggregate counts win when they disagree: it is the system of record for
// counters across all viewers. On failure the pre-operation post is
// restored. A second reaction on the same post while one is in flight is
// rejected, not queued.
func (s *Store) React(ctx context.Context, postID int64, action Action) (Post, error) {
	key := pendingKey{postID: postID, kind: opReact}

	s.mu.Lock()
	prev, ok := s.posts.At(postID)
	if !ok {
		s.mu.Unlock()
		return Post{}, fmt.Errorf("react on post %d: %w", postID, ErrNotFound)
	}
	if _, inFlight := s.pending[key]; inFlight {
		s.mu.Unlock()
		return Post{}, fmt.Errorf("react on post %d: %w", postID, ErrOperationInProgress)
	}
	next := prev.WithReaction(action)
	if next == prev {
		// Same-state repeat: nothing changes, nothing to send.
		s.mu.Unlock()
		return next, nil
	}
	s.pending[key] = struct{}{}
	s.posts.Put(postID, next)
	s.checkInvariants()
	s.mu.Unlock()

	counts, err := s.gateway.React(ctx, postID, action)

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, key)
	if err != nil {
		if _, still := s.posts.At(postID); still {
			s.posts.Put(postID, prev)
		}
		s.checkInvariants()
		return Post{}, fmt.Errorf("react on post %d: %w: %w", postID, ErrReaction, err)
	}
	current, still := s.posts.At(postID)
	if !still {
		// Deleted while the reaction was in flight.
		return next, nil
	}
	if counts.Likes != current.LikesCount || counts.Dislikes != current.DislikesCount {
		current.LikesCount = clampCount(counts.Likes)
		current.DislikesCount = clampCount(counts.Dislikes)
		s.posts.Put(postID, current)
	}
	s.checkInvariants()
	return current, nil
}

// checkInvariants re-verifies the structural invariants of the collection.
// A violation is a programming error, fatal to the operation. Callers hold
// the mutex.
func (s *Store) checkInvariants() {
	for _, p := range s.posts.Values() {
		if p.LikesCount < 0 || p.DislikesCount < 0 {
			log.Panicf("feed: post %d has negative counters (likes=%d, dislikes=%d)",
				p.ID, p.LikesCount, p.DislikesCount)
		}
		if p.ViewerReaction < ReactionNone || p.ViewerReaction > ReactionDisliked {
			log.Panicf("feed: post %d has invalid reaction state %d", p.ID, p.ViewerReaction)
		}
	}
}
