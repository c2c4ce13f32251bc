package inmemoryimpl

import (
	"context"
	"sort"
	"sync"
	"time"

	"social-feed/postfeed"
)

type InMemoryManager struct {
	mu    sync.RWMutex
	posts map[int64]postfeed.PostRecord
}

func NewInMemoryManager() *InMemoryManager {
	return &InMemoryManager{
		posts: make(map[int64]postfeed.PostRecord),
	}
}

func (m *InMemoryManager) AddPost(_ context.Context, author postfeed.Author, text string, imageRef string) (postfeed.PostRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	record := postfeed.PostRecord{
		PostID:    postfeed.NewPostID(now),
		Author:    author,
		Text:      text,
		ImageRef:  imageRef,
		CreatedAt: now,
	}
	for {
		if _, taken := m.posts[record.PostID]; !taken {
			break
		}
		record.PostID = postfeed.NewPostID(now)
	}
	m.posts[record.PostID] = record
	return record, nil
}

func (m *InMemoryManager) ListPosts(_ context.Context) ([]postfeed.PostRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]postfeed.PostRecord, 0, len(m.posts))
	for _, record := range m.posts {
		result = append(result, record)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].PostID > result[j].PostID
	})
	return result, nil
}

func (m *InMemoryManager) DeletePost(_ context.Context, postID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.posts[postID]; !ok {
		return postfeed.ErrNotFound
	}
	delete(m.posts, postID)
	return nil
}

func (m *InMemoryManager) SetReaction(_ context.Context, postID int64, userID string, kind postfeed.ReactionKind) (postfeed.PostRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.posts[postID]
	if !ok {
		return postfeed.PostRecord{}, postfeed.ErrNotFound
	}
	// Both sets change under the same lock so no reader ever observes a
	// user in both.
	if kind == postfeed.KindLike {
		record.LikedBy = addUser(record.LikedBy, userID)
		record.DislikedBy = removeUser(record.DislikedBy, userID)
	} else {
		record.DislikedBy = addUser(record.DislikedBy, userID)
		record.LikedBy = removeUser(record.LikedBy, userID)
	}
	m.posts[postID] = record
	return record, nil
}

func (m *InMemoryManager) ClearReaction(_ context.Context, postID int64, userID string, kind postfeed.ReactionKind) (postfeed.PostRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.posts[postID]
	if !ok {
		return postfeed.PostRecord{}, postfeed.ErrNotFound
	}
	if kind == postfeed.KindLike {
		record.LikedBy = removeUser(record.LikedBy, userID)
	} else {
		record.DislikedBy = removeUser(record.DislikedBy, userID)
	}
	m.posts[postID] = record
	return record, nil
}

func (m *InMemoryManager) IsReady(_ context.Context) bool {
	return true
}

func addUser(users []string, userID string) []string {
	for _, u := range users {
		if u == userID {
			return users
		}
	}
	return append(append([]string(nil), users...), userID)
}

func removeUser(users []string, userID string) []string {
	result := users[:0:0]
	for _, u := range users {
		if u != userID {
			result = append(result, u)
		}
	}
	return result
}
