package postfeed

import (
	"context"
	"math/rand"
	"time"
)

// Author is the denormalized author snapshot stamped on each post at
// creation time.
type Author struct {
	ID     string `bson:"author_id"`
	Name   string `bson:"author_name"`
	Avatar string `bson:"author_avatar,omitempty"`
}

// PostRecord is one stored post together with its reaction membership sets.
// Aggregate counts derive from the set sizes, so a user can never be counted
// twice for the same polarity.
type PostRecord struct {
	PostID     int64     `bson:"post_id"`
	Author     Author    `bson:",inline"`
	Text       string    `bson:"text"`
	ImageRef   string    `bson:"image_ref,omitempty"`
	CreatedAt  time.Time `bson:"created_at"`
	LikedBy    []string  `bson:"liked_by"`
	DislikedBy []string  `bson:"disliked_by"`
}

func (r PostRecord) LikesCount() int    { return len(r.LikedBy) }
func (r PostRecord) DislikesCount() int { return len(r.DislikedBy) }

func (r PostRecord) LikedByUser(userID string) bool    { return containsUser(r.LikedBy, userID) }
func (r PostRecord) DislikedByUser(userID string) bool { return containsUser(r.DislikedBy, userID) }

func containsUser(users []string, userID string) bool {
	for _, u := range users {
		if u == userID {
			return true
		}
	}
	return false
}

// ReactionKind selects which membership set a reaction operation targets.
type ReactionKind string

const (
	KindLike    ReactionKind = "like"
	KindDislike ReactionKind = "dislike"
)

// Manager is the storage behind the feed service. Setting a reaction of one
// kind removes the user from the opposite set in the same operation.
type Manager interface {
	AddPost(ctx context.Context, author Author, text string, imageRef string) (PostRecord, error)
	ListPosts(ctx context.Context) ([]PostRecord, error)
	DeletePost(ctx context.Context, postID int64) error
	SetReaction(ctx context.Context, postID int64, userID string, kind ReactionKind) (PostRecord, error)
	ClearReaction(ctx context.Context, postID int64, userID string, kind ReactionKind) (PostRecord, error)
	IsReady(ctx context.Context) bool
}

// NewPostID builds a server-assigned post id: creation time in the high
// bits keeps ids roughly time-ordered, a random low part avoids collisions
// within the same millisecond. Always positive; negative ids are reserved
// for client-side provisional entries.
func NewPostID(now time.Time) int64 {
	return now.UnixMilli()<<20 | rand.Int63n(1<<20)
}
