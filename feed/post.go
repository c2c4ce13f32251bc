package feed

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxDescriptionLen bounds the post text, in runes.
const MaxDescriptionLen = 1000

// Post is one feed item as the client knows it. The ID is assigned by the
// server at creation and immutable afterwards; provisional local entries
// carry a negative ID until the create is confirmed.
type Post struct {
	ID             int64
	AuthorID       string
	AuthorName     string
	AuthorAvatar   string
	Description    string
	ImageRef       string
	CreatedAt      time.Time
	LikesCount     int
	DislikesCount  int
	ViewerReaction Reaction
}

// Provisional reports whether the post is a local placeholder awaiting a
// server-assigned ID.
func (p Post) Provisional() bool {
	return p.ID < 0
}

// WithReaction returns a copy of the post with the viewer reaction and both
// counters updated per the toggle table. The receiver is never mutated.
func (p Post) WithReaction(action Action) Post {
	next, likeDelta, dislikeDelta := Toggle(p.ViewerReaction, action)
	p.ViewerReaction = next
	p.LikesCount = clampCount(p.LikesCount + likeDelta)
	p.DislikesCount = clampCount(p.DislikesCount + dislikeDelta)
	return p
}

func clampCount(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

// Draft is the input to a create operation. The form layer validates it
// before it reaches the store; the store re-checks as a precondition.
type Draft struct {
	Description string
	Image       *StagedImage
}

func (d Draft) Validate() error {
	text := strings.TrimSpace(d.Description)
	if text == "" {
		return fmt.Errorf("empty description: %w", ErrInvalidInput)
	}
	if utf8.RuneCountInString(text) > MaxDescriptionLen {
		return fmt.Errorf("description longer than %d characters: %w", MaxDescriptionLen, ErrInvalidInput)
	}
	return nil
}
