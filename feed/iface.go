package feed

import "context"

// ReactionCounts are the server's aggregate counters for one post, across
// all viewers.
type ReactionCounts struct {
	Likes    int
	Dislikes int
}

// Gateway is the remote post API the store synchronizes against. The auth
// collaborator attaches credentials; implementations are expected to impose
// their own request timeout so a stalled call resolves into a failure the
// store can roll back.
type Gateway interface {
	FetchAll(ctx context.Context) ([]Post, error)
	Create(ctx context.Context, draft Draft) (Post, error)
	Delete(ctx context.Context, postID int64) error
	React(ctx context.Context, postID int64, action Action) (ReactionCounts, error)
}
