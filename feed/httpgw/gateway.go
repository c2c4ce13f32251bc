package httpgw

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"social-feed/feed"
)

const defaultTimeout = 10 * time.Second

// Gateway implements feed.Gateway over the feed service REST API. Every
// request runs under a timeout so a stalled call resolves into a failure
// the store rolls back instead of leaving a post pending forever.
type Gateway struct {
	baseURL   string
	viewer    feed.Viewer
	client    *http.Client
	timeout   time.Duration
	authorize func(*http.Request)
}

type Option func(*Gateway)

// WithHTTPClient swaps the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(g *Gateway) { g.client = c }
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(g *Gateway) { g.timeout = d }
}

// WithAuthorize registers the auth collaborator's hook that attaches
// credentials to each outgoing request.
func WithAuthorize(fn func(*http.Request)) Option {
	return func(g *Gateway) { g.authorize = fn }
}

func NewGateway(baseURL string, viewer feed.Viewer, opts ...Option) *Gateway {
	g := &Gateway{
		baseURL: baseURL,
		viewer:  viewer,
		client:  http.DefaultClient,
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type postPayload struct {
	ID                int64     `json:"id"`
	AuthorID          string    `json:"authorId"`
	AuthorName        string    `json:"authorName"`
	AuthorAvatar      string    `json:"authorAvatar,omitempty"`
	Description       string    `json:"description"`
	ImageRef          string    `json:"imageRef,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
	LikesCount        int       `json:"likesCount"`
	DislikesCount     int       `json:"dislikesCount"`
	ViewerHasLiked    bool      `json:"viewerHasLiked"`
	ViewerHasDisliked bool      `json:"viewerHasDisliked"`
}

type createPayload struct {
	Description string `json:"description"`
	Image       string `json:"image,omitempty"`
}

type countsPayload struct {
	LikesCount    int `json:"likesCount"`
	DislikesCount int `json:"dislikesCount"`
}

func (p postPayload) toPost() (feed.Post, error) {
	if p.ViewerHasLiked && p.ViewerHasDisliked {
		return feed.Post{}, fmt.Errorf("post %d is both liked and disliked by the viewer", p.ID)
	}
	reaction := feed.ReactionNone
	if p.ViewerHasLiked {
		reaction = feed.ReactionLiked
	} else if p.ViewerHasDisliked {
		reaction = feed.ReactionDisliked
	}
	return feed.Post{
		ID:             p.ID,
		AuthorID:       p.AuthorID,
		AuthorName:     p.AuthorName,
		AuthorAvatar:   p.AuthorAvatar,
		Description:    p.Description,
		ImageRef:       p.ImageRef,
		CreatedAt:      p.CreatedAt,
		LikesCount:     p.LikesCount,
		DislikesCount:  p.DislikesCount,
		ViewerReaction: reaction,
	}, nil
}

func (g *Gateway) FetchAll(ctx context.Context) ([]feed.Post, error) {
	status, body, err := g.do(ctx, http.MethodGet, "/api/v1/posts", nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, statusError(http.MethodGet, "/api/v1/posts", status, body)
	}

	var payload []postPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode feed: %w", err)
	}
	posts := make([]feed.Post, 0, len(payload))
	for _, p := range payload {
		post, err := p.toPost()
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, nil
}

func (g *Gateway) Create(ctx context.Context, draft feed.Draft) (feed.Post, error) {
	reqBody := createPayload{Description: draft.Description}
	if draft.Image != nil {
		reqBody.Image = draft.Image.PreviewDataURL()
	}

	status, body, err := g.do(ctx, http.MethodPost, "/api/v1/posts", reqBody)
	if err != nil {
		return feed.Post{}, err
	}
	if status != http.StatusCreated {
		return feed.Post{}, statusError(http.MethodPost, "/api/v1/posts", status, body)
	}

	var payload postPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return feed.Post{}, fmt.Errorf("decode created post: %w", err)
	}
	return payload.toPost()
}

func (g *Gateway) Delete(ctx context.Context, postID int64) error {
	path := fmt.Sprintf("/api/v1/posts/%d", postID)
	status, body, err := g.do(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	switch status {
	case http.StatusNoContent:
		return nil
	case http.StatusNotFound:
		return feed.ErrNotFound
	default:
		return statusError(http.MethodDelete, path, status, body)
	}
}

func (g *Gateway) React(ctx context.Context, postID int64, action feed.Action) (feed.ReactionCounts, error) {
	method, path := reactionRoute(postID, action)
	status, body, err := g.do(ctx, method, path, nil)
	if err != nil {
		return feed.ReactionCounts{}, err
	}
	switch status {
	case http.StatusOK:
	case http.StatusNotFound:
		return feed.ReactionCounts{}, feed.ErrNotFound
	default:
		return feed.ReactionCounts{}, statusError(method, path, status, body)
	}

	var payload countsPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return feed.ReactionCounts{}, fmt.Errorf("decode reaction counts: %w", err)
	}
	return feed.ReactionCounts{Likes: payload.LikesCount, Dislikes: payload.DislikesCount}, nil
}

func reactionRoute(postID int64, action feed.Action) (method string, path string) {
	slot := "like"
	if action == feed.SetDisliked || action == feed.ClearDisliked {
		slot = "dislike"
	}
	method = http.MethodPost
	if action == feed.ClearLiked || action == feed.ClearDisliked {
		method = http.MethodDelete
	}
	return method, fmt.Sprintf("/api/v1/posts/%d/%s", postID, slot)
}

// do performs one request and drains the response under the gateway
// timeout, returning the status and body.
func (g *Gateway) do(ctx context.Context, method string, path string, body any) (int, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return 0, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-User-Id", g.viewer.ID)
	if g.viewer.Name != "" {
		req.Header.Set("X-User-Name", g.viewer.Name)
	}
	if g.viewer.Avatar != "" {
		req.Header.Set("X-User-Avatar", g.viewer.Avatar)
	}
	if g.authorize != nil {
		g.authorize(req)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: read response: %w", method, path, err)
	}
	return resp.StatusCode, raw, nil
}

func statusError(method string, path string, status int, body []byte) error {
	if len(body) > 256 {
		body = body[:256]
	}
	return fmt.Errorf("%s %s: unexpected status %d: %s", method, path, status, bytes.TrimSpace(body))
}
