package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"social-feed/postfeed"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

const (
	userIDHeader     = "X-User-Id"
	userNameHeader   = "X-User-Name"
	userAvatarHeader = "X-User-Avatar"

	maxDescriptionLen = 1000
)

type HTTPHandler struct {
	manager postfeed.Manager
}

// NewHandler builds the routed handler for the feed service. The browser UI
// is the consumer, so CORS is allowed across the board.
func NewHandler(manager postfeed.Manager) http.Handler {
	r := mux.NewRouter()
	handler := HTTPHandler{manager}

	r.HandleFunc("/api/v1/posts", handler.ListPosts).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/posts", handler.CreatePost).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/posts/{postId}", handler.DeletePost).Methods(http.MethodDelete)
	r.HandleFunc("/api/v1/posts/{postId}/like", handler.setReaction(postfeed.KindLike)).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/posts/{postId}/like", handler.clearReaction(postfeed.KindLike)).Methods(http.MethodDelete)
	r.HandleFunc("/api/v1/posts/{postId}/dislike", handler.setReaction(postfeed.KindDislike)).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/posts/{postId}/dislike", handler.clearReaction(postfeed.KindDislike)).Methods(http.MethodDelete)
	r.HandleFunc("/maintenance/ping", handler.CheckIsReady).Methods(http.MethodGet)

	return cors.AllowAll().Handler(r)
}

func NewServer(manager postfeed.Manager, addr string) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      NewHandler(manager),
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}
}

type CreatePostRequest struct {
	Description string `json:"description"`
	Image       string `json:"image,omitempty"`
}

type PostResponse struct {
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

type CountsResponse struct {
	LikesCount    int `json:"likesCount"`
	DislikesCount int `json:"dislikesCount"`
}

func toPostResponse(record postfeed.PostRecord, viewerID string) PostResponse {
	return PostResponse{
		ID:                record.PostID,
		AuthorID:          record.Author.ID,
		AuthorName:        record.Author.Name,
		AuthorAvatar:      record.Author.Avatar,
		Description:       record.Text,
		ImageRef:          record.ImageRef,
		CreatedAt:         record.CreatedAt,
		LikesCount:        record.LikesCount(),
		DislikesCount:     record.DislikesCount(),
		ViewerHasLiked:    record.LikedByUser(viewerID),
		ViewerHasDisliked: record.DislikedByUser(viewerID),
	}
}

func (h *HTTPHandler) viewerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := r.Header.Get(userIDHeader)
	if userID == "" {
		http.Error(w, "missing "+userIDHeader+" header", http.StatusUnauthorized)
		return "", false
	}
	return userID, true
}

func postIDFromRequest(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := mux.Vars(r)["postId"]
	postID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		http.Error(w, "invalid post id", http.StatusBadRequest)
		return 0, false
	}
	return postID, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	raw, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(raw)
}

func (h *HTTPHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	viewerID, ok := h.viewerID(w, r)
	if !ok {
		return
	}

	records, err := h.manager.ListPosts(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	resp := make([]PostResponse, 0, len(records))
	for _, record := range records {
		resp = append(resp, toPostResponse(record, viewerID))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *HTTPHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	viewerID, ok := h.viewerID(w, r)
	if !ok {
		return
	}

	var body CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	text := strings.TrimSpace(body.Description)
	if text == "" {
		http.Error(w, "description must not be empty", http.StatusBadRequest)
		return
	}
	if len([]rune(text)) > maxDescriptionLen {
		http.Error(w, "description too long", http.StatusBadRequest)
		return
	}

	author := postfeed.Author{
		ID:     viewerID,
		Name:   r.Header.Get(userNameHeader),
		Avatar: r.Header.Get(userAvatarHeader),
	}
	if author.Name == "" {
		author.Name = viewerID
	}

	record, err := h.manager.AddPost(r.Context(), author, text, body.Image)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, toPostResponse(record, viewerID))
}

func (h *HTTPHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.viewerID(w, r); !ok {
		return
	}
	postID, ok := postIDFromRequest(w, r)
	if !ok {
		return
	}

	err := h.manager.DeletePost(r.Context(), postID)
	if errors.Is(err, postfeed.ErrNotFound) {
		http.Error(w, "post not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) setReaction(kind postfeed.ReactionKind) http.HandlerFunc {
	return h.reactionHandler(func(r *http.Request, postID int64, userID string) (postfeed.PostRecord, error) {
		return h.manager.SetReaction(r.Context(), postID, userID, kind)
	})
}

func (h *HTTPHandler) clearReaction(kind postfeed.ReactionKind) http.HandlerFunc {
	return h.reactionHandler(func(r *http.Request, postID int64, userID string) (postfeed.PostRecord, error) {
		return h.manager.ClearReaction(r.Context(), postID, userID, kind)
	})
}

func (h *HTTPHandler) reactionHandler(apply func(r *http.Request, postID int64, userID string) (postfeed.PostRecord, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewerID, ok := h.viewerID(w, r)
		if !ok {
			return
		}
		postID, ok := postIDFromRequest(w, r)
		if !ok {
			return
		}

		record, err := apply(r, postID, viewerID)
		if errors.Is(err, postfeed.ErrNotFound) {
			http.Error(w, "post not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, CountsResponse{
			LikesCount:    record.LikesCount(),
			DislikesCount: record.DislikesCount(),
		})
	}
}

func (h *HTTPHandler) CheckIsReady(w http.ResponseWriter, r *http.Request) {
	if !h.manager.IsReady(r.Context()) {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
}
