package feed

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

var ctx = context.Background()

// fakeGateway scripts gateway outcomes. The started/release channel pairs
// let a test observe the optimistic window while a call is in flight.
type fakeGateway struct {
	mu sync.Mutex

	feedPosts []Post
	fetchErr  error

	confirmed     Post
	createErr     error
	createStarted chan struct{}
	createRelease chan struct{}
	createCalls   int

	deleteErr  error
	deletedIDs []int64

	reactCounts  ReactionCounts
	reactFn      func(postID int64, action Action) (ReactionCounts, error)
	reactErr     error
	reactStarted chan struct{}
	reactRelease chan struct{}
	reactCalls   int
}

func (g *fakeGateway) FetchAll(context.Context) ([]Post, error) {
	if g.fetchErr != nil {
		return nil, g.fetchErr
	}
	return append([]Post(nil), g.feedPosts...), nil
}

func (g *fakeGateway) Create(context.Context, Draft) (Post, error) {
	g.mu.Lock()
	g.createCalls++
	g.mu.Unlock()
	if g.createStarted != nil {
		g.createStarted <- struct{}{}
	}
	if g.createRelease != nil {
		<-g.createRelease
	}
	if g.createErr != nil {
		return Post{}, g.createErr
	}
	return g.confirmed, nil
}

func (g *fakeGateway) Delete(_ context.Context, postID int64) error {
	if g.deleteErr != nil {
		return g.deleteErr
	}
	g.mu.Lock()
	g.deletedIDs = append(g.deletedIDs, postID)
	g.mu.Unlock()
	return nil
}

func (g *fakeGateway) React(_ context.Context, postID int64, action Action) (ReactionCounts, error) {
	g.mu.Lock()
	g.reactCalls++
	g.mu.Unlock()
	if g.reactStarted != nil {
		g.reactStarted <- struct{}{}
	}
	if g.reactRelease != nil {
		<-g.reactRelease
	}
	if g.reactErr != nil {
		return ReactionCounts{}, g.reactErr
	}
	if g.reactFn != nil {
		return g.reactFn(postID, action)
	}
	return g.reactCounts, nil
}

var testViewer = Viewer{ID: "viewer-1", Name: "Ada", Avatar: "ada.png"}

func TestStore(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

type StoreSuite struct {
	suite.Suite

	gw    *fakeGateway
	store *Store
}

func (s *StoreSuite) SetupTest() {
	s.gw = &fakeGateway{}
	s.store = NewStore(s.gw, testViewer)
}

// seedFeed loads three posts; post 2 is the disliked-by-viewer post from
// the reaction scenario, posts 1 and 3 belong to the viewer.
func (s *StoreSuite) seedFeed() []Post {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.gw.feedPosts = []Post{
		{ID: 1, AuthorID: testViewer.ID, AuthorName: "Ada", Description: "first", CreatedAt: base},
		{ID: 2, AuthorID: "bob", AuthorName: "Bob", Description: "second", CreatedAt: base.Add(time.Minute),
			LikesCount: 3, DislikesCount: 1, ViewerReaction: ReactionDisliked},
		{ID: 3, AuthorID: testViewer.ID, AuthorName: "Ada", Description: "third", CreatedAt: base.Add(2 * time.Minute)},
	}
	s.Require().NoError(s.store.LoadAll(ctx))
	return s.gw.feedPosts
}

func (s *StoreSuite) postByID(postID int64) Post {
	for _, p := range s.store.All() {
		if p.ID == postID {
			return p
		}
	}
	s.Require().Failf("post not found", "post %d not in collection", postID)
	return Post{}
}

func (s *StoreSuite) ids(posts []Post) []int64 {
	ids := make([]int64, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	return ids
}

// assertProjections re-verifies that Mine is exactly All filtered by the
// viewer's author id.
func (s *StoreSuite) assertProjections() {
	want := make([]Post, 0)
	for _, p := range s.store.All() {
		if p.AuthorID == testViewer.ID {
			want = append(want, p)
		}
	}
	s.Require().Equal(want, s.store.Mine())
}

func (s *StoreSuite) TestLoadAllOrdersNewestFirst() {
	s.seedFeed()
	s.Require().Equal([]int64{3, 2, 1}, s.ids(s.store.All()))
	s.Require().Equal([]int64{3, 1}, s.ids(s.store.Mine()))
	s.assertProjections()
}

func (s *StoreSuite) TestLoadAllFailureRetainsPriorState() {
	s.seedFeed()
	before := s.store.All()

	s.gw.fetchErr = errors.New("connection refused")
	err := s.store.LoadAll(ctx)
	s.Require().ErrorIs(err, ErrFetch)
	s.Require().Equal(before, s.store.All())
	s.assertProjections()
}

func (s *StoreSuite) TestLoadAllRejectsDuplicateIDs() {
	s.seedFeed()
	before := s.store.All()

	now := time.Now().UTC()
	s.gw.feedPosts = []Post{
		{ID: 9, AuthorID: "bob", Description: "one", CreatedAt: now},
		{ID: 9, AuthorID: "bob", Description: "two", CreatedAt: now},
	}
	err := s.store.LoadAll(ctx)
	s.Require().ErrorIs(err, ErrFetch)
	s.Require().Equal(before, s.store.All())
}

func (s *StoreSuite) TestCreateRejectsEmptyDescription() {
	_, err := s.store.Create(ctx, Draft{})
	s.Require().ErrorIs(err, ErrInvalidInput)

	_, err = s.store.Create(ctx, Draft{Description: "  \t\n "})
	s.Require().ErrorIs(err, ErrInvalidInput)

	s.Require().Empty(s.store.All())
	s.Require().Zero(s.gw.createCalls)
}

func (s *StoreSuite) TestCreateReplacesProvisionalWithConfirmed() {
	s.gw.confirmed = Post{
		ID: 42, AuthorID: testViewer.ID, AuthorName: "Ada",
		Description: "hello", CreatedAt: time.Now().UTC(),
	}

	post, err := s.store.Create(ctx, Draft{Description: "hello"})
	s.Require().NoError(err)
	s.Require().Equal(int64(42), post.ID)

	all := s.store.All()
	s.Require().Len(all, 1)
	s.Require().Equal(int64(42), all[0].ID)
	s.Require().False(all[0].Provisional())
	s.Require().Equal([]int64{42}, s.ids(s.store.Mine()))
	s.assertProjections()
}

func (s *StoreSuite) TestCreateShowsProvisionalWhileInFlight() {
	s.gw.confirmed = Post{ID: 42, AuthorID: testViewer.ID, Description: "hello", CreatedAt: time.Now().UTC()}
	s.gw.createStarted = make(chan struct{}, 1)
	s.gw.createRelease = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := s.store.Create(ctx, Draft{Description: "hello"})
		done <- err
	}()
	<-s.gw.createStarted

	all := s.store.All()
	s.Require().Len(all, 1)
	s.Require().True(all[0].Provisional())
	s.Require().Equal("hello", all[0].Description)
	s.Require().Equal(testViewer.ID, all[0].AuthorID)
	s.assertProjections()

	close(s.gw.createRelease)
	s.Require().NoError(<-done)
	s.Require().Equal([]int64{42}, s.ids(s.store.All()))
}

func (s *StoreSuite) TestCreateFailureRemovesProvisional() {
	s.gw.createErr = errors.New("500 from server")
	_, err := s.store.Create(ctx, Draft{Description: "hello"})
	s.Require().ErrorIs(err, ErrCreate)
	s.Require().Empty(s.store.All())
	s.assertProjections()
}

func (s *StoreSuite) TestCreateThenDeleteProvisionalResolvesCleanly() {
	s.gw.confirmed = Post{ID: 42, AuthorID: testViewer.ID, Description: "hello", CreatedAt: time.Now().UTC()}
	s.gw.createStarted = make(chan struct{}, 1)
	s.gw.createRelease = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := s.store.Create(ctx, Draft{Description: "hello"})
		done <- err
	}()
	<-s.gw.createStarted

	provisionalID := s.store.All()[0].ID
	s.Require().Negative(provisionalID)
	s.Require().NoError(s.store.Delete(ctx, provisionalID))
	s.Require().Empty(s.store.All())
	// A provisional entry never reached the server, so nothing was deleted
	// remotely yet.
	s.Require().Empty(s.gw.deletedIDs)

	close(s.gw.createRelease)
	s.Require().NoError(<-done)

	// Collection is unchanged from its pre-create state and the confirmed
	// server post was cleaned up remotely.
	s.Require().Empty(s.store.All())
	s.Require().Equal([]int64{42}, s.gw.deletedIDs)
	s.assertProjections()
}

func (s *StoreSuite) TestDeleteUnknownIsNoop() {
	s.seedFeed()
	s.Require().NoError(s.store.Delete(ctx, 999))
	s.Require().Equal([]int64{3, 2, 1}, s.ids(s.store.All()))
	s.Require().Empty(s.gw.deletedIDs)
}

func (s *StoreSuite) TestDeleteRemovesOptimistically() {
	s.seedFeed()
	s.Require().NoError(s.store.Delete(ctx, 2))
	s.Require().Equal([]int64{3, 1}, s.ids(s.store.All()))
	s.Require().Equal([]int64{2}, s.gw.deletedIDs)
	s.assertProjections()
}

func (s *StoreSuite) TestDeleteFailureRestoresPostIntact() {
	s.seedFeed()
	before := s.store.All()

	s.gw.deleteErr = errors.New("timeout")
	err := s.store.Delete(ctx, 2)
	s.Require().ErrorIs(err, ErrDelete)
	s.Require().Equal(before, s.store.All())
	s.assertProjections()
}

func (s *StoreSuite) TestDeleteRemoteNotFoundIsSuccess() {
	s.seedFeed()
	s.gw.deleteErr = ErrNotFound
	s.Require().NoError(s.store.Delete(ctx, 2))
	s.Require().Equal([]int64{3, 1}, s.ids(s.store.All()))
}

func (s *StoreSuite) TestReactUnknownPost() {
	s.seedFeed()
	_, err := s.store.React(ctx, 999, SetLiked)
	s.Require().ErrorIs(err, ErrNotFound)
}

func (s *StoreSuite) TestReactLikeClearsDislike() {
	s.seedFeed()
	s.gw.reactCounts = ReactionCounts{Likes: 4, Dislikes: 0}

	post, err := s.store.React(ctx, 2, SetLiked)
	s.Require().NoError(err)
	s.Require().Equal(4, post.LikesCount)
	s.Require().Equal(0, post.DislikesCount)
	s.Require().Equal(ReactionLiked, post.ViewerReaction)
	s.Require().Equal(post, s.postByID(2))
	s.assertProjections()
}

func (s *StoreSuite) TestReactRepeatIsIdempotent() {
	s.seedFeed()
	s.gw.reactCounts = ReactionCounts{Likes: 4, Dislikes: 0}

	first, err := s.store.React(ctx, 2, SetLiked)
	s.Require().NoError(err)

	second, err := s.store.React(ctx, 2, SetLiked)
	s.Require().NoError(err)
	s.Require().Equal(first, second)
	s.Require().Equal(1, s.gw.reactCalls)
	s.Require().Equal(first, s.postByID(2))
}

func (s *StoreSuite) TestReactFailureRollsBack() {
	s.seedFeed()
	before := s.postByID(2)

	s.gw.reactErr = errors.New("timeout")
	_, err := s.store.React(ctx, 2, SetLiked)
	s.Require().ErrorIs(err, ErrReaction)
	s.Require().Equal(before, s.postByID(2))
	s.assertProjections()

	// The pending marker is cleared, so a retry goes through.
	s.gw.reactErr = nil
	s.gw.reactCounts = ReactionCounts{Likes: 4, Dislikes: 0}
	post, err := s.store.React(ctx, 2, SetLiked)
	s.Require().NoError(err)
	s.Require().Equal(ReactionLiked, post.ViewerReaction)
}

func (s *StoreSuite) TestReactServerCountsWinOnDisagreement() {
	s.seedFeed()
	// Other viewers reacted meanwhile: the server reports different
	// aggregates than the optimistic local ones.
	s.gw.reactCounts = ReactionCounts{Likes: 10, Dislikes: 2}

	post, err := s.store.React(ctx, 2, SetLiked)
	s.Require().NoError(err)
	s.Require().Equal(10, post.LikesCount)
	s.Require().Equal(2, post.DislikesCount)
	s.Require().Equal(ReactionLiked, post.ViewerReaction)
}

func (s *StoreSuite) TestReactDuplicateSuppressedIndependentPostsProceed() {
	s.seedFeed()
	s.gw.reactStarted = make(chan struct{}, 2)
	s.gw.reactRelease = make(chan struct{})
	s.gw.reactFn = func(postID int64, _ Action) (ReactionCounts, error) {
		if postID == 1 {
			return ReactionCounts{Likes: 1, Dislikes: 0}, nil
		}
		return ReactionCounts{Likes: 4, Dislikes: 0}, nil
	}

	done := make(chan error, 2)
	go func() {
		_, err := s.store.React(ctx, 2, SetLiked)
		done <- err
	}()
	<-s.gw.reactStarted

	// A second toggle on the same post is rejected while one is pending.
	_, err := s.store.React(ctx, 2, SetDisliked)
	s.Require().ErrorIs(err, ErrOperationInProgress)

	// A reaction on a different post is independent and may fly alongside.
	go func() {
		_, err := s.store.React(ctx, 1, SetLiked)
		done <- err
	}()
	<-s.gw.reactStarted

	close(s.gw.reactRelease)
	s.Require().NoError(<-done)
	s.Require().NoError(<-done)

	s.Require().Equal(ReactionLiked, s.postByID(2).ViewerReaction)
	s.Require().Equal(ReactionLiked, s.postByID(1).ViewerReaction)
	s.assertProjections()
}

func (s *StoreSuite) TestReactResolvesAfterPostDeletedInFlight() {
	s.seedFeed()
	s.gw.reactStarted = make(chan struct{}, 1)
	s.gw.reactRelease = make(chan struct{})
	s.gw.reactCounts = ReactionCounts{Likes: 4, Dislikes: 0}

	done := make(chan error, 1)
	go func() {
		_, err := s.store.React(ctx, 2, SetLiked)
		done <- err
	}()
	<-s.gw.reactStarted

	s.Require().NoError(s.store.Delete(ctx, 2))

	close(s.gw.reactRelease)
	s.Require().NoError(<-done)

	// The deletion stands; the late reaction result is not re-inserted.
	s.Require().Equal([]int64{3, 1}, s.ids(s.store.All()))
	s.assertProjections()
}
