package mongoimpl

import (
	"context"
	"os"
	"testing"

	"social-feed/postfeed"

	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ctx = context.Background()

// Needs a running MongoDB; point MONGO_TEST_URL at it to enable the suite.
func TestManager(t *testing.T) {
	mongoAddr := os.Getenv("MONGO_TEST_URL")
	if mongoAddr == "" {
		t.Skip("MONGO_TEST_URL not set")
	}
	suite.Run(t, &ManagerSuite{mongoAddr: mongoAddr, mongodbName: "feed_test"})
}

type ManagerSuite struct {
	suite.Suite

	mongoAddr   string
	mongodbName string
	mongoClient *mongo.Client
	manager     postfeed.Manager
}

func (s *ManagerSuite) SetupSuite() {
	s.manager = NewMongoManager(s.mongoAddr, s.mongodbName)

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(s.mongoAddr))
	s.Require().NoError(err)
	s.mongoClient = mongoClient
}

func (s *ManagerSuite) SetupTest() {
	s.Require().NoError(s.mongoClient.Database(s.mongodbName).Collection(collName).Drop(ctx))
}

var testAuthor = postfeed.Author{ID: "alice", Name: "Alice", Avatar: "alice.png"}

func (s *ManagerSuite) TestAddPost() {
	record, err := s.manager.AddPost(ctx, testAuthor, "my first post", "")
	s.Require().NoError(err)
	s.Require().Positive(record.PostID)
	s.Require().Equal(testAuthor, record.Author)
	s.Require().Equal("my first post", record.Text)
}

func (s *ManagerSuite) TestListPostsNewestFirst() {
	var ids []int64
	for i := 0; i < 5; i++ {
		record, err := s.manager.AddPost(ctx, testAuthor, "post", "")
		s.Require().NoError(err)
		ids = append(ids, record.PostID)
	}

	listed, err := s.manager.ListPosts(ctx)
	s.Require().NoError(err)
	s.Require().Len(listed, 5)
	for i := 0; i < 5; i++ {
		s.Require().Equal(ids[4-i], listed[i].PostID)
	}
}

func (s *ManagerSuite) TestDeletePost() {
	record, err := s.manager.AddPost(ctx, testAuthor, "short lived", "")
	s.Require().NoError(err)

	s.Require().NoError(s.manager.DeletePost(ctx, record.PostID))
	s.Require().ErrorIs(s.manager.DeletePost(ctx, record.PostID), postfeed.ErrNotFound)
}

func (s *ManagerSuite) TestReactionsAreMutuallyExclusive() {
	record, err := s.manager.AddPost(ctx, testAuthor, "react", "")
	s.Require().NoError(err)

	updated, err := s.manager.SetReaction(ctx, record.PostID, "bob", postfeed.KindLike)
	s.Require().NoError(err)
	s.Require().Equal(1, updated.LikesCount())

	updated, err = s.manager.SetReaction(ctx, record.PostID, "bob", postfeed.KindDislike)
	s.Require().NoError(err)
	s.Require().Equal(0, updated.LikesCount())
	s.Require().Equal(1, updated.DislikesCount())
	s.Require().True(updated.DislikedByUser("bob"))
	s.Require().False(updated.LikedByUser("bob"))

	updated, err = s.manager.ClearReaction(ctx, record.PostID, "bob", postfeed.KindDislike)
	s.Require().NoError(err)
	s.Require().Zero(updated.DislikesCount())
}

func (s *ManagerSuite) TestReactionOnUnknownPost() {
	_, err := s.manager.SetReaction(ctx, 12345, "bob", postfeed.KindLike)
	s.Require().ErrorIs(err, postfeed.ErrNotFound)
}

func (s *ManagerSuite) TestIsReady() {
	s.Require().True(s.manager.IsReady(ctx))
}
