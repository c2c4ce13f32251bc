package mongoimpl

import (
	"context"
	"errors"
	"fmt"
	"time"

	"social-feed/postfeed"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collName = "posts"

type MongoManager struct {
	posts  *mongo.Collection
	client *mongo.Client
}

func ensureIndexes(ctx context.Context, collection *mongo.Collection) {
	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "post_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "created_at", Value: -1}},
		},
	}
	opts := options.CreateIndexes().SetMaxTime(10 * time.Second)

	_, err := collection.Indexes().CreateMany(ctx, indexModels, opts)
	if err != nil {
		panic(fmt.Errorf("failed to ensure indexes %w", err))
	}
}

func NewMongoManager(mongoURL string, dbName string) *MongoManager {
	ctx := context.Background()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURL))
	if err != nil {
		panic(err)
	}

	collection := client.Database(dbName).Collection(collName)
	ensureIndexes(ctx, collection)

	return &MongoManager{
		posts:  collection,
		client: client,
	}
}

func (m *MongoManager) IsReady(ctx context.Context) bool {
	if err := m.client.Ping(ctx, nil); err != nil {
		return false
	}
	return true
}

func (m *MongoManager) AddPost(ctx context.Context, author postfeed.Author, text string, imageRef string) (postfeed.PostRecord, error) {
	now := time.Now().UTC()
	record := postfeed.PostRecord{
		PostID:     postfeed.NewPostID(now),
		Author:     author,
		Text:       text,
		ImageRef:   imageRef,
		CreatedAt:  now,
		LikedBy:    []string{},
		DislikedBy: []string{},
	}
	// Retry on the unlikely id collision; the unique index is the judge.
	for attempt := 0; ; attempt++ {
		_, err := m.posts.InsertOne(ctx, record)
		if err == nil {
			return record, nil
		}
		if mongo.IsDuplicateKeyError(err) && attempt < 3 {
			record.PostID = postfeed.NewPostID(now)
			continue
		}
		return postfeed.PostRecord{}, fmt.Errorf("insert post: %w", postfeed.ErrStorage)
	}
}

func (m *MongoManager) ListPosts(ctx context.Context) ([]postfeed.PostRecord, error) {
	cursor, err := m.posts.Find(
		ctx,
		bson.M{},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "post_id", Value: -1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", postfeed.ErrStorage)
	}
	defer cursor.Close(ctx)

	records := []postfeed.PostRecord{}
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("decode posts: %w", postfeed.ErrStorage)
	}
	return records, nil
}

func (m *MongoManager) DeletePost(ctx context.Context, postID int64) error {
	res, err := m.posts.DeleteOne(ctx, bson.M{"post_id": postID})
	if err != nil {
		return fmt.Errorf("delete post: %w", postfeed.ErrStorage)
	}
	if res.DeletedCount == 0 {
		return postfeed.ErrNotFound
	}
	return nil
}

// SetReaction adds the user to one membership set and pulls it from the
// opposite one in a single update, so the mutual exclusion holds even under
// concurrent requests.
func (m *MongoManager) SetReaction(ctx context.Context, postID int64, userID string, kind postfeed.ReactionKind) (postfeed.PostRecord, error) {
	target, opposite := "liked_by", "disliked_by"
	if kind == postfeed.KindDislike {
		target, opposite = "disliked_by", "liked_by"
	}

	update := bson.M{
		"$addToSet": bson.M{target: userID},
		"$pull":     bson.M{opposite: userID},
	}
	return m.applyReactionUpdate(ctx, postID, update)
}

func (m *MongoManager) ClearReaction(ctx context.Context, postID int64, userID string, kind postfeed.ReactionKind) (postfeed.PostRecord, error) {
	target := "liked_by"
	if kind == postfeed.KindDislike {
		target = "disliked_by"
	}

	update := bson.M{
		"$pull": bson.M{target: userID},
	}
	return m.applyReactionUpdate(ctx, postID, update)
}

func (m *MongoManager) applyReactionUpdate(ctx context.Context, postID int64, update bson.M) (postfeed.PostRecord, error) {
	var updated postfeed.PostRecord
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	err := m.posts.FindOneAndUpdate(ctx, bson.M{"post_id": postID}, update, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return postfeed.PostRecord{}, postfeed.ErrNotFound
		}
		return postfeed.PostRecord{}, fmt.Errorf("update reaction: %w", postfeed.ErrStorage)
	}
	return updated, nil
}
