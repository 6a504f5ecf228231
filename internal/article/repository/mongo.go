package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/draftdesk/draftdesk/backend/go-services/internal/article"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepo implements ArticleStore on a MongoDB collection. Articles are keyed
// by their string ID in _id; CompareAndSwap relies on a filtered ReplaceOne so
// the revision check and the write happen in one server-side step.
type MongoRepo struct {
	col *mongo.Collection
}

func NewMongoRepo(col *mongo.Collection) *MongoRepo {
	idx := mongo.IndexModel{Keys: bson.D{{Key: "status", Value: 1}, {Key: "updatedAt", Value: -1}}}
	_, _ = col.Indexes().CreateOne(context.Background(), idx)
	return &MongoRepo{col: col}
}

func (m *MongoRepo) Create(ctx context.Context, a *article.Article) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	if _, err := m.col.InsertOne(ctx, a); err != nil {
		return fmt.Errorf("insert article: %w", err)
	}
	return nil
}

func (m *MongoRepo) Get(ctx context.Context, id string) (*article.Article, error) {
	var a article.Article
	err := m.col.FindOne(ctx, bson.M{"_id": id}).Decode(&a)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (m *MongoRepo) CompareAndSwap(ctx context.Context, next *article.Article, prevRevision int64, prevLockHolder string) error {
	next.UpdatedAt = time.Now().UTC()
	filter := bson.M{"_id": next.ID, "revision": prevRevision, "lockHolder": prevLockHolder}
	res, err := m.col.ReplaceOne(ctx, filter, next)
	if err != nil {
		return fmt.Errorf("replace article: %w", err)
	}
	if res.MatchedCount == 1 {
		return nil
	}
	n, err := m.col.CountDocuments(ctx, bson.M{"_id": next.ID})
	if err != nil {
		return fmt.Errorf("count article: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return ErrConflict
}

func scopeFilter(ids []string, scope Scope) bson.M {
	f := bson.M{}
	if len(ids) > 0 {
		f["_id"] = bson.M{"$in": ids}
	}
	if scope == ScopeTrashed {
		f["status"] = article.StatusTrash
	} else {
		f["status"] = bson.M{"$ne": article.StatusTrash}
	}
	return f
}

func (m *MongoRepo) BatchUpdate(ctx context.Context, ids []string, scope Scope, change BatchChange) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	set := bson.M{"updatedAt": time.Now().UTC()}
	if change.Status != nil {
		set["status"] = *change.Status
	}
	if change.CategoryID != nil {
		set["categoryId"] = *change.CategoryID
	}
	res, err := m.col.UpdateMany(ctx, scopeFilter(ids, scope), bson.M{"$set": set})
	if err != nil {
		return 0, fmt.Errorf("batch update: %w", err)
	}
	return res.ModifiedCount, nil
}

func (m *MongoRepo) DestroyTrashed(ctx context.Context, ids []string) (int64, error) {
	res, err := m.col.DeleteMany(ctx, scopeFilter(ids, ScopeTrashed))
	if err != nil {
		return 0, fmt.Errorf("destroy trashed: %w", err)
	}
	return res.DeletedCount, nil
}

// MongoVersions implements VersionStore on a MongoDB collection with a unique
// (articleId, seq) index. Sequence numbers are allocated as latest+1; a
// duplicate key means another writer appended first and the insert is retried.
type MongoVersions struct {
	col *mongo.Collection
}

const appendAttempts = 5

func NewMongoVersions(col *mongo.Collection) *MongoVersions {
	idx := mongo.IndexModel{
		Keys:    bson.D{{Key: "articleId", Value: 1}, {Key: "seq", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	_, _ = col.Indexes().CreateOne(context.Background(), idx)
	return &MongoVersions{col: col}
}

func (m *MongoVersions) Append(ctx context.Context, s *article.Snapshot) (*article.Snapshot, error) {
	stored := *s
	stored.ID = uuid.New().String()
	stored.CreatedAt = time.Now().UTC()
	for attempt := 1; attempt <= appendAttempts; attempt++ {
		latest, err := m.Latest(ctx, s.ArticleID)
		if err != nil {
			return nil, err
		}
		stored.Seq = 1
		if latest != nil {
			stored.Seq = latest.Seq + 1
		}
		_, err = m.col.InsertOne(ctx, &stored)
		if err == nil {
			return &stored, nil
		}
		if !mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("insert snapshot: %w", err)
		}
	}
	return nil, fmt.Errorf("insert snapshot: sequence contention on article %s", s.ArticleID)
}

func (m *MongoVersions) ListSince(ctx context.Context, articleID string, afterSeq int64) ([]*article.Snapshot, error) {
	filter := bson.M{"articleId": articleID, "seq": bson.M{"$gt": afterSeq}}
	cur, err := m.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "seq", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*article.Snapshot{}
	for cur.Next(ctx) {
		var s article.Snapshot
		if err := cur.Decode(&s); err != nil {
			return nil, err
		}
		out = append(out, &s)
	}
	return out, cur.Err()
}

func (m *MongoVersions) Latest(ctx context.Context, articleID string) (*article.Snapshot, error) {
	var s article.Snapshot
	opts := options.FindOne().SetSort(bson.D{{Key: "seq", Value: -1}})
	if err := m.col.FindOne(ctx, bson.M{"articleId": articleID}, opts).Decode(&s); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}
