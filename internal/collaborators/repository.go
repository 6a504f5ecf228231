package collaborators

import (
	"context"
	"sync"
	"time"

	"github.com/draftdesk/draftdesk/backend/go-services/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repository defines persistence operations for collaborators. Get returns
// (nil, nil) when the collaborator does not exist.
type Repository interface {
	Upsert(ctx context.Context, c *models.Collaborator) (*models.Collaborator, error)
	Get(ctx context.Context, id string) (*models.Collaborator, error)
}

// MongoRepository implements Repository using MongoDB
type MongoRepository struct {
	col *mongo.Collection
}

func NewMongoRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

func (r *MongoRepository) Upsert(ctx context.Context, c *models.Collaborator) (*models.Collaborator, error) {
	now := time.Now().UTC()
	update := bson.M{
		"$set":         bson.M{"name": c.Name, "email": c.Email, "updatedAt": now},
		"$setOnInsert": bson.M{"createdAt": now},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var updated models.Collaborator
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": c.ID}, update, opts).Decode(&updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *MongoRepository) Get(ctx context.Context, id string) (*models.Collaborator, error) {
	var c models.Collaborator
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// MemoryRepository keeps collaborators in a map (development and tests).
type MemoryRepository struct {
	mu    sync.RWMutex
	store map[string]models.Collaborator
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{store: map[string]models.Collaborator{}}
}

func (r *MemoryRepository) Upsert(ctx context.Context, c *models.Collaborator) (*models.Collaborator, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	stored, ok := r.store[c.ID]
	if !ok {
		stored = models.Collaborator{ID: c.ID, CreatedAt: now}
	}
	stored.Name = c.Name
	stored.Email = c.Email
	stored.UpdatedAt = now
	r.store[c.ID] = stored
	out := stored
	return &out, nil
}

func (r *MemoryRepository) Get(ctx context.Context, id string) (*models.Collaborator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.store[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}
