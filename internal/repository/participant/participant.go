// Package participant stores the published key bundles of participants.
package participant

import (
	"context"
	"sync"
	"time"

	"zkmsg/internal/errs"
	"zkmsg/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type (
	// Repository looks up participants by name. A missing participant is
	// (nil, nil).
	Repository interface {
		GetByName(ctx context.Context, name string) (*model.Participant, error)
		Upsert(ctx context.Context, name string, keys model.ParticipantKeys) (*model.Participant, error)
	}

	MongoRepo struct {
		collection *mongo.Collection
	}

	MemoryRepo struct {
		mu           sync.RWMutex
		participants map[string]*model.Participant
	}
)

func NewMongoRepo(db *mongo.Database) *MongoRepo {
	return &MongoRepo{
		collection: db.Collection("participants"),
	}
}

func (r *MongoRepo) GetByName(ctx context.Context, name string) (*model.Participant, error) {
	filter := bson.M{
		"_id": name,
	}

	var p model.Participant
	err := r.collection.FindOne(ctx, filter).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}

	if err != nil {
		return nil, errs.Wrap(errs.ErrBackendUnavailable, err, "find participant")
	}

	return &p, nil
}

// Upsert replaces the participant's keys, keeping its creation time.
func (r *MongoRepo) Upsert(ctx context.Context, name string, keys model.ParticipantKeys) (*model.Participant, error) {
	now := time.Now().UTC()
	update := bson.M{
		"$set":         bson.M{"keys": keys, "updated_at": now},
		"$setOnInsert": bson.M{"created_at": now},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var p model.Participant
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": name}, update, opts).Decode(&p); err != nil {
		return nil, errs.Wrap(errs.ErrBackendUnavailable, err, "upsert participant")
	}
	return &p, nil
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{participants: make(map[string]*model.Participant)}
}

func (r *MemoryRepo) GetByName(_ context.Context, name string) (*model.Participant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.participants[name]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *MemoryRepo) Upsert(_ context.Context, name string, keys model.ParticipantKeys) (*model.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	p, ok := r.participants[name]
	if !ok {
		p = &model.Participant{Name: name, CreatedAt: now}
		r.participants[name] = p
	}
	p.Keys = keys
	p.UpdatedAt = now

	cp := *p
	return &cp, nil
}
