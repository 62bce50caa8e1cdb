package message

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"zkmsg/internal/errs"
	"zkmsg/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const maxUpdateAttempts = 3

type (
	MongoRepo struct {
		collection *mongo.Collection
	}
)

func NewMongoRepo(db *mongo.Database) *MongoRepo {
	return &MongoRepo{
		collection: db.Collection("messages"),
	}
}

// EnsureIndexes creates the per-participant listing indexes.
func (r *MongoRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "sender", Value: 1}, {Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "recipient", Value: 1}, {Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "blob_id", Value: 1}}},
	})
	return err
}

func (r *MongoRepo) Insert(ctx context.Context, rec *model.MessageRecord) error {
	_, err := r.collection.InsertOne(ctx, rec)
	if err != nil {
		return errs.Wrap(errs.ErrBackendUnavailable, err, "insert message")
	}
	return nil
}

func (r *MongoRepo) FindByParticipant(ctx context.Context, participant, orderIDPrefix string) ([]*model.MessageRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "created_at", Value: -1}})
	cur, err := r.collection.Find(ctx, participantFilter(participant, orderIDPrefix), opts)
	if err != nil {
		return nil, errs.Wrap(errs.ErrBackendUnavailable, err, "find messages")
	}

	var res []*model.MessageRecord
	if err := cur.All(ctx, &res); err != nil {
		return nil, errs.Wrap(errs.ErrBackendUnavailable, err, "decode messages")
	}
	return res, nil
}

func (r *MongoRepo) FindByID(ctx context.Context, id string) (*model.MessageRecord, error) {
	var rec model.MessageRecord
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}

	if err != nil {
		return nil, errs.Wrap(errs.ErrBackendUnavailable, err, "find message")
	}

	return &rec, nil
}

// UpdateStatus compares-and-sets on the current status so concurrent updates
// cannot skip the transition check.
func (r *MongoRepo) UpdateStatus(ctx context.Context, id string, next model.Status) (*model.MessageRecord, error) {
	for range maxUpdateAttempts {
		rec, err := r.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if rec == nil {
			return nil, fmt.Errorf("%w: message %s", errs.ErrNotFound, id)
		}

		status, err := rec.Status.Transition(next)
		if err != nil {
			return nil, err
		}

		now := time.Now().UTC()
		filter := bson.M{"_id": id, "status": rec.Status}
		update := bson.M{"$set": bson.M{"status": status, "updated_at": now}}

		var updated model.MessageRecord
		err = r.collection.FindOneAndUpdate(ctx, filter, update,
			options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&updated)
		if errors.Is(err, mongo.ErrNoDocuments) {
			continue
		}
		if err != nil {
			return nil, errs.Wrap(errs.ErrBackendUnavailable, err, "update message status")
		}
		return &updated, nil
	}
	return nil, errs.Wrap(errs.ErrBackendUnavailable, nil, "message status changed concurrently")
}

func participantFilter(participant, orderIDPrefix string) bson.M {
	filter := bson.M{
		"$or": bson.A{
			bson.M{"sender": participant},
			bson.M{"recipient": participant},
		},
	}
	if orderIDPrefix != "" {
		filter["order_id"] = bson.M{"$regex": "^" + regexp.QuoteMeta(orderIDPrefix)}
	}
	return filter
}
