package repository

import (
	"context"
	"time"

	"fieldtrack/internal/core/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type InvalidRecordRepository interface {
	Create(record *model.InvalidRecord) error
	FindRecent(limit int) ([]*model.InvalidRecord, error)
}

type MongoInvalidRecordRepository struct {
	collection *mongo.Collection
}

func NewMongoInvalidRecordRepository(db *mongo.Database) *MongoInvalidRecordRepository {
	return &MongoInvalidRecordRepository{
		collection: db.Collection("invalid_records"),
	}
}

func (r *MongoInvalidRecordRepository) Create(record *model.InvalidRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := r.collection.InsertOne(ctx, record)
	return err
}

func (r *MongoInvalidRecordRepository) FindRecent(limit int) ([]*model.InvalidRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.M{"timestamp": -1})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []*model.InvalidRecord
	if err = cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}
