package repository

import (
	"context"
	"time"

	"fieldtrack/internal/core/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
)

type MetricsRepository interface {
	Upsert(metrics *model.DailyMetrics) error
	FindByVehicleAndDate(vehicleID, date string) (*model.DailyMetrics, error)
	FindByVehicle(vehicleID string, limit int) ([]*model.DailyMetrics, error)
}

type MongoMetricsRepository struct {
	collection *mongo.Collection
}

// NewMongoMetricsRepository opens the daily metrics collection with local
// read concern. Telemetry writes are high volume and append-heavy; readers
// of historical metrics tolerate not-yet-committed writes rather than block.
func NewMongoMetricsRepository(db *mongo.Database) *MongoMetricsRepository {
	opts := options.Collection().SetReadConcern(readconcern.Local())
	return &MongoMetricsRepository{
		collection: db.Collection("daily_metrics", opts),
	}
}

// Upsert writes the record keyed by (vehicle, date), replacing any previous
// snapshot for the day.
func (r *MongoMetricsRepository) Upsert(metrics *model.DailyMetrics) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	filter := bson.M{"vehicleid": metrics.VehicleID, "date": metrics.Date}
	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, filter, metrics, opts)
	return err
}

func (r *MongoMetricsRepository) FindByVehicleAndDate(vehicleID, date string) (*model.DailyMetrics, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var metrics model.DailyMetrics
	err := r.collection.FindOne(ctx, bson.M{"vehicleid": vehicleID, "date": date}).Decode(&metrics)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	return &metrics, err
}

func (r *MongoMetricsRepository) FindByVehicle(vehicleID string, limit int) ([]*model.DailyMetrics, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.M{"date": -1})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := r.collection.Find(ctx, bson.M{"vehicleid": vehicleID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []*model.DailyMetrics
	if err = cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}
