package repository

import (
	"context"
	"time"

	"fieldtrack/internal/core/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type TaskRepository interface {
	Create(task *model.Task) error
	Update(task *model.Task) error
	FindByID(id string) (*model.Task, error)
	FindActiveByVehicle(vehicleID string, at time.Time) ([]*model.Task, error)
}

type MongoTaskRepository struct {
	collection *mongo.Collection
}

func NewMongoTaskRepository(db *mongo.Database) *MongoTaskRepository {
	return &MongoTaskRepository{
		collection: db.Collection("tasks"),
	}
}

func (r *MongoTaskRepository) Create(task *model.Task) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := r.collection.InsertOne(ctx, task)
	return err
}

func (r *MongoTaskRepository) Update(task *model.Task) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := r.collection.ReplaceOne(ctx, bson.M{"id": task.ID}, task)
	return err
}

func (r *MongoTaskRepository) FindByID(id string) (*model.Task, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var task model.Task
	err := r.collection.FindOne(ctx, bson.M{"id": id}).Decode(&task)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	return &task, err
}

// FindActiveByVehicle returns the vehicle's unfinalized tasks whose windows
// contain the given instant.
func (r *MongoTaskRepository) FindActiveByVehicle(vehicleID string, at time.Time) ([]*model.Task, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	filter := bson.M{
		"vehicleid":   vehicleID,
		"finalized":   false,
		"windowstart": bson.M{"$lte": at},
		"windowend":   bson.M{"$gte": at},
	}
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var tasks []*model.Task
	if err = cursor.All(ctx, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}
