package repository

import (
	"context"
	"time"

	"fieldtrack/internal/core/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type BoundaryRepository interface {
	Create(boundary *model.BoundaryPolygon) error
	FindByID(id string) (*model.BoundaryPolygon, error)
	FindByFarmID(farmID string) ([]*model.BoundaryPolygon, error)
}

type MongoBoundaryRepository struct {
	collection *mongo.Collection
}

func NewMongoBoundaryRepository(db *mongo.Database) *MongoBoundaryRepository {
	return &MongoBoundaryRepository{
		collection: db.Collection("boundaries"),
	}
}

func (r *MongoBoundaryRepository) Create(boundary *model.BoundaryPolygon) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := r.collection.InsertOne(ctx, boundary)
	return err
}

func (r *MongoBoundaryRepository) FindByID(id string) (*model.BoundaryPolygon, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var boundary model.BoundaryPolygon
	err := r.collection.FindOne(ctx, bson.M{"id": id}).Decode(&boundary)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	return &boundary, err
}

func (r *MongoBoundaryRepository) FindByFarmID(farmID string) ([]*model.BoundaryPolygon, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cursor, err := r.collection.Find(ctx, bson.M{"farmid": farmID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var boundaries []*model.BoundaryPolygon
	if err = cursor.All(ctx, &boundaries); err != nil {
		return nil, err
	}
	return boundaries, nil
}
