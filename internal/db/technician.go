package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ukydev/fleet-maintenance/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoTechnicianCollection implements TechnicianCollection for MongoDB.
type MongoTechnicianCollection struct {
	Collection *mongo.Collection
}

// InsertTechnician inserts a technician record.
func (c *MongoTechnicianCollection) InsertTechnician(ctx context.Context, technician models.Technician) error {
	if c.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	technician.CreatedAt = time.Now()
	technician.UpdatedAt = technician.CreatedAt
	_, err := c.Collection.InsertOne(ctx, technician)
	return err
}

// FindTechnicians returns every technician ordered by name.
func (c *MongoTechnicianCollection) FindTechnicians(ctx context.Context) ([]models.Technician, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	cursor, err := c.Collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	technicians := []models.Technician{}
	if err := cursor.All(ctx, &technicians); err != nil {
		return nil, err
	}
	return technicians, nil
}

// FindTechnicianByID finds a technician by ID.
func (c *MongoTechnicianCollection) FindTechnicianByID(ctx context.Context, id string) (*models.Technician, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	var technician models.Technician
	err := c.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&technician)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("technician %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &technician, nil
}

// SetActiveTaskCounts resets every cached counter, then writes the given counts.
func (c *MongoTechnicianCollection) SetActiveTaskCounts(ctx context.Context, counts map[string]int) error {
	if c.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	now := time.Now()
	writes := []mongo.WriteModel{
		mongo.NewUpdateManyModel().
			SetFilter(bson.M{}).
			SetUpdate(bson.M{"$set": bson.M{"active_task_count": 0, "updated_at": now}}),
	}
	for id, count := range counts {
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": id}).
			SetUpdate(bson.M{"$set": bson.M{"active_task_count": count, "updated_at": now}}))
	}
	_, err := c.Collection.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(true))
	if err != nil {
		return fmt.Errorf("failed to update technician task counts: %w", err)
	}
	return nil
}
