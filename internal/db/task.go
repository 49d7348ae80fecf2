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

// MongoTaskCollection implements TaskCollection for MongoDB.
type MongoTaskCollection struct {
	Collection *mongo.Collection
}

// InsertTasks inserts a batch of tasks in one round trip.
func (c *MongoTaskCollection) InsertTasks(ctx context.Context, tasks []models.MaintenanceTask) error {
	if c.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	if len(tasks) == 0 {
		return nil
	}
	now := time.Now()
	docs := make([]interface{}, 0, len(tasks))
	for _, task := range tasks {
		if task.CreatedAt.IsZero() {
			task.CreatedAt = now
		}
		task.UpdatedAt = now
		docs = append(docs, task)
	}
	_, err := c.Collection.InsertMany(ctx, docs)
	return err
}

// taskQuery translates a TaskFilter into a bson filter.
func taskQuery(filter TaskFilter) bson.M {
	query := bson.M{}
	if filter.VehicleID != "" {
		query["vehicle_id"] = filter.VehicleID
	}
	if filter.TechnicianID != "" {
		query["technician_id"] = filter.TechnicianID
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	return query
}

// FindTasks returns matching tasks, newest first.
func (c *MongoTaskCollection) FindTasks(ctx context.Context, filter TaskFilter) ([]models.MaintenanceTask, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := c.Collection.Find(ctx, taskQuery(filter), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	tasks := []models.MaintenanceTask{}
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// FindTaskByID finds a task by its ID.
func (c *MongoTaskCollection) FindTaskByID(ctx context.Context, id string) (*models.MaintenanceTask, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	var task models.MaintenanceTask
	err := c.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&task)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("task %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &task, nil
}

// UpdateTask replaces a task document.
func (c *MongoTaskCollection) UpdateTask(ctx context.Context, task models.MaintenanceTask) error {
	if c.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	task.UpdatedAt = time.Now()
	result, err := c.Collection.ReplaceOne(ctx, bson.M{"_id": task.ID}, task)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("task %s: %w", task.ID, ErrNotFound)
	}
	return nil
}

// UpdateAssignments writes technician_id and status for each task in a single bulk write.
func (c *MongoTaskCollection) UpdateAssignments(ctx context.Context, tasks []models.MaintenanceTask) error {
	if c.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	if len(tasks) == 0 {
		return nil
	}
	now := time.Now()
	writes := make([]mongo.WriteModel, 0, len(tasks))
	for _, task := range tasks {
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": task.ID}).
			SetUpdate(bson.M{"$set": bson.M{
				"technician_id": task.TechnicianID,
				"status":        task.Status,
				"updated_at":    now,
			}}))
	}
	_, err := c.Collection.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return fmt.Errorf("failed to update task assignments: %w", err)
	}
	return nil
}

// ActiveTaskCounts aggregates Assigned and In Progress tasks per technician.
func (c *MongoTaskCollection) ActiveTaskCounts(ctx context.Context) (map[string]int, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"status":        bson.M{"$in": bson.A{models.StatusAssigned, models.StatusInProgress}},
			"technician_id": bson.M{"$nin": bson.A{nil, ""}},
		}}},
		{{Key: "$group", Value: bson.M{"_id": "$technician_id", "count": bson.M{"$sum": 1}}}},
	}
	cursor, err := c.Collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		TechnicianID string `bson:"_id"`
		Count        int    `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.TechnicianID] = row.Count
	}
	return counts, nil
}
