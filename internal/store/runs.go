package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"docs-rag-service/models"
)

// RunStore persists ingestion run summaries for the history endpoints and the
// xlsx report.
type RunStore struct {
	collection *mongo.Collection
}

func NewRunStore(client *mongo.Client, dbName string) *RunStore {
	return &RunStore{
		collection: client.Database(dbName).Collection("ingestion_runs"),
	}
}

func (s *RunStore) SaveRun(ctx context.Context, run *models.IngestionRun) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := s.collection.UpdateOne(
		ctx,
		bson.M{"run_id": run.RunID},
		bson.M{"$set": run},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to save ingestion run: %v", err)
	}
	return nil
}

func (s *RunStore) GetRun(ctx context.Context, runID string) (*models.IngestionRun, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var run models.IngestionRun
	err := s.collection.FindOne(ctx, bson.M{"run_id": runID}).Decode(&run)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load ingestion run: %v", err)
	}
	return &run, nil
}

// ListRuns returns the most recent runs first.
func (s *RunStore) ListRuns(ctx context.Context, limit int) ([]models.IngestionRun, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if limit <= 0 {
		limit = 20
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "started_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := s.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list ingestion runs: %v", err)
	}
	defer cursor.Close(ctx)

	var runs []models.IngestionRun
	if err := cursor.All(ctx, &runs); err != nil {
		return nil, fmt.Errorf("failed to decode ingestion runs: %v", err)
	}
	return runs, nil
}
