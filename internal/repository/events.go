package repository

import (
	"context"
	"fmt"

	"github.com/RishiKendai/veritas/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const eventRequirementsCollection = "event_requirements"

type EventsRepository struct {
	mongoRepo *MongoRepository
}

func NewEventsRepository(mongoRepo *MongoRepository) *EventsRepository {
	return &EventsRepository{
		mongoRepo: mongoRepo,
	}
}

// GetRequirement returns nil when the event has no requirement document.
func (r *EventsRepository) GetRequirement(ctx context.Context, eventID string) (*models.EventRequirement, error) {
	var requirement models.EventRequirement
	err := r.mongoRepo.FindOne(ctx, eventRequirementsCollection, bson.M{"eventId": eventID}).Decode(&requirement)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find event requirement: %w", err)
	}

	return &requirement, nil
}
