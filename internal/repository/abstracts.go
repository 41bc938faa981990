package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/RishiKendai/veritas/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const abstractsCollection = "abstract_submissions"

type AbstractsRepository struct {
	mongoRepo *MongoRepository
}

func NewAbstractsRepository(mongoRepo *MongoRepository) *AbstractsRepository {
	return &AbstractsRepository{
		mongoRepo: mongoRepo,
	}
}

// GetAbstract returns nil when no abstract has the given id.
func (r *AbstractsRepository) GetAbstract(ctx context.Context, id string) (*models.AbstractSubmission, error) {
	var abstract models.AbstractSubmission
	err := r.mongoRepo.FindOne(ctx, abstractsCollection, bson.M{"_id": id}).Decode(&abstract)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find abstract: %w", err)
	}

	return &abstract, nil
}

// GetLatestByEvent returns the latest version of every abstract in an event,
// leaving out excludeID when it is set.
func (r *AbstractsRepository) GetLatestByEvent(ctx context.Context, eventID, excludeID string) ([]*models.AbstractSubmission, error) {
	filter := bson.M{"eventId": eventID, "isLatestVersion": true}
	if excludeID != "" {
		filter["_id"] = bson.M{"$ne": excludeID}
	}
	return r.find(ctx, filter)
}

// ListPendingByEvent returns latest abstracts in an event that have not been
// checked yet.
func (r *AbstractsRepository) ListPendingByEvent(ctx context.Context, eventID string) ([]*models.AbstractSubmission, error) {
	return r.find(ctx, bson.M{
		"eventId":          eventID,
		"isLatestVersion":  true,
		"plagiarismStatus": models.PlagiarismStatusPending,
	})
}

// UpdatePlagiarism records a score and status without touching the
// submission status.
func (r *AbstractsRepository) UpdatePlagiarism(ctx context.Context, id string, score float64, status string) error {
	return r.update(ctx, id, bson.M{
		"plagiarismScore":  score,
		"plagiarismStatus": status,
		"updatedAt":        time.Now(),
	})
}

// Finalize records the score and moves a draft abstract to submitted.
func (r *AbstractsRepository) Finalize(ctx context.Context, id string, score float64, status string) error {
	now := time.Now()
	return r.update(ctx, id, bson.M{
		"plagiarismScore":  score,
		"plagiarismStatus": status,
		"status":           models.AbstractStatusSubmitted,
		"submittedAt":      now,
		"updatedAt":        now,
	})
}

func (r *AbstractsRepository) update(ctx context.Context, id string, set bson.M) error {
	matched, err := r.mongoRepo.UpdateOne(ctx, abstractsCollection, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update abstract: %w", err)
	}
	if !matched {
		return fmt.Errorf("failed to update abstract: %s not found", id)
	}

	return nil
}

func (r *AbstractsRepository) find(ctx context.Context, filter bson.M) ([]*models.AbstractSubmission, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := r.mongoRepo.FindMany(ctx, abstractsCollection, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find abstracts: %w", err)
	}
	defer cursor.Close(ctx)

	var abstracts []*models.AbstractSubmission
	if err := cursor.All(ctx, &abstracts); err != nil {
		return nil, fmt.Errorf("failed to decode abstracts: %w", err)
	}

	return abstracts, nil
}
