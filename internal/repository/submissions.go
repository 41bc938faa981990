package repository

import (
	"context"
	"fmt"

	"github.com/RishiKendai/veritas/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const submissionsCollection = "assignment_submissions"

type SubmissionsRepository struct {
	mongoRepo *MongoRepository
}

func NewSubmissionsRepository(mongoRepo *MongoRepository) *SubmissionsRepository {
	return &SubmissionsRepository{
		mongoRepo: mongoRepo,
	}
}

// GetSubmission returns nil when no submission has the given id.
func (r *SubmissionsRepository) GetSubmission(ctx context.Context, id string) (*models.AssignmentSubmission, error) {
	var submission models.AssignmentSubmission
	err := r.mongoRepo.FindOne(ctx, submissionsCollection, bson.M{"_id": id}).Decode(&submission)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find submission: %w", err)
	}

	return &submission, nil
}

// GetPeerSubmissions returns the other students' submissions to an assignment
// in submission order.
func (r *SubmissionsRepository) GetPeerSubmissions(ctx context.Context, assignmentID, excludeStudentID string) ([]*models.AssignmentSubmission, error) {
	filter := bson.M{"assignmentId": assignmentID}
	if excludeStudentID != "" {
		filter["studentId"] = bson.M{"$ne": excludeStudentID}
	}
	return r.find(ctx, filter)
}

// ListByAssignment returns every submission to an assignment in submission order.
func (r *SubmissionsRepository) ListByAssignment(ctx context.Context, assignmentID string) ([]*models.AssignmentSubmission, error) {
	return r.find(ctx, bson.M{"assignmentId": assignmentID})
}

func (r *SubmissionsRepository) UpdatePlagiarismScore(ctx context.Context, id string, score float64) error {
	matched, err := r.mongoRepo.UpdateOne(ctx, submissionsCollection,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"plagiarismScore": score}},
	)
	if err != nil {
		return fmt.Errorf("failed to update plagiarism score: %w", err)
	}
	if !matched {
		return fmt.Errorf("failed to update plagiarism score: submission %s not found", id)
	}

	return nil
}

func (r *SubmissionsRepository) find(ctx context.Context, filter bson.M) ([]*models.AssignmentSubmission, error) {
	opts := options.Find().SetSort(bson.D{{Key: "submittedAt", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := r.mongoRepo.FindMany(ctx, submissionsCollection, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find submissions: %w", err)
	}
	defer cursor.Close(ctx)

	var submissions []*models.AssignmentSubmission
	if err := cursor.All(ctx, &submissions); err != nil {
		return nil, fmt.Errorf("failed to decode submissions: %w", err)
	}

	return submissions, nil
}
