package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/RishiKendai/veritas/internal/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	peerReportsCollection = "peer_reports"
	riskReportsCollection = "risk_reports"
)

type ReportsRepository struct {
	mongoRepo *MongoRepository
}

func NewReportsRepository(mongoRepo *MongoRepository) *ReportsRepository {
	return &ReportsRepository{
		mongoRepo: mongoRepo,
	}
}

func (r *ReportsRepository) InsertPeerReport(ctx context.Context, report *models.PeerReportRecord) error {
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	report.CreatedAt = time.Now()

	err := r.mongoRepo.InsertOne(ctx, peerReportsCollection, report)
	if err != nil {
		return fmt.Errorf("failed to insert peer report: %w", err)
	}

	return nil
}

func (r *ReportsRepository) InsertRiskReport(ctx context.Context, report *models.RiskReportRecord) error {
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	report.CreatedAt = time.Now()

	err := r.mongoRepo.InsertOne(ctx, riskReportsCollection, report)
	if err != nil {
		return fmt.Errorf("failed to insert risk report: %w", err)
	}

	return nil
}

// GetLatestRiskReport returns nil when the abstract has never been assessed.
func (r *ReportsRepository) GetLatestRiskReport(ctx context.Context, submissionID string) (*models.RiskReportRecord, error) {
	filter := bson.M{"submissionId": submissionID}
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	var report models.RiskReportRecord
	err := r.mongoRepo.FindOne(ctx, riskReportsCollection, filter, opts).Decode(&report)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find risk report: %w", err)
	}

	return &report, nil
}
