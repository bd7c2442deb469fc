package repository

import (
	"context"
	"fmt"
	"time"

	"dealflow/internal/models"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type auditMatchDocument struct {
	BuyerID   string  `bson:"buyer_id"`
	Recipient string  `bson:"recipient"`
	Score     float64 `bson:"score"`
}

type auditDocument struct {
	ID        string               `bson:"_id"`
	Event     string               `bson:"event"`
	DealID    string               `bson:"deal_id"`
	AIScore   float64              `bson:"ai_score"`
	AIReason  string               `bson:"ai_reason"`
	Matched   []auditMatchDocument `bson:"matched"`
	CreatedAt time.Time            `bson:"created_at"`
}

func toAuditDocument(rec *models.AuditRecord) auditDocument {
	matched := make([]auditMatchDocument, 0, len(rec.Matched))
	for _, m := range rec.Matched {
		matched = append(matched, auditMatchDocument{
			BuyerID:   m.BuyerID.String(),
			Recipient: m.Recipient,
			Score:     m.Score,
		})
	}
	return auditDocument{
		ID:        rec.ID.String(),
		Event:     rec.Event,
		DealID:    rec.DealID.String(),
		AIScore:   rec.AIScore,
		AIReason:  rec.AIReason,
		Matched:   matched,
		CreatedAt: rec.CreatedAt,
	}
}

// MongoAuditRepository keeps the audit trail in a MongoDB collection.
type MongoAuditRepository struct {
	collection *mongo.Collection
	logger     *zap.Logger
}

func NewMongoAuditRepository(client *mongo.Client, database, collection string, logger *zap.Logger) *MongoAuditRepository {
	return &MongoAuditRepository{
		collection: client.Database(database).Collection(collection),
		logger:     logger,
	}
}

func (r *MongoAuditRepository) Write(ctx context.Context, rec *models.AuditRecord) error {
	prepareAudit(rec)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.collection.InsertOne(ctx, toAuditDocument(rec)); err != nil {
		return fmt.Errorf("failed to insert audit record to Mongo: %w", err)
	}
	return nil
}
