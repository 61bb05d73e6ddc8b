package repository

import (
	"context"
	"time"

	"caseportal/internal/portal/model"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoAuditRepository implements AuditRepository using MongoDB
type MongoAuditRepository struct {
	Collection *mongo.Collection
}

func NewMongoAuditRepository(db *mongo.Database, collectionName string) *MongoAuditRepository {
	return &MongoAuditRepository{Collection: db.Collection(collectionName)}
}

func (r *MongoAuditRepository) EnsureAuditIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "case_id", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("idx_case_created"),
		},
		{
			Keys:    bson.D{{Key: "actor_id", Value: 1}},
			Options: options.Index().SetName("idx_actor"),
		},
	}

	_, err := r.Collection.Indexes().CreateMany(ctx, indexes)
	return err
}

// CreateAudit creates a new audit record (append-only)
func (r *MongoAuditRepository) CreateAudit(ctx context.Context, audit *model.CaseAudit) error {
	if audit.ID == "" {
		audit.ID = uuid.NewString()
	}
	if audit.CreatedAt.IsZero() {
		audit.CreatedAt = time.Now()
	}
	_, err := r.Collection.InsertOne(ctx, audit)
	return err
}

func (r *MongoAuditRepository) FindAudit(ctx context.Context, req model.GetCaseAuditReq) ([]*model.CaseAudit, int64, error) {
	filter := bson.M{"case_id": req.CaseID}

	if req.StartTime != nil || req.EndTime != nil {
		timeFilter := bson.M{}
		if req.StartTime != nil {
			timeFilter["$gte"] = *req.StartTime
		}
		if req.EndTime != nil {
			timeFilter["$lte"] = *req.EndTime
		}
		filter["created_at"] = timeFilter
	}

	total, err := r.Collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((req.Page - 1) * req.Size)).
		SetLimit(int64(req.Size))

	cursor, err := r.Collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	results := []*model.CaseAudit{}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, 0, err
	}
	return results, total, nil
}
