package repository

import (
	"context"
	"errors"
	"fmt"

	"caseportal/internal/portal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoCaseRepository struct {
	Cases *mongo.Collection
}

func NewMongoCaseRepository(db *mongo.Database, collectionName string) *MongoCaseRepository {
	return &MongoCaseRepository{Cases: db.Collection(collectionName)}
}

func (r *MongoCaseRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		// Citizen listing: own cases, newest first
		{
			Keys: bson.D{
				{Key: "owner_id", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("idx_owner_created"),
		},
		// Officer queue: kind + status
		{
			Keys: bson.D{
				{Key: "kind", Value: 1},
				{Key: "status", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("idx_kind_status_created"),
		},
		{
			Keys:    bson.D{{Key: "assignee_id", Value: 1}},
			Options: options.Index().SetName("idx_assignee").SetSparse(true),
		},
	}

	_, err := r.Cases.Indexes().CreateMany(ctx, indexes)
	return err
}

func (r *MongoCaseRepository) CreateCase(ctx context.Context, c *model.Case) error {
	c.Version = 1
	if _, err := r.Cases.InsertOne(ctx, c); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *MongoCaseRepository) LoadCase(ctx context.Context, id string) (*model.Case, error) {
	var c model.Case
	err := r.Cases.FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// SaveCase replaces the document matched on {_id, version}. The replacement
// carries version+1, so of two writers starting from the same version only
// the first one matches.
func (r *MongoCaseRepository) SaveCase(ctx context.Context, c *model.Case, expectedVersion int64) error {
	next := c.Clone()
	next.Version = expectedVersion + 1

	res, err := r.Cases.ReplaceOne(ctx, bson.M{"_id": c.ID, "version": expectedVersion}, next)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		n, err := r.Cases.CountDocuments(ctx, bson.M{"_id": c.ID})
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		return fmt.Errorf("%w: case %s is no longer at version %d", ErrVersionConflict, c.ID, expectedVersion)
	}
	c.Version = next.Version
	return nil
}

func (r *MongoCaseRepository) ListCases(ctx context.Context, filter model.CaseFilter) ([]*model.Case, int64, error) {
	query := caseQuery(filter)

	total, err := r.Cases.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetSkip(int64((filter.Page - 1) * filter.Size)).
		SetLimit(int64(filter.Size))

	cursor, err := r.Cases.Find(ctx, query, findOptions)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	results := []*model.Case{}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

func caseQuery(filter model.CaseFilter) bson.M {
	query := bson.M{}
	if filter.Kind != "" {
		query["kind"] = filter.Kind
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.OwnerID != "" {
		query["owner_id"] = filter.OwnerID
	}
	if filter.AssigneeID != "" {
		query["assignee_id"] = filter.AssigneeID
	}

	if v := filter.Visibility; v != nil {
		or := bson.A{bson.M{"owner_id": v.OwnerID}}
		if len(v.Kinds) > 0 {
			or = append(or, bson.M{"kind": bson.M{"$in": v.Kinds}})
		}
		query["$or"] = or
	}
	return query
}
