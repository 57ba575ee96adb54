package mongostore

import (
	"context"
	"errors"
	"time"

	"shop-api/internal/shared/model"
	"shop-api/internal/shared/storage"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ============================================================================
// ExampleStore
// ============================================================================

func (s *Store) CreateExample(ctx context.Context, example *model.Example) error {
	return insertOne(ctx, s, ColExamples, example)
}

func (s *Store) GetExample(ctx context.Context, id string) (*model.Example, error) {
	return findOne[model.Example](ctx, s, ColExamples, bson.D{{Key: "_id", Value: id}})
}

func (s *Store) ListExamples(ctx context.Context, page, limit int) ([]*model.Example, int64, error) {
	if page < 1 {
		page = storage.DefaultPage
	}
	if limit < 1 {
		limit = storage.DefaultLimit
	}

	total, err := countDocs(ctx, s, ColExamples, bson.D{})
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))
	items, err := findMany[model.Example](ctx, s, ColExamples, bson.D{}, opts)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *Store) ReplaceExample(ctx context.Context, example *model.Example) error {
	return replaceByID(ctx, s, ColExamples, example.ID, example)
}

func (s *Store) DeleteExample(ctx context.Context, id string) error {
	return deleteByID(ctx, s, ColExamples, id)
}

// IncrementExampleCount 通过 $inc 原子自增并返回更新后的文档
func (s *Store) IncrementExampleCount(ctx context.Context, id string, delta int) (*model.Example, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.D{
		{Key: "$inc", Value: bson.D{{Key: "count", Value: delta}}},
		{Key: "$set", Value: bson.D{{Key: "updated_at", Value: time.Now()}}},
	}

	start := time.Now()
	var result model.Example
	err := s.col(ColExamples).
		FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: id}}, update, opts).
		Decode(&result)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// 未命中不算查询失败
		s.observeQuery("find_one_and_update", ColExamples, start, nil)
		return nil, storage.ErrNotFound
	}
	s.observeQuery("find_one_and_update", ColExamples, start, err)
	if err != nil {
		return nil, wrapError(err)
	}
	return &result, nil
}
