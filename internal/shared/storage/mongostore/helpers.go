package mongostore

import (
	"context"
	"errors"
	"time"

	"shop-api/internal/shared/storage"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// wrapError 将 MongoDB 错误转换为领域错误
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return storage.ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return storage.ErrDuplicate
	}
	return err
}

// findOne 查找单个文档并解码到 result
// 文档不存在时返回 (nil, nil)，由调用方决定映射为 404
func findOne[T any](ctx context.Context, s *Store, colName string, filter bson.D) (*T, error) {
	start := time.Now()
	var result T
	err := s.col(colName).FindOne(ctx, filter).Decode(&result)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// 未命中不算查询失败
		s.observeQuery("find_one", colName, start, nil)
		return nil, nil
	}
	s.observeQuery("find_one", colName, start, err)
	if err != nil {
		return nil, wrapError(err)
	}
	return &result, nil
}

// findMany 查找多个文档
func findMany[T any](ctx context.Context, s *Store, colName string, filter bson.D, opts ...options.Lister[options.FindOptions]) ([]*T, error) {
	start := time.Now()
	cursor, err := s.col(colName).Find(ctx, filter, opts...)
	if err != nil {
		s.observeQuery("find", colName, start, err)
		return nil, wrapError(err)
	}
	defer cursor.Close(ctx)

	var results []*T
	for cursor.Next(ctx) {
		var item T
		if err := cursor.Decode(&item); err != nil {
			s.observeQuery("find", colName, start, err)
			return nil, err
		}
		results = append(results, &item)
	}
	err = cursor.Err()
	s.observeQuery("find", colName, start, err)
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []*T{}
	}
	return results, nil
}

// insertOne 插入单个文档
func insertOne(ctx context.Context, s *Store, colName string, doc interface{}) error {
	start := time.Now()
	_, err := s.col(colName).InsertOne(ctx, doc)
	s.observeQuery("insert_one", colName, start, err)
	return wrapError(err)
}

// insertMany 批量插入文档
func insertMany(ctx context.Context, s *Store, colName string, docs []interface{}) error {
	start := time.Now()
	_, err := s.col(colName).InsertMany(ctx, docs)
	s.observeQuery("insert_many", colName, start, err)
	return wrapError(err)
}

// replaceByID 按 _id 整体替换文档
func replaceByID(ctx context.Context, s *Store, colName string, id string, doc interface{}) error {
	start := time.Now()
	res, err := s.col(colName).ReplaceOne(ctx, bson.D{{Key: "_id", Value: id}}, doc)
	s.observeQuery("replace_one", colName, start, err)
	if err != nil {
		return wrapError(err)
	}
	if res.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// deleteByID 按 _id 删除
func deleteByID(ctx context.Context, s *Store, colName string, id string) error {
	start := time.Now()
	res, err := s.col(colName).DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	s.observeQuery("delete_one", colName, start, err)
	if err != nil {
		return wrapError(err)
	}
	if res.DeletedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// updateFields 按 _id 更新指定字段
func updateFields(ctx context.Context, s *Store, colName string, id string, update bson.D) error {
	start := time.Now()
	res, err := s.col(colName).UpdateOne(ctx, bson.D{{Key: "_id", Value: id}}, bson.D{{Key: "$set", Value: update}})
	s.observeQuery("update_one", colName, start, err)
	if err != nil {
		return wrapError(err)
	}
	if res.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// countDocs 统计匹配文档数
func countDocs(ctx context.Context, s *Store, colName string, filter bson.D) (int64, error) {
	start := time.Now()
	n, err := s.col(colName).CountDocuments(ctx, filter)
	s.observeQuery("count", colName, start, err)
	if err != nil {
		return 0, wrapError(err)
	}
	return n, nil
}
