// Package mongostore 实现基于 MongoDB 的 PersistentStore
//
// 使用 mongo-go-driver v2，通过 bson tag 实现 model 结构体的序列化/反序列化。
// 所有 Collection 名称和索引在 ensureIndexes 中统一管理。
package mongostore

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Collection 名称常量
const (
	ColUsers    = "users"
	ColProducts = "products"
	ColExamples = "examples"
)

// QueryObserver 查询观测回调，驱动层每次访问数据库后调用，
// 用于导出 Prometheus 指标与查询日志。
type QueryObserver func(operation, collection string, duration time.Duration, err error)

// Store 实现 storage.PersistentStore 接口的 MongoDB 驱动
type Store struct {
	client  *mongo.Client
	db      *mongo.Database
	observe QueryObserver
}

// NewStore 创建 MongoDB 存储实例
//
// uri: MongoDB 连接 URI，如 "mongodb://localhost:27017"
// dbName: 数据库名称，如 "shop_api"
func NewStore(uri, dbName string) (*Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongostore: connect failed: %w", err)
	}

	// 验证连接
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongostore: ping failed: %w", err)
	}

	db := client.Database(dbName)
	s := &Store{client: client, db: db}

	// 创建索引
	if err := s.ensureIndexes(ctx); err != nil {
		log.Printf("WARNING: mongostore: ensure indexes failed: %v", err)
	}

	return s, nil
}

// Close 关闭 MongoDB 连接
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// col 获取指定 Collection
func (s *Store) col(name string) *mongo.Collection {
	return s.db.Collection(name)
}

// SetQueryObserver 设置查询观测回调，启动装配阶段调用一次
func (s *Store) SetQueryObserver(fn QueryObserver) {
	s.observe = fn
}

// observeQuery 上报单次查询，未设置回调时为空操作
func (s *Store) observeQuery(operation, collection string, start time.Time, err error) {
	if s.observe != nil {
		s.observe(operation, collection, time.Since(start), err)
	}
}

// ensureIndexes 创建所有必要的索引
func (s *Store) ensureIndexes(ctx context.Context) error {
	type idx struct {
		col    string
		keys   bson.D
		unique bool
	}

	indexes := []idx{
		// users：邮箱唯一
		{ColUsers, bson.D{{Key: "email", Value: 1}}, true},

		// products
		{ColProducts, bson.D{{Key: "category", Value: 1}}, false},
		{ColProducts, bson.D{{Key: "price", Value: 1}}, false},
		{ColProducts, bson.D{{Key: "created_at", Value: -1}}, false},

		// examples
		{ColExamples, bson.D{{Key: "created_at", Value: -1}}, false},
	}

	for _, i := range indexes {
		model := mongo.IndexModel{Keys: i.keys}
		if i.unique {
			model.Options = options.Index().SetUnique(true)
		}
		if _, err := s.col(i.col).Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("create index on %s: %w", i.col, err)
		}
	}

	// products 组合全文索引：name + description + category
	textIdx := mongo.IndexModel{
		Keys: bson.D{
			{Key: "name", Value: "text"},
			{Key: "description", Value: "text"},
			{Key: "category", Value: "text"},
		},
	}
	if _, err := s.col(ColProducts).Indexes().CreateOne(ctx, textIdx); err != nil {
		return fmt.Errorf("create text index on %s: %w", ColProducts, err)
	}

	return nil
}
