// Package storage 定义持久化存储层抽象接口
//
// 设计原则：依赖倒置 (DIP)
//   - 调用方只依赖接口，不知道具体实现
//   - 具体实现在子包中：mongostore/（生产）、memstore/（测试）
//   - 初始化时通过依赖注入传入实现
package storage

import (
	"context"

	"shop-api/internal/shared/model"
)

// UserStore 用户存储接口
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	UpdateUserPassword(ctx context.Context, id, passwordHash string) error
	ListUsers(ctx context.Context) ([]*model.User, error)
}

// ProductStore 商品存储接口
type ProductStore interface {
	CreateProduct(ctx context.Context, product *model.Product) error
	CreateProducts(ctx context.Context, products []*model.Product) error
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	// ListProducts 返回查询窗口内的商品与匹配总数
	ListProducts(ctx context.Context, q ProductQuery) ([]*model.Product, int64, error)
	ListCategories(ctx context.Context) ([]string, error)
	ReplaceProduct(ctx context.Context, product *model.Product) error
	DeleteProduct(ctx context.Context, id string) error
}

// ExampleStore 示例存储接口
type ExampleStore interface {
	CreateExample(ctx context.Context, example *model.Example) error
	GetExample(ctx context.Context, id string) (*model.Example, error)
	ListExamples(ctx context.Context, page, limit int) ([]*model.Example, int64, error)
	ReplaceExample(ctx context.Context, example *model.Example) error
	DeleteExample(ctx context.Context, id string) error
	// IncrementExampleCount 原子自增 count 并返回更新后的实体
	IncrementExampleCount(ctx context.Context, id string, delta int) (*model.Example, error)
}

// PersistentStore 持久化存储组合接口
type PersistentStore interface {
	UserStore
	ProductStore
	ExampleStore
	Close() error
}
