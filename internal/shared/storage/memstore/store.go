// Package memstore 实现内存版 PersistentStore
//
// 用于 handler 层测试，语义与 mongostore 对齐：
// 唯一邮箱、全文搜索优先级、价格区间、分页窗口、原子自增。
// 全文搜索以 name/description/category 的子串匹配近似替代文本索引。
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"shop-api/internal/shared/model"
	"shop-api/internal/shared/storage"
)

// Store 内存存储
type Store struct {
	mu       sync.RWMutex
	users    map[string]*model.User
	products map[string]*model.Product
	examples map[string]*model.Example

	// 保持插入顺序，保证无排序字段时结果稳定
	productOrder []string
	exampleOrder []string
}

// 编译期接口检查
var _ storage.PersistentStore = (*Store)(nil)

// NewStore 创建内存存储实例
func NewStore() *Store {
	return &Store{
		users:    map[string]*model.User{},
		products: map[string]*model.Product{},
		examples: map[string]*model.Example{},
	}
}

// Close 关闭存储（空操作）
func (s *Store) Close() error {
	return nil
}

// ============================================================================
// UserStore
// ============================================================================

func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[user.ID]; exists {
		return storage.ErrDuplicate
	}
	for _, u := range s.users {
		if u.Email == user.Email {
			return storage.ErrDuplicate
		}
	}
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, id, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return storage.ErrNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]*model.User, 0, len(s.users))
	for _, u := range s.users {
		cp := *u
		users = append(users, &cp)
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].CreatedAt.After(users[j].CreatedAt)
	})
	return users, nil
}

// ============================================================================
// ProductStore
// ============================================================================

func (s *Store) CreateProduct(ctx context.Context, product *model.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertProductLocked(product)
}

func (s *Store) CreateProducts(ctx context.Context, products []*model.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range products {
		if err := s.insertProductLocked(p); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) insertProductLocked(product *model.Product) error {
	if _, exists := s.products[product.ID]; exists {
		return storage.ErrDuplicate
	}
	cp := *product
	s.products[product.ID] = &cp
	s.productOrder = append(s.productOrder, product.ID)
	return nil
}

func (s *Store) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (s *Store) ListProducts(ctx context.Context, q storage.ProductQuery) ([]*model.Product, int64, error) {
	q.Normalize()

	s.mu.RLock()
	var matched []*model.Product
	for _, id := range s.productOrder {
		p, ok := s.products[id]
		if !ok {
			continue
		}
		if matchProduct(p, q) {
			cp := *p
			matched = append(matched, &cp)
		}
	}
	s.mu.RUnlock()

	sortProducts(matched, q.Sort)

	total := int64(len(matched))
	start := q.Offset()
	if start > len(matched) {
		start = len(matched)
	}
	end := start + q.Limit
	if end > len(matched) {
		end = len(matched)
	}
	page := matched[start:end]
	if page == nil {
		page = []*model.Product{}
	}
	return page, total, nil
}

func (s *Store) ListCategories(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := map[string]bool{}
	categories := []string{}
	for _, p := range s.products {
		if !seen[p.Category] {
			seen[p.Category] = true
			categories = append(categories, p.Category)
		}
	}
	sort.Strings(categories)
	return categories, nil
}

func (s *Store) ReplaceProduct(ctx context.Context, product *model.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[product.ID]; !ok {
		return storage.ErrNotFound
	}
	cp := *product
	s.products[product.ID] = &cp
	return nil
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.products, id)
	return nil
}

// ============================================================================
// ExampleStore
// ============================================================================

func (s *Store) CreateExample(ctx context.Context, example *model.Example) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.examples[example.ID]; exists {
		return storage.ErrDuplicate
	}
	cp := *example
	s.examples[example.ID] = &cp
	s.exampleOrder = append(s.exampleOrder, example.ID)
	return nil
}

func (s *Store) GetExample(ctx context.Context, id string) (*model.Example, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.examples[id]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (s *Store) ListExamples(ctx context.Context, page, limit int) ([]*model.Example, int64, error) {
	if page < 1 {
		page = storage.DefaultPage
	}
	if limit < 1 {
		limit = storage.DefaultLimit
	}

	s.mu.RLock()
	all := make([]*model.Example, 0, len(s.examples))
	for _, id := range s.exampleOrder {
		if e, ok := s.examples[id]; ok {
			cp := *e
			all = append(all, &cp)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	total := int64(len(all))
	start := (page - 1) * limit
	if start > len(all) {
		start = len(all)
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	window := all[start:end]
	if window == nil {
		window = []*model.Example{}
	}
	return window, total, nil
}

func (s *Store) ReplaceExample(ctx context.Context, example *model.Example) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.examples[example.ID]; !ok {
		return storage.ErrNotFound
	}
	cp := *example
	s.examples[example.ID] = &cp
	return nil
}

func (s *Store) DeleteExample(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.examples[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.examples, id)
	return nil
}

func (s *Store) IncrementExampleCount(ctx context.Context, id string, delta int) (*model.Example, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.examples[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	e.Count += delta
	e.UpdatedAt = time.Now()
	cp := *e
	return &cp, nil
}
