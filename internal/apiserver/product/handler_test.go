package product

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"shop-api/internal/apiserver/auth"
	"shop-api/internal/shared/cache"
	"shop-api/internal/shared/model"
	"shop-api/internal/shared/storage"
	"shop-api/internal/shared/storage/memstore"
)

// testEnv 商品接口测试环境：内存存储 + 认证中间件 + 两个角色的令牌
type testEnv struct {
	store      *memstore.Store
	mux        *http.ServeMux
	adminToken string
	userToken  string
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWith(t, nil)
}

func newTestEnvWith(t *testing.T, images ImageStore) *testEnv {
	t.Helper()

	store := memstore.NewStore()
	cfg := auth.Config{JWTSecret: "test-secret", AccessTokenTTL: time.Hour}
	mw := auth.NewMiddleware(store, cache.NewMemoryCache(), cfg)

	seedUser := func(id, email string, role model.UserRole) string {
		if err := store.CreateUser(context.Background(), &model.User{
			ID: id, Name: "测试用户", Email: email, Role: role,
		}); err != nil {
			t.Fatalf("CreateUser: %v", err)
		}
		token, err := auth.GenerateAccessToken(cfg, id, email)
		if err != nil {
			t.Fatalf("GenerateAccessToken: %v", err)
		}
		return token
	}

	mux := http.NewServeMux()
	NewHandler(store, images).RegisterRoutes(mux, mw)

	return &testEnv{
		store:      store,
		mux:        mux,
		adminToken: seedUser("usr-admin", "admin@test.local", model.UserRoleAdmin),
		userToken:  seedUser("usr-plain", "user@test.local", model.UserRoleUser),
	}
}

// do 执行请求并解析响应信封
func (env *testEnv) do(t *testing.T, method, target, token string, body interface{}) (*httptest.ResponseRecorder, respEnvelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	env.mux.ServeHTTP(rec, req)

	var envl respEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &envl); err != nil {
		t.Fatalf("decode envelope: %v (body=%s)", err, rec.Body.String())
	}
	return rec, envl
}

type respEnvelope struct {
	Success    bool                `json:"success"`
	Data       json.RawMessage     `json:"data"`
	Count      *int                `json:"count"`
	Pagination *storage.Pagination `json:"pagination"`
	Error      string              `json:"error"`
	Errors     []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"errors"`
}

func validProduct(name string, price float64) map[string]interface{} {
	return map[string]interface{}{
		"name":        name,
		"description": "描述",
		"price":       price,
		"category":    "electronics",
	}
}

// seedProducts 直接写存储层，绕过 HTTP
func (env *testEnv) seedProducts(t *testing.T, n int, category string) {
	t.Helper()
	base := time.Now().Add(-time.Hour)
	for i := 0; i < n; i++ {
		p := &model.Product{
			ID:          fmt.Sprintf("prod-%s-%03d", category, i),
			Name:        fmt.Sprintf("%s item %d", category, i),
			Description: "seeded",
			Price:       float64(i + 1),
			Category:    category,
			InStock:     true,
			Tags:        []string{},
			CreatedAt:   base.Add(time.Duration(i) * time.Second),
			UpdatedAt:   base,
		}
		if err := env.store.CreateProduct(context.Background(), p); err != nil {
			t.Fatalf("seed product: %v", err)
		}
	}
}

// TestCreateProduct_AuthMatrix 测试创建接口的认证/授权矩阵
func TestCreateProduct_AuthMatrix(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name       string
		token      string
		wantStatus int
	}{
		{"无令牌拒绝", "", http.StatusUnauthorized},
		{"普通用户禁止", env.userToken, http.StatusForbidden},
		{"管理员允许", env.adminToken, http.StatusCreated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, envl := env.do(t, "POST", "/api/v1/products", tt.token, validProduct("键盘", 199))
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body=%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if (rec.Code == http.StatusCreated) != envl.Success {
				t.Errorf("success = %v, status = %d", envl.Success, rec.Code)
			}
		})
	}
}

// TestCreateProduct_Defaults 测试省略字段的默认值
func TestCreateProduct_Defaults(t *testing.T) {
	env := newTestEnv(t)

	rec, envl := env.do(t, "POST", "/api/v1/products", env.adminToken, validProduct("鼠标", 99))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var p model.Product
	if err := json.Unmarshal(envl.Data, &p); err != nil {
		t.Fatalf("decode product: %v", err)
	}
	if !p.InStock {
		t.Error("InStock should default to true")
	}
	if p.Quantity != 0 {
		t.Errorf("Quantity = %d, want 0", p.Quantity)
	}
	if p.Tags == nil {
		t.Error("Tags should be [] not null")
	}
	if p.ID == "" {
		t.Error("ID should be generated")
	}
}

// TestCreateProduct_InStockFalse 测试显式 false 不被默认值覆盖
func TestCreateProduct_InStockFalse(t *testing.T) {
	env := newTestEnv(t)

	body := validProduct("断货商品", 10)
	body["in_stock"] = false
	_, envl := env.do(t, "POST", "/api/v1/products", env.adminToken, body)

	var p model.Product
	if err := json.Unmarshal(envl.Data, &p); err != nil {
		t.Fatalf("decode product: %v", err)
	}
	if p.InStock {
		t.Error("InStock = true, want false")
	}
}

// TestCreateProduct_ValidationAggregated 测试校验错误一次性返回全部字段
func TestCreateProduct_ValidationAggregated(t *testing.T) {
	env := newTestEnv(t)

	body := map[string]interface{}{"price": -1}
	rec, envl := env.do(t, "POST", "/api/v1/products", env.adminToken, body)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if envl.Success {
		t.Error("success should be false")
	}
	// name / description / price / category 四个字段都应失败
	if len(envl.Errors) < 4 {
		t.Errorf("errors = %d, want >= 4 (%v)", len(envl.Errors), envl.Errors)
	}
}

// TestGetProduct_NotFound 测试不存在与格式非法的 ID 一律 404
func TestGetProduct_NotFound(t *testing.T) {
	env := newTestEnv(t)

	for _, id := range []string{"prod-missing", "not-even-an-id", "123"} {
		rec, envl := env.do(t, "GET", "/api/v1/products/"+id, "", nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("GET %s status = %d, want 404", id, rec.Code)
		}
		if envl.Success {
			t.Error("success should be false")
		}
	}
}

// TestListProducts_Pagination 测试分页窗口与摘要
func TestListProducts_Pagination(t *testing.T) {
	env := newTestEnv(t)
	env.seedProducts(t, 25, "books")

	rec, envl := env.do(t, "GET", "/api/v1/products?page=2&limit=10", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	if envl.Count == nil || *envl.Count != 10 {
		t.Errorf("count = %v, want 10", envl.Count)
	}
	p := envl.Pagination
	if p == nil {
		t.Fatal("pagination missing")
	}
	if p.TotalItems != 25 {
		t.Errorf("TotalItems = %d, want 25", p.TotalItems)
	}
	if p.TotalPages != 3 {
		t.Errorf("TotalPages = %d, want 3", p.TotalPages)
	}
	if p.Next == nil || p.Next.Page != 3 {
		t.Errorf("Next = %v, want page 3", p.Next)
	}
	if p.Prev == nil || p.Prev.Page != 1 {
		t.Errorf("Prev = %v, want page 1", p.Prev)
	}
}

// TestListProducts_LastPage 测试末页无 next
func TestListProducts_LastPage(t *testing.T) {
	env := newTestEnv(t)
	env.seedProducts(t, 25, "books")

	_, envl := env.do(t, "GET", "/api/v1/products?page=3&limit=10", "", nil)

	if envl.Count == nil || *envl.Count != 5 {
		t.Errorf("count = %v, want 5", envl.Count)
	}
	if envl.Pagination.Next != nil {
		t.Errorf("Next = %v, want nil", envl.Pagination.Next)
	}
	if envl.Pagination.Prev == nil || envl.Pagination.Prev.Page != 2 {
		t.Errorf("Prev = %v, want page 2", envl.Pagination.Prev)
	}
}

// TestListProducts_FieldFilter 测试逐字段操作符过滤
func TestListProducts_FieldFilter(t *testing.T) {
	env := newTestEnv(t)
	env.seedProducts(t, 10, "books") // 价格 1..10

	_, envl := env.do(t, "GET", "/api/v1/products?price[gte]=8&limit=100", "", nil)

	var items []model.Product
	if err := json.Unmarshal(envl.Data, &items); err != nil {
		t.Fatalf("decode items: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("items = %d, want 3", len(items))
	}
	for _, p := range items {
		if p.Price < 8 {
			t.Errorf("price %v < 8 should be filtered out", p.Price)
		}
	}
}

// TestListProducts_SearchDiscardsFilters 测试搜索优先于其他过滤条件
func TestListProducts_SearchDiscardsFilters(t *testing.T) {
	env := newTestEnv(t)
	env.seedProducts(t, 5, "books")
	env.seedProducts(t, 5, "games")

	// category=books 与 search=games 同时出现时，搜索完全替换过滤器
	_, envl := env.do(t, "GET", "/api/v1/products?category=books&search=games&limit=100", "", nil)

	var items []model.Product
	if err := json.Unmarshal(envl.Data, &items); err != nil {
		t.Fatalf("decode items: %v", err)
	}
	if len(items) != 5 {
		t.Fatalf("items = %d, want 5", len(items))
	}
	for _, p := range items {
		if p.Category != "games" {
			t.Errorf("category = %q, want games", p.Category)
		}
	}
}

// TestListProducts_PriceRange 测试 minPrice/maxPrice 区间
func TestListProducts_PriceRange(t *testing.T) {
	env := newTestEnv(t)
	env.seedProducts(t, 10, "books") // 价格 1..10

	_, envl := env.do(t, "GET", "/api/v1/products?minPrice=3&maxPrice=5&limit=100", "", nil)

	var items []model.Product
	if err := json.Unmarshal(envl.Data, &items); err != nil {
		t.Fatalf("decode items: %v", err)
	}
	if len(items) != 3 {
		t.Errorf("items = %d, want 3", len(items))
	}
}

// TestListProducts_Sort 测试排序
func TestListProducts_Sort(t *testing.T) {
	env := newTestEnv(t)
	env.seedProducts(t, 5, "books")

	_, envl := env.do(t, "GET", "/api/v1/products?sort=-price", "", nil)

	var items []model.Product
	if err := json.Unmarshal(envl.Data, &items); err != nil {
		t.Fatalf("decode items: %v", err)
	}
	for i := 1; i < len(items); i++ {
		if items[i].Price > items[i-1].Price {
			t.Errorf("items not sorted desc by price: %v then %v", items[i-1].Price, items[i].Price)
		}
	}
}

// TestUpdateProduct 测试整体替换
func TestUpdateProduct(t *testing.T) {
	env := newTestEnv(t)
	env.seedProducts(t, 1, "books")
	id := "prod-books-000"

	body := validProduct("新名字", 42)
	rec, envl := env.do(t, "PUT", "/api/v1/products/"+id, env.adminToken, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var p model.Product
	if err := json.Unmarshal(envl.Data, &p); err != nil {
		t.Fatalf("decode product: %v", err)
	}
	if p.Name != "新名字" || p.Price != 42 {
		t.Errorf("product = %+v, replace not applied", p)
	}

	// 不存在的 ID
	rec, _ = env.do(t, "PUT", "/api/v1/products/prod-missing", env.adminToken, body)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

// TestPatchProduct 测试部分更新只改提供的字段
func TestPatchProduct(t *testing.T) {
	env := newTestEnv(t)
	env.seedProducts(t, 1, "books")
	id := "prod-books-000"

	rec, envl := env.do(t, "PATCH", "/api/v1/products/"+id, env.adminToken,
		map[string]interface{}{"price": 77.5})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var p model.Product
	if err := json.Unmarshal(envl.Data, &p); err != nil {
		t.Fatalf("decode product: %v", err)
	}
	if p.Price != 77.5 {
		t.Errorf("Price = %v, want 77.5", p.Price)
	}
	if p.Name != "books item 0" {
		t.Errorf("Name = %q, should be unchanged", p.Name)
	}

	// 合并结果仍需通过校验
	rec, _ = env.do(t, "PATCH", "/api/v1/products/"+id, env.adminToken,
		map[string]interface{}{"price": -5})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

// TestDeleteProduct 测试删除与删除后 404
func TestDeleteProduct(t *testing.T) {
	env := newTestEnv(t)
	env.seedProducts(t, 1, "books")
	id := "prod-books-000"

	rec, envl := env.do(t, "DELETE", "/api/v1/products/"+id, env.adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !envl.Success {
		t.Error("success should be true")
	}

	rec, _ = env.do(t, "GET", "/api/v1/products/"+id, "", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status after delete = %d, want 404", rec.Code)
	}

	rec, _ = env.do(t, "DELETE", "/api/v1/products/"+id, env.adminToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
}

// TestBulkCreate 测试批量创建
func TestBulkCreate(t *testing.T) {
	env := newTestEnv(t)

	t.Run("数组请求成功", func(t *testing.T) {
		body := []map[string]interface{}{
			validProduct("甲", 1),
			validProduct("乙", 2),
		}
		rec, _ := env.do(t, "POST", "/api/v1/products/bulk", env.adminToken, body)
		if rec.Code != http.StatusCreated {
			t.Errorf("status = %d, want 201 (body=%s)", rec.Code, rec.Body.String())
		}
	})

	t.Run("非数组请求 400", func(t *testing.T) {
		rec, _ := env.do(t, "POST", "/api/v1/products/bulk", env.adminToken, validProduct("丙", 3))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("空数组 400", func(t *testing.T) {
		rec, _ := env.do(t, "POST", "/api/v1/products/bulk", env.adminToken, []map[string]interface{}{})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

// TestCategories 测试分类列表去重
func TestCategories(t *testing.T) {
	env := newTestEnv(t)
	env.seedProducts(t, 3, "books")
	env.seedProducts(t, 3, "games")

	_, envl := env.do(t, "GET", "/api/v1/products/categories", "", nil)

	var categories []string
	if err := json.Unmarshal(envl.Data, &categories); err != nil {
		t.Fatalf("decode categories: %v", err)
	}
	if len(categories) != 2 {
		t.Errorf("categories = %v, want 2 distinct", categories)
	}
}

// TestUploadImage_NotConfigured 测试未配置对象存储时的降级
func TestUploadImage_NotConfigured(t *testing.T) {
	env := newTestEnv(t)
	env.seedProducts(t, 1, "books")

	rec, _ := env.do(t, "POST", "/api/v1/products/prod-books-000/image", env.adminToken, nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

// fakeImageStore 进程内对象存储，按 key 记录已存对象
type fakeImageStore struct {
	objects map[string]bool
}

func newFakeImageStore() *fakeImageStore {
	return &fakeImageStore{objects: map[string]bool{}}
}

func (f *fakeImageStore) PutObject(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	f.objects[key] = true
	return "/shop-test/" + key, nil
}

func (f *fakeImageStore) RemoveObject(ctx context.Context, key string) error {
	if !f.objects[key] {
		return fmt.Errorf("object not found: %s", key)
	}
	delete(f.objects, key)
	return nil
}

// TestUploadImage_DeleteCleansUp 测试上传图片后删除商品会清理对象存储
func TestUploadImage_DeleteCleansUp(t *testing.T) {
	images := newFakeImageStore()
	env := newTestEnvWith(t, images)
	env.seedProducts(t, 1, "books")
	id := "prod-books-000"

	// 构造 multipart 上传
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", "photo.png")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	part.Write([]byte("png-bytes"))
	mw.Close()

	req := httptest.NewRequest("POST", "/api/v1/products/"+id+"/image", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+env.adminToken)
	rec := httptest.NewRecorder()
	env.mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("upload status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var envl respEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &envl); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	var p model.Product
	if err := json.Unmarshal(envl.Data, &p); err != nil {
		t.Fatalf("decode product: %v", err)
	}
	if p.ImageURL == "" {
		t.Fatal("image_url should be set after upload")
	}
	if len(images.objects) != 1 {
		t.Fatalf("stored objects = %d, want 1", len(images.objects))
	}

	// 删除商品后对象一并清理
	delRec, _ := env.do(t, "DELETE", "/api/v1/products/"+id, env.adminToken, nil)
	if delRec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", delRec.Code)
	}
	if len(images.objects) != 0 {
		t.Errorf("stored objects after delete = %d, want 0", len(images.objects))
	}
}

// TestObjectKey 测试从图片 URL 还原对象 key
func TestObjectKey(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"/shop-api/products/prod-1/img-ab.png", "products/prod-1/img-ab.png"},
		{"/bucket-only", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := objectKey(tt.url); got != tt.want {
			t.Errorf("objectKey(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}
