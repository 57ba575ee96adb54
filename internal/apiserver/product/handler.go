package product

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"shop-api/internal/apiserver/auth"
	"shop-api/internal/apiserver/respond"
	"shop-api/internal/shared/model"
	"shop-api/internal/shared/storage"
)

// maxImageSize 商品图片大小上限
const maxImageSize = 10 << 20 // 10 MiB

// ImageStore 商品图片对象存储接口（由 objstore.Client 实现）
type ImageStore interface {
	PutObject(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	RemoveObject(ctx context.Context, key string) error
}

// Handler 商品领域 HTTP 处理器
type Handler struct {
	store    storage.ProductStore
	images   ImageStore // 可为 nil（未配置对象存储）
	validate *validator.Validate
}

// NewHandler 创建商品处理器
func NewHandler(store storage.ProductStore, images ImageStore) *Handler {
	return &Handler{
		store:    store,
		images:   images,
		validate: validator.New(),
	}
}

// RegisterRoutes 注册商品相关路由
//
// 读接口公开，写接口仅限 admin。
func (h *Handler) RegisterRoutes(mux *http.ServeMux, mw *auth.Middleware) {
	admin := func(next http.HandlerFunc) http.HandlerFunc {
		return mw.Authenticate(mw.RequireRoles(model.UserRoleAdmin)(next))
	}

	mux.HandleFunc("GET /api/v1/products", h.List)
	mux.HandleFunc("GET /api/v1/products/categories", h.Categories)
	mux.HandleFunc("GET /api/v1/products/{id}", h.Get)
	mux.HandleFunc("POST /api/v1/products", admin(h.Create))
	mux.HandleFunc("POST /api/v1/products/bulk", admin(h.BulkCreate))
	mux.HandleFunc("PUT /api/v1/products/{id}", admin(h.Update))
	mux.HandleFunc("PATCH /api/v1/products/{id}", admin(h.Patch))
	mux.HandleFunc("DELETE /api/v1/products/{id}", admin(h.Delete))
	mux.HandleFunc("POST /api/v1/products/{id}/image", admin(h.UploadImage))
}

// ============================================================================
// 请求类型
// ============================================================================

// productRequest 创建/整体更新共用的请求体（PUT 为整体替换语义，重新校验）
type productRequest struct {
	Name        string   `json:"name" validate:"required,max=100"`
	Description string   `json:"description" validate:"required"`
	Price       *float64 `json:"price" validate:"required,gte=0"`
	Category    string   `json:"category" validate:"required"`
	InStock     *bool    `json:"in_stock"`
	Quantity    *int     `json:"quantity" validate:"omitempty,gte=0"`
	Tags        []string `json:"tags"`
}

// toProduct 构建商品实体并填充默认值（in_stock 默认 true，quantity 默认 0）
func (req *productRequest) toProduct(id string, createdAt time.Time) *model.Product {
	p := &model.Product{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		Price:       *req.Price,
		Category:    req.Category,
		InStock:     true,
		Tags:        req.Tags,
		CreatedAt:   createdAt,
		UpdatedAt:   time.Now(),
	}
	if req.InStock != nil {
		p.InStock = *req.InStock
	}
	if req.Quantity != nil {
		p.Quantity = *req.Quantity
	}
	p.ApplyDefaults()
	return p
}

// patchRequest 部分更新请求体（合并语义）
type patchRequest struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Category    *string  `json:"category,omitempty"`
	InStock     *bool    `json:"in_stock,omitempty"`
	Quantity    *int     `json:"quantity,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// ============================================================================
// Handlers
// ============================================================================

// List 获取商品列表（过滤/搜索/分页）
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := ParseListQuery(r.URL.Query())

	items, total, err := h.store.ListProducts(r.Context(), q)
	if err != nil {
		respond.HandleError(w, "[product.list]", err)
		return
	}

	respond.List(w, items, len(items), storage.NewPagination(total, q.Page, q.Limit))
}

// Get 获取商品详情
//
// 无法对应任何记录的标识符（包括格式非法的）一律 404。
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	product, err := h.store.GetProduct(r.Context(), id)
	if err != nil {
		respond.HandleError(w, "[product.get]", err)
		return
	}
	if product == nil {
		respond.Error(w, http.StatusNotFound, "product not found")
		return
	}

	respond.Data(w, http.StatusOK, product)
}

// Create 创建商品
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respond.ValidationError(w, err)
		return
	}

	product := req.toProduct(generateID("prod"), time.Now())
	if err := h.store.CreateProduct(r.Context(), product); err != nil {
		respond.HandleError(w, "[product.create]", err)
		return
	}

	log.Printf("[product] Product created: %s", product.ID)
	respond.Data(w, http.StatusCreated, product)
}

// BulkCreate 批量创建商品，请求体必须是数组
func (h *Handler) BulkCreate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxImageSize))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var reqs []productRequest
	if err := json.Unmarshal(body, &reqs); err != nil {
		respond.Error(w, http.StatusBadRequest, "request body must be an array of products")
		return
	}
	if len(reqs) == 0 {
		respond.Error(w, http.StatusBadRequest, "product array must not be empty")
		return
	}

	now := time.Now()
	products := make([]*model.Product, 0, len(reqs))
	for _, req := range reqs {
		if err := h.validate.Struct(req); err != nil {
			respond.ValidationError(w, err)
			return
		}
		products = append(products, req.toProduct(generateID("prod"), now))
	}

	if err := h.store.CreateProducts(r.Context(), products); err != nil {
		respond.HandleError(w, "[product.bulk]", err)
		return
	}

	log.Printf("[product] Bulk created %d products", len(products))
	respond.Data(w, http.StatusCreated, products)
}

// Categories 获取去重后的分类列表
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.store.ListCategories(r.Context())
	if err != nil {
		respond.HandleError(w, "[product.categories]", err)
		return
	}
	respond.Data(w, http.StatusOK, categories)
}

// Update 整体替换商品（重新校验全部字段）
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	existing, err := h.store.GetProduct(r.Context(), id)
	if err != nil {
		respond.HandleError(w, "[product.update]", err)
		return
	}
	if existing == nil {
		respond.Error(w, http.StatusNotFound, "product not found")
		return
	}

	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respond.ValidationError(w, err)
		return
	}

	product := req.toProduct(id, existing.CreatedAt)
	product.ImageURL = existing.ImageURL
	if err := h.store.ReplaceProduct(r.Context(), product); err != nil {
		respond.HandleError(w, "[product.update]", err)
		return
	}

	log.Printf("[product] Product updated: %s", id)
	respond.Data(w, http.StatusOK, product)
}

// Patch 部分更新商品（合并语义，合并结果重新校验）
func (h *Handler) Patch(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	product, err := h.store.GetProduct(r.Context(), id)
	if err != nil {
		respond.HandleError(w, "[product.patch]", err)
		return
	}
	if product == nil {
		respond.Error(w, http.StatusNotFound, "product not found")
		return
	}

	var req patchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.Category != nil {
		product.Category = *req.Category
	}
	if req.InStock != nil {
		product.InStock = *req.InStock
	}
	if req.Quantity != nil {
		product.Quantity = *req.Quantity
	}
	if req.Tags != nil {
		product.Tags = req.Tags
	}
	product.UpdatedAt = time.Now()

	if err := product.Validate(); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.ReplaceProduct(r.Context(), product); err != nil {
		respond.HandleError(w, "[product.patch]", err)
		return
	}

	log.Printf("[product] Product patched: %s", id)
	respond.Data(w, http.StatusOK, product)
}

// Delete 删除商品，成功返回空 data
//
// 已上传的图片一并从对象存储清理；清理失败只记日志，不影响删除结果。
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	product, err := h.store.GetProduct(r.Context(), id)
	if err != nil {
		respond.HandleError(w, "[product.delete]", err)
		return
	}
	if product == nil {
		respond.Error(w, http.StatusNotFound, "product not found")
		return
	}

	if err := h.store.DeleteProduct(r.Context(), id); err != nil {
		respond.HandleError(w, "[product.delete]", err)
		return
	}

	if h.images != nil && product.ImageURL != "" {
		if key := objectKey(product.ImageURL); key != "" {
			if err := h.images.RemoveObject(r.Context(), key); err != nil {
				log.Printf("[product] Failed to remove image for %s: %v", id, err)
			}
		}
	}

	log.Printf("[product] Product deleted: %s", id)
	respond.Data(w, http.StatusOK, map[string]interface{}{})
}

// UploadImage 上传商品图片到对象存储并记录 URL
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if h.images == nil {
		respond.Error(w, http.StatusServiceUnavailable, "image storage not configured")
		return
	}

	product, err := h.store.GetProduct(r.Context(), id)
	if err != nil {
		respond.HandleError(w, "[product.image]", err)
		return
	}
	if product == nil {
		respond.Error(w, http.StatusNotFound, "product not found")
		return
	}

	if err := r.ParseMultipartForm(maxImageSize); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "image file is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	key := "products/" + id + "/" + generateID("img") + path.Ext(header.Filename)
	url, err := h.images.PutObject(r.Context(), key, file, header.Size, contentType)
	if err != nil {
		respond.HandleError(w, "[product.image]", err)
		return
	}

	product.ImageURL = url
	product.UpdatedAt = time.Now()
	if err := h.store.ReplaceProduct(r.Context(), product); err != nil {
		respond.HandleError(w, "[product.image]", err)
		return
	}

	log.Printf("[product] Image uploaded for %s: %s", id, url)
	respond.Data(w, http.StatusOK, product)
}

// objectKey 从存储的 /bucket/key 形式 URL 取出桶内对象 key
func objectKey(imageURL string) string {
	trimmed := strings.TrimPrefix(imageURL, "/")
	if i := strings.IndexByte(trimmed, '/'); i >= 0 {
		return trimmed[i+1:]
	}
	return ""
}

func generateID(prefix string) string {
	b := make([]byte, 6)
	rand.Read(b)
	return prefix + "-" + hex.EncodeToString(b)
}
