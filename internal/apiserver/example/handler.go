// Package example 示例资源 - 基础 CRUD 与计数器
package example

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"shop-api/internal/apiserver/respond"
	"shop-api/internal/shared/model"
	"shop-api/internal/shared/storage"
)

// Handler 示例资源 HTTP 处理器
type Handler struct {
	store    storage.ExampleStore
	validate *validator.Validate
}

// NewHandler 创建示例资源处理器
func NewHandler(store storage.ExampleStore) *Handler {
	return &Handler{store: store, validate: validator.New()}
}

// RegisterRoutes 注册示例资源路由（全部公开）
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/examples", h.List)
	mux.HandleFunc("POST /api/v1/examples", h.Create)
	mux.HandleFunc("GET /api/v1/examples/{id}", h.Get)
	mux.HandleFunc("PUT /api/v1/examples/{id}", h.Update)
	mux.HandleFunc("PATCH /api/v1/examples/{id}", h.Patch)
	mux.HandleFunc("DELETE /api/v1/examples/{id}", h.Delete)
	mux.HandleFunc("GET /api/v1/examples/{id}/increment", h.Increment)
}

// exampleRequest 创建/更新共用的请求体
type exampleRequest struct {
	Title       string   `json:"title" validate:"required,max=100"`
	Description string   `json:"description"`
	IsActive    *bool    `json:"is_active"`
	Tags        []string `json:"tags"`
	Count       *int     `json:"count"`
}

// toExample 构建实体并填充默认值（is_active 默认 true）
func (req *exampleRequest) toExample(id string, createdAt time.Time) *model.Example {
	e := &model.Example{
		ID:          id,
		Title:       req.Title,
		Description: req.Description,
		IsActive:    true,
		Tags:        req.Tags,
		CreatedAt:   createdAt,
		UpdatedAt:   time.Now(),
	}
	if req.IsActive != nil {
		e.IsActive = *req.IsActive
	}
	if req.Count != nil {
		e.Count = *req.Count
	}
	e.ApplyDefaults()
	return e
}

// List 分页获取示例列表
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, limit := storage.DefaultPage, storage.DefaultLimit
	if n, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && n > 0 {
		page = n
	}
	if n, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && n > 0 {
		limit = n
	}

	items, total, err := h.store.ListExamples(r.Context(), page, limit)
	if err != nil {
		respond.HandleError(w, "[example.list]", err)
		return
	}

	respond.List(w, items, len(items), storage.NewPagination(total, page, limit))
}

// Get 获取单个示例
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	example, err := h.store.GetExample(r.Context(), r.PathValue("id"))
	if err != nil {
		respond.HandleError(w, "[example.get]", err)
		return
	}
	if example == nil {
		respond.Error(w, http.StatusNotFound, "example not found")
		return
	}
	respond.Data(w, http.StatusOK, example)
}

// Create 创建示例
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req exampleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respond.ValidationError(w, err)
		return
	}

	example := req.toExample(generateID(), time.Now())
	if err := h.store.CreateExample(r.Context(), example); err != nil {
		respond.HandleError(w, "[example.create]", err)
		return
	}

	log.Printf("[example] Example created: %s", example.ID)
	respond.Data(w, http.StatusCreated, example)
}

// Update 整体替换示例
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	existing, err := h.store.GetExample(r.Context(), id)
	if err != nil {
		respond.HandleError(w, "[example.update]", err)
		return
	}
	if existing == nil {
		respond.Error(w, http.StatusNotFound, "example not found")
		return
	}

	var req exampleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respond.ValidationError(w, err)
		return
	}

	example := req.toExample(id, existing.CreatedAt)
	if err := h.store.ReplaceExample(r.Context(), example); err != nil {
		respond.HandleError(w, "[example.update]", err)
		return
	}

	log.Printf("[example] Example updated: %s", id)
	respond.Data(w, http.StatusOK, example)
}

// patchRequest 部分更新请求体，指针字段区分"未提供"与零值
type patchRequest struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	IsActive    *bool    `json:"is_active"`
	Tags        []string `json:"tags"`
	Count       *int     `json:"count"`
}

// Patch 部分更新示例（合并语义，合并结果重新校验）
func (h *Handler) Patch(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	example, err := h.store.GetExample(r.Context(), id)
	if err != nil {
		respond.HandleError(w, "[example.patch]", err)
		return
	}
	if example == nil {
		respond.Error(w, http.StatusNotFound, "example not found")
		return
	}

	var req patchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Title != nil {
		example.Title = *req.Title
	}
	if req.Description != nil {
		example.Description = *req.Description
	}
	if req.IsActive != nil {
		example.IsActive = *req.IsActive
	}
	if req.Tags != nil {
		example.Tags = req.Tags
	}
	if req.Count != nil {
		example.Count = *req.Count
	}
	example.UpdatedAt = time.Now()

	if err := example.Validate(); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.ReplaceExample(r.Context(), example); err != nil {
		respond.HandleError(w, "[example.patch]", err)
		return
	}

	log.Printf("[example] Example patched: %s", id)
	respond.Data(w, http.StatusOK, example)
}

// Delete 删除示例
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := h.store.DeleteExample(r.Context(), id); err != nil {
		respond.HandleError(w, "[example.delete]", err)
		return
	}

	log.Printf("[example] Example deleted: %s", id)
	respond.Data(w, http.StatusOK, map[string]interface{}{})
}

// Increment 计数器自增，?value=N 指定步长（默认 1，非法值回退）
func (h *Handler) Increment(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	delta := 1
	if raw := r.URL.Query().Get("value"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			delta = n
		}
	}

	// 不存在的 id 由存储层映射为 ErrNotFound → 404
	example, err := h.store.IncrementExampleCount(r.Context(), id, delta)
	if err != nil {
		respond.HandleError(w, "[example.increment]", err)
		return
	}

	respond.Data(w, http.StatusOK, example)
}

func generateID() string {
	b := make([]byte, 6)
	rand.Read(b)
	return "exm-" + hex.EncodeToString(b)
}
