package server

import (
	"net/http"
	"time"

	"shop-api/internal/apiserver/auth"
	"shop-api/internal/apiserver/example"
	"shop-api/internal/apiserver/product"
)

// Router 返回配置好的 HTTP 路由
//
// 路由规则：
//
// 健康检查:
//   - GET /health - 服务健康检查
//
// 认证 (Auth):
//   - POST /api/v1/auth/register - 注册
//   - POST /api/v1/auth/login    - 登录
//   - POST /api/v1/auth/logout   - 登出（吊销当前令牌）
//   - GET  /api/v1/auth/me       - 当前用户
//   - PUT  /api/v1/auth/password - 修改密码
//
// 商品 (Product):
//   - GET    /api/v1/products            - 列表（过滤/搜索/分页，公开）
//   - GET    /api/v1/products/categories - 分类列表（公开）
//   - GET    /api/v1/products/{id}       - 详情（公开）
//   - POST   /api/v1/products            - 创建（admin）
//   - POST   /api/v1/products/bulk       - 批量创建（admin）
//   - PUT    /api/v1/products/{id}       - 整体替换（admin）
//   - PATCH  /api/v1/products/{id}       - 部分更新（admin）
//   - DELETE /api/v1/products/{id}       - 删除（admin）
//   - POST   /api/v1/products/{id}/image - 上传图片（admin）
//
// 示例 (Example):
//   - GET    /api/v1/examples                - 列表
//   - POST   /api/v1/examples                - 创建
//   - GET    /api/v1/examples/{id}           - 详情
//   - PUT    /api/v1/examples/{id}           - 整体替换
//   - PATCH  /api/v1/examples/{id}           - 部分更新
//   - DELETE /api/v1/examples/{id}           - 删除
//   - GET    /api/v1/examples/{id}/increment - 计数器自增
func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	// 健康检查
	mux.HandleFunc("GET /health", h.Health)

	// Prometheus 指标端点
	mux.Handle("GET /metrics", MetricsHandler())

	// OpenAPI 文档
	h.registerDocsRoutes(mux)

	// Auth 路由（中间件共享同一份配置）
	authHandler := auth.NewHandler(h.store, h.tokens, h.authConfig)
	authHandler.RegisterRoutes(mux)

	mw := auth.NewMiddleware(h.store, h.tokens, h.authConfig)

	// Product 路由（写操作挂 admin 中间件）
	productHandler := product.NewHandler(h.store, h.images)
	productHandler.RegisterRoutes(mux, mw)

	// Example 路由
	exampleHandler := example.NewHandler(h.store)
	exampleHandler.RegisterRoutes(mux)

	// 应用指标与访问日志中间件到 REST API
	apiHandler := h.metrics.MetricsMiddleware(h.accessLogMiddleware(mux))

	// 应用 CORS 中间件
	return corsMiddleware(apiHandler)
}

// accessLogMiddleware 结构化访问日志
func (h *Handler) accessLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		h.logger.HTTPRequestLog(r.Method, r.URL.Path, wrapped.statusCode, time.Since(start), r.RemoteAddr)
	})
}

// corsMiddleware 添加 CORS 头支持跨域请求
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
