// Package server 路由配置与核心基础设施
//
// 本包把各领域包（auth / product / example）的路由装配到统一的
// HTTP 入口，并承载跨领域的基础设施：
//   - handler.go: 路由装配与 CORS
//   - metrics.go: Prometheus 指标
//   - docs.go: OpenAPI 文档端点
package server

import (
	"context"
	"net/http"
	"time"

	"shop-api/internal/apiserver/auth"
	"shop-api/internal/apiserver/product"
	"shop-api/internal/apiserver/respond"
	"shop-api/internal/shared/cache"
	"shop-api/internal/shared/storage"
	"shop-api/pkg/logging"
)

// Handler API 处理器
//
// Handler 是所有 HTTP API 的入口，负责：
//   - 路由请求到各领域包
//   - 管理存储层、令牌缓存与对象存储依赖
type Handler struct {
	store  storage.PersistentStore // MongoDB 存储层（持久化业务数据）
	tokens cache.TokenCache        // 令牌吊销缓存（Redis，测试用内存实现）
	images product.ImageStore      // 商品图片对象存储，可为 nil

	authConfig auth.Config
	env        string

	metrics *Metrics        // Prometheus 指标
	logger  *logging.Logger // 结构化访问日志
}

// NewHandler 创建 Handler 实例
func NewHandler(store storage.PersistentStore, tokens cache.TokenCache, images product.ImageStore, authCfg auth.Config, env string) *Handler {
	return &Handler{
		store:      store,
		tokens:     tokens,
		images:     images,
		authConfig: authCfg,
		env:        env,
		metrics:    NewMetrics("shop"),
		logger:     logging.Default("api-server"),
	}
}

// GetMetrics 返回指标实例
func (h *Handler) GetMetrics() *Metrics {
	return h.metrics
}

// DBQueryObserver 返回数据库查询观测回调，启动时注入存储驱动。
// 每次查询同时记录 Prometheus 指标与结构化日志。
func (h *Handler) DBQueryObserver() func(operation, collection string, duration time.Duration, err error) {
	return func(operation, collection string, duration time.Duration, err error) {
		h.metrics.RecordDBQuery(operation, collection, duration)
		h.logger.DBQueryLog(operation, collection, duration, err)
	}
}

// RunStatsUpdater 周期性刷新业务规模指标，直到 ctx 取消
func (h *Handler) RunStatsUpdater(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		h.refreshStats(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// refreshStats 把商品与用户总数写入 Gauge
func (h *Handler) refreshStats(ctx context.Context) {
	if _, total, err := h.store.ListProducts(ctx, storage.ProductQuery{Page: 1, Limit: 1}); err == nil {
		h.metrics.SetProductsCount(total)
	}
	if users, err := h.store.ListUsers(ctx); err == nil {
		h.metrics.SetUsersCount(len(users))
	}
}

// Health 健康检查接口
//
// 路由: GET /health
//
// 用于负载均衡器和监控系统检查服务状态。
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respond.Data(w, http.StatusOK, map[string]string{
		"status":      "ok",
		"environment": h.env,
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
	})
}
