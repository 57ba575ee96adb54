// OpenAPI 文档端点
package server

import (
	"net/http"

	"shop-api/api"
)

// registerDocsRoutes 注册文档相关路由
//
//   - GET /api/docs         - 文档页面（Redoc）
//   - GET /api/openapi.yaml - OpenAPI 规格文件
func (h *Handler) registerDocsRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		data, err := api.OpenAPIFS.ReadFile("openapi/openapi.yaml")
		if err != nil {
			http.Error(w, "spec not found", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/yaml")
		w.Write(data)
	})

	mux.HandleFunc("GET /api/docs", func(w http.ResponseWriter, r *http.Request) {
		data, err := api.DocsFS.ReadFile("docs/index.html")
		if err != nil {
			http.Error(w, "docs not found", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(data)
	})
}
