package api

import (
	"context"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
)

// TestOpenAPIDocument 测试嵌入的 OpenAPI 文档合法且覆盖核心路径
func TestOpenAPIDocument(t *testing.T) {
	data, err := OpenAPIFS.ReadFile("openapi/openapi.yaml")
	if err != nil {
		t.Fatalf("read embedded doc: %v", err)
	}

	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(data)
	if err != nil {
		t.Fatalf("load doc: %v", err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		t.Fatalf("validate doc: %v", err)
	}

	// 核心路径必须声明
	required := []string{
		"/health",
		"/api/v1/auth/register",
		"/api/v1/auth/login",
		"/api/v1/products",
		"/api/v1/products/{id}",
		"/api/v1/products/categories",
		"/api/v1/examples/{id}/increment",
	}
	for _, p := range required {
		if doc.Paths.Find(p) == nil {
			t.Errorf("path %s missing from document", p)
		}
	}
}

// TestDocsPage 测试嵌入的文档页面
func TestDocsPage(t *testing.T) {
	data, err := DocsFS.ReadFile("docs/index.html")
	if err != nil {
		t.Fatalf("read docs page: %v", err)
	}
	if len(data) == 0 {
		t.Error("docs page is empty")
	}
}
