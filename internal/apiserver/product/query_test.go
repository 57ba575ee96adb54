package product

import (
	"net/url"
	"reflect"
	"testing"

	"shop-api/internal/shared/storage"
)

// TestParseListQuery_Defaults 测试分页默认值
func TestParseListQuery_Defaults(t *testing.T) {
	q := ParseListQuery(url.Values{})

	if q.Page != storage.DefaultPage {
		t.Errorf("Page = %d, want %d", q.Page, storage.DefaultPage)
	}
	if q.Limit != storage.DefaultLimit {
		t.Errorf("Limit = %d, want %d", q.Limit, storage.DefaultLimit)
	}
	if len(q.Conditions) != 0 {
		t.Errorf("Conditions = %v, want empty", q.Conditions)
	}
}

// TestParseListQuery_Pagination 测试分页参数解析与非法值回退
func TestParseListQuery_Pagination(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantPage  int
		wantLimit int
	}{
		{"显式分页", "page=3&limit=25", 3, 25},
		{"非法 page 回退默认", "page=abc&limit=5", 1, 5},
		{"非法 limit 回退默认", "page=2&limit=xyz", 2, 10},
		{"零值回退默认", "page=0&limit=0", 1, 10},
		{"负值回退默认", "page=-1&limit=-5", 1, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, _ := url.ParseQuery(tt.query)
			q := ParseListQuery(values)

			if q.Page != tt.wantPage {
				t.Errorf("Page = %d, want %d", q.Page, tt.wantPage)
			}
			if q.Limit != tt.wantLimit {
				t.Errorf("Limit = %d, want %d", q.Limit, tt.wantLimit)
			}
		})
	}
}

// TestParseListQuery_FieldOps 测试逐字段操作符解析
func TestParseListQuery_FieldOps(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantField string
		wantOp    storage.FilterOp
		wantValue interface{}
	}{
		{"等值条件", "category=electronics", "category", storage.OpEq, "electronics"},
		{"gte 条件", "price[gte]=10.5", "price", storage.OpGte, "10.5"},
		{"gt 条件", "quantity[gt]=0", "quantity", storage.OpGt, "0"},
		{"lte 条件", "price[lte]=99", "price", storage.OpLte, "99"},
		{"lt 条件", "price[lt]=5", "price", storage.OpLt, "5"},
		{"in 条件拆分逗号", "category[in]=a,b,c", "category", storage.OpIn, []string{"a", "b", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, _ := url.ParseQuery(tt.query)
			q := ParseListQuery(values)

			if len(q.Conditions) != 1 {
				t.Fatalf("Conditions = %d, want 1", len(q.Conditions))
			}
			c := q.Conditions[0]
			if c.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", c.Field, tt.wantField)
			}
			if c.Op != tt.wantOp {
				t.Errorf("Op = %q, want %q", c.Op, tt.wantOp)
			}
			if !reflect.DeepEqual(c.Value, tt.wantValue) {
				t.Errorf("Value = %v, want %v", c.Value, tt.wantValue)
			}
		})
	}
}

// TestParseListQuery_InvalidOps 测试非法操作符被丢弃
func TestParseListQuery_InvalidOps(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"未知操作符", "price[regex]=x"},
		{"缺少右括号", "price[gte=10"},
		{"空字段名", "[gte]=10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, _ := url.ParseQuery(tt.query)
			q := ParseListQuery(values)
			if len(q.Conditions) != 0 {
				t.Errorf("Conditions = %v, want empty", q.Conditions)
			}
		})
	}
}

// TestParseListQuery_ReservedKeys 测试控制参数不产生过滤条件
func TestParseListQuery_ReservedKeys(t *testing.T) {
	values, _ := url.ParseQuery("page=2&limit=5&sort=-price&select=name,price&search=phone&minPrice=1&maxPrice=100")
	q := ParseListQuery(values)

	if len(q.Conditions) != 0 {
		t.Errorf("Conditions = %v, want empty", q.Conditions)
	}
	if q.Search != "phone" {
		t.Errorf("Search = %q, want %q", q.Search, "phone")
	}
	if q.MinPrice == nil || *q.MinPrice != 1 {
		t.Errorf("MinPrice = %v, want 1", q.MinPrice)
	}
	if q.MaxPrice == nil || *q.MaxPrice != 100 {
		t.Errorf("MaxPrice = %v, want 100", q.MaxPrice)
	}
}

// TestParseListQuery_InvalidPriceBounds 测试非法价格边界被丢弃
func TestParseListQuery_InvalidPriceBounds(t *testing.T) {
	values, _ := url.ParseQuery("minPrice=abc&maxPrice=")
	q := ParseListQuery(values)

	if q.MinPrice != nil {
		t.Errorf("MinPrice = %v, want nil", *q.MinPrice)
	}
	if q.MaxPrice != nil {
		t.Errorf("MaxPrice = %v, want nil", *q.MaxPrice)
	}
}

// TestParseListQuery_SortSelect 测试排序与投影解析
func TestParseListQuery_SortSelect(t *testing.T) {
	values, _ := url.ParseQuery("sort=-price,name&select=name, price ,category")
	q := ParseListQuery(values)

	wantSort := []storage.SortField{
		{Field: "price", Desc: true},
		{Field: "name", Desc: false},
	}
	if !reflect.DeepEqual(q.Sort, wantSort) {
		t.Errorf("Sort = %v, want %v", q.Sort, wantSort)
	}

	wantSelect := []string{"name", "price", "category"}
	if !reflect.DeepEqual(q.Select, wantSelect) {
		t.Errorf("Select = %v, want %v", q.Select, wantSelect)
	}
}

// TestParseListQuery_SearchTrimmed 测试搜索词去除首尾空白
func TestParseListQuery_SearchTrimmed(t *testing.T) {
	values := url.Values{"search": []string{"  laptop  "}}
	q := ParseListQuery(values)
	if q.Search != "laptop" {
		t.Errorf("Search = %q, want %q", q.Search, "laptop")
	}
}
