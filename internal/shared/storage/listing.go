package storage

// FilterOp 过滤条件操作符
type FilterOp string

const (
	OpEq  FilterOp = "eq"
	OpGt  FilterOp = "gt"
	OpGte FilterOp = "gte"
	OpLt  FilterOp = "lt"
	OpLte FilterOp = "lte"
	OpIn  FilterOp = "in"
)

// Condition 单个字段过滤条件
//
// Value 在 OpIn 时为 []string，其余为 string；
// 驱动层负责按字段类型做数值转换。
type Condition struct {
	Field string
	Op    FilterOp
	Value interface{}
}

// SortField 排序字段
type SortField struct {
	Field string
	Desc  bool
}

// ProductQuery 商品列表查询
//
// 优先级规则：Search 非空时忽略 Conditions 与价格区间，
// 整个过滤器被全文搜索替换。
type ProductQuery struct {
	Conditions []Condition
	Search     string
	MinPrice   *float64
	MaxPrice   *float64
	Select     []string    // 字段投影，空表示全部
	Sort       []SortField // 空表示默认 created_at 降序
	Page       int         // 1 起始
	Limit      int
}

const (
	DefaultPage  = 1
	DefaultLimit = 10
)

// Normalize 填充分页默认值
func (q *ProductQuery) Normalize() {
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	if q.Limit < 1 {
		q.Limit = DefaultLimit
	}
}

// Offset 计算跳过的文档数
func (q ProductQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// PageRef 相邻页描述
type PageRef struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Pagination 分页摘要
type Pagination struct {
	Page       int      `json:"page"`
	Limit      int      `json:"limit"`
	TotalItems int64    `json:"total_items"`
	TotalPages int64    `json:"total_pages"`
	Next       *PageRef `json:"next,omitempty"`
	Prev       *PageRef `json:"prev,omitempty"`
}

// NewPagination 构建分页摘要
//
// totalPages = ceil(total/limit)；
// next 仅在 page*limit < total 时存在，prev 仅在 page > 1 时存在。
func NewPagination(total int64, page, limit int) Pagination {
	totalPages := (total + int64(limit) - 1) / int64(limit)
	p := Pagination{
		Page:       page,
		Limit:      limit,
		TotalItems: total,
		TotalPages: totalPages,
	}
	if int64(page)*int64(limit) < total {
		p.Next = &PageRef{Page: page + 1, Limit: limit}
	}
	if page > 1 {
		p.Prev = &PageRef{Page: page - 1, Limit: limit}
	}
	return p
}
