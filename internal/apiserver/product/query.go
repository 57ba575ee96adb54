// Package product 商品领域 - HTTP 处理与查询解析
package product

import (
	"net/url"
	"strconv"
	"strings"

	"shop-api/internal/shared/storage"
)

// 保留的控制参数，不参与过滤条件
var reservedKeys = map[string]bool{
	"select":   true,
	"sort":     true,
	"page":     true,
	"limit":    true,
	"search":   true,
	"minPrice": true,
	"maxPrice": true,
}

// 允许的字段操作符（field[op]=value 形式）
var validOps = map[string]storage.FilterOp{
	"gt":  storage.OpGt,
	"gte": storage.OpGte,
	"lt":  storage.OpLt,
	"lte": storage.OpLte,
	"in":  storage.OpIn,
}

// ParseListQuery 将查询字符串解析为 ProductQuery
//
// 逐字段解析操作符：price[gte]=10 成为 price 上的 $gte 条件，
// 绝不对序列化后的过滤器做整串替换。
// 非法的数值参数（page/limit/minPrice/maxPrice）静默回退到默认值或被丢弃。
func ParseListQuery(values url.Values) storage.ProductQuery {
	q := storage.ProductQuery{
		Search: strings.TrimSpace(values.Get("search")),
	}

	if f, err := strconv.ParseFloat(values.Get("minPrice"), 64); err == nil {
		q.MinPrice = &f
	}
	if f, err := strconv.ParseFloat(values.Get("maxPrice"), 64); err == nil {
		q.MaxPrice = &f
	}

	if n, err := strconv.Atoi(values.Get("page")); err == nil && n > 0 {
		q.Page = n
	}
	if n, err := strconv.Atoi(values.Get("limit")); err == nil && n > 0 {
		q.Limit = n
	}
	q.Normalize()

	if sel := values.Get("select"); sel != "" {
		q.Select = splitList(sel)
	}
	if sortSpec := values.Get("sort"); sortSpec != "" {
		for _, f := range splitList(sortSpec) {
			if strings.HasPrefix(f, "-") {
				q.Sort = append(q.Sort, storage.SortField{Field: f[1:], Desc: true})
			} else {
				q.Sort = append(q.Sort, storage.SortField{Field: f})
			}
		}
	}

	for key, vals := range values {
		if reservedKeys[key] || len(vals) == 0 || vals[0] == "" {
			continue
		}
		field, op, ok := parseFieldOp(key)
		if !ok {
			continue
		}
		if op == storage.OpIn {
			q.Conditions = append(q.Conditions, storage.Condition{
				Field: field, Op: op, Value: splitList(vals[0]),
			})
		} else {
			q.Conditions = append(q.Conditions, storage.Condition{
				Field: field, Op: op, Value: vals[0],
			})
		}
	}

	return q
}

// parseFieldOp 解析 "field" 或 "field[op]" 形式的查询键
func parseFieldOp(key string) (field string, op storage.FilterOp, ok bool) {
	open := strings.IndexByte(key, '[')
	if open < 0 {
		return key, storage.OpEq, key != ""
	}
	if !strings.HasSuffix(key, "]") || open == 0 {
		return "", "", false
	}
	field = key[:open]
	opName := key[open+1 : len(key)-1]
	fop, valid := validOps[opName]
	if !valid {
		return "", "", false
	}
	return field, fop, true
}

// splitList 分割逗号列表并去除空项
func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
