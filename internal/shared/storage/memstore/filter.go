package memstore

import (
	"sort"
	"strconv"
	"strings"

	"shop-api/internal/shared/model"
	"shop-api/internal/shared/storage"
)

// matchProduct 判断商品是否命中查询
//
// 与 mongostore 保持同一优先级：search 非空时忽略其余全部条件。
func matchProduct(p *model.Product, q storage.ProductQuery) bool {
	if q.Search != "" {
		term := strings.ToLower(q.Search)
		return strings.Contains(strings.ToLower(p.Name), term) ||
			strings.Contains(strings.ToLower(p.Description), term) ||
			strings.Contains(strings.ToLower(p.Category), term)
	}

	for _, c := range q.Conditions {
		if !matchCondition(p, c) {
			return false
		}
	}
	if q.MinPrice != nil && p.Price < *q.MinPrice {
		return false
	}
	if q.MaxPrice != nil && p.Price > *q.MaxPrice {
		return false
	}
	return true
}

func matchCondition(p *model.Product, c storage.Condition) bool {
	switch c.Field {
	case "price", "quantity":
		var actual float64
		if c.Field == "price" {
			actual = p.Price
		} else {
			actual = float64(p.Quantity)
		}
		return matchNumeric(actual, c)
	case "category":
		return matchString(p.Category, c)
	case "name":
		return matchString(p.Name, c)
	case "in_stock":
		want, err := strconv.ParseBool(asString(c.Value))
		if err != nil {
			return false
		}
		return p.InStock == want
	case "tags":
		return matchTags(p.Tags, c)
	default:
		// 未知字段永不命中，与不存在的 BSON 字段行为一致
		return false
	}
}

func matchNumeric(actual float64, c storage.Condition) bool {
	if c.Op == storage.OpIn {
		vals, _ := c.Value.([]string)
		for _, v := range vals {
			if f, err := strconv.ParseFloat(v, 64); err == nil && actual == f {
				return true
			}
		}
		return false
	}
	want, err := strconv.ParseFloat(asString(c.Value), 64)
	if err != nil {
		return false
	}
	switch c.Op {
	case storage.OpEq:
		return actual == want
	case storage.OpGt:
		return actual > want
	case storage.OpGte:
		return actual >= want
	case storage.OpLt:
		return actual < want
	case storage.OpLte:
		return actual <= want
	}
	return false
}

func matchString(actual string, c storage.Condition) bool {
	switch c.Op {
	case storage.OpEq:
		return actual == asString(c.Value)
	case storage.OpIn:
		vals, _ := c.Value.([]string)
		for _, v := range vals {
			if actual == v {
				return true
			}
		}
	}
	return false
}

func matchTags(tags []string, c storage.Condition) bool {
	// 数组字段：等值匹配命中任意元素即可（MongoDB 语义）
	switch c.Op {
	case storage.OpEq:
		want := asString(c.Value)
		for _, t := range tags {
			if t == want {
				return true
			}
		}
	case storage.OpIn:
		vals, _ := c.Value.([]string)
		for _, t := range tags {
			for _, v := range vals {
				if t == v {
					return true
				}
			}
		}
	}
	return false
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

// sortProducts 按排序规则排序，空规则时 created_at 降序
func sortProducts(items []*model.Product, sorts []storage.SortField) {
	if len(sorts) == 0 {
		sorts = []storage.SortField{{Field: "created_at", Desc: true}}
	}
	sort.SliceStable(items, func(i, j int) bool {
		for _, sf := range sorts {
			cmp := compareProducts(items[i], items[j], sf.Field)
			if cmp == 0 {
				continue
			}
			if sf.Desc {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
}

func compareProducts(a, b *model.Product, field string) int {
	switch field {
	case "name":
		return strings.Compare(a.Name, b.Name)
	case "category":
		return strings.Compare(a.Category, b.Category)
	case "price":
		switch {
		case a.Price < b.Price:
			return -1
		case a.Price > b.Price:
			return 1
		}
	case "quantity":
		return a.Quantity - b.Quantity
	case "created_at":
		switch {
		case a.CreatedAt.Before(b.CreatedAt):
			return -1
		case a.CreatedAt.After(b.CreatedAt):
			return 1
		}
	}
	return 0
}
