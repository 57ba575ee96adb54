package mongostore

import (
	"context"
	"strconv"
	"time"

	"shop-api/internal/shared/model"
	"shop-api/internal/shared/storage"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ============================================================================
// ProductStore
// ============================================================================

func (s *Store) CreateProduct(ctx context.Context, product *model.Product) error {
	return insertOne(ctx, s, ColProducts, product)
}

func (s *Store) CreateProducts(ctx context.Context, products []*model.Product) error {
	docs := make([]interface{}, 0, len(products))
	for _, p := range products {
		docs = append(docs, p)
	}
	return insertMany(ctx, s, ColProducts, docs)
}

func (s *Store) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	return findOne[model.Product](ctx, s, ColProducts, bson.D{{Key: "_id", Value: id}})
}

// ListProducts 按查询条件返回窗口内商品及匹配总数
func (s *Store) ListProducts(ctx context.Context, q storage.ProductQuery) ([]*model.Product, int64, error) {
	q.Normalize()
	filter := buildProductFilter(q)

	total, err := countDocs(ctx, s, ColProducts, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(buildProductSort(q.Sort)).
		SetSkip(int64(q.Offset())).
		SetLimit(int64(q.Limit))
	if len(q.Select) > 0 {
		proj := bson.D{}
		for _, f := range q.Select {
			proj = append(proj, bson.E{Key: f, Value: 1})
		}
		opts = opts.SetProjection(proj)
	}

	items, err := findMany[model.Product](ctx, s, ColProducts, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *Store) ListCategories(ctx context.Context) ([]string, error) {
	start := time.Now()
	res := s.col(ColProducts).Distinct(ctx, "category", bson.D{})
	s.observeQuery("distinct", ColProducts, start, res.Err())
	if err := res.Err(); err != nil {
		return nil, wrapError(err)
	}
	var categories []string
	if err := res.Decode(&categories); err != nil {
		return nil, err
	}
	if categories == nil {
		categories = []string{}
	}
	return categories, nil
}

func (s *Store) ReplaceProduct(ctx context.Context, product *model.Product) error {
	return replaceByID(ctx, s, ColProducts, product.ID, product)
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	return deleteByID(ctx, s, ColProducts, id)
}

// ============================================================================
// 过滤器构建
// ============================================================================

// buildProductFilter 将 ProductQuery 翻译为 MongoDB 过滤器
//
// 优先级规则：Search 非空时丢弃其余全部条件（含价格区间），
// 过滤器整体被全文搜索替换。
func buildProductFilter(q storage.ProductQuery) bson.D {
	if q.Search != "" {
		return bson.D{{Key: "$text", Value: bson.D{{Key: "$search", Value: q.Search}}}}
	}

	// 按字段聚合操作符条件，price[gte] 与 price[lte] 合并为一个子文档
	eq := bson.D{}
	ops := map[string]bson.D{}
	for _, c := range q.Conditions {
		switch c.Op {
		case storage.OpEq:
			eq = append(eq, bson.E{Key: c.Field, Value: coerceValue(c.Field, c.Value)})
		case storage.OpIn:
			raw, _ := c.Value.([]string)
			vals := make([]interface{}, 0, len(raw))
			for _, v := range raw {
				vals = append(vals, coerceValue(c.Field, v))
			}
			ops[c.Field] = append(ops[c.Field], bson.E{Key: "$in", Value: vals})
		default:
			ops[c.Field] = append(ops[c.Field], bson.E{Key: "$" + string(c.Op), Value: coerceValue(c.Field, c.Value)})
		}
	}

	// 价格区间合并
	if q.MinPrice != nil {
		ops["price"] = append(ops["price"], bson.E{Key: "$gte", Value: *q.MinPrice})
	}
	if q.MaxPrice != nil {
		ops["price"] = append(ops["price"], bson.E{Key: "$lte", Value: *q.MaxPrice})
	}

	filter := eq
	for field, doc := range ops {
		filter = append(filter, bson.E{Key: field, Value: doc})
	}
	return filter
}

// buildProductSort 构建排序，空时默认 created_at 降序
func buildProductSort(sorts []storage.SortField) bson.D {
	if len(sorts) == 0 {
		return bson.D{{Key: "created_at", Value: -1}}
	}
	d := bson.D{}
	for _, sf := range sorts {
		v := 1
		if sf.Desc {
			v = -1
		}
		d = append(d, bson.E{Key: sf.Field, Value: v})
	}
	return d
}

// coerceValue 按字段类型转换查询字符串值
//
// 数值和布尔字段需要转换后才能与 BSON 中的类型匹配；
// 无法解析时保留原字符串（查询自然不命中，不报错）。
func coerceValue(field string, value interface{}) interface{} {
	s, ok := value.(string)
	if !ok {
		return value
	}
	switch field {
	case "price":
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	case "quantity", "count":
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	case "in_stock", "is_active", "email_verified":
		if b, err := strconv.ParseBool(s); err == nil {
			return b
		}
	}
	return s
}
