package model

import (
	"fmt"
	"time"
)

// MaxProductNameLen 商品名称长度上限
const MaxProductNameLen = 100

// Product 商品
//
// name/description/category 上建有组合全文索引（见 mongostore.ensureIndexes）。
type Product struct {
	ID          string    `json:"id" bson:"_id"`
	Name        string    `json:"name" bson:"name"`
	Description string    `json:"description" bson:"description"`
	Price       float64   `json:"price" bson:"price"`
	Category    string    `json:"category" bson:"category"`
	InStock     bool      `json:"in_stock" bson:"in_stock"`
	Quantity    int       `json:"quantity" bson:"quantity"`
	Tags        []string  `json:"tags" bson:"tags"`
	ImageURL    string    `json:"image_url,omitempty" bson:"image_url,omitempty"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}

// Validate 验证商品数据
func (p *Product) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("product name is required")
	}
	if len(p.Name) > MaxProductNameLen {
		return fmt.Errorf("product name must be at most %d characters", MaxProductNameLen)
	}
	if p.Description == "" {
		return fmt.Errorf("product description is required")
	}
	if p.Price < 0 {
		return fmt.Errorf("product price must be non-negative")
	}
	if p.Category == "" {
		return fmt.Errorf("product category is required")
	}
	if p.Quantity < 0 {
		return fmt.Errorf("product quantity must be non-negative")
	}
	return nil
}

// ApplyDefaults 填充默认值（tags 永不为 nil，保证 JSON 输出为 []）
func (p *Product) ApplyDefaults() {
	if p.Tags == nil {
		p.Tags = []string{}
	}
}
