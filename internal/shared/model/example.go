package model

import (
	"fmt"
	"time"
)

// MaxExampleTitleLen 示例标题长度上限
const MaxExampleTitleLen = 100

// Example 示例资源（演示用 CRUD 实体）
type Example struct {
	ID          string    `json:"id" bson:"_id"`
	Title       string    `json:"title" bson:"title"`
	Description string    `json:"description" bson:"description"`
	IsActive    bool      `json:"is_active" bson:"is_active"`
	Tags        []string  `json:"tags" bson:"tags"`
	Count       int       `json:"count" bson:"count"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}

// Validate 验证示例数据
func (e *Example) Validate() error {
	if e.Title == "" {
		return fmt.Errorf("example title is required")
	}
	if len(e.Title) > MaxExampleTitleLen {
		return fmt.Errorf("example title must be at most %d characters", MaxExampleTitleLen)
	}
	return nil
}

// ApplyDefaults 填充默认值
func (e *Example) ApplyDefaults() {
	if e.Tags == nil {
		e.Tags = []string{}
	}
}
