package storage

import "testing"

// TestNewPagination 测试分页摘要计算
func TestNewPagination(t *testing.T) {
	tests := []struct {
		name           string
		total          int64
		page, limit    int
		wantTotalPages int64
		wantNext       int // 0 表示无
		wantPrev       int
	}{
		{"首页有下页", 25, 1, 10, 3, 2, 0},
		{"中间页前后都有", 25, 2, 10, 3, 3, 1},
		{"末页只有上页", 25, 3, 10, 3, 0, 2},
		{"恰好整除", 20, 2, 10, 2, 0, 1},
		{"单页", 5, 1, 10, 1, 0, 0},
		{"空集", 0, 1, 10, 0, 0, 0},
		{"limit 为 1", 3, 2, 1, 3, 3, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPagination(tt.total, tt.page, tt.limit)

			if p.TotalPages != tt.wantTotalPages {
				t.Errorf("TotalPages = %d, want %d", p.TotalPages, tt.wantTotalPages)
			}
			if tt.wantNext == 0 {
				if p.Next != nil {
					t.Errorf("Next = %+v, want nil", p.Next)
				}
			} else if p.Next == nil || p.Next.Page != tt.wantNext {
				t.Errorf("Next = %+v, want page %d", p.Next, tt.wantNext)
			}
			if tt.wantPrev == 0 {
				if p.Prev != nil {
					t.Errorf("Prev = %+v, want nil", p.Prev)
				}
			} else if p.Prev == nil || p.Prev.Page != tt.wantPrev {
				t.Errorf("Prev = %+v, want page %d", p.Prev, tt.wantPrev)
			}
		})
	}
}

// TestProductQuery_Normalize 测试分页默认值填充
func TestProductQuery_Normalize(t *testing.T) {
	q := ProductQuery{Page: -3, Limit: 0}
	q.Normalize()
	if q.Page != DefaultPage || q.Limit != DefaultLimit {
		t.Errorf("Normalize -> page=%d limit=%d", q.Page, q.Limit)
	}

	q = ProductQuery{Page: 4, Limit: 50}
	q.Normalize()
	if q.Page != 4 || q.Limit != 50 {
		t.Errorf("Normalize should keep valid values, got page=%d limit=%d", q.Page, q.Limit)
	}
	if q.Offset() != 150 {
		t.Errorf("Offset = %d, want 150", q.Offset())
	}
}
