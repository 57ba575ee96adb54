package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryCache 内存版 TokenCache（用于测试和无 Redis 的开发环境）
type MemoryCache struct {
	mu      sync.RWMutex
	revoked map[string]time.Time // tokenID -> 过期时刻
}

var _ TokenCache = (*MemoryCache)(nil)

// NewMemoryCache 创建内存缓存实例
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{revoked: map[string]time.Time{}}
}

func (c *MemoryCache) RevokeToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.revoked[tokenID] = time.Now().Add(ttl)
	return nil
}

func (c *MemoryCache) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	expiry, ok := c.revoked[tokenID]
	if !ok {
		return false, nil
	}
	return time.Now().Before(expiry), nil
}

// Close 关闭缓存（空操作）
func (c *MemoryCache) Close() error {
	return nil
}
