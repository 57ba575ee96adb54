// Package cache 缓存层抽象接口
//
// 提供令牌吊销名单的存取能力，当前由 Redis 实现。
// 登出后的访问令牌在自然过期前一直保留在吊销名单中。
package cache

import (
	"context"
	"time"
)

// TokenCache 令牌吊销缓存接口
type TokenCache interface {
	// RevokeToken 将令牌 ID 加入吊销名单，ttl 为令牌剩余有效期
	RevokeToken(ctx context.Context, tokenID string, ttl time.Duration) error
	// IsTokenRevoked 检查令牌 ID 是否已吊销
	IsTokenRevoked(ctx context.Context, tokenID string) (bool, error)
	Close() error
}
