package auth

import (
	"log"
	"net/http"
	"strings"

	"shop-api/internal/apiserver/respond"
	"shop-api/internal/shared/cache"
	"shop-api/internal/shared/model"
	"shop-api/internal/shared/storage"
)

// Middleware 按路由挂载的认证/授权中间件
type Middleware struct {
	store  storage.UserStore
	tokens cache.TokenCache
	cfg    Config
}

// NewMiddleware 创建认证中间件
func NewMiddleware(store storage.UserStore, tokens cache.TokenCache, cfg Config) *Middleware {
	return &Middleware{store: store, tokens: tokens, cfg: cfg}
}

// Authenticate 认证中间件
//
// 提取 Bearer 令牌 → 验签验期 → 检查吊销名单 → 解析为存储中的用户记录
// （密码哈希永不序列化）→ 注入 context。任何一步失败返回 401。
func (m *Middleware) Authenticate(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			respond.Error(w, http.StatusUnauthorized, "no token")
			return
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			respond.Error(w, http.StatusUnauthorized, "no token")
			return
		}

		claims, err := ParseToken(m.cfg, parts[1])
		if err != nil {
			log.Printf("[auth] token parse error: %v", err)
			respond.Error(w, http.StatusUnauthorized, "invalid token")
			return
		}

		// 登出后的令牌在过期前一直处于吊销名单
		if revoked, err := m.tokens.IsTokenRevoked(r.Context(), claims.ID); err != nil {
			log.Printf("[auth] revocation check error: %v", err)
			respond.Error(w, http.StatusUnauthorized, "invalid token")
			return
		} else if revoked {
			respond.Error(w, http.StatusUnauthorized, "invalid token")
			return
		}

		// 每次请求重新解析用户，角色/状态变更立即生效
		user, err := m.store.GetUserByID(r.Context(), claims.Subject)
		if err != nil {
			log.Printf("[auth] GetUserByID error: %v", err)
			respond.Error(w, http.StatusUnauthorized, "user not found")
			return
		}
		if user == nil {
			respond.Error(w, http.StatusUnauthorized, "user not found")
			return
		}

		ctx := WithUser(r.Context(), user)
		ctx = withClaims(ctx, claims)
		next(w, r.WithContext(ctx))
	}
}

// RequireRoles 角色授权中间件，需在 Authenticate 之后挂载
//
// context 中无用户返回 401（理论上不应发生），角色不在许可集合返回 403。
func (m *Middleware) RequireRoles(roles ...model.UserRole) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			user := GetUser(r.Context())
			if user == nil {
				respond.Error(w, http.StatusUnauthorized, "no token")
				return
			}
			for _, role := range roles {
				if user.Role == role {
					next(w, r)
					return
				}
			}
			respond.Error(w, http.StatusForbidden, "insufficient role")
		}
	}
}

// AdminOnly Authenticate + admin 角色检查的便捷组合
func (m *Middleware) AdminOnly(next http.HandlerFunc) http.HandlerFunc {
	return m.Authenticate(m.RequireRoles(model.UserRoleAdmin)(next))
}
