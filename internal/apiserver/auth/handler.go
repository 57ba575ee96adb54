package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"shop-api/internal/apiserver/respond"
	"shop-api/internal/shared/cache"
	"shop-api/internal/shared/model"
	"shop-api/internal/shared/storage"
)

// Handler 认证 HTTP 处理器
type Handler struct {
	store    storage.UserStore
	tokens   cache.TokenCache
	cfg      Config
	validate *validator.Validate
	mw       *Middleware
}

// NewHandler 创建认证处理器
func NewHandler(store storage.UserStore, tokens cache.TokenCache, cfg Config) *Handler {
	return &Handler{
		store:    store,
		tokens:   tokens,
		cfg:      cfg,
		validate: validator.New(),
		mw:       NewMiddleware(store, tokens, cfg),
	}
}

// RegisterRoutes 注册认证相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/auth/register", h.Register)
	mux.HandleFunc("POST /api/v1/auth/login", h.Login)
	mux.HandleFunc("POST /api/v1/auth/logout", h.mw.Authenticate(h.Logout))
	mux.HandleFunc("GET /api/v1/auth/me", h.mw.Authenticate(h.Me))
	mux.HandleFunc("PUT /api/v1/auth/password", h.mw.Authenticate(h.ChangePassword))
}

// ============================================================================
// 请求/响应类型
// ============================================================================

type registerRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

type authData struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

// ============================================================================
// Handlers
// ============================================================================

// Register 用户注册
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respond.ValidationError(w, err)
		return
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		respond.HandleError(w, "[auth.register]", err)
		return
	}

	now := time.Now()
	user := &model.User{
		ID:           generateID(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         model.UserRoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// 邮箱唯一性由存储层唯一索引保证，冲突映射为 409
	if err := h.store.CreateUser(r.Context(), user); err != nil {
		respond.HandleError(w, "[auth.register]", err)
		return
	}

	token, err := GenerateAccessToken(h.cfg, user.ID, user.Email)
	if err != nil {
		respond.HandleError(w, "[auth.register]", err)
		return
	}

	log.Printf("[auth] User registered: %s (%s)", user.Email, user.ID)
	respond.Data(w, http.StatusCreated, authData{User: user, Token: token})
}

// Login 用户登录
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respond.ValidationError(w, err)
		return
	}

	user, err := h.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		respond.HandleError(w, "[auth.login]", err)
		return
	}
	if user == nil || !CheckPassword(req.Password, user.PasswordHash) {
		respond.Error(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	token, err := GenerateAccessToken(h.cfg, user.ID, user.Email)
	if err != nil {
		respond.HandleError(w, "[auth.login]", err)
		return
	}

	log.Printf("[auth] User logged in: %s", user.Email)
	respond.Data(w, http.StatusOK, authData{User: user, Token: token})
}

// Logout 登出：把当前令牌加入吊销名单直到自然过期
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r.Context())
	if claims == nil {
		respond.Error(w, http.StatusUnauthorized, "no token")
		return
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if err := h.tokens.RevokeToken(r.Context(), claims.ID, ttl); err != nil {
		respond.HandleError(w, "[auth.logout]", err)
		return
	}

	log.Printf("[auth] User logged out: %s", claims.Subject)
	respond.Data(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// Me 获取当前用户信息
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	// Authenticate 已把存储层用户放入 context
	user := GetUser(r.Context())
	if user == nil {
		respond.Error(w, http.StatusUnauthorized, "no token")
		return
	}
	respond.Data(w, http.StatusOK, user)
}

// ChangePassword 修改密码
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user := GetUser(r.Context())
	if user == nil {
		respond.Error(w, http.StatusUnauthorized, "no token")
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respond.ValidationError(w, err)
		return
	}

	if !CheckPassword(req.OldPassword, user.PasswordHash) {
		respond.Error(w, http.StatusUnauthorized, "incorrect old password")
		return
	}

	hash, err := HashPassword(req.NewPassword)
	if err != nil {
		respond.HandleError(w, "[auth.password]", err)
		return
	}
	if err := h.store.UpdateUserPassword(r.Context(), user.ID, hash); err != nil {
		respond.HandleError(w, "[auth.password]", err)
		return
	}

	log.Printf("[auth] Password updated: %s", user.ID)
	respond.Data(w, http.StatusOK, map[string]string{"message": "password updated"})
}

// ============================================================================
// Admin Bootstrap
// ============================================================================

// EnsureAdminUser 确保管理员用户存在（启动时调用）
// 如果配置了 adminEmail 且数据库中不存在该用户，则自动创建
func EnsureAdminUser(store storage.UserStore, adminEmail, adminPassword string) error {
	if adminEmail == "" || adminPassword == "" {
		return nil
	}

	ctx := context.Background()
	existing, err := store.GetUserByEmail(ctx, adminEmail)
	if err != nil {
		return fmt.Errorf("check admin user: %w", err)
	}
	if existing != nil {
		log.Printf("[auth] Admin user already exists: %s (%s)", adminEmail, existing.ID)
		return nil
	}

	hash, err := HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	now := time.Now()
	user := &model.User{
		ID:            generateID(),
		Name:          "Admin",
		Email:         adminEmail,
		PasswordHash:  hash,
		Role:          model.UserRoleAdmin,
		EmailVerified: true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := store.CreateUser(ctx, user); err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}
	log.Printf("[auth] Created admin user: %s (%s)", adminEmail, user.ID)
	return nil
}

func generateID() string {
	return "usr-" + generateTokenID()[:12]
}
