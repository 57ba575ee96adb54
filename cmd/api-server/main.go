// Package main API Server 入口
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shop-api/internal/apiserver/auth"
	"shop-api/internal/apiserver/product"
	"shop-api/internal/apiserver/respond"
	"shop-api/internal/apiserver/server"
	"shop-api/internal/config"
	"shop-api/internal/shared/cache"
	cacheredis "shop-api/internal/shared/cache/redis"
	"shop-api/internal/shared/objstore"
	"shop-api/internal/shared/storage/mongostore"
)

func main() {
	// 加载配置（自动加载 .env，根据 APP_ENV 切换数据库和 Redis）
	cfg := config.Load()

	log.Printf("Starting API Server... [env=%s]", cfg.Env)
	log.Printf("Config: %s", cfg.String())

	if cfg.IsProduction() && cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set in production")
	}

	// 非生产环境错误响应携带堆栈
	respond.SetDebug(!cfg.IsProduction())

	// 初始化 MongoDB（持久化业务数据，启动时建索引）
	store, err := mongostore.NewStore(cfg.MongoURL, cfg.MongoDatabase)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer store.Close()
	log.Println("Connected to MongoDB")

	// 初始化 Redis（令牌吊销名单），失败时降级到进程内缓存
	var tokens cache.TokenCache
	if redisTokens, err := cacheredis.NewStoreFromURL(cfg.RedisURL); err != nil {
		log.Printf("Redis unavailable, falling back to in-memory token cache: %v", err)
		tokens = cache.NewMemoryCache()
	} else {
		defer redisTokens.Close()
		tokens = redisTokens
		log.Println("Connected to Redis")
	}

	// 初始化对象存储（可选，未配置则禁用图片上传）
	var images product.ImageStore
	if cfg.MinIO.Enabled() {
		client, err := objstore.NewClient(cfg.MinIO)
		if err != nil {
			log.Fatalf("Failed to connect to object storage: %v", err)
		}
		if err := client.EnsureBucket(context.Background()); err != nil {
			log.Fatalf("Failed to ensure bucket: %v", err)
		}
		images = client
		log.Println("Connected to object storage")
	}

	authCfg := auth.Config{
		JWTSecret:      cfg.JWTSecret,
		AccessTokenTTL: cfg.AccessTokenTTL,
	}

	// 管理员引导（配置了 ADMIN_EMAIL/ADMIN_PASSWORD 时自动创建）
	if err := auth.EnsureAdminUser(store, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Fatalf("Failed to ensure admin user: %v", err)
	}

	h := server.NewHandler(store, tokens, images, authCfg, string(cfg.Env))

	// 数据库查询指标与日志通过观测回调接入驱动层
	store.SetQueryObserver(h.DBQueryObserver())

	// 周期刷新商品/用户总量指标
	statsCtx, stopStats := context.WithCancel(context.Background())
	defer stopStats()
	go h.RunStatsUpdater(statsCtx, time.Minute)

	srv := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      h.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 优雅关闭
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("API Server listening on :%s", cfg.APIPort)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}

	fmt.Println("Server stopped")
}
