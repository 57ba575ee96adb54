// Package config 统一配置管理
//
// 配置加载策略：
//  1. 从 .env 加载敏感信息（密码、密钥）和 APP_ENV
//  2. 根据 APP_ENV 加载对应的 configs/{env}.yaml 配置文件
//  3. 环境变量可覆盖 YAML 配置
//
// 使用方式：
//   - 开发环境: APP_ENV=dev (默认)
//   - 测试环境: APP_ENV=test
//   - 生产环境: APP_ENV=prod
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"shop-api/internal/shared/objstore"
)

// Environment 环境类型
type Environment string

const (
	EnvProduction  Environment = "prod"
	EnvTest        Environment = "test" // 测试环境（集成测试 + E2E 共用）
	EnvDevelopment Environment = "dev"
)

// YAMLConfig YAML 配置文件结构
type YAMLConfig struct {
	Server  ServerConfig    `yaml:"server"`
	MongoDB MongoConfig     `yaml:"mongodb"`
	Redis   RedisConfig     `yaml:"redis"`
	Auth    AuthConfig      `yaml:"auth"`
	MinIO   objstore.Config `yaml:"minio"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

type MongoConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Database string `yaml:"database"`
}

type RedisConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	DB   int    `yaml:"db"`
}

// AuthConfig 认证相关配置（密钥与管理员密码来自环境变量）
type AuthConfig struct {
	AccessTokenTTL time.Duration `yaml:"access_token_ttl"`
	AdminEmail     string        `yaml:"admin_email"`
}

// Config 应用配置（最终使用的配置）
type Config struct {
	Env           Environment
	MongoURL      string
	MongoDatabase string
	RedisURL      string
	APIPort       string

	JWTSecret      string
	AccessTokenTTL time.Duration
	AdminEmail     string
	AdminPassword  string

	MinIO objstore.Config
}

var configPaths = []string{
	"configs",
	"../configs",
	"../../configs",
	"../../../configs",
}

var envPaths = []string{
	".env",
	"../.env",
	"../../.env",
	"../../../.env",
}

// Load 加载配置
// 1. 加载 .env（敏感信息 + APP_ENV）
// 2. 根据 APP_ENV 加载 configs/{env}.yaml
// 3. 构建最终配置
func Load() *Config {
	// 加载 .env
	for _, p := range envPaths {
		if err := godotenv.Load(p); err == nil {
			break
		}
	}

	// 解析环境
	env := parseEnv(getEnv("APP_ENV", "dev"))

	// 加载 YAML 配置
	yamlCfg := loadYAMLConfig(env)

	// 从环境变量获取敏感信息
	mongoPassword := getEnv("MONGO_PASSWORD", "")
	redisPassword := getEnv("REDIS_PASSWORD", "")

	cfg := &Config{
		Env:           env,
		MongoURL:      buildMongoURL(yamlCfg.MongoDB, mongoPassword),
		MongoDatabase: yamlCfg.MongoDB.Database,
		RedisURL:      buildRedisURL(yamlCfg.Redis, redisPassword),
		APIPort:       yamlCfg.Server.Port,

		JWTSecret:      getEnv("JWT_SECRET", ""),
		AccessTokenTTL: yamlCfg.Auth.AccessTokenTTL,
		AdminEmail:     getEnv("ADMIN_EMAIL", yamlCfg.Auth.AdminEmail),
		AdminPassword:  getEnv("ADMIN_PASSWORD", ""),

		MinIO: yamlCfg.MinIO,
	}

	// MinIO 凭证只来自环境变量
	cfg.MinIO.AccessKey = getEnv("MINIO_ACCESS_KEY", "")
	cfg.MinIO.SecretKey = getEnv("MINIO_SECRET_KEY", "")

	// 整条连接串覆盖（容器环境直接注入 URL 更方便）
	if url := os.Getenv("MONGO_URL"); url != "" {
		cfg.MongoURL = url
	}
	if url := os.Getenv("REDIS_URL"); url != "" {
		cfg.RedisURL = url
	}

	cfg.validate()
	return cfg
}

// loadYAMLConfig 加载 YAML 配置文件
// 加载顺序：默认值 → common.yaml → {env}.yaml
func loadYAMLConfig(env Environment) *YAMLConfig {
	// 1. 初始化默认值
	cfg := &YAMLConfig{
		Server:  ServerConfig{Port: "8080"},
		MongoDB: MongoConfig{Host: "localhost", Port: 27017, Database: "shop"},
		Redis:   RedisConfig{Host: "localhost", Port: 6379, DB: 0},
		Auth:    AuthConfig{AccessTokenTTL: 24 * time.Hour},
	}

	// 2. 加载 common.yaml（公共配置）
	for _, base := range configPaths {
		path := filepath.Join(base, "common.yaml")
		if data, err := os.ReadFile(path); err == nil {
			yaml.Unmarshal(data, cfg)
			break
		}
	}

	// 3. 加载 {env}.yaml（环境特定配置，覆盖公共配置）
	filename := fmt.Sprintf("%s.yaml", env)
	for _, base := range configPaths {
		path := filepath.Join(base, filename)
		if data, err := os.ReadFile(path); err == nil {
			yaml.Unmarshal(data, cfg)
			break
		}
	}

	return cfg
}

// buildMongoURL 构建 MongoDB 连接字符串
func buildMongoURL(m MongoConfig, password string) string {
	if m.User != "" && password != "" {
		return fmt.Sprintf("mongodb://%s:%s@%s:%d/%s?authSource=admin",
			m.User, password, m.Host, m.Port, m.Database)
	}
	return fmt.Sprintf("mongodb://%s:%d/%s", m.Host, m.Port, m.Database)
}

// buildRedisURL 构建 Redis 连接字符串
func buildRedisURL(r RedisConfig, password string) string {
	if password != "" {
		return fmt.Sprintf("redis://:%s@%s:%d/%d", password, r.Host, r.Port, r.DB)
	}
	return fmt.Sprintf("redis://%s:%d/%d", r.Host, r.Port, r.DB)
}

func parseEnv(env string) Environment {
	switch strings.ToLower(env) {
	case "test":
		return EnvTest
	case "prod", "production":
		return EnvProduction
	default:
		return EnvDevelopment
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// validate 填充默认值
func (c *Config) validate() {
	if c.APIPort == "" {
		c.APIPort = "8080"
	}
	if c.AccessTokenTTL == 0 {
		c.AccessTokenTTL = 24 * time.Hour
	}
	// 开发/测试环境允许缺省密钥，生产环境启动时由 main 检查
	if c.JWTSecret == "" && c.Env != EnvProduction {
		c.JWTSecret = "dev-insecure-secret"
	}
}

// IsProduction 是否为生产环境
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// IsTest 是否为测试环境
func (c *Config) IsTest() bool {
	return c.Env == EnvTest
}

// String 返回配置摘要（隐藏密码）
func (c *Config) String() string {
	return fmt.Sprintf("Config{Env: %s, Mongo: %s, Redis: %s, Port: %s}",
		c.Env, maskPassword(c.MongoURL), maskPassword(c.RedisURL), c.APIPort)
}

// maskPassword 隐藏密码
func maskPassword(url string) string {
	re := regexp.MustCompile(`(://[^:@/]*:)([^@]+)(@)`)
	return re.ReplaceAllString(url, "${1}***${3}")
}
