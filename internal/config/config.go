package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	defaultTokenTTL       = 30 * time.Minute
	defaultLoginRateLimit = 10
)

// AppConfig 汇总运行服务所需的基础配置，启动时构建一次后只读传递。
type AppConfig struct {
	ListenAddr     string
	Port           string
	DatabaseDriver string
	DatabasePath   string
	DatabaseDSN    string
	SessionSecret  string
	TokenSecret    string
	TokenTTL       time.Duration
	BcryptCost     int
	GinMode        string
	TemplateGlob   string
	StaticDir      string
	CookieSecure   bool
	LoginRateLimit int
	RedisAddr      string
	LogLevel       string
	LogDev         bool
}

// Load 从环境变量读取应用配置，并为缺失项提供安全的默认值。
func Load() AppConfig {
	port := envString("PORT", "8000")

	listenAddr := envString("LISTEN_ADDR", fmt.Sprintf(":%s", port))

	driver := strings.ToLower(envString("DATABASE_DRIVER", "sqlite"))
	if driver != "postgres" {
		driver = "sqlite"
	}

	sessionSecret := envString("SESSION_SECRET", "routinelog-dev-secret")

	// 未单独配置时复用会话密钥签发访问令牌
	tokenSecret := envString("TOKEN_SECRET", sessionSecret)

	return AppConfig{
		ListenAddr:     listenAddr,
		Port:           port,
		DatabaseDriver: driver,
		DatabasePath:   envString("DATABASE_PATH", "users.db"),
		DatabaseDSN:    envString("DATABASE_URL", ""),
		SessionSecret:  sessionSecret,
		TokenSecret:    tokenSecret,
		TokenTTL:       envDuration("TOKEN_TTL", defaultTokenTTL),
		BcryptCost:     envBcryptCost("BCRYPT_COST"),
		GinMode:        envString("GIN_MODE", "release"),
		TemplateGlob:   envString("TEMPLATE_GLOB", "web/template/*.html"),
		StaticDir:      envString("STATIC_DIR", "web/static"),
		CookieSecure:   envBool("COOKIE_SECURE", false),
		LoginRateLimit: envInt("LOGIN_RATE_LIMIT", defaultLoginRateLimit),
		RedisAddr:      envString("REDIS_ADDR", ""),
		LogLevel:       strings.ToLower(envString("LOG_LEVEL", "info")),
		LogDev:         envBool("LOG_DEV", false),
	}
}

// DatabaseTarget 返回当前驱动使用的连接串：sqlite 为文件路径，postgres 为 DSN。
func (c AppConfig) DatabaseTarget() string {
	if c.DatabaseDriver == "postgres" {
		return c.DatabaseDSN
	}
	return c.DatabasePath
}

func envString(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

// envDuration 同时接受 "45m" 形式和纯数字分钟数
func envDuration(key string, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	if minutes, err := strconv.Atoi(value); err == nil {
		if minutes <= 0 {
			return fallback
		}
		return time.Duration(minutes) * time.Minute
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func envBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envBcryptCost(key string) int {
	cost := envInt(key, bcrypt.DefaultCost)
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return bcrypt.DefaultCost
	}
	return cost
}
