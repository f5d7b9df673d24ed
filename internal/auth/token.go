// Package auth 负责访问令牌的签发、校验与注销名单。
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrTokenMissing 请求未携带令牌
	ErrTokenMissing = errors.New("token missing")
	// ErrTokenExpired 令牌已过期
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid 令牌格式、签名或声明不合法
	ErrTokenInvalid = errors.New("token invalid")
)

// Claims 在标准声明之外携带账号 ID，Subject 为用户名
type Claims struct {
	jwt.RegisteredClaims
	UserID uint `json:"uid"`
}

// Token 是签发结果，Value 交给客户端保存
type Token struct {
	Value     string
	ID        string
	ExpiresAt time.Time
}

// TokenManager 使用对称密钥签发 HS256 令牌，只保证完整性，载荷对客户端可见
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager 构造 TokenManager，ttl 为令牌有效期
func NewTokenManager(secret []byte, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: secret, ttl: ttl, now: time.Now}
}

// WithClock 替换时钟，便于测试过期逻辑
func (m *TokenManager) WithClock(now func() time.Time) *TokenManager {
	clone := *m
	clone.now = now
	return &clone
}

// TTL 返回令牌有效期
func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

// Issue 为账号签发令牌，过期时间为当前时间加 TTL
func (m *TokenManager) Issue(userID uint, username string) (Token, error) {
	if len(m.secret) == 0 {
		return Token{}, errors.New("token secret is not configured")
	}

	now := m.now()
	expiresAt := now.Add(m.ttl)
	id := uuid.NewString()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        id,
		},
		UserID: userID,
	})

	signed, err := token.SignedString(m.secret)
	if err != nil {
		return Token{}, fmt.Errorf("sign token: %w", err)
	}

	return Token{Value: signed, ID: id, ExpiresAt: expiresAt}, nil
}

// Parse 校验签名与有效期并返回声明
func (m *TokenManager) Parse(value string) (*Claims, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, ErrTokenMissing
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(value, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	if !token.Valid || strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
