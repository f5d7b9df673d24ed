package handler

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const loginVisitorIdleTTL = 10 * time.Minute

type loginVisitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// LoginLimiter 按客户端 IP 限制登录尝试频率，perMinute<=0 时不限制
type LoginLimiter struct {
	mu       sync.Mutex
	visitors map[string]*loginVisitor
	limit    rate.Limit
	burst    int
	now      func() time.Time
}

// NewLoginLimiter 构造 LoginLimiter；返回 nil 表示关闭限流
func NewLoginLimiter(perMinute int) *LoginLimiter {
	if perMinute <= 0 {
		return nil
	}
	return &LoginLimiter{
		visitors: make(map[string]*loginVisitor),
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    perMinute,
		now:      time.Now,
	}
}

// Allow 判断 key 是否还可以尝试登录
func (l *LoginLimiter) Allow(key string) bool {
	if l == nil {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for k, v := range l.visitors {
		if now.Sub(v.lastSeen) > loginVisitorIdleTTL {
			delete(l.visitors, k)
		}
	}

	v, ok := l.visitors[key]
	if !ok {
		v = &loginVisitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}
