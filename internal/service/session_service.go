package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/routinelog/internal/auth"
	"github.com/routinelog/internal/db"
)

// ErrUnauthenticated 令牌缺失、无效、过期、已注销或账号不存在
var ErrUnauthenticated = errors.New("unauthenticated")

// SessionService 把无状态令牌与账号关联起来
type SessionService struct {
	accounts *AccountService
	tokens   *auth.TokenManager
	denylist auth.Denylist
}

// NewSessionService 构造 SessionService，denylist 为空时不支持提前注销
func NewSessionService(accounts *AccountService, tokens *auth.TokenManager, denylist auth.Denylist) *SessionService {
	return &SessionService{accounts: accounts, tokens: tokens, denylist: denylist}
}

// IssueToken 为已认证账号签发令牌
func (s *SessionService) IssueToken(user *db.User) (auth.Token, error) {
	if user == nil || user.ID == 0 {
		return auth.Token{}, errors.New("issue token: account is required")
	}
	return s.tokens.Issue(user.ID, user.Username)
}

// ResolveToken 校验令牌并返回对应账号
func (s *SessionService) ResolveToken(ctx context.Context, value string) (*db.User, error) {
	claims, err := s.tokens.Parse(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	if s.denylist != nil {
		revoked, err := s.denylist.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
		}
		if revoked {
			return nil, fmt.Errorf("%w: token revoked", ErrUnauthenticated)
		}
	}

	user, err := s.accounts.FindByUsername(ctx, claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	if claims.UserID != 0 && claims.UserID != user.ID {
		return nil, fmt.Errorf("%w: subject mismatch", ErrUnauthenticated)
	}

	return user, nil
}

// Revoke 在令牌过期前将其加入注销名单，无效或已过期的令牌直接忽略
func (s *SessionService) Revoke(ctx context.Context, value string) error {
	if s.denylist == nil {
		return nil
	}
	claims, err := s.tokens.Parse(value)
	if err != nil {
		return nil
	}
	if claims.ExpiresAt == nil {
		return nil
	}
	return s.denylist.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}
