package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/routinelog/internal/db"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	// ErrDuplicateUsername 注册时用户名已被占用
	ErrDuplicateUsername = errors.New("username already exists")
	// ErrInvalidCredentials 用户名不存在或密码错误，两种情况不做区分
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrInvalidAccountInput 用户名或密码为空、过长
	ErrInvalidAccountInput = errors.New("invalid username or password input")
	// ErrAccountNotFound 按用户名查找失败
	ErrAccountNotFound = errors.New("account not found")
)

// dummyPassword 用于未知用户名时仍执行一次 bcrypt 比较
const dummyPassword = "routinelog-timing-equalizer"

// fallbackDummyHash 格式合法的 cost 10 哈希，生成失败时使用，比较仍需完整计算
const fallbackDummyHash = "$2a$10$abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0"

// AccountService 负责账号注册与凭据校验
type AccountService struct {
	db        *gorm.DB
	cost      int
	dummyHash []byte
}

// NewAccountService 构造 AccountService，cost 为 bcrypt 成本因子
func NewAccountService(gdb *gorm.DB, cost int) *AccountService {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &AccountService{db: gdb, cost: cost, dummyHash: newDummyHash(cost)}
}

// newDummyHash 在构造时生成，避免首次未知用户名登录多出一次哈希生成
func newDummyHash(cost int) []byte {
	hashed, err := bcrypt.GenerateFromPassword([]byte(dummyPassword), cost)
	if err != nil {
		return []byte(fallbackDummyHash)
	}
	return hashed
}

// Register 创建新账号，用户名区分大小写且全局唯一
func (s *AccountService) Register(ctx context.Context, username, password string) (*db.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidAccountInput
	}

	exists, err := s.usernameTaken(ctx, username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateUsername
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidAccountInput, err)
		}
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := db.User{Username: username, Password: string(hashed)}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		// 并发注册同名账号时由唯一索引兜底
		if taken, checkErr := s.usernameTaken(ctx, username); checkErr == nil && taken {
			return nil, ErrDuplicateUsername
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return &user, nil
}

// Authenticate 校验用户名与密码，失败统一返回 ErrInvalidCredentials
func (s *AccountService) Authenticate(ctx context.Context, username, password string) (*db.User, error) {
	user, err := s.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(password))
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// FindByUsername 按用户名精确查找账号
func (s *AccountService) FindByUsername(ctx context.Context, username string) (*db.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrAccountNotFound
	}

	var user db.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}

func (s *AccountService) usernameTaken(ctx context.Context, username string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&db.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return false, fmt.Errorf("check username: %w", err)
	}
	return count > 0, nil
}

func (s *AccountService) dummy() []byte {
	if len(s.dummyHash) == 0 {
		return []byte(fallbackDummyHash)
	}
	return s.dummyHash
}
