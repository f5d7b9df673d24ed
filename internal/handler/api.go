package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/routinelog/internal/db"
	"github.com/routinelog/internal/service"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const currentUserContextKey = "__current_user"

// Options 汇总 handler 需要的运行期配置
type Options struct {
	CookieSecure   bool
	TokenTTL       time.Duration
	LoginRateLimit int
}

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db        *gorm.DB
	accounts  *service.AccountService
	sessions  *service.SessionService
	schedules *service.ScheduleService
	limiter   *LoginLimiter
	logger    *zap.Logger
	options   Options
}

// NewAPI constructs a handler set with shared services.
func NewAPI(gdb *gorm.DB, accounts *service.AccountService, sessions *service.SessionService, schedules *service.ScheduleService, logger *zap.Logger, options Options) *API {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &API{
		db:        gdb,
		accounts:  accounts,
		sessions:  sessions,
		schedules: schedules,
		limiter:   NewLoginLimiter(options.LoginRateLimit),
		logger:    logger,
		options:   options,
	}
}

func (a *API) renderHTML(c *gin.Context, status int, template string, data gin.H) {
	pref := a.requestLocale(c)

	payload := gin.H{}
	for key, value := range data {
		payload[key] = value
	}

	if _, exists := payload["lang"]; !exists {
		payload["lang"] = pref.Language
	}
	if _, exists := payload["htmlLang"]; !exists {
		payload["htmlLang"] = pref.HTMLLang
	}
	if _, exists := payload["languageSwitch"]; !exists {
		payload["languageSwitch"] = buildLanguageSwitch(c)
	}
	if user := currentUser(c); user != nil {
		if _, exists := payload["username"]; !exists {
			payload["username"] = user.Username
		}
	}

	c.HTML(status, template, payload)
}

// currentUser 返回 AuthRequired 解析出的账号，公开路由上为 nil
func currentUser(c *gin.Context) *db.User {
	if value, exists := c.Get(currentUserContextKey); exists {
		if user, ok := value.(*db.User); ok {
			return user
		}
	}
	return nil
}
