package router

import (
	"html/template"
	"path/filepath"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/routinelog/internal/handler"
	"github.com/routinelog/internal/logging"
	"go.uber.org/zap"
)

// sessionName 会话 Cookie 名称，仅用于一次性提示
const sessionName = "routinelog_session"

// Config 描述路由层需要的外部资源
type Config struct {
	SessionSecret string
	TemplateGlob  string
	StaticDir     string
	CookieSecure  bool
	Logger        *zap.Logger
}

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(api *handler.API, cfg Config) *gin.Engine {
	lg := cfg.Logger
	if lg == nil {
		lg = zap.NewNop()
	}

	r := gin.New()
	r.Use(logging.GinRecovery(lg), logging.GinLogger(lg))

	// 配置会话中间件
	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   0,
		HttpOnly: true,
		Secure:   cfg.CookieSecure,
	})
	r.Use(sessions.Sessions(sessionName, store))
	r.Use(api.LocaleMiddleware())

	// 加载模板并添加自定义函数
	r.SetFuncMap(templateFuncs())
	if cfg.TemplateGlob != "" {
		if matches, err := filepath.Glob(cfg.TemplateGlob); err == nil && len(matches) > 0 {
			r.LoadHTMLGlob(cfg.TemplateGlob)
		} else {
			lg.Warn("no templates loaded", zap.String("glob", cfg.TemplateGlob))
		}
	}

	// 静态文件服务
	if cfg.StaticDir != "" {
		r.Static("/static", cfg.StaticDir)
	}

	r.GET("/healthz", api.HealthCheck)

	r.GET("/", api.ShowLoginPage)
	r.GET("/login", api.ShowLoginPage)
	r.POST("/login", api.Login)
	r.POST("/token", api.Login)
	r.GET("/register", api.ShowRegisterPage)
	r.POST("/register", api.Register)
	r.GET("/logout", api.Logout)

	// 需要登录的页面
	auth := r.Group("")
	auth.Use(api.AuthRequired())
	{
		auth.GET("/index", api.ShowIndex)
		auth.GET("/add_schedule", api.ShowSchedule)
		auth.POST("/add_schedule", api.SubmitSchedule)
		auth.GET("/search", api.ShowSearch)
		auth.GET("/search/data", api.GetScheduleSummary)

		// API路由
		apiGroup := auth.Group("/api/schedules")
		{
			apiGroup.GET("/summary", api.GetScheduleSummary)
			apiGroup.GET("/day", api.GetScheduleDay)
			apiGroup.GET("/heatmap", api.GetScheduleHeatmap)
		}
	}

	return r
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"add": func(a, b int) int {
			return a + b
		},
		"formatDate": formatDate,
	}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
