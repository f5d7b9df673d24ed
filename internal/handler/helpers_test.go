package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
	"github.com/routinelog/internal/auth"
	"github.com/routinelog/internal/db"
	"github.com/routinelog/internal/service"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// stubHTMLRender 记录最近一次渲染的模板与数据，不依赖模板文件
type stubHTMLRender struct {
	last *stubHTMLInstance
}

type stubHTMLInstance struct {
	name string
	data interface{}
}

func (r *stubHTMLRender) Instance(name string, data interface{}) render.Render {
	r.last = &stubHTMLInstance{name: name, data: data}
	return r.last
}

func (r *stubHTMLInstance) Render(http.ResponseWriter) error {
	return nil
}

func (r *stubHTMLInstance) WriteContentType(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
}

func (r *stubHTMLRender) lastData(t *testing.T) gin.H {
	t.Helper()
	if r.last == nil {
		t.Fatal("expected a template to be rendered")
	}
	data, ok := r.last.data.(gin.H)
	if !ok {
		t.Fatalf("unexpected template data type %T", r.last.data)
	}
	return data
}

type handlerEnv struct {
	db        *gorm.DB
	api       *API
	router    *gin.Engine
	render    *stubHTMLRender
	accounts  *service.AccountService
	schedules *service.ScheduleService
}

func setupHandlerTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:handler-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return gdb
}

func newHandlerEnv(t *testing.T, options Options) *handlerEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb := setupHandlerTestDB(t)
	if options.TokenTTL == 0 {
		options.TokenTTL = 30 * time.Minute
	}

	accounts := service.NewAccountService(gdb, bcrypt.MinCost)
	tokens := auth.NewTokenManager([]byte("test-secret"), options.TokenTTL)
	sessionService := service.NewSessionService(accounts, tokens, auth.NewMemoryDenylist())
	schedules := service.NewScheduleService(gdb)
	api := NewAPI(gdb, accounts, sessionService, schedules, nil, options)

	stub := &stubHTMLRender{}
	router := gin.New()
	router.HTMLRender = stub
	router.Use(sessions.Sessions("routinelog_session", cookie.NewStore([]byte("test-secret"))))
	router.Use(api.LocaleMiddleware())

	router.GET("/", api.ShowLoginPage)
	router.GET("/login", api.ShowLoginPage)
	router.POST("/login", api.Login)
	router.POST("/token", api.Login)
	router.GET("/register", api.ShowRegisterPage)
	router.POST("/register", api.Register)
	router.GET("/logout", api.Logout)
	router.GET("/healthz", api.HealthCheck)

	protected := router.Group("/", api.AuthRequired())
	protected.GET("/index", api.ShowIndex)
	protected.GET("/add_schedule", api.ShowSchedule)
	protected.POST("/add_schedule", api.SubmitSchedule)
	protected.GET("/search", api.ShowSearch)
	protected.GET("/search/data", api.GetScheduleSummary)
	protected.GET("/api/schedules/summary", api.GetScheduleSummary)
	protected.GET("/api/schedules/day", api.GetScheduleDay)
	protected.GET("/api/schedules/heatmap", api.GetScheduleHeatmap)

	return &handlerEnv{
		db:        gdb,
		api:       api,
		router:    router,
		render:    stub,
		accounts:  accounts,
		schedules: schedules,
	}
}

// testClient 在多次请求之间保存 Cookie
type testClient struct {
	env     *handlerEnv
	cookies map[string]*http.Cookie
}

func (e *handlerEnv) client() *testClient {
	return &testClient{env: e, cookies: make(map[string]*http.Cookie)}
}

func (tc *testClient) do(req *http.Request) *httptest.ResponseRecorder {
	for _, ck := range tc.cookies {
		req.AddCookie(ck)
	}
	rr := httptest.NewRecorder()
	tc.env.router.ServeHTTP(rr, req)
	for _, ck := range rr.Result().Cookies() {
		if ck.MaxAge < 0 || ck.Value == "" {
			delete(tc.cookies, ck.Name)
			continue
		}
		tc.cookies[ck.Name] = ck
	}
	return rr
}

func (tc *testClient) get(target string) *httptest.ResponseRecorder {
	return tc.do(httptest.NewRequest(http.MethodGet, target, nil))
}

func (tc *testClient) postForm(target string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return tc.do(req)
}

// loggedInClient 注册账号并完成登录
func (e *handlerEnv) loggedInClient(t *testing.T, username, password string) *testClient {
	t.Helper()
	if _, err := e.accounts.Register(context.Background(), username, password); err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	tc := e.client()
	rr := tc.postForm("/login", url.Values{"username": {username}, "password": {password}})
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("expected login redirect, got %d", rr.Code)
	}
	if _, ok := tc.cookies[tokenCookieName]; !ok {
		t.Fatal("expected access token cookie after login")
	}
	return tc
}
