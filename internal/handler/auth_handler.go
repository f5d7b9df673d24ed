package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/routinelog/internal/auth"
	"github.com/routinelog/internal/logging"
	"github.com/routinelog/internal/service"
	"go.uber.org/zap"
)

const tokenCookieName = "access_token"

// ShowLoginPage 渲染登录页面，并展示重定向前写入的提示
func (a *API) ShowLoginPage(c *gin.Context) {
	data := gin.H{"title": a.text(c, titleLogin)}
	if notice := a.popFlash(c); notice != "" {
		data["notice"] = notice
	}
	a.renderHTML(c, http.StatusOK, "login.html", data)
}

// Login 校验表单凭据，成功后写入令牌 Cookie 并跳转首页
func (a *API) Login(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")

	if !a.limiter.Allow(c.ClientIP()) {
		a.renderHTML(c, http.StatusTooManyRequests, "login.html", gin.H{
			"title":    a.text(c, titleLogin),
			"error":    a.text(c, msgTooManyAttempts),
			"formUser": username,
		})
		return
	}

	user, err := a.accounts.Authenticate(c.Request.Context(), username, password)
	if err != nil {
		status := http.StatusOK
		message := a.text(c, msgInvalidCredentials)
		if !errors.Is(err, service.ErrInvalidCredentials) {
			logging.FromContext(a.logger, c).Error("authenticate failed", zap.Error(err))
			status = http.StatusInternalServerError
			message = a.text(c, msgInternal)
		}
		a.renderHTML(c, status, "login.html", gin.H{
			"title":    a.text(c, titleLogin),
			"error":    message,
			"formUser": username,
		})
		return
	}

	token, err := a.sessions.IssueToken(user)
	if err != nil {
		logging.FromContext(a.logger, c).Error("issue token failed", zap.Error(err))
		a.renderHTML(c, http.StatusInternalServerError, "login.html", gin.H{
			"title": a.text(c, titleLogin),
			"error": a.text(c, msgInternal),
		})
		return
	}

	a.setTokenCookie(c, token)
	logging.FromContext(a.logger, c).Info("user logged in", zap.Uint("user_id", user.ID))
	c.Redirect(http.StatusSeeOther, "/index")
}

// ShowRegisterPage 渲染注册页面
func (a *API) ShowRegisterPage(c *gin.Context) {
	a.renderHTML(c, http.StatusOK, "register.html", gin.H{"title": a.text(c, titleRegister)})
}

// Register 创建账号；用户名重复时带错误信息重新渲染表单
func (a *API) Register(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")

	user, err := a.accounts.Register(c.Request.Context(), username, password)
	if err != nil {
		status := http.StatusOK
		var key string
		switch {
		case errors.Is(err, service.ErrDuplicateUsername):
			key = msgDuplicateUsername
		case errors.Is(err, service.ErrInvalidAccountInput):
			key = msgInvalidAccountInput
		default:
			logging.FromContext(a.logger, c).Error("register failed", zap.Error(err))
			status = http.StatusInternalServerError
			key = msgInternal
		}
		a.renderHTML(c, status, "register.html", gin.H{
			"title":    a.text(c, titleRegister),
			"error":    a.text(c, key),
			"formUser": username,
		})
		return
	}

	logging.FromContext(a.logger, c).Info("user registered", zap.Uint("user_id", user.ID))
	a.addFlash(c, msgRegistered)
	c.Redirect(http.StatusSeeOther, "/login")
}

// Logout 注销令牌并清除 Cookie
func (a *API) Logout(c *gin.Context) {
	if value, err := c.Cookie(tokenCookieName); err == nil && value != "" {
		if err := a.sessions.Revoke(c.Request.Context(), value); err != nil {
			logging.FromContext(a.logger, c).Warn("revoke token failed", zap.Error(err))
		}
	}
	a.clearTokenCookie(c)
	a.addFlash(c, msgLoggedOut)
	c.Redirect(http.StatusSeeOther, "/")
}

// AuthRequired 解析令牌 Cookie；失败时页面请求跳转登录页，API 请求返回 401
func (a *API) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		value, _ := c.Cookie(tokenCookieName)

		user, err := a.sessions.ResolveToken(c.Request.Context(), value)
		if err != nil {
			logging.FromContext(a.logger, c).Debug("unauthenticated request",
				zap.String("path", c.Request.URL.Path), zap.Error(err))
			if value != "" {
				a.clearTokenCookie(c)
			}

			if strings.HasPrefix(c.Request.URL.Path, "/api/") {
				respondError(c, http.StatusUnauthorized, a.text(c, msgUnauthenticated))
				c.Abort()
				return
			}

			a.addFlash(c, msgUnauthenticated)
			c.Redirect(http.StatusSeeOther, "/login")
			c.Abort()
			return
		}

		c.Set(currentUserContextKey, user)
		c.Next()
	}
}

func (a *API) setTokenCookie(c *gin.Context, token auth.Token) {
	maxAge := int(a.options.TokenTTL.Seconds())
	if maxAge <= 0 {
		maxAge = int(time.Until(token.ExpiresAt).Seconds())
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     tokenCookieName,
		Value:    token.Value,
		Path:     "/",
		HttpOnly: true,
		Secure:   a.options.CookieSecure,
		MaxAge:   maxAge,
		Expires:  token.ExpiresAt,
		SameSite: http.SameSiteLaxMode,
	})
}

func (a *API) clearTokenCookie(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     tokenCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   a.options.CookieSecure,
		MaxAge:   -1,
		SameSite: http.SameSiteLaxMode,
	})
}

// addFlash 写入一次性提示，读取后即清除
func (a *API) addFlash(c *gin.Context, key string) {
	session := sessions.Default(c)
	session.AddFlash(key)
	if err := session.Save(); err != nil {
		logging.FromContext(a.logger, c).Warn("save flash failed", zap.Error(err))
	}
}

func (a *API) popFlash(c *gin.Context) string {
	session := sessions.Default(c)
	flashes := session.Flashes()
	if len(flashes) == 0 {
		return ""
	}
	if err := session.Save(); err != nil {
		logging.FromContext(a.logger, c).Warn("clear flash failed", zap.Error(err))
	}
	key, _ := flashes[len(flashes)-1].(string)
	if key == "" {
		return ""
	}
	return a.text(c, key)
}
