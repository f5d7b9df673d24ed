package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"testing"

	"github.com/routinelog/internal/locale"
)

func TestLoginSetsCookieAndRedirects(t *testing.T) {
	env := newHandlerEnv(t, Options{})
	if _, err := env.accounts.Register(context.Background(), "alice", "s3cret"); err != nil {
		t.Fatalf("register: %v", err)
	}

	tc := env.client()
	rr := tc.postForm("/login", url.Values{"username": {"alice"}, "password": {"s3cret"}})

	if rr.Code != http.StatusSeeOther {
		t.Fatalf("expected status %d, got %d", http.StatusSeeOther, rr.Code)
	}
	if location := rr.Header().Get("Location"); location != "/index" {
		t.Fatalf("expected redirect to /index, got %q", location)
	}

	var token *http.Cookie
	for _, ck := range rr.Result().Cookies() {
		if ck.Name == tokenCookieName {
			token = ck
		}
	}
	if token == nil || token.Value == "" {
		t.Fatal("expected access_token cookie")
	}
	if !token.HttpOnly {
		t.Fatal("expected access_token cookie to be HttpOnly")
	}
	if token.MaxAge != 30*60 {
		t.Fatalf("expected cookie max age 1800, got %d", token.MaxAge)
	}

	if rr := tc.get("/index"); rr.Code != http.StatusOK {
		t.Fatalf("expected /index to be reachable after login, got %d", rr.Code)
	}
}

func TestTokenEndpointIsLoginAlias(t *testing.T) {
	env := newHandlerEnv(t, Options{})
	if _, err := env.accounts.Register(context.Background(), "alice", "s3cret"); err != nil {
		t.Fatalf("register: %v", err)
	}

	rr := env.client().postForm("/token", url.Values{"username": {"alice"}, "password": {"s3cret"}})
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("expected status %d, got %d", http.StatusSeeOther, rr.Code)
	}
}

func TestLoginFailuresShareOneMessage(t *testing.T) {
	env := newHandlerEnv(t, Options{})
	if _, err := env.accounts.Register(context.Background(), "alice", "s3cret"); err != nil {
		t.Fatalf("register: %v", err)
	}

	attempts := []url.Values{
		{"username": {"alice"}, "password": {"wrong"}},
		{"username": {"nobody"}, "password": {"s3cret"}},
	}
	want := translate(locale.LanguageKorean, msgInvalidCredentials)

	for _, form := range attempts {
		tc := env.client()
		rr := tc.postForm("/login", form)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
		}
		if _, ok := tc.cookies[tokenCookieName]; ok {
			t.Fatal("failed login must not set a token cookie")
		}
		if env.render.last.name != "login.html" {
			t.Fatalf("expected login.html, got %s", env.render.last.name)
		}
		if got := env.render.lastData(t)["error"]; got != want {
			t.Fatalf("expected error %q, got %v", want, got)
		}
	}
}

func TestLoginRateLimited(t *testing.T) {
	env := newHandlerEnv(t, Options{LoginRateLimit: 2})
	form := url.Values{"username": {"alice"}, "password": {"wrong"}}

	tc := env.client()
	for i := 0; i < 2; i++ {
		if rr := tc.postForm("/login", form); rr.Code != http.StatusOK {
			t.Fatalf("attempt %d: expected status %d, got %d", i+1, http.StatusOK, rr.Code)
		}
	}
	if rr := tc.postForm("/login", form); rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status %d, got %d", http.StatusTooManyRequests, rr.Code)
	}
}

func TestRegisterFlow(t *testing.T) {
	env := newHandlerEnv(t, Options{})
	tc := env.client()

	rr := tc.postForm("/register", url.Values{"username": {"bob"}, "password": {"pw"}})
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("expected status %d, got %d", http.StatusSeeOther, rr.Code)
	}
	if location := rr.Header().Get("Location"); location != "/login" {
		t.Fatalf("expected redirect to /login, got %q", location)
	}

	if rr := tc.get("/login"); rr.Code != http.StatusOK {
		t.Fatalf("expected login page, got %d", rr.Code)
	}
	if got := env.render.lastData(t)["notice"]; got != translate(locale.LanguageKorean, msgRegistered) {
		t.Fatalf("expected registration notice, got %v", got)
	}

	// 提示只展示一次
	tc.get("/login")
	if _, ok := env.render.lastData(t)["notice"]; ok {
		t.Fatal("expected flash to be consumed")
	}
}

func TestRegisterDuplicateRerendersForm(t *testing.T) {
	env := newHandlerEnv(t, Options{})
	if _, err := env.accounts.Register(context.Background(), "bob", "pw"); err != nil {
		t.Fatalf("register: %v", err)
	}

	rr := env.client().postForm("/register", url.Values{"username": {"bob"}, "password": {"other"}})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	data := env.render.lastData(t)
	if env.render.last.name != "register.html" {
		t.Fatalf("expected register.html, got %s", env.render.last.name)
	}
	if data["error"] != translate(locale.LanguageKorean, msgDuplicateUsername) {
		t.Fatalf("unexpected error %v", data["error"])
	}
}

func TestRegisterUsesRequestedLanguage(t *testing.T) {
	env := newHandlerEnv(t, Options{})
	if _, err := env.accounts.Register(context.Background(), "bob", "pw"); err != nil {
		t.Fatalf("register: %v", err)
	}

	env.client().postForm("/register?lang=en", url.Values{"username": {"bob"}, "password": {"pw"}})
	if got := env.render.lastData(t)["error"]; got != "That username is already taken." {
		t.Fatalf("expected english message, got %v", got)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := newHandlerEnv(t, Options{})
	tc := env.client()

	rr := tc.get("/index")
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("expected status %d, got %d", http.StatusSeeOther, rr.Code)
	}
	if location := rr.Header().Get("Location"); location != "/login" {
		t.Fatalf("expected redirect to /login, got %q", location)
	}

	rr = tc.get("/api/schedules/summary?start_date=2024-03-01&end_date=2024-03-31")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rr.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["error"] == "" {
		t.Fatal("expected error message in 401 body")
	}
}

func TestTamperedTokenIsRejected(t *testing.T) {
	env := newHandlerEnv(t, Options{})
	tc := env.loggedInClient(t, "alice", "s3cret")
	tc.cookies[tokenCookieName].Value += "x"

	if rr := tc.get("/index"); rr.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect for tampered token, got %d", rr.Code)
	}
	if _, ok := tc.cookies[tokenCookieName]; ok {
		t.Fatal("expected invalid token cookie to be cleared")
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	env := newHandlerEnv(t, Options{})
	tc := env.loggedInClient(t, "alice", "s3cret")
	stolen := *tc.cookies[tokenCookieName]

	rr := tc.get("/logout")
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("expected status %d, got %d", http.StatusSeeOther, rr.Code)
	}
	if location := rr.Header().Get("Location"); location != "/" {
		t.Fatalf("expected redirect to /, got %q", location)
	}
	if _, ok := tc.cookies[tokenCookieName]; ok {
		t.Fatal("expected token cookie to be cleared")
	}

	// 注销后旧令牌即使仍在有效期内也不能再使用
	replay := env.client()
	replay.cookies[tokenCookieName] = &stolen
	if rr := replay.get("/index"); rr.Code != http.StatusSeeOther {
		t.Fatalf("expected revoked token to be rejected, got %d", rr.Code)
	}
}
