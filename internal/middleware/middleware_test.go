package middleware

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"labtrack/internal/config"
	"labtrack/internal/database"

	"github.com/gin-gonic/gin"
	_ "github.com/mattn/go-sqlite3"
)

type fakeAccess struct {
	admins   map[string]bool
	sections map[string][]string
	inactive map[string]bool
}

func (f fakeAccess) IsAdmin(username string) bool { return f.admins[username] }

func (f fakeAccess) HasPermission(username, section string) bool {
	if f.admins[username] {
		return true
	}
	for _, s := range f.sections[username] {
		if s == section {
			return true
		}
	}
	return false
}

func (f fakeAccess) IsActive(username string) bool { return !f.inactive[username] }

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatal("Failed to open test database:", err)
	}
	db.SetMaxOpenConns(1)
	if err := database.Migrate(db); err != nil {
		t.Fatal("Failed to run migrations:", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testConfig() *config.Config {
	return &config.Config{Environment: "production", SessionDuration: time.Hour}
}

func newSession(t *testing.T, db *sql.DB, username string) *http.Cookie {
	t.Helper()
	s, err := database.CreateSession(db, username, "", time.Hour)
	if err != nil {
		t.Fatal("Failed to create session:", err)
	}
	return &http.Cookie{Name: SessionCookie, Value: s.ID}
}

func okHandler(c *gin.Context) {
	c.String(http.StatusOK, "ok:"+c.GetString(UsernameKey))
}

func serve(r *gin.Engine, method, path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func init() {
	gin.SetMode(gin.TestMode)
}

func TestAuthRequired(t *testing.T) {
	db := setupTestDB(t)
	cfg := testConfig()
	r := gin.New()
	r.GET("/", AuthRequired(db, cfg), okHandler)

	w := serve(r, "GET", "/", nil)
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/login" {
		t.Errorf("Expected redirect to /login, got %d %s", w.Code, w.Header().Get("Location"))
	}

	w = serve(r, "GET", "/", &http.Cookie{Name: SessionCookie, Value: "bogus"})
	if w.Code != http.StatusFound {
		t.Errorf("Expected redirect for unknown session, got %d", w.Code)
	}
	if !strings.Contains(w.Header().Get("Set-Cookie"), SessionCookie+"=;") {
		t.Error("Expected stale session cookie to be cleared")
	}

	w = serve(r, "GET", "/", newSession(t, db, "lan"))
	if w.Code != http.StatusOK || w.Body.String() != "ok:lan" {
		t.Errorf("Expected 200 ok:lan, got %d %s", w.Code, w.Body.String())
	}
}

func TestAdminRequired(t *testing.T) {
	db := setupTestDB(t)
	cfg := testConfig()
	access := fakeAccess{admins: map[string]bool{"Admin": true}}

	r := gin.New()
	r.GET("/users", AdminRequired(db, cfg, access), okHandler)

	if w := serve(r, "GET", "/users", nil); w.Code != http.StatusFound {
		t.Errorf("Expected redirect without session, got %d", w.Code)
	}
	if w := serve(r, "GET", "/users", newSession(t, db, "lan")); w.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for non-admin, got %d", w.Code)
	}
	if w := serve(r, "GET", "/users", newSession(t, db, "Admin")); w.Code != http.StatusOK {
		t.Errorf("Expected 200 for admin, got %d", w.Code)
	}
}

func TestPermissionRequired(t *testing.T) {
	db := setupTestDB(t)
	cfg := testConfig()
	access := fakeAccess{
		admins:   map[string]bool{"Admin": true},
		sections: map[string][]string{"lan": {"receiving"}},
	}

	r := gin.New()
	r.GET("/receiving", PermissionRequired(db, cfg, access, "receiving"), okHandler)
	r.GET("/closing", PermissionRequired(db, cfg, access, "closing"), okHandler)

	lan := newSession(t, db, "lan")
	if w := serve(r, "GET", "/receiving", lan); w.Code != http.StatusOK {
		t.Errorf("Expected 200 for granted section, got %d", w.Code)
	}
	if w := serve(r, "GET", "/closing", lan); w.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for missing section, got %d", w.Code)
	}
	if w := serve(r, "GET", "/closing", newSession(t, db, "Admin")); w.Code != http.StatusOK {
		t.Errorf("Expected admin to pass every section, got %d", w.Code)
	}
	if w := serve(r, "GET", "/closing", nil); w.Code != http.StatusFound {
		t.Errorf("Expected redirect without session, got %d", w.Code)
	}
}

func TestGuardsChain(t *testing.T) {
	db := setupTestDB(t)
	cfg := testConfig()
	access := fakeAccess{sections: map[string][]string{"lan": {"customers"}}}

	r := gin.New()
	r.GET("/customers", AuthRequired(db, cfg), PermissionRequired(db, cfg, access, "customers"), okHandler)

	if w := serve(r, "GET", "/customers", newSession(t, db, "lan")); w.Code != http.StatusOK {
		t.Errorf("Expected 200 through both guards, got %d", w.Code)
	}
}

func TestRequireActive(t *testing.T) {
	db := setupTestDB(t)
	cfg := testConfig()
	access := fakeAccess{inactive: map[string]bool{"minh": true}}

	r := gin.New()
	r.GET("/", AuthRequired(db, cfg), RequireActive(db, cfg, access), okHandler)

	if w := serve(r, "GET", "/", newSession(t, db, "lan")); w.Code != http.StatusOK {
		t.Errorf("Expected active user to pass, got %d", w.Code)
	}

	minh := newSession(t, db, "minh")
	if w := serve(r, "GET", "/", minh); w.Code != http.StatusFound {
		t.Errorf("Expected inactive user to be sent to /login, got %d", w.Code)
	}
	if _, err := database.ValidateSession(db, minh.Value, time.Hour); err == nil {
		t.Error("Expected inactive user's session to be deleted")
	}
}

func TestCSRF(t *testing.T) {
	db := setupTestDB(t)
	cfg := testConfig()

	r := gin.New()
	r.POST("/customers/create", AuthRequired(db, cfg), CSRF(cfg), okHandler)

	post := func(token string) int {
		form := url.Values{}
		if token != "" {
			form.Set("csrf_token", token)
		}
		req := httptest.NewRequest("POST", "/customers/create", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.AddCookie(newSession(t, db, "lan"))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	if code := post(""); code != http.StatusForbidden {
		t.Errorf("Expected 403 without token, got %d", code)
	}

	token, err := database.CreateCSRFToken(db, "lan")
	if err != nil {
		t.Fatal("Failed to create CSRF token:", err)
	}
	if code := post(token.Token); code != http.StatusOK {
		t.Errorf("Expected 200 with valid token, got %d", code)
	}
	if code := post(token.Token); code != http.StatusForbidden {
		t.Errorf("Expected 403 on token reuse, got %d", code)
	}

	dev := &config.Config{Environment: "development", SessionDuration: time.Hour}
	r2 := gin.New()
	r2.POST("/x", CSRF(dev), okHandler)
	if w := serve(r2, "POST", "/x", nil); w.Code != http.StatusOK {
		t.Errorf("Expected CSRF to be skipped in development, got %d", w.Code)
	}
}

func TestAuthRateLimit(t *testing.T) {
	r := gin.New()
	r.POST("/login", AuthRateLimit(testConfig()), okHandler)

	// the first request only registers the client; the burst of 5 follows
	codes := []int{}
	for i := 0; i < 8; i++ {
		codes = append(codes, serve(r, "POST", "/login", nil).Code)
	}
	for i, code := range codes {
		want := http.StatusOK
		if i >= 6 {
			want = http.StatusTooManyRequests
		}
		if code != want {
			t.Errorf("Attempt %d: expected %d, got %d", i+1, want, code)
		}
	}
}

func TestTrimSpaces(t *testing.T) {
	r := gin.New()
	r.POST("/f", TrimSpaces(), func(c *gin.Context) {
		c.String(http.StatusOK, "[%s]", c.PostForm("name"))
	})

	req := httptest.NewRequest("POST", "/f", strings.NewReader("name=++ACME++"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Body.String() != "[ACME]" {
		t.Errorf("Expected trimmed value, got %s", w.Body.String())
	}
}
