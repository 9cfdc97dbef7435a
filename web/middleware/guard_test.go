package middleware

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/cinelog/cinelog/database"
	"github.com/cinelog/cinelog/database/model"
	"github.com/cinelog/cinelog/web/session"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)

	dir, err := os.MkdirTemp("", "cinelog-middleware-test")
	if err != nil {
		panic(err)
	}
	if err := database.InitDB(filepath.Join(dir, "test.db")); err != nil {
		panic(err)
	}

	code := m.Run()

	_ = database.CloseDB()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

func newEngine(t *testing.T) *gin.Engine {
	t.Helper()
	store := session.NewGormStore([]byte("test-secret-0123456789abcdef0123"))
	session.RegisterStore(store)

	engine := gin.New()
	engine.Use(func(c *gin.Context) { c.Set("base_path", "/") })
	engine.Use(sessions.Sessions(session.Name, store))
	engine.GET("/testlogin/:role", func(c *gin.Context) {
		session.SetLoginUser(c, 1, "tester", c.Param("role"))
		if err := sessions.Default(c).Save(); err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusOK)
	})
	return engine
}

func login(t *testing.T, engine *gin.Engine, role string) *http.Cookie {
	t.Helper()
	resp := httptest.NewRecorder()
	engine.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/testlogin/"+role, nil))
	for _, c := range resp.Result().Cookies() {
		if c.Name == session.Name {
			return c
		}
	}
	t.Fatal("no session cookie issued")
	return nil
}

func request(engine *gin.Engine, method, path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp := httptest.NewRecorder()
	engine.ServeHTTP(resp, req)
	return resp
}

func TestRequireLogin(t *testing.T) {
	engine := newEngine(t)
	reached := false
	engine.GET("/private", RequireLogin(), func(c *gin.Context) {
		reached = true
		c.Status(http.StatusOK)
	})

	resp := request(engine, http.MethodGet, "/private", nil)
	assert.Equal(t, http.StatusFound, resp.Code)
	assert.Equal(t, "/", resp.Header().Get("Location"))
	assert.False(t, reached, "handler must not run behind a denied guard")

	cookie := login(t, engine, model.RoleMember)
	resp = request(engine, http.MethodGet, "/private", cookie)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.True(t, reached)
}

func TestRequireRole(t *testing.T) {
	engine := newEngine(t)
	engine.GET("/admin-only", RequireRole(model.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	memberCookie := login(t, engine, model.RoleMember)
	resp := request(engine, http.MethodGet, "/admin-only", memberCookie)
	assert.Equal(t, http.StatusFound, resp.Code)

	adminCookie := login(t, engine, model.RoleAdmin)
	resp = request(engine, http.MethodGet, "/admin-only", adminCookie)
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestRequireConfirmationIsOneShot(t *testing.T) {
	engine := newEngine(t)
	engine.GET("/confirm", func(c *gin.Context) {
		require.NoError(t, session.SetFlag(c, "confirmed"))
		c.Status(http.StatusOK)
	})
	engine.POST("/execute", RequireConfirmation("confirmed"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	resp := request(engine, http.MethodGet, "/confirm", nil)
	var cookie *http.Cookie
	for _, c := range resp.Result().Cookies() {
		if c.Name == session.Name {
			cookie = c
		}
	}
	require.NotNil(t, cookie)

	assert.Equal(t, http.StatusOK, request(engine, http.MethodPost, "/execute", cookie).Code)
	// the consumed flag does not admit a second execute
	assert.Equal(t, http.StatusFound, request(engine, http.MethodPost, "/execute", cookie).Code)

	// skipping the confirmation screen entirely is denied
	assert.Equal(t, http.StatusFound, request(engine, http.MethodPost, "/execute", nil).Code)
}