package security

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cinelog/cinelog/database"
	"github.com/cinelog/cinelog/web/session"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)

	dir, err := os.MkdirTemp("", "cinelog-csrf-test")
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

// harness wires a token-issuing page and validating endpoints the way the
// controllers use them.
func harness(t *testing.T) *gin.Engine {
	t.Helper()
	store := session.NewGormStore([]byte("test-secret-0123456789abcdef0123"))
	session.RegisterStore(store)

	engine := gin.New()
	engine.Use(sessions.Sessions(session.Name, store))

	engine.GET("/form", func(c *gin.Context) {
		c.String(http.StatusOK, CsrfToken(c))
	})
	engine.POST("/check", func(c *gin.Context) {
		if ValidateCsrfToken(c, c.PostForm(FormField)) {
			c.Status(http.StatusOK)
		} else {
			c.Status(http.StatusForbidden)
		}
	})
	engine.POST("/check-once", func(c *gin.Context) {
		if ValidateCsrfTokenOnce(c, c.PostForm(FormField)) {
			c.Status(http.StatusOK)
		} else {
			c.Status(http.StatusForbidden)
		}
	})
	return engine
}

func fetchToken(t *testing.T, engine *gin.Engine) (string, *http.Cookie) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/form", nil)
	resp := httptest.NewRecorder()
	engine.ServeHTTP(resp, req)

	token := resp.Body.String()
	require.Len(t, token, 64, "token must be 32 hex-encoded bytes")

	for _, c := range resp.Result().Cookies() {
		if c.Name == session.Name {
			return token, c
		}
	}
	t.Fatal("no session cookie issued")
	return "", nil
}

func post(engine *gin.Engine, path, token string, cookie *http.Cookie) int {
	form := url.Values{FormField: {token}}
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp := httptest.NewRecorder()
	engine.ServeHTTP(resp, req)
	return resp.Code
}

func TestTokenIsStablePerSession(t *testing.T) {
	engine := harness(t)

	token, cookie := fetchToken(t, engine)

	req := httptest.NewRequest(http.MethodGet, "/form", nil)
	req.AddCookie(cookie)
	resp := httptest.NewRecorder()
	engine.ServeHTTP(resp, req)
	assert.Equal(t, token, resp.Body.String(), "re-rendering must not rotate the token")
}

func TestValidateCsrfToken(t *testing.T) {
	engine := harness(t)
	token, cookie := fetchToken(t, engine)

	assert.Equal(t, http.StatusOK, post(engine, "/check", token, cookie))
	// non-consuming: the same token stays valid
	assert.Equal(t, http.StatusOK, post(engine, "/check", token, cookie))

	assert.Equal(t, http.StatusForbidden, post(engine, "/check", "wrong", cookie))
	assert.Equal(t, http.StatusForbidden, post(engine, "/check", "", cookie))
	// a token without its session is worthless
	assert.Equal(t, http.StatusForbidden, post(engine, "/check", token, nil))
}

func TestValidateCsrfTokenOnce(t *testing.T) {
	engine := harness(t)
	token, cookie := fetchToken(t, engine)

	assert.Equal(t, http.StatusOK, post(engine, "/check-once", token, cookie))
	// consumed: the replayed form is rejected
	assert.Equal(t, http.StatusForbidden, post(engine, "/check-once", token, cookie))
}

func TestTokenDiffersAcrossSessions(t *testing.T) {
	engine := harness(t)
	tokenA, _ := fetchToken(t, engine)
	tokenB, _ := fetchToken(t, engine)
	assert.NotEqual(t, tokenA, tokenB)
}
