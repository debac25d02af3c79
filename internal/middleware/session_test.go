package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func sessionEngine(seen *string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Session())
	r.GET("/x", func(c *gin.Context) {
		*seen = SessionID(c)
		c.Status(http.StatusOK)
	})
	return r
}

func TestSession_UsesHeader(t *testing.T) {
	var seen string
	r := sessionEngine(&seen)
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(SessionHeader, "abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, "abc", seen)
	require.Empty(t, w.Header().Get("Set-Cookie"))
}

func TestSession_UsesCookie(t *testing.T) {
	var seen string
	r := sessionEngine(&seen)
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "from-cookie"})
	r.ServeHTTP(httptest.NewRecorder(), req)
	require.Equal(t, "from-cookie", seen)
}

func TestSession_IssuesCookie(t *testing.T) {
	var seen string
	r := sessionEngine(&seen)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	require.NotEmpty(t, seen)
	require.Contains(t, w.Header().Get("Set-Cookie"), SessionCookie+"="+seen)
}
