package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func protectedRouter(roles ...string) *gin.Engine {
	r := gin.New()
	r.GET("/p", RequireAuthWithRole(roles...), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": c.GetString("user_id"), "role": c.GetString("role")})
	})
	return r
}

func doGet(r http.Handler, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestTokenRoundTrip(t *testing.T) {
	SetSecret("test-secret")
	tok, err := GenerateToken("op-1", RoleAdmin, time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "op-1", claims.Subject)
	assert.Equal(t, RoleAdmin, claims.Role)

	SetSecret("rotated")
	_, err = ValidateToken(tok)
	assert.Error(t, err)
}

func TestRequireAuthWithRole(t *testing.T) {
	SetSecret("test-secret")
	r := protectedRouter(RoleAdmin)

	admin, _ := GenerateToken("op-1", RoleAdmin, time.Hour)
	rider, _ := GenerateToken("rider-1", RoleRider, time.Hour)
	expired, _ := GenerateToken("op-1", RoleAdmin, -time.Minute)

	assert.Equal(t, http.StatusOK, doGet(r, "Bearer "+admin).Code)
	assert.Equal(t, http.StatusForbidden, doGet(r, "Bearer "+rider).Code)
	assert.Equal(t, http.StatusUnauthorized, doGet(r, "Bearer "+expired).Code)
	assert.Equal(t, http.StatusUnauthorized, doGet(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, doGet(r, admin).Code, "scheme is required")

	both := protectedRouter(RoleAdmin, RoleRider)
	w := doGet(both, "Bearer "+rider)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user":"rider-1","role":"rider"}`, w.Body.String())
}

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	preflight := func(h http.Handler, origin string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodOptions, "/api/fare-config/1/toggle", nil)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w
	}

	open := CORS(nil)(next)
	w := preflight(open, "http://dashboard.local")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://dashboard.local", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "PATCH")
	assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), "Content-Disposition")

	w = httptest.NewRecorder()
	open.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, w.Code)

	restricted := CORS(SplitOrigins(" https://ops.example.com/ , ,https://b.example.com"))(next)
	assert.Equal(t, "https://ops.example.com", preflight(restricted, "https://ops.example.com").Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, preflight(restricted, "https://evil.example.com").Header().Get("Access-Control-Allow-Origin"))
}
