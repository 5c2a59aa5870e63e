package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	userRepo "anoa.com/kopilka/internal/modules/user/repository"
	userService "anoa.com/kopilka/internal/modules/user/service"
	"anoa.com/kopilka/internal/testutil"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T) (*gin.Engine, uuid.UUID, uuid.UUID) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.NewDB(t)
	member := testutil.CreateUser(t, db, "member")
	admin := testutil.CreateAdmin(t, db, "boss")

	m := NewAuthMiddleware(userRepo.NewUserRepository(db), "secret")
	r := gin.New()
	authed := r.Group("/api", m.RequireAuth())
	authed.GET("/me", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("user_id")) })
	authed.GET("/admin", m.RequireAdmin(), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r, member.ID, admin.ID
}

func token(t *testing.T, id uuid.UUID, ttl time.Duration) string {
	t.Helper()
	tok, _, err := userService.GenerateToken("secret", id, time.Now(), ttl)
	require.NoError(t, err)
	return tok
}

func get(r *gin.Engine, path, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAuth(t *testing.T) {
	r, member, _ := setupRouter(t)

	require.Equal(t, http.StatusUnauthorized, get(r, "/api/me", "").Code)
	require.Equal(t, http.StatusUnauthorized, get(r, "/api/me", "garbage").Code)
	require.Equal(t, http.StatusUnauthorized, get(r, "/api/me", token(t, member, -time.Minute)).Code)

	w := get(r, "/api/me", token(t, member, time.Hour))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, member.String(), w.Body.String())

	w = get(r, "/api/me?token="+token(t, member, time.Hour), "")
	require.Equal(t, http.StatusOK, w.Code)
}

func TestRequireAdmin(t *testing.T) {
	r, member, admin := setupRouter(t)

	require.Equal(t, http.StatusForbidden, get(r, "/api/admin", token(t, member, time.Hour)).Code)
	require.Equal(t, http.StatusNoContent, get(r, "/api/admin", token(t, admin, time.Hour)).Code)
	require.Equal(t, http.StatusUnauthorized, get(r, "/api/admin", token(t, uuid.New(), time.Hour)).Code)
}
