package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"anoa.com/kopilka/internal/bootstrap"
	"anoa.com/kopilka/internal/config"
	"anoa.com/kopilka/internal/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type discardStorage struct{}

func (discardStorage) Upload(_ context.Context, r io.Reader, folder, fileName string) (string, error) {
	_, _ = io.Copy(io.Discard, r)
	return "https://files.test/" + folder + "/" + fileName, nil
}

func (discardStorage) Delete(context.Context, string) error { return nil }

func newTestServer(t *testing.T) *Server {
	t.Helper()
	return newTestServerWith(t, Options{Storage: discardStorage{}})
}

func newTestServerWith(t *testing.T, opts Options) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.NewDB(t)
	require.NoError(t, bootstrap.SeedCategories(db))
	require.NoError(t, bootstrap.SeedAchievements(db))

	cfg := &config.Config{
		Port:                   "0",
		AllowedOrigins:         "http://localhost:3000",
		JWTSecret:              "test-secret",
		JWTTTL:                 time.Hour,
		CloudinaryUploadFolder: "kopilka-test",
		ViewSyncInterval:       time.Minute,
	}
	srv, err := NewServer(cfg, db, opts, testutil.Logger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func do(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/api/achievements", "/api/achievements/me", "/api/heroes", "/api/stats"} {
		w := do(t, srv.Handler(), http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
		assert.Contains(t, w.Body.String(), "error")
	}
}

func TestRegisterThenBrowse(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Handler()

	w := do(t, h, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username":  "dewi",
		"email":     "dewi@example.com",
		"password":  "supersecret",
		"full_name": "Dewi Lestari",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(t, h, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "dewi@example.com",
		"password": "supersecret",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var auth struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &auth))
	require.NotEmpty(t, auth.AccessToken)

	w = do(t, h, http.MethodGet, "/api/achievements", auth.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var catalog struct {
		Achievements []json.RawMessage `json:"achievements"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &catalog))
	assert.Len(t, catalog.Achievements, len(bootstrap.DefaultCatalog()))

	w = do(t, h, http.MethodPost, "/api/games/scores", auth.AccessToken, map[string]any{"game_type": "quiz", "score": 7})
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(t, h, http.MethodGet, "/api/stats", auth.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total_users":1`)

	w = do(t, h, http.MethodGet, "/api/profile/me", auth.AccessToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, http.MethodGet, "/api/admin/users", auth.AccessToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	w := do(t, srv.Handler(), http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestServerStartsWithoutCloudinary(t *testing.T) {
	t.Setenv("CLOUDINARY_URL", "")
	srv := newTestServerWith(t, Options{})

	w := do(t, srv.Handler(), http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
