package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"anoa.com/kopilka/internal/entity"
	"anoa.com/kopilka/internal/modules/achievement/dto"
	achievement "anoa.com/kopilka/internal/modules/achievement/service"
	"anoa.com/kopilka/pkg/apperror"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	achievement.AchievementService
	granted  []entity.AchievementDefinition
	checkErr error
	revoked  string
}

func (f *fakeService) CheckAndGrantAutomaticAchievements(context.Context, uuid.UUID) ([]entity.AchievementDefinition, error) {
	return f.granted, f.checkErr
}

func (f *fakeService) GetUserAchievementProgress(context.Context, uuid.UUID) ([]dto.AchievementProgress, error) {
	return []dto.AchievementProgress{{Slug: "first_friend", Target: 1}}, nil
}

func (f *fakeService) RevokeAchievement(_ context.Context, _ uuid.UUID, slug string) error {
	if slug == "missing" {
		return apperror.ErrNotFound
	}
	f.revoked = slug
	return nil
}

func setupRouter(svc achievement.AchievementService, userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewAchievementHandler(svc)
	auth := func(c *gin.Context) {
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			return
		}
		c.Set("user_id", userID)
		c.Next()
	}
	g := r.Group("/api", auth)
	g.GET("/achievements/progress", h.GetProgress)
	g.POST("/achievements/check", h.Check)
	g.DELETE("/admin/users/:id/achievements/:slug", h.Revoke)
	return r
}

func httpDo(r *gin.Engine, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCheckReturnsGrantedAndCount(t *testing.T) {
	svc := &fakeService{granted: []entity.AchievementDefinition{{Slug: "first_application", Kind: entity.KindNormal}}}
	r := setupRouter(svc, uuid.NewString())

	w := httpDo(r, http.MethodPost, "/api/achievements/check")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Granted []entity.AchievementDefinition `json:"granted"`
		Count   int                            `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, 1, body.Count)
	require.Equal(t, "first_application", body.Granted[0].Slug)
}

func TestCheckRequiresAuth(t *testing.T) {
	r := setupRouter(&fakeService{}, "")

	w := httpDo(r, http.MethodPost, "/api/achievements/check")
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.NotContains(t, w.Body.String(), "granted")
}

func TestCheckHidesStorageDetails(t *testing.T) {
	svc := &fakeService{checkErr: apperror.Storage("load user stats", errors.New("dial tcp 10.0.0.3:5432: refused"))}
	r := setupRouter(svc, uuid.NewString())

	w := httpDo(r, http.MethodPost, "/api/achievements/check")
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.JSONEq(t, `{"error":"could not check achievements"}`, w.Body.String())
}

func TestProgressEnvelope(t *testing.T) {
	r := setupRouter(&fakeService{}, uuid.NewString())

	w := httpDo(r, http.MethodGet, "/api/achievements/progress")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string][]dto.AchievementProgress
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body["progress"], 1)
	require.Equal(t, 0, body["progress"][0].Percent)
}

func TestRevoke(t *testing.T) {
	svc := &fakeService{}
	r := setupRouter(svc, uuid.NewString())

	w := httpDo(r, http.MethodDelete, "/api/admin/users/"+uuid.NewString()+"/achievements/first_application")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "first_application", svc.revoked)

	w = httpDo(r, http.MethodDelete, "/api/admin/users/"+uuid.NewString()+"/achievements/missing")
	require.Equal(t, http.StatusNotFound, w.Code)

	w = httpDo(r, http.MethodDelete, "/api/admin/users/not-a-uuid/achievements/first_application")
	require.Equal(t, http.StatusBadRequest, w.Code)
}
