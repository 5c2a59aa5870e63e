package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"anoa.com/kopilka/internal/entity"
	"anoa.com/kopilka/internal/modules/game/repository"
	game "anoa.com/kopilka/internal/modules/game/service"
	"anoa.com/kopilka/internal/testutil"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingChecker struct{ calls int }

func (c *countingChecker) CheckAndGrantAutomaticAchievements(context.Context, uuid.UUID) ([]entity.AchievementDefinition, error) {
	c.calls++
	return nil, nil
}

func TestSubmitScore(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := testutil.NewDB(t)
	user := testutil.CreateUser(t, db, "gamer")
	checker := &countingChecker{}
	h := NewGameHandler(game.NewGameService(repository.NewGameRepository(db), checker, testutil.Logger(t)))

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", user.ID.String())
		c.Next()
	})
	r.POST("/games/scores", h.SubmitScore)
	r.GET("/games/scores/best", h.BestScores)

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/games/scores", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	type result struct {
		Data struct {
			BestScore int64 `json:"best_score"`
			NewBest   bool  `json:"new_best"`
		} `json:"data"`
	}

	w := post(`{"game_type":"coin_catch","score":120}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var first result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &first))
	assert.True(t, first.Data.NewBest)

	w = post(`{"game_type":"coin_catch","score":80}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var second result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &second))
	assert.False(t, second.Data.NewBest)
	assert.EqualValues(t, 120, second.Data.BestScore)

	w = post(`{"game_type":"memory","score":0}`)
	require.Equal(t, http.StatusCreated, w.Code, "zero is a valid score")

	assert.Equal(t, http.StatusBadRequest, post(`{"game_type":"chess","score":5}`).Code)
	assert.Equal(t, http.StatusBadRequest, post(`{"game_type":"memory","score":-1}`).Code)
	assert.Equal(t, http.StatusBadRequest, post(`{"game_type":"memory"}`).Code)
	assert.Equal(t, 3, checker.calls)

	req := httptest.NewRequest(http.MethodGet, "/games/scores/best", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var best struct {
		Data map[string]int64 `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &best))
	assert.Equal(t, map[string]int64{"coin_catch": 120, "memory": 0}, best.Data)
}
