package http

import (
	"net/http"

	leaderboardDto "anoa.com/kopilka/internal/modules/leaderboard/dto"
	leaderboardService "anoa.com/kopilka/internal/modules/leaderboard/service"
	"anoa.com/kopilka/pkg/response"
	"github.com/gin-gonic/gin"
)

type LeaderboardHandler struct {
	service leaderboardService.LeaderboardService
}

func NewLeaderboardHandler(service leaderboardService.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{service: service}
}

func (h *LeaderboardHandler) GetLeaderboard(c *gin.Context) {
	var q leaderboardDto.LeaderboardQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BindError(c, err)
		return
	}

	leaderboard, err := h.service.GetLeaderboard(c.Request.Context(), q.Limit, q.Timeframe)
	if err != nil {
		response.ResponseErrorWithMessage(c, err, "failed to fetch hero board")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": leaderboard})
}
