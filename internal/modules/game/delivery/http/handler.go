package handler

import (
	"net/http"

	"anoa.com/kopilka/internal/modules/game/dto"
	game "anoa.com/kopilka/internal/modules/game/service"
	"anoa.com/kopilka/pkg/response"
	"github.com/gin-gonic/gin"
)

type GameHandler struct {
	service game.GameService
}

func NewGameHandler(service game.GameService) *GameHandler {
	return &GameHandler{service: service}
}

func (h *GameHandler) SubmitScore(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req dto.SubmitScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	result, err := h.service.SubmitScore(c.Request.Context(), userID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": result})
}

func (h *GameHandler) BestScores(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	best, err := h.service.BestScores(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": best})
}
