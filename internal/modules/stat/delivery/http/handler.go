package http

import (
	"net/http"

	statService "anoa.com/kopilka/internal/modules/stat/service"
	"anoa.com/kopilka/pkg/apperror"
	"anoa.com/kopilka/pkg/response"
	"github.com/gin-gonic/gin"
)

type StatHandler struct {
	statService statService.StatService
}

func NewStatHandler(statService statService.StatService) *StatHandler {
	return &StatHandler{statService: statService}
}

func (h *StatHandler) GetPlatformStats(c *gin.Context) {
	stats, err := h.statService.GetPlatformStats(c.Request.Context())
	if err != nil {
		response.ResponseError(c, apperror.Storage("load platform stats", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": stats})
}
