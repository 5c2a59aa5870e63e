package handler

import (
	"net/http"

	"anoa.com/kopilka/internal/modules/achievement/dto"
	achievement "anoa.com/kopilka/internal/modules/achievement/service"
	"anoa.com/kopilka/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AchievementHandler struct {
	service achievement.AchievementService
}

func NewAchievementHandler(service achievement.AchievementService) *AchievementHandler {
	return &AchievementHandler{service: service}
}

func (h *AchievementHandler) GetAll(c *gin.Context) {
	defs, err := h.service.GetAllAchievements(c.Request.Context())
	if err != nil {
		response.ResponseErrorWithMessage(c, err, "could not load achievements")
		return
	}
	c.JSON(http.StatusOK, gin.H{"achievements": defs})
}

func (h *AchievementHandler) GetMine(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	achievements, err := h.service.GetUserAchievements(c.Request.Context(), userID)
	if err != nil {
		response.ResponseErrorWithMessage(c, err, "could not load achievements")
		return
	}
	stats, err := h.service.GetUserAchievementStats(c.Request.Context(), userID)
	if err != nil {
		response.ResponseErrorWithMessage(c, err, "could not load achievements")
		return
	}

	c.JSON(http.StatusOK, gin.H{"achievements": achievements, "stats": stats})
}

func (h *AchievementHandler) GetProgress(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	progress, err := h.service.GetUserAchievementProgress(c.Request.Context(), userID)
	if err != nil {
		response.ResponseErrorWithMessage(c, err, "could not load achievement progress")
		return
	}
	c.JSON(http.StatusOK, gin.H{"progress": progress})
}

func (h *AchievementHandler) Check(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	granted, err := h.service.CheckAndGrantAutomaticAchievements(c.Request.Context(), userID)
	if err != nil {
		response.ResponseErrorWithMessage(c, err, "could not check achievements")
		return
	}
	c.JSON(http.StatusOK, gin.H{"granted": granted, "count": len(granted)})
}

// Revoke is the admin path that deletes one grant.
func (h *AchievementHandler) Revoke(c *gin.Context) {
	var req dto.RevokeAchievementRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.BindError(c, err)
		return
	}

	if err := h.service.RevokeAchievement(c.Request.Context(), uuid.MustParse(req.UserID), req.Slug); err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "achievement revoked"})
}
