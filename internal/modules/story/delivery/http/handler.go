package handler

import (
	"net/http"

	"anoa.com/kopilka/internal/modules/story/dto"
	story "anoa.com/kopilka/internal/modules/story/service"
	commonDto "anoa.com/kopilka/pkg/dto"
	"anoa.com/kopilka/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type StoryHandler struct {
	service story.StoryService
}

func NewStoryHandler(service story.StoryService) *StoryHandler {
	return &StoryHandler{service: service}
}

// userAndID binds the caller and the :id path parameter. It writes the error response itself.
func userAndID(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return uuid.Nil, uuid.Nil, false
	}

	var param commonDto.UUIDParam
	if err := c.ShouldBindUri(&param); err != nil {
		response.BindError(c, err)
		return uuid.Nil, uuid.Nil, false
	}
	return userID, uuid.MustParse(param.ID), true
}

func (h *StoryHandler) Create(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req dto.StoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	result, err := h.service.Create(c.Request.Context(), userID, req)
	if err != nil {
		response.ResponseErrorWithMessage(c, err, "failed to create story")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": result})
}

func (h *StoryHandler) Update(c *gin.Context) {
	userID, id, ok := userAndID(c)
	if !ok {
		return
	}

	var req dto.StoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	result, err := h.service.Update(c.Request.Context(), userID, id, req)
	if err != nil {
		response.ResponseErrorWithMessage(c, err, "failed to update story")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

func (h *StoryHandler) Delete(c *gin.Context) {
	userID, id, ok := userAndID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), userID, id); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "story deleted successfully"})
}

func (h *StoryHandler) GetByID(c *gin.Context) {
	userID, id, ok := userAndID(c)
	if !ok {
		return
	}

	st, err := h.service.GetByID(c.Request.Context(), userID, id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": st})
}

func (h *StoryHandler) List(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var q dto.StoryListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BindError(c, err)
		return
	}

	stories, meta, err := h.service.List(c.Request.Context(), userID, q)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": stories, "meta": meta})
}

func (h *StoryHandler) ToggleLike(c *gin.Context) {
	userID, id, ok := userAndID(c)
	if !ok {
		return
	}

	result, err := h.service.ToggleLike(c.Request.Context(), userID, id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}
