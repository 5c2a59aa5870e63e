package handler

import (
	"net/http"

	"anoa.com/kopilka/internal/modules/application/dto"
	application "anoa.com/kopilka/internal/modules/application/service"
	commonDto "anoa.com/kopilka/pkg/dto"
	"anoa.com/kopilka/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ApplicationHandler struct {
	service application.ApplicationService
}

func NewApplicationHandler(service application.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{service: service}
}

func (h *ApplicationHandler) Submit(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req dto.SubmitApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	resp, err := h.service.Submit(c.Request.Context(), userID, req)
	if err != nil {
		response.ResponseErrorWithMessage(c, err, "failed to submit application")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (h *ApplicationHandler) GetMine(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var q commonDto.PageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BindError(c, err)
		return
	}

	apps, meta, err := h.service.GetMine(c.Request.Context(), userID, q)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": apps, "meta": meta})
}

func (h *ApplicationHandler) GetByID(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var param commonDto.UUIDParam
	if err := c.ShouldBindUri(&param); err != nil {
		response.BindError(c, err)
		return
	}

	app, err := h.service.GetByID(c.Request.Context(), userID, uuid.MustParse(param.ID))
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": app})
}

func (h *ApplicationHandler) ListApproved(c *gin.Context) {
	var q dto.ApplicationListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BindError(c, err)
		return
	}

	apps, meta, err := h.service.ListApproved(c.Request.Context(), q)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": apps, "meta": meta})
}

func (h *ApplicationHandler) Search(c *gin.Context) {
	var q dto.SearchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BindError(c, err)
		return
	}

	hits, meta, err := h.service.Search(c.Request.Context(), q)
	if err != nil {
		response.ResponseErrorWithMessage(c, err, "search is unavailable")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": hits, "meta": meta})
}

func (h *ApplicationHandler) ListPending(c *gin.Context) {
	var q commonDto.PageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BindError(c, err)
		return
	}

	apps, meta, err := h.service.ListPending(c.Request.Context(), q)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": apps, "meta": meta})
}

func (h *ApplicationHandler) Review(c *gin.Context) {
	reviewerID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var param commonDto.UUIDParam
	if err := c.ShouldBindUri(&param); err != nil {
		response.BindError(c, err)
		return
	}

	var req dto.ReviewApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	app, err := h.service.Review(c.Request.Context(), reviewerID, uuid.MustParse(param.ID), req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": app})
}
