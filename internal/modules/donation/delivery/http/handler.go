package handler

import (
	"net/http"

	"anoa.com/kopilka/internal/modules/donation/dto"
	donation "anoa.com/kopilka/internal/modules/donation/service"
	commonDto "anoa.com/kopilka/pkg/dto"
	"anoa.com/kopilka/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type DonationHandler struct {
	service donation.DonationService
}

func NewDonationHandler(service donation.DonationService) *DonationHandler {
	return &DonationHandler{service: service}
}

// Donate handles POST /applications/:id/donations.
func (h *DonationHandler) Donate(c *gin.Context) {
	donorID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var param commonDto.UUIDParam
	if err := c.ShouldBindUri(&param); err != nil {
		response.BindError(c, err)
		return
	}

	var req dto.DonateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	result, err := h.service.Donate(c.Request.Context(), donorID, uuid.MustParse(param.ID), req)
	if err != nil {
		response.ResponseErrorWithMessage(c, err, "failed to record donation")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": result})
}

func (h *DonationHandler) ListForApplication(c *gin.Context) {
	var param commonDto.UUIDParam
	if err := c.ShouldBindUri(&param); err != nil {
		response.BindError(c, err)
		return
	}

	var q commonDto.PageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BindError(c, err)
		return
	}

	donations, meta, err := h.service.ListForApplication(c.Request.Context(), uuid.MustParse(param.ID), q)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": donations, "meta": meta})
}

func (h *DonationHandler) ListMine(c *gin.Context) {
	donorID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var q commonDto.PageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BindError(c, err)
		return
	}

	donations, meta, err := h.service.ListMine(c.Request.Context(), donorID, q)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": donations, "meta": meta})
}
