package handler

import (
	"net/http"

	"anoa.com/kopilka/internal/modules/admin/dto"
	admin "anoa.com/kopilka/internal/modules/admin/service"
	commonDto "anoa.com/kopilka/pkg/dto"
	"anoa.com/kopilka/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AdminHandler struct {
	adminService admin.AdminService
}

func NewAdminHandler(adminService admin.AdminService) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
	}
}

func (h *AdminHandler) GetAllUsers(c *gin.Context) {
	var q dto.UserListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BindError(c, err)
		return
	}

	users, meta, err := h.adminService.GetAllUsers(c.Request.Context(), q)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": users, "meta": meta})
}

func (h *AdminHandler) UpdateRole(c *gin.Context) {
	actorID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var param commonDto.UUIDParam
	if err := c.ShouldBindUri(&param); err != nil {
		response.BindError(c, err)
		return
	}

	var input dto.UpdateRoleInput
	if err := c.ShouldBind(&input); err != nil {
		response.BindError(c, err)
		return
	}

	res, err := h.adminService.UpdateRole(c.Request.Context(), actorID, uuid.MustParse(param.ID), input.Role)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": res})
}

func (h *AdminHandler) DeleteUser(c *gin.Context) {
	actorID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var param commonDto.UUIDParam
	if err := c.ShouldBindUri(&param); err != nil {
		response.BindError(c, err)
		return
	}

	if err := h.adminService.DeleteUser(c.Request.Context(), actorID, uuid.MustParse(param.ID)); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "user deleted successfully"})
}
