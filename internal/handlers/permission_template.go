package handlers

import (
	"strconv"

	"github.com/hugo617/healthcare-admin-sub002/internal/services"
	apperrors "github.com/hugo617/healthcare-admin-sub002/pkg/errors"
	"github.com/hugo617/healthcare-admin-sub002/pkg/response"

	"github.com/gin-gonic/gin"
)

type PermissionTemplateHandler struct {
	templateService *services.PermissionTemplateService
}

func NewPermissionTemplateHandler(templateService *services.PermissionTemplateService) *PermissionTemplateHandler {
	return &PermissionTemplateHandler{
		templateService: templateService,
	}
}

type CreateTemplateRequest struct {
	Code          string `json:"code" binding:"required"`
	Name          string `json:"name" binding:"required"`
	Description   string `json:"description"`
	PermissionIDs []uint `json:"permission_ids"`
}

type UpdateTemplateRequest struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	PermissionIDs []uint `json:"permission_ids"`
}

type ApplyTemplateRequest struct {
	RoleID uint `json:"role_id" binding:"required"`
}

// Create 创建权限模板
func (h *PermissionTemplateHandler) Create(c *gin.Context) {
	var req CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	template, err := h.templateService.Create(req.Code, req.Name, req.Description, req.PermissionIDs)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	response.Success(c, template)
}

// GetAll 模板列表
func (h *PermissionTemplateHandler) GetAll(c *gin.Context) {
	templates, err := h.templateService.GetAll()
	if err != nil {
		response.ServerError(c, "查询模板列表失败")
		return
	}

	response.Success(c, templates)
}

// GetByID 根据ID获取模板
func (h *PermissionTemplateHandler) GetByID(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "模板ID格式错误")
		return
	}

	template, err := h.templateService.GetByID(uint(id))
	if err != nil {
		response.NotFound(c, "模板不存在")
		return
	}

	response.Success(c, template)
}

// Update 更新模板
func (h *PermissionTemplateHandler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "模板ID格式错误")
		return
	}

	var req UpdateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	template, err := h.templateService.Update(uint(id), req.Name, req.Description, req.PermissionIDs)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrImmutableSystemEntity) {
			response.Forbidden(c, err.Error())
			return
		}
		response.BadRequest(c, err.Error())
		return
	}

	response.Success(c, template)
}

// Delete 删除模板
func (h *PermissionTemplateHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "模板ID格式错误")
		return
	}

	if err := h.templateService.Delete(uint(id)); err != nil {
		if apperrors.Is(err, apperrors.ErrImmutableSystemEntity) {
			response.Forbidden(c, err.Error())
			return
		}
		response.BadRequest(c, err.Error())
		return
	}

	response.SuccessWithMessage(c, "删除成功", nil)
}

// ApplyToRole 将模板权限套用到角色
func (h *PermissionTemplateHandler) ApplyToRole(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "模板ID格式错误")
		return
	}

	var req ApplyTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	if err := h.templateService.ApplyToRole(uint(id), req.RoleID); err != nil {
		if apperrors.Is(err, apperrors.ErrImmutableSystemEntity) {
			response.Forbidden(c, err.Error())
			return
		}
		response.BadRequest(c, err.Error())
		return
	}

	response.SuccessWithMessage(c, "模板套用成功", nil)
}
