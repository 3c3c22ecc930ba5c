package handlers

import (
	"strconv"

	"github.com/hugo617/healthcare-admin-sub002/internal/services"
	apperrors "github.com/hugo617/healthcare-admin-sub002/pkg/errors"
	"github.com/hugo617/healthcare-admin-sub002/pkg/response"

	"github.com/gin-gonic/gin"
)

type RoleHandler struct {
	roleService *services.RoleService
}

func NewRoleHandler(roleService *services.RoleService) *RoleHandler {
	return &RoleHandler{
		roleService: roleService,
	}
}

type CreateRoleRequest struct {
	TenantID    uint   `json:"tenant_id"`
	Code        string `json:"code" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type UpdateRoleRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Status      string `json:"status" binding:"required"`
}

type AssignPermissionsRequest struct {
	PermissionIDs []uint `json:"permission_ids" binding:"required"`
}

// Create 创建角色
func (h *RoleHandler) Create(c *gin.Context) {
	var req CreateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	// 非超级管理员只能在本租户内创建角色
	tenantID := req.TenantID
	if isSuper, _ := c.Get("is_super_admin"); isSuper != true {
		if ctxTenantID, exists := c.Get("tenant_id"); exists {
			tenantID = ctxTenantID.(uint)
		}
	}

	role, err := h.roleService.Create(tenantID, req.Code, req.Name, req.Description)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	response.Success(c, role)
}

// GetByID 根据ID获取角色
func (h *RoleHandler) GetByID(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "角色ID格式错误")
		return
	}

	role, err := h.roleService.GetByID(uint(id))
	if err != nil {
		response.NotFound(c, "角色不存在")
		return
	}

	response.Success(c, role)
}

// GetByTenant 获取本租户角色列表
func (h *RoleHandler) GetByTenant(c *gin.Context) {
	tenantIDValue, exists := c.Get("tenant_id")
	if !exists {
		response.Unauthorized(c, "请先登录")
		return
	}

	roles, err := h.roleService.GetByTenant(tenantIDValue.(uint))
	if err != nil {
		response.ServerError(c, "查询角色列表失败")
		return
	}

	response.Success(c, roles)
}

// Update 更新角色
func (h *RoleHandler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "角色ID格式错误")
		return
	}

	var req UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	role, err := h.roleService.Update(uint(id), req.Name, req.Description, req.Status)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrImmutableSystemEntity) {
			response.Forbidden(c, err.Error())
			return
		}
		response.BadRequest(c, err.Error())
		return
	}

	response.Success(c, role)
}

// Delete 删除角色
func (h *RoleHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "角色ID格式错误")
		return
	}

	if err := h.roleService.Delete(uint(id)); err != nil {
		if apperrors.Is(err, apperrors.ErrImmutableSystemEntity) {
			response.Forbidden(c, err.Error())
			return
		}
		response.BadRequest(c, err.Error())
		return
	}

	response.SuccessWithMessage(c, "删除成功", nil)
}

// AssignPermissions 为角色分配权限
func (h *RoleHandler) AssignPermissions(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "角色ID格式错误")
		return
	}

	var req AssignPermissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	if err := h.roleService.AssignPermissions(uint(id), req.PermissionIDs); err != nil {
		if apperrors.Is(err, apperrors.ErrImmutableSystemEntity) {
			response.Forbidden(c, err.Error())
			return
		}
		response.BadRequest(c, err.Error())
		return
	}

	response.SuccessWithMessage(c, "权限分配成功", nil)
}

// GetPermissions 获取角色的权限
func (h *RoleHandler) GetPermissions(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "角色ID格式错误")
		return
	}

	permissions, err := h.roleService.GetRolePermissions(uint(id))
	if err != nil {
		response.NotFound(c, "角色不存在")
		return
	}

	response.Success(c, permissions)
}
