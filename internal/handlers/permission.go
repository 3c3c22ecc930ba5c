package handlers

import (
	"fmt"
	"strconv"

	"github.com/hugo617/healthcare-admin-sub002/internal/services"
	apperrors "github.com/hugo617/healthcare-admin-sub002/pkg/errors"
	"github.com/hugo617/healthcare-admin-sub002/pkg/pagination"
	"github.com/hugo617/healthcare-admin-sub002/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type PermissionHandler struct {
	permissionService *services.PermissionService
}

func NewPermissionHandler(permissionService *services.PermissionService) *PermissionHandler {
	return &PermissionHandler{
		permissionService: permissionService,
	}
}

type CreatePermissionRequest struct {
	Code         string `json:"code" binding:"required"`
	Name         string `json:"name" binding:"required"`
	Description  string `json:"description"`
	Type         string `json:"type" binding:"required,oneof=menu page button api data"`
	ParentID     *uint  `json:"parent_id"`
	SortOrder    int    `json:"sort_order"`
	Path         string `json:"path"`
	APIPath      string `json:"api_path"`
	Method       string `json:"method"`
	ResourceType string `json:"resource_type"`
}

type UpdatePermissionRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ParentID    *uint  `json:"parent_id"`
	SortOrder   int    `json:"sort_order"`
	Status      string `json:"status"`
}

// Create 创建权限
func (h *PermissionHandler) Create(c *gin.Context) {
	var req CreatePermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if validationErr, ok := err.(validator.ValidationErrors); ok {
			errorMsg := "参数验证失败"
			for _, fieldErr := range validationErr {
				switch fieldErr.Field() {
				case "Code":
					errorMsg = "权限代码不能为空"
				case "Name":
					errorMsg = "权限名称不能为空"
				case "Type":
					errorMsg = "权限类型必须是 menu、page、button、api 或 data"
				default:
					errorMsg = fmt.Sprintf("字段 %s 验证失败", fieldErr.Field())
				}
				break // 只返回第一个错误
			}
			response.BadRequest(c, errorMsg)
			return
		}
		response.BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	permission, err := h.permissionService.Create(
		req.Code, req.Name, req.Description, req.Type,
		req.ParentID, req.SortOrder,
		req.Path, req.APIPath, req.Method, req.ResourceType,
	)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	response.Success(c, permission)
}

// GetAll 权限列表（分页）
func (h *PermissionHandler) GetAll(c *gin.Context) {
	params := pagination.ParsePageParams(c)
	permType := c.Query("type")

	permissions, total, err := h.permissionService.GetWithPage(permType, params.Page, params.PageSize)
	if err != nil {
		response.ServerError(c, "查询权限列表失败")
		return
	}

	response.SuccessWithPage(c, permissions, pagination.NewPageInfo(params.Page, params.PageSize, total))
}

// GetByID 根据ID获取权限
func (h *PermissionHandler) GetByID(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "权限ID格式错误")
		return
	}

	permission, err := h.permissionService.GetByID(uint(id))
	if err != nil {
		response.NotFound(c, "权限不存在")
		return
	}

	response.Success(c, permission)
}

// GetTree 权限树：按顶级模块分组的权限森林，节点带角色引用计数
func (h *PermissionHandler) GetTree(c *gin.Context) {
	tree, err := h.permissionService.GetTree()
	if err != nil {
		response.ServerError(c, "构建权限树失败")
		return
	}

	response.Success(c, tree)
}

// Update 更新权限
func (h *PermissionHandler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "权限ID格式错误")
		return
	}

	var req UpdatePermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	permission, err := h.permissionService.Update(uint(id), req.Name, req.Description, req.ParentID, req.SortOrder, req.Status)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrImmutableSystemEntity) {
			response.Forbidden(c, err.Error())
			return
		}
		if apperrors.Is(err, apperrors.ErrPermissionParentCycle) {
			response.BadRequest(c, err.Error())
			return
		}
		response.BadRequest(c, err.Error())
		return
	}

	response.Success(c, permission)
}

// Delete 删除权限
func (h *PermissionHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "权限ID格式错误")
		return
	}

	if err := h.permissionService.Delete(uint(id)); err != nil {
		if apperrors.Is(err, apperrors.ErrImmutableSystemEntity) {
			response.Forbidden(c, err.Error())
			return
		}
		response.BadRequest(c, err.Error())
		return
	}

	response.SuccessWithMessage(c, "删除成功", nil)
}
