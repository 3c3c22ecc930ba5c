package handlers

import (
	"strconv"

	"github.com/hugo617/healthcare-admin-sub002/internal/middleware"
	"github.com/hugo617/healthcare-admin-sub002/internal/models"
	"github.com/hugo617/healthcare-admin-sub002/internal/services"
	apperrors "github.com/hugo617/healthcare-admin-sub002/pkg/errors"
	"github.com/hugo617/healthcare-admin-sub002/pkg/pagination"
	"github.com/hugo617/healthcare-admin-sub002/pkg/response"

	"github.com/gin-gonic/gin"
)

type TenantHandler struct {
	tenantService *services.TenantService
}

func NewTenantHandler(tenantService *services.TenantService) *TenantHandler {
	return &TenantHandler{
		tenantService: tenantService,
	}
}

type CreateTenantRequest struct {
	Name     string                 `json:"name" binding:"required"`
	Code     string                 `json:"code" binding:"required"`
	Settings map[string]interface{} `json:"settings"`
}

type UpdateTenantRequest struct {
	Name     string                 `json:"name"`
	Status   string                 `json:"status"`
	Settings map[string]interface{} `json:"settings"`
}

// Create 创建租户
func (h *TenantHandler) Create(c *gin.Context) {
	var req CreateTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	tenant, err := h.tenantService.Create(req.Name, req.Code, req.Settings)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	response.Success(c, tenant)
}

// GetAll 租户列表（分页）
func (h *TenantHandler) GetAll(c *gin.Context) {
	params := pagination.ParsePageParams(c)
	status := c.Query("status")
	keyword := c.Query("keyword")

	tenants, total, err := h.tenantService.GetWithFiltersAndPage(status, keyword, params.Page, params.PageSize)
	if err != nil {
		response.ServerError(c, "查询租户列表失败")
		return
	}

	response.SuccessWithPage(c, tenants, pagination.NewPageInfo(params.Page, params.PageSize, total))
}

// GetByID 根据ID获取租户
func (h *TenantHandler) GetByID(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "租户ID格式错误")
		return
	}

	tenant, err := h.tenantService.GetByID(uint(id))
	if err != nil {
		response.NotFound(c, "租户不存在")
		return
	}

	response.Success(c, tenant)
}

// Current 当前请求解析出的租户
// 解析方式一并返回，租户敏感的调用方可据此识别默认租户兜底
func (h *TenantHandler) Current(c *gin.Context) {
	resolution := middleware.TenantSignalFromContext(c)

	tenant, err := h.tenantService.ResolveRecord(resolution.TenantID)
	if err != nil {
		response.ServerError(c, "租户解析失败")
		return
	}

	response.Success(c, gin.H{
		"tenant": tenant,
		"method": resolution.Method,
	})
}

// Update 更新租户
func (h *TenantHandler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "租户ID格式错误")
		return
	}

	var req UpdateTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	tenant, err := h.tenantService.Update(uint(id), req.Name, req.Status, req.Settings)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrDefaultTenantProtection) {
			response.Forbidden(c, err.Error())
			return
		}
		response.BadRequest(c, err.Error())
		return
	}

	response.Success(c, tenant)
}

// Delete 删除租户
func (h *TenantHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "租户ID格式错误")
		return
	}

	if err := h.tenantService.Delete(uint(id)); err != nil {
		if apperrors.Is(err, apperrors.ErrDefaultTenantProtection) {
			response.Forbidden(c, err.Error())
			return
		}
		if apperrors.Is(err, apperrors.ErrTenantNotFound) {
			response.NotFound(c, "租户不存在")
			return
		}
		response.ServerError(c, "删除租户失败")
		return
	}

	response.SuccessWithMessage(c, "删除成功", nil)
}

// Activate 激活租户
func (h *TenantHandler) Activate(c *gin.Context) {
	h.setStatus(c, h.tenantService.Activate)
}

// Deactivate 停用租户
func (h *TenantHandler) Deactivate(c *gin.Context) {
	h.setStatus(c, h.tenantService.Deactivate)
}

// Suspend 暂停租户
func (h *TenantHandler) Suspend(c *gin.Context) {
	h.setStatus(c, h.tenantService.Suspend)
}

func (h *TenantHandler) setStatus(c *gin.Context, op func(uint) (*models.Tenant, error)) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "租户ID格式错误")
		return
	}

	tenant, err := op(uint(id))
	if err != nil {
		if apperrors.Is(err, apperrors.ErrDefaultTenantProtection) {
			response.Forbidden(c, err.Error())
			return
		}
		if apperrors.Is(err, apperrors.ErrTenantNotFound) {
			response.NotFound(c, "租户不存在")
			return
		}
		response.ServerError(c, "更新租户状态失败")
		return
	}

	response.Success(c, tenant)
}
