package handlers

import (
	"strconv"

	"github.com/hugo617/healthcare-admin-sub002/internal/services"
	"github.com/hugo617/healthcare-admin-sub002/pkg/pagination"
	"github.com/hugo617/healthcare-admin-sub002/pkg/response"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler() *UserHandler {
	return &UserHandler{
		userService: services.NewUserService(),
	}
}

type CreateUserRequest struct {
	TenantID uint    `json:"tenant_id"`
	RoleID   uint    `json:"role_id" binding:"required"`
	Username string  `json:"username" binding:"required"`
	Email    string  `json:"email" binding:"required,email"`
	Password string  `json:"password" binding:"required,min=6"`
	Name     string  `json:"name" binding:"required"`
	Phone    *string `json:"phone"`
}

type UpdateUserRequest struct {
	Name   string  `json:"name"`
	Phone  *string `json:"phone"`
	Avatar *string `json:"avatar"`
}

// Create 创建用户
func (h *UserHandler) Create(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	// 非超级管理员只能在本租户内创建用户
	tenantID := req.TenantID
	if isSuper, _ := c.Get("is_super_admin"); isSuper != true {
		if ctxTenantID, exists := c.Get("tenant_id"); exists {
			tenantID = ctxTenantID.(uint)
		}
	}

	user, err := h.userService.Create(tenantID, req.RoleID, req.Username, req.Email, req.Password, req.Name, req.Phone)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	response.Success(c, user)
}

// GetAll 用户列表（分页）
func (h *UserHandler) GetAll(c *gin.Context) {
	params := pagination.ParsePageParams(c)
	status := c.Query("status")
	keyword := c.Query("keyword")

	// 非超级管理员只能看本租户用户
	var tenantID *uint
	if isSuper, _ := c.Get("is_super_admin"); isSuper != true {
		if ctxTenantID, exists := c.Get("tenant_id"); exists {
			id := ctxTenantID.(uint)
			tenantID = &id
		}
	} else if t := c.Query("tenant_id"); t != "" {
		if id64, err := strconv.ParseUint(t, 10, 32); err == nil {
			id := uint(id64)
			tenantID = &id
		}
	}

	users, total, err := h.userService.GetWithFiltersAndPage(tenantID, status, keyword, params.Page, params.PageSize)
	if err != nil {
		response.ServerError(c, "查询用户列表失败")
		return
	}

	response.SuccessWithPage(c, users, pagination.NewPageInfo(params.Page, params.PageSize, total))
}

// GetByID 根据ID获取用户
func (h *UserHandler) GetByID(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "用户ID格式错误")
		return
	}

	user, err := h.userService.GetByID(uint(id))
	if err != nil {
		response.NotFound(c, "用户不存在")
		return
	}

	response.Success(c, user)
}

// Update 更新用户
func (h *UserHandler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "用户ID格式错误")
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	user, err := h.userService.Update(uint(id), req.Name, req.Phone, req.Avatar)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	response.Success(c, user)
}

// Delete 删除用户
func (h *UserHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "用户ID格式错误")
		return
	}

	if err := h.userService.Delete(uint(id)); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	response.SuccessWithMessage(c, "删除成功", nil)
}

// Activate 激活用户
func (h *UserHandler) Activate(c *gin.Context) {
	h.setStatus(c, h.userService.Activate)
}

// Deactivate 停用用户
func (h *UserHandler) Deactivate(c *gin.Context) {
	h.setStatus(c, h.userService.Deactivate)
}

// Lock 锁定用户
func (h *UserHandler) Lock(c *gin.Context) {
	h.setStatus(c, h.userService.Lock)
}

func (h *UserHandler) setStatus(c *gin.Context, op func(uint) error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "用户ID格式错误")
		return
	}

	if err := op(uint(id)); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	response.SuccessWithMessage(c, "操作成功", nil)
}
