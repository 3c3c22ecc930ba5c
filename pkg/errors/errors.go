package errors

import "errors"

// ========== 错误码常量定义 ==========

// CodeSuccess 成功码
const (
	CodeSuccess = 200
)

// HTTP层错误码 (400-599)
const (
	CodeInvalidParam = 400
	CodeUnauthorized = 401
	CodeForbidden    = 403
	CodeNotFound     = 404
	CodeServerError  = 500
)

// ========== 认证授权错误 ==========

// 凭证与主体错误：在中间件内部降级为匿名处理，不向业务层抛出
var (
	ErrMalformedToken    = errors.New("令牌格式错误")
	ErrExpiredToken      = errors.New("令牌已过期")
	ErrUnknownPrincipal  = errors.New("用户不存在")
	ErrDisabledPrincipal = errors.New("用户已被禁用")
)

// 租户与系统实体错误
var (
	ErrTenantNotFound          = errors.New("租户不存在")
	ErrImmutableSystemEntity   = errors.New("系统内置数据不允许修改或删除")
	ErrPermissionParentCycle   = errors.New("权限父级关系存在循环")
	ErrDefaultTenantProtection = errors.New("默认租户不允许删除或停用")
)

// Is 包装标准库errors.Is，减少调用方的双导入
func Is(err, target error) bool {
	return errors.Is(err, target)
}
