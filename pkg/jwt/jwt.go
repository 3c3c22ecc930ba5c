package jwt

import (
	"errors"
	"sync"
	"time"

	"github.com/hugo617/healthcare-admin-sub002/pkg/config"
	apperrors "github.com/hugo617/healthcare-admin-sub002/pkg/errors"

	"github.com/golang-jwt/jwt/v5"
)

// JWTClaims JWT声明
type JWTClaims struct {
	UserID       uint   `json:"id"`             // 主体ID
	TenantID     uint   `json:"tenant_id"`      // 所属租户
	RoleID       uint   `json:"role_id"`        // 所属角色
	IsSuperAdmin bool   `json:"is_super_admin"` // 超级管理员标记
	Username     string `json:"username"`       // 仅用于展示
	Email        string `json:"email"`          // 仅用于展示
	jwt.RegisteredClaims
}

// JWTManager JWT管理器
// 签名密钥为进程级配置，启动时注入一次，此后不可变
type JWTManager struct {
	secretKey     string
	tokenDuration time.Duration
}

// NewJWTManager 创建JWT管理器
func NewJWTManager(secretKey string, tokenDuration time.Duration) *JWTManager {
	return &JWTManager{
		secretKey:     secretKey,
		tokenDuration: tokenDuration,
	}
}

// GenerateToken 生成JWT令牌
func (manager *JWTManager) GenerateToken(userID, tenantID, roleID uint, username, email string, isSuperAdmin bool) (string, error) {
	claims := JWTClaims{
		UserID:       userID,
		TenantID:     tenantID,
		RoleID:       roleID,
		IsSuperAdmin: isSuperAdmin,
		Username:     username,
		Email:        email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(manager.tokenDuration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Issuer:    "healthcare-admin",
			Subject:   username,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(manager.secretKey))
}

// VerifyToken 验证JWT令牌
// 过期、签名不符、无法解析分别映射为类型化错误，绝不panic；
// 调用方据此做"是否存在可用会话"的快速判断，不需要异常控制流
func (manager *JWTManager) VerifyToken(tokenString string) (*JWTClaims, error) {
	if tokenString == "" {
		return nil, apperrors.ErrMalformedToken
	}

	token, err := jwt.ParseWithClaims(
		tokenString,
		&JWTClaims{},
		func(token *jwt.Token) (interface{}, error) {
			// 验证签名方法
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("意外的签名方法")
			}
			return []byte(manager.secretKey), nil
		},
	)

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, apperrors.ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, apperrors.ErrMalformedToken
		default:
			return nil, apperrors.ErrMalformedToken
		}
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, apperrors.ErrMalformedToken
	}

	return claims, nil
}

// RefreshToken 刷新令牌
func (manager *JWTManager) RefreshToken(tokenString string) (string, error) {
	claims, err := manager.VerifyToken(tokenString)
	if err != nil {
		return "", err
	}

	return manager.GenerateToken(
		claims.UserID,
		claims.TenantID,
		claims.RoleID,
		claims.Username,
		claims.Email,
		claims.IsSuperAdmin,
	)
}

// GetTokenDuration 获取令牌有效期
func (manager *JWTManager) GetTokenDuration() time.Duration {
	return manager.tokenDuration
}

// 单例实现
var (
	defaultManager *JWTManager
	once           sync.Once
)

// GetJWTManager 获取全局JWT管理器实例
func GetJWTManager() *JWTManager {
	once.Do(func() {
		cfg := config.GetConfig()
		tokenDuration, err := time.ParseDuration(cfg.JWT.TokenDuration)
		if err != nil {
			tokenDuration = 24 * time.Hour
		}
		defaultManager = NewJWTManager(cfg.JWT.SecretKey, tokenDuration)
	})
	return defaultManager
}
