package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hugo617/healthcare-admin-sub002/internal/models"
	apperrors "github.com/hugo617/healthcare-admin-sub002/pkg/errors"
)

func TestVetPrincipalActive(t *testing.T) {
	user := &models.User{Status: models.UserStatusActive}
	assert.NoError(t, vetPrincipal(user))
}

func TestVetPrincipalRejectsNonActive(t *testing.T) {
	// 锁定和停用一视同仁：令牌签名再有效也不放行
	for _, status := range []string{models.UserStatusLocked, models.UserStatusInactive} {
		user := &models.User{Status: status}
		assert.ErrorIs(t, vetPrincipal(user), apperrors.ErrDisabledPrincipal)
	}
}
