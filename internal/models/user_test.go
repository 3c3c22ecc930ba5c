package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserPassword(t *testing.T) {
	user := &User{}

	require.NoError(t, user.SetPassword("secret-password"))
	assert.NotEmpty(t, user.PasswordHash)
	assert.NotEqual(t, "secret-password", user.PasswordHash)

	assert.True(t, user.CheckPassword("secret-password"))
	assert.False(t, user.CheckPassword("wrong-password"))
	assert.False(t, user.CheckPassword(""))
}

func TestUserIsActive(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{UserStatusActive, true},
		{UserStatusInactive, false},
		{UserStatusLocked, false},
		{"", false},
	}

	for _, tt := range tests {
		user := &User{Status: tt.status}
		assert.Equal(t, tt.want, user.IsActive(), "status=%q", tt.status)
	}
}

func TestTenantIsDefault(t *testing.T) {
	assert.True(t, (&Tenant{Code: DefaultTenantCode}).IsDefault())
	assert.False(t, (&Tenant{Code: "acme"}).IsDefault())
}

func TestIsValidPermissionType(t *testing.T) {
	for _, permType := range []string{PermissionTypeMenu, PermissionTypePage, PermissionTypeButton, PermissionTypeAPI, PermissionTypeData} {
		assert.True(t, IsValidPermissionType(permType))
	}
	assert.False(t, IsValidPermissionType("widget"))
	assert.False(t, IsValidPermissionType(""))
}
