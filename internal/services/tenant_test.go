package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTenantServiceValidateCode(t *testing.T) {
	s := NewTenantServiceWithDB(nil)

	valid := []string{"acme", "clinic-a", "t1", "a0-b1-c2"}
	for _, code := range valid {
		assert.True(t, s.ValidateCode(code), "code=%q", code)
	}

	invalid := []string{"", "a", "ACME", "acme_corp", "acme.corp", "中文", "a b"}
	for _, code := range invalid {
		assert.False(t, s.ValidateCode(code), "code=%q", code)
	}
}

func TestTenantServiceValidateName(t *testing.T) {
	s := NewTenantServiceWithDB(nil)

	assert.True(t, s.ValidateName("默认租户"))
	assert.True(t, s.ValidateName("AB"))
	assert.False(t, s.ValidateName("A"))
	assert.False(t, s.ValidateName(""))
}

func TestTenantServiceValidateStatus(t *testing.T) {
	s := NewTenantServiceWithDB(nil)

	assert.True(t, s.ValidateStatus("active"))
	assert.True(t, s.ValidateStatus("inactive"))
	assert.True(t, s.ValidateStatus("suspended"))
	assert.False(t, s.ValidateStatus("unknown"))
	assert.False(t, s.ValidateStatus(""))
}
