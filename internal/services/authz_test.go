package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluatorHas(t *testing.T) {
	evaluator := NewEvaluator(false, []string{"account.user.list", "account.user.read"})

	assert.True(t, evaluator.Has("account.user.list"))
	assert.True(t, evaluator.Has("account.user.read"))
	assert.False(t, evaluator.Has("account.user.delete"))
	assert.False(t, evaluator.Has(""))
}

func TestEvaluatorSuperAdminBypass(t *testing.T) {
	// 超级管理员不依赖代码集合，空集合也全部放行
	evaluator := NewEvaluator(true, nil)

	assert.True(t, evaluator.Has("account.user.delete"))
	assert.True(t, evaluator.Has("任意代码"))
	assert.True(t, evaluator.HasAny([]string{"x", "y"}))
	assert.True(t, evaluator.HasAll([]string{"x", "y", "z"}))
	assert.True(t, evaluator.HasAll(nil))
}

func TestEvaluatorHasAny(t *testing.T) {
	evaluator := NewEvaluator(false, []string{"account.user.list"})

	assert.True(t, evaluator.HasAny([]string{"account.user.delete", "account.user.list"}))
	assert.False(t, evaluator.HasAny([]string{"account.user.delete", "account.user.update"}))
	assert.False(t, evaluator.HasAny(nil))
}

func TestEvaluatorHasAll(t *testing.T) {
	evaluator := NewEvaluator(false, []string{"account.user.list", "account.user.read"})

	assert.True(t, evaluator.HasAll([]string{"account.user.list", "account.user.read"}))
	assert.False(t, evaluator.HasAll([]string{"account.user.list", "account.user.delete"}))
	// 空集合的全称量词为真
	assert.True(t, evaluator.HasAll(nil))
}

func TestEvaluatorDuplicateCodes(t *testing.T) {
	evaluator := NewEvaluator(false, []string{"a", "a", "b"})

	assert.True(t, evaluator.Has("a"))
	assert.True(t, evaluator.HasAll([]string{"a", "b"}))
}
