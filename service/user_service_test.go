package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRegister_DuplicateEmail 测试邮箱唯一
//
// 验证闭环：
// 1. 首次注册成功
// 2. 相同邮箱（含大小写变体）二次注册被拒绝
func TestRegister_DuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)

	_, err := svc.Register("Alice", "alice@example.com", "password123")
	require.NoError(t, err)

	_, err = svc.Register("Alice Two", "alice@example.com", "password123")
	assert.EqualError(t, err, "email already registered")

	// 邮箱统一小写存储，大小写变体视为同一邮箱
	_, err = svc.Register("Alice Three", "ALICE@example.com", "password123")
	assert.EqualError(t, err, "email already registered")
}

// TestRegister_Validation 测试注册入参校验
func TestRegister_Validation(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)

	_, err := svc.Register("", "a@example.com", "password123")
	assert.Error(t, err)

	_, err = svc.Register("Alice", "a@example.com", "short")
	assert.EqualError(t, err, "password must be at least 6 characters")
}

// TestAuthenticate 测试登录
//
// 验证闭环：
// 1. 正确密码登录成功
// 2. 错误密码与不存在的邮箱返回同一错误，不泄露账号是否存在
func TestAuthenticate(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)

	user, err := svc.Register("Bob", "bob@example.com", "password123")
	require.NoError(t, err)

	got, err := svc.Authenticate("bob@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = svc.Authenticate("bob@example.com", "wrongpass")
	assert.EqualError(t, err, "invalid email or password")

	_, err = svc.Authenticate("nobody@example.com", "password123")
	assert.EqualError(t, err, "invalid email or password")
}

// TestUpdateProfile_NameRewritesNameLower 改名后前缀搜索用新名字命中
func TestUpdateProfile_NameRewritesNameLower(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)

	user := createTestUser(t, db, "Carol")

	newName := "Renamed Carol"
	updated, err := svc.UpdateProfile(user.ID, &UpdateProfileRequest{Name: &newName})
	require.NoError(t, err)
	assert.Equal(t, newName, updated.Name)

	results, err := svc.SearchByNamePrefix("renamed", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, user.ID, results[0].ID)

	// 旧名字不再命中
	results, err = svc.SearchByNamePrefix("carol", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

// TestSearchByNamePrefix 前缀搜索不区分大小写，空串返回空集
func TestSearchByNamePrefix(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)

	createTestUser(t, db, "David")
	createTestUser(t, db, "Daniela")
	createTestUser(t, db, "Eve")

	results, err := svc.SearchByNamePrefix("DA", 10)
	require.NoError(t, err)
	assert.Len(t, results, 2)

	results, err = svc.SearchByNamePrefix("", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}
