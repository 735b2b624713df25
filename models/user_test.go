package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserHelpers(t *testing.T) {
	user := &User{FirstName: "Aline", LastName: "Uwase", Role: UserRoleCitizen}
	assert.Equal(t, "Aline Uwase", user.FullName())
	assert.False(t, user.IsAdmin())

	user.Role = UserRoleAdmin
	assert.True(t, user.IsAdmin())
}
