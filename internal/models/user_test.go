package models_test

import (
	"testing"

	"repairdesk/backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	tests := map[string]models.Role{
		"Admin":      models.RoleAdmin,
		"admin":      models.RoleAdmin,
		" ADMIN ":    models.RoleAdmin,
		"Technician": models.RoleTechnician,
		"Client":     models.RoleClient,
		"":           models.RoleClient,
		"superuser":  models.RoleClient,
	}
	for in, want := range tests {
		assert.Equal(t, want, models.ParseRole(in), "ParseRole(%q)", in)
	}
}

func TestRoleValid(t *testing.T) {
	assert.True(t, models.RoleTechnician.Valid())
	assert.False(t, models.Role("Owner").Valid())
	assert.False(t, models.Role("").Valid())
}

func TestCanMessage(t *testing.T) {
	roles := []models.Role{models.RoleAdmin, models.RoleTechnician, models.RoleClient}
	for _, s := range roles {
		for _, r := range roles {
			want := s == models.RoleAdmin || r == models.RoleAdmin
			assert.Equal(t, want, models.CanMessage(s, r), "%s -> %s", s, r)
		}
	}
}

func TestUserDisplayName(t *testing.T) {
	var nobody *models.User
	assert.Equal(t, "Unknown", nobody.DisplayName())
	assert.Equal(t, "Unknown", (&models.User{}).DisplayName())
	assert.Equal(t, "a@b.c", (&models.User{Email: "a@b.c"}).DisplayName())
	assert.Equal(t, "bob", (&models.User{UserName: "bob", Email: "a@b.c"}).DisplayName())
}

func TestUserIsAdmin(t *testing.T) {
	var nobody *models.User
	assert.False(t, nobody.IsAdmin())
	assert.True(t, (&models.User{Role: models.RoleAdmin}).IsAdmin())
	assert.False(t, (&models.User{Role: models.RoleClient}).IsAdmin())
}

func TestChatMessageCounterpart(t *testing.T) {
	m := &models.ChatMessage{SenderID: 1, ReceiverID: 2}
	assert.EqualValues(t, 2, m.Counterpart(1))
	assert.EqualValues(t, 1, m.Counterpart(2))
	assert.True(t, m.Involves(2))
	assert.False(t, m.Involves(3))
}
