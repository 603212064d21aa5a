package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanModify(t *testing.T) {
	tests := []struct {
		name          string
		resourceOwner string
		principal     string
		roles         []string
		want          bool
	}{
		{"owner may modify their own resource", "user1", "user1", []string{"USER"}, true},
		{"non-owner without admin role is denied", "user1", "user2", []string{"USER"}, false},
		{"admin may modify any resource", "user1", "admin1", []string{"ADMIN"}, true},
		{"admin with no ownership still passes", "user1", "admin1", []string{"USER", "ADMIN"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanModify(tt.resourceOwner, tt.principal, tt.roles))
		})
	}
}

func TestIsAdmin(t *testing.T) {
	assert.True(t, IsAdmin([]string{"USER", "ADMIN"}))
	assert.False(t, IsAdmin([]string{"USER"}))
	assert.False(t, IsAdmin(nil))
}

func TestHasRole(t *testing.T) {
	assert.True(t, HasRole([]string{"USER", "ADMIN"}, "ADMIN"))
	assert.False(t, HasRole([]string{"USER"}, "ADMIN"))
}
