package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInvitationStatus(t *testing.T) {
	now := time.Now().UTC()

	inv := Invitation{IsActive: true, ExpiresAt: now.Add(time.Hour)}
	assert.Equal(t, InvitationStatusActive, inv.Status(now))

	inv.ExpiresAt = now.Add(-time.Hour)
	assert.Equal(t, InvitationStatusExpired, inv.Status(now))

	// Deactivation wins over expiry
	inv.IsActive = false
	assert.Equal(t, InvitationStatusInactive, inv.Status(now))
}

func TestInvitationContainsImage(t *testing.T) {
	inv := Invitation{ImageIDs: []string{"a", "b"}}
	assert.True(t, inv.ContainsImage("a"))
	assert.False(t, inv.ContainsImage("c"))

	var empty Invitation
	assert.False(t, empty.ContainsImage("a"))
}

func TestLikeID(t *testing.T) {
	assert.Equal(t, "visitor-1_img-9", LikeID("visitor-1", "img-9"))
}
