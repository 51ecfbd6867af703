package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMeanRating(t *testing.T) {
	assert.Equal(t, 0.0, MeanRating(nil))
	assert.Equal(t, 4.0, MeanRating([]Review{{Rating: 5}, {Rating: 3}}))
	assert.InDelta(t, 3.333, MeanRating([]Review{{Rating: 5}, {Rating: 5}, {Rating: 0}}), 0.001)
}

func TestParseRole(t *testing.T) {
	r, ok := ParseRole("seller")
	assert.True(t, ok)
	assert.Equal(t, RoleSeller, r)

	_, ok = ParseRole("admin")
	assert.False(t, ok, "admin is not an account role")
}

func TestAccountCapabilities(t *testing.T) {
	a := Account{Password: "hash", IsMember: true, MembershipPlan: PlanPremium}
	assert.True(t, a.HasCredential())
	assert.True(t, a.HasMembership())

	fed := Account{GoogleID: "g-1"}
	assert.False(t, fed.HasCredential())
	assert.False(t, fed.HasMembership())
}
