package jwt

import (
	"testing"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	svc, err := NewJWTService("test-secret", "15m")
	require.NoError(t, err)

	token, expiresAt, err := svc.GenerateAccessToken("emp-1", employee.RoleAdmin)
	require.NoError(t, err)
	assert.NotZero(t, expiresAt)

	parsed, err := jwtauth.VerifyToken(svc.JWTAuth(), token)
	require.NoError(t, err)

	claims, err := parsed.AsMap(t.Context())
	require.NoError(t, err)

	actor, err := ActorFromClaims(claims)
	require.NoError(t, err)
	assert.Equal(t, employee.Actor{EmployeeID: "emp-1", Role: employee.RoleAdmin}, actor)
}

func TestActorFromClaims_Rejects(t *testing.T) {
	_, err := ActorFromClaims(map[string]interface{}{ClaimType: "refresh", ClaimEmployeeID: "emp-1", ClaimRole: "admin"})
	assert.Error(t, err)

	_, err = ActorFromClaims(map[string]interface{}{ClaimType: "access", ClaimRole: "admin"})
	assert.ErrorIs(t, err, employee.ErrActorRequired)

	_, err = ActorFromClaims(map[string]interface{}{ClaimType: "access", ClaimEmployeeID: "emp-1", ClaimRole: "owner"})
	assert.ErrorIs(t, err, employee.ErrActorRequired)
}

func TestNewJWTService_InvalidExpiration(t *testing.T) {
	_, err := NewJWTService("secret", "soon")
	assert.Error(t, err)
}
