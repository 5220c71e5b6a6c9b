package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planforge/api/pkg/domain/role"
	"github.com/planforge/api/pkg/domain/session"
	"github.com/planforge/api/pkg/domain/shared"
)

func testIdentity(t *testing.T, r role.Role, operator bool) session.Identity {
	t.Helper()
	ident, err := session.NewIdentity(shared.NewID(), "user@example.com", r, shared.NewID(), operator)
	require.NoError(t, err)
	return ident
}

func TestGenerateValidateRoundTrip(t *testing.T) {
	mgr, err := NewManager(Config{Secret: "test-secret", Issuer: "planforge", Duration: time.Minute})
	require.NoError(t, err)

	ident := testIdentity(t, role.RoleSuperadmin, true)
	token, expiresAt, err := mgr.Generate(ident)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Minute), expiresAt, 5*time.Second)

	claims, err := mgr.Validate(token)
	require.NoError(t, err)

	rebuilt, err := claims.Identity()
	require.NoError(t, err)
	assert.True(t, rebuilt.UID().Equals(ident.UID()))
	assert.Equal(t, ident.Email(), rebuilt.Email())
	assert.Equal(t, ident.RealRole(), rebuilt.RealRole())
	assert.True(t, rebuilt.RealTenantID().Equals(ident.RealTenantID()))
	assert.True(t, rebuilt.IsOperator())
}

func TestOperatorFlagOmittedForRegularUsers(t *testing.T) {
	mgr, err := NewManager(Config{Secret: "test-secret", Issuer: "planforge", Duration: time.Minute})
	require.NoError(t, err)

	token, _, err := mgr.Generate(testIdentity(t, role.RoleAdmin, false))
	require.NoError(t, err)

	claims, err := mgr.Validate(token)
	require.NoError(t, err)
	assert.False(t, claims.Operator)

	rebuilt, err := claims.Identity()
	require.NoError(t, err)
	assert.False(t, rebuilt.IsOperator())
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	mgr, err := NewManager(Config{Secret: "test-secret", Issuer: "planforge", Duration: time.Millisecond})
	require.NoError(t, err)

	token, _, err := mgr.Generate(testIdentity(t, role.RoleClient, false))
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	_, err = mgr.Validate(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateRejectsForeignSignature(t *testing.T) {
	issuer, err := NewManager(Config{Secret: "secret-one", Issuer: "planforge", Duration: time.Minute})
	require.NoError(t, err)
	verifier, err := NewManager(Config{Secret: "secret-two", Issuer: "planforge", Duration: time.Minute})
	require.NoError(t, err)

	token, _, err := issuer.Generate(testIdentity(t, role.RoleAdmin, false))
	require.NoError(t, err)

	_, err = verifier.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsWrongIssuer(t *testing.T) {
	issuer, err := NewManager(Config{Secret: "test-secret", Issuer: "someone-else", Duration: time.Minute})
	require.NoError(t, err)
	verifier, err := NewManager(Config{Secret: "test-secret", Issuer: "planforge", Duration: time.Minute})
	require.NoError(t, err)

	token, _, err := issuer.Generate(testIdentity(t, role.RoleAdmin, false))
	require.NoError(t, err)

	_, err = verifier.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
