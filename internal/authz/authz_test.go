package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "empresaflow/pkg/domain-errors"
)

func TestParseRole(t *testing.T) {
	cases := []struct {
		profile string
		want    Role
	}{
		{"comercial", RoleCommercial},
		{" Ejecutivo_Onboarding", RoleOnboardingExec},
		{"admin_onboarding", RoleOnboardingAdmin},
		{"ejecutivo_sac", RoleSacExec},
		{"ADMIN_SAC", RoleSacAdmin},
	}
	for _, tc := range cases {
		got, err := ParseRole(tc.profile)
		require.NoError(t, err, tc.profile)
		assert.Equal(t, tc.want, got, tc.profile)
	}

	_, err := ParseRole("superuser")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
}

func TestPermissionsFor(t *testing.T) {
	t.Run("only commercial and onboarding admins run the wizard", func(t *testing.T) {
		for role := RoleCommercial; role <= RoleSacAdmin; role++ {
			want := role == RoleCommercial || role == RoleOnboardingAdmin
			assert.Equal(t, want, PermissionsFor(role).Has(PermCreateCompany), role.String())
		}
	})

	t.Run("every known role can view companies", func(t *testing.T) {
		for role := RoleCommercial; role <= RoleSacAdmin; role++ {
			assert.True(t, PermissionsFor(role).Has(PermViewCompany), role.String())
		}
	})

	t.Run("unknown role has nothing", func(t *testing.T) {
		assert.Empty(t, PermissionsFor(RoleUnknown))
	})

	t.Run("returned sets are independent", func(t *testing.T) {
		set := PermissionsFor(RoleCommercial)
		set[PermConfigureSAC] = struct{}{}
		assert.False(t, PermissionsFor(RoleCommercial).Has(PermConfigureSAC))
	})
}

func TestAuthorizationContext(t *testing.T) {
	ac := NewAuthorizationContext("u-1", RoleOnboardingExec)
	assert.True(t, ac.Can(PermConfigureOnboarding))
	assert.NoError(t, ac.Require(PermViewOnboarding))

	err := ac.Require(PermCreateCompany)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
}
