// Package authz maps session profiles to a closed set of roles and the
// permissions each role holds. Handlers never compare profile strings; they ask
// an AuthorizationContext whether a Permission is granted.
package authz

import (
	"context"
	"strings"

	dErrors "empresaflow/pkg/domain-errors"
)

// Role is one of the five organizational profiles.
type Role int

const (
	RoleUnknown Role = iota
	RoleCommercial
	RoleOnboardingExec
	RoleOnboardingAdmin
	RoleSacExec
	RoleSacAdmin
)

var roleProfiles = map[Role]string{
	RoleCommercial:      "comercial",
	RoleOnboardingExec:  "ejecutivo_onboarding",
	RoleOnboardingAdmin: "admin_onboarding",
	RoleSacExec:         "ejecutivo_sac",
	RoleSacAdmin:        "admin_sac",
}

func (r Role) String() string {
	if p, ok := roleProfiles[r]; ok {
		return p
	}
	return "unknown"
}

// ParseRole maps a session profile string to a Role.
func ParseRole(profile string) (Role, error) {
	p := strings.ToLower(strings.TrimSpace(profile))
	for role, name := range roleProfiles {
		if name == p {
			return role, nil
		}
	}
	return RoleUnknown, dErrors.Newf(dErrors.CodeForbidden, "unknown profile %q", profile)
}

// Permission names an action gated by role.
type Permission string

const (
	PermCreateCompany       Permission = "company:create"
	PermViewCompany         Permission = "company:view"
	PermViewHistory         Permission = "history:view"
	PermViewOnboarding      Permission = "onboarding:view"
	PermConfigureOnboarding Permission = "onboarding:configure"
	PermAssignOnboarding    Permission = "onboarding:assign"
	PermViewSAC             Permission = "sac:view"
	PermConfigureSAC        Permission = "sac:configure"
)

// PermissionSet is an immutable-by-convention set of permissions.
type PermissionSet map[Permission]struct{}

// Has reports membership.
func (s PermissionSet) Has(p Permission) bool {
	_, ok := s[p]
	return ok
}

var grants = map[Role][]Permission{
	RoleCommercial: {
		PermCreateCompany, PermViewCompany, PermViewHistory,
	},
	RoleOnboardingExec: {
		PermViewCompany, PermViewHistory, PermViewOnboarding, PermConfigureOnboarding,
	},
	RoleOnboardingAdmin: {
		PermCreateCompany, PermViewCompany, PermViewHistory,
		PermViewOnboarding, PermConfigureOnboarding, PermAssignOnboarding,
	},
	RoleSacExec: {
		PermViewCompany, PermViewHistory, PermViewOnboarding, PermViewSAC,
	},
	RoleSacAdmin: {
		PermViewCompany, PermViewHistory, PermViewOnboarding, PermViewSAC, PermConfigureSAC,
	},
}

// PermissionsFor returns a fresh set for role. Unknown roles get an empty set.
func PermissionsFor(role Role) PermissionSet {
	set := PermissionSet{}
	for _, p := range grants[role] {
		set[p] = struct{}{}
	}
	return set
}

// AuthorizationContext is the authenticated caller as seen by handlers.
type AuthorizationContext struct {
	UserID string
	Role   Role
	perms  PermissionSet
}

// NewAuthorizationContext resolves the permission set for role once.
func NewAuthorizationContext(userID string, role Role) AuthorizationContext {
	return AuthorizationContext{UserID: userID, Role: role, perms: PermissionsFor(role)}
}

// Can reports whether the caller holds p.
func (a AuthorizationContext) Can(p Permission) bool {
	return a.perms.Has(p)
}

// Require returns a forbidden error when p is not held.
func (a AuthorizationContext) Require(p Permission) error {
	if a.Can(p) {
		return nil
	}
	return dErrors.Newf(dErrors.CodeForbidden, "profile %s cannot %s", a.Role, p)
}

type ctxKey struct{}

// WithContext stores the authorization context.
func WithContext(ctx context.Context, a AuthorizationContext) context.Context {
	return context.WithValue(ctx, ctxKey{}, a)
}

// FromContext returns the authorization context, if the request was authenticated.
func FromContext(ctx context.Context) (AuthorizationContext, bool) {
	a, ok := ctx.Value(ctxKey{}).(AuthorizationContext)
	return a, ok
}
