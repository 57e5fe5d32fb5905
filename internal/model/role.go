package model

type Role string

const (
	// RoleAdminManager administers an organization and goes through onboarding.
	RoleAdminManager Role = "admin-manager"
	// RoleMember is the default, lower-privilege role.
	RoleMember Role = "member"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdminManager, RoleMember:
		return true
	}
	return false
}

// OrDefault returns RoleMember for an empty role.
func (r Role) OrDefault() Role {
	if r == "" {
		return RoleMember
	}
	return r
}

// RequiresOnboarding reports whether a newly provisioned profile with this role
// starts the onboarding wizard.
func (r Role) RequiresOnboarding() bool {
	return r == RoleAdminManager
}
