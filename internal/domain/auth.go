package domain

// Role differentiates IT staff from ordinary requesters.
type Role string

const (
	RoleRequester Role = "Requester"
	RoleStaff     Role = "Staff"
)

// DefaultStaffGroup is the identity-provider group that grants the staff capability.
const DefaultStaffGroup = "ITStaff"

// AuthContext is the caller identity, resolved once and passed explicitly.
type AuthContext struct {
	UserID     string
	Username   string
	Email      string
	Groups     []string
	StaffGroup string
	Token      string
}

// IsStaff reports whether the caller holds the staff capability.
func (a AuthContext) IsStaff() bool {
	group := a.StaffGroup
	if group == "" {
		group = DefaultStaffGroup
	}
	for _, g := range a.Groups {
		if g == group {
			return true
		}
	}
	return false
}

// Role maps group membership to a role.
func (a AuthContext) Role() Role {
	if a.IsStaff() {
		return RoleStaff
	}
	return RoleRequester
}
