package rbac

import "strings"

// Role is the closed set of principal roles.
type Role string

const (
	RoleAdmin    Role = "Admin"
	RoleManager  Role = "Manager"
	RoleEmployee Role = "Employee"
)

// DefaultRole is assigned when a principal is created without a role.
const DefaultRole = RoleEmployee

// Roles lists every valid role.
func Roles() []Role {
	return []Role{RoleAdmin, RoleManager, RoleEmployee}
}

// ParseRole matches s against the known roles, ignoring case and surrounding space.
func ParseRole(s string) (Role, bool) {
	s = strings.TrimSpace(s)
	for _, r := range Roles() {
		if strings.EqualFold(s, string(r)) {
			return r, true
		}
	}
	return "", false
}

// Valid reports whether r is one of the enumerated roles.
func (r Role) Valid() bool {
	_, ok := capabilities[r]
	return ok
}

// Effective returns the role used for decisions. Unknown values are
// treated as Employee.
func (r Role) Effective() Role {
	if r.Valid() {
		return r
	}
	return RoleEmployee
}

func (r Role) String() string {
	return string(r)
}

// Actor is the authenticated principal making a request.
type Actor struct {
	ID   int64
	Role Role
}

// Action enumerates operations on principal resources.
type Action int

const (
	ActionCreate Action = iota + 1
	ActionList
	ActionRead
	ActionUpdate
	ActionDelete
	ActionReadProfile
)

func (a Action) String() string {
	switch a {
	case ActionCreate:
		return "create"
	case ActionList:
		return "read-list"
	case ActionRead:
		return "read-one"
	case ActionUpdate:
		return "update"
	case ActionDelete:
		return "delete"
	case ActionReadProfile:
		return "read-profile"
	default:
		return "unknown"
	}
}

// Visibility narrows which principals a list operation may return.
type Visibility int

const (
	// VisibleNone yields an empty list.
	VisibleNone Visibility = iota
	// VisibleEmployees restricts the list to principals with role Employee.
	VisibleEmployees
	// VisibleAll returns every principal.
	VisibleAll
)

// capability is the per-role rights table.
type capability struct {
	createPrincipals bool
	manageOthers     bool
	changeRoles      bool
	listVisibility   Visibility
}

var capabilities = map[Role]capability{
	RoleAdmin: {
		createPrincipals: true,
		manageOthers:     true,
		changeRoles:      true,
		listVisibility:   VisibleAll,
	},
	RoleManager: {
		listVisibility: VisibleEmployees,
	},
	RoleEmployee: {
		listVisibility: VisibleNone,
	},
}

func capabilitiesOf(r Role) capability {
	return capabilities[r.Effective()]
}
