package rbac

import (
	"github.com/odyssey-erp/odyssey-auth/internal/shared"
)

// Authorize decides whether actor may perform action on the principal
// identified by targetID. targetID is ignored for create, list and profile.
// It returns nil, shared.ErrUnauthenticated or shared.ErrForbidden and never
// consults storage, so callers must invoke it before revealing existence.
func Authorize(actor *Actor, action Action, targetID int64) error {
	if actor == nil || actor.ID <= 0 {
		return shared.ErrUnauthenticated
	}
	caps := capabilitiesOf(actor.Role)
	switch action {
	case ActionCreate:
		if caps.createPrincipals {
			return nil
		}
		return shared.ErrForbidden
	case ActionList:
		return nil
	case ActionRead, ActionUpdate, ActionDelete:
		if caps.manageOthers || targetID == actor.ID {
			return nil
		}
		return shared.ErrForbidden
	case ActionReadProfile:
		return nil
	default:
		return shared.ErrForbidden
	}
}

// ListVisibility reports which principals actor may see in a listing.
// Employees get VisibleNone, which is an empty result rather than an error.
func ListVisibility(actor *Actor) (Visibility, error) {
	if err := Authorize(actor, ActionList, 0); err != nil {
		return VisibleNone, err
	}
	return capabilitiesOf(actor.Role).listVisibility, nil
}

// CanChangeRoles reports whether actor may alter role or activation flags.
func CanChangeRoles(actor *Actor) bool {
	if actor == nil {
		return false
	}
	return capabilitiesOf(actor.Role).changeRoles
}

// Visible reports whether a principal with role r is included under v.
func (v Visibility) Visible(r Role) bool {
	switch v {
	case VisibleAll:
		return true
	case VisibleEmployees:
		return r == RoleEmployee
	default:
		return false
	}
}
