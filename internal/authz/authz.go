// Package authz collects the authorization rules of the request lifecycle in
// one place. Each operation declares a single Policy; services evaluate it
// before running the operation body instead of scattering role checks inline.
package authz

import (
	"github.com/you-humble/gearguard/internal/model"
)

// Policy decides whether an actor may run an operation against a request.
// The request is nil for operations that are not bound to a single record.
type Policy func(actor model.Actor, req *model.Request) bool

// RoleIn allows actors holding one of the given roles.
func RoleIn(roles ...model.Role) Policy {
	return func(actor model.Actor, _ *model.Request) bool {
		for _, r := range roles {
			if actor.Role == r {
				return true
			}
		}
		return false
	}
}

// IsAssignee allows the identity currently assigned to the request.
func IsAssignee(actor model.Actor, req *model.Request) bool {
	return req != nil && req.AssignedToID != nil && *req.AssignedToID == actor.ID
}

// CanClaimUnassigned allows a technician to pick up a request nobody owns
// yet; advancing it makes them the assignee. Policies see no store, so the
// claim path additionally verifies membership in the routed team.
func CanClaimUnassigned(actor model.Actor, req *model.Request) bool {
	return actor.Role == model.RoleTechnician && req != nil && req.AssignedToID == nil
}

// IsCreator allows the identity that created the request.
func IsCreator(actor model.Actor, req *model.Request) bool {
	return req != nil && req.CreatedByID == actor.ID
}

// AnyOf allows when at least one of the given policies allows.
func AnyOf(policies ...Policy) Policy {
	return func(actor model.Actor, req *model.Request) bool {
		for _, p := range policies {
			if p(actor, req) {
				return true
			}
		}
		return false
	}
}

// Check evaluates the policy and converts a denial into ErrForbidden.
func Check(p Policy, actor model.Actor, req *model.Request) error {
	if !p(actor, req) {
		return model.ErrForbidden
	}
	return nil
}
