package authz

import "github.com/you-humble/gearguard/internal/model"

// Per-operation policies for the maintenance request lifecycle.
var (
	// Creating a preventive request is restricted to planners.
	CreatePreventiveRequest = RoleIn(model.RoleAdmin, model.RoleManager)

	// Field edits and status transitions are open to admins, managers, and
	// the current assignee.
	UpdateRequest = AnyOf(
		RoleIn(model.RoleAdmin, model.RoleManager),
		IsAssignee,
	)
	TransitionRequest = AnyOf(
		RoleIn(model.RoleAdmin, model.RoleManager),
		IsAssignee,
		CanClaimUnassigned,
	)

	// Explicit technician assignment is a dispatching decision.
	AssignTechnician = RoleIn(model.RoleAdmin, model.RoleManager)

	// Equipment and team registries are managed by staff roles.
	ManageEquipment = RoleIn(model.RoleAdmin, model.RoleManager, model.RoleTechnician)
	DeleteEquipment = RoleIn(model.RoleAdmin, model.RoleManager)
	ManageTeams     = RoleIn(model.RoleAdmin, model.RoleManager)
	DeleteTeam      = RoleIn(model.RoleAdmin)

	// User administration is admin-only.
	ManageUsers = RoleIn(model.RoleAdmin)

	// Reports are staff-visible; requesters see only their dashboard slice.
	ViewReports = RoleIn(model.RoleAdmin, model.RoleManager, model.RoleTechnician)
)
