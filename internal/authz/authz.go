// Package authz decides which roles may perform which actions.
package authz

import (
	"fmt"

	"github.com/alexanderramin/stagegate/internal/domain"
)

// Action names an operation guarded by a role check.
type Action string

const (
	ActionView            Action = "view"
	ActionProjectWrite    Action = "project.write"
	ActionStageTransition Action = "stage.transition"
	ActionPlanDraft       Action = "plan.draft"
	ActionPlanDecide      Action = "plan.decide"
	ActionRemark          Action = "remark.write"
	ActionDocumentWrite   Action = "document.write"
	ActionRecordWrite     Action = "record.write"
	ActionExport          Action = "export"
	ActionAuditRead       Action = "audit.read"
	ActionUserAdmin       Action = "user.admin"
	ActionHolidayAdmin    Action = "holiday.admin"
	ActionForceDelete     Action = "project.force_delete"
)

// Rank orders roles: admin > hod > project_officer > viewer. Unknown roles rank below viewer.
func Rank(r domain.Role) int {
	switch r {
	case domain.RoleAdmin:
		return 3
	case domain.RoleHoD:
		return 2
	case domain.RoleProjectOfficer:
		return 1
	case domain.RoleViewer:
		return 0
	default:
		return -1
	}
}

var minimumRole = map[Action]domain.Role{
	ActionView:            domain.RoleViewer,
	ActionExport:          domain.RoleViewer,
	ActionProjectWrite:    domain.RoleProjectOfficer,
	ActionStageTransition: domain.RoleProjectOfficer,
	ActionPlanDraft:       domain.RoleProjectOfficer,
	ActionRemark:          domain.RoleProjectOfficer,
	ActionDocumentWrite:   domain.RoleProjectOfficer,
	ActionRecordWrite:     domain.RoleProjectOfficer,
	ActionPlanDecide:      domain.RoleHoD,
	ActionAuditRead:       domain.RoleHoD,
	ActionUserAdmin:       domain.RoleAdmin,
	ActionHolidayAdmin:    domain.RoleAdmin,
	ActionForceDelete:     domain.RoleAdmin,
}

// Can reports whether user may perform action. Inactive and nil users may do nothing.
func Can(user *domain.User, action Action) bool {
	if user == nil || !user.Active {
		return false
	}
	min, ok := minimumRole[action]
	if !ok {
		return false
	}
	return Rank(user.Role) >= Rank(min)
}

// Require returns an error wrapping domain.ErrForbidden when user may not perform action.
func Require(user *domain.User, action Action) error {
	if Can(user, action) {
		return nil
	}
	if user == nil {
		return fmt.Errorf("%s requires a signed-in user: %w", action, domain.ErrForbidden)
	}
	if !user.Active {
		return fmt.Errorf("user %s is inactive: %w", user.Username, domain.ErrForbidden)
	}
	return fmt.Errorf("role %s may not %s: %w", user.Role, action, domain.ErrForbidden)
}

// Username returns the user's name, or "system" for background jobs acting without a user.
func Username(user *domain.User) string {
	if user == nil {
		return "system"
	}
	return user.Username
}
