package models

// Role is the coarse authorization level of a user.
type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleAccountant Role = "ACCOUNTANT"
	RoleViewer     Role = "VIEWER"
)

// Action names a permission-gated operation.
type Action string

const (
	ActionRead           Action = "read"
	ActionWriteLedger    Action = "write-ledger"
	ActionPostEntry      Action = "post-entry"
	ActionClosePeriod    Action = "close-period"
	ActionReopenPeriod   Action = "reopen-period"
	ActionManageAccounts Action = "manage-accounts"
	ActionViewAuditLog   Action = "view-audit-log"
)

// Actor is the authenticated caller, passed explicitly into workflows so
// permission checks stay pure functions of (actor, action).
type Actor struct {
	UserID int64
	Role   Role
}

// Can reports whether the actor's role permits the action.
func (a Actor) Can(action Action) bool {
	switch a.Role {
	case RoleAdmin:
		return true
	case RoleAccountant:
		switch action {
		case ActionRead, ActionWriteLedger, ActionPostEntry,
			ActionClosePeriod, ActionManageAccounts:
			return true
		}
		return false
	case RoleViewer:
		return action == ActionRead
	}
	return false
}
