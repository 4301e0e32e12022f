package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestActorCan(t *testing.T) {
	admin := Actor{UserID: 1, Role: RoleAdmin}
	accountant := Actor{UserID: 2, Role: RoleAccountant}
	viewer := Actor{UserID: 3, Role: RoleViewer}

	allActions := []Action{
		ActionRead, ActionWriteLedger, ActionPostEntry,
		ActionClosePeriod, ActionReopenPeriod, ActionManageAccounts, ActionViewAuditLog,
	}

	t.Run("admin can do everything", func(t *testing.T) {
		for _, action := range allActions {
			assert.True(t, admin.Can(action), string(action))
		}
	})

	t.Run("accountant cannot reopen periods or view audit logs", func(t *testing.T) {
		assert.True(t, accountant.Can(ActionWriteLedger))
		assert.True(t, accountant.Can(ActionPostEntry))
		assert.True(t, accountant.Can(ActionClosePeriod))
		assert.True(t, accountant.Can(ActionManageAccounts))
		assert.False(t, accountant.Can(ActionReopenPeriod))
		assert.False(t, accountant.Can(ActionViewAuditLog))
	})

	t.Run("viewer is read-only", func(t *testing.T) {
		assert.True(t, viewer.Can(ActionRead))
		for _, action := range allActions[1:] {
			assert.False(t, viewer.Can(action), string(action))
		}
	})

	t.Run("unknown role can do nothing", func(t *testing.T) {
		nobody := Actor{UserID: 4, Role: Role("INTERN")}
		for _, action := range allActions {
			assert.False(t, nobody.Can(action), string(action))
		}
	})
}
