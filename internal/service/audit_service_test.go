package service

import (
	"context"
	"testing"
	"time"

	"assettrack/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAuditStampsDateWithoutStatusChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	asset := f.seedAsset(t, "SN-5001")
	employee := f.seedEmployee(t, "E-1", "Dana", "dana@example.com")
	actor := uuid.New().String()

	due := dateStr(time.Now().AddDate(0, 0, 7))
	_, err := f.lifecycle.Assign(ctx, actor, asset.ID.String(), AssignRequest{
		EmployeeID: employee.ID.String(), LoanType: model.LoanShortTerm, DueDate: &due,
	})
	require.NoError(t, err)

	updated, err := f.auditSvc.RecordAudit(ctx, actor, asset.ID.String(), RecordAuditRequest{
		Condition: model.ConditionBad,
		Notes:     "dent on the corner",
	})
	require.NoError(t, err)

	// Auditing a borrowed asset leaves custody and status alone.
	assert.Equal(t, model.StatusBorrowed, updated.Status)
	require.NotNil(t, updated.EmployeeID)
	assert.Equal(t, employee.ID, *updated.EmployeeID)
	require.NotNil(t, updated.LastAuditDate)
	assert.Equal(t, model.ConditionBad, updated.Condition)

	entries, err := f.histories.ListByAsset(ctx, asset.ID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	audit := entries[0]
	assert.Equal(t, model.ActionAudit, audit.Action)
	assert.Equal(t, audit.StatusBefore, audit.StatusAfter)
	require.NotNil(t, audit.EmployeeID)
	assert.Equal(t, employee.ID, *audit.EmployeeID)
}

func TestRecordAuditRelocatesWhenObservedElsewhere(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	asset := f.seedAsset(t, "SN-5002")
	elsewhere := f.seedLocation(t, "Basement", "Annex")
	actor := uuid.New().String()

	updated, err := f.auditSvc.RecordAudit(ctx, actor, asset.ID.String(), RecordAuditRequest{
		Condition:  model.ConditionGood,
		LocationID: elsewhere.ID.String(),
	})
	require.NoError(t, err)
	assert.Equal(t, elsewhere.ID, updated.LocationID)

	entries, err := f.histories.ListByAsset(ctx, asset.ID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].LocationID)
	assert.Equal(t, elsewhere.ID, *entries[0].LocationID)
}

func TestSelfCheckinByTag(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	asset := f.seedAsset(t, "SN-5003")

	updated, err := f.auditSvc.SelfCheckin(ctx, *asset.AssetTag)
	require.NoError(t, err)
	require.NotNil(t, updated.LastAuditDate)
	assert.Equal(t, model.ConditionGood, updated.Condition)

	entries, err := f.histories.ListByAsset(ctx, asset.ID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Nil(t, entries[0].UserID)
}

func TestAuditQueueOrdersNeverAuditedFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	stale := f.seedAsset(t, "SN-5004")
	fresh := f.seedAsset(t, "SN-5005")
	never := f.seedAsset(t, "SN-5006")
	actor := uuid.New().String()

	old := time.Now().Add(-4 * 30 * 24 * time.Hour)
	require.NoError(t, f.assets.UpdateFields(ctx, stale.ID, map[string]interface{}{"last_audit_date": old}))

	_, err := f.auditSvc.RecordAudit(ctx, actor, fresh.ID.String(), RecordAuditRequest{
		Condition: model.ConditionGood,
	})
	require.NoError(t, err)

	items, total, err := f.auditSvc.Queue(ctx, "", 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, items, 3)

	assert.Equal(t, never.ID, items[0].Asset.ID)
	assert.True(t, items[0].Overdue)
	assert.Equal(t, stale.ID, items[1].Asset.ID)
	assert.True(t, items[1].Overdue)
	assert.Equal(t, fresh.ID, items[2].Asset.ID)
	assert.False(t, items[2].Overdue)
	assert.Equal(t, model.ConditionGood, items[2].LastCondition)
}
