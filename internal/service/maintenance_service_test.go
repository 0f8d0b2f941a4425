package service

import (
	"context"
	"testing"
	"time"

	"assettrack/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleMovesAssetToMaintenance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	asset := f.seedAsset(t, "SN-4001")
	actor := uuid.New().String()

	record, err := f.maintSvc.Schedule(ctx, actor, ScheduleMaintenanceRequest{
		AssetID:     asset.ID.String(),
		VendorName:  "RepairCo",
		Description: "battery swap",
		Cost:        decimal.NewFromInt(120),
	})
	require.NoError(t, err)
	assert.Equal(t, model.MaintenanceScheduled, record.Status)
	assert.Nil(t, record.CompletedAt)

	current, err := f.assets.FindByID(ctx, asset.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusMaintenance, current.Status)
	assert.EqualValues(t, 1, f.historyCount(t, asset.ID))
}

// A second record for an asset already in MAINTENANCE must not write a
// second send-repair history row.
func TestScheduleSecondRecordNoExtraHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	asset := f.seedAsset(t, "SN-4002")
	actor := uuid.New().String()

	_, err := f.maintSvc.Schedule(ctx, actor, ScheduleMaintenanceRequest{
		AssetID: asset.ID.String(), Description: "fan",
	})
	require.NoError(t, err)
	_, err = f.maintSvc.Schedule(ctx, actor, ScheduleMaintenanceRequest{
		AssetID: asset.ID.String(), Description: "keyboard",
	})
	require.NoError(t, err)

	assert.EqualValues(t, 1, f.historyCount(t, asset.ID))
}

func TestScheduleBorrowedAssetClearsCustody(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	asset := f.seedAsset(t, "SN-4003")
	employee := f.seedEmployee(t, "E-1", "Dana", "dana@example.com")
	actor := uuid.New().String()

	due := dateStr(time.Now().AddDate(0, 0, 7))
	_, err := f.lifecycle.Assign(ctx, actor, asset.ID.String(), AssignRequest{
		EmployeeID: employee.ID.String(), LoanType: model.LoanShortTerm, DueDate: &due,
	})
	require.NoError(t, err)

	_, err = f.maintSvc.Schedule(ctx, actor, ScheduleMaintenanceRequest{
		AssetID: asset.ID.String(), Description: "screen",
	})
	require.NoError(t, err)

	current, err := f.assets.FindByID(ctx, asset.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusMaintenance, current.Status)
	assert.Nil(t, current.EmployeeID)
}

func TestCompleteLastRecordReleasesAsset(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	asset := f.seedAsset(t, "SN-4004")
	actor := uuid.New().String()

	record, err := f.maintSvc.Schedule(ctx, actor, ScheduleMaintenanceRequest{
		AssetID: asset.ID.String(), Description: "fan",
	})
	require.NoError(t, err)

	status := model.MaintenanceCompleted
	updated, err := f.maintSvc.Update(ctx, actor, record.ID.String(), UpdateMaintenanceRequest{
		Status: &status,
	})
	require.NoError(t, err)
	assert.Equal(t, model.MaintenanceCompleted, updated.Status)
	require.NotNil(t, updated.CompletedAt)

	current, err := f.assets.FindByID(ctx, asset.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusAvailable, current.Status)
	// send_repair + finish_repair
	assert.EqualValues(t, 2, f.historyCount(t, asset.ID))
}

func TestCompleteWithOtherOpenRecordKeepsMaintenance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	asset := f.seedAsset(t, "SN-4005")
	actor := uuid.New().String()

	first, err := f.maintSvc.Schedule(ctx, actor, ScheduleMaintenanceRequest{
		AssetID: asset.ID.String(), Description: "fan",
	})
	require.NoError(t, err)
	_, err = f.maintSvc.Schedule(ctx, actor, ScheduleMaintenanceRequest{
		AssetID: asset.ID.String(), Description: "keyboard",
	})
	require.NoError(t, err)

	status := model.MaintenanceCompleted
	_, err = f.maintSvc.Update(ctx, actor, first.ID.String(), UpdateMaintenanceRequest{Status: &status})
	require.NoError(t, err)

	current, err := f.assets.FindByID(ctx, asset.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusMaintenance, current.Status)
}

func TestReopenClearsCompletedAt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	asset := f.seedAsset(t, "SN-4006")
	actor := uuid.New().String()

	record, err := f.maintSvc.Schedule(ctx, actor, ScheduleMaintenanceRequest{
		AssetID: asset.ID.String(), Description: "fan",
	})
	require.NoError(t, err)

	completed := model.MaintenanceCompleted
	_, err = f.maintSvc.Update(ctx, actor, record.ID.String(), UpdateMaintenanceRequest{Status: &completed})
	require.NoError(t, err)

	inProgress := model.MaintenanceInProgress
	updated, err := f.maintSvc.Update(ctx, actor, record.ID.String(), UpdateMaintenanceRequest{Status: &inProgress})
	require.NoError(t, err)
	assert.Equal(t, model.MaintenanceInProgress, updated.Status)
	assert.Nil(t, updated.CompletedAt)
}

func TestCancelLastRecordReleasesAsset(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	asset := f.seedAsset(t, "SN-4007")
	actor := uuid.New().String()

	record, err := f.maintSvc.Schedule(ctx, actor, ScheduleMaintenanceRequest{
		AssetID: asset.ID.String(), Description: "fan",
	})
	require.NoError(t, err)

	status := model.MaintenanceCanceled
	updated, err := f.maintSvc.Update(ctx, actor, record.ID.String(), UpdateMaintenanceRequest{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, model.MaintenanceCanceled, updated.Status)
	assert.Nil(t, updated.CompletedAt)

	current, err := f.assets.FindByID(ctx, asset.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusAvailable, current.Status)
}

func TestDeleteOpenRecordLeavesAssetInMaintenance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	asset := f.seedAsset(t, "SN-4008")
	actor := uuid.New().String()

	record, err := f.maintSvc.Schedule(ctx, actor, ScheduleMaintenanceRequest{
		AssetID: asset.ID.String(), Description: "fan",
	})
	require.NoError(t, err)

	require.NoError(t, f.maintSvc.Delete(ctx, actor, record.ID.String()))

	current, err := f.assets.FindByID(ctx, asset.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusMaintenance, current.Status)
}
