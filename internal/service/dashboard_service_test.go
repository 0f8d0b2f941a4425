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

func TestDashboardSummaryCounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := uuid.New().String()

	borrowed := f.seedAsset(t, "SN-7001")
	f.seedAsset(t, "SN-7002")
	broken := f.seedAsset(t, "SN-7003")
	employee := f.seedEmployee(t, "E-1", "Dana", "dana@example.com")

	due := dateStr(time.Now().AddDate(0, 0, 7))
	_, err := f.lifecycle.Assign(ctx, actor, borrowed.ID.String(), AssignRequest{
		EmployeeID: employee.ID.String(), LoanType: model.LoanShortTerm, DueDate: &due,
	})
	require.NoError(t, err)

	_, err = f.maintSvc.Schedule(ctx, actor, ScheduleMaintenanceRequest{
		AssetID: broken.ID.String(), Description: "hinge",
	})
	require.NoError(t, err)

	pending := f.seedAsset(t, "SN-7004")
	_, err = f.loanSvc.Create(ctx, CreateLoanRequest{
		AssetID:    pending.ID.String(),
		EmployeeID: employee.ID.String(),
		StartDate:  dateStr(time.Now()),
		DueDate:    dateStr(time.Now().AddDate(0, 0, 7)),
	})
	require.NoError(t, err)

	summary, err := f.dashboardSv.Summary(ctx)
	require.NoError(t, err)

	assert.EqualValues(t, 4, summary.TotalAssets)
	assert.EqualValues(t, 2, summary.AvailableAssets)
	assert.EqualValues(t, 1, summary.BorrowedAssets)
	assert.EqualValues(t, 1, summary.MaintenanceAssets)
	assert.EqualValues(t, 4, summary.AuditOverdueAssets) // None ever audited
	assert.EqualValues(t, 1, summary.ScheduledMaintenance)
	assert.EqualValues(t, 1, summary.PendingLoanRequests)
	assert.NotEmpty(t, summary.RecentHistory)
}
