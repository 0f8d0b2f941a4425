package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"assettrack/internal/apperr"
	"assettrack/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) seedLoanRequest(t *testing.T, asset *model.Asset, employee *model.Employee) *model.LoanRequest {
	t.Helper()
	request, err := f.loanSvc.Create(context.Background(), CreateLoanRequest{
		AssetID:    asset.ID.String(),
		EmployeeID: employee.ID.String(),
		StartDate:  dateStr(time.Now()),
		DueDate:    dateStr(time.Now().AddDate(0, 0, 14)),
		Reason:     "project work",
	})
	require.NoError(t, err)
	return request
}

func TestCreateLoanRequestPending(t *testing.T) {
	f := newFixture(t)

	asset := f.seedAsset(t, "SN-2001")
	employee := f.seedEmployee(t, "E-1", "Dana", "dana@example.com")

	request := f.seedLoanRequest(t, asset, employee)
	assert.Equal(t, model.LoanPending, request.Status)
	assert.Equal(t, model.LoanShortTerm, request.LoanType)
}

func TestCreateLoanRequestForUnavailableAsset(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	asset := f.seedAsset(t, "SN-2002")
	employee := f.seedEmployee(t, "E-1", "Dana", "dana@example.com")

	_, err := f.lifecycle.SendRepair(ctx, uuid.New().String(), asset.ID.String(), RepairRequest{})
	require.NoError(t, err)

	_, err = f.loanSvc.Create(ctx, CreateLoanRequest{
		AssetID:    asset.ID.String(),
		EmployeeID: employee.ID.String(),
		StartDate:  dateStr(time.Now()),
		DueDate:    dateStr(time.Now().AddDate(0, 0, 7)),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrConflict))
}

func TestCreateLoanRequestDateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	asset := f.seedAsset(t, "SN-2003")
	employee := f.seedEmployee(t, "E-1", "Dana", "dana@example.com")

	_, err := f.loanSvc.Create(ctx, CreateLoanRequest{
		AssetID:    asset.ID.String(),
		EmployeeID: employee.ID.String(),
		StartDate:  dateStr(time.Now().AddDate(0, 0, -2)),
		DueDate:    dateStr(time.Now().AddDate(0, 0, 7)),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	_, err = f.loanSvc.Create(ctx, CreateLoanRequest{
		AssetID:    asset.ID.String(),
		EmployeeID: employee.ID.String(),
		StartDate:  dateStr(time.Now().AddDate(0, 0, 7)),
		DueDate:    dateStr(time.Now()),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}

// A request dated "today" must stay valid through the local evening even when
// UTC has already rolled over to the next day.
func TestLoanDateValidationUsesCalendarDates(t *testing.T) {
	west := time.FixedZone("UTC-7", -7*60*60)
	now := time.Date(2026, 3, 10, 23, 30, 0, 0, west) // 2026-03-11 06:30 UTC

	start, due, err := validateLoanDates("2026-03-10", "2026-03-12", now)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-10", dateStr(start))
	assert.Equal(t, "2026-03-12", dateStr(due))

	_, _, err = validateLoanDates("2026-03-09", "2026-03-12", now)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}

func TestApproveAssignsAssetAndClosesRequest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	asset := f.seedAsset(t, "SN-2004")
	employee := f.seedEmployee(t, "E-1", "Dana", "dana@example.com")
	request := f.seedLoanRequest(t, asset, employee)
	admin := uuid.New().String()

	approved, err := f.loanSvc.Approve(ctx, admin, request.ID.String())
	require.NoError(t, err)
	assert.Equal(t, model.LoanApproved, approved.Status)
	require.NotNil(t, approved.AdminID)
	require.NotNil(t, approved.ReviewedAt)

	current, err := f.assets.FindByID(ctx, asset.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusBorrowed, current.Status)
	require.NotNil(t, current.EmployeeID)
	assert.Equal(t, employee.ID, *current.EmployeeID)
	require.NotNil(t, current.DueDate)
	assert.Equal(t, dateStr(request.DueDate), dateStr(*current.DueDate))
}

// Two requests for the same asset: the second approval must fail atomically,
// leaving its request PENDING and the asset with the first borrower.
func TestDoubleApproveSameAssetConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	asset := f.seedAsset(t, "SN-2005")
	first := f.seedEmployee(t, "E-1", "Dana", "dana@example.com")
	second := f.seedEmployee(t, "E-2", "Riley", "riley@example.com")

	requestA := f.seedLoanRequest(t, asset, first)
	requestB := f.seedLoanRequest(t, asset, second)
	admin := uuid.New().String()

	_, err := f.loanSvc.Approve(ctx, admin, requestA.ID.String())
	require.NoError(t, err)

	_, err = f.loanSvc.Approve(ctx, admin, requestB.ID.String())
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrConflict))

	// The loser rolled back: still PENDING, no stray history row.
	reloaded, err := f.loans.FindByID(ctx, requestB.ID)
	require.NoError(t, err)
	assert.Equal(t, model.LoanPending, reloaded.Status)
	assert.Nil(t, reloaded.AdminID)

	current, err := f.assets.FindByID(ctx, asset.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, *current.EmployeeID)
	assert.EqualValues(t, 1, f.historyCount(t, asset.ID))
}

func TestApproveNonPendingRequestConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	asset := f.seedAsset(t, "SN-2006")
	employee := f.seedEmployee(t, "E-1", "Dana", "dana@example.com")
	request := f.seedLoanRequest(t, asset, employee)
	admin := uuid.New().String()

	_, err := f.loanSvc.Reject(ctx, admin, request.ID.String(), RejectLoanRequest{Reason: "no budget"})
	require.NoError(t, err)

	_, err = f.loanSvc.Approve(ctx, admin, request.ID.String())
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrConflict))
}

func TestRejectLeavesAssetUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	asset := f.seedAsset(t, "SN-2007")
	employee := f.seedEmployee(t, "E-1", "Dana", "dana@example.com")
	request := f.seedLoanRequest(t, asset, employee)

	rejected, err := f.loanSvc.Reject(ctx, uuid.New().String(), request.ID.String(), RejectLoanRequest{
		Reason: "asset reserved",
	})
	require.NoError(t, err)
	assert.Equal(t, model.LoanRejected, rejected.Status)
	assert.Equal(t, "asset reserved", rejected.RejectionReason)

	current, err := f.assets.FindByID(ctx, asset.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusAvailable, current.Status)
	assert.EqualValues(t, 0, f.historyCount(t, asset.ID))
}

func TestReturnMarksApprovedRequestReturned(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	asset := f.seedAsset(t, "SN-2008")
	employee := f.seedEmployee(t, "E-1", "Dana", "dana@example.com")
	request := f.seedLoanRequest(t, asset, employee)
	admin := uuid.New().String()

	_, err := f.loanSvc.Approve(ctx, admin, request.ID.String())
	require.NoError(t, err)

	_, err = f.lifecycle.Return(ctx, admin, asset.ID.String(), ReturnRequest{Condition: model.ConditionGood})
	require.NoError(t, err)

	reloaded, err := f.loans.FindByID(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, model.LoanReturned, reloaded.Status)
}

func TestCreatePublicLoanRequestByEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	asset := f.seedAsset(t, "SN-2009")
	employee := f.seedEmployee(t, "E-1", "Dana", "dana@example.com")

	request, err := f.loanSvc.CreatePublic(ctx, PublicLoanRequest{
		AssetTag:      *asset.AssetTag,
		EmployeeEmail: employee.Email,
		StartDate:     dateStr(time.Now()),
		DueDate:       dateStr(time.Now().AddDate(0, 0, 3)),
	})
	require.NoError(t, err)
	assert.Equal(t, model.LoanPending, request.Status)
	assert.Equal(t, employee.ID, request.EmployeeID)
}

func TestCreatePublicLoanRequestUnknownEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	asset := f.seedAsset(t, "SN-2010")
	_, err := f.loanSvc.CreatePublic(ctx, PublicLoanRequest{
		AssetTag:      *asset.AssetTag,
		EmployeeEmail: "nobody@example.com",
		StartDate:     dateStr(time.Now()),
		DueDate:       dateStr(time.Now().AddDate(0, 0, 3)),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}
