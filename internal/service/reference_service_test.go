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

func (f *fixture) newReferenceService() ReferenceService {
	return NewReferenceService(f.categories, f.locations, f.employees, f.assets, f.activities, f.tx)
}

func TestCreateCategoryUppercasesCode(t *testing.T) {
	f := newFixture(t)
	svc := f.newReferenceService()
	ctx := context.Background()
	actor := uuid.New().String()

	category, err := svc.CreateCategory(ctx, actor, CategoryRequest{Name: " Laptops ", Code: " lt "})
	require.NoError(t, err)
	assert.Equal(t, "Laptops", category.Name)
	assert.Equal(t, "LT", category.Code)

	_, err = svc.CreateCategory(ctx, actor, CategoryRequest{Name: "Other", Code: "lt"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrConflict))
}

func TestDeleteCategoryBlockedWhileReferenced(t *testing.T) {
	f := newFixture(t)
	svc := f.newReferenceService()
	ctx := context.Background()
	actor := uuid.New().String()

	asset := f.seedAsset(t, "SN-6001")

	err := svc.DeleteCategory(ctx, actor, asset.CategoryID.String())
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrConflict))

	empty := f.seedCategory(t, "Empty", "EMP")
	require.NoError(t, svc.DeleteCategory(ctx, actor, empty.ID.String()))
}

func TestDeleteLocationBlockedWhileReferenced(t *testing.T) {
	f := newFixture(t)
	svc := f.newReferenceService()
	ctx := context.Background()
	actor := uuid.New().String()

	asset := f.seedAsset(t, "SN-6002")

	err := svc.DeleteLocation(ctx, actor, asset.LocationID.String())
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrConflict))
}

func TestDeleteEmployeeBlockedWhileHoldingAssets(t *testing.T) {
	f := newFixture(t)
	svc := f.newReferenceService()
	ctx := context.Background()
	actor := uuid.New().String()

	asset := f.seedAsset(t, "SN-6003")
	employee := f.seedEmployee(t, "E-1", "Dana", "dana@example.com")

	due := dateStr(time.Now().AddDate(0, 0, 7))
	_, err := f.lifecycle.Assign(ctx, actor, asset.ID.String(), AssignRequest{
		EmployeeID: employee.ID.String(), LoanType: model.LoanShortTerm, DueDate: &due,
	})
	require.NoError(t, err)

	err = svc.DeleteEmployee(ctx, actor, employee.ID.String())
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrConflict))

	// Returning the asset unblocks the delete.
	_, err = f.lifecycle.Return(ctx, actor, asset.ID.String(), ReturnRequest{Condition: model.ConditionGood})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteEmployee(ctx, actor, employee.ID.String()))
}

func TestCreateEmployeeNormalizesEmail(t *testing.T) {
	f := newFixture(t)
	svc := f.newReferenceService()
	ctx := context.Background()

	employee, err := svc.CreateEmployee(ctx, uuid.New().String(), EmployeeRequest{
		NID: "E-9", Name: "Riley", Email: " Riley@Example.COM ",
	})
	require.NoError(t, err)
	assert.Equal(t, "riley@example.com", employee.Email)
	assert.True(t, employee.IsActive)

	var count int64
	require.NoError(t, f.db.Model(&model.ActivityLog{}).Count(&count).Error)
	assert.Positive(t, count)
}
