package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"assettrack/internal/apperr"
	"assettrack/internal/model"
	"assettrack/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func (f *fixture) createAsset(t *testing.T, serial string, tag *string) *AssetView {
	t.Helper()
	category := f.seedCategory(t, "Cat "+serial, "C-"+serial)
	location := f.seedLocation(t, "Loc "+serial, "HQ")

	view, err := f.assetSvc.Create(context.Background(), uuid.New().String(), CreateAssetRequest{
		AssetTag:     tag,
		SerialNumber: serial,
		Name:         "Asset " + serial,
		CategoryID:   category.ID.String(),
		LocationID:   location.ID.String(),
	})
	require.NoError(t, err)
	return view
}

func TestCreateAssetGeneratesSequentialTags(t *testing.T) {
	f := newFixture(t)

	first := f.createAsset(t, "SN-3001", nil)
	second := f.createAsset(t, "SN-3002", nil)

	year := time.Now().Year()
	require.NotNil(t, first.AssetTag)
	require.NotNil(t, second.AssetTag)
	assert.Equal(t, fmt.Sprintf("AST-%d-00001", year), *first.AssetTag)
	assert.Equal(t, fmt.Sprintf("AST-%d-00002", year), *second.AssetTag)
	assert.Equal(t, model.StatusAvailable, first.Status)
}

// A writer that grabs the computed tag between the max-read and the insert
// forces a unique violation; the generator must roll back just that attempt
// and retry instead of failing the registration.
func TestCreateAssetRetriesOnTagCollision(t *testing.T) {
	f := newFixture(t)

	var injected bool
	err := f.db.Callback().Create().Before("gorm:create").Register("steal_tag_once", func(tx *gorm.DB) {
		asset, ok := tx.Statement.Dest.(*model.Asset)
		if !ok || injected || asset.AssetTag == nil {
			return
		}
		injected = true
		tx.Session(&gorm.Session{NewDB: true}).Exec(
			"INSERT INTO assets (id, serial_number, asset_tag, name, category_id, location_id, status, condition) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
			uuid.New(), "SN-3100-RIVAL", *asset.AssetTag, "rival",
			asset.CategoryID, asset.LocationID, model.StatusAvailable, model.ConditionGood)
	})
	require.NoError(t, err)
	t.Cleanup(func() { f.db.Callback().Create().Remove("steal_tag_once") })

	view := f.createAsset(t, "SN-3100", nil)

	assert.True(t, injected)
	require.NotNil(t, view.AssetTag)
	assert.Equal(t, fmt.Sprintf("AST-%d-00001", time.Now().Year()), *view.AssetTag)
}

func TestCreateAssetKeepsProvidedTag(t *testing.T) {
	f := newFixture(t)

	tag := "LEGACY-42"
	view := f.createAsset(t, "SN-3003", &tag)
	require.NotNil(t, view.AssetTag)
	assert.Equal(t, "LEGACY-42", *view.AssetTag)
}

func TestCreateAssetDuplicateSerialConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.createAsset(t, "SN-3004", nil)

	category := f.seedCategory(t, "Other", "OTH")
	location := f.seedLocation(t, "Other", "HQ")
	_, err := f.assetSvc.Create(ctx, uuid.New().String(), CreateAssetRequest{
		SerialNumber: "SN-3004",
		Name:         "Duplicate",
		CategoryID:   category.ID.String(),
		LocationID:   location.ID.String(),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrConflict))
}

func TestCreateAssetUnknownCategory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	location := f.seedLocation(t, "Loc", "HQ")
	_, err := f.assetSvc.Create(ctx, uuid.New().String(), CreateAssetRequest{
		SerialNumber: "SN-3005",
		Name:         "Orphan",
		CategoryID:   uuid.New().String(),
		LocationID:   location.ID.String(),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestUpdateAssetNeverTouchesTagOrStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	view := f.createAsset(t, "SN-3006", nil)
	originalTag := *view.AssetTag

	newName := "Renamed"
	updated, err := f.assetSvc.Update(ctx, uuid.New().String(), view.ID.String(), UpdateAssetRequest{
		Name: &newName,
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	require.NotNil(t, updated.AssetTag)
	assert.Equal(t, originalTag, *updated.AssetTag)
	assert.Equal(t, model.StatusAvailable, updated.Status)
}

func TestDeleteAssetWithHistoryBlocked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	view := f.createAsset(t, "SN-3007", nil)
	employee := f.seedEmployee(t, "E-1", "Dana", "dana@example.com")
	actor := uuid.New().String()

	due := dateStr(time.Now().AddDate(0, 0, 7))
	_, err := f.lifecycle.Assign(ctx, actor, view.ID.String(), AssignRequest{
		EmployeeID: employee.ID.String(), LoanType: model.LoanShortTerm, DueDate: &due,
	})
	require.NoError(t, err)
	_, err = f.lifecycle.Return(ctx, actor, view.ID.String(), ReturnRequest{Condition: model.ConditionGood})
	require.NoError(t, err)

	err = f.assetSvc.Delete(ctx, actor, view.ID.String())
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrConflict))
}

func TestDeleteFreshAssetSucceeds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	view := f.createAsset(t, "SN-3008", nil)
	require.NoError(t, f.assetSvc.Delete(ctx, uuid.New().String(), view.ID.String()))

	_, err := f.assetSvc.Get(ctx, view.ID.String())
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestWarrantyDerivedFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	category := f.seedCategory(t, "Cat", "CAT")
	location := f.seedLocation(t, "Loc", "HQ")

	purchaseYear := time.Now().Year() - 1
	period := 3
	view, err := f.assetSvc.Create(ctx, uuid.New().String(), CreateAssetRequest{
		SerialNumber: "SN-3009",
		Name:         "Warrantied",
		CategoryID:   category.ID.String(),
		LocationID:   location.ID.String(),
		PurchaseYear: &purchaseYear,
		Period:       &period,
	})
	require.NoError(t, err)

	require.NotNil(t, view.ExpiryYear)
	assert.Equal(t, purchaseYear+period, *view.ExpiryYear)
	assert.True(t, view.Active)

	// Missing purchase data means no derived expiry and not active.
	bare := f.createAsset(t, "SN-3010", nil)
	assert.Nil(t, bare.ExpiryYear)
	assert.False(t, bare.Active)
}

func TestListFiltersByStatusAndSearch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.createAsset(t, "SN-3011", nil)
	f.createAsset(t, "SN-3012", nil)

	employee := f.seedEmployee(t, "E-1", "Dana", "dana@example.com")
	due := dateStr(time.Now().AddDate(0, 0, 7))
	_, err := f.lifecycle.Assign(ctx, uuid.New().String(), a.ID.String(), AssignRequest{
		EmployeeID: employee.ID.String(), LoanType: model.LoanShortTerm, DueDate: &due,
	})
	require.NoError(t, err)

	result, err := f.assetSvc.List(ctx, repository.AssetFilter{Status: model.StatusBorrowed})
	require.NoError(t, err)
	assert.EqualValues(t, 1, result.Total)
	assert.EqualValues(t, 1, result.Counts[model.StatusBorrowed])
	assert.EqualValues(t, 1, result.Counts[model.StatusAvailable])

	result, err = f.assetSvc.List(ctx, repository.AssetFilter{Search: "sn-3012"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, result.Total)
}
