package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"assettrack/internal/database"
	"assettrack/internal/model"
	"assettrack/internal/repository"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB opens an isolated in-memory sqlite database and migrates the
// schema. Each test gets its own named database so parallel packages do not
// share state.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A single connection keeps the in-memory database alive and avoids
	// sqlite table locks across pooled connections.
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	return db
}

// fixture bundles the repositories and services most tests need.
type fixture struct {
	db *gorm.DB

	assets       repository.AssetRepository
	histories    repository.HistoryRepository
	loans        repository.LoanRequestRepository
	maintenances repository.MaintenanceRepository
	categories   repository.CategoryRepository
	locations    repository.LocationRepository
	employees    repository.EmployeeRepository
	activities   repository.ActivityRepository
	tx           repository.TransactionManager

	lifecycle   LifecycleService
	assetSvc    AssetService
	loanSvc     LoanService
	maintSvc    MaintenanceService
	auditSvc    AuditService
	dashboardSv DashboardService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := SetupTestDB(t)

	f := &fixture{
		db:           db,
		assets:       repository.NewAssetRepository(db),
		histories:    repository.NewHistoryRepository(db),
		loans:        repository.NewLoanRequestRepository(db),
		maintenances: repository.NewMaintenanceRepository(db),
		categories:   repository.NewCategoryRepository(db),
		locations:    repository.NewLocationRepository(db),
		employees:    repository.NewEmployeeRepository(db),
		activities:   repository.NewActivityRepository(db),
		tx:           repository.NewTransactionManager(db),
	}

	f.lifecycle = NewLifecycleService(
		f.assets, f.histories, f.employees, f.locations, f.loans, f.maintenances, f.tx, nil)
	f.assetSvc = NewAssetService(
		f.assets, f.histories, f.categories, f.locations, f.activities, nil, f.tx)
	f.loanSvc = NewLoanService(f.loans, f.assets, f.employees, f.lifecycle, f.tx, nil)
	f.maintSvc = NewMaintenanceService(f.maintenances, f.assets, f.lifecycle, f.tx)
	f.auditSvc = NewAuditService(f.assets, f.histories, f.locations, f.tx)
	f.dashboardSv = NewDashboardService(f.assets, f.histories, f.loans, f.maintenances)
	return f
}

func (f *fixture) seedCategory(t *testing.T, name, code string) *model.Category {
	t.Helper()
	c := &model.Category{Name: name, Code: code}
	require.NoError(t, f.categories.Create(context.Background(), c))
	return c
}

func (f *fixture) seedLocation(t *testing.T, name, building string) *model.Location {
	t.Helper()
	l := &model.Location{Name: name, Building: building}
	require.NoError(t, f.locations.Create(context.Background(), l))
	return l
}

func (f *fixture) seedEmployee(t *testing.T, nid, name, email string) *model.Employee {
	t.Helper()
	e := &model.Employee{NID: nid, Name: name, Email: email, IsActive: true}
	require.NoError(t, f.employees.Create(context.Background(), e))
	return e
}

// seedAsset creates an AVAILABLE asset with fresh reference rows.
func (f *fixture) seedAsset(t *testing.T, serial string) *model.Asset {
	t.Helper()
	category := f.seedCategory(t, "Laptops "+serial, "LT-"+serial)
	location := f.seedLocation(t, "Room "+serial, "HQ")

	tag := "AST-2026-" + serial
	a := &model.Asset{
		AssetTag:     &tag,
		SerialNumber: serial,
		Name:         "Asset " + serial,
		CategoryID:   category.ID,
		LocationID:   location.ID,
		Status:       model.StatusAvailable,
		Condition:    model.ConditionGood,
	}
	require.NoError(t, f.assets.Create(context.Background(), a))
	return a
}

func (f *fixture) historyCount(t *testing.T, assetID interface{}) int64 {
	t.Helper()
	var count int64
	require.NoError(t, f.db.Model(&model.AssetHistory{}).Where("asset_id = ?", assetID).Count(&count).Error)
	return count
}

func dateStr(t time.Time) string {
	return t.Format("2006-01-02")
}
