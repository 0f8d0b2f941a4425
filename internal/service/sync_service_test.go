package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"assettrack/internal/glpi"
	"assettrack/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupGlpiDB opens a second in-memory database standing in for the GLPI
// inventory and migrates the mirrored tables.
func setupGlpiDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_") + "_glpi"
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&glpi.Manufacturer{},
		&glpi.ComputerModel{},
		&glpi.OperatingSystem{},
		&glpi.Computer{},
		&glpi.ItemProcessor{},
		&glpi.ItemMemory{},
		&glpi.ItemHardDrive{},
		&glpi.ItemOperatingSystem{},
	))
	return db
}

func (f *fixture) newSyncService(glpiDB *gorm.DB) SyncService {
	return NewSyncService(f.assets, f.categories, f.locations, f.activities,
		glpi.NewService(glpiDB), f.tx)
}

func seedComputer(t *testing.T, db *gorm.DB, serial, otherSerial, name string) *glpi.Computer {
	t.Helper()
	comp := &glpi.Computer{
		Name:         name,
		Serial:       serial,
		OtherSerial:  otherSerial,
		UUID:         uuid.New().String(),
		Manufacturer: &glpi.Manufacturer{Name: "Dell Inc."},
		Model:        &glpi.ComputerModel{Name: "Latitude 5420"},
		CPUItems: []glpi.ItemProcessor{
			{ItemType: "Computer", Designation: "Intel Core i5", Frequency: 2400},
		},
		MemoryItems: []glpi.ItemMemory{
			{ItemType: "Computer", Size: 8192},
		},
	}
	require.NoError(t, db.Create(comp).Error)
	return comp
}

func TestSyncCreatesAssetsAndSkipsEmptySerials(t *testing.T) {
	f := newFixture(t)
	glpiDB := setupGlpiDB(t)
	ctx := context.Background()

	seedComputer(t, glpiDB, "GL-SN-001", "GL-TAG-001", "laptop-001")
	seedComputer(t, glpiDB, "  ", "", "no-serial")

	result, err := f.newSyncService(glpiDB).SyncAll(ctx, uuid.New().String())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 0, result.Updated)
	assert.Equal(t, 1, result.Skipped)

	asset, err := f.assets.FindBySerial(ctx, "GL-SN-001")
	require.NoError(t, err)
	require.NotNil(t, asset.AssetTag)
	assert.Equal(t, "GL-TAG-001", *asset.AssetTag)
	assert.Equal(t, "laptop-001", asset.Name)
	assert.Equal(t, "Dell Inc.", asset.Brand)
	assert.Equal(t, "Intel Core i5 @ 2400 Mhz", asset.HardwareSpecs.CPU)
	assert.Equal(t, "8192 MB", asset.HardwareSpecs.RAM)
	require.NotNil(t, asset.LastSeenAt)

	category, err := f.categories.FindByID(ctx, asset.CategoryID)
	require.NoError(t, err)
	assert.Equal(t, "Uncategorized", category.Name)
}

func TestSyncUpdateKeepsManualFiling(t *testing.T) {
	f := newFixture(t)
	glpiDB := setupGlpiDB(t)
	ctx := context.Background()

	existing := f.seedAsset(t, "GL-SN-002")
	seedComputer(t, glpiDB, "GL-SN-002", "GL-TAG-IGNORED", "renamed-by-glpi")

	result, err := f.newSyncService(glpiDB).SyncAll(ctx, uuid.New().String())
	require.NoError(t, err)
	assert.Equal(t, 0, result.Created)
	assert.Equal(t, 1, result.Updated)

	reloaded, err := f.assets.FindByID(ctx, existing.ID)
	require.NoError(t, err)
	// Technical fields come from GLPI, filing and the existing tag do not.
	assert.Equal(t, "renamed-by-glpi", reloaded.Name)
	assert.Equal(t, "Dell Inc.", reloaded.Brand)
	require.NotNil(t, reloaded.AssetTag)
	assert.Equal(t, *existing.AssetTag, *reloaded.AssetTag)
	assert.Equal(t, existing.CategoryID, reloaded.CategoryID)
	assert.Equal(t, existing.LocationID, reloaded.LocationID)
}

func TestSyncFillsMissingTagUnlessTaken(t *testing.T) {
	f := newFixture(t)
	glpiDB := setupGlpiDB(t)
	ctx := context.Background()

	// Untagged asset whose GLPI tag is free gets it.
	category := f.seedCategory(t, "Laptops", "LT")
	location := f.seedLocation(t, "Room 1", "HQ")
	untagged := &model.Asset{
		SerialNumber: "GL-SN-003",
		Name:         "untagged",
		CategoryID:   category.ID,
		LocationID:   location.ID,
		Status:       model.StatusAvailable,
		Condition:    model.ConditionGood,
	}
	require.NoError(t, f.assets.Create(ctx, untagged))
	seedComputer(t, glpiDB, "GL-SN-003", "GL-TAG-003", "laptop-003")

	// This one's GLPI tag already belongs to another asset.
	taken := f.seedAsset(t, "GL-SN-004")
	collider := &model.Asset{
		SerialNumber: "GL-SN-005",
		Name:         "collider",
		CategoryID:   category.ID,
		LocationID:   location.ID,
		Status:       model.StatusAvailable,
		Condition:    model.ConditionGood,
	}
	require.NoError(t, f.assets.Create(ctx, collider))
	seedComputer(t, glpiDB, "GL-SN-005", *taken.AssetTag, "laptop-005")

	_, err := f.newSyncService(glpiDB).SyncAll(ctx, uuid.New().String())
	require.NoError(t, err)

	reloaded, err := f.assets.FindByID(ctx, untagged.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.AssetTag)
	assert.Equal(t, "GL-TAG-003", *reloaded.AssetTag)

	reloaded, err = f.assets.FindByID(ctx, collider.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.AssetTag)
}

func TestSyncIgnoresDeletedComputers(t *testing.T) {
	f := newFixture(t)
	glpiDB := setupGlpiDB(t)
	ctx := context.Background()

	comp := seedComputer(t, glpiDB, "GL-SN-006", "", "trashed")
	require.NoError(t, glpiDB.Model(comp).Update("is_deleted", true).Error)

	result, err := f.newSyncService(glpiDB).SyncAll(ctx, uuid.New().String())
	require.NoError(t, err)
	assert.Equal(t, 0, result.Created)
	assert.Equal(t, 0, result.Updated)
	assert.Equal(t, 0, result.Skipped)
}
