package repository

import (
	"context"
	"strings"

	"assettrack/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MaintenanceRepository interface {
	Create(ctx context.Context, m *model.Maintenance) error
	Update(ctx context.Context, m *model.Maintenance) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Maintenance, error)
	List(ctx context.Context, search, status string, page, limit int) ([]model.Maintenance, int64, error)
	ListAll(ctx context.Context, search, status string) ([]model.Maintenance, error)
	CountOpenByAsset(ctx context.Context, assetID uuid.UUID, excludeID *uuid.UUID) (int64, error)
	CountByStatus(ctx context.Context, status string) (int64, error)
	CountByAsset(ctx context.Context, assetID uuid.UUID) (int64, error)
}

type maintenanceRepository struct {
	db *gorm.DB
}

func NewMaintenanceRepository(db *gorm.DB) MaintenanceRepository {
	return &maintenanceRepository{db: db}
}

func (r *maintenanceRepository) Create(ctx context.Context, m *model.Maintenance) error {
	return GetDB(ctx, r.db).Create(m).Error
}

func (r *maintenanceRepository) Update(ctx context.Context, m *model.Maintenance) error {
	return GetDB(ctx, r.db).Save(m).Error
}

func (r *maintenanceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Maintenance{}).Error
}

func (r *maintenanceRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Maintenance, error) {
	var m model.Maintenance
	if err := GetDB(ctx, r.db).Preload("Asset").First(&m, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func maintenanceQuery(db *gorm.DB, search, status string) *gorm.DB {
	if search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		db = db.Where(
			"LOWER(description) LIKE ? OR asset_id IN (?)",
			pattern,
			db.Session(&gorm.Session{NewDB: true}).Model(&model.Asset{}).
				Select("id").
				Where("LOWER(name) LIKE ? OR LOWER(asset_tag) LIKE ?", pattern, pattern),
		)
	}
	if status != "" {
		db = db.Where("status = ?", status)
	}
	return db
}

func (r *maintenanceRepository) List(ctx context.Context, search, status string, page, limit int) ([]model.Maintenance, int64, error) {
	var records []model.Maintenance
	var total int64

	base := maintenanceQuery(GetDB(ctx, r.db).Model(&model.Maintenance{}), search, status)
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := maintenanceQuery(GetDB(ctx, r.db), search, status).
		Preload("Asset").
		Order("scheduled_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

func (r *maintenanceRepository) ListAll(ctx context.Context, search, status string) ([]model.Maintenance, error) {
	var records []model.Maintenance
	err := maintenanceQuery(GetDB(ctx, r.db), search, status).
		Preload("Asset").
		Order("scheduled_at DESC").
		Find(&records).Error
	return records, err
}

// CountOpenByAsset counts scheduled/in_progress records for the asset,
// optionally excluding one record (the one being closed).
func (r *maintenanceRepository) CountOpenByAsset(ctx context.Context, assetID uuid.UUID, excludeID *uuid.UUID) (int64, error) {
	var count int64
	db := GetDB(ctx, r.db).Model(&model.Maintenance{}).
		Where("asset_id = ? AND status IN ?", assetID,
			[]string{model.MaintenanceScheduled, model.MaintenanceInProgress})
	if excludeID != nil {
		db = db.Where("id <> ?", *excludeID)
	}
	err := db.Count(&count).Error
	return count, err
}

func (r *maintenanceRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Maintenance{}).Where("status = ?", status).Count(&count).Error
	return count, err
}

func (r *maintenanceRepository) CountByAsset(ctx context.Context, assetID uuid.UUID) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Maintenance{}).Where("asset_id = ?", assetID).Count(&count).Error
	return count, err
}
