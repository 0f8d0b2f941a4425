package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"assettrack/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AssetFilter narrows asset listings.
type AssetFilter struct {
	Search string // matches name, asset_tag or serial_number
	Status string
	Page   int
	Limit  int
}

type AssetRepository interface {
	Create(ctx context.Context, asset *model.Asset) error
	Update(ctx context.Context, asset *model.Asset) error
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Asset, error)
	FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.Asset, error)
	FindByTag(ctx context.Context, tag string) (*model.Asset, error)
	FindBySerial(ctx context.Context, serial string) (*model.Asset, error)
	List(ctx context.Context, filter AssetFilter) ([]model.Asset, int64, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Asset, error)
	ListForAudit(ctx context.Context, search string, page, limit int) ([]model.Asset, int64, error)
	CountByStatus(ctx context.Context, status string) (int64, error)
	CountAuditOverdue(ctx context.Context, cutoff time.Time) (int64, error)
	CountByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error)
	CountByLocation(ctx context.Context, locationID uuid.UUID) (int64, error)
	CountHeldByEmployee(ctx context.Context, employeeID uuid.UUID) (int64, error)
	MaxTagWithPrefix(ctx context.Context, prefix string) (string, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, fromStatus string, fields map[string]interface{}) (bool, error)
	HasDependents(ctx context.Context, id uuid.UUID) (bool, error)
}

type assetRepository struct {
	db *gorm.DB
}

func NewAssetRepository(db *gorm.DB) AssetRepository {
	return &assetRepository{db: db}
}

func (r *assetRepository) Create(ctx context.Context, asset *model.Asset) error {
	return GetDB(ctx, r.db).Create(asset).Error
}

func (r *assetRepository) Update(ctx context.Context, asset *model.Asset) error {
	return GetDB(ctx, r.db).Save(asset).Error
}

func (r *assetRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	return GetDB(ctx, r.db).Model(&model.Asset{}).Where("id = ?", id).Updates(fields).Error
}

func (r *assetRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Asset{}).Error
}

func (r *assetRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Asset, error) {
	var asset model.Asset
	if err := GetDB(ctx, r.db).First(&asset, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &asset, nil
}

func (r *assetRepository) FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.Asset, error) {
	var asset model.Asset
	err := GetDB(ctx, r.db).
		Preload("Category").
		Preload("Location").
		Preload("Employee").
		Preload("Histories", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC").Limit(20)
		}).
		Preload("Histories.User").
		Preload("Histories.Employee").
		Preload("Histories.Location").
		First(&asset, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &asset, nil
}

func (r *assetRepository) FindByTag(ctx context.Context, tag string) (*model.Asset, error) {
	var asset model.Asset
	err := GetDB(ctx, r.db).
		Preload("Location").
		Preload("Employee").
		Where("asset_tag = ?", tag).
		First(&asset).Error
	if err != nil {
		return nil, err
	}
	return &asset, nil
}

func (r *assetRepository) FindBySerial(ctx context.Context, serial string) (*model.Asset, error) {
	var asset model.Asset
	if err := GetDB(ctx, r.db).Where("serial_number = ?", serial).First(&asset).Error; err != nil {
		return nil, err
	}
	return &asset, nil
}

func (r *assetRepository) List(ctx context.Context, filter AssetFilter) ([]model.Asset, int64, error) {
	var assets []model.Asset
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Asset{})
	db = applyAssetFilter(db, filter)

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	fetch := applyAssetFilter(GetDB(ctx, r.db), filter).
		Preload("Category").
		Preload("Location").
		Preload("Employee").
		Order("created_at DESC").
		Offset(offset).
		Limit(filter.Limit)
	if err := fetch.Find(&assets).Error; err != nil {
		return nil, 0, err
	}

	return assets, total, nil
}

func applyAssetFilter(db *gorm.DB, filter AssetFilter) *gorm.DB {
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		db = db.Where(
			"LOWER(name) LIKE ? OR LOWER(asset_tag) LIKE ? OR LOWER(serial_number) LIKE ?",
			pattern, pattern, pattern,
		)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	return db
}

func (r *assetRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Asset, error) {
	var assets []model.Asset
	err := GetDB(ctx, r.db).
		Preload("Category").
		Preload("Location").
		Where("id IN ?", ids).
		Find(&assets).Error
	return assets, err
}

// ListForAudit orders the audit queue: never-audited assets first, then the
// stalest audits.
func (r *assetRepository) ListForAudit(ctx context.Context, search string, page, limit int) ([]model.Asset, int64, error) {
	var assets []model.Asset
	var total int64

	base := GetDB(ctx, r.db).Model(&model.Asset{})
	if search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		base = base.Where("LOWER(name) LIKE ? OR LOWER(asset_tag) LIKE ?", pattern, pattern)
	}

	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := base.
		Preload("Category").
		Preload("Location").
		Order("CASE WHEN last_audit_date IS NULL THEN 0 ELSE 1 END").
		Order("last_audit_date ASC").
		Offset(offset).
		Limit(limit).
		Find(&assets).Error
	if err != nil {
		return nil, 0, err
	}

	return assets, total, nil
}

func (r *assetRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	var count int64
	db := GetDB(ctx, r.db).Model(&model.Asset{})
	if status != "" {
		db = db.Where("status = ?", status)
	}
	err := db.Count(&count).Error
	return count, err
}

func (r *assetRepository) CountAuditOverdue(ctx context.Context, cutoff time.Time) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Asset{}).
		Where("last_audit_date IS NULL OR last_audit_date < ?", cutoff).
		Count(&count).Error
	return count, err
}

func (r *assetRepository) CountByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Asset{}).Where("category_id = ?", categoryID).Count(&count).Error
	return count, err
}

func (r *assetRepository) CountByLocation(ctx context.Context, locationID uuid.UUID) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Asset{}).Where("location_id = ?", locationID).Count(&count).Error
	return count, err
}

func (r *assetRepository) CountHeldByEmployee(ctx context.Context, employeeID uuid.UUID) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Asset{}).
		Where("employee_id = ? AND status = ?", employeeID, model.StatusBorrowed).
		Count(&count).Error
	return count, err
}

// MaxTagWithPrefix returns the lexicographically highest asset tag matching
// the prefix, or "" when none exists. Zero-padded suffixes make the
// lexicographic order equal the numeric order.
func (r *assetRepository) MaxTagWithPrefix(ctx context.Context, prefix string) (string, error) {
	var asset model.Asset
	err := GetDB(ctx, r.db).
		Where("asset_tag LIKE ?", prefix+"%").
		Order("asset_tag DESC").
		First(&asset).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	if asset.AssetTag == nil {
		return "", nil
	}
	return *asset.AssetTag, nil
}

// TransitionStatus performs the guarded write at the heart of every lifecycle
// transition: the update only lands when the row still carries fromStatus, so
// two concurrent writers cannot both succeed. Returns false when the guard
// failed (caller reports a conflict).
func (r *assetRepository) TransitionStatus(ctx context.Context, id uuid.UUID, fromStatus string, fields map[string]interface{}) (bool, error) {
	result := GetDB(ctx, r.db).Model(&model.Asset{}).
		Where("id = ? AND status = ?", id, fromStatus).
		Updates(fields)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// HasDependents reports whether history, loan or maintenance records point at
// the asset. Assets with a trail are never hard-deleted.
func (r *assetRepository) HasDependents(ctx context.Context, id uuid.UUID) (bool, error) {
	db := GetDB(ctx, r.db)

	var count int64
	if err := db.Model(&model.AssetHistory{}).Where("asset_id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return true, nil
	}
	if err := db.Model(&model.LoanRequest{}).Where("asset_id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return true, nil
	}
	if err := db.Model(&model.Maintenance{}).Where("asset_id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
