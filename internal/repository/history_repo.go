package repository

import (
	"context"

	"assettrack/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// HistoryRepository is append-only by design: the interface exposes no update
// or delete.
type HistoryRepository interface {
	Create(ctx context.Context, entry *model.AssetHistory) error
	ListByAsset(ctx context.Context, assetID uuid.UUID, limit int) ([]model.AssetHistory, error)
	ListRecent(ctx context.Context, limit int) ([]model.AssetHistory, error)
	LastAuditCondition(ctx context.Context, assetID uuid.UUID) (string, error)
	CountByAsset(ctx context.Context, assetID uuid.UUID) (int64, error)
}

type historyRepository struct {
	db *gorm.DB
}

func NewHistoryRepository(db *gorm.DB) HistoryRepository {
	return &historyRepository{db: db}
}

func (r *historyRepository) Create(ctx context.Context, entry *model.AssetHistory) error {
	return GetDB(ctx, r.db).Create(entry).Error
}

func (r *historyRepository) ListByAsset(ctx context.Context, assetID uuid.UUID, limit int) ([]model.AssetHistory, error) {
	var entries []model.AssetHistory
	err := GetDB(ctx, r.db).
		Preload("User").
		Preload("Employee").
		Preload("Location").
		Where("asset_id = ?", assetID).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

func (r *historyRepository) ListRecent(ctx context.Context, limit int) ([]model.AssetHistory, error) {
	var entries []model.AssetHistory
	err := GetDB(ctx, r.db).
		Preload("Asset").
		Preload("User").
		Preload("Employee").
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

// LastAuditCondition returns the condition observed at the most recent
// physical audit, or "" when the asset was never audited.
func (r *historyRepository) LastAuditCondition(ctx context.Context, assetID uuid.UUID) (string, error) {
	var entry model.AssetHistory
	err := GetDB(ctx, r.db).
		Where("asset_id = ? AND action = ?", assetID, model.ActionAudit).
		Order("created_at DESC").
		First(&entry).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", nil
		}
		return "", err
	}
	return entry.Condition, nil
}

func (r *historyRepository) CountByAsset(ctx context.Context, assetID uuid.UUID) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.AssetHistory{}).Where("asset_id = ?", assetID).Count(&count).Error
	return count, err
}
