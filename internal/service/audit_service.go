package service

import (
	"context"
	"errors"
	"time"

	"assettrack/internal/apperr"
	"assettrack/internal/model"
	"assettrack/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RecordAuditRequest struct {
	Condition  string `json:"condition" binding:"required,oneof=GOOD BAD BROKEN"`
	LocationID string `json:"location_id" binding:"omitempty,uuid"` // Observed location, relocates when it differs
	Notes      string `json:"notes"`
}

// AuditQueueItem is one row of the audit worklist.
type AuditQueueItem struct {
	Asset         model.Asset `json:"asset"`
	LastCondition string      `json:"last_condition,omitempty"`
	Overdue       bool        `json:"overdue"`
}

type AuditService interface {
	RecordAudit(ctx context.Context, actorID, assetID string, req RecordAuditRequest) (*model.Asset, error)
	SelfCheckin(ctx context.Context, assetTag string) (*model.Asset, error)
	Queue(ctx context.Context, search string, page, limit int) ([]AuditQueueItem, int64, error)
}

type auditService struct {
	assets    repository.AssetRepository
	histories repository.HistoryRepository
	locations repository.LocationRepository
	txManager repository.TransactionManager
}

func NewAuditService(
	assets repository.AssetRepository,
	histories repository.HistoryRepository,
	locations repository.LocationRepository,
	txManager repository.TransactionManager,
) AuditService {
	return &auditService{
		assets:    assets,
		histories: histories,
		locations: locations,
		txManager: txManager,
	}
}

// RecordAudit verifies an asset physically exists. The status is never
// changed: auditing a BORROWED asset leaves it BORROWED. When the observed
// location differs from the recorded one the asset is relocated as part of
// the same audit.
func (s *auditService) RecordAudit(ctx context.Context, actorID, assetID string, req RecordAuditRequest) (*model.Asset, error) {
	aid, err := uuid.Parse(assetID)
	if err != nil {
		return nil, apperr.Validationf("invalid asset id: %v", err)
	}

	var updated *model.Asset
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		asset, err := s.assets.FindByID(txCtx, aid)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("asset %s does not exist", assetID)
			}
			return err
		}

		now := time.Now()
		fields := map[string]interface{}{
			"last_audit_date": now,
			"condition":       req.Condition,
		}

		locationID := asset.LocationID
		if req.LocationID != "" {
			observed, err := uuid.Parse(req.LocationID)
			if err != nil {
				return apperr.Validationf("invalid location id: %v", err)
			}
			if observed != asset.LocationID {
				if _, err := s.locations.FindByID(txCtx, observed); err != nil {
					if errors.Is(err, gorm.ErrRecordNotFound) {
						return apperr.NotFoundf("location %s does not exist", observed)
					}
					return err
				}
				fields["location_id"] = observed
				locationID = observed
			}
		}

		if err := s.assets.UpdateFields(txCtx, aid, fields); err != nil {
			return err
		}

		entry := &model.AssetHistory{
			AssetID:      aid,
			UserID:       parseActor(actorID),
			EmployeeID:   asset.EmployeeID,
			Action:       model.ActionAudit,
			StatusBefore: asset.Status,
			StatusAfter:  asset.Status,
			Condition:    req.Condition,
			LocationID:   &locationID,
			Notes:        req.Notes,
		}
		if err := s.histories.Create(txCtx, entry); err != nil {
			return err
		}

		updated, err = s.assets.FindByID(txCtx, aid)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// SelfCheckin is the public kiosk audit: anyone scanning the sticker can
// confirm the asset is where the system thinks it is. No actor, condition
// GOOD, fixed note.
func (s *auditService) SelfCheckin(ctx context.Context, assetTag string) (*model.Asset, error) {
	asset, err := s.assets.FindByTag(ctx, assetTag)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("asset with tag %s does not exist", assetTag)
		}
		return nil, err
	}
	return s.RecordAudit(ctx, "", asset.ID.String(), RecordAuditRequest{
		Condition: model.ConditionGood,
		Notes:     "Self check-in via QR scan",
	})
}

// Queue lists assets in audit priority order: never audited first, then the
// stalest audits. Each row carries the condition observed at the last audit.
func (s *auditService) Queue(ctx context.Context, search string, page, limit int) ([]AuditQueueItem, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}

	assets, total, err := s.assets.ListForAudit(ctx, search, page, limit)
	if err != nil {
		return nil, 0, err
	}

	now := time.Now()
	items := make([]AuditQueueItem, 0, len(assets))
	for _, a := range assets {
		condition, err := s.histories.LastAuditCondition(ctx, a.ID)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, AuditQueueItem{
			Asset:         a,
			LastCondition: condition,
			Overdue:       a.IsAuditOverdue(now),
		})
	}
	return items, total, nil
}
