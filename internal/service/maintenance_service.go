package service

import (
	"context"
	"errors"
	"time"

	"assettrack/internal/apperr"
	"assettrack/internal/model"
	"assettrack/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ScheduleMaintenanceRequest struct {
	AssetID     string          `json:"asset_id" binding:"required,uuid"`
	VendorName  string          `json:"vendor_name"`
	Description string          `json:"description" binding:"required"`
	Cost        decimal.Decimal `json:"cost"`
	ScheduledAt *string         `json:"scheduled_at"` // YYYY-MM-DD, defaults to today
}

type UpdateMaintenanceRequest struct {
	VendorName  *string          `json:"vendor_name"`
	Description *string          `json:"description"`
	Cost        *decimal.Decimal `json:"cost"`
	Status      *string          `json:"status" binding:"omitempty,oneof=scheduled in_progress completed canceled"`
	ScheduledAt *string          `json:"scheduled_at"`
}

type MaintenanceService interface {
	Schedule(ctx context.Context, actorID string, req ScheduleMaintenanceRequest) (*model.Maintenance, error)
	Update(ctx context.Context, actorID, id string, req UpdateMaintenanceRequest) (*model.Maintenance, error)
	Delete(ctx context.Context, actorID, id string) error
	Get(ctx context.Context, id string) (*model.Maintenance, error)
	List(ctx context.Context, search, status string, page, limit int) ([]model.Maintenance, int64, error)
}

type maintenanceService struct {
	maintenances repository.MaintenanceRepository
	assets       repository.AssetRepository
	lifecycle    LifecycleService
	txManager    repository.TransactionManager
}

func NewMaintenanceService(
	maintenances repository.MaintenanceRepository,
	assets repository.AssetRepository,
	lifecycle LifecycleService,
	txManager repository.TransactionManager,
) MaintenanceService {
	return &maintenanceService{
		maintenances: maintenances,
		assets:       assets,
		lifecycle:    lifecycle,
		txManager:    txManager,
	}
}

// Schedule creates a maintenance record and, when the asset is not already in
// MAINTENANCE, runs the send-repair transition in the same transaction. A
// second open record for an asset already in MAINTENANCE does not write a
// second history row.
func (s *maintenanceService) Schedule(ctx context.Context, actorID string, req ScheduleMaintenanceRequest) (*model.Maintenance, error) {
	assetID, err := uuid.Parse(req.AssetID)
	if err != nil {
		return nil, apperr.Validationf("invalid asset id: %v", err)
	}

	scheduledAt := time.Now()
	if req.ScheduledAt != nil && *req.ScheduledAt != "" {
		parsed, err := parseDate(*req.ScheduledAt)
		if err != nil {
			return nil, apperr.Validationf("invalid scheduled_at: %v", err)
		}
		scheduledAt = parsed
	}

	record := &model.Maintenance{
		AssetID:     assetID,
		UserID:      parseActor(actorID),
		VendorName:  req.VendorName,
		Description: req.Description,
		Cost:        req.Cost,
		Status:      model.MaintenanceScheduled,
		ScheduledAt: scheduledAt,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		asset, err := s.assets.FindByID(txCtx, assetID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("asset %s does not exist", assetID)
			}
			return err
		}

		if asset.Status != model.StatusMaintenance {
			if _, err := s.lifecycle.SendRepair(txCtx, actorID, assetID.String(), RepairRequest{
				Notes: req.Description,
			}); err != nil {
				return err
			}
		}

		return s.maintenances.Create(txCtx, record)
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// Update mutates a maintenance record. Moving it to completed stamps
// completed_at; moving it anywhere else clears the stamp. Closing the last
// open record (completed or canceled) runs finish-repair in the same
// transaction so the asset leaves MAINTENANCE.
func (s *maintenanceService) Update(ctx context.Context, actorID, id string, req UpdateMaintenanceRequest) (*model.Maintenance, error) {
	mid, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.Validationf("invalid maintenance id: %v", err)
	}

	var updated *model.Maintenance
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		record, err := s.maintenances.FindByID(txCtx, mid)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("maintenance record %s does not exist", id)
			}
			return err
		}

		if req.VendorName != nil {
			record.VendorName = *req.VendorName
		}
		if req.Description != nil {
			record.Description = *req.Description
		}
		if req.Cost != nil {
			record.Cost = *req.Cost
		}
		if req.ScheduledAt != nil && *req.ScheduledAt != "" {
			parsed, err := parseDate(*req.ScheduledAt)
			if err != nil {
				return apperr.Validationf("invalid scheduled_at: %v", err)
			}
			record.ScheduledAt = parsed
		}

		wasOpen := record.IsOpen()
		if req.Status != nil && *req.Status != record.Status {
			record.Status = *req.Status
			if record.Status == model.MaintenanceCompleted {
				now := time.Now()
				record.CompletedAt = &now
			} else {
				record.CompletedAt = nil
			}
		}

		record.Asset = nil // Avoid gorm saving the preloaded association
		if err := s.maintenances.Update(txCtx, record); err != nil {
			return err
		}

		// Closing the last open record releases the asset.
		if wasOpen && !record.IsOpen() {
			open, err := s.maintenances.CountOpenByAsset(txCtx, record.AssetID, &record.ID)
			if err != nil {
				return err
			}
			if open == 0 {
				asset, err := s.assets.FindByID(txCtx, record.AssetID)
				if err != nil {
					return err
				}
				if asset.Status == model.StatusMaintenance {
					if _, err := s.lifecycle.FinishRepair(txCtx, actorID, record.AssetID.String(), RepairRequest{
						Notes: record.Description,
					}); err != nil {
						return err
					}
				}
			}
		}

		updated = record
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a record. Deleting the last open record leaves the asset in
// MAINTENANCE until a finish or cancel is recorded through Update.
func (s *maintenanceService) Delete(ctx context.Context, actorID, id string) error {
	mid, err := uuid.Parse(id)
	if err != nil {
		return apperr.Validationf("invalid maintenance id: %v", err)
	}
	if _, err := s.maintenances.FindByID(ctx, mid); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFoundf("maintenance record %s does not exist", id)
		}
		return err
	}
	return s.maintenances.Delete(ctx, mid)
}

func (s *maintenanceService) Get(ctx context.Context, id string) (*model.Maintenance, error) {
	mid, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.Validationf("invalid maintenance id: %v", err)
	}
	record, err := s.maintenances.FindByID(ctx, mid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("maintenance record %s does not exist", id)
		}
		return nil, err
	}
	return record, nil
}

func (s *maintenanceService) List(ctx context.Context, search, status string, page, limit int) ([]model.Maintenance, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	return s.maintenances.List(ctx, search, status, page, limit)
}
