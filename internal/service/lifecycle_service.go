package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"assettrack/internal/apperr"
	"assettrack/internal/model"
	"assettrack/internal/repository"
	ws "assettrack/internal/websocket"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type AssignRequest struct {
	EmployeeID string  `json:"employee_id" binding:"required,uuid"`
	LoanType   string  `json:"loan_type" binding:"required,oneof=SHORT_TERM LONG_TERM"`
	DueDate    *string `json:"due_date"` // YYYY-MM-DD, required for SHORT_TERM
	LocationID string  `json:"location_id" binding:"omitempty,uuid"`
	Notes      string  `json:"notes"`
}

type ReturnRequest struct {
	Condition string `json:"condition" binding:"required,oneof=GOOD BAD BROKEN"`
	Notes     string `json:"notes"`
}

type RepairRequest struct {
	Notes string `json:"notes"`
}

type RelocateRequest struct {
	LocationID string `json:"location_id" binding:"required,uuid"`
	Notes      string `json:"notes"`
}

// LifecycleService is the state machine governing asset status transitions.
// Every transition updates the asset row with a status guard and appends
// exactly one history entry, inside one transaction.
type LifecycleService interface {
	Assign(ctx context.Context, actorID, assetID string, req AssignRequest) (*model.Asset, error)
	Return(ctx context.Context, actorID, assetID string, req ReturnRequest) (*model.Asset, error)
	SendRepair(ctx context.Context, actorID, assetID string, req RepairRequest) (*model.Asset, error)
	FinishRepair(ctx context.Context, actorID, assetID string, req RepairRequest) (*model.Asset, error)
	Relocate(ctx context.Context, actorID, assetID string, req RelocateRequest) (*model.Asset, error)
}

type lifecycleService struct {
	assets       repository.AssetRepository
	histories    repository.HistoryRepository
	employees    repository.EmployeeRepository
	locations    repository.LocationRepository
	loans        repository.LoanRequestRepository
	maintenances repository.MaintenanceRepository
	txManager    repository.TransactionManager
	hub          *ws.Hub
}

func NewLifecycleService(
	assets repository.AssetRepository,
	histories repository.HistoryRepository,
	employees repository.EmployeeRepository,
	locations repository.LocationRepository,
	loans repository.LoanRequestRepository,
	maintenances repository.MaintenanceRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) LifecycleService {
	return &lifecycleService{
		assets:       assets,
		histories:    histories,
		employees:    employees,
		locations:    locations,
		loans:        loans,
		maintenances: maintenances,
		txManager:    txManager,
		hub:          hub,
	}
}

// notify broadcasts once the outermost transaction commits. When a transition
// joins a caller's transaction (loan approval, maintenance scheduling) the
// event must not leak before that transaction is decided.
func (s *lifecycleService) notify(ctx context.Context, event string, data map[string]interface{}) {
	repository.AfterCommit(ctx, func() {
		s.hub.Notify(event, data)
	})
}

// parseActor converts the actor id into a nullable uuid. System-initiated
// entries (public kiosk check-in) carry no actor.
func parseActor(actorID string) *uuid.UUID {
	if parsed, err := uuid.Parse(actorID); err == nil {
		return &parsed
	}
	return nil
}

func parseDate(value string) (time.Time, error) {
	return time.Parse("2006-01-02", value)
}

// Assign moves an AVAILABLE asset into custody of an employee.
func (s *lifecycleService) Assign(ctx context.Context, actorID, assetID string, req AssignRequest) (*model.Asset, error) {
	aid, err := uuid.Parse(assetID)
	if err != nil {
		return nil, apperr.Validationf("invalid asset id: %v", err)
	}
	eid, err := uuid.Parse(req.EmployeeID)
	if err != nil {
		return nil, apperr.Validationf("invalid employee id: %v", err)
	}

	var dueDate *time.Time
	if req.LoanType == model.LoanShortTerm {
		if req.DueDate == nil || *req.DueDate == "" {
			return nil, apperr.Validationf("due_date is required for SHORT_TERM loans")
		}
		parsed, err := parseDate(*req.DueDate)
		if err != nil {
			return nil, apperr.Validationf("invalid due_date: %v", err)
		}
		dueDate = &parsed
	}

	var updated *model.Asset
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		asset, err := s.findAsset(txCtx, aid)
		if err != nil {
			return err
		}

		employee, err := s.employees.FindByID(txCtx, eid)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("employee %s does not exist", eid)
			}
			return err
		}
		if !employee.IsActive {
			return apperr.Validationf("employee %s is inactive", employee.Name)
		}

		fields := map[string]interface{}{
			"status":      model.StatusBorrowed,
			"employee_id": eid,
			"loan_type":   req.LoanType,
			"due_date":    dueDate,
		}
		ok, err := s.assets.TransitionStatus(txCtx, aid, model.StatusAvailable, fields)
		if err != nil {
			return err
		}
		if !ok {
			return s.conflict(txCtx, aid, "cannot assign")
		}

		locationID := asset.LocationID
		if req.LocationID != "" {
			if parsed, err := uuid.Parse(req.LocationID); err == nil {
				locationID = parsed
			}
		}

		entry := &model.AssetHistory{
			AssetID:      aid,
			UserID:       parseActor(actorID),
			EmployeeID:   &eid,
			Action:       model.ActionAssign,
			StatusBefore: model.StatusAvailable,
			StatusAfter:  model.StatusBorrowed,
			Condition:    asset.Condition,
			LocationID:   &locationID,
			Notes:        req.Notes,
		}
		if err := s.histories.Create(txCtx, entry); err != nil {
			return fmt.Errorf("failed to write history: %w", err)
		}

		updated, err = s.assets.FindByID(txCtx, aid)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, "asset.status_changed", map[string]interface{}{
		"asset_id": aid.String(),
		"status":   model.StatusBorrowed,
		"action":   model.ActionAssign,
	})
	return updated, nil
}

// Return releases custody. The history row always records the employee being
// displaced, captured before the custody fields are cleared.
func (s *lifecycleService) Return(ctx context.Context, actorID, assetID string, req ReturnRequest) (*model.Asset, error) {
	aid, err := uuid.Parse(assetID)
	if err != nil {
		return nil, apperr.Validationf("invalid asset id: %v", err)
	}

	var updated *model.Asset
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		asset, err := s.findAsset(txCtx, aid)
		if err != nil {
			return err
		}
		if asset.Status != model.StatusBorrowed {
			return apperr.Conflictf("cannot return: asset %s is %s", displayTag(asset), asset.Status)
		}

		displaced := asset.EmployeeID

		fields := map[string]interface{}{
			"status":      model.StatusAvailable,
			"employee_id": nil,
			"loan_type":   nil,
			"due_date":    nil,
			"condition":   req.Condition,
		}
		ok, err := s.assets.TransitionStatus(txCtx, aid, model.StatusBorrowed, fields)
		if err != nil {
			return err
		}
		if !ok {
			return s.conflict(txCtx, aid, "cannot return")
		}

		entry := &model.AssetHistory{
			AssetID:      aid,
			UserID:       parseActor(actorID),
			EmployeeID:   displaced,
			Action:       model.ActionReturn,
			StatusBefore: model.StatusBorrowed,
			StatusAfter:  model.StatusAvailable,
			Condition:    req.Condition,
			LocationID:   &asset.LocationID,
			Notes:        req.Notes,
		}
		if err := s.histories.Create(txCtx, entry); err != nil {
			return fmt.Errorf("failed to write history: %w", err)
		}

		if displaced != nil {
			if err := s.loans.MarkReturned(txCtx, aid, *displaced); err != nil {
				return fmt.Errorf("failed to close loan request: %w", err)
			}
		}

		updated, err = s.assets.FindByID(txCtx, aid)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, "asset.status_changed", map[string]interface{}{
		"asset_id": aid.String(),
		"status":   model.StatusAvailable,
		"action":   model.ActionReturn,
	})
	return updated, nil
}

// SendRepair pulls an asset out of circulation. Custody is cleared; the
// transition is legal from any status except MAINTENANCE itself.
func (s *lifecycleService) SendRepair(ctx context.Context, actorID, assetID string, req RepairRequest) (*model.Asset, error) {
	aid, err := uuid.Parse(assetID)
	if err != nil {
		return nil, apperr.Validationf("invalid asset id: %v", err)
	}

	var updated *model.Asset
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		asset, err := s.findAsset(txCtx, aid)
		if err != nil {
			return err
		}
		if asset.Status == model.StatusMaintenance {
			return apperr.Conflictf("asset %s is already in maintenance", displayTag(asset))
		}

		statusBefore := asset.Status
		fields := map[string]interface{}{
			"status":      model.StatusMaintenance,
			"employee_id": nil,
			"loan_type":   nil,
			"due_date":    nil,
		}
		// The guard re-checks the status read above so a concurrent
		// transition cannot be silently overwritten.
		ok, err := s.assets.TransitionStatus(txCtx, aid, statusBefore, fields)
		if err != nil {
			return err
		}
		if !ok {
			return s.conflict(txCtx, aid, "cannot send to repair")
		}

		entry := &model.AssetHistory{
			AssetID:      aid,
			UserID:       parseActor(actorID),
			EmployeeID:   asset.EmployeeID,
			Action:       model.ActionSendRepair,
			StatusBefore: statusBefore,
			StatusAfter:  model.StatusMaintenance,
			Condition:    asset.Condition,
			LocationID:   &asset.LocationID,
			Notes:        req.Notes,
		}
		if err := s.histories.Create(txCtx, entry); err != nil {
			return fmt.Errorf("failed to write history: %w", err)
		}

		updated, err = s.assets.FindByID(txCtx, aid)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, "asset.status_changed", map[string]interface{}{
		"asset_id": aid.String(),
		"status":   model.StatusMaintenance,
		"action":   model.ActionSendRepair,
	})
	return updated, nil
}

// FinishRepair brings a MAINTENANCE asset back to AVAILABLE, provided no open
// maintenance record remains.
func (s *lifecycleService) FinishRepair(ctx context.Context, actorID, assetID string, req RepairRequest) (*model.Asset, error) {
	aid, err := uuid.Parse(assetID)
	if err != nil {
		return nil, apperr.Validationf("invalid asset id: %v", err)
	}

	var updated *model.Asset
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		asset, err := s.findAsset(txCtx, aid)
		if err != nil {
			return err
		}
		if asset.Status != model.StatusMaintenance {
			return apperr.Conflictf("cannot finish repair: asset %s is %s", displayTag(asset), asset.Status)
		}

		open, err := s.maintenances.CountOpenByAsset(txCtx, aid, nil)
		if err != nil {
			return err
		}
		if open > 0 {
			return apperr.Conflictf("asset %s still has %d open maintenance record(s)", displayTag(asset), open)
		}

		ok, err := s.assets.TransitionStatus(txCtx, aid, model.StatusMaintenance, map[string]interface{}{
			"status": model.StatusAvailable,
		})
		if err != nil {
			return err
		}
		if !ok {
			return s.conflict(txCtx, aid, "cannot finish repair")
		}

		entry := &model.AssetHistory{
			AssetID:      aid,
			UserID:       parseActor(actorID),
			Action:       model.ActionFinishRepair,
			StatusBefore: model.StatusMaintenance,
			StatusAfter:  model.StatusAvailable,
			Condition:    asset.Condition,
			LocationID:   &asset.LocationID,
			Notes:        req.Notes,
		}
		if err := s.histories.Create(txCtx, entry); err != nil {
			return fmt.Errorf("failed to write history: %w", err)
		}

		updated, err = s.assets.FindByID(txCtx, aid)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, "asset.status_changed", map[string]interface{}{
		"asset_id": aid.String(),
		"status":   model.StatusAvailable,
		"action":   model.ActionFinishRepair,
	})
	return updated, nil
}

// Relocate moves an asset between locations without touching its status.
func (s *lifecycleService) Relocate(ctx context.Context, actorID, assetID string, req RelocateRequest) (*model.Asset, error) {
	aid, err := uuid.Parse(assetID)
	if err != nil {
		return nil, apperr.Validationf("invalid asset id: %v", err)
	}
	lid, err := uuid.Parse(req.LocationID)
	if err != nil {
		return nil, apperr.Validationf("invalid location id: %v", err)
	}

	var updated *model.Asset
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		asset, err := s.findAsset(txCtx, aid)
		if err != nil {
			return err
		}
		if _, err := s.locations.FindByID(txCtx, lid); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("location %s does not exist", lid)
			}
			return err
		}

		if err := s.assets.UpdateFields(txCtx, aid, map[string]interface{}{"location_id": lid}); err != nil {
			return err
		}

		entry := &model.AssetHistory{
			AssetID:      aid,
			UserID:       parseActor(actorID),
			EmployeeID:   asset.EmployeeID,
			Action:       model.ActionRelocate,
			StatusBefore: asset.Status,
			StatusAfter:  asset.Status,
			Condition:    asset.Condition,
			LocationID:   &lid,
			Notes:        req.Notes,
		}
		if err := s.histories.Create(txCtx, entry); err != nil {
			return fmt.Errorf("failed to write history: %w", err)
		}

		updated, err = s.assets.FindByID(txCtx, aid)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// --- helpers ---

func (s *lifecycleService) findAsset(ctx context.Context, id uuid.UUID) (*model.Asset, error) {
	asset, err := s.assets.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("asset %s does not exist", id)
		}
		return nil, err
	}
	return asset, nil
}

// conflict re-reads the asset so the error names the current status and
// holder; the failed guard means somebody else won the race.
func (s *lifecycleService) conflict(ctx context.Context, id uuid.UUID, action string) error {
	asset, err := s.assets.FindByID(ctx, id)
	if err != nil {
		return apperr.Conflictf("%s: asset state changed concurrently", action)
	}
	if asset.EmployeeID != nil {
		return apperr.Conflictf("%s: asset %s is %s (held by employee %s)",
			action, displayTag(asset), asset.Status, asset.EmployeeID)
	}
	return apperr.Conflictf("%s: asset %s is %s", action, displayTag(asset), asset.Status)
}

func displayTag(asset *model.Asset) string {
	if asset.AssetTag != nil && *asset.AssetTag != "" {
		return *asset.AssetTag
	}
	return asset.ID.String()
}
