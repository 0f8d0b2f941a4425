package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"assettrack/internal/apperr"
	"assettrack/internal/glpi"
	"assettrack/internal/model"
	"assettrack/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	tagPrefix       = "AST"
	tagSeqWidth     = 5
	tagMaxAttempts  = 5
	defaultPageSize = 20
)

type CreateAssetRequest struct {
	AssetTag     *string `json:"asset_tag"` // Generated when absent
	SerialNumber string  `json:"serial_number" binding:"required"`
	Name         string  `json:"name" binding:"required"`
	Brand        string  `json:"brand"`
	Model        string  `json:"model"`
	Vendor       string  `json:"vendor"`
	PurchaseYear *int    `json:"purchase_year"`
	Period       *int    `json:"period"`
	CategoryID   string  `json:"category_id" binding:"required,uuid"`
	LocationID   string  `json:"location_id" binding:"required,uuid"`
	Condition    string  `json:"condition" binding:"omitempty,oneof=GOOD BAD BROKEN"`
	ManualLink   string  `json:"manual_link"`
}

type UpdateAssetRequest struct {
	Name         *string `json:"name"`
	Brand        *string `json:"brand"`
	Model        *string `json:"model"`
	Vendor       *string `json:"vendor"`
	PurchaseYear *int    `json:"purchase_year"`
	Period       *int    `json:"period"`
	CategoryID   *string `json:"category_id" binding:"omitempty,uuid"`
	LocationID   *string `json:"location_id" binding:"omitempty,uuid"`
	Condition    *string `json:"condition" binding:"omitempty,oneof=GOOD BAD BROKEN"`
	ManualLink   *string `json:"manual_link"`
}

// AssetView decorates an asset with its derived warranty fields.
type AssetView struct {
	model.Asset
	ExpiryYear   *int `json:"expiry_year"`
	Active       bool `json:"is_active"`
	AuditOverdue bool `json:"is_audit_overdue"`
}

func newAssetView(asset model.Asset, now time.Time) AssetView {
	return AssetView{
		Asset:        asset,
		ExpiryYear:   asset.ExpiryYear(),
		Active:       asset.IsActive(now),
		AuditOverdue: asset.IsAuditOverdue(now),
	}
}

type AssetListResult struct {
	Assets []AssetView      `json:"assets"`
	Total  int64            `json:"total"`
	Counts map[string]int64 `json:"status_counts"`
}

type AssetService interface {
	Create(ctx context.Context, actorID string, req CreateAssetRequest) (*AssetView, error)
	Get(ctx context.Context, id string) (*AssetView, error)
	GetByTag(ctx context.Context, tag string) (*AssetView, error)
	List(ctx context.Context, filter repository.AssetFilter) (*AssetListResult, error)
	Update(ctx context.Context, actorID, id string, req UpdateAssetRequest) (*AssetView, error)
	Delete(ctx context.Context, actorID, id string) error
	History(ctx context.Context, id string, limit int) ([]model.AssetHistory, error)
	LookupSpecs(ctx context.Context, serialNumber string) (*glpi.SpecsRecord, error)
}

type assetService struct {
	assets     repository.AssetRepository
	histories  repository.HistoryRepository
	categories repository.CategoryRepository
	locations  repository.LocationRepository
	activities repository.ActivityRepository
	glpi       *glpi.Service
	txManager  repository.TransactionManager
}

func NewAssetService(
	assets repository.AssetRepository,
	histories repository.HistoryRepository,
	categories repository.CategoryRepository,
	locations repository.LocationRepository,
	activities repository.ActivityRepository,
	glpiSvc *glpi.Service,
	txManager repository.TransactionManager,
) AssetService {
	return &assetService{
		assets:     assets,
		histories:  histories,
		categories: categories,
		locations:  locations,
		activities: activities,
		glpi:       glpiSvc,
		txManager:  txManager,
	}
}

// Create registers an asset. New assets always enter the registry AVAILABLE;
// custody and status are changed through lifecycle transitions only.
func (s *assetService) Create(ctx context.Context, actorID string, req CreateAssetRequest) (*AssetView, error) {
	categoryID, err := uuid.Parse(req.CategoryID)
	if err != nil {
		return nil, apperr.Validationf("invalid category id: %v", err)
	}
	locationID, err := uuid.Parse(req.LocationID)
	if err != nil {
		return nil, apperr.Validationf("invalid location id: %v", err)
	}

	condition := req.Condition
	if condition == "" {
		condition = model.ConditionGood
	}

	asset := &model.Asset{
		SerialNumber: strings.TrimSpace(req.SerialNumber),
		Name:         req.Name,
		Brand:        req.Brand,
		Model:        req.Model,
		Vendor:       req.Vendor,
		PurchaseYear: req.PurchaseYear,
		Period:       req.Period,
		CategoryID:   categoryID,
		LocationID:   locationID,
		Status:       model.StatusAvailable,
		Condition:    condition,
		ManualLink:   req.ManualLink,
	}
	if req.AssetTag != nil && strings.TrimSpace(*req.AssetTag) != "" {
		tag := strings.TrimSpace(*req.AssetTag)
		asset.AssetTag = &tag
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.categories.FindByID(txCtx, categoryID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("category %s does not exist", categoryID)
			}
			return err
		}
		if _, err := s.locations.FindByID(txCtx, locationID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("location %s does not exist", locationID)
			}
			return err
		}

		if asset.AssetTag == nil {
			return s.createWithGeneratedTag(txCtx, asset)
		}
		if err := s.assets.Create(txCtx, asset); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperr.Conflictf("asset tag or serial number already exists")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logActivity(ctx, actorID, model.ActivityCreateAsset, asset.ID.String(), asset.Name, map[string]interface{}{
		"asset_tag":     asset.AssetTag,
		"serial_number": asset.SerialNumber,
	})

	view := newAssetView(*asset, time.Now())
	return &view, nil
}

// createWithGeneratedTag allocates the next AST-<year>-NNNNN tag and inserts.
// Two writers can race to the same sequence number; the unique index rejects
// the loser, which re-reads the max and tries again. Each insert attempt runs
// in a savepoint so the failed statement rolls back alone — on postgres a
// constraint violation would otherwise abort the enclosing transaction and
// poison every retry.
func (s *assetService) createWithGeneratedTag(ctx context.Context, asset *model.Asset) error {
	if existing, err := s.assets.FindBySerial(ctx, asset.SerialNumber); err == nil && existing != nil {
		return apperr.Conflictf("serial number %s already registered", asset.SerialNumber)
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	prefix := fmt.Sprintf("%s-%d-", tagPrefix, time.Now().Year())

	for attempt := 0; attempt < tagMaxAttempts; attempt++ {
		maxTag, err := s.assets.MaxTagWithPrefix(ctx, prefix)
		if err != nil {
			return err
		}
		next := 1
		if maxTag != "" {
			if seq, err := strconv.Atoi(strings.TrimPrefix(maxTag, prefix)); err == nil {
				next = seq + 1
			}
		}
		tag := fmt.Sprintf("%s%0*d", prefix, tagSeqWidth, next)
		asset.AssetTag = &tag

		err = s.txManager.RunInSavepoint(ctx, func(spCtx context.Context) error {
			return s.assets.Create(spCtx, asset)
		})
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}
		// The savepoint rolled back, the outer transaction is still usable.
		// A serial racing in since the pre-check is not retryable; a tag
		// collision is.
		if existing, findErr := s.assets.FindBySerial(ctx, asset.SerialNumber); findErr == nil && existing != nil {
			return apperr.Conflictf("serial number %s already registered", asset.SerialNumber)
		}
		asset.ID = uuid.Nil
	}
	return apperr.Conflictf("could not allocate a unique asset tag after %d attempts", tagMaxAttempts)
}

func (s *assetService) Get(ctx context.Context, id string) (*AssetView, error) {
	aid, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.Validationf("invalid asset id: %v", err)
	}
	asset, err := s.assets.FindByIDWithRelations(ctx, aid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("asset %s does not exist", id)
		}
		return nil, err
	}
	view := newAssetView(*asset, time.Now())
	return &view, nil
}

func (s *assetService) GetByTag(ctx context.Context, tag string) (*AssetView, error) {
	asset, err := s.assets.FindByTag(ctx, tag)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("asset with tag %s does not exist", tag)
		}
		return nil, err
	}
	view := newAssetView(*asset, time.Now())
	return &view, nil
}

func (s *assetService) List(ctx context.Context, filter repository.AssetFilter) (*AssetListResult, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = defaultPageSize
	}

	assets, total, err := s.assets.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	views := make([]AssetView, 0, len(assets))
	for _, a := range assets {
		views = append(views, newAssetView(a, now))
	}

	counts := make(map[string]int64, 5)
	for _, status := range []string{
		model.StatusAvailable, model.StatusBorrowed, model.StatusMaintenance,
		model.StatusLost, model.StatusDisposed,
	} {
		n, err := s.assets.CountByStatus(ctx, status)
		if err != nil {
			return nil, err
		}
		counts[status] = n
	}

	return &AssetListResult{Assets: views, Total: total, Counts: counts}, nil
}

// Update changes descriptive and classification fields. The asset tag is
// immutable and status/custody belong to the lifecycle engine, so neither is
// accepted here.
func (s *assetService) Update(ctx context.Context, actorID, id string, req UpdateAssetRequest) (*AssetView, error) {
	aid, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.Validationf("invalid asset id: %v", err)
	}

	fields := map[string]interface{}{}
	if req.Name != nil {
		fields["name"] = *req.Name
	}
	if req.Brand != nil {
		fields["brand"] = *req.Brand
	}
	if req.Model != nil {
		fields["model"] = *req.Model
	}
	if req.Vendor != nil {
		fields["vendor"] = *req.Vendor
	}
	if req.PurchaseYear != nil {
		fields["purchase_year"] = *req.PurchaseYear
	}
	if req.Period != nil {
		fields["period"] = *req.Period
	}
	if req.Condition != nil {
		fields["condition"] = *req.Condition
	}
	if req.ManualLink != nil {
		fields["manual_link"] = *req.ManualLink
	}

	var updated *model.Asset
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.assets.FindByID(txCtx, aid); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("asset %s does not exist", id)
			}
			return err
		}

		if req.CategoryID != nil {
			cid, err := uuid.Parse(*req.CategoryID)
			if err != nil {
				return apperr.Validationf("invalid category id: %v", err)
			}
			if _, err := s.categories.FindByID(txCtx, cid); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperr.NotFoundf("category %s does not exist", cid)
				}
				return err
			}
			fields["category_id"] = cid
		}
		if req.LocationID != nil {
			lid, err := uuid.Parse(*req.LocationID)
			if err != nil {
				return apperr.Validationf("invalid location id: %v", err)
			}
			if _, err := s.locations.FindByID(txCtx, lid); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperr.NotFoundf("location %s does not exist", lid)
				}
				return err
			}
			fields["location_id"] = lid
		}

		if len(fields) == 0 {
			return nil
		}
		if err := s.assets.UpdateFields(txCtx, aid, fields); err != nil {
			return err
		}

		var err error
		updated, err = s.assets.FindByID(txCtx, aid)
		return err
	})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return s.Get(ctx, id)
	}

	s.logActivity(ctx, actorID, model.ActivityUpdateAsset, updated.ID.String(), updated.Name, fields)

	view := newAssetView(*updated, time.Now())
	return &view, nil
}

// Delete soft-deletes an asset. Anything with a history trail, loan requests
// or maintenance records is refused; the trail must outlive the asset.
func (s *assetService) Delete(ctx context.Context, actorID, id string) error {
	aid, err := uuid.Parse(id)
	if err != nil {
		return apperr.Validationf("invalid asset id: %v", err)
	}

	var name string
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		asset, err := s.assets.FindByID(txCtx, aid)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("asset %s does not exist", id)
			}
			return err
		}
		name = asset.Name

		if asset.Status == model.StatusBorrowed {
			return apperr.Conflictf("cannot delete: asset %s is currently borrowed", displayTag(asset))
		}

		dependents, err := s.assets.HasDependents(txCtx, aid)
		if err != nil {
			return err
		}
		if dependents {
			return apperr.Conflictf("cannot delete: asset %s has history, loan or maintenance records", displayTag(asset))
		}

		return s.assets.Delete(txCtx, aid)
	})
	if err != nil {
		return err
	}

	s.logActivity(ctx, actorID, model.ActivityDeleteAsset, id, name, nil)
	return nil
}

// History returns the newest lifecycle entries for an asset.
func (s *assetService) History(ctx context.Context, id string, limit int) ([]model.AssetHistory, error) {
	aid, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.Validationf("invalid asset id: %v", err)
	}
	if limit < 1 {
		limit = 50
	}
	if _, err := s.assets.FindByID(ctx, aid); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("asset %s does not exist", id)
		}
		return nil, err
	}
	return s.histories.ListByAsset(ctx, aid, limit)
}

// LookupSpecs resolves hardware specifications for a serial number from GLPI.
// Read-only; the asset record is never touched here.
func (s *assetService) LookupSpecs(ctx context.Context, serialNumber string) (*glpi.SpecsRecord, error) {
	serial := strings.TrimSpace(serialNumber)
	if serial == "" {
		return nil, apperr.Validationf("serial number is required")
	}
	return s.glpi.Lookup(ctx, serial)
}

func (s *assetService) logActivity(ctx context.Context, actorID, action, entityID, entityName string, details map[string]interface{}) {
	payload := "{}"
	if details != nil {
		if raw, err := json.Marshal(details); err == nil {
			payload = string(raw)
		}
	}
	// Activity logging is best-effort and never fails the mutation.
	_ = s.activities.Log(ctx, &model.ActivityLog{
		UserID:     parseActor(actorID),
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    payload,
	})
}
