package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"assettrack/internal/glpi"
	"assettrack/internal/model"
	"assettrack/internal/repository"

	"gorm.io/gorm"
)

// Placeholders attached to assets discovered by sync before anyone files them
// properly.
const (
	defaultCategoryName = "Uncategorized"
	defaultCategoryCode = "UNCAT"
	defaultLocationName = "Unknown Location"
	defaultBuilding     = "N-A"
)

// SyncResult summarizes one bulk sync run.
type SyncResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}

type SyncService interface {
	SyncAll(ctx context.Context, actorID string) (*SyncResult, error)
}

type syncService struct {
	assets     repository.AssetRepository
	categories repository.CategoryRepository
	locations  repository.LocationRepository
	activities repository.ActivityRepository
	glpi       *glpi.Service
	txManager  repository.TransactionManager
}

func NewSyncService(
	assets repository.AssetRepository,
	categories repository.CategoryRepository,
	locations repository.LocationRepository,
	activities repository.ActivityRepository,
	glpiSvc *glpi.Service,
	txManager repository.TransactionManager,
) SyncService {
	return &syncService{
		assets:     assets,
		categories: categories,
		locations:  locations,
		activities: activities,
		glpi:       glpiSvc,
		txManager:  txManager,
	}
}

// SyncAll walks every active GLPI computer and upserts it by serial number.
// Technical fields (name, brand, model, hardware specs, last_seen_at) are
// always overwritten from GLPI; category, location and the asset tag are only
// set when the asset is first created so manual filing survives re-syncs.
func (s *syncService) SyncAll(ctx context.Context, actorID string) (*SyncResult, error) {
	computers, err := s.glpi.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	log.Printf("glpi sync: %d active computers to process", len(computers))

	result := &SyncResult{}
	for i := range computers {
		comp := &computers[i]
		serial := strings.TrimSpace(comp.Serial)
		if serial == "" {
			result.Skipped++
			continue
		}

		if err := s.syncOne(ctx, comp, serial, result); err != nil {
			return nil, fmt.Errorf("sync of serial %s failed: %w", serial, err)
		}
	}

	log.Printf("glpi sync done: created=%d updated=%d skipped=%d",
		result.Created, result.Updated, result.Skipped)

	_ = s.activities.Log(ctx, &model.ActivityLog{
		UserID: parseActor(actorID),
		Action: model.ActivityGlpiSync,
		Details: fmt.Sprintf(`{"created":%d,"updated":%d,"skipped":%d}`,
			result.Created, result.Updated, result.Skipped),
	})
	return result, nil
}

func (s *syncService) syncOne(ctx context.Context, comp *glpi.Computer, serial string, result *SyncResult) error {
	record := glpi.Resolve(comp)
	now := time.Now()
	specs := model.HardwareSpecs{
		CPU:     record.CPU,
		RAM:     record.RAM,
		Storage: record.Storage,
		OS:      record.OS,
		UUID:    record.UUID,
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		existing, err := s.assets.FindBySerial(txCtx, serial)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if existing != nil {
			fields := map[string]interface{}{
				"name":           comp.Name,
				"brand":          record.Manufacturer,
				"model":          record.Model,
				"hardware_specs": specs,
				"last_seen_at":   now,
			}
			if existing.AssetTag == nil && record.OtherSerial != "" {
				if _, err := s.assets.FindByTag(txCtx, record.OtherSerial); errors.Is(err, gorm.ErrRecordNotFound) {
					fields["asset_tag"] = record.OtherSerial
				}
			}
			if err := s.assets.UpdateFields(txCtx, existing.ID, fields); err != nil {
				return err
			}
			result.Updated++
			return nil
		}

		category, err := s.categories.FirstOrCreate(txCtx, defaultCategoryName, defaultCategoryCode)
		if err != nil {
			return err
		}
		location, err := s.locations.FirstOrCreate(txCtx, defaultLocationName, defaultBuilding)
		if err != nil {
			return err
		}

		asset := &model.Asset{
			SerialNumber:  serial,
			Name:          comp.Name,
			Brand:         record.Manufacturer,
			Model:         record.Model,
			CategoryID:    category.ID,
			LocationID:    location.ID,
			Status:        model.StatusAvailable,
			Condition:     model.ConditionGood,
			HardwareSpecs: specs,
			LastSeenAt:    &now,
		}
		if record.OtherSerial != "" {
			// A tag claimed by another device is left empty rather than
			// failing the whole run.
			_, err := s.assets.FindByTag(txCtx, record.OtherSerial)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				tag := record.OtherSerial
				asset.AssetTag = &tag
			} else if err != nil {
				return err
			}
		}

		if err := s.assets.Create(txCtx, asset); err != nil {
			return err
		}
		result.Created++
		return nil
	})
}
