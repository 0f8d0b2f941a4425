package glpi

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"assettrack/internal/apperr"

	"gorm.io/gorm"
)

// SpecsRecord is the flat record returned by a lookup. Absence of a computer
// is signalled with apperr.ErrNotFound, not an adapter failure.
type SpecsRecord struct {
	Manufacturer string `json:"manufacturer"`
	Model        string `json:"model"`
	CPU          string `json:"cpu"`
	RAM          string `json:"ram"`
	Storage      string `json:"storage"`
	OS           string `json:"os"`
	UUID         string `json:"uuid"`
	OtherSerial  string `json:"otherserial"`
}

// Service resolves hardware specifications from the GLPI database.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

const itemTypeComputer = "Computer"

func (s *Service) withRelations(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Preload("Manufacturer").
		Preload("Model").
		Preload("CPUItems", "itemtype = ?", itemTypeComputer).
		Preload("MemoryItems", "itemtype = ?", itemTypeComputer).
		Preload("DiskItems", "itemtype = ?", itemTypeComputer).
		Preload("OSItems", "itemtype = ?", itemTypeComputer).
		Preload("OSItems.OperatingSystem")
}

// Lookup finds an active computer by serial number and resolves its specs.
func (s *Service) Lookup(ctx context.Context, serialNumber string) (*SpecsRecord, error) {
	var comp Computer
	err := s.withRelations(ctx).
		Where("serial = ? AND is_deleted = ?", serialNumber, false).
		First(&comp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("serial number %s not found in GLPI", serialNumber)
		}
		return nil, apperr.Unavailablef("GLPI lookup failed: %v", err)
	}

	record := Resolve(&comp)
	return &record, nil
}

// ListActive returns every non-deleted computer with relations loaded, for
// the bulk sync path.
func (s *Service) ListActive(ctx context.Context) ([]Computer, error) {
	var computers []Computer
	err := s.withRelations(ctx).
		Where("is_deleted = ?", false).
		Find(&computers).Error
	if err != nil {
		return nil, apperr.Unavailablef("GLPI listing failed: %v", err)
	}
	return computers, nil
}

// Resolve flattens a loaded computer into a SpecsRecord using the field
// resolution rules shared by single lookup and bulk sync.
func Resolve(comp *Computer) SpecsRecord {
	record := SpecsRecord{
		Manufacturer: "Unknown",
		Model:        "Unknown",
		CPU:          resolveCPU(comp),
		RAM:          resolveRAM(comp),
		Storage:      resolveStorage(comp),
		OS:           resolveOS(comp),
		UUID:         comp.UUID,
		OtherSerial:  strings.TrimSpace(comp.OtherSerial),
	}
	if comp.Manufacturer != nil && comp.Manufacturer.Name != "" {
		record.Manufacturer = comp.Manufacturer.Name
	}
	if comp.Model != nil && comp.Model.Name != "" {
		record.Model = comp.Model.Name
	}
	return record
}

func resolveCPU(comp *Computer) string {
	if len(comp.CPUItems) == 0 {
		return "Unknown Processor"
	}
	first := comp.CPUItems[0]
	cpu := first.Designation
	if cpu == "" {
		cpu = "Unknown CPU"
	}
	if first.Frequency > 0 {
		cpu += fmt.Sprintf(" @ %d Mhz", first.Frequency)
	}
	return cpu
}

// resolveRAM sums capacity across memory units, falling back to the aggregate
// column when no itemized units exist. Always expressed in MB.
func resolveRAM(comp *Computer) string {
	total := 0
	for _, m := range comp.MemoryItems {
		total += m.Size
	}
	if total > 0 {
		return fmt.Sprintf("%d MB", total)
	}
	if comp.Memory != nil {
		return fmt.Sprintf("%d MB", *comp.Memory)
	}
	return "0 MB"
}

// resolveStorage joins "designation (capacity)" per unit, re-expressing the
// capacity in GB when it exceeds 1000 MB.
func resolveStorage(comp *Computer) string {
	if len(comp.DiskItems) == 0 {
		return "No Storage"
	}
	parts := make([]string, 0, len(comp.DiskItems))
	for _, d := range comp.DiskItems {
		name := d.Designation
		if name == "" {
			name = "Disk"
		}
		var capacity string
		if d.Capacity > 1000 {
			capacity = fmt.Sprintf("%d GB", int(math.Round(float64(d.Capacity)/1024)))
		} else {
			capacity = fmt.Sprintf("%d MB", d.Capacity)
		}
		parts = append(parts, fmt.Sprintf("%s (%s)", name, capacity))
	}
	return strings.Join(parts, ", ")
}

// resolveOS falls through two levels of the possibly-missing OS relation
// before defaulting to "Unknown OS".
func resolveOS(comp *Computer) string {
	if len(comp.OSItems) == 0 {
		return "Unknown OS"
	}
	item := comp.OSItems[0]
	if item.OperatingSystem != nil && item.OperatingSystem.Name != "" {
		return item.OperatingSystem.Name
	}
	if item.Name != "" {
		return item.Name
	}
	return "Unknown OS"
}
