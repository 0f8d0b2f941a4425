package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"assettrack/internal/repository"

	"github.com/xuri/excelize/v2"
)

// ExportService produces xlsx downloads for the asset registry and the
// maintenance report.
type ExportService interface {
	AssetsXLSX(ctx context.Context, filter repository.AssetFilter) (*bytes.Buffer, error)
	MaintenanceXLSX(ctx context.Context, search, status string) (*bytes.Buffer, error)
}

type exportService struct {
	assets       repository.AssetRepository
	maintenances repository.MaintenanceRepository
}

func NewExportService(assets repository.AssetRepository, maintenances repository.MaintenanceRepository) ExportService {
	return &exportService{assets: assets, maintenances: maintenances}
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func (s *exportService) AssetsXLSX(ctx context.Context, filter repository.AssetFilter) (*bytes.Buffer, error) {
	filter.Page = 1
	filter.Limit = 100000 // Export is unpaginated
	assets, _, err := s.assets.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Assets"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{
		"Asset Tag", "Serial Number", "Name", "Brand", "Model", "Category",
		"Location", "Status", "Condition", "Holder", "Purchase Year",
		"Warranty Expiry", "Last Audit", "CPU", "RAM", "Storage", "OS",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	now := time.Now()
	for row, a := range assets {
		tag := ""
		if a.AssetTag != nil {
			tag = *a.AssetTag
		}
		category := ""
		if a.Category != nil {
			category = a.Category.Name
		}
		location := ""
		if a.Location != nil {
			location = fmt.Sprintf("%s / %s", a.Location.Building, a.Location.Name)
		}
		holder := ""
		if a.Employee != nil {
			holder = a.Employee.Name
		}
		purchaseYear := ""
		if a.PurchaseYear != nil {
			purchaseYear = fmt.Sprintf("%d", *a.PurchaseYear)
		}
		expiry := ""
		if y := a.ExpiryYear(); y != nil {
			expiry = fmt.Sprintf("%d", *y)
			if !a.IsActive(now) {
				expiry += " (expired)"
			}
		}

		values := []interface{}{
			tag, a.SerialNumber, a.Name, a.Brand, a.Model, category,
			location, a.Status, a.Condition, holder, purchaseYear,
			expiry, formatDate(a.LastAuditDate),
			a.HardwareSpecs.CPU, a.HardwareSpecs.RAM,
			a.HardwareSpecs.Storage, a.HardwareSpecs.OS,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf, nil
}

func (s *exportService) MaintenanceXLSX(ctx context.Context, search, status string) (*bytes.Buffer, error) {
	records, err := s.maintenances.ListAll(ctx, search, status)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Maintenance"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{
		"Asset Tag", "Asset Name", "Vendor", "Description", "Cost",
		"Status", "Scheduled", "Completed",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	for row, m := range records {
		tag, name := "", ""
		if m.Asset != nil {
			name = m.Asset.Name
			if m.Asset.AssetTag != nil {
				tag = *m.Asset.AssetTag
			}
		}
		values := []interface{}{
			tag, name, m.VendorName, m.Description,
			m.Cost.StringFixed(2), m.Status,
			m.ScheduledAt.Format("2006-01-02"), formatDate(m.CompletedAt),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf, nil
}
