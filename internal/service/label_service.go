package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"assettrack/internal/apperr"
	"assettrack/internal/model"
	"assettrack/internal/repository"

	"github.com/go-pdf/fpdf"
	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"
	"gorm.io/gorm"
)

// Sticker geometry in millimeters. Three labels per A4 row, cut lines between.
const (
	labelWidth   = 60.0
	labelHeight  = 30.0
	labelMargin  = 6.0
	qrSizeMM     = 20.0
	labelsPerRow = 3
	qrPixels     = 256
)

// LabelService renders printable sticker PDFs. Each sticker carries the asset
// tag and a QR code resolving to the public scan page.
type LabelService interface {
	Single(ctx context.Context, assetID string) (*bytes.Buffer, error)
	Batch(ctx context.Context, assetIDs []string) (*bytes.Buffer, error)
}

type labelService struct {
	assets  repository.AssetRepository
	baseURL string // Public frontend origin the QR codes point at
}

func NewLabelService(assets repository.AssetRepository, baseURL string) LabelService {
	return &labelService{assets: assets, baseURL: baseURL}
}

func (s *labelService) Single(ctx context.Context, assetID string) (*bytes.Buffer, error) {
	aid, err := uuid.Parse(assetID)
	if err != nil {
		return nil, apperr.Validationf("invalid asset id: %v", err)
	}
	asset, err := s.assets.FindByID(ctx, aid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("asset %s does not exist", assetID)
		}
		return nil, err
	}
	return s.render([]model.Asset{*asset})
}

func (s *labelService) Batch(ctx context.Context, assetIDs []string) (*bytes.Buffer, error) {
	if len(assetIDs) == 0 {
		return nil, apperr.Validationf("asset_ids is required")
	}
	ids := make([]uuid.UUID, 0, len(assetIDs))
	for _, raw := range assetIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, apperr.Validationf("invalid asset id %q: %v", raw, err)
		}
		ids = append(ids, id)
	}

	assets, err := s.assets.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(assets) == 0 {
		return nil, apperr.NotFoundf("none of the requested assets exist")
	}
	return s.render(assets)
}

func (s *labelService) render(assets []model.Asset) (*bytes.Buffer, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	x, y := labelMargin, labelMargin
	col := 0

	for i := range assets {
		asset := &assets[i]
		tag := ""
		if asset.AssetTag != nil {
			tag = *asset.AssetTag
		}
		if tag == "" {
			// Untagged assets have no scan URL, nothing to print.
			continue
		}

		scanURL := fmt.Sprintf("%s/scan/%s", s.baseURL, tag)
		png, err := qrcode.Encode(scanURL, qrcode.Medium, qrPixels)
		if err != nil {
			return nil, fmt.Errorf("qr encode for %s: %w", tag, err)
		}

		imgName := "qr-" + tag
		pdf.RegisterImageOptionsReader(imgName,
			fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(png))

		pdf.Rect(x, y, labelWidth, labelHeight, "D")
		pdf.ImageOptions(imgName, x+2, y+(labelHeight-qrSizeMM)/2, qrSizeMM, qrSizeMM,
			false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

		textX := x + qrSizeMM + 4
		pdf.SetFont("Helvetica", "B", 9)
		pdf.Text(textX, y+8, tag)
		pdf.SetFont("Helvetica", "", 7)
		pdf.Text(textX, y+14, truncate(asset.Name, 18))
		pdf.Text(textX, y+20, truncate(asset.SerialNumber, 18))

		col++
		if col >= labelsPerRow {
			col = 0
			x = labelMargin
			y += labelHeight + labelMargin
			if y+labelHeight > 292 {
				pdf.AddPage()
				y = labelMargin
			}
		} else {
			x += labelWidth + labelMargin
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return &buf, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}
