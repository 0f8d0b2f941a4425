package repository

import (
	"context"

	"assettrack/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LoanRequestRepository interface {
	Create(ctx context.Context, req *model.LoanRequest) error
	Update(ctx context.Context, req *model.LoanRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.LoanRequest, error)
	FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.LoanRequest, error)
	List(ctx context.Context, status string, page, limit int) ([]model.LoanRequest, int64, error)
	CountByStatus(ctx context.Context, status string) (int64, error)
	CountByAsset(ctx context.Context, assetID uuid.UUID) (int64, error)
	MarkReturned(ctx context.Context, assetID, employeeID uuid.UUID) error
}

type loanRequestRepository struct {
	db *gorm.DB
}

func NewLoanRequestRepository(db *gorm.DB) LoanRequestRepository {
	return &loanRequestRepository{db: db}
}

func (r *loanRequestRepository) Create(ctx context.Context, req *model.LoanRequest) error {
	return GetDB(ctx, r.db).Create(req).Error
}

func (r *loanRequestRepository) Update(ctx context.Context, req *model.LoanRequest) error {
	return GetDB(ctx, r.db).Save(req).Error
}

func (r *loanRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.LoanRequest, error) {
	var req model.LoanRequest
	if err := GetDB(ctx, r.db).First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *loanRequestRepository) FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.LoanRequest, error) {
	var req model.LoanRequest
	err := GetDB(ctx, r.db).
		Preload("Asset").
		Preload("Employee").
		Preload("Admin").
		First(&req, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// List presents PENDING requests first, then by recency.
func (r *loanRequestRepository) List(ctx context.Context, status string, page, limit int) ([]model.LoanRequest, int64, error) {
	var requests []model.LoanRequest
	var total int64

	query := GetDB(ctx, r.db).Model(&model.LoanRequest{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	fetch := GetDB(ctx, r.db).
		Preload("Asset").
		Preload("Employee").
		Preload("Admin")
	if status != "" {
		fetch = fetch.Where("status = ?", status)
	}
	err := fetch.
		Order("CASE WHEN status = 'PENDING' THEN 0 ELSE 1 END").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&requests).Error
	if err != nil {
		return nil, 0, err
	}

	return requests, total, nil
}

func (r *loanRequestRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.LoanRequest{}).Where("status = ?", status).Count(&count).Error
	return count, err
}

func (r *loanRequestRepository) CountByAsset(ctx context.Context, assetID uuid.UUID) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.LoanRequest{}).Where("asset_id = ?", assetID).Count(&count).Error
	return count, err
}

// MarkReturned flips the employee's APPROVED request for the asset to
// RETURNED. Called by the lifecycle engine's return transition.
func (r *loanRequestRepository) MarkReturned(ctx context.Context, assetID, employeeID uuid.UUID) error {
	return GetDB(ctx, r.db).Model(&model.LoanRequest{}).
		Where("asset_id = ? AND employee_id = ? AND status = ?", assetID, employeeID, model.LoanApproved).
		Update("status", model.LoanReturned).Error
}
