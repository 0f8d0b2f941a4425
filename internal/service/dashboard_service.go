package service

import (
	"context"
	"time"

	"assettrack/internal/model"
	"assettrack/internal/repository"
)

// DashboardSummary is the counter block shown on the landing page.
type DashboardSummary struct {
	TotalAssets          int64                `json:"total_assets"`
	AvailableAssets      int64                `json:"available_assets"`
	BorrowedAssets       int64                `json:"borrowed_assets"`
	MaintenanceAssets    int64                `json:"maintenance_assets"`
	AuditOverdueAssets   int64                `json:"audit_overdue_assets"`
	ScheduledMaintenance int64                `json:"scheduled_maintenance"`
	PendingLoanRequests  int64                `json:"pending_loan_requests"`
	RecentHistory        []model.AssetHistory `json:"recent_history"`
}

type DashboardService interface {
	Summary(ctx context.Context) (*DashboardSummary, error)
}

type dashboardService struct {
	assets       repository.AssetRepository
	histories    repository.HistoryRepository
	loans        repository.LoanRequestRepository
	maintenances repository.MaintenanceRepository
}

func NewDashboardService(
	assets repository.AssetRepository,
	histories repository.HistoryRepository,
	loans repository.LoanRequestRepository,
	maintenances repository.MaintenanceRepository,
) DashboardService {
	return &dashboardService{
		assets:       assets,
		histories:    histories,
		loans:        loans,
		maintenances: maintenances,
	}
}

func (s *dashboardService) Summary(ctx context.Context) (*DashboardSummary, error) {
	summary := &DashboardSummary{}

	var err error
	if summary.TotalAssets, err = s.assets.CountByStatus(ctx, ""); err != nil {
		return nil, err
	}
	if summary.AvailableAssets, err = s.assets.CountByStatus(ctx, model.StatusAvailable); err != nil {
		return nil, err
	}
	if summary.BorrowedAssets, err = s.assets.CountByStatus(ctx, model.StatusBorrowed); err != nil {
		return nil, err
	}
	if summary.MaintenanceAssets, err = s.assets.CountByStatus(ctx, model.StatusMaintenance); err != nil {
		return nil, err
	}

	cutoff := time.Now().Add(-model.AuditOverdueWindow)
	if summary.AuditOverdueAssets, err = s.assets.CountAuditOverdue(ctx, cutoff); err != nil {
		return nil, err
	}
	if summary.ScheduledMaintenance, err = s.maintenances.CountByStatus(ctx, model.MaintenanceScheduled); err != nil {
		return nil, err
	}
	if summary.PendingLoanRequests, err = s.loans.CountByStatus(ctx, model.LoanPending); err != nil {
		return nil, err
	}
	if summary.RecentHistory, err = s.histories.ListRecent(ctx, 10); err != nil {
		return nil, err
	}

	return summary, nil
}
