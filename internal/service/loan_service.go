package service

import (
	"context"
	"errors"
	"time"

	"assettrack/internal/apperr"
	"assettrack/internal/model"
	"assettrack/internal/repository"
	ws "assettrack/internal/websocket"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CreateLoanRequest struct {
	AssetID    string `json:"asset_id" binding:"required,uuid"`
	EmployeeID string `json:"employee_id" binding:"required,uuid"`
	LoanType   string `json:"loan_type" binding:"omitempty,oneof=SHORT_TERM LONG_TERM"`
	StartDate  string `json:"start_date" binding:"required"` // YYYY-MM-DD
	DueDate    string `json:"due_date" binding:"required"`
	Reason     string `json:"reason"`
}

// PublicLoanRequest is the unauthenticated kiosk variant: the employee is
// identified by email instead of id.
type PublicLoanRequest struct {
	AssetTag      string `json:"asset_tag" binding:"required"`
	EmployeeEmail string `json:"employee_email" binding:"required,email"`
	StartDate     string `json:"start_date" binding:"required"`
	DueDate       string `json:"due_date" binding:"required"`
	Reason        string `json:"reason"`
}

type RejectLoanRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type LoanService interface {
	Create(ctx context.Context, req CreateLoanRequest) (*model.LoanRequest, error)
	CreatePublic(ctx context.Context, req PublicLoanRequest) (*model.LoanRequest, error)
	Approve(ctx context.Context, actorID, requestID string) (*model.LoanRequest, error)
	Reject(ctx context.Context, actorID, requestID string, req RejectLoanRequest) (*model.LoanRequest, error)
	Get(ctx context.Context, requestID string) (*model.LoanRequest, error)
	List(ctx context.Context, status string, page, limit int) ([]model.LoanRequest, int64, error)
}

type loanService struct {
	loans     repository.LoanRequestRepository
	assets    repository.AssetRepository
	employees repository.EmployeeRepository
	lifecycle LifecycleService
	txManager repository.TransactionManager
	hub       *ws.Hub
}

func NewLoanService(
	loans repository.LoanRequestRepository,
	assets repository.AssetRepository,
	employees repository.EmployeeRepository,
	lifecycle LifecycleService,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) LoanService {
	return &loanService{
		loans:     loans,
		assets:    assets,
		employees: employees,
		lifecycle: lifecycle,
		txManager: txManager,
		hub:       hub,
	}
}

func validateLoanDates(startDate, dueDate string, now time.Time) (time.Time, time.Time, error) {
	start, err := parseDate(startDate)
	if err != nil {
		return time.Time{}, time.Time{}, apperr.Validationf("invalid start_date: %v", err)
	}
	due, err := parseDate(dueDate)
	if err != nil {
		return time.Time{}, time.Time{}, apperr.Validationf("invalid due_date: %v", err)
	}
	// Compare calendar dates, not instants: parsed dates are UTC midnights,
	// so truncating now on the UTC day boundary would reject "today" during
	// evening hours in timezones west of UTC.
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if start.Before(today) {
		return time.Time{}, time.Time{}, apperr.Validationf("start_date cannot be in the past")
	}
	if due.Before(start) {
		return time.Time{}, time.Time{}, apperr.Validationf("due_date cannot be before start_date")
	}
	return start, due, nil
}

// Create files a PENDING request. The availability check here is a courtesy:
// the authoritative check is the conditional update inside Approve.
func (s *loanService) Create(ctx context.Context, req CreateLoanRequest) (*model.LoanRequest, error) {
	assetID, err := uuid.Parse(req.AssetID)
	if err != nil {
		return nil, apperr.Validationf("invalid asset id: %v", err)
	}
	employeeID, err := uuid.Parse(req.EmployeeID)
	if err != nil {
		return nil, apperr.Validationf("invalid employee id: %v", err)
	}
	start, due, err := validateLoanDates(req.StartDate, req.DueDate, time.Now())
	if err != nil {
		return nil, err
	}

	loanType := req.LoanType
	if loanType == "" {
		loanType = model.LoanShortTerm
	}

	asset, err := s.assets.FindByID(ctx, assetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("asset %s does not exist", assetID)
		}
		return nil, err
	}
	if asset.Status != model.StatusAvailable {
		return nil, apperr.Conflictf("asset %s is %s, not available for loan", displayTag(asset), asset.Status)
	}

	employee, err := s.employees.FindByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("employee %s does not exist", employeeID)
		}
		return nil, err
	}
	if !employee.IsActive {
		return nil, apperr.Validationf("employee %s is inactive", employee.Name)
	}

	request := &model.LoanRequest{
		AssetID:    assetID,
		EmployeeID: employeeID,
		LoanType:   loanType,
		StartDate:  start,
		DueDate:    due,
		Reason:     req.Reason,
		Status:     model.LoanPending,
	}
	if err := s.loans.Create(ctx, request); err != nil {
		return nil, err
	}
	return request, nil
}

// CreatePublic resolves the kiosk identifiers (tag + email) and delegates.
func (s *loanService) CreatePublic(ctx context.Context, req PublicLoanRequest) (*model.LoanRequest, error) {
	asset, err := s.assets.FindByTag(ctx, req.AssetTag)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("asset with tag %s does not exist", req.AssetTag)
		}
		return nil, err
	}
	employee, err := s.employees.FindByEmail(ctx, req.EmployeeEmail)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("no employee registered with email %s", req.EmployeeEmail)
		}
		return nil, err
	}

	return s.Create(ctx, CreateLoanRequest{
		AssetID:    asset.ID.String(),
		EmployeeID: employee.ID.String(),
		LoanType:   model.LoanShortTerm,
		StartDate:  req.StartDate,
		DueDate:    req.DueDate,
		Reason:     req.Reason,
	})
}

// Approve runs the lifecycle assign inside the same transaction that flips
// the request to APPROVED. When two admins approve requests for the same
// asset, the conditional status update lets exactly one through; the loser's
// transaction rolls back and its request stays PENDING.
func (s *loanService) Approve(ctx context.Context, actorID, requestID string) (*model.LoanRequest, error) {
	rid, err := uuid.Parse(requestID)
	if err != nil {
		return nil, apperr.Validationf("invalid request id: %v", err)
	}
	adminID, err := uuid.Parse(actorID)
	if err != nil {
		return nil, apperr.Validationf("invalid actor id: %v", err)
	}

	var approved *model.LoanRequest
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		request, err := s.loans.FindByID(txCtx, rid)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("loan request %s does not exist", requestID)
			}
			return err
		}
		if request.Status != model.LoanPending {
			return apperr.Conflictf("loan request is already %s", request.Status)
		}

		dueDate := request.DueDate.Format("2006-01-02")
		_, err = s.lifecycle.Assign(txCtx, actorID, request.AssetID.String(), AssignRequest{
			EmployeeID: request.EmployeeID.String(),
			LoanType:   request.LoanType,
			DueDate:    &dueDate,
			Notes:      "Approved loan request",
		})
		if err != nil {
			return err
		}

		now := time.Now()
		request.Status = model.LoanApproved
		request.AdminID = &adminID
		request.ReviewedAt = &now
		if err := s.loans.Update(txCtx, request); err != nil {
			return err
		}
		approved = request
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.hub.Notify("loan.approved", map[string]interface{}{
		"request_id": approved.ID.String(),
		"asset_id":   approved.AssetID.String(),
	})
	return approved, nil
}

// Reject closes a PENDING request with a reason. The asset is untouched.
func (s *loanService) Reject(ctx context.Context, actorID, requestID string, req RejectLoanRequest) (*model.LoanRequest, error) {
	rid, err := uuid.Parse(requestID)
	if err != nil {
		return nil, apperr.Validationf("invalid request id: %v", err)
	}
	adminID, err := uuid.Parse(actorID)
	if err != nil {
		return nil, apperr.Validationf("invalid actor id: %v", err)
	}

	var rejected *model.LoanRequest
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		request, err := s.loans.FindByID(txCtx, rid)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("loan request %s does not exist", requestID)
			}
			return err
		}
		if request.Status != model.LoanPending {
			return apperr.Conflictf("loan request is already %s", request.Status)
		}

		now := time.Now()
		request.Status = model.LoanRejected
		request.AdminID = &adminID
		request.ReviewedAt = &now
		request.RejectionReason = req.Reason
		if err := s.loans.Update(txCtx, request); err != nil {
			return err
		}
		rejected = request
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.hub.Notify("loan.rejected", map[string]interface{}{
		"request_id": rejected.ID.String(),
		"asset_id":   rejected.AssetID.String(),
	})
	return rejected, nil
}

func (s *loanService) Get(ctx context.Context, requestID string) (*model.LoanRequest, error) {
	rid, err := uuid.Parse(requestID)
	if err != nil {
		return nil, apperr.Validationf("invalid request id: %v", err)
	}
	request, err := s.loans.FindByIDWithRelations(ctx, rid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("loan request %s does not exist", requestID)
		}
		return nil, err
	}
	return request, nil
}

func (s *loanService) List(ctx context.Context, status string, page, limit int) ([]model.LoanRequest, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	return s.loans.List(ctx, status, page, limit)
}
