package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"assettrack/internal/apperr"
	"assettrack/internal/model"
	"assettrack/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CategoryRequest struct {
	Name string `json:"name" binding:"required"`
	Code string `json:"code" binding:"required"`
}

type LocationRequest struct {
	Name     string `json:"name" binding:"required"`
	Building string `json:"building" binding:"required"`
}

type EmployeeRequest struct {
	NID        string `json:"nid" binding:"required"`
	Name       string `json:"name" binding:"required"`
	Email      string `json:"email" binding:"required,email"`
	Position   string `json:"position"`
	Department string `json:"department"`
	IsActive   *bool  `json:"is_active"`
}

// ReferenceService manages the lookup tables assets hang off of. Deletes are
// refused while any asset still references the row.
type ReferenceService interface {
	CreateCategory(ctx context.Context, actorID string, req CategoryRequest) (*model.Category, error)
	UpdateCategory(ctx context.Context, actorID, id string, req CategoryRequest) (*model.Category, error)
	DeleteCategory(ctx context.Context, actorID, id string) error
	ListCategories(ctx context.Context, search string, page, limit int) ([]model.Category, int64, error)

	CreateLocation(ctx context.Context, actorID string, req LocationRequest) (*model.Location, error)
	UpdateLocation(ctx context.Context, actorID, id string, req LocationRequest) (*model.Location, error)
	DeleteLocation(ctx context.Context, actorID, id string) error
	ListLocations(ctx context.Context, search string, page, limit int) ([]model.Location, int64, error)

	CreateEmployee(ctx context.Context, actorID string, req EmployeeRequest) (*model.Employee, error)
	UpdateEmployee(ctx context.Context, actorID, id string, req EmployeeRequest) (*model.Employee, error)
	DeleteEmployee(ctx context.Context, actorID, id string) error
	GetEmployee(ctx context.Context, id string) (*model.Employee, error)
	ListEmployees(ctx context.Context, search string, activeOnly bool, page, limit int) ([]model.Employee, int64, error)
}

type referenceService struct {
	categories repository.CategoryRepository
	locations  repository.LocationRepository
	employees  repository.EmployeeRepository
	assets     repository.AssetRepository
	activities repository.ActivityRepository
	txManager  repository.TransactionManager
}

func NewReferenceService(
	categories repository.CategoryRepository,
	locations repository.LocationRepository,
	employees repository.EmployeeRepository,
	assets repository.AssetRepository,
	activities repository.ActivityRepository,
	txManager repository.TransactionManager,
) ReferenceService {
	return &referenceService{
		categories: categories,
		locations:  locations,
		employees:  employees,
		assets:     assets,
		activities: activities,
		txManager:  txManager,
	}
}

func (s *referenceService) log(ctx context.Context, actorID, action, entityID, entityName string, details interface{}) {
	payload := "{}"
	if details != nil {
		if raw, err := json.Marshal(details); err == nil {
			payload = string(raw)
		}
	}
	_ = s.activities.Log(ctx, &model.ActivityLog{
		UserID:     parseActor(actorID),
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    payload,
	})
}

// --- categories ---

func (s *referenceService) CreateCategory(ctx context.Context, actorID string, req CategoryRequest) (*model.Category, error) {
	category := &model.Category{
		Name: strings.TrimSpace(req.Name),
		Code: strings.ToUpper(strings.TrimSpace(req.Code)),
	}
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.categories.Create(txCtx, category); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperr.Conflictf("category code %s already exists", category.Code)
			}
			return err
		}
		s.log(txCtx, actorID, model.ActivityCreateCategory, category.ID.String(), category.Name, req)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return category, nil
}

func (s *referenceService) UpdateCategory(ctx context.Context, actorID, id string, req CategoryRequest) (*model.Category, error) {
	cid, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.Validationf("invalid category id: %v", err)
	}

	var category *model.Category
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		category, err = s.categories.FindByID(txCtx, cid)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("category %s does not exist", id)
			}
			return err
		}
		category.Name = strings.TrimSpace(req.Name)
		category.Code = strings.ToUpper(strings.TrimSpace(req.Code))
		if err := s.categories.Update(txCtx, category); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperr.Conflictf("category code %s already exists", category.Code)
			}
			return err
		}
		s.log(txCtx, actorID, model.ActivityUpdateCategory, category.ID.String(), category.Name, req)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return category, nil
}

func (s *referenceService) DeleteCategory(ctx context.Context, actorID, id string) error {
	cid, err := uuid.Parse(id)
	if err != nil {
		return apperr.Validationf("invalid category id: %v", err)
	}
	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		category, err := s.categories.FindByID(txCtx, cid)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("category %s does not exist", id)
			}
			return err
		}
		count, err := s.assets.CountByCategory(txCtx, cid)
		if err != nil {
			return err
		}
		if count > 0 {
			return apperr.Conflictf("category %s is referenced by %d asset(s)", category.Name, count)
		}
		if err := s.categories.Delete(txCtx, cid); err != nil {
			return err
		}
		s.log(txCtx, actorID, model.ActivityDeleteCategory, id, category.Name, nil)
		return nil
	})
}

func (s *referenceService) ListCategories(ctx context.Context, search string, page, limit int) ([]model.Category, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	return s.categories.List(ctx, search, page, limit)
}

// --- locations ---

func (s *referenceService) CreateLocation(ctx context.Context, actorID string, req LocationRequest) (*model.Location, error) {
	location := &model.Location{
		Name:     strings.TrimSpace(req.Name),
		Building: strings.TrimSpace(req.Building),
	}
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.locations.Create(txCtx, location); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperr.Conflictf("location %s in %s already exists", location.Name, location.Building)
			}
			return err
		}
		s.log(txCtx, actorID, model.ActivityCreateLocation, location.ID.String(), location.Name, req)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return location, nil
}

func (s *referenceService) UpdateLocation(ctx context.Context, actorID, id string, req LocationRequest) (*model.Location, error) {
	lid, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.Validationf("invalid location id: %v", err)
	}

	var location *model.Location
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		location, err = s.locations.FindByID(txCtx, lid)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("location %s does not exist", id)
			}
			return err
		}
		location.Name = strings.TrimSpace(req.Name)
		location.Building = strings.TrimSpace(req.Building)
		if err := s.locations.Update(txCtx, location); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperr.Conflictf("location %s in %s already exists", location.Name, location.Building)
			}
			return err
		}
		s.log(txCtx, actorID, model.ActivityUpdateLocation, location.ID.String(), location.Name, req)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return location, nil
}

func (s *referenceService) DeleteLocation(ctx context.Context, actorID, id string) error {
	lid, err := uuid.Parse(id)
	if err != nil {
		return apperr.Validationf("invalid location id: %v", err)
	}
	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		location, err := s.locations.FindByID(txCtx, lid)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("location %s does not exist", id)
			}
			return err
		}
		count, err := s.assets.CountByLocation(txCtx, lid)
		if err != nil {
			return err
		}
		if count > 0 {
			return apperr.Conflictf("location %s is referenced by %d asset(s)", location.Name, count)
		}
		if err := s.locations.Delete(txCtx, lid); err != nil {
			return err
		}
		s.log(txCtx, actorID, model.ActivityDeleteLocation, id, location.Name, nil)
		return nil
	})
}

func (s *referenceService) ListLocations(ctx context.Context, search string, page, limit int) ([]model.Location, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	return s.locations.List(ctx, search, page, limit)
}

// --- employees ---

func (s *referenceService) CreateEmployee(ctx context.Context, actorID string, req EmployeeRequest) (*model.Employee, error) {
	employee := &model.Employee{
		NID:        strings.TrimSpace(req.NID),
		Name:       strings.TrimSpace(req.Name),
		Email:      strings.ToLower(strings.TrimSpace(req.Email)),
		Position:   req.Position,
		Department: req.Department,
		IsActive:   true,
	}
	if req.IsActive != nil {
		employee.IsActive = *req.IsActive
	}
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.employees.Create(txCtx, employee); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperr.Conflictf("employee nid or email already exists")
			}
			return err
		}
		s.log(txCtx, actorID, model.ActivityCreateEmployee, employee.ID.String(), employee.Name, req)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return employee, nil
}

func (s *referenceService) UpdateEmployee(ctx context.Context, actorID, id string, req EmployeeRequest) (*model.Employee, error) {
	eid, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.Validationf("invalid employee id: %v", err)
	}

	var employee *model.Employee
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		employee, err = s.employees.FindByID(txCtx, eid)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("employee %s does not exist", id)
			}
			return err
		}
		employee.NID = strings.TrimSpace(req.NID)
		employee.Name = strings.TrimSpace(req.Name)
		employee.Email = strings.ToLower(strings.TrimSpace(req.Email))
		employee.Position = req.Position
		employee.Department = req.Department
		if req.IsActive != nil {
			employee.IsActive = *req.IsActive
		}
		if err := s.employees.Update(txCtx, employee); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperr.Conflictf("employee nid or email already exists")
			}
			return err
		}
		s.log(txCtx, actorID, model.ActivityUpdateEmployee, employee.ID.String(), employee.Name, req)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return employee, nil
}

// DeleteEmployee refuses while the employee still holds borrowed assets.
func (s *referenceService) DeleteEmployee(ctx context.Context, actorID, id string) error {
	eid, err := uuid.Parse(id)
	if err != nil {
		return apperr.Validationf("invalid employee id: %v", err)
	}
	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		employee, err := s.employees.FindByID(txCtx, eid)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("employee %s does not exist", id)
			}
			return err
		}
		held, err := s.assets.CountHeldByEmployee(txCtx, eid)
		if err != nil {
			return err
		}
		if held > 0 {
			return apperr.Conflictf("employee %s still holds %d borrowed asset(s)", employee.Name, held)
		}
		if err := s.employees.Delete(txCtx, eid); err != nil {
			return err
		}
		s.log(txCtx, actorID, model.ActivityDeleteEmployee, id, employee.Name, nil)
		return nil
	})
}

func (s *referenceService) GetEmployee(ctx context.Context, id string) (*model.Employee, error) {
	eid, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.Validationf("invalid employee id: %v", err)
	}
	employee, err := s.employees.FindByID(ctx, eid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("employee %s does not exist", id)
		}
		return nil, err
	}
	return employee, nil
}

func (s *referenceService) ListEmployees(ctx context.Context, search string, activeOnly bool, page, limit int) ([]model.Employee, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	return s.employees.List(ctx, search, activeOnly, page, limit)
}
