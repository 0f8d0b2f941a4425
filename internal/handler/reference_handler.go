package handler

import (
	"net/http"
	"strconv"

	"assettrack/internal/middleware"
	"assettrack/internal/model"
	"assettrack/internal/service"
	"assettrack/pkg/pagination"
	"assettrack/pkg/response"

	"github.com/gin-gonic/gin"
)

// ReferenceHandler serves categories, locations and employees.
type ReferenceHandler struct {
	referenceService service.ReferenceService
}

func NewReferenceHandler(referenceService service.ReferenceService) *ReferenceHandler {
	return &ReferenceHandler{referenceService: referenceService}
}

func (h *ReferenceHandler) RegisterRoutes(router *gin.RouterGroup) {
	staff := middleware.RequireRole(model.RoleAdmin, model.RoleStaff)
	admin := middleware.RequireRole(model.RoleAdmin)

	categories := router.Group("/api/categories")
	{
		categories.GET("", staff, h.ListCategories)
		categories.POST("", admin, h.CreateCategory)
		categories.PUT("/:id", admin, h.UpdateCategory)
		categories.DELETE("/:id", admin, h.DeleteCategory)
	}

	locations := router.Group("/api/locations")
	{
		locations.GET("", staff, h.ListLocations)
		locations.POST("", admin, h.CreateLocation)
		locations.PUT("/:id", admin, h.UpdateLocation)
		locations.DELETE("/:id", admin, h.DeleteLocation)
	}

	employees := router.Group("/api/employees")
	{
		employees.GET("", staff, h.ListEmployees)
		employees.POST("", admin, h.CreateEmployee)
		employees.GET("/:id", staff, h.GetEmployee)
		employees.PUT("/:id", admin, h.UpdateEmployee)
		employees.DELETE("/:id", admin, h.DeleteEmployee)
	}
}

// ListCategories
// @Summary      List categories
// @Tags         reference
// @Security     BearerAuth
// @Produce      json
// @Param        page    query  int     false  "Page number"
// @Param        limit   query  int     false  "Items per page"
// @Param        search  query  string  false  "Search by name or code"
// @Success      200  {object}  response.Response{data=response.Paginated}
// @Router       /api/categories [get]
func (h *ReferenceHandler) ListCategories(c *gin.Context) {
	p := pagination.Parse(c)
	categories, total, err := h.referenceService.ListCategories(c.Request.Context(), c.Query("search"), p.Page, p.Limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, response.Paginated{
		Items: categories, Total: total, Page: p.Page, Limit: p.Limit,
	}))
}

// CreateCategory
// @Summary      Create category
// @Tags         reference
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.CategoryRequest  true  "Category payload"
// @Success      201  {object}  response.Response{data=model.Category}
// @Failure      409  {object}  response.Response
// @Router       /api/categories [post]
func (h *ReferenceHandler) CreateCategory(c *gin.Context) {
	var req service.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	category, err := h.referenceService.CreateCategory(c.Request.Context(), middleware.ActorID(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, category))
}

// UpdateCategory
// @Summary      Update category
// @Tags         reference
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                   true  "Category ID"
// @Param        payload  body  service.CategoryRequest  true  "Category payload"
// @Success      200  {object}  response.Response{data=model.Category}
// @Router       /api/categories/{id} [put]
func (h *ReferenceHandler) UpdateCategory(c *gin.Context) {
	var req service.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	category, err := h.referenceService.UpdateCategory(c.Request.Context(), middleware.ActorID(c), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, category))
}

// DeleteCategory
// @Summary      Delete category
// @Tags         reference
// @Security     BearerAuth
// @Param        id  path  string  true  "Category ID"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/categories/{id} [delete]
func (h *ReferenceHandler) DeleteCategory(c *gin.Context) {
	if err := h.referenceService.DeleteCategory(c.Request.Context(), middleware.ActorID(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": true}))
}

// ListLocations
// @Summary      List locations
// @Tags         reference
// @Security     BearerAuth
// @Produce      json
// @Param        page    query  int     false  "Page number"
// @Param        limit   query  int     false  "Items per page"
// @Param        search  query  string  false  "Search by name or building"
// @Success      200  {object}  response.Response{data=response.Paginated}
// @Router       /api/locations [get]
func (h *ReferenceHandler) ListLocations(c *gin.Context) {
	p := pagination.Parse(c)
	locations, total, err := h.referenceService.ListLocations(c.Request.Context(), c.Query("search"), p.Page, p.Limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, response.Paginated{
		Items: locations, Total: total, Page: p.Page, Limit: p.Limit,
	}))
}

// CreateLocation
// @Summary      Create location
// @Tags         reference
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.LocationRequest  true  "Location payload"
// @Success      201  {object}  response.Response{data=model.Location}
// @Router       /api/locations [post]
func (h *ReferenceHandler) CreateLocation(c *gin.Context) {
	var req service.LocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	location, err := h.referenceService.CreateLocation(c.Request.Context(), middleware.ActorID(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, location))
}

// UpdateLocation
// @Summary      Update location
// @Tags         reference
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                   true  "Location ID"
// @Param        payload  body  service.LocationRequest  true  "Location payload"
// @Success      200  {object}  response.Response{data=model.Location}
// @Router       /api/locations/{id} [put]
func (h *ReferenceHandler) UpdateLocation(c *gin.Context) {
	var req service.LocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	location, err := h.referenceService.UpdateLocation(c.Request.Context(), middleware.ActorID(c), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, location))
}

// DeleteLocation
// @Summary      Delete location
// @Tags         reference
// @Security     BearerAuth
// @Param        id  path  string  true  "Location ID"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/locations/{id} [delete]
func (h *ReferenceHandler) DeleteLocation(c *gin.Context) {
	if err := h.referenceService.DeleteLocation(c.Request.Context(), middleware.ActorID(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": true}))
}

// ListEmployees
// @Summary      List employees
// @Tags         reference
// @Security     BearerAuth
// @Produce      json
// @Param        page    query  int     false  "Page number"
// @Param        limit   query  int     false  "Items per page"
// @Param        search  query  string  false  "Search by name, nid or email"
// @Param        active  query  bool    false  "Only active employees"
// @Success      200  {object}  response.Response{data=response.Paginated}
// @Router       /api/employees [get]
func (h *ReferenceHandler) ListEmployees(c *gin.Context) {
	p := pagination.Parse(c)
	activeOnly, _ := strconv.ParseBool(c.DefaultQuery("active", "false"))
	employees, total, err := h.referenceService.ListEmployees(c.Request.Context(), c.Query("search"), activeOnly, p.Page, p.Limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, response.Paginated{
		Items: employees, Total: total, Page: p.Page, Limit: p.Limit,
	}))
}

// GetEmployee
// @Summary      Get employee
// @Tags         reference
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Employee ID"
// @Success      200  {object}  response.Response{data=model.Employee}
// @Router       /api/employees/{id} [get]
func (h *ReferenceHandler) GetEmployee(c *gin.Context) {
	employee, err := h.referenceService.GetEmployee(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, employee))
}

// CreateEmployee
// @Summary      Create employee
// @Tags         reference
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.EmployeeRequest  true  "Employee payload"
// @Success      201  {object}  response.Response{data=model.Employee}
// @Failure      409  {object}  response.Response
// @Router       /api/employees [post]
func (h *ReferenceHandler) CreateEmployee(c *gin.Context) {
	var req service.EmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	employee, err := h.referenceService.CreateEmployee(c.Request.Context(), middleware.ActorID(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, employee))
}

// UpdateEmployee
// @Summary      Update employee
// @Tags         reference
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                   true  "Employee ID"
// @Param        payload  body  service.EmployeeRequest  true  "Employee payload"
// @Success      200  {object}  response.Response{data=model.Employee}
// @Router       /api/employees/{id} [put]
func (h *ReferenceHandler) UpdateEmployee(c *gin.Context) {
	var req service.EmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	employee, err := h.referenceService.UpdateEmployee(c.Request.Context(), middleware.ActorID(c), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, employee))
}

// DeleteEmployee
// @Summary      Delete employee
// @Tags         reference
// @Security     BearerAuth
// @Param        id  path  string  true  "Employee ID"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/employees/{id} [delete]
func (h *ReferenceHandler) DeleteEmployee(c *gin.Context) {
	if err := h.referenceService.DeleteEmployee(c.Request.Context(), middleware.ActorID(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": true}))
}
