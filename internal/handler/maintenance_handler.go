package handler

import (
	"net/http"

	"assettrack/internal/middleware"
	"assettrack/internal/model"
	"assettrack/internal/service"
	"assettrack/pkg/pagination"
	"assettrack/pkg/response"

	"github.com/gin-gonic/gin"
)

type MaintenanceHandler struct {
	maintenanceService service.MaintenanceService
	exportService      service.ExportService
}

func NewMaintenanceHandler(maintenanceService service.MaintenanceService, exportService service.ExportService) *MaintenanceHandler {
	return &MaintenanceHandler{maintenanceService: maintenanceService, exportService: exportService}
}

func (h *MaintenanceHandler) RegisterRoutes(router *gin.RouterGroup) {
	maintenance := router.Group("/api/maintenance")
	{
		staff := middleware.RequireRole(model.RoleAdmin, model.RoleStaff)
		admin := middleware.RequireRole(model.RoleAdmin)

		maintenance.GET("", staff, h.List)
		maintenance.POST("", staff, h.Schedule)
		maintenance.GET("/export", staff, h.Export)
		maintenance.GET("/:id", staff, h.Get)
		maintenance.PUT("/:id", staff, h.Update)
		maintenance.DELETE("/:id", admin, h.Delete)
	}
}

// List returns maintenance records
// @Summary      List maintenance
// @Tags         maintenance
// @Security     BearerAuth
// @Produce      json
// @Param        page    query  int     false  "Page number"
// @Param        limit   query  int     false  "Items per page"
// @Param        search  query  string  false  "Search by description or asset"
// @Param        status  query  string  false  "Filter by status"
// @Success      200  {object}  response.Response{data=response.Paginated}
// @Router       /api/maintenance [get]
func (h *MaintenanceHandler) List(c *gin.Context) {
	p := pagination.Parse(c)
	records, total, err := h.maintenanceService.List(c.Request.Context(),
		c.Query("search"), c.Query("status"), p.Page, p.Limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, response.Paginated{
		Items: records, Total: total, Page: p.Page, Limit: p.Limit,
	}))
}

// Schedule creates a maintenance record and pulls the asset into MAINTENANCE
// @Summary      Schedule maintenance
// @Tags         maintenance
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.ScheduleMaintenanceRequest  true  "Maintenance payload"
// @Success      201  {object}  response.Response{data=model.Maintenance}
// @Router       /api/maintenance [post]
func (h *MaintenanceHandler) Schedule(c *gin.Context) {
	var req service.ScheduleMaintenanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	record, err := h.maintenanceService.Schedule(c.Request.Context(), middleware.ActorID(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, record))
}

// Get returns one maintenance record
// @Summary      Get maintenance record
// @Tags         maintenance
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Record ID"
// @Success      200  {object}  response.Response{data=model.Maintenance}
// @Router       /api/maintenance/{id} [get]
func (h *MaintenanceHandler) Get(c *gin.Context) {
	record, err := h.maintenanceService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, record))
}

// Update edits a record; closing the last open one releases the asset
// @Summary      Update maintenance record
// @Tags         maintenance
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                            true  "Record ID"
// @Param        payload  body  service.UpdateMaintenanceRequest  true  "Fields to change"
// @Success      200  {object}  response.Response{data=model.Maintenance}
// @Router       /api/maintenance/{id} [put]
func (h *MaintenanceHandler) Update(c *gin.Context) {
	var req service.UpdateMaintenanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	record, err := h.maintenanceService.Update(c.Request.Context(), middleware.ActorID(c), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, record))
}

// Delete removes a maintenance record
// @Summary      Delete maintenance record
// @Tags         maintenance
// @Security     BearerAuth
// @Param        id  path  string  true  "Record ID"
// @Success      200  {object}  response.Response
// @Router       /api/maintenance/{id} [delete]
func (h *MaintenanceHandler) Delete(c *gin.Context) {
	if err := h.maintenanceService.Delete(c.Request.Context(), middleware.ActorID(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": true}))
}

// Export streams the maintenance report as xlsx
// @Summary      Export maintenance report
// @Tags         maintenance
// @Security     BearerAuth
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        search  query  string  false  "Search filter"
// @Param        status  query  string  false  "Status filter"
// @Success      200  {file}  binary
// @Router       /api/maintenance/export [get]
func (h *MaintenanceHandler) Export(c *gin.Context) {
	buf, err := h.exportService.MaintenanceXLSX(c.Request.Context(), c.Query("search"), c.Query("status"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="maintenance-`+nowStamp()+`.xlsx"`)
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		buf.Bytes())
}
