package handler

import (
	"fmt"
	"net/http"

	"assettrack/internal/middleware"
	"assettrack/internal/model"
	"assettrack/internal/repository"
	"assettrack/internal/service"
	"assettrack/pkg/pagination"
	"assettrack/pkg/response"

	"github.com/gin-gonic/gin"
)

type AssetHandler struct {
	assetService     service.AssetService
	lifecycleService service.LifecycleService
	syncService      service.SyncService
	exportService    service.ExportService
	labelService     service.LabelService
}

func NewAssetHandler(
	assetService service.AssetService,
	lifecycleService service.LifecycleService,
	syncService service.SyncService,
	exportService service.ExportService,
	labelService service.LabelService,
) *AssetHandler {
	return &AssetHandler{
		assetService:     assetService,
		lifecycleService: lifecycleService,
		syncService:      syncService,
		exportService:    exportService,
		labelService:     labelService,
	}
}

func (h *AssetHandler) RegisterRoutes(router *gin.RouterGroup) {
	assets := router.Group("/api/assets")
	{
		staff := middleware.RequireRole(model.RoleAdmin, model.RoleStaff)
		admin := middleware.RequireRole(model.RoleAdmin)

		assets.GET("", staff, h.List)
		assets.POST("", staff, h.Create)
		assets.GET("/export", staff, h.Export)
		assets.GET("/glpi/:serial", staff, h.LookupSpecs)
		assets.POST("/glpi/sync", admin, h.Sync)
		assets.POST("/labels", staff, h.BatchLabels)
		assets.GET("/:id", staff, h.Get)
		assets.PUT("/:id", staff, h.Update)
		assets.DELETE("/:id", admin, h.Delete)
		assets.GET("/:id/history", staff, h.History)
		assets.GET("/:id/label", staff, h.Label)

		assets.POST("/:id/assign", staff, h.Assign)
		assets.POST("/:id/return", staff, h.Return)
		assets.POST("/:id/send-repair", staff, h.SendRepair)
		assets.POST("/:id/finish-repair", staff, h.FinishRepair)
		assets.POST("/:id/relocate", staff, h.Relocate)
	}
}

// List returns a filtered, paginated page of assets with status counts
// @Summary      List assets
// @Tags         assets
// @Security     BearerAuth
// @Produce      json
// @Param        page    query  int     false  "Page number"
// @Param        limit   query  int     false  "Items per page"
// @Param        search  query  string  false  "Search by name, tag or serial"
// @Param        status  query  string  false  "Filter by status"
// @Success      200  {object}  response.Response{data=service.AssetListResult}
// @Router       /api/assets [get]
func (h *AssetHandler) List(c *gin.Context) {
	p := pagination.Parse(c)
	result, err := h.assetService.List(c.Request.Context(), repository.AssetFilter{
		Search: c.Query("search"),
		Status: c.Query("status"),
		Page:   p.Page,
		Limit:  p.Limit,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// Create registers a new asset
// @Summary      Create asset
// @Tags         assets
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.CreateAssetRequest  true  "Asset payload"
// @Success      201  {object}  response.Response{data=service.AssetView}
// @Failure      409  {object}  response.Response
// @Router       /api/assets [post]
func (h *AssetHandler) Create(c *gin.Context) {
	var req service.CreateAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	asset, err := h.assetService.Create(c.Request.Context(), middleware.ActorID(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, asset))
}

// Get returns one asset with relations and its latest history
// @Summary      Get asset
// @Tags         assets
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Asset ID"
// @Success      200  {object}  response.Response{data=service.AssetView}
// @Failure      404  {object}  response.Response
// @Router       /api/assets/{id} [get]
func (h *AssetHandler) Get(c *gin.Context) {
	asset, err := h.assetService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, asset))
}

// Update edits descriptive fields (the tag is immutable)
// @Summary      Update asset
// @Tags         assets
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                      true  "Asset ID"
// @Param        payload  body  service.UpdateAssetRequest  true  "Fields to change"
// @Success      200  {object}  response.Response{data=service.AssetView}
// @Router       /api/assets/{id} [put]
func (h *AssetHandler) Update(c *gin.Context) {
	var req service.UpdateAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	asset, err := h.assetService.Update(c.Request.Context(), middleware.ActorID(c), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, asset))
}

// Delete soft-deletes an asset without history
// @Summary      Delete asset
// @Tags         assets
// @Security     BearerAuth
// @Param        id  path  string  true  "Asset ID"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/assets/{id} [delete]
func (h *AssetHandler) Delete(c *gin.Context) {
	if err := h.assetService.Delete(c.Request.Context(), middleware.ActorID(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": true}))
}

// History returns the asset's lifecycle trail
// @Summary      Asset history
// @Tags         assets
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Asset ID"
// @Success      200  {object}  response.Response{data=[]model.AssetHistory}
// @Router       /api/assets/{id}/history [get]
func (h *AssetHandler) History(c *gin.Context) {
	p := pagination.Parse(c)
	entries, err := h.assetService.History(c.Request.Context(), c.Param("id"), p.Limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, entries))
}

// LookupSpecs resolves hardware specs from GLPI by serial number
// @Summary      GLPI spec lookup
// @Tags         assets
// @Security     BearerAuth
// @Produce      json
// @Param        serial  path  string  true  "Serial number"
// @Success      200  {object}  response.Response{data=glpi.SpecsRecord}
// @Failure      404  {object}  response.Response
// @Failure      502  {object}  response.Response
// @Router       /api/assets/glpi/{serial} [get]
func (h *AssetHandler) LookupSpecs(c *gin.Context) {
	record, err := h.assetService.LookupSpecs(c.Request.Context(), c.Param("serial"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, record))
}

// Sync runs the bulk GLPI import
// @Summary      Bulk GLPI sync
// @Tags         assets
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=service.SyncResult}
// @Failure      502  {object}  response.Response
// @Router       /api/assets/glpi/sync [post]
func (h *AssetHandler) Sync(c *gin.Context) {
	result, err := h.syncService.SyncAll(c.Request.Context(), middleware.ActorID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// Export streams the asset registry as xlsx
// @Summary      Export assets
// @Tags         assets
// @Security     BearerAuth
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        search  query  string  false  "Search filter"
// @Param        status  query  string  false  "Status filter"
// @Success      200  {file}  binary
// @Router       /api/assets/export [get]
func (h *AssetHandler) Export(c *gin.Context) {
	buf, err := h.exportService.AssetsXLSX(c.Request.Context(), repository.AssetFilter{
		Search: c.Query("search"),
		Status: c.Query("status"),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	filename := fmt.Sprintf("assets-%s.xlsx", nowStamp())
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		buf.Bytes())
}

// Label renders one sticker PDF
// @Summary      Asset sticker
// @Tags         assets
// @Security     BearerAuth
// @Produce      application/pdf
// @Param        id  path  string  true  "Asset ID"
// @Success      200  {file}  binary
// @Router       /api/assets/{id}/label [get]
func (h *AssetHandler) Label(c *gin.Context) {
	buf, err := h.labelService.Single(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="label.pdf"`)
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

type batchLabelsRequest struct {
	AssetIDs []string `json:"asset_ids" binding:"required,min=1"`
}

// BatchLabels renders a sticker sheet for several assets
// @Summary      Batch stickers
// @Tags         assets
// @Security     BearerAuth
// @Accept       json
// @Produce      application/pdf
// @Param        payload  body  batchLabelsRequest  true  "Asset ids"
// @Success      200  {file}  binary
// @Router       /api/assets/labels [post]
func (h *AssetHandler) BatchLabels(c *gin.Context) {
	var req batchLabelsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	buf, err := h.labelService.Batch(c.Request.Context(), req.AssetIDs)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="labels.pdf"`)
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

// Assign hands the asset to an employee
// @Summary      Assign asset
// @Tags         lifecycle
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                 true  "Asset ID"
// @Param        payload  body  service.AssignRequest  true  "Assignment"
// @Success      200  {object}  response.Response{data=model.Asset}
// @Failure      409  {object}  response.Response
// @Router       /api/assets/{id}/assign [post]
func (h *AssetHandler) Assign(c *gin.Context) {
	var req service.AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	asset, err := h.lifecycleService.Assign(c.Request.Context(), middleware.ActorID(c), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, asset))
}

// Return takes the asset back from its holder
// @Summary      Return asset
// @Tags         lifecycle
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                 true  "Asset ID"
// @Param        payload  body  service.ReturnRequest  true  "Observed condition"
// @Success      200  {object}  response.Response{data=model.Asset}
// @Failure      409  {object}  response.Response
// @Router       /api/assets/{id}/return [post]
func (h *AssetHandler) Return(c *gin.Context) {
	var req service.ReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	asset, err := h.lifecycleService.Return(c.Request.Context(), middleware.ActorID(c), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, asset))
}

// SendRepair pulls the asset into MAINTENANCE
// @Summary      Send to repair
// @Tags         lifecycle
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                 true  "Asset ID"
// @Param        payload  body  service.RepairRequest  true  "Notes"
// @Success      200  {object}  response.Response{data=model.Asset}
// @Router       /api/assets/{id}/send-repair [post]
func (h *AssetHandler) SendRepair(c *gin.Context) {
	var req service.RepairRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	asset, err := h.lifecycleService.SendRepair(c.Request.Context(), middleware.ActorID(c), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, asset))
}

// FinishRepair brings the asset back from MAINTENANCE
// @Summary      Finish repair
// @Tags         lifecycle
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                 true  "Asset ID"
// @Param        payload  body  service.RepairRequest  true  "Notes"
// @Success      200  {object}  response.Response{data=model.Asset}
// @Router       /api/assets/{id}/finish-repair [post]
func (h *AssetHandler) FinishRepair(c *gin.Context) {
	var req service.RepairRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	asset, err := h.lifecycleService.FinishRepair(c.Request.Context(), middleware.ActorID(c), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, asset))
}

// Relocate moves the asset to another location
// @Summary      Relocate asset
// @Tags         lifecycle
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                   true  "Asset ID"
// @Param        payload  body  service.RelocateRequest  true  "Target location"
// @Success      200  {object}  response.Response{data=model.Asset}
// @Router       /api/assets/{id}/relocate [post]
func (h *AssetHandler) Relocate(c *gin.Context) {
	var req service.RelocateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	asset, err := h.lifecycleService.Relocate(c.Request.Context(), middleware.ActorID(c), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, asset))
}
