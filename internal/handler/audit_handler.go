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

type AuditHandler struct {
	auditService service.AuditService
}

func NewAuditHandler(auditService service.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	audits := router.Group("/api/audits")
	{
		staff := middleware.RequireRole(model.RoleAdmin, model.RoleStaff)

		audits.GET("/queue", staff, h.Queue)
		audits.POST("/:assetId", staff, h.Record)
	}
}

// Queue lists assets in audit priority order
// @Summary      Audit queue
// @Tags         audits
// @Security     BearerAuth
// @Produce      json
// @Param        page    query  int     false  "Page number"
// @Param        limit   query  int     false  "Items per page"
// @Param        search  query  string  false  "Search by name or tag"
// @Success      200  {object}  response.Response{data=response.Paginated}
// @Router       /api/audits/queue [get]
func (h *AuditHandler) Queue(c *gin.Context) {
	p := pagination.Parse(c)
	items, total, err := h.auditService.Queue(c.Request.Context(), c.Query("search"), p.Page, p.Limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, response.Paginated{
		Items: items, Total: total, Page: p.Page, Limit: p.Limit,
	}))
}

// Record files a physical audit for an asset
// @Summary      Record audit
// @Tags         audits
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        assetId  path  string                     true  "Asset ID"
// @Param        payload  body  service.RecordAuditRequest  true  "Audit observation"
// @Success      200  {object}  response.Response{data=model.Asset}
// @Router       /api/audits/{assetId} [post]
func (h *AuditHandler) Record(c *gin.Context) {
	var req service.RecordAuditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	asset, err := h.auditService.RecordAudit(c.Request.Context(), middleware.ActorID(c), c.Param("assetId"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, asset))
}
