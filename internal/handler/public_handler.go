package handler

import (
	"net/http"

	"assettrack/internal/service"
	"assettrack/pkg/response"

	"github.com/gin-gonic/gin"
)

// PublicHandler serves the unauthenticated kiosk surface reached through the
// QR stickers.
type PublicHandler struct {
	assetService       service.AssetService
	auditService       service.AuditService
	loanService        service.LoanService
	maintenanceService service.MaintenanceService
}

func NewPublicHandler(
	assetService service.AssetService,
	auditService service.AuditService,
	loanService service.LoanService,
	maintenanceService service.MaintenanceService,
) *PublicHandler {
	return &PublicHandler{
		assetService:       assetService,
		auditService:       auditService,
		loanService:        loanService,
		maintenanceService: maintenanceService,
	}
}

func (h *PublicHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/scan/:tag", h.Scan)
	router.POST("/scan/:tag/checkin", h.Checkin)
	router.POST("/scan/:tag/report", h.ReportIssue)
	router.POST("/request-asset", h.RequestAsset)
}

// Scan returns the public asset card for a sticker tag
// @Summary      Public asset card
// @Tags         public
// @Produce      json
// @Param        tag  path  string  true  "Asset tag"
// @Success      200  {object}  response.Response{data=service.AssetView}
// @Failure      404  {object}  response.Response
// @Router       /scan/{tag} [get]
func (h *PublicHandler) Scan(c *gin.Context) {
	asset, err := h.assetService.GetByTag(c.Request.Context(), c.Param("tag"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, asset))
}

// Checkin records a self-service audit via QR scan
// @Summary      Self check-in
// @Tags         public
// @Produce      json
// @Param        tag  path  string  true  "Asset tag"
// @Success      200  {object}  response.Response{data=model.Asset}
// @Failure      404  {object}  response.Response
// @Router       /scan/{tag}/checkin [post]
func (h *PublicHandler) Checkin(c *gin.Context) {
	asset, err := h.auditService.SelfCheckin(c.Request.Context(), c.Param("tag"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, asset))
}

type reportIssueRequest struct {
	ReporterName string `json:"reporter_name" binding:"required"`
	Description  string `json:"description" binding:"required"`
}

// ReportIssue files a maintenance record for a broken asset found in the wild
// @Summary      Report an issue
// @Tags         public
// @Accept       json
// @Produce      json
// @Param        tag      path  string              true  "Asset tag"
// @Param        payload  body  reportIssueRequest  true  "Issue description"
// @Success      201  {object}  response.Response{data=model.Maintenance}
// @Failure      404  {object}  response.Response
// @Router       /scan/{tag}/report [post]
func (h *PublicHandler) ReportIssue(c *gin.Context) {
	var req reportIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	asset, err := h.assetService.GetByTag(c.Request.Context(), c.Param("tag"))
	if err != nil {
		writeError(c, err)
		return
	}

	record, err := h.maintenanceService.Schedule(c.Request.Context(), "", service.ScheduleMaintenanceRequest{
		AssetID:     asset.ID.String(),
		Description: "Reported by " + req.ReporterName + ": " + req.Description,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, record))
}

// RequestAsset files a loan request from the public kiosk
// @Summary      Request an asset
// @Tags         public
// @Accept       json
// @Produce      json
// @Param        payload  body  service.PublicLoanRequest  true  "Loan request"
// @Success      201  {object}  response.Response{data=model.LoanRequest}
// @Failure      409  {object}  response.Response
// @Router       /request-asset [post]
func (h *PublicHandler) RequestAsset(c *gin.Context) {
	var req service.PublicLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	request, err := h.loanService.CreatePublic(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, request))
}
