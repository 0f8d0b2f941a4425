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

type DashboardHandler struct {
	dashboardService service.DashboardService
	activityService  service.ActivityService
}

func NewDashboardHandler(dashboardService service.DashboardService, activityService service.ActivityService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService, activityService: activityService}
}

func (h *DashboardHandler) RegisterRoutes(router *gin.RouterGroup) {
	staff := middleware.RequireRole(model.RoleAdmin, model.RoleStaff)

	router.GET("/api/dashboard", staff, h.Summary)
	router.GET("/api/activities", staff, h.Activities)
}

// Summary returns the landing-page counters and recent history
// @Summary      Dashboard summary
// @Tags         dashboard
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=service.DashboardSummary}
// @Router       /api/dashboard [get]
func (h *DashboardHandler) Summary(c *gin.Context) {
	summary, err := h.dashboardService.Summary(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, summary))
}

// Activities returns the non-lifecycle change log
// @Summary      Activity log
// @Tags         dashboard
// @Security     BearerAuth
// @Produce      json
// @Param        page   query  int  false  "Page number"
// @Param        limit  query  int  false  "Items per page"
// @Success      200  {object}  response.Response{data=response.Paginated}
// @Router       /api/activities [get]
func (h *DashboardHandler) Activities(c *gin.Context) {
	p := pagination.Parse(c)
	logs, total, err := h.activityService.List(c.Request.Context(), p.Page, p.Limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, response.Paginated{
		Items: logs, Total: total, Page: p.Page, Limit: p.Limit,
	}))
}
