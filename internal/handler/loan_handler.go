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

type LoanHandler struct {
	loanService service.LoanService
}

func NewLoanHandler(loanService service.LoanService) *LoanHandler {
	return &LoanHandler{loanService: loanService}
}

func (h *LoanHandler) RegisterRoutes(router *gin.RouterGroup) {
	loans := router.Group("/api/loan-requests")
	{
		staff := middleware.RequireRole(model.RoleAdmin, model.RoleStaff)

		loans.GET("", staff, h.List)
		loans.POST("", staff, h.Create)
		loans.GET("/:id", staff, h.Get)
		loans.POST("/:id/approve", staff, h.Approve)
		loans.POST("/:id/reject", staff, h.Reject)
	}
}

// List returns loan requests, pending first
// @Summary      List loan requests
// @Tags         loans
// @Security     BearerAuth
// @Produce      json
// @Param        page    query  int     false  "Page number"
// @Param        limit   query  int     false  "Items per page"
// @Param        status  query  string  false  "Filter by status"
// @Success      200  {object}  response.Response{data=response.Paginated}
// @Router       /api/loan-requests [get]
func (h *LoanHandler) List(c *gin.Context) {
	p := pagination.Parse(c)
	requests, total, err := h.loanService.List(c.Request.Context(), c.Query("status"), p.Page, p.Limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, response.Paginated{
		Items: requests, Total: total, Page: p.Page, Limit: p.Limit,
	}))
}

// Create files a loan request on behalf of an employee
// @Summary      Create loan request
// @Tags         loans
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.CreateLoanRequest  true  "Request payload"
// @Success      201  {object}  response.Response{data=model.LoanRequest}
// @Failure      409  {object}  response.Response
// @Router       /api/loan-requests [post]
func (h *LoanHandler) Create(c *gin.Context) {
	var req service.CreateLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	request, err := h.loanService.Create(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, request))
}

// Get returns one loan request with relations
// @Summary      Get loan request
// @Tags         loans
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Request ID"
// @Success      200  {object}  response.Response{data=model.LoanRequest}
// @Router       /api/loan-requests/{id} [get]
func (h *LoanHandler) Get(c *gin.Context) {
	request, err := h.loanService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, request))
}

// Approve grants the loan and assigns the asset atomically
// @Summary      Approve loan request
// @Tags         loans
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Request ID"
// @Success      200  {object}  response.Response{data=model.LoanRequest}
// @Failure      409  {object}  response.Response
// @Router       /api/loan-requests/{id}/approve [post]
func (h *LoanHandler) Approve(c *gin.Context) {
	request, err := h.loanService.Approve(c.Request.Context(), middleware.ActorID(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, request))
}

// Reject declines the loan with a reason
// @Summary      Reject loan request
// @Tags         loans
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                     true  "Request ID"
// @Param        payload  body  service.RejectLoanRequest  true  "Rejection reason"
// @Success      200  {object}  response.Response{data=model.LoanRequest}
// @Failure      409  {object}  response.Response
// @Router       /api/loan-requests/{id}/reject [post]
func (h *LoanHandler) Reject(c *gin.Context) {
	var req service.RejectLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	request, err := h.loanService.Reject(c.Request.Context(), middleware.ActorID(c), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, request))
}
