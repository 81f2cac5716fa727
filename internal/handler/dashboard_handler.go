package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/classtrack/school-report-api/internal/dto"
	"github.com/classtrack/school-report-api/internal/service"
	appErrors "github.com/classtrack/school-report-api/pkg/errors"
	"github.com/classtrack/school-report-api/pkg/response"
)

// DashboardHandler exposes the principal's oversight endpoints.
type DashboardHandler struct {
	dashboard *service.DashboardService
	reports   *service.ReportService
}

// NewDashboardHandler constructs a dashboard handler.
func NewDashboardHandler(dashboard *service.DashboardService, reports *service.ReportService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard, reports: reports}
}

// Load godoc
// @Summary Load dashboard sections
// @Description Pending approvals, teacher overview and aggregate stats
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Param section query string false "pending, teachers, stats or all (default all)"
// @Param limit query int false "Pending list size (default 10)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Load(c *gin.Context) {
	res, err := h.dashboard.Load(c.Request.Context(), c.Query("section"), c.Query("limit"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res, nil)
}

// Transition godoc
// @Summary Approve or reject a report
// @Tags Dashboard
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.TransitionRequest true "Transition payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /dashboard [post]
func (h *DashboardHandler) Transition(c *gin.Context) {
	var req dto.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid transition payload"))
		return
	}

	res, err := h.reports.Transition(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res, nil)
}
