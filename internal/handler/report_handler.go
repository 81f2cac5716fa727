package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/classtrack/school-report-api/internal/dto"
	"github.com/classtrack/school-report-api/internal/service"
	appErrors "github.com/classtrack/school-report-api/pkg/errors"
	"github.com/classtrack/school-report-api/pkg/response"
)

// ReportHandler exposes the teacher report lifecycle endpoints.
type ReportHandler struct {
	service *service.ReportService
	exports *service.ExportService
}

// NewReportHandler constructs a report handler.
func NewReportHandler(svc *service.ReportService, exports *service.ExportService) *ReportHandler {
	return &ReportHandler{service: svc, exports: exports}
}

// Create godoc
// @Summary Create a period report
// @Description File the authenticated teacher's report for one period today
// @Tags Reports
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateReportRequest true "Report payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /teacher-report/create [post]
func (h *ReportHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid report payload"))
		return
	}

	detail, err := h.service.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, detail)
}

// Update godoc
// @Summary Update an owned report
// @Description Edit a report the teacher owns; the status resets to pending
// @Tags Reports
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Report ID"
// @Param payload body dto.UpdateReportRequest true "Update payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /teacher-report/{id} [put]
func (h *ReportHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.UpdateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid report payload"))
		return
	}

	detail, err := h.service.Update(c.Request.Context(), claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, detail, nil)
}

// ListToday godoc
// @Summary List today's reports
// @Description Today's reports for the authenticated teacher plus reference lists
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /teacher-report [get]
func (h *ReportHandler) ListToday(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	res, err := h.service.ListToday(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res, nil)
}

// ListByDate godoc
// @Summary List reports for a date
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param date query string false "Date (YYYY-MM-DD, default today)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /teacher-reports [get]
func (h *ReportHandler) ListByDate(c *gin.Context) {
	reports, err := h.service.ListByDate(c.Request.Context(), c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, reports, nil, map[string]interface{}{"count": len(reports)})
}

// Export godoc
// @Summary Export a day's reports
// @Description Render the day's reports as CSV or PDF
// @Tags Reports
// @Produce octet-stream
// @Security BearerAuth
// @Param date query string false "Date (YYYY-MM-DD, default today)"
// @Param format query string true "csv or pdf"
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Router /teacher-reports/export [get]
func (h *ReportHandler) Export(c *gin.Context) {
	file, err := h.exports.Render(c.Request.Context(), c.Query("date"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+file.Filename)
	c.Data(http.StatusOK, file.ContentType, file.Body)
}
