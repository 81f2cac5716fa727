package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/classtrack/school-report-api/internal/service"
	"github.com/classtrack/school-report-api/pkg/response"
)

// HomeworkHandler serves class homework quota and summary views.
type HomeworkHandler struct {
	reports   *service.ReportService
	homeworks *service.HomeworkService
}

// NewHomeworkHandler constructs a homework handler.
func NewHomeworkHandler(reports *service.ReportService, homeworks *service.HomeworkService) *HomeworkHandler {
	return &HomeworkHandler{reports: reports, homeworks: homeworks}
}

// Count godoc
// @Summary Today's homework count for a class
// @Description Active homework count against the class daily limit
// @Tags Homework
// @Produce json
// @Security BearerAuth
// @Param classId path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /homework/count/{classId} [get]
func (h *HomeworkHandler) Count(c *gin.Context) {
	res, err := h.reports.HomeworkCount(c.Request.Context(), c.Param("classId"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res, nil)
}

// ClassSummary godoc
// @Summary Class homework summary
// @Description Totals, overdue count, estimated minutes and subjects for today
// @Tags Homework
// @Produce json
// @Security BearerAuth
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /classes/{id}/homework-summary [get]
func (h *HomeworkHandler) ClassSummary(c *gin.Context) {
	res, err := h.homeworks.ClassSummary(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res, nil)
}
