package handler

import (
	"github.com/fieldstack/matflow/internal/repository"
	"github.com/fieldstack/matflow/internal/service"
	"github.com/gin-gonic/gin"
)

// ReportHandler 报表处理器
type ReportHandler struct {
	svc *service.ReportService
}

// NewReportHandler 创建报表处理器
func NewReportHandler(svc *service.ReportService) *ReportHandler {
	return &ReportHandler{svc: svc}
}

// ExportRegister GET /reports/requests.xlsx
func (h *ReportHandler) ExportRegister(c *gin.Context) {
	params := repository.ListParams{
		Status:      c.Query("status"),
		RequestType: c.Query("type"),
		Zone:        c.Query("zone"),
	}

	f, filename, err := h.svc.ExportRegister(c.Request.Context(), params)
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	defer f.Close()

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
	c.Header("Content-Transfer-Encoding", "binary")

	if err := f.Write(c.Writer); err != nil {
		InternalError(c, "write excel: "+err.Error())
	}
}
