package handler

import (
	"github.com/fieldstack/matflow/internal/service"
	"github.com/gin-gonic/gin"
)

// JobHandler 定时任务触发器。部署侧用cron定时POST这些端点。
type JobHandler struct {
	overdue *service.OverdueService
}

// NewJobHandler 创建任务处理器
func NewJobHandler(overdue *service.OverdueService) *JobHandler {
	return &JobHandler{overdue: overdue}
}

// CheckOverdueMRC POST /jobs/check-overdue-mrc
func (h *JobHandler) CheckOverdueMRC(c *gin.Context) {
	result, err := h.overdue.RunCheck(c.Request.Context())
	if err != nil {
		InternalError(c, err.Error())
		return
	}

	Success(c, result)
}
