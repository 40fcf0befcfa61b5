package handler

import (
	"errors"

	"github.com/fieldstack/matflow/internal/repository"
	"github.com/fieldstack/matflow/internal/service"
	"github.com/gin-gonic/gin"
)

// NotificationHandler 站内通知处理器
type NotificationHandler struct {
	svc *service.NotificationService
}

// NewNotificationHandler 创建站内通知处理器
func NewNotificationHandler(svc *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

// List 获取当前用户的通知
func (h *NotificationHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)

	notifications, total, err := h.svc.ListForUser(c.Request.Context(), GetUserID(c), page, pageSize)
	if err != nil {
		InternalError(c, err.Error())
		return
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}

	Success(c, ListResponse{
		Items: notifications,
		Pagination: &Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      int(total),
			TotalPages: totalPages,
		},
	})
}

// MarkRead 标记通知已读
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id := c.Param("id")

	if err := h.svc.MarkRead(c.Request.Context(), id, GetUserID(c)); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "Notification not found")
			return
		}
		InternalError(c, err.Error())
		return
	}

	Success(c, gin.H{"read": true})
}
