package handler

import (
	"errors"

	"github.com/fieldstack/matflow/internal/lifecycle"
	"github.com/fieldstack/matflow/internal/repository"
	"github.com/fieldstack/matflow/internal/service"
	"github.com/gin-gonic/gin"
)

// RequestHandler 物料申请单处理器
type RequestHandler struct {
	svc *service.RequestService
}

// NewRequestHandler 创建物料申请单处理器
func NewRequestHandler(svc *service.RequestService) *RequestHandler {
	return &RequestHandler{svc: svc}
}

// fail maps service-layer errors onto the response envelope: lifecycle
// violations are client errors, a stale version is a conflict, anything
// unrecognized is a 500.
func fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		NotFound(c, "Request not found")
	case errors.Is(err, repository.ErrStaleWrite):
		Conflict(c, "Request was modified by someone else, reload and retry")
	case errors.Is(err, lifecycle.ErrWrongDepartment):
		Forbidden(c, err.Error())
	case errors.Is(err, lifecycle.ErrIllegalTransition),
		errors.Is(err, lifecycle.ErrWrongRequestType),
		errors.Is(err, lifecycle.ErrNotEditable),
		errors.Is(err, lifecycle.ErrAlreadyReceived):
		BadRequest(c, err.Error())
	default:
		InternalError(c, err.Error())
	}
}

// List 获取申请单列表
func (h *RequestHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)

	params := repository.ListParams{
		Status:      c.Query("status"),
		RequestType: c.Query("type"),
		Zone:        c.Query("zone"),
		RequesterID: c.Query("requester_id"),
		Page:        page,
		PageSize:    pageSize,
	}

	result, err := h.svc.List(c.Request.Context(), params)
	if err != nil {
		InternalError(c, err.Error())
		return
	}

	Success(c, ListResponse{
		Items: result.Items,
		Pagination: &Pagination{
			Page:       result.Page,
			PageSize:   result.PageSize,
			Total:      int(result.Total),
			TotalPages: result.TotalPages,
		},
	})
}

// Get 获取申请单详情
func (h *RequestHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		BadRequest(c, "Request ID is required")
		return
	}

	req, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}

	Success(c, req)
}

// Create 创建MR/MRC
func (h *RequestHandler) Create(c *gin.Context) {
	var req service.CreateRequestInput
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	result, err := h.svc.Create(c.Request.Context(), GetActor(c), &req)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	Created(c, result)
}

// Update 编辑申请单（仅pending）
func (h *RequestHandler) Update(c *gin.Context) {
	id := c.Param("id")
	var req service.UpdateRequestInput
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	result, err := h.svc.Update(c.Request.Context(), id, &req)
	if err != nil {
		fail(c, err)
		return
	}

	Success(c, result)
}

// Delete 删除申请单（仅区域经理）
func (h *RequestHandler) Delete(c *gin.Context) {
	id := c.Param("id")

	if err := h.svc.Delete(c.Request.Context(), GetActor(c), id); err != nil {
		fail(c, err)
		return
	}

	Success(c, gin.H{"deleted": true})
}

// Approve 批准申请单
func (h *RequestHandler) Approve(c *gin.Context) {
	id := c.Param("id")
	var req service.ApproveInput
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	result, err := h.svc.Approve(c.Request.Context(), GetActor(c), id, &req)
	if err != nil {
		fail(c, err)
		return
	}

	Success(c, result)
}

// versionBody carries the optimistic-concurrency version for the
// field-less transitions.
type versionBody struct {
	Version int `json:"version" binding:"required"`
}

// Reject 驳回申请单
func (h *RequestHandler) Reject(c *gin.Context) {
	id := c.Param("id")
	var req versionBody
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	result, err := h.svc.Reject(c.Request.Context(), GetActor(c), id, req.Version)
	if err != nil {
		fail(c, err)
		return
	}

	Success(c, result)
}

// Process 开始备料
func (h *RequestHandler) Process(c *gin.Context) {
	id := c.Param("id")
	var req versionBody
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	result, err := h.svc.StartProcessing(c.Request.Context(), GetActor(c), id, req.Version)
	if err != nil {
		fail(c, err)
		return
	}

	Success(c, result)
}

// Dispatch 发货
func (h *RequestHandler) Dispatch(c *gin.Context) {
	id := c.Param("id")
	var req service.DispatchInput
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	result, err := h.svc.Dispatch(c.Request.Context(), GetActor(c), id, &req)
	if err != nil {
		fail(c, err)
		return
	}

	Success(c, result)
}

// Receive 工程师确认收货（MR）
func (h *RequestHandler) Receive(c *gin.Context) {
	id := c.Param("id")
	var req service.ReceiptInput
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	result, err := h.svc.ConfirmReceipt(c.Request.Context(), GetActor(c), id, &req)
	if err != nil {
		fail(c, err)
		return
	}

	Success(c, result)
}

// ReturnReceived 店长确认收到退料（MRC）
func (h *RequestHandler) ReturnReceived(c *gin.Context) {
	id := c.Param("id")
	var req service.ReturnReceivedInput
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	result, err := h.svc.MarkReturnReceived(c.Request.Context(), GetActor(c), id, &req)
	if err != nil {
		fail(c, err)
		return
	}

	Success(c, result)
}

// MRCNumbers 录入MRC编号
func (h *RequestHandler) MRCNumbers(c *gin.Context) {
	id := c.Param("id")
	var req service.MRCNumbersInput
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	result, err := h.svc.EnterMRCNumbers(c.Request.Context(), GetActor(c), id, &req)
	if err != nil {
		fail(c, err)
		return
	}

	Success(c, result)
}
