package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fieldstack/matflow/internal/lifecycle"
	"github.com/fieldstack/matflow/internal/model/entity"
	"github.com/fieldstack/matflow/internal/notifier"
	"github.com/fieldstack/matflow/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestService 物料申请单服务 —— 所有生命周期操作的唯一入口
type RequestService struct {
	requests *repository.RequestRepository
	notifier *notifier.Notifier
	logger   *zap.Logger
}

// NewRequestService 创建物料申请单服务
func NewRequestService(requests *repository.RequestRepository, n *notifier.Notifier, logger *zap.Logger) *RequestService {
	return &RequestService{
		requests: requests,
		notifier: n,
		logger:   logger,
	}
}

// Actor identifies the signed-in principal performing an operation.
type Actor struct {
	ID         string
	Name       string
	Email      string
	Department string
	Zone       string
}

// CreateRequestInput 创建申请单请求。运输字段仅对MRC生效：退料单创建即发出，
// 运输信息在提交时一并填写。
type CreateRequestInput struct {
	Title         string                `json:"title" binding:"required"`
	RequestType   string                `json:"request_type"`
	Items         []entity.MaterialItem `json:"items" binding:"required"`
	TicketNumber  string                `json:"ticket_number"`
	Zone          string                `json:"zone"`
	Description   string                `json:"description"`
	TransportMode string                `json:"transport_mode"`
	CourierName   string                `json:"courier_name"`
	EDT           string                `json:"edt"` // ISO date
	TrackingNo    string                `json:"tracking_no"`
}

// RequestView is the API shape of a request: the stored record plus the
// derived delivery state, recomputed on every read and never persisted.
type RequestView struct {
	entity.MaterialRequest
	Code          string `json:"code"`
	DeliveryState string `json:"deliveryState"`
}

func view(req *entity.MaterialRequest) *RequestView {
	return &RequestView{
		MaterialRequest: *req,
		Code:            req.Code(),
		DeliveryState:   lifecycle.DeliveryState(req.Items),
	}
}

// Create 创建MR/MRC。MR进入pending；MRC按现行策略直接进入in-transit，
// 跳过审批环节。
func (s *RequestService) Create(ctx context.Context, actor Actor, input *CreateRequestInput) (*RequestView, error) {
	requestType := input.RequestType
	if requestType == "" {
		requestType = entity.RequestTypeMR
	}
	if requestType != entity.RequestTypeMR && requestType != entity.RequestTypeMRC {
		return nil, fmt.Errorf("invalid request type %q", requestType)
	}

	items := pruneBlankRows(input.Items)
	if err := lifecycle.ValidateSubmit(requestType, items); err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].ID == "" {
			items[i].ID = uuid.New().String()[:8]
		}
	}

	zone := input.Zone
	if zone == "" {
		zone = actor.Zone
	}

	status := entity.StatusPending
	if requestType == entity.RequestTypeMRC {
		status = entity.StatusInTransit
	}

	now := time.Now()
	req := &entity.MaterialRequest{
		ID:             uuid.New().String()[:32],
		Title:          input.Title,
		RequestType:    requestType,
		Items:          items,
		RequestedBy:    actor.Name,
		RequesterID:    actor.ID,
		RequesterEmail: actor.Email,
		Zone:           zone,
		Status:         status,
		TicketNumber:   input.TicketNumber,
		Description:    input.Description,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	// An MRC is in transit from the moment it is submitted, so transport
	// details are entered here rather than through a dispatch step.
	if requestType == entity.RequestTypeMRC && input.TransportMode != "" {
		if err := lifecycle.ValidateDispatch(lifecycle.DispatchDetails{
			TransportMode: input.TransportMode,
			CourierName:   input.CourierName,
			EDT:           input.EDT,
			TrackingNo:    input.TrackingNo,
		}); err != nil {
			return nil, err
		}
		if input.EDT != "" {
			parsed, err := parseDate(input.EDT)
			if err != nil {
				return nil, fmt.Errorf("invalid EDT: %w", err)
			}
			req.EDT = &parsed
		}
		req.TransportMode = input.TransportMode
		req.CourierName = input.CourierName
		req.TrackingNo = input.TrackingNo
		req.SentAt = &now
	}

	if err := s.requests.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	s.notifyCreated(ctx, actor, req)
	return view(req), nil
}

// notifyCreated picks the creation event and fan-out: an engineer's MR goes
// to the regional managers of the zone, an RM's MR and any MRC go straight
// to the store managers.
func (s *RequestService) notifyCreated(ctx context.Context, actor Actor, req *entity.MaterialRequest) {
	var event notifier.EventType
	var targets []string

	switch {
	case req.RequestType == entity.RequestTypeMRC:
		event = notifier.EventMRCCreated
		targets = []string{entity.DeptStoreManager}
	case actor.Department == entity.DeptRegionalManager:
		event = notifier.EventMRCreatedByRM
		targets = []string{entity.DeptStoreManager}
	default:
		event = notifier.EventMRCreatedByEngineer
		targets = []string{entity.DeptRegionalManager}
	}

	s.notifier.Notify(ctx, notifier.Payload{
		EventType:         event,
		Zone:              req.Zone,
		Request:           requestMeta(req),
		TargetDepartments: targets,
	})
}

// Get 获取申请单详情
func (s *RequestService) Get(ctx context.Context, id string) (*RequestView, error) {
	req, err := s.requests.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return view(req), nil
}

// ListResult 列表结果
type ListResult struct {
	Items      []RequestView `json:"items"`
	Total      int64         `json:"total"`
	Page       int           `json:"page"`
	PageSize   int           `json:"page_size"`
	TotalPages int           `json:"total_pages"`
}

// List 按创建时间倒序获取申请单
func (s *RequestService) List(ctx context.Context, params repository.ListParams) (*ListResult, error) {
	requests, total, err := s.requests.List(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}

	views := make([]RequestView, 0, len(requests))
	for i := range requests {
		views = append(views, *view(&requests[i]))
	}

	totalPages := 0
	if params.PageSize > 0 {
		totalPages = int(total) / params.PageSize
		if int(total)%params.PageSize > 0 {
			totalPages++
		}
	}

	return &ListResult{
		Items:      views,
		Total:      total,
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalPages: totalPages,
	}, nil
}

// UpdateRequestInput 编辑申请单请求，携带读取时的version做乐观并发检查
type UpdateRequestInput struct {
	Title        *string                `json:"title"`
	Items        *[]entity.MaterialItem `json:"items"`
	TicketNumber *string                `json:"ticket_number"`
	Zone         *string                `json:"zone"`
	Description  *string                `json:"description"`
	Version      int                    `json:"version" binding:"required"`
}

// Update edits the pending-only fields. Once a request has left pending
// these are read-only; a stale version is rejected with ErrStaleWrite.
func (s *RequestService) Update(ctx context.Context, id string, input *UpdateRequestInput) (*RequestView, error) {
	req, err := s.requests.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !lifecycle.Editable(req) {
		return nil, lifecycle.ErrNotEditable
	}
	if input.Version != req.Version {
		return nil, repository.ErrStaleWrite
	}

	if input.Title != nil {
		req.Title = *input.Title
	}
	if input.TicketNumber != nil {
		req.TicketNumber = *input.TicketNumber
	}
	if input.Zone != nil {
		req.Zone = *input.Zone
	}
	if input.Description != nil {
		req.Description = *input.Description
	}
	if input.Items != nil {
		items := pruneBlankRows(*input.Items)
		if err := lifecycle.ValidateSubmit(req.RequestType, items); err != nil {
			return nil, err
		}
		for i := range items {
			if items[i].ID == "" {
				items[i].ID = uuid.New().String()[:8]
			}
		}
		req.Items = items
	}

	if err := s.requests.Update(ctx, req); err != nil {
		return nil, err
	}
	return view(req), nil
}

// ApproveInput 审批请求：可为每行填写批准数量
type ApproveInput struct {
	ApprovedQtys map[string]float64 `json:"approved_qtys"`
	Version      int                `json:"version" binding:"required"`
}

// Approve 区域经理批准申请单。未填写的批准数量回落到申请数量。
func (s *RequestService) Approve(ctx context.Context, actor Actor, id string, input *ApproveInput) (*RequestView, error) {
	req, err := s.requests.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	next, err := lifecycle.Transition(req, lifecycle.EventApprove, actor.Department)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.ValidateSubmit(req.RequestType, req.Items); err != nil {
		return nil, fmt.Errorf("request is not approvable: %w", err)
	}
	if input.Version != req.Version {
		return nil, repository.ErrStaleWrite
	}

	for i := range req.Items {
		if qty, ok := input.ApprovedQtys[req.Items[i].ID]; ok && qty > 0 {
			req.Items[i].ApprovedQty = &qty
		}
	}
	lifecycle.ApplyApprovalDefaults(req.Items)

	now := time.Now()
	req.Status = next
	req.ApprovedAt = &now

	// items and status land in one version-checked write; no window where
	// the quantities are saved but the status is not
	if err := s.requests.Update(ctx, req); err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, notifier.Payload{
		EventType:         notifier.EventMRApproved,
		Zone:              req.Zone,
		Request:           requestMeta(req),
		TargetDepartments: []string{entity.DeptStoreManager},
		ExtraRecipients:   requesterEmails(req),
	})
	return view(req), nil
}

// Reject 区域经理驳回申请单，终态
func (s *RequestService) Reject(ctx context.Context, actor Actor, id string, version int) (*RequestView, error) {
	req, err := s.requests.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	next, err := lifecycle.Transition(req, lifecycle.EventReject, actor.Department)
	if err != nil {
		return nil, err
	}
	if version != req.Version {
		return nil, repository.ErrStaleWrite
	}

	req.Status = next
	if err := s.requests.Update(ctx, req); err != nil {
		return nil, err
	}
	return view(req), nil
}

// StartProcessing 店长开始备料：approved → in-process
func (s *RequestService) StartProcessing(ctx context.Context, actor Actor, id string, version int) (*RequestView, error) {
	req, err := s.requests.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	next, err := lifecycle.Transition(req, lifecycle.EventStartProcessing, actor.Department)
	if err != nil {
		return nil, err
	}
	if version != req.Version {
		return nil, repository.ErrStaleWrite
	}

	req.Status = next
	if err := s.requests.Update(ctx, req); err != nil {
		return nil, err
	}
	return view(req), nil
}

// DispatchInput 发货请求。MRFNos/MIFNos为店长备料时逐行填写的单据编号，
// 按物料行ID索引。
type DispatchInput struct {
	TransportMode string             `json:"transport_mode" binding:"required"`
	CourierName   string             `json:"courier_name"`
	EDT           string             `json:"edt"` // ISO date
	TrackingNo    string             `json:"tracking_no"`
	SentQtys      map[string]float64 `json:"sent_qtys"`
	MRFNos        map[string]string  `json:"mrf_nos"`
	MIFNos        map[string]string  `json:"mif_nos"`
	Version       int                `json:"version" binding:"required"`
}

// Dispatch 店长发货。运输校验在任何写入之前完成：Train/Bus必须有EDT，
// Courier必须有快递公司和运单号。
func (s *RequestService) Dispatch(ctx context.Context, actor Actor, id string, input *DispatchInput) (*RequestView, error) {
	if err := lifecycle.ValidateDispatch(lifecycle.DispatchDetails{
		TransportMode: input.TransportMode,
		CourierName:   input.CourierName,
		EDT:           input.EDT,
		TrackingNo:    input.TrackingNo,
	}); err != nil {
		return nil, err
	}

	var edt *time.Time
	if input.EDT != "" {
		parsed, err := parseDate(input.EDT)
		if err != nil {
			return nil, fmt.Errorf("invalid EDT: %w", err)
		}
		edt = &parsed
	}

	req, err := s.requests.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	next, err := lifecycle.Transition(req, lifecycle.EventDispatch, actor.Department)
	if err != nil {
		return nil, err
	}
	if input.Version != req.Version {
		return nil, repository.ErrStaleWrite
	}

	for i := range req.Items {
		it := &req.Items[i]
		if qty, ok := input.SentQtys[it.ID]; ok && qty > 0 {
			it.SentQty = &qty
		}
		if no, ok := input.MRFNos[it.ID]; ok && no != "" {
			it.MRFNo = no
		}
		// MIF numbers only exist for store-sourced items
		if no, ok := input.MIFNos[it.ID]; ok && no != "" && it.Source == entity.SourceStore {
			it.MIFNo = no
		}
	}

	now := time.Now()
	req.Status = next
	req.TransportMode = input.TransportMode
	req.CourierName = input.CourierName
	req.EDT = edt
	req.TrackingNo = input.TrackingNo
	req.SentAt = &now

	if err := s.requests.Update(ctx, req); err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, notifier.Payload{
		EventType:         notifier.EventMRItemsSent,
		Zone:              req.Zone,
		Request:           requestMeta(req),
		TargetDepartments: []string{entity.DeptStoreManager},
		ExtraRecipients:   requesterEmails(req),
	})
	return view(req), nil
}

// ReceiptInput 收货确认请求。ReceivedQtys为勾选前手工修改过的实收数量。
type ReceiptInput struct {
	ReceivedItemIDs []string           `json:"received_item_ids"`
	ReceivedQtys    map[string]float64 `json:"received_qtys"`
	Version         int                `json:"version" binding:"required"`
}

// ReceiptOutcome 收货确认结果
type ReceiptOutcome struct {
	Request      *RequestView `json:"request"`
	MissingCount int          `json:"missing_count"`
}

// ConfirmReceipt finalizes an MR delivery. Unchecked items get the
// automatic missing remark; they never block the transition, but the count
// is reported back for the caller to surface.
func (s *RequestService) ConfirmReceipt(ctx context.Context, actor Actor, id string, input *ReceiptInput) (*ReceiptOutcome, error) {
	req, err := s.requests.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	next, err := lifecycle.Transition(req, lifecycle.EventConfirmReceipt, actor.Department)
	if err != nil {
		return nil, err
	}
	if input.Version != req.Version {
		return nil, repository.ErrStaleWrite
	}

	received := make(map[string]bool, len(input.ReceivedItemIDs))
	for _, itemID := range input.ReceivedItemIDs {
		received[itemID] = true
	}
	for i := range req.Items {
		it := &req.Items[i]
		if qty, ok := input.ReceivedQtys[it.ID]; ok && qty > 0 && received[it.ID] && it.ReceivedAt == nil {
			it.ReceivedQty = &qty
		}
	}

	now := time.Now()
	result := lifecycle.ConfirmReceipt(req.Items, received, now)

	req.Status = next
	req.ReceivedAt = &now
	if err := s.requests.Update(ctx, req); err != nil {
		return nil, err
	}

	if result.MissingCount > 0 {
		s.logger.Warn("items missing on receipt",
			zap.String("request_id", req.ID),
			zap.Int("missing", result.MissingCount))
	}

	s.notifier.Notify(ctx, notifier.Payload{
		EventType:         notifier.EventMRItemsSent,
		Zone:              req.Zone,
		Request:           requestMeta(req),
		TargetDepartments: []string{entity.DeptStoreManager},
	})

	return &ReceiptOutcome{Request: view(req), MissingCount: result.MissingCount}, nil
}

// ReturnReceivedInput 退料收货请求
type ReturnReceivedInput struct {
	ItemID      string   `json:"item_id" binding:"required"`
	ReceivedQty *float64 `json:"received_qty"`
	Version     int      `json:"version" binding:"required"`
}

// MarkReturnReceived 店长确认收到一件退料。首次收货会把申请单推进到
// mrc-needed，之后每行的receivedAt只能写一次。
func (s *RequestService) MarkReturnReceived(ctx context.Context, actor Actor, id string, input *ReturnReceivedInput) (*RequestView, error) {
	req, err := s.requests.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	next, err := lifecycle.Transition(req, lifecycle.EventMarkReceived, actor.Department)
	if err != nil {
		return nil, err
	}
	if input.Version != req.Version {
		return nil, repository.ErrStaleWrite
	}

	now := time.Now()
	if err := lifecycle.MarkReturnReceived(req.Items, input.ItemID, input.ReceivedQty, now); err != nil {
		return nil, err
	}

	req.Status = next
	if req.ReceivedAt == nil {
		req.ReceivedAt = &now
	}
	if err := s.requests.Update(ctx, req); err != nil {
		return nil, err
	}
	return view(req), nil
}

// MRCNumbersInput MRC编号录入请求
type MRCNumbersInput struct {
	Numbers map[string]string `json:"numbers" binding:"required"`
	Version int               `json:"version" binding:"required"`
}

// EnterMRCNumbers records MRC numbers for received items. Once every
// received item carries one the request completes to delivered.
func (s *RequestService) EnterMRCNumbers(ctx context.Context, actor Actor, id string, input *MRCNumbersInput) (*RequestView, error) {
	req, err := s.requests.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.RequestType != entity.RequestTypeMRC {
		return nil, fmt.Errorf("%w: MRC numbers apply to MRC requests only", lifecycle.ErrWrongRequestType)
	}
	if req.Status != entity.StatusMRCNeeded {
		return nil, fmt.Errorf("%w: request is %s, not %s",
			lifecycle.ErrIllegalTransition, req.Status, entity.StatusMRCNeeded)
	}
	if input.Version != req.Version {
		return nil, repository.ErrStaleWrite
	}

	lifecycle.SetMRCNumbers(req.Items, input.Numbers)

	if lifecycle.AllReturnsClosed(req.Items) {
		next, err := lifecycle.Transition(req, lifecycle.EventCompleteReturn, actor.Department)
		if err != nil {
			return nil, err
		}
		req.Status = next
	}

	if err := s.requests.Update(ctx, req); err != nil {
		return nil, err
	}
	return view(req), nil
}

// Delete 物理删除申请单，仅限区域经理
func (s *RequestService) Delete(ctx context.Context, actor Actor, id string) error {
	if actor.Department != entity.DeptRegionalManager && actor.Department != entity.DeptAdmin {
		return fmt.Errorf("%w: only regional managers can delete requests", lifecycle.ErrWrongDepartment)
	}
	return s.requests.Delete(ctx, id)
}

func requestMeta(req *entity.MaterialRequest) notifier.RequestMeta {
	return notifier.RequestMeta{
		ID:             req.ID,
		Title:          req.Title,
		TicketNumber:   req.TicketNumber,
		Zone:           req.Zone,
		Description:    req.Description,
		Status:         req.Status,
		RequestedBy:    req.RequestedBy,
		RequesterEmail: req.RequesterEmail,
	}
}

func requesterEmails(req *entity.MaterialRequest) []string {
	if req.RequesterEmail == "" {
		return nil
	}
	return []string{req.RequesterEmail}
}

// pruneBlankRows drops all-blank item rows before validation so a form
// padded with empty lines does not fail or persist junk.
func pruneBlankRows(items []entity.MaterialItem) entity.MaterialItems {
	out := make(entity.MaterialItems, 0, len(items))
	for _, it := range items {
		if strings.TrimSpace(it.Description) == "" && it.Quantity == 0 && it.ReturnQty == nil {
			continue
		}
		out = append(out, it)
	}
	return out
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
