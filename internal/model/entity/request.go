package entity

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Request lifecycle status values
const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusInProcess = "in-process"
	StatusInTransit = "in-transit"
	StatusMRCNeeded = "mrc-needed"
	StatusDelivered = "delivered"
	StatusRejected  = "rejected"
)

// Request type values
const (
	RequestTypeMR  = "MR"
	RequestTypeMRC = "MRC"
)

// Transport mode values
const (
	TransportTrain   = "Train"
	TransportBus     = "Bus"
	TransportCourier = "Courier"
)

// Item source values
const (
	SourceStore        = "Store"
	SourceCSD          = "CSD"
	SourceSitePurchase = "Site Purchase"
)

// Item urgency values
const (
	UrgencyLow    = "Low"
	UrgencyMedium = "Medium"
	UrgencyHigh   = "High"
)

// MaterialItem 物料行 —— one row of a request, stored inside the parent's
// items jsonb column. Field names match the client payload (camelCase).
type MaterialItem struct {
	ID          string     `json:"id"`
	Description string     `json:"description"`
	Quantity    float64    `json:"quantity"`
	Source      string     `json:"source"`
	Urgency     string     `json:"urgency"`
	ApprovedQty *float64   `json:"approvedQty,omitempty"`
	SentQty     *float64   `json:"sentQty,omitempty"`
	ReturnQty   *float64   `json:"returnQty,omitempty"`
	ReceivedQty *float64   `json:"receivedQty,omitempty"`
	ReceivedAt  *time.Time `json:"receivedAt,omitempty"`
	MRCNo       string     `json:"mrcNo,omitempty"`
	MRFNo       string     `json:"mrfNo,omitempty"`
	MIFNo       string     `json:"mifNo,omitempty"`
	Remarks     string     `json:"remarks,omitempty"`
}

// MaterialItems 物料行集合，按插入顺序保存为jsonb数组
type MaterialItems []MaterialItem

func (m MaterialItems) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func (m *MaterialItems) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, m)
}

// MaterialRequest 物料申请单 —— MR（领料）/ MRC（退料）
type MaterialRequest struct {
	ID             string        `json:"id" gorm:"primaryKey;size:32"`
	SeqID          int64         `json:"seqId" gorm:"column:seq_id;uniqueIndex"`
	Title          string        `json:"title" gorm:"size:200;not null"`
	RequestType    string        `json:"requestType" gorm:"column:request_type;size:8;not null;default:MR"`
	Items          MaterialItems `json:"items" gorm:"type:jsonb"`
	RequestedBy    string        `json:"requestedBy" gorm:"column:requested_by;size:100;not null"`
	RequesterID    string        `json:"requesterId" gorm:"column:requester_id;size:32;index"`
	RequesterEmail string        `json:"requesterEmail" gorm:"column:requester_email;size:200"`
	Zone           string        `json:"zone" gorm:"size:50;index"`
	Status         string        `json:"status" gorm:"size:20;not null;default:pending;index"`
	TicketNumber   string        `json:"ticketNumber" gorm:"column:ticket_number;size:50"`
	Description    string        `json:"description" gorm:"type:text"`
	TransportMode  string        `json:"transportMode" gorm:"column:transport_mode;size:20"`
	CourierName    string        `json:"courierName" gorm:"column:courier_name;size:100"`
	EDT            *time.Time    `json:"edt" gorm:"column:edt"`
	TrackingNo     string        `json:"trackingNo" gorm:"column:tracking_no;size:100"`
	Version        int           `json:"version" gorm:"not null;default:1"`
	CreatedAt      time.Time     `json:"createdAt" gorm:"column:created_at"`
	UpdatedAt      time.Time     `json:"updatedAt" gorm:"column:updated_at"`
	ApprovedAt     *time.Time    `json:"approvedAt" gorm:"column:approved_at"`
	SentAt         *time.Time    `json:"sentAt" gorm:"column:sent_at"`
	ReceivedAt     *time.Time    `json:"receivedAt" gorm:"column:received_at"`
}

func (MaterialRequest) TableName() string {
	return "material_requests"
}

// Code renders the human-readable sequence number, e.g. MR-003 / MRC-003.
func (r *MaterialRequest) Code() string {
	prefix := "MR"
	if r.RequestType == RequestTypeMRC {
		prefix = "MRC"
	}
	if r.SeqID == 0 {
		return prefix
	}
	return fmt.Sprintf("%s-%03d", prefix, r.SeqID)
}
