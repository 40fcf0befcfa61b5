// Package notifier maps lifecycle events to email notifications. Sends are
// decoupled from the triggering transition through a database outbox: the
// caller enqueues and moves on; a background dispatcher delivers with
// at-least-once semantics. A notification failure never fails the primary
// action.
package notifier

import (
	"context"

	"github.com/fieldstack/matflow/internal/model/entity"
	"github.com/fieldstack/matflow/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventType 通知事件类型
type EventType string

const (
	EventMRCreatedByEngineer EventType = "MR_CREATED_BY_ENGINEER"
	EventMRCreatedByRM       EventType = "MR_CREATED_BY_RM"
	EventMRApproved          EventType = "MR_APPROVED"
	// EventMRItemsSent covers both "sent" and "delivered"; the wording
	// switches on the request's status field.
	EventMRItemsSent EventType = "MR_ITEMS_SENT"
	EventMRCCreated  EventType = "MRC_CREATED"
	// EventMRCOverdue is raised by the daily scan, not by a transition.
	EventMRCOverdue EventType = "MRC_OVERDUE_REMINDER"
)

// RequestMeta 通知携带的申请单元数据
type RequestMeta struct {
	ID             string `json:"id,omitempty"`
	Title          string `json:"title,omitempty"`
	TicketNumber   string `json:"ticketNumber,omitempty"`
	Zone           string `json:"zone,omitempty"`
	Description    string `json:"description,omitempty"`
	Status         string `json:"status,omitempty"`
	RequestedBy    string `json:"requestedBy,omitempty"`
	RequesterEmail string `json:"requesterEmail,omitempty"`
}

// Payload 一次通知的完整描述
type Payload struct {
	EventType         EventType
	Zone              string
	Request           RequestMeta
	TargetDepartments []string
	ExtraRecipients   []string
}

// Notifier resolves recipients and enqueues outbox emails.
type Notifier struct {
	profiles *repository.ProfileRepository
	outbox   *repository.OutboxRepository
	logger   *zap.Logger
}

// NewNotifier 创建通知服务
func NewNotifier(profiles *repository.ProfileRepository, outbox *repository.OutboxRepository, logger *zap.Logger) *Notifier {
	return &Notifier{profiles: profiles, outbox: outbox, logger: logger}
}

// Notify resolves the recipient list and enqueues one outbox email.
// Best-effort: every failure is logged and swallowed so the triggering
// state transition is never rolled back or failed.
func (n *Notifier) Notify(ctx context.Context, payload Payload) {
	recipients, err := n.resolveRecipients(ctx, payload)
	if err != nil {
		n.logger.Error("notification recipient lookup failed",
			zap.String("event", string(payload.EventType)),
			zap.Error(err))
		return
	}
	if len(recipients) == 0 {
		n.logger.Warn("notification dropped: no recipients",
			zap.String("event", string(payload.EventType)),
			zap.String("zone", payload.Zone))
		return
	}

	email := &entity.OutboxEmail{
		ID:         uuid.New().String()[:32],
		EventType:  string(payload.EventType),
		Recipients: recipients,
		Subject:    SubjectFor(payload.EventType, payload.Request),
		Body:       BodyFor(payload.EventType, payload.Request),
		Status:     entity.OutboxPending,
	}
	if err := n.outbox.Enqueue(ctx, email); err != nil {
		n.logger.Error("notification enqueue failed",
			zap.String("event", string(payload.EventType)),
			zap.Error(err))
		return
	}

	n.logger.Info("notification enqueued",
		zap.String("event", string(payload.EventType)),
		zap.Int("recipients", len(recipients)))
}

// NotifyOverdue enqueues the weekly reminder for a single overdue return
// item. Recipients are resolved by the caller; best-effort like Notify.
func (n *Notifier) NotifyOverdue(ctx context.Context, recipients []string, r RequestMeta, itemDesc string, days int) {
	recipients = Dedup(recipients)
	if len(recipients) == 0 {
		n.logger.Warn("overdue reminder dropped: no recipients",
			zap.String("request_id", r.ID))
		return
	}

	email := &entity.OutboxEmail{
		ID:         uuid.New().String()[:32],
		EventType:  string(EventMRCOverdue),
		Recipients: recipients,
		Subject:    OverdueSubject(r, days),
		Body:       OverdueBody(r, itemDesc, days),
		Status:     entity.OutboxPending,
	}
	if err := n.outbox.Enqueue(ctx, email); err != nil {
		n.logger.Error("overdue reminder enqueue failed",
			zap.String("request_id", r.ID),
			zap.Error(err))
		return
	}

	n.logger.Info("overdue reminder enqueued",
		zap.String("request_id", r.ID),
		zap.Int("days", days),
		zap.Int("recipients", len(recipients)))
}

func (n *Notifier) resolveRecipients(ctx context.Context, payload Payload) ([]string, error) {
	zone := payload.Zone
	if zone == "" {
		zone = payload.Request.Zone
	}

	out := append([]string{}, payload.ExtraRecipients...)
	for _, dept := range payload.TargetDepartments {
		emails, err := n.profiles.EmailsByDepartmentZone(ctx, dept, zone)
		if err != nil {
			return nil, err
		}
		out = append(out, emails...)
	}
	return Dedup(out), nil
}

// Dedup removes blanks and duplicates, preserving first-seen order.
func Dedup(emails []string) []string {
	seen := make(map[string]bool, len(emails))
	out := make([]string, 0, len(emails))
	for _, e := range emails {
		if e == "" || seen[e] {
			continue
		}
		seen[e] = true
		out = append(out, e)
	}
	return out
}
