package notifier

import (
	"fmt"
	"strings"

	"github.com/fieldstack/matflow/internal/model/entity"
)

// ticketRef renders the reference shown in subjects: the ticket number
// prefixed with '#', falling back to the title, then a generic label.
func ticketRef(r RequestMeta) string {
	if r.TicketNumber != "" {
		return "#" + r.TicketNumber
	}
	if r.Title != "" {
		return r.Title
	}
	return "Material Request"
}

// SubjectFor 生成邮件主题
func SubjectFor(event EventType, r RequestMeta) string {
	ref := ticketRef(r)
	switch event {
	case EventMRCreatedByEngineer:
		return "New MR created " + ref
	case EventMRCreatedByRM:
		return "RM created MR " + ref
	case EventMRApproved:
		return "MR approved " + ref
	case EventMRItemsSent:
		return "Items sent " + ref
	case EventMRCCreated:
		return "New MRC submitted " + ref
	default:
		return "Material request update " + ref
	}
}

func leadFor(event EventType, r RequestMeta) string {
	switch event {
	case EventMRCreatedByEngineer:
		return "A new Material Request has been raised by an Engineer."
	case EventMRCreatedByRM:
		return "A Regional Manager has created a Material Request."
	case EventMRApproved:
		return "A Material Request has been approved and is ready for processing."
	case EventMRItemsSent:
		switch r.Status {
		case entity.StatusInTransit:
			return "Items have been dispatched and are now in transit."
		case entity.StatusDelivered:
			return "Items have been received and the request is now complete."
		default:
			return "The Store Manager has updated the item status."
		}
	case EventMRCCreated:
		return "A new Material Return (MRC) has been submitted."
	default:
		return "A material request has been updated."
	}
}

// BodyFor 生成邮件HTML正文
func BodyFor(event EventType, r RequestMeta) string {
	zone := r.Zone
	if zone == "" {
		zone = "—"
	}

	var rows []string
	if r.TicketNumber != "" {
		rows = append(rows, row("Ticket", r.TicketNumber))
	}
	if r.Title != "" {
		rows = append(rows, row("Title", r.Title))
	}
	rows = append(rows, row("Zone", zone))
	if r.RequestedBy != "" {
		rows = append(rows, row("Requested By", r.RequestedBy))
	}
	if r.Status != "" {
		rows = append(rows, row("Status", strings.ToUpper(r.Status)))
	}

	desc := ""
	if r.Description != "" {
		desc = "<p>" + r.Description + "</p>"
	}

	return fmt.Sprintf(`<div style="font-family:system-ui,sans-serif;padding:16px">
  <h2 style="margin:0 0 8px 0">%s</h2>
  %s
  <table cellpadding="6" cellspacing="0" style="margin-top:12px;border-collapse:collapse;border:1px solid #eee">
    <tbody>%s</tbody>
  </table>
  <p style="color:#666;margin-top:12px">This is an automated notification from the Material Management System.</p>
</div>`, leadFor(event, r), desc, strings.Join(rows, ""))
}

// OverdueSubject 逾期退料提醒邮件主题
func OverdueSubject(r RequestMeta, days int) string {
	return fmt.Sprintf("MRC overdue %d days %s", days, ticketRef(r))
}

// OverdueBody 逾期退料提醒邮件正文
func OverdueBody(r RequestMeta, itemDesc string, days int) string {
	zone := r.Zone
	if zone == "" {
		zone = "—"
	}

	rows := []string{
		row("Item", itemDesc),
		row("Days since received", fmt.Sprintf("%d", days)),
		row("Zone", zone),
	}
	if r.TicketNumber != "" {
		rows = append(rows, row("Ticket", r.TicketNumber))
	}
	if r.RequestedBy != "" {
		rows = append(rows, row("Requested By", r.RequestedBy))
	}

	return fmt.Sprintf(`<div style="font-family:system-ui,sans-serif;padding:16px">
  <h2 style="margin:0 0 8px 0">A returned item has been waiting %d days for an MRC number.</h2>
  <table cellpadding="6" cellspacing="0" style="margin-top:12px;border-collapse:collapse;border:1px solid #eee">
    <tbody>%s</tbody>
  </table>
  <p style="color:#666;margin-top:12px">Please enter the MRC number to close out this return.</p>
</div>`, days, strings.Join(rows, ""))
}

func row(label, value string) string {
	return "<tr><td>" + label + "</td><td>" + value + "</td></tr>"
}
