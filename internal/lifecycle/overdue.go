package lifecycle

import (
	"time"

	"github.com/fieldstack/matflow/internal/model/entity"
)

// Overdue warning thresholds in days since the item was received.
const (
	DueSoonAfterDays = 5
	OverdueAfterDays = 7
)

// Overdue classification values
const (
	WarnNone    = ""
	WarnDueSoon = "due-soon"
	WarnOverdue = "overdue"
)

// DaysSinceReceived is floor((now - receivedAt) / 1 day).
func DaysSinceReceived(receivedAt, now time.Time) int {
	if now.Before(receivedAt) {
		return 0
	}
	return int(now.Sub(receivedAt) / (24 * time.Hour))
}

// ClassifyOverdue maps days-since-received onto a warning level: [5,7) is
// due-soon, >=7 is overdue.
func ClassifyOverdue(days int) string {
	switch {
	case days >= OverdueAfterDays:
		return WarnOverdue
	case days >= DueSoonAfterDays:
		return WarnDueSoon
	default:
		return WarnNone
	}
}

// ShouldAutoNotify gates automated overdue dispatch to exact multiples of 7
// days so the daily scan does not repeat the reminder every day (fires on
// day 7, 14, 21, …).
func ShouldAutoNotify(days int) bool {
	return days >= OverdueAfterDays && days%OverdueAfterDays == 0
}

// PendingMRCItems returns the items of an mrc-needed request that were
// received but still lack an MRC number.
func PendingMRCItems(items entity.MaterialItems) []entity.MaterialItem {
	var out []entity.MaterialItem
	for i := range items {
		if items[i].ReceivedAt != nil && items[i].MRCNo == "" {
			out = append(out, items[i])
		}
	}
	return out
}
