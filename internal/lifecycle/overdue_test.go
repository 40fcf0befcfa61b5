package lifecycle

import (
	"testing"
	"time"

	"github.com/fieldstack/matflow/internal/model/entity"
)

func TestDaysSinceReceived(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name     string
		received time.Time
		want     int
	}{
		{"same moment", now, 0},
		{"23 hours", now.Add(-23 * time.Hour), 0},
		{"25 hours", now.Add(-25 * time.Hour), 1},
		{"exactly 5 days", now.AddDate(0, 0, -5), 5},
		{"6.9 days", now.Add(-(6*24 + 22) * time.Hour), 6},
		{"14 days", now.AddDate(0, 0, -14), 14},
		{"future receivedAt", now.Add(time.Hour), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DaysSinceReceived(tt.received, now); got != tt.want {
				t.Errorf("DaysSinceReceived() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestClassifyOverdue(t *testing.T) {
	tests := []struct {
		days int
		want string
	}{
		{0, WarnNone},
		{4, WarnNone},
		{5, WarnDueSoon},
		{6, WarnDueSoon},
		{7, WarnOverdue},
		{8, WarnOverdue},
		{13, WarnOverdue},
		{21, WarnOverdue},
	}
	for _, tt := range tests {
		if got := ClassifyOverdue(tt.days); got != tt.want {
			t.Errorf("ClassifyOverdue(%d) = %q, want %q", tt.days, got, tt.want)
		}
	}
}

func TestShouldAutoNotify(t *testing.T) {
	// fires on day 7, 14, 21, … only, to avoid daily repeat spam
	tests := []struct {
		days int
		want bool
	}{
		{0, false},
		{5, false},
		{6, false},
		{7, true},
		{8, false},
		{13, false},
		{14, true},
		{21, true},
		{22, false},
	}
	for _, tt := range tests {
		if got := ShouldAutoNotify(tt.days); got != tt.want {
			t.Errorf("ShouldAutoNotify(%d) = %v, want %v", tt.days, got, tt.want)
		}
	}
}

func TestPendingMRCItems(t *testing.T) {
	now := time.Now()
	items := entity.MaterialItems{
		{ID: "a", ReceivedAt: &now},                 // pending: received, no MRC no.
		{ID: "b", ReceivedAt: &now, MRCNo: "MRC-1"}, // closed
		{ID: "c"},                                   // never received
	}
	pending := PendingMRCItems(items)
	if len(pending) != 1 || pending[0].ID != "a" {
		t.Errorf("want only item a pending, got %+v", pending)
	}
}
