package notifier

import (
	"strings"
	"testing"

	"github.com/fieldstack/matflow/internal/model/entity"
)

func TestSubjectFor(t *testing.T) {
	withTicket := RequestMeta{TicketNumber: "T-42", Title: "Fiber spares"}
	tests := []struct {
		event EventType
		meta  RequestMeta
		want  string
	}{
		{EventMRCreatedByEngineer, withTicket, "New MR created #T-42"},
		{EventMRCreatedByRM, withTicket, "RM created MR #T-42"},
		{EventMRApproved, withTicket, "MR approved #T-42"},
		{EventMRItemsSent, withTicket, "Items sent #T-42"},
		{EventMRCCreated, withTicket, "New MRC submitted #T-42"},
		// falls back to title, then the generic label
		{EventMRApproved, RequestMeta{Title: "Fiber spares"}, "MR approved Fiber spares"},
		{EventMRApproved, RequestMeta{}, "MR approved Material Request"},
	}
	for _, tt := range tests {
		if got := SubjectFor(tt.event, tt.meta); got != tt.want {
			t.Errorf("SubjectFor(%s) = %q, want %q", tt.event, got, tt.want)
		}
	}
}

func TestBodyForItemsSentWording(t *testing.T) {
	inTransit := BodyFor(EventMRItemsSent, RequestMeta{Status: entity.StatusInTransit})
	if !strings.Contains(inTransit, "dispatched and are now in transit") {
		t.Errorf("in-transit body should use dispatch wording, got %q", inTransit)
	}

	delivered := BodyFor(EventMRItemsSent, RequestMeta{Status: entity.StatusDelivered})
	if !strings.Contains(delivered, "received and the request is now complete") {
		t.Errorf("delivered body should use completion wording, got %q", delivered)
	}
}

func TestBodyForFields(t *testing.T) {
	body := BodyFor(EventMRApproved, RequestMeta{
		TicketNumber: "T-42",
		Title:        "Fiber spares",
		Zone:         "North",
		RequestedBy:  "asha",
		Status:       entity.StatusApproved,
	})
	for _, want := range []string{"T-42", "Fiber spares", "North", "asha", "APPROVED"} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}

	// zone falls back to an em dash when absent
	empty := BodyFor(EventMRApproved, RequestMeta{})
	if !strings.Contains(empty, "—") {
		t.Error("body should render a placeholder zone")
	}
}

func TestDedup(t *testing.T) {
	got := Dedup([]string{"a@x.com", "", "b@x.com", "a@x.com", "b@x.com", "c@x.com"})
	want := []string{"a@x.com", "b@x.com", "c@x.com"}
	if len(got) != len(want) {
		t.Fatalf("Dedup() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Dedup()[%d] = %q, want %q (order must be preserved)", i, got[i], want[i])
		}
	}
}
