package lifecycle

import (
	"errors"
	"testing"
	"time"

	"github.com/fieldstack/matflow/internal/model/entity"
)

func fp(v float64) *float64 { return &v }

func TestApplyApprovalDefaults(t *testing.T) {
	items := entity.MaterialItems{
		{ID: "a", Description: "Cable", Quantity: 10},
		{ID: "b", Description: "Router", Quantity: 4, ApprovedQty: fp(2)},
	}

	ApplyApprovalDefaults(items)

	if items[0].ApprovedQty == nil || *items[0].ApprovedQty != 10 {
		t.Errorf("unset approvedQty should default to quantity, got %v", items[0].ApprovedQty)
	}
	if *items[1].ApprovedQty != 2 {
		t.Errorf("explicit approvedQty must be kept, got %v", *items[1].ApprovedQty)
	}
}

func TestConfirmReceiptDefaultsAndMissing(t *testing.T) {
	now := time.Now()
	items := entity.MaterialItems{
		{ID: "a", Description: "Cable", Quantity: 10, SentQty: fp(8)},
		{ID: "b", Description: "Router", Quantity: 4},
		{ID: "c", Description: "Switch", Quantity: 2, Remarks: "fragile"},
	}

	result := ConfirmReceipt(items, map[string]bool{"a": true, "b": true}, now)

	if result.MissingCount != 1 {
		t.Fatalf("want 1 missing item, got %d", result.MissingCount)
	}
	if items[0].ReceivedQty == nil || *items[0].ReceivedQty != 8 {
		t.Errorf("receivedQty should default to sentQty, got %v", items[0].ReceivedQty)
	}
	if items[1].ReceivedQty == nil || *items[1].ReceivedQty != 4 {
		t.Errorf("receivedQty should fall back to quantity, got %v", items[1].ReceivedQty)
	}
	if items[0].ReceivedAt == nil || items[1].ReceivedAt == nil {
		t.Error("received items must carry receivedAt")
	}
	if items[2].ReceivedAt != nil {
		t.Error("missing item must not carry receivedAt")
	}
	if items[2].Remarks != "fragile | "+MissingRemark {
		t.Errorf("missing remark should append to existing remarks, got %q", items[2].Remarks)
	}
}

func TestConfirmReceiptMissingRemarkOnEmpty(t *testing.T) {
	items := entity.MaterialItems{{ID: "a", Description: "Cable", Quantity: 1}}
	ConfirmReceipt(items, nil, time.Now())
	if items[0].Remarks != MissingRemark {
		t.Errorf("want bare missing remark, got %q", items[0].Remarks)
	}
}

func TestConfirmReceiptKeepsEditedQty(t *testing.T) {
	items := entity.MaterialItems{
		{ID: "a", Description: "Cable", Quantity: 10, SentQty: fp(8), ReceivedQty: fp(6)},
	}

	ConfirmReceipt(items, map[string]bool{"a": true}, time.Now())

	if *items[0].ReceivedQty != 6 {
		t.Errorf("explicitly edited receivedQty must win over defaults, got %v", *items[0].ReceivedQty)
	}
}

func TestConfirmReceiptIdempotent(t *testing.T) {
	first := time.Now().Add(-time.Hour)
	items := entity.MaterialItems{
		{ID: "a", Description: "Cable", Quantity: 1, ReceivedQty: fp(1), ReceivedAt: &first},
	}

	result := ConfirmReceipt(items, map[string]bool{"a": true}, time.Now())

	if result.MissingCount != 0 {
		t.Errorf("already-received item is not missing, got %d", result.MissingCount)
	}
	if !items[0].ReceivedAt.Equal(first) {
		t.Error("receivedAt must not be overwritten on re-confirm")
	}
}

func TestMarkReturnReceived(t *testing.T) {
	now := time.Now()
	items := entity.MaterialItems{
		{ID: "a", Description: "Old Switch", ReturnQty: fp(2)},
	}

	if err := MarkReturnReceived(items, "a", nil, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if items[0].ReceivedQty == nil || *items[0].ReceivedQty != 2 {
		t.Errorf("receivedQty should default to returnQty, got %v", items[0].ReceivedQty)
	}
	if items[0].ReceivedAt == nil {
		t.Fatal("receivedAt not set")
	}

	// one-way flag
	err := MarkReturnReceived(items, "a", nil, now.Add(time.Minute))
	if !errors.Is(err, ErrAlreadyReceived) {
		t.Errorf("re-marking must fail with ErrAlreadyReceived, got %v", err)
	}

	if err := MarkReturnReceived(items, "nope", nil, now); err == nil {
		t.Error("unknown item must fail")
	}
}

func TestMarkReturnReceivedExplicitQty(t *testing.T) {
	items := entity.MaterialItems{{ID: "a", Description: "Old Switch", ReturnQty: fp(5)}}
	if err := MarkReturnReceived(items, "a", fp(3), time.Now()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *items[0].ReceivedQty != 3 {
		t.Errorf("explicit receivedQty should win, got %v", *items[0].ReceivedQty)
	}
}

func TestSetMRCNumbersAndAllReturnsClosed(t *testing.T) {
	now := time.Now()
	items := entity.MaterialItems{
		{ID: "a", Description: "Old Switch", ReceivedAt: &now},
		{ID: "b", Description: "Old Router", ReceivedAt: &now},
		{ID: "c", Description: "Never received"},
	}

	if AllReturnsClosed(items) {
		t.Error("returns are not closed without MRC numbers")
	}

	SetMRCNumbers(items, map[string]string{"a": "MRC-5", "c": "MRC-9"})
	if items[0].MRCNo != "MRC-5" {
		t.Errorf("received item should take MRC number, got %q", items[0].MRCNo)
	}
	if items[2].MRCNo != "" {
		t.Error("unreceived item must not take an MRC number")
	}
	if AllReturnsClosed(items) {
		t.Error("one received item still lacks an MRC number")
	}

	SetMRCNumbers(items, map[string]string{"b": "MRC-6"})
	if !AllReturnsClosed(items) {
		t.Error("all received items carry MRC numbers; returns should be closed")
	}
}

func TestAllReturnsClosedNothingReceived(t *testing.T) {
	items := entity.MaterialItems{{ID: "a", Description: "Old Switch"}}
	if AllReturnsClosed(items) {
		t.Error("a request with nothing received cannot be closed")
	}
}

func TestDeliveryState(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name  string
		items entity.MaterialItems
		want  string
	}{
		{"empty", nil, DeliveryNone},
		{"none received", entity.MaterialItems{{ID: "a"}, {ID: "b"}}, DeliveryNone},
		{"some received", entity.MaterialItems{{ID: "a", ReceivedAt: &now}, {ID: "b"}}, DeliveryPartial},
		{"all received", entity.MaterialItems{{ID: "a", ReceivedAt: &now}, {ID: "b", ReceivedAt: &now}}, DeliveryFull},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeliveryState(tt.items); got != tt.want {
				t.Errorf("DeliveryState() = %q, want %q", got, tt.want)
			}
		})
	}
}
