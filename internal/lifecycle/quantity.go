package lifecycle

import (
	"errors"
	"time"

	"github.com/fieldstack/matflow/internal/model/entity"
)

// MissingRemark is appended to any item the recipient never checked as
// received when the receipt is finalized.
const MissingRemark = "Missing on receipt"

var ErrAlreadyReceived = errors.New("item already marked received")

// ApplyApprovalDefaults fills approvedQty for every item the approver left
// unset, defaulting to the requested quantity. Items are mutated in place.
func ApplyApprovalDefaults(items entity.MaterialItems) {
	for i := range items {
		if items[i].ApprovedQty == nil {
			qty := items[i].Quantity
			items[i].ApprovedQty = &qty
		}
	}
}

// ReceiptResult summarizes a receipt confirmation.
type ReceiptResult struct {
	MissingCount int
}

// ConfirmReceipt finalizes an MR receipt. Items whose IDs appear in
// receivedIDs get receivedQty (an explicitly edited value wins, otherwise
// defaulting to sentQty, then quantity) and a receivedAt stamp; every other
// item gets the missing remark appended to its existing remarks with " | ".
// Missing items never block delivery — the count is reported so the caller
// can surface it.
func ConfirmReceipt(items entity.MaterialItems, receivedIDs map[string]bool, now time.Time) ReceiptResult {
	var result ReceiptResult
	for i := range items {
		it := &items[i]
		if it.ReceivedAt != nil {
			// one-way flag; re-confirming a received item is a no-op
			continue
		}
		if receivedIDs[it.ID] {
			if it.ReceivedQty == nil {
				qty := receivedQuantity(it)
				it.ReceivedQty = &qty
			}
			ts := now
			it.ReceivedAt = &ts
			continue
		}
		result.MissingCount++
		if it.Remarks != "" {
			it.Remarks = it.Remarks + " | " + MissingRemark
		} else {
			it.Remarks = MissingRemark
		}
	}
	return result
}

// MarkReturnReceived stamps a single MRC item as received. The flag is
// one-way: a second call for the same item fails.
func MarkReturnReceived(items entity.MaterialItems, itemID string, receivedQty *float64, now time.Time) error {
	for i := range items {
		it := &items[i]
		if it.ID != itemID {
			continue
		}
		if it.ReceivedAt != nil {
			return ErrAlreadyReceived
		}
		qty := returnReceivedQuantity(it)
		if receivedQty != nil && *receivedQty > 0 {
			qty = *receivedQty
		}
		it.ReceivedQty = &qty
		ts := now
		it.ReceivedAt = &ts
		return nil
	}
	return errors.New("item not found")
}

// SetMRCNumbers records MRC numbers keyed by item ID. Only received items
// accept one; blanks are ignored.
func SetMRCNumbers(items entity.MaterialItems, numbers map[string]string) {
	for i := range items {
		it := &items[i]
		if no, ok := numbers[it.ID]; ok && no != "" && it.ReceivedAt != nil {
			it.MRCNo = no
		}
	}
}

// AllReturnsClosed reports whether every received item carries an MRC number.
// An MRC request may only reach delivered when this holds.
func AllReturnsClosed(items entity.MaterialItems) bool {
	received := 0
	for i := range items {
		if items[i].ReceivedAt == nil {
			continue
		}
		received++
		if items[i].MRCNo == "" {
			return false
		}
	}
	return received > 0
}

// Delivery state derived from the fraction of items with receivedAt set.
// Presentation-only; the stored status stays the single source of truth.
const (
	DeliveryNone    = "none"
	DeliveryPartial = "partially-delivered"
	DeliveryFull    = "delivered"
)

// DeliveryState recomputes the derived delivery state from items.
func DeliveryState(items entity.MaterialItems) string {
	if len(items) == 0 {
		return DeliveryNone
	}
	received := 0
	for i := range items {
		if items[i].ReceivedAt != nil {
			received++
		}
	}
	switch received {
	case 0:
		return DeliveryNone
	case len(items):
		return DeliveryFull
	default:
		return DeliveryPartial
	}
}

// receivedQuantity picks the MR receipt default: sentQty, then quantity.
func receivedQuantity(it *entity.MaterialItem) float64 {
	if it.SentQty != nil && *it.SentQty > 0 {
		return *it.SentQty
	}
	return it.Quantity
}

// returnReceivedQuantity picks the MRC receipt default: sentQty, then
// returnQty, then 1.
func returnReceivedQuantity(it *entity.MaterialItem) float64 {
	if it.SentQty != nil && *it.SentQty > 0 {
		return *it.SentQty
	}
	if it.ReturnQty != nil && *it.ReturnQty > 0 {
		return *it.ReturnQty
	}
	return 1
}
