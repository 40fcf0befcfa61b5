// Package lifecycle holds the request status machine and the item-level
// quantity rules. It is pure: no storage, no HTTP, no clock other than the
// one passed in. Every role surface goes through Transition so that illegal
// status changes are rejected at a single choke point instead of by
// convention in each caller.
package lifecycle

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fieldstack/matflow/internal/model/entity"
)

// Event 生命周期事件
type Event string

const (
	EventApprove         Event = "approve"
	EventReject          Event = "reject"
	EventStartProcessing Event = "start-processing"
	EventDispatch        Event = "dispatch"
	EventConfirmReceipt  Event = "confirm-receipt"
	EventMarkReceived    Event = "mark-received"
	EventCompleteReturn  Event = "complete-return"
)

var (
	ErrIllegalTransition = errors.New("illegal status transition")
	ErrWrongDepartment   = errors.New("operation not permitted for department")
	ErrWrongRequestType  = errors.New("operation not valid for request type")
	ErrNotEditable       = errors.New("request is no longer editable")
)

// transition 状态迁移规则
type transition struct {
	from        string
	to          string
	departments []string // acting departments allowed to fire the event
	requestType string   // "" means both MR and MRC
}

// The intended contract of the request lifecycle. The source of record for
// which role may fire which event; handlers only pre-check departments for
// friendlier errors.
var transitions = map[Event]transition{
	EventApprove: {
		from:        entity.StatusPending,
		to:          entity.StatusApproved,
		departments: []string{entity.DeptRegionalManager, entity.DeptAdmin},
	},
	EventReject: {
		from:        entity.StatusPending,
		to:          entity.StatusRejected,
		departments: []string{entity.DeptRegionalManager, entity.DeptAdmin},
	},
	EventStartProcessing: {
		from:        entity.StatusApproved,
		to:          entity.StatusInProcess,
		departments: []string{entity.DeptStoreManager, entity.DeptAdmin},
	},
	EventDispatch: {
		// dispatch is accepted from approved or in-process; see Transition
		from:        entity.StatusApproved,
		to:          entity.StatusInTransit,
		departments: []string{entity.DeptStoreManager, entity.DeptAdmin},
	},
	EventConfirmReceipt: {
		from:        entity.StatusInTransit,
		to:          entity.StatusDelivered,
		departments: []string{entity.DeptEngineer, entity.DeptAdmin},
		requestType: entity.RequestTypeMR,
	},
	EventMarkReceived: {
		from:        entity.StatusInTransit,
		to:          entity.StatusMRCNeeded,
		departments: []string{entity.DeptStoreManager, entity.DeptAdmin},
		requestType: entity.RequestTypeMRC,
	},
	EventCompleteReturn: {
		from:        entity.StatusMRCNeeded,
		to:          entity.StatusDelivered,
		departments: []string{entity.DeptStoreManager, entity.DeptAdmin},
		requestType: entity.RequestTypeMRC,
	},
}

// Transition validates (status, event, department, requestType) and returns
// the next status. The request is not mutated.
func Transition(req *entity.MaterialRequest, event Event, department string) (string, error) {
	t, ok := transitions[event]
	if !ok {
		return "", fmt.Errorf("%w: unknown event %q", ErrIllegalTransition, event)
	}

	if t.requestType != "" && req.RequestType != t.requestType {
		return "", fmt.Errorf("%w: %s does not apply to %s requests",
			ErrWrongRequestType, event, req.RequestType)
	}

	fromOK := req.Status == t.from
	if event == EventDispatch && req.Status == entity.StatusInProcess {
		fromOK = true
	}
	// later return items keep arriving while the MRC numbers are still open;
	// the status stays mrc-needed but the department rules still apply
	if event == EventMarkReceived && req.Status == entity.StatusMRCNeeded {
		fromOK = true
	}
	if !fromOK {
		return "", fmt.Errorf("%w: cannot %s a %s request", ErrIllegalTransition, event, req.Status)
	}

	if !departmentAllowed(t.departments, department) {
		return "", fmt.Errorf("%w: %s may not %s", ErrWrongDepartment, department, event)
	}

	return t.to, nil
}

func departmentAllowed(allowed []string, department string) bool {
	for _, d := range allowed {
		if d == department {
			return true
		}
	}
	return false
}

// Editable reports whether items/ticketNumber/zone/description/title may
// still be changed. Once a request leaves pending those fields are read-only.
func Editable(req *entity.MaterialRequest) bool {
	return req.Status == entity.StatusPending
}

// ValidateSubmit enforces the submission guard: a request needs at least one
// item with a non-blank description and a positive quantity (MR) or returnQty
// (MRC). All-blank rows are rejected outright.
func ValidateSubmit(requestType string, items []entity.MaterialItem) error {
	if len(items) == 0 {
		return errors.New("at least one item is required")
	}
	for _, it := range items {
		if strings.TrimSpace(it.Description) == "" {
			continue
		}
		if requestType == entity.RequestTypeMRC {
			if it.ReturnQty != nil && *it.ReturnQty > 0 {
				return nil
			}
			continue
		}
		if it.Quantity > 0 {
			return nil
		}
	}
	if requestType == entity.RequestTypeMRC {
		return errors.New("at least one item needs a description and a return quantity")
	}
	return errors.New("at least one item needs a description and a quantity")
}

// DispatchDetails carries the transport metadata entered when marking a
// request as sent.
type DispatchDetails struct {
	TransportMode string
	CourierName   string
	EDT           string // ISO date; presence is what the guard checks
	TrackingNo    string
}

// ValidateDispatch enforces the transport rules before anything is written:
// Train/Bus need an EDT, Courier needs a courier name and a tracking number.
func ValidateDispatch(d DispatchDetails) error {
	switch d.TransportMode {
	case "":
		return errors.New("mode of transport is required")
	case entity.TransportTrain, entity.TransportBus:
		if strings.TrimSpace(d.EDT) == "" {
			return errors.New("EDT is required for Train/Bus dispatch")
		}
	case entity.TransportCourier:
		if strings.TrimSpace(d.CourierName) == "" {
			return errors.New("courier name is required for Courier dispatch")
		}
		if strings.TrimSpace(d.TrackingNo) == "" {
			return errors.New("tracking number is required for Courier dispatch")
		}
	default:
		return fmt.Errorf("unknown transport mode %q", d.TransportMode)
	}
	return nil
}
