package lifecycle

import (
	"errors"
	"testing"

	"github.com/fieldstack/matflow/internal/model/entity"
)

func mr(status string) *entity.MaterialRequest {
	return &entity.MaterialRequest{RequestType: entity.RequestTypeMR, Status: status}
}

func mrc(status string) *entity.MaterialRequest {
	return &entity.MaterialRequest{RequestType: entity.RequestTypeMRC, Status: status}
}

func TestTransitionTable(t *testing.T) {
	tests := []struct {
		name    string
		req     *entity.MaterialRequest
		event   Event
		dept    string
		want    string
		wantErr error
	}{
		{"RM approves pending", mr(entity.StatusPending), EventApprove, entity.DeptRegionalManager, entity.StatusApproved, nil},
		{"RM rejects pending", mr(entity.StatusPending), EventReject, entity.DeptRegionalManager, entity.StatusRejected, nil},
		{"SM starts processing", mr(entity.StatusApproved), EventStartProcessing, entity.DeptStoreManager, entity.StatusInProcess, nil},
		{"SM dispatches approved", mr(entity.StatusApproved), EventDispatch, entity.DeptStoreManager, entity.StatusInTransit, nil},
		{"SM dispatches in-process", mr(entity.StatusInProcess), EventDispatch, entity.DeptStoreManager, entity.StatusInTransit, nil},
		{"engineer confirms MR receipt", mr(entity.StatusInTransit), EventConfirmReceipt, entity.DeptEngineer, entity.StatusDelivered, nil},
		{"SM marks MRC received", mrc(entity.StatusInTransit), EventMarkReceived, entity.DeptStoreManager, entity.StatusMRCNeeded, nil},
		{"SM marks later return received", mrc(entity.StatusMRCNeeded), EventMarkReceived, entity.DeptStoreManager, entity.StatusMRCNeeded, nil},
		{"SM completes return", mrc(entity.StatusMRCNeeded), EventCompleteReturn, entity.DeptStoreManager, entity.StatusDelivered, nil},

		{"engineer cannot approve", mr(entity.StatusPending), EventApprove, entity.DeptEngineer, "", ErrWrongDepartment},
		{"SM cannot approve", mr(entity.StatusPending), EventApprove, entity.DeptStoreManager, "", ErrWrongDepartment},
		{"engineer cannot dispatch", mr(entity.StatusApproved), EventDispatch, entity.DeptEngineer, "", ErrWrongDepartment},
		{"cannot approve twice", mr(entity.StatusApproved), EventApprove, entity.DeptRegionalManager, "", ErrIllegalTransition},
		{"cannot dispatch pending", mr(entity.StatusPending), EventDispatch, entity.DeptStoreManager, "", ErrIllegalTransition},
		{"cannot dispatch delivered", mr(entity.StatusDelivered), EventDispatch, entity.DeptStoreManager, "", ErrIllegalTransition},
		{"cannot reject rejected", mr(entity.StatusRejected), EventReject, entity.DeptRegionalManager, "", ErrIllegalTransition},
		{"MR cannot take mark-received", mr(entity.StatusInTransit), EventMarkReceived, entity.DeptStoreManager, "", ErrWrongRequestType},
		{"MRC cannot take confirm-receipt", mrc(entity.StatusInTransit), EventConfirmReceipt, entity.DeptEngineer, "", ErrWrongRequestType},
		{"complete-return needs mrc-needed", mrc(entity.StatusInTransit), EventCompleteReturn, entity.DeptStoreManager, "", ErrIllegalTransition},
		{"engineer cannot mark later return received", mrc(entity.StatusMRCNeeded), EventMarkReceived, entity.DeptEngineer, "", ErrWrongDepartment},
		{"cannot mark delivered MRC received", mrc(entity.StatusDelivered), EventMarkReceived, entity.DeptStoreManager, "", ErrIllegalTransition},
		{"admin may approve", mr(entity.StatusPending), EventApprove, entity.DeptAdmin, entity.StatusApproved, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Transition(tt.req, tt.event, tt.dept)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("want error %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("want next status %q, got %q", tt.want, got)
			}
		})
	}
}

func TestTransitionDoesNotMutate(t *testing.T) {
	req := mr(entity.StatusPending)
	if _, err := Transition(req, EventApprove, entity.DeptRegionalManager); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Status != entity.StatusPending {
		t.Errorf("Transition mutated the request: %q", req.Status)
	}
}

func TestEditable(t *testing.T) {
	if !Editable(mr(entity.StatusPending)) {
		t.Error("pending request should be editable")
	}
	for _, status := range []string{
		entity.StatusApproved, entity.StatusInProcess, entity.StatusInTransit,
		entity.StatusMRCNeeded, entity.StatusDelivered, entity.StatusRejected,
	} {
		if Editable(mr(status)) {
			t.Errorf("%s request should not be editable", status)
		}
	}
}

func TestValidateSubmit(t *testing.T) {
	qty := func(v float64) *float64 { return &v }

	tests := []struct {
		name        string
		requestType string
		items       []entity.MaterialItem
		wantErr     bool
	}{
		{"no items", entity.RequestTypeMR, nil, true},
		{"all blank rows", entity.RequestTypeMR, []entity.MaterialItem{{}, {}}, true},
		{"description without quantity", entity.RequestTypeMR,
			[]entity.MaterialItem{{Description: "Cable"}}, true},
		{"quantity without description", entity.RequestTypeMR,
			[]entity.MaterialItem{{Quantity: 5}}, true},
		{"valid MR row", entity.RequestTypeMR,
			[]entity.MaterialItem{{Description: "Cable", Quantity: 10}}, false},
		{"valid row among blanks", entity.RequestTypeMR,
			[]entity.MaterialItem{{}, {Description: "Cable", Quantity: 1}}, false},
		{"MRC needs returnQty", entity.RequestTypeMRC,
			[]entity.MaterialItem{{Description: "Old Switch", Quantity: 2}}, true},
		{"valid MRC row", entity.RequestTypeMRC,
			[]entity.MaterialItem{{Description: "Old Switch", ReturnQty: qty(2)}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSubmit(tt.requestType, tt.items)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSubmit() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateDispatch(t *testing.T) {
	tests := []struct {
		name    string
		details DispatchDetails
		wantErr bool
	}{
		{"no mode", DispatchDetails{}, true},
		{"train without edt", DispatchDetails{TransportMode: entity.TransportTrain}, true},
		{"bus without edt", DispatchDetails{TransportMode: entity.TransportBus}, true},
		{"train with edt", DispatchDetails{TransportMode: entity.TransportTrain, EDT: "2026-09-05"}, false},
		{"bus with edt", DispatchDetails{TransportMode: entity.TransportBus, EDT: "2026-09-05"}, false},
		{"courier without tracking", DispatchDetails{TransportMode: entity.TransportCourier, CourierName: "DHL"}, true},
		{"courier without name", DispatchDetails{TransportMode: entity.TransportCourier, TrackingNo: "TRK1"}, true},
		{"courier complete", DispatchDetails{TransportMode: entity.TransportCourier, CourierName: "DHL", TrackingNo: "TRK1"}, false},
		{"courier blank name", DispatchDetails{TransportMode: entity.TransportCourier, CourierName: "  ", TrackingNo: "TRK1"}, true},
		{"unknown mode", DispatchDetails{TransportMode: "Drone"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDispatch(tt.details)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDispatch() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
