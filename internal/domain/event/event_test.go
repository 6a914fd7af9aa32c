package event

import (
	"encoding/json"
	"testing"
	"time"
)

func TestNewGeneratesIDAndTimestamp(t *testing.T) {
	before := time.Now().UTC()
	ev, err := New(TypeStockUpdate, "tenant-1", StockUpdate{
		ProductID:   "p1",
		OldQuantity: 10,
		NewQuantity: 7,
		LocationID:  "loc-1",
		Change:      -3,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if ev.ID == "" {
		t.Error("expected generated event id")
	}
	if ev.Timestamp.Before(before) {
		t.Errorf("timestamp %v before construction time %v", ev.Timestamp, before)
	}
	if ev.TenantID != "tenant-1" {
		t.Errorf("tenant = %q", ev.TenantID)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	ev, err := New(TypeOrderUpdate, "tenant-1", OrderUpdate{
		OrderID:        "o1",
		Status:         "shipped",
		PreviousStatus: "packed",
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	raw, err := ev.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	got, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.ID != ev.ID || got.Type != ev.Type || got.TenantID != ev.TenantID {
		t.Errorf("round trip mismatch: got %+v want %+v", got, ev)
	}

	var data OrderUpdate
	if err := json.Unmarshal(got.Data, &data); err != nil {
		t.Fatalf("unmarshal data: %v", err)
	}
	if data.Status != "shipped" || data.PreviousStatus != "packed" {
		t.Errorf("data = %+v", data)
	}
}

func TestDecodeFillsMissingID(t *testing.T) {
	raw := []byte(`{"event_type":"notification","tenant_id":"t1","data":{},"timestamp":"2026-01-02T15:04:05Z"}`)
	ev, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if ev.ID == "" {
		t.Error("expected generated id for legacy message without event_id")
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := Decode([]byte("not json")); err == nil {
		t.Fatal("expected error for malformed message")
	}
}

func TestStockUpdateWireShape(t *testing.T) {
	data, err := json.Marshal(StockUpdate{
		ProductID:   "p1",
		OldQuantity: 10,
		NewQuantity: 7,
		LocationID:  "loc-1",
		Change:      -3,
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"product_id":"p1","old_quantity":10,"new_quantity":7,"location_id":"loc-1","change":-3}`
	if string(data) != want {
		t.Errorf("wire shape changed:\n got %s\nwant %s", data, want)
	}
}
