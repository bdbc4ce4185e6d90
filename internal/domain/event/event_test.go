package event

import "testing"

func TestNewEvent(t *testing.T) {
	evt := NewEvent(TypeStageAdvanced, "req-1", map[string]interface{}{"stage": "Review"})

	if evt.ID == "" {
		t.Error("ID not generated")
	}
	if evt.CorrelationID == "" {
		t.Error("CorrelationID not generated")
	}
	if evt.Timestamp.IsZero() {
		t.Error("Timestamp not set")
	}
	if evt.Type != TypeStageAdvanced || evt.RequestID != "req-1" {
		t.Errorf("event = %+v", evt)
	}

	other := NewEvent(TypeStageAdvanced, "req-1", nil)
	if other.ID == evt.ID {
		t.Error("two events share an ID")
	}
}

func TestNewEventWithCorrelation(t *testing.T) {
	first := NewEvent(TypeStageAdvanced, "req-1", nil)
	second := NewEventWithCorrelation(TypeQuoteSubmitted, "req-1", nil, first.CorrelationID)

	if second.CorrelationID != first.CorrelationID {
		t.Errorf("CorrelationID = %q, want the chain's %q", second.CorrelationID, first.CorrelationID)
	}
	if second.ID == first.ID {
		t.Error("correlated events share an ID")
	}
}

func TestWithPayload(t *testing.T) {
	base := NewEvent(TypeStageAdvanced, "req-1", map[string]interface{}{"stage": "Review"})
	enriched := base.WithPayload("auto_skipped", true)

	if enriched.GetPayloadBool("auto_skipped") != true {
		t.Error("added key missing from new event")
	}
	if enriched.GetPayloadString("stage") != "Review" {
		t.Error("existing payload not carried over")
	}

	// The original is untouched
	if _, ok := base.Payload["auto_skipped"]; ok {
		t.Error("WithPayload mutated the original event")
	}
	if enriched.ID != base.ID || enriched.CorrelationID != base.CorrelationID {
		t.Error("WithPayload changed event identity")
	}
}

func TestPayloadAccessors(t *testing.T) {
	evt := NewEvent(TypeStageAdvanced, "req-1", map[string]interface{}{
		"stage":        "Commit",
		"auto_skipped": true,
		"total_cost":   150.0,
	})

	tests := []struct {
		name string
		got  interface{}
		want interface{}
	}{
		{"string hit", evt.GetPayloadString("stage"), "Commit"},
		{"string miss", evt.GetPayloadString("missing"), ""},
		{"string wrong type", evt.GetPayloadString("auto_skipped"), ""},
		{"bool hit", evt.GetPayloadBool("auto_skipped"), true},
		{"bool miss", evt.GetPayloadBool("missing"), false},
		{"bool wrong type", evt.GetPayloadBool("total_cost"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestPayloadAccessorsNilPayload(t *testing.T) {
	evt := NewEvent(TypeRequestCompleted, "req-1", nil)

	if evt.GetPayloadString("anything") != "" {
		t.Error("nil payload should yield empty string")
	}
	if evt.GetPayloadBool("anything") {
		t.Error("nil payload should yield false")
	}
}
