package events

import (
	"encoding/json"
	"testing"
)

func TestMutationEventMarshalsType(t *testing.T) {
	event := MutationEvent{
		Type:       OrgScpAttached,
		SubjectHRN: "hrn:aws:organizations::111:ou/finance",
		RelatedHRN: "hrn:aws:organizations::111:scp/deny-root",
	}

	data, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}

	var decoded MutationEvent
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal event: %v", err)
	}

	if decoded.Type != OrgScpAttached {
		t.Errorf("expected type %q, got %q", OrgScpAttached, decoded.Type)
	}
	if decoded.SubjectHRN != event.SubjectHRN {
		t.Errorf("expected subject %q, got %q", event.SubjectHRN, decoded.SubjectHRN)
	}
}
