package events

import (
	"encoding/json"
	"testing"
)

func TestDecisionPayloadMarshalsDeterminingPolicies(t *testing.T) {
	payload := decisionPayload{
		Action:              "GetObject",
		Decision:            "Allow",
		Explicit:            true,
		DeterminingPolicies: []string{"iam-0"},
	}

	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}

	var decoded decisionPayload
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if decoded.Decision != "Allow" || !decoded.Explicit {
		t.Fatalf("expected explicit allow, got %+v", decoded)
	}
	if len(decoded.DeterminingPolicies) != 1 || decoded.DeterminingPolicies[0] != "iam-0" {
		t.Fatalf("expected determining policies [iam-0], got %v", decoded.DeterminingPolicies)
	}
}

func TestDecisionPayloadOmitsEmptyDeterminingPolicies(t *testing.T) {
	data, err := json.Marshal(decisionPayload{Action: "GetObject", Decision: "Deny"})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	if jsonContains(data, "determining_policies") {
		t.Fatalf("expected determining_policies to be omitted when empty, got %s", data)
	}
}

func jsonContains(data []byte, field string) bool {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return false
	}
	_, ok := raw[field]
	return ok
}
