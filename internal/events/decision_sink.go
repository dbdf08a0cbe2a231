package events

import (
	"context"
	"encoding/json"
	"time"

	"hodei-authz/internal/authz"
	"hodei-authz/internal/logger"
)

// decisionPayload is the Payload carried by an AuthzDecisionEvaluated event.
type decisionPayload struct {
	Action              string   `json:"action"`
	Decision            string   `json:"decision"`
	Explicit            bool     `json:"explicit"`
	DeterminingPolicies []string `json:"determining_policies,omitempty"`
}

// DecisionSink adapts Publisher into authz.DecisionEventPublisher.
type DecisionSink struct {
	publisher *Publisher
}

// NewDecisionSink wraps a Publisher as a DecisionEventPublisher.
func NewDecisionSink(p *Publisher) *DecisionSink {
	return &DecisionSink{publisher: p}
}

// PublishDecision implements authz.DecisionEventPublisher. Marshaling
// failures are logged and dropped, matching Publish's own fire-and-forget
// contract: a broker or encoding hiccup must never surface as an evaluation
// error to the caller that already has its decision.
func (s *DecisionSink) PublishDecision(_ context.Context, req authz.AuthorizationRequest, resp authz.AuthorizationResponse) {
	payload, err := json.Marshal(decisionPayload{
		Action:              req.Action,
		Decision:            string(resp.Decision),
		Explicit:            resp.Explicit,
		DeterminingPolicies: resp.DeterminingPolicies,
	})
	if err != nil {
		logger.Error("events: failed to marshal decision payload", err, "action", req.Action)
		return
	}

	s.publisher.Publish(MutationEvent{
		Type:       AuthzDecisionEvaluated,
		SubjectHRN: req.PrincipalHRN.String(),
		RelatedHRN: req.ResourceHRN.String(),
		Timestamp:  time.Now().UTC(),
		Payload:    payload,
	})
}

var _ authz.DecisionEventPublisher = (*DecisionSink)(nil)
