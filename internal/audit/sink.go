package audit

import (
	"context"

	"hodei-authz/internal/authz"
	"hodei-authz/internal/logger"
)

// Sink adapts Logger into authz.AuditSink. Failures to persist an audit
// record are logged but never returned: an audit outage must not block
// the authorization decision that already happened.
type Sink struct {
	log *Logger
}

func NewSink(log *Logger) *Sink {
	return &Sink{log: log}
}

func (s *Sink) LogDecision(ctx context.Context, req authz.AuthorizationRequest, resp authz.AuthorizationResponse) {
	err := s.log.LogDecision(ctx,
		req.PrincipalHRN.String(), req.Action, req.ResourceHRN.String(),
		string(resp.Decision), resp.Explicit, resp.Reason, resp.DeterminingPolicies)
	if err != nil {
		logger.Error("audit: failed to persist decision", err,
			"principal", req.PrincipalHRN.String(), "action", req.Action)
	}
}

func (s *Sink) LogError(ctx context.Context, req authz.AuthorizationRequest, evalErr error) {
	err := s.log.LogEvaluationError(ctx, req.PrincipalHRN.String(), req.Action, req.ResourceHRN.String(), evalErr)
	if err != nil {
		logger.Error("audit: failed to persist evaluation error", err,
			"principal", req.PrincipalHRN.String(), "action", req.Action)
	}
}

var _ authz.AuditSink = (*Sink)(nil)
