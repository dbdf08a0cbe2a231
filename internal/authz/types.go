package authz

import "hodei-authz/internal/hrn"

// Decision is the outcome of an AuthorizationResponse.
type Decision string

const (
	Allow Decision = "Allow"
	Deny  Decision = "Deny"
)

// AuthorizationRequest is the input to Authorizer.Evaluate (§3, §6).
type AuthorizationRequest struct {
	PrincipalHRN hrn.HRN
	Action       string
	ResourceHRN  hrn.HRN
	Context      map[string]any
}

// AuthorizationResponse is the ephemeral result of one evaluate call.
// Explicit is false iff Decision is Deny and no policy matched at all
// (implicit deny, distinct from an explicit forbid).
type AuthorizationResponse struct {
	Decision            Decision
	DeterminingPolicies []string
	Reason              string
	Explicit            bool
}

func deny(reason string, explicit bool, determining []string) AuthorizationResponse {
	return AuthorizationResponse{
		Decision:            Deny,
		DeterminingPolicies: determining,
		Reason:              reason,
		Explicit:            explicit,
	}
}

func allow(reason string, determining []string) AuthorizationResponse {
	return AuthorizationResponse{
		Decision:            Allow,
		DeterminingPolicies: determining,
		Reason:              reason,
		Explicit:            true,
	}
}
