package authz

import "fmt"

// Kind enumerates the error taxonomy of spec §7.
type Kind string

const (
	KindInvalidHrn           Kind = "InvalidHrn"
	KindInvalidRequest       Kind = "InvalidRequest"
	KindInvalidPrincipalType Kind = "InvalidPrincipalType"
	KindInvalidTargetType    Kind = "InvalidTargetType"
	KindPrincipalNotFound    Kind = "PrincipalNotFound"
	KindTargetNotFound       Kind = "TargetNotFound"
	KindRepository           Kind = "Repository"
	KindSchemaInvalid        Kind = "SchemaInvalid"
	KindPolicyParse          Kind = "PolicyParse"
	KindPolicyValidation     Kind = "PolicyValidation"
	KindEngineError          Kind = "EngineError"
	KindTimeout              Kind = "Timeout"
	KindIamProviderError     Kind = "IamProviderError"
	KindOrgProviderError     Kind = "OrgProviderError"
	// KindDepthExceeded is OESR's configuration error when the OU
	// ancestry walk exceeds its configured bound (§4.5 step 5).
	KindDepthExceeded Kind = "DepthExceeded"
)

// Error is the core's single error type: a Kind plus the wrapped cause,
// so callers can branch with errors.Is against the exported sentinels below.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authz: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("authz: %s", e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Is allows errors.Is(err, authz.ErrPrincipalNotFound) style matching by
// Kind, ignoring the wrapped cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func newErr(kind Kind, cause error) *Error {
	return &Error{Kind: kind, Err: cause}
}

// Sentinel errors for errors.Is comparisons against a bare Kind.
var (
	ErrInvalidHrn           = &Error{Kind: KindInvalidHrn}
	ErrInvalidRequest       = &Error{Kind: KindInvalidRequest}
	ErrInvalidPrincipalType = &Error{Kind: KindInvalidPrincipalType}
	ErrInvalidTargetType    = &Error{Kind: KindInvalidTargetType}
	ErrPrincipalNotFound    = &Error{Kind: KindPrincipalNotFound}
	ErrTargetNotFound       = &Error{Kind: KindTargetNotFound}
	ErrRepository           = &Error{Kind: KindRepository}
	ErrSchemaInvalid        = &Error{Kind: KindSchemaInvalid}
	ErrPolicyParse          = &Error{Kind: KindPolicyParse}
	ErrPolicyValidation     = &Error{Kind: KindPolicyValidation}
	ErrEngineError          = &Error{Kind: KindEngineError}
	ErrTimeout              = &Error{Kind: KindTimeout}
	ErrIamProviderError     = &Error{Kind: KindIamProviderError}
	ErrOrgProviderError     = &Error{Kind: KindOrgProviderError}
	ErrDepthExceeded        = &Error{Kind: KindDepthExceeded}
)
