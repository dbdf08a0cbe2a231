package engine

import (
	"errors"
	"fmt"

	"github.com/cedar-policy/cedar-go"
)

// ErrSchemaInvalid is returned by Build when the assembled schema fragments
// cannot be composed into a single Cedar schema.
var ErrSchemaInvalid = errors.New("engine: schema invalid")

// ParseError wraps a Cedar policy source parse failure (§4.2 validate).
type ParseError struct {
	Name string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("engine: parsing policy %q: %v", e.Name, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Finding is one machine-readable schema-validation error for a single
// policy, per §4.2's "ValidationError includes machine-readable error list".
type Finding struct {
	PolicyID cedar.PolicyID
	Message  string
}

// ValidationError is returned by Validate when a policy parses but fails
// schema validation.
type ValidationError struct {
	Findings []Finding
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("engine: schema validation failed with %d finding(s)", len(e.Findings))
}
