// Package engine implements the Policy Engine (PE, spec §4.2): a
// schema-validated Cedar evaluator. It owns the schema, validates policy
// source against it, and answers is_authorized for a supplied policy set
// and entity graph.
package engine

import (
	"fmt"

	cedar "github.com/cedar-policy/cedar-go"
	cedarschema "github.com/cedar-policy/cedar-go/schema"
	expschema "github.com/cedar-policy/cedar-go/x/exp/schema"
	"github.com/cedar-policy/cedar-go/x/exp/validator"

	"hodei-authz/internal/engine/typedschema"
)

// PolicySet is Cedar's set of policies with engine-assigned stable IDs.
// Kept as an alias so callers never need to import cedar-go directly just
// to pass a policy set around.
type PolicySet = cedar.PolicySet

// BuildInput is the list of schema fragments derived from registered
// entity types and actions, per §4.3.
type BuildInput struct {
	EntityTypes []typedschema.EntityTypeDescriptor
	Actions     []typedschema.ActionDescriptor
}

// Engine is immutable once built and is freely shareable across concurrent
// callers (§5).
type Engine struct {
	schema    *cedarschema.Schema
	validator *validator.Validator
}

// Build composes the schema fragments into a single schema and prepares a
// validator. build is a one-shot operation; the engine is immutable
// afterward.
func Build(input BuildInput) (*Engine, error) {
	assembler := typedschema.NewAssembler()
	s, err := assembler.Build(input.EntityTypes, input.Actions)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaInvalid, err)
	}

	jsonBytes, err := s.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("%w: marshaling assembled schema: %v", ErrSchemaInvalid, err)
	}

	var xs expschema.Schema
	if err := xs.UnmarshalJSON(jsonBytes); err != nil {
		return nil, fmt.Errorf("%w: loading schema into validator: %v", ErrSchemaInvalid, err)
	}

	v, err := validator.New(&xs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaInvalid, err)
	}

	return &Engine{schema: s, validator: v}, nil
}

// Schema returns the immutable composed schema, e.g. for cmd/authzctl to
// print or export it.
func (e *Engine) Schema() *cedarschema.Schema {
	return e.schema
}

// Validate parses source into a policy set and runs schema validation
// against it. Parse and validation errors are surfaced to the caller and
// never produce a silent Allow.
func (e *Engine) Validate(name string, source []byte) error {
	ps, err := cedar.NewPolicySetFromBytes(name, source)
	if err != nil {
		return &ParseError{Name: name, Err: err}
	}

	result := e.validator.ValidatePolicies(ps)
	if !result.Valid {
		findings := make([]Finding, 0, len(result.Errors))
		for _, fe := range result.Errors {
			findings = append(findings, Finding{PolicyID: fe.PolicyID, Message: fe.Message})
		}
		return &ValidationError{Findings: findings}
	}

	return nil
}

// Decision is PE's answer to is_authorized: the Cedar decision plus the
// list of policy ids that determined it.
type Decision struct {
	Allow               bool
	DeterminingPolicies []cedar.PolicyID
}

// IsAuthorized delegates to Cedar. Evaluation is total: Cedar's own
// semantics guarantee a default Deny when no policy permits, and an
// explicit forbid always overrides a permit.
func (e *Engine) IsAuthorized(policies *PolicySet, entities cedar.EntityMap, req cedar.Request) Decision {
	decision, diagnostic := cedar.Authorize(policies, entities, req)

	ids := make([]cedar.PolicyID, 0, len(diagnostic.Reasons))
	for _, r := range diagnostic.Reasons {
		ids = append(ids, r.PolicyID)
	}

	return Decision{
		Allow:               decision == cedar.Allow,
		DeterminingPolicies: ids,
	}
}

// ParsePolicy parses a single policy source into a *cedar.Policy, used by
// IEPR/OESR when assembling a merged PolicySet from many small sources.
func ParsePolicy(name string, source []byte) (*cedar.Policy, error) {
	ps, err := cedar.NewPolicySetFromBytes(name, source)
	if err != nil {
		return nil, &ParseError{Name: name, Err: err}
	}
	for _, p := range ps.All() {
		return p, nil
	}
	return nil, &ParseError{Name: name, Err: fmt.Errorf("source contained no policies")}
}

// NewPolicySet returns an empty, mutable Cedar policy set.
func NewPolicySet() *PolicySet {
	return cedar.NewPolicySet()
}

// MergePolicySet adds every policy in src into dst under fresh,
// collision-free ids, following the merge-by-iteration pattern used to
// combine independently sourced policy sets.
func MergePolicySet(dst *PolicySet, src *PolicySet, idPrefix string) {
	i := 0
	for _, p := range src.All() {
		id := cedar.PolicyID(fmt.Sprintf("%s-%d", idPrefix, i))
		dst.Add(id, p)
		i++
	}
}

// Validator adapts Engine into authz.PolicyValidator, which callers outside
// this package (cmd/authzctl) consume without naming each submitted source.
type Validator struct {
	engine *Engine
}

// NewValidator wraps a built Engine as a PolicyValidator.
func NewValidator(e *Engine) *Validator {
	return &Validator{engine: e}
}

// Validate implements authz.PolicyValidator.
func (v *Validator) Validate(source []byte) error {
	return v.engine.Validate("submitted-policy", source)
}
