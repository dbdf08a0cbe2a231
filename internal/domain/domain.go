// Package domain holds the aggregate shapes the authorization core reads
// through the lookup ports (spec §3, §6). The core never creates, mutates,
// or deletes these; it only reads them.
package domain

import "hodei-authz/internal/hrn"

// Principal is a User or ServiceAccount: an entity that can initiate a
// request. Direct policy attachment is optional per DESIGN.md's Open
// Question decision — a principal may carry zero or more directly attached
// policies in addition to the ones it inherits through group membership.
type Principal struct {
	HRN                hrn.HRN
	Name               string
	Email              string
	GroupHRNs          []string
	AttachedPolicyHRNs []string
	Tags               map[string]string
}

// Group contains principals and carries its own attached policies.
// Membership and policy attachment are both idempotent sets.
type Group struct {
	HRN                hrn.HRN
	Name               string
	AttachedPolicyHRNs []string
	Tags               map[string]string
}

// PolicySource is an IAM policy's Cedar source, as stored. policy_text must
// parse and validate against the current schema before attach — that
// invariant is enforced by the (out-of-scope) mutating use case, not here.
type PolicySource struct {
	HRN         hrn.HRN
	Name        string
	Description string
	PolicyText  string
}

// ScpSource is a Service Control Policy's Cedar source.
type ScpSource struct {
	HRN      hrn.HRN
	Name     string
	Document string
}

// Account is a leaf in the organization tree: it has at most one parent OU
// (none means it is a root account) and a set of directly attached SCPs.
type Account struct {
	HRN             hrn.HRN
	Name            string
	ParentOuHRN     *hrn.HRN
	AttachedScpHRNs []string
}

// OrganizationalUnit is an inner node of the organization tree.
type OrganizationalUnit struct {
	HRN             hrn.HRN
	Name            string
	ParentHRN       *hrn.HRN
	AttachedScpHRNs []string
}
