// Package events publishes domain events to Kafka: mutation events (group
// membership changes, policy attachments, SCP attachments) and, per §4.6
// step 9, one event per terminal authorization decision. Publishing is
// fire-and-forget: a broker outage logs and drops the event rather than
// blocking or failing the mutation or evaluation that triggered it.
package events

import (
	"encoding/json"
	"time"
)

// Type names a mutation event. Values follow a "domain.entity.verb"
// convention so consumers can subscribe by prefix.
type Type string

const (
	IamUserAddedToGroup     Type = "iam.user.added_to_group"
	IamUserRemovedFromGroup Type = "iam.user.removed_from_group"
	IamPolicyAttached       Type = "iam.policy.attached"
	IamPolicyDetached       Type = "iam.policy.detached"
	OrgScpAttached          Type = "org.scp.attached"
	OrgScpDetached          Type = "org.scp.detached"
	OrgAccountMoved         Type = "org.account.moved"
	AuthzDecisionEvaluated  Type = "authz.decision.evaluated"
)

// MutationEvent is one published change to the IAM/Org graph that can
// invalidate cached decisions downstream.
type MutationEvent struct {
	EventID     string          `json:"event_id"`
	Type        Type            `json:"type"`
	SubjectHRN  string          `json:"subject_hrn"`  // the user/group/account/OU being mutated
	RelatedHRN  string          `json:"related_hrn"`  // the policy/SCP/parent OU involved, if any
	Timestamp   time.Time       `json:"timestamp"`
	Payload     json.RawMessage `json:"payload,omitempty"`
}
