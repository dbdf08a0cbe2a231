package engine

import "hodei-authz/internal/engine/typedschema"

// DefaultSchema registers the principal and resource types named in the
// GLOSSARY (User, ServiceAccount, a generic Resource) along with Group,
// Account and Ou, plus two actions on Core::Resource — Access for Iam::User
// and ServiceAccess for Iam::ServiceAccount — giving cmd/authzd and
// cmd/authzctl a concrete schema to
// bootstrap with at startup. A deployment wiring its own resource types
// (e.g. S3::Bucket, as the orchestrator tests do) builds its own BuildInput
// instead of this one.
func DefaultSchema() BuildInput {
	return BuildInput{
		EntityTypes: []typedschema.EntityTypeDescriptor{
			{Service: "iam", ResourceType: "User", IsPrincipal: true,
				Attributes: []typedschema.Attribute{
					{Name: "email", Type: typedschema.String()},
				}},
			{Service: "iam", ResourceType: "ServiceAccount", IsPrincipal: true},
			{Service: "iam", ResourceType: "Group"},
			{Service: "organizations", ResourceType: "Account"},
			{Service: "organizations", ResourceType: "Ou"},
			{Service: "core", ResourceType: "Resource"},
		},
		Actions: []typedschema.ActionDescriptor{
			{Name: "Access", PrincipalType: "Iam::User", ResourceType: "Core::Resource"},
			{Name: "ServiceAccess", PrincipalType: "Iam::ServiceAccount", ResourceType: "Core::Resource"},
		},
	}
}
