// Package typedschema implements the Typed Schema Assembler (spec §4.3):
// it turns host-language type descriptors into a single Cedar schema built
// with github.com/cedar-policy/cedar-go/schema's builder API.
package typedschema

import (
	"fmt"
	"sort"
	"strings"

	cedarschema "github.com/cedar-policy/cedar-go/schema"
)

// AttributeKind enumerates the primitive/compound attribute shapes a
// registered entity type may declare.
type AttributeKind int

const (
	KindString AttributeKind = iota
	KindLong
	KindBool
	KindSet
	KindEntityRef
)

// AttributeType describes one attribute's type: Primitive(String|Long|Bool),
// Set(AttributeType), or EntityRef(TypeName), per §4.3.
type AttributeType struct {
	Kind    AttributeKind
	Element *AttributeType // set only
	RefType string         // entity ref only, fully-qualified Cedar type name
}

func String() AttributeType { return AttributeType{Kind: KindString} }
func Long() AttributeType   { return AttributeType{Kind: KindLong} }
func Bool() AttributeType   { return AttributeType{Kind: KindBool} }

func SetOf(elem AttributeType) AttributeType {
	return AttributeType{Kind: KindSet, Element: &elem}
}

func EntityRef(cedarTypeName string) AttributeType {
	return AttributeType{Kind: KindEntityRef, RefType: cedarTypeName}
}

func (a AttributeType) toCedar() cedarschema.Type {
	switch a.Kind {
	case KindString:
		return cedarschema.String()
	case KindLong:
		return cedarschema.Long()
	case KindBool:
		return cedarschema.Bool()
	case KindSet:
		return cedarschema.Set(a.Element.toCedar())
	case KindEntityRef:
		return cedarschema.EntityType(a.RefType)
	default:
		return cedarschema.String()
	}
}

// Attribute is a named, typed field plus whether it is required.
type Attribute struct {
	Name     string
	Type     AttributeType
	Optional bool
}

// EntityTypeDescriptor is the host-language description of one registered
// entity type, per §4.3.
type EntityTypeDescriptor struct {
	Service      string // lowercase identifier, e.g. "iam"
	ResourceType string // PascalCase identifier, e.g. "User"
	Attributes   []Attribute
	IsPrincipal  bool
}

// Namespace is the PascalCase namespace this descriptor's entity lives in.
func (d EntityTypeDescriptor) Namespace() string {
	return pascalCase(d.Service)
}

// ActionDescriptor is the host-language description of one registered
// action, per §4.3.
type ActionDescriptor struct {
	Name          string
	PrincipalType string // fully-qualified Cedar entity type, e.g. "Iam::User"
	ResourceType  string // fully-qualified Cedar entity type, e.g. "S3::Bucket"
}

// ErrConflictingDeclaration is returned by Build when two entity type
// descriptors declare the same namespace-qualified name with incompatible
// attribute sets.
type ErrConflictingDeclaration struct {
	TypeName string
}

func (e *ErrConflictingDeclaration) Error() string {
	return fmt.Sprintf("typedschema: conflicting declarations for entity type %q", e.TypeName)
}

// Assembler composes schema fragments, one per registered entity type and
// action, into a single Cedar schema.
type Assembler struct{}

func NewAssembler() *Assembler { return &Assembler{} }

// Build emits a Cedar schema: one namespace block per distinct service,
// populated with that service's registered entity types and the actions
// whose resource type lives in that namespace (the principal type's
// namespace plays no part in where an action is declared).
func (a *Assembler) Build(entityTypes []EntityTypeDescriptor, actions []ActionDescriptor) (*cedarschema.Schema, error) {
	byNamespace := map[string][]EntityTypeDescriptor{}
	seen := map[string]EntityTypeDescriptor{}

	for _, et := range entityTypes {
		qualified := et.Namespace() + "::" + et.ResourceType
		if prior, ok := seen[qualified]; ok && !sameDescriptor(prior, et) {
			return nil, &ErrConflictingDeclaration{TypeName: qualified}
		}
		seen[qualified] = et
		byNamespace[et.Namespace()] = append(byNamespace[et.Namespace()], et)
	}

	actionsByNamespace := map[string][]ActionDescriptor{}
	for _, act := range actions {
		ns := namespaceOf(act.ResourceType)
		actionsByNamespace[ns] = append(actionsByNamespace[ns], act)
	}

	namespaces := map[string]struct{}{}
	for ns := range byNamespace {
		namespaces[ns] = struct{}{}
	}
	for ns := range actionsByNamespace {
		namespaces[ns] = struct{}{}
	}

	sorted := make([]string, 0, len(namespaces))
	for ns := range namespaces {
		sorted = append(sorted, ns)
	}
	sort.Strings(sorted)

	s := cedarschema.NewSchema()
	for _, ns := range sorted {
		var decls []cedarschema.Declaration
		for _, et := range byNamespace[ns] {
			decls = append(decls, buildEntity(et))
		}
		for _, act := range actionsByNamespace[ns] {
			decls = append(decls, buildAction(act))
		}
		s.WithNamespace(ns, decls...)
	}

	return s, nil
}

func buildEntity(d EntityTypeDescriptor) *cedarschema.Entity {
	e := cedarschema.NewEntity(d.ResourceType)
	// deterministic attribute ordering for reproducible schema text
	attrs := append([]Attribute(nil), d.Attributes...)
	sort.Slice(attrs, func(i, j int) bool { return attrs[i].Name < attrs[j].Name })
	for _, attr := range attrs {
		if attr.Optional {
			e.WithOptionalAttribute(attr.Name, attr.Type.toCedar())
		} else {
			e.WithAttribute(attr.Name, attr.Type.toCedar())
		}
	}
	return e
}

func buildAction(d ActionDescriptor) *cedarschema.Action {
	return cedarschema.NewAction(d.Name).AppliesTo(
		cedarschema.Principals(d.PrincipalType),
		cedarschema.Resources(d.ResourceType),
		nil,
	)
}

func sameDescriptor(a, b EntityTypeDescriptor) bool {
	if a.IsPrincipal != b.IsPrincipal || len(a.Attributes) != len(b.Attributes) {
		return false
	}
	am := map[string]Attribute{}
	for _, attr := range a.Attributes {
		am[attr.Name] = attr
	}
	for _, attr := range b.Attributes {
		prior, ok := am[attr.Name]
		if !ok || prior.Type.Kind != attr.Type.Kind || prior.Optional != attr.Optional {
			return false
		}
	}
	return true
}

func namespaceOf(fullyQualifiedType string) string {
	if idx := strings.Index(fullyQualifiedType, "::"); idx >= 0 {
		return fullyQualifiedType[:idx]
	}
	return ""
}

func pascalCase(s string) string {
	segs := strings.FieldsFunc(s, func(r rune) bool { return r == '-' || r == '_' })
	var b strings.Builder
	for _, seg := range segs {
		if seg == "" {
			continue
		}
		b.WriteString(strings.ToUpper(seg[:1]))
		b.WriteString(seg[1:])
	}
	return b.String()
}
