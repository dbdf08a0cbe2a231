// Package hrn implements the Hierarchical Resource Name: the canonical,
// round-trippable identifier used across every aggregate in the authorization
// core and the Cedar entity IDs derived from it.
package hrn

import (
	"errors"
	"fmt"
	"strings"
)

// Canonical form: hrn:{partition}:{service}::{account}:{resource_type}/{resource_id}
const prefix = "hrn"

// ErrInvalidHrn is returned by Parse when the input does not match the
// canonical HRN grammar.
var ErrInvalidHrn = errors.New("invalid hrn")

// HRN is a value object. It is never mutated after construction.
type HRN struct {
	Partition    string
	Service      string
	AccountID    string
	ResourceType string
	ResourceID   string
}

// Parse splits s by ':' and '/' and validates the canonical grammar:
// 6 colon-separated segments with a leading "hrn" literal, and the final
// segment splitting into exactly one "/" separating resource_type and
// resource_id.
func Parse(s string) (HRN, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 6 {
		return HRN{}, fmt.Errorf("%w: %q: expected 6 colon-separated segments, got %d", ErrInvalidHrn, s, len(parts))
	}
	if parts[0] != prefix {
		return HRN{}, fmt.Errorf("%w: %q: must start with %q", ErrInvalidHrn, s, prefix)
	}

	partition := parts[1]
	service := parts[2]
	// parts[3] is reserved (always empty in the canonical form)
	account := parts[4]
	typeAndID := parts[5]

	segs := strings.Split(typeAndID, "/")
	if len(segs) != 2 || segs[0] == "" || segs[1] == "" {
		return HRN{}, fmt.Errorf("%w: %q: resource segment must be type/id", ErrInvalidHrn, s)
	}

	return HRN{
		Partition:    partition,
		Service:      strings.ToLower(service),
		AccountID:    account,
		ResourceType: segs[0],
		ResourceID:   segs[1],
	}, nil
}

// Render produces the canonical string form. Service is always rendered
// lowercase regardless of how it was constructed.
func Render(h HRN) string {
	return fmt.Sprintf("%s:%s:%s::%s:%s/%s",
		prefix, h.Partition, strings.ToLower(h.Service), h.AccountID, h.ResourceType, h.ResourceID)
}

// String implements fmt.Stringer and the canonical wire form.
func (h HRN) String() string {
	return Render(h)
}

// MarshalText lets HRN serialize cleanly inside audit event details, cache
// keys, and JSON documents.
func (h HRN) MarshalText() ([]byte, error) {
	return []byte(Render(h)), nil
}

// UnmarshalText is the inverse of MarshalText.
func (h *HRN) UnmarshalText(data []byte) error {
	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// ParseBatch parses a slice of canonical strings, short-circuiting on the
// first failure. Nothing in this repository calls it; OESR parses each
// SCP HRN on its own and skips the malformed ones.
func ParseBatch(ss []string) ([]HRN, error) {
	out := make([]HRN, 0, len(ss))
	for _, s := range ss {
		h, err := Parse(s)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, nil
}

// EntityTypeName is the Cedar entity type name derived from an HRN:
// PascalCase(service)::resource_type, or just resource_type when service is
// empty.
type EntityTypeName string

// EntityUID mirrors Cedar's (type, id) entity identifier pair.
type EntityUID struct {
	Type EntityTypeName
	ID   string
}

// ToCedarType converts h's service/resource_type into a Cedar entity type
// name. It is a pure function: same input always yields the same output.
func ToCedarType(h HRN) EntityTypeName {
	rt := sanitizeIdentifier(h.ResourceType)
	if h.Service == "" {
		return EntityTypeName(rt)
	}
	return EntityTypeName(pascalCase(h.Service) + "::" + rt)
}

// ToEUID derives the Cedar (EntityTypeName, resource_id) pair for h.
func ToEUID(h HRN) EntityUID {
	return EntityUID{Type: ToCedarType(h), ID: h.ResourceID}
}

// TypeDescriptor supplies the service and resource-type metadata used by
// ForType to construct an HRN for a generic entity type T.
type TypeDescriptor interface {
	HrnService() string
	HrnResourceType() string
}

// ForType constructs an HRN using the type metadata of T.
func ForType[T TypeDescriptor](partition, account, id string) HRN {
	var zero T
	return HRN{
		Partition:    partition,
		Service:      zero.HrnService(),
		AccountID:    account,
		ResourceType: zero.HrnResourceType(),
		ResourceID:   id,
	}
}

// pascalCase splits on '-'/'_' and upper-cases the first character of each
// segment, matching §4.1's to_cedar_type conversion.
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

// sanitizeIdentifier replaces non-identifier characters with '_' and
// guarantees the result starts with a letter or underscore, as required by
// §4.1 for Cedar entity type names.
func sanitizeIdentifier(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	for i, c := range b {
		isAlnum := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
		if !isAlnum {
			b[i] = '_'
		}
	}
	if b[0] >= '0' && b[0] <= '9' {
		return "_" + string(b)
	}
	return string(b)
}
