package model

import (
	"strings"

	"github.com/google/uuid"
)

// RefKind tells how a Ref addresses its object.
type RefKind uint8

const (
	// RefIdentifier addresses an object by its identifier.
	RefIdentifier RefKind = iota + 1

	// RefURI addresses an object by its uri.
	RefURI
)

// String returns a human-readable kind name.
func (k RefKind) String() string {
	switch k {
	case RefIdentifier:
		return "id"
	case RefURI:
		return "uri"
	default:
		return "unknown"
	}
}

// Ref is an opaque, comparable reference to a backend object.
// The zero Ref references nothing.
type Ref struct {
	Kind  RefKind `json:"kind"`
	Value string  `json:"value"`
}

// IdentifierRef returns a ref addressing an object by identifier.
func IdentifierRef(identifier string) Ref {
	return Ref{Kind: RefIdentifier, Value: identifier}
}

// URIRef returns a ref addressing an object by uri.
func URIRef(uri string) Ref {
	return Ref{Kind: RefURI, Value: uri}
}

// IsZero returns true if the ref references nothing.
func (r Ref) IsZero() bool {
	return r.Value == ""
}

// String returns the ref in "kind:value" form.
func (r Ref) String() string {
	if r.IsZero() {
		return "<none>"
	}
	return r.Kind.String() + ":" + r.Value
}

// ParseRef parses "id:value" or "uri:value". A bare value is read as an identifier.
func ParseRef(s string) Ref {
	switch {
	case strings.HasPrefix(s, "id:"):
		return IdentifierRef(strings.TrimPrefix(s, "id:"))
	case strings.HasPrefix(s, "uri:"):
		return URIRef(strings.TrimPrefix(s, "uri:"))
	case s == "":
		return Ref{}
	default:
		return IdentifierRef(s)
	}
}

// ObjectIdentity is the identity triple carried by persisted objects.
type ObjectIdentity struct {
	Ref        Ref    `json:"ref"`
	Identifier string `json:"identifier,omitempty"`
	URI        string `json:"uri,omitempty"`
}

// IsZero returns true if the identity has not been assigned.
func (o ObjectIdentity) IsZero() bool {
	return o.Ref.IsZero() && o.Identifier == "" && o.URI == ""
}

// Matches returns true if ref addresses this object in any of its forms.
func (o ObjectIdentity) Matches(ref Ref) bool {
	if ref.IsZero() {
		return false
	}
	if ref == o.Ref {
		return true
	}
	switch ref.Kind {
	case RefIdentifier:
		return o.Identifier != "" && ref.Value == o.Identifier
	case RefURI:
		return o.URI != "" && ref.Value == o.URI
	}
	return false
}

// TemporaryPrefix starts every client-generated placeholder identifier.
const TemporaryPrefix = "unsaved_"

// NewTemporaryIdentity returns a placeholder identity for an object that has not been
// persisted yet.
func NewTemporaryIdentity() ObjectIdentity {
	id := TemporaryPrefix + uuid.NewString()
	return ObjectIdentity{
		Ref:        IdentifierRef(id),
		Identifier: id,
	}
}

// IsTemporaryIdentity returns true if the identity is a client-generated placeholder.
func IsTemporaryIdentity(o ObjectIdentity) bool {
	return strings.HasPrefix(o.Identifier, TemporaryPrefix)
}
