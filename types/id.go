// Package types holds value types and error sentinels shared across the
// connectome, projection, brain, assembly, and recipe packages, the way
// the teacher's types package holds shared configuration and enum types.
package types

import (
	"fmt"

	"github.com/google/uuid"
)

// Kind distinguishes what an ID names, purely for readable error messages
// and logging — identity and equality never depend on it.
type Kind int

const (
	KindArea Kind = iota
	KindStimulus
	KindAssembly
	KindBrain
)

// String renders a Kind the way types.ComponentType does in the teacher.
func (k Kind) String() string {
	switch k {
	case KindArea:
		return "Area"
	case KindStimulus:
		return "Stimulus"
	case KindAssembly:
		return "Assembly"
	case KindBrain:
		return "Brain"
	default:
		return "Unknown"
	}
}

// ID is the stable identity every brain part and assembly carries, used
// for hashing and equality. Brain parts get a random, content-independent
// UUID at creation (NewID); assemblies get one derived from their content
// (NewContentID). Equality and hashing use the UUID alone; Kind is
// metadata for diagnostics.
type ID struct {
	Kind Kind
	UUID uuid.UUID
}

// NewID mints a fresh random identity for a newly constructed brain part.
func NewID(kind Kind) ID {
	return ID{Kind: kind, UUID: uuid.New()}
}

// NewContentID derives a deterministic identity from the given bytes, used
// for assembly nodes whose identity is a hash of (area, sorted parent ids)
// rather than a creation-time random value (spec §3's structural-sharing
// requirement: two assemblies built from the same parents and area are the
// same node).
func NewContentID(kind Kind, content []byte) ID {
	return ID{Kind: kind, UUID: uuid.NewSHA1(uuid.NameSpaceOID, content)}
}

func (id ID) String() string {
	return fmt.Sprintf("%s<%s>", id.Kind, id.UUID)
}

// Equal reports whether two IDs name the same entity.
func (id ID) Equal(other ID) bool {
	return id.UUID == other.UUID
}
