package assembly

import (
	"bytes"
	"fmt"
	"sort"
	"sync"

	"github.com/guyde2011/assemblies/part"
	"github.com/guyde2011/assemblies/types"
)

// Projectable is anything the fire protocol can treat as a source: a
// stimulus (a leaf, no parents) or an assembly (parents resolved
// recursively). Grounded on original_source/assemblies/assembly_fun.py's
// duck-typed "Stimulus or Assembly" parameters, made explicit as an
// interface per spec §9's tagged-sum guidance.
type Projectable interface {
	fmt.Stringer
	// ID returns the projectable's identity, used for layer deduplication
	// and canonical parent ordering.
	ID() types.ID
	// Source returns the part.Part that actually fires when this
	// projectable is activated: itself for a stimulus, its area for an
	// assembly.
	Source() part.Part
	// Parents returns the projectables this one is directly built from,
	// or nil for a stimulus leaf.
	Parents() []Projectable
	// IsStimulus reports whether this projectable is a stimulus leaf.
	IsStimulus() bool
}

// stimulusLeaf adapts a *part.Stimulus into a Projectable with no parents.
type stimulusLeaf struct {
	s *part.Stimulus
}

// Leaf wraps a stimulus as a Projectable, the base case of every assembly
// lineage.
func Leaf(s *part.Stimulus) Projectable { return stimulusLeaf{s: s} }

func (l stimulusLeaf) ID() types.ID          { return l.s.ID() }
func (l stimulusLeaf) Source() part.Part     { return l.s }
func (l stimulusLeaf) Parents() []Projectable { return nil }
func (l stimulusLeaf) IsStimulus() bool      { return true }
func (l stimulusLeaf) String() string        { return l.s.String() }

// Assembly is an immutable node in the assembly DAG (spec §3/§4.6, C6): a
// destination area plus an ordered tuple of parent projectables. Its
// identity is a content hash of (area id, sorted parent ids), so two
// structurally identical constructions are the same node (global registry,
// below).
type Assembly struct {
	id      types.ID
	area    *part.Area
	parents []Projectable

	mu             sync.Mutex
	lastIdentified []int
}

func (a *Assembly) ID() types.ID           { return a.id }
func (a *Assembly) Source() part.Part      { return a.area }
func (a *Assembly) Parents() []Projectable { return append([]Projectable(nil), a.parents...) }
func (a *Assembly) IsStimulus() bool       { return false }
func (a *Assembly) Area() *part.Area       { return a.area }

func (a *Assembly) String() string {
	return fmt.Sprintf("Assembly(%s, area=%s, parents=%d)", a.id, a.area.ID(), len(a.parents))
}

// cacheIdentification remembers the last winner set identify() produced
// for this assembly, enabling read's fast subset-check path.
func (a *Assembly) cacheIdentification(winners []int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastIdentified = append([]int(nil), winners...)
}

func (a *Assembly) cachedIdentification() []int {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.lastIdentified == nil {
		return nil
	}
	return append([]int(nil), a.lastIdentified...)
}

// registry is the global arena + structural-sharing dedup table for
// assemblies (spec §9: "an arena that owns all assemblies, keyed by the
// canonical hash of (area, sorted parent ids); parent links are arena
// indices, not owning references" — realized here as a content-addressed
// map rather than literal integer indices, since Go's GC makes the
// retain-cycle concern the arena was meant to solve moot).
type registry struct {
	mu     sync.Mutex
	byHash map[string]*Assembly
}

var globalRegistry = &registry{byHash: make(map[string]*Assembly)}

func contentID(area *part.Area, parents []Projectable) types.ID {
	sorted := append([]Projectable(nil), parents...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ID().UUID.String() < sorted[j].ID().UUID.String()
	})

	var buf bytes.Buffer
	buf.WriteString(area.ID().String())
	for _, p := range sorted {
		buf.WriteByte('|')
		buf.WriteString(p.ID().String())
	}
	return types.NewContentID(types.KindAssembly, buf.Bytes())
}

// New returns the canonical assembly for (area, parents), creating it on
// first use. len(parents) must be >= 1 (spec §7: "empty merge" is
// InvalidParameter).
func New(area *part.Area, parents []Projectable) (*Assembly, error) {
	if len(parents) == 0 {
		return nil, fmt.Errorf("%w: assembly needs at least one parent", types.ErrInvalidParameter)
	}
	id := contentID(area, parents)
	key := id.String()

	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()
	if existing, ok := globalRegistry.byHash[key]; ok {
		return existing, nil
	}
	a := &Assembly{
		id:      id,
		area:    area,
		parents: append([]Projectable(nil), parents...),
	}
	globalRegistry.byHash[key] = a
	return a, nil
}

var (
	_ Projectable = stimulusLeaf{}
	_ Projectable = (*Assembly)(nil)
)
