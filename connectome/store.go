// Package connectome implements the sparse (source, dest) -> weight-matrix
// store (spec §3/§4.3, C3): lazy Bernoulli(p) initialization via rng, a
// brain-wide plasticity toggle, and the winners/support maps the
// projection engine commits into. Grounded on extracellular/matrix.go's
// map-of-components-behind-a-RWMutex shape and
// original_source/brain/connectome/non_lazy_connectome.py's
// _initialize_connection.
package connectome

import (
	"fmt"
	"sort"
	"sync"

	"github.com/guyde2011/assemblies/part"
	"github.com/guyde2011/assemblies/rng"
	"github.com/guyde2011/assemblies/types"
)

// Connection is a directed (source, dest) edge with a dense Rows=source.n x
// Cols=dest.n weight matrix, stored column-major so a destination neuron's
// incoming column is contiguous (spec §4.1).
type Connection struct {
	Source part.Part
	Dest   *part.Area
	W      *rng.Matrix
}

type edgeKey struct {
	source, dest types.ID
}

// Store is the connectome's connection store: a (source, dest) -> *Connection
// map with lazy initialization, plus the winners/support state the
// projection engine reads and commits. It is safe for concurrent use by
// multiple projection-engine workers, subject to spec §5's single-writer
// discipline (only project.Round mutates winners/support/weights).
type Store struct {
	mu sync.RWMutex

	conns map[edgeKey]*Connection

	p       float64
	seed    uint64
	workers int
	lazy    bool

	plasticity bool

	winners map[types.ID][]int
	support map[types.ID]map[int]struct{}
}

// NewStore creates a connection store that lazily initializes missing edges
// with i.i.d. Bernoulli(p) entries seeded deterministically from seed.
// workers <= 0 uses rng.DefaultWorkers for each lazy allocation.
func NewStore(p float64, seed uint64, workers int) (*Store, error) {
	if p < 0 || p > 1 {
		return nil, fmt.Errorf("%w: probability %v outside [0,1]", types.ErrInvalidParameter, p)
	}
	return &Store{
		conns:      make(map[edgeKey]*Connection),
		p:          p,
		seed:       seed,
		workers:    workers,
		lazy:       true,
		plasticity: true,
		winners:    make(map[types.ID][]int),
		support:    make(map[types.ID]map[int]struct{}),
	}, nil
}

// DisableLazyInit makes Get fail with ErrMissingConnection instead of
// allocating an absent edge.
func (s *Store) DisableLazyInit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lazy = false
}

// EnableLazyInit restores the default lazy-allocation behavior.
func (s *Store) EnableLazyInit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lazy = true
}

// DisablePlasticity stops project.Round from applying weight updates.
func (s *Store) DisablePlasticity() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plasticity = false
}

// EnablePlasticity resumes plasticity updates.
func (s *Store) EnablePlasticity() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plasticity = true
}

// PlasticityEnabled reports whether plasticity updates are currently active.
func (s *Store) PlasticityEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.plasticity
}

// Get returns the connection from src to dest, lazily allocating it with
// Bernoulli(p) entries if it is absent and lazy init is enabled.
func (s *Store) Get(src part.Part, dest *part.Area) (*Connection, error) {
	key := edgeKey{src.ID(), dest.ID()}

	s.mu.RLock()
	c, ok := s.conns[key]
	s.mu.RUnlock()
	if ok {
		return c, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.conns[key]; ok {
		return c, nil
	}
	if !s.lazy {
		return nil, fmt.Errorf("%w: (%s -> %s)", types.ErrMissingConnection, src.ID(), dest.ID())
	}

	seed := rng.EdgeSeed(s.seed, src.ID().String(), dest.ID().String())
	w, err := rng.Generate(src.Size(), dest.Size(), s.p, seed, rng.ColMajor, s.workers)
	if err != nil {
		return nil, err
	}
	c = &Connection{Source: src, Dest: dest, W: w}
	s.conns[key] = c
	return c, nil
}

// Peek returns the connection from src to dest if it already exists,
// without allocating one, and reports whether it was found.
func (s *Store) Peek(src, dest part.Part) (*Connection, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.conns[edgeKey{src.ID(), dest.ID()}]
	return c, ok
}

// Edge names one directed connection by its endpoints' identities.
type Edge struct {
	Source, Dest types.ID
}

// IterEdges returns every (source, dest) pair currently materialized in the
// store. Order is unspecified (spec §3: "insertion order irrelevant").
func (s *Store) IterEdges() []Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	edges := make([]Edge, 0, len(s.conns))
	for k := range s.conns {
		edges = append(edges, Edge{Source: k.source, Dest: k.dest})
	}
	return edges
}

// Winners returns a copy of area a's current winner set, or nil if the area
// has never completed a round.
func (s *Store) Winners(a types.ID) []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w := s.winners[a]
	if w == nil {
		return nil
	}
	out := make([]int, len(w))
	copy(out, w)
	return out
}

// Support returns a sorted copy of area a's support set — every index that
// has ever won (spec §3: "superset of winners").
func (s *Store) Support(a types.ID) []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set := s.support[a]
	out := make([]int, 0, len(set))
	for idx := range set {
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}

// CommitWinners atomically replaces area a's winners and extends its
// support set (spec §4.4: "Replace winners[d] atomically only after all
// destinations have been processed").
func (s *Store) CommitWinners(a types.ID, winners []int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]int, len(winners))
	copy(cp, winners)
	s.winners[a] = cp

	set := s.support[a]
	if set == nil {
		set = make(map[int]struct{}, len(winners))
		s.support[a] = set
	}
	for _, idx := range winners {
		set[idx] = struct{}{}
	}
}

// SeedWinners forcibly sets area a's winners without touching support,
// used by assembly operations that replay a previously identified winner
// set before firing (spec §4.8: "set winners[a.area] := read(a)").
func (s *Store) SeedWinners(a types.ID, winners []int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]int, len(winners))
	copy(cp, winners)
	s.winners[a] = cp
}
