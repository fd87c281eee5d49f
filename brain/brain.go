// Package brain implements the Brain (spec §3/§4.5, C5): the owner of a
// connectome, the set of parts registered into it, and the active-edge
// graph that turns a requested subconnectome into projection-engine
// rounds. Grounded on neuron/network.go's registry-plus-adjacency shape and
// original_source/brain/brain.py's Brain.next_round.
package brain

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/guyde2011/assemblies/connectome"
	"github.com/guyde2011/assemblies/part"
	"github.com/guyde2011/assemblies/project"
	"github.com/guyde2011/assemblies/rng"
	"github.com/guyde2011/assemblies/types"
)

// Brain owns one connectome, a registry of every part ever added to it, and
// the set of edges currently enabled for projection.
type Brain struct {
	mu sync.RWMutex

	store *connectome.Store

	parts map[types.ID]part.Part
	areas map[types.ID]*part.Area

	// active[dest][source] records that source -> dest currently fires.
	active map[types.ID]map[types.ID]struct{}

	workers int
	log     zerolog.Logger

	repeat int
}

// New constructs an empty Brain backed by a connectome with Bernoulli(p)
// lazy initialization seeded by seed. workers <= 0 selects
// rng.DefaultWorkers(), resolved once here and passed to both the
// connectome and every projection round.
func New(p float64, seed uint64, workers int) (*Brain, error) {
	if workers <= 0 {
		workers = rng.DefaultWorkers()
	}
	store, err := connectome.NewStore(p, seed, workers)
	if err != nil {
		return nil, err
	}
	return &Brain{
		store:   store,
		parts:   make(map[types.ID]part.Part),
		areas:   make(map[types.ID]*part.Area),
		active:  make(map[types.ID]map[types.ID]struct{}),
		workers: workers,
		log:     log.With().Str("component", "brain").Logger(),
		repeat:  1,
	}, nil
}

// Repeat returns the number of rounds an assembly operation runs by default
// when it is not given an explicit count (spec §4.9: train vs. effective
// repeat).
func (b *Brain) Repeat() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.repeat
}

// SetRepeat changes the default repeat count, used by Bake to switch from
// a high training repeat to a low effective-use repeat.
func (b *Brain) SetRepeat(r int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.repeat = r
}

// PlasticityEnabled reports whether the underlying connectome currently
// applies plasticity updates during NextRound.
func (b *Brain) PlasticityEnabled() bool { return b.store.PlasticityEnabled() }

// Store exposes the underlying connectome, for assembly-layer operations
// that need direct winners/weight access.
func (b *Brain) Store() *connectome.Store { return b.store }

// AddArea constructs a new area from cfg, registers it, and returns it.
func (b *Brain) AddArea(cfg part.AreaConfig) (*part.Area, error) {
	a, err := part.NewArea(cfg)
	if err != nil {
		return nil, err
	}
	b.RegisterArea(a)
	return a, nil
}

// AddStimulus constructs a new stimulus from cfg, registers it, and
// returns it.
func (b *Brain) AddStimulus(cfg part.StimulusConfig) (*part.Stimulus, error) {
	s, err := part.NewStimulus(cfg)
	if err != nil {
		return nil, err
	}
	b.RegisterStimulus(s)
	return s, nil
}

// RegisterArea installs a pre-existing area into this brain without
// minting a new identity. A recipe's areas are built once and registered
// into every brain baked from it (spec §8, scenario 5: the same recipe
// baked into independent brains), so part construction and brain
// registration are deliberately separate steps.
func (b *Brain) RegisterArea(a *part.Area) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.parts[a.ID()] = a
	b.areas[a.ID()] = a
	if _, ok := b.active[a.ID()]; !ok {
		b.active[a.ID()] = make(map[types.ID]struct{})
	}
}

// RegisterStimulus installs a pre-existing stimulus into this brain.
func (b *Brain) RegisterStimulus(s *part.Stimulus) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.parts[s.ID()] = s
}

// Part looks up a previously registered part by ID.
func (b *Brain) Part(id types.ID) (part.Part, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	p, ok := b.parts[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrUnknownPart, id)
	}
	return p, nil
}

// Enable marks source -> dest as firing. If dest is nil, source is enabled
// into every area currently registered (spec §4.5: "nil dest means all
// destinations").
func (b *Brain) Enable(source part.Part, dest *part.Area) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.parts[source.ID()]; !ok {
		return fmt.Errorf("%w: %s", types.ErrUnknownPart, source.ID())
	}
	if dest != nil {
		if _, ok := b.areas[dest.ID()]; !ok {
			return fmt.Errorf("%w: %s", types.ErrUnknownPart, dest.ID())
		}
		b.active[dest.ID()][source.ID()] = struct{}{}
		return nil
	}
	for areaID := range b.areas {
		b.active[areaID][source.ID()] = struct{}{}
	}
	return nil
}

// Disable removes source -> dest from the active edge set. A nil dest
// disables source from every area.
func (b *Brain) Disable(source part.Part, dest *part.Area) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if dest != nil {
		if _, ok := b.areas[dest.ID()]; !ok {
			return fmt.Errorf("%w: %s", types.ErrUnknownPart, dest.ID())
		}
		delete(b.active[dest.ID()], source.ID())
		return nil
	}
	for areaID := range b.active {
		delete(b.active[areaID], source.ID())
	}
	return nil
}

// EnablePlasticity resumes weight updates during NextRound.
func (b *Brain) EnablePlasticity() { b.store.EnablePlasticity() }

// DisablePlasticity freezes weights during NextRound, winners still update.
func (b *Brain) DisablePlasticity() { b.store.DisablePlasticity() }

// Winners returns area a's current winner set.
func (b *Brain) Winners(a types.ID) []int { return b.store.Winners(a) }

// Support returns area a's all-time support set.
func (b *Brain) Support(a types.ID) []int { return b.store.Support(a) }

// Subconnectome names, per destination area, the sources that should
// project into it for one NextRound call.
type Subconnectome map[*part.Area][]part.Part

// NextRound runs iterations projection rounds. If sub is nil, every
// currently active edge fires (spec §4.5: the brain-wide default
// projection graph). If replace is true, sub's edges replace the active
// set for the duration of this call instead of being layered on top of it.
func (b *Brain) NextRound(sub Subconnectome, replace bool, iterations int) error {
	if iterations < 0 {
		return fmt.Errorf("%w: iterations must be >= 0, got %d", types.ErrInvalidParameter, iterations)
	}

	inputs, err := b.resolveInputs(sub, replace)
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		return nil
	}

	for round := 0; round < iterations; round++ {
		if err := project.Round(b.store, inputs, b.workers); err != nil {
			return err
		}
		if ev := b.log.Debug(); ev.Enabled() {
			ev.Int("round", round).
				Int("areas", len(inputs)).
				Float32("sample_weight_norm", b.sampleWeightNorm(inputs)).
				Msg("projection round complete")
		}
	}
	return nil
}

// sampleWeightNorm returns the L2 norm of one arbitrary already-materialized
// connection feeding the first input, purely as a lightweight trace signal;
// it never allocates a new connection.
func (b *Brain) sampleWeightNorm(inputs []project.Input) float32 {
	for _, in := range inputs {
		for _, src := range in.Sources {
			if c, ok := b.store.Peek(src, in.Dest); ok {
				return c.W.L2Norm()
			}
		}
	}
	return 0
}

func (b *Brain) resolveInputs(sub Subconnectome, replace bool) ([]project.Input, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	bySources := make(map[types.ID][]part.Part)
	destByID := make(map[types.ID]*part.Area)

	if sub == nil || !replace {
		for destID, sources := range b.active {
			dest, ok := b.areas[destID]
			if !ok {
				continue
			}
			list := make([]part.Part, 0, len(sources))
			for srcID := range sources {
				src, ok := b.parts[srcID]
				if !ok {
					return nil, fmt.Errorf("%w: %s", types.ErrUnknownPart, srcID)
				}
				list = append(list, src)
			}
			if len(list) > 0 {
				bySources[destID] = list
				destByID[destID] = dest
			}
		}
	}

	for dest, sources := range sub {
		if _, ok := b.areas[dest.ID()]; !ok {
			return nil, fmt.Errorf("%w: %s", types.ErrUnknownPart, dest.ID())
		}
		destByID[dest.ID()] = dest
		if replace {
			bySources[dest.ID()] = append([]part.Part(nil), sources...)
		} else {
			bySources[dest.ID()] = append(bySources[dest.ID()], sources...)
		}
	}

	inputs := make([]project.Input, 0, len(bySources))
	for destID, sources := range bySources {
		inputs = append(inputs, project.Input{Dest: destByID[destID], Sources: sources})
	}
	return inputs, nil
}
