package assembly

import (
	"fmt"

	"github.com/guyde2011/assemblies/brain"
	"github.com/guyde2011/assemblies/part"
	"github.com/guyde2011/assemblies/types"
)

// frame maps a projectable's identity to the projectable itself and the
// set of areas it must be fired into for the current layer.
type frame map[types.ID]*frameEntry

type frameEntry struct {
	proj    Projectable
	targets map[types.ID]*part.Area
}

func newFrame() frame { return make(frame) }

func (f frame) add(p Projectable, dest *part.Area) {
	e, ok := f[p.ID()]
	if !ok {
		e = &frameEntry{proj: p, targets: make(map[types.ID]*part.Area)}
		f[p.ID()] = e
	}
	e.targets[dest.ID()] = dest
}

func (f frame) hasAssembly() bool {
	for _, e := range f {
		if !e.proj.IsStimulus() {
			return true
		}
	}
	return false
}

// buildLayers implements C7's layer-building walk: starting from bottom
// (the operation's literal request), repeatedly replace every non-stimulus
// entry with its parents (targeted at the entry's own area), carrying
// stimuli through unchanged, until the frontier contains only stimuli
// (spec §4.7).
func buildLayers(bottom frame) []frame {
	layers := []frame{bottom}
	cur := bottom
	for cur.hasAssembly() {
		next := newFrame()
		for _, e := range cur {
			if e.proj.IsStimulus() {
				for _, dest := range e.targets {
					next.add(e.proj, dest)
				}
				continue
			}
			asm := e.proj.(*Assembly)
			for _, parent := range asm.Parents() {
				next.add(parent, asm.Area())
			}
		}
		layers = append(layers, next)
		cur = next
	}
	return layers
}

// runLayers executes layers top-down (ancestor-most first, the caller's
// original request last), each layer as one brain.NextRound call with
// replace=true so the temporary edges never touch the brain's persistent
// active edge set (spec §4.7: "enable those edges, call one round, disable
// them again").
func runLayers(b *brain.Brain, layers []frame, repeat int) error {
	for i := len(layers) - 1; i >= 0; i-- {
		sub := make(brain.Subconnectome)
		for _, e := range layers[i] {
			for _, dest := range e.targets {
				sub[dest] = append(sub[dest], e.proj.Source())
			}
		}
		if len(sub) == 0 {
			continue
		}
		if err := b.NextRound(sub, true, repeat); err != nil {
			return err
		}
	}
	return nil
}

func touchedAreas(layers []frame) []*part.Area {
	seen := make(map[types.ID]*part.Area)
	order := make([]types.ID, 0)
	for _, l := range layers {
		for _, e := range l {
			for id, dest := range e.targets {
				if _, ok := seen[id]; !ok {
					order = append(order, id)
				}
				seen[id] = dest
			}
		}
	}
	out := make([]*part.Area, 0, len(order))
	for _, id := range order {
		out = append(out, seen[id])
	}
	return out
}

// firePreserve runs the fire protocol non-destructively (C7's preserve-
// brain mode): every touched area's winners are snapshotted first,
// plasticity is disabled for the walk, and both are restored afterward.
// It returns each touched area's winners as they stood immediately after
// firing, before the snapshots were reinstated.
func firePreserve(ctx Context, bottom frame, repeat int) (map[types.ID][]int, error) {
	b := ctx.Brain
	if b == nil {
		return nil, fmt.Errorf("%w: fire requires a bound brain", types.ErrScopeMisuse)
	}

	layers := buildLayers(bottom)
	areas := touchedAreas(layers)

	snapshots := make(map[types.ID][]int, len(areas))
	for _, a := range areas {
		snapshots[a.ID()] = b.Winners(a.ID())
	}

	wasPlastic := b.PlasticityEnabled()
	b.DisablePlasticity()
	defer func() {
		for i := len(areas) - 1; i >= 0; i-- {
			a := areas[i]
			b.Store().SeedWinners(a.ID(), snapshots[a.ID()])
		}
		if wasPlastic {
			b.EnablePlasticity()
		}
	}()

	if err := runLayers(b, layers, repeat); err != nil {
		return nil, err
	}

	result := make(map[types.ID][]int, len(areas))
	for _, a := range areas {
		result[a.ID()] = b.Winners(a.ID())
	}
	return result, nil
}

// identify computes the winner set asm would produce in its own area,
// without committing the change to the brain (spec §4.7's "identification"
// primitive, reused by project's read(a) step and by the read operation).
// The bottom layer fires asm's immediate parents into asm's own area
// directly — starting one level up from asm itself avoids a spurious
// self-loop round that firing {asm: [asm.Area()]} would otherwise add,
// since asm's Source() is asm.Area() itself.
func identify(ctx Context, asm *Assembly, repeat int) ([]int, error) {
	bottom := newFrame()
	for _, parent := range asm.Parents() {
		bottom.add(parent, asm.Area())
	}
	result, err := firePreserve(ctx, bottom, repeat)
	if err != nil {
		return nil, err
	}
	winners := result[asm.Area().ID()]
	asm.cacheIdentification(winners)
	return winners, nil
}
