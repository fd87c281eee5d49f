package assembly

import (
	"fmt"

	"github.com/guyde2011/assemblies/brain"
	"github.com/guyde2011/assemblies/part"
	"github.com/guyde2011/assemblies/types"
)

// defaultRepeat resolves the round count an operation runs when the caller
// does not pass one explicitly (repeat <= 0): the bound brain's current
// repeat setting, or 1 if no brain is bound at all. Recorded operations
// resolve it again at replay time against the replaying brain.
func defaultRepeat(ctx Context, repeat int) int {
	if repeat > 0 {
		return repeat
	}
	if ctx.Brain != nil {
		return ctx.Brain.Repeat()
	}
	return 1
}

// Project returns a new assembly with parents (a,) and area d. Outside any
// bound brain it is pure. Inside a brain scope it additionally sets
// winners[a.area] to a's identification (without touching a's own ancestor
// edges — read is a preserve-brain diagnostic, not a live round) and then
// fires a.area into d for repeat rounds, applying plasticity on that edge
// (spec §4.8).
func Project(ctx Context, a Projectable, d *part.Area, repeat int) (*Assembly, error) {
	node, err := New(d, []Projectable{a})
	if err != nil {
		return nil, err
	}
	requested := repeat
	repeat = defaultRepeat(ctx, repeat)

	if ctx.Brain != nil {
		if err := projectInBrain(ctx, a, d, repeat); err != nil {
			return nil, err
		}
	}
	if ctx.Recording != nil {
		ctx.Recording.Append("project", func(rctx Context) error {
			return projectInBrain(rctx, a, d, defaultRepeat(rctx, requested))
		})
	}
	return node, nil
}

func projectInBrain(ctx Context, a Projectable, d *part.Area, repeat int) error {
	b := ctx.Brain
	if b == nil {
		return fmt.Errorf("%w: project requires a bound brain", types.ErrScopeMisuse)
	}
	if asm, ok := a.(*Assembly); ok {
		ident, err := identify(ctx, asm, repeat)
		if err != nil {
			return err
		}
		b.Store().SeedWinners(asm.Area().ID(), ident)
	}
	return b.NextRound(brain.Subconnectome{d: {a.Source()}}, true, repeat)
}

// ReciprocalProject projects a into d, then projects the result back into
// a's own area, strengthening the d -> a.area edge as a side effect. It
// returns the forward assembly (spec §4.8).
func ReciprocalProject(ctx Context, a *Assembly, d *part.Area, repeat int) (*Assembly, error) {
	forward, err := Project(ctx, a, d, repeat)
	if err != nil {
		return nil, err
	}
	if _, err := Project(ctx, forward, a.Area(), repeat); err != nil {
		return nil, err
	}
	return forward, nil
}

// Merge returns a new assembly with the given parents and area d. Inside a
// brain scope it identifies each parent assembly (leaving stimuli as-is),
// seeds each parent's own area with that identification, then fires all
// parents simultaneously into d for repeat rounds — "simultaneously" here
// means one projection round with every parent as a source, which is
// exactly how the projection engine sums multiple sources already (spec
// §4.8, §4.4 step 1).
//
// merge and associate are always recorded rather than executed when a
// recording is bound, even if a brain happens to be bound too (spec §4.9:
// "Recordable operations ... merge and associate (always)").
func Merge(ctx Context, parents []Projectable, d *part.Area, repeat int) (*Assembly, error) {
	if len(parents) == 0 {
		return nil, fmt.Errorf("%w: merge requires at least one parent", types.ErrInvalidParameter)
	}
	node, err := New(d, parents)
	if err != nil {
		return nil, err
	}
	requested := repeat
	repeat = defaultRepeat(ctx, repeat)

	if ctx.Recording != nil {
		ctx.Recording.Append("merge", func(rctx Context) error {
			return mergeInBrain(rctx, parents, d, defaultRepeat(rctx, requested))
		})
		return node, nil
	}
	if ctx.Brain != nil {
		if err := mergeInBrain(ctx, parents, d, repeat); err != nil {
			return nil, err
		}
	}
	return node, nil
}

func mergeInBrain(ctx Context, parents []Projectable, d *part.Area, repeat int) error {
	b := ctx.Brain
	if b == nil {
		return fmt.Errorf("%w: merge requires a bound brain", types.ErrScopeMisuse)
	}
	sources := make([]part.Part, 0, len(parents))
	for _, p := range parents {
		if asm, ok := p.(*Assembly); ok {
			ident, err := identify(ctx, asm, repeat)
			if err != nil {
				return err
			}
			b.Store().SeedWinners(asm.Area().ID(), ident)
		}
		sources = append(sources, p.Source())
	}
	return b.NextRound(brain.Subconnectome{d: sources}, true, repeat)
}

// Associate strengthens co-activation between every pair (x, y) in A x B
// by merging each pair into x's own area. It has no return value; its
// effect is the accumulated weight changes from those merges (spec §4.8).
func Associate(ctx Context, A, B []*Assembly, repeat int) error {
	if len(A) == 0 || len(B) == 0 {
		return fmt.Errorf("%w: associate requires non-empty sets", types.ErrInvalidParameter)
	}
	requested := repeat
	repeat = defaultRepeat(ctx, repeat)

	if ctx.Recording != nil {
		ctx.Recording.Append("associate", func(rctx Context) error {
			return associateInBrain(rctx, A, B, defaultRepeat(rctx, requested))
		})
		return nil
	}
	if ctx.Brain != nil {
		return associateInBrain(ctx, A, B, repeat)
	}
	return nil
}

func associateInBrain(ctx Context, A, B []*Assembly, repeat int) error {
	for _, x := range A {
		for _, y := range B {
			if _, err := Merge(ctx, []Projectable{x, y}, x.Area(), repeat); err != nil {
				return err
			}
		}
	}
	return nil
}

// Read identifies, among candidates (assemblies the caller's recipe says
// live in area), the one whose identification best overlaps area's
// current winners, as a fraction of area.K() (spec §4.8). It returns
// ErrReadBelowThreshold if the best score is below threshold.
func Read(ctx Context, area *part.Area, candidates []*Assembly, repeat int, threshold float64) (*Assembly, float64, error) {
	b := ctx.Brain
	if b == nil {
		return nil, 0, fmt.Errorf("%w: read requires a bound brain", types.ErrScopeMisuse)
	}
	if len(candidates) == 0 {
		return nil, 0, fmt.Errorf("%w: no candidate assemblies registered for area", types.ErrInvalidParameter)
	}
	repeat = defaultRepeat(ctx, repeat)

	current := b.Winners(area.ID())
	currentSet := make(map[int]struct{}, len(current))
	for _, idx := range current {
		currentSet[idx] = struct{}{}
	}

	var best *Assembly
	bestScore := -1.0
	scores := make([]float64, 0, len(candidates))

	for _, cand := range candidates {
		score, fromCache := fastSubsetScore(cand, currentSet, area.K())
		if !fromCache {
			ident, err := identify(ctx, cand, repeat)
			if err != nil {
				return nil, 0, err
			}
			score = jaccardOverlap(ident, currentSet, area.K())
		}
		scores = append(scores, score)
		if score > bestScore {
			bestScore = score
			best = cand
		}
	}

	if len(scores) > 1 {
		logReadDiagnostics(scores)
	}

	if bestScore < threshold {
		return nil, bestScore, fmt.Errorf("%w: best overlap %.3f below threshold %.3f", types.ErrReadBelowThreshold, bestScore, threshold)
	}
	return best, bestScore, nil
}

// fastSubsetScore is the supplemented fast path: if cand's last computed
// identification is cached and exactly equals the area's current winners,
// the overlap is 1 without re-running a preserve-brain fire.
func fastSubsetScore(cand *Assembly, currentSet map[int]struct{}, k int) (float64, bool) {
	cached := cand.cachedIdentification()
	if cached == nil || len(cached) != len(currentSet) {
		return 0, false
	}
	for _, idx := range cached {
		if _, ok := currentSet[idx]; !ok {
			return 0, false
		}
	}
	return 1.0, true
}

func jaccardOverlap(identified []int, currentSet map[int]struct{}, k int) float64 {
	if k == 0 {
		return 0
	}
	overlap := 0
	for _, idx := range identified {
		if _, ok := currentSet[idx]; ok {
			overlap++
		}
	}
	return float64(overlap) / float64(k)
}
