// Package project implements the projection engine (spec §4.4/§5, C4): one
// round of input computation, top-k winner selection, and Hebbian
// plasticity across a set of destination areas. Grounded on
// extracellular/diffusion.go's parallel-band reduction pattern and
// original_source/brain/performance/multithreaded_rounds.py's
// per-area-worker round structure.
package project

import (
	"container/heap"
	"fmt"
	"sort"
	"sync"

	"github.com/guyde2011/assemblies/connectome"
	"github.com/guyde2011/assemblies/part"
	"github.com/guyde2011/assemblies/rng"
	"github.com/guyde2011/assemblies/types"
)

// Input names one destination area together with the sources projecting
// into it for this round.
type Input struct {
	Dest    *part.Area
	Sources []part.Part
}

// Round runs one synchronous projection round: every dest in inputs
// computes its total input from its listed sources' current winners (or,
// for a Stimulus source, from all of its neurons), selects its top-K
// winners, and — once every dest's new winners are committed — applies
// multiplicative Hebbian plasticity to the edges that fired, if the store's
// plasticity flag is enabled (spec §4.4, §5 ordering guarantee b).
//
// workers <= 0 lets each per-area reduction pick its own worker count.
func Round(store *connectome.Store, inputs []Input, workers int) error {
	if len(inputs) == 0 {
		return nil
	}

	// Phase 1: compute each destination's per-neuron total input from the
	// PRE-round winners of every source, potentially in parallel across
	// destinations (independent areas touch disjoint connections).
	type computed struct {
		dest    *part.Area
		sources []part.Part
		conns   []*connectome.Connection
		totals  []float32
		winners []int
		err     error
	}

	results := make([]computed, len(inputs))
	var wg sync.WaitGroup
	for idx, in := range inputs {
		wg.Add(1)
		go func(idx int, in Input) {
			defer wg.Done()
			totals := make([]float32, in.Dest.Size())
			conns := make([]*connectome.Connection, len(in.Sources))
			for si, src := range in.Sources {
				c, err := store.Get(src, in.Dest)
				if err != nil {
					results[idx] = computed{err: err}
					return
				}
				conns[si] = c

				if src.Kind() == part.KindStimulus {
					c.W.AddAllColSumsInto(totals)
					continue
				}
				srcWinners := store.Winners(src.ID())
				if err := accumulateRowsInto(c.W, srcWinners, totals, workers); err != nil {
					results[idx] = computed{err: err}
					return
				}
			}
			winners, err := topK(totals, in.Dest.K())
			results[idx] = computed{dest: in.Dest, sources: in.Sources, conns: conns, totals: totals, winners: winners, err: err}
		}(idx, in)
	}
	wg.Wait()

	for _, r := range results {
		if r.err != nil {
			return r.err
		}
	}

	// Phase 2: commit every destination's new winners atomically, before
	// any plasticity update reads them (spec §5 ordering guarantee b).
	for _, r := range results {
		store.CommitWinners(r.dest.ID(), r.winners)
	}

	if !store.PlasticityEnabled() {
		return nil
	}

	// Phase 3: apply plasticity. A source that is also one of this round's
	// destinations must see its POST-commit winners here.
	for _, r := range results {
		for si, src := range r.sources {
			c := r.conns[si]
			beta := effectiveBeta(src, r.dest)
			if beta == 0 {
				continue
			}
			if src.Kind() == part.KindStimulus {
				if err := applyPlasticityAllRows(c.W, r.winners, beta); err != nil {
					return err
				}
				continue
			}
			srcWinners := store.Winners(src.ID())
			if err := applyPlasticityRows(c.W, srcWinners, r.winners, beta); err != nil {
				return err
			}
		}
	}

	return nil
}

// effectiveBeta resolves spec §9's flagged ambiguity over which endpoint's
// beta governs an edge's plasticity: the source's beta when the source is
// an Area, the destination's beta when the source is a Stimulus (matching
// original_source/brain/connectome/non_lazy_connectome.py's
// `beta = source.beta if isinstance(source, Area) else area.beta`).
func effectiveBeta(src part.Part, dest *part.Area) float64 {
	if src.Kind() == part.KindArea {
		return src.Beta()
	}
	return dest.Beta()
}

// accumulateRowsInto adds the rows of w named by winners into dst,
// partitioning the winner list across workers for large winner sets. A
// winner index outside w's row range (a stale or corrupted winner set)
// fails with types.ErrDimensionMismatch instead of panicking (spec §4.4).
func accumulateRowsInto(w *rng.Matrix, winners []int, dst []float32, workers int) error {
	if len(winners) == 0 {
		return nil
	}
	if workers <= 0 {
		workers = defaultRowWorkers(len(winners))
	}
	if workers <= 1 || len(winners) < workers*4 {
		for _, i := range winners {
			if err := w.AddRowIntoChecked(i, dst); err != nil {
				return err
			}
		}
		return nil
	}

	partials := make([][]float32, workers)
	errs := make([]error, workers)
	step := (len(winners) + workers - 1) / workers
	var wg sync.WaitGroup
	for wk := 0; wk < workers; wk++ {
		first := wk * step
		if first >= len(winners) {
			break
		}
		last := first + step
		if last > len(winners) {
			last = len(winners)
		}
		partials[wk] = make([]float32, len(dst))
		wg.Add(1)
		go func(wk, first, last int) {
			defer wg.Done()
			for _, i := range winners[first:last] {
				if err := w.AddRowIntoChecked(i, partials[wk]); err != nil {
					errs[wk] = err
					return
				}
			}
		}(wk, first, last)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	for _, p := range partials {
		if p == nil {
			continue
		}
		for j, v := range p {
			dst[j] += v
		}
	}
	return nil
}

func defaultRowWorkers(n int) int {
	if n < 64 {
		return 1
	}
	return 4
}

// applyPlasticityRows scales w[i][j] by (1+beta) for every winner row i and
// winner column j — the multiplicative Hebbian update (spec §4.4 step 3).
// An out-of-range winner index fails with types.ErrDimensionMismatch
// instead of panicking.
func applyPlasticityRows(w *rng.Matrix, srcWinners, destWinners []int, beta float64) error {
	factor := float32(1 + beta)
	for _, i := range srcWinners {
		for _, j := range destWinners {
			v, err := w.AtChecked(i, j)
			if err != nil {
				return err
			}
			if err := w.SetChecked(i, j, v*factor); err != nil {
				return err
			}
		}
	}
	return nil
}

// applyPlasticityAllRows is applyPlasticityRows specialized for a Stimulus
// source, whose every row fires every round.
func applyPlasticityAllRows(w *rng.Matrix, destWinners []int, beta float64) error {
	factor := float32(1 + beta)
	for i := 0; i < w.Rows; i++ {
		for _, j := range destWinners {
			v, err := w.AtChecked(i, j)
			if err != nil {
				return err
			}
			if err := w.SetChecked(i, j, v*factor); err != nil {
				return err
			}
		}
	}
	return nil
}

// heapItem is a (value, index) pair ordered for a min-heap that evicts the
// smallest value, tie-broken toward evicting the HIGHER index first so that
// ties are resolved in favor of the lower index surviving (spec §8: "ties
// broken by lower index first; stable across platforms").
type heapItem struct {
	value float32
	index int
}

type minHeap []heapItem

func (h minHeap) Len() int { return len(h) }
func (h minHeap) Less(i, j int) bool {
	if h[i].value != h[j].value {
		return h[i].value < h[j].value
	}
	return h[i].index > h[j].index
}
func (h minHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *minHeap) Push(x any)        { *h = append(*h, x.(heapItem)) }
func (h *minHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// topK returns the indices of the k largest entries of totals, sorted
// ascending by index, with ties broken toward the lower index.
func topK(totals []float32, k int) ([]int, error) {
	if k < 0 || k > len(totals) {
		return nil, fmt.Errorf("%w: k=%d out of range for %d neurons", types.ErrDimensionMismatch, k, len(totals))
	}
	if k == 0 {
		return nil, nil
	}

	h := make(minHeap, 0, k)
	heap.Init(&h)
	for i, v := range totals {
		if h.Len() < k {
			heap.Push(&h, heapItem{value: v, index: i})
			continue
		}
		if v > h[0].value || (v == h[0].value && i < h[0].index) {
			heap.Pop(&h)
			heap.Push(&h, heapItem{value: v, index: i})
		}
	}

	out := make([]int, 0, k)
	for _, item := range h {
		out = append(out, item.index)
	}
	sort.Ints(out)
	return out, nil
}
