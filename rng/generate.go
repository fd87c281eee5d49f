package rng

import (
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"runtime"
	"sync"

	"github.com/klauspost/cpuid/v2"

	"github.com/guyde2011/assemblies/types"
)

// DefaultWorkers returns the host worker-pool size used when a caller does
// not pin one explicitly: the number of logical cores cpuid reports,
// falling back to runtime.NumCPU if cpuid could not detect the host.
func DefaultWorkers() int {
	n := cpuid.CPU.LogicalCores
	if n <= 0 {
		n = runtime.NumCPU()
	}
	if n < 1 {
		n = 1
	}
	return n
}

// Generate produces an H x W matrix of i.i.d. Bernoulli(p) samples, split
// across workers independent PCG streams. Given the same (h, w, p, seed,
// workers), the output is bit-identical regardless of host (spec §4.1).
//
// workers <= 0 selects DefaultWorkers.
func Generate(h, w int, p float64, seed uint64, order Order, workers int) (*Matrix, error) {
	if p < 0 || p > 1 {
		return nil, fmt.Errorf("%w: probability %v outside [0,1]", types.ErrInvalidParameter, p)
	}
	if h < 0 || w < 0 {
		return nil, fmt.Errorf("%w: negative matrix dimension (%d, %d)", types.ErrInvalidParameter, h, w)
	}

	m := NewMatrix(h, w, order)
	if h == 0 || w == 0 {
		return m, nil
	}

	if workers <= 0 {
		workers = DefaultWorkers()
	}
	if workers > h {
		workers = h
	}

	streams := jumpedStreams(seed, workers)
	step := (h + workers - 1) / workers

	var wg sync.WaitGroup
	for worker := 0; worker < workers; worker++ {
		first := worker * step
		if first >= h {
			break
		}
		last := first + step
		if last > h {
			last = h
		}

		wg.Add(1)
		go func(src *rand.Rand, first, last int) {
			defer wg.Done()
			for i := first; i < last; i++ {
				for j := 0; j < w; j++ {
					if src.Float64() < p {
						m.Set(i, j, 1)
					}
				}
			}
		}(streams[worker], first, last)
	}
	wg.Wait()

	return m, nil
}

// jumpedStreams derives n independent, reproducible PCG streams from seed.
// math/rand/v2's PCG does not expose the jump-ahead operation the Python
// original's PCG64.jumped() uses, so independent streams are derived by
// splitmix64-stepping the seed material instead — deterministic and
// collision-resistant given the same seed and n.
func jumpedStreams(seed uint64, n int) []*rand.Rand {
	out := make([]*rand.Rand, n)
	s := seed
	for i := 0; i < n; i++ {
		s = splitmix64(s)
		s2 := splitmix64(s)
		out[i] = rand.New(rand.NewPCG(s, s2))
	}
	return out
}

func splitmix64(x uint64) uint64 {
	x += 0x9E3779B97F4A7C15
	z := x
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

// EdgeSeed derives a per-edge seed from a global seed and two identity
// strings, so that the connection store's lazy initialization is
// reproducible regardless of the order edges happen to be first touched in
// (spec §3's "insertion order irrelevant" invariant).
func EdgeSeed(global uint64, sourceID, destID string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(sourceID))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(destID))
	return splitmix64(global ^ h.Sum64())
}
