// Package rng generates reproducible, thread-partitioned Bernoulli(p)
// matrices for connectome initialization (spec §4.1). A single PCG stream
// is seeded and split into per-worker streams; each worker fills a disjoint
// row band, so no locking is required inside the kernel.
package rng
