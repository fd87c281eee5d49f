// Package assembly implements the assembly graph (C6), the fire protocol
// (C7), and the high-level assembly operations (C8) — project,
// reciprocal-project, merge, associate, read — plus the implicit-context
// binding mechanism that lets those operations resolve a brain or a
// recording without an explicit argument. Grounded on
// original_source/assemblies/assembly_fun.py for the algorithm shapes and
// on original_source/utils/bindable.py / original_source/utils/recordable.py
// for the binding model, re-expressed per spec §9 as an explicit Context
// struct threaded through an RAII scope stack instead of runtime decorators.
package assembly
