// Package recipe implements the declarative brain population and
// replayable initialization script (spec §3/§4.9, C9). Grounded on
// original_source/brain/brain_recipe.py's area/stimulus/assembly sets plus
// area->assemblies multimap, and original_source/utils/blueprints/recording.py's
// record-then-play lifecycle, re-expressed with Go closures captured at
// record time (see assembly.Recording) instead of Python's
// argument_restrict reflection trick.
package recipe

import (
	"sync"

	"github.com/guyde2011/assemblies/assembly"
	"github.com/guyde2011/assemblies/brain"
	"github.com/guyde2011/assemblies/part"
	"github.com/guyde2011/assemblies/types"
)

// Recipe holds the population of areas, stimuli, and assemblies a brain is
// built from, plus the recording of operations that initializes them. It
// is built once, before any brain exists, and may be baked into many
// independent brains (spec §8 scenario 5).
type Recipe struct {
	mu sync.Mutex

	areas      map[types.ID]*part.Area
	stimuli    map[types.ID]*part.Stimulus
	assemblies map[types.ID]*assembly.Assembly
	byArea     map[types.ID][]*assembly.Assembly

	recording *assembly.Recording
}

// New returns an empty recipe with a fresh, empty recording.
func New() *Recipe {
	return &Recipe{
		areas:      make(map[types.ID]*part.Area),
		stimuli:    make(map[types.ID]*part.Stimulus),
		assemblies: make(map[types.ID]*assembly.Assembly),
		byArea:     make(map[types.ID][]*assembly.Assembly),
		recording:  assembly.NewRecording(),
	}
}

// AddArea registers an area with the recipe.
func (r *Recipe) AddArea(a *part.Area) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.areas[a.ID()] = a
}

// AddStimulus registers a stimulus with the recipe.
func (r *Recipe) AddStimulus(s *part.Stimulus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stimuli[s.ID()] = s
}

// AddAssembly registers an assembly with the recipe, implicitly adding its
// area too (spec §4.9: "Adding an assembly implicitly adds its area").
func (r *Recipe) AddAssembly(a *assembly.Assembly) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.assemblies[a.ID()]; ok {
		return
	}
	r.assemblies[a.ID()] = a
	r.areas[a.Area().ID()] = a.Area()
	r.byArea[a.Area().ID()] = append(r.byArea[a.Area().ID()], a)
}

// AssembliesIn returns every assembly the recipe says lives in area, the
// candidate set assembly.Read chooses among.
func (r *Recipe) AssembliesIn(area *part.Area) []*assembly.Assembly {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*assembly.Assembly, len(r.byArea[area.ID()]))
	copy(out, r.byArea[area.ID()])
	return out
}

// Recording returns the recipe's recording, for advanced callers that want
// to bind it manually via assembly.BindRecording.
func (r *Recipe) Recording() *assembly.Recording { return r.recording }

// Enter binds the recipe's recording as the current scope context, so that
// recordable operations invoked on its assemblies append to the recording
// instead of running immediately (spec §4.9).
func (r *Recipe) Enter() *assembly.Scope {
	return assembly.BindRecording(r.recording)
}

// context returns the recipe's own recording bound directly, for the
// convenience Project/Merge/Associate wrappers below that don't require
// the caller to Enter() the recipe first.
func (r *Recipe) context() assembly.Context {
	return assembly.Context{Recording: r.recording}
}

// Project records a project(a, d) call and returns (and registers) the
// resulting assembly, without requiring the recipe to be entered as a
// scope first.
func (r *Recipe) Project(a assembly.Projectable, d *part.Area, repeat int) (*assembly.Assembly, error) {
	node, err := assembly.Project(r.context(), a, d, repeat)
	if err != nil {
		return nil, err
	}
	r.AddAssembly(node)
	return node, nil
}

// ReciprocalProject records a reciprocal-project(a, d) call.
func (r *Recipe) ReciprocalProject(a *assembly.Assembly, d *part.Area, repeat int) (*assembly.Assembly, error) {
	node, err := assembly.ReciprocalProject(r.context(), a, d, repeat)
	if err != nil {
		return nil, err
	}
	r.AddAssembly(node)
	return node, nil
}

// Merge records a merge(parents, d) call.
func (r *Recipe) Merge(parents []assembly.Projectable, d *part.Area, repeat int) (*assembly.Assembly, error) {
	node, err := assembly.Merge(r.context(), parents, d, repeat)
	if err != nil {
		return nil, err
	}
	r.AddAssembly(node)
	return node, nil
}

// Associate records an associate(A, B) call.
func (r *Recipe) Associate(A, B []*assembly.Assembly, repeat int) error {
	return assembly.Associate(r.context(), A, B, repeat)
}

// ConnectomeKind selects the connection store's representation, grounded
// on original_source/brain/connectome/{lazy_connectome,non_lazy_connectome}.py
// (spec §4.3, §4.9's `bake(recipe, p, connectome_kind, ...)`).
type ConnectomeKind int

const (
	// ConnectomeLazy materializes each connection on first use (the
	// store's default).
	ConnectomeLazy ConnectomeKind = iota
	// ConnectomeEager requires every edge to be registered before first
	// use; a reference to an unmaterialized edge fails with
	// types.ErrMissingConnection instead of silently allocating one.
	ConnectomeEager
)

// Bake installs every part the recipe declares into a fresh brain, plays
// the recipe's recording at trainRepeat, then switches the brain to
// effectiveRepeat for subsequent use (spec §4.9). Operations recorded with
// repeat <= 0 run at trainRepeat; an operation recorded with an explicit
// positive repeat replays with that count.
func Bake(r *Recipe, p float64, seed uint64, workers int, kind ConnectomeKind, trainRepeat, effectiveRepeat int) (*brain.Brain, error) {
	b, err := brain.New(p, seed, workers)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	areas := make([]*part.Area, 0, len(r.areas))
	for _, a := range r.areas {
		areas = append(areas, a)
	}
	stimuli := make([]*part.Stimulus, 0, len(r.stimuli))
	for _, s := range r.stimuli {
		stimuli = append(stimuli, s)
	}
	r.mu.Unlock()

	for _, a := range areas {
		b.RegisterArea(a)
	}
	for _, s := range stimuli {
		b.RegisterStimulus(s)
	}

	if kind == ConnectomeEager {
		if err := eagerlyInitConnectome(b, areas, stimuli); err != nil {
			return nil, err
		}
		b.Store().DisableLazyInit()
	}

	b.SetRepeat(trainRepeat)
	if err := r.recording.Play(b); err != nil {
		return nil, err
	}
	b.SetRepeat(effectiveRepeat)
	return b, nil
}

// eagerlyInitConnectome materializes every possible (source, area) edge up
// front, so that disabling lazy init afterward never turns a legitimate
// edge reference into a MissingConnection error — only a genuinely
// unregistered part can trigger one (spec §4.3).
func eagerlyInitConnectome(b *brain.Brain, areas []*part.Area, stimuli []*part.Stimulus) error {
	store := b.Store()
	for _, dest := range areas {
		for _, src := range areas {
			if _, err := store.Get(src, dest); err != nil {
				return err
			}
		}
		for _, src := range stimuli {
			if _, err := store.Get(src, dest); err != nil {
				return err
			}
		}
	}
	return nil
}
