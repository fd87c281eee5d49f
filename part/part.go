// Package part defines the brain-part value types: areas, stimuli, and the
// tagged union over them (spec §3/§4.2, C2). Replacing the source's
// stimulus/area/output-area class hierarchy with a tagged sum matched on
// Kind follows the REDESIGN FLAG in spec §9 and mirrors the teacher's own
// types.ComponentType enum-with-String() idiom.
package part

import (
	"fmt"
	"math"

	"github.com/guyde2011/assemblies/types"
)

// Kind tags the two brain-part variants. Output areas are areas with
// Output set (spec §3: "identical semantics to an area"), not a third Kind.
type Kind int

const (
	KindArea Kind = iota
	KindStimulus
)

func (k Kind) String() string {
	switch k {
	case KindArea:
		return "Area"
	case KindStimulus:
		return "Stimulus"
	default:
		return "Unknown"
	}
}

// Part is the common interface satisfied by *Area and *Stimulus. Mutable
// per-brain state (winners, support) is deliberately absent here — it lives
// in the brain that owns a round's results, not on the part itself (spec
// §3: "identity-free fields ... live inside the brain, not the part"),
// which is what lets two brains baked from the same recipe diverge
// independently (spec §8, scenario 5).
type Part interface {
	// ID returns the part's stable, content-independent identity.
	ID() types.ID
	// Kind reports whether this part is an Area or a Stimulus.
	Kind() Kind
	// Size returns n, the part's neuron count.
	Size() int
	// Beta returns the part's plasticity coefficient.
	Beta() float64
	fmt.Stringer
}

// AreaConfig configures a new Area, mirroring the teacher's
// NeuronConfig-style "plain exported struct consumed by a validating
// constructor" pattern.
type AreaConfig struct {
	// N is the neuron count. Must be >= 1.
	N int `json:"n"`
	// K is the winner quota. 0 means compute floor(sqrt(N)).
	K int `json:"k"`
	// Beta is the plasticity coefficient. Must be >= 0.
	Beta float64 `json:"beta"`
	// Output marks this area as a terminal projection target. It changes
	// no runtime semantics (spec §3); it exists for labeling/diagnostics.
	Output bool `json:"output"`
	// Name is an optional human-readable label used only in String().
	Name string `json:"name,omitempty"`
}

// Area is a pool of N neurons with a fixed winner quota K per round.
type Area struct {
	id     types.ID
	n, k   int
	beta   float64
	output bool
	name   string
}

// NewArea validates cfg and constructs a new Area with a fresh identity.
func NewArea(cfg AreaConfig) (*Area, error) {
	if cfg.N < 1 {
		return nil, fmt.Errorf("%w: area n must be >= 1, got %d", types.ErrInvalidParameter, cfg.N)
	}
	if cfg.Beta < 0 {
		return nil, fmt.Errorf("%w: area beta must be >= 0, got %v", types.ErrInvalidParameter, cfg.Beta)
	}
	k := cfg.K
	if k == 0 {
		k = int(math.Sqrt(float64(cfg.N)))
		if k < 1 {
			k = 1
		}
	}
	if k < 0 || k > cfg.N {
		return nil, fmt.Errorf("%w: area k must satisfy 0 < k <= n (n=%d, k=%d)", types.ErrInvalidParameter, cfg.N, cfg.K)
	}
	return &Area{
		id:     types.NewID(types.KindArea),
		n:      cfg.N,
		k:      k,
		beta:   cfg.Beta,
		output: cfg.Output,
		name:   cfg.Name,
	}, nil
}

func (a *Area) ID() types.ID  { return a.id }
func (a *Area) Kind() Kind    { return KindArea }
func (a *Area) Size() int     { return a.n }
func (a *Area) K() int        { return a.k }
func (a *Area) Beta() float64 { return a.beta }
func (a *Area) Output() bool  { return a.output }

func (a *Area) String() string {
	if a.name != "" {
		return fmt.Sprintf("Area(%s, n=%d, k=%d)", a.name, a.n, a.k)
	}
	return fmt.Sprintf("Area(%s, n=%d, k=%d)", a.id, a.n, a.k)
}

// StimulusConfig configures a new Stimulus.
type StimulusConfig struct {
	// N is the neuron count; all N neurons fire whenever the stimulus is
	// active. Must be >= 1.
	N int `json:"n"`
	// Beta is the plasticity coefficient. Must be >= 0.
	Beta float64 `json:"beta"`
	// Name is an optional human-readable label used only in String().
	Name string `json:"name,omitempty"`
}

// Stimulus is an external fixed-size firing pattern: all N neurons fire
// together whenever the stimulus is active, and it carries no winners or
// support state of its own.
type Stimulus struct {
	id   types.ID
	n    int
	beta float64
	name string
}

// NewStimulus validates cfg and constructs a new Stimulus with a fresh
// identity.
func NewStimulus(cfg StimulusConfig) (*Stimulus, error) {
	if cfg.N < 1 {
		return nil, fmt.Errorf("%w: stimulus n must be >= 1, got %d", types.ErrInvalidParameter, cfg.N)
	}
	if cfg.Beta < 0 {
		return nil, fmt.Errorf("%w: stimulus beta must be >= 0, got %v", types.ErrInvalidParameter, cfg.Beta)
	}
	return &Stimulus{
		id:   types.NewID(types.KindStimulus),
		n:    cfg.N,
		beta: cfg.Beta,
		name: cfg.Name,
	}, nil
}

func (s *Stimulus) ID() types.ID  { return s.id }
func (s *Stimulus) Kind() Kind    { return KindStimulus }
func (s *Stimulus) Size() int     { return s.n }
func (s *Stimulus) Beta() float64 { return s.beta }

func (s *Stimulus) String() string {
	if s.name != "" {
		return fmt.Sprintf("Stimulus(%s, n=%d)", s.name, s.n)
	}
	return fmt.Sprintf("Stimulus(%s, n=%d)", s.id, s.n)
}

var (
	_ Part = (*Area)(nil)
	_ Part = (*Stimulus)(nil)
)
