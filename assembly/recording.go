package assembly

import (
	"sync"

	"github.com/guyde2011/assemblies/brain"
)

// Entry is one deferred call appended by a recordable operation. Replay is
// a closure over the operation's original arguments that re-invokes it
// against whatever Context Play supplies — a Go closure standing in for
// the source's "function, positional args, keyword args" tuple, since the
// keyword-argument-override replay trick doesn't have a natural reflection
// counterpart here (spec §9's bindable/recordable re-expression).
type Entry struct {
	Label  string
	Replay func(ctx Context) error
}

// Recording is an ordered, replayable log of deferred assembly operations
// (spec §3/§4.9, C9's half). A recipe binds one to its scope so that
// recordable operations invoked during recipe construction append here
// instead of touching a brain.
type Recording struct {
	mu      sync.Mutex
	entries []Entry
}

// NewRecording returns an empty recording.
func NewRecording() *Recording {
	return &Recording{}
}

// Append adds a deferred call to the recording.
func (r *Recording) Append(label string, replay func(ctx Context) error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{Label: label, Replay: replay})
}

// Len reports how many calls are recorded.
func (r *Recording) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Play replays every recorded call, in order, against b. It binds b as the
// current brain for the duration of the replay so that each entry's
// closure resolves it via Current() the same way it would have live.
func (r *Recording) Play(b *brain.Brain) error {
	scope := BindBrain(b)
	defer scope.Exit()

	r.mu.Lock()
	entries := make([]Entry, len(r.entries))
	copy(entries, r.entries)
	r.mu.Unlock()

	for _, e := range entries {
		if err := e.Replay(Current()); err != nil {
			return err
		}
	}
	return nil
}
