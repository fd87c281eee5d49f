package assembly

import "github.com/guyde2011/assemblies/part"

// Tuple is the Go expression of the source's `a + b` algebra: an ordered
// collection of projectables that composes into a single assembly only
// once it is targeted at an area with Into. Go has no operator overloading,
// so `+` becomes And and `>>` becomes Into (spec §4.8's "a + b builds an
// ordered tuple ... tuple >> area = merge into that area").
type Tuple []Projectable

// And appends p to the tuple, mirroring `t + p`. And never projects by
// itself — only Into does.
func (t Tuple) And(p Projectable) Tuple {
	return append(append(Tuple{}, t...), p)
}

// Of starts a tuple from two projectables, mirroring `a + b`.
func Of(a, b Projectable) Tuple {
	return Tuple{a, b}
}

// Into merges the tuple into area using ctx, mirroring `tuple >> area`.
func (t Tuple) Into(ctx Context, area *part.Area, repeat int) (*Assembly, error) {
	return Merge(ctx, []Projectable(t), area, repeat)
}

// Into projects a single projectable into area using ctx, mirroring
// `a >> area`.
func Into(ctx Context, p Projectable, area *part.Area, repeat int) (*Assembly, error) {
	return Project(ctx, p, area, repeat)
}
