package substructure

import (
	"context"

	"github.com/bits-and-blooms/bitset"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/turtacn/KeyIP-Substructure/internal/domain/molecule"
	"github.com/turtacn/KeyIP-Substructure/internal/domain/substructure/pattern"
	"github.com/turtacn/KeyIP-Substructure/pkg/errors"
)

// SubsearchCache memoizes nested sub-pattern results for one top-level
// search: the set of target atoms at which each sub-pattern's first atom
// can match.
type SubsearchCache struct {
	sets map[*pattern.Pattern]*bitset.BitSet
}

// NewSubsearchCache returns an empty cache.
func NewSubsearchCache() *SubsearchCache {
	return &SubsearchCache{sets: make(map[*pattern.Pattern]*bitset.BitSet)}
}

// Get returns the cached set for sub.
func (c *SubsearchCache) Get(sub *pattern.Pattern) (*bitset.BitSet, bool) {
	bs, ok := c.sets[sub]
	return bs, ok
}

// Put stores the set for sub.
func (c *SubsearchCache) Put(sub *pattern.Pattern, bs *bitset.BitSet) {
	c.sets[sub] = bs
}

// Len returns the number of cached sub-patterns.
func (c *SubsearchCache) Len() int { return len(c.sets) }

// Context is the shared state of one top-level search. The target's
// optional capabilities are resolved once here; every recursive search,
// including ring probes and nested sub-patterns, receives it explicitly.
type Context struct {
	ctx    context.Context
	target molecule.Graph
	n      int

	atoms []molecule.Node
	// bio is nil for targets without residue information.
	bio []molecule.BioNode
	// topo holds atoms carrying a topological stereo descriptor.
	topo []molecule.TopologicalStereoNode

	selected *bitset.BitSet
	excluded *bitset.BitSet

	tables *Tables
	cache  *SubsearchCache
}

func newContext(ctx context.Context, target molecule.Graph) (*Context, error) {
	if target == nil {
		return nil, errors.TargetInconsistent("target graph is nil")
	}
	if err := molecule.Validate(target); err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	n := target.AtomCount()
	c := &Context{
		ctx:    ctx,
		target: target,
		n:      n,
		atoms:  make([]molecule.Node, n),
		cache:  NewSubsearchCache(),
	}
	for i := 0; i < n; i++ {
		c.atoms[i] = target.Atom(i)
		if ts, ok := c.atoms[i].(molecule.TopologicalStereoNode); ok && ts.ChiralClass() != molecule.ChiralNone {
			if c.topo == nil {
				c.topo = make([]molecule.TopologicalStereoNode, n)
			}
			c.topo[i] = ts
		}
	}
	if bg, ok := target.(molecule.BioGraph); ok {
		c.bio = make([]molecule.BioNode, n)
		for i := 0; i < n; i++ {
			c.bio[i] = bg.BioAtom(i)
		}
	}
	return c, nil
}

// restrict applies the candidate filters of opts.
func (c *Context) restrict(opts Options) {
	c.selected = opts.Selected
	c.excluded = opts.Excluded
}

func (c *Context) candidate(i int) bool {
	if c.excluded != nil && c.excluded.Test(uint(i)) {
		return false
	}
	return c.selected == nil || c.selected.Test(uint(i))
}

func (c *Context) bioAtom(i int) molecule.BioNode {
	if c.bio == nil {
		return nil
	}
	return c.bio[i]
}

func (c *Context) topoStereo(i int) molecule.TopologicalStereoNode {
	if c.topo == nil {
		return nil
	}
	return c.topo[i]
}

// edgeBetween returns the covalent target bond joining i and j, or nil.
func (c *Context) edgeBetween(i, j int) molecule.Edge {
	for _, e := range c.atoms[i].Edges() {
		if e.IsCovalent() && e.OtherAtomIndex(i) == j {
			return e
		}
	}
	return nil
}

func (c *Context) position(i int) (r3.Vec, bool) {
	return c.atoms[i].Position()
}

func (c *Context) cancelled() error {
	if err := c.ctx.Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeSearchCancelled, "substructure search cancelled")
	}
	return nil
}

//Personal.AI order the ending
