package pattern

import (
	"fmt"

	"github.com/turtacn/KeyIP-Substructure/pkg/errors"
)

// RingProbe builds the k-membered probe "*1***...*1": k unconstrained atoms
// joined in a cycle by any-order bonds. The closing bond joins atom 0 and
// atom k-1.
func RingProbe(k int) (*Pattern, error) {
	if k < 3 {
		return nil, errors.Newf(errors.ErrCodeRingProbeFailed, "ring probe size %d is below 3", k)
	}
	b := NewBuilder(fmt.Sprintf("ring-probe-%d", k))
	prev := b.AddAtom()
	for i := 1; i < k; i++ {
		next := b.AddAtom()
		b.AddBond(prev, next, BondAny)
		prev = next
	}
	b.AddBond(prev, 0, BondAny)
	p, err := b.Build()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeRingProbeFailed, fmt.Sprintf("ring probe %d", k))
	}
	return p, nil
}

//Personal.AI order the ending
