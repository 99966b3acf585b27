package molecule

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComposition(t *testing.T) {
	c := CompositionOf(ethanol())
	assert.Equal(t, Composition{6: 2, 8: 1}, c)
	assert.Equal(t, 3, c.Total())

	assert.True(t, c.Covers(Composition{6: 2}))
	assert.True(t, c.Covers(Composition{}))
	assert.False(t, c.Covers(Composition{6: 3}))
	assert.False(t, c.Covers(Composition{7: 1}))
}

func TestFingerprint(t *testing.T) {
	a := ethanol()
	b := ethanol()
	assert.Equal(t, Fingerprint(a), Fingerprint(b))

	b.AtomAt(2).Charge = -1
	assert.NotEqual(t, Fingerprint(a), Fingerprint(b))

	c := ethanol()
	c.AtomAt(0).Pos.X = 1.25
	c.AtomAt(0).HasPos = true
	assert.NotEqual(t, Fingerprint(a), Fingerprint(c))

	d := ethanol()
	d.BondAt(0).BondOrder = BondDouble
	assert.NotEqual(t, Fingerprint(a), Fingerprint(d))
}

//Personal.AI order the ending
