package sortedset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetInsertAndOrder(t *testing.T) {
	s := New()
	assert.True(t, s.Insert([]byte("c")))
	assert.True(t, s.Insert([]byte("a")))
	assert.True(t, s.Insert([]byte("b")))
	assert.False(t, s.Insert([]byte("a")))

	assert.Equal(t, 3, s.Len())
	assert.Equal(t, 0, s.IndexOf([]byte("a")))
	assert.Equal(t, 1, s.IndexOf([]byte("b")))
	assert.Equal(t, 2, s.IndexOf([]byte("c")))
	assert.Equal(t, -1, s.IndexOf([]byte("z")))
}

func TestBitsPacksSubsetRelativeToWholeCommittee(t *testing.T) {
	whole := New()
	whole.Insert([]byte("m1"))
	whole.Insert([]byte("m2"))
	whole.Insert([]byte("m3"))

	subset := New()
	subset.Insert([]byte("m1"))
	subset.Insert([]byte("m3"))

	bs := whole.Bits(subset)
	assert.True(t, bs.Test(0))
	assert.False(t, bs.Test(1))
	assert.True(t, bs.Test(2))
}

func TestClusterCountsOccurrencesPerMember(t *testing.T) {
	c := NewCluster()
	c.Insert([]byte("m1"))
	c.Insert([]byte("m1"))
	c.Insert([]byte("m2"))

	assert.Equal(t, 3, c.TotalOccurrences())
	assert.Equal(t, 2, c.Set().Len())
	assert.True(t, c.Has([]byte("m1")))
	assert.False(t, c.Has([]byte("m9")))
}
