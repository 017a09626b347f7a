// Package sortedset provides the ordered member set and bitset helpers used
// to track which committee members have voted in a given step. A Set keeps
// committee members (BLS public keys) in a canonical sort order so that the
// bit position of a member inside a StepVotes bitset is stable across nodes.
// A Cluster is a multiset used while a vote is still being accumulated,
// before it is packed down into a committee-relative bitset.
package sortedset

import (
	"bytes"
	"sort"

	"github.com/bits-and-blooms/bitset"
)

// Set is an ordered, deduplicated collection of member keys.
type Set [][]byte

// New returns an empty Set.
func New() Set {
	return make(Set, 0)
}

// Insert adds a key to the Set, keeping it sorted. It is a no-op if the key
// is already present.
func (s *Set) Insert(key []byte) bool {
	i := s.search(key)
	if i < len(*s) && bytes.Equal((*s)[i], key) {
		return false
	}

	*s = append(*s, nil)
	copy((*s)[i+1:], (*s)[i:])
	(*s)[i] = key
	return true
}

// Has reports whether key is present in the Set.
func (s Set) Has(key []byte) bool {
	i := s.search(key)
	return i < len(s) && bytes.Equal(s[i], key)
}

// IndexOf returns the ordinal position of key within the Set, or -1 if the
// key is not a member. This ordinal is the bit position used by Bits.
func (s Set) IndexOf(key []byte) int {
	i := s.search(key)
	if i < len(s) && bytes.Equal(s[i], key) {
		return i
	}
	return -1
}

func (s Set) search(key []byte) int {
	return sort.Search(len(s), func(i int) bool {
		return bytes.Compare(s[i], key) >= 0
	})
}

// Len returns the number of members in the Set.
func (s Set) Len() int {
	return len(s)
}

// Bits packs the members of subset that also belong to s into a bitset whose
// width is s.Len() and whose bit i is set iff s[i] is a member of subset.
func (s Set) Bits(subset Set) *bitset.BitSet {
	bs := bitset.New(uint(len(s)))
	for _, key := range subset {
		if i := s.IndexOf(key); i >= 0 {
			bs.Set(uint(i))
		}
	}
	return bs
}

// Cluster is a multiset of member keys, recording how many times each
// member has been inserted. It backs the Aggregator's per-bucket vote
// tally before a bitset is packed.
type Cluster struct {
	members Set
	counts  map[string]int
}

// NewCluster returns an empty Cluster.
func NewCluster() Cluster {
	return Cluster{
		members: New(),
		counts:  make(map[string]int),
	}
}

// Insert records one occurrence of key in the Cluster.
func (c *Cluster) Insert(key []byte) {
	if c.counts == nil {
		c.counts = make(map[string]int)
	}
	c.members.Insert(key)
	c.counts[string(key)]++
}

// Has reports whether key has been recorded at least once.
func (c Cluster) Has(key []byte) bool {
	return c.members.Has(key)
}

// Set returns the distinct members recorded in the Cluster.
func (c Cluster) Set() Set {
	return c.members
}

// TotalOccurrences returns the sum of all per-member occurrence counts.
// For a weighted committee, callers insert a member `weight` times so this
// sum equals the accumulated voting weight.
func (c Cluster) TotalOccurrences() int {
	total := 0
	for _, n := range c.counts {
		total += n
	}
	return total
}
