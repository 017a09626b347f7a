// Package committee models the sortition contract: given a seed, round,
// step, committee size and an optional excluded member, it deterministically
// derives an ordered committee with per-member voting weight. The actual
// sortition algorithm (extraction and distribution over a provisioner
// weight table) is the external collaborator the consensus spec refers to;
// this package gives it one concrete, pure-function implementation so the
// rest of the core has something real to run against and test with.
package committee

import (
	"crypto/sha256"
	"encoding/binary"
	"sort"

	"github.com/nyxium-chain/nyxium/pkg/util/nativeutils/sortedset"
)

// Member is one committee seat: a provisioner public key and the voting
// weight sortition assigned it for this step.
type Member struct {
	PubKey []byte
	Weight uint64
}

// Committee is an ordered list of members plus the cumulative weight and
// quorum threshold derived from it. Member order is canonical (ascending
// by public key) and is what gives a StepVotes bitset a stable meaning.
type Committee struct {
	members     []Member
	order       sortedset.Set
	totalWeight uint64
	threshold   uint64
	excluded    []byte
	hasExcluded bool
}

// QuorumNumerator and QuorumDenominator fix the quorum fraction at 2/3
// of total committee weight.
const (
	QuorumNumerator   = 2
	QuorumDenominator = 3
)

// New builds a Committee from a member list, ordering the members
// canonically by public key. Weight sum must be > 0; the quorum threshold
// is ceil(2*totalWeight/3).
func New(members []Member, excluded []byte, hasExcluded bool) Committee {
	order := sortedset.New()
	var total uint64
	for _, m := range members {
		order.Insert(m.PubKey)
		total += m.Weight
	}

	sorted := make([]Member, len(members))
	copy(sorted, members)
	sort.Slice(sorted, func(i, j int) bool {
		return order.IndexOf(sorted[i].PubKey) < order.IndexOf(sorted[j].PubKey)
	})

	return Committee{
		members:     sorted,
		order:       order,
		totalWeight: total,
		threshold:   ceilDiv(total*QuorumNumerator, QuorumDenominator),
		excluded:    excluded,
		hasExcluded: hasExcluded,
	}
}

func ceilDiv(num, den uint64) uint64 {
	if den == 0 {
		return 0
	}
	return (num + den - 1) / den
}

// Size returns the number of committee seats.
func (c Committee) Size() int {
	return len(c.members)
}

// TotalWeight returns the sum of all member weights.
func (c Committee) TotalWeight() uint64 {
	return c.totalWeight
}

// Threshold returns the quorum threshold: ceil(2*TotalWeight/3).
func (c Committee) Threshold() uint64 {
	return c.threshold
}

// Order returns the committee's canonical member ordering, used to index
// a StepVotes bitset.
func (c Committee) Order() sortedset.Set {
	return c.order
}

// IsMember reports whether pubkey holds a seat in the committee.
func (c Committee) IsMember(pubkey []byte) bool {
	return c.order.Has(pubkey)
}

// WeightOf returns the voting weight of pubkey, or 0 if it is not a
// member.
func (c Committee) WeightOf(pubkey []byte) uint64 {
	for _, m := range c.members {
		if string(m.PubKey) == string(pubkey) {
			return m.Weight
		}
	}
	return 0
}

// Members returns the committee's member list in canonical order.
func (c Committee) Members() []Member {
	return c.members
}

// Excluded returns the generator public key excluded from this
// committee, if any. Validation and Ratification committees for a given
// iteration always exclude that iteration's generator.
func (c Committee) Excluded() ([]byte, bool) {
	return c.excluded, c.hasExcluded
}

// IterationCommittees bundles the generator and the two voting
// committees sortition derived for one iteration.
type IterationCommittees struct {
	Generator            []byte
	ValidationCommittee   Committee
	RatificationCommittee Committee
}

// RoundCommittees is the round-scoped, append-only store of
// per-iteration committees: grown as iterations begin, read-only
// thereafter.
type RoundCommittees struct {
	iterations map[uint8]IterationCommittees
}

// NewRoundCommittees returns an empty RoundCommittees store.
func NewRoundCommittees() *RoundCommittees {
	return &RoundCommittees{iterations: make(map[uint8]IterationCommittees)}
}

// Put records the committees derived for iteration.
func (r *RoundCommittees) Put(iteration uint8, ic IterationCommittees) {
	r.iterations[iteration] = ic
}

// Generator returns the generator for iteration, if known.
func (r *RoundCommittees) Generator(iteration uint8) ([]byte, bool) {
	ic, ok := r.iterations[iteration]
	if !ok {
		return nil, false
	}
	return ic.Generator, true
}

// ValidationCommittee returns the validation committee for iteration, if
// known.
func (r *RoundCommittees) ValidationCommittee(iteration uint8) (Committee, bool) {
	ic, ok := r.iterations[iteration]
	if !ok {
		return Committee{}, false
	}
	return ic.ValidationCommittee, true
}

// RatificationCommittee returns the ratification committee for
// iteration, if known.
func (r *RoundCommittees) RatificationCommittee(iteration uint8) (Committee, bool) {
	ic, ok := r.iterations[iteration]
	if !ok {
		return Committee{}, false
	}
	return ic.RatificationCommittee, true
}

// Config parameterizes a sortition run: the seed/round/step address the
// extraction, size bounds the number of seats, and excluded (if set,
// typically the iteration's generator) is never selected.
type Config struct {
	Seed     []byte
	Round    uint64
	Step     uint8
	Size     int
	Excluded []byte
	HasExcl  bool
}

// Provisioners is the weight table sortition samples from: the set of
// staked public keys and their stake-derived weight.
type Provisioners struct {
	members []Member
}

// NewProvisioners returns an empty Provisioners table.
func NewProvisioners() *Provisioners {
	return &Provisioners{}
}

// Add registers a provisioner with the given weight.
func (p *Provisioners) Add(pubkey []byte, weight uint64) {
	p.members = append(p.members, Member{PubKey: append([]byte(nil), pubkey...), Weight: weight})
}

// Sortition deterministically derives a Committee from the provisioner
// table for the given Config. It is a pure function of (seed, round,
// step, size, excluded, provisioner table): given the same inputs every
// node derives byte-identical committees.
//
// The extraction algorithm itself (stake-weighted deterministic
// selection) is a simplified stand-in for the real sortition contract;
// what the consensus core depends on is the *shape* of the contract
// (deterministic, excludes the generator, returns ordered weighted
// seats), not bit-for-bit compatibility with any particular production
// sortition scheme.
func Sortition(p *Provisioners, cfg Config) Committee {
	candidates := make([]Member, 0, len(p.members))
	for _, m := range p.members {
		if cfg.HasExcl && string(m.PubKey) == string(cfg.Excluded) {
			continue
		}
		candidates = append(candidates, m)
	}

	if len(candidates) == 0 {
		return New(nil, cfg.Excluded, cfg.HasExcl)
	}

	scored := make([]scoredMember, len(candidates))
	for i, m := range candidates {
		scored[i] = scoredMember{Member: m, score: extractionScore(cfg.Seed, cfg.Round, cfg.Step, m.PubKey)}
	}
	sort.Slice(scored, func(i, j int) bool {
		return scored[i].score < scored[j].score
	})

	size := cfg.Size
	if size > len(scored) {
		size = len(scored)
	}

	members := make([]Member, size)
	for i := 0; i < size; i++ {
		members[i] = scored[i].Member
	}

	return New(members, cfg.Excluded, cfg.HasExcl)
}

type scoredMember struct {
	Member
	score uint64
}

// extractionScore derives a deterministic, seed/round/step/pubkey-bound
// score used to rank candidates for selection.
func extractionScore(seed []byte, round uint64, step uint8, pubkey []byte) uint64 {
	h := sha256.New()
	h.Write(seed)

	var roundBuf [8]byte
	binary.BigEndian.PutUint64(roundBuf[:], round)
	h.Write(roundBuf[:])
	h.Write([]byte{step})
	h.Write(pubkey)

	sum := h.Sum(nil)
	return binary.BigEndian.Uint64(sum[:8])
}
