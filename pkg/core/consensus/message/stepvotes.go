package message

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/nyxium-chain/nyxium/pkg/core/consensus/key"
	"github.com/nyxium-chain/nyxium/pkg/util/nativeutils/sortedset"
)

// StepVotes is an aggregate BLS signature plus the committee bitset of
// its contributors. Bitset bit i corresponds to the i-th member of the
// committee the votes were cast in, in the committee's canonical order.
type StepVotes struct {
	AggregateSignature []byte
	BitSet             *bitset.BitSet
}

// NewStepVotes returns an empty StepVotes, ready to accumulate votes.
func NewStepVotes() *StepVotes {
	return &StepVotes{}
}

// Add folds one more signer's signature into the aggregate and records
// them in the bitset, relative to the ordering given by committee.
func (sv *StepVotes) Add(signature []byte, signer []byte, committee sortedset.Set) error {
	agg, err := key.AggregateSignatures(sv.AggregateSignature, signature)
	if err != nil {
		return err
	}
	sv.AggregateSignature = agg

	if sv.BitSet == nil {
		sv.BitSet = bitset.New(uint(committee.Len()))
	}

	if idx := committee.IndexOf(signer); idx >= 0 {
		sv.BitSet.Set(uint(idx))
	}

	return nil
}

// Copy returns a deep-enough copy of sv so that later mutation of the
// original does not retroactively change a value already handed to a
// caller (the registry stores copies, not live references).
func (sv StepVotes) Copy() StepVotes {
	out := StepVotes{}
	if sv.AggregateSignature != nil {
		out.AggregateSignature = make([]byte, len(sv.AggregateSignature))
		copy(out.AggregateSignature, sv.AggregateSignature)
	}
	if sv.BitSet != nil {
		out.BitSet = sv.BitSet.Clone()
	}
	return out
}

// IsZero reports whether sv has never had a vote added to it.
func (sv StepVotes) IsZero() bool {
	return sv.BitSet == nil || sv.BitSet.None()
}
