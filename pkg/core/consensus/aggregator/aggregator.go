// Package aggregator implements the per-handler vote accumulator: it
// deduplicates votes, verifies committee membership, aggregates BLS
// signatures, and reports when a quorum threshold is crossed, bucketed
// by (step, vote-kind, candidate-hash).
package aggregator

import (
	"github.com/pkg/errors"

	"github.com/nyxium-chain/nyxium/pkg/core/consensus/committee"
	"github.com/nyxium-chain/nyxium/pkg/core/consensus/key"
	"github.com/nyxium-chain/nyxium/pkg/core/consensus/message"
	"github.com/nyxium-chain/nyxium/pkg/util/nativeutils/sortedset"
)

// bucket is the running tally for one (step, vote-kind, candidate-hash)
// key: an accumulating StepVotes, the cluster of contributors backing it
// (for weight/threshold bookkeeping), and whether quorum has already
// latched.
type bucket struct {
	sv            *message.StepVotes
	cluster       sortedset.Cluster
	quorumReached bool
}

// vote+step+signer composite used to detect duplicate submissions.
type collectedKey struct {
	signer string
	vote   string
	step   uint8
}

// Aggregator accumulates votes for a single handler across one step (or,
// for past-iteration collection, across whatever steps are fed to it). It
// is exclusively owned by its handler; it is not shared across handlers
// or re-used once the round ends.
type Aggregator struct {
	buckets   map[string]*bucket
	collected map[collectedKey]struct{}
}

// New returns an empty Aggregator.
func New() *Aggregator {
	return &Aggregator{
		buckets:   make(map[string]*bucket),
		collected: make(map[collectedKey]struct{}),
	}
}

// IsVoteCollected reports whether a vote with identical signer+vote+step
// has already been accepted.
func (a *Aggregator) IsVoteCollected(signer []byte, vote message.Vote, step uint8) bool {
	_, ok := a.collected[collectedKey{signer: string(signer), vote: vote.BucketKey(), step: step}]
	return ok
}

// CollectVote verifies signer membership and that sign.Signature is a
// genuine BLS signature by sign.Signer over hdr's canonical signing
// bytes for vote, records the vote, aggregates the signature into the
// bucket keyed by (step, vote kind, candidate hash), and returns the
// running StepVotes plus whether this call is the first to cross the
// committee's quorum threshold for that bucket.
//
// Duplicate (signer, vote, step) triples, non-member signers and
// signatures that fail verification are rejected with an error; nothing
// is mutated on rejection.
func (a *Aggregator) CollectVote(c committee.Committee, sign message.SignInfo, vote message.Vote, hdr message.Header) (message.StepVotes, bool, error) {
	// Each handler owns an Aggregator for a single step kind, so the
	// header's iteration is the step component of every key; the handlers
	// pass the same value to IsVoteCollected.
	step := hdr.Iteration

	if a.IsVoteCollected(sign.Signer, vote, step) {
		return message.StepVotes{}, false, errors.New("vote already collected")
	}

	if !c.IsMember(sign.Signer) {
		return message.StepVotes{}, false, errors.New("signer is not a committee member")
	}

	if err := key.Verify(sign.Signer, hdr.SignableBytes(vote), sign.Signature); err != nil {
		return message.StepVotes{}, false, errors.Wrap(err, "verify vote signature")
	}

	bucketK := bucketKey(step, vote)
	b, ok := a.buckets[bucketK]
	if !ok {
		b = &bucket{
			sv:      message.NewStepVotes(),
			cluster: sortedset.NewCluster(),
		}
		a.buckets[bucketK] = b
	}

	if err := b.sv.Add(sign.Signature, sign.Signer, c.Order()); err != nil {
		return message.StepVotes{}, false, errors.Wrap(err, "aggregate vote signature")
	}

	weight := c.WeightOf(sign.Signer)
	for i := uint64(0); i < weight; i++ {
		b.cluster.Insert(sign.Signer)
	}

	a.collected[collectedKey{signer: string(sign.Signer), vote: vote.BucketKey(), step: step}] = struct{}{}

	firstQuorum := false
	if !b.quorumReached && uint64(b.cluster.TotalOccurrences()) >= c.Threshold() {
		b.quorumReached = true
		firstQuorum = true
	}

	return b.sv.Copy(), firstQuorum, nil
}

func bucketKey(step uint8, vote message.Vote) string {
	return string([]byte{step}) + vote.BucketKey()
}
