// Package quorum re-verifies a ValidationResult certificate: given a
// bitset and an aggregate signature claimed to represent a quorum over a
// candidate hash, it reconstructs the signer set from the bitset, checks
// their summed weight against the threshold, and verifies the aggregate
// signature against the reconstructed signer set.
package quorum

import (
	"github.com/pkg/errors"

	"github.com/nyxium-chain/nyxium/pkg/core/consensus/committee"
	"github.com/nyxium-chain/nyxium/pkg/core/consensus/key"
	"github.com/nyxium-chain/nyxium/pkg/core/consensus/message"
)

// VerifyVotes reconstructs the signer set from bitset+committee, checks
// their summed weight against the committee's quorum threshold (when
// enableQuorumCheck is set), and verifies aggSig against the aggregate
// of the signers' public keys over the canonical signing bytes
// for (round, iteration, hash, step kind) described by hdr and vote.
func VerifyVotes(hdr message.Header, vote message.Vote, bitset StepVotesBitSet, aggSig []byte, c committee.Committee, enableQuorumCheck bool) error {
	members := c.Members()

	var signers [][]byte
	var weight uint64
	for i, m := range members {
		if bitset.Test(uint(i)) {
			signers = append(signers, m.PubKey)
			weight += m.Weight
		}
	}

	if len(signers) == 0 {
		return errors.New("quorum: empty signer set")
	}

	if enableQuorumCheck && weight < c.Threshold() {
		return errors.Errorf("quorum: signer weight %d below threshold %d", weight, c.Threshold())
	}

	apk, err := key.AggregatePublicKeys(signers)
	if err != nil {
		return errors.Wrap(err, "quorum: aggregate signer public keys")
	}

	if err := key.VerifyAggregate(apk, hdr.SignableBytes(vote), aggSig); err != nil {
		return errors.Wrap(err, "quorum: verify aggregate signature")
	}

	return nil
}

// StepVotesBitSet is the minimal bitset contract VerifyVotes needs: a
// committee-relative membership test. message.StepVotes.BitSet satisfies
// this directly (github.com/bits-and-blooms/bitset.BitSet has a Test
// method with this exact signature).
type StepVotesBitSet interface {
	Test(uint) bool
}
