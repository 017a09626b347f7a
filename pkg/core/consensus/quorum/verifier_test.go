package quorum_test

import (
	"testing"

	"github.com/bits-and-blooms/bitset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyxium-chain/nyxium/pkg/core/consensus/committee"
	"github.com/nyxium-chain/nyxium/pkg/core/consensus/key"
	"github.com/nyxium-chain/nyxium/pkg/core/consensus/message"
	"github.com/nyxium-chain/nyxium/pkg/core/consensus/quorum"
)

func newCommittee(t *testing.T, n int) (committee.Committee, []key.Keys) {
	t.Helper()

	keys := make([]key.Keys, n)
	members := make([]committee.Member, n)
	for i := 0; i < n; i++ {
		k, err := key.NewRandKeys()
		require.NoError(t, err)
		keys[i] = k
		members[i] = committee.Member{PubKey: k.BLSPubKeyBytes, Weight: 1}
	}

	return committee.New(members, nil, false), keys
}

// Happy path: a real aggregate signature from >=threshold signers verifies.
func TestVerifyVotesAcceptsGenuineQuorum(t *testing.T) {
	c, keys := newCommittee(t, 9)
	hdr := message.Header{Round: 1, Iteration: 0, Topic: message.TopicValidation}
	vote := message.NewValidVote(message.BlockHash{0xAA})

	sv := message.NewStepVotes()
	for i := 0; i < 6; i++ {
		sig, err := message.Sign(keys[i], hdr, vote)
		require.NoError(t, err)
		require.NoError(t, sv.Add(sig, keys[i].BLSPubKeyBytes, c.Order()))
	}

	err := quorum.VerifyVotes(hdr, vote, sv.BitSet, sv.AggregateSignature, c, true)
	assert.NoError(t, err)
}

// A bitset bit referencing a slot outside the reconstructed committee
// must not cause an out-of-bounds read; VerifyVotes only tests the bit
// positions of the 9 real members (0..8), so bit 20 is never consulted
// and none of those members is marked as a signer. With no in-range bit
// set, the reconstructed signer set is empty and VerifyVotes rejects it
// outright.
func TestVerifyVotesRejectsMalformedBitsetBeyondCommittee(t *testing.T) {
	c, _ := newCommittee(t, 9)
	hdr := message.Header{Round: 1, Iteration: 0, Topic: message.TopicValidation}
	vote := message.NewValidVote(message.BlockHash{0xAA})

	bogus := bitset.New(32)
	bogus.Set(20) // well beyond the 9-member committee

	err := quorum.VerifyVotes(hdr, vote, bogus, []byte("not-a-real-signature"), c, true)
	assert.Error(t, err) // bits 0..8 are all clear: signer set is empty
}

// Below-threshold weight is rejected when quorum checking is enabled.
func TestVerifyVotesRejectsBelowThreshold(t *testing.T) {
	c, keys := newCommittee(t, 9)
	hdr := message.Header{Round: 1, Iteration: 0, Topic: message.TopicValidation}
	vote := message.NewValidVote(message.BlockHash{0xAA})

	sv := message.NewStepVotes()
	for i := 0; i < 3; i++ {
		sig, err := message.Sign(keys[i], hdr, vote)
		require.NoError(t, err)
		require.NoError(t, sv.Add(sig, keys[i].BLSPubKeyBytes, c.Order()))
	}

	err := quorum.VerifyVotes(hdr, vote, sv.BitSet, sv.AggregateSignature, c, true)
	assert.Error(t, err)
}

// A tampered aggregate signature fails verification even with sufficient
// weight.
func TestVerifyVotesRejectsTamperedSignature(t *testing.T) {
	c, keys := newCommittee(t, 9)
	hdr := message.Header{Round: 1, Iteration: 0, Topic: message.TopicValidation}
	vote := message.NewValidVote(message.BlockHash{0xAA})

	sv := message.NewStepVotes()
	for i := 0; i < 6; i++ {
		sig, err := message.Sign(keys[i], hdr, vote)
		require.NoError(t, err)
		require.NoError(t, sv.Add(sig, keys[i].BLSPubKeyBytes, c.Order()))
	}

	otherHdr := message.Header{Round: 2, Iteration: 0, Topic: message.TopicValidation}
	err := quorum.VerifyVotes(otherHdr, vote, sv.BitSet, sv.AggregateSignature, c, true)
	assert.Error(t, err)
}
