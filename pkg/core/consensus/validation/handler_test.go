package validation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyxium-chain/nyxium/pkg/core/consensus"
	"github.com/nyxium-chain/nyxium/pkg/core/consensus/committee"
	"github.com/nyxium-chain/nyxium/pkg/core/consensus/key"
	"github.com/nyxium-chain/nyxium/pkg/core/consensus/message"
	"github.com/nyxium-chain/nyxium/pkg/core/consensus/registry"
	"github.com/nyxium-chain/nyxium/pkg/core/consensus/validation"
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

func roundCommitteesWith(iteration uint8, c committee.Committee) *committee.RoundCommittees {
	rc := committee.NewRoundCommittees()
	rc.Put(iteration, committee.IterationCommittees{ValidationCommittee: c, RatificationCommittee: c})
	return rc
}

func validationMsg(t *testing.T, k key.Keys, hdr message.Header, vote message.Vote) message.Message {
	t.Helper()
	sig, err := message.Sign(k, hdr, vote)
	require.NoError(t, err)
	return message.Message{Kind: message.KindValidation, Validation: &message.Validation{
		Header:   hdr,
		Vote:     vote,
		SignInfo: message.SignInfo{Signer: k.BLSPubKeyBytes, Signature: sig},
	}}
}

// 6/9 Valid votes reach quorum and emit a ValidationResult with a
// matching QuorumType.
func TestCollectEmitsValidationResultOnQuorum(t *testing.T) {
	c, keys := newCommittee(t, 9)
	h := validation.New(registry.New())
	h.Reset(0)

	hdr := message.Header{Round: 1, Iteration: 0, Topic: message.TopicValidation}
	vote := message.NewValidVote(message.BlockHash{0xAA})
	rc := roundCommitteesWith(0, c)

	var ru consensus.RoundUpdate
	var out consensus.HandleMsgOutput
	for i := 0; i < 6; i++ {
		msg := validationMsg(t, keys[i], hdr, vote)
		require.NoError(t, h.Verify(msg, 0, rc))

		var err error
		out, err = h.Collect(msg, ru, c)
		require.NoError(t, err)
	}

	require.True(t, out.Ready)
	require.Equal(t, message.KindValidationResult, out.Message.Kind)
	assert.Equal(t, message.QuorumValid, out.Message.ValidationResult.Quorum)
	assert.True(t, out.Message.ValidationResult.Vote.Equal(vote))
}

// The validation committee must never emit NoQuorum; Collect rejects it.
func TestCollectRejectsNoQuorumVote(t *testing.T) {
	c, keys := newCommittee(t, 9)
	h := validation.New(registry.New())
	h.Reset(0)

	hdr := message.Header{Round: 1, Iteration: 0, Topic: message.TopicValidation}
	vote := message.NoQuorumVote()
	msg := validationMsg(t, keys[0], hdr, vote)

	var ru consensus.RoundUpdate
	_, err := h.Collect(msg, ru, c)
	assert.Error(t, err)
}

// A message from a non-current iteration is rejected with
// InvalidMsgIteration, the routing hint for CollectFromPast.
func TestCollectRejectsWrongIteration(t *testing.T) {
	c, keys := newCommittee(t, 9)
	h := validation.New(registry.New())
	h.Reset(3)

	hdr := message.Header{Round: 1, Iteration: 1, Topic: message.TopicValidation}
	vote := message.NewValidVote(message.BlockHash{0xAA})
	msg := validationMsg(t, keys[0], hdr, vote)

	var ru consensus.RoundUpdate
	_, err := h.Collect(msg, ru, c)
	require.Error(t, err)

	var cerr *consensus.Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, consensus.InvalidMsgIteration, cerr.Kind)
}

// Verify rejects a duplicate (signer, vote, step) before Collect ever
// runs, and rejects a Validation payload with no signature bytes.
func TestVerifyRejectsDuplicateAndMalformed(t *testing.T) {
	c, keys := newCommittee(t, 9)
	h := validation.New(registry.New())
	h.Reset(0)

	hdr := message.Header{Round: 1, Iteration: 0, Topic: message.TopicValidation}
	vote := message.NewValidVote(message.BlockHash{0xAA})
	msg := validationMsg(t, keys[0], hdr, vote)
	rc := roundCommitteesWith(0, c)

	require.NoError(t, h.Verify(msg, 0, rc))

	var ru consensus.RoundUpdate
	_, err := h.Collect(msg, ru, c)
	require.NoError(t, err)

	assert.Error(t, h.Verify(msg, 0, rc))

	malformed := message.Message{Kind: message.KindValidation, Validation: &message.Validation{
		Header:   hdr,
		Vote:     message.NewValidVote(message.BlockHash{0xBB}),
		SignInfo: message.SignInfo{Signer: keys[1].BLSPubKeyBytes},
	}}
	assert.Error(t, h.Verify(malformed, 0, rc))
}

// HandleTimeout deterministically yields an Empty, ready message.
func TestHandleTimeoutYieldsEmpty(t *testing.T) {
	h := validation.New(registry.New())
	out := h.HandleTimeout()
	assert.True(t, out.Ready)
	assert.Equal(t, message.KindEmpty, out.Message.Kind)
}
