package message

import (
	"encoding/binary"

	"github.com/nyxium-chain/nyxium/pkg/core/consensus/key"
)

// Topic identifies which step a message belongs to, for routing.
type Topic uint8

const (
	// TopicValidation tags a Validation vote message.
	TopicValidation Topic = iota
	// TopicRatification tags a Ratification vote message.
	TopicRatification
	// TopicQuorum tags a final Quorum/certificate message.
	TopicQuorum
)

// Header carries the round/iteration/step addressing and signer identity
// common to every consensus message.
type Header struct {
	Round        uint64
	Iteration    uint8
	BlockHash    BlockHash
	SignerPubKey []byte
	Topic        Topic
}

// stepKind returns the step kind byte this header's topic corresponds to,
// for building canonical signing bytes: Proposal=0, Validation=1,
// Ratification=2.
func (h Header) stepKind() uint8 {
	switch h.Topic {
	case TopicValidation:
		return 1
	case TopicRatification:
		return 2
	default:
		return 0
	}
}

// SignableBytes returns the canonical signing bytes for a vote cast under
// this header: round (u64 BE) || iteration (u8) || step_kind (u8) ||
// block_hash (32 bytes) || vote_tag (u8). Every node must produce
// identical bytes for identical (round, iteration, step, hash, vote).
func (h Header) SignableBytes(vote Vote) []byte {
	buf := make([]byte, 8+1+1+32+1)
	binary.BigEndian.PutUint64(buf[0:8], h.Round)
	buf[8] = h.Iteration
	buf[9] = h.stepKind()
	copy(buf[10:42], vote.Hash[:])
	buf[42] = byte(vote.Kind)
	return buf
}

// Sign produces a compressed BLS signature over this header's canonical
// signing bytes for the given vote.
func Sign(k key.Keys, h Header, vote Vote) ([]byte, error) {
	return key.Sign(k.BLSSecretKey, k.BLSPubKey, h.SignableBytes(vote))
}
