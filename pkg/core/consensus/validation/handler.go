// Package validation implements the Validation-step message handler: it
// verifies, deduplicates and aggregates Validation votes and, on
// quorum, emits a ValidationResult consumed by Ratification.
package validation

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/nyxium-chain/nyxium/pkg/core/consensus"
	"github.com/nyxium-chain/nyxium/pkg/core/consensus/aggregator"
	"github.com/nyxium-chain/nyxium/pkg/core/consensus/committee"
	"github.com/nyxium-chain/nyxium/pkg/core/consensus/key"
	"github.com/nyxium-chain/nyxium/pkg/core/consensus/message"
	"github.com/nyxium-chain/nyxium/pkg/core/consensus/registry"
)

var lg = log.WithField("process", "validation")

// Handler is the Validation-step message handler. It owns its Aggregator
// exclusively; the Registry handle is shared across the round.
type Handler struct {
	aggr          *aggregator.Aggregator
	candidate     *message.BlockHash
	registry      *registry.Registry
	currIteration uint8
}

// New returns a Handler bound to the round's shared Registry.
func New(reg *registry.Registry) *Handler {
	return &Handler{
		aggr:     aggregator.New(),
		registry: reg,
	}
}

// Reset clears the candidate and sets the current iteration, arming a
// fresh Aggregator for it: an Aggregator is good for exactly one
// iteration and is never reused across iterations.
func (h *Handler) Reset(iteration uint8) {
	h.candidate = nil
	h.currIteration = iteration
	h.aggr = aggregator.New()
}

// Verify checks that msg is a Validation (or Empty timeout marker)
// payload, that this signer/step hasn't already voted, that the signer
// holds a seat on the validation committee for iteration, and that the
// signature genuinely verifies against the signer's public key over the
// canonical vote bytes. It never mutates handler state.
func (h *Handler) Verify(msg message.Message, iteration uint8, committees *committee.RoundCommittees) error {
	switch msg.Kind {
	case message.KindValidation:
		v := msg.Validation
		if h.aggr.IsVoteCollected(v.SignInfo.Signer, v.Vote, v.Header.Iteration) {
			return consensus.NewError(consensus.VoteAlreadyCollected)
		}

		if c, ok := committees.ValidationCommittee(iteration); ok && !c.IsMember(v.SignInfo.Signer) {
			return consensus.NewError(consensus.InvalidSignature)
		}

		if err := verifySignature(v); err != nil {
			return consensus.WrapError(consensus.InvalidSignature, err)
		}

		return nil
	case message.KindEmpty:
		return nil
	default:
		return consensus.NewError(consensus.InvalidMsgType)
	}
}

// verifySignature checks that v.SignInfo.Signature is a genuine BLS
// signature by v.SignInfo.Signer over v.Header's canonical bytes for
// v.Vote. Committee membership is checked separately by the caller
// (here and again at Collect time, against the committee), since it
// requires no cryptographic material beyond what is already on v.
func verifySignature(v *message.Validation) error {
	if len(v.SignInfo.Signature) == 0 {
		return consensus.NewError(consensus.InvalidSignature)
	}

	if err := key.Verify(v.SignInfo.Signer, v.Header.SignableBytes(v.Vote), v.SignInfo.Signature); err != nil {
		return errors.Wrap(err, "validation vote signature")
	}

	return nil
}

// Collect aggregates a current-iteration Validation vote. NoQuorum
// cannot be cast from the validation committee. A message from a
// different iteration is rejected with InvalidMsgIteration, which is a
// routing hint: the caller should re-dispatch it to CollectFromPast. On
// quorum, the registry is updated (always, regardless of whether this
// call closes a certificate) and a ValidationResult is emitted.
func (h *Handler) Collect(msg message.Message, ru consensus.RoundUpdate, c committee.Committee) (consensus.HandleMsgOutput, error) {
	v := msg.Validation
	if v == nil {
		return consensus.Pending, consensus.NewError(consensus.InvalidMsgType)
	}

	if v.Vote.Kind == message.VoteNoQuorum {
		return consensus.Pending, &consensus.Error{Kind: consensus.InvalidVote, Vote: &v.Vote}
	}

	if v.Header.Iteration != h.currIteration {
		return consensus.Pending, &consensus.Error{Kind: consensus.InvalidMsgIteration, Iter: v.Header.Iteration}
	}

	sv, quorumReached, err := h.aggr.CollectVote(c, v.SignInfo, v.Vote, v.Header)
	if err != nil {
		lg.WithFields(log.Fields{
			"from": string(v.SignInfo.Signer),
			"vote": v.Vote.Kind.String(),
		}).Warn("cannot collect vote")
		return consensus.Pending, &consensus.Error{Kind: consensus.InvalidVote, Vote: &v.Vote, Wrapped: err}
	}

	excluded, _ := c.Excluded()
	h.registry.AddStepVotes(v.Header.Iteration, v.Vote, sv, registry.KindValidation, quorumReached, excluded)

	if quorumReached {
		qt, ok := message.FromVote(v.Vote)
		if !ok {
			return consensus.Pending, &consensus.Error{Kind: consensus.InvalidVote, Vote: &v.Vote}
		}

		lg.WithField("vote", v.Vote.Kind.String()).Info("quorum reached")
		return consensus.ReadyWith(message.FromValidationResult(message.ValidationResult{
			SV:     sv,
			Vote:   v.Vote,
			Quorum: qt,
		})), nil
	}

	return consensus.Pending, nil
}

// CollectFromPast aggregates a Validation vote belonging to an iteration
// the driver has already moved past. The only exit that emits a message
// is the registry synthesising a full Quorum: late votes may close a
// previously unresolved iteration's certificate, but never count toward
// the current iteration's quorum (the Aggregator keys its buckets by the
// vote header's iteration, so past-iteration votes are tallied apart from
// current-iteration ones).
func (h *Handler) CollectFromPast(msg message.Message, ru consensus.RoundUpdate, c committee.Committee) (consensus.HandleMsgOutput, error) {
	v := msg.Validation
	if v == nil {
		return consensus.Pending, consensus.NewError(consensus.InvalidMsgType)
	}

	if v.Vote.Kind == message.VoteNoQuorum {
		return consensus.Pending, &consensus.Error{Kind: consensus.InvalidVote, Vote: &v.Vote}
	}

	sv, quorumReached, err := h.aggr.CollectVote(c, v.SignInfo, v.Vote, v.Header)
	if err != nil {
		lg.WithFields(log.Fields{
			"from": string(v.SignInfo.Signer),
			"vote": v.Vote.Kind.String(),
		}).Warn("cannot collect vote (past iteration)")
		return consensus.Pending, nil
	}

	excluded, _ := c.Excluded()
	quorumMsg, ok := h.registry.AddStepVotes(v.Header.Iteration, v.Vote, sv, registry.KindValidation, quorumReached, excluded)
	if ok {
		return consensus.ReadyWith(message.NewQuorumMessage(quorumMsg)), nil
	}

	return consensus.Pending, nil
}

// HandleTimeout deterministically yields an empty Ready message,
// signalling to the round driver that the step deadline elapsed. It is
// infallible.
func (h *Handler) HandleTimeout() consensus.HandleMsgOutput {
	return consensus.ReadyWith(message.Empty())
}
