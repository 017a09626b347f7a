// Package ratification implements the Ratification-step message
// handler: it verifies an embedded ValidationResult by re-checking its
// certificate against the reconstructed validation committee, then
// aggregates Ratification votes the same way the Validation handler
// aggregates its own step's votes.
package ratification

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/nyxium-chain/nyxium/pkg/core/consensus"
	"github.com/nyxium-chain/nyxium/pkg/core/consensus/aggregator"
	"github.com/nyxium-chain/nyxium/pkg/core/consensus/committee"
	"github.com/nyxium-chain/nyxium/pkg/core/consensus/key"
	"github.com/nyxium-chain/nyxium/pkg/core/consensus/message"
	"github.com/nyxium-chain/nyxium/pkg/core/consensus/quorum"
	"github.com/nyxium-chain/nyxium/pkg/core/consensus/registry"
)

var lg = log.WithField("process", "ratification")

// Handler is the Ratification-step message handler.
type Handler struct {
	aggr          *aggregator.Aggregator
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

// Reset re-arms the handler for a new iteration with a fresh Aggregator.
func (h *Handler) Reset(iteration uint8) {
	h.currIteration = iteration
	h.aggr = aggregator.New()
}

// Verify re-checks the embedded ValidationResult against the
// reconstructed validation committee for iteration (§4.5
// re-verification), checks the outer signer holds a seat on the
// ratification committee, and verifies the outer Ratification signature
// against the signer's public key over the canonical vote bytes. A
// QuorumNoQuorum or QuorumInvalid result is rejected with
// InvalidValidation. A QuorumNil result (clean iteration close with no
// candidate) is accepted without a certificate re-check, since it
// carries no certificate to re-verify; every other QuorumType must carry
// a StepVotes that re-verifies against the validation committee.
func (h *Handler) Verify(msg message.Message, iteration uint8, committees *committee.RoundCommittees) error {
	r := msg.Ratification
	if r == nil {
		return consensus.NewError(consensus.InvalidMsgType)
	}

	vote := voteFromResult(r.ValidationResult)

	if h.aggr.IsVoteCollected(r.Header.SignerPubKey, vote, r.Header.Iteration) {
		return consensus.NewError(consensus.VoteAlreadyCollected)
	}

	switch r.ValidationResult.Quorum {
	case message.QuorumNoQuorum, message.QuorumInvalid:
		return consensus.NewError(consensus.InvalidValidation)
	case message.QuorumNil:
		// No certificate to re-verify: a clean close with no candidate is
		// a terminal marker, not a quorum outcome.
	default:
		validationCommittee, ok := committees.ValidationCommittee(iteration)
		if !ok {
			return consensus.NewError(consensus.InvalidValidation)
		}

		validationHdr := message.Header{Round: r.Header.Round, Iteration: iteration, Topic: message.TopicValidation}
		if err := quorum.VerifyVotes(
			validationHdr,
			r.ValidationResult.Vote,
			r.ValidationResult.SV.BitSet,
			r.ValidationResult.SV.AggregateSignature,
			validationCommittee,
			true,
		); err != nil {
			lg.WithError(err).Warn("embedded validation result failed re-verification")
			return consensus.WrapError(consensus.InvalidValidation, err)
		}
	}

	if ratCommittee, ok := committees.RatificationCommittee(iteration); ok && !ratCommittee.IsMember(r.Header.SignerPubKey) {
		return consensus.NewError(consensus.InvalidSignature)
	}

	if len(r.Signature) == 0 {
		return consensus.NewError(consensus.InvalidSignature)
	}

	if err := key.Verify(r.Header.SignerPubKey, r.Header.SignableBytes(vote), r.Signature); err != nil {
		return consensus.WrapError(consensus.InvalidSignature, errors.Wrap(err, "ratification signature"))
	}

	return nil
}

// voteFromResult returns the Vote carried by a ValidationResult: the vote
// a Ratification message is signed over, deduplicated by and aggregated
// under.
func voteFromResult(r message.ValidationResult) message.Vote {
	return r.Vote
}

// Collect aggregates a current-iteration Ratification vote. Unlike
// Validation, NoQuorum is a legitimate Ratification vote (it reports
// that the step itself timed out). A step mismatch is treated as
// Pending rather than an error: a stray past-iteration Ratification
// message is not itself malformed, it simply isn't actionable here.
func (h *Handler) Collect(msg message.Message, ru consensus.RoundUpdate, c committee.Committee) (consensus.HandleMsgOutput, error) {
	r := msg.Ratification
	if r == nil {
		return consensus.Pending, consensus.NewError(consensus.InvalidMsgType)
	}

	if r.Header.Iteration != h.currIteration {
		return consensus.Pending, nil
	}

	si := message.SignInfo{Signer: r.Header.SignerPubKey, Signature: r.Signature}
	vote := voteFromResult(r.ValidationResult)

	sv, quorumReached, err := h.aggr.CollectVote(c, si, vote, r.Header)
	if err != nil {
		lg.WithFields(log.Fields{
			"from": string(r.Header.SignerPubKey),
			"vote": vote.Kind.String(),
		}).Warn("cannot collect vote")
		return consensus.Pending, &consensus.Error{Kind: consensus.InvalidVote, Vote: &vote, Wrapped: err}
	}

	if quorumReached {
		if err := quorum.VerifyVotes(r.Header, vote, sv.BitSet, sv.AggregateSignature, c, true); err != nil {
			lg.WithError(err).Warn("ratification aggregate failed re-verification")
			return consensus.Pending, consensus.WrapError(consensus.InvalidValidation, err)
		}
	}

	excluded, _ := c.Excluded()
	quorumMsg, ok := h.registry.AddStepVotes(r.Header.Iteration, vote, sv, registry.KindRatification, quorumReached, excluded)
	if ok {
		lg.WithField("hash", quorumMsg.Header.BlockHash).Info("certificate complete")
		return consensus.ReadyWith(message.NewQuorumMessage(quorumMsg)), nil
	}

	return consensus.Pending, nil
}

// CollectFromPast aggregates a Ratification vote belonging to an
// iteration the driver has already moved past, mirroring
// validation.Handler.CollectFromPast: it may still close a previously
// unresolved certificate via the shared Registry.
func (h *Handler) CollectFromPast(msg message.Message, ru consensus.RoundUpdate, c committee.Committee) (consensus.HandleMsgOutput, error) {
	r := msg.Ratification
	if r == nil {
		return consensus.Pending, consensus.NewError(consensus.InvalidMsgType)
	}

	si := message.SignInfo{Signer: r.Header.SignerPubKey, Signature: r.Signature}
	vote := voteFromResult(r.ValidationResult)

	sv, quorumReached, err := h.aggr.CollectVote(c, si, vote, r.Header)
	if err != nil {
		lg.WithFields(log.Fields{
			"from": string(r.Header.SignerPubKey),
			"vote": vote.Kind.String(),
		}).Warn("cannot collect vote (past iteration)")
		return consensus.Pending, nil
	}

	if quorumReached {
		if err := quorum.VerifyVotes(r.Header, vote, sv.BitSet, sv.AggregateSignature, c, true); err != nil {
			lg.WithError(err).Warn("ratification aggregate failed re-verification (past iteration)")
			return consensus.Pending, nil
		}
	}

	excluded, _ := c.Excluded()
	quorumMsg, ok := h.registry.AddStepVotes(r.Header.Iteration, vote, sv, registry.KindRatification, quorumReached, excluded)
	if ok {
		return consensus.ReadyWith(message.NewQuorumMessage(quorumMsg)), nil
	}

	return consensus.Pending, nil
}

// HandleTimeout is infallible: it deterministically yields an empty
// Ready message, signalling to the round driver that the step deadline
// elapsed.
func (h *Handler) HandleTimeout() consensus.HandleMsgOutput {
	return consensus.ReadyWith(message.Empty())
}
