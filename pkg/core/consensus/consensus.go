// Package consensus implements the per-round message handlers, vote
// aggregator and step-votes registry that drive the two-phase
// Validation/Ratification agreement over a candidate block. The
// surrounding round driver, network transport, committee sortition and
// cryptographic primitives are external collaborators referenced here
// only through their contracts (interfaces and plain data types).
package consensus

import (
	"github.com/nyxium-chain/nyxium/pkg/core/consensus/committee"
	"github.com/nyxium-chain/nyxium/pkg/core/consensus/key"
	"github.com/nyxium-chain/nyxium/pkg/core/consensus/message"
)

// StepName identifies one of the three phases of an iteration. The
// numeric value matches the wire-level step_kind byte and MUST stay
// stable across nodes, since it is folded into the canonical step
// encoding and into signed message bytes.
type StepName uint8

const (
	// Proposal is the step in which the block generator broadcasts a
	// candidate block. It has no handler in this package; it is listed
	// for completeness of the step-numbering scheme.
	Proposal StepName = iota
	// Validation is the first voting step of an iteration.
	Validation
	// Ratification is the second and final voting step of an iteration.
	Ratification
)

// StepsPerIteration is the number of step kinds in a single iteration.
const StepsPerIteration = 3

// IterCounter is the iteration number within a round.
type IterCounter uint8

// FromStep derives the iteration number a globally-numbered step belongs
// to, given step = iteration*StepsPerIteration + step_kind.
func FromStep(step uint8) IterCounter {
	return IterCounter(step / StepsPerIteration)
}

// StepFromName returns the globally-numbered step for this iteration and
// step kind: iteration*StepsPerIteration + step_kind.
func (i IterCounter) StepFromName(name StepName) uint8 {
	return uint8(i)*StepsPerIteration + uint8(name)
}

// RoundUpdate carries the immutable, round-scoped state a handler needs:
// the round number, the local provisioner's BLS key pair, and the round
// seed used to derive committees via sortition.
type RoundUpdate struct {
	Round uint64
	Keys  key.Keys
	Seed  []byte
}

// ErrorKind enumerates the distinct failure modes the consensus core
// distinguishes, per the error handling design: verify/collect errors are
// returned to the driver, which drops the offending message and does not
// treat them as fatal to the round.
type ErrorKind uint8

const (
	// InvalidMsgType indicates the payload does not match the handler.
	InvalidMsgType ErrorKind = iota
	// InvalidSignature indicates a header or aggregate signature failed
	// verification.
	InvalidSignature
	// InvalidVote indicates the vote kind is not permitted for the step.
	InvalidVote
	// InvalidMsgIteration is a routing hint: the message belongs to a
	// past iteration and must be re-dispatched to CollectFromPast.
	InvalidMsgIteration
	// VoteAlreadyCollected indicates a duplicate (signer, vote, step).
	VoteAlreadyCollected
	// InvalidValidation indicates an embedded ValidationResult failed
	// re-verification, or its committee/generator could not be
	// reconstructed.
	InvalidValidation
)

func (k ErrorKind) String() string {
	switch k {
	case InvalidMsgType:
		return "InvalidMsgType"
	case InvalidSignature:
		return "InvalidSignature"
	case InvalidVote:
		return "InvalidVote"
	case InvalidMsgIteration:
		return "InvalidMsgIteration"
	case VoteAlreadyCollected:
		return "VoteAlreadyCollected"
	case InvalidValidation:
		return "InvalidValidation"
	default:
		return "Unknown"
	}
}

// Error is the typed error the consensus core returns from Verify/Collect.
type Error struct {
	Kind    ErrorKind
	Vote    *message.Vote
	Iter    uint8
	Wrapped error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap exposes the wrapped cause, so callers can use errors.Is/As on
// sentinel causes from sub-components (e.g. BLS verification failures).
func (e *Error) Unwrap() error {
	return e.Wrapped
}

// NewError builds a plain Error of the given kind.
func NewError(kind ErrorKind) *Error {
	return &Error{Kind: kind}
}

// WrapError builds an Error of the given kind wrapping a lower-level
// cause.
func WrapError(kind ErrorKind, cause error) *Error {
	return &Error{Kind: kind, Wrapped: cause}
}

// MsgHandler is the uniform contract the Validation and Ratification
// step handlers both satisfy: Verify checks msg against the committees
// derived for iteration before any state is mutated, Collect and
// CollectFromPast fold a verified message into the current or a past
// iteration's tally, HandleTimeout yields the step's deterministic
// timeout output, and Reset re-arms the handler for a new iteration.
type MsgHandler interface {
	Verify(msg message.Message, iteration uint8, committees *committee.RoundCommittees) error
	Collect(msg message.Message, ru RoundUpdate, c committee.Committee) (HandleMsgOutput, error)
	CollectFromPast(msg message.Message, ru RoundUpdate, c committee.Committee) (HandleMsgOutput, error)
	HandleTimeout() HandleMsgOutput
	Reset(iteration uint8)
}

// HandleMsgOutput is what a handler's Collect/CollectFromPast/HandleTimeout
// produce: either a message ready for the driver to act on (a
// ValidationResult or a Quorum, or an Empty marker on timeout), or a
// signal that nothing is ready yet.
type HandleMsgOutput struct {
	Ready   bool
	Message message.Message
}

// Pending is the zero-value HandleMsgOutput: nothing to emit yet.
var Pending = HandleMsgOutput{}

// ReadyWith wraps msg as a ready-to-emit output.
func ReadyWith(msg message.Message) HandleMsgOutput {
	return HandleMsgOutput{Ready: true, Message: msg}
}
