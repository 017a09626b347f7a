package message

// QuorumType classifies the outcome a ValidationResult (or the final
// Quorum) reports: Valid=0, Invalid=1, NoCandidate=2, NoQuorum=3,
// NilQuorum=4. NilQuorum is only ever accepted
// inside a Ratification message's embedded ValidationResult: it marks an
// iteration that terminated cleanly with no candidate reaching validation
// quorum, as distinct from NoQuorum, which marks a step that timed out.
type QuorumType uint8

const (
	// QuorumValid means validation reached quorum on Valid(hash).
	QuorumValid QuorumType = iota
	// QuorumInvalid means validation reached quorum on Invalid(hash).
	QuorumInvalid
	// QuorumNoCandidate means validation reached quorum on NoCandidate.
	QuorumNoCandidate
	// QuorumNoQuorum means the validation step timed out without quorum.
	QuorumNoQuorum
	// QuorumNil means the iteration closed cleanly with no candidate
	// reaching quorum; only valid embedded in a Ratification message.
	QuorumNil
)

func (q QuorumType) String() string {
	switch q {
	case QuorumValid:
		return "Valid"
	case QuorumInvalid:
		return "Invalid"
	case QuorumNoCandidate:
		return "NoCandidate"
	case QuorumNoQuorum:
		return "NoQuorum"
	case QuorumNil:
		return "NilQuorum"
	default:
		return "Unknown"
	}
}

// FromVote maps a terminal Validation vote to the QuorumType recorded in
// the resulting ValidationResult. NoQuorum has no valid mapping: the
// validation committee must never emit it.
func FromVote(v Vote) (QuorumType, bool) {
	switch v.Kind {
	case VoteValid:
		return QuorumValid, true
	case VoteInvalid:
		return QuorumInvalid, true
	case VoteNoCandidate:
		return QuorumNoCandidate, true
	default:
		return 0, false
	}
}

// SignInfo pairs a signer's public key with their signature over the
// canonical bytes of the vote they cast.
type SignInfo struct {
	Signer    []byte
	Signature []byte
}

// Validation is the payload of a Validation-step vote message.
type Validation struct {
	Header   Header
	Vote     Vote
	SignInfo SignInfo
}

// ValidationResult is produced once per iteration by the Validation
// handler on quorum, and is carried inside a Ratification message so
// ratifiers can verify the validation side of the certificate.
type ValidationResult struct {
	SV     StepVotes
	Vote   Vote
	Quorum QuorumType
}

// IsZero reports whether this is the default/unset ValidationResult.
func (r ValidationResult) IsZero() bool {
	return r.SV.IsZero() && r.Quorum == QuorumValid && r.Vote.Kind == VoteValid && r.Vote.Hash == (BlockHash{})
}

// Ratification is the payload of a Ratification-step vote message.
type Ratification struct {
	Header           Header
	Signature        []byte
	ValidationResult ValidationResult
}

// Quorum is the final certificate message, bundling the Validation and
// Ratification StepVotes for the same (round, iteration, block hash).
type Quorum struct {
	Header       Header
	Signature    []byte
	Validation   StepVotes
	Ratification StepVotes
}

// PayloadKind discriminates the Message envelope's payload.
type PayloadKind uint8

const (
	// KindValidation tags a Validation payload.
	KindValidation PayloadKind = iota
	// KindRatification tags a Ratification payload.
	KindRatification
	// KindQuorum tags a Quorum payload.
	KindQuorum
	// KindValidationResult tags an internal, not-for-the-wire
	// ValidationResult handoff from the Validation handler to whatever
	// consumes it next (the round driver, then Ratification).
	KindValidationResult
	// KindEmpty tags the timeout marker payload.
	KindEmpty
)

// Message is the consensus envelope: a discriminated union over the
// payload kinds the core produces and consumes.
type Message struct {
	Kind             PayloadKind
	Validation       *Validation
	Ratification     *Ratification
	Quorum           *Quorum
	ValidationResult *ValidationResult
}

// Empty returns the timeout-marker message.
func Empty() Message {
	return Message{Kind: KindEmpty}
}

// FromValidationResult wraps a ValidationResult for handoff from the
// Validation handler to the round driver (and onward into Ratification).
func FromValidationResult(r ValidationResult) Message {
	return Message{Kind: KindValidationResult, ValidationResult: &r}
}

// NewQuorumMessage wraps a Quorum payload as a Message.
func NewQuorumMessage(q Quorum) Message {
	return Message{Kind: KindQuorum, Quorum: &q}
}
