package message

// VoteKind tags the variant of a Vote, matching the wire-level vote_tag
// byte: Valid=0, Invalid=1, NoCandidate=2, NoQuorum=3.
type VoteKind uint8

const (
	// VoteValid means the signer saw a valid candidate for the hash.
	VoteValid VoteKind = iota
	// VoteInvalid means the signer saw an invalid candidate for the hash.
	VoteInvalid
	// VoteNoCandidate means the signer saw no candidate at all.
	VoteNoCandidate
	// VoteNoQuorum means the step timed out without reaching quorum.
	// The validation committee MUST NOT emit this vote kind.
	VoteNoQuorum
)

func (k VoteKind) String() string {
	switch k {
	case VoteValid:
		return "Valid"
	case VoteInvalid:
		return "Invalid"
	case VoteNoCandidate:
		return "NoCandidate"
	case VoteNoQuorum:
		return "NoQuorum"
	default:
		return "Unknown"
	}
}

// BlockHash is a 32-byte candidate block hash.
type BlockHash [32]byte

// Vote is the tagged variant a committee member casts in a step: a
// position on a specific candidate block hash (Valid/Invalid), or one of
// the candidate-independent fallback positions (NoCandidate/NoQuorum, for
// which Hash is the zero value and carries no meaning).
type Vote struct {
	Kind VoteKind
	Hash BlockHash
}

// NewValidVote returns a Valid(hash) vote.
func NewValidVote(hash BlockHash) Vote {
	return Vote{Kind: VoteValid, Hash: hash}
}

// NewInvalidVote returns an Invalid(hash) vote.
func NewInvalidVote(hash BlockHash) Vote {
	return Vote{Kind: VoteInvalid, Hash: hash}
}

// NoCandidateVote returns the NoCandidate vote.
func NoCandidateVote() Vote {
	return Vote{Kind: VoteNoCandidate}
}

// NoQuorumVote returns the NoQuorum vote.
func NoQuorumVote() Vote {
	return Vote{Kind: VoteNoQuorum}
}

// HasHash reports whether the vote carries a meaningful block hash.
func (v Vote) HasHash() bool {
	return v.Kind == VoteValid || v.Kind == VoteInvalid
}

// BucketKey identifies the Aggregator/Registry bucket this vote belongs
// to: votes with a candidate hash are bucketed per-hash; the
// candidate-independent kinds share one bucket each.
func (v Vote) BucketKey() string {
	if v.HasHash() {
		return string([]byte{byte(v.Kind)}) + string(v.Hash[:])
	}
	return string([]byte{byte(v.Kind)})
}

// Equal reports whether two votes are identical in kind and (if
// applicable) hash.
func (v Vote) Equal(other Vote) bool {
	return v.Kind == other.Kind && v.Hash == other.Hash
}
