// Package registry implements the round-wide, lock-protected step-votes
// store: every aggregated StepVotes across all iterations, and the
// synthesiser of the final Quorum message once both sides of a
// certificate (Validation and Ratification) are present for the same
// iteration and block hash.
package registry

import (
	"sync"

	"github.com/nyxium-chain/nyxium/pkg/core/consensus/message"
)

// StepKind discriminates which side of the certificate a stored
// StepVotes belongs to.
type StepKind uint8

const (
	// KindValidation tags a Validation-step StepVotes entry.
	KindValidation StepKind = iota
	// KindRatification tags a Ratification-step StepVotes entry.
	KindRatification
)

type slotKey struct {
	iteration uint8
	kind      StepKind
	voteKey   string
}

type certKey struct {
	iteration uint8
	hash      message.BlockHash
}

// Registry is the shared, lock-protected step-votes store. It is safe
// for concurrent use by multiple handlers/tasks; critical sections are
// limited to a bitset/slot update and an emission check, never held
// across verification or I/O.
type Registry struct {
	mu           sync.Mutex
	slots        map[slotKey]message.StepVotes
	quorumLatched map[slotKey]struct{}
	excluded     map[uint8][]byte
	emitted      map[certKey]struct{}
}

// New returns an empty Registry, scoped to one round.
func New() *Registry {
	return &Registry{
		slots:         make(map[slotKey]message.StepVotes),
		quorumLatched: make(map[slotKey]struct{}),
		excluded:      make(map[uint8][]byte),
		emitted:       make(map[certKey]struct{}),
	}
}

// AddStepVotes records/updates the slot (iteration, kind, vote) with sv.
// If, after the update, both a Validation quorum and a Ratification
// quorum exist for the same (iteration, block hash), it returns the
// composed Quorum message — exactly once per (iteration, block hash)
// pair; later calls that would re-emit the same pair return false.
//
// excludedGenerator is the iteration's generator and is always
// required: its absence indicates a programming error upstream
// (a committee built without recording its excluded generator), so it
// is a required parameter rather than optional.
func (r *Registry) AddStepVotes(iteration uint8, vote message.Vote, sv message.StepVotes, kind StepKind, quorumReached bool, excludedGenerator []byte) (message.Quorum, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := slotKey{iteration: iteration, kind: kind, voteKey: vote.BucketKey()}
	r.slots[key] = sv
	r.excluded[iteration] = excludedGenerator
	if quorumReached {
		r.quorumLatched[key] = struct{}{}
	}

	if !vote.HasHash() {
		return message.Quorum{}, false
	}

	validationKey := slotKey{iteration: iteration, kind: KindValidation, voteKey: vote.BucketKey()}
	ratificationKey := slotKey{iteration: iteration, kind: KindRatification, voteKey: vote.BucketKey()}

	_, hasValidation := r.quorumLatched[validationKey]
	_, hasRatification := r.quorumLatched[ratificationKey]
	if !hasValidation || !hasRatification {
		return message.Quorum{}, false
	}

	validationSV := r.slots[validationKey]
	ratificationSV := r.slots[ratificationKey]

	ck := certKey{iteration: iteration, hash: vote.Hash}
	if _, already := r.emitted[ck]; already {
		return message.Quorum{}, false
	}
	r.emitted[ck] = struct{}{}

	return message.Quorum{
		Header: message.Header{
			Iteration: iteration,
			BlockHash: vote.Hash,
			Topic:     message.TopicQuorum,
		},
		Validation:   validationSV.Copy(),
		Ratification: ratificationSV.Copy(),
	}, true
}
