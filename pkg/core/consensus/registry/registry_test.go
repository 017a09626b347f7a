package registry_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyxium-chain/nyxium/pkg/core/consensus/message"
	"github.com/nyxium-chain/nyxium/pkg/core/consensus/registry"
)

func someSV() message.StepVotes {
	sv := message.NewStepVotes()
	return *sv
}

// A quorum message is only synthesised once both
// the validation and ratification sides are present for the same
// (iteration, block hash).
func TestAddStepVotesEmitsOnlyWhenBothSidesPresent(t *testing.T) {
	r := registry.New()
	hash := message.BlockHash{0xAA}
	vote := message.NewValidVote(hash)

	_, ok := r.AddStepVotes(0, vote, someSV(), registry.KindValidation, true, []byte("gen"))
	assert.False(t, ok, "ratification side missing")

	q, ok := r.AddStepVotes(0, vote, someSV(), registry.KindRatification, true, []byte("gen"))
	require.True(t, ok)
	assert.Equal(t, hash, q.Header.BlockHash)
}

// At most one Quorum message is emitted per (iteration,
// block hash), even under interleaved concurrent calls.
func TestAddStepVotesEmitsAtMostOnce(t *testing.T) {
	r := registry.New()
	hash := message.BlockHash{0xAA}
	vote := message.NewValidVote(hash)

	_, ok := r.AddStepVotes(0, vote, someSV(), registry.KindValidation, true, []byte("gen"))
	require.False(t, ok)

	var wg sync.WaitGroup
	var mu sync.Mutex
	emittedCount := 0

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok := r.AddStepVotes(0, vote, someSV(), registry.KindRatification, true, []byte("gen"))
			if ok {
				mu.Lock()
				emittedCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, emittedCount)
}

// A slot written without quorum does not, by itself, let the other side
// synthesise a premature certificate.
func TestAddStepVotesRequiresQuorumOnBothSides(t *testing.T) {
	r := registry.New()
	hash := message.BlockHash{0xAA}
	vote := message.NewValidVote(hash)

	// Validation side recorded but has NOT reached quorum yet.
	_, ok := r.AddStepVotes(0, vote, someSV(), registry.KindValidation, false, []byte("gen"))
	assert.False(t, ok)

	// Ratification reaches quorum; validation still hasn't, so no
	// Quorum should be synthesised.
	_, ok = r.AddStepVotes(0, vote, someSV(), registry.KindRatification, true, []byte("gen"))
	assert.False(t, ok)

	// Now validation also reaches quorum: certificate completes.
	_, ok = r.AddStepVotes(0, vote, someSV(), registry.KindValidation, true, []byte("gen"))
	assert.True(t, ok)
}

// Different iterations/hashes are independent slots.
func TestAddStepVotesScopedPerIterationAndHash(t *testing.T) {
	r := registry.New()
	hashA := message.BlockHash{0xAA}
	hashB := message.BlockHash{0xBB}

	_, ok := r.AddStepVotes(0, message.NewValidVote(hashA), someSV(), registry.KindValidation, true, []byte("gen"))
	assert.False(t, ok)

	_, ok = r.AddStepVotes(1, message.NewValidVote(hashB), someSV(), registry.KindRatification, true, []byte("gen"))
	assert.False(t, ok, "different iteration/hash must not complete iteration 0's certificate")
}
