package key

import (
	"github.com/dusk-network/dusk-crypto/bls"
	"github.com/pkg/errors"
)

// Sign produces a compressed BLS signature over msg under sk/pk.
func Sign(sk *bls.SecretKey, pk *bls.PublicKey, msg []byte) ([]byte, error) {
	sig, err := bls.Sign(sk, pk, msg)
	if err != nil {
		return nil, errors.Wrap(err, "bls sign")
	}

	return sig.Compress(), nil
}

// AggregateSignatures folds `next` into `existing`, both compressed BLS
// signatures. Passing a nil/empty `existing` returns `next` unchanged.
// Aggregation is associative and commutative, so callers may fold votes
// in any delivery order and reach the same aggregate.
func AggregateSignatures(existing, next []byte) ([]byte, error) {
	if len(existing) == 0 {
		out := make([]byte, len(next))
		copy(out, next)
		return out, nil
	}

	a, err := bls.UnmarshalSignature(existing)
	if err != nil {
		return nil, errors.Wrap(err, "unmarshal existing signature")
	}

	b, err := bls.UnmarshalSignature(next)
	if err != nil {
		return nil, errors.Wrap(err, "unmarshal next signature")
	}

	agg, err := bls.Aggregate(a, b)
	if err != nil {
		return nil, errors.Wrap(err, "aggregate signatures")
	}

	return agg.Compress(), nil
}

// Verify checks a single signer's compressed BLS signature over msg.
// It is the one-signer counterpart to VerifyAggregate, used wherever a
// vote must be checked against its claimed signer before it is folded
// into an aggregate.
func Verify(pubkey, msg, sig []byte) error {
	pk, err := bls.UnmarshalPublicKey(pubkey)
	if err != nil {
		return errors.Wrap(err, "unmarshal public key")
	}

	s, err := bls.UnmarshalSignature(sig)
	if err != nil {
		return errors.Wrap(err, "unmarshal signature")
	}

	if err := bls.VerifyCompressed(bls.NewApk(pk), msg, s.Compress()); err != nil {
		return errors.Wrap(err, "verify signature")
	}

	return nil
}

// AggregatePublicKeys folds the member public keys into a single
// aggregated public key, used to verify an aggregate signature against
// the set of signers identified by a StepVotes bitset.
func AggregatePublicKeys(pks [][]byte) (*bls.Apk, error) {
	if len(pks) == 0 {
		return nil, errors.New("no public keys to aggregate")
	}

	first, err := bls.UnmarshalPublicKey(pks[0])
	if err != nil {
		return nil, errors.Wrap(err, "unmarshal public key")
	}

	apk := bls.NewApk(first)
	for _, raw := range pks[1:] {
		pk, err := bls.UnmarshalPublicKey(raw)
		if err != nil {
			return nil, errors.Wrap(err, "unmarshal public key")
		}

		if err := apk.Aggregate(pk); err != nil {
			return nil, errors.Wrap(err, "aggregate public key")
		}
	}

	return apk, nil
}

// VerifyAggregate checks a compressed aggregate signature against the
// aggregate public key of the signer set, over msg.
func VerifyAggregate(apk *bls.Apk, msg, aggSig []byte) error {
	sig, err := bls.UnmarshalSignature(aggSig)
	if err != nil {
		return errors.Wrap(err, "unmarshal aggregate signature")
	}

	if err := bls.VerifyCompressed(apk, msg, sig.Compress()); err != nil {
		return errors.Wrap(err, "verify aggregate signature")
	}

	return nil
}
