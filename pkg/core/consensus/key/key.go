// Package key wraps the BLS key material used by a provisioner to sign
// consensus votes, wired directly to
// github.com/dusk-network/dusk-crypto/bls.
package key

import (
	"crypto/rand"

	"github.com/dusk-network/dusk-crypto/bls"
)

// Keys holds a provisioner's BLS key pair for the lifetime of a round.
type Keys struct {
	BLSPubKey      *bls.PublicKey
	BLSPubKeyBytes []byte
	BLSSecretKey   *bls.SecretKey
}

// NewRandKeys generates a fresh BLS key pair, for use in tests and local
// round simulation.
func NewRandKeys() (Keys, error) {
	pk, sk, err := bls.GenKeyPair(rand.Reader)
	if err != nil {
		return Keys{}, err
	}

	return Keys{
		BLSPubKey:      pk,
		BLSPubKeyBytes: pk.Marshal(),
		BLSSecretKey:   sk,
	}, nil
}
