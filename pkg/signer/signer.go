// Package signer supplies node key material to the onion messenger without holding private keys.
//
// Private keys stay inside LND. A [RemoteSigner] answers identity queries from the node public key
// it was constructed with and forwards every ECDH request to LND's signrpc sub-server. This is the
// only key material an onion messenger needs: the node id that peers address messages to, and the
// shared secrets used to peel onion layers.
//
// Operations that would require other key material (invoice signing, gossip signing, inbound
// payment keys) are deliberately not supported.
package signer

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// SharedSecretSize is the length of an ECDH shared secret returned by LND.
const SharedSecretSize = 32

// Recipient identifies which of the node's identities a request refers to.
type Recipient int

const (
	// RecipientNode is the node's primary identity.
	RecipientNode Recipient = iota
	// RecipientPhantomNode is an identity shared by several nodes. LND has no phantom keys, so
	// requests for it always fail.
	RecipientPhantomNode
)

func (r Recipient) String() string {
	switch r {
	case RecipientNode:
		return "node"
	case RecipientPhantomNode:
		return "phantom node"
	}
	return fmt.Sprintf("recipient(%d)", int(r))
}

// Tweak is a big-endian scalar multiplied into the counterparty key before an ECDH operation.
type Tweak [32]byte

var (
	// ErrUnsupportedRecipient is returned for any recipient other than RecipientNode.
	ErrUnsupportedRecipient = errors.New("unsupported recipient")
	// ErrInvalidPublicKey indicates a missing counterparty key.
	ErrInvalidPublicKey = errors.New("invalid public key")
	// ErrInvalidTweak indicates the tweak is not a valid scalar or produced an invalid point.
	ErrInvalidTweak = errors.New("invalid tweak")
	// ErrRemoteSigner wraps transport and remote-side failures reported by the signing service.
	ErrRemoteSigner = errors.New("remote signer error")
	// ErrMalformedSharedKey indicates the signing service returned something other than a 32-byte
	// secret.
	ErrMalformedSharedKey = errors.New("malformed shared key")
	// ErrNotSupported is the panic value for key operations that this package never provides.
	ErrNotSupported = errors.New("not required for onion messaging")
)

// NodeSigner provides the key material an onion messenger needs.
//
// Implementations are not required to be safe for concurrent use unless documented otherwise.
type NodeSigner interface {
	// NodeID returns the public key for recipient. It returns the same value each time it is
	// called with a given recipient and fails with ErrUnsupportedRecipient for unsupported
	// recipients.
	NodeID(recipient Recipient) (*secp256k1.PublicKey, error)

	// ECDH returns the shared secret of the recipient's private key and other, multiplying other
	// by tweak first if tweak is not nil.
	ECDH(recipient Recipient, other *secp256k1.PublicKey, tweak *Tweak) ([SharedSecretSize]byte, error)
}

// TweakKey returns key multiplied by tweak.
func TweakKey(key *secp256k1.PublicKey, tweak *Tweak) (*secp256k1.PublicKey, error) {
	if key == nil {
		return nil, ErrInvalidPublicKey
	}
	var scalar secp256k1.ModNScalar
	if overflow := scalar.SetBytes((*[32]byte)(tweak)); overflow != 0 {
		return nil, fmt.Errorf("%w: scalar exceeds group order", ErrInvalidTweak)
	}
	if scalar.IsZero() {
		return nil, fmt.Errorf("%w: zero scalar", ErrInvalidTweak)
	}

	var point, result secp256k1.JacobianPoint
	key.AsJacobian(&point)
	secp256k1.ScalarMultNonConst(&scalar, &point, &result)
	if (result.X.IsZero() && result.Y.IsZero()) || result.Z.IsZero() {
		return nil, fmt.Errorf("%w: point at infinity", ErrInvalidTweak)
	}
	result.ToAffine()
	return secp256k1.NewPublicKey(&result.X, &result.Y), nil
}

// SharedSecret computes, from a private key held locally, the secret LND's DeriveSharedKey returns:
// the SHA-256 digest of the compressed shared point.
func SharedSecret(priv *secp256k1.PrivateKey, pub *secp256k1.PublicKey) [SharedSecretSize]byte {
	var point, result secp256k1.JacobianPoint
	pub.AsJacobian(&point)
	secp256k1.ScalarMultNonConst(&priv.Key, &point, &result)
	result.ToAffine()
	return sha256.Sum256(secp256k1.NewPublicKey(&result.X, &result.Y).SerializeCompressed())
}
