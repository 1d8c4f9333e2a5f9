package signer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/lightningnetwork/lnd/lnrpc/signrpc"
	"github.com/lightningnetwork/lnd/lnwire"
	"google.golang.org/grpc"

	"github.com/onionbridge/onionbridge/internal/log"
)

// DefaultTimeout bounds a single call to the signing service.
const DefaultTimeout = 30 * time.Second

// SignerClient is the subset of signrpc.SignerClient used by RemoteSigner.
type SignerClient interface {
	DeriveSharedKey(ctx context.Context, in *signrpc.SharedKeyRequest, opts ...grpc.CallOption) (*signrpc.SharedKeyResponse, error)
}

// RemoteSigner implements NodeSigner by delegating ECDH to LND's signer sub-server.
//
// Calls through one RemoteSigner are serialized. It is safe for concurrent use.
type RemoteSigner struct {
	identity *secp256k1.PublicKey
	timeout  time.Duration

	clientLock sync.Mutex
	client     SignerClient
}

var _ NodeSigner = (*RemoteSigner)(nil)

// New creates a RemoteSigner for the node identified by identity. If timeout is not positive,
// DefaultTimeout is used.
func New(identity *secp256k1.PublicKey, client SignerClient, timeout time.Duration) *RemoteSigner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &RemoteSigner{
		identity: identity,
		timeout:  timeout,
		client:   client,
	}
}

// NodeID returns the node's public key for RecipientNode.
func (s *RemoteSigner) NodeID(recipient Recipient) (*secp256k1.PublicKey, error) {
	if recipient != RecipientNode {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedRecipient, recipient)
	}
	return s.identity, nil
}

// ECDH derives a shared secret with LND's node key.
//
// The tweak is applied to other rather than to our node secret because LND's DeriveSharedKey does
// not take a tweak.
func (s *RemoteSigner) ECDH(recipient Recipient, other *secp256k1.PublicKey, tweak *Tweak) ([SharedSecretSize]byte, error) {
	var secret [SharedSecretSize]byte
	if recipient != RecipientNode {
		return secret, fmt.Errorf("%w: %s", ErrUnsupportedRecipient, recipient)
	}
	if other == nil {
		return secret, ErrInvalidPublicKey
	}

	key := other
	if tweak != nil {
		var err error
		if key, err = TweakKey(other, tweak); err != nil {
			return secret, err
		}
	}

	resp, err := s.deriveSharedKey(key)
	if err != nil {
		log.Error("Remote signer failed to derive shared key: %s", err)
		return secret, fmt.Errorf("%w: %w", ErrRemoteSigner, err)
	}

	sharedKey := resp.GetSharedKey()
	if len(sharedKey) != SharedSecretSize {
		return secret, fmt.Errorf("%w: got %d bytes", ErrMalformedSharedKey, len(sharedKey))
	}
	copy(secret[:], sharedKey)
	return secret, nil
}

func (s *RemoteSigner) deriveSharedKey(key *secp256k1.PublicKey) (*signrpc.SharedKeyResponse, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	s.clientLock.Lock()
	defer s.clientLock.Unlock()
	return s.client.DeriveSharedKey(ctx, &signrpc.SharedKeyRequest{
		EphemeralPubkey: key.SerializeCompressed(),
	})
}

// InboundPaymentKeyMaterial is not supported and panics.
func (s *RemoteSigner) InboundPaymentKeyMaterial() [32]byte {
	panic(fmt.Sprintf("inbound payment key material: %s", ErrNotSupported))
}

// SignInvoice is not supported and panics.
func (s *RemoteSigner) SignInvoice(hrp []byte, invoiceData []byte, recipient Recipient) ([]byte, error) {
	panic(fmt.Sprintf("invoice signing: %s", ErrNotSupported))
}

// SignGossipMessage is not supported and panics.
func (s *RemoteSigner) SignGossipMessage(msg lnwire.Message) ([]byte, error) {
	panic(fmt.Sprintf("gossip message signing: %s", ErrNotSupported))
}
