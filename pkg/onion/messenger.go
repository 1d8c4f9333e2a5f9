// Package onion holds the peer-facing surface of the onion messenger: the set of peers that onion
// messages can be relayed to, and the key material hooks the messenger is constructed with.
package onion

import (
	"errors"
	"fmt"
	"sync"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/lightningnetwork/lnd/lnwire"

	"github.com/onionbridge/onionbridge/pkg/features"
	"github.com/onionbridge/onionbridge/pkg/signer"
)

// Level is the severity of a messenger log record.
type Level int

const (
	LevelGossip Level = iota
	LevelTrace
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
)

// EntropySource supplies cryptographically secure random bytes.
type EntropySource interface {
	SecureRandomBytes() [32]byte
}

// Logger receives the messenger's log records.
type Logger interface {
	Log(level Level, msg string)
}

var (
	// ErrMissingInit indicates a connection was reported without an init message.
	ErrMissingInit = errors.New("peer connected without init features")
	// ErrInvalidPeer indicates a connection was reported without a peer public key.
	ErrInvalidPeer = errors.New("peer connected without public key")
	// ErrSelfConnection indicates a connection to our own node id was reported.
	ErrSelfConnection = errors.New("peer connection to own node")
	// ErrSignerMismatch indicates the signer's shared secret disagrees with the node id it reports.
	ErrSignerMismatch = errors.New("signer shared secret does not match node id")
)

// Messenger tracks the peers onion messages can be forwarded to.
//
// It is safe for concurrent use.
type Messenger struct {
	entropy EntropySource
	signer  signer.NodeSigner
	logger  Logger
	nodeID  *secp256k1.PublicKey

	peerLock sync.Mutex
	peers    map[[33]byte]bool
}

// New creates a Messenger that obtains key material from nodeSigner.
func New(entropy EntropySource, nodeSigner signer.NodeSigner, logger Logger) (*Messenger, error) {
	nodeID, err := nodeSigner.NodeID(signer.RecipientNode)
	if err != nil {
		return nil, fmt.Errorf("could not fetch node id: %w", err)
	}
	return &Messenger{
		entropy: entropy,
		signer:  nodeSigner,
		logger:  logger,
		nodeID:  nodeID,
		peers:   make(map[[33]byte]bool),
	}, nil
}

func peerKey(pub *secp256k1.PublicKey) [33]byte {
	var key [33]byte
	copy(key[:], pub.SerializeCompressed())
	return key
}

// NodeID returns our node's public key.
func (m *Messenger) NodeID() *secp256k1.PublicKey {
	return m.nodeID
}

// PeerConnected registers peer if init declares onion message support. A peer that reconnects
// without onion message support is forgotten.
func (m *Messenger) PeerConnected(peer *secp256k1.PublicKey, init *lnwire.Init, inbound bool) error {
	if peer == nil {
		return ErrInvalidPeer
	}
	if init == nil || init.Features == nil {
		return ErrMissingInit
	}
	if peer.IsEqual(m.nodeID) {
		return ErrSelfConnection
	}
	if !features.InitSupportsOnionMessages(init) {
		m.peerLock.Lock()
		delete(m.peers, peerKey(peer))
		m.peerLock.Unlock()
		m.logger.Log(LevelTrace, fmt.Sprintf("Peer %x does not support onion messages", peer.SerializeCompressed()))
		return nil
	}

	m.peerLock.Lock()
	m.peers[peerKey(peer)] = inbound
	count := len(m.peers)
	m.peerLock.Unlock()

	m.logger.Log(LevelDebug, fmt.Sprintf("Peer %x connected with onion message support (%d peers)", peer.SerializeCompressed(), count))
	return nil
}

// PeerDisconnected forgets peer.
func (m *Messenger) PeerDisconnected(peer *secp256k1.PublicKey) {
	if !m.isConnected(peer) {
		return
	}
	m.peerLock.Lock()
	delete(m.peers, peerKey(peer))
	m.peerLock.Unlock()
	m.logger.Log(LevelDebug, fmt.Sprintf("Peer %x disconnected", peer.SerializeCompressed()))
}

func (m *Messenger) isConnected(peer *secp256k1.PublicKey) bool {
	if peer == nil {
		return false
	}
	m.peerLock.Lock()
	defer m.peerLock.Unlock()
	_, ok := m.peers[peerKey(peer)]
	return ok
}

// NumPeers returns the number of connected peers that support onion messages.
func (m *Messenger) NumPeers() int {
	m.peerLock.Lock()
	defer m.peerLock.Unlock()
	return len(m.peers)
}

// newSessionKey draws an ephemeral key for an outgoing onion from the entropy source.
func (m *Messenger) newSessionKey() (*secp256k1.PrivateKey, error) {
	b := m.entropy.SecureRandomBytes()
	var scalar secp256k1.ModNScalar
	if overflow := scalar.SetBytes(&b); overflow != 0 || scalar.IsZero() {
		return nil, errors.New("entropy source produced an invalid session key")
	}
	return secp256k1.NewPrivateKey(&scalar), nil
}

// sharedSecret derives the shared secret for an onion layer addressed to our node.
func (m *Messenger) sharedSecret(pathKey *secp256k1.PublicKey, tweak *signer.Tweak) ([signer.SharedSecretSize]byte, error) {
	return m.signer.ECDH(signer.RecipientNode, pathKey, tweak)
}

// VerifySigner performs one ECDH round trip with a fresh session key and checks the result against
// the secret computed locally from the node id. It fails if the signer is unreachable or holds a
// key other than the one it reports.
func (m *Messenger) VerifySigner() error {
	session, err := m.newSessionKey()
	if err != nil {
		return err
	}
	remote, err := m.sharedSecret(session.PubKey(), nil)
	if err != nil {
		return err
	}
	if remote != signer.SharedSecret(session, m.nodeID) {
		return ErrSignerMismatch
	}
	m.logger.Log(LevelDebug, "Signer shared secret verified against node id")
	return nil
}
