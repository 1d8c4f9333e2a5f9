package onion_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/lightningnetwork/lnd/lnwire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onionbridge/onionbridge/pkg/features"
	"github.com/onionbridge/onionbridge/pkg/onion"
	"github.com/onionbridge/onionbridge/pkg/signer"
)

type dummySigner struct {
	key       *secp256k1.PrivateKey
	nodeIDErr error
	ecdhErr   error
	ecdhKey   *secp256k1.PrivateKey // answers ECDH with a different key than it reports
	ecdhCalls int
}

func (d *dummySigner) NodeID(recipient signer.Recipient) (*secp256k1.PublicKey, error) {
	if d.nodeIDErr != nil {
		return nil, d.nodeIDErr
	}
	if recipient != signer.RecipientNode {
		return nil, signer.ErrUnsupportedRecipient
	}
	return d.key.PubKey(), nil
}

func (d *dummySigner) ECDH(recipient signer.Recipient, other *secp256k1.PublicKey, tweak *signer.Tweak) ([signer.SharedSecretSize]byte, error) {
	d.ecdhCalls++
	var out [signer.SharedSecretSize]byte
	if recipient != signer.RecipientNode {
		return out, signer.ErrUnsupportedRecipient
	}
	if d.ecdhErr != nil {
		return out, d.ecdhErr
	}
	key := d.key
	if d.ecdhKey != nil {
		key = d.ecdhKey
	}
	return signer.SharedSecret(key, other), nil
}

type recordingLogger struct {
	lock    sync.Mutex
	records []string
}

func (r *recordingLogger) Log(level onion.Level, msg string) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.records = append(r.records, msg)
}

type fixedEntropy [32]byte

func (f fixedEntropy) SecureRandomBytes() [32]byte {
	return f
}

func privKey(seed byte) *secp256k1.PrivateKey {
	b := make([]byte, 32)
	for i := range b {
		b[i] = seed
	}
	return secp256k1.PrivKeyFromBytes(b)
}

func newMessenger(t *testing.T) (*onion.Messenger, *dummySigner) {
	t.Helper()
	s := &dummySigner{key: privKey(0x11)}
	m, err := onion.New(fixedEntropy{0x01}, s, &recordingLogger{})
	require.NoError(t, err)
	return m, s
}

func TestNewFetchesNodeID(t *testing.T) {
	m, s := newMessenger(t)
	assert.True(t, m.NodeID().IsEqual(s.key.PubKey()))
}

func TestNewNodeIDFailure(t *testing.T) {
	errNoKey := errors.New("no key")
	_, err := onion.New(fixedEntropy{}, &dummySigner{nodeIDErr: errNoKey}, &recordingLogger{})
	assert.ErrorIs(t, err, errNoKey)
}

func TestPeerLifecycle(t *testing.T) {
	m, _ := newMessenger(t)
	alice := privKey(0x21).PubKey()
	bob := privKey(0x22).PubKey()

	require.NoError(t, m.PeerConnected(alice, features.NewInit(true), false))
	require.NoError(t, m.PeerConnected(bob, features.NewInit(false), false))

	assert.True(t, m.IsConnected(alice))
	assert.False(t, m.IsConnected(bob), "peers without onion support are not tracked")
	assert.Equal(t, 1, m.NumPeers())

	// Reconnecting does not duplicate the peer.
	require.NoError(t, m.PeerConnected(alice, features.NewInit(true), true))
	assert.Equal(t, 1, m.NumPeers())

	m.PeerDisconnected(alice)
	assert.False(t, m.IsConnected(alice))
	assert.Equal(t, 0, m.NumPeers())

	// Disconnecting an unknown peer is a no-op.
	m.PeerDisconnected(bob)
	m.PeerDisconnected(nil)
	assert.Equal(t, 0, m.NumPeers())
}

func TestPeerConnectedRejections(t *testing.T) {
	m, s := newMessenger(t)
	alice := privKey(0x21).PubKey()

	assert.ErrorIs(t, m.PeerConnected(nil, features.NewInit(true), false), onion.ErrInvalidPeer)
	assert.ErrorIs(t, m.PeerConnected(alice, nil, false), onion.ErrMissingInit)
	assert.ErrorIs(t, m.PeerConnected(alice, &lnwire.Init{}, false), onion.ErrMissingInit)
	assert.ErrorIs(t, m.PeerConnected(s.key.PubKey(), features.NewInit(true), false), onion.ErrSelfConnection)
	assert.Equal(t, 0, m.NumPeers())
}

func TestReconnectWithoutOnionSupport(t *testing.T) {
	m, _ := newMessenger(t)
	alice := privKey(0x21).PubKey()

	require.NoError(t, m.PeerConnected(alice, features.NewInit(true), false))
	require.True(t, m.IsConnected(alice))

	require.NoError(t, m.PeerConnected(alice, features.NewInit(false), false))
	assert.False(t, m.IsConnected(alice))
	assert.Equal(t, 0, m.NumPeers())
}

func TestIsConnectedNilPeer(t *testing.T) {
	m, _ := newMessenger(t)
	assert.False(t, m.IsConnected(nil))
}

func TestVerifySigner(t *testing.T) {
	m, s := newMessenger(t)
	require.NoError(t, m.VerifySigner())
	assert.Equal(t, 1, s.ecdhCalls)
}

func TestVerifySignerMismatch(t *testing.T) {
	s := &dummySigner{key: privKey(0x11), ecdhKey: privKey(0x12)}
	m, err := onion.New(fixedEntropy{0x01}, s, &recordingLogger{})
	require.NoError(t, err)
	assert.ErrorIs(t, m.VerifySigner(), onion.ErrSignerMismatch)
}

func TestVerifySignerFailures(t *testing.T) {
	errUnavailable := errors.New("signer unavailable")
	s := &dummySigner{key: privKey(0x11), ecdhErr: errUnavailable}
	m, err := onion.New(fixedEntropy{0x01}, s, &recordingLogger{})
	require.NoError(t, err)
	assert.ErrorIs(t, m.VerifySigner(), errUnavailable)

	// An all-zero draw is not a valid session key, so no ECDH request is made.
	zero, err := onion.New(fixedEntropy{}, &dummySigner{key: privKey(0x11)}, &recordingLogger{})
	require.NoError(t, err)
	assert.Error(t, zero.VerifySigner())
}
