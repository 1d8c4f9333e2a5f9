// Package messenger drives an onion messenger from LND's peer lifecycle events.
//
// A [PeerEventProducer] turns LND's peer event stream into [Event] values on a channel, and
// [ConsumeEvents] delivers them, one at a time and in order, to an [OnionMessageHandler].
package messenger

import (
	"errors"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/lightningnetwork/lnd/lnwire"
)

// BufferSize is the number of peer events that can be queued between producer and consumer.
const BufferSize = 100

var (
	// ErrOnionMessengerFailure indicates the onion messenger rejected a peer connection.
	ErrOnionMessengerFailure = errors.New("consumer err: onion messenger failure")
	// ErrPeerProducerExit indicates the producer of peer events exited.
	ErrPeerProducerExit = errors.New("consumer err: peer producer exit")
)

//go:generate mockgen -destination ../../mocks/messenger.go -package mocks -mock_names OnionMessageHandler=OnionMessageHandler github.com/onionbridge/onionbridge/pkg/messenger OnionMessageHandler

// OnionMessageHandler is the peer-handling surface of an onion messenger.
type OnionMessageHandler interface {
	// PeerConnected notifies the handler that a peer connected and declared init. A non-nil
	// error leaves the handler unusable for the session.
	PeerConnected(peer *secp256k1.PublicKey, init *lnwire.Init, inbound bool) error

	// PeerDisconnected notifies the handler that a peer disconnected.
	PeerDisconnected(peer *secp256k1.PublicKey)
}

// Event is a peer lifecycle event relevant to onion messaging. It is one of PeerConnected,
// PeerDisconnected or ProducerExit.
type Event interface {
	fmt.Stringer
	isEvent()
}

// PeerConnected reports a peer connection and whether the peer advertises onion messaging.
type PeerConnected struct {
	PubKey       *secp256k1.PublicKey
	OnionSupport bool
}

// PeerDisconnected reports a peer disconnection.
type PeerDisconnected struct {
	PubKey *secp256k1.PublicKey
}

// ProducerExit reports that the producer stopped. Err is the reason.
type ProducerExit struct {
	Err error
}

func (PeerConnected) isEvent()    {}
func (PeerDisconnected) isEvent() {}
func (ProducerExit) isEvent()     {}

func (e PeerConnected) String() string {
	return fmt.Sprintf("messenger event: %x connected, onion message support: %v", pubKeyBytes(e.PubKey), e.OnionSupport)
}

func (e PeerDisconnected) String() string {
	return fmt.Sprintf("messenger event: %x disconnected", pubKeyBytes(e.PubKey))
}

func (e ProducerExit) String() string {
	return fmt.Sprintf("messenger event: producer exited: %v", e.Err)
}

func pubKeyBytes(pub *secp256k1.PublicKey) []byte {
	if pub == nil {
		return nil
	}
	return pub.SerializeCompressed()
}
