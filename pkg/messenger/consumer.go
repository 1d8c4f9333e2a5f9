package messenger

import (
	"fmt"

	"github.com/onionbridge/onionbridge/internal/log"
	"github.com/onionbridge/onionbridge/pkg/features"
)

// ConsumeEvents delivers events to handler until the channel is closed or a fatal event occurs.
//
// It returns nil if events is closed, an error wrapping ErrOnionMessengerFailure if handler rejects
// a connection, and an error wrapping both ErrPeerProducerExit and the exit reason if a
// ProducerExit event is received. Events are processed one at a time in arrival order.
func ConsumeEvents(handler OnionMessageHandler, events <-chan Event) error {
	for event := range events {
		log.Info("Consume messenger events received: %s", event)

		switch e := event.(type) {
		case PeerConnected:
			init := features.NewInit(e.OnionSupport)
			if err := handler.PeerConnected(e.PubKey, init, false); err != nil {
				return fmt.Errorf("%w: %w", ErrOnionMessengerFailure, err)
			}
		case PeerDisconnected:
			handler.PeerDisconnected(e.PubKey)
		case ProducerExit:
			if e.Err == nil {
				return ErrPeerProducerExit
			}
			return fmt.Errorf("%w: %w", ErrPeerProducerExit, e.Err)
		default:
			log.Warning("Ignoring unknown messenger event %T", event)
		}
	}
	return nil
}
