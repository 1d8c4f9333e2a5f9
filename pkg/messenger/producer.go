package messenger

import (
	"context"
	"fmt"

	"github.com/lightningnetwork/lnd/lnrpc"
	"google.golang.org/grpc"

	"github.com/onionbridge/onionbridge/internal/log"
	"github.com/onionbridge/onionbridge/pkg/features"
	"github.com/onionbridge/onionbridge/pkg/lnd"
)

// PeerEventSource is the subset of lnrpc.LightningClient used by PeerEventProducer.
type PeerEventSource interface {
	SubscribePeerEvents(ctx context.Context, in *lnrpc.PeerEventSubscription, opts ...grpc.CallOption) (lnrpc.Lightning_SubscribePeerEventsClient, error)
	ListPeers(ctx context.Context, in *lnrpc.ListPeersRequest, opts ...grpc.CallOption) (*lnrpc.ListPeersResponse, error)
}

// PeerEventProducer maps LND peer events to Event values.
type PeerEventProducer struct {
	source PeerEventSource
}

// NewPeerEventProducer creates a PeerEventProducer reading from source.
func NewPeerEventProducer(source PeerEventSource) *PeerEventProducer {
	return &PeerEventProducer{source: source}
}

// Run subscribes to peer events and writes them to events until ctx is canceled or LND stops
// delivering events. Peers that are already connected are reported first.
//
// A peer that is already connected is reported once, even if LND both lists it and streams its
// PEER_ONLINE event. A peer that goes offline and comes back is reported again.
//
// If the subscription fails, Run sends a ProducerExit event carrying the error before returning it.
// If ctx is canceled, Run returns nil without sending a ProducerExit. In both cases Run closes
// events before returning.
func (p *PeerEventProducer) Run(ctx context.Context, events chan<- Event) (err error) {
	defer close(events)
	defer func() {
		if ctx.Err() != nil {
			err = nil
			return
		}
		if err != nil {
			log.Error("Peer event producer exiting: %s", err)
			p.send(ctx, events, ProducerExit{Err: err})
		}
	}()

	// Subscribe before listing peers so that no connection is missed in between.
	stream, err := p.source.SubscribePeerEvents(ctx, &lnrpc.PeerEventSubscription{})
	if err != nil {
		return fmt.Errorf("could not subscribe to peer events: %w", err)
	}

	peers, err := p.source.ListPeers(ctx, &lnrpc.ListPeersRequest{})
	if err != nil {
		return fmt.Errorf("could not list peers: %w", err)
	}
	online := make(map[string]bool)
	for _, peer := range peers.GetPeers() {
		pubKey, err := lnd.ParsePubKey(peer.GetPubKey())
		if err != nil {
			log.Warning("Skipping peer with invalid public key %q: %s", peer.GetPubKey(), err)
			continue
		}
		if !p.send(ctx, events, PeerConnected{PubKey: pubKey, OnionSupport: features.SupportsOnionMessages(peer.GetFeatures())}) {
			return nil
		}
		online[peer.GetPubKey()] = true
	}

	for {
		event, err := stream.Recv()
		if err != nil {
			return fmt.Errorf("peer event stream failed: %w", err)
		}

		pubKey, err := lnd.ParsePubKey(event.GetPubKey())
		if err != nil {
			log.Warning("Skipping peer event with invalid public key %q: %s", event.GetPubKey(), err)
			continue
		}

		var next Event
		switch event.GetType() {
		case lnrpc.PeerEvent_PEER_ONLINE:
			if online[event.GetPubKey()] {
				log.Debug("Peer %s already reported as connected", event.GetPubKey())
				continue
			}
			peer, err := p.lookupPeer(ctx, event.GetPubKey())
			if err != nil {
				return err
			}
			if peer == nil {
				log.Debug("Peer %s went offline before it could be looked up", event.GetPubKey())
				continue
			}
			next = PeerConnected{PubKey: pubKey, OnionSupport: features.SupportsOnionMessages(peer.GetFeatures())}
			online[event.GetPubKey()] = true
		case lnrpc.PeerEvent_PEER_OFFLINE:
			next = PeerDisconnected{PubKey: pubKey}
			delete(online, event.GetPubKey())
		default:
			log.Debug("Ignoring peer event of type %s", event.GetType())
			continue
		}
		if !p.send(ctx, events, next) {
			return nil
		}
	}
}

func (p *PeerEventProducer) lookupPeer(ctx context.Context, pubKey string) (*lnrpc.Peer, error) {
	peers, err := p.source.ListPeers(ctx, &lnrpc.ListPeersRequest{})
	if err != nil {
		return nil, fmt.Errorf("could not list peers: %w", err)
	}
	for _, peer := range peers.GetPeers() {
		if peer.GetPubKey() == pubKey {
			return peer, nil
		}
	}
	return nil, nil
}

func (p *PeerEventProducer) send(ctx context.Context, events chan<- Event, event Event) bool {
	select {
	case events <- event:
		return true
	case <-ctx.Done():
		return false
	}
}
