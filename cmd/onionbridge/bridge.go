package main

import (
	"context"
	"time"

	"github.com/lightningnetwork/lnd/lnrpc"
	"github.com/lightningnetwork/lnd/lnrpc/peersrpc"
	"github.com/lightningnetwork/lnd/lnrpc/signrpc"

	"github.com/onionbridge/onionbridge/internal/log"
	"github.com/onionbridge/onionbridge/pkg/features"
	"github.com/onionbridge/onionbridge/pkg/lnd"
	"github.com/onionbridge/onionbridge/pkg/messenger"
	"github.com/onionbridge/onionbridge/pkg/onion"
	"github.com/onionbridge/onionbridge/pkg/signer"
)

// lndClient is the set of LND sub-servers the bridge talks to. *lnd.Client implements it.
type lndClient interface {
	Lightning() lnrpc.LightningClient
	Peers() peersrpc.PeersClient
	Signer() signrpc.SignerClient
}

var _ lndClient = (*lnd.Client)(nil)

// run wires the bridge together and blocks until the onion messenger fails or the peer event
// producer stops. It returns the process exit status.
func run(ctx context.Context, client lndClient, signerTimeout time.Duration) int {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	info := lnd.InfoClient{Client: client.Lightning()}
	nodeInfo, err := info.GetInfo(ctx)
	if err != nil {
		writeErr("Failed to query node info: %s", err)
		return 1
	}
	identity, err := lnd.ParsePubKey(nodeInfo.GetIdentityPubkey())
	if err != nil {
		writeErr("LND reported an invalid node id: %s", err)
		return 1
	}
	log.Info("Connected to node %s (%s)", nodeInfo.GetIdentityPubkey(), nodeInfo.GetAlias())

	// Onion messages can still be relayed to peers that signal support without the bit set on our
	// side, so a negotiation failure leaves the bridge running.
	if err := features.SetOnionBit(ctx, info, lnd.AnnouncementClient{Client: client.Peers()}); err != nil {
		log.Error("Error setting feature bit: %s", err)
	}

	nodeSigner := signer.New(identity, client.Signer(), signerTimeout)
	utilities, err := messenger.NewUtilities()
	if err != nil {
		writeErr("Failed to seed entropy source: %s", err)
		return 1
	}
	engine, err := onion.New(utilities, nodeSigner, utilities)
	if err != nil {
		writeErr("Failed to create onion messenger: %s", err)
		return 1
	}
	if err := engine.VerifySigner(); err != nil {
		writeErr("Signer check failed: %s", err)
		return 1
	}

	events := make(chan messenger.Event, messenger.BufferSize)
	producer := messenger.NewPeerEventProducer(client.Lightning())
	go func() {
		if err := producer.Run(ctx, events); err != nil {
			log.Debug("Peer event producer returned: %s", err)
		}
	}()

	log.Info("Relaying peer events to the onion messenger")
	if err := messenger.ConsumeEvents(engine, events); err != nil {
		writeErr("Onion messenger stopped: %s", err)
		return 1
	}
	log.Info("Shutting down with %d onion message peers connected", engine.NumPeers())
	return 0
}
