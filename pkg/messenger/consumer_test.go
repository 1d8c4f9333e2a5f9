package messenger_test

import (
	"errors"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/lightningnetwork/lnd/lnwire"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/onionbridge/onionbridge/mocks"
	"github.com/onionbridge/onionbridge/pkg/features"
	"github.com/onionbridge/onionbridge/pkg/lnd"
	"github.com/onionbridge/onionbridge/pkg/messenger"
)

const testPeer = "02eec7245d6b7d2ccb30380bfbe2a3648cd7a942653f5aa340edcea1f283686619"

func supportsOnion(supported bool) gomock.Matcher {
	return gomock.Cond(func(x any) bool {
		return features.InitSupportsOnionMessages(x.(*lnwire.Init)) == supported
	})
}

var _ = Describe("ConsumeEvents", func() {
	var (
		ctrl    *gomock.Controller
		handler *mocks.OnionMessageHandler
		pk      *secp256k1.PublicKey
	)

	BeforeEach(func() {
		var err error
		ctrl = gomock.NewController(GinkgoT())
		handler = mocks.NewOnionMessageHandler(ctrl)
		pk, err = lnd.ParsePubKey(testPeer)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() {
			ctrl.Finish()
		})
	})

	It("delivers events in order and exits with the producer's reason", func() {
		events := make(chan messenger.Event, 4)
		errLndGone := errors.New("lnd went away")

		events <- messenger.PeerConnected{PubKey: pk, OnionSupport: true}
		events <- messenger.PeerConnected{PubKey: pk, OnionSupport: false}
		events <- messenger.PeerDisconnected{PubKey: pk}
		events <- messenger.ProducerExit{Err: errLndGone}

		gomock.InOrder(
			handler.EXPECT().PeerConnected(pk, supportsOnion(true), false).Return(nil),
			handler.EXPECT().PeerConnected(pk, supportsOnion(false), false).Return(nil),
			handler.EXPECT().PeerDisconnected(pk),
		)

		err := messenger.ConsumeEvents(handler, events)
		Expect(err).To(MatchError(messenger.ErrPeerProducerExit))
		Expect(err).To(MatchError(errLndGone))
		Expect(err).NotTo(MatchError(messenger.ErrOnionMessengerFailure))
	})

	It("halts on the first onion messenger failure", func() {
		events := make(chan messenger.Event, 3)
		errRejected := errors.New("rejected")

		events <- messenger.PeerConnected{PubKey: pk, OnionSupport: true}
		events <- messenger.PeerDisconnected{PubKey: pk}
		events <- messenger.ProducerExit{Err: errors.New("unreachable")}

		handler.EXPECT().PeerConnected(pk, gomock.Any(), false).Return(errRejected)
		handler.EXPECT().PeerDisconnected(gomock.Any()).Times(0)

		err := messenger.ConsumeEvents(handler, events)
		Expect(err).To(MatchError(messenger.ErrOnionMessengerFailure))
		Expect(err).To(MatchError(errRejected))
		Expect(err).NotTo(MatchError(messenger.ErrPeerProducerExit))

		// The events after the failure are left unread.
		Expect(events).To(HaveLen(2))
	})

	It("exits cleanly when the channel is closed", func() {
		events := make(chan messenger.Event, 1)
		close(events)

		Expect(messenger.ConsumeEvents(handler, events)).To(Succeed())
	})

	It("exits cleanly after draining a closed channel", func() {
		events := make(chan messenger.Event, 2)
		events <- messenger.PeerDisconnected{PubKey: pk}
		close(events)

		handler.EXPECT().PeerDisconnected(pk)
		Expect(messenger.ConsumeEvents(handler, events)).To(Succeed())
	})

	It("reports a producer exit without a reason", func() {
		events := make(chan messenger.Event, 1)
		events <- messenger.ProducerExit{}

		Expect(messenger.ConsumeEvents(handler, events)).To(MatchError(messenger.ErrPeerProducerExit))
	})
})
