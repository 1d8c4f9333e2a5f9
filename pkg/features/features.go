// Package features negotiates the onion messaging feature bit with LND.
//
// LND does not persist custom feature bits set through its peers sub-server, so [SetOnionBit]
// must run every time the bridge starts. The update is verified with a second, independent query
// before negotiation reports success.
package features

import (
	"context"
	"errors"
	"fmt"

	"github.com/lightningnetwork/lnd/lnrpc"
	"github.com/lightningnetwork/lnd/lnrpc/peersrpc"
	"github.com/lightningnetwork/lnd/lnwire"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/onionbridge/onionbridge/internal/log"
)

// Feature bits for option_onion_messages (bolts#759).
const (
	OnionMessagesRequired lnwire.FeatureBit = 38
	OnionMessagesOptional lnwire.FeatureBit = 39
)

var (
	// ErrPeersServiceUnimplemented indicates LND was built without the peers sub-server.
	ErrPeersServiceUnimplemented = errors.New("peers service is unimplemented, remember to " +
		"enable the peersrpc and signrpc services when building LND with make tags='peersrpc signrpc'")
	// ErrFeatureBitNotSet indicates LND accepted the update but does not advertise the bit.
	ErrFeatureBitNotSet = errors.New("onion messaging feature bit failed to be set")
)

// UpdateAnnouncementError indicates LND rejected the node announcement update.
type UpdateAnnouncementError struct {
	Err error
}

func (e *UpdateAnnouncementError) Error() string {
	return fmt.Sprintf("error setting update announcement: %s", e.Err)
}

func (e *UpdateAnnouncementError) Unwrap() error {
	return e.Err
}

// GetInfoError indicates the node's advertised features could not be queried.
type GetInfoError struct {
	Err error
}

func (e *GetInfoError) Error() string {
	return fmt.Sprintf("get_info error: %s", e.Err)
}

func (e *GetInfoError) Unwrap() error {
	return e.Err
}

//go:generate mockgen -destination ../../mocks/features.go -package mocks -mock_names InfoRetriever=InfoRetriever,AnnouncementUpdater=AnnouncementUpdater github.com/onionbridge/onionbridge/pkg/features InfoRetriever,AnnouncementUpdater

// InfoRetriever fetches the node's info, including the features it advertises.
type InfoRetriever interface {
	GetInfo(ctx context.Context) (*lnrpc.GetInfoResponse, error)
}

// AnnouncementUpdater modifies the node's announcement.
type AnnouncementUpdater interface {
	UpdateNodeAnnouncement(ctx context.Context, request *peersrpc.NodeAnnouncementUpdateRequest) error
}

// SetOnionBit makes sure the node advertises OnionMessagesOptional.
//
// If the bit is already advertised, no update is sent. Otherwise the bit is added through updater
// and SetOnionBit queries info again to confirm the bit took effect. The returned error is one of
// *GetInfoError, *UpdateAnnouncementError, ErrPeersServiceUnimplemented or ErrFeatureBitNotSet.
func SetOnionBit(ctx context.Context, info InfoRetriever, updater AnnouncementUpdater) error {
	advertised, err := hasOnionBit(ctx, info)
	if err != nil {
		return err
	}
	if advertised {
		log.Debug("Onion messaging feature bit already set")
		return nil
	}

	log.Info("Attempting to set onion messaging feature bit...")
	err = updater.UpdateNodeAnnouncement(ctx, &peersrpc.NodeAnnouncementUpdateRequest{
		FeatureUpdates: []*peersrpc.UpdateFeatureAction{
			{
				Action:     peersrpc.UpdateAction_ADD,
				FeatureBit: lnrpc.FeatureBit(OnionMessagesOptional),
			},
		},
	})
	if err != nil {
		if status.Code(err) == codes.Unimplemented {
			return ErrPeersServiceUnimplemented
		}
		return &UpdateAnnouncementError{Err: err}
	}

	advertised, err = hasOnionBit(ctx, info)
	if err != nil {
		return err
	}
	if !advertised {
		return ErrFeatureBitNotSet
	}

	log.Info("Successfully set onion messaging bit")
	return nil
}

func hasOnionBit(ctx context.Context, info InfoRetriever) (bool, error) {
	resp, err := info.GetInfo(ctx)
	if err != nil {
		return false, &GetInfoError{Err: err}
	}
	_, ok := resp.GetFeatures()[uint32(OnionMessagesOptional)]
	return ok, nil
}

// SupportsOnionMessages reports whether a feature map, as returned by LND for a peer, signals
// onion message support.
func SupportsOnionMessages(features map[uint32]*lnrpc.Feature) bool {
	if _, ok := features[uint32(OnionMessagesOptional)]; ok {
		return true
	}
	_, ok := features[uint32(OnionMessagesRequired)]
	return ok
}

// NewInit synthesizes the init message a peer connection declares. Only OnionMessagesOptional is
// ever set, and only when onionSupport is true.
func NewInit(onionSupport bool) *lnwire.Init {
	raw := lnwire.NewRawFeatureVector()
	if onionSupport {
		raw.Set(OnionMessagesOptional)
	}
	return lnwire.NewInitMessage(lnwire.NewRawFeatureVector(), raw)
}

// InitSupportsOnionMessages reports whether init declares onion message support.
func InitSupportsOnionMessages(init *lnwire.Init) bool {
	if init == nil || init.Features == nil {
		return false
	}
	return init.Features.IsSet(OnionMessagesOptional) || init.Features.IsSet(OnionMessagesRequired)
}
