// Package lnd connects to an LND node's gRPC interface.
//
// Connections are authenticated with LND's TLS certificate and a macaroon. The returned [Client]
// exposes the lightning, peers and signer sub-servers that the bridge uses.
package lnd

import (
	"context"
	"crypto/x509"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/lightningnetwork/lnd/lnrpc"
	"github.com/lightningnetwork/lnd/lnrpc/peersrpc"
	"github.com/lightningnetwork/lnd/lnrpc/signrpc"
	"github.com/lightningnetwork/lnd/macaroons"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/protobuf/encoding/protojson"
	"gopkg.in/macaroon.v2"

	"github.com/onionbridge/onionbridge/internal/log"
)

// DefaultConnectTimeout bounds establishing the initial connection.
const DefaultConnectTimeout = 20 * time.Second

var (
	// ErrInvalidCertificate indicates the TLS certificate could not be parsed.
	ErrInvalidCertificate = errors.New("credentials: failed to append certificate")
	// ErrInvalidMacaroon indicates the macaroon could not be decoded.
	ErrInvalidMacaroon = errors.New("error decoding macaroon")
)

// ConnectConfig holds the parameters for reaching LND.
type ConnectConfig struct {
	Address  string // host:port of LND's RPC server
	TLSCert  []byte // PEM-encoded TLS certificate
	Macaroon []byte // binary macaroon
	Timeout  time.Duration
}

// Client is an authenticated connection to LND.
type Client struct {
	conn      *grpc.ClientConn
	lightning lnrpc.LightningClient
	peers     peersrpc.PeersClient
	signer    signrpc.SignerClient
}

// DialOptions returns the gRPC options that authenticate to LND with cfg's certificate and
// macaroon.
func DialOptions(cfg ConnectConfig) ([]grpc.DialOption, error) {
	cp := x509.NewCertPool()
	if !cp.AppendCertsFromPEM(cfg.TLSCert) {
		return nil, ErrInvalidCertificate
	}

	mac := &macaroon.Macaroon{}
	if err := mac.UnmarshalBinary(cfg.Macaroon); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidMacaroon, err)
	}
	macCred, err := macaroons.NewMacaroonCredential(mac)
	if err != nil {
		return nil, fmt.Errorf("error creating creds: %w", err)
	}

	return []grpc.DialOption{
		grpc.WithTransportCredentials(credentials.NewClientTLSFromCert(cp, "")),
		grpc.WithPerRPCCredentials(macCred),
		grpc.WithBlock(),
	}, nil
}

// Connect dials LND and returns a Client.
func Connect(ctx context.Context, cfg ConnectConfig) (*Client, error) {
	opts, err := DialOptions(cfg)
	if err != nil {
		return nil, err
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	log.Debug("Connecting to LND at %s...", cfg.Address)
	conn, err := grpc.DialContext(ctx, cfg.Address, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to RPC server: %w", err)
	}
	return NewClient(conn), nil
}

// NewClient wraps an existing connection.
func NewClient(conn *grpc.ClientConn) *Client {
	return &Client{
		conn:      conn,
		lightning: lnrpc.NewLightningClient(conn),
		peers:     peersrpc.NewPeersClient(conn),
		signer:    signrpc.NewSignerClient(conn),
	}
}

func (c *Client) Lightning() lnrpc.LightningClient {
	return c.lightning
}

func (c *Client) Peers() peersrpc.PeersClient {
	return c.peers
}

func (c *Client) Signer() signrpc.SignerClient {
	return c.signer
}

// Close terminates the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// InfoClient adapts lnrpc.LightningClient to features.InfoRetriever.
type InfoClient struct {
	Client lnrpc.LightningClient
}

func (i InfoClient) GetInfo(ctx context.Context) (*lnrpc.GetInfoResponse, error) {
	resp, err := i.Client.GetInfo(ctx, &lnrpc.GetInfoRequest{})
	if err != nil {
		return nil, err
	}
	if b, err := protojson.Marshal(resp); err == nil {
		log.Debug("GetInfo returned %s", b)
	}
	return resp, nil
}

// AnnouncementClient adapts peersrpc.PeersClient to features.AnnouncementUpdater.
type AnnouncementClient struct {
	Client peersrpc.PeersClient
}

func (a AnnouncementClient) UpdateNodeAnnouncement(ctx context.Context, request *peersrpc.NodeAnnouncementUpdateRequest) error {
	resp, err := a.Client.UpdateNodeAnnouncement(ctx, request)
	if err != nil {
		return err
	}
	for _, op := range resp.GetOps() {
		log.Debug("Node announcement update %s: %v", op.GetEntity(), op.GetActions())
	}
	return nil
}

// ParsePubKey parses a hex-encoded compressed public key, as LND reports node ids.
func ParsePubKey(s string) (*secp256k1.PublicKey, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid public key encoding: %w", err)
	}
	return secp256k1.ParsePubKey(b)
}
