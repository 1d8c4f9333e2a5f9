package lnd

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/lightningnetwork/lnd/lnrpc"
	"github.com/lightningnetwork/lnd/lnrpc/peersrpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"gopkg.in/macaroon.v2"
)

const testIdentity = "02eec7245d6b7d2ccb30380bfbe2a3648cd7a942653f5aa340edcea1f283686619"

func testCertificate(t *testing.T) []byte {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	template := x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{Organization: []string{"lnd autogenerated cert"}},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		DNSNames:     []string{"localhost"},
	}
	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	require.NoError(t, err)
	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
}

func testMacaroon(t *testing.T) []byte {
	t.Helper()
	mac, err := macaroon.New([]byte("root key"), []byte("id"), "lnd", macaroon.LatestVersion)
	require.NoError(t, err)
	b, err := mac.MarshalBinary()
	require.NoError(t, err)
	return b
}

func TestDialOptions(t *testing.T) {
	cert := testCertificate(t)
	mac := testMacaroon(t)

	opts, err := DialOptions(ConnectConfig{Address: "localhost:10009", TLSCert: cert, Macaroon: mac})
	require.NoError(t, err)
	assert.Len(t, opts, 3)

	_, err = DialOptions(ConnectConfig{TLSCert: []byte("not a certificate"), Macaroon: mac})
	assert.ErrorIs(t, err, ErrInvalidCertificate)

	_, err = DialOptions(ConnectConfig{TLSCert: cert, Macaroon: nil})
	assert.ErrorIs(t, err, ErrInvalidMacaroon)
}

func TestConnectRejectsBadCredentials(t *testing.T) {
	_, err := Connect(context.Background(), ConnectConfig{
		Address:  "localhost:10009",
		TLSCert:  []byte("garbage"),
		Macaroon: testMacaroon(t),
	})
	assert.ErrorIs(t, err, ErrInvalidCertificate)
}

func TestParsePubKey(t *testing.T) {
	pub, err := ParsePubKey(testIdentity)
	require.NoError(t, err)
	assert.Equal(t, testIdentity, hex.EncodeToString(pub.SerializeCompressed()))

	for _, s := range []string{"", "zz", "02eec7", testIdentity[2:]} {
		_, err := ParsePubKey(s)
		assert.Error(t, err, "expected error parsing %q", s)
	}
}

type dummyLightning struct {
	lnrpc.LightningClient
	info *lnrpc.GetInfoResponse
	err  error
}

func (d *dummyLightning) GetInfo(ctx context.Context, in *lnrpc.GetInfoRequest, opts ...grpc.CallOption) (*lnrpc.GetInfoResponse, error) {
	return d.info, d.err
}

type dummyPeers struct {
	peersrpc.PeersClient
	requests []*peersrpc.NodeAnnouncementUpdateRequest
	err      error
}

func (d *dummyPeers) UpdateNodeAnnouncement(ctx context.Context, in *peersrpc.NodeAnnouncementUpdateRequest, opts ...grpc.CallOption) (*peersrpc.NodeAnnouncementUpdateResponse, error) {
	d.requests = append(d.requests, in)
	if d.err != nil {
		return nil, d.err
	}
	return &peersrpc.NodeAnnouncementUpdateResponse{
		Ops: []*lnrpc.Op{{Entity: "features", Actions: []string{"onion messages: set"}}},
	}, nil
}

func TestInfoClient(t *testing.T) {
	info := &lnrpc.GetInfoResponse{IdentityPubkey: testIdentity}
	client := InfoClient{Client: &dummyLightning{info: info}}
	resp, err := client.GetInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, testIdentity, resp.IdentityPubkey)

	errDown := errors.New("lnd down")
	client = InfoClient{Client: &dummyLightning{err: errDown}}
	_, err = client.GetInfo(context.Background())
	assert.ErrorIs(t, err, errDown)
}

func TestAnnouncementClient(t *testing.T) {
	peers := &dummyPeers{}
	client := AnnouncementClient{Client: peers}
	request := &peersrpc.NodeAnnouncementUpdateRequest{Alias: "bridge"}
	require.NoError(t, client.UpdateNodeAnnouncement(context.Background(), request))
	require.Len(t, peers.requests, 1)
	assert.Same(t, request, peers.requests[0])

	peers.err = errors.New("rejected")
	assert.ErrorIs(t, client.UpdateNodeAnnouncement(context.Background(), request), peers.err)
}
