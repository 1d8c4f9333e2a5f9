package onion

import "github.com/decred/dcrd/dcrec/secp256k1/v4"

// IsConnected exposes the peer registry to the external test package.
func (m *Messenger) IsConnected(peer *secp256k1.PublicKey) bool {
	return m.isConnected(peer)
}
