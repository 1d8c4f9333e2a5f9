package messenger

import (
	"crypto/rand"
	"sync"

	"golang.org/x/crypto/chacha20"

	"github.com/onionbridge/onionbridge/internal/log"
	"github.com/onionbridge/onionbridge/pkg/onion"
)

// Utilities supplies the onion messenger with entropy and a log sink.
type Utilities struct {
	lock   sync.Mutex
	stream *chacha20.Cipher
}

var (
	_ onion.EntropySource = (*Utilities)(nil)
	_ onion.Logger        = (*Utilities)(nil)
)

// NewUtilities creates Utilities with a ChaCha20 keystream seeded from crypto/rand.
func NewUtilities() (*Utilities, error) {
	var key [chacha20.KeySize]byte
	if _, err := rand.Read(key[:]); err != nil {
		return nil, err
	}
	var nonce [chacha20.NonceSize]byte
	stream, err := chacha20.NewUnauthenticatedCipher(key[:], nonce[:])
	if err != nil {
		return nil, err
	}
	return &Utilities{stream: stream}, nil
}

// SecureRandomBytes returns the next 32 bytes of the keystream.
func (u *Utilities) SecureRandomBytes() [32]byte {
	var b [32]byte
	u.lock.Lock()
	u.stream.XORKeyStream(b[:], b[:])
	u.lock.Unlock()
	return b
}

// Log forwards a messenger log record to the process logger. Gossip records are dropped.
func (u *Utilities) Log(level onion.Level, msg string) {
	switch level {
	case onion.LevelGossip:
	case onion.LevelTrace, onion.LevelDebug:
		log.Debug("%s", msg)
	case onion.LevelInfo:
		log.Info("%s", msg)
	case onion.LevelWarn:
		log.Warning("%s", msg)
	case onion.LevelError:
		log.Error("%s", msg)
	}
}
