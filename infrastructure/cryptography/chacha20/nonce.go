package chacha20

import (
	"encoding/binary"

	"golang.org/x/crypto/chacha20poly1305"
)

// Nonce is the per-direction send counter. The wire carries the counter,
// the AEAD nonce is four zero bytes followed by it.
type Nonce struct {
	counter uint64
}

func (n *Nonce) next() (uint64, error) {
	if n.counter == ^uint64(0) {
		return 0, ErrNonceOverflow
	}
	n.counter++
	return n.counter, nil
}

func encodeNonce(buffer *[chacha20poly1305.NonceSize]byte, counter uint64) []byte {
	binary.BigEndian.PutUint32(buffer[:4], 0)
	binary.BigEndian.PutUint64(buffer[4:], counter)
	return buffer[:]
}
