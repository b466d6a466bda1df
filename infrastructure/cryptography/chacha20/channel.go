package chacha20

import (
	"crypto/cipher"
	"encoding/binary"
	"fmt"
	"io"
	"net/netip"
	"time"

	"multitun/application/network/connection"
	"multitun/infrastructure/cryptography/mem"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/curve25519"
)

var (
	_ connection.Channel         = (*Channel)(nil)
	_ connection.ServerHandshake = (*Channel)(nil)
	_ connection.ClientHandshake = (*Channel)(nil)
)

// zeroNonce is used only with single-use handshake keys.
var zeroNonce [chacha20poly1305.NonceSize]byte

// Channel is a ChaCha20-Poly1305 channel bound to one session.
// It is not safe for concurrent use.
type Channel struct {
	role        connection.Role
	established bool

	send      cipher.AEAD
	recv      cipher.AEAD
	sendNonce Nonce
	window    Sliding64
	sendBuf   [chacha20poly1305.NonceSize]byte
	recvBuf   [chacha20poly1305.NonceSize]byte

	// server side
	users  []user
	filter *helloFilter

	// client side
	address    netip.Addr
	psk        [32]byte
	ephPrivate [32]byte
	ephPublic  [32]byte
	helloSent  bool

	rand io.Reader
	now  func() time.Time
}

func (c *Channel) Established() bool {
	return c.established
}

func (c *Channel) Encrypt(packet []byte) ([]byte, error) {
	if !c.established {
		return nil, connection.ErrEncryptionUnavailable
	}
	counter, err := c.sendNonce.next()
	if err != nil {
		return nil, err
	}
	out := make([]byte, counterLength, counterLength+len(packet)+chacha20poly1305.Overhead)
	binary.BigEndian.PutUint64(out, counter)
	return c.send.Seal(out, encodeNonce(&c.sendBuf, counter), packet, out[:counterLength]), nil
}

func (c *Channel) Decrypt(ciphertext []byte) ([]byte, bool) {
	if !c.established || len(ciphertext) < Overhead {
		return nil, false
	}
	counter := binary.BigEndian.Uint64(ciphertext[:counterLength])
	if c.window.Check(counter) != nil {
		return nil, false
	}
	plaintext, err := c.recv.Open(nil, encodeNonce(&c.recvBuf, counter), ciphertext[counterLength:], ciphertext[:counterLength])
	if err != nil {
		return nil, false
	}
	c.window.Accept(counter)
	return plaintext, true
}

// Hello builds the client hello declaring the client's tunnel address.
func (c *Channel) Hello() ([]byte, error) {
	if c.role != connection.RoleClient {
		return nil, fmt.Errorf("%w: hello requires a client channel", connection.ErrHandshakeFailed)
	}
	if c.helloSent {
		return nil, fmt.Errorf("%w: hello already sent", connection.ErrHandshakeFailed)
	}
	if err := c.generateEphemeral(&c.ephPrivate, &c.ephPublic); err != nil {
		return nil, err
	}

	aead, err := deriveAEAD(c.psk[:], c.ephPublic[:], infoHello)
	if err != nil {
		return nil, err
	}
	plaintext := make([]byte, addressLength+timestampLength)
	a4 := c.address.As4()
	copy(plaintext, a4[:])
	binary.BigEndian.PutUint64(plaintext[addressLength:], uint64(c.now().Unix()))

	hello := make([]byte, curve25519.PointSize, helloLength)
	copy(hello, c.ephPublic[:])
	hello = aead.Seal(hello, zeroNonce[:], plaintext, c.ephPublic[:])
	c.helloSent = true
	return hello, nil
}

// CompleteHello verifies the server reply and derives the traffic keys.
func (c *Channel) CompleteHello(reply []byte) error {
	if c.role != connection.RoleClient || !c.helloSent || c.established {
		return fmt.Errorf("%w: unexpected server reply", connection.ErrHandshakeFailed)
	}
	if len(reply) != replyLength {
		return fmt.Errorf("%w: reply length %d", connection.ErrHandshakeFailed, len(reply))
	}
	serverPublic := reply[:curve25519.PointSize]
	shared, err := curve25519.X25519(c.ephPrivate[:], serverPublic)
	if err != nil {
		return fmt.Errorf("%w: %v", connection.ErrHandshakeFailed, err)
	}
	defer zeroBytes(shared)

	confirm, err := deriveAEAD(shared, c.psk[:], infoConfirm)
	if err != nil {
		return err
	}
	ad := append(append(make([]byte, 0, 2*curve25519.PointSize), serverPublic...), c.ephPublic[:]...)
	if _, err := confirm.Open(nil, zeroNonce[:], reply[curve25519.PointSize:], ad); err != nil {
		return fmt.Errorf("%w: server confirmation rejected", connection.ErrHandshakeFailed)
	}
	if err := c.establish(shared, c.psk); err != nil {
		return err
	}
	mem.ZeroKey(&c.ephPrivate)
	return nil
}

// AcceptHello authenticates a client hello against the configured users.
func (c *Channel) AcceptHello(hello []byte) (netip.Addr, []byte, error) {
	if c.role != connection.RoleServer || c.established {
		return netip.Addr{}, nil, fmt.Errorf("%w: unexpected client hello", connection.ErrHandshakeFailed)
	}
	if len(hello) != helloLength {
		return netip.Addr{}, nil, fmt.Errorf("%w: hello length %d", connection.ErrHandshakeFailed, len(hello))
	}
	var clientPublic [32]byte
	copy(clientPublic[:], hello[:curve25519.PointSize])

	for _, u := range c.users {
		aead, err := deriveAEAD(u.psk[:], clientPublic[:], infoHello)
		if err != nil {
			return netip.Addr{}, nil, err
		}
		plaintext, err := aead.Open(nil, zeroNonce[:], hello[curve25519.PointSize:], clientPublic[:])
		if err != nil {
			continue
		}
		// Several users may share a password; the declared address picks the one.
		if netip.AddrFrom4([4]byte(plaintext[:addressLength])) != u.address {
			continue
		}
		return c.acceptUser(u, clientPublic, plaintext)
	}
	return netip.Addr{}, nil, fmt.Errorf("%w: no matching user", connection.ErrHandshakeFailed)
}

func (c *Channel) acceptUser(u user, clientPublic [32]byte, plaintext []byte) (netip.Addr, []byte, error) {
	now := c.now()
	sent := time.Unix(int64(binary.BigEndian.Uint64(plaintext[addressLength:])), 0)
	if skew := now.Sub(sent); skew > HelloSkew || skew < -HelloSkew {
		return netip.Addr{}, nil, fmt.Errorf("%w: hello timestamp skew %s", connection.ErrHandshakeFailed, skew)
	}
	if !c.filter.admit(clientPublic, now) {
		return netip.Addr{}, nil, fmt.Errorf("%w: replayed hello", connection.ErrHandshakeFailed)
	}

	var private, public [32]byte
	if err := c.generateEphemeral(&private, &public); err != nil {
		return netip.Addr{}, nil, err
	}
	defer mem.ZeroKey(&private)
	shared, err := curve25519.X25519(private[:], clientPublic[:])
	if err != nil {
		return netip.Addr{}, nil, fmt.Errorf("%w: %v", connection.ErrHandshakeFailed, err)
	}
	defer zeroBytes(shared)

	confirm, err := deriveAEAD(shared, u.psk[:], infoConfirm)
	if err != nil {
		return netip.Addr{}, nil, err
	}
	reply := make([]byte, curve25519.PointSize, replyLength)
	copy(reply, public[:])
	ad := append(append(make([]byte, 0, 2*curve25519.PointSize), public[:]...), clientPublic[:]...)
	reply = confirm.Seal(reply, zeroNonce[:], nil, ad)

	if err := c.establish(shared, u.psk); err != nil {
		return netip.Addr{}, nil, err
	}
	return u.address, reply, nil
}

func (c *Channel) generateEphemeral(private, public *[32]byte) error {
	if _, err := io.ReadFull(c.rand, private[:]); err != nil {
		return fmt.Errorf("failed to generate ephemeral key: %w", err)
	}
	pub, err := curve25519.X25519(private[:], curve25519.Basepoint)
	if err != nil {
		return err
	}
	copy(public[:], pub)
	return nil
}

// establish installs per-direction keys. A server sends with s2c and receives with c2s.
func (c *Channel) establish(shared []byte, psk [32]byte) error {
	c2s, s2c, err := trafficKeys(shared, psk)
	if err != nil {
		return err
	}
	switch c.role {
	case connection.RoleServer:
		c.send, c.recv = s2c, c2s
	case connection.RoleClient:
		c.send, c.recv = c2s, s2c
	default:
		return fmt.Errorf("unknown channel role %d", c.role)
	}
	c.established = true
	return nil
}
