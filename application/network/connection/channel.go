package connection

import (
	"errors"
	"net/netip"
)

var (
	// ErrEncryptionUnavailable is returned by Encrypt before the channel handshake completes.
	ErrEncryptionUnavailable = errors.New("encryption unavailable: handshake incomplete")
	// ErrHandshakeFailed is returned when a handshake message does not authenticate.
	ErrHandshakeFailed = errors.New("handshake failed")
)

type Role int

const (
	RoleServer Role = iota + 1
	RoleClient
)

func (r Role) String() string {
	switch r {
	case RoleServer:
		return "server"
	case RoleClient:
		return "client"
	default:
		return "unknown"
	}
}

// Channel is the per-session encrypt/decrypt capability.
type Channel interface {
	// Encrypt seals one packet. It returns ErrEncryptionUnavailable until Established.
	Encrypt(packet []byte) ([]byte, error)
	// Decrypt opens one ciphertext. A false result means the ciphertext must be dropped;
	// failures are never reported any other way.
	Decrypt(ciphertext []byte) ([]byte, bool)
	Established() bool
}

// ServerHandshake is implemented by server-role channels.
type ServerHandshake interface {
	// AcceptHello authenticates a client hello and returns the tunnel address the client
	// declared together with the reply that must be sent back.
	AcceptHello(hello []byte) (netip.Addr, []byte, error)
}

// ClientHandshake is implemented by client-role channels.
type ClientHandshake interface {
	Hello() ([]byte, error)
	CompleteHello(reply []byte) error
}

type ChannelFactory interface {
	NewChannel(role Role) (Channel, error)
}
