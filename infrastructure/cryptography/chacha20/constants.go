package chacha20

import (
	"time"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/curve25519"
)

const (
	counterLength = 8
	// Overhead is the number of bytes a data frame adds to a packet.
	Overhead = counterLength + chacha20poly1305.Overhead

	addressLength   = 4
	timestampLength = 8
	helloLength     = curve25519.PointSize + addressLength + timestampLength + chacha20poly1305.Overhead
	replyLength     = curve25519.PointSize + chacha20poly1305.Overhead

	// HelloSkew bounds the clock difference accepted in a client hello.
	HelloSkew = 2 * time.Minute
)

const (
	infoHello   = "multitun hello"
	infoConfirm = "multitun confirm"
	infoC2S     = "multitun c2s"
	infoS2C     = "multitun s2c"
	passwordTag = "multitun password"
)

// argon2id parameters used to stretch a password into a pre-shared key.
const (
	argonTime    = 1
	argonMemory  = 19 * 1024
	argonThreads = 2
)
