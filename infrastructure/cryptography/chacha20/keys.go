package chacha20

import (
	"crypto/cipher"
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// stretchPassword turns a configured password into a 32 byte pre-shared key.
func stretchPassword(password string) [32]byte {
	var psk [32]byte
	copy(psk[:], argon2.IDKey([]byte(password), []byte(passwordTag), argonTime, argonMemory, argonThreads, 32))
	return psk
}

func deriveKey(secret, salt []byte, info string) ([32]byte, error) {
	var key [32]byte
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, salt, []byte(info)), key[:]); err != nil {
		return key, err
	}
	return key, nil
}

func deriveAEAD(secret, salt []byte, info string) (cipher.AEAD, error) {
	key, err := deriveKey(secret, salt, info)
	if err != nil {
		return nil, err
	}
	defer zeroBytes(key[:])
	return chacha20poly1305.New(key[:])
}

// trafficKeys returns the client-to-server and server-to-client AEADs.
func trafficKeys(shared []byte, psk [32]byte) (c2s, s2c cipher.AEAD, err error) {
	if c2s, err = deriveAEAD(shared, psk[:], infoC2S); err != nil {
		return nil, nil, err
	}
	if s2c, err = deriveAEAD(shared, psk[:], infoS2C); err != nil {
		return nil, nil, err
	}
	return c2s, s2c, nil
}
