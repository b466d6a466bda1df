package chacha20

import "errors"

var (
	ErrNonUniqueNonce = errors.New("nonce was not unique")
	ErrNonceOverflow  = errors.New("nonce overflow: maximum number of messages reached")
	ErrEmptyPassword  = errors.New("password is empty")
)
