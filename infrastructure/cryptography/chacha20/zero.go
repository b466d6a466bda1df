package chacha20

import "multitun/infrastructure/cryptography/mem"

func zeroBytes(b []byte) {
	mem.ZeroBytes(b)
}
