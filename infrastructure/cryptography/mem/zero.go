package mem

import "runtime"

// ZeroBytes overwrites a byte slice with zeros.
// runtime.KeepAlive keeps the stores from being eliminated.
func ZeroBytes(b []byte) {
	if len(b) == 0 {
		return
	}
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(b)
}

// ZeroKey wipes a fixed size X25519 or symmetric key in place.
func ZeroKey(k *[32]byte) {
	if k == nil {
		return
	}
	ZeroBytes(k[:])
}
