package chacha20

// Sliding64 is a 64 entry anti-replay window over receive counters.
// It is confined to the goroutine that owns the channel.
type Sliding64 struct {
	max    uint64
	bitmap uint64
}

// Check returns nil if the counter would be accepted, without modifying state.
func (s *Sliding64) Check(counter uint64) error {
	switch {
	case counter == 0:
		return ErrNonUniqueNonce
	case counter > s.max:
		return nil
	case s.max-counter >= 64:
		return ErrNonUniqueNonce
	case s.bitmap&(uint64(1)<<(s.max-counter)) != 0:
		return ErrNonUniqueNonce
	default:
		return nil
	}
}

// Accept commits the counter. Must be called only after the frame authenticated.
func (s *Sliding64) Accept(counter uint64) {
	switch {
	case counter > s.max:
		shift := counter - s.max
		if shift >= 64 {
			s.bitmap = 1
		} else {
			s.bitmap = (s.bitmap << shift) | 1
		}
		s.max = counter
	case s.max-counter < 64:
		s.bitmap |= uint64(1) << (s.max - counter)
	}
}
