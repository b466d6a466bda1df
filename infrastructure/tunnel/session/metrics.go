package session

// DropReason labels a silently dropped packet or message.
type DropReason string

const (
	DropRoutingMiss           DropReason = "routing_miss"
	DropDecryptFailure        DropReason = "decrypt_failure"
	DropHandshake             DropReason = "handshake"
	DropEncryptionUnavailable DropReason = "encryption_unavailable"
	DropQueueFull             DropReason = "queue_full"
	DropTransportSend         DropReason = "transport_send"
	DropWriteError            DropReason = "write_error"
)

// Metrics receives packet and session events. Sizes are plaintext packet lengths.
type Metrics interface {
	PacketRouted(size int)
	PacketDelivered(size int)
	PacketDropped(reason DropReason)
	SessionOpened()
	SessionClosed()
}

type noopMetrics struct{}

func (noopMetrics) PacketRouted(int) {}
func (noopMetrics) PacketDelivered(int) {}
func (noopMetrics) PacketDropped(DropReason) {}
func (noopMetrics) SessionOpened() {}
func (noopMetrics) SessionClosed() {}
