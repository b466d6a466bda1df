package connection

import "context"

// Transport is a message oriented, persistent, bidirectional connection.
// Each message carries exactly one encrypted datagram.
type Transport interface {
	ReadMessage(ctx context.Context) ([]byte, error)
	WriteMessage(ctx context.Context, data []byte) error
	Close() error
}
