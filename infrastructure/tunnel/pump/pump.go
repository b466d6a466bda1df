package pump

import (
	"context"
	"errors"
	"io"
	"runtime"
	"sync/atomic"

	"multitun/application/logging"
)

var ErrAlreadyStarted = errors.New("pump already started")

// DefaultBacklog bounds how many packets may wait for the event loop.
const DefaultBacklog = 256

// Pump turns a device's blocking Read into an ordered stream of packets.
// The stream is not restartable: Run may be called once.
type Pump struct {
	reader  io.Reader
	mtu     int
	pinned  bool
	logger  logging.Logger
	packets chan []byte
	started atomic.Bool
}

// New builds a pump reading packets of up to mtu bytes from reader.
// When pinned is set, Run locks its goroutine to an OS thread for the duration of
// the blocking waits.
func New(reader io.Reader, mtu int, pinned bool, logger logging.Logger) *Pump {
	return &Pump{
		reader:  reader,
		mtu:     mtu,
		pinned:  pinned,
		logger:  logger,
		packets: make(chan []byte, DefaultBacklog),
	}
}

// Packets is closed once Run returns.
func (p *Pump) Packets() <-chan []byte {
	return p.packets
}

// Run reads until the device fails or ctx ends. It returns nil when ctx ends.
func (p *Pump) Run(ctx context.Context) error {
	if !p.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	defer close(p.packets)

	if p.pinned {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
	}

	buffer := make([]byte, p.mtu+1)
	for {
		n, err := p.reader.Read(buffer)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			if ne, ok := err.(interface{ Temporary() bool }); ok && ne.Temporary() {
				continue
			}
			p.logger.Printf("failed to read from TUN: %v", err)
			return err
		}
		if n == 0 || n > p.mtu {
			continue
		}

		packet := make([]byte, n)
		copy(packet, buffer[:n])
		select {
		case p.packets <- packet:
		case <-ctx.Done():
			return nil
		}
	}
}
