package ws

import (
	"io"

	"github.com/coder/websocket"
)

// ErrorMapper normalizes transport errors.
type ErrorMapper interface {
	Map(err error) error
}

// DefaultErrorMapper maps orderly closures to io.EOF.
type DefaultErrorMapper struct{}

func (DefaultErrorMapper) Map(err error) error {
	if err == nil {
		return nil
	}
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return io.EOF
	}
	return err
}
