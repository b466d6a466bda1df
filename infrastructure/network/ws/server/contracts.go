package server

import "net/http"

// Handler handles websocket upgrade requests.
type Handler interface {
	Handle(w http.ResponseWriter, r *http.Request)
}

type Server interface {
	Serve() error
	Shutdown() error
	Done() <-chan struct{}
	Err() error
}
