package mode

type Mode int

const (
	Unknown Mode = iota
	// Client mode connects to one hub
	Client
	// Server mode accepts many clients
	Server
)

func (m Mode) String() string {
	switch m {
	case Client:
		return "client"
	case Server:
		return "server"
	default:
		return "unknown"
	}
}

// FromServerFlag maps the -s flag to a mode: the default is client.
func FromServerFlag(server bool) Mode {
	if server {
		return Server
	}
	return Client
}
