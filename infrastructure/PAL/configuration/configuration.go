package configuration

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"os"
	"strconv"
	"strings"

	"multitun/application/network/tun"

	"github.com/BurntSushi/toml"
	"gopkg.in/op/go-logging.v1"
)

var (
	// ErrConfigurationMissing is returned when the file or a required key is absent.
	ErrConfigurationMissing = errors.New("configuration missing")
	// ErrInvalidConfiguration is returned when a key is present but unusable.
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

const (
	DefaultPath       = "multitun.toml"
	DefaultPort       = 80
	DefaultWSLocation = "ws"
	DefaultNetmask    = "255.255.255.0"
	DefaultLogLevel   = "INFO"
)

// All holds the keys shared by both modes.
type All struct {
	ServerAddress    string `toml:"serv_addr"`
	ServerPort       int    `toml:"serv_port"`
	WSLocation       string `toml:"ws_loc"`
	Netmask          string `toml:"tun_nm"`
	MTU              int    `toml:"tun_mtu"`
	ServerTunAddress string `toml:"serv_tun_addr"`
	LogFile          string `toml:"logfile"`
	LogLevel         string `toml:"log_level"`
	MetricsAddress   string `toml:"metrics_addr"`
}

type Server struct {
	TunDevice  string `toml:"tun_dev"`
	P2PAddress string `toml:"p2paddr"`
	// WebDir is served at / as an ordinary web site.
	WebDir string `toml:"webdir"`
	// Users maps each client's tunnel address to its password.
	Users map[string]string `toml:"users"`
}

type Client struct {
	TunDevice  string `toml:"tun_dev"`
	TunAddress string `toml:"tun_addr"`
	Password   string `toml:"password"`
}

type Configuration struct {
	All    All    `toml:"all"`
	Server Server `toml:"server"`
	Client Client `toml:"client"`
}

// Load parses the provided buffer as a config file body and applies defaults.
// Mode-specific validation is left to ValidateServer and ValidateClient.
func Load(b []byte) (*Configuration, error) {
	cfg := new(Configuration)
	md, err := toml.Decode(string(b), cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) != 0 {
		return nil, fmt.Errorf("%w: undecoded keys in config file: %v", ErrInvalidConfiguration, undecoded)
	}
	cfg.applyDefaults()
	return cfg, nil
}

func LoadFile(path string) (*Configuration, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s does not exist", ErrConfigurationMissing, path)
		}
		return nil, fmt.Errorf("%w: %v", ErrConfigurationMissing, err)
	}
	return Load(b)
}

func (c *Configuration) applyDefaults() {
	if c.All.ServerPort == 0 {
		c.All.ServerPort = DefaultPort
	}
	c.All.WSLocation = strings.Trim(c.All.WSLocation, "/")
	if c.All.WSLocation == "" {
		c.All.WSLocation = DefaultWSLocation
	}
	if c.All.Netmask == "" {
		c.All.Netmask = DefaultNetmask
	}
	if c.All.MTU == 0 {
		c.All.MTU = tun.DefaultMTU
	}
	if c.All.LogLevel == "" {
		c.All.LogLevel = DefaultLogLevel
	}
}

func (c *Configuration) validateAll() error {
	if c.All.ServerAddress == "" {
		return missing("all.serv_addr")
	}
	if c.All.ServerTunAddress == "" {
		return missing("all.serv_tun_addr")
	}
	if c.All.ServerPort < 1 || c.All.ServerPort > 65535 {
		return invalid("all.serv_port", strconv.Itoa(c.All.ServerPort))
	}
	if strings.Contains(c.All.WSLocation, "/") {
		return invalid("all.ws_loc", c.All.WSLocation)
	}
	if _, err := parseIPv4(c.All.ServerTunAddress); err != nil {
		return invalid("all.serv_tun_addr", c.All.ServerTunAddress)
	}
	if _, err := logging.LogLevel(c.All.LogLevel); err != nil {
		return invalid("all.log_level", c.All.LogLevel)
	}
	if c.All.MetricsAddress != "" {
		if _, _, err := net.SplitHostPort(c.All.MetricsAddress); err != nil {
			return invalid("all.metrics_addr", c.All.MetricsAddress)
		}
	}
	return nil
}

// ValidateServer checks every key the server mode needs.
func (c *Configuration) ValidateServer() error {
	if err := c.validateAll(); err != nil {
		return err
	}
	if c.Server.TunDevice == "" {
		return missing("server.tun_dev")
	}
	if c.Server.P2PAddress == "" {
		return missing("server.p2paddr")
	}
	if len(c.Server.Users) == 0 {
		return missing("server.users")
	}
	if _, err := c.ServerTunSettings(); err != nil {
		return err
	}
	if c.Server.WebDir != "" {
		if info, err := os.Stat(c.Server.WebDir); err != nil || !info.IsDir() {
			return invalid("server.webdir", c.Server.WebDir)
		}
	}
	_, err := c.Users()
	return err
}

// ValidateClient checks every key the client mode needs.
func (c *Configuration) ValidateClient() error {
	if err := c.validateAll(); err != nil {
		return err
	}
	if c.Client.TunDevice == "" {
		return missing("client.tun_dev")
	}
	if c.Client.TunAddress == "" {
		return missing("client.tun_addr")
	}
	if c.Client.Password == "" {
		return missing("client.password")
	}
	_, err := c.ClientTunSettings()
	return err
}

// ServerTunSettings describes the hub's interface: its own tunnel address and the point-to-point peer.
func (c *Configuration) ServerTunSettings() (tun.Settings, error) {
	return c.tunSettings(c.Server.TunDevice, c.All.ServerTunAddress, "server.p2paddr", c.Server.P2PAddress)
}

// ClientTunSettings describes a client's interface, peered with the hub's tunnel address.
func (c *Configuration) ClientTunSettings() (tun.Settings, error) {
	local, err := parseIPv4(c.Client.TunAddress)
	if err != nil {
		return tun.Settings{}, invalid("client.tun_addr", c.Client.TunAddress)
	}
	s, err := c.tunSettings(c.Client.TunDevice, c.All.ServerTunAddress, "all.serv_tun_addr", c.All.ServerTunAddress)
	if err != nil {
		return tun.Settings{}, err
	}
	s.LocalAddress = local
	return s, nil
}

func (c *Configuration) tunSettings(name, local, peerKey, peer string) (tun.Settings, error) {
	localAddr, err := parseIPv4(local)
	if err != nil {
		return tun.Settings{}, invalid("all.serv_tun_addr", local)
	}
	peerAddr, err := parseIPv4(peer)
	if err != nil {
		return tun.Settings{}, invalid(peerKey, peer)
	}
	netmask, err := parseIPv4(c.All.Netmask)
	if err != nil {
		return tun.Settings{}, invalid("all.tun_nm", c.All.Netmask)
	}
	s := tun.Settings{
		Name:         name,
		LocalAddress: localAddr,
		PeerAddress:  peerAddr,
		Netmask:      netmask,
		MTU:          c.All.MTU,
	}
	if _, err := s.PrefixLen(); err != nil {
		return tun.Settings{}, invalid("all.tun_nm", c.All.Netmask)
	}
	if s.MTU < tun.MinimumMTU || s.MTU > tun.MaximumMTU {
		return tun.Settings{}, invalid("all.tun_mtu", strconv.Itoa(s.MTU))
	}
	return s, nil
}

// Users returns the server's user table keyed by tunnel address.
func (c *Configuration) Users() (map[netip.Addr]string, error) {
	users := make(map[netip.Addr]string, len(c.Server.Users))
	for key, password := range c.Server.Users {
		addr, err := parseIPv4(key)
		if err != nil {
			return nil, invalid("server.users", key)
		}
		if password == "" {
			return nil, fmt.Errorf("%w: server.users: empty password for %s", ErrInvalidConfiguration, addr)
		}
		if _, dup := users[addr]; dup {
			return nil, invalid("server.users", key)
		}
		users[addr] = password
	}
	return users, nil
}

// ListenAddress is where the server accepts websocket connections: serv_port on
// every interface, since serv_addr is the address clients dial and may sit behind NAT.
func (c *Configuration) ListenAddress() string {
	return net.JoinHostPort("", strconv.Itoa(c.All.ServerPort))
}

func parseIPv4(s string) (netip.Addr, error) {
	addr, err := netip.ParseAddr(strings.TrimSpace(s))
	if err != nil {
		return netip.Addr{}, err
	}
	if !addr.Is4() {
		return netip.Addr{}, fmt.Errorf("%s is not IPv4", addr)
	}
	return addr, nil
}

func missing(key string) error {
	return fmt.Errorf("%w: %s is not set", ErrConfigurationMissing, key)
}

func invalid(key, value string) error {
	return fmt.Errorf("%w: %s = %q", ErrInvalidConfiguration, key, value)
}
