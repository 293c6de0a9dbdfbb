// Package config loads launchpad node settings and genesis.
//
// Settings come in two kinds:
//   - Protocol rules: defined in genesis (owner, fee wallet, launch rules), fixed for a network
//   - Node settings: runtime configuration, can vary per node
package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"runtime"

	klog "github.com/Klingon-tech/klingnet-launchpad/internal/log"
)

// NetworkType names the network a node joins.
type NetworkType string

const (
	Mainnet NetworkType = "mainnet"
	Testnet NetworkType = "testnet"
)

// Config is the per-node runtime configuration. Every field is settable
// from the config file, LAUNCHPAD_* variables and flags; see options.
type Config struct {
	Network  NetworkType
	DataDir  string
	Genesis  string // genesis JSON path; empty selects the built-in genesis
	RPC      RPCConfig
	Producer ProducerConfig
	Log      LogConfig
}

// RPCConfig configures the JSON-RPC listener.
type RPCConfig struct {
	Enabled     bool
	Addr        string
	Port        int
	AllowedIPs  []string
	CORSOrigins []string
}

// ProducerConfig controls the local block producer that advances height.
type ProducerConfig struct {
	Enabled   bool
	BlockTime int // seconds; 0 uses the genesis block time
}

// LogConfig selects log level and outputs.
type LogConfig struct {
	Level string
	File  string
	JSON  bool
}

// rpcPorts are the default RPC ports per network.
var rpcPorts = map[NetworkType]int{
	Mainnet: 9545,
	Testnet: 9645,
}

// Default returns the node configuration of network, falling back to
// mainnet for unknown networks.
func Default(network NetworkType) *Config {
	if _, ok := rpcPorts[network]; !ok {
		network = Mainnet
	}
	return &Config{
		Network: network,
		DataDir: DefaultDataDir(),
		RPC: RPCConfig{
			Enabled:    true,
			Addr:       "127.0.0.1",
			Port:       rpcPorts[network],
			AllowedIPs: []string{"127.0.0.1"},
		},
		Producer: ProducerConfig{Enabled: true},
		Log:      LogConfig{Level: "info"},
	}
}

// DefaultRPCPort returns the default RPC port of network.
func DefaultRPCPort(network NetworkType) int {
	return Default(network).RPC.Port
}

// Validate checks runtime node config for operator mistakes.
func Validate(cfg *Config) error {
	switch {
	case cfg == nil:
		return fmt.Errorf("config is nil")
	case cfg.Network != Mainnet && cfg.Network != Testnet:
		return fmt.Errorf("network must be %q or %q", Mainnet, Testnet)
	case cfg.DataDir == "":
		return fmt.Errorf("datadir is required")
	case cfg.RPC.Port < 0 || cfg.RPC.Port > 65535:
		return fmt.Errorf("rpc.port must be in range [0, 65535]")
	case cfg.Producer.BlockTime < 0:
		return fmt.Errorf("producer.blocktime must not be negative")
	case !klog.ValidLevel(cfg.Log.Level):
		return fmt.Errorf("log.level %q is not a known level", cfg.Log.Level)
	}
	for i, ip := range cfg.RPC.AllowedIPs {
		if _, _, err := net.ParseCIDR(ip); err != nil && net.ParseIP(ip) == nil {
			return fmt.Errorf("rpc.allowed[%d] %q is not an IP or CIDR", i, ip)
		}
	}
	return nil
}

// DefaultDataDir is ~/.launchpad, or the platform application-data directory.
//
//	Linux:   ~/.launchpad
//	macOS:   ~/Library/Application Support/Launchpad
//	Windows: %APPDATA%\Launchpad
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".launchpad"
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Launchpad")
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "Launchpad")
		}
		return filepath.Join(home, "AppData", "Roaming", "Launchpad")
	default:
		return filepath.Join(home, ".launchpad")
	}
}

// NetworkDir returns the network-specific data directory.
func (c *Config) NetworkDir() string {
	return filepath.Join(c.DataDir, string(c.Network))
}

// StateDir returns the Badger directory holding ledger, bank and chain state.
func (c *Config) StateDir() string {
	return filepath.Join(c.NetworkDir(), "state")
}

// KeystoreDir returns the keystore directory used by the CLI.
func (c *Config) KeystoreDir() string {
	return filepath.Join(c.NetworkDir(), "keystore")
}

// LogsDir holds node log files.
func (c *Config) LogsDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// ConfigFile returns the config file path.
func (c *Config) ConfigFile() string {
	return filepath.Join(c.DataDir, "launchpad.conf")
}
