package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
)

// envOverrides holds the LAUNCHPAD_* variables. Unset variables stay nil.
type envOverrides struct {
	Network    *string  `env:"LAUNCHPAD_NETWORK"`
	DataDir    *string  `env:"LAUNCHPAD_DATADIR"`
	Genesis    *string  `env:"LAUNCHPAD_GENESIS"`
	RPCEnabled *bool    `env:"LAUNCHPAD_RPC_ENABLED"`
	RPCAddr    *string  `env:"LAUNCHPAD_RPC_ADDR"`
	RPCPort    *int     `env:"LAUNCHPAD_RPC_PORT"`
	RPCAllowed []string `env:"LAUNCHPAD_RPC_ALLOWED" envSeparator:","`
	RPCCORS    []string `env:"LAUNCHPAD_RPC_CORS"    envSeparator:","`
	Produce    *bool    `env:"LAUNCHPAD_PRODUCER_ENABLED"`
	BlockTime  *int     `env:"LAUNCHPAD_PRODUCER_BLOCKTIME"`
	LogLevel   *string  `env:"LAUNCHPAD_LOG_LEVEL"`
	LogFile    *string  `env:"LAUNCHPAD_LOG_FILE"`
	LogJSON    *bool    `env:"LAUNCHPAD_LOG_JSON"`
}

// ApplyEnv applies LAUNCHPAD_* overrides from the process environment.
func ApplyEnv(cfg *Config) error {
	return ApplyEnvMap(cfg, env.ToMap(os.Environ()))
}

// ApplyEnvMap applies LAUNCHPAD_* overrides from environ.
func ApplyEnvMap(cfg *Config, environ map[string]string) error {
	var o envOverrides
	if err := env.ParseWithOptions(&o, env.Options{Environment: environ}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	if o.Network != nil {
		cfg.Network = NetworkType(strings.ToLower(*o.Network))
	}
	if o.DataDir != nil {
		cfg.DataDir = *o.DataDir
	}
	if o.Genesis != nil {
		cfg.Genesis = *o.Genesis
	}
	if o.RPCEnabled != nil {
		cfg.RPC.Enabled = *o.RPCEnabled
	}
	if o.RPCAddr != nil {
		cfg.RPC.Addr = *o.RPCAddr
	}
	if o.RPCPort != nil {
		cfg.RPC.Port = *o.RPCPort
	}
	if len(o.RPCAllowed) > 0 {
		cfg.RPC.AllowedIPs = o.RPCAllowed
	}
	if len(o.RPCCORS) > 0 {
		cfg.RPC.CORSOrigins = o.RPCCORS
	}
	if o.Produce != nil {
		cfg.Producer.Enabled = *o.Produce
	}
	if o.BlockTime != nil {
		cfg.Producer.BlockTime = *o.BlockTime
	}
	if o.LogLevel != nil {
		cfg.Log.Level = *o.LogLevel
	}
	if o.LogFile != nil {
		cfg.Log.File = *o.LogFile
	}
	if o.LogJSON != nil {
		cfg.Log.JSON = *o.LogJSON
	}
	return nil
}
