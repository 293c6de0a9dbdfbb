package config

import (
	"fmt"
	"strconv"
	"strings"
)

// option is one node setting. The same table drives the config file, the
// command line and the generated help text.
type option struct {
	key     string // config file key
	flag    string // command-line flag, without dashes
	section string
	usage   string
	isBool  bool
	set     func(c *Config, v string) error
	get     func(c *Config) string
}

var options = []option{
	{key: "network", flag: "network", section: "Core", usage: "Network type: mainnet or testnet",
		set: func(c *Config, v string) error { c.Network = NetworkType(strings.ToLower(v)); return nil },
		get: func(c *Config) string { return string(c.Network) }},
	{key: "datadir", flag: "datadir", section: "Core", usage: "Data directory",
		set: func(c *Config, v string) error { c.DataDir = v; return nil },
		get: func(c *Config) string { return c.DataDir }},
	{key: "genesis", flag: "genesis", section: "Core", usage: "Genesis JSON file (empty: built-in genesis)",
		set: func(c *Config, v string) error { c.Genesis = v; return nil },
		get: func(c *Config) string { return c.Genesis }},

	{key: "rpc.enabled", flag: "rpc", section: "RPC", usage: "Enable the JSON-RPC server", isBool: true,
		set: func(c *Config, v string) error { return setBool(&c.RPC.Enabled, v) },
		get: func(c *Config) string { return strconv.FormatBool(c.RPC.Enabled) }},
	{key: "rpc.addr", flag: "rpc-addr", section: "RPC", usage: "RPC listen address",
		set: func(c *Config, v string) error { c.RPC.Addr = v; return nil },
		get: func(c *Config) string { return c.RPC.Addr }},
	{key: "rpc.port", flag: "rpc-port", section: "RPC", usage: "RPC listen port",
		set: func(c *Config, v string) error { return setInt(&c.RPC.Port, v) },
		get: func(c *Config) string { return strconv.Itoa(c.RPC.Port) }},
	{key: "rpc.allowed", flag: "rpc-allowed", section: "RPC", usage: "Client IPs or CIDRs allowed to call RPC (comma-separated)",
		set: func(c *Config, v string) error { c.RPC.AllowedIPs = parseStringList(v); return nil },
		get: func(c *Config) string { return strings.Join(c.RPC.AllowedIPs, ",") }},
	{key: "rpc.cors", flag: "rpc-cors", section: "RPC", usage: `Allowed CORS origins, "*" for all (comma-separated)`,
		set: func(c *Config, v string) error { c.RPC.CORSOrigins = parseStringList(v); return nil },
		get: func(c *Config) string { return strings.Join(c.RPC.CORSOrigins, ",") }},

	{key: "producer.enabled", flag: "produce", section: "Block Production", usage: "Advance block height on a timer", isBool: true,
		set: func(c *Config, v string) error { return setBool(&c.Producer.Enabled, v) },
		get: func(c *Config) string { return strconv.FormatBool(c.Producer.Enabled) }},
	{key: "producer.blocktime", flag: "block-time", section: "Block Production", usage: "Seconds between blocks (0: genesis block time)",
		set: func(c *Config, v string) error { return setInt(&c.Producer.BlockTime, v) },
		get: func(c *Config) string { return strconv.Itoa(c.Producer.BlockTime) }},

	{key: "log.level", flag: "log-level", section: "Logging", usage: "Log level: debug, info, warn, error",
		set: func(c *Config, v string) error { c.Log.Level = v; return nil },
		get: func(c *Config) string { return c.Log.Level }},
	{key: "log.file", flag: "log-file", section: "Logging", usage: "JSON log file (default: <datadir>/logs/launchpad.log)",
		set: func(c *Config, v string) error { c.Log.File = v; return nil },
		get: func(c *Config) string { return c.Log.File }},
	{key: "log.json", flag: "log-json", section: "Logging", usage: "Write console logs as JSON", isBool: true,
		set: func(c *Config, v string) error { return setBool(&c.Log.JSON, v) },
		get: func(c *Config) string { return strconv.FormatBool(c.Log.JSON) }},
}

// aliases are older config file spellings.
var aliases = map[string]string{
	"rpc":     "rpc.enabled",
	"produce": "producer.enabled",
}

func lookupOption(key string) (option, bool) {
	if canonical, ok := aliases[key]; ok {
		key = canonical
	}
	for _, o := range options {
		if o.key == key {
			return o, true
		}
	}
	return option{}, false
}

// Apply sets config values by file key, in no particular order. Unknown
// keys are ignored so newer config files still load.
func Apply(cfg *Config, values map[string]string) error {
	for key, value := range values {
		o, ok := lookupOption(key)
		if !ok {
			continue
		}
		if err := o.set(cfg, value); err != nil {
			return fmt.Errorf("config key %q: %w", key, err)
		}
	}
	return nil
}

func setBool(dst *bool, v string) error {
	switch strings.ToLower(v) {
	case "true", "1", "yes", "on", "":
		*dst = true
	case "false", "0", "no", "off":
		*dst = false
	default:
		return fmt.Errorf("invalid boolean %q", v)
	}
	return nil
}

func setInt(dst *int, v string) error {
	n, err := strconv.Atoi(v)
	if err != nil {
		return err
	}
	*dst = n
	return nil
}

// parseStringList parses a comma-separated list, dropping empty entries.
func parseStringList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
