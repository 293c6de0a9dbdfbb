package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
)

// Flags holds the parsed command line. Values maps config file keys to the
// flag values given, so flags apply exactly like file settings.
type Flags struct {
	Help    bool
	Version bool
	Config  string
	Values  map[string]string
}

// ParseFlags parses the daemon's arguments (without argv[0]).
func ParseFlags(args []string) (*Flags, error) {
	f := &Flags{Values: make(map[string]string)}
	fs := flag.NewFlagSet("launchpadd", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.BoolVar(&f.Help, "help", false, "")
	fs.BoolVar(&f.Help, "h", false, "")
	fs.BoolVar(&f.Version, "version", false, "")
	fs.StringVar(&f.Config, "config", "", "")
	fs.StringVar(&f.Config, "c", "", "")
	fs.BoolFunc("testnet", "", func(v string) error {
		var on bool
		if err := setBool(&on, v); err != nil {
			return err
		}
		if on {
			f.Values["network"] = string(Testnet)
		}
		return nil
	})
	for _, o := range options {
		key := o.key
		record := func(v string) error {
			f.Values[key] = v
			return nil
		}
		if o.isBool {
			fs.BoolFunc(o.flag, o.usage, func(v string) error {
				var scratch bool
				if err := setBool(&scratch, v); err != nil {
					return err
				}
				return record(v)
			})
		} else {
			fs.Func(o.flag, o.usage, record)
		}
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if rest := fs.Args(); len(rest) > 0 {
		return nil, fmt.Errorf("unexpected argument %q", rest[0])
	}
	return f, nil
}

// Usage is the daemon help text.
var Usage = renderUsage()

func renderUsage() string {
	var b strings.Builder
	b.WriteString(`Launchpad - token launch settlement node

Usage:
  launchpadd [options]

  --help, -h          Show this help message
  --version           Show version information
  --config, -c        Config file (default: <datadir>/launchpad.conf)
  --testnet           Shorthand for --network=testnet
`)
	section := ""
	for _, o := range options {
		if o.section != section {
			section = o.section
			fmt.Fprintf(&b, "\n%s:\n", section)
		}
		fmt.Fprintf(&b, "  --%-17s %s\n", o.flag, o.usage)
	}
	b.WriteString(`
Environment:
  LAUNCHPAD_NETWORK, LAUNCHPAD_DATADIR, LAUNCHPAD_GENESIS, LAUNCHPAD_RPC_*,
  LAUNCHPAD_PRODUCER_*, LAUNCHPAD_LOG_* override the config file; flags
  override the environment.
`)
	return b.String()
}

// Load builds the node configuration. Later sources win:
//  1. network defaults
//  2. config file (written with defaults on first run)
//  3. LAUNCHPAD_* environment
//  4. command-line flags
//
// Help and version requests return the parsed flags with a nil Config.
func Load(args []string) (*Config, *Flags, error) {
	flags, err := ParseFlags(args)
	if err != nil {
		return nil, nil, err
	}
	if flags.Help || flags.Version {
		return nil, flags, nil
	}

	// Network and datadir pick the defaults and the file, so resolve them
	// from env and flags first.
	base := &Config{Network: Mainnet}
	if err := ApplyEnv(base); err != nil {
		return nil, nil, err
	}
	if err := Apply(base, pick(flags.Values, "network", "datadir")); err != nil {
		return nil, nil, err
	}
	cfg := Default(base.Network)
	cfg.Network = base.Network
	if base.DataDir != "" {
		cfg.DataDir = base.DataDir
	}
	if err := EnsureDataDirs(cfg); err != nil {
		return nil, nil, fmt.Errorf("ensuring data dirs: %w", err)
	}

	path := flags.Config
	if path == "" {
		path = cfg.ConfigFile()
	}
	fileValues, err := LoadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config file: %w", err)
	}
	// The file cannot move the data dir it was found in.
	delete(fileValues, "datadir")
	if err := Apply(cfg, fileValues); err != nil {
		return nil, nil, fmt.Errorf("applying config file: %w", err)
	}
	if err := ApplyEnv(cfg); err != nil {
		return nil, nil, err
	}
	if err := Apply(cfg, flags.Values); err != nil {
		return nil, nil, fmt.Errorf("applying flags: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, flags, nil
}

func pick(values map[string]string, keys ...string) map[string]string {
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		if v, ok := values[k]; ok {
			out[k] = v
		}
	}
	return out
}

// EnsureDataDirs creates the data directory layout and a default config
// file when missing.
func EnsureDataDirs(cfg *Config) error {
	for _, dir := range []string{cfg.DataDir, cfg.NetworkDir(), cfg.StateDir(), cfg.KeystoreDir(), cfg.LogsDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}
	path := cfg.ConfigFile()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := WriteDefaultConfig(path, cfg.Network); err != nil {
			return fmt.Errorf("writing config file: %w", err)
		}
	}
	return nil
}
