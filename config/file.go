package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// LoadFile reads a launchpad.conf: one "key = value" per line, # starts a
// comment. A missing file yields no values.
func LoadFile(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	values := make(map[string]string)
	scanner := bufio.NewScanner(file)
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" || text[0] == '#' {
			continue
		}
		key, value, ok := strings.Cut(text, "=")
		if !ok {
			return nil, fmt.Errorf("%s:%d: expected key = value", path, line)
		}
		values[strings.TrimSpace(key)] = unquote(strings.TrimSpace(value))
	}
	return values, scanner.Err()
}

func unquote(v string) string {
	if len(v) >= 2 && (v[0] == '"' || v[0] == '\'') && v[len(v)-1] == v[0] {
		return v[1 : len(v)-1]
	}
	return v
}

// perNetwork settings are left commented in generated files so one data
// dir can serve both networks with their own defaults.
var perNetwork = map[string]bool{"network": true, "rpc.port": true}

// RenderConfig renders cfg as a config file. Empty and per-network
// settings are written commented out so the file doubles as documentation.
func RenderConfig(cfg *Config) string {
	var b strings.Builder
	b.WriteString("# Launchpad node configuration.\n")
	b.WriteString("# Launch rules, the owner and the platform wallet come from genesis.\n")
	section := ""
	for _, o := range options {
		if o.key == "datadir" {
			continue
		}
		if o.section != section {
			section = o.section
			fmt.Fprintf(&b, "\n# ── %s ──\n\n", section)
		}
		fmt.Fprintf(&b, "# %s\n", o.usage)
		v := o.get(cfg)
		if v == "" || perNetwork[o.key] {
			fmt.Fprintf(&b, "# %s = %s\n", o.key, v)
			continue
		}
		fmt.Fprintf(&b, "%s = %s\n", o.key, v)
	}
	return b.String()
}

// WriteDefaultConfig writes the defaults of network to path.
func WriteDefaultConfig(path string, network NetworkType) error {
	return os.WriteFile(path, []byte(RenderConfig(Default(network))), 0o644)
}
