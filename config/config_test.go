package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaults(t *testing.T) {
	main := Default(Mainnet)
	test := Default(Testnet)
	if main.RPC.Port != 9545 || test.RPC.Port != 9645 {
		t.Errorf("rpc ports = %d/%d", main.RPC.Port, test.RPC.Port)
	}
	if err := Validate(main); err != nil {
		t.Errorf("mainnet defaults invalid: %v", err)
	}
	if err := Validate(test); err != nil {
		t.Errorf("testnet defaults invalid: %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "launchpad.conf")
	content := `# comment
network = testnet
rpc.port = 7000
rpc.allowed = 127.0.0.1, 10.0.0.0/8
rpc.cors = "*"
producer.enabled = no
producer.blocktime = 2
log.level = debug
unknown.key = ignored
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	values, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	cfg := Default(Mainnet)
	if err := Apply(cfg, values); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if cfg.Network != Testnet || cfg.RPC.Port != 7000 || cfg.Producer.Enabled || cfg.Producer.BlockTime != 2 {
		t.Errorf("cfg = %+v", cfg)
	}
	if len(cfg.RPC.AllowedIPs) != 2 || cfg.RPC.AllowedIPs[1] != "10.0.0.0/8" {
		t.Errorf("allowed = %v", cfg.RPC.AllowedIPs)
	}
	if len(cfg.RPC.CORSOrigins) != 1 || cfg.RPC.CORSOrigins[0] != "*" {
		t.Errorf("cors = %v", cfg.RPC.CORSOrigins)
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadFile_Errors(t *testing.T) {
	values, err := LoadFile(filepath.Join(t.TempDir(), "missing.conf"))
	if err != nil || len(values) != 0 {
		t.Errorf("missing file = %v, %v; want empty", values, err)
	}

	bad := filepath.Join(t.TempDir(), "bad.conf")
	os.WriteFile(bad, []byte("no equals sign\n"), 0o644)
	if _, err := LoadFile(bad); err == nil {
		t.Error("malformed line should fail")
	}

	cfg := Default(Mainnet)
	if err := Apply(cfg, map[string]string{"rpc.port": "abc"}); err == nil {
		t.Error("non-numeric port should fail")
	}
}

func TestApplyEnvMap(t *testing.T) {
	cfg := Default(Mainnet)
	err := ApplyEnvMap(cfg, map[string]string{
		"LAUNCHPAD_RPC_PORT":         "8111",
		"LAUNCHPAD_RPC_ALLOWED":      "127.0.0.1,::1",
		"LAUNCHPAD_PRODUCER_ENABLED": "false",
		"LAUNCHPAD_LOG_JSON":         "true",
		"UNRELATED":                  "x",
	})
	if err != nil {
		t.Fatalf("ApplyEnvMap: %v", err)
	}
	if cfg.RPC.Port != 8111 || cfg.Producer.Enabled || !cfg.Log.JSON {
		t.Errorf("cfg = %+v", cfg)
	}
	if len(cfg.RPC.AllowedIPs) != 2 {
		t.Errorf("allowed = %v", cfg.RPC.AllowedIPs)
	}
	if cfg.Network != Mainnet || cfg.Log.Level != "info" {
		t.Error("unset variables must not change the config")
	}

	if err := ApplyEnvMap(cfg, map[string]string{"LAUNCHPAD_RPC_PORT": "many"}); err == nil {
		t.Error("bad int should fail")
	}
	for _, v := range []string{"Testnet", "TESTNET", "testnet"} {
		cfg := Default(Mainnet)
		if err := ApplyEnvMap(cfg, map[string]string{"LAUNCHPAD_NETWORK": v}); err != nil {
			t.Fatalf("ApplyEnvMap(%s): %v", v, err)
		}
		if cfg.Network != Testnet {
			t.Errorf("LAUNCHPAD_NETWORK=%s gave network %q", v, cfg.Network)
		}
		if err := Validate(cfg); err != nil {
			t.Errorf("LAUNCHPAD_NETWORK=%s: Validate: %v", v, err)
		}
	}
}

func TestParseFlags(t *testing.T) {
	f, err := ParseFlags([]string{"--testnet", "--rpc=false", "--rpc-port", "7100", "--block-time", "1", "--log-json"})
	if err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}
	cfg := Default(Mainnet)
	if err := Apply(cfg, f.Values); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if cfg.Network != Testnet || cfg.RPC.Enabled || cfg.RPC.Port != 7100 || cfg.Producer.BlockTime != 1 || !cfg.Log.JSON {
		t.Errorf("cfg = %+v", cfg)
	}
	if !cfg.Producer.Enabled {
		t.Error("unset --produce must not disable production")
	}

	if _, err := ParseFlags([]string{"--nope"}); err == nil {
		t.Error("unknown flag should fail")
	}
	if _, err := ParseFlags([]string{"stray"}); err == nil {
		t.Error("positional argument should fail")
	}
	for _, bad := range []string{"--rpc=maybe", "--log-json=2", "--produce=enabled"} {
		if _, err := ParseFlags([]string{bad}); err == nil {
			t.Errorf("ParseFlags(%s) should reject the boolean", bad)
		}
	}
	f, err = ParseFlags([]string{"--rpc=off"})
	if err != nil {
		t.Fatalf("ParseFlags(--rpc=off): %v", err)
	}
	if f.Values["rpc.enabled"] != "off" {
		t.Errorf("rpc value = %q, want off", f.Values["rpc.enabled"])
	}
}

func TestRenderConfigRoundTrip(t *testing.T) {
	want := Default(Testnet)
	want.RPC.CORSOrigins = []string{"http://localhost:3000"}
	want.Producer.BlockTime = 3

	path := filepath.Join(t.TempDir(), "launchpad.conf")
	if err := os.WriteFile(path, []byte(RenderConfig(want)), 0o644); err != nil {
		t.Fatal(err)
	}
	values, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	for _, key := range []string{"genesis", "network", "rpc.port"} {
		if _, ok := values[key]; ok {
			t.Errorf("%s should be commented out", key)
		}
	}
	got := Default(Testnet)
	if err := Apply(got, values); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got.Network != Testnet || got.RPC.Port != 9645 || got.Producer.BlockTime != 3 {
		t.Errorf("got %+v", got)
	}
	if len(got.RPC.CORSOrigins) != 1 || got.RPC.CORSOrigins[0] != "http://localhost:3000" {
		t.Errorf("cors = %v", got.RPC.CORSOrigins)
	}
}

func TestUsageListsEveryFlag(t *testing.T) {
	for _, o := range options {
		if !strings.Contains(Usage, "--"+o.flag) {
			t.Errorf("usage is missing --%s", o.flag)
		}
	}
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	conf := filepath.Join(dir, "custom.conf")
	os.WriteFile(conf, []byte("rpc.port = 7001\nrpc.addr = 0.0.0.0\nlog.level = warn\n"), 0o644)
	t.Setenv("LAUNCHPAD_RPC_PORT", "7002")
	t.Setenv("LAUNCHPAD_LOG_LEVEL", "error")

	cfg, _, err := Load([]string{"--datadir", dir, "--config", conf, "--log-level", "debug"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RPC.Addr != "0.0.0.0" {
		t.Errorf("file value lost: addr %q", cfg.RPC.Addr)
	}
	if cfg.RPC.Port != 7002 {
		t.Errorf("env should override file: port %d", cfg.RPC.Port)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("flag should override env: level %q", cfg.Log.Level)
	}
	if _, err := os.Stat(cfg.StateDir()); err != nil {
		t.Errorf("state dir not created: %v", err)
	}
	if _, err := os.Stat(cfg.ConfigFile()); err != nil {
		t.Errorf("default config not written: %v", err)
	}
}

func TestLoad_Help(t *testing.T) {
	cfg, f, err := Load([]string{"--help"})
	if err != nil || cfg != nil || !f.Help {
		t.Errorf("Load(--help) = %v, %+v, %v", cfg, f, err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"network", func(c *Config) { c.Network = "devnet" }},
		{"port", func(c *Config) { c.RPC.Port = 70000 }},
		{"allowed", func(c *Config) { c.RPC.AllowedIPs = []string{"localhost"} }},
		{"block time", func(c *Config) { c.Producer.BlockTime = -1 }},
		{"log level", func(c *Config) { c.Log.Level = "loud" }},
		{"datadir", func(c *Config) { c.DataDir = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default(Mainnet)
			tt.mutate(cfg)
			if err := Validate(cfg); err == nil {
				t.Error("Validate() should fail")
			}
		})
	}
}
